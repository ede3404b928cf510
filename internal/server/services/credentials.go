package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

// PasswordHasher is a one-way salted hash. auth.BcryptHasher implements it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
}

// CredentialStore owns user records and their passwords. Writes run the
// same steps in order: normalize, validate, hash the password if one was
// supplied, persist.
type CredentialStore struct {
	users  users.Repository
	hasher PasswordHasher
}

func NewCredentialStore(repo users.Repository, hasher PasswordHasher) *CredentialStore {
	return &CredentialStore{users: repo, hasher: hasher}
}

// Create registers c as a new user.
func (s *CredentialStore) Create(ctx context.Context, c Candidate) (*models.User, error) {
	c.normalize()
	if err := validateCandidate(&c, true); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(c.Password)
	if err != nil {
		return nil, classify("hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         c.Name,
		Age:          c.Age,
		Email:        c.Email,
		PasswordHash: hash,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, classify("create user", err)
	}
	return created, nil
}

// Save persists profile changes to user. A non-nil newPassword is
// validated and replaces the stored hash; the plaintext is never written.
func (s *CredentialStore) Save(ctx context.Context, user *models.User, newPassword *string) error {
	c := Candidate{Name: user.Name, Age: user.Age, Email: user.Email}
	if newPassword != nil {
		c.Password = *newPassword
	}
	c.normalize()
	if err := validateCandidate(&c, newPassword != nil); err != nil {
		return err
	}

	user.Name = c.Name
	user.Email = c.Email
	if newPassword != nil {
		hash, err := s.hasher.Hash(c.Password)
		if err != nil {
			return classify("hash password", err)
		}
		user.PasswordHash = hash
	}

	return classify("update user", s.users.Update(ctx, user))
}

// FindByEmail looks email up after normalizing it. A miss is
// common.ErrorNotFound.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, classify("find user by email", err)
	}
	return u, nil
}

// FindByID returns common.ErrorNotFound for unknown and malformed ids alike.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, classify("find user by id", err)
	}
	return u, nil
}

// Delete removes only the user record. Account removal goes through
// CascadeCoordinator.
func (s *CredentialStore) Delete(ctx context.Context, user *models.User) error {
	return classify("delete user", s.users.Delete(ctx, user.ID))
}

// Authenticate checks email and password and returns the user. Unknown
// emails still pay for one hash comparison, and both failures are
// common.ErrInvalidCredentials.
func (s *CredentialStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	password = strings.TrimSpace(password)

	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// dummyHash is a well-formed bcrypt hash (cost 8) that matches no password
// a user can choose.
const dummyHash = "$2a$08$C6UzMDM.H6dfI/f/IKxGhuKcv0ZTqvg5fWzAQoKQfIZxVRnGx3qmy"

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
