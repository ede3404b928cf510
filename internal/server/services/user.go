// Package services contains server-side business logic: accounts, sessions
// and owner-scoped tasks. Transports call into UserService and TaskService
// only.
package services

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/avatar"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// AuthResult is what signup and login hand back: the user and a fresh token.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// userUpdateFields are the profile fields a caller may change.
var userUpdateFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

// UserService provides the account operations:
//   - Signup / Login: create or check credentials and issue a token
//   - Logout / LogoutAll: revoke one or every token
//   - Authenticate: resolve a bearer token
//   - UpdateProfile / DeleteProfile and the avatar calls
type UserService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	codec       TokenCodec
	maxSessions int
	avatars     *avatar.Processor
	cascade     *CascadeCoordinator
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(tx dbx.Transactor, m repomanager.RepositoryManager, cfg *config.Config) (*UserService, error) {
	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &UserService{
		tx:          tx,
		repomanager: m,
		hasher:      hasher,
		codec:       auth.NewTokenCodec([]byte(cfg.SecretKey), cfg.TokenValidityDuration),
		maxSessions: cfg.MaxSessionsPerUser,
		avatars:     avatar.NewProcessor(cfg.AvatarMaxBytes),
		cascade:     NewCascadeCoordinator(tx, m),
	}, nil
}

func (s *UserService) credentials(db dbx.DBTX) *CredentialStore {
	return NewCredentialStore(s.repomanager.Users(db), s.hasher)
}

func (s *UserService) registry(db dbx.DBTX) *TokenRegistry {
	return NewTokenRegistry(s.repomanager.Tokens(db), s.codec, s.maxSessions)
}

// AvatarMaxBytes is the configured upload limit.
func (s *UserService) AvatarMaxBytes() int64 {
	return s.avatars.MaxBytes()
}

// Signup creates the account and its first token in one unit of work, so a
// failed issue leaves no account behind.
func (s *UserService) Signup(ctx context.Context, c Candidate) (*AuthResult, error) {
	var res *AuthResult
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.credentials(tx).Create(ctx, c)
		if err != nil {
			return err
		}
		token, err := s.registry(tx).Issue(ctx, user)
		if err != nil {
			return err
		}
		res = &AuthResult{User: user, Token: token}
		return nil
	})
	if err != nil {
		return nil, classify("signup", err)
	}
	return res, nil
}

// Login fails with common.ErrInvalidCredentials for an unknown email and
// for a wrong password alike.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.credentials(s.tx.Conn()).Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	var token string
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		token, err = s.registry(tx).Issue(ctx, user)
		return err
	})
	if err != nil {
		return nil, classify("login", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Logout revokes only the token ac was resolved from.
func (s *UserService) Logout(ctx context.Context, ac *AuthContext) error {
	return s.registry(s.tx.Conn()).Revoke(ctx, ac.User, ac.Token)
}

func (s *UserService) LogoutAll(ctx context.Context, ac *AuthContext) error {
	return s.registry(s.tx.Conn()).RevokeAll(ctx, ac.User)
}

// Authenticate resolves a raw bearer token.
func (s *UserService) Authenticate(ctx context.Context, rawToken string) (*AuthContext, error) {
	conn := s.tx.Conn()
	return NewIdentityResolver(s.credentials(conn), s.registry(conn)).Resolve(ctx, rawToken)
}

// UpdateProfile applies fields to the caller's profile. Names outside the
// allow-list fail with common.ErrInvalidUpdateFields before anything is
// read or written.
func (s *UserService) UpdateProfile(ctx context.Context, ac *AuthContext, fields map[string]any) (*models.User, error) {
	if err := checkAllowed(fields, userUpdateFields); err != nil {
		return nil, err
	}

	user := *ac.User
	ve := &common.ValidationError{}

	if v, ok := stringField(ve, fields, "name"); ok {
		user.Name = v
	}
	if v, ok := stringField(ve, fields, "email"); ok {
		user.Email = v
	}
	if v, ok := intField(ve, fields, "age"); ok {
		user.Age = v
	}
	var newPassword *string
	if v, ok := stringField(ve, fields, "password"); ok {
		newPassword = &v
	}
	if ve.HasErrors() {
		return nil, ve
	}

	if err := s.credentials(s.tx.Conn()).Save(ctx, &user, newPassword); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteProfile removes the caller's account with all its tasks and tokens.
func (s *UserService) DeleteProfile(ctx context.Context, ac *AuthContext) error {
	return s.cascade.DeleteUser(ctx, ac.User)
}

// SetAvatar validates and resizes an uploaded picture and stores it.
func (s *UserService) SetAvatar(ctx context.Context, ac *AuthContext, filename string, data []byte) error {
	img, err := s.avatars.Process(filename, data)
	if err != nil {
		return classify("process avatar", err)
	}
	return classify("set avatar", s.repomanager.Users(s.tx.Conn()).SetAvatar(ctx, ac.User.ID, img))
}

func (s *UserService) DeleteAvatar(ctx context.Context, ac *AuthContext) error {
	return classify("delete avatar", s.repomanager.Users(s.tx.Conn()).SetAvatar(ctx, ac.User.ID, nil))
}

// GetAvatar returns the stored PNG of any user. A missing user and a user
// without an avatar are both common.ErrorNotFound.
func (s *UserService) GetAvatar(ctx context.Context, userID string) ([]byte, error) {
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	img, err := s.repomanager.Users(s.tx.Conn()).GetAvatar(ctx, userID)
	if err != nil {
		return nil, classify("get avatar", err)
	}
	if len(img) == 0 {
		return nil, common.ErrorNotFound
	}
	return img, nil
}
