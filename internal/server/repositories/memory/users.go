package memory

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.emails[user.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}

	now := r.s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	rec := &userRecord{user: *user}
	rec.user.Tokens = nil
	rec.user.Avatar = nil
	r.s.users[user.ID] = rec
	r.s.emails[user.Email] = user.ID

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := rec.user
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := r.s.users[id].user
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if owner, taken := r.s.emails[user.Email]; taken && owner != user.ID {
		return common.ErrDuplicateEmail
	}

	delete(r.s.emails, rec.user.Email)
	r.s.emails[user.Email] = user.ID

	user.UpdatedAt = r.s.now()
	rec.user.Name = user.Name
	rec.user.Age = user.Age
	rec.user.Email = user.Email
	rec.user.PasswordHash = user.PasswordHash
	rec.user.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *UserRepository) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	rec.avatar = cloneBytes(avatar)
	rec.user.UpdatedAt = r.s.now()
	return nil
}

func (r *UserRepository) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneBytes(rec.avatar), nil
}

// Delete removes the user together with its tokens, mirroring the
// ON DELETE CASCADE of the SQL schema. Tasks are left alone.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.s.emails, rec.user.Email)
	delete(r.s.users, id)
	return nil
}
