package memory

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

type TokenRepository struct {
	s *Store
}

func (r *TokenRepository) Create(ctx context.Context, userID string, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	rec.tokens = append(rec.tokens, token)
	return nil
}

func (r *TokenRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]string, 0)
	if rec, ok := r.s.users[userID]; ok {
		result = append(result, rec.tokens...)
	}
	return result, nil
}

func (r *TokenRepository) Delete(ctx context.Context, userID string, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[userID]
	if !ok {
		return nil
	}
	kept := rec.tokens[:0]
	for _, t := range rec.tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	rec.tokens = kept
	return nil
}

func (r *TokenRepository) DeleteAll(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rec, ok := r.s.users[userID]; ok {
		rec.tokens = nil
	}
	return nil
}

func (r *TokenRepository) Trim(ctx context.Context, userID string, keep int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[userID]
	if !ok || keep < 0 || len(rec.tokens) <= keep {
		return nil
	}
	rec.tokens = append([]string(nil), rec.tokens[len(rec.tokens)-keep:]...)
	return nil
}
