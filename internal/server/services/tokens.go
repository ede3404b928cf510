package services

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tokens"
)

// TokenCodec signs and verifies bearer tokens. auth.TokenCodec implements
// it.
type TokenCodec interface {
	Encode(userID string) (string, error)
	Decode(token string) (string, error)
}

// TokenRegistry mints bearer tokens and tracks each user's active set.
// A token is valid only while it is a member of that set.
type TokenRegistry struct {
	tokens      tokens.Repository
	codec       TokenCodec
	maxSessions int
}

// NewTokenRegistry binds a registry to repo. maxSessions caps the active set
// per user, oldest first out; zero disables the cap.
func NewTokenRegistry(repo tokens.Repository, codec TokenCodec, maxSessions int) *TokenRegistry {
	return &TokenRegistry{tokens: repo, codec: codec, maxSessions: maxSessions}
}

// Issue mints a token for user and appends it to the persisted set in a
// single write. The raw token is returned only here.
func (r *TokenRegistry) Issue(ctx context.Context, user *models.User) (string, error) {
	token, err := r.codec.Encode(user.ID)
	if err != nil {
		return "", classify("encode token", err)
	}

	if err := r.tokens.Create(ctx, user.ID, token); err != nil {
		return "", classify("store token", err)
	}

	if r.maxSessions > 0 {
		if err := r.tokens.Trim(ctx, user.ID, r.maxSessions); err != nil {
			return "", classify("trim tokens", err)
		}
	}

	return token, nil
}

// Revoke removes token from user's set. Revoking an absent token is a no-op.
func (r *TokenRegistry) Revoke(ctx context.Context, user *models.User, token string) error {
	return classify("revoke token", r.tokens.Delete(ctx, user.ID, token))
}

func (r *TokenRegistry) RevokeAll(ctx context.Context, user *models.User) error {
	return classify("revoke all tokens", r.tokens.DeleteAll(ctx, user.ID))
}

// Active lists user's tokens in issuance order.
func (r *TokenRegistry) Active(ctx context.Context, user *models.User) ([]string, error) {
	list, err := r.tokens.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, classify("list tokens", err)
	}
	return list, nil
}

// Decode extracts the user id without consulting storage. Failures are
// common.ErrMalformedToken or common.ErrTokenExpired.
func (r *TokenRegistry) Decode(token string) (string, error) {
	return r.codec.Decode(token)
}
