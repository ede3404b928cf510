package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// AuthContext is a resolved identity: the user plus the exact token the
// request presented.
type AuthContext struct {
	User  *models.User
	Token string
}

// IdentityResolver turns a raw bearer token into an AuthContext. It only
// reads.
type IdentityResolver struct {
	credentials *CredentialStore
	registry    *TokenRegistry
}

func NewIdentityResolver(credentials *CredentialStore, registry *TokenRegistry) *IdentityResolver {
	return &IdentityResolver{credentials: credentials, registry: registry}
}

// Resolve decodes token, loads its user and checks that token is still in
// the user's active set. A bad, expired or revoked token and a vanished
// user all yield common.ErrorUnauthenticated. Storage faults stay
// common.ErrorInternal.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*AuthContext, error) {
	if token == "" {
		return nil, common.ErrorUnauthenticated
	}

	userID, err := r.registry.Decode(token)
	if err != nil {
		return nil, common.ErrorUnauthenticated
	}

	user, err := r.credentials.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, err
	}

	active, err := r.registry.Active(ctx, user)
	if err != nil {
		return nil, err
	}
	user.Tokens = active

	if !user.HasToken(token) {
		return nil, common.ErrorUnauthenticated
	}

	return &AuthContext{User: user, Token: token}, nil
}
