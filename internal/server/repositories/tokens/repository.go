package tokens

import "context"

// Repository stores each user's active bearer tokens in issuance order.
// Every method is a single statement against the persisted set, so
// concurrent sessions of one user do not overwrite each other.
type Repository interface {
	Create(ctx context.Context, userID string, token string) error
	ListByUser(ctx context.Context, userID string) ([]string, error)
	Delete(ctx context.Context, userID string, token string) error
	DeleteAll(ctx context.Context, userID string) error
	// Trim keeps only the newest keep tokens of the user.
	Trim(ctx context.Context, userID string, keep int) error
}
