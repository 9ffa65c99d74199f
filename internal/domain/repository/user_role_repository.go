package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserRoleRepository mirrors the role a user's billing state grants.
type UserRoleRepository interface {
	// SetRole upserts the user's role by user ID.
	SetRole(ctx context.Context, userID uuid.UUID, role string) error
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
}
