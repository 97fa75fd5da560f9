package user

import (
	"context"
)

type UserRepository interface {
	// GetByID returns ErrUserNotFound when no user has the id.
	GetByID(ctx context.Context, id string) (User, error)
	// GetByEmail matches the normalized address case-insensitively.
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, newUser User) (User, error)
}
