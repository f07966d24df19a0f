package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/clinic/internal/platform/auth"
)

// Repository is the credential store. Create reports ErrDuplicateEmail when
// the email is taken; single-row lookups report ErrNotFound.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	ListByRole(ctx context.Context, role auth.Role) ([]*User, error)
	CountByRole(ctx context.Context, role auth.Role) (int, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
