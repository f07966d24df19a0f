package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/platform/auth"
)

type Service struct {
	repo   Repository
	hasher auth.PasswordHasher
	logger zerolog.Logger
}

func NewService(repo Repository, hasher auth.PasswordHasher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, logger: logger.With().Str("component", "identity").Logger()}
}

// Register creates an active account. Emails are stored and matched exactly as
// given, less surrounding whitespace.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := trimEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Str("role", string(role)).Msg("user registered")
	return u, nil
}

// Verify checks a credential pair. Every failure is ErrInvalidCredentials so
// callers cannot tell an unknown email from a wrong password.
func (s *Service) Verify(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, trimEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FindByEmail returns the account stored under exactly email, active or not.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, trimEmail(email))
}

// Resolve returns the active account behind id. Deactivated accounts are
// reported as ErrNotFound.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrNotFound
	}
	return u, nil
}

// ResolvePrincipal implements auth.IdentityResolver.
func (s *Service) ResolvePrincipal(ctx context.Context, userID string) (*auth.Principal, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, auth.ErrIdentityNotFound
	}
	u, err := s.Resolve(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return u.Principal(), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListDoctors(ctx context.Context) ([]*User, error) {
	return s.repo.ListByRole(ctx, auth.RoleDoctor)
}

// GetDoctor returns id only if it names an active doctor.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RoleDoctor {
		return nil, ErrNotFound
	}
	return u, nil
}

// IsActiveDoctor reports whether id names an active doctor.
func (s *Service) IsActiveDoctor(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.GetDoctor(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Bool("active", active).Msg("user activation changed")
	return nil
}

// HasSuperAdmin reports whether any super-admin account exists.
func (s *Service) HasSuperAdmin(ctx context.Context) (bool, error) {
	n, err := s.repo.CountByRole(ctx, auth.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func trimEmail(email string) string {
	return strings.TrimSpace(email)
}
