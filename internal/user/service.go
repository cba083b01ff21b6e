// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type Service struct {
	repo  Repository
	audit audit.Sink
}

func NewService(repo Repository, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Discard
	}
	return &Service{repo: repo, audit: sink}
}

// NewLocal builds an unsaved local user with an argon2id password hash.
func NewLocal(tenantID, email, password, name, role string) (*User, error) {
	hash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &User{
		ID:           uuid.New().String(),
		TenantID:     &tenantID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: &hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		AuthType:     AuthTypeLocal,
	}, nil
}

// NewFederated builds an unsaved federated user. It carries no password
// and is keyed by the identity provider's subject.
func NewFederated(tenantID, subject, email, name string) *User {
	return &User{
		ID:              uuid.New().String(),
		TenantID:        &tenantID,
		Email:           strings.ToLower(strings.TrimSpace(email)),
		Name:            strings.TrimSpace(name),
		Role:            RoleAdmin,
		AuthType:        AuthTypeFederated,
		ExternalSubject: &subject,
	}
}

// CurrentRole is the request-time check behind every tenant route: the user
// must still exist in tenantID and not be deactivated.
func (s *Service) CurrentRole(ctx context.Context, tenantID, userID string) (string, error) {
	u, err := s.repo.GetInTenant(ctx, tenantID, userID)
	if err != nil {
		return "", err
	}
	if u.IsDeactivated() {
		return "", fmt.Errorf("user %s deactivated: %w", userID, core.ErrNotFound)
	}
	return u.Role, nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.PhotoURL != nil {
		user.PhotoURL = req.PhotoURL
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Invite creates a local user inside the inviting admin's tenant.
func (s *Service) Invite(
	ctx context.Context,
	actorID, tenantID string,
	req InviteUserRequest,
) (*User, error) {
	if !ValidRole(req.Role) {
		return nil, fmt.Errorf("invite: invalid role %q: %w", req.Role, core.ErrInvalidInput)
	}

	user, err := NewLocal(tenantID, req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("invite: %w", core.DuplicateError("email"))
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionUserInvited,
		Detail: map[string]any{
			"userId": user.ID,
			"email":  user.Email,
			"role":   user.Role,
		},
	})

	return user, nil
}

func (s *Service) ListTenantUsers(
	ctx context.Context,
	tenantID string,
	params ListUsersParams,
) ([]User, int, error) {
	if params.Role != "" && !ValidRole(params.Role) {
		return nil, 0, core.NewValidationError("role must be one of: admin recruiter viewer")
	}
	return s.repo.ListByTenant(ctx, tenantID, params)
}

// UpdateRole changes the role of a user in the actor's tenant. Admins cannot
// demote themselves, which keeps at least one admin per tenant.
func (s *Service) UpdateRole(
	ctx context.Context,
	actorID, tenantID, targetID, role string,
) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("update role: invalid role %q: %w", role, core.ErrInvalidInput)
	}

	if actorID == targetID && role != RoleAdmin {
		return nil, fmt.Errorf("update role: cannot demote yourself: %w", core.ErrForbidden)
	}

	user, err := s.repo.GetInTenant(ctx, tenantID, targetID)
	if err != nil {
		return nil, err
	}

	previous := user.Role
	user.Role = role

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionUserRoleChanged,
		Detail: map[string]any{
			"userId": user.ID,
			"from":   previous,
			"to":     role,
		},
	})

	return user, nil
}

func (s *Service) Deactivate(ctx context.Context, actorID, tenantID, targetID string) error {
	if actorID == targetID {
		return fmt.Errorf("deactivate user: cannot deactivate yourself: %w", core.ErrForbidden)
	}

	if err := s.repo.Deactivate(ctx, tenantID, targetID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionUserDeactivated,
		Detail:   map[string]any{"userId": targetID},
	})

	return nil
}
