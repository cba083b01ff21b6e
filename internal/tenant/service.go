// AngelaMos | 2026
// service.go

package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/metrics"
)

// Service is the tenant lifecycle manager. It owns every status change.
type Service struct {
	repo      Repository
	audit     audit.Sink
	metrics   *metrics.Metrics
	validator *validator.Validate
}

func NewService(repo Repository, sink audit.Sink, m *metrics.Metrics) *Service {
	if sink == nil {
		sink = audit.Discard
	}
	return &Service{
		repo:      repo,
		audit:     sink,
		metrics:   m,
		validator: core.NewValidator(),
	}
}

// New builds an unsaved tenant. Signup passes StatusActive, first federated
// login passes StatusPendingSetup.
func New(name, contactEmail string, status Status) *Tenant {
	return &Tenant{
		ID:           uuid.New().String(),
		Name:         name,
		ContactEmail: strings.ToLower(strings.TrimSpace(contactEmail)),
		Status:       status,
	}
}

// ValidateDetails returns a *core.ValidationError listing every bad field.
func (s *Service) ValidateDetails(d CompanyDetails) error {
	if err := s.validator.Struct(d); err != nil {
		return core.NewValidationError(core.ValidationMessages(err)...)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Tenant, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, core.NewValidationError("status must be one of: active inactive suspended pending_setup")
	}
	return s.repo.List(ctx, params)
}

// CurrentStatus returns the stored status, used to re-check sessions whose
// embedded status may be stale.
func (s *Service) CurrentStatus(ctx context.Context, id string) (string, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return string(t.Status), nil
}

// CompleteSetup moves a PendingSetup tenant to Active with the supplied
// company details. Any other starting state is ErrInvalidTenantState.
func (s *Service) CompleteSetup(
	ctx context.Context,
	actorID, tenantID string,
	d CompanyDetails,
) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !t.IsPendingSetup() {
		s.metrics.ObserveTransition(string(StatusActive), "rejected")
		return nil, fmt.Errorf(
			"complete setup: tenant is %s: %w",
			t.Status,
			core.ErrInvalidTenantState,
		)
	}

	d = normalizeDetails(d)
	if err := s.ValidateDetails(d); err != nil {
		return nil, fmt.Errorf("complete setup: %w", err)
	}

	exists, err := s.repo.ExistsByTaxID(ctx, d.TaxID, t.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("complete setup: %w", core.DuplicateError("taxId"))
	}

	updated, err := s.repo.CompleteSetup(ctx, t.ID, t.Version, d)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			s.metrics.ObserveTransition(string(StatusActive), "conflict")
			return nil, fmt.Errorf("complete setup: %w: %w", core.ErrInvalidTenantState, err)
		}
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("complete setup: %w", core.DuplicateError("taxId"))
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(StatusActive), "ok")
	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: t.ID,
		Action:   audit.ActionTenantSetupComplete,
		Detail: map[string]any{
			"name":  updated.Name,
			"taxId": d.TaxID,
		},
	})

	return updated, nil
}

func (s *Service) Deactivate(ctx context.Context, actorID, tenantID string) (*Tenant, error) {
	return s.transition(ctx, actorID, tenantID, StatusInactive)
}

func (s *Service) Suspend(ctx context.Context, actorID, tenantID string) (*Tenant, error) {
	return s.transition(ctx, actorID, tenantID, StatusSuspended)
}

func (s *Service) Reactivate(ctx context.Context, actorID, tenantID string) (*Tenant, error) {
	return s.transition(ctx, actorID, tenantID, StatusActive)
}

func (s *Service) transition(
	ctx context.Context,
	actorID, tenantID string,
	to Status,
) (*Tenant, error) {
	ctx, span := core.StartSpan(ctx, "tenant.transition",
		core.AttrTenantID.String(tenantID),
		core.AttrTargetState.String(string(to)),
	)
	updated, err := s.applyTransition(ctx, actorID, tenantID, to)
	core.EndSpan(span, err)
	return updated, err
}

func (s *Service) applyTransition(
	ctx context.Context,
	actorID, tenantID string,
	to Status,
) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(t.Status, to) {
		s.metrics.ObserveTransition(string(to), "rejected")
		return nil, fmt.Errorf(
			"transition %s -> %s: %w",
			t.Status,
			to,
			core.ErrInvalidTenantState,
		)
	}

	updated, err := s.repo.UpdateStatus(ctx, t.ID, t.Version, to)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			s.metrics.ObserveTransition(string(to), "conflict")
			return nil, fmt.Errorf("transition %s -> %s: %w: %w", t.Status, to, core.ErrInvalidTenantState, err)
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(to), "ok")
	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: t.ID,
		Action:   audit.ActionTenantStatusChanged,
		Detail: map[string]any{
			"from": string(t.Status),
			"to":   string(to),
		},
	})

	return updated, nil
}

func normalizeDetails(d CompanyDetails) CompanyDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.TaxID = strings.TrimSpace(d.TaxID)
	d.ContactEmail = strings.ToLower(strings.TrimSpace(d.ContactEmail))
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	return d
}
