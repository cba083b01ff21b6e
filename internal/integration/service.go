// AngelaMos | 2026
// service.go

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type Service struct {
	tx        core.Transactor
	repos     func(core.DBTX) Repository
	repo      Repository
	sealer    *Sealer
	audit     audit.Sink
	logger    *slog.Logger
	validator *validator.Validate
}

func NewService(
	tx core.Transactor,
	repos func(core.DBTX) Repository,
	repo Repository,
	sealer *Sealer,
	sink audit.Sink,
	logger *slog.Logger,
) *Service {
	if sink == nil {
		sink = audit.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tx:        tx,
		repos:     repos,
		repo:      repo,
		sealer:    sealer,
		audit:     sink,
		logger:    logger,
		validator: core.NewValidator(),
	}
}

// Rotate replaces the tenant's active secrets for provider. The previous set
// is retired in the same transaction.
func (s *Service) Rotate(
	ctx context.Context,
	actorID, tenantID, provider string,
	req RotateRequest,
) (*Summary, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !validProvider(provider) {
		return nil, core.NewValidationError("provider must be 1-50 lowercase letters, digits, '-' or '_'")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, core.NewValidationError(core.ValidationMessages(err)...)
	}

	plaintext, err := json.Marshal(req.Secrets)
	if err != nil {
		return nil, fmt.Errorf("encode secrets: %w", err)
	}

	sealed, err := s.sealer.Seal(plaintext, tenantID, provider)
	if err != nil {
		return nil, err
	}

	c := &Credential{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Provider: provider,
		Sealed:   sealed,
	}

	err = s.tx.WithinTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)
		if err := repo.Retire(ctx, tenantID, provider); err != nil {
			return err
		}
		return repo.Insert(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("rotate %s credentials: %w", provider, err)
	}

	keys := secretKeys(req.Secrets)
	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionIntegrationRotated,
		Detail:   map[string]any{"provider": provider, "keys": keys},
	})

	return &Summary{Provider: provider, Keys: keys, RotatedAt: c.CreatedAt}, nil
}

// GetActive opens the tenant's current secrets for provider.
func (s *Service) GetActive(ctx context.Context, tenantID, provider string) (map[string]string, error) {
	c, err := s.repo.GetActive(ctx, tenantID, strings.ToLower(provider))
	if err != nil {
		return nil, err
	}

	plaintext, err := s.sealer.Open(c.Sealed, c.TenantID, c.Provider)
	if err != nil {
		return nil, fmt.Errorf("open %s credentials: %w", c.Provider, err)
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("decode %s credentials: %w", c.Provider, err)
	}

	return secrets, nil
}

// List reports configured providers and secret names, never values.
func (s *Service) List(ctx context.Context, tenantID string) ([]Summary, error) {
	creds, err := s.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(creds))
	for _, c := range creds {
		sum := Summary{Provider: c.Provider, RotatedAt: c.CreatedAt}

		plaintext, err := s.sealer.Open(c.Sealed, c.TenantID, c.Provider)
		if err != nil {
			s.logger.Warn("unreadable integration credentials",
				"tenant_id", c.TenantID, "provider", c.Provider, "error", err)
			out = append(out, sum)
			continue
		}

		var secrets map[string]string
		if err := json.Unmarshal(plaintext, &secrets); err == nil {
			sum.Keys = secretKeys(secrets)
		}
		out = append(out, sum)
	}

	return out, nil
}

func secretKeys(secrets map[string]string) []string {
	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func validProvider(p string) bool {
	if p == "" || len(p) > 50 {
		return false
	}
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
