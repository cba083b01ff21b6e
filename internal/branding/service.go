// AngelaMos | 2026
// service.go

package branding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/storage"
)

var ErrUploadsDisabled = errors.New("asset uploads are disabled")

type Service struct {
	repo      Repository
	files     storage.FileStorage
	audit     audit.Sink
	logger    *slog.Logger
	validator *validator.Validate
}

// NewService wires branding writes. files may be nil when object storage is
// not configured; uploads then fail with ErrUploadsDisabled.
func NewService(
	repo Repository,
	files storage.FileStorage,
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
		repo:      repo,
		files:     files,
		audit:     sink,
		logger:    logger,
		validator: core.NewValidator(),
	}
}

func (s *Service) Upsert(
	ctx context.Context,
	actorID, tenantID string,
	req UpsertRequest,
) (*WhiteLabel, error) {
	if req.CustomDomain != nil {
		d := normalizeDomain(*req.CustomDomain)
		if d == "" {
			req.CustomDomain = nil
		} else {
			req.CustomDomain = &d
		}
	}
	if req.SystemName != nil {
		name := strings.TrimSpace(*req.SystemName)
		if name == "" {
			req.SystemName = nil
		} else {
			req.SystemName = &name
		}
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, core.NewValidationError(core.ValidationMessages(err)...)
	}

	w := &WhiteLabel{
		TenantID:        tenantID,
		PrimaryColor:    strings.ToLower(req.PrimaryColor),
		SecondaryColor:  strings.ToLower(req.SecondaryColor),
		AccentColor:     strings.ToLower(req.AccentColor),
		BackgroundColor: strings.ToLower(req.BackgroundColor),
		SurfaceColor:    strings.ToLower(req.SurfaceColor),
		TextColor:       strings.ToLower(req.TextColor),
		SystemName:      req.SystemName,
		CustomDomain:    req.CustomDomain,
	}

	if err := s.repo.Upsert(ctx, w); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("update branding: %w", core.DuplicateError("customDomain"))
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionBrandingUpdated,
		Detail:   map[string]any{"customDomain": deref(w.CustomDomain)},
	})

	return w, nil
}

// UploadAsset stores a logo or favicon and points the branding record at
// it. The replaced object is removed best effort.
func (s *Service) UploadAsset(
	ctx context.Context,
	actorID, tenantID string,
	kind AssetKind,
	r io.Reader,
	size int64,
	name, contentType string,
) (string, error) {
	if !kind.Valid() {
		return "", core.NewValidationError("kind must be one of: logo favicon")
	}
	if s.files == nil {
		return "", fmt.Errorf("upload %s: %w: %w", kind, ErrUploadsDisabled, core.ErrInvalidInput)
	}
	if err := s.files.Validate(name, size); err != nil {
		return "", err
	}

	current, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", fmt.Errorf("upload %s: configure branding colors first: %w", kind, core.ErrInvalidInput)
		}
		return "", err
	}
	previous := current.AssetURL(kind)

	url, err := s.files.Upload(ctx, r, size, name, contentType, assetFolder(tenantID, kind))
	if err != nil {
		return "", err
	}

	if err := s.repo.SetAsset(ctx, tenantID, kind, url); err != nil {
		s.discard(ctx, url)
		return "", err
	}

	if previous != nil && *previous != url {
		s.discard(ctx, *previous)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionBrandingAsset,
		Detail:   map[string]any{"kind": string(kind), "url": url},
	})

	return url, nil
}

func (s *Service) discard(ctx context.Context, url string) {
	if err := s.files.Delete(ctx, url); err != nil {
		s.logger.Warn("failed to delete branding asset", "url", url, "error", err)
	}
}

func assetFolder(tenantID string, kind AssetKind) string {
	return "tenants/" + tenantID + "/" + string(kind)
}
