// AngelaMos | 2026
// subscription.go

package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
)

// SubscriptionService owns catalog writes and the billing side of
// entitlements. It is the only writer of TenantProduct activation flags.
type SubscriptionService struct {
	tx        core.Transactor
	repos     func(core.DBTX) Repository
	repo      Repository
	catalog   *CatalogCache
	audit     audit.Sink
	validator *validator.Validate
}

func NewSubscriptionService(
	tx core.Transactor,
	repos func(core.DBTX) Repository,
	repo Repository,
	catalog *CatalogCache,
	sink audit.Sink,
) *SubscriptionService {
	if sink == nil {
		sink = audit.Discard
	}
	return &SubscriptionService{
		tx:        tx,
		repos:     repos,
		repo:      repo,
		catalog:   catalog,
		audit:     sink,
		validator: core.NewValidator(),
	}
}

func (s *SubscriptionService) ListCatalog(ctx context.Context) ([]Product, error) {
	return s.catalog.Products(ctx)
}

func (s *SubscriptionService) CreateProduct(
	ctx context.Context,
	req CreateProductRequest,
) (*Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if err := s.validator.Struct(req); err != nil {
		return nil, core.NewValidationError(core.ValidationMessages(err)...)
	}

	p := &Product{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Category:     req.Category,
		Description:  req.Description,
		BillingModel: BillingModel(req.BillingModel),
		DisplayOrder: req.DisplayOrder,
		Launched:     req.Launched,
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("create product: %w", core.DuplicateError("name"))
		}
		return nil, err
	}

	s.catalog.Invalidate(ctx)
	return p, nil
}

func (s *SubscriptionService) SetLaunched(ctx context.Context, productID string, launched bool) error {
	if err := s.repo.SetLaunched(ctx, productID, launched); err != nil {
		return err
	}

	s.catalog.Invalidate(ctx)
	return nil
}

// SetActivation grants or revokes a product for a tenant outside the
// subscription flow.
func (s *SubscriptionService) SetActivation(
	ctx context.Context,
	actorID, tenantID, productID string,
	active bool,
) (*TenantProduct, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	tp, err := s.repo.SetActivation(ctx, tenantID, productID, active)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionProductActivation,
		Detail: map[string]any{
			"productId": productID,
			"active":    active,
		},
	})

	return tp, nil
}

func (s *SubscriptionService) ListSubscriptions(ctx context.Context, tenantID string) ([]Subscription, error) {
	return s.repo.ListSubscriptions(ctx, tenantID)
}

// Subscribe records a subscription and activates the product for the tenant
// in one transaction. Only launched products can be subscribed.
func (s *SubscriptionService) Subscribe(
	ctx context.Context,
	actorID, tenantID string,
	req SubscribeRequest,
) (*Subscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, core.NewValidationError(core.ValidationMessages(err)...)
	}

	p, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.Launched {
		return nil, fmt.Errorf("subscribe: product %s is not launched: %w", p.Name, core.ErrInvalidInput)
	}

	sub := &Subscription{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		ProductID:     p.ID,
		BillingPeriod: req.BillingPeriod,
	}

	err = s.tx.WithinTx(ctx, func(db core.DBTX) error {
		repo := s.repos(db)
		if err := lockActivation(ctx, repo, tenantID, p.ID); err != nil {
			return err
		}
		if err := repo.CreateSubscription(ctx, sub); err != nil {
			return err
		}
		_, err := repo.SetActivation(ctx, tenantID, p.ID, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionSubscribed,
		Detail: map[string]any{
			"subscriptionId": sub.ID,
			"productId":      p.ID,
			"billingPeriod":  sub.BillingPeriod,
		},
	})

	return sub, nil
}

// Cancel is terminal. Cancelling an already-cancelled subscription is
// ErrInvalidInput. The product is deactivated once no open subscription for
// it remains.
func (s *SubscriptionService) Cancel(
	ctx context.Context,
	actorID, tenantID, subscriptionID string,
) (*Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, tenantID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, fmt.Errorf("cancel: subscription already cancelled: %w", core.ErrInvalidInput)
	}

	var deactivated bool
	err = s.tx.WithinTx(ctx, func(db core.DBTX) error {
		repo := s.repos(db)
		if err := lockActivation(ctx, repo, tenantID, sub.ProductID); err != nil {
			return err
		}

		cancelledAt, err := repo.CancelSubscription(ctx, sub.ID)
		if err != nil {
			return err
		}
		sub.CancelledAt = &cancelledAt

		open, err := repo.CountOpenSubscriptions(ctx, tenantID, sub.ProductID)
		if err != nil {
			return err
		}
		if open > 0 {
			return nil
		}

		deactivated = true
		_, err = repo.SetActivation(ctx, tenantID, sub.ProductID, false)
		return err
	})
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, fmt.Errorf("cancel: subscription already cancelled: %w", core.ErrInvalidInput)
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   audit.ActionSubscriptionCancel,
		Detail: map[string]any{
			"subscriptionId":     sub.ID,
			"productId":          sub.ProductID,
			"productDeactivated": deactivated,
		},
	})

	return sub, nil
}

// lockActivation serializes Subscribe and Cancel on one tenant product, so a
// cancel never counts open subscriptions while a subscribe is in flight. The
// first subscription creates the row, so there is nothing to lock yet.
func lockActivation(ctx context.Context, repo Repository, tenantID, productID string) error {
	err := repo.LockTenantProduct(ctx, tenantID, productID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return err
}
