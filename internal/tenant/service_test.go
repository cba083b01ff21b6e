// AngelaMos | 2026
// service_test.go

package tenant

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/metrics"
)

type fakeRepository struct {
	mu      sync.Mutex
	tenants map[string]*Tenant

	// staleOnce bumps the stored version before the next conditional write,
	// simulating a concurrent writer.
	staleOnce bool
	getErr    error
}

func newFakeRepository(tenants ...*Tenant) *fakeRepository {
	f := &fakeRepository{tenants: map[string]*Tenant{}}
	for _, t := range tenants {
		if t.Version == 0 {
			t.Version = 1
		}
		f.tenants[t.ID] = t
	}
	return f
}

func (f *fakeRepository) Create(_ context.Context, t *Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.TaxID != nil {
		for _, existing := range f.tenants {
			if existing.TaxID != nil && *existing.TaxID == *t.TaxID {
				return fmt.Errorf("create tenant: %w", core.ErrDuplicateKey)
			}
		}
	}
	t.Version = 1
	cp := *t
	f.tenants[t.ID] = &cp
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.tenants[id]
	if !ok {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepository) ExistsByTaxID(_ context.Context, taxID, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, t := range f.tenants {
		if id != excludeID && t.TaxID != nil && *t.TaxID == taxID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) conditional(id string, version int) (*Tenant, error) {
	if f.staleOnce {
		f.staleOnce = false
		f.tenants[id].Version++
	}
	t, ok := f.tenants[id]
	if !ok || t.Version != version {
		return nil, core.ErrConflict
	}
	return t, nil
}

func (f *fakeRepository) UpdateStatus(_ context.Context, id string, version int, to Status) (*Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.conditional(id, version)
	if err != nil {
		return nil, fmt.Errorf("update tenant status: %w", err)
	}
	t.Status = to
	t.Version++
	cp := *t
	return &cp, nil
}

func (f *fakeRepository) CompleteSetup(_ context.Context, id string, version int, d CompanyDetails) (*Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.conditional(id, version)
	if err != nil || t.Status != StatusPendingSetup {
		return nil, fmt.Errorf("complete tenant setup: %w", core.ErrConflict)
	}
	t.Name = d.Name
	t.TaxID = &d.TaxID
	t.ContactEmail = d.ContactEmail
	t.Status = StatusActive
	t.Version++
	cp := *t
	return &cp, nil
}

func (f *fakeRepository) List(_ context.Context, params ListParams) ([]Tenant, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Tenant
	for _, t := range f.tenants {
		if params.Status == "" || t.Status == params.Status {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingSink) Record(_ context.Context, ev audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func pendingTenant(id string) *Tenant {
	return &Tenant{
		ID:           id,
		Name:         "Acme",
		ContactEmail: "ops@acme.io",
		Status:       StatusPendingSetup,
	}
}

func validDetails() CompanyDetails {
	return CompanyDetails{
		Name:         "Acme Holdings",
		TaxID:        "12.345.678/0001-90",
		ContactEmail: "Finance@Acme.io",
		Phone:        "+55 11 5555-0000",
	}
}

func newTestService(repo Repository) (*Service, *recordingSink) {
	sink := &recordingSink{}
	return NewService(repo, sink, metrics.New(prometheus.NewRegistry())), sink
}

func TestCompleteSetupActivatesPendingTenant(t *testing.T) {
	repo := newFakeRepository(pendingTenant("t1"))
	svc, sink := newTestService(repo)

	got, err := svc.CompleteSetup(context.Background(), "u1", "t1", validDetails())
	require.NoError(t, err)

	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, "Acme Holdings", got.Name)
	assert.Equal(t, "finance@acme.io", got.ContactEmail)
	require.Len(t, sink.events, 1)
	assert.Equal(t, audit.ActionTenantSetupComplete, sink.events[0].Action)
}

func TestCompleteSetupTwiceFailsWithInvalidState(t *testing.T) {
	repo := newFakeRepository(pendingTenant("t1"))
	svc, _ := newTestService(repo)

	_, err := svc.CompleteSetup(context.Background(), "u1", "t1", validDetails())
	require.NoError(t, err)

	_, err = svc.CompleteSetup(context.Background(), "u1", "t1", validDetails())
	assert.ErrorIs(t, err, core.ErrInvalidTenantState)
}

func TestCompleteSetupCollectsFieldErrors(t *testing.T) {
	repo := newFakeRepository(pendingTenant("t1"))
	svc, _ := newTestService(repo)

	_, err := svc.CompleteSetup(context.Background(), "u1", "t1", CompanyDetails{
		ContactEmail: "not-an-email",
	})
	require.ErrorIs(t, err, core.ErrValidationFailed)

	appErr := core.ToAppError(err)
	assert.Len(t, appErr.Errors, 3)

	stored, _ := repo.GetByID(context.Background(), "t1")
	assert.Equal(t, StatusPendingSetup, stored.Status)
}

func TestCompleteSetupRejectsDuplicateTaxID(t *testing.T) {
	taxID := "12.345.678/0001-90"
	repo := newFakeRepository(
		pendingTenant("t1"),
		&Tenant{ID: "t2", Name: "Other", TaxID: &taxID, Status: StatusActive},
	)
	svc, _ := newTestService(repo)

	_, err := svc.CompleteSetup(context.Background(), "u1", "t1", validDetails())
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestCompleteSetupLosesRaceToConcurrentWriter(t *testing.T) {
	repo := newFakeRepository(pendingTenant("t1"))
	repo.staleOnce = true
	svc, sink := newTestService(repo)

	_, err := svc.CompleteSetup(context.Background(), "u1", "t1", validDetails())
	assert.ErrorIs(t, err, core.ErrInvalidTenantState)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Empty(t, sink.events)
}

func TestAdministrativeTransitions(t *testing.T) {
	cases := []struct {
		from Status
		op   string
		ok   bool
	}{
		{StatusActive, "deactivate", true},
		{StatusSuspended, "deactivate", true},
		{StatusInactive, "deactivate", false},
		{StatusPendingSetup, "deactivate", false},
		{StatusActive, "suspend", true},
		{StatusInactive, "suspend", false},
		{StatusSuspended, "suspend", false},
		{StatusInactive, "reactivate", true},
		{StatusSuspended, "reactivate", true},
		{StatusActive, "reactivate", false},
		{StatusPendingSetup, "reactivate", false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s from %s", tc.op, tc.from), func(t *testing.T) {
			repo := newFakeRepository(&Tenant{ID: "t1", Name: "Acme", Status: tc.from})
			svc, sink := newTestService(repo)

			ops := map[string]func(context.Context, string, string) (*Tenant, error){
				"deactivate": svc.Deactivate,
				"suspend":    svc.Suspend,
				"reactivate": svc.Reactivate,
			}

			got, err := ops[tc.op](context.Background(), "", "t1")
			if !tc.ok {
				assert.ErrorIs(t, err, core.ErrInvalidTenantState)
				assert.Empty(t, sink.events)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 2, got.Version)
			require.Len(t, sink.events, 1)
			assert.Equal(t, string(tc.from), sink.events[0].Detail["from"])
		})
	}
}

func TestTransitionConflictIsInvalidState(t *testing.T) {
	repo := newFakeRepository(&Tenant{ID: "t1", Status: StatusActive})
	repo.staleOnce = true
	svc, _ := newTestService(repo)

	_, err := svc.Suspend(context.Background(), "", "t1")
	assert.ErrorIs(t, err, core.ErrInvalidTenantState)
}

func TestCurrentStatus(t *testing.T) {
	repo := newFakeRepository(&Tenant{ID: "t1", Status: StatusSuspended})
	svc, _ := newTestService(repo)

	status, err := svc.CurrentStatus(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "suspended", status)

	_, err = svc.CurrentStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGuards(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusInactive, StatusSuspended, StatusPendingSetup} {
		tn := &Tenant{ID: "t1", Status: s}

		if s == StatusActive {
			assert.NoError(t, RequireActive(tn))
		} else {
			assert.ErrorIs(t, RequireActive(tn), core.ErrTenantInactive)
		}

		if s == StatusActive || s == StatusPendingSetup {
			assert.NoError(t, RequireLoginAllowed(tn))
		} else {
			assert.ErrorIs(t, RequireLoginAllowed(tn), core.ErrTenantInactive)
		}
	}

	assert.ErrorIs(t, RequireActive(nil), core.ErrTenantInactive)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(newFakeRepository())

	_, _, err := svc.List(context.Background(), ListParams{Status: "deleted"})
	assert.ErrorIs(t, err, core.ErrValidationFailed)
}
