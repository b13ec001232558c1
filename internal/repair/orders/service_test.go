package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixflow-rms/fixflow/internal/shared"
)

type fakeRepo struct {
	orders map[int64]*RepairOrder
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[int64]*RepairOrder{}}
}

func (r *fakeRepo) List(_ context.Context, _ ListFilters) ([]RepairOrder, int, error) {
	items := make([]RepairOrder, 0, len(r.orders))
	for _, o := range r.orders {
		items = append(items, *o)
	}
	return items, len(items), nil
}

func (r *fakeRepo) Get(_ context.Context, id int64) (*RepairOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone, nil
}

func (r *fakeRepo) GetByReference(_ context.Context, reference string) (*RepairOrder, error) {
	for id, o := range r.orders {
		if o.Reference == reference {
			return r.Get(context.Background(), id)
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRepo) Create(_ context.Context, o *RepairOrder) error {
	r.nextID++
	o.ID = r.nextID
	o.Version = 1
	clone := *o
	r.orders[o.ID] = &clone
	return nil
}

func (r *fakeRepo) UpdateDraft(_ context.Context, o *RepairOrder) error {
	stored, ok := r.orders[o.ID]
	if !ok || stored.Status != StatusDraft {
		return ErrNotEditable
	}
	o.Version = stored.Version + 1
	clone := *o
	r.orders[o.ID] = &clone
	return nil
}

func (r *fakeRepo) ApplyTransition(ctx context.Context, t Transition) (*RepairOrder, error) {
	o, ok := r.orders[t.OrderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if o.Version != t.ExpectedVersion {
		return nil, shared.ErrConflict
	}
	o.Status = t.Status
	o.Version++
	if t.ClearTimestamps {
		o.StartedAt, o.CompletedAt, o.DeliveredAt = nil, nil, nil
	}
	if t.StartedAt != nil {
		o.StartedAt = t.StartedAt
	}
	if t.CompletedAt != nil {
		o.CompletedAt = t.CompletedAt
	}
	if t.DeliveredAt != nil {
		o.DeliveredAt = t.DeliveredAt
	}
	if t.Reason != nil {
		o.CancelReason = t.Reason
	}
	if t.DurationHours != nil {
		o.DurationHours = *t.DurationHours
	}
	if t.ProgressPercent != nil {
		o.ProgressPercent = *t.ProgressPercent
	}
	return r.Get(ctx, t.OrderID)
}

func (r *fakeRepo) SetInvoice(_ context.Context, orderID, expectedVersion, invoiceID int64) error {
	o, ok := r.orders[orderID]
	if !ok || o.Version != expectedVersion || o.InvoiceID != nil {
		return shared.ErrConflict
	}
	o.InvoiceID = &invoiceID
	o.Version++
	return nil
}

func (r *fakeRepo) SetSaleOrder(_ context.Context, orderID, expectedVersion, saleOrderID int64) error {
	o, ok := r.orders[orderID]
	if !ok || o.Version != expectedVersion || o.SaleOrderID != nil {
		return shared.ErrConflict
	}
	o.SaleOrderID = &saleOrderID
	o.Version++
	return nil
}

func (r *fakeRepo) SetStockTransfer(_ context.Context, orderID, expectedVersion int64, transferRef string) error {
	o, ok := r.orders[orderID]
	if !ok || o.Version != expectedVersion || o.StockTransferRef != nil {
		return shared.ErrConflict
	}
	o.StockTransferRef = &transferRef
	o.Version++
	return nil
}

func (r *fakeRepo) CountActiveByTechnician(_ context.Context, technicianID int64) (int, error) {
	count := 0
	for _, o := range r.orders {
		if o.TechnicianID != nil && *o.TechnicianID == technicianID &&
			(o.Status == StatusDraft || o.Status == StatusInProgress) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) LatestReference(_ context.Context, _ string) (string, error) {
	return "", shared.ErrNotFound
}

type fakeMinter struct {
	counter int
}

func (m *fakeMinter) Next(_ context.Context, _, prefix string) (string, error) {
	m.counter++
	return fmt.Sprintf("%s/2026/%05d", prefix, m.counter), nil
}

type auditEntry struct {
	action  string
	message string
}

type fakeAuditor struct {
	entries []auditEntry
}

func (a *fakeAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, auditEntry{action: log.Action})
	return nil
}

func (a *fakeAuditor) Warn(_ context.Context, _, _, message string, _ map[string]any) error {
	a.entries = append(a.entries, auditEntry{action: shared.AuditActionWarning, message: message})
	return nil
}

func (a *fakeAuditor) warnings() []string {
	var out []string
	for _, e := range a.entries {
		if e.action == shared.AuditActionWarning {
			out = append(out, e.message)
		}
	}
	return out
}

type fakeHooks struct {
	invoiceID   int64
	saleOrderID int64
	transferRef string
	status      string
}

func (h *fakeHooks) CreateInvoice(_ context.Context, _ *RepairOrder) (int64, error) {
	h.invoiceID++
	return h.invoiceID, nil
}

func (h *fakeHooks) CreateSaleOrder(_ context.Context, _ *RepairOrder) (int64, error) {
	h.saleOrderID++
	return h.saleOrderID, nil
}

func (h *fakeHooks) CreateStockTransfer(_ context.Context, _ *RepairOrder) (string, error) {
	h.transferRef = "TRF-0001"
	return h.transferRef, nil
}

func (h *fakeHooks) InvoiceStatus(_ context.Context, _ int64) (string, error) {
	if h.status == "" {
		return "draft", nil
	}
	return h.status, nil
}

type fakeInvalidator struct {
	bumps int
}

func (i *fakeInvalidator) Invalidate(_ context.Context) error {
	i.bumps++
	return nil
}

func testConfig() ServiceConfig {
	return ServiceConfig{
		SequenceCode:          "repair.order",
		SequencePrefix:        "REP",
		Currency:              "USD",
		RequireLinesOnReady:   true,
		CostVarianceThreshold: 0.25,
		TechnicianMaxActive:   2,
	}
}

func newTestService(t *testing.T, cfg ServiceConfig) (*Service, *fakeRepo, *fakeAuditor) {
	t.Helper()
	repo := newFakeRepo()
	audit := &fakeAuditor{}
	svc := NewService(repo, &fakeMinter{}, audit, &fakeHooks{}, nil, nil, cfg)
	return svc, repo, audit
}

func int64Ptr(v int64) *int64 { return &v }

func baseCreateRequest() CreateRequest {
	return CreateRequest{
		CustomerID:         1,
		DeviceID:           1,
		TechnicianID:       int64Ptr(7),
		FaultIDs:           []int64{3},
		ProblemDescription: "screen cracked after a fall",
		EstimatedCost:      100,
		Lines: []LineInput{
			{LineType: "product", ProductName: "Screen assembly", Quantity: 1, UnitPrice: 80},
			{LineType: "service", ProductName: "Labor", Quantity: 1, UnitPrice: 20},
		},
	}
}

func TestCreateMintsReferenceAndComputesTotals(t *testing.T) {
	svc, _, audit := newTestService(t, testConfig())

	o, err := svc.Create(context.Background(), baseCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "REP/2026/00001", o.Reference)
	assert.Equal(t, StatusDraft, o.Status)
	assert.Equal(t, int64(1), o.Version)
	assert.InDelta(t, 100, o.TotalAmount, 0.001)
	assert.Len(t, o.Lines, 2)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, shared.AuditActionCreate, audit.entries[0].action)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	req := baseCreateRequest()
	req.FaultIDs = nil
	_, err := svc.Create(ctx, req)
	assert.Error(t, err)

	req = baseCreateRequest()
	req.Lines[0].Quantity = 0
	_, err = svc.Create(ctx, req)
	assert.Error(t, err)

	req = baseCreateRequest()
	past := time.Now().Add(-48 * time.Hour)
	req.PromisedAt = &past
	_, err = svc.Create(ctx, req)
	assert.Error(t, err)
}

func TestStartRequiresTechnicianAndDraft(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	req := baseCreateRequest()
	req.TechnicianID = nil
	o, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	assert.ErrorIs(t, err, ErrTechnicianRequired)

	o2, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)

	started, err := svc.Start(ctx, o2.ID, TransitionRequest{Version: o2.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)

	_, err = svc.Start(ctx, o2.ID, TransitionRequest{Version: started.Version})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStaleVersionConflicts(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)

	_, err = svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version + 5})
	assert.ErrorIs(t, err, shared.ErrConflict)

	// The failed attempt must not have moved the order.
	fresh, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, fresh.Status)
	assert.Equal(t, o.Version, fresh.Version)
}

func TestMarkReadyStrict(t *testing.T) {
	svc, _, audit := newTestService(t, testConfig())
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)

	// Draft cannot be completed directly in strict mode.
	_, err = svc.MarkReady(ctx, o.ID, TransitionRequest{Version: o.Version})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)

	ready, err := svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusReady, ready.Status)
	require.NotNil(t, ready.CompletedAt)

	// Estimate 100 vs total 100: within threshold, no variance warning.
	assert.Empty(t, audit.warnings())
}

func TestMarkReadyStrictRequiresLines(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	req := baseCreateRequest()
	req.Lines = nil
	o, err := svc.Create(ctx, req)
	require.NoError(t, err)

	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)

	_, err = svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	assert.ErrorIs(t, err, ErrLinesRequired)
}

func TestMarkReadyLenientAllowsDraftWithWarning(t *testing.T) {
	cfg := testConfig()
	cfg.RequireLinesOnReady = false
	svc, _, audit := newTestService(t, cfg)
	ctx := context.Background()

	req := baseCreateRequest()
	req.Lines = nil
	o, err := svc.Create(ctx, req)
	require.NoError(t, err)

	ready, err := svc.MarkReady(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusReady, ready.Status)
	assert.Contains(t, audit.warnings(), "order marked ready without being started")
	assert.Contains(t, audit.warnings(), "order marked ready without any lines")
}

func TestMarkReadyLenientWarnsWhenLinesMissing(t *testing.T) {
	cfg := testConfig()
	cfg.RequireLinesOnReady = false
	svc, _, audit := newTestService(t, cfg)
	ctx := context.Background()

	req := baseCreateRequest()
	req.Lines = nil
	req.EstimatedCost = 0
	o, err := svc.Create(ctx, req)
	require.NoError(t, err)
	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)

	ready, err := svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusReady, ready.Status)
	assert.Contains(t, audit.warnings(), "order marked ready without any lines")
}

func TestCostVarianceWarning(t *testing.T) {
	svc, _, audit := newTestService(t, testConfig())
	ctx := context.Background()

	req := baseCreateRequest()
	req.EstimatedCost = 10 // actual total will be 100, ten-fold variance
	o, err := svc.Create(ctx, req)
	require.NoError(t, err)

	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)
	_, err = svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	require.NoError(t, err)

	assert.Contains(t, audit.warnings(), "actual cost deviates from the estimate beyond the threshold")
}

func TestDeliverOnlyFromReady(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)

	_, err = svc.Deliver(ctx, o.ID, TransitionRequest{Version: o.Version})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)
	ready, err := svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	require.NoError(t, err)

	delivered, err := svc.Deliver(ctx, ready.ID, TransitionRequest{Version: ready.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.Equal(t, 100, delivered.ProgressPercent)

	_, err = svc.Cancel(ctx, delivered.ID, TransitionRequest{Version: delivered.Version})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func invoicedOrder(t *testing.T, svc *Service) *RepairOrder {
	t.Helper()
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)
	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)
	ready, err := svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	require.NoError(t, err)

	invoiced, err := svc.CreateInvoice(ctx, ready.ID, TransitionRequest{Version: ready.Version})
	require.NoError(t, err)
	require.NotNil(t, invoiced.InvoiceID)
	return invoiced
}

func TestCancelBlockedOncePosted(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeMinter{}, &fakeAuditor{}, &fakeHooks{status: "posted"}, nil, nil, testConfig())
	ctx := context.Background()

	invoiced := invoicedOrder(t, svc)

	_, err := svc.Cancel(ctx, invoiced.ID, TransitionRequest{Version: invoiced.Version})
	assert.ErrorIs(t, err, ErrAlreadyInvoiced)

	_, err = svc.ResetToDraft(ctx, invoiced.ID, TransitionRequest{Version: invoiced.Version})
	assert.ErrorIs(t, err, ErrAlreadyInvoiced)
}

func TestCancelAllowedWhileInvoiceDraft(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	invoiced := invoicedOrder(t, svc)

	cancelled, err := svc.Cancel(ctx, invoiced.ID, TransitionRequest{Version: invoiced.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// A reset would detach a live invoice reference, draft or not.
	_, err = svc.ResetToDraft(ctx, cancelled.ID, TransitionRequest{Version: cancelled.Version})
	assert.ErrorIs(t, err, ErrAlreadyInvoiced)
}

func TestMutationsBumpDashboardCache(t *testing.T) {
	repo := newFakeRepo()
	invalidator := &fakeInvalidator{}
	svc := NewService(repo, &fakeMinter{}, &fakeAuditor{}, &fakeHooks{}, invalidator, nil, testConfig())
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, invalidator.bumps)

	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)
	assert.Equal(t, 2, invalidator.bumps)

	ready, err := svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	require.NoError(t, err)
	assert.Equal(t, 3, invalidator.bumps)

	_, err = svc.CreateInvoice(ctx, ready.ID, TransitionRequest{Version: ready.Version})
	require.NoError(t, err)
	assert.Equal(t, 4, invalidator.bumps)

	// A rejected transition leaves the cache version alone.
	_, err = svc.Deliver(ctx, ready.ID, TransitionRequest{Version: 1})
	require.Error(t, err)
	assert.Equal(t, 4, invalidator.bumps)
}

func TestResetClearsTimestamps(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)
	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)
	ready, err := svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	require.NoError(t, err)

	reset, err := svc.ResetToDraft(ctx, ready.ID, TransitionRequest{Version: ready.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, reset.Status)
	assert.Nil(t, reset.StartedAt)
	assert.Nil(t, reset.CompletedAt)
	assert.Nil(t, reset.DeliveredAt)
	assert.Zero(t, reset.DurationHours)
}

func TestInvoiceIsOneShot(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)

	// Draft orders cannot be invoiced.
	_, err = svc.CreateInvoice(ctx, o.ID, TransitionRequest{Version: o.Version})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	started, err := svc.Start(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)
	ready, err := svc.MarkReady(ctx, started.ID, TransitionRequest{Version: started.Version})
	require.NoError(t, err)

	invoiced, err := svc.CreateInvoice(ctx, ready.ID, TransitionRequest{Version: ready.Version})
	require.NoError(t, err)
	assert.Equal(t, "draft", invoiced.InvoiceStatus)

	_, err = svc.CreateInvoice(ctx, invoiced.ID, TransitionRequest{Version: invoiced.Version})
	assert.ErrorIs(t, err, ErrAlreadyInvoiced)
}

func TestInvoiceRequiresBillableAmount(t *testing.T) {
	cfg := testConfig()
	cfg.RequireLinesOnReady = false
	svc, _, _ := newTestService(t, cfg)
	ctx := context.Background()

	req := baseCreateRequest()
	req.Lines = nil
	o, err := svc.Create(ctx, req)
	require.NoError(t, err)

	ready, err := svc.MarkReady(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)

	_, err = svc.CreateInvoice(ctx, ready.ID, TransitionRequest{Version: ready.Version})
	assert.ErrorIs(t, err, ErrNoBillableAmount)
}

func TestStockTransferAtMostOnce(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)

	transferred, err := svc.CreateStockTransfer(ctx, o.ID, TransitionRequest{Version: o.Version})
	require.NoError(t, err)
	require.NotNil(t, transferred.StockTransferRef)

	_, err = svc.CreateStockTransfer(ctx, transferred.ID, TransitionRequest{Version: transferred.Version})
	assert.ErrorIs(t, err, ErrAlreadyTransferred)
}

func TestStockTransferNeedsProductLines(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	req := baseCreateRequest()
	req.Lines = []LineInput{{LineType: "service", ProductName: "Diagnostics", Quantity: 1, UnitPrice: 30}}
	o, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.CreateStockTransfer(ctx, o.ID, TransitionRequest{Version: o.Version})
	assert.ErrorIs(t, err, ErrNoStorableLines)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	o, err := svc.Create(ctx, baseCreateRequest())
	require.NoError(t, err)

	before := *o
	o.Recompute()
	o.Recompute()
	assert.Equal(t, before.TotalAmount, o.TotalAmount)
	assert.Equal(t, before.ProgressPercent, o.ProgressPercent)
	assert.Equal(t, before.Lines, o.Lines)
}
