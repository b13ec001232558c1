package orders

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	repairshared "github.com/fixflow-rms/fixflow/internal/repair/shared"
	"github.com/fixflow-rms/fixflow/internal/shared"
)

const auditEntity = "repair_order"

// Invoice posting states reported by the billing subsystem.
const invoiceStatusDraft = "draft"

// Promised dates beyond this horizon trigger a soft warning.
const farFutureHorizon = 60 * 24 * time.Hour

// ReferenceMinter mints the immutable order reference at creation.
type ReferenceMinter interface {
	Next(ctx context.Context, code, prefix string) (string, error)
}

// Auditor records transitions and soft warnings. Warnings never block the
// triggering operation.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
	Warn(ctx context.Context, entity, entityID, message string, meta map[string]any) error
}

// Hooks reach the external billing and inventory subsystems. The order keeps
// only the references they return.
type Hooks interface {
	CreateInvoice(ctx context.Context, o *RepairOrder) (int64, error)
	CreateSaleOrder(ctx context.Context, o *RepairOrder) (int64, error)
	CreateStockTransfer(ctx context.Context, o *RepairOrder) (string, error)
	InvoiceStatus(ctx context.Context, invoiceID int64) (string, error)
}

// CacheInvalidator drops derived read models after an order mutation. The
// dashboard cache satisfies this interface.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type ServiceConfig struct {
	SequenceCode   string
	SequencePrefix string
	Currency       string

	// RequireLinesOnReady keeps the strict completion rule; when false a
	// draft order may be marked ready directly, with a soft warning.
	RequireLinesOnReady   bool
	CostVarianceThreshold float64
	TechnicianMaxActive   int
}

type Service struct {
	repo        Repository
	sequence    ReferenceMinter
	audit       Auditor
	hooks       Hooks
	invalidator CacheInvalidator
	logger      *slog.Logger
	cfg         ServiceConfig
	validate    *validator.Validate
	now         func() time.Time
}

func NewService(repo Repository, sequence ReferenceMinter, audit Auditor, hooks Hooks, invalidator CacheInvalidator, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		sequence:    sequence,
		audit:       audit,
		hooks:       hooks,
		invalidator: invalidator,
		logger:      logger,
		cfg:         cfg,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]RepairOrder, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.readBackInvoiceStatus(ctx, o)
	return o, nil
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*RepairOrder, error) {
	o, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	s.readBackInvoiceStatus(ctx, o)
	return o, nil
}

// readBackInvoiceStatus decorates the order with the billing subsystem's
// posting state. A readback failure degrades to an empty status, it never
// fails the fetch.
func (s *Service) readBackInvoiceStatus(ctx context.Context, o *RepairOrder) {
	if o.InvoiceID == nil || s.hooks == nil {
		return
	}
	status, err := s.hooks.InvoiceStatus(ctx, *o.InvoiceID)
	if err != nil {
		s.logger.Warn("invoice status readback failed", "order_id", o.ID, "error", err)
		return
	}
	o.InvoiceStatus = status
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*RepairOrder, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate repair order: %w", err)
	}
	if len(req.FaultIDs) == 0 {
		return nil, ErrFaultRequired
	}

	o := &RepairOrder{
		CustomerID:         req.CustomerID,
		DeviceID:           req.DeviceID,
		TechnicianID:       req.TechnicianID,
		FaultIDs:           req.FaultIDs,
		Status:             StatusDraft,
		Priority:           PriorityNormal,
		ProblemDescription: req.ProblemDescription,
		Notes:              req.Notes,
		EstimatedCost:      req.EstimatedCost,
		Currency:           s.cfg.Currency,
		ReceivedAt:         s.now(),
		PromisedAt:         req.PromisedAt,
	}
	if req.ReceivedAt != nil {
		o.ReceivedAt = *req.ReceivedAt
	}
	if req.Priority != "" {
		o.Priority = Priority(req.Priority)
		if !o.Priority.Valid() {
			return nil, fmt.Errorf("unknown priority %q", req.Priority)
		}
	}
	if o.PromisedAt != nil && o.PromisedAt.Before(o.ReceivedAt) {
		return nil, fmt.Errorf("promised date precedes the received date")
	}

	lines, err := buildLines(req.Lines)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	o.Recompute()

	reference, err := s.sequence.Next(ctx, s.cfg.SequenceCode, s.cfg.SequencePrefix)
	if err != nil {
		return nil, fmt.Errorf("mint order reference: %w", err)
	}
	o.Reference = reference

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.record(ctx, shared.AuditActionCreate, o, map[string]any{"reference": o.Reference})
	s.warnFarFuturePromise(ctx, o)
	s.bumpCaches(ctx)
	return o, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*RepairOrder, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate repair order: %w", err)
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusDraft {
		return nil, ErrNotEditable
	}

	if req.TechnicianID != nil {
		o.TechnicianID = req.TechnicianID
	}
	if req.FaultIDs != nil {
		o.FaultIDs = req.FaultIDs
	}
	if req.Priority != nil {
		o.Priority = Priority(*req.Priority)
		if !o.Priority.Valid() {
			return nil, fmt.Errorf("unknown priority %q", *req.Priority)
		}
	}
	if req.ProblemDescription != nil {
		o.ProblemDescription = *req.ProblemDescription
	}
	if req.Diagnosis != nil {
		o.Diagnosis = req.Diagnosis
	}
	if req.Notes != nil {
		o.Notes = req.Notes
	}
	if req.EstimatedCost != nil {
		o.EstimatedCost = *req.EstimatedCost
	}
	if req.PromisedAt != nil {
		if req.PromisedAt.Before(o.ReceivedAt) {
			return nil, fmt.Errorf("promised date precedes the received date")
		}
		o.PromisedAt = req.PromisedAt
	}
	if req.Lines != nil {
		lines, err := buildLines(req.Lines)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}

	o.Recompute()
	if err := s.repo.UpdateDraft(ctx, o); err != nil {
		return nil, err
	}
	s.warnFarFuturePromise(ctx, o)
	s.bumpCaches(ctx)
	return o, nil
}

// Start moves a draft order into progress. Requires an assigned technician.
func (s *Service) Start(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusDraft {
		return nil, fmt.Errorf("%w: start requires a draft order, got %s", ErrInvalidTransition, o.Status)
	}
	if o.TechnicianID == nil {
		return nil, ErrTechnicianRequired
	}

	now := s.now()
	updated, err := s.apply(ctx, o, Transition{
		OrderID:         id,
		ExpectedVersion: req.Version,
		Status:          StatusInProgress,
		StartedAt:       &now,
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.TechnicianMaxActive > 0 {
		active, countErr := s.repo.CountActiveByTechnician(ctx, *o.TechnicianID)
		if countErr != nil {
			s.logger.Warn("technician load check failed", "error", countErr)
		} else if active > s.cfg.TechnicianMaxActive {
			s.warn(ctx, updated, "technician active order count exceeds the configured limit",
				map[string]any{"technician_id": *o.TechnicianID, "active": active, "limit": s.cfg.TechnicianMaxActive})
		}
	}
	return updated, nil
}

// MarkReady completes the repair work. The strict rule requires an order in
// progress with at least one line; the lenient configuration lets a draft go
// straight to ready with a soft warning.
func (s *Service) MarkReady(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case StatusInProgress:
	case StatusDraft:
		if s.cfg.RequireLinesOnReady {
			return nil, fmt.Errorf("%w: order must be started before completion", ErrInvalidTransition)
		}
	default:
		return nil, fmt.Errorf("%w: completion requires an order in progress, got %s", ErrInvalidTransition, o.Status)
	}
	if s.cfg.RequireLinesOnReady && len(o.Lines) == 0 {
		return nil, ErrLinesRequired
	}

	now := s.now()
	updated, err := s.apply(ctx, o, Transition{
		OrderID:         id,
		ExpectedVersion: req.Version,
		Status:          StatusReady,
		CompletedAt:     &now,
	})
	if err != nil {
		return nil, err
	}

	if o.Status == StatusDraft {
		s.warn(ctx, updated, "order marked ready without being started", nil)
	}
	if !s.cfg.RequireLinesOnReady && len(updated.Lines) == 0 {
		s.warn(ctx, updated, "order marked ready without any lines", nil)
	}
	s.warnCostVariance(ctx, updated)
	return updated, nil
}

func (s *Service) Deliver(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusReady {
		return nil, fmt.Errorf("%w: delivery requires a ready order, got %s", ErrInvalidTransition, o.Status)
	}

	now := s.now()
	return s.apply(ctx, o, Transition{
		OrderID:         id,
		ExpectedVersion: req.Version,
		Status:          StatusDelivered,
		DeliveredAt:     &now,
	})
}

func (s *Service) Cancel(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusDelivered {
		return nil, fmt.Errorf("%w: delivered orders cannot be cancelled", ErrInvalidTransition)
	}
	if o.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: order is already cancelled", ErrInvalidTransition)
	}
	if o.Invoiced() {
		// A draft invoice does not freeze cancellation; once the billing
		// subsystem posts it the order is locked in. Block when the posting
		// state cannot be determined.
		status, statusErr := s.hooks.InvoiceStatus(ctx, *o.InvoiceID)
		if statusErr != nil || status != invoiceStatusDraft {
			return nil, ErrAlreadyInvoiced
		}
	}

	return s.apply(ctx, o, Transition{
		OrderID:         id,
		ExpectedVersion: req.Version,
		Status:          StatusCancelled,
		Reason:          req.Reason,
	})
}

// ResetToDraft rewinds an order in progress or ready back to draft, clearing
// the downstream timestamps. Forbidden once delivered or invoiced.
func (s *Service) ResetToDraft(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusInProgress && o.Status != StatusReady && o.Status != StatusCancelled {
		return nil, fmt.Errorf("%w: reset requires an order in progress, ready or cancelled, got %s", ErrInvalidTransition, o.Status)
	}
	if o.Invoiced() {
		return nil, ErrAlreadyInvoiced
	}

	return s.apply(ctx, o, Transition{
		OrderID:         id,
		ExpectedVersion: req.Version,
		Status:          StatusDraft,
		ClearTimestamps: true,
	})
}

// apply computes the derived fields for the target state and hands the
// version-checked write to the repository, then records the audit entry.
func (s *Service) apply(ctx context.Context, o *RepairOrder, t Transition) (*RepairOrder, error) {
	projected := *o
	projected.Status = t.Status
	if t.ClearTimestamps {
		projected.StartedAt, projected.CompletedAt, projected.DeliveredAt = nil, nil, nil
	}
	if t.StartedAt != nil {
		projected.StartedAt = t.StartedAt
	}
	if t.CompletedAt != nil {
		projected.CompletedAt = t.CompletedAt
	}
	if t.DeliveredAt != nil {
		projected.DeliveredAt = t.DeliveredAt
	}
	projected.Recompute()
	t.DurationHours = &projected.DurationHours
	t.ProgressPercent = &projected.ProgressPercent

	updated, err := s.repo.ApplyTransition(ctx, t)
	if err != nil {
		return nil, err
	}

	s.record(ctx, shared.AuditActionTransition, updated, map[string]any{
		"from": string(o.Status),
		"to":   string(t.Status),
	})
	s.bumpCaches(ctx)
	return updated, nil
}

// CreateInvoice mirrors the order lines into the billing subsystem. One-shot:
// fails once an invoice reference exists.
func (s *Service) CreateInvoice(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Invoiced() {
		return nil, ErrAlreadyInvoiced
	}
	if o.Status != StatusReady && o.Status != StatusDelivered {
		return nil, fmt.Errorf("%w: invoicing requires a ready or delivered order, got %s", ErrInvalidTransition, o.Status)
	}
	if len(o.Lines) == 0 || o.TotalAmount <= 0 {
		return nil, ErrNoBillableAmount
	}

	invoiceID, err := s.hooks.CreateInvoice(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	if err := s.repo.SetInvoice(ctx, id, req.Version, invoiceID); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditActionInvoice, updated, map[string]any{"invoice_id": invoiceID})
	s.readBackInvoiceStatus(ctx, updated)
	s.bumpCaches(ctx)
	return updated, nil
}

// CreateSaleOrder mirrors the lines into a sale order under the same one-shot
// contract as invoicing.
func (s *Service) CreateSaleOrder(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SaleOrderID != nil {
		return nil, ErrSaleOrderExists
	}
	if o.Status != StatusReady && o.Status != StatusDelivered {
		return nil, fmt.Errorf("%w: a sale order requires a ready or delivered order, got %s", ErrInvalidTransition, o.Status)
	}
	if len(o.Lines) == 0 || o.TotalAmount <= 0 {
		return nil, ErrNoBillableAmount
	}

	saleOrderID, err := s.hooks.CreateSaleOrder(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("create sale order: %w", err)
	}
	if err := s.repo.SetSaleOrder(ctx, id, req.Version, saleOrderID); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditActionInvoice, updated, map[string]any{"sale_order_id": saleOrderID})
	s.bumpCaches(ctx)
	return updated, nil
}

// CreateStockTransfer reserves the storable lines at most once per order.
func (s *Service) CreateStockTransfer(ctx context.Context, id int64, req TransitionRequest) (*RepairOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.StockTransferRef != nil {
		return nil, ErrAlreadyTransferred
	}
	if len(o.StorableLines()) == 0 {
		return nil, ErrNoStorableLines
	}

	transferRef, err := s.hooks.CreateStockTransfer(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("create stock transfer: %w", err)
	}
	if err := s.repo.SetStockTransfer(ctx, id, req.Version, transferRef); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditActionTransfer, updated, map[string]any{"transfer_ref": transferRef})
	s.bumpCaches(ctx)
	return updated, nil
}

func (s *Service) record(ctx context.Context, action string, o *RepairOrder, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   auditEntity,
		EntityID: strconv.FormatInt(o.ID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "order_id", o.ID, "error", err)
	}
}

// bumpCaches drops the dashboard read models after a successful mutation so
// the next read recomputes. A failed bump only ages the cache, it never fails
// the mutation.
func (s *Service) bumpCaches(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", "error", err)
	}
}

func (s *Service) warn(ctx context.Context, o *RepairOrder, message string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Warn(ctx, auditEntity, strconv.FormatInt(o.ID, 10), message, meta); err != nil {
		s.logger.Warn("audit warning failed", "order_id", o.ID, "error", err)
	}
}

func (s *Service) warnCostVariance(ctx context.Context, o *RepairOrder) {
	if s.cfg.CostVarianceThreshold <= 0 || o.EstimatedCost <= 0 {
		return
	}
	variance := math.Abs(o.TotalAmount-o.EstimatedCost) / o.EstimatedCost
	if variance > s.cfg.CostVarianceThreshold {
		s.warn(ctx, o, "actual cost deviates from the estimate beyond the threshold", map[string]any{
			"estimated": o.EstimatedCost,
			"actual":    o.TotalAmount,
			"variance":  variance,
		})
	}
}

func (s *Service) warnFarFuturePromise(ctx context.Context, o *RepairOrder) {
	if o.PromisedAt == nil {
		return
	}
	if o.PromisedAt.Sub(s.now()) > farFutureHorizon {
		s.warn(ctx, o, "promised date is unusually far in the future", map[string]any{
			"promised_at": o.PromisedAt.Format(time.RFC3339),
		})
	}
}

func buildLines(inputs []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(inputs))
	for i, in := range inputs {
		lineType := LineService
		if in.LineType != "" {
			lineType = LineType(in.LineType)
			if lineType != LineService && lineType != LineProduct {
				return nil, fmt.Errorf("unknown line type %q", in.LineType)
			}
		}
		totals := repairshared.CalculateLineTotals(in.Quantity, in.UnitPrice, in.DiscountPercent, in.TaxPercent)
		lines = append(lines, Line{
			Sequence:        i + 1,
			LineType:        lineType,
			ProductName:     in.ProductName,
			Description:     in.Description,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			TaxPercent:      in.TaxPercent,
			DiscountAmount:  totals.DiscountAmount,
			TaxAmount:       totals.TaxAmount,
			Subtotal:        totals.Subtotal,
			Total:           totals.Total,
		})
	}
	return lines, nil
}
