package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OrderSubmitter places an order with the order service.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req *Request) (*Confirmation, error)
}

// StockDecrementer decrements stock for one product.
type StockDecrementer interface {
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

// FailureRecorder keeps failed decrements for out-of-band reconciliation.
type FailureRecorder interface {
	RecordDecrementFailure(ctx context.Context, failure DecrementFailure) error
}

// Cart is what the orchestrator needs from the shopper's cart: a copy of its
// lines, and a way to empty it once the order is placed.
type Cart interface {
	Lines() cart.Lines
	Clear()
}

// DecrementResult is the outcome of one stock decrement call.
type DecrementResult struct {
	ProductID string
	Quantity  int
	Err       error
}

// DecrementFailure is a decrement that failed after its order was placed.
type DecrementFailure struct {
	OrderID        string
	OrderReference string
	ProductID      string
	Quantity       int
	Reason         string
	FailedAt       time.Time
}

// Outcome is the terminal result of one checkout attempt.
type Outcome struct {
	State          State
	Path           []State
	OrderID        string
	OrderReference string
	Request        *Request
	Reason         Reason
	Err            error
	Decrements     []DecrementResult
}

func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// FailedDecrements lists the stock decrements that did not go through.
func (o Outcome) FailedDecrements() []DecrementResult {
	var failed []DecrementResult
	for _, d := range o.Decrements {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

type Orchestrator struct {
	orders   OrderSubmitter
	stock    StockDecrementer
	recorder FailureRecorder
	ids      *IDGenerator
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Orchestrator)

// WithFailureRecorder stores failed stock decrements in addition to logging them.
func WithFailureRecorder(r FailureRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithIDGenerator(g *IDGenerator) Option {
	return func(o *Orchestrator) { o.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(orders OrderSubmitter, stock StockDecrementer, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		orders: orders,
		stock:  stock,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.ids == nil {
		o.ids = NewIDGenerator(o.now)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Checkout places an order for the cart, decrements stock for every line and
// clears the cart.
//
// A missing customer or an empty cart fails before any network call. A rejected
// or unreachable order service fails the attempt and leaves the cart untouched.
// Once the order is placed, stock decrements are attempted once per line;
// their failures are logged and recorded but never fail the checkout, and the
// cart is always cleared.
func (o *Orchestrator) Checkout(ctx context.Context, c Cart, customerID string, priority bool) Outcome {
	m := newMachine()

	if customerID == "" {
		return o.fail(m, Outcome{}, ReasonPrecondition, ErrMissingCustomer)
	}
	lines := c.Lines()
	if len(lines) == 0 {
		return o.fail(m, Outcome{}, ReasonPrecondition, ErrEmptyCart)
	}

	out, ok := o.placeOrder(ctx, m, lines, customerID, priority)
	if !ok {
		return out
	}

	if err := m.to(StateFinalizing); err != nil {
		return o.fail(m, out, ReasonTransport, &TransportError{Err: err})
	}
	c.Clear()
	_ = m.to(StateSucceeded)

	out.State = m.current()
	out.Path = m.path
	o.logger.Info("checkout succeeded",
		zap.String("order_id", out.OrderID),
		zap.String("order_reference", out.OrderReference),
		zap.Int("failed_decrements", len(out.FailedDecrements())))
	return out
}

// placeOrder runs the network steps: submission and stock decrements. Any panic
// in here is turned into a transport failure with the cart left as it was.
func (o *Orchestrator) placeOrder(ctx context.Context, m *machine, lines cart.Lines, customerID string, priority bool) (out Outcome, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out = o.fail(m, out, ReasonTransport, &TransportError{Err: fmt.Errorf("panic: %v", r)})
			ok = false
		}
	}()

	if err := m.to(StateSubmitting); err != nil {
		return o.fail(m, out, ReasonTransport, &TransportError{Err: err}), false
	}

	req := newRequest(o.ids.Next(), customerID, lines, priority)
	out.OrderID = req.OrderID
	out.Request = req

	conf, err := o.orders.SubmitOrder(ctx, req)
	if err != nil {
		return o.fail(m, out, ReasonSubmission, &SubmissionError{OrderID: req.OrderID, Err: err}), false
	}
	out.OrderReference = conf.OrderReference

	if err := m.to(StateDecrementingStock); err != nil {
		return o.fail(m, out, ReasonTransport, &TransportError{Err: err}), false
	}
	out.Decrements = o.decrementStock(ctx, req, conf.OrderReference)
	return out, true
}

// decrementStock calls the stock service once per item, concurrently, and
// collects every result. A failing item never stops the others.
func (o *Orchestrator) decrementStock(ctx context.Context, req *Request, orderReference string) []DecrementResult {
	results := make([]DecrementResult, len(req.Items))

	var g errgroup.Group
	for i, item := range req.Items {
		g.Go(func() error {
			results[i] = DecrementResult{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Err:       o.decrementOne(ctx, item),
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Err == nil {
			continue
		}
		o.logger.Warn("stock decrement failed",
			zap.String("order_id", req.OrderID),
			zap.String("order_reference", orderReference),
			zap.String("product_id", r.ProductID),
			zap.Int("quantity", r.Quantity),
			zap.Error(r.Err))
		o.record(ctx, DecrementFailure{
			OrderID:        req.OrderID,
			OrderReference: orderReference,
			ProductID:      r.ProductID,
			Quantity:       r.Quantity,
			Reason:         r.Err.Error(),
			FailedAt:       o.now(),
		})
	}
	return results
}

func (o *Orchestrator) decrementOne(ctx context.Context, item OrderItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TransportError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return o.stock.DecrementStock(ctx, item.ProductID, item.Quantity)
}

func (o *Orchestrator) record(ctx context.Context, failure DecrementFailure) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordDecrementFailure(ctx, failure); err != nil {
		o.logger.Error("failed to record stock decrement failure",
			zap.String("order_id", failure.OrderID),
			zap.String("product_id", failure.ProductID),
			zap.Error(err))
	}
}

func (o *Orchestrator) fail(m *machine, out Outcome, reason Reason, err error) Outcome {
	if !m.current().IsTerminal() {
		_ = m.to(StateFailed)
	}
	out.State = StateFailed
	out.Path = m.path
	out.Reason = reason
	out.Err = err
	o.logger.Warn("checkout failed",
		zap.String("order_id", out.OrderID),
		zap.String("reason", string(reason)),
		zap.Error(err))
	return out
}
