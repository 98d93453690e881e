package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/payment"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Attempt describes a launched payment. Done yields the Outcome once the widget reports.
type Attempt struct {
	Reference     string          `json:"reference"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	AmountMinor   int64           `json:"amount_minor"`
	Currency      string          `json:"currency"`
	Launch        payment.Launch  `json:"launch"`
	Done          <-chan Outcome  `json:"-"`
}

// Outcome is the final result of one attempt. Err is nil on a clean success, a
// *ReconciliationWarning on success with failed record-keeping, and one of the
// checkout sentinel errors otherwise.
type Outcome struct {
	Reference     string               `json:"reference,omitempty"`
	TransactionID string               `json:"transaction_id,omitempty"`
	State         domain.CheckoutState `json:"state"`
	Err           error                `json:"-"`
	Result        *payment.Result      `json:"result,omitempty"`
	FinishedAt    time.Time            `json:"finished_at"`
}

// Label is the metrics label for the outcome.
func (o Outcome) Label() string {
	var warning *ReconciliationWarning
	switch {
	case o.Err == nil:
		return "completed"
	case errors.As(o.Err, &warning):
		return "completed_with_warning"
	case errors.Is(o.Err, ErrPaymentCancelled):
		return "cancelled"
	case errors.Is(o.Err, ErrPaymentDeclined):
		return "declined"
	case errors.Is(o.Err, ErrPaymentLoad):
		return "payment_load_error"
	default:
		return "persistence_error"
	}
}

// Session is the checkout workflow of one cart session. Only one attempt runs at a time.
type Session struct {
	id   string
	o    *Orchestrator
	cart Cart

	mu      sync.Mutex
	state   domain.CheckoutState
	attempt *Attempt
	last    *Outcome
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() domain.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the outcome of the most recent finished attempt, if any.
func (s *Session) Last() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := *s.last
	return &out
}

// Current returns the attempt awaiting payment, if any.
func (s *Session) Current() *Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt == nil || s.state != domain.CheckoutStateAwaitingPayment {
		return nil
	}
	a := *s.attempt
	return &a
}

func (s *Session) rebind(cart Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.InFlight() {
		s.cart = cart
	}
}

// Open shows the form. It is a no-op in FormEntry and starts over from a finished attempt.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked()
}

// Reset returns a finished session to FormEntry for a new attempt.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsTerminal() {
		return fmt.Errorf("%w: reset from %s", ErrIllegalTransition, s.state)
	}
	return s.transitionLocked(domain.CheckoutStateFormEntry)
}

func (s *Session) openLocked() error {
	switch {
	case s.state == domain.CheckoutStateFormEntry:
		return nil
	case s.state.InFlight():
		return ErrCheckoutInProgress
	default:
		return s.transitionLocked(domain.CheckoutStateFormEntry)
	}
}

func (s *Session) transitionLocked(to domain.CheckoutState) error {
	if !domain.CanTransitionTo(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.state, to)
	}
	s.state = to
	return nil
}

func (s *Session) awaiting(reference string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.CheckoutStateAwaitingPayment && s.attempt != nil && s.attempt.Reference == reference
}

// Submit validates the form, records a pending transaction and opens the payment widget.
// It returns once the widget is open; the outcome arrives on Attempt.Done.
func (s *Session) Submit(ctx context.Context, form CustomerForm) (*Attempt, error) {
	ctx, span := s.o.tracer.Start(ctx, "checkout.Submit")
	defer span.End()

	snapshot, err := s.begin(form)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	o := s.o
	reference := o.refs.Next()
	tax, charge, minor := o.amounts(snapshot.Total)
	span.SetAttributes(attribute.String("checkout.reference", reference), attribute.Int64("checkout.amount_minor", minor))

	tx := &domain.PendingTransaction{
		Reference:   reference,
		Amount:      charge,
		AmountMinor: minor,
		Currency:    o.cfg.Currency,
		Status:      domain.TransactionStatusPending,
		Customer:    form.Customer(),
		Items:       domain.ItemsFromSnapshot(snapshot),
		Subtotal:    snapshot.Total,
		Tax:         tax,
		Total:       charge,
	}

	var txID string
	err = o.persist(ctx, func(ctx context.Context) error {
		var err error
		txID, err = o.repo.CreatePendingTransaction(ctx, tx)
		return err
	})
	if err != nil {
		return nil, s.abort(ctx, reference, "", fmt.Errorf("%w: %w", ErrPersistence, err))
	}

	widget, err := o.widgets.Load(ctx)
	if err != nil {
		return nil, s.abort(ctx, reference, txID, fmt.Errorf("%w: %w", ErrPaymentLoad, err))
	}

	callbacks, done := payment.Await()
	launch, err := widget.Open(ctx, payment.Config{
		Key:       o.cfg.PublicKey,
		Email:     form.Email,
		Amount:    minor,
		Currency:  o.cfg.Currency,
		Reference: reference,
		Metadata: payment.Metadata{
			TransactionID: txID,
			CustomFields:  form.customFields(),
		},
	}, callbacks)
	if err != nil {
		return nil, s.abort(ctx, reference, txID, fmt.Errorf("%w: %w", ErrPaymentLoad, err))
	}

	finished := make(chan Outcome, 1)
	attempt := &Attempt{
		Reference:     reference,
		TransactionID: txID,
		Amount:        charge,
		AmountMinor:   minor,
		Currency:      o.cfg.Currency,
		Launch:        launch,
		Done:          finished,
	}

	s.mu.Lock()
	err = s.transitionLocked(domain.CheckoutStateAwaitingPayment)
	s.attempt = attempt
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "awaiting payment", "session_id", s.id, "reference", reference, "transaction_id", txID, "amount_minor", minor)

	go s.await(*attempt, form.Customer(), snapshot, done, finished)

	out := *attempt
	return &out, nil
}

// begin checks the preconditions of Submit and moves the session to Submitting.
func (s *Session) begin(form CustomerForm) (domain.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.InFlight() {
		return domain.CartSnapshot{}, ErrCheckoutInProgress
	}
	if err := s.openLocked(); err != nil {
		return domain.CartSnapshot{}, err
	}
	if err := form.Validate(); err != nil {
		return domain.CartSnapshot{}, err
	}

	snapshot := s.cart.Snapshot()
	if snapshot.IsEmpty() {
		return domain.CartSnapshot{}, ErrEmptyCart
	}

	if err := s.transitionLocked(domain.CheckoutStateSubmitting); err != nil {
		return domain.CartSnapshot{}, err
	}
	s.attempt = nil
	return snapshot, nil
}

// abort fails an attempt before the widget took over and returns the session to FormEntry.
// A pending record that was already created is left for the sweeper.
func (s *Session) abort(ctx context.Context, reference, txID string, cause error) error {
	slog.ErrorContext(ctx, "checkout attempt aborted", "session_id", s.id, "reference", reference, "transaction_id", txID, "error", cause)

	out := Outcome{
		Reference:     reference,
		TransactionID: txID,
		State:         domain.CheckoutStateFailed,
		Err:           cause,
		FinishedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	_ = s.transitionLocked(domain.CheckoutStateFailed)
	_ = s.transitionLocked(domain.CheckoutStateFormEntry)
	s.last = &out
	s.mu.Unlock()

	s.o.metrics.CheckoutOutcome(out.Label())
	s.o.notifier.Notify(s.id, Notification{Kind: NotificationFailure, Message: msgGeneric, Reference: reference, At: out.FinishedAt})
	return cause
}

// await blocks until the widget reports, then reconciles. It runs on its own goroutine.
func (s *Session) await(a Attempt, customer domain.CustomerRecord, snapshot domain.CartSnapshot, done <-chan payment.Outcome, finished chan<- Outcome) {
	defer close(finished)

	res := <-done

	s.mu.Lock()
	if err := s.transitionLocked(domain.CheckoutStateReconciling); err != nil {
		slog.Error("unexpected checkout state on payment result", "session_id", s.id, "reference", a.Reference, "error", err)
	}
	s.mu.Unlock()

	ctx, span := s.o.tracer.Start(context.Background(), "checkout.Reconcile")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.reference", a.Reference))

	var out Outcome
	if !res.Cancelled && res.Result.Succeeded() {
		out = s.complete(ctx, a, customer)
	} else {
		out = s.fail(ctx, a, res)
	}
	if out.Err != nil {
		span.SetStatus(codes.Error, out.Err.Error())
	}

	s.mu.Lock()
	if err := s.transitionLocked(out.State); err != nil {
		slog.ErrorContext(ctx, "unexpected checkout state after reconciliation", "session_id", s.id, "reference", a.Reference, "error", err)
		s.state = out.State
	}
	s.last = &out
	s.mu.Unlock()

	s.o.metrics.CheckoutOutcome(out.Label())
	s.o.notifier.Notify(s.id, notificationFor(out))
	s.publish(ctx, a, customer, snapshot, out)

	finished <- out
}

// complete records a successful payment: status and customer are written concurrently,
// both are awaited, then the cart is cleared.
func (s *Session) complete(ctx context.Context, a Attempt, customer domain.CustomerRecord) Outcome {
	o := s.o
	var (
		wg                     sync.WaitGroup
		statusErr, customerErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		statusErr = o.persist(ctx, func(ctx context.Context) error {
			return o.repo.UpdateTransactionStatus(ctx, a.TransactionID, domain.TransactionStatusSuccess)
		})
	}()
	go func() {
		defer wg.Done()
		customerErr = o.persist(ctx, func(ctx context.Context) error {
			return o.repo.UpsertCustomer(ctx, customer)
		})
	}()
	wg.Wait()

	s.cart.Clear()

	out := Outcome{
		Reference:     a.Reference,
		TransactionID: a.TransactionID,
		State:         domain.CheckoutStateCompleted,
		FinishedAt:    time.Now().UTC(),
	}
	if err := errors.Join(statusErr, customerErr); err != nil {
		slog.ErrorContext(ctx, "payment succeeded but reconciliation failed", "session_id", s.id, "reference", a.Reference, "error", err)
		out.Err = &ReconciliationWarning{Err: err}
	} else {
		slog.InfoContext(ctx, "checkout completed", "session_id", s.id, "reference", a.Reference)
	}
	return out
}

// fail marks the transaction failed. The cart is left as it was.
func (s *Session) fail(ctx context.Context, a Attempt, res payment.Outcome) Outcome {
	o := s.o
	out := Outcome{
		Reference:     a.Reference,
		TransactionID: a.TransactionID,
		State:         domain.CheckoutStateFailed,
		Err:           ErrPaymentCancelled,
		FinishedAt:    time.Now().UTC(),
	}
	if !res.Cancelled {
		r := res.Result
		out.Result = &r
		out.Err = ErrPaymentDeclined
	}

	err := o.persist(ctx, func(ctx context.Context) error {
		return o.repo.UpdateTransactionStatus(ctx, a.TransactionID, domain.TransactionStatusFailed)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to mark transaction failed", "session_id", s.id, "reference", a.Reference, "error", err) // sweeper retries
	}

	slog.InfoContext(ctx, "checkout failed", "session_id", s.id, "reference", a.Reference, "reason", out.Err)
	return out
}

func (s *Session) publish(ctx context.Context, a Attempt, customer domain.CustomerRecord, snapshot domain.CartSnapshot, out Outcome) {
	e := events.Event{
		Type:          events.TypeCheckoutFailed,
		SessionID:     s.id,
		TransactionID: a.TransactionID,
		Reference:     a.Reference,
		Email:         customer.Email,
		Amount:        a.Amount.String(),
		Currency:      a.Currency,
		OccurredAt:    out.FinishedAt,
	}
	if out.State == domain.CheckoutStateCompleted {
		e.Type = events.TypeCheckoutCompleted
		for _, l := range snapshot.Lines {
			e.Items = append(e.Items, events.Item{
				ProductID: l.Product.ID,
				Size:      l.Size,
				Quantity:  l.Quantity,
				Price:     l.Product.Price.String(),
			})
		}
		if out.Err != nil {
			e.Warning = out.Err.Error()
		}
	} else if out.Err != nil {
		e.Reason = out.Err.Error()
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.o.cfg.PersistTimeout)
	defer cancel()
	if err := s.o.publisher.Publish(pubCtx, e); err != nil {
		slog.WarnContext(ctx, "failed to publish checkout event", "reference", a.Reference, "event_type", e.Type, "error", err)
	}
}

func notificationFor(out Outcome) Notification {
	n := Notification{Reference: out.Reference, At: out.FinishedAt}
	var warning *ReconciliationWarning
	switch {
	case out.Err == nil:
		n.Kind, n.Message = NotificationSuccess, msgSuccess
	case errors.As(out.Err, &warning):
		n.Kind, n.Message = NotificationWarning, msgWarning
	case errors.Is(out.Err, ErrPaymentCancelled):
		n.Kind, n.Message = NotificationFailure, msgCancelled
	default:
		n.Kind, n.Message = NotificationFailure, msgDeclined
	}
	return n
}
