package countdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opaquedelicia/restaurant-platform/internal/metrics"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/opaquedelicia/restaurant-platform/internal/paymentstatus"
)

const (
	DefaultTickInterval  = time.Second
	DefaultMultibancoTTL = 72 * time.Hour
)

type ExpirePolicy string

const (
	// PolicyDisplayOnly only reports the expiry.
	PolicyDisplayOnly ExpirePolicy = "display_only"
	// PolicyCancelPayment also cancels the payment server side.
	PolicyCancelPayment ExpirePolicy = "cancel_payment"
)

var (
	ErrNoDeadline       = errors.New("no expiration deadline available")
	ErrMissingCanceller = errors.New("cancel policy requires a canceller")
	ErrUnknownPolicy    = errors.New("unknown expire policy")
)

type Canceller interface {
	CancelPayment(ctx context.Context, reference string) error
}

type ExpireFunc func(ctx context.Context, reference string)

type Remaining struct {
	Total   time.Duration
	Hours   int
	Minutes int
	Seconds int
}

func newRemaining(d time.Duration) Remaining {

	if d < 0 {
		d = 0
	}

	whole := int64(d / time.Second)

	return Remaining{
		Total:   d,
		Hours:   int(whole / 3600),
		Minutes: int(whole % 3600 / 60),
		Seconds: int(whole % 60),
	}
}

// String renders HH:MM:SS, zero padded. Hours may exceed two digits.
func (r Remaining) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", r.Hours, r.Minutes, r.Seconds)
}

type Options struct {
	Reference    string
	Deadline     time.Time
	Policy       ExpirePolicy
	Canceller    Canceller
	Notifier     paymentstatus.Notifier
	OnExpire     ExpireFunc
	OnTick       func(Remaining)
	TickInterval time.Duration
	Logger       *slog.Logger
}

type Tracker struct {
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	remaining Remaining
	expired   bool
	started   bool

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewTracker(opts Options) (*Tracker, error) {

	if opts.Deadline.IsZero() {
		return nil, ErrNoDeadline
	}

	switch opts.Policy {
	case "":
		opts.Policy = PolicyDisplayOnly
	case PolicyDisplayOnly:
	case PolicyCancelPayment:
		if opts.Canceller == nil {
			return nil, ErrMissingCanceller
		}
	default:
		return nil, fmt.Errorf("%w %q, want %s or %s", ErrUnknownPolicy, opts.Policy, PolicyDisplayOnly, PolicyCancelPayment)
	}

	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Tracker{
		opts:   opts,
		logger: opts.Logger.With(slog.String("reference", opts.Reference)),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Start recomputes the remaining time now and then once per tick until expiry or Stop.
func (t *Tracker) Start(ctx context.Context) {

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	go t.run(ctx)
}

func (t *Tracker) run(ctx context.Context) {

	defer close(t.done)

	t.Tick(ctx, time.Now())
	if t.Expired() {
		return
	}

	ticker := time.NewTicker(t.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case now := <-ticker.C:
			t.Tick(ctx, now)
			if t.Expired() {
				return
			}
		}
	}
}

func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
}

func (t *Tracker) stopped() bool {
	select {
	case <-t.stopCh:
		return true
	default:
		return false
	}
}

// Done is closed when the ticking goroutine exits.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

func (t *Tracker) Remaining() Remaining {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.remaining
}

func (t *Tracker) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.expired
}

// Tick recomputes the remaining time as of now and fires the expiry exactly once.
func (t *Tracker) Tick(ctx context.Context, now time.Time) Remaining {

	left := t.opts.Deadline.Sub(now)
	remaining := newRemaining(left)

	t.mu.Lock()
	if t.expired {
		t.mu.Unlock()
		return Remaining{}
	}

	// a stopped tracker still reports but never expires
	if t.stopped() {
		t.mu.Unlock()
		return remaining
	}

	t.remaining = remaining
	justExpired := left <= 0
	if justExpired {
		t.expired = true
	}
	t.mu.Unlock()

	if t.opts.OnTick != nil {
		t.opts.OnTick(remaining)
	}

	if justExpired {
		t.Stop()
		t.expire(ctx)
	}

	return remaining
}

func (t *Tracker) expire(ctx context.Context) {

	t.logger.Info("Payment deadline passed", slog.String("policy", string(t.opts.Policy)))
	metrics.CountdownExpired(string(t.opts.Policy))

	switch t.opts.Policy {
	case PolicyCancelPayment:
		t.cancelPayment(ctx)
	default:
		t.notify(ctx, models.NotificationWarning, models.MsgPaymentExpired)
	}

	if t.opts.OnExpire != nil {
		t.opts.OnExpire(ctx, t.opts.Reference)
	}
}

func (t *Tracker) cancelPayment(ctx context.Context) {

	err := t.opts.Canceller.CancelPayment(ctx, t.opts.Reference)

	switch {
	case err == nil:
		t.notify(ctx, models.NotificationWarning, models.MsgPaymentCancelled)
	case errors.Is(err, paymentstatus.ErrAlreadySettled):
		t.logger.Info("Payment settled before its deadline, nothing to cancel")
	default:
		t.logger.Error("Failed to cancel expired payment", slog.String("error", err.Error()))
		t.notify(ctx, models.NotificationError, models.MsgPaymentCancelFailed)
	}
}

func (t *Tracker) notify(ctx context.Context, level models.NotificationLevel, messageID string) {
	if t.opts.Notifier != nil {
		t.opts.Notifier.Notify(ctx, level, messageID, t.opts.Reference)
	}
}
