package paymentstatus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	appErrors "github.com/opaquedelicia/restaurant-platform/internal/errors"
	"github.com/opaquedelicia/restaurant-platform/internal/metrics"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
)

const (
	DefaultInterval         = 10 * time.Second
	DefaultFailureThreshold = 3
	DefaultMaxBackoff       = 2 * time.Minute
)

type Health string

const (
	HealthOK          Health = "ok"
	HealthDegraded    Health = "degraded"
	HealthUnavailable Health = "unavailable"
)

type StatusChangeFunc func(ctx context.Context, reference string, from, to models.PaymentStatus)

type HealthChangeFunc func(reference string, health Health, failures int)

// Invalidator drops cached reads that depend on a payment's status.
type Invalidator interface {
	InvalidatePayment(ctx context.Context, reference string) error
}

// Notifier emits user facing messages keyed by translation identifier.
type Notifier interface {
	Notify(ctx context.Context, level models.NotificationLevel, messageID, reference string)
}

type PaymentStatusWatcher interface {
	Start(ctx context.Context, reference string)
	Stop()
	OnStatusChange(cb StatusChangeFunc)
}

type Options struct {
	Interval         time.Duration
	InitialStatus    models.PaymentStatus
	FailureThreshold int
	MaxBackoff       time.Duration
	// MaxFailures stops the watcher after that many consecutive failures. Zero polls forever.
	MaxFailures int
	Logger      *slog.Logger
}

type PollState struct {
	Reference           string               `json:"reference"`
	CurrentStatus       models.PaymentStatus `json:"current_status"`
	IsLoading           bool                 `json:"is_loading"`
	LastCheckedAt       time.Time            `json:"last_checked_at"`
	ConsecutiveFailures int                  `json:"consecutive_failures"`
	Health              Health               `json:"health"`
}

type Watcher struct {
	client      StatusClient
	invalidator Invalidator
	notifier    Notifier
	opts        Options
	logger      *slog.Logger
	backoff     *backoff.ExponentialBackOff

	mu              sync.Mutex
	state           PollState
	callbacks       []StatusChangeFunc
	healthCallbacks []HealthChangeFunc
	started         bool

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

var _ PaymentStatusWatcher = (*Watcher)(nil)

// NewWatcher builds a watcher. invalidator and notifier may be nil.
func NewWatcher(client StatusClient, invalidator Invalidator, notifier Notifier, opts Options) *Watcher {

	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = DefaultFailureThreshold
	}

	if opts.MaxBackoff < opts.Interval {
		opts.MaxBackoff = max(DefaultMaxBackoff, opts.Interval)
	}

	if opts.InitialStatus == "" {
		opts.InitialStatus = models.PaymentStatusPending
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.Interval
	b.RandomizationFactor = 0
	b.MaxInterval = opts.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	return &Watcher{
		client:      client,
		invalidator: invalidator,
		notifier:    notifier,
		opts:        opts,
		logger:      opts.Logger,
		backoff:     b,
		state: PollState{
			CurrentStatus: opts.InitialStatus,
			Health:        HealthOK,
		},
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (w *Watcher) OnStatusChange(cb StatusChangeFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.callbacks = append(w.callbacks, cb)
}

func (w *Watcher) OnHealthChange(cb HealthChangeFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.healthCallbacks = append(w.healthCallbacks, cb)
}

// Start polls reference immediately and then on every interval until the payment leaves
// pending, Stop is called or ctx ends. An empty reference leaves the watcher inert.
// A watcher runs at most once.
func (w *Watcher) Start(ctx context.Context, reference string) {

	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.state.Reference = reference
	initial := w.state.CurrentStatus
	w.mu.Unlock()

	if reference == "" {
		w.logger.Debug("Payment status watcher has no reference, staying inert")
		w.Stop()
		close(w.done)
		return
	}

	if initial.IsFinal() {
		w.logger.Debug("Payment already settled, not polling",
			slog.String("reference", reference),
			slog.String("status", string(initial)))
		w.Stop()
		close(w.done)
		return
	}

	w.logger = w.logger.With(slog.String("reference", reference))
	metrics.WatcherStarted()

	go w.run(ctx)
}

// Stop cancels future polls. A request already in flight completes and its result is dropped.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Done is closed once the polling goroutine has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) State() PollState {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state
}

func (w *Watcher) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *Watcher) run(ctx context.Context) {

	defer close(w.done)
	defer metrics.WatcherStopped()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.stopCh:
			return
		case <-timer.C:
		}

		// the next timer is armed only after this poll returns, so polls never overlap
		next, keepPolling := w.poll(ctx)
		if !keepPolling {
			return
		}

		timer.Reset(next)
	}
}

func (w *Watcher) poll(ctx context.Context) (time.Duration, bool) {

	if w.stopped() {
		return 0, false
	}

	w.mu.Lock()
	w.state.IsLoading = true
	reference := w.state.Reference
	w.mu.Unlock()

	start := time.Now()
	status, err := w.client.FetchStatus(ctx, reference)
	elapsed := time.Since(start)

	w.mu.Lock()
	w.state.IsLoading = false
	discard := w.stopped() || ctx.Err() != nil
	if !discard {
		w.state.LastCheckedAt = time.Now()
	}
	w.mu.Unlock()

	if discard {
		w.logger.Debug("Discarding payment status result after stop")
		return 0, false
	}

	if err != nil {
		metrics.ObservePoll(outcome(err), elapsed)
		return w.recordFailure(ctx, err)
	}

	metrics.ObservePoll("ok", elapsed)
	w.recordSuccess()

	if status == models.PaymentStatusPending {
		w.logger.Debug("Payment still pending")
		return w.opts.Interval, true
	}

	w.mu.Lock()
	from := w.state.CurrentStatus
	w.state.CurrentStatus = status
	callbacks := append([]StatusChangeFunc(nil), w.callbacks...)
	w.mu.Unlock()

	// settled: no further requests for this reference
	w.Stop()

	w.logger.Info("Payment status changed",
		slog.String("from", string(from)),
		slog.String("to", string(status)))
	metrics.PaymentTransition(string(status))

	if status == models.PaymentStatusPaid {
		w.settlePaid(ctx, reference)
	}

	for _, cb := range callbacks {
		cb(ctx, reference, from, status)
	}

	return 0, false
}

func (w *Watcher) settlePaid(ctx context.Context, reference string) {

	if w.invalidator != nil {
		if err := w.invalidator.InvalidatePayment(ctx, reference); err != nil {
			w.logger.Warn("Failed to invalidate cached reservations", slog.String("error", err.Error()))
		}
	}

	if w.notifier != nil {
		w.notifier.Notify(ctx, models.NotificationSuccess, models.MsgPaymentConfirmed, reference)
	}
}

func (w *Watcher) recordSuccess() {

	w.mu.Lock()
	previous := w.state.Health
	w.state.ConsecutiveFailures = 0
	w.state.Health = HealthOK
	callbacks := append([]HealthChangeFunc(nil), w.healthCallbacks...)
	reference := w.state.Reference
	w.mu.Unlock()

	w.backoff.Reset()

	if previous != HealthOK {
		w.logger.Info("Payment status endpoint recovered")
		metrics.WatcherHealthChanged(string(HealthOK))

		for _, cb := range callbacks {
			cb(reference, HealthOK, 0)
		}
	}
}

func (w *Watcher) recordFailure(ctx context.Context, err error) (time.Duration, bool) {

	w.mu.Lock()
	w.state.ConsecutiveFailures++
	failures := w.state.ConsecutiveFailures
	previous := w.state.Health
	reference := w.state.Reference

	health := previous
	switch {
	case w.opts.MaxFailures > 0 && failures >= w.opts.MaxFailures:
		health = HealthUnavailable
	case failures >= w.opts.FailureThreshold:
		health = HealthDegraded
	}
	w.state.Health = health
	callbacks := append([]HealthChangeFunc(nil), w.healthCallbacks...)
	w.mu.Unlock()

	w.logger.Warn("Payment status check failed, skipping cycle",
		slog.String("kind", string(appErrors.PollFailureKindOf(err))),
		slog.Int("consecutive_failures", failures),
		slog.String("error", err.Error()))

	if health != previous {
		w.logger.Warn("Payment status watcher health changed", slog.String("health", string(health)))
		metrics.WatcherHealthChanged(string(health))

		for _, cb := range callbacks {
			cb(reference, health, failures)
		}

		// one notice per outage
		if previous == HealthOK && w.notifier != nil {
			w.notifier.Notify(ctx, models.NotificationWarning, models.MsgPaymentStatusUnavailable, reference)
		}
	}

	if health == HealthUnavailable {
		w.logger.Error("Giving up on payment status checks", slog.Int("consecutive_failures", failures))
		w.Stop()
		return 0, false
	}

	if failures < w.opts.FailureThreshold {
		return w.opts.Interval, true
	}

	// a degraded watcher never polls faster than the base interval
	return max(w.backoff.NextBackOff(), w.opts.Interval), true
}

func outcome(err error) string {
	if kind := appErrors.PollFailureKindOf(err); kind != "" {
		return string(kind)
	}

	return string(appErrors.PollNetworkFailure)
}
