package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opaquedelicia/restaurant-platform/internal/cache"
	"github.com/opaquedelicia/restaurant-platform/internal/config"
	"github.com/opaquedelicia/restaurant-platform/internal/countdown"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/opaquedelicia/restaurant-platform/internal/paymentstatus"
	service "github.com/opaquedelicia/restaurant-platform/internal/services"
	"github.com/redis/go-redis/v9"
)

const (
	exitPaid = iota
	exitUsage
	exitUnpaid
)

type options struct {
	reference  string
	expires    string
	fallback   string
	method     string
	policy     string
	configPath string
	redisAddr  string
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {

	fs := flag.NewFlagSet("payment-watch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.reference, "ref", "", "payment reference to watch")
	fs.StringVar(&opts.expires, "expires", "", "payment deadline, RFC 3339")
	fs.StringVar(&opts.fallback, "fallback-expires", "", "deadline used when -expires is empty")
	fs.StringVar(&opts.method, "method", string(models.PaymentMethodMultibanco), "payment method: card, mbway or multibanco")
	fs.StringVar(&opts.policy, "on-expire", string(countdown.PolicyDisplayOnly), "expiry policy: display_only or cancel_payment")
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config with watcher and countdown sections")
	fs.StringVar(&opts.redisAddr, "redis", "", "redis address whose cached payment reads are dropped once paid")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.reference == "" {
		return nil, errors.New("-ref is required")
	}

	switch countdown.ExpirePolicy(opts.policy) {
	case countdown.PolicyDisplayOnly, countdown.PolicyCancelPayment:
	default:
		return nil, fmt.Errorf("-on-expire: %w %q", countdown.ErrUnknownPolicy, opts.policy)
	}

	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	watcherCfg, countdownCfg, err := config.LoadWatcherConfig(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	notifier := service.NewNotifier(watcherCfg.Locale, func(_ context.Context, n models.Notification) {
		fmt.Fprintf(stdout, "\n[%s] %s\n", n.Level, n.Text)
	})

	var invalidator paymentstatus.Invalidator
	if opts.redisAddr != "" {
		redisCache := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: opts.redisAddr}), &config.CacheConfig{})
		defer redisCache.Close()
		invalidator = cache.NewPaymentInvalidator(redisCache)
	}

	client := paymentstatus.NewHTTPClient(watcherCfg.BaseURL, watcherCfg.RequestTimeout).WithLogger(logger)

	registry := paymentstatus.NewRegistry(func() *paymentstatus.Watcher {
		return paymentstatus.NewWatcher(client, invalidator, notifier, paymentstatus.Options{
			Interval:         watcherCfg.Interval,
			FailureThreshold: watcherCfg.FailureThreshold,
			MaxBackoff:       watcherCfg.MaxBackoff,
			MaxFailures:      watcherCfg.MaxFailures,
			Logger:           logger,
		})
	})
	defer registry.StopAll()

	watcher, ok := registry.Watch(ctx, opts.reference)
	if !ok {
		fmt.Fprintln(stderr, "nothing to watch")
		return exitUsage
	}

	watcher.OnHealthChange(func(_ string, health paymentstatus.Health, failures int) {
		logger.Warn("Status checks changed health", slog.String("health", string(health)), slog.Int("failures", failures))
	})

	var trackerDone <-chan struct{}

	deadline, err := countdown.ResolveDeadline(opts.expires, opts.fallback, models.PaymentMethod(opts.method), time.Now(), countdownCfg.MultibancoTTL)
	switch {
	case errors.Is(err, countdown.ErrNoDeadline):
		logger.Info("Payment has no deadline, watching status only")
	case err != nil:
		fmt.Fprintln(stderr, err)
		return exitUsage
	default:
		tracker, err := countdown.NewTracker(countdown.Options{
			Reference: opts.reference,
			Deadline:  deadline,
			Policy:    countdown.ExpirePolicy(opts.policy),
			Canceller: client,
			Notifier:  notifier,
			OnTick: func(r countdown.Remaining) {
				fmt.Fprintf(stdout, "\r%s %s", opts.reference, r)
			},
			OnExpire: func(context.Context, string) {
				registry.Unwatch(opts.reference)
			},
			Logger: logger,
		})
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}

		tracker.Start(ctx)
		defer tracker.Stop()
		trackerDone = tracker.Done()
	}

	select {
	case <-watcher.Done():
	case <-trackerDone:
		<-watcher.Done()
	case <-ctx.Done():
		registry.StopAll()
		<-watcher.Done()
	}

	status := watcher.State().CurrentStatus
	fmt.Fprintf(stdout, "\n%s: %s (%s)\n", opts.reference, status, status.Estado())

	if status == models.PaymentStatusPaid {
		return exitPaid
	}

	return exitUnpaid
}
