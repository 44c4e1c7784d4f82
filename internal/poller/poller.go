// Package poller periodically pulls the authoritative device state and hands
// each completed cycle to the reconciliation engine.
package poller

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"soak_console/internal/logger"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/tasks"
)

const (
	taskName            = "poll"
	DefaultInterval     = 2000 * time.Millisecond
	DefaultHistoryLimit = 60
)

var ErrEmptyStatus = errors.New("empty status response")

var (
	pollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soak_console_poll_cycles_total",
		Help: "Completed poll cycles by result",
	}, []string{"result"})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soak_console_fetch_failures_total",
		Help: "Failed resource fetches by resource",
	}, []string{"resource"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "soak_console_poll_cycle_duration_seconds",
		Help:    "Wall time of one poll cycle",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

// Fetcher reads every resource the console mirrors.
type Fetcher interface {
	Status(ctx context.Context) (*models.DeviceSnapshot, error)
	Settings(ctx context.Context) (*models.Settings, error)
	History(ctx context.Context, limit int) ([]models.HistorySample, error)
	Schedules(ctx context.Context) ([]models.Schedule, error)
	Logs(ctx context.Context) ([]models.UsageLogEntry, error)
	Weather(ctx context.Context) (*models.WeatherReport, error)
	Energy(ctx context.Context) (*models.EnergyUsage, error)
	SystemLogs(ctx context.Context) (string, error)
	HasAdminKey() bool
}

// Sink receives cycle results.
type Sink interface {
	ApplyPoll(raw reconcile.Raw, settings *models.Settings)
	ApplyFailure(err error)
}

type Config struct {
	Interval     time.Duration
	HistoryLimit int
}

type Poller struct {
	fetcher      Fetcher
	sink         Sink
	tasks        *tasks.Group
	interval     time.Duration
	historyLimit int
	log          *logger.Logger
}

func New(fetcher Fetcher, sink Sink, group *tasks.Group, cfg Config, log *logger.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &Poller{
		fetcher:      fetcher,
		sink:         sink,
		tasks:        group,
		interval:     cfg.Interval,
		historyLimit: cfg.HistoryLimit,
		log:          log,
	}
}

// Start begins polling every interval and runs the first cycle right away.
func (p *Poller) Start(ctx context.Context) {
	if p.log != nil {
		p.log.Infow("poller_started", "interval", p.interval, "history_limit", p.historyLimit)
	}
	p.tasks.Start(ctx, taskName, p.interval, p.Cycle)
	p.tasks.Trigger(taskName)
}

// Stop cancels polling and waits for an in-flight cycle to finish.
func (p *Poller) Stop() {
	p.tasks.Stop(taskName)
	if p.log != nil {
		p.log.Infow("poller_stopped")
	}
}

// Trigger requests an out-of-cycle resync. It runs after any in-progress cycle.
func (p *Poller) Trigger() {
	p.tasks.Trigger(taskName)
}

// Cycle fetches every resource concurrently and applies the result once.
// Each non-snapshot fetch fails on its own into a placeholder. A failed
// snapshot fetch marks the console disconnected and changes nothing else.
func (p *Poller) Cycle(ctx context.Context) {
	start := time.Now()
	ctx, span := otel.Tracer("soak_console/poller").Start(ctx, "poll_cycle",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Bool("poll.admin_key", p.fetcher.HasAdminKey())))
	defer span.End()
	defer func() { cycleDuration.Observe(time.Since(start).Seconds()) }()

	var (
		g         errgroup.Group
		snapshot  *models.DeviceSnapshot
		snapErr   error
		settings  *models.Settings
		raw       reconcile.Raw
		withAdmin = p.fetcher.HasAdminKey()
	)

	g.Go(func() error {
		snapshot, snapErr = p.fetcher.Status(ctx)
		return nil
	})
	g.Go(func() error {
		s, err := p.fetcher.Settings(ctx)
		if p.failed("settings", err) {
			return nil
		}
		settings = s
		return nil
	})
	g.Go(func() error {
		h, err := p.fetcher.History(ctx, p.historyLimit)
		if p.failed("history", err) {
			return nil
		}
		h = slices.Clone(h)
		slices.Reverse(h) // backend sends newest first
		raw.History = h
		return nil
	})
	g.Go(func() error {
		s, err := p.fetcher.Schedules(ctx)
		if !p.failed("schedules", err) {
			raw.Schedules = s
			p.reportDroppedDays(s)
		}
		return nil
	})
	g.Go(func() error {
		l, err := p.fetcher.Logs(ctx)
		if !p.failed("logs", err) {
			raw.Logs = l
		}
		return nil
	})
	g.Go(func() error {
		w, err := p.fetcher.Weather(ctx)
		if !p.failed("weather", err) {
			raw.Weather = w
		}
		return nil
	})
	g.Go(func() error {
		e, err := p.fetcher.Energy(ctx)
		if !p.failed("energy", err) {
			raw.Energy = e
		}
		return nil
	})
	if withAdmin {
		g.Go(func() error {
			c, err := p.fetcher.SystemLogs(ctx)
			if !p.failed("console", err) {
				raw.Console = c
			}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return
	}

	if snapErr != nil || snapshot == nil {
		if snapErr == nil {
			snapErr = ErrEmptyStatus
		}
		fetchFailures.WithLabelValues("status").Inc()
		pollCycles.WithLabelValues("disconnected").Inc()
		span.RecordError(snapErr)
		span.SetStatus(codes.Error, "status fetch failed")
		if p.log != nil {
			p.log.Warnw("poll_cycle_failed", "error", snapErr)
		}
		p.sink.ApplyFailure(snapErr)
		return
	}

	raw.Snapshot = *snapshot
	span.SetAttributes(
		attribute.Float64("current_temp", snapshot.CurrentTemp),
		attribute.String("safety_status", snapshot.SafetyStatus),
		attribute.Int("schedules", len(raw.Schedules)),
	)
	pollCycles.WithLabelValues("ok").Inc()
	p.sink.ApplyPoll(raw, settings)
}

// failed counts and logs a resource fetch failure.
func (p *Poller) reportDroppedDays(schedules []models.Schedule) {
	if p.log == nil {
		return
	}
	for _, s := range schedules {
		if len(s.DroppedDays) > 0 {
			p.log.Warnw("schedule_days_dropped", "schedule_id", s.ID, "dropped", s.DroppedDays, "days", s.Days.String())
		}
	}
}

func (p *Poller) failed(resource string, err error) bool {
	if err == nil {
		return false
	}
	fetchFailures.WithLabelValues(resource).Inc()
	if p.log != nil {
		p.log.Debugw("fetch_failed", "resource", resource, "error", err)
	}
	return true
}
