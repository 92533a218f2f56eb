// Package watcher turns kdeconnectd bus signals into debounced poll triggers.
package watcher

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/roomtin/hyprconnect/internal/bus"
	"github.com/roomtin/hyprconnect/internal/metrics"
)

const (
	// DebounceWindow suppresses signals arriving this soon after the last accepted one.
	DebounceWindow = 200 * time.Millisecond
	// ResubscribeBackoff is the fixed delay between subscription attempts.
	ResubscribeBackoff = 2 * time.Second
)

type member struct {
	iface string
	name  string
}

var allowed = map[member]bool{
	{"org.kde.kdeconnect.device", "reachableChanged"}:              true,
	{"org.kde.kdeconnect.device", "pairStateChanged"}:              true,
	{"org.kde.kdeconnect.device.battery", "refreshed"}:             true,
	{"org.kde.kdeconnect.device.connectivity_report", "refreshed"}: true,
}

// SignalSource opens a signal stream. The channel closes when the
// subscription is lost.
type SignalSource interface {
	Subscribe(ctx context.Context) (<-chan bus.Signal, error)
}

// Refresher schedules a poll cycle.
type Refresher interface {
	Trigger()
}

// Relevant reports whether sig should invalidate the device cache.
func Relevant(sig bus.Signal) bool {
	if !strings.HasPrefix(sig.Path, bus.DevicesPath+"/") {
		return false
	}
	return allowed[member{sig.Interface, sig.Member}]
}

// Watcher is a supervised subscription loop.
type Watcher struct {
	source    SignalSource
	refresher Refresher
	metrics   metrics.Recorder

	// debounce holds one token that refills DebounceWindow after it is spent,
	// so the window is measured from the last accepted signal.
	debounce *rate.Limiter
	backoff  time.Duration
	attempts int
	now      func() time.Time
}

// New creates a Watcher. rec may be nil.
func New(source SignalSource, refresher Refresher, rec metrics.Recorder) *Watcher {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Watcher{
		source:    source,
		refresher: refresher,
		metrics:   rec,
		debounce:  rate.NewLimiter(rate.Every(DebounceWindow), 1),
		backoff:   ResubscribeBackoff,
		now:       time.Now,
	}
}

// Run subscribes and forwards signals until ctx is cancelled. Subscription
// failures and dropped streams are retried after a fixed backoff.
func (w *Watcher) Run(ctx context.Context) {
	for {
		signals, err := w.source.Subscribe(ctx)
		if err != nil {
			w.attempts++
			log.Warn().Err(err).Int("attempt", w.attempts).Dur("retry_in", w.backoff).Msg("bus subscription failed")
		} else {
			w.attempts = 0
			log.Info().Msg("subscribed to kdeconnect bus signals")
			w.consume(ctx, signals)
			if ctx.Err() != nil {
				return
			}
			log.Warn().Dur("retry_in", w.backoff).Msg("bus signal stream closed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("event watcher shutting down")
			return
		case <-time.After(w.backoff):
			w.metrics.IncWatcherResubscribe()
		}
	}
}

func (w *Watcher) consume(ctx context.Context, signals <-chan bus.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			w.Handle(sig, w.now())
		}
	}
}

// Handle filters and debounces one signal observed at the given time,
// triggering a refresh when it is accepted.
func (w *Watcher) Handle(sig bus.Signal, at time.Time) bool {
	if !Relevant(sig) {
		w.metrics.IncWatcherSignal("filtered")
		return false
	}
	if !w.debounce.AllowN(at, 1) {
		w.metrics.IncWatcherSignal("debounced")
		return false
	}
	w.metrics.IncWatcherSignal("accepted")
	log.Debug().Str("path", sig.Path).Str("member", sig.Member).Msg("device signal; refreshing")
	w.refresher.Trigger()
	return true
}
