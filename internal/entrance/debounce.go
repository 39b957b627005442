package entrance

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounceWindow is the minimum spacing between two accepted
// arrivals from the same owner.
const DefaultDebounceWindow = 30 * time.Second

type arrivalRecord struct {
	owner string
	at    time.Time
}

// Debouncer suppresses repeated arrivals from the same owner. It remembers
// only the most recent accepted arrival.
type Debouncer struct {
	window time.Duration
	clock  Clock
	log    *zap.Logger

	mu   sync.Mutex
	last *arrivalRecord
}

// NewDebouncer creates a debouncer with the given window.
func NewDebouncer(window time.Duration, clock Clock, log *zap.Logger) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Debouncer{window: window, clock: clock, log: log.Named("debounce")}
}

// Accept reports whether an arrival by owner should produce a request.
func (d *Debouncer) Accept(owner string) bool {
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.last == nil || d.last.owner != owner {
		d.last = &arrivalRecord{owner: owner, at: now}
		return true
	}

	elapsed := now.Sub(d.last.at)
	if elapsed < d.window {
		d.log.Debug("suppressing repeat arrival",
			zap.String("owner", owner),
			zap.Duration("elapsed", elapsed),
			zap.Duration("window", d.window))
		return false
	}

	d.last.at = now
	return true
}
