// Package daemon assembles the entrance pipeline: capture feeds the
// arrival handler, which queues requests for the single playback worker.
package daemon

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/arrival"
	"github.com/tessro/entrance/internal/capture"
	"github.com/tessro/entrance/internal/config"
	"github.com/tessro/entrance/internal/core"
	"github.com/tessro/entrance/internal/entrance"
	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/metrics"
)

// Deps are the collaborators the daemon is built from. Session and Store
// are required.
type Deps struct {
	Config    *config.Config
	Session   core.Session
	Store     arrival.DeviceStore
	Source    capture.Source
	Announcer entrance.Announcer
	Metrics   *metrics.Metrics
	Clock     entrance.Clock
	Rand      *rand.Rand
	Logger    *zap.Logger

	// Extra modules run alongside capture and the worker, such as the
	// embedded broker or the metrics listener.
	Extra []Module
}

// Daemon is a wired entrance pipeline.
type Daemon struct {
	queue   *entrance.Queue
	handler *arrival.Handler
	worker  *entrance.Worker
	source  capture.Source
	extra   []Module
	log     *zap.Logger
}

// New wires the pipeline from deps.
func New(deps Deps) *Daemon {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = entrance.RealClock()
	}

	queue := entrance.NewQueue(deps.Metrics)
	fader := entrance.NewFader(deps.Session, clock, cfg.Playback.FadeStep, cfg.Playback.FadeInterval, log)
	snapshots := entrance.NewSnapshotter(deps.Session, fader, clock, cfg.Playback.SettleDelay, deps.Metrics, log)
	runner := entrance.NewRunner(deps.Session, fader, clock, cfg.Playback.Volume, log)

	worker := entrance.NewWorker(entrance.WorkerConfig{
		Queue:     queue,
		Snapshots: snapshots,
		Runner:    runner,
		Announcer: deps.Announcer,
		Clock:     clock,
		Metrics:   deps.Metrics,
		Logger:    log,
	})

	handler := arrival.NewHandler(arrival.Config{
		Store:       deps.Store,
		Debouncer:   entrance.NewDebouncer(cfg.Arrival.Debounce, clock, log),
		Searcher:    deps.Session,
		Queue:       queue,
		VirtualMAC:  cfg.Arrival.VirtualMAC,
		SearchLimit: cfg.Playback.SearchLimit,
		Rand:        deps.Rand,
		Clock:       clock,
		Metrics:     deps.Metrics,
		Logger:      log,
	})

	return &Daemon{
		queue:   queue,
		handler: handler,
		worker:  worker,
		source:  deps.Source,
		extra:   deps.Extra,
		log:     log,
	}
}

// Handler exposes the arrival handler, for callers that feed events
// themselves.
func (d *Daemon) Handler() *arrival.Handler {
	return d.handler
}

// Modules lists everything Run supervises.
func (d *Daemon) Modules() []Module {
	modules := []Module{{Name: "worker", Run: d.worker.Run}}
	if d.source != nil {
		modules = append(modules, Module{Name: "capture", Run: func(ctx context.Context) error {
			return d.source.Run(ctx, d.handler.Handle)
		}})
	}
	return append(modules, d.extra...)
}

// Run blocks until ctx is cancelled or a module fails.
func (d *Daemon) Run(ctx context.Context) error {
	return Supervisor{Logger: d.log}.Run(ctx, d.Modules())
}

// DeviceLister lists playback devices.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]core.Device, error)
}

// VerifyDevice checks that id names an available playback device. An
// empty id means the active device and is not checked.
func VerifyDevice(ctx context.Context, lister DeviceLister, id string) (*core.Device, error) {
	if id == "" {
		return nil, nil
	}
	devices, err := lister.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	dev := core.FindDevice(devices, id)
	if dev == nil {
		return nil, fmt.Errorf("%w: %s", entErrors.ErrDeviceNotFound, id)
	}
	return dev, nil
}
