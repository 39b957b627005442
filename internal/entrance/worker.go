package entrance

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/metrics"
)

// Worker is the single consumer of the entrance queue. It serves one
// request at a time: save the session, play the song, restore the session.
type Worker struct {
	queue     *Queue
	snapshots *Snapshotter
	runner    *Runner
	announcer Announcer
	clock     Clock
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// WorkerConfig wires a Worker.
type WorkerConfig struct {
	Queue     *Queue
	Snapshots *Snapshotter
	Runner    *Runner
	Announcer Announcer
	Clock     Clock
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewWorker creates a worker.
func NewWorker(cfg WorkerConfig) *Worker {
	w := &Worker{
		queue:     cfg.Queue,
		snapshots: cfg.Snapshots,
		runner:    cfg.Runner,
		announcer: cfg.Announcer,
		clock:     cfg.Clock,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
	}
	if w.announcer == nil {
		w.announcer = NopAnnouncer{}
	}
	if w.clock == nil {
		w.clock = RealClock()
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	w.log = w.log.Named("worker")
	return w
}

// Run serves requests until ctx is cancelled. A failed request is logged
// and never stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("waiting for entrances")
	for {
		req, err := w.queue.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		w.serve(ctx, req)
	}
}

func (w *Worker) serve(ctx context.Context, req Request) {
	log := w.log.With(zap.String("request", req.ID), zap.String("owner", req.Owner))
	log.Info("serving entrance",
		zap.String("title", req.Title),
		zap.String("artist", req.Artist),
		zap.Duration("queued", w.clock.Now().Sub(req.EnqueuedAt)))

	snap, err := w.snapshots.Save(ctx)
	if err != nil {
		log.Error("saving playback failed, skipping entrance", zap.Error(err))
		w.metrics.Playback(err)
		if snap != nil {
			if err := w.snapshots.Restore(ctx, snap); err != nil {
				log.Error("restoring playback failed", zap.Error(err))
			}
		}
		return
	}

	handle := w.runner.Play(ctx, req)

	if err := w.announcer.Announce(ctx, Announcement{
		ID:     req.ID,
		Owner:  req.Owner,
		Device: req.Device,
		Title:  req.Title,
		Artist: req.Artist,
		URI:    req.TrackURI,
		At:     w.clock.Now(),
	}); err != nil {
		log.Warn("announce failed", zap.Error(err))
	}

	err = handle.Wait(ctx)
	w.metrics.Playback(err)
	if err != nil {
		log.Error("entrance playback failed", zap.Error(err))
	}

	// A failed restore leaves the entrance song as the session's last state
	// until the next request.
	if err := w.snapshots.Restore(ctx, snap); err != nil {
		log.Error("restoring playback failed", zap.Error(err))
		return
	}
	log.Info("entrance finished")
}
