package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Module is one long-running part of the daemon.
type Module struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor runs modules side by side. The first module to fail stops
// the rest.
type Supervisor struct {
	Logger *zap.Logger
}

// Run starts all modules and waits for them. It returns the first module
// error, or nil once ctx is cancelled and every module has returned.
func (s Supervisor) Run(ctx context.Context, modules []Module) error {
	if len(modules) == 0 {
		return errors.New("no modules to run")
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(modules))

	for _, m := range modules {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mlog := log.With(zap.String("module", m.Name))
			mlog.Debug("starting module")
			if err := m.Run(ctx); err != nil {
				mlog.Error("module exited", zap.Error(err))
				errCh <- fmt.Errorf("%s: %w", m.Name, err)
				return
			}
			mlog.Debug("module stopped")
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
	}
	cancel()
	wg.Wait()
	return err
}
