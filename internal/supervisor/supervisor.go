// Package supervisor implements the Process Supervisor (C8): signal
// handling and fatal-error shutdown, grounded in
// examples/agent-with-resilience/main.go and examples/basic-agent/main.go's
// signal.Notify + context-cancellation pattern, per spec.md §4.8.
package supervisor

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/procerr"
)

// ExitFunc is called with the process exit code. Tests substitute a
// recording stub; production wires os.Exit.
type ExitFunc func(code int)

// Supervisor owns the root cancellation context and ensures shutdown runs
// at most once, whether triggered by a signal, a fatal error, or an
// explicit caller-initiated stop.
type Supervisor struct {
	logger   logging.Logger
	exit     ExitFunc
	shutdown func()

	once sync.Once
	ctx  context.Context
	stop context.CancelFunc
}

// New builds a Supervisor. shutdown is called exactly once, before exit,
// to let the transport close cleanly; it may be nil.
func New(logger logging.Logger, shutdown func(), exit ExitFunc) *Supervisor {
	if logger == nil {
		logger = logging.NoOp()
	}
	if exit == nil {
		exit = os.Exit
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Supervisor{logger: logger, exit: exit, shutdown: shutdown, ctx: ctx, stop: stop}
}

// Context returns the root context, cancelled once shutdown begins.
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// Watch installs SIGTERM/SIGINT handlers and returns immediately; the
// handlers run in a background goroutine for the life of the process.
func (s *Supervisor) Watch() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, os.Interrupt)
	go func() {
		sig := <-sigChan
		s.logger.Info("received shutdown signal", logging.Fields{"signal": sig.String()})
		s.GracefulShutdown(0)
	}()
}

// GracefulShutdown marks the process as shutting down, closes the
// transport, and exits with code. Re-entrant calls after the first are
// ignored, satisfying the idempotent-shutdown requirement.
func (s *Supervisor) GracefulShutdown(code int) {
	s.once.Do(func() {
		s.stop()
		if s.shutdown != nil {
			s.shutdown()
		}
		s.exit(code)
	})
}

// Recover must be deferred at the top of main. An uncaught panic is
// classified via procerr and logged, and the process exits with code 1 per spec — the
// process is in an indeterminate state after such an event and must not
// continue serving.
func (s *Supervisor) Recover() {
	if r := recover(); r != nil {
		s.logger.Error("uncaught panic, shutting down", logging.Fields{"panic": r, "kind": string(procerr.Classify(r).Kind)})
		s.GracefulShutdown(1)
	}
}
