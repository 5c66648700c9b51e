package copilot

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

var (
	ErrLabNotFound      = errors.New("lab not found")
	ErrSessionCompleted = errors.New("copilot session already completed; reset it first")
	ErrEngineClosed     = errors.New("copilot engine shut down")
)

const completionLog = "Simulation completed successfully."

// Options controls tick pacing.
type Options struct {
	StartDelay   time.Duration
	StepInterval time.Duration
}

// DefaultOptions returns the standard pacing: first step after 500ms, then one
// step every 1.5s.
func DefaultOptions() Options {
	return Options{StartDelay: 500 * time.Millisecond, StepInterval: 1500 * time.Millisecond}
}

// chain is the single live tick chain of one lab.
type chain struct {
	gen  uint64
	task Task
}

// Engine drives the per-lab copilot state machine. Each lab has at most one
// live scheduled tick; every tick carries the generation of the chain that
// scheduled it and is discarded if that chain has since been cancelled.
//
// Lock order is Engine.mu, then the store lock (via Store.Modify).
type Engine struct {
	store  *labs.Store
	sched  Scheduler
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	chains map[string]*chain
	gen    uint64
	closed bool
}

func NewEngine(store *labs.Store, sched Scheduler, opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		sched:  sched,
		opts:   opts,
		logger: logger,
		chains: make(map[string]*chain),
	}
}

// Recover pauses sessions persisted as Running by a previous process, since
// their timers did not survive. It returns the ids it paused.
func (e *Engine) Recover() []string {
	var paused []string
	for _, l := range e.store.All() {
		if l.CopilotSession.Status != models.CopilotRunning {
			continue
		}
		changed := false
		_, _, err := e.store.Modify(l.ID, func(cur models.Lab) (models.Lab, bool) {
			if cur.CopilotSession.Status != models.CopilotRunning {
				return cur, false
			}
			cur.CopilotSession.Status = models.CopilotPaused
			changed = true
			return cur, true
		})
		if err != nil {
			e.logger.Warn("recover copilot session", "lab_id", l.ID, "error", err)
			continue
		}
		if changed {
			paused = append(paused, l.ID)
		}
	}
	if len(paused) > 0 {
		e.logger.Info("paused interrupted copilot sessions", "lab_ids", paused)
	}
	return paused
}

// Run starts or resumes the walkthrough for id. It is a no-op while a chain
// for id is already live.
func (e *Engine) Run(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	lab, ok := e.store.Get(id)
	if !ok {
		return ErrLabNotFound
	}
	switch lab.CopilotSession.Status {
	case models.CopilotCompleted:
		return ErrSessionCompleted
	case models.CopilotRunning:
		if _, live := e.chains[id]; live {
			return nil
		}
	}

	e.cancelLocked(id)

	_, found, err := e.store.Modify(id, func(cur models.Lab) (models.Lab, bool) {
		cur.CopilotSession.Status = models.CopilotRunning
		return cur, true
	})
	if !found {
		return ErrLabNotFound
	}
	if err != nil {
		return fmt.Errorf("start copilot: %w", err)
	}

	e.gen++
	c := &chain{gen: e.gen}
	e.chains[id] = c
	c.task = e.sched.Schedule(e.opts.StartDelay, e.tickFunc(id, c.gen))

	e.logger.Info("copilot started", "lab_id", id, "step_index", lab.CopilotSession.CurrentStepIndex)
	return nil
}

// Pause cancels the pending tick and moves a Running session to Paused. Any
// other status is left untouched.
func (e *Engine) Pause(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelLocked(id)

	_, found, err := e.store.Modify(id, func(cur models.Lab) (models.Lab, bool) {
		if cur.CopilotSession.Status != models.CopilotRunning {
			return cur, false
		}
		cur.CopilotSession.Status = models.CopilotPaused
		return cur, true
	})
	if !found {
		return ErrLabNotFound
	}
	if err != nil {
		return fmt.Errorf("pause copilot: %w", err)
	}
	return nil
}

// Reset cancels the pending tick and returns the session to Idle with every
// step incomplete.
func (e *Engine) Reset(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelLocked(id)

	_, found, err := e.store.Modify(id, func(cur models.Lab) (models.Lab, bool) {
		cur.CopilotSession = models.IdleSession()
		for i := range cur.Steps {
			cur.Steps[i].IsCompleted = false
		}
		return cur, true
	})
	if !found {
		return ErrLabNotFound
	}
	if err != nil {
		return fmt.Errorf("reset copilot: %w", err)
	}
	return nil
}

// Fail cancels the pending tick and moves the session to Error, recording
// reason in the log. Run resumes an errored session.
func (e *Engine) Fail(id, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelLocked(id)
	return e.failLocked(id, reason)
}

func (e *Engine) failLocked(id, reason string) error {
	_, found, err := e.store.Modify(id, func(cur models.Lab) (models.Lab, bool) {
		cur.CopilotSession.Status = models.CopilotError
		cur.CopilotSession.Logs = append(cur.CopilotSession.Logs, "Error: "+reason)
		return cur, true
	})
	if !found {
		return ErrLabNotFound
	}
	return err
}

// Shutdown cancels every live chain. Ticks already in flight are discarded.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id := range e.chains {
		e.cancelLocked(id)
	}
	e.closed = true
}

// Active reports whether a tick chain is live for id.
func (e *Engine) Active(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.chains[id]
	return ok
}

func (e *Engine) cancelLocked(id string) {
	if c, ok := e.chains[id]; ok {
		if c.task != nil {
			c.task.Cancel()
		}
		delete(e.chains, id)
	}
}

func (e *Engine) tickFunc(id string, gen uint64) func() {
	return func() { e.tick(id, gen) }
}

func (e *Engine) tick(id string, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.chains[id]
	if e.closed || !ok || c.gen != gen {
		return
	}

	var (
		done bool
		step int
	)
	_, found, err := e.store.Modify(id, func(cur models.Lab) (models.Lab, bool) {
		s := &cur.CopilotSession
		if s.Status != models.CopilotRunning {
			done = true
			return cur, false
		}
		if s.CurrentStepIndex >= len(cur.Steps) {
			s.Logs = append(s.Logs, completionLog)
			s.Status = models.CopilotCompleted
			done = true
			return cur, true
		}
		step = s.CurrentStepIndex
		cur.Steps[step].IsCompleted = true
		s.Logs = append(s.Logs, fmt.Sprintf("Executing step %d: %s...", step+1, cur.Steps[step].Title))
		s.CurrentStepIndex++
		return cur, true
	})

	switch {
	case !found:
		delete(e.chains, id)
		return
	case err != nil:
		e.logger.Error("copilot tick failed", "lab_id", id, "error", err)
		delete(e.chains, id)
		if ferr := e.failLocked(id, err.Error()); ferr != nil {
			e.logger.Error("mark copilot errored", "lab_id", id, "error", ferr)
		}
		return
	case done:
		delete(e.chains, id)
		e.logger.Debug("copilot chain finished", "lab_id", id)
		return
	}

	e.logger.Debug("copilot step executed", "lab_id", id, "step", step+1)
	c.task = e.sched.Schedule(e.opts.StepInterval, e.tickFunc(id, gen))
}
