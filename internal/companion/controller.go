// Package companion holds the dependency context shared by every surface of
// the lab companion: selection, step generation, insights, preferences and
// lab edits, on top of the lab store and the copilot engine.
package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/prasanna12art/skill-boost-automator/internal/advisory"
	"github.com/prasanna12art/skill-boost-automator/internal/copilot"
	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
	"github.com/prasanna12art/skill-boost-automator/internal/privacy"
	"github.com/prasanna12art/skill-boost-automator/internal/store"
)

// InsightsFallback is cached when insight generation fails.
const InsightsFallback = "Could not load insights at this time."

var (
	ErrLabNotFound   = copilot.ErrLabNotFound
	ErrStepNotFound  = errors.New("step not found")
	ErrInvalidStatus = errors.New("invalid lab status")
	ErrInvalidTheme  = errors.New("theme must be light or dark")
	ErrClosed        = errors.New("controller closed")
)

type Controller struct {
	store   *labs.Store
	engine  *copilot.Engine
	advisor advisory.Advisor
	kv      store.KV
	logger  *slog.Logger

	// bgCtx bounds background fetches; Close cancels it.
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
	bgMu     sync.Mutex
	closed   bool

	steps singleflight.Group

	mu          sync.Mutex
	selected    string
	insights    models.InsightsResponse
	insightsGen uint64
	theme       models.Theme
}

func New(st *labs.Store, engine *copilot.Engine, advisor advisory.Advisor, kv store.KV, logger *slog.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:    st,
		engine:   engine,
		advisor:  advisor,
		kv:       kv,
		logger:   logger,
		bgCtx:    ctx,
		bgCancel: cancel,
		insights: models.InsightsResponse{Status: models.InsightNotFetched},
	}
	c.theme = c.loadTheme()
	return c
}

// Close stops background work and every copilot chain.
func (c *Controller) Close() {
	c.bgMu.Lock()
	c.closed = true
	c.bgMu.Unlock()

	c.bgCancel()
	c.bg.Wait()
	c.engine.Shutdown()
}

// --- Lab reads ---

func (c *Controller) Labs() []models.Lab {
	return c.store.All()
}

func (c *Controller) Lab(id string) (models.Lab, bool) {
	return c.store.Get(id)
}

// View returns the filtered, sorted projection of the store.
func (c *Controller) View(q labs.Query) []models.Lab {
	return labs.View(c.store.All(), q)
}

func (c *Controller) Stats() models.StatsResponse {
	return labs.ComputeStats(c.store.All())
}

// --- Selection ---

// Select opens id for detail. An unknown or empty id clears the selection.
// Selecting a lab without steps starts one background step generation.
func (c *Controller) Select(id string) (models.Lab, bool) {
	lab, ok := c.store.Get(id)

	c.mu.Lock()
	if ok {
		c.selected = id
	} else {
		c.selected = ""
	}
	c.mu.Unlock()

	if ok && len(lab.Steps) == 0 {
		c.goBackground(func(ctx context.Context) {
			// Failure is logged by GenerateSteps and leaves the list empty.
			_ = c.GenerateSteps(ctx, id)
		})
	}
	return lab, ok
}

// Selected returns the selected lab, if it still exists.
func (c *Controller) Selected() (models.Lab, bool) {
	c.mu.Lock()
	id := c.selected
	c.mu.Unlock()

	if id == "" {
		return models.Lab{}, false
	}
	return c.store.Get(id)
}

// --- Step generation ---

// GenerateSteps fills an empty step list from the advisor. Concurrent calls
// for the same lab share one request. Labs that already have steps are left
// alone, including when steps appear while the request is in flight.
//
// ctx only bounds the wait. The request itself runs until it settles or the
// controller closes, and its steps are applied even if every caller has gone.
func (c *Controller) GenerateSteps(ctx context.Context, id string) error {
	lab, ok := c.store.Get(id)
	if !ok {
		return ErrLabNotFound
	}
	if len(lab.Steps) > 0 {
		return nil
	}

	ch := c.steps.DoChan(id, func() (any, error) {
		if !c.track() {
			return nil, ErrClosed
		}
		defer c.bg.Done()
		return nil, c.generateSteps(c.bgCtx, lab)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("step generation joined in-flight request", "lab_id", id)
		}
		return res.Err
	case <-ctx.Done():
		c.logger.Debug("caller stopped waiting for step generation", "lab_id", id)
		return ctx.Err()
	}
}

func (c *Controller) generateSteps(ctx context.Context, lab models.Lab) error {
	c.logger.Info("generating steps", "lab_id", lab.ID, "advisor", c.advisor.Name())

	suggestions, err := c.advisor.GenerateSteps(ctx, lab.Title, lab.Description)
	if err != nil {
		c.logger.Error("step generation failed", "lab_id", lab.ID, "error", err)
		return err
	}

	applied := false
	_, found, err := c.store.Modify(lab.ID, func(cur models.Lab) (models.Lab, bool) {
		if len(cur.Steps) > 0 {
			return cur, false
		}
		cur.Steps = make([]models.LabStep, len(suggestions))
		for i, s := range suggestions {
			cur.Steps[i] = models.LabStep{
				ID:           fmt.Sprintf("%s-%d", lab.ID, i+1),
				Title:        s.Title,
				Instructions: s.Instructions,
			}
		}
		applied = len(suggestions) > 0
		return cur, applied
	})
	if !found {
		return ErrLabNotFound
	}
	if err != nil {
		return fmt.Errorf("save generated steps: %w", err)
	}
	if applied {
		c.logger.Info("steps generated", "lab_id", lab.ID, "count", len(suggestions))
	}
	return nil
}

// --- Insights ---

// Insights returns the insight state, starting the single fetch on first use.
func (c *Controller) Insights() models.InsightsResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.insights.Status == models.InsightNotFetched {
		c.startInsightsLocked()
	}
	return c.insights
}

// RefreshInsights drops the cached result, including a cached failure, and
// starts a new fetch.
func (c *Controller) RefreshInsights() models.InsightsResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.insightsGen++
	c.insights = models.InsightsResponse{Status: models.InsightNotFetched}
	c.startInsightsLocked()
	return c.insights
}

func (c *Controller) startInsightsLocked() {
	c.insights = models.InsightsResponse{Status: models.InsightLoading}
	gen := c.insightsGen
	summaries := c.LabSummaries()

	c.goBackground(func(ctx context.Context) {
		md, err := c.advisor.GenerateInsights(ctx, summaries)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.insightsGen {
			return
		}
		if err != nil {
			c.logger.Error("insight generation failed", "error", err)
			c.insights = models.InsightsResponse{Status: models.InsightFailed, Markdown: InsightsFallback}
			return
		}
		c.insights = models.InsightsResponse{Status: models.InsightLoaded, Markdown: md}
	})
}

// LabSummaries reduces every lab to what the advisor may see. Notes are
// redacted, and omitted when nothing but private content remains.
func (c *Controller) LabSummaries() []models.LabSummary {
	all := c.store.All()
	out := make([]models.LabSummary, len(all))
	for i, l := range all {
		s := models.LabSummary{
			Title:         l.Title,
			Status:        l.Status,
			Difficulty:    l.Difficulty,
			GCPServices:   l.GCPServices,
			EstimatedTime: l.EstimatedTime,
		}
		if !privacy.HasOnlyPrivateContent(l.Notes) {
			s.Notes = privacy.RedactNotes(l.Notes)
		}
		out[i] = s
	}
	return out
}

// --- Lab edits ---

// ToggleStep flips the completion flag of one step.
func (c *Controller) ToggleStep(id, stepID string) (models.Lab, error) {
	stepFound := false
	lab, found, err := c.store.Modify(id, func(cur models.Lab) (models.Lab, bool) {
		for i := range cur.Steps {
			if cur.Steps[i].ID == stepID {
				cur.Steps[i].IsCompleted = !cur.Steps[i].IsCompleted
				stepFound = true
				return cur, true
			}
		}
		return cur, false
	})
	switch {
	case !found:
		return models.Lab{}, ErrLabNotFound
	case !stepFound:
		return models.Lab{}, ErrStepNotFound
	}
	return lab, err
}

// UpdateLab sets the learner-controlled fields: status and notes.
func (c *Controller) UpdateLab(id string, req models.UpdateLabRequest) (models.Lab, error) {
	if req.Status != nil && !req.Status.IsValid() {
		return models.Lab{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
	}
	lab, found, err := c.store.Modify(id, func(cur models.Lab) (models.Lab, bool) {
		changed := false
		if req.Status != nil && *req.Status != cur.Status {
			cur.Status = *req.Status
			changed = true
		}
		if req.Notes != nil && *req.Notes != cur.Notes {
			cur.Notes = *req.Notes
			changed = true
		}
		return cur, changed
	})
	if !found {
		return models.Lab{}, ErrLabNotFound
	}
	return lab, err
}

// --- Copilot ---

func (c *Controller) RunCopilot(id string) (models.Lab, error) {
	return c.copilotOp(id, c.engine.Run)
}

func (c *Controller) PauseCopilot(id string) (models.Lab, error) {
	return c.copilotOp(id, c.engine.Pause)
}

func (c *Controller) ResetCopilot(id string) (models.Lab, error) {
	return c.copilotOp(id, c.engine.Reset)
}

func (c *Controller) copilotOp(id string, op func(string) error) (models.Lab, error) {
	if err := op(id); err != nil {
		return models.Lab{}, err
	}
	lab, ok := c.store.Get(id)
	if !ok {
		return models.Lab{}, ErrLabNotFound
	}
	return lab, nil
}

// --- Preferences ---

func (c *Controller) Theme() models.Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

func (c *Controller) SetTheme(t models.Theme) error {
	if !t.IsValid() {
		return ErrInvalidTheme
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setThemeLocked(t)
}

func (c *Controller) ToggleTheme() (models.Theme, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := models.ThemeDark
	if c.theme == models.ThemeDark {
		next = models.ThemeLight
	}
	if err := c.setThemeLocked(next); err != nil {
		return c.theme, err
	}
	return next, nil
}

func (c *Controller) setThemeLocked(t models.Theme) error {
	raw, _ := json.Marshal(t)
	if err := c.kv.Set(store.KeyTheme, raw); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	c.theme = t
	return nil
}

// loadTheme reads the stored preference, stored as a JSON string. Anything
// unreadable falls back to light.
func (c *Controller) loadTheme() models.Theme {
	raw, found, err := c.kv.Get(store.KeyTheme)
	if err != nil {
		c.logger.Warn("load theme", "error", err)
		return models.ThemeLight
	}
	if !found {
		return models.ThemeLight
	}
	var t models.Theme
	if err := json.Unmarshal(raw, &t); err != nil {
		t = models.Theme(raw)
	}
	if !t.IsValid() {
		return models.ThemeLight
	}
	return t
}

// track registers one unit of background work. It refuses once Close has
// started, so no Add races the final Wait.
func (c *Controller) track() bool {
	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	if c.closed {
		return false
	}
	c.bg.Add(1)
	return true
}

func (c *Controller) goBackground(fn func(ctx context.Context)) {
	if !c.track() {
		return
	}
	go func() {
		defer c.bg.Done()
		fn(c.bgCtx)
	}()
}
