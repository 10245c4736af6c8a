package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// refreshReloadTimeout bounds the feed reload performed after a refresh ends.
const refreshReloadTimeout = 30 * time.Second

// ErrRefreshRunning indicates the backend reported a refresh already in
// progress (HTTP 409). The controller attaches to the existing stream instead
// of treating it as a failure.
var ErrRefreshRunning = errors.New("refresh already running")

// ProgressStream is a cancellable subscription to refresh progress events.
type ProgressStream interface {
	Events() <-chan RefreshEvent
	Err() error
	Close()
}

// Backend is the slice of the API the refresh controller needs.
type Backend interface {
	Feed(ctx context.Context, q FeedQuery) (*FeedPage, error)
	StartRefresh(ctx context.Context) error
	RefreshStatus(ctx context.Context) (*RefreshState, error)
	OpenRefreshEvents(ctx context.Context) (ProgressStream, error)
}

// RefreshHooks receives controller output; any hook may be nil.
type RefreshHooks struct {
	// OnState fires after every state change.
	OnState func(RefreshState)
	// OnFeed fires with the reloaded first feed page after a refresh ends.
	OnFeed func(*FeedPage)
	// OnNotice fires for user-facing messages; level is info, success or
	// error.
	OnNotice func(level, message string)
}

// RefreshController drives one board-refresh operation: start (or attach),
// apply streamed progress to the local state, and reload the first feed page
// when the refresh reaches a terminal state.
type RefreshController struct {
	backend Backend
	hooks   RefreshHooks
	query   FeedQuery

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	state  RefreshState
	sess   ProgressStream
	closed bool
}

// NewRefreshController creates a controller. The query's filters and page
// size are reused for the post-refresh feed reload.
func NewRefreshController(backend Backend, query FeedQuery, hooks RefreshHooks) *RefreshController {
	ctx, cancel := context.WithCancel(context.Background())
	return &RefreshController{
		backend: backend,
		hooks:   hooks,
		query:   query,
		ctx:     ctx,
		cancel:  cancel,
		state:   RefreshState{Status: RefreshIdle},
	}
}

// State returns a copy of the current refresh state.
func (r *RefreshController) State() RefreshState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start asks the backend to begin a refresh and subscribes to its progress.
// A 409 means another refresh is already running; the controller attaches to
// that stream rather than erroring.
func (r *RefreshController) Start(ctx context.Context) error {
	err := r.backend.StartRefresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRefreshRunning):
		r.notify("info", "refresh already in progress, attaching to it")
	default:
		r.setStatus(RefreshError)
		r.notify("error", "failed to start refresh: "+err.Error())
		return fmt.Errorf("start refresh: %w", err)
	}

	r.setStatus(RefreshRunning)
	return r.attach()
}

// Attach subscribes to an already-running refresh without starting one, e.g.
// when the status endpoint reports running on view load.
func (r *RefreshController) Attach() error {
	r.setStatus(RefreshRunning)
	return r.attach()
}

func (r *RefreshController) attach() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	if r.sess != nil {
		r.sess.Close()
		r.sess = nil
	}
	r.mu.Unlock()

	stream, err := r.backend.OpenRefreshEvents(r.ctx)
	if err != nil {
		r.setStatus(RefreshError)
		r.notify("error", "failed to open refresh stream: "+err.Error())
		return fmt.Errorf("open refresh stream: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		stream.Close()
		return nil
	}
	r.sess = stream
	r.mu.Unlock()

	r.wg.Add(1)
	go r.consume(stream)
	return nil
}

// Close drops the stream and waits for event handling to finish.
func (r *RefreshController) Close() {
	r.mu.Lock()
	r.closed = true
	sess := r.sess
	r.sess = nil
	r.mu.Unlock()

	r.cancel()
	if sess != nil {
		sess.Close()
	}
	r.wg.Wait()
}

func (r *RefreshController) consume(stream ProgressStream) {
	defer r.wg.Done()

	for ev := range stream.Events() {
		r.mu.Lock()
		if ev.Terminal() {
			if ev.Failed() {
				r.state.Status = RefreshError
			} else {
				r.state.Status = RefreshCompleted
			}
		} else {
			r.state.Status = RefreshRunning
		}
		mergeProgress(&r.state.Progress, ev.RefreshProgress)
		r.mu.Unlock()
		r.emitState()

		if ev.Terminal() {
			r.finish(stream, ev.Failed(), nil)
			return
		}
	}
	r.finish(stream, false, stream.Err())
}

func (r *RefreshController) finish(stream ProgressStream, failed bool, transportErr error) {
	r.mu.Lock()
	if r.sess == stream {
		r.sess = nil
	}
	closed := r.closed
	r.mu.Unlock()
	stream.Close()

	if closed {
		return
	}
	if transportErr != nil {
		r.setStatus(RefreshError)
		r.notify("error", "refresh stream interrupted: "+transportErr.Error())
		return
	}

	if failed {
		r.notify("error", "job refresh failed")
	} else {
		found := r.State().Progress.JobsFound
		r.notify("success", fmt.Sprintf("job refresh complete, %d jobs found", found))
	}

	// Reload the first feed page so the view shows the fresh listings.
	ctx, cancel := context.WithTimeout(r.ctx, refreshReloadTimeout)
	defer cancel()
	page, err := r.backend.Feed(ctx, r.query.FirstPage())
	if err != nil {
		r.notify("error", "failed to reload job feed: "+err.Error())
		return
	}
	if r.hooks.OnFeed != nil {
		r.hooks.OnFeed(page)
	}
}

// mergeProgress keeps the last non-zero value per field, since the backend
// omits unchanged fields on incremental events.
func mergeProgress(dst *RefreshProgress, src RefreshProgress) {
	if src.Phase != "" {
		dst.Phase = src.Phase
	}
	if src.Message != "" {
		dst.Message = src.Message
	}
	if src.Current != 0 {
		dst.Current = src.Current
	}
	if src.Total != 0 {
		dst.Total = src.Total
	}
	if src.JobsFound != 0 {
		dst.JobsFound = src.JobsFound
	}
	if len(src.Errors) > 0 {
		dst.Errors = src.Errors
	}
}

func (r *RefreshController) setStatus(status string) {
	r.mu.Lock()
	r.state.Status = status
	r.mu.Unlock()
	r.emitState()
}

func (r *RefreshController) emitState() {
	if r.hooks.OnState == nil {
		return
	}
	r.hooks.OnState(r.State())
}

func (r *RefreshController) notify(level, message string) {
	if r.hooks.OnNotice == nil {
		return
	}
	r.hooks.OnNotice(level, message)
}
