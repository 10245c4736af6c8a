package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// fetchTimeout bounds the authoritative re-fetch performed after a stream
// reaches a checkpoint or terminal state.
const fetchTimeout = 30 * time.Second

// ErrWorkflowRunning indicates the backend reported a run already in progress
// (HTTP 409). Callers treat it as "attach", not as a failure.
var ErrWorkflowRunning = errors.New("workflow already running")

// ErrRunInFlight indicates a run request was rejected because a previous run
// request has not been acknowledged yet.
var ErrRunInFlight = errors.New("run request already in flight")

// ErrGmailNotAuthorized indicates Gmail draft creation was requested before
// the user authorized Gmail access.
var ErrGmailNotAuthorized = errors.New("gmail is not authorized")

// EventStream is a cancellable subscription to workflow events. Events are
// delivered in server-send order; the channel closes when the server finishes
// the stream, the transport fails, or Close is called. Err reports the
// transport error, if any, after the channel closes.
type EventStream interface {
	Events() <-chan Event
	Err() error
	Close()
}

// ConfirmRequest is the payload for the campaign confirm endpoint.
type ConfirmRequest struct {
	SelectedContacts  SelectedContacts `json:"selected_contacts,omitempty"`
	CreateGmailDrafts bool             `json:"create_gmail_drafts,omitempty"`
	ScheduleFollowups bool             `json:"schedule_followups,omitempty"`
}

// ConfirmResult is the backend's response to a confirm request.
type ConfirmResult struct {
	GmailDraftsCreated int `json:"gmail_drafts_created,omitempty"`
}

// FeedbackRequest carries free-text feedback tied to a draft scope.
type FeedbackRequest struct {
	Scope string `json:"scope" validate:"required"`
	Text  string `json:"text" validate:"required"`
	Must  bool   `json:"must"`
}

// Validate validates the FeedbackRequest using the validator.
func (r *FeedbackRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Backend is the slice of the API the controller needs. *api.Client satisfies
// it; tests substitute fakes.
type Backend interface {
	Campaign(ctx context.Context, id string) (*Campaign, error)
	StartRun(ctx context.Context, id string, mode RunMode) error
	Confirm(ctx context.Context, id string, req ConfirmRequest) (*ConfirmResult, error)
	Feedback(ctx context.Context, id string, req FeedbackRequest) error
	OpenEvents(ctx context.Context, id string, fromIndex int) (EventStream, error)
	GmailAuthorized(ctx context.Context) (bool, error)
}

// NoticeLevel classifies a user-facing notification.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing notification (rendered as a toast or console line).
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Hooks receives controller output. Either hook may be nil. Hooks are invoked
// without internal locks held, so they may call back into the controller.
type Hooks struct {
	OnState  func(Snapshot)
	OnNotice func(Notice)
}

// Snapshot is a consistent copy of the controller's local view.
type Snapshot struct {
	ID        string
	Job       Job
	State     State
	Running   bool
	Streaming bool
}

// Controller drives one campaign's workflow: it loads persisted state, starts
// or resumes runs, applies stream events through the reducer, and re-fetches
// authoritative state at every checkpoint or error boundary.
type Controller struct {
	backend Backend
	hooks   Hooks

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	id          string
	job         Job
	state       State
	trace       []Event
	cursor      int
	running     bool
	runInFlight bool
	sess        *session
	fetchSeq    uint64
	closed      bool
}

type session struct {
	stream EventStream
	once   sync.Once
}

func (s *session) close() {
	s.once.Do(func() { s.stream.Close() })
}

// NewController creates a controller for one campaign. Call Fetch to load
// state, then Run or the user actions. Close releases the stream and waits
// for in-flight event handling.
func NewController(backend Backend, id string, hooks Hooks) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		backend: backend,
		hooks:   hooks,
		ctx:     ctx,
		cancel:  cancel,
		id:      id,
		state: State{
			Phase:     PhaseIdle,
			Steps:     map[StepName]StepStatus{},
			Artifacts: map[ArtifactKind]json.RawMessage{},
		},
	}
}

// Fetch loads the persisted campaign and replaces the local view. Overlapping
// calls are safe: a stale in-flight response from a superseded fetch is
// silently discarded rather than overwriting newer state. If the fetched state
// shows a step still running and no stream is open, streaming resumes
// automatically from the trace cursor.
func (c *Controller) Fetch(ctx context.Context) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	id := c.id
	c.mu.Unlock()

	camp, err := c.backend.Campaign(ctx, id)

	c.mu.Lock()
	if seq != c.fetchSeq {
		// Superseded by a newer fetch; discard without error.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.notify(NoticeError, "failed to load campaign: "+err.Error())
		return fmt.Errorf("fetch campaign %s: %w", id, err)
	}

	c.job = camp.Job
	st := camp.State.Clone()
	if st.Phase == "" {
		st.Phase = PhaseIdle
	}
	trace := append([]Event(nil), camp.State.Trace...)
	st.Trace = nil
	c.state = st
	c.trace = trace
	// Resume streaming only with events after the server-returned trace.
	c.cursor = len(trace)
	c.running = st.Phase == PhaseRunning
	resume := c.sess == nil && anyStepRunning(st)
	c.mu.Unlock()

	c.emitState()
	if resume {
		c.startStreaming()
	}
	return nil
}

func anyStepRunning(st State) bool {
	for _, s := range st.Steps {
		if s.Status == StepStatusRunning {
			return true
		}
	}
	return false
}

// Run asks the backend to (re)start the workflow, resets the local trace
// buffer and cursor, and opens the event stream. A second Run while the first
// awaits its acknowledgment returns ErrRunInFlight. A backend 409 is treated
// as "already in progress": the controller attaches to the live stream
// instead of failing.
func (c *Controller) Run(ctx context.Context, mode RunMode) error {
	c.mu.Lock()
	if c.runInFlight {
		c.mu.Unlock()
		return ErrRunInFlight
	}
	c.runInFlight = true
	id := c.id
	c.mu.Unlock()

	err := c.backend.StartRun(ctx, id, mode)

	c.mu.Lock()
	c.runInFlight = false
	if err != nil {
		if errors.Is(err, ErrWorkflowRunning) {
			c.running = true
			attach := c.sess == nil
			c.mu.Unlock()
			c.notify(NoticeInfo, "workflow already running, attaching to live progress")
			c.emitState()
			if attach {
				c.startStreaming()
			}
			return nil
		}
		c.mu.Unlock()
		c.notify(NoticeError, "failed to start workflow: "+err.Error())
		return fmt.Errorf("start %s run: %w", mode, err)
	}

	// Explicit restart: reset the trace buffer and cursor, and clear the step
	// records the new run will redo.
	c.trace = nil
	c.cursor = 0
	c.running = true
	st := c.state.Clone()
	st.Phase = PhaseRunning
	switch mode {
	case RunDraftOnly:
		delete(st.Steps, StepDrafts)
		delete(st.Steps, StepSchedule)
		delete(st.Steps, StepGmail)
	default:
		st.Steps = map[StepName]StepStatus{}
		st.Artifacts = map[ArtifactKind]json.RawMessage{}
	}
	c.state = st
	c.mu.Unlock()

	c.emitState()
	c.startStreaming()
	return nil
}

// ConfirmContacts posts the selected-contacts mapping and triggers a
// draft-only run. An empty or inconsistent selection is rejected before any
// network call.
func (c *Controller) ConfirmContacts(ctx context.Context, sel SelectedContacts) error {
	if err := sel.Validate(); err != nil {
		c.notify(NoticeError, err.Error())
		return err
	}

	c.mu.Lock()
	id := c.id
	c.mu.Unlock()

	if _, err := c.backend.Confirm(ctx, id, ConfirmRequest{SelectedContacts: sel}); err != nil {
		c.notify(NoticeError, "failed to confirm contacts: "+err.Error())
		return fmt.Errorf("confirm contacts: %w", err)
	}

	c.mu.Lock()
	c.state.SelectedContacts = sel
	c.mu.Unlock()
	c.emitState()
	c.notify(NoticeSuccess, "contacts confirmed")

	return c.Run(ctx, RunDraftOnly)
}

// Feedback posts free-text feedback for a draft scope and triggers a
// draft-only run.
func (c *Controller) Feedback(ctx context.Context, req FeedbackRequest) error {
	if err := req.Validate(); err != nil {
		c.notify(NoticeError, "feedback needs a scope and text")
		return fmt.Errorf("invalid feedback: %w", err)
	}

	c.mu.Lock()
	id := c.id
	c.mu.Unlock()

	if err := c.backend.Feedback(ctx, id, req); err != nil {
		c.notify(NoticeError, "failed to send feedback: "+err.Error())
		return fmt.Errorf("send feedback: %w", err)
	}
	c.notify(NoticeSuccess, "feedback sent, regenerating drafts")

	return c.Run(ctx, RunDraftOnly)
}

// CreateGmailDrafts asks the backend to create Gmail drafts for the current
// campaign drafts. It short-circuits with ErrGmailNotAuthorized when Gmail is
// not connected, and re-fetches the campaign after a successful creation.
func (c *Controller) CreateGmailDrafts(ctx context.Context) (int, error) {
	authorized, err := c.backend.GmailAuthorized(ctx)
	if err != nil {
		c.notify(NoticeError, "failed to check Gmail status: "+err.Error())
		return 0, fmt.Errorf("gmail status: %w", err)
	}
	if !authorized {
		c.notify(NoticeInfo, "connect Gmail before creating drafts")
		return 0, ErrGmailNotAuthorized
	}

	c.mu.Lock()
	id := c.id
	c.mu.Unlock()

	res, err := c.backend.Confirm(ctx, id, ConfirmRequest{CreateGmailDrafts: true})
	if err != nil {
		c.notify(NoticeError, "failed to create Gmail drafts: "+err.Error())
		return 0, fmt.Errorf("create gmail drafts: %w", err)
	}

	c.notify(NoticeSuccess, fmt.Sprintf("created %d Gmail drafts", res.GmailDraftsCreated))
	if err := c.Fetch(ctx); err != nil {
		return res.GmailDraftsCreated, err
	}
	return res.GmailDraftsCreated, nil
}

// Snapshot returns a consistent copy of the local view, including the trace.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state.Clone()
	st.Trace = append([]Event(nil), c.trace...)
	return Snapshot{
		ID:        c.id,
		Job:       c.job,
		State:     st,
		Running:   c.running,
		Streaming: c.sess != nil,
	}
}

// Close closes any open stream and waits for event handling to finish.
// In-flight fetches are not cancelled; their results are discarded by the
// sequence token.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	c.cancel()
	if sess != nil {
		sess.close()
	}
	c.wg.Wait()
}

// startStreaming opens the event stream at the current trace cursor. Any
// prior stream handle is closed first; the view never multiplexes streams.
func (c *Controller) startStreaming() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.sess != nil {
		c.sess.close()
		c.sess = nil
	}
	id, from := c.id, c.cursor
	c.mu.Unlock()

	stream, err := c.backend.OpenEvents(c.ctx, id, from)
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		c.notify(NoticeError, "failed to open event stream: "+err.Error())
		c.emitState()
		return
	}

	sess := &session{stream: stream}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sess.close()
		return
	}
	c.sess = sess
	c.mu.Unlock()

	c.wg.Add(1)
	go c.consume(sess)
}

// consume applies stream events until a terminal event, stream completion, or
// transport failure.
func (c *Controller) consume(sess *session) {
	defer c.wg.Done()
	for ev := range sess.stream.Events() {
		if c.apply(ev) {
			c.finish(sess, ev, nil)
			return
		}
	}
	c.finish(sess, Event{}, sess.stream.Err())
}

// apply folds one event into the local view and reports whether the event is
// terminal for the stream session. Durable events (those with a timestamp)
// are appended to the trace and advance the cursor; every event, durable or
// ephemeral, goes through the reducer so the UI updates immediately.
func (c *Controller) apply(ev Event) bool {
	c.mu.Lock()
	if ev.Durable() {
		c.trace = append(c.trace, ev)
		c.cursor++
	}
	c.state = Reduce(c.state, ev)
	c.mu.Unlock()
	c.emitState()

	switch ev.Type {
	case EventWaitingUser, EventError, EventStepError, EventWorkflowComplete:
		// At a checkpoint or failure the local patches are no longer trusted;
		// the session ends and an authoritative re-fetch follows.
		return true
	}
	return false
}

// finish tears down a stream session. On clean termination it performs
// exactly one authoritative re-fetch and surfaces an outcome notice; on a
// transport error it only drops the handle; there is no automatic reconnect.
func (c *Controller) finish(sess *session, last Event, transportErr error) {
	c.mu.Lock()
	superseded := c.sess != sess
	if !superseded {
		c.sess = nil
		c.running = false
	}
	closed := c.closed
	c.mu.Unlock()
	sess.close()

	if closed || superseded {
		// A deliberately replaced session must not re-fetch or emit an
		// outcome; its successor owns the view now.
		return
	}
	if transportErr != nil {
		c.notify(NoticeError, "event stream interrupted: "+transportErr.Error())
		c.emitState()
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, fetchTimeout)
	defer cancel()
	_ = c.Fetch(ctx)

	switch last.Type {
	case EventWaitingUser:
		c.notify(NoticeInfo, "workflow paused for your input")
	case EventError, EventStepError:
		msg := last.Message
		if msg == "" {
			msg = "workflow failed"
		}
		c.notify(NoticeError, msg)
	case EventWorkflowComplete:
		c.notify(NoticeSuccess, "workflow complete")
	default:
		c.notify(NoticeSuccess, "workflow finished")
	}
}

func (c *Controller) emitState() {
	if c.hooks.OnState == nil {
		return
	}
	c.hooks.OnState(c.Snapshot())
}

func (c *Controller) notify(level NoticeLevel, msg string) {
	if c.hooks.OnNotice == nil {
		return
	}
	c.hooks.OnNotice(Notice{Level: level, Message: msg})
}
