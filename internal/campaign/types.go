// Package campaign implements the client-side controller for the multi-step
// outreach workflow: contact research, evidence building, draft generation,
// follow-up scheduling and Gmail draft creation. The backend executes the
// workflow; this package keeps a local view of it synchronized over an event
// stream and re-fetches authoritative state at every checkpoint.
package campaign

import "encoding/json"

// Phase is the lifecycle of the whole workflow.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseRunning     Phase = "running"
	PhaseWaitingUser Phase = "waiting_user"
	PhaseDone        Phase = "done"
	PhaseError       Phase = "error"
)

// StepName identifies one workflow step.
type StepName string

const (
	StepResearch StepName = "research"
	StepEvidence StepName = "evidence"
	StepDrafts   StepName = "drafts"
	StepSchedule StepName = "schedule"
	StepGmail    StepName = "gmail"
)

// AllSteps lists the workflow steps in execution order.
func AllSteps() []StepName {
	return []StepName{StepResearch, StepEvidence, StepDrafts, StepSchedule, StepGmail}
}

// StepResult is the status of a single step. A step absent from the steps map
// is queued.
type StepResult string

const (
	StepStatusRunning StepResult = "running"
	StepStatusDone    StepResult = "done"
	StepStatusError   StepResult = "error"
)

// StepStatus is the per-step record stored in State.Steps.
type StepStatus struct {
	Status StepResult `json:"status"`
}

// ArtifactKind names a payload produced by a workflow step.
type ArtifactKind string

const (
	ArtifactContacts     ArtifactKind = "contacts"
	ArtifactEvidencePack ArtifactKind = "evidence_pack"
	ArtifactDrafts       ArtifactKind = "drafts"
	ArtifactFollowups    ArtifactKind = "followups"
)

// RunMode selects which steps a (re)start executes.
type RunMode string

const (
	// RunFull executes every step from the beginning.
	RunFull RunMode = "full"
	// RunDraftOnly regenerates drafts after contact confirmation or feedback.
	RunDraftOnly RunMode = "draft_only"
)

// Event is a single workflow event from the backend stream. Events carrying a
// timestamp are durable trace entries; events without one (e.g. waiting_user)
// are ephemeral signals.
type Event struct {
	Type         string          `json:"type"`
	Step         StepName        `json:"step,omitempty"`
	ArtifactType ArtifactKind    `json:"artifact_type,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Message      string          `json:"message,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
}

// Event types understood by the reducer. Unrecognized types are ignored for
// forward compatibility.
const (
	EventWorkflowStart    = "workflow_start"
	EventStepStart        = "step_start"
	EventStepDone         = "step_done"
	EventStepError        = "step_error"
	EventArtifact         = "artifact"
	EventWaitingUser      = "waiting_user"
	EventWorkflowComplete = "workflow_complete"
	EventError            = "error"
)

// Durable reports whether the event is part of the persisted trace.
func (e Event) Durable() bool {
	return e.Timestamp != ""
}

// State is the campaign's workflow state as seen by the client.
type State struct {
	Phase            Phase                           `json:"phase"`
	Steps            map[StepName]StepStatus         `json:"steps"`
	Artifacts        map[ArtifactKind]json.RawMessage `json:"artifacts"`
	SelectedContacts SelectedContacts                `json:"selected_contacts,omitempty"`
	Trace            []Event                         `json:"trace,omitempty"`
}

// Clone returns a copy of the state with fresh step and artifact maps, so a
// reducer patch never mutates the input.
func (s State) Clone() State {
	out := s
	out.Steps = make(map[StepName]StepStatus, len(s.Steps))
	for k, v := range s.Steps {
		out.Steps[k] = v
	}
	out.Artifacts = make(map[ArtifactKind]json.RawMessage, len(s.Artifacts))
	for k, v := range s.Artifacts {
		out.Artifacts[k] = v
	}
	return out
}

// StepStatusOf returns the status of a step, or "" when the step is queued.
func (s State) StepStatusOf(name StepName) StepResult {
	return s.Steps[name].Status
}

// Job is the posting a campaign targets.
type Job struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location,omitempty"`
}

// Campaign is the persisted campaign record returned by the backend.
type Campaign struct {
	ID    string `json:"id"`
	Job   Job    `json:"job"`
	State State  `json:"state"`
}
