package campaign

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdleState() State {
	return State{
		Phase:     PhaseIdle,
		Steps:     map[StepName]StepStatus{},
		Artifacts: map[ArtifactKind]json.RawMessage{},
	}
}

func TestReduce_WorkflowStart(t *testing.T) {
	out := Reduce(newIdleState(), Event{Type: EventWorkflowStart})
	assert.Equal(t, PhaseRunning, out.Phase)
}

func TestReduce_StepStart(t *testing.T) {
	out := Reduce(newIdleState(), Event{Type: EventStepStart, Step: StepResearch})
	assert.Equal(t, StepStatusRunning, out.StepStatusOf(StepResearch))
	assert.Equal(t, PhaseRunning, out.Phase)
}

func TestReduce_StepStartKeepsNonIdlePhase(t *testing.T) {
	start := newIdleState()
	start.Phase = PhaseWaitingUser
	out := Reduce(start, Event{Type: EventStepStart, Step: StepDrafts})
	assert.Equal(t, PhaseWaitingUser, out.Phase)
}

func TestReduce_StepDoneDraftsFoldsSchedule(t *testing.T) {
	// Completing drafts also completes schedule: the backend folds follow-up
	// scheduling into draft generation.
	out := Reduce(newIdleState(), Event{Type: EventStepDone, Step: StepDrafts})
	assert.Equal(t, StepStatusDone, out.StepStatusOf(StepDrafts))
	assert.Equal(t, StepStatusDone, out.StepStatusOf(StepSchedule))
}

func TestReduce_StepError(t *testing.T) {
	out := Reduce(newIdleState(), Event{Type: EventStepError, Step: StepEvidence})
	assert.Equal(t, StepStatusError, out.StepStatusOf(StepEvidence))
	assert.Equal(t, PhaseError, out.Phase)
}

func TestReduce_ArtifactReplacesNotMerges(t *testing.T) {
	start := newIdleState()
	start.Artifacts[ArtifactDrafts] = json.RawMessage(`{"old":true}`)
	out := Reduce(start, Event{
		Type:         EventArtifact,
		ArtifactType: ArtifactDrafts,
		Data:         json.RawMessage(`{"new":true}`),
	})
	assert.JSONEq(t, `{"new":true}`, string(out.Artifacts[ArtifactDrafts]))
}

func TestReduce_WorkflowComplete(t *testing.T) {
	running := newIdleState()
	running.Phase = PhaseRunning
	out := Reduce(running, Event{Type: EventWorkflowComplete})
	// A completed workflow still awaiting a user action is waiting_user.
	assert.Equal(t, PhaseWaitingUser, out.Phase)

	errored := newIdleState()
	errored.Phase = PhaseError
	out = Reduce(errored, Event{Type: EventWorkflowComplete})
	assert.Equal(t, PhaseError, out.Phase)
}

func TestReduce_UnrecognizedEventIsNoOp(t *testing.T) {
	start := newIdleState()
	start.Phase = PhaseRunning
	start.Steps[StepResearch] = StepStatus{Status: StepStatusDone}
	out := Reduce(start, Event{Type: "shiny_new_event"})
	assert.Equal(t, start.Phase, out.Phase)
	assert.Equal(t, start.Steps, out.Steps)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	start := newIdleState()
	_ = Reduce(start, Event{Type: EventStepStart, Step: StepResearch})
	assert.Empty(t, start.Steps)
	assert.Equal(t, PhaseIdle, start.Phase)
}

func TestReduce_Idempotent(t *testing.T) {
	// Applying the same well-formed sequence to the same starting state twice
	// yields identical results.
	events := []Event{
		{Type: EventWorkflowStart},
		{Type: EventStepStart, Step: StepResearch},
		{Type: EventStepDone, Step: StepResearch},
		{Type: EventArtifact, ArtifactType: ArtifactContacts, Data: json.RawMessage(`[{"name":"Ada"}]`)},
		{Type: EventStepStart, Step: StepEvidence},
		{Type: EventStepDone, Step: StepEvidence},
		{Type: EventStepStart, Step: StepDrafts},
		{Type: EventStepDone, Step: StepDrafts},
		{Type: EventWaitingUser},
	}

	apply := func() State {
		st := newIdleState()
		for _, ev := range events {
			st = Reduce(st, ev)
		}
		return st
	}

	first := apply()
	second := apply()
	require.Equal(t, first.Phase, second.Phase)
	require.Equal(t, first.Steps, second.Steps)
	require.Equal(t, first.Artifacts, second.Artifacts)
}

func TestReduce_FullRunScenario(t *testing.T) {
	// A full run that completes drafts marks schedule done even though no
	// explicit step_done(schedule) event was sent.
	events := []Event{
		{Type: EventWorkflowStart},
		{Type: EventStepStart, Step: StepResearch},
		{Type: EventStepDone, Step: StepResearch},
		{Type: EventStepStart, Step: StepEvidence},
		{Type: EventStepDone, Step: StepEvidence},
		{Type: EventStepStart, Step: StepDrafts},
		{Type: EventStepDone, Step: StepDrafts},
	}

	st := newIdleState()
	for _, ev := range events {
		st = Reduce(st, ev)
	}

	assert.Equal(t, StepStatusDone, st.StepStatusOf(StepResearch))
	assert.Equal(t, StepStatusDone, st.StepStatusOf(StepEvidence))
	assert.Equal(t, StepStatusDone, st.StepStatusOf(StepDrafts))
	assert.Equal(t, StepStatusDone, st.StepStatusOf(StepSchedule))
}
