package campaign

// Reduce applies one stream event to a campaign state and returns the patched
// state. The input is never mutated, so applying the same events to the same
// starting state always yields the same result regardless of sharing.
//
// A step's status never regresses to queued here; only an explicit restart
// (Controller.Run) resets the local view.
func Reduce(s State, ev Event) State {
	out := s.Clone()

	switch ev.Type {
	case EventWorkflowStart:
		out.Phase = PhaseRunning

	case EventStepStart:
		if ev.Step != "" {
			out.Steps[ev.Step] = StepStatus{Status: StepStatusRunning}
		}
		if out.Phase == PhaseIdle || out.Phase == "" {
			out.Phase = PhaseRunning
		}

	case EventStepDone:
		if ev.Step != "" {
			out.Steps[ev.Step] = StepStatus{Status: StepStatusDone}
		}
		// The backend folds follow-up scheduling into draft generation, so a
		// completed drafts step implies a completed schedule step.
		if ev.Step == StepDrafts {
			out.Steps[StepSchedule] = StepStatus{Status: StepStatusDone}
		}

	case EventStepError:
		if ev.Step != "" {
			out.Steps[ev.Step] = StepStatus{Status: StepStatusError}
		}
		out.Phase = PhaseError

	case EventArtifact:
		if ev.ArtifactType != "" {
			// Replace, not merge: artifacts are opaque backend payloads.
			out.Artifacts[ev.ArtifactType] = ev.Data
		}

	case EventWaitingUser:
		out.Phase = PhaseWaitingUser

	case EventWorkflowComplete:
		// A completed workflow still awaiting a user action (e.g. Gmail draft
		// creation) is represented as waiting_user, not done.
		if out.Phase == PhaseRunning {
			out.Phase = PhaseWaitingUser
		}

	case EventError:
		out.Phase = PhaseError

	default:
		// Unrecognized event types are a no-op for forward compatibility.
	}

	return out
}
