package automation

import "fmt"

// Authorize decides whether actor may apply op to job. It is the only place
// the mutation policy lives:
//
//   - an agent heartbeat job (ID containing "_agent_") is never directly
//     mutable; it only moves through Service.SetEnableForGarden
//   - an AI-created job may only be mutated by ActorAgent
//   - any other job may only be mutated by ActorUser
//
// Returns nil or an error wrapping ErrPolicyViolation.
func Authorize(job *Job, actor Actor, op Operation) error {
	if job.IsAgentHeartbeat() {
		return fmt.Errorf("%w: agent job %s cannot be %s by %s", ErrPolicyViolation, job.ID, opVerb(op), actor)
	}

	switch actor {
	case ActorAgent:
		if !job.CreatedByAI {
			return fmt.Errorf("%w: agent cannot %s user job %s", ErrPolicyViolation, op, job.ID)
		}
	case ActorUser:
		if job.CreatedByAI {
			return fmt.Errorf("%w: user cannot %s AI-created job %s", ErrPolicyViolation, op, job.ID)
		}
	default:
		return fmt.Errorf("%w: unknown actor %q", ErrPolicyViolation, actor)
	}
	return nil
}

func opVerb(op Operation) string {
	switch op {
	case OpUpdate:
		return "updated"
	case OpDelete:
		return "deleted"
	case OpToggle:
		return "toggled"
	default:
		return "modified"
	}
}
