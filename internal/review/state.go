package review

type ClaimStatus string

type NextAction string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimHeld     ClaimStatus = "claimed"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

const (
	ActionResolve          NextAction = "resolve"
	ActionReturnInProgress NextAction = "return_in_progress"
	ActionReturnResolved   NextAction = "return_resolved"
)

// DetermineNextAction maps the claim state of an artifact and whether its
// controls are already gone to what an activation should do.
func DetermineNextAction(status ClaimStatus, controlsRemoved bool) NextAction {
	switch status {
	case ClaimApproved, ClaimRejected:
		return ActionReturnResolved
	case ClaimHeld:
		return ActionReturnInProgress
	}
	if controlsRemoved {
		return ActionReturnResolved
	}
	return ActionResolve
}

func statusFor(approved bool) ClaimStatus {
	if approved {
		return ClaimApproved
	}
	return ClaimRejected
}
