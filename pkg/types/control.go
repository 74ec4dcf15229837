package types

import (
	"fmt"
	"strings"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// VerifyControlID identifies the button on the verification panel.
const VerifyControlID = "verify:start"

// ControlID encodes a decision and the requester it applies to.
func ControlID(decision Decision, requesterID string) string {
	return string(decision) + ":" + requesterID
}

// ParseControlID is the inverse of ControlID.
func ParseControlID(id string) (Decision, string, error) {
	kind, requesterID, ok := strings.Cut(id, ":")
	if !ok || requesterID == "" {
		return "", "", fmt.Errorf("malformed control id %q", id)
	}
	switch Decision(kind) {
	case DecisionApprove, DecisionReject:
		return Decision(kind), requesterID, nil
	default:
		return "", "", fmt.Errorf("unknown decision %q", kind)
	}
}
