package interview

import (
	"fmt"
	"strconv"

	"github.com/davidahmann/agegate/pkg/types"
)

type Step int

const (
	AskIdentity Step = iota
	AskAge
	AskConsent
	AskRulesAgreement
	AskEvidence
)

func (s Step) String() string {
	switch s {
	case AskIdentity:
		return "ask_identity"
	case AskAge:
		return "ask_age"
	case AskConsent:
		return "ask_consent"
	case AskRulesAgreement:
		return "ask_rules_agreement"
	case AskEvidence:
		return "ask_evidence"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

type State string

const (
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateTimedOut  State = "timed_out"
)

type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInvalidAge        Reason = "invalid_age_format"
	ReasonUnderage          Reason = "under_minimum_age"
	ReasonConsentWithheld   Reason = "consent_withheld"
	ReasonAgreementWithheld Reason = "agreement_withheld"
	ReasonUndeliverable     Reason = "direct_message_failed"
	ReasonShutdown          Reason = "shutdown"
	ReasonTimeout           Reason = "timeout"
)

const MinimumAge = 18

// cancelMessages are sent to the requester when validation ends the interview.
var cancelMessages = map[Reason]string{
	ReasonInvalidAge:        "❌ Please provide a valid age number. Verification cancelled.",
	ReasonUnderage:          "❌ You must be 18 or older to access NSFW content. Verification cancelled.",
	ReasonConsentWithheld:   "❌ You must consent and agree to the rules to access NSFW content. Verification cancelled.",
	ReasonAgreementWithheld: "❌ You must consent and agree to the rules to access NSFW content. Verification cancelled.",
}

const (
	msgAnswerRecorded   = "✅ Answer recorded."
	msgEvidenceSkipped  = "✅ Screenshot skipped. Proceeding with verification."
	msgEvidenceReceived = "✅ Screenshot received."
	msgStepTimedOut     = "⏰ Verification timed out. Please start over by clicking the verification button again."
	msgEvidenceTimedOut = "⏰ Image upload timed out. Please start over by clicking the verification button again."
)

const evidencePrompt = "**5.** Please upload a screenshot showing your age verification, or type 'skip' to proceed without one.\n" +
	"This could be:\n" +
	"• Government ID (blur out sensitive info, keep age/DOB visible)\n" +
	"• Birth certificate (blur sensitive info)\n" +
	"• Any official document showing your date of birth\n\n" +
	"**Important:** Blur out all personal information except your age/date of birth.\n" +
	"**Note:** You can type 'skip' if you prefer not to upload a screenshot."

type textStep struct {
	step     Step
	prompt   string
	validate func(answer string) Reason
}

func textSteps(r types.Requester) []textStep {
	return []textStep{
		{
			step:   AskIdentity,
			prompt: fmt.Sprintf("**1.** What is your Discord username and ID? (You can copy this: `%s` / `%s`)", r.Handle(), r.ID),
		},
		{
			step:     AskAge,
			prompt:   "**2.** How old are you? (Must be 18 or older)",
			validate: validateAge,
		},
		{
			step:   AskConsent,
			prompt: "**3.** Do you consent to seeing NSFW content? (Type 'Yes' or 'No')",
			validate: func(answer string) Reason {
				if !isAffirmative(answer) {
					return ReasonConsentWithheld
				}
				return ReasonNone
			},
		},
		{
			step:   AskRulesAgreement,
			prompt: "**4.** Have you read and agreed to the server's NSFW rules? (Type 'Yes' or 'No')",
			validate: func(answer string) Reason {
				if !isAffirmative(answer) {
					return ReasonAgreementWithheld
				}
				return ReasonNone
			},
		},
	}
}

func validateAge(answer string) Reason {
	age, err := strconv.Atoi(answer)
	if err != nil {
		return ReasonInvalidAge
	}
	if age < MinimumAge {
		return ReasonUnderage
	}
	return ReasonNone
}

// acceptText qualifies any input carrying non-empty text.
func acceptText(in Input) bool {
	return in.text() != ""
}

// acceptEvidence qualifies an attachment or a skip keyword.
func acceptEvidence(in Input) bool {
	if isSkip(in.text()) {
		return true
	}
	_, ok := in.(AttachmentInput)
	return ok
}

func evidenceFrom(in Input) types.Evidence {
	if isSkip(in.text()) {
		return types.SkippedEvidence()
	}
	return types.AttachmentEvidence(in.(AttachmentInput).URL)
}
