package submission

import (
	"fmt"
	"unicode/utf8"

	"github.com/davidahmann/agegate/pkg/types"
)

const (
	ArtifactTitle = "🔞 NSFW Verification Request"
	// Discord rejects embed field values longer than this.
	maxFieldValue = 1024
)

// Render builds the pending review artifact for sub.
func Render(sub types.Submission) types.ReviewArtifact {
	r := sub.Requester

	evidence := types.EvidenceSkippedMarker
	if !sub.Evidence.Skipped {
		evidence = fmt.Sprintf("[View Screenshot](%s)", sub.Evidence.URL)
	}

	return types.ReviewArtifact{
		Title:     ArtifactTitle,
		Color:     types.ColorPending,
		Timestamp: sub.SubmittedAt,
		Fields: []types.Field{
			{Name: "👤 User", Value: fmt.Sprintf("%s (%s)", r.Mention, r.Handle())},
			{Name: "🆔 Username & ID", Value: clip(sub.Identity)},
			{Name: "🎂 Age", Value: clip(sub.Age), Inline: true},
			{Name: "✅ Consent", Value: clip(sub.Consent), Inline: true},
			{Name: "📜 Agreed to Rules", Value: clip(sub.RulesAgreement), Inline: true},
			{Name: "📅 Account Created", Value: sub.AccountCreated(), Inline: true},
			{Name: "⏰ Account Age", Value: fmt.Sprintf("%d days", sub.AccountAgeDays), Inline: true},
			{Name: "🖼️ Age Verification", Value: evidence},
		},
		ThumbnailURL: r.AvatarURL,
		Footer:       "Session " + sub.SessionID,
		Controls: []types.Control{
			{ID: types.ControlID(types.DecisionApprove, r.ID), Label: "✅ Approve", Style: types.ControlSuccess},
			{ID: types.ControlID(types.DecisionReject, r.ID), Label: "❌ Reject", Style: types.ControlDanger},
		},
	}
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxFieldValue {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxFieldValue-1]) + "…"
}
