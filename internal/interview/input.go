package interview

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/davidahmann/agegate/pkg/types"
)

// Input is a classified inbound message: TextInput or AttachmentInput.
type Input interface {
	text() string
}

type TextInput struct {
	Text string
}

// AttachmentInput carries the first attachment of a message. Further
// attachments in the same message are ignored.
type AttachmentInput struct {
	URL     string
	Caption string
}

func (in TextInput) text() string       { return in.Text }
func (in AttachmentInput) text() string { return in.Caption }

// Classify turns a raw message into exactly one Input variant.
func Classify(msg types.InboundMessage) Input {
	text := strings.TrimSpace(msg.Content)
	if len(msg.Attachments) > 0 {
		return AttachmentInput{URL: msg.Attachments[0], Caption: text}
	}
	return TextInput{Text: text}
}

// fold trims and case-folds s for keyword comparison. cases.Caser is
// stateful, so a new one is built per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func isKeyword(s string, keywords ...string) bool {
	folded := fold(s)
	for _, k := range keywords {
		if folded == k {
			return true
		}
	}
	return false
}

func isAffirmative(s string) bool { return isKeyword(s, "yes", "y") }

func isSkip(s string) bool { return isKeyword(s, "skip", "s") }
