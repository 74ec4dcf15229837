package interview

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidahmann/agegate/pkg/types"
)

func TestClassify(t *testing.T) {
	in := Classify(types.InboundMessage{Content: "  hello "})
	require.Equal(t, TextInput{Text: "hello"}, in)

	in = Classify(types.InboundMessage{Content: "proof", Attachments: []string{"a", "b"}})
	require.Equal(t, AttachmentInput{URL: "a", Caption: "proof"}, in)
}

func TestKeywords(t *testing.T) {
	for _, s := range []string{"yes", "YES", " Y ", "yEs"} {
		require.True(t, isAffirmative(s), s)
	}
	for _, s := range []string{"no", "yes!", "ye", ""} {
		require.False(t, isAffirmative(s), s)
	}
	require.True(t, isSkip(" SKIP"))
	require.True(t, isSkip("s"))
	require.False(t, isSkip("skipped"))
}

func TestEvidenceSkipWinsOverAttachment(t *testing.T) {
	in := AttachmentInput{URL: "https://cdn.example/a.png", Caption: "skip"}
	require.True(t, acceptEvidence(in))
	require.True(t, evidenceFrom(in).Skipped)
}

func TestValidateAge(t *testing.T) {
	require.Equal(t, ReasonNone, validateAge("18"))
	require.Equal(t, ReasonNone, validateAge("+25"))
	require.Equal(t, ReasonUnderage, validateAge("17"))
	require.Equal(t, ReasonInvalidAge, validateAge("twenty"))
}
