package submission

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidahmann/agegate/internal/config"
	"github.com/davidahmann/agegate/pkg/types"
)

type fakePoster struct {
	channels  map[string]bool
	postErr   error
	posted    []types.ReviewArtifact
	postedTo  []string
	resolveTo []string
}

func (p *fakePoster) ResolveChannel(_ context.Context, channelID string) error {
	p.resolveTo = append(p.resolveTo, channelID)
	if !p.channels[channelID] {
		return types.ErrNotFound
	}
	return nil
}

func (p *fakePoster) PostArtifact(_ context.Context, channelID string, artifact types.ReviewArtifact) (string, error) {
	if p.postErr != nil {
		return "", p.postErr
	}
	p.posted = append(p.posted, artifact)
	p.postedTo = append(p.postedTo, channelID)
	return "msg-1", nil
}

type fakeMessenger struct {
	sent []string
}

func (m *fakeMessenger) SendDirect(_ context.Context, _ string, content string) error {
	m.sent = append(m.sent, content)
	return nil
}

func sampleSubmission(evidence types.Evidence) types.Submission {
	return types.Submission{
		SessionID: "sess-1",
		GuildID:   "guild-1",
		Requester: types.Requester{
			ID:        "42",
			Username:  "alice",
			Mention:   "<@42>",
			AvatarURL: "https://cdn.example/avatar.png",
			CreatedAt: time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC),
		},
		Identity:       "Alice#0001",
		Age:            "25",
		Consent:        "yes",
		RulesAgreement: "Yes",
		Evidence:       evidence,
		AccountAgeDays: 651,
		SubmittedAt:    time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
	}
}

func fieldValue(t *testing.T, a types.ReviewArtifact, name string) string {
	t.Helper()
	for _, f := range a.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("field %q not found", name)
	return ""
}

func TestRenderSkippedEvidence(t *testing.T) {
	a := Render(sampleSubmission(types.SkippedEvidence()))

	require.Equal(t, ArtifactTitle, a.Title)
	require.Equal(t, types.ColorPending, a.Color)
	require.Equal(t, "25", fieldValue(t, a, "🎂 Age"))
	require.Equal(t, "Alice#0001", fieldValue(t, a, "🆔 Username & ID"))
	require.Equal(t, "2024-03-09", fieldValue(t, a, "📅 Account Created"))
	require.Equal(t, "651 days", fieldValue(t, a, "⏰ Account Age"))
	require.Equal(t, types.EvidenceSkippedMarker, fieldValue(t, a, "🖼️ Age Verification"))
	require.Equal(t, "<@42> (alice)", fieldValue(t, a, "👤 User"))
	require.Equal(t, "https://cdn.example/avatar.png", a.ThumbnailURL)
	require.Equal(t, "Session sess-1", a.Footer)

	require.Len(t, a.Controls, 2)
	require.Equal(t, "approve:42", a.Controls[0].ID)
	require.Equal(t, "reject:42", a.Controls[1].ID)
}

func TestRenderAttachmentEvidenceAsLink(t *testing.T) {
	a := Render(sampleSubmission(types.AttachmentEvidence("https://cdn.example/id.png")))
	require.Equal(t, "[View Screenshot](https://cdn.example/id.png)", fieldValue(t, a, "🖼️ Age Verification"))
}

func TestRenderClipsLongAnswers(t *testing.T) {
	sub := sampleSubmission(types.SkippedEvidence())
	sub.Identity = strings.Repeat("é", 2000)

	value := fieldValue(t, Render(sub), "🆔 Username & ID")
	require.Equal(t, maxFieldValue, len([]rune(value)))
	require.True(t, strings.HasSuffix(value, "…"))
}

func TestRoutePostsAndConfirms(t *testing.T) {
	poster := &fakePoster{channels: map[string]bool{"1234": true}}
	messenger := &fakeMessenger{}
	router := &Router{ReviewChannelID: "<#1234>", Poster: poster, Messenger: messenger}

	err := router.Route(context.Background(), sampleSubmission(types.SkippedEvidence()))
	require.NoError(t, err)

	require.Equal(t, []string{"1234"}, poster.postedTo)
	require.Len(t, poster.posted, 1)
	require.Equal(t, []string{msgQueued}, messenger.sent)
}

func TestRoutePlaceholderIsConfigError(t *testing.T) {
	for _, id := range []string{"", config.ReviewChannelPlaceholder} {
		poster := &fakePoster{}
		messenger := &fakeMessenger{}
		router := &Router{ReviewChannelID: id, Poster: poster, Messenger: messenger}

		err := router.Route(context.Background(), sampleSubmission(types.SkippedEvidence()))
		require.ErrorIs(t, err, ErrNotConfigured)
		require.Empty(t, poster.resolveTo)
		require.Empty(t, poster.posted)
		require.Equal(t, []string{msgConfigError}, messenger.sent)
	}
}

func TestRouteMissingChannel(t *testing.T) {
	poster := &fakePoster{channels: map[string]bool{}}
	messenger := &fakeMessenger{}
	router := &Router{ReviewChannelID: "999", Poster: poster, Messenger: messenger}

	err := router.Route(context.Background(), sampleSubmission(types.SkippedEvidence()))
	require.ErrorIs(t, err, ErrChannelNotFound)
	require.Empty(t, poster.posted)
	require.Equal(t, []string{msgChannelMiss}, messenger.sent)
}

func TestRoutePostFailureIsNotRetried(t *testing.T) {
	poster := &fakePoster{channels: map[string]bool{"1": true}, postErr: errors.New("missing access")}
	messenger := &fakeMessenger{}
	router := &Router{ReviewChannelID: "1", Poster: poster, Messenger: messenger}

	err := router.Route(context.Background(), sampleSubmission(types.SkippedEvidence()))
	require.Error(t, err)
	require.Equal(t, []string{msgDeliveryError}, messenger.sent)
}
