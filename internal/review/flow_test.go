package review_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidahmann/agegate/internal/eligibility"
	"github.com/davidahmann/agegate/internal/interview"
	"github.com/davidahmann/agegate/internal/review"
	"github.com/davidahmann/agegate/internal/submission"
	"github.com/davidahmann/agegate/pkg/types"
)

// platform is an in-memory guild: one review channel, one role, DMs to
// anyone.
type platform struct {
	mu       sync.Mutex
	dms      map[string][]string
	posted   map[string]types.ReviewArtifact
	members  map[string]types.Requester
	granted  map[string]string
	nextID   int
	reviewCh string
}

func newPlatform(reviewCh string, members ...types.Requester) *platform {
	p := &platform{
		dms:      map[string][]string{},
		posted:   map[string]types.ReviewArtifact{},
		members:  map[string]types.Requester{},
		granted:  map[string]string{},
		reviewCh: reviewCh,
	}
	for _, m := range members {
		p.members[m.ID] = m
	}
	return p
}

func (p *platform) SendDirect(_ context.Context, userID string, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dms[userID] = append(p.dms[userID], content)
	return nil
}

func (p *platform) ResolveChannel(_ context.Context, channelID string) error {
	if channelID != p.reviewCh {
		return types.ErrNotFound
	}
	return nil
}

func (p *platform) PostArtifact(_ context.Context, _ string, artifact types.ReviewArtifact) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := "msg-" + strconv.Itoa(p.nextID)
	p.posted[id] = artifact.Clone()
	return id, nil
}

func (p *platform) EditArtifact(_ context.Context, _, messageID string, artifact types.ReviewArtifact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.posted[messageID]; !ok {
		return types.ErrNotFound
	}
	p.posted[messageID] = artifact.Clone()
	return nil
}

func (p *platform) Member(_ context.Context, _, userID string) (types.Requester, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.members[userID]
	if !ok {
		return types.Requester{}, types.ErrNotFound
	}
	return m, nil
}

func (p *platform) RoleExists(_ context.Context, _, roleID string) error {
	if roleID != "777" {
		return types.ErrNotFound
	}
	return nil
}

func (p *platform) GrantRole(_ context.Context, _, userID, roleID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted[userID] = roleID
	return nil
}

func (p *platform) dmCount(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dms[userID])
}

func (p *platform) artifact(id string) types.ReviewArtifact {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.posted[id].Clone()
}

func TestVerificationFlowFromButtonToRole(t *testing.T) {
	now := time.Date(2025, 12, 20, 16, 0, 0, 0, time.UTC)
	alice := types.Requester{
		ID:        "42",
		Username:  "alice",
		Mention:   "<@42>",
		CreatedAt: now.AddDate(0, 0, -90),
	}
	p := newPlatform("1234", alice)

	outcomes := make(chan interview.Outcome, 1)
	engine := interview.NewEngine(interview.Options{
		Messenger: p,
		Router:    &submission.Router{ReviewChannelID: "<#1234>", Poster: p, Messenger: p},
		Gate:      eligibility.Gate{MinAccountAgeDays: 30},
		Settings:  interview.Settings{StepTimeout: time.Minute, EvidenceTimeout: time.Minute},
		Now:       func() time.Time { return now },
		Observer:  func(o interview.Outcome) { outcomes <- o },
	})
	gate := review.NewGate(review.Options{
		VerifiedRoleID: "<@&777>",
		Directory:      p,
		Artifacts:      p,
		Messenger:      p,
	})

	res, err := engine.Begin(context.Background(), "guild-1", alice)
	require.NoError(t, err)
	require.Equal(t, interview.BeginStarted, res.Status)

	// Each answer goes out after its question: intro and first prompt,
	// then an acknowledgement and the next prompt per answer.
	for i, answer := range []string{"Alice#0001", "25", "yes", "Yes", "skip"} {
		want := 2 + 2*i
		require.Eventually(t, func() bool { return p.dmCount("42") >= want }, 2*time.Second, time.Millisecond)
		require.True(t, engine.Deliver(types.InboundMessage{AuthorID: "42", ChannelID: "dm", Direct: true, Content: answer}))
	}

	select {
	case o := <-outcomes:
		require.Equal(t, interview.StateCompleted, o.State)
	case <-time.After(5 * time.Second):
		t.Fatal("interview did not finish")
	}
	engine.Wait()

	pending := p.artifact("msg-1")
	require.False(t, pending.Resolved())
	require.Equal(t, submission.ArtifactTitle, pending.Title)

	act := review.Activation{
		ControlID: pending.Controls[0].ID,
		GuildID:   "guild-1",
		ChannelID: "1234",
		MessageID: "msg-1",
		Moderator: types.Requester{ID: "9", Username: "mod", Mention: "<@9>"},
		Artifact:  pending,
	}
	result := gate.Decide(context.Background(), act)
	require.Equal(t, review.ResultApproved, result.Status)
	require.Equal(t, "777", p.granted["42"])
	require.True(t, p.artifact("msg-1").Resolved())
	require.Equal(t, review.TitleApproved, p.artifact("msg-1").Title)

	act.ControlID = pending.Controls[1].ID
	act.Artifact = p.artifact("msg-1")
	again := gate.Decide(context.Background(), act)
	require.Equal(t, review.ResultAlreadyResolved, again.Status)
}
