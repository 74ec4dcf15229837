// Package interview runs the private question-and-answer sequence a requester
// completes before their answers are queued for moderator review.
//
// Every interview is one goroutine. Each step sends a prompt and then waits
// on the session inbox with a per-step deadline; the first of "qualifying
// input" and "deadline" resolves the wait and the other is discarded.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/davidahmann/agegate/internal/eligibility"
	"github.com/davidahmann/agegate/internal/logging"
	"github.com/davidahmann/agegate/pkg/types"
)

type Messenger interface {
	SendDirect(ctx context.Context, userID string, content string) error
}

// Router receives completed submissions. It reports its own failures to the
// requester.
type Router interface {
	Route(ctx context.Context, sub types.Submission) error
}

type Settings struct {
	StepTimeout     time.Duration
	EvidenceTimeout time.Duration
	StartsPerSecond float64
	StartBurst      int
}

type BeginStatus string

const (
	BeginStarted              BeginStatus = "started"
	BeginIneligible           BeginStatus = "ineligible"
	BeginBusy                 BeginStatus = "busy"
	BeginThrottled            BeginStatus = "throttled"
	BeginDirectMessagesClosed BeginStatus = "direct_messages_closed"
)

// BeginResult is what the requester sees in the channel where they pressed
// the verification button.
type BeginResult struct {
	Status    BeginStatus
	SessionID string
	Message   string
}

type Outcome struct {
	SessionID  string
	State      State
	Reason     Reason
	Step       Step
	Submission *types.Submission
}

const (
	msgStarted  = "✅ I've sent you a DM with the verification form. Please check your direct messages."
	msgBusy     = "⏳ You already have a verification in progress. Please check your direct messages."
	msgThrottle = "⏳ Verification is busy right now. Please try again in a few seconds."
	msgDMClosed = "❌ I couldn't send you a DM. Please:\n" +
		"1. Enable DMs from server members\n" +
		"2. Make sure you haven't blocked the bot\n" +
		"3. Try again after adjusting your privacy settings"
)

var errStepTimeout = errors.New("step timed out")

type Options struct {
	Messenger Messenger
	Router    Router
	Gate      eligibility.Gate
	Settings  Settings
	Logger    *slog.Logger
	Now       func() time.Time
	// Observer, when set, is called with the outcome of every interview.
	Observer func(Outcome)
}

type Engine struct {
	messenger Messenger
	router    Router
	gate      eligibility.Gate
	settings  Settings
	sessions  *Registry
	limiter   *rate.Limiter
	logger    *slog.Logger
	now       func() time.Time
	observer  func(Outcome)
	wg        sync.WaitGroup
}

func NewEngine(opts Options) *Engine {
	settings := opts.Settings
	if settings.StepTimeout <= 0 {
		settings.StepTimeout = 300 * time.Second
	}
	if settings.EvidenceTimeout <= 0 {
		settings.EvidenceTimeout = 600 * time.Second
	}

	limit := rate.Inf
	if settings.StartsPerSecond > 0 {
		limit = rate.Limit(settings.StartsPerSecond)
	}
	burst := settings.StartBurst
	if burst <= 0 {
		burst = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	gate := opts.Gate
	gate.Now = now

	return &Engine{
		messenger: opts.Messenger,
		router:    opts.Router,
		gate:      gate,
		settings:  settings,
		sessions:  NewRegistry(),
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
		now:       now,
		observer:  opts.Observer,
	}
}

// Sessions exposes the active-session registry.
func (e *Engine) Sessions() *Registry {
	return e.sessions
}

// Begin checks eligibility, opens the private conversation and starts the
// interview in the background. ctx bounds the whole interview, not just the
// call, so callers pass a process-lifetime context.
func (e *Engine) Begin(ctx context.Context, guildID string, requester types.Requester) (BeginResult, error) {
	decision := e.gate.Check(requester.CreatedAt)
	if !decision.Allowed {
		e.logger.Info("verification denied: account too new",
			"user", requester.Handle(), "user_id", requester.ID, "account_age_days", decision.AccountAgeDays)
		return BeginResult{Status: BeginIneligible, Message: decision.Message}, nil
	}

	s := &Session{
		ID:             uuid.NewString(),
		GuildID:        guildID,
		Requester:      requester,
		AccountAgeDays: decision.AccountAgeDays,
		StartedAt:      e.now(),
		inbox:          make(chan types.InboundMessage, inboxSize),
	}

	if !e.sessions.acquire(s) {
		existing, _ := e.sessions.SessionID(requester.ID)
		return BeginResult{Status: BeginBusy, SessionID: existing, Message: msgBusy}, nil
	}

	if !e.limiter.Allow() {
		e.sessions.release(s)
		e.logger.Warn("verification start throttled", "user_id", requester.ID)
		return BeginResult{Status: BeginThrottled, Message: msgThrottle}, nil
	}

	if err := e.messenger.SendDirect(ctx, requester.ID, e.introMessage()); err != nil {
		e.sessions.release(s)
		if errors.Is(err, types.ErrDirectMessagesClosed) {
			e.logger.Info("could not DM requester for verification", "user_id", requester.ID)
			return BeginResult{Status: BeginDirectMessagesClosed, Message: msgDMClosed}, nil
		}
		return BeginResult{}, fmt.Errorf("send intro: %w", err)
	}

	e.logger.Info("verification started", "user", requester.Handle(), "user_id", requester.ID, "session_id", s.ID)

	e.wg.Add(1)
	go e.run(ctx, s)

	return BeginResult{Status: BeginStarted, SessionID: s.ID, Message: msgStarted}, nil
}

// Deliver routes an inbound message to the author's active session. It
// reports whether the message was handed to a session.
func (e *Engine) Deliver(msg types.InboundMessage) bool {
	if !msg.Direct {
		return false
	}
	return e.sessions.deliver(msg)
}

// Wait blocks until every running interview has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) run(ctx context.Context, s *Session) {
	defer e.wg.Done()
	defer e.sessions.release(s)

	outcome := e.interview(ctx, s)

	log := e.logger.With("user", s.Requester.Handle(), "user_id", s.Requester.ID, "session_id", s.ID)
	switch outcome.State {
	case StateCompleted:
		if err := e.router.Route(ctx, *outcome.Submission); err != nil {
			log.Debug("verification submission not routed", "error", err)
		}
	case StateTimedOut:
		log.Info("verification timed out", "step", outcome.Step.String())
	case StateCancelled:
		log.Info("verification cancelled", "step", outcome.Step.String(), "reason", string(outcome.Reason))
	}

	if e.observer != nil {
		e.observer(outcome)
	}
}

func (e *Engine) interview(ctx context.Context, s *Session) Outcome {
	for _, step := range textSteps(s.Requester) {
		s.Step = step.step
		if err := e.prompt(ctx, s, step.prompt); err != nil {
			return e.abort(s, err)
		}

		in, err := e.await(ctx, s, e.settings.StepTimeout, acceptText)
		if err != nil {
			return e.stop(ctx, s, err, msgStepTimedOut)
		}

		answer := in.text()
		if step.validate != nil {
			if reason := step.validate(answer); reason != ReasonNone {
				e.notify(ctx, s, cancelMessages[reason])
				return Outcome{SessionID: s.ID, State: StateCancelled, Reason: reason, Step: s.Step}
			}
		}

		s.Answers = append(s.Answers, answer)
		if err := e.messenger.SendDirect(ctx, s.Requester.ID, msgAnswerRecorded); err != nil {
			return e.abort(s, err)
		}
	}

	s.Step = AskEvidence
	if err := e.prompt(ctx, s, evidencePrompt); err != nil {
		return e.abort(s, err)
	}

	in, err := e.await(ctx, s, e.settings.EvidenceTimeout, acceptEvidence)
	if err != nil {
		return e.stop(ctx, s, err, msgEvidenceTimedOut)
	}

	s.Evidence = evidenceFrom(in)
	ack := msgEvidenceReceived
	if s.Evidence.Skipped {
		ack = msgEvidenceSkipped
	}
	if err := e.messenger.SendDirect(ctx, s.Requester.ID, ack); err != nil {
		return e.abort(s, err)
	}

	sub := types.Submission{
		SessionID:      s.ID,
		GuildID:        s.GuildID,
		Requester:      s.Requester,
		Identity:       s.Answers[AskIdentity],
		Age:            s.Answers[AskAge],
		Consent:        s.Answers[AskConsent],
		RulesAgreement: s.Answers[AskRulesAgreement],
		Evidence:       s.Evidence,
		AccountAgeDays: s.AccountAgeDays,
		SubmittedAt:    e.now().UTC(),
	}
	return Outcome{SessionID: s.ID, State: StateCompleted, Step: AskEvidence, Submission: &sub}
}

// prompt drops input received before the prompt goes out, so an answer
// always follows the question it answers.
func (e *Engine) prompt(ctx context.Context, s *Session, content string) error {
	s.discardPending()
	return e.messenger.SendDirect(ctx, s.Requester.ID, content)
}

// await blocks until a qualifying message arrives, the step deadline passes
// or ctx is done. Messages that do not qualify are dropped and do not extend
// the deadline.
func (e *Engine) await(ctx context.Context, s *Session, timeout time.Duration, accept func(Input) bool) (Input, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, errStepTimeout
		case msg := <-s.inbox:
			if !msg.Direct || msg.AuthorID != s.Requester.ID {
				continue
			}
			in := Classify(msg)
			if accept(in) {
				return in, nil
			}
		}
	}
}

// stop ends the interview after a failed wait. Shutdown is silent.
func (e *Engine) stop(ctx context.Context, s *Session, err error, timeoutMsg string) Outcome {
	if errors.Is(err, errStepTimeout) {
		e.notify(ctx, s, timeoutMsg)
		return Outcome{SessionID: s.ID, State: StateTimedOut, Reason: ReasonTimeout, Step: s.Step}
	}
	return Outcome{SessionID: s.ID, State: StateCancelled, Reason: ReasonShutdown, Step: s.Step}
}

func (e *Engine) abort(s *Session, err error) Outcome {
	e.logger.Warn("verification aborted: direct message failed",
		"user_id", s.Requester.ID, "session_id", s.ID, "step", s.Step.String(), "error", err)
	return Outcome{SessionID: s.ID, State: StateCancelled, Reason: ReasonUndeliverable, Step: s.Step}
}

func (e *Engine) notify(ctx context.Context, s *Session, content string) {
	if err := e.messenger.SendDirect(ctx, s.Requester.ID, content); err != nil {
		e.logger.Warn("could not deliver verification notice",
			"user_id", s.Requester.ID, "session_id", s.ID, "error", err)
	}
}

func (e *Engine) introMessage() string {
	return "🔞 **NSFW Verification Process**\n\n" +
		"Hello! Let's get you verified for NSFW content access.\n" +
		"Please answer the following questions honestly and completely.\n" +
		fmt.Sprintf("⏰ You have %s to complete each step (%s for the final upload).\n", humanDuration(e.settings.StepTimeout), humanDuration(e.settings.EvidenceTimeout)) +
		"Reply here in this direct message; answers posted in server channels are ignored.\n\n" +
		"**Let's begin:**"
}

func humanDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return d.String()
}
