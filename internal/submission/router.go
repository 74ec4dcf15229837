// Package submission delivers completed interviews to the moderation queue.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/davidahmann/agegate/internal/config"
	"github.com/davidahmann/agegate/internal/idresolve"
	"github.com/davidahmann/agegate/internal/logging"
	"github.com/davidahmann/agegate/pkg/types"
)

var (
	ErrNotConfigured   = errors.New("review channel not configured")
	ErrChannelNotFound = errors.New("review channel not found")
)

type Messenger interface {
	SendDirect(ctx context.Context, userID string, content string) error
}

type Poster interface {
	// ResolveChannel returns types.ErrNotFound when the channel does not
	// exist or is not visible to the bot.
	ResolveChannel(ctx context.Context, channelID string) error
	PostArtifact(ctx context.Context, channelID string, artifact types.ReviewArtifact) (messageID string, err error)
}

const (
	msgConfigError   = "❌ Bot configuration error. Please contact an administrator."
	msgChannelMiss   = "❌ Review channel not found. Please contact an administrator."
	msgDeliveryError = "❌ An error occurred during verification. Please try again or contact an administrator."
	msgQueued        = "✅ **Verification submitted successfully!**\n\n" +
		"Your verification request has been sent to the moderation team for review.\n" +
		"You will receive a DM with the result once it's processed.\n\n" +
		"Thank you for your patience! 🙏"
)

type Router struct {
	// ReviewChannelID is the configured value: a numeric id, a channel
	// mention, or the placeholder.
	ReviewChannelID string
	Poster          Poster
	Messenger       Messenger
	Logger          *slog.Logger
}

// Route posts sub to the review channel and confirms to the requester. On
// any failure the requester is told and the submission is dropped.
func (r *Router) Route(ctx context.Context, sub types.Submission) error {
	log := r.logger().With("user", sub.Requester.Handle(), "user_id", sub.Requester.ID, "session_id", sub.SessionID)

	if r.ReviewChannelID == "" || r.ReviewChannelID == config.ReviewChannelPlaceholder {
		log.Error("review channel ID not configured properly")
		r.tell(ctx, sub, msgConfigError)
		return ErrNotConfigured
	}

	channelID := idresolve.Extract(r.ReviewChannelID)
	if err := r.Poster.ResolveChannel(ctx, channelID); err != nil {
		log.Error("review channel not found or bot lacks access", "review_channel_id", r.ReviewChannelID, "error", err)
		r.tell(ctx, sub, msgChannelMiss)
		return fmt.Errorf("%w: %v", ErrChannelNotFound, err)
	}

	messageID, err := r.Poster.PostArtifact(ctx, channelID, Render(sub))
	if err != nil {
		log.Error("could not post review artifact", "channel_id", channelID, "error", err)
		r.tell(ctx, sub, msgDeliveryError)
		return fmt.Errorf("post artifact: %w", err)
	}

	r.tell(ctx, sub, msgQueued)
	log.Info("verification request submitted", "channel_id", channelID, "message_id", messageID)
	return nil
}

func (r *Router) tell(ctx context.Context, sub types.Submission, content string) {
	if r.Messenger == nil {
		return
	}
	if err := r.Messenger.SendDirect(ctx, sub.Requester.ID, content); err != nil {
		r.logger().Info("could not DM requester", "user_id", sub.Requester.ID, "error", err)
	}
}

func (r *Router) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}
