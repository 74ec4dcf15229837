// Package review resolves moderator decisions on submitted verification
// requests.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/davidahmann/agegate/internal/config"
	"github.com/davidahmann/agegate/internal/idresolve"
	"github.com/davidahmann/agegate/internal/logging"
	"github.com/davidahmann/agegate/pkg/types"
)

type Directory interface {
	// Member returns types.ErrNotFound when userID is not in the guild.
	Member(ctx context.Context, guildID, userID string) (types.Requester, error)
	// RoleExists returns types.ErrNotFound for unknown roles.
	RoleExists(ctx context.Context, guildID, roleID string) error
	// GrantRole returns types.ErrForbidden when the bot may not assign it.
	GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error
}

type ArtifactEditor interface {
	EditArtifact(ctx context.Context, channelID, messageID string, artifact types.ReviewArtifact) error
}

type Messenger interface {
	SendDirect(ctx context.Context, userID string, content string) error
}

// Activation is one press of a decision control.
type Activation struct {
	ControlID string
	GuildID   string
	ChannelID string
	MessageID string
	Moderator types.Requester
	// Artifact is the review artifact as currently shown on the message.
	Artifact types.ReviewArtifact
}

type ResultStatus string

const (
	ResultApproved         ResultStatus = "approved"
	ResultRejected         ResultStatus = "rejected"
	ResultAlreadyResolved  ResultStatus = "already_resolved"
	ResultMemberNotFound   ResultStatus = "member_not_found"
	ResultConfigError      ResultStatus = "config_error"
	ResultPermissionDenied ResultStatus = "permission_denied"
	ResultInvalidControl   ResultStatus = "invalid_control"
	ResultFailed           ResultStatus = "failed"
)

// Result is reported back to the moderator privately.
type Result struct {
	Status ResultStatus
	Reply  string
}

const (
	TitleApproved = "✅ NSFW Verification - APPROVED"
	TitleRejected = "❌ NSFW Verification - REJECTED"
)

const (
	msgApprovedDM = "🎉 **Verification Approved!**\n\n" +
		"Congratulations! You have been approved for NSFW access.\n" +
		"You can now access all NSFW channels and content in the server.\n\n" +
		"Please remember to follow all server rules and guidelines. Enjoy! ✨"
	msgRejectedDM = "❌ **Verification Rejected**\n\n" +
		"Unfortunately, your NSFW verification request has been rejected.\n\n" +
		"This could be due to:\n" +
		"• Insufficient age verification\n" +
		"• Incomplete or unclear responses\n" +
		"• Not meeting server requirements\n\n" +
		"If you believe this was an error, please contact a moderator directly."

	replyResolved      = "⚠️ This verification request has already been resolved."
	replyInProgress    = "⏳ Another moderator is already resolving this verification request."
	replyNotFound      = "❌ User not found in server."
	replyRoleUnset     = "❌ Verified role not configured."
	replyRoleMissing   = "❌ Verified role not found."
	replyNoPermission  = "❌ I don't have permission to assign roles."
	replyApproveFailed = "❌ An error occurred while approving."
	replyRejectFailed  = "❌ An error occurred while rejecting."
	replyBadControl    = "❌ Unknown verification control."
)

type Options struct {
	VerifiedRoleID string
	Directory      Directory
	Artifacts      ArtifactEditor
	Messenger      Messenger
	Claims         *ClaimStore
	ClaimRetention time.Duration
	Logger         *slog.Logger
}

type Gate struct {
	verifiedRoleID string
	directory      Directory
	artifacts      ArtifactEditor
	messenger      Messenger
	claims         *ClaimStore
	logger         *slog.Logger
}

func NewGate(opts Options) *Gate {
	claims := opts.Claims
	if claims == nil {
		claims = NewClaimStoreWithRetention(opts.ClaimRetention)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gate{
		verifiedRoleID: opts.VerifiedRoleID,
		directory:      opts.Directory,
		artifacts:      opts.Artifacts,
		messenger:      opts.Messenger,
		claims:         claims,
		logger:         logger,
	}
}

// Claims exposes the resolution guard for status lookups.
func (g *Gate) Claims() *ClaimStore {
	return g.claims
}

// Decide applies a moderator decision. Both decisions go through the same
// claim, so of two concurrent activations on one artifact only the first
// grants, edits or notifies; the second reports the artifact as resolved.
func (g *Gate) Decide(ctx context.Context, act Activation) Result {
	decision, requesterID, err := types.ParseControlID(act.ControlID)
	if err != nil {
		g.logger.Warn("ignoring unknown review control", "control_id", act.ControlID, "error", err)
		return Result{Status: ResultInvalidControl, Reply: replyBadControl}
	}

	artifactID := act.MessageID
	if artifactID == "" {
		artifactID = requesterID
	}

	log := g.logger.With("user_id", requesterID, "moderator", act.Moderator.Handle(), "artifact_id", artifactID, "decision", string(decision))

	held, ok := g.claims.Claim(artifactID, requesterID, decision, act.Moderator.ID, act.Artifact.Resolved())
	if !ok {
		log.Info("review activation ignored", "claim_status", string(held.Status))
		if held.Status == ClaimHeld {
			return Result{Status: ResultAlreadyResolved, Reply: replyInProgress}
		}
		return Result{Status: ResultAlreadyResolved, Reply: replyResolved}
	}

	member, err := g.directory.Member(ctx, act.GuildID, requesterID)
	if err != nil {
		g.claims.Release(artifactID)
		if errors.Is(err, types.ErrNotFound) {
			log.Info("review target is no longer a member")
			return Result{Status: ResultMemberNotFound, Reply: replyNotFound}
		}
		log.Error("member lookup failed", "error", err)
		return g.failed(decision)
	}

	if decision == types.DecisionApprove {
		return g.approve(ctx, log, act, artifactID, member)
	}
	return g.reject(ctx, log, act, artifactID, member)
}

func (g *Gate) approve(ctx context.Context, log *slog.Logger, act Activation, artifactID string, member types.Requester) Result {
	if g.verifiedRoleID == "" || g.verifiedRoleID == config.VerifiedRolePlaceholder {
		g.claims.Release(artifactID)
		log.Error("verified role ID not configured properly")
		return Result{Status: ResultConfigError, Reply: replyRoleUnset}
	}

	roleID := idresolve.Extract(g.verifiedRoleID)
	if err := g.directory.RoleExists(ctx, act.GuildID, roleID); err != nil {
		g.claims.Release(artifactID)
		log.Error("verified role not found", "verified_role_id", g.verifiedRoleID, "error", err)
		return Result{Status: ResultConfigError, Reply: replyRoleMissing}
	}

	reason := fmt.Sprintf("NSFW verification approved by %s", act.Moderator.Handle())
	if err := g.directory.GrantRole(ctx, act.GuildID, member.ID, roleID, reason); err != nil {
		g.claims.Release(artifactID)
		if errors.Is(err, types.ErrForbidden) {
			log.Error("no permission to assign role", "role_id", roleID)
			return Result{Status: ResultPermissionDenied, Reply: replyNoPermission}
		}
		log.Error("role grant failed", "role_id", roleID, "error", err)
		return Result{Status: ResultFailed, Reply: replyApproveFailed}
	}

	// The grant has taken effect; from here the claim is never released.
	g.claims.Complete(artifactID)

	reply := fmt.Sprintf("✅ **Approved** %s for NSFW access.", member.Mention)
	resolved := ResolveArtifact(act.Artifact, types.DecisionApprove, act.Moderator)
	if err := g.artifacts.EditArtifact(ctx, act.ChannelID, act.MessageID, resolved); err != nil {
		log.Error("could not update review artifact after approval", "error", err)
		reply += " The review message could not be updated."
	}

	g.notify(ctx, log, member, msgApprovedDM)
	log.Info("verification approved", "user", member.Handle())
	return Result{Status: ResultApproved, Reply: reply}
}

func (g *Gate) reject(ctx context.Context, log *slog.Logger, act Activation, artifactID string, member types.Requester) Result {
	resolved := ResolveArtifact(act.Artifact, types.DecisionReject, act.Moderator)
	if err := g.artifacts.EditArtifact(ctx, act.ChannelID, act.MessageID, resolved); err != nil {
		g.claims.Release(artifactID)
		log.Error("could not update review artifact for rejection", "error", err)
		return Result{Status: ResultFailed, Reply: replyRejectFailed}
	}
	g.claims.Complete(artifactID)

	g.notify(ctx, log, member, msgRejectedDM)
	log.Info("verification rejected", "user", member.Handle())
	return Result{Status: ResultRejected, Reply: fmt.Sprintf("❌ **Rejected** %s's verification request.", member.Mention)}
}

func (g *Gate) notify(ctx context.Context, log *slog.Logger, member types.Requester, content string) {
	err := g.messenger.SendDirect(ctx, member.ID, content)
	switch {
	case err == nil:
	case errors.Is(err, types.ErrDirectMessagesClosed):
		log.Info("could not DM review outcome to requester")
	default:
		log.Warn("review outcome DM failed", "error", err)
	}
}

func (g *Gate) failed(decision types.Decision) Result {
	if decision == types.DecisionApprove {
		return Result{Status: ResultFailed, Reply: replyApproveFailed}
	}
	return Result{Status: ResultFailed, Reply: replyRejectFailed}
}

// ResolveArtifact returns a copy of a rewritten for the outcome: color,
// title, the resolving moderator, and no controls.
func ResolveArtifact(a types.ReviewArtifact, decision types.Decision, moderator types.Requester) types.ReviewArtifact {
	out := a.Clone()
	who := moderator.Mention
	if who == "" {
		who = moderator.Handle()
	}

	if decision == types.DecisionApprove {
		out.Color = types.ColorApproved
		out.Title = TitleApproved
		out.Fields = append(out.Fields, types.Field{Name: "📋 Action", Value: "Approved by " + who})
	} else {
		out.Color = types.ColorRejected
		out.Title = TitleRejected
		out.Fields = append(out.Fields, types.Field{Name: "📋 Action", Value: "Rejected by " + who})
	}
	out.Controls = nil
	return out
}
