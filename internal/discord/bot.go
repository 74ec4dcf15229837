package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/davidahmann/agegate/internal/interview"
	"github.com/davidahmann/agegate/internal/logging"
	"github.com/davidahmann/agegate/internal/review"
	"github.com/davidahmann/agegate/pkg/types"
)

// Intents the bot identifies with. Message content is needed to read
// interview answers sent by DM.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

const (
	PanelCommand = "postverify"
	// PanelPrefixCommand posts the panel from a plain guild message.
	PanelPrefixCommand = "!" + PanelCommand

	panelTitle  = "🔞 NSFW Verification Required"
	panelFooter = "This verification process is required for legal compliance."
	panelButton = "🔞 Verify Me"

	replyPanelFailed = "An error occurred while posting the verification embed."
	replyFailed      = "An error occurred while processing your request. Please try again later."
)

type Interviews interface {
	Begin(ctx context.Context, guildID string, requester types.Requester) (interview.BeginResult, error)
	Deliver(msg types.InboundMessage) bool
}

type Reviews interface {
	Decide(ctx context.Context, act review.Activation) review.Result
}

type BotOptions struct {
	Session           *discordgo.Session
	GuildID           string
	MinAccountAgeDays int
	Interviews        Interviews
	Reviews           Reviews
	Logger            *slog.Logger
}

// Bot connects gateway events to the interview engine and the review gate.
type Bot struct {
	session    *discordgo.Session
	guildID    string
	minAge     int
	interviews Interviews
	reviews    Reviews
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewBot(opts BotOptions) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bot{
		session:    opts.Session,
		guildID:    opts.GuildID,
		minAge:     opts.MinAccountAgeDays,
		interviews: opts.Interviews,
		reviews:    opts.Reviews,
		logger:     logger,
	}
}

// Open registers handlers and connects to the gateway. Interviews started
// by the bot run under ctx.
func (b *Bot) Open(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.session.Identify.Intents = Intents
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteraction)
	b.session.AddHandler(b.onMessage)

	if err := b.session.Open(); err != nil {
		b.cancel()
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

// Close cancels running interviews and disconnects.
func (b *Bot) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("bot logged in", "user", r.User.String(), "user_id", r.User.ID, "guilds", len(r.Guilds))

	cmd, err := s.ApplicationCommandCreate(r.User.ID, b.guildID, panelCommand())
	if err != nil {
		b.logger.Error("failed to register slash command", "command", PanelCommand, "error", err)
		return
	}
	b.logger.Info("registered slash command", "command", cmd.Name, "command_id", cmd.ID)
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	msg, ok := inboundFromMessage(m.Message)
	if !ok {
		return
	}
	if !msg.Direct && isPanelPrefixCommand(msg.Content) {
		b.postPanelMessage(s, m.Message)
		return
	}
	b.interviews.Deliver(msg)
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name == PanelCommand {
			b.postPanel(s, i.Interaction)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if customID == types.VerifyControlID {
			b.beginInterview(s, i.Interaction)
			return
		}
		if _, _, err := types.ParseControlID(customID); err == nil {
			b.decide(s, i.Interaction, customID)
		}
	}
}

func (b *Bot) postPanel(s *discordgo.Session, i *discordgo.Interaction) {
	panel := Panel(b.minAge)
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{toEmbed(panel)},
			Components: toComponents(panel.Controls),
		},
	})
	if err != nil {
		b.logger.Error("error posting verification embed", "error", err)
		b.respondEphemeral(s, i, replyPanelFailed)
		return
	}
	b.logger.Info("verification embed posted", "user", requesterFromUser(interactionUser(i)).Handle(), "channel_id", i.ChannelID)
}

// postPanelMessage answers the prefix form of the panel command. Only
// members who could run the slash command may use it.
func (b *Bot) postPanelMessage(s *discordgo.Session, m *discordgo.Message) {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		b.logger.Warn("could not read channel permissions", "user_id", m.Author.ID, "channel_id", m.ChannelID, "error", err)
		return
	}
	if !canPostPanel(perms) {
		b.logger.Debug("panel command ignored without manage roles", "user_id", m.Author.ID)
		return
	}

	panel := Panel(b.minAge)
	_, err = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{toEmbed(panel)},
		Components: toComponents(panel.Controls),
	})
	if err != nil {
		b.logger.Error("error posting verification embed", "error", err)
		if _, err := s.ChannelMessageSend(m.ChannelID, replyPanelFailed); err != nil {
			b.logger.Warn("panel failure reply failed", "channel_id", m.ChannelID, "error", err)
		}
		return
	}
	b.logger.Info("verification embed posted", "user", requesterFromUser(m.Author).Handle(), "channel_id", m.ChannelID)
}

func (b *Bot) beginInterview(s *discordgo.Session, i *discordgo.Interaction) {
	if !b.acknowledge(s, i) {
		return
	}
	requester := requesterFromUser(interactionUser(i))
	res, err := b.interviews.Begin(b.ctx, i.GuildID, requester)
	if err != nil {
		b.logger.Error("error starting verification", "user_id", requester.ID, "error", err)
		b.followup(s, i, replyFailed)
		return
	}
	b.followup(s, i, res.Message)
}

func (b *Bot) decide(s *discordgo.Session, i *discordgo.Interaction, customID string) {
	if !b.acknowledge(s, i) {
		return
	}
	res := b.reviews.Decide(b.ctx, activationFromInteraction(i, customID))
	b.followup(s, i, res.Reply)
}

// acknowledge defers a component interaction privately so the follow-up
// can arrive after the three-second response window.
func (b *Bot) acknowledge(s *discordgo.Session, i *discordgo.Interaction) bool {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Error("could not acknowledge interaction", "interaction_id", i.ID, "error", err)
		return false
	}
	return true
}

func (b *Bot) followup(s *discordgo.Session, i *discordgo.Interaction, content string) {
	_, err := s.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Warn("follow-up failed", "interaction_id", i.ID, "error", err)
	}
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Warn("ephemeral reply failed", "interaction_id", i.ID, "error", err)
	}
}

func isPanelPrefixCommand(content string) bool {
	fields := strings.Fields(content)
	return len(fields) > 0 && strings.EqualFold(fields[0], PanelPrefixCommand)
}

func canPostPanel(perms int64) bool {
	return perms&int64(discordgo.PermissionAdministrator) != 0 ||
		perms&int64(discordgo.PermissionManageRoles) != 0
}

func panelCommand() *discordgo.ApplicationCommand {
	perms := int64(discordgo.PermissionManageRoles)
	return &discordgo.ApplicationCommand{
		Name:                     PanelCommand,
		Description:              "Post the NSFW verification embed with button",
		DefaultMemberPermissions: &perms,
	}
}

// Panel is the public message carrying the verification button.
func Panel(minAccountAgeDays int) types.ReviewArtifact {
	return types.ReviewArtifact{
		Title: panelTitle,
		Description: "To access NSFW sections, click the button below to verify your age and consent.\n\n" +
			"**Requirements:**\n" +
			fmt.Sprintf("• Account must be at least %d days old\n", minAccountAgeDays) +
			"• Must be 18+ years old\n" +
			"• Age verification screenshot (optional)",
		Color:  types.ColorPanel,
		Footer: panelFooter,
		Controls: []types.Control{
			{ID: types.VerifyControlID, Label: panelButton, Style: types.ControlPrimary},
		},
	}
}
