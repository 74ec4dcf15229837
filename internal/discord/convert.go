package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/davidahmann/agegate/internal/review"
	"github.com/davidahmann/agegate/pkg/types"
)

var buttonStyles = map[types.ControlStyle]discordgo.ButtonStyle{
	types.ControlPrimary: discordgo.PrimaryButton,
	types.ControlSuccess: discordgo.SuccessButton,
	types.ControlDanger:  discordgo.DangerButton,
}

func toEmbed(a types.ReviewArtifact) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Description,
		Color:       a.Color,
	}
	for _, f := range a.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if a.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: a.ThumbnailURL}
	}
	if a.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: a.Footer}
	}
	if !a.Timestamp.IsZero() {
		embed.Timestamp = a.Timestamp.UTC().Format(time.RFC3339)
	}
	return embed
}

func fromEmbed(embed *discordgo.MessageEmbed) types.ReviewArtifact {
	if embed == nil {
		return types.ReviewArtifact{}
	}
	a := types.ReviewArtifact{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	for _, f := range embed.Fields {
		if f == nil {
			continue
		}
		a.Fields = append(a.Fields, types.Field{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if embed.Thumbnail != nil {
		a.ThumbnailURL = embed.Thumbnail.URL
	}
	if embed.Footer != nil {
		a.Footer = embed.Footer.Text
	}
	if ts, err := time.Parse(time.RFC3339, embed.Timestamp); err == nil {
		a.Timestamp = ts
	}
	return a
}

// toComponents lays controls out on a single action row. It returns nil for
// no controls.
func toComponents(controls []types.Control) []discordgo.MessageComponent {
	if len(controls) == 0 {
		return nil
	}
	row := discordgo.ActionsRow{}
	for _, c := range controls {
		style, ok := buttonStyles[c.Style]
		if !ok {
			style = discordgo.SecondaryButton
		}
		row.Components = append(row.Components, discordgo.Button{Label: c.Label, Style: style, CustomID: c.ID})
	}
	return []discordgo.MessageComponent{row}
}

// controlsFromComponents recovers buttons from a received message. Decoded
// messages carry pointer components; locally built ones carry values.
func controlsFromComponents(components []discordgo.MessageComponent) []types.Control {
	var out []types.Control
	for _, component := range components {
		var inner []discordgo.MessageComponent
		switch row := component.(type) {
		case *discordgo.ActionsRow:
			inner = row.Components
		case discordgo.ActionsRow:
			inner = row.Components
		default:
			continue
		}
		for _, c := range inner {
			switch b := c.(type) {
			case *discordgo.Button:
				out = append(out, types.Control{ID: b.CustomID, Label: b.Label, Style: styleOf(b.Style)})
			case discordgo.Button:
				out = append(out, types.Control{ID: b.CustomID, Label: b.Label, Style: styleOf(b.Style)})
			}
		}
	}
	return out
}

func styleOf(style discordgo.ButtonStyle) types.ControlStyle {
	for k, v := range buttonStyles {
		if v == style {
			return k
		}
	}
	return ""
}

func requesterFromUser(u *discordgo.User) types.Requester {
	if u == nil {
		return types.Requester{}
	}
	created, _ := discordgo.SnowflakeTimestamp(u.ID)
	return types.Requester{
		ID:        u.ID,
		Username:  handleOf(u),
		Mention:   u.Mention(),
		AvatarURL: u.AvatarURL(""),
		CreatedAt: created,
	}
}

// handleOf keeps the legacy name#discriminator form for accounts that still
// have one.
func handleOf(u *discordgo.User) string {
	if u.Discriminator != "" && u.Discriminator != "0" {
		return u.Username + "#" + u.Discriminator
	}
	return u.Username
}

// interactionUser returns the invoking user for guild and DM interactions.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func inboundFromMessage(m *discordgo.Message) (types.InboundMessage, bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return types.InboundMessage{}, false
	}
	msg := types.InboundMessage{
		AuthorID:  m.Author.ID,
		ChannelID: m.ChannelID,
		Direct:    m.GuildID == "",
		Content:   m.Content,
	}
	for _, a := range m.Attachments {
		if a != nil && a.URL != "" {
			msg.Attachments = append(msg.Attachments, a.URL)
		}
	}
	return msg, true
}

func activationFromInteraction(i *discordgo.Interaction, controlID string) review.Activation {
	act := review.Activation{
		ControlID: controlID,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Moderator: requesterFromUser(interactionUser(i)),
	}
	if i.Message != nil {
		act.MessageID = i.Message.ID
		if len(i.Message.Embeds) > 0 {
			act.Artifact = fromEmbed(i.Message.Embeds[0])
		}
		act.Artifact.Controls = controlsFromComponents(i.Message.Components)
	}
	return act
}
