// Package discord adapts a discordgo session to the narrow interfaces used by
// the interview, submission and review packages, and wires gateway events to
// them.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/davidahmann/agegate/pkg/types"
)

// Discord JSON error codes mapped to sentinel errors.
const (
	codeUnknownChannel     = 10003
	codeUnknownMember      = 10007
	codeUnknownMessage     = 10008
	codeUnknownRole        = 10011
	codeUnknownUser        = 10013
	codeMissingAccess      = 50001
	codeCannotMessageUser  = 50007
	codeMissingPermissions = 50013
)

// Client implements the platform capabilities on top of a discordgo session.
type Client struct {
	session *discordgo.Session
}

func NewClient(session *discordgo.Session) *Client {
	return &Client{session: session}
}

func (c *Client) SendDirect(ctx context.Context, userID string, content string) error {
	channel, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return mapError(fmt.Sprintf("open dm %s", userID), err)
	}
	if _, err := c.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx)); err != nil {
		return mapError(fmt.Sprintf("send dm %s", userID), err)
	}
	return nil
}

func (c *Client) ResolveChannel(ctx context.Context, channelID string) error {
	if c.session.State != nil {
		if _, err := c.session.State.Channel(channelID); err == nil {
			return nil
		}
	}
	if _, err := c.session.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		return mapError(fmt.Sprintf("channel %s", channelID), err)
	}
	return nil
}

func (c *Client) PostArtifact(ctx context.Context, channelID string, artifact types.ReviewArtifact) (string, error) {
	msg, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{toEmbed(artifact)},
		Components: toComponents(artifact.Controls),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(fmt.Sprintf("post to %s", channelID), err)
	}
	return msg.ID, nil
}

// EditArtifact replaces the embed and the components of a message. An
// artifact without controls clears every component.
func (c *Client) EditArtifact(ctx context.Context, channelID, messageID string, artifact types.ReviewArtifact) error {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetEmbed(toEmbed(artifact))
	components := toComponents(artifact.Controls)
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	edit.Components = &components

	if _, err := c.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return mapError(fmt.Sprintf("edit %s/%s", channelID, messageID), err)
	}
	return nil
}

func (c *Client) Member(ctx context.Context, guildID, userID string) (types.Requester, error) {
	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return types.Requester{}, mapError(fmt.Sprintf("member %s", userID), err)
	}
	if member.User == nil {
		return types.Requester{}, fmt.Errorf("member %s: %w", userID, types.ErrNotFound)
	}
	return requesterFromUser(member.User), nil
}

func (c *Client) RoleExists(ctx context.Context, guildID, roleID string) error {
	if c.session.State != nil {
		if _, err := c.session.State.Role(guildID, roleID); err == nil {
			return nil
		}
	}
	roles, err := c.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return mapError(fmt.Sprintf("roles of %s", guildID), err)
	}
	for _, role := range roles {
		if role.ID == roleID {
			return nil
		}
	}
	return fmt.Errorf("role %s: %w", roleID, types.ErrNotFound)
}

func (c *Client) GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	err := c.session.GuildMemberRoleAdd(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return mapError(fmt.Sprintf("grant %s to %s", roleID, userID), err)
	}
	return nil
}

// mapError wraps REST failures with the sentinel matching their cause.
func mapError(op string, err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case codeCannotMessageUser:
			return fmt.Errorf("%s: %w", op, types.ErrDirectMessagesClosed)
		case codeUnknownChannel, codeUnknownMember, codeUnknownMessage, codeUnknownRole, codeUnknownUser:
			return fmt.Errorf("%s: %w", op, types.ErrNotFound)
		case codeMissingAccess, codeMissingPermissions:
			return fmt.Errorf("%s: %w", op, types.ErrForbidden)
		}
	}

	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, types.ErrNotFound)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w", op, types.ErrForbidden)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
