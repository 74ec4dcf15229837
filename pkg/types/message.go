package types

// InboundMessage is a message observed by the bot.
type InboundMessage struct {
	AuthorID  string
	ChannelID string
	// Direct is true when the message was sent in the author's private
	// channel with the bot rather than in a guild channel.
	Direct      bool
	Content     string
	Attachments []string
}
