package models

// Inbound gateway events, decoupled from the wire format so the award engine
// can be driven by any event source.

// MessagePosted is a message observed in a guild text channel.
type MessagePosted struct {
	UserID        string
	Username      string
	Discriminator *string
	Avatar        *string
	ChannelID     string
	MessageID     string
	Text          string
}

// MessageDeleted is a message removal; only the id survives deletion.
type MessageDeleted struct {
	MessageID string
}

// VoiceStateChanged is a voice join, leave, or channel switch.
// NewChannelName is resolved by the gateway adapter when NewChannelID is set.
type VoiceStateChanged struct {
	UserID            string
	Username          string
	Discriminator     *string
	Avatar            *string
	PreviousChannelID *string
	NewChannelID      *string
	NewChannelName    *string
}

// LoginRequested is a /login slash command linking an API key to a member.
type LoginRequested struct {
	UserID        string
	Username      string
	Discriminator *string
	Avatar        *string
	Key           string
}
