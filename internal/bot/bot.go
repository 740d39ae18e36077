// Package bot is the Discord gateway adapter. It translates gateway events
// into award engine calls and formats the engine's outcomes as replies.
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Kurdishgpt/Slaw/internal/config"
	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/services"
	"github.com/Kurdishgpt/Slaw/pkg/logger"
)

// Bot owns the gateway session and forwards events to the award engine
type Bot struct {
	cfg          *config.Config
	session      *discordgo.Session
	awardService *services.AwardService
	status       *services.BotStatusTracker
}

// New creates the gateway session without opening it
func New(cfg *config.Config, awardService *services.AwardService, status *services.BotStatusTracker) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	return &Bot{
		cfg:          cfg,
		session:      session,
		awardService: awardService,
		status:       status,
	}, nil
}

// Start registers the event handlers and opens the gateway connection
func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageDelete)
	b.session.AddHandler(b.onVoiceStateUpdate)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		b.status.SetOnline(false)
		logger.Warn("discord gateway disconnected")
	})

	if b.cfg.Discord.TargetChannelID == "" {
		logger.Warn("target channel id not set, link tracking disabled")
	}

	return b.session.Open()
}

// Close shuts the gateway connection down
func (b *Bot) Close() {
	b.status.SetOnline(false)
	if err := b.session.Close(); err != nil {
		logger.Errorf("failed to close discord session: %v", err)
	}
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.status.SetOnline(true)
	logger.Infof("bot logged in as %s", s.State.User.String())
	b.registerCommands(s)
}

func (b *Bot) registerCommands(s *discordgo.Session) {
	_, err := s.ApplicationCommandCreate(s.State.User.ID, "", &discordgo.ApplicationCommand{
		Name:        "login",
		Description: "Link your dashboard API key to your Discord account",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "apikey",
				Description: "Your dashboard API key",
				Required:    true,
			},
		},
	})
	if err != nil {
		logger.Errorf("failed to register slash commands: %v", err)
		return
	}
	logger.Info("slash commands registered")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if b.cfg.Discord.TargetChannelID == "" || m.ChannelID != b.cfg.Discord.TargetChannelID {
		return
	}

	result, err := b.awardService.HandleMessage(context.Background(), models.MessagePosted{
		UserID:        m.Author.ID,
		Username:      m.Author.Username,
		Discriminator: discriminatorOf(m.Author),
		Avatar:        avatarOf(m.Author),
		ChannelID:     m.ChannelID,
		MessageID:     m.ID,
		Text:          m.Content,
	})
	if err != nil {
		logger.Errorf("failed to process message %s: %v", m.ID, err)
		b.reply(s, m.Message, "❌ An error occurred while processing your request.")
		return
	}
	if result == nil {
		return
	}
	b.status.Touch()

	switch result.Code {
	case services.OutcomeAwarded:
		emoji := "📋"
		if result.Type == models.ActivityLinkInvite {
			emoji = "🎫"
		}
		b.reply(s, m.Message, fmt.Sprintf("%s +1 point! You now have %d points. (%d/%d daily links)",
			emoji, result.Points, result.DailyLinksPosted, services.DailyLinkLimit))
	case services.OutcomeMaxPointsReached:
		b.reply(s, m.Message, fmt.Sprintf("❌ You have reached the maximum points limit (%d). No more points can be earned.", services.MaxPoints))
	case services.OutcomeDailyLimitReached:
		b.reply(s, m.Message, fmt.Sprintf("❌ You have reached the daily link limit (%d). Try again in 24 hours.", services.DailyLinkLimit))
	case services.OutcomeDuplicateLink:
		b.reply(s, m.Message, "❌ This link has already been posted and awarded points.")
	case services.OutcomeCooldownActive:
		b.reply(s, m.Message, fmt.Sprintf("⏰ Cooldown active. You can earn points again in %d hour(s).", result.RemainingHours))
	case services.OutcomeExtractionFailed:
		// Already logged by the engine; nothing useful to tell the user
	}
}

func (b *Bot) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if err := b.awardService.HandleMessageDeleted(context.Background(), models.MessageDeleted{
		MessageID: m.ID,
	}); err != nil {
		logger.Errorf("failed to process deletion of message %s: %v", m.ID, err)
	}
}

func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.Member == nil || v.Member.User == nil || v.Member.User.Bot {
		return
	}

	var previousChannelID *string
	if v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" {
		id := v.BeforeUpdate.ChannelID
		previousChannelID = &id
	}
	var newChannelID, newChannelName *string
	if v.ChannelID != "" {
		id := v.ChannelID
		newChannelID = &id
		name := b.channelName(s, v.ChannelID)
		newChannelName = &name
	}

	if err := b.awardService.HandleVoiceState(context.Background(), models.VoiceStateChanged{
		UserID:            v.UserID,
		Username:          v.Member.User.Username,
		Discriminator:     discriminatorOf(v.Member.User),
		Avatar:            avatarOf(v.Member.User),
		PreviousChannelID: previousChannelID,
		NewChannelID:      newChannelID,
		NewChannelName:    newChannelName,
	}); err != nil {
		logger.Errorf("failed to process voice state for user %s: %v", v.UserID, err)
		return
	}
	b.status.Touch()
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != "login" {
		return
	}
	user := i.User
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	apiKey := data.Options[0].StringValue()
	outcome, err := b.awardService.LinkAccount(context.Background(), models.LoginRequested{
		UserID:        user.ID,
		Username:      user.Username,
		Discriminator: discriminatorOf(user),
		Avatar:        avatarOf(user),
		Key:           apiKey,
	})
	if err != nil {
		logger.Errorf("failed to link account for user %s: %v", user.ID, err)
		b.respondEphemeral(s, i, "❌ Failed to link API key. Please try again.")
		return
	}

	switch outcome {
	case services.OutcomeKeyLinked:
		b.respondEphemeral(s, i, "✅ Your Discord account has been successfully linked!")
	case services.OutcomeKeyAlreadyLinked:
		b.respondEphemeral(s, i, "❌ This API key is already linked to another Discord account.")
	case services.OutcomeKeyNotFound:
		b.respondEphemeral(s, i, "❌ Invalid API key. Please check and try again.")
	}
}

func (b *Bot) reply(s *discordgo.Session, m *discordgo.Message, content string) {
	if _, err := s.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		logger.Errorf("failed to reply in channel %s: %v", m.ChannelID, err)
	}
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Errorf("failed to respond to interaction: %v", err)
	}
}

func (b *Bot) channelName(s *discordgo.Session, id string) string {
	if ch, err := s.State.Channel(id); err == nil {
		return ch.Name
	}
	if ch, err := s.Channel(id); err == nil {
		return ch.Name
	}
	return id
}

// Discord migrated usernames off discriminators; "0" means none
func discriminatorOf(u *discordgo.User) *string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return nil
	}
	d := u.Discriminator
	return &d
}

func avatarOf(u *discordgo.User) *string {
	if u.Avatar == "" {
		return nil
	}
	a := u.Avatar
	return &a
}
