package notify

import (
	"context"
	"fmt"
	"time"

	"betpool/models"

	"github.com/bwmarrin/discordgo"
)

// Embed colors
const (
	ColorPrimary = 0x5865F2
	ColorSuccess = 0x57F287
	ColorDanger  = 0xED4245
	ColorWarning = 0xFEE75C
)

// ChannelSender is the part of a discordgo session the sink needs
type ChannelSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSink posts each notification once to a shared channel
type DiscordSink struct {
	session   ChannelSender
	channelID string
}

func NewDiscordSink(session ChannelSender, channelID string) *DiscordSink {
	return &DiscordSink{
		session:   session,
		channelID: channelID,
	}
}

// OpenDiscordSession creates a bot session for token
func OpenDiscordSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return dg, nil
}

func (s *DiscordSink) Name() string { return "discord" }

func (s *DiscordSink) Deliver(ctx context.Context, n Notification) error {
	if _, err := s.session.ChannelMessageSendEmbed(s.channelID, buildEmbed(n), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post notification to channel %s: %w", s.channelID, err)
	}
	return nil
}

func buildEmbed(n Notification) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Description,
		Color:       embedColor(n.Type),
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d recipient(s)", len(n.Recipients)),
		},
	}
	if betID, ok := n.Data["bet_id"]; ok {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Bet",
			Value:  fmt.Sprintf("#%v", betID),
			Inline: true,
		})
	}
	return embed
}

func embedColor(t models.NotificationType) int {
	switch t {
	case models.NotificationTypeBetResolved:
		return ColorSuccess
	case models.NotificationTypeBetDeleted:
		return ColorDanger
	case models.NotificationTypeBetReverted, models.NotificationTypeBetInProgress:
		return ColorWarning
	default:
		return ColorPrimary
	}
}
