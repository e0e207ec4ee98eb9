package utils

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// CreateActionRow creates an action row with buttons
func CreateActionRow(buttons ...discordgo.MessageComponent) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: buttons,
	}
}

// CreateButton creates a button component
func CreateButton(customID, label string, style discordgo.ButtonStyle, disabled bool, emoji *discordgo.ComponentEmoji) discordgo.MessageComponent {
	button := discordgo.Button{
		CustomID: customID,
		Label:    label,
		Style:    style,
		Disabled: disabled,
	}

	if emoji != nil {
		button.Emoji = emoji
	}

	return button
}

// ComponentID joins a button's routing parts, e.g. "blackjack:hit:<session>"
func ComponentID(parts ...string) string {
	return strings.Join(parts, ":")
}

// SplitComponentID is the inverse of ComponentID
func SplitComponentID(customID string) []string {
	return strings.Split(customID, ":")
}

// SendInteractionResponse sends an interaction response with embed and components
func SendInteractionResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	return SendInteractionResponseWithTimeout(s, i, embed, components, ephemeral, 3*time.Second)
}

// SendInteractionResponseWithTimeout sends an interaction response with configurable timeout
func SendInteractionResponseWithTimeout(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool, timeout time.Duration) error {
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
		Components: components,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}

	err := callWithTimeout(timeout, func() error {
		return s.InteractionRespond(i.Interaction, response)
	})
	if err != nil {
		log.Warn().Err(err).Str("interaction", i.ID).Msg("interaction response failed")
	}
	return err
}

// UpdateComponentInteraction updates the message that owns the pressed component
func UpdateComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
			Components: components,
		},
	}

	return s.InteractionRespond(i.Interaction, response)
}

// EditOriginalInteraction edits the original interaction response, retrying transient failures.
// When the interaction token has expired the final state is posted to the channel instead.
func EditOriginalInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	embed = OptimizeEmbedPayload(embed)
	edit := &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	}

	var lastErr error
	for attempt := 0; attempt <= 2; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(50*attempt*attempt) * time.Millisecond)
		}
		_, err := s.InteractionResponseEdit(i.Interaction, edit)
		if err == nil {
			return nil
		}
		lastErr = err
		if isNonRetryableError(err) {
			break
		}
		log.Debug().Err(err).Int("attempt", attempt+1).Msg("edit interaction failed")
	}

	if !isWebhookExpiredError(lastErr) || i.ChannelID == "" {
		return lastErr
	}

	_, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	return err
}

// InteractionUser returns the invoking user in guilds and DMs alike
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// ParseUserID converts a Discord snowflake to int64
func ParseUserID(id string) (int64, error) { return strconv.ParseInt(id, 10, 64) }

// OptimizeEmbedPayload trims whitespace and drops empty parts of an embed
func OptimizeEmbedPayload(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed == nil {
		return embed
	}

	optimized := &discordgo.MessageEmbed{
		Title:       strings.TrimSpace(embed.Title),
		Description: strings.TrimSpace(embed.Description),
		Color:       embed.Color,
		Timestamp:   embed.Timestamp,
	}

	if embed.Footer != nil && strings.TrimSpace(embed.Footer.Text) != "" {
		optimized.Footer = &discordgo.MessageEmbedFooter{
			Text:    strings.TrimSpace(embed.Footer.Text),
			IconURL: embed.Footer.IconURL,
		}
	}

	if embed.Thumbnail != nil && embed.Thumbnail.URL != "" {
		optimized.Thumbnail = embed.Thumbnail
	}

	for _, field := range embed.Fields {
		if field != nil && strings.TrimSpace(field.Name) != "" && strings.TrimSpace(field.Value) != "" {
			optimized.Fields = append(optimized.Fields, &discordgo.MessageEmbedField{
				Name:   strings.TrimSpace(field.Name),
				Value:  strings.TrimSpace(field.Value),
				Inline: field.Inline,
			})
		}
	}

	return optimized
}

func callWithTimeout(timeout time.Duration, call func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- call()
	}()

	select {
	case err := <-resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isNonRetryableError checks if an error should not be retried
func isNonRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Unknown Webhook") ||
		strings.Contains(msg, "\"code\": 10015") ||
		strings.Contains(msg, "Unknown interaction") ||
		strings.Contains(msg, "400")
}

// isWebhookExpiredError checks if the error indicates an expired webhook
func isWebhookExpiredError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Unknown Webhook") ||
		strings.Contains(msg, "\"code\": 10015") ||
		strings.Contains(msg, "404") ||
		strings.Contains(msg, "Unknown interaction")
}
