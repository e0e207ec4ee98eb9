package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// HandView is the rendered form of one blackjack hand
type HandView struct {
	Cards []string
	Score int
}

// CreateBrandedEmbed creates a basic embed with bot branding
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: BotName,
		},
	}
}

// InsufficientFundsEmbed reports the caller's balance next to what was asked for
func InsufficientFundsEmbed(required, balance int64) *discordgo.MessageEmbed {
	embed := CreateBrandedEmbed(
		"Not Enough Coins",
		fmt.Sprintf("**Your balance:** %s %s\n**Required:** %s %s",
			FormatCoins(balance), CoinEmoji,
			FormatCoins(required), CoinEmoji),
		ColorError,
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:  "How to Get More Coins",
			Value: "• Use `/roll` once an hour\n• Claim coin drops when they appear\n• Ask a friend to `/send` you some",
		},
	}
	return embed
}

// ErrorEmbed is the generic red notice
func ErrorEmbed(message string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed("Error", message, ColorError)
}

// GameTimeoutEmbed tells the player the round was dropped without charging
func GameTimeoutEmbed(bet int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"⏰ Game Timeout",
		fmt.Sprintf(GameTimeoutMessage, FormatCoins(bet), CoinEmoji),
		ColorWarning,
	)
}

// BlackjackEmbed renders a blackjack table
func BlackjackEmbed(player, dealer HandView, bet int64, outcomeText string, delta, balance int64, finished bool) *discordgo.MessageEmbed {
	color := ColorInfo
	if finished {
		color = outcomeColor(delta)
	}

	embed := CreateBrandedEmbed("🃏 Blackjack", fmt.Sprintf("**Bet:** %s %s", FormatCoins(bet), CoinEmoji), color)
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:   fmt.Sprintf("Your Hand (%d)", player.Score),
			Value:  strings.Join(player.Cards, " "),
			Inline: true,
		},
		{
			Name:   fmt.Sprintf("Dealer Hand (%d)", dealer.Score),
			Value:  strings.Join(dealer.Cards, " "),
			Inline: true,
		},
	}

	if finished {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Result",
			Value: fmt.Sprintf("%s\n**Change:** %s%s %s\n**Balance:** %s %s", outcomeText, getProfitPrefix(delta), FormatCoins(delta), CoinEmoji, FormatCoins(balance), CoinEmoji),
		})
	}
	return embed
}

// ResultEmbed renders a single-step game result
func ResultEmbed(title, body string, delta, balance int64) *discordgo.MessageEmbed {
	embed := CreateBrandedEmbed(title, body, outcomeColor(delta))
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Change", Value: fmt.Sprintf("%s%s %s", getProfitPrefix(delta), FormatCoins(delta), CoinEmoji), Inline: true},
		{Name: "Balance", Value: fmt.Sprintf("%s %s", FormatCoins(balance), CoinEmoji), Inline: true},
	}
	return embed
}

// BalanceEmbed shows one account's balance
func BalanceEmbed(username string, balance int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		fmt.Sprintf("%s's Balance", username),
		fmt.Sprintf("%s %s", FormatCoins(balance), CoinEmoji),
		ColorGold,
	)
}

// LeaderboardEntry is one ranked line
type LeaderboardEntry struct {
	Name    string
	Balance int64
}

func LeaderboardEmbed(entries []LeaderboardEntry) *discordgo.MessageEmbed {
	if len(entries) == 0 {
		return CreateBrandedEmbed("🏆 Leaderboard", "Nobody has any coins yet.", ColorGold)
	}

	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "**%d.** %s: %s %s\n", i+1, e.Name, FormatCoins(e.Balance), CoinEmoji)
	}
	return CreateBrandedEmbed("🏆 Leaderboard", b.String(), ColorGold)
}

// CooldownEmbed reports how long until a timed reward is available again
func CooldownEmbed(remaining time.Duration) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"🎲 Slow Down",
		fmt.Sprintf("You can roll again in **%s**.", FormatDuration(remaining)),
		ColorWarning,
	)
}

// FormatCoins renders an amount with thousands separators
func FormatCoins(amount int64) string {
	if amount < 0 {
		return "-" + FormatNumber(-amount)
	}
	return FormatNumber(amount)
}

func FormatNumber(num int64) string {
	str := strconv.FormatInt(num, 10)
	if len(str) <= 3 {
		return str
	}

	// Add commas for thousands
	var result strings.Builder
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(r)
	}

	return result.String()
}

// FormatDuration prints minutes and seconds, rounding up to the next second
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	minutes, seconds := secs/60, secs%60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

func getProfitPrefix(profit int64) string {
	if profit > 0 {
		return "+"
	}
	return ""
}

func outcomeColor(delta int64) int {
	switch {
	case delta > 0:
		return ColorSuccess
	case delta < 0:
		return ColorError
	default:
		return ColorWarning
	}
}
