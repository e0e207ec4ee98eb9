package cogs

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"coinbot/games/coinflip"
	"coinbot/utils"
)

func (b *Bot) handleCoinflipCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := commandOptions(i)
	rawSide, _ := opts.string("side")
	side, err := coinflip.ParseSide(rawSide)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	userID, ok := b.invoker(ctx, s, i)
	if !ok {
		return
	}

	raw, wagered := opts.string("bet")
	res, err := b.playCoinflip(ctx, userID, side, raw, wagered)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	utils.SendInteractionResponse(s, i, coinflipEmbed(res), nil, false)
}

// playCoinflip tosses for fun only when no bet was given; an explicit bet,
// zero included, is a wager
func (b *Bot) playCoinflip(ctx context.Context, userID int64, side coinflip.Side, rawBet string, wagered bool) (coinflip.Result, error) {
	if !wagered {
		return b.Coinflip.Toss(side)
	}
	bet, err := b.parseBet(ctx, userID, rawBet)
	if err != nil {
		return coinflip.Result{}, err
	}
	return b.Coinflip.Flip(ctx, userID, side, bet)
}

func (b *Bot) handleGambleCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, ok := b.invoker(ctx, s, i)
	if !ok {
		return
	}
	raw, _ := commandOptions(i).string("amount")
	amount, err := b.parseBet(ctx, userID, raw)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	multiplier := 1.0
	if guildID := b.guildID(i); guildID != 0 {
		if multiplier, err = b.Settings.CoinMultiplier(ctx, guildID); err != nil {
			log.Warn().Err(err).Int64("guild_id", guildID).Msg("failed to load coin multiplier, using 1")
			multiplier = 1
		}
	}

	res, err := b.Coinflip.Gamble(ctx, userID, amount, multiplier)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	utils.SendInteractionResponse(s, i, gambleEmbed(res, multiplier), nil, false)
}

func coinflipEmbed(res coinflip.Result) *discordgo.MessageEmbed {
	verdict := "You called it!"
	if !res.Won {
		verdict = "Better luck next time."
	}
	body := fmt.Sprintf("You called **%s** and the coin landed on **%s**.\n%s", res.Called, res.Landed, verdict)

	if res.Settlement == nil {
		color := utils.ColorSuccess
		if !res.Won {
			color = utils.ColorError
		}
		return utils.CreateBrandedEmbed("🪙 Coin Flip", body, color)
	}
	return utils.ResultEmbed("🪙 Coin Flip", body, res.Settlement.Delta, res.Settlement.Balance)
}

func gambleEmbed(res coinflip.Result, multiplier float64) *discordgo.MessageEmbed {
	var body string
	if res.Won {
		body = fmt.Sprintf("🎉 You won with a **%sx** multiplier!", formatMultiplier(multiplier))
	} else {
		body = "😞 You lost half your stake."
	}
	return utils.ResultEmbed("🎰 Gamble", body, res.Settlement.Delta, res.Settlement.Balance)
}

func formatMultiplier(m float64) string {
	s := fmt.Sprintf("%.2f", m)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
