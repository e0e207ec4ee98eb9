package cogs

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"coinbot/games/higherorlower"
	"coinbot/utils"
)

const higherLowerPrefix = "higherorlower"

func (b *Bot) handleHigherLowerCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, ok := b.invoker(ctx, s, i)
	if !ok {
		return
	}
	raw, _ := commandOptions(i).string("bet")
	bet, err := b.parseBet(ctx, userID, raw)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	snap, err := b.HigherLower.Start(ctx, userID, bet)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.track(snap.SessionID, s, i)
	if err := utils.SendInteractionResponse(s, i, higherLowerEmbed(snap), higherLowerComponents(snap), false); err != nil {
		log.Warn().Err(err).Str("session_id", snap.SessionID).Msg("failed to send higher or lower prompt")
	}
}

func (b *Bot) handleHigherLowerButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	parts := utils.SplitComponentID(i.MessageComponentData().CustomID)
	if len(parts) != 3 {
		return
	}
	user := utils.InteractionUser(i)
	if user == nil {
		return
	}
	userID, err := utils.ParseUserID(user.ID)
	if err != nil {
		return
	}

	snap, err := b.HigherLower.Submit(ctx, parts[2], userID, higherorlower.Guess(parts[1]))
	if err != nil && snap.Settlement == nil {
		b.respondError(s, i, err)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", snap.SessionID).Msg("higher or lower settlement failed")
	}

	b.forget(snap.SessionID)
	if err := utils.UpdateComponentInteraction(s, i, higherLowerEmbed(snap), higherLowerComponents(snap)); err != nil {
		log.Warn().Err(err).Str("session_id", snap.SessionID).Msg("failed to update higher or lower result")
	}
}

func higherLowerComponents(snap higherorlower.Snapshot) []discordgo.MessageComponent {
	if snap.State != higherorlower.StateAwaitingGuess {
		return []discordgo.MessageComponent{}
	}
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton(utils.ComponentID(higherLowerPrefix, string(higherorlower.Higher), snap.SessionID), "Higher", discordgo.SuccessButton, false, &discordgo.ComponentEmoji{Name: "⬆️"}),
			utils.CreateButton(utils.ComponentID(higherLowerPrefix, string(higherorlower.Lower), snap.SessionID), "Lower", discordgo.DangerButton, false, &discordgo.ComponentEmoji{Name: "⬇️"}),
		),
	}
}

func higherLowerEmbed(snap higherorlower.Snapshot) *discordgo.MessageEmbed {
	if snap.Settlement == nil {
		return utils.CreateBrandedEmbed(
			"🔢 Higher or Lower",
			fmt.Sprintf("The number is **%d** (%d-%d).\nWill the next one be higher or lower?\n\n**Bet:** %s %s",
				snap.Base, utils.HigherLowerMin, utils.HigherLowerMax, utils.FormatCoins(snap.Bet), utils.CoinEmoji),
			utils.ColorInfo,
		)
	}

	body := fmt.Sprintf("The number was **%d**. You guessed **%s** and the next number was **%d**.\n%s",
		snap.Base, snap.Guess, snap.Next, outcomeText(snap.Settlement.Outcome))
	return utils.ResultEmbed("🔢 Higher or Lower", body, snap.Settlement.Delta, snap.Settlement.Balance)
}
