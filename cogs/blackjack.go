package cogs

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"coinbot/games"
	"coinbot/games/blackjack"
	"coinbot/utils"
)

const blackjackPrefix = "blackjack"

func gameCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "blackjack",
			Description: "Play a game of blackjack",
			Options:     []*discordgo.ApplicationCommandOption{betOption(true)},
		},
		{
			Name:        "higherorlower",
			Description: "Guess whether the next number is higher or lower",
			Options:     []*discordgo.ApplicationCommandOption{betOption(true)},
		},
		{
			Name:        "coinflip",
			Description: "Flip a coin, optionally with a bet",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "side",
					Description: "Heads or tails",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Heads", Value: "heads"},
						{Name: "Tails", Value: "tails"},
					},
				},
				betOption(false),
			},
		},
		{
			Name:        "gamble",
			Description: "Risk coins on a 50/50: win the multiplier or lose half",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "amount",
					Description: "How much to gamble ('all', 'half', '50%' or an amount)",
					Required:    true,
				},
			},
		},
	}
}

func (b *Bot) handleBlackjackCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
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

	snap, err := b.Blackjack.Start(ctx, userID, bet)
	if err != nil && snap.SessionID == "" {
		b.respondError(s, i, err)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", snap.SessionID).Msg("blackjack settlement failed")
	}

	if !snap.Finished() {
		b.track(snap.SessionID, s, i)
	}
	balance, _ := b.Ledger.GetBalance(ctx, userID)
	if err := utils.SendInteractionResponse(s, i, blackjackEmbed(snap, balance), blackjackComponents(snap), false); err != nil {
		log.Warn().Err(err).Str("session_id", snap.SessionID).Msg("failed to send blackjack table")
	}
}

func (b *Bot) handleBlackjackButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
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

	snap, err := b.Blackjack.Submit(ctx, parts[2], userID, blackjack.Choice(parts[1]))
	if err != nil && snap.SessionID == "" {
		b.respondError(s, i, err)
		return
	}
	if err != nil && !snap.Finished() {
		b.respondError(s, i, err)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", snap.SessionID).Msg("blackjack settlement failed")
	}

	if snap.Finished() {
		b.forget(snap.SessionID)
	}
	balance, _ := b.Ledger.GetBalance(ctx, userID)
	if err := utils.UpdateComponentInteraction(s, i, blackjackEmbed(snap, balance), blackjackComponents(snap)); err != nil {
		log.Warn().Err(err).Str("session_id", snap.SessionID).Msg("failed to update blackjack table")
	}
}

func blackjackComponents(snap blackjack.Snapshot) []discordgo.MessageComponent {
	if snap.Finished() {
		return []discordgo.MessageComponent{}
	}
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton(utils.ComponentID(blackjackPrefix, string(blackjack.Hit), snap.SessionID), "Hit", discordgo.PrimaryButton, false, &discordgo.ComponentEmoji{Name: "🃏"}),
			utils.CreateButton(utils.ComponentID(blackjackPrefix, string(blackjack.Stand), snap.SessionID), "Stand", discordgo.SecondaryButton, false, &discordgo.ComponentEmoji{Name: "✋"}),
		),
	}
}

func blackjackEmbed(snap blackjack.Snapshot, balance int64) *discordgo.MessageEmbed {
	player := handView(snap.Player, snap.PlayerScore)
	dealer := handView(snap.Dealer, snap.DealerScore)

	if snap.Settlement == nil {
		return utils.BlackjackEmbed(player, dealer, snap.Bet, "", 0, balance, false)
	}
	return utils.BlackjackEmbed(player, dealer, snap.Bet, outcomeText(snap.Settlement.Outcome), snap.Settlement.Delta, snap.Settlement.Balance, true)
}

func handView(cards []utils.Card, score int) utils.HandView {
	view := utils.HandView{Score: score}
	for _, c := range cards {
		view.Cards = append(view.Cards, c.String())
	}
	return view
}

func outcomeText(o games.Outcome) string {
	switch o {
	case games.OutcomeBlackjack:
		return "🎉 **Blackjack!** You win."
	case games.OutcomePlayerWin:
		return "🎉 **You win!**"
	case games.OutcomeDealerBust:
		return "🎉 **Dealer busts!** You win."
	case games.OutcomeBust:
		return "💥 **Bust!** You lose."
	case games.OutcomeDealerWin:
		return "😞 **Dealer wins.**"
	case games.OutcomeDealerBlackjack:
		return "😞 **Dealer hits 21.** You lose."
	case games.OutcomePush:
		return "🤝 **Push.** Your bet is returned."
	case games.OutcomeHigherLowerWin, games.OutcomeCoinflipWin, games.OutcomeGambleWin:
		return "🎉 **You win!**"
	case games.OutcomeHigherLowerLoss, games.OutcomeCoinflipLoss, games.OutcomeGambleLoss:
		return "😞 **You lose.**"
	default:
		return fmt.Sprintf("Outcome: %s", o)
	}
}
