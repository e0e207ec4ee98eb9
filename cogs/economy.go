package cogs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"coinbot/ledger"
	"coinbot/models"
	"coinbot/utils"
)

const historySize = 10

func economyCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Check your coin balance or someone else's",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Whose balance to show",
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the richest players",
		},
		{
			Name:        "send",
			Description: "Send coins to another player",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Who receives the coins",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "How many coins to send",
					Required:    true,
				},
			},
		},
		{
			Name:        "roll",
			Description: "Roll the dice for free coins once an hour",
		},
		{
			Name:        "history",
			Description: "Show your most recent coin movements",
		},
	}
}

func (b *Bot) handleBalanceCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if target, ok := commandOptions(i).user(i, "user"); ok {
		targetID, err := utils.ParseUserID(target.ID)
		if err != nil {
			respondNotice(s, i, "Unknown user.")
			return
		}
		balance, err := b.Ledger.GetBalance(ctx, targetID)
		if err != nil {
			b.respondError(s, i, err)
			return
		}
		utils.SendInteractionResponse(s, i, utils.BalanceEmbed(displayName(target), balance), nil, false)
		return
	}

	userID, ok := b.invoker(ctx, s, i)
	if !ok {
		return
	}
	balance, err := b.Ledger.GetBalance(ctx, userID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	utils.SendInteractionResponse(s, i, utils.BalanceEmbed(displayName(utils.InteractionUser(i)), balance), nil, false)
}

func (b *Bot) handleLeaderboardCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	accounts, err := b.Ledger.Top(ctx, utils.LeaderboardSize)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	utils.SendInteractionResponse(s, i, utils.LeaderboardEmbed(leaderboardEntries(accounts)), nil, false)
}

func (b *Bot) handleSendCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, ok := b.invoker(ctx, s, i)
	if !ok {
		return
	}
	opts := commandOptions(i)
	target, _ := opts.user(i, "user")
	amount, _ := opts.int("amount")

	if target == nil || target.Bot {
		respondNotice(s, i, "You can't send coins to a bot.")
		return
	}
	targetID, err := utils.ParseUserID(target.ID)
	if err != nil {
		respondNotice(s, i, "Unknown user.")
		return
	}

	ref := fmt.Sprintf("send:%d:%d", userID, targetID)
	fromBalance, _, err := b.Ledger.Transfer(ctx, userID, targetID, amount, ref)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	log.Info().Int64("user_id", userID).Int64("to", targetID).Int64("amount", amount).Msg("coins sent")
	embed := utils.CreateBrandedEmbed(
		"💸 Coins Sent",
		fmt.Sprintf("You sent %s %s to <@%s>.\n**Your balance:** %s %s",
			utils.FormatCoins(amount), utils.CoinEmoji, target.ID, utils.FormatCoins(fromBalance), utils.CoinEmoji),
		utils.ColorSuccess,
	)
	utils.SendInteractionResponse(s, i, embed, nil, false)
}

func (b *Bot) handleRollCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, ok := b.invoker(ctx, s, i)
	if !ok {
		return
	}

	res, err := b.Dice.Roll(ctx, userID)
	if err != nil {
		var cooldown *ledger.CooldownError
		if errors.As(err, &cooldown) {
			utils.SendInteractionResponse(s, i, utils.CooldownEmbed(cooldown.Remaining), nil, true)
			return
		}
		b.respondError(s, i, err)
		return
	}

	embed := utils.ResultEmbed("🎲 Dice Roll", fmt.Sprintf("You rolled **%s** coins!", utils.FormatCoins(res.Amount)), res.Amount, res.Balance)
	utils.SendInteractionResponse(s, i, embed, nil, false)
}

func (b *Bot) handleHistoryCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, ok := b.invoker(ctx, s, i)
	if !ok {
		return
	}
	entries, err := b.Ledger.History(ctx, userID, historySize)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	utils.SendInteractionResponse(s, i, historyEmbed(entries), nil, true)
}

func leaderboardEntries(accounts []models.Account) []utils.LeaderboardEntry {
	entries := make([]utils.LeaderboardEntry, 0, len(accounts))
	for _, acc := range accounts {
		name := acc.Username
		if name == "" {
			name = fmt.Sprintf("<@%d>", acc.UserID)
		}
		entries = append(entries, utils.LeaderboardEntry{Name: name, Balance: acc.Balance})
	}
	return entries
}

func historyEmbed(entries []models.LedgerEntry) *discordgo.MessageEmbed {
	if len(entries) == 0 {
		return utils.CreateBrandedEmbed("📜 History", "No coin movements yet.", utils.ColorInfo)
	}

	var sb strings.Builder
	for _, e := range entries {
		amount := utils.FormatCoins(e.Amount)
		if e.Amount > 0 && e.Kind != models.EntrySet {
			amount = "+" + amount
		}
		fmt.Fprintf(&sb, "`%s` **%s** %s → %s <t:%d:R>\n",
			e.Kind, amount, utils.CoinEmoji, utils.FormatCoins(e.BalanceAfter), e.CreatedAt.Unix())
	}
	return utils.CreateBrandedEmbed("📜 History", sb.String(), utils.ColorInfo)
}

func displayName(u *discordgo.User) string {
	if u == nil {
		return "Unknown"
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	if u.Username != "" {
		return u.Username
	}
	return "<@" + u.ID + ">"
}
