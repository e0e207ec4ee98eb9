package cogs

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"coinbot/utils"
)

var adminPermission int64 = discordgo.PermissionAdministrator

func adminCommands() []*discordgo.ApplicationCommand {
	userOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: "The player to adjust",
		Required:    true,
	}
	amountOption := func(description string, min float64) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "amount",
			Description: description,
			Required:    true,
			MinValue:    &min,
		}
	}
	multiplierMin := 0.01

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "addcurr",
			Description:              "Give coins to a player",
			DefaultMemberPermissions: &adminPermission,
			Options:                  []*discordgo.ApplicationCommandOption{userOption, amountOption("Coins to add", 1)},
		},
		{
			Name:                     "rmbalance",
			Description:              "Take coins from a player",
			DefaultMemberPermissions: &adminPermission,
			Options:                  []*discordgo.ApplicationCommandOption{userOption, amountOption("Coins to remove", 1)},
		},
		{
			Name:                     "setbalance",
			Description:              "Set a player's balance",
			DefaultMemberPermissions: &adminPermission,
			Options:                  []*discordgo.ApplicationCommandOption{userOption, amountOption("New balance", 0)},
		},
		{
			Name:                     "resetbalance",
			Description:              "Reset a player's balance to zero",
			DefaultMemberPermissions: &adminPermission,
			Options:                  []*discordgo.ApplicationCommandOption{userOption},
		},
		{
			Name:                     "coinmultiplier",
			Description:              "Show or set this server's gamble multiplier",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "amount",
					Description: "New multiplier (leave empty to show the current one)",
					MinValue:    &multiplierMin,
				},
			},
		},
		{
			Name:                     "setdropchannel",
			Description:              "Choose where coin drops appear (leave empty to turn them off)",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Drop channel",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
	}
}

// adminTarget reads the user option shared by the balance commands
func adminTarget(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.User, int64, bool) {
	target, ok := commandOptions(i).user(i, "user")
	if !ok {
		respondNotice(s, i, "A user is required.")
		return nil, 0, false
	}
	targetID, err := utils.ParseUserID(target.ID)
	if err != nil {
		respondNotice(s, i, "Unknown user.")
		return nil, 0, false
	}
	return target, targetID, true
}

func adminRef(action string, i *discordgo.InteractionCreate) string {
	admin := utils.InteractionUser(i)
	if admin == nil {
		return "admin:" + action
	}
	return fmt.Sprintf("admin:%s:%s", action, admin.ID)
}

func (b *Bot) handleAddCurrCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	target, targetID, ok := adminTarget(s, i)
	if !ok {
		return
	}
	amount, _ := commandOptions(i).int("amount")

	balance, err := b.Ledger.Credit(ctx, targetID, amount, adminRef("add", i))
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.adminDone(s, i, fmt.Sprintf("Added %s %s to <@%s>.", utils.FormatCoins(amount), utils.CoinEmoji, target.ID), balance)
}

func (b *Bot) handleRmBalanceCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	target, targetID, ok := adminTarget(s, i)
	if !ok {
		return
	}
	amount, _ := commandOptions(i).int("amount")

	balance, err := b.Ledger.Debit(ctx, targetID, amount, adminRef("remove", i))
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.adminDone(s, i, fmt.Sprintf("Removed %s %s from <@%s>.", utils.FormatCoins(amount), utils.CoinEmoji, target.ID), balance)
}

func (b *Bot) handleSetBalanceCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	target, targetID, ok := adminTarget(s, i)
	if !ok {
		return
	}
	amount, _ := commandOptions(i).int("amount")

	balance, err := b.Ledger.SetBalance(ctx, targetID, amount, adminRef("set", i))
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.adminDone(s, i, fmt.Sprintf("Set <@%s>'s balance.", target.ID), balance)
}

func (b *Bot) handleResetBalanceCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	target, targetID, ok := adminTarget(s, i)
	if !ok {
		return
	}

	balance, err := b.Ledger.Reset(ctx, targetID, adminRef("reset", i))
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.adminDone(s, i, fmt.Sprintf("Reset <@%s>'s balance.", target.ID), balance)
}

func (b *Bot) handleCoinMultiplierCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := b.guildID(i)
	if guildID == 0 {
		respondNotice(s, i, "This command only works in a server.")
		return
	}

	if m, ok := commandOptions(i).number("amount"); ok {
		if err := b.Settings.SetCoinMultiplier(ctx, guildID, m); err != nil {
			b.respondError(s, i, err)
			return
		}
		log.Info().Int64("guild_id", guildID).Float64("multiplier", m).Msg("coin multiplier updated")
		embed := utils.CreateBrandedEmbed("⚙️ Coin Multiplier", fmt.Sprintf("Gamble wins now pay **%sx**.", formatMultiplier(m)), utils.ColorSuccess)
		utils.SendInteractionResponse(s, i, embed, nil, true)
		return
	}

	m, err := b.Settings.CoinMultiplier(ctx, guildID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	embed := utils.CreateBrandedEmbed("⚙️ Coin Multiplier", fmt.Sprintf("Gamble wins pay **%sx**.", formatMultiplier(m)), utils.ColorInfo)
	utils.SendInteractionResponse(s, i, embed, nil, true)
}

func (b *Bot) handleSetDropChannelCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := b.guildID(i)
	if guildID == 0 {
		respondNotice(s, i, "This command only works in a server.")
		return
	}

	channelID, _ := commandOptions(i).channel("channel")
	if err := b.Settings.SetDropChannel(ctx, guildID, channelID); err != nil {
		b.respondError(s, i, err)
		return
	}

	log.Info().Int64("guild_id", guildID).Str("channel_id", channelID).Msg("drop channel updated")
	message := "Coin drops are turned off for this server."
	if channelID != "" {
		message = fmt.Sprintf("Coin drops will appear in <#%s>.", channelID)
	}
	utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("⚙️ Coin Drops", message, utils.ColorSuccess), nil, true)
}

func (b *Bot) adminDone(s *discordgo.Session, i *discordgo.InteractionCreate, message string, balance int64) {
	body := fmt.Sprintf("%s\n**New balance:** %s %s", message, utils.FormatCoins(balance), utils.CoinEmoji)
	utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("🛠️ Balance Updated", body, utils.ColorSuccess), nil, true)
}
