package cogs

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"coinbot/games/coindrop"
	"coinbot/utils"
)

const coinDropPrefix = "coindrop"

// DropPoster publishes coin drops as channel messages with a claim button
type DropPoster struct {
	session *discordgo.Session
}

func NewDropPoster(s *discordgo.Session) *DropPoster {
	return &DropPoster{session: s}
}

func (p *DropPoster) PostDrop(ctx context.Context, d *coindrop.Drop) (string, error) {
	msg, err := p.session.ChannelMessageSendComplex(d.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{dropEmbed(d)},
		Components: dropComponents(d),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (p *DropPoster) ResolveDrop(ctx context.Context, d *coindrop.Drop, res coindrop.Result) error {
	embeds := []*discordgo.MessageEmbed{resolvedDropEmbed(d, res)}
	components := []discordgo.MessageComponent{}
	_, err := p.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         d.MessageID,
		Channel:    d.ChannelID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	return err
}

func (b *Bot) handleCoinDropButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
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
	if _, err := b.Ledger.Register(ctx, userID, user.Username); err != nil {
		b.respondError(s, i, err)
		return
	}

	res, err := b.Drops.Claim(ctx, parts[2], userID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	embed := utils.CreateBrandedEmbed(
		"💰 Coins Claimed",
		fmt.Sprintf("You grabbed the drop!\n**Balance:** %s %s", utils.FormatCoins(res.Balance), utils.CoinEmoji),
		utils.ColorGold,
	)
	utils.SendInteractionResponse(s, i, embed, nil, true)
}

func dropComponents(d *coindrop.Drop) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton(utils.ComponentID(coinDropPrefix, "claim", d.ID), "Claim", discordgo.SuccessButton, false, &discordgo.ComponentEmoji{Name: utils.CoinEmoji}),
		),
	}
}

func dropEmbed(d *coindrop.Drop) *discordgo.MessageEmbed {
	return utils.CreateBrandedEmbed(
		"💰 Coin Drop!",
		fmt.Sprintf("**%s %s** just dropped! First to click **Claim** gets them.\nExpires <t:%d:R>.",
			utils.FormatCoins(d.Reward), utils.CoinEmoji, d.ExpiresAt.Unix()),
		utils.ColorGold,
	)
}

func resolvedDropEmbed(d *coindrop.Drop, res coindrop.Result) *discordgo.MessageEmbed {
	if res.Status == coindrop.StatusClaimed {
		return utils.CreateBrandedEmbed(
			"💰 Coin Drop Claimed",
			fmt.Sprintf("<@%d> claimed **%s %s**.", res.Claimant, utils.FormatCoins(d.Reward), utils.CoinEmoji),
			utils.ColorSuccess,
		)
	}
	return utils.CreateBrandedEmbed(
		"💰 Coin Drop Expired",
		fmt.Sprintf("Nobody claimed the **%s %s** in time.", utils.FormatCoins(d.Reward), utils.CoinEmoji),
		utils.ColorWarning,
	)
}
