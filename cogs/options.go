package cogs

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"coinbot/games"
	"coinbot/utils"
)

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func commandOptions(i *discordgo.InteractionCreate) options {
	opts := make(options)
	for _, opt := range i.ApplicationCommandData().Options {
		opts[opt.Name] = opt
	}
	return opts
}

func (o options) string(name string) (string, bool) {
	opt, ok := o[name]
	if !ok {
		return "", false
	}
	return opt.StringValue(), true
}

func (o options) int(name string) (int64, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	return opt.IntValue(), true
}

func (o options) number(name string) (float64, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	return opt.FloatValue(), true
}

// user resolves a user option, preferring the resolved payload for the username
func (o options) user(i *discordgo.InteractionCreate, name string) (*discordgo.User, bool) {
	opt, ok := o[name]
	if !ok {
		return nil, false
	}
	id, _ := opt.Value.(string)
	if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
		if u, ok := resolved.Users[id]; ok {
			return u, true
		}
	}
	return &discordgo.User{ID: id}, true
}

func (o options) channel(name string) (string, bool) {
	opt, ok := o[name]
	if !ok {
		return "", false
	}
	id, _ := opt.Value.(string)
	return id, id != ""
}

// parseBet resolves shorthand such as "all" or "50%" against the caller's balance
func (b *Bot) parseBet(ctx context.Context, userID int64, raw string) (int64, error) {
	balance, err := b.Ledger.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}
	bet, err := utils.ParseBet(raw, balance)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", games.ErrInvalidBet, err)
	}
	return bet, nil
}

func betOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "bet",
		Description: "Your bet (supports 'all', 'half', percentages like '50%', or amounts like '1k')",
		Required:    required,
	}
}
