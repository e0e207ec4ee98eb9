package cogs

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"coinbot/games"
	"coinbot/games/coindrop"
	"coinbot/ledger"
	"coinbot/utils"
)

// errorEmbed maps gameplay rejections to specific notices and everything
// else to the generic failure.
func errorEmbed(err error) *discordgo.MessageEmbed {
	var insufficient *ledger.InsufficientFundsError
	var cooldown *ledger.CooldownError

	switch {
	case errors.As(err, &insufficient):
		return utils.InsufficientFundsEmbed(insufficient.Requested, insufficient.Balance)
	case errors.As(err, &cooldown):
		return utils.CooldownEmbed(cooldown.Remaining)
	case errors.Is(err, games.ErrSessionAlreadyActive):
		return utils.ErrorEmbed("You already have a game in progress. Finish it first.")
	case errors.Is(err, games.ErrSessionNotFound), errors.Is(err, games.ErrSessionTimeout):
		return utils.ErrorEmbed("This game has already ended.")
	case errors.Is(err, games.ErrNotYourSession):
		return utils.ErrorEmbed("This isn't your game.")
	case errors.Is(err, ledger.ErrFundsHeld):
		return utils.ErrorEmbed("Those coins are riding on a game in progress. Finish it first.")
	case errors.Is(err, coindrop.ErrAlreadyClaimed):
		return utils.ErrorEmbed("Someone else grabbed these coins first.")
	case errors.Is(err, coindrop.ErrDropExpired), errors.Is(err, coindrop.ErrDropNotFound):
		return utils.ErrorEmbed("This coin drop has expired.")
	case games.IsUserError(err):
		return utils.ErrorEmbed(capitalize(err.Error()))
	default:
		return utils.ErrorEmbed(utils.GenericFailure)
	}
}

func isExpected(err error) bool {
	return games.IsUserError(err) || coindrop.IsClaimRejection(err)
}

// respondError answers privately; unexpected errors are logged
func (b *Bot) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	if !isExpected(err) {
		log.Error().Err(err).Str("interaction", i.ID).Msg("interaction failed")
	}
	utils.SendInteractionResponse(s, i, errorEmbed(err), nil, true)
}

// respondNotice answers privately with a plain message
func respondNotice(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	utils.SendInteractionResponse(s, i, utils.ErrorEmbed(message), nil, true)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
