// Package cogs connects discordgo events to the ledger and the games:
// slash-command registration, command and button routing, and rendering.
package cogs

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"coinbot/games"
	"coinbot/games/blackjack"
	"coinbot/games/coindrop"
	"coinbot/games/coinflip"
	"coinbot/games/dice"
	"coinbot/games/higherorlower"
	"coinbot/guildcfg"
	"coinbot/ledger"
	"coinbot/utils"
)

// commandTimeout bounds the storage work behind one interaction
const commandTimeout = 10 * time.Second

type commandHandler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate)

type Deps struct {
	Ledger      *ledger.Ledger
	Settings    *guildcfg.Settings
	Blackjack   *blackjack.Game
	HigherLower *higherorlower.Game
	Coinflip    *coinflip.Game
	Dice        *dice.Game
	Drops       *coindrop.Scheduler
}

// pendingGame is the message a live session renders into
type pendingGame struct {
	session     *discordgo.Session
	interaction *discordgo.InteractionCreate
}

// Bot routes interactions to the cog handlers
type Bot struct {
	Deps

	commands map[string]commandHandler
	buttons  map[string]commandHandler

	mu      sync.Mutex
	pending map[string]pendingGame
}

func NewBot(deps Deps) *Bot {
	b := &Bot{
		Deps:    deps,
		pending: make(map[string]pendingGame),
	}
	b.commands = map[string]commandHandler{
		"blackjack":      b.handleBlackjackCommand,
		"higherorlower":  b.handleHigherLowerCommand,
		"coinflip":       b.handleCoinflipCommand,
		"gamble":         b.handleGambleCommand,
		"balance":        b.handleBalanceCommand,
		"leaderboard":    b.handleLeaderboardCommand,
		"send":           b.handleSendCommand,
		"roll":           b.handleRollCommand,
		"history":        b.handleHistoryCommand,
		"addcurr":        b.handleAddCurrCommand,
		"rmbalance":      b.handleRmBalanceCommand,
		"setbalance":     b.handleSetBalanceCommand,
		"resetbalance":   b.handleResetBalanceCommand,
		"coinmultiplier": b.handleCoinMultiplierCommand,
		"setdropchannel": b.handleSetDropChannelCommand,
	}
	b.buttons = map[string]commandHandler{
		blackjackPrefix:   b.handleBlackjackButton,
		higherLowerPrefix: b.handleHigherLowerButton,
		coinDropPrefix:    b.handleCoinDropButton,
	}
	return b
}

// Commands lists every slash command the bot registers
func Commands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	commands = append(commands, gameCommands()...)
	commands = append(commands, economyCommands()...)
	commands = append(commands, adminCommands()...)
	return commands
}

// RegisterCommands overwrites the application's commands, per guild when guildID is set
func RegisterCommands(s *discordgo.Session, guildID string) error {
	created, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands())
	if err != nil {
		return err
	}
	log.Info().Int("count", len(created)).Str("guild_id", guildID).Msg("registered slash commands")
	return nil
}

// HandleInteraction is the single discordgo InteractionCreate handler
func (b *Bot) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		handler, ok := b.commands[name]
		if !ok {
			return
		}
		start := time.Now()
		handler(ctx, s, i)
		utils.CommandLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	case discordgo.InteractionMessageComponent:
		parts := utils.SplitComponentID(i.MessageComponentData().CustomID)
		if handler, ok := b.buttons[parts[0]]; ok {
			handler(ctx, s, i)
		}
	}
}

// HandleAbandon renders a timed-out session; it is the manager's OnAbandon hook
func (b *Bot) HandleAbandon(sess games.Session) {
	p, ok := b.forget(sess.ID())
	if !ok {
		return
	}

	var bet int64
	if wagered, ok := sess.(interface{ Bet() int64 }); ok {
		bet = wagered.Bet()
	}
	if err := utils.EditOriginalInteraction(p.session, p.interaction, utils.GameTimeoutEmbed(bet), []discordgo.MessageComponent{}); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID()).Msg("failed to render abandoned game")
	}
}

func (b *Bot) track(sessionID string, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.mu.Lock()
	b.pending[sessionID] = pendingGame{session: s, interaction: i}
	b.mu.Unlock()
}

func (b *Bot) forget(sessionID string) (pendingGame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[sessionID]
	delete(b.pending, sessionID)
	return p, ok
}

// invoker resolves the calling user and registers their account lazily
func (b *Bot) invoker(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) (int64, bool) {
	user := utils.InteractionUser(i)
	if user == nil {
		return 0, false
	}
	userID, err := utils.ParseUserID(user.ID)
	if err != nil {
		log.Warn().Err(err).Str("user", user.ID).Msg("unparseable user id")
		return 0, false
	}
	if _, err := b.Ledger.Register(ctx, userID, user.Username); err != nil {
		b.respondError(s, i, err)
		return 0, false
	}
	return userID, true
}

func (b *Bot) guildID(i *discordgo.InteractionCreate) int64 {
	if i.GuildID == "" {
		return 0
	}
	id, err := utils.ParseUserID(i.GuildID)
	if err != nil {
		return 0
	}
	return id
}
