package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"coinbot/cogs"
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

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	utils.InitLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	ledgerStore, guildStore, pool := setupStores(ctx, cfg.DatabaseURL)
	if pool != nil {
		defer pool.Close()
	}

	cache := ledger.NewAccountCache(5*time.Minute, time.Minute)
	defer cache.Close()
	bank := ledger.New(ledgerStore, cache)
	settings := guildcfg.NewSettings(guildStore)

	rng := utils.NewRand()
	manager := games.NewManager()

	redisClient, err := utils.SetupRedis(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, one game per account is enforced in process only")
	} else if redisClient != nil {
		defer redisClient.Close()
		manager.UseSlots(games.NewRedisSlots(redisClient))
	}
	// Closed before redis so abandoned sessions can free their slots.
	defer manager.Close()

	var scheduler atomic.Pointer[coindrop.Scheduler]
	server := newHealthServer(cfg.Port, func() (map[string]int, int) {
		drops := 0
		if sched := scheduler.Load(); sched != nil {
			drops = sched.Open()
		}
		return manager.Stats(), drops
	})
	go func() {
		log.Info().Str("port", cfg.Port).Msg("health server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()
	defer shutdownServer(server)

	if cfg.BotToken == "" {
		log.Warn().Msg("BOT_TOKEN not set - Discord bot will not connect")
		setStatus("no_token")
		<-ctx.Done()
		return
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to create Discord session")
		setStatus("error")
		<-ctx.Done()
		return
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	drops := coindrop.NewScheduler(bank, settings, cogs.NewDropPoster(session), rng, coindrop.Config{
		MinInterval: cfg.Games.DropMinInterval,
		MaxInterval: cfg.Games.DropMaxInterval,
		Window:      cfg.Games.DropWindow,
		MinReward:   cfg.Games.DropMinReward,
		MaxReward:   cfg.Games.DropMaxReward,
	})
	scheduler.Store(drops)

	bot := cogs.NewBot(cogs.Deps{
		Ledger:   bank,
		Settings: settings,
		Blackjack: blackjack.New(bank, manager, rng, blackjack.Config{
			MinBet:  cfg.Games.MinBet,
			Timeout: cfg.Games.BlackjackTimeout,
		}),
		HigherLower: higherorlower.New(bank, manager, rng, higherorlower.Config{
			MinBet:  cfg.Games.MinBet,
			Timeout: cfg.Games.HigherLowerTimeout,
		}),
		Coinflip: coinflip.New(bank, manager, rng, cfg.Games.MinBet),
		Dice: dice.New(bank, rng, dice.Config{
			Cooldown:  cfg.Games.RollCooldown,
			MinReward: cfg.Games.RollMinReward,
			MaxReward: cfg.Games.RollMaxReward,
		}),
		Drops: drops,
	})
	manager.OnAbandon(bot.HandleAbandon)

	session.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		onReady(s, event, cfg.GuildID)
	})
	session.AddHandler(bot.HandleInteraction)

	if err := session.Open(); err != nil {
		log.Error().Err(err).Msg("failed to open Discord connection")
		setStatus("connection_failed")
		<-ctx.Done()
		return
	}
	defer session.Close()

	dropsDone := make(chan struct{})
	go func() {
		defer close(dropsDone)
		drops.Run(ctx)
	}()

	log.Info().Msg("Bot is now running. Press CTRL+C to exit.")
	setStatus("running")

	<-ctx.Done()
	log.Info().Msg("Gracefully shutting down...")
	setStatus("shutting_down")
	<-dropsDone
}

// setupStores connects to Postgres, or falls back to memory when no database is configured or reachable
func setupStores(ctx context.Context, databaseURL string) (ledger.Store, guildcfg.Store, *pgxpool.Pool) {
	if databaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set - balances are kept in memory")
		return ledger.NewMemoryStore(), guildcfg.NewMemoryStore(), nil
	}

	pool, err := utils.SetupDatabase(ctx, databaseURL)
	if err != nil {
		log.Error().Err(err).Msg("database setup failed, bot will continue without database features")
		return ledger.NewMemoryStore(), guildcfg.NewMemoryStore(), nil
	}

	log.Info().Msg("database connected successfully")
	return ledger.NewPostgresStore(pool), guildcfg.NewPostgresStore(pool), pool
}

func onReady(s *discordgo.Session, event *discordgo.Ready, guildID string) {
	log.Info().Str("user", event.User.Username).Str("id", event.User.ID).Msg("Discord bot logged in")
	setStatus("online")

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: "/blackjack for coins",
				Type: discordgo.ActivityTypeGame,
			},
		},
		Status: "online",
	}); err != nil {
		log.Warn().Err(err).Msg("failed to update status")
	}

	if err := cogs.RegisterCommands(s, guildID); err != nil {
		log.Error().Err(err).Msg("failed to register slash commands")
	}
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("health server shutdown failed")
	}
}
