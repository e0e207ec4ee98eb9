package utils

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting of the bot
type Config struct {
	BotToken    string `env:"BOT_TOKEN"`
	GuildID     string `env:"GUILD_ID"`
	DatabaseURL string `env:"DATABASE_URL"`
	Port        string `env:"PORT" envDefault:"8080"`

	Redis RedisConfig
	Log   LogConfig
	Games GameConfig
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// GameConfig tunes bets, waits and rewards
type GameConfig struct {
	MinBet             int64         `env:"MIN_BET" envDefault:"10"`
	BlackjackTimeout   time.Duration `env:"BLACKJACK_TIMEOUT" envDefault:"60s"`
	HigherLowerTimeout time.Duration `env:"HIGHER_LOWER_TIMEOUT" envDefault:"30s"`

	RollCooldown  time.Duration `env:"ROLL_COOLDOWN" envDefault:"1h"`
	RollMinReward int64         `env:"ROLL_MIN_REWARD" envDefault:"25"`
	RollMaxReward int64         `env:"ROLL_MAX_REWARD" envDefault:"250"`

	DropMinInterval time.Duration `env:"DROP_MIN_INTERVAL" envDefault:"30m"`
	DropMaxInterval time.Duration `env:"DROP_MAX_INTERVAL" envDefault:"120m"`
	DropWindow      time.Duration `env:"DROP_WINDOW" envDefault:"60s"`
	DropMinReward   int64         `env:"DROP_MIN_REWARD" envDefault:"50"`
	DropMaxReward   int64         `env:"DROP_MAX_REWARD" envDefault:"250"`
}

// LoadConfig reads an optional .env file and parses the environment
func LoadConfig() (Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Games.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects ranges that cannot produce a value
func (g GameConfig) Validate() error {
	if g.MinBet <= 0 {
		return fmt.Errorf("MIN_BET must be positive, got %d", g.MinBet)
	}
	if g.RollMinReward <= 0 || g.RollMaxReward < g.RollMinReward {
		return fmt.Errorf("invalid roll reward range %d..%d", g.RollMinReward, g.RollMaxReward)
	}
	if g.DropMinReward <= 0 || g.DropMaxReward < g.DropMinReward {
		return fmt.Errorf("invalid drop reward range %d..%d", g.DropMinReward, g.DropMaxReward)
	}
	if g.DropMinInterval <= 0 || g.DropMaxInterval < g.DropMinInterval {
		return fmt.Errorf("invalid drop interval %s..%s", g.DropMinInterval, g.DropMaxInterval)
	}
	if g.BlackjackTimeout <= 0 || g.HigherLowerTimeout <= 0 || g.DropWindow <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
