package models

// Guild configuration keys
const (
	GuildKeyDropChannel    = "drop_channel"
	GuildKeyCoinMultiplier = "coin_multiplier"
)

// GuildSetting is one key/value pair of per-guild configuration
type GuildSetting struct {
	GuildID int64  `json:"guild_id"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}
