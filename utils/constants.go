package utils

// General Configuration
const (
	BotName  = "Coin Bot"
	BotColor = 0x5865F2
)

// Embed colors
const (
	ColorSuccess = 0x2ECC71
	ColorError   = 0xE74C3C
	ColorInfo    = 0x3498DB
	ColorWarning = 0xF39C12
	ColorGold    = 0xF1C40F
)

// Blackjack Game Constants
const (
	DealerStandValue = 17
	BlackjackValue   = 21
)

// Higher or Lower Constants
const (
	HigherLowerMin = 1
	HigherLowerMax = 10
)

// Leaderboard
const LeaderboardSize = 10

// UI Messages
const (
	GameTimeoutMessage = "You did not respond in time. The game has ended and your bet of %s %s was not charged."
	GenericFailure     = "Something went wrong while talking to the bank. Please try again later."
)

// Emojis
const (
	CoinEmoji = "🪙"
)
