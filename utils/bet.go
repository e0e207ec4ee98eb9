package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseBet parses a bet string such as "500", "1k", "50%", "half" or "all"
// against the caller's balance. It does not enforce the minimum bet.
func ParseBet(betStr string, balance int64) (int64, error) {
	betStr = strings.TrimSpace(strings.ToLower(betStr))
	betStr = strings.ReplaceAll(betStr, ",", "")
	betStr = strings.ReplaceAll(betStr, "_", "")

	switch betStr {
	case "":
		return 0, fmt.Errorf("bet amount is required")
	case "all", "allin", "max":
		return balance, nil
	case "half":
		return balance / 2, nil
	}

	if strings.HasSuffix(betStr, "%") {
		percentStr := strings.TrimSuffix(betStr, "%")
		percent, err := strconv.ParseFloat(percentStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid percentage: %s", betStr)
		}
		if percent < 0 || percent > 100 {
			return 0, fmt.Errorf("percentage must be between 0 and 100")
		}
		return int64(float64(balance) * percent / 100), nil
	}

	multiplier := int64(1)
	if strings.HasSuffix(betStr, "k") {
		multiplier = 1000
		betStr = strings.TrimSuffix(betStr, "k")
	} else if strings.HasSuffix(betStr, "m") {
		multiplier = 1000000
		betStr = strings.TrimSuffix(betStr, "m")
	}

	bet, err := strconv.ParseInt(betStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bet amount: %s", betStr)
	}
	if bet > math.MaxInt64/multiplier || bet < math.MinInt64/multiplier {
		return 0, fmt.Errorf("bet amount is too large: %s", betStr)
	}

	return bet * multiplier, nil
}
