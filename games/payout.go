package games

import (
	"fmt"
	"math"
)

// Outcome is the closed set of terminal results a round can settle with
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeBlackjack
	OutcomePlayerWin
	OutcomeDealerBust
	OutcomeBust
	OutcomeDealerWin
	OutcomeDealerBlackjack
	OutcomePush
	OutcomeHigherLowerWin
	OutcomeHigherLowerLoss
	OutcomeCoinflipWin
	OutcomeCoinflipLoss
	OutcomeGambleWin
	OutcomeGambleLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBlackjack:
		return "blackjack"
	case OutcomePlayerWin:
		return "player_win"
	case OutcomeDealerBust:
		return "dealer_bust"
	case OutcomeBust:
		return "bust"
	case OutcomeDealerWin:
		return "dealer_win"
	case OutcomeDealerBlackjack:
		return "dealer_blackjack"
	case OutcomePush:
		return "push"
	case OutcomeHigherLowerWin:
		return "higher_lower_win"
	case OutcomeHigherLowerLoss:
		return "higher_lower_loss"
	case OutcomeCoinflipWin:
		return "coinflip_win"
	case OutcomeCoinflipLoss:
		return "coinflip_loss"
	case OutcomeGambleWin:
		return "gamble_win"
	case OutcomeGambleLoss:
		return "gamble_loss"
	default:
		return "none"
	}
}

// Delta maps a terminal outcome to the signed balance change for a bet.
// multiplier only scales gamble wins; every other outcome pays 1x.
func Delta(o Outcome, bet int64, multiplier float64) (int64, error) {
	switch o {
	case OutcomeBlackjack, OutcomePlayerWin, OutcomeDealerBust, OutcomeHigherLowerWin, OutcomeCoinflipWin:
		return bet, nil
	case OutcomeBust, OutcomeDealerWin, OutcomeDealerBlackjack, OutcomeHigherLowerLoss, OutcomeCoinflipLoss:
		return -bet, nil
	case OutcomePush:
		return 0, nil
	case OutcomeGambleWin:
		if multiplier <= 0 {
			multiplier = 1
		}
		return int64(math.Floor(float64(bet) * multiplier)), nil
	case OutcomeGambleLoss:
		return -(bet / 2), nil
	default:
		return 0, fmt.Errorf("unhandled outcome %d", o)
	}
}

// IsWin reports whether the outcome pays the player
func (o Outcome) IsWin() bool {
	switch o {
	case OutcomeBlackjack, OutcomePlayerWin, OutcomeDealerBust, OutcomeHigherLowerWin, OutcomeCoinflipWin, OutcomeGambleWin:
		return true
	default:
		return false
	}
}
