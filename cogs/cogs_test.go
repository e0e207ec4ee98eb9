package cogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"coinbot/games"
	"coinbot/games/blackjack"
	"coinbot/games/coindrop"
	"coinbot/games/coinflip"
	"coinbot/games/higherorlower"
	"coinbot/ledger"
	"coinbot/models"
	"coinbot/utils"
)

func TestEveryCommandIsRouted(t *testing.T) {
	b := NewBot(Deps{})
	seen := make(map[string]bool)

	for _, cmd := range Commands() {
		if seen[cmd.Name] {
			t.Errorf("Duplicate command %q", cmd.Name)
		}
		seen[cmd.Name] = true
		if _, ok := b.commands[cmd.Name]; !ok {
			t.Errorf("Command %q has no handler", cmd.Name)
		}
	}
	for name := range b.commands {
		if !seen[name] {
			t.Errorf("Handler %q is not registered as a command", name)
		}
	}
}

func TestAdminCommandsRequireAdministrator(t *testing.T) {
	admin := map[string]bool{
		"addcurr": true, "rmbalance": true, "setbalance": true,
		"resetbalance": true, "coinmultiplier": true, "setdropchannel": true,
	}

	for _, cmd := range Commands() {
		restricted := cmd.DefaultMemberPermissions != nil && *cmd.DefaultMemberPermissions == discordgo.PermissionAdministrator
		if admin[cmd.Name] != restricted {
			t.Errorf("Command %q: expected admin-only %v, got %v", cmd.Name, admin[cmd.Name], restricted)
		}
	}
}

func TestErrorEmbed(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		title string
		want  string
	}{
		{"insufficient", &ledger.InsufficientFundsError{Balance: 5, Requested: 50}, "Not Enough Coins", "50"},
		{"cooldown", &ledger.CooldownError{Remaining: 90 * time.Second}, "🎲 Slow Down", "1m 30s"},
		{"active", games.ErrSessionAlreadyActive, "Error", "already have a game"},
		{"timeout", fmt.Errorf("submit: %w", games.ErrSessionTimeout), "Error", "already ended"},
		{"not yours", games.ErrNotYourSession, "Error", "isn't your game"},
		{"held", fmt.Errorf("send: %w", ledger.ErrFundsHeld), "Error", "riding on a game"},
		{"claimed", coindrop.ErrAlreadyClaimed, "Error", "first"},
		{"expired", coindrop.ErrDropExpired, "Error", "expired"},
		{"bad bet", fmt.Errorf("%w: the minimum bet is 10", games.ErrInvalidBet), "Error", "Invalid bet: the minimum bet is 10"},
		{"storage", errors.New("connection refused"), "Error", utils.GenericFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := errorEmbed(tt.err)
			if embed.Title != tt.title {
				t.Errorf("Expected title %q, got %q", tt.title, embed.Title)
			}
			if !strings.Contains(embed.Description, tt.want) {
				t.Errorf("Expected description to contain %q, got %q", tt.want, embed.Description)
			}
		})
	}
}

func TestCoinflipZeroBetIsNotAFreeFlip(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(ledger.NewMemoryStore(), nil)
	l.Credit(ctx, 1, 100, "seed")
	m := games.NewManager()
	defer m.Close()
	b := NewBot(Deps{Ledger: l, Coinflip: coinflip.New(l, m, utils.NewSeededRand(1), 10)})

	if _, err := b.playCoinflip(ctx, 1, coinflip.Heads, "0", true); !errors.Is(err, games.ErrInvalidBet) {
		t.Errorf("Expected an explicit 0 bet to be rejected, got %v", err)
	}
	res, err := b.playCoinflip(ctx, 1, coinflip.Heads, "", false)
	if err != nil {
		t.Fatalf("playCoinflip() without a bet error = %v", err)
	}
	if res.Settlement != nil {
		t.Errorf("Expected an unwagered toss, got %+v", res.Settlement)
	}
	res, err = b.playCoinflip(ctx, 1, coinflip.Heads, "10", true)
	if err != nil || res.Settlement == nil || res.Bet != 10 {
		t.Errorf("Expected a settled 10 coin flip, got %+v, %v", res, err)
	}
}

func TestStorageErrorsAreNotLeaked(t *testing.T) {
	embed := errorEmbed(errors.New("pq: relation accounts does not exist"))
	if strings.Contains(embed.Description, "relation") {
		t.Errorf("Storage detail leaked into %q", embed.Description)
	}
}

func TestOutcomeTextCoversEveryOutcome(t *testing.T) {
	for o := games.OutcomeBlackjack; o <= games.OutcomeGambleLoss; o++ {
		if text := outcomeText(o); strings.HasPrefix(text, "Outcome:") {
			t.Errorf("Outcome %s has no text", o)
		}
	}
}

func TestBlackjackComponents(t *testing.T) {
	live := blackjack.Snapshot{SessionID: "abc", State: blackjack.StatePlayerTurn}
	rows := blackjackComponents(live)
	if len(rows) != 1 {
		t.Fatalf("Expected one action row, got %d", len(rows))
	}
	row := rows[0].(discordgo.ActionsRow)
	if len(row.Components) != 2 {
		t.Fatalf("Expected 2 buttons, got %d", len(row.Components))
	}
	hit := row.Components[0].(discordgo.Button)
	if hit.CustomID != "blackjack:hit:abc" {
		t.Errorf("Expected blackjack:hit:abc, got %s", hit.CustomID)
	}

	done := blackjack.Snapshot{SessionID: "abc", State: blackjack.StateSettled}
	if rows := blackjackComponents(done); len(rows) != 0 {
		t.Errorf("Expected no buttons on a settled table, got %d", len(rows))
	}
}

func TestBlackjackEmbedHidesHoleCard(t *testing.T) {
	snap := blackjack.Snapshot{
		Bet:         100,
		State:       blackjack.StatePlayerTurn,
		Player:      []utils.Card{utils.NewCard(10, utils.Spades), utils.NewCard(7, utils.Hearts)},
		Dealer:      []utils.Card{utils.NewCard(9, utils.Clubs), {Rank: utils.King, Suit: utils.Hearts, Hidden: true}},
		PlayerScore: 17,
		DealerScore: 9,
	}
	embed := blackjackEmbed(snap, 500)

	if len(embed.Fields) != 2 {
		t.Fatalf("Expected 2 fields while playing, got %d", len(embed.Fields))
	}
	if !strings.Contains(embed.Fields[1].Value, "??") {
		t.Errorf("Expected hidden dealer card, got %q", embed.Fields[1].Value)
	}
	if !strings.Contains(embed.Fields[1].Name, "(9)") {
		t.Errorf("Expected dealer score 9, got %q", embed.Fields[1].Name)
	}
}

func TestHigherLowerComponents(t *testing.T) {
	live := higherorlower.Snapshot{SessionID: "xyz", State: higherorlower.StateAwaitingGuess, Base: 4}
	row := higherLowerComponents(live)[0].(discordgo.ActionsRow)
	lower := row.Components[1].(discordgo.Button)
	if lower.CustomID != "higherorlower:lower:xyz" {
		t.Errorf("Expected higherorlower:lower:xyz, got %s", lower.CustomID)
	}

	done := higherorlower.Snapshot{
		SessionID:  "xyz",
		State:      higherorlower.StateRevealed,
		Base:       4,
		Next:       9,
		Guess:      higherorlower.Higher,
		Settlement: &games.Settlement{Outcome: games.OutcomeHigherLowerWin, Delta: 50, Balance: 150},
	}
	if rows := higherLowerComponents(done); len(rows) != 0 {
		t.Errorf("Expected no buttons after reveal, got %d", len(rows))
	}
	if embed := higherLowerEmbed(done); !strings.Contains(embed.Description, "**9**") {
		t.Errorf("Expected revealed number in %q", embed.Description)
	}
}

func TestLeaderboardEntriesFallBackToMention(t *testing.T) {
	entries := leaderboardEntries([]models.Account{
		{UserID: 1, Username: "alice", Balance: 900},
		{UserID: 2, Balance: 300},
	})
	if entries[0].Name != "alice" {
		t.Errorf("Expected alice, got %s", entries[0].Name)
	}
	if entries[1].Name != "<@2>" {
		t.Errorf("Expected <@2>, got %s", entries[1].Name)
	}
}

func TestHistoryEmbed(t *testing.T) {
	if embed := historyEmbed(nil); embed.Description != "No coin movements yet." {
		t.Errorf("Unexpected empty history %q", embed.Description)
	}

	embed := historyEmbed([]models.LedgerEntry{
		{Kind: models.EntryCredit, Amount: 1500, BalanceAfter: 1500, CreatedAt: time.Unix(100, 0)},
		{Kind: models.EntryDebit, Amount: -200, BalanceAfter: 1300, CreatedAt: time.Unix(200, 0)},
	})
	if !strings.Contains(embed.Description, "+1,500") {
		t.Errorf("Expected signed credit in %q", embed.Description)
	}
	if !strings.Contains(embed.Description, "-200") {
		t.Errorf("Expected debit in %q", embed.Description)
	}
}

func TestResolvedDropEmbed(t *testing.T) {
	d := &coindrop.Drop{ID: "d1", Reward: 120}

	claimed := resolvedDropEmbed(d, coindrop.Result{Status: coindrop.StatusClaimed, Claimant: 42})
	if !strings.Contains(claimed.Description, "<@42>") {
		t.Errorf("Expected claimant mention, got %q", claimed.Description)
	}
	expired := resolvedDropEmbed(d, coindrop.Result{Status: coindrop.StatusExpired})
	if !strings.Contains(expired.Title, "Expired") {
		t.Errorf("Expected expired title, got %q", expired.Title)
	}

	button := dropComponents(d)[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	if button.CustomID != "coindrop:claim:d1" {
		t.Errorf("Expected coindrop:claim:d1, got %s", button.CustomID)
	}
}

func TestFormatMultiplier(t *testing.T) {
	tests := map[float64]string{1: "1", 1.5: "1.5", 2.25: "2.25", 0.1: "0.1"}
	for in, want := range tests {
		if got := formatMultiplier(in); got != want {
			t.Errorf("formatMultiplier(%v): expected %s, got %s", in, want, got)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName(&discordgo.User{ID: "1", Username: "bob", GlobalName: "Bobby"}); got != "Bobby" {
		t.Errorf("Expected Bobby, got %s", got)
	}
	if got := displayName(&discordgo.User{ID: "1"}); got != "<@1>" {
		t.Errorf("Expected <@1>, got %s", got)
	}
}
