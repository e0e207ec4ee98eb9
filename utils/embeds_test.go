package utils

import (
	"strings"
	"testing"
	"time"
)

func TestFormatCoins(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
	}
	for _, tt := range tests {
		if got := FormatCoins(tt.in); got != tt.want {
			t.Errorf("FormatCoins(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{1500 * time.Millisecond, "2s"},
		{59 * time.Second, "59s"},
		{42*time.Minute + 3*time.Second, "42m 3s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResultEmbedColor(t *testing.T) {
	if e := ResultEmbed("Win", "", 10, 110); e.Color != ColorSuccess {
		t.Errorf("Expected success color for a win, got %d", e.Color)
	}
	if e := ResultEmbed("Loss", "", -10, 90); e.Color != ColorError {
		t.Errorf("Expected error color for a loss, got %d", e.Color)
	}
	if e := ResultEmbed("Push", "", 0, 100); e.Color != ColorWarning {
		t.Errorf("Expected warning color for a push, got %d", e.Color)
	}
}

func TestBlackjackEmbedResultField(t *testing.T) {
	player := HandView{Cards: []string{"A♠", "K♥"}, Score: 21}
	dealer := HandView{Cards: []string{"9♣", "??"}, Score: 9}

	open := BlackjackEmbed(player, dealer, 50, "", 0, 100, false)
	if len(open.Fields) != 2 {
		t.Errorf("Expected 2 fields while playing, got %d", len(open.Fields))
	}

	done := BlackjackEmbed(player, dealer, 50, "Blackjack!", 50, 150, true)
	if len(done.Fields) != 3 {
		t.Fatalf("Expected 3 fields when finished, got %d", len(done.Fields))
	}
	if !strings.Contains(done.Fields[2].Value, "+50") || !strings.Contains(done.Fields[2].Value, "150") {
		t.Errorf("Unexpected result field %q", done.Fields[2].Value)
	}
}

func TestLeaderboardEmbed(t *testing.T) {
	e := LeaderboardEmbed([]LeaderboardEntry{{Name: "a", Balance: 2000}, {Name: "b", Balance: 10}})
	if !strings.HasPrefix(e.Description, "**1.** a: 2,000") {
		t.Errorf("Unexpected leaderboard %q", e.Description)
	}
	if empty := LeaderboardEmbed(nil); !strings.Contains(empty.Description, "Nobody") {
		t.Errorf("Unexpected empty leaderboard %q", empty.Description)
	}
}
