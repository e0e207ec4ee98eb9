package utils

import "testing"

func TestParseBet(t *testing.T) {
	tests := []struct {
		in      string
		balance int64
		want    int64
		wantErr bool
	}{
		{"50", 100, 50, false},
		{" 1,000 ", 5000, 1000, false},
		{"1k", 0, 1000, false},
		{"2m", 0, 2000000, false},
		{"all", 340, 340, false},
		{"half", 341, 170, false},
		{"50%", 300, 150, false},
		{"150%", 300, 0, true},
		{"", 100, 0, true},
		{"ten", 100, 0, true},
		{"18446744073709552k", 100, 0, true},
		{"9223372036854776k", 100, 0, true},
		{"-9223372036854776k", 100, 0, true},
		{"9223372036854m", 100, 9223372036854000000, false},
	}
	for _, tt := range tests {
		got, err := ParseBet(tt.in, tt.balance)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBet(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBet(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
