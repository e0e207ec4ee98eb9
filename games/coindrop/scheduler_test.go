package coindrop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coinbot/ledger"
	"coinbot/utils"
)

type staticChannels map[int64]string

func (c staticChannels) DropChannels(ctx context.Context) (map[int64]string, error) {
	return c, nil
}

type fakePoster struct {
	posted   chan *Drop
	resolved chan Result
	failPost bool
}

func newFakePoster() *fakePoster {
	return &fakePoster{posted: make(chan *Drop, 10), resolved: make(chan Result, 10)}
}

func (p *fakePoster) PostDrop(ctx context.Context, d *Drop) (string, error) {
	if p.failPost {
		return "", errors.New("missing access")
	}
	p.posted <- d
	return "msg-" + d.ID, nil
}

func (p *fakePoster) ResolveDrop(ctx context.Context, d *Drop, res Result) error {
	p.resolved <- res
	return nil
}

var testConfig = Config{
	MinInterval: time.Minute,
	MaxInterval: 2 * time.Minute,
	Window:      time.Second,
	MinReward:   50,
	MaxReward:   250,
}

func setup(t *testing.T, cfg Config) (*Scheduler, *fakePoster, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(ledger.NewMemoryStore(), nil)
	p := newFakePoster()
	s := NewScheduler(l, staticChannels{1: "100"}, p, utils.NewSeededRand(1), cfg)
	return s, p, l
}

func waitPosted(t *testing.T, p *fakePoster) *Drop {
	t.Helper()
	select {
	case d := <-p.posted:
		return d
	case <-time.After(time.Second):
		t.Fatal("Drop was not posted")
		return nil
	}
}

func waitResolved(t *testing.T, p *fakePoster) Result {
	t.Helper()
	select {
	case res := <-p.resolved:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("Drop was not resolved")
		return Result{}
	}
}

func TestFirstClaimWins(t *testing.T) {
	s, p, l := setup(t, testConfig)
	ctx := context.Background()

	if err := s.DropAll(ctx); err != nil {
		t.Fatalf("DropAll() error = %v", err)
	}
	d := waitPosted(t, p)
	if d.GuildID != 1 || d.ChannelID != "100" || d.Reward < 50 || d.Reward > 250 {
		t.Fatalf("Unexpected drop %+v", d)
	}

	res, err := s.Claim(ctx, d.ID, 10)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if res.Claimant != 10 || res.Balance != d.Reward {
		t.Errorf("Unexpected claim result %+v", res)
	}

	if _, err := s.Claim(ctx, d.ID, 11); !errors.Is(err, ErrAlreadyClaimed) && !errors.Is(err, ErrDropNotFound) {
		t.Errorf("Expected second claim to be rejected, got %v", err)
	}

	final := waitResolved(t, p)
	if final.Status != StatusClaimed || final.Claimant != 10 {
		t.Errorf("Expected drop resolved to 10, got %+v", final)
	}
	if bal, _ := l.GetBalance(ctx, 11); bal != 0 {
		t.Errorf("Expected loser balance 0, got %d", bal)
	}
}

func TestConcurrentClaims(t *testing.T) {
	s, p, l := setup(t, testConfig)
	ctx := context.Background()

	s.DropAll(ctx)
	d := waitPosted(t, p)

	var wg sync.WaitGroup
	var winners atomic.Int32
	for user := int64(1); user <= 25; user++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Claim(ctx, d.ID, user); err == nil {
				winners.Add(1)
			} else if !IsClaimRejection(err) {
				t.Errorf("Unexpected claim error %v", err)
			}
		}()
	}
	wg.Wait()
	waitResolved(t, p)

	if winners.Load() != 1 {
		t.Fatalf("Expected exactly one winner, got %d", winners.Load())
	}
	var total int64
	for user := int64(1); user <= 25; user++ {
		bal, _ := l.GetBalance(ctx, user)
		total += bal
	}
	if total != d.Reward {
		t.Errorf("Expected %d credited once, got %d", d.Reward, total)
	}
}

func TestDropExpires(t *testing.T) {
	cfg := testConfig
	cfg.Window = 30 * time.Millisecond
	s, p, l := setup(t, cfg)
	ctx := context.Background()

	s.DropAll(ctx)
	d := waitPosted(t, p)

	res := waitResolved(t, p)
	if res.Status != StatusExpired || res.Claimant != 0 {
		t.Errorf("Expected expired drop, got %+v", res)
	}
	if _, err := s.Claim(ctx, d.ID, 1); !IsClaimRejection(err) {
		t.Errorf("Expected late claim to be rejected, got %v", err)
	}
	if bal, _ := l.GetBalance(ctx, 1); bal != 0 {
		t.Errorf("Expected no reward, got %d", bal)
	}

	deadline := time.Now().Add(time.Second)
	for s.Open() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Open() != 0 {
		t.Errorf("Expected no open drops, got %d", s.Open())
	}
}

func TestPostFailureSkipsDrop(t *testing.T) {
	s, p, _ := setup(t, testConfig)
	p.failPost = true

	s.DropAll(context.Background())
	s.wg.Wait()
	if s.Open() != 0 {
		t.Errorf("Expected no open drops after a failed post, got %d", s.Open())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig
	cfg.MinInterval = 10 * time.Millisecond
	cfg.MaxInterval = 10 * time.Millisecond
	cfg.Window = 20 * time.Millisecond
	s, p, _ := setup(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitPosted(t, p)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNextInterval(t *testing.T) {
	s, _, _ := setup(t, Config{MinInterval: 30 * time.Minute, MaxInterval: 120 * time.Minute})
	for i := 0; i < 200; i++ {
		got := s.nextInterval()
		if got < 30*time.Minute || got > 120*time.Minute {
			t.Fatalf("Interval %s out of range", got)
		}
	}

	s, _, _ = setup(t, Config{MinInterval: 10 * time.Millisecond, MaxInterval: 20 * time.Millisecond})
	for i := 0; i < 200; i++ {
		got := s.nextInterval()
		if got < 10*time.Millisecond || got > 20*time.Millisecond {
			t.Fatalf("Interval %s out of range", got)
		}
	}
}
