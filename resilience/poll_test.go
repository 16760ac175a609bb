package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func statusSequence(statuses ...string) (func(ctx context.Context) (string, bool, error), *int) {
	calls := 0
	return func(ctx context.Context) (string, bool, error) {
		s := statuses[calls]
		calls++
		return s, s == "COMPLETED" || s == "FAILED", nil
	}, &calls
}

func TestPoll_StopsAtTerminalState(t *testing.T) {
	rec := &recordingSleep{}
	check, calls := statusSequence("IN_PROGRESS", "IN_PROGRESS", "COMPLETED")

	got, err := Poll(context.Background(), PollConfig{
		Interval:      5 * time.Second,
		BackoffFactor: 2,
		MaxInterval:   30 * time.Second,
		Sleep:         rec.sleep,
	}, check)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "COMPLETED" {
		t.Errorf("expected COMPLETED, got %s", got)
	}
	if *calls != 3 {
		t.Errorf("expected 3 status checks, got %d", *calls)
	}
	if len(rec.delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(rec.delays))
	}
	if rec.delays[0] != 5*time.Second || rec.delays[1] != 10*time.Second {
		t.Errorf("expected backoff 5s then 10s, got %v", rec.delays)
	}
}

func TestPoll_FailedIsTerminal(t *testing.T) {
	rec := &recordingSleep{}
	check, calls := statusSequence("QUEUED", "FAILED")
	got, err := Poll(context.Background(), PollConfig{Interval: time.Second, Sleep: rec.sleep}, check)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "FAILED" || *calls != 2 || len(rec.delays) != 1 {
		t.Errorf("unexpected result %s after %d checks and %d sleeps", got, *calls, len(rec.delays))
	}
}

func TestPoll_BackoffIsCapped(t *testing.T) {
	rec := &recordingSleep{}
	check, _ := statusSequence("A", "A", "A", "A", "A", "COMPLETED")
	_, err := Poll(context.Background(), PollConfig{
		Interval:      4 * time.Second,
		BackoffFactor: 3,
		MaxInterval:   20 * time.Second,
		Sleep:         rec.sleep,
	}, check)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Duration{4 * time.Second, 12 * time.Second, 20 * time.Second, 20 * time.Second, 20 * time.Second}
	for i, d := range want {
		if rec.delays[i] != d {
			t.Errorf("delay %d: expected %v, got %v", i, d, rec.delays[i])
		}
	}
}

func TestPoll_MaxAttempts(t *testing.T) {
	rec := &recordingSleep{}
	calls := 0
	_, err := Poll(context.Background(), PollConfig{Interval: time.Second, MaxAttempts: 4, Sleep: rec.sleep},
		func(ctx context.Context) (int, bool, error) {
			calls++
			return 0, false, nil
		})
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 checks, got %d", calls)
	}
	if len(rec.delays) != 3 {
		t.Errorf("expected 3 sleeps, got %d", len(rec.delays))
	}
}

func TestPoll_Deadline(t *testing.T) {
	start := time.Now()
	_, err := Poll(context.Background(), PollConfig{Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond},
		func(ctx context.Context) (int, bool, error) { return 0, false, nil })
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("poll overran its deadline: %v", time.Since(start))
	}
}

func TestPoll_CheckErrorStops(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Poll(context.Background(), PollConfig{Sleep: (&recordingSleep{}).sleep},
		func(ctx context.Context) (int, bool, error) {
			calls++
			return 0, false, boom
		})
	if !errors.Is(err, boom) {
		t.Fatalf("expected check error, got %v", err)
	}
	if errors.Is(err, ErrPollTimeout) {
		t.Error("check errors must not be reported as timeouts")
	}
	if calls != 1 {
		t.Errorf("expected 1 check, got %d", calls)
	}
}

func TestPoll_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Poll(ctx, PollConfig{Timeout: time.Minute}, func(ctx context.Context) (int, bool, error) {
		return 0, false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPoll_OnWait(t *testing.T) {
	var attempts []int
	check, _ := statusSequence("A", "A", "COMPLETED")
	_, _ = Poll(context.Background(), PollConfig{
		Interval: time.Second,
		Sleep:    (&recordingSleep{}).sleep,
		OnWait:   func(attempt int, _ time.Duration) { attempts = append(attempts, attempt) },
	}, check)
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("unexpected OnWait attempts %v", attempts)
	}
}
