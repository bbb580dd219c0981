package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteDoesNotRetryFailure(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	attempts := 0
	errUpstream := errors.New("upstream")
	err := exec.Execute(context.Background(), "submit_file", func(context.Context) error {
		attempts++
		return errUpstream
	}, nil)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteAppliesOperationTimeout(t *testing.T) {
	exec := NewExecutor(Config{OperationTimeout: 20 * time.Millisecond, BreakerEnabled: false})

	err := exec.Execute(context.Background(), "fetch_report_json", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestExecuteSkipsCancelledContext(t *testing.T) {
	exec := NewExecutor(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Execute(ctx, "op", func(context.Context) error {
		t.Fatalf("operation must not run with cancelled context")
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	var transitions []gobreaker.State
	exec := NewExecutor(Config{
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, WithStateObserver(func(_ string, _ gobreaker.State, to gobreaker.State) {
		transitions = append(transitions, to)
	}))

	errTemp := errors.New("temporary")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, nil)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if exec.State("op") != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", exec.State("op"))
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Fatalf("unexpected observed transitions: %v", transitions)
	}
}

func TestExecuteIgnoresUnrecordedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  1,
		BreakerFailureRatio: 0.1,
	})
	errClient := errors.New("bad request")
	classifier := func(error) ErrorClassification { return ErrorClassification{RecordFailure: false} }

	for i := 0; i < 5; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errClient
		}, classifier)
		if !errors.Is(err, errClient) {
			t.Fatalf("iteration %d: expected client error, got %v", i, err)
		}
	}
	if exec.State("op") != gobreaker.StateClosed {
		t.Fatalf("expected breaker to stay closed")
	}
}
