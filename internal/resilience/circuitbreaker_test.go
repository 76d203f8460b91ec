package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errTest = errors.New("test error")

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func fail() error    { return errTest }
func succeed() error { return nil }

// tripped returns a breaker that has just opened after maxFailures failures.
func tripped(t *testing.T, clock *fakeClock, halfOpenMax int) *CircuitBreaker {
	t.Helper()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "analyzer",
		MaxFailures:  2,
		ResetTimeout: time.Second,
		HalfOpenMax:  halfOpenMax,
		Now:          clock.Now,
	})
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	return cb
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test"})
	if cb.maxFailures != 5 {
		t.Errorf("maxFailures = %d, want 5", cb.maxFailures)
	}
	if cb.resetTimeout != 30*time.Second {
		t.Errorf("resetTimeout = %v, want 30s", cb.resetTimeout)
	}
	if cb.halfOpenMax != 3 {
		t.Errorf("halfOpenMax = %d, want 3", cb.halfOpenMax)
	}
	if cb.State() != StateClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: time.Hour})

	for i := range 3 {
		if err := cb.Execute(fail); !errors.Is(err, errTest) {
			t.Fatalf("call %d: err = %v, want fn error", i, err)
		}
	}
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("fn called while open")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3})
	for _, fn := range []func() error{fail, fail, succeed, fail, fail} {
		_ = cb.Execute(fn)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	clock := newFakeClock()
	cb := tripped(t, clock, 2)

	clock.Advance(999 * time.Millisecond)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v before timeout, want open", cb.State())
	}
	clock.Advance(time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v after timeout, want half-open", cb.State())
	}
}

func TestCircuitBreaker_ProbesClose(t *testing.T) {
	clock := newFakeClock()
	cb := tripped(t, clock, 2)
	clock.Advance(time.Second)

	for i := range 2 {
		if err := cb.Execute(succeed); err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := tripped(t, clock, 3)
	clock.Advance(time.Second)

	if err := cb.Execute(fail); !errors.Is(err, errTest) {
		t.Fatalf("err = %v, want probe error", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	if err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen right after re-open", err)
	}
}

func TestCircuitBreaker_ProbeBudget(t *testing.T) {
	clock := newFakeClock()
	cb := tripped(t, clock, 1)
	clock.Advance(time.Second)

	// Hold the single probe slot while a second call arrives.
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Execute(func() error { <-release; return nil })
	}()
	deadline := time.After(2 * time.Second)
	for {
		cb.mu.Lock()
		probes := cb.probes
		cb.mu.Unlock()
		if probes == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("probe never admitted")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second probe err = %v, want ErrCircuitOpen", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	clock := newFakeClock()
	var got []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "analyzer",
		MaxFailures:  1,
		ResetTimeout: time.Second,
		HalfOpenMax:  1,
		Now:          clock.Now,
		OnStateChange: func(name string, from, to State) {
			got = append(got, name+":"+from.String()+">"+to.String())
		},
	})
	_ = cb.Execute(fail)
	clock.Advance(time.Second)
	_ = cb.Execute(succeed)

	want := []string{"analyzer:closed>open", "analyzer:open>half-open", "analyzer:half-open>closed"}
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := tripped(t, newFakeClock(), 1)
	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
