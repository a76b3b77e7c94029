package timerservice

import (
	"sync"
	"testing"
	"time"
)

func TestScheduleFiresOnce(t *testing.T) {
	var mu sync.Mutex
	var fired []Expiry

	svc := New(Config{Dispatch: func(e Expiry) {
		mu.Lock()
		fired = append(fired, e)
		mu.Unlock()
	}})

	svc.Schedule(Key{Name: Test}, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 {
		t.Fatalf("fired %d times, want 1", len(fired))
	}
	if fired[0].Key.Name != Test {
		t.Fatalf("fired key = %+v, want Test", fired[0].Key)
	}
}

func TestScheduleLeavesArmedTimerUntouched(t *testing.T) {
	svc := New(Config{Dispatch: func(Expiry) {}})
	key := Key{Name: LinkUp}

	svc.Schedule(key, 50*time.Millisecond)
	if !svc.IsArmed(key) {
		t.Fatal("expected armed after first Schedule")
	}
	// A second Schedule call must not rearm (no way to observe timing
	// directly here without a fake clock, but we can at least assert it
	// remains armed rather than erroring or double counting).
	svc.Schedule(key, 5*time.Second)
	if !svc.IsArmed(key) {
		t.Fatal("expected still armed")
	}
	svc.Cancel(key)
	if svc.IsArmed(key) {
		t.Fatal("expected disarmed after Cancel")
	}
}

func TestRescheduleCancelsPrevious(t *testing.T) {
	var mu sync.Mutex
	count := 0
	svc := New(Config{Dispatch: func(Expiry) {
		mu.Lock()
		count++
		mu.Unlock()
	}})

	key := Key{Name: FDBClear}
	svc.Schedule(key, 200*time.Millisecond)
	svc.Reschedule(key, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("fired %d times, want 1", count)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	svc := New(Config{Dispatch: func(Expiry) {}})
	key := Key{Name: StartUp}
	svc.Cancel(key)
	svc.Cancel(key)
	if svc.IsArmed(key) {
		t.Fatal("expected not armed")
	}
}

func TestParameterizedTimersAreIndependent(t *testing.T) {
	var mu sync.Mutex
	var fired []Expiry
	svc := New(Config{Dispatch: func(e Expiry) {
		mu.Lock()
		fired = append(fired, e)
		mu.Unlock()
	}})

	svc.Schedule(Key{Name: ContinuityCheck, Port: 1}, 5*time.Millisecond)
	svc.Schedule(Key{Name: ContinuityCheck, Port: 2}, 200*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 {
		t.Fatalf("fired %d times, want 1 (only port 1)", len(fired))
	}
	if fired[0].Key.Port != 1 {
		t.Fatalf("fired port = %d, want 1", fired[0].Key.Port)
	}
	if !svc.IsArmed(Key{Name: ContinuityCheck, Port: 2}) {
		t.Fatal("port 2 timer should still be armed")
	}
}

func TestStopAllCancelsEverything(t *testing.T) {
	var mu sync.Mutex
	count := 0
	svc := New(Config{Dispatch: func(Expiry) {
		mu.Lock()
		count++
		mu.Unlock()
	}})

	svc.Schedule(Key{Name: Test}, 5*time.Millisecond)
	svc.Schedule(Key{Name: LinkDown}, 5*time.Millisecond)
	svc.StopAll()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	if count != 0 {
		mu.Unlock()
		t.Fatalf("fired %d times after StopAll, want 0", count)
	}
	mu.Unlock()

	// Scheduling after stop should be a no-op.
	svc.Schedule(Key{Name: Test}, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("fired %d times after stop+schedule, want 0", count)
	}
}
