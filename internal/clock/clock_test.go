package clock

import (
	"testing"
	"time"
)

func TestFake_SleepAdvances(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	c.Sleep(200 * time.Millisecond)
	c.Sleep(300 * time.Millisecond)

	if got := c.Now().Sub(start); got != 500*time.Millisecond {
		t.Errorf("elapsed: got %v, want 500ms", got)
	}
	if got := len(c.Sleeps()); got != 2 {
		t.Errorf("sleeps: got %d, want 2", got)
	}
	if got := c.Slept(); got != 500*time.Millisecond {
		t.Errorf("slept: got %v, want 500ms", got)
	}
}

func TestFake_AdvanceNotRecorded(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)
	c.Advance(time.Second)

	if !c.Now().Equal(start.Add(time.Second)) {
		t.Errorf("now: got %v, want %v", c.Now(), start.Add(time.Second))
	}
	if len(c.Sleeps()) != 0 {
		t.Errorf("advance should not record sleeps, got %v", c.Sleeps())
	}
}

func TestFake_AfterFiresImmediately(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	select {
	case got := <-c.After(2 * time.Second):
		if want := start.Add(2 * time.Second); !got.Equal(want) {
			t.Errorf("fired at %v, want %v", got, want)
		}
	default:
		t.Fatal("fake After should fire without blocking")
	}
	if got := c.Slept(); got != 2*time.Second {
		t.Errorf("slept: got %v, want 2s", got)
	}
}

func TestReal_NowMonotonic(t *testing.T) {
	c := Real()
	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Errorf("real clock went backwards: %v then %v", a, b)
	}
}
