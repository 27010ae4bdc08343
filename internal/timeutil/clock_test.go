package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMockClock_TimerFiresAtDeadline(t *testing.T) {
	clock := NewMockClock(epoch)
	timer := clock.NewTimer(2 * time.Second)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(1999 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	clock.Advance(time.Millisecond)
	select {
	case got := <-timer.C():
		assert.Equal(t, epoch.Add(2*time.Second), got)
	default:
		t.Fatal("timer did not fire")
	}
	assert.Equal(t, 0, clock.Pending())
}

func TestMockClock_StoppedTimerNeverFires(t *testing.T) {
	clock := NewMockClock(epoch)
	timer := clock.NewTimer(time.Second)

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(time.Hour)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestMockClock_Ticker(t *testing.T) {
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(time.Second)

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		select {
		case <-ticker.C():
		default:
			t.Fatalf("tick %d missing", i)
		}
	}

	ticker.Stop()
	clock.Advance(time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker ticked")
	default:
	}
}

func TestMockClock_Now(t *testing.T) {
	clock := NewMockClock(epoch)
	clock.Advance(90 * time.Second)
	assert.Equal(t, epoch.Add(90*time.Second), clock.Now())
}

func TestRealClock_Timer(t *testing.T) {
	timer := RealClock{}.NewTimer(time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
