package rate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinWindow(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		ok, _ := m.Allow("login:ip:1.2.3.4", 3, time.Minute)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, retry := m.Allow("login:ip:1.2.3.4", 3, time.Minute)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _ = m.Allow("login:ip:5.6.7.8", 3, time.Minute)
	assert.True(t, ok, "keys are independent")

	clock = clock.Add(time.Minute)
	ok, _ = m.Allow("login:ip:1.2.3.4", 3, time.Minute)
	assert.True(t, ok, "window reset")
}

func TestSweepDropsExpiredWindows(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return clock }

	for i := 0; i < sweepEvery-1; i++ {
		m.Allow(fmt.Sprintf("k%d", i), 1, time.Second)
	}
	assert.Equal(t, sweepEvery-1, m.Len())

	clock = clock.Add(2 * time.Second)
	m.Allow("fresh", 1, time.Second)
	assert.Equal(t, 1, m.Len())
}
