package attempts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_LocksAfterMaxFailures(t *testing.T) {
	l := New(3, time.Hour, time.Hour)

	st := l.Check("alice")
	assert.False(t, st.Locked)
	assert.Equal(t, 3, st.Remaining)

	assert.Equal(t, 2, l.Fail("alice").Remaining)
	assert.Equal(t, 1, l.Fail("alice").Remaining)

	st = l.Fail("alice")
	assert.True(t, st.Locked)
	assert.Equal(t, time.Hour, st.RetryAfter)

	st = l.Check("alice")
	assert.True(t, st.Locked)
	assert.Greater(t, st.RetryAfter, 59*time.Minute)

	assert.False(t, l.Check("bob").Locked, "keys are independent")
}

func TestLimiter_ResetClearsFailures(t *testing.T) {
	l := New(2, time.Minute, time.Minute)
	l.Fail("carol")
	l.Reset("carol")
	assert.Equal(t, 2, l.Check("carol").Remaining)
}

func TestLimiter_UnlockRemovesLock(t *testing.T) {
	l := New(1, time.Minute, time.Minute)
	assert.True(t, l.Fail("dave").Locked)
	l.Unlock("dave")
	assert.False(t, l.Check("dave").Locked)
}

func TestFormatWait(t *testing.T) {
	assert.Equal(t, "60 minutes", FormatWait(time.Hour))
	assert.Equal(t, "4m30s", FormatWait(4*time.Minute+30*time.Second))
	assert.Equal(t, "12 seconds", FormatWait(12*time.Second))
}
