package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
	assert.Zero(t, cb.Failures())
}

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(3))

	cb.RecordFailure()
	cb.RecordFailure()
	assert.True(t, cb.Allow(), "below the threshold the circuit stays closed")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(2))

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	// failures never accumulated to the threshold
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Failures())
}

func TestCircuitBreaker_HalfOpenAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1), WithCooldown(10*time.Millisecond))

	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())
	require.False(t, cb.Allow())

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow(), "half-open admits a probe request")

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1), WithCooldown(10*time.Millisecond))

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_ExecuteFailsFastWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1))

	boom := errors.New("boom")
	err := cb.Execute(func() error { return boom })
	require.ErrorIs(t, err, boom)

	called := false
	err = cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open circuit must not invoke the function")
}

func TestCircuitBreaker_ExecuteSuccessCloses(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1), WithCooldown(time.Millisecond))

	_ = cb.Execute(func() error { return errors.New("boom") })
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Failures())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
