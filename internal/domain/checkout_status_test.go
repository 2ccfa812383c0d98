package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo_HappyPath(t *testing.T) {
	path := []CheckoutStatus{
		CheckoutStatusInitiated,
		CheckoutStatusVerifying,
		CheckoutStatusReserving,
		CheckoutStatusCommitting,
		CheckoutStatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransitionTo(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestCanTransitionTo_NoSkipping(t *testing.T) {
	assert.False(t, CanTransitionTo(CheckoutStatusInitiated, CheckoutStatusReserving))
	assert.False(t, CanTransitionTo(CheckoutStatusInitiated, CheckoutStatusCommitting))
	assert.False(t, CanTransitionTo(CheckoutStatusVerifying, CheckoutStatusCommitting))
	assert.False(t, CanTransitionTo(CheckoutStatusVerifying, CheckoutStatusCompleted))
}

func TestCanTransitionTo_FailureReachableFromAnyActiveState(t *testing.T) {
	for _, from := range []CheckoutStatus{
		CheckoutStatusInitiated,
		CheckoutStatusVerifying,
		CheckoutStatusReserving,
		CheckoutStatusCommitting,
	} {
		assert.True(t, CanTransitionTo(from, CheckoutStatusFailed), "from %s", from)
	}
}

func TestCanTransitionTo_PartiallyFailedOnlyFromCommitting(t *testing.T) {
	assert.True(t, CanTransitionTo(CheckoutStatusCommitting, CheckoutStatusPartiallyFailed))

	for _, from := range []CheckoutStatus{
		CheckoutStatusInitiated,
		CheckoutStatusVerifying,
		CheckoutStatusReserving,
	} {
		assert.False(t, CanTransitionTo(from, CheckoutStatusPartiallyFailed), "from %s", from)
	}
}

func TestCanTransitionTo_TerminalStatesAreFinal(t *testing.T) {
	terminals := []CheckoutStatus{
		CheckoutStatusCompleted,
		CheckoutStatusFailed,
		CheckoutStatusPartiallyFailed,
	}
	targets := []CheckoutStatus{
		CheckoutStatusInitiated,
		CheckoutStatusVerifying,
		CheckoutStatusReserving,
		CheckoutStatusCommitting,
		CheckoutStatusCompleted,
		CheckoutStatusFailed,
		CheckoutStatusPartiallyFailed,
	}
	for _, from := range terminals {
		assert.True(t, from.IsTerminal())
		for _, to := range targets {
			assert.False(t, CanTransitionTo(from, to), "%s -> %s", from, to)
		}
	}
}
