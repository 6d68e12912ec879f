package debug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBreakpointRegistryAddHasRemove(t *testing.T) {
	r := NewBreakpointRegistry()
	require.False(t, r.Has(0x1000))

	r.Add(0x1000)
	r.Add(0x2000)
	require.True(t, r.Has(0x1000))
	require.True(t, r.Has(0x2000))
	require.False(t, r.Has(0x3000))

	require.NoError(t, r.Remove(0x1000))
	require.False(t, r.Has(0x1000))

	var notFound *ErrNoBreakpoint
	err := r.Remove(0x3000)
	require.ErrorAs(t, err, &notFound)
}

func TestBreakpointRegistryListIsSorted(t *testing.T) {
	r := NewBreakpointRegistry()
	r.Add(200)
	r.Add(50)
	r.Add(100)

	require.Equal(t, []uint64{50, 100, 200}, r.List())
}

func TestNoopStepperNeverBlocks(t *testing.T) {
	var s Stepper = NoopStepper{}
	require.NoError(t, s.Step())
}
