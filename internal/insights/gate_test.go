package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateFiresOnceOnPopulated(t *testing.T) {
	calls := 0
	g := NewGate(func() { calls++ })

	assert.False(t, g.Observe(StatusLoading))
	assert.Equal(t, 0, calls)

	assert.True(t, g.Observe(StatusPopulated))
	assert.False(t, g.Observe(StatusPopulated))
	assert.Equal(t, 1, calls)
	assert.True(t, g.Fired())
	assert.False(t, g.Armed())
}

func TestGateNeverFiresAfterErrorOrEmpty(t *testing.T) {
	for _, s := range []Status{StatusError, StatusEmpty} {
		t.Run(s.String(), func(t *testing.T) {
			calls := 0
			g := NewGate(func() { calls++ })
			assert.False(t, g.Observe(s))
			assert.False(t, g.Observe(StatusPopulated))
			assert.Equal(t, 0, calls)
			assert.False(t, g.Fired())
		})
	}
}

func TestGateNilCallback(t *testing.T) {
	g := NewGate(nil)
	assert.True(t, g.Observe(StatusPopulated))
}
