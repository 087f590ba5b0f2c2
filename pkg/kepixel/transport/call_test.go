package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_Go(t *testing.T) {
	release := make(chan struct{})
	c := Go(func() Outcome {
		<-release
		return Outcome{StatusCode: 200}
	})

	_, settled := c.Outcome()
	assert.False(t, settled)
	assert.Contains(t, c.ID(), "call-")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	outcome, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, outcome.StatusCode)

	<-c.Done()
	got, settled := c.Outcome()
	assert.True(t, settled)
	assert.True(t, got.OK())
}

func TestCall_Settled(t *testing.T) {
	c := Settled(Outcome{Skipped: true})
	select {
	case <-c.Done():
	default:
		t.Fatal("settled call must be done")
	}
	outcome, ok := c.Outcome()
	assert.True(t, ok)
	assert.False(t, outcome.OK())
}
