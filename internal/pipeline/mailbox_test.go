package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_Empty(t *testing.T) {
	mb := NewMailbox()
	f, err := mb.Latest()
	assert.ErrorIs(t, err, ErrNoFrame)
	assert.Nil(t, f)
}

func TestMailbox_LastWriteWins(t *testing.T) {
	mb := NewMailbox()
	f1 := createBlankFrame(2, 2, 1)
	f2 := createBlankFrame(2, 2, 2)
	f3 := createBlankFrame(2, 2, 3)

	mb.Publish(f1)
	mb.Publish(f2)
	mb.Publish(f3)

	got, err := mb.Latest()
	require.NoError(t, err)
	assert.Same(t, f3, got)
	assert.Equal(t, uint64(3), mb.Published())
	assert.Equal(t, uint64(2), mb.Drops())
}

func TestMailbox_RepeatsUntilReplaced(t *testing.T) {
	mb := NewMailbox()
	f1 := createBlankFrame(2, 2, 1)
	mb.Publish(f1)

	for i := 0; i < 3; i++ {
		got, err := mb.Latest()
		require.NoError(t, err)
		assert.Same(t, f1, got)
	}

	// f1 was consumed, so replacing it is not a drop.
	f2 := createBlankFrame(2, 2, 2)
	mb.Publish(f2)
	assert.Zero(t, mb.Drops())

	got, _ := mb.Latest()
	assert.Same(t, f2, got)
}

func TestMailbox_Concurrent(t *testing.T) {
	mb := NewMailbox()
	var wg sync.WaitGroup

	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				mb.Publish(createBlankFrame(1, 1, uint64(p*1000+i)))
			}
		}(p)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, _ = mb.Latest()
		}
	}()
	wg.Wait()

	assert.Equal(t, uint64(400), mb.Published())
	assert.Less(t, mb.Drops(), uint64(400))
}
