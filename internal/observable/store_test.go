package observable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesCurrentValue(t *testing.T) {
	s := New(3)
	var got []int
	unsubscribe := s.Subscribe(func(v int) { got = append(got, v) })
	defer unsubscribe()

	require.Equal(t, []int{3}, got)
}

func TestUpdatePublishesInOrder(t *testing.T) {
	s := New(0)
	var first, second []int
	s.Subscribe(func(v int) { first = append(first, v) })
	s.Subscribe(func(v int) { second = append(second, v) })

	prev, next := s.Update(func(v int) int { return v + 1 })
	s.Set(10)

	assert.Equal(t, 0, prev)
	assert.Equal(t, 1, next)
	assert.Equal(t, []int{0, 1, 10}, first)
	assert.Equal(t, []int{0, 1, 10}, second)
	assert.Equal(t, 10, s.Get())
}

func TestUnsubscribe(t *testing.T) {
	s := New("a")
	calls := 0
	unsubscribe := s.Subscribe(func(string) { calls++ })

	unsubscribe()
	unsubscribe()
	s.Set("b")

	assert.Equal(t, 1, calls)
	assert.Zero(t, s.Subscribers())
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	s := New(0)
	var seen []int
	s.Subscribe(func(v int) { seen = append(seen, v) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	require.Equal(t, 50, s.Get())
	require.Len(t, seen, 51)
	for i, v := range seen {
		require.Equal(t, i, v)
	}
}
