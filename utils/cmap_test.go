package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCMap(t *testing.T) {
	m := CMap[string, int]{}

	_, ok := m.Load("a")
	assert.False(t, ok)

	m.Store("a", 1)
	v, ok := m.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	actual, loaded := m.LoadOrStore("a", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, actual)

	actual, loaded = m.LoadOrStore("b", 2)
	assert.False(t, loaded)
	assert.Equal(t, 2, actual)

	seen := map[string]int{}
	m.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, seen)

	m.Delete("a")
	_, ok = m.Load("a")
	assert.False(t, ok)
}

func TestCMapConcurrentLoadOrStore(t *testing.T) {
	m := CMap[int, *sync.Mutex]{}
	var wg sync.WaitGroup
	locks := make([]*sync.Mutex, 64)
	for i := range locks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lock, _ := m.LoadOrStore(0, &sync.Mutex{})
			locks[i] = lock
		}(i)
	}
	wg.Wait()
	for _, lock := range locks {
		assert.Same(t, locks[0], lock)
	}
}
