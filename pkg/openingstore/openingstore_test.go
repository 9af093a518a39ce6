package openingstore

import (
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"randbeacon/core/curve"
	"randbeacon/core/pedersen"
)

// fakeClock is a manually advanced Clock for deterministic TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRecord(t *testing.T) Record {
	x, err := curve.RandomScalar(rand.Reader)
	assert.NoError(t, err)
	c, opening, err := pedersen.CommitRandom(rand.Reader, x)
	assert.NoError(t, err)
	return Record{Opening: opening, AggregateCommitment: c}
}

func TestInsertTake(t *testing.T) {
	clk := newFakeClock()
	s := New(time.Minute, clk, time.Hour)
	defer s.Close()

	rec := newRecord(t)
	assert.NoError(t, s.Insert("id-1", rec))

	// Must be visible before take.
	assert.True(t, s.Has("id-1"))

	// Take must return it and remove it atomically.
	got, err := s.Take("id-1")
	assert.NoError(t, err)
	assert.True(t, got.Opening.Value.Equal(rec.Opening.Value))

	// A second take must report not found.
	_, err = s.Take("id-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertRejectsLiveDuplicate(t *testing.T) {
	clk := newFakeClock()
	s := New(time.Minute, clk, time.Hour)
	defer s.Close()

	rec := newRecord(t)
	assert.NoError(t, s.Insert("id-1", rec))

	// Must reject an overwrite of a live entry and not disturb it.
	err := s.Insert("id-1", newRecord(t))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := s.Take("id-1")
	assert.NoError(t, err)
	assert.True(t, got.Opening.Value.Equal(rec.Opening.Value))
}

func TestTTLExpiry(t *testing.T) {
	clk := newFakeClock()
	s := New(time.Minute, clk, time.Hour)
	defer s.Close()

	assert.NoError(t, s.Insert("id-1", newRecord(t)))
	assert.True(t, s.Has("id-1"))

	clk.Advance(2 * time.Minute)

	// Must be invisible to reads once expired, even without a reaper sweep.
	assert.False(t, s.Has("id-1"))
	_, err := s.Take("id-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiredEntryCanBeReinserted(t *testing.T) {
	clk := newFakeClock()
	s := New(time.Minute, clk, time.Hour)
	defer s.Close()

	assert.NoError(t, s.Insert("id-1", newRecord(t)))
	clk.Advance(2 * time.Minute)

	// An expired key is not "live", so Insert must accept reuse of the id.
	assert.NoError(t, s.Insert("id-1", newRecord(t)))
}

func TestConcurrentInsertTake(t *testing.T) {
	clk := newFakeClock()
	s := New(time.Minute, clk, time.Hour)
	defer s.Close()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := time.Duration(i).String()
			_ = s.Insert(id, newRecord(t))
			_, _ = s.Take(id)
		}(i)
	}
	wg.Wait()
}
