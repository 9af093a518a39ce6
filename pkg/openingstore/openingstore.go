// Package openingstore is the keyed, TTL-bounded map from CommitmentId to
// the local opening material a node must later serve on reveal. It follows
// the teacher's commitstore/keystore idiom: a flat mutex-guarded map whose
// values are opaque, cbor-encoded blobs, plus an expiry per entry and a
// background reaper.
package openingstore

import (
	"errors"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"randbeacon/core/curve"
	"randbeacon/core/pedersen"
	"randbeacon/pkg/clock"
)

var (
	// ErrAlreadyExists is returned by Insert when a record already exists
	// under the given id. CommitmentIds are fresh 128-bit randoms, so a
	// collision here is a programming error, not an expected race.
	ErrAlreadyExists = errors.New("openingstore: record already exists")
	// ErrNotFound is returned by Take for an absent or expired id.
	ErrNotFound = errors.New("openingstore: record not found")
)

// Record is the per-commitment state a node keeps between co-commit (or
// commit) and reveal: its own opening, the commitment it opens, and when it
// was written.
type Record struct {
	Opening             pedersen.Opening
	AggregateCommitment curve.GroupElement
	CreatedAt           time.Time
}

type rawRecord struct {
	Value       [curve.ScalarSize]byte
	Blinding    [curve.ScalarSize]byte
	Aggregate   [curve.PointSize]byte
	CreatedAtNs int64
}

func (r Record) bytes() ([]byte, error) {
	raw := rawRecord{
		Value:       r.Opening.Value.Bytes(),
		Blinding:    r.Opening.Blinding.Bytes(),
		Aggregate:   r.AggregateCommitment.Bytes(),
		CreatedAtNs: r.CreatedAt.UnixNano(),
	}
	return cbor.Marshal(raw)
}

func recordFromBytes(data []byte) (Record, error) {
	var raw rawRecord
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return Record{}, err
	}
	value, err := curve.ScalarFromBytes(raw.Value[:])
	if err != nil {
		return Record{}, err
	}
	blinding, err := curve.ScalarFromBytes(raw.Blinding[:])
	if err != nil {
		return Record{}, err
	}
	agg, err := curve.GroupElementFromBytes(raw.Aggregate[:])
	if err != nil {
		return Record{}, err
	}
	return Record{
		Opening:             pedersen.Opening{Value: value, Blinding: blinding},
		AggregateCommitment: agg,
		CreatedAt:           time.Unix(0, raw.CreatedAtNs).UTC(),
	}, nil
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store is a concurrency-safe, TTL-bounded map of CommitmentId -> Record.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock clock.Clock
	data  map[string]entry

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Store whose entries live for ttl after insertion, and
// starts a background goroutine that reclaims expired entries every
// sweepInterval. Call Close to stop the reaper.
func New(ttl time.Duration, c clock.Clock, sweepInterval time.Duration) *Store {
	s := &Store{
		ttl:    ttl,
		clock:  c,
		data:   make(map[string]entry),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.reap(sweepInterval)
	return s
}

// Close stops the background reaper. Safe to call more than once.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *Store) reap(interval time.Duration) {
	defer close(s.doneCh)
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.data {
		if !e.expiresAt.After(now) {
			delete(s.data, id)
		}
	}
}

// Insert stores a new Record under id. It is a programming error to reuse
// an id already present; Insert rejects it and leaves the existing entry
// untouched.
func (s *Store) Insert(id string, rec Record) error {
	b, err := rec.bytes()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.data[id]; ok && e.expiresAt.After(now) {
		return ErrAlreadyExists
	}

	s.data[id] = entry{data: b, expiresAt: now.Add(s.ttl)}
	return nil
}

// Take atomically looks up and removes the record for id. Returns
// ErrNotFound if absent or expired.
func (s *Store) Take(id string) (Record, error) {
	now := s.clock.Now()

	s.mu.Lock()
	e, ok := s.data[id]
	if ok {
		delete(s.data, id)
	}
	s.mu.Unlock()

	if !ok || !e.expiresAt.After(now) {
		return Record{}, ErrNotFound
	}
	return recordFromBytes(e.data)
}

// Has reports whether a live (non-expired) record exists for id, without
// consuming it. Co-commit's conflict check does not use it: that check is
// Insert's ErrAlreadyExists.
func (s *Store) Has(id string) bool {
	now := s.clock.Now()
	s.mu.Lock()
	e, ok := s.data[id]
	s.mu.Unlock()
	return ok && e.expiresAt.After(now)
}
