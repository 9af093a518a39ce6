// Package directory holds the ordered list of peer endpoints a node was
// configured with, and derives self/others and the 2/3 threshold from it.
// It mirrors the teacher's round.Info shape (SelfID / PartyIDs /
// OtherPartyIDs), substituting node URLs for party IDs, and is immutable
// once constructed so every node agrees on fan-out order.
package directory

import (
	"errors"
	"fmt"
)

// ErrSelfNotInPeers is returned by New when selfURL does not appear in the
// peers list.
var ErrSelfNotInPeers = errors.New("directory: self_url not found in peers")

// Directory is the immutable, ordered set of node URLs participating in
// the beacon, plus this node's own identity within it.
type Directory struct {
	self  string
	all   []string
	index int // position of self in all
}

// New builds a Directory from an ordered peer list (including selfURL) and
// the URL this node was configured to advertise as.
func New(selfURL string, peers []string) (*Directory, error) {
	if len(peers) == 0 {
		return nil, errors.New("directory: empty peer list")
	}
	idx := -1
	ordered := make([]string, len(peers))
	copy(ordered, peers)
	for i, p := range ordered {
		if p == selfURL {
			idx = i
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSelfNotInPeers, selfURL)
	}
	return &Directory{self: selfURL, all: ordered, index: idx}, nil
}

// SelfURL returns this node's own advertised address.
func (d *Directory) SelfURL() string { return d.self }

// All returns every node URL, self included, in configured order.
func (d *Directory) All() []string {
	out := make([]string, len(d.all))
	copy(out, d.all)
	return out
}

// Others returns every peer URL except self, in configured order.
func (d *Directory) Others() []string {
	out := make([]string, 0, len(d.all)-1)
	for _, p := range d.all {
		if p != d.self {
			out = append(out, p)
		}
	}
	return out
}

// N is the total number of participating nodes.
func (d *Directory) N() int { return len(d.all) }

// Threshold returns M = ceil(2N/3), the number of nodes (dealer included)
// required for a valid session.
func (d *Directory) Threshold() int {
	n := len(d.all)
	return (2*n + 2) / 3
}

// FanoutPeers returns the deterministic, directory-ordered subset of
// M-1 peers (excluding self) the dealer fans out to for a session with
// threshold M. Since M = ceil(2N/3) <= N for every N >= 1, M-1 never
// exceeds len(Others()), so this always succeeds.
func (d *Directory) FanoutPeers() []string {
	m := d.Threshold()
	others := d.Others()
	return others[:m-1]
}
