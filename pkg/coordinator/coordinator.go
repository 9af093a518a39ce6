// Package coordinator implements the dealer and co-signer state machines
// that drive a commit-reveal session: commit_random (dealer), co_commit_random
// (peer), and reveal_random (either role). It depends only on the capability
// interfaces declared below, not on any concrete store, transport, or clock,
// so tests can substitute deterministic fakes for all four.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"randbeacon/core/curve"
	"randbeacon/core/pedersen"
	"randbeacon/pkg/directory"
	"randbeacon/pkg/openingstore"
)

// Kind enumerates the error categories the coordinator can produce. The
// request surface maps each to an HTTP status independently.
type Kind int

const (
	// KindInternal covers bugs: generator misconfiguration, store corruption.
	KindInternal Kind = iota
	// KindMalformedPoint is a badly encoded or off-curve commitment.
	KindMalformedPoint
	// KindMalformedScalar is a badly encoded or non-reduced scalar.
	KindMalformedScalar
	// KindConflict is a co-commit for an id already present in the store.
	KindConflict
	// KindNotFound is a reveal for an unknown or expired id.
	KindNotFound
	// KindPeerUnavailable is a failed, timed-out, or non-success peer call.
	KindPeerUnavailable
)

// Error is the coordinator's typed error. Callers should inspect Kind
// rather than match on message text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("coordinator: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("coordinator: %s", e.Op)
}

// Unwrap lets errors.Is/As see through to the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Store is the opening-store capability the coordinator needs: insert a new
// record, and atomically take one on reveal. Satisfied by *openingstore.Store.
type Store interface {
	Insert(id string, rec openingstore.Record) error
	Take(id string) (openingstore.Record, error)
}

// PeerClient is the outbound capability used to fan out the dealer's
// co-commit calls. Satisfied by *peerclient.HTTPClient.
type PeerClient interface {
	CoCommit(ctx context.Context, peerURL, commitmentID string, dealerCommitment curve.GroupElement) (curve.GroupElement, error)
}

// ScalarSource is the cryptographically secure randomness capability used
// to draw each node's secret. Satisfied by DefaultScalarSource, or by a
// deterministic fake in tests.
type ScalarSource interface {
	Random() (curve.Scalar, error)
}

// DefaultScalarSource draws from crypto/rand via curve.RandomScalar.
type DefaultScalarSource struct{}

// Random returns a uniformly random scalar from the system CSPRNG.
func (DefaultScalarSource) Random() (curve.Scalar, error) {
	return curve.RandomScalar(nil)
}

// Clock is the monotonic-time capability used to stamp LocalRecord.CreatedAt.
type Clock interface {
	Now() time.Time
}

// IDGenerator allocates a fresh CommitmentId. Satisfied by UUIDGenerator, or
// by a deterministic fake in tests.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator allocates CommitmentIds as random (v4) UUIDs in their
// canonical textual form.
type UUIDGenerator struct{}

// NewID returns a fresh UUIDv4 string.
func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Coordinator implements §4.F of the design: the dealer path, the peer
// path, and the shared reveal path.
type Coordinator struct {
	dir     *directory.Directory
	store   Store
	peers   PeerClient
	scalars ScalarSource
	clock   Clock
	ids     IDGenerator
}

// New wires a Coordinator from its four capabilities plus the peer
// directory and id generator.
func New(dir *directory.Directory, store Store, peers PeerClient, scalars ScalarSource, clock Clock, ids IDGenerator) *Coordinator {
	return &Coordinator{dir: dir, store: store, peers: peers, scalars: scalars, clock: clock, ids: ids}
}

// CommitRandomResult is the dealer-side response to commit-random.
type CommitRandomResult struct {
	CommitmentID string
	Nodes        []string
	Aggregate    curve.GroupElement
}

// CommitRandom runs the dealer path: §4.F.1.
func (c *Coordinator) CommitRandom(ctx context.Context) (*CommitRandomResult, error) {
	xd, err := c.scalars.Random()
	if err != nil {
		return nil, newErr(KindInternal, "commit_random: draw secret", err)
	}
	cd, openingD, err := pedersen.CommitRandom(nil, xd)
	if err != nil {
		return nil, newErr(KindInternal, "commit_random: form commitment", err)
	}

	id := c.ids.NewID()

	peerSet := c.dir.FanoutPeers()

	combined := make([]curve.GroupElement, len(peerSet))
	g, gctx := errgroup.WithContext(ctx)
	for i, peerURL := range peerSet {
		i, peerURL := i, peerURL
		g.Go(func() error {
			resp, err := c.peers.CoCommit(gctx, peerURL, id, cd)
			if err != nil {
				return err
			}
			combined[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Any peer failure abandons the session: the dealer writes nothing.
		return nil, newErr(KindPeerUnavailable, "commit_random: fanout", err)
	}

	// Each resp is C_d + C_p; subtracting C_d out of each leaves C_p, so
	// C_d + sum(resp - C_d) == C_d + sum(C_p), the dealer's share counted
	// exactly once regardless of how many peers participated (including
	// zero, where the dealer is the sole participant).
	agg := cd
	for _, resp := range combined {
		agg = agg.Add(resp.Sub(cd))
	}

	rec := openingstore.Record{
		Opening:             openingD,
		AggregateCommitment: cd,
		CreatedAt:           c.clock.Now(),
	}
	if err := c.store.Insert(id, rec); err != nil {
		return nil, newErr(KindInternal, "commit_random: store dealer record", err)
	}

	nodes := make([]string, 0, len(peerSet)+1)
	nodes = append(nodes, c.dir.SelfURL())
	nodes = append(nodes, peerSet...)

	return &CommitRandomResult{CommitmentID: id, Nodes: nodes, Aggregate: agg}, nil
}

// CoCommitRandom runs the peer path: §4.F.2.
func (c *Coordinator) CoCommitRandom(ctx context.Context, commitmentID string, dealerCommitment curve.GroupElement) (curve.GroupElement, error) {
	xp, err := c.scalars.Random()
	if err != nil {
		return curve.GroupElement{}, newErr(KindInternal, "co_commit_random: draw secret", err)
	}
	cp, openingP, err := pedersen.CommitRandom(nil, xp)
	if err != nil {
		return curve.GroupElement{}, newErr(KindInternal, "co_commit_random: form commitment", err)
	}

	rec := openingstore.Record{
		Opening:             openingP,
		AggregateCommitment: cp,
		CreatedAt:           c.clock.Now(),
	}
	if err := c.store.Insert(commitmentID, rec); err != nil {
		if err == openingstore.ErrAlreadyExists {
			return curve.GroupElement{}, newErr(KindConflict, "co_commit_random: insert", err)
		}
		return curve.GroupElement{}, newErr(KindInternal, "co_commit_random: insert", err)
	}

	return dealerCommitment.Add(cp), nil
}

// RevealResult is the shared response to reveal-random.
type RevealResult struct {
	Opening    pedersen.Opening
	Commitment curve.GroupElement
}

// RevealRandom runs the shared reveal path: §4.F.3.
func (c *Coordinator) RevealRandom(ctx context.Context, commitmentID string) (*RevealResult, error) {
	rec, err := c.store.Take(commitmentID)
	if err != nil {
		if err == openingstore.ErrNotFound {
			return nil, newErr(KindNotFound, "reveal_random: take", err)
		}
		return nil, newErr(KindInternal, "reveal_random: take", err)
	}
	return &RevealResult{Opening: rec.Opening, Commitment: rec.AggregateCommitment}, nil
}
