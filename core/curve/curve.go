// Package curve wraps the secp256k1 group in the minimal Scalar/GroupElement
// vocabulary the rest of this module needs: uniform sampling, fixed-width
// encoding, and the handful of group operations Pedersen commitments use.
package curve

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"randbeacon/core/hash"
)

var (
	// ErrMalformedScalar is returned when decoding a byte string that is not
	// a canonical, fully-reduced scalar encoding.
	ErrMalformedScalar = errors.New("curve: malformed scalar")
	// ErrMalformedPoint is returned when decoding a byte string that is not
	// a valid compressed point on the curve.
	ErrMalformedPoint = errors.New("curve: malformed point")
)

const (
	// ScalarSize is ceil(log2(q)/8) for secp256k1's 256-bit group order.
	ScalarSize = 32
	// PointSize is the length of the canonical compressed point encoding.
	PointSize = 33
)

// Scalar is an integer modulo the secp256k1 group order q.
type Scalar struct {
	v secp256k1.ModNScalar
}

// GroupElement is a point on secp256k1, the curve's prime-order group.
type GroupElement struct {
	p secp256k1.JacobianPoint
}

// RandomScalar samples uniformly from [0, q) using rejection sampling so
// that no modular-reduction bias is introduced by short or out-of-range
// samples.
func RandomScalar(source io.Reader) (Scalar, error) {
	if source == nil {
		source = rand.Reader
	}
	var buf [ScalarSize]byte
	for {
		if _, err := io.ReadFull(source, buf[:]); err != nil {
			return Scalar{}, err
		}
		var s secp256k1.ModNScalar
		overflow := s.SetByteSlice(buf[:])
		if overflow {
			// buf >= q: reservoir was outside the group order, discard and
			// resample rather than reduce, which would bias the output.
			continue
		}
		return Scalar{s}, nil
	}
}

// ScalarFromBytes decodes a fixed-width big-endian scalar. Decoding fails
// if the input is the wrong length or not fully reduced mod q.
func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != ScalarSize {
		return Scalar{}, ErrMalformedScalar
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow {
		return Scalar{}, ErrMalformedScalar
	}
	return Scalar{s}, nil
}

// ZeroScalar returns the additive identity of the scalar field.
func ZeroScalar() Scalar {
	var s secp256k1.ModNScalar
	s.SetInt(0)
	return Scalar{s}
}

// Bytes returns the canonical fixed-width big-endian encoding.
func (s Scalar) Bytes() [ScalarSize]byte {
	return s.v.Bytes()
}

// Add returns s + other mod q.
func (s Scalar) Add(other Scalar) Scalar {
	r := s.v
	r.Add(&other.v)
	return Scalar{r}
}

// Negate returns -s mod q.
func (s Scalar) Negate() Scalar {
	r := s.v
	r.Negate()
	return Scalar{r}
}

// Sub returns s - other mod q.
func (s Scalar) Sub(other Scalar) Scalar {
	return s.Add(other.Negate())
}

// IsZero reports whether s is the additive identity.
func (s Scalar) IsZero() bool {
	return s.v.IsZero()
}

// Equal reports whether s and other encode the same residue.
func (s Scalar) Equal(other Scalar) bool {
	return s.v.Equals(&other.v)
}

// ActOnBase returns s*G.
func (s Scalar) ActOnBase() GroupElement {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s.v, &r)
	return GroupElement{r}
}

// Act returns s*p.
func (s Scalar) Act(p GroupElement) GroupElement {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&s.v, &p.p, &r)
	return GroupElement{r}
}

// Identity returns the group's identity element (point at infinity).
func Identity() GroupElement {
	var p secp256k1.JacobianPoint
	p.X.SetInt(0)
	p.Y.SetInt(1)
	p.Z.SetInt(0)
	return GroupElement{p}
}

// Add returns p + other.
func (p GroupElement) Add(other GroupElement) GroupElement {
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(&p.p, &other.p, &r)
	return GroupElement{r}
}

// Negate returns -p.
func (p GroupElement) Negate() GroupElement {
	var negOne secp256k1.ModNScalar
	negOne.SetInt(1)
	negOne.Negate()
	var r secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&negOne, &p.p, &r)
	return GroupElement{r}
}

// Sub returns p - other.
func (p GroupElement) Sub(other GroupElement) GroupElement {
	return p.Add(other.Negate())
}

// IsIdentity reports whether p is the point at infinity.
func (p GroupElement) IsIdentity() bool {
	return p.p.Z.IsZero()
}

// Equal reports whether p and other are the same point.
func (p GroupElement) Equal(other GroupElement) bool {
	if p.IsIdentity() || other.IsIdentity() {
		return p.IsIdentity() == other.IsIdentity()
	}
	a, b := p.p, other.p
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

// Bytes returns the canonical compressed encoding: a leading 0x00 followed
// by 32 zero bytes for the identity, or the standard SEC1 compressed form
// (0x02/0x03 prefix plus the affine X coordinate) otherwise.
func (p GroupElement) Bytes() [PointSize]byte {
	var out [PointSize]byte
	if p.IsIdentity() {
		return out
	}
	a := p.p
	a.ToAffine()
	a.X.Normalize()
	a.Y.Normalize()
	pub := secp256k1.NewPublicKey(&a.X, &a.Y)
	copy(out[:], pub.SerializeCompressed())
	return out
}

// GroupElementFromBytes decodes a canonical compressed point encoding.
func GroupElementFromBytes(b []byte) (GroupElement, error) {
	if len(b) != PointSize {
		return GroupElement{}, ErrMalformedPoint
	}
	if b[0] == 0x00 {
		for _, v := range b[1:] {
			if v != 0 {
				return GroupElement{}, ErrMalformedPoint
			}
		}
		return Identity(), nil
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return GroupElement{}, ErrMalformedPoint
	}
	var jp secp256k1.JacobianPoint
	pub.AsJacobian(&jp)
	return GroupElement{jp}, nil
}

// G is the curve's standard base point, one of the two fixed Pedersen
// generators.
var G = func() GroupElement {
	one := ZeroScalar()
	one.v.SetInt(1)
	return one.ActOnBase()
}()

// H is the second Pedersen generator. Its discrete log base G is unknown
// to anyone: it is derived once, at process init, by hashing a fixed
// domain-separation string directly onto the curve (try-and-increment)
// rather than by scalar-multiplying G, which would make the relation known.
var H = deriveH()

func deriveH() GroupElement {
	const domain = "randbeacon-pedersen-H-v1"
	for counter := uint32(0); ; counter++ {
		var ctr [4]byte
		binary.BigEndian.PutUint32(ctr[:], counter)

		h := hash.New(domain)
		h.WriteDomain("counter", ctr[:])
		digest := h.Sum()

		candidate := make([]byte, PointSize)
		candidate[0] = 0x02 // even-Y compressed prefix; x is the hash digest
		copy(candidate[1:], digest)

		pub, err := secp256k1.ParsePubKey(candidate)
		if err != nil {
			// digest is not a valid x-coordinate on the curve; try the next counter.
			continue
		}
		var jp secp256k1.JacobianPoint
		pub.AsJacobian(&jp)
		return GroupElement{jp}
	}
}
