// Package pedersen implements additively homomorphic Pedersen commitments
// over the curve group in core/curve: C = r*G + x*H.
package pedersen

import (
	"io"

	"randbeacon/core/curve"
)

// Opening is the pair (value, blinding) that opens a Commitment.
type Opening struct {
	Value    curve.Scalar
	Blinding curve.Scalar
}

// Commitment is the public group element produced by Commit.
type Commitment = curve.GroupElement

// Commit returns blinding*G + value*H.
func Commit(value, blinding curve.Scalar) Commitment {
	return blinding.ActOnBase().Add(value.Act(curve.H))
}

// CommitRandom samples a fresh blinding factor from source and returns the
// resulting commitment together with the opening that produced it.
func CommitRandom(source io.Reader, value curve.Scalar) (Commitment, Opening, error) {
	blinding, err := curve.RandomScalar(source)
	if err != nil {
		return Commitment{}, Opening{}, err
	}
	return Commit(value, blinding), Opening{Value: value, Blinding: blinding}, nil
}

// Add returns the commitment to the sum of the two underlying openings:
// Commit(x1,r1) + Commit(x2,r2) == Commit(x1+x2, r1+r2).
func Add(c1, c2 Commitment) Commitment {
	return c1.Add(c2)
}

// Sub returns the commitment to the difference of the two underlying
// openings.
func Sub(c1, c2 Commitment) Commitment {
	return c1.Sub(c2)
}

// AddOpenings returns the componentwise sum of two openings.
func AddOpenings(o1, o2 Opening) Opening {
	return Opening{
		Value:    o1.Value.Add(o2.Value),
		Blinding: o1.Blinding.Add(o2.Blinding),
	}
}

// SubOpenings returns the componentwise difference of two openings.
func SubOpenings(o1, o2 Opening) Opening {
	return Opening{
		Value:    o1.Value.Sub(o2.Value),
		Blinding: o1.Blinding.Sub(o2.Blinding),
	}
}

// Verify recomputes Commit(opening) and checks it against commitment.
func Verify(commitment Commitment, opening Opening) bool {
	return Commit(opening.Value, opening.Blinding).Equal(commitment)
}
