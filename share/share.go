// Package share reconstructs plaintext matrices from two additive shares and
// splits plaintext into shares for fixtures.
package share

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v5/utils/sampling"

	"mfverify/matrix"
)

// Pair holds the two parties' shares of one logical matrix.
type Pair struct {
	P0 *matrix.Matrix
	P1 *matrix.Matrix
}

// Reconstruct sums the pair element-wise.
func (p Pair) Reconstruct(ar matrix.Arith) (*matrix.Matrix, error) {
	return Reconstruct(p.P0, p.P1, ar)
}

// Reconstruct returns a+b element-wise under ar. The shapes are checked
// before any arithmetic; neither input is modified. Under matrix.Wrap the
// sum is taken modulo 2^64 like the protocol's own share arithmetic.
func Reconstruct(a, b *matrix.Matrix, ar matrix.Arith) (*matrix.Matrix, error) {
	if err := matrix.CheckShape("reconstruct", a, b); err != nil {
		return nil, err
	}
	out := matrix.New(a.Rows, a.Cols)
	for i := range a.Data {
		v, err := ar.Add(a.Data[i], b.Data[i])
		if err != nil {
			return nil, fmt.Errorf("reconstruct: entry (%d,%d): %w", i/a.Cols, i%a.Cols, err)
		}
		out.Data[i] = v
	}
	return out, nil
}

// NewSource returns a deterministic randomness source keyed by seed, or a
// fresh random one when seed is empty.
func NewSource(seed []byte) (io.Reader, error) {
	if len(seed) == 0 {
		prng, err := sampling.NewPRNG()
		if err != nil {
			return nil, fmt.Errorf("failed to create PRNG: %w", err)
		}
		return prng, nil
	}
	prng, err := sampling.NewKeyedPRNG(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyed PRNG: %w", err)
	}
	return prng, nil
}

// Uniform draws an integer uniformly from [-bound, bound].
func Uniform(src io.Reader, bound int64) (int64, error) {
	if bound < 0 {
		return 0, fmt.Errorf("negative bound %d", bound)
	}
	span := uint64(bound)*2 + 1
	// Reject the tail so every residue is equally likely.
	limit := ^uint64(0) - (^uint64(0) % span)
	var buf [8]byte
	for {
		if _, err := io.ReadFull(src, buf[:]); err != nil {
			return 0, fmt.Errorf("failed to read randomness: %w", err)
		}
		x := binary.LittleEndian.Uint64(buf[:])
		if x < limit {
			return int64(x%span) - bound, nil
		}
	}
}

// Split returns two shares of plain: P0 is uniform in [-bound, bound] and
// P1 = plain - P0 modulo 2^64.
func Split(plain *matrix.Matrix, src io.Reader, bound int64) (Pair, error) {
	p0 := matrix.New(plain.Rows, plain.Cols)
	p1 := matrix.New(plain.Rows, plain.Cols)
	for i, v := range plain.Data {
		r, err := Uniform(src, bound)
		if err != nil {
			return Pair{}, err
		}
		p0.Data[i] = r
		p1.Data[i] = v - r
	}
	return Pair{P0: p0, P1: p1}, nil
}

// Random fills a rows×cols matrix with values uniform in [-bound, bound].
func Random(rows, cols int, src io.Reader, bound int64) (*matrix.Matrix, error) {
	m := matrix.New(rows, cols)
	for i := range m.Data {
		v, err := Uniform(src, bound)
		if err != nil {
			return nil, err
		}
		m.Data[i] = v
	}
	return m, nil
}
