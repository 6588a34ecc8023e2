package checker

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"mfverify/matrix"
	"mfverify/query"
	"mfverify/reader"
	"mfverify/share"
	"mfverify/utils"
)

// State is the plaintext material of one verification run. Initial
// matrices are read-only snapshots; Final matrices are the reconstructed
// protocol output and may be nil when a mode cannot be checked.
type State struct {
	InitialU *matrix.Matrix
	InitialV *matrix.Matrix
	FinalU   *matrix.Matrix
	FinalV   *matrix.Matrix
	Queries  []query.Raw
	// K is the width of embedded query vectors, 0 for index-only queries.
	K int
}

// Final returns the actual matrix for mode.
func (s *State) Final(mode Mode) *matrix.Matrix {
	if mode == CounterpartUpdate {
		return s.FinalV
	}
	return s.FinalU
}

// Initial returns the initial matrix for mode.
func (s *State) Initial(mode Mode) *matrix.Matrix {
	if mode == CounterpartUpdate {
		return s.InitialV
	}
	return s.InitialU
}

// ShareFiles names the four share files of one snapshot.
type ShareFiles struct {
	P0U string
	P1U string
	P0V string
	P1V string
}

// Layout locates every input of a share-protocol run.
type Layout struct {
	Initial ShareFiles
	Final   ShareFiles
	Queries string
	// Params is optional; a missing file skips the cross-check.
	Params string
}

// Loader reads inputs and reconstructs plaintext.
type Loader struct {
	Log   *zap.Logger
	Stats *utils.TimingStats
	// Arith is the share arithmetic; the zero value wraps modulo 2^64.
	Arith matrix.Arith
}

func (l *Loader) log() *zap.Logger {
	return utils.OrNop(l.Log)
}

func (l *Loader) readMatrix(path string) (*matrix.Matrix, error) {
	done := l.Stats.Track(utils.StageLoad)
	m, err := reader.ReadMatrixFile(path)
	done()
	if err != nil {
		return nil, err
	}
	l.log().Debug("Loaded matrix",
		zap.String("path", path),
		zap.Int("rows", m.Rows),
		zap.Int("cols", m.Cols))
	return m, nil
}

// Pair reads and reconstructs a share pair.
func (l *Loader) Pair(p0, p1 string) (*matrix.Matrix, error) {
	a, err := l.readMatrix(p0)
	if err != nil {
		return nil, err
	}
	b, err := l.readMatrix(p1)
	if err != nil {
		return nil, err
	}
	done := l.Stats.Track(utils.StageReconstruct)
	m, err := share.Reconstruct(a, b, l.Arith)
	done()
	if err != nil {
		return nil, fmt.Errorf("%s + %s: %w", p0, p1, err)
	}
	return m, nil
}

// Layout loads a share-protocol run: initial and final shares of U and V,
// the query log and, when present, the params file.
func (l *Loader) Layout(lay Layout) (*State, error) {
	st := &State{}
	var err error
	if st.InitialU, err = l.Pair(lay.Initial.P0U, lay.Initial.P1U); err != nil {
		return nil, err
	}
	if st.InitialV, err = l.Pair(lay.Initial.P0V, lay.Initial.P1V); err != nil {
		return nil, err
	}
	if st.FinalU, err = l.Pair(lay.Final.P0U, lay.Final.P1U); err != nil {
		return nil, err
	}
	if st.FinalV, err = l.Pair(lay.Final.P0V, lay.Final.P1V); err != nil {
		return nil, err
	}
	done := l.Stats.Track(utils.StageLoad)
	ql, err := reader.ReadQueryLogFile(lay.Queries)
	done()
	if err != nil {
		return nil, err
	}
	st.Queries, st.K = ql.Queries, ql.K
	l.log().Debug("Loaded queries",
		zap.String("path", lay.Queries),
		zap.Int("count", len(ql.Queries)),
		zap.Int("k", ql.K))

	if err := st.check(); err != nil {
		return nil, err
	}
	if lay.Params != "" {
		params, err := reader.ReadParamsFile(lay.Params)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.log().Debug("No params file", zap.String("path", lay.Params))
		case err != nil:
			return nil, err
		default:
			if err := st.checkParams(lay.Params, params); err != nil {
				return nil, err
			}
		}
	}
	return st, nil
}

// Plain loads the combined plaintext ground truth together with the final
// shares of U. Only SubjectUpdate can be verified from the result.
func (l *Loader) Plain(plainPath, p0U, p1U string) (*State, error) {
	done := l.Stats.Track(utils.StageLoad)
	p, err := reader.ReadPlainFile(plainPath)
	done()
	if err != nil {
		return nil, err
	}
	l.log().Debug("Loaded plaintext",
		zap.String("path", plainPath),
		zap.Int("m", p.U.Rows),
		zap.Int("n", p.V.Rows),
		zap.Int("k", p.U.Cols),
		zap.Int("q", len(p.Queries)))
	st := &State{InitialU: p.U, InitialV: p.V, Queries: p.Queries}
	if st.FinalU, err = l.Pair(p0U, p1U); err != nil {
		return nil, err
	}
	if err := st.check(); err != nil {
		return nil, err
	}
	return st, nil
}

// check enforces the shape invariants shared by every mode.
func (s *State) check() error {
	if s.InitialU.Cols != s.InitialV.Cols {
		return &matrix.ShapeMismatchError{Op: "U/V k", A: s.InitialU.Shape(), B: s.InitialV.Shape()}
	}
	if s.FinalU != nil {
		if err := matrix.CheckShape("final U", s.FinalU, s.InitialU); err != nil {
			return err
		}
	}
	if s.FinalV != nil {
		if err := matrix.CheckShape("final V", s.FinalV, s.InitialV); err != nil {
			return err
		}
	}
	if s.K > 0 && s.K != s.InitialU.Cols {
		return &matrix.ShapeMismatchError{
			Op: "query vectors",
			A:  matrix.Shape{Rows: len(s.Queries), Cols: s.K},
			B:  s.InitialU.Shape(),
		}
	}
	return nil
}

func (s *State) checkParams(path string, p reader.Params) error {
	if s.InitialU.Rows != p.M || s.InitialU.Cols != p.K {
		return &matrix.ShapeMismatchError{Op: "params U", A: matrix.Shape{Rows: p.M, Cols: p.K}, B: s.InitialU.Shape()}
	}
	if s.InitialV.Rows != p.N || s.InitialV.Cols != p.K {
		return &matrix.ShapeMismatchError{Op: "params V", A: matrix.Shape{Rows: p.N, Cols: p.K}, B: s.InitialV.Shape()}
	}
	if len(s.Queries) != p.Q {
		return &reader.FormatError{
			Path: path,
			Msg:  fmt.Sprintf("declares q=%d but the query log has %d queries", p.Q, len(s.Queries)),
		}
	}
	return nil
}
