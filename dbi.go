// Package dbi implements the double-bracket iteration for diagonalizing
// Hamiltonians.
//
// The double-bracket iteration drives a Hermitian matrix H towards diagonal
// form by repeatedly conjugating it with unitaries generated from commutators,
//
//	H_{k+1} = e^{s W} H_k e^{-s W}, W = [D, H_k],
//
// where D is a diagonal driving operator and s a step size chosen at every
// iteration. Progress is measured by the Hilbert-Schmidt norm of the
// off-diagonal part of H.
//
// References:
//   - Double-bracket quantum algorithms for diagonalization, Marek Gluza
package dbi

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fumin/dbi/mat"
)

// Generator selects the unitary rotation applied at each iteration.
type Generator int

const (
	// Canonical generates rotations from [diag(H), offdiag(H)].
	Canonical Generator = iota
	// SingleCommutator generates rotations from [D, H].
	SingleCommutator
	// GroupCommutator approximates the single commutator flow by the product
	// formula e^{irH} e^{irD} e^{-irH} e^{-irD} with r = sqrt(s).
	GroupCommutator
)

func (g Generator) String() string {
	switch g {
	case Canonical:
		return "canonical"
	case SingleCommutator:
		return "single_commutator"
	case GroupCommutator:
		return "group_commutator"
	}
	return "unknown"
}

func ParseGenerator(s string) (Generator, error) {
	for _, g := range []Generator{Canonical, SingleCommutator, GroupCommutator} {
		if g.String() == s {
			return g, nil
		}
	}
	return 0, errors.Errorf("unknown generator %q", s)
}

// Options configure a DoubleBracketIteration.
type Options struct {
	generator  Generator
	cost       Cost
	scheduling Scheduling
	state      []complex128
}

// NewOptions returns the default options.
func NewOptions() Options {
	opt := Options{}
	opt.generator = Canonical
	opt.cost = OffDiagonalNorm
	opt.scheduling = GridSearch
	return opt
}

// Generator sets the default generator mode.
func (opt Options) Generator(g Generator) Options {
	opt.generator = g
	return opt
}

// Cost sets the default cost function.
func (opt Options) Cost(c Cost) Options {
	opt.cost = c
	return opt
}

// Scheduling sets the default step scheduling strategy.
func (opt Options) Scheduling(s Scheduling) Options {
	opt.scheduling = s
	return opt
}

// ReferenceState sets the pure state on which the EnergyFluctuation cost is
// evaluated.
func (opt Options) ReferenceState(state []complex128) Options {
	opt.state = state
	return opt
}

// DoubleBracketIteration iterates unitary conjugations on a Hamiltonian.
// An instance is owned by a single caller and must not be shared across
// concurrent mutators.
type DoubleBracketIteration struct {
	initial *Hamiltonian
	current *Hamiltonian

	generator  Generator
	cost       Cost
	scheduling Scheduling
	state      []complex128
}

// New returns a double-bracket iteration starting from h.
func New(h *Hamiltonian, options ...Options) (*DoubleBracketIteration, error) {
	opt := NewOptions()
	if len(options) > 0 {
		opt = options[0]
	}

	switch opt.generator {
	case Canonical, SingleCommutator, GroupCommutator:
	default:
		return nil, errors.Errorf("unknown generator %d", opt.generator)
	}
	switch opt.cost {
	case OffDiagonalNorm, LeastSquares, EnergyFluctuation:
	default:
		return nil, errors.Errorf("unknown cost %d", opt.cost)
	}
	switch opt.scheduling {
	case GridSearch, Hyperopt, PolynomialApproximation:
	default:
		return nil, errors.Errorf("unknown scheduling %d", opt.scheduling)
	}
	if opt.cost == EnergyFluctuation && len(opt.state) != h.Dim() {
		return nil, errors.Errorf("reference state %d, expected %d", len(opt.state), h.Dim())
	}

	it := &DoubleBracketIteration{
		initial:    h,
		current:    h,
		generator:  opt.generator,
		cost:       opt.cost,
		scheduling: opt.scheduling,
		state:      opt.state,
	}
	return it, nil
}

// Clone returns an independent copy of the iteration, so that alternative
// strategies can be explored from the same state without affecting each other.
// Hamiltonians are immutable and safely shared between clones.
func (it *DoubleBracketIteration) Clone() *DoubleBracketIteration {
	c := *it
	return &c
}

// Initial returns the Hamiltonian the iteration started from.
// It is never modified by the iteration.
func (it *DoubleBracketIteration) Initial() *Hamiltonian { return it.initial }

// Hamiltonian returns the current Hamiltonian.
func (it *DoubleBracketIteration) Hamiltonian() *Hamiltonian { return it.current }

// OffDiagonalNorm returns the convergence metric of the current Hamiltonian.
func (it *DoubleBracketIteration) OffDiagonalNorm() float64 {
	return it.current.Matrix().OffDiagonalNorm()
}

// ApplyOptions override per-call aspects of Apply.
type ApplyOptions struct {
	generator    Generator
	hasGenerator bool
	d            *mat.Dense
}

// NewApplyOptions returns the default Apply options.
func NewApplyOptions() ApplyOptions {
	return ApplyOptions{}
}

// Generator overrides the generator mode for a single call.
func (opt ApplyOptions) Generator(g Generator) ApplyOptions {
	opt.generator = g
	opt.hasGenerator = true
	return opt
}

// D sets the driving operator. When nil, the diagonal of the current
// Hamiltonian is used.
func (opt ApplyOptions) D(d *mat.Dense) ApplyOptions {
	opt.d = d
	return opt
}

// Apply commits one iteration with the given step size, replacing the current
// Hamiltonian. The initial Hamiltonian is untouched.
func (it *DoubleBracketIteration) Apply(step float64, options ...ApplyOptions) error {
	opt := NewApplyOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	generator := it.generator
	if opt.hasGenerator {
		generator = opt.generator
	}
	switch generator {
	case Canonical, SingleCommutator, GroupCommutator:
	default:
		return errors.Errorf("unknown generator %d", generator)
	}
	if err := it.validateDrive(opt.d); err != nil {
		return err
	}

	it.current = evolve(it.current, generator, step, opt.d)
	return nil
}

// Loss evaluates the configured cost function on the Hamiltonian that would
// result from applying the given step, without mutating the iteration state.
func (it *DoubleBracketIteration) Loss(step float64, d *mat.Dense) (float64, error) {
	if err := it.validateDrive(d); err != nil {
		return 0, err
	}
	return it.loss(step, d, it.cost), nil
}

func (it *DoubleBracketIteration) loss(step float64, d *mat.Dense, cost Cost) float64 {
	// Resolve the default driving operator once, so that costs comparing
	// against d score every candidate step against the same target.
	if d == nil {
		d = it.current.Matrix().Diagonal()
	}
	h := evolve(it.current, it.generator, step, d)
	return it.score(h, d, cost)
}

func (it *DoubleBracketIteration) validateDrive(d *mat.Dense) error {
	if d == nil {
		return nil
	}
	if d.Rows() != it.current.Dim() || d.Cols() != it.current.Dim() {
		return errors.Errorf("%dx%d, expected %d", d.Rows(), d.Cols(), it.current.Dim())
	}
	if !d.IsHermitian(hermitianTol) {
		return errors.Errorf("driving operator not hermitian")
	}
	return nil
}

// evolve computes the Hamiltonian after one rotation.
// All generator modes are unitary conjugations, so the result stays Hermitian
// and keeps the eigenvalue spectrum of h.
func evolve(h *Hamiltonian, generator Generator, step float64, d *mat.Dense) *Hamiltonian {
	if d == nil {
		d = h.Matrix().Diagonal()
	}

	var u *mat.Dense
	switch generator {
	case Canonical:
		w := mat.Commutator(h.Matrix().Diagonal(), h.Matrix().OffDiagonal())
		u = mat.ExpAntiHermitian(w, step)
	case SingleCommutator:
		w := mat.Commutator(d, h.Matrix())
		u = mat.ExpAntiHermitian(w, step)
	case GroupCommutator:
		u = groupCommutator(h, d, step)
	default:
		panic(generator.String())
	}

	return h.conjugate(u)
}

// groupCommutator returns e^{irH} e^{irD} e^{-irH} e^{-irD} with r = sqrt(s),
// which agrees with e^{s[D,H]} to first order in s. For negative s the roles
// of H and D are swapped, flipping the sign of the commutator.
func groupCommutator(h *Hamiltonian, d *mat.Dense, step float64) *mat.Dense {
	r := math.Sqrt(math.Abs(step))

	a, b := h.Matrix(), d
	if step < 0 {
		a, b = d, h.Matrix()
	}

	u := mat.ExpHermitian(a, complex(0, r))
	u = mat.Mul(u, mat.ExpHermitian(b, complex(0, r)))
	u = mat.Mul(u, mat.ExpHermitian(a, complex(0, -r)))
	u = mat.Mul(u, mat.ExpHermitian(b, complex(0, -r)))
	return u
}
