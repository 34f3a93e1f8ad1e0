package dbi

import (
	"github.com/pkg/errors"

	"github.com/fumin/dbi/mat"
)

// Cost scores how far a Hamiltonian is from the target diagonal profile.
// Lower is better for every variant.
type Cost int

const (
	// OffDiagonalNorm is the Hilbert-Schmidt norm of the off-diagonal part of H.
	OffDiagonalNorm Cost = iota
	// LeastSquares is (||D||^2 + ||H||^2)/2 - Tr(D H), steering H towards D.
	// The ||H||^2 term is an additive constant across candidate steps, and is
	// kept so that reported costs are absolute rather than merely comparable.
	// When no driving operator is supplied, the target D is the diagonal of
	// the Hamiltonian at the start of the probe, fixed across candidate steps.
	LeastSquares
	// EnergyFluctuation is sqrt(<H^2> - <H>^2) on a fixed reference state.
	EnergyFluctuation
)

func (c Cost) String() string {
	switch c {
	case OffDiagonalNorm:
		return "off_diagonal_norm"
	case LeastSquares:
		return "least_squares"
	case EnergyFluctuation:
		return "energy_fluctuation"
	}
	return "unknown"
}

func ParseCost(s string) (Cost, error) {
	for _, c := range []Cost{OffDiagonalNorm, LeastSquares, EnergyFluctuation} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown cost %q", s)
}

// score evaluates a cost function on a hypothetical Hamiltonian.
// It must stay free of side effects, since schedulers probe many candidate
// steps without committing any of them.
func (it *DoubleBracketIteration) score(h *Hamiltonian, d *mat.Dense, cost Cost) float64 {
	switch cost {
	case OffDiagonalNorm:
		return h.Matrix().OffDiagonalNorm()
	case LeastSquares:
		dn, hn := d.Norm(), h.Matrix().Norm()
		return (dn*dn+hn*hn)/2 - real(mat.Mul(d, h.Matrix()).Trace())
	case EnergyFluctuation:
		return h.EnergyFluctuation(it.state)
	default:
		panic(cost.String())
	}
}
