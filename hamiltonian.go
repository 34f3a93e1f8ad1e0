package dbi

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/fumin/dbi/mat"
)

// hermitianTol is the tolerance within which a matrix must be Hermitian.
const hermitianTol = 1e-10

var (
	identity = mat.Identity(2)
	pauliX   = mat.M(mat.PauliX)
	pauliY   = mat.M(mat.PauliY)
	pauliZ   = mat.M(mat.PauliZ)
)

// Hamiltonian is a Hermitian matrix on a register of qubits.
// It is immutable: every transformation returns a new Hamiltonian.
type Hamiltonian struct {
	qubits int
	matrix *mat.Dense
}

// NewHamiltonian wraps a Hermitian matrix whose dimension is a power of two.
func NewHamiltonian(m *mat.Dense) (*Hamiltonian, error) {
	if m.Rows() != m.Cols() {
		return nil, errors.Errorf("%d %d", m.Rows(), m.Cols())
	}
	n := m.Rows()
	if n < 2 || bits.OnesCount(uint(n)) != 1 {
		return nil, errors.Errorf("dimension %d not a power of two", n)
	}
	if !m.IsHermitian(hermitianTol) {
		return nil, errors.Errorf("not hermitian")
	}
	return &Hamiltonian{qubits: bits.TrailingZeros(uint(n)), matrix: m.Clone()}, nil
}

// Qubits returns the number of qubits.
func (h *Hamiltonian) Qubits() int { return h.qubits }

// Dim returns the matrix dimension 2^qubits.
func (h *Hamiltonian) Dim() int { return h.matrix.Rows() }

// Matrix returns the underlying matrix, which callers must not modify.
func (h *Hamiltonian) Matrix() *mat.Dense { return h.matrix }

// Exp returns e^{c*H}.
func (h *Hamiltonian) Exp(c complex128) *mat.Dense {
	return mat.ExpHermitian(h.matrix, c)
}

// Expectation returns <state|H|state> for a normalized pure state.
func (h *Hamiltonian) Expectation(state []complex128) float64 {
	return real(mat.Dot(state, mat.MulVec(h.matrix, state)))
}

// Variance returns <state|H^2|state> - <state|H|state>^2.
func (h *Hamiltonian) Variance(state []complex128) float64 {
	hs := mat.MulVec(h.matrix, state)
	h2 := real(mat.Dot(hs, hs))
	e := real(mat.Dot(state, hs))
	return h2 - e*e
}

// EnergyFluctuation returns sqrt(<H^2> - <H>^2) on the given state.
// The radicand is clipped at zero against floating-point underflow.
func (h *Hamiltonian) EnergyFluctuation(state []complex128) float64 {
	return math.Sqrt(math.Max(0, h.Variance(state)))
}

// Add returns h + c*o. Real combinations of Hermitian matrices stay Hermitian.
func (h *Hamiltonian) Add(c float64, o *Hamiltonian) (*Hamiltonian, error) {
	if h.Dim() != o.Dim() {
		return nil, errors.Errorf("%d %d", h.Dim(), o.Dim())
	}
	return &Hamiltonian{qubits: h.qubits, matrix: mat.Add(h.matrix, complex(c, 0), o.matrix)}, nil
}

// Scale returns c*h for a real scalar c.
func (h *Hamiltonian) Scale(c float64) *Hamiltonian {
	return &Hamiltonian{qubits: h.qubits, matrix: h.matrix.Scale(complex(c, 0))}
}

// Mul returns the matrix product h*o, which is in general not Hermitian.
func (h *Hamiltonian) Mul(o *Hamiltonian) (*mat.Dense, error) {
	if h.Dim() != o.Dim() {
		return nil, errors.Errorf("%d %d", h.Dim(), o.Dim())
	}
	return mat.Mul(h.matrix, o.matrix), nil
}

// conjugate returns U H U^dagger. The result of a unitary conjugation is
// Hermitian, so no revalidation takes place.
func (h *Hamiltonian) conjugate(u *mat.Dense) *Hamiltonian {
	m := mat.Mul(mat.Mul(u, h.matrix), u.Dagger())
	return &Hamiltonian{qubits: h.qubits, matrix: m}
}

// TransverseFieldIsing returns the Hamiltonian of the transverse field Ising
// model on an n[0] x n[1] lattice with field strength hf:
//
//	H = -sum_{<i,j>} Z_i Z_j - hf * sum_i X_i
func TransverseFieldIsing(n [2]int, hf float64) *Hamiltonian {
	numSpins := n[0] * n[1]
	hamiltonian := mat.Zeros(1<<numSpins, 1<<numSpins)

	for y := 0; y < n[0]; y++ {
		for x := 0; x < n[1]; x++ {
			up := y - 1
			if up >= 0 {
				hamiltonian = coupling(hamiltonian, n, [2]int{up, x}, [2]int{y, x})
			}

			left := x - 1
			if left >= 0 {
				hamiltonian = coupling(hamiltonian, n, [2]int{y, left}, [2]int{y, x})
			}

			hamiltonian = magnetic(hamiltonian, n, [2]int{y, x}, hf)
		}
	}

	return &Hamiltonian{qubits: numSpins, matrix: hamiltonian}
}

func coupling(hamiltonian *mat.Dense, n [2]int, i, j [2]int) *mat.Dense {
	system := mat.M([][]complex128{{1}})
	for y := 0; y < n[0]; y++ {
		for x := 0; x < n[1]; x++ {
			yx := [2]int{y, x}

			switch {
			case yx == i || yx == j:
				system = mat.Kron(system, pauliZ)
			default:
				system = mat.Kron(system, identity)
			}
		}
	}

	return mat.Add(hamiltonian, -1, system)
}

func magnetic(hamiltonian *mat.Dense, n [2]int, i [2]int, hf float64) *mat.Dense {
	system := mat.M([][]complex128{{1}})
	for y := 0; y < n[0]; y++ {
		for x := 0; x < n[1]; x++ {
			yx := [2]int{y, x}
			switch {
			case yx == i:
				system = mat.Kron(system, pauliX)
			default:
				system = mat.Kron(system, identity)
			}
		}
	}

	return mat.Add(hamiltonian, complex(-hf, 0), system)
}

// PauliTerm is a product of single-site Pauli factors with a real coefficient,
// such as 0.5 * Z0 Z1.
type PauliTerm struct {
	Coefficient float64
	// Factors maps a qubit index to one of 'X', 'Y', 'Z'.
	// Unmapped qubits carry the identity.
	Factors map[int]byte
}

// FromPauliTerms expands a symbolic sum of Pauli terms into a dense Hamiltonian.
func FromPauliTerms(qubits int, terms []PauliTerm) (*Hamiltonian, error) {
	if qubits < 1 {
		return nil, errors.Errorf("%d", qubits)
	}
	hamiltonian := mat.Zeros(1<<qubits, 1<<qubits)

	for _, term := range terms {
		system := mat.M([][]complex128{{1}})
		for q := 0; q < qubits; q++ {
			factor, ok := term.Factors[q]
			if !ok {
				system = mat.Kron(system, identity)
				continue
			}
			switch factor {
			case 'X':
				system = mat.Kron(system, pauliX)
			case 'Y':
				system = mat.Kron(system, pauliY)
			case 'Z':
				system = mat.Kron(system, pauliZ)
			default:
				return nil, errors.Errorf("unknown factor %q", factor)
			}
		}
		for q := range term.Factors {
			if q < 0 || q >= qubits {
				return nil, errors.Errorf("qubit %d out of %d", q, qubits)
			}
		}

		hamiltonian = mat.Add(hamiltonian, complex(term.Coefficient, 0), system)
	}

	return NewHamiltonian(hamiltonian)
}
