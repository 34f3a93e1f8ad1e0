package dbi

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/fumin/dbi/mat"
)

// Parameterization encodes a driving operator as a small parameter vector.
type Parameterization interface {
	// Decode returns the driving operator of the given parameters.
	Decode(params []float64) *mat.Dense
	// Encode projects an operator back to parameters. The projection is exact
	// for operators inside the spanned subspace, and a best-effort fit outside
	// of it.
	Encode(d *mat.Dense) []float64
	// Dim returns the number of parameters.
	Dim() int
}

// ZBasis parameterizes diagonal operators as coefficients over products of
// Pauli Z operators up to a locality order. Order 1 spans the single qubit
// terms Z0, Z1, ..., order 2 adds the two qubit terms Z0Z1, Z0Z2, ...
type ZBasis struct {
	qubits int
	labels []string
	ops    []*mat.Dense
}

// NewZBasis generates the Z-string basis once for the given qubit count and
// locality order. The basis is read-only after construction.
func NewZBasis(qubits, order int) (*ZBasis, error) {
	if qubits < 1 {
		return nil, errors.Errorf("%d", qubits)
	}
	if order < 1 || order > qubits {
		return nil, errors.Errorf("order %d out of [1, %d]", order, qubits)
	}

	b := &ZBasis{qubits: qubits}
	for size := 1; size <= order; size++ {
		for _, sites := range combinations(qubits, size) {
			names := make([]string, 0, len(sites))
			for _, s := range sites {
				names = append(names, fmt.Sprintf("Z%d", s))
			}
			b.labels = append(b.labels, strings.Join(names, ""))
			b.ops = append(b.ops, zString(qubits, sites))
		}
	}
	return b, nil
}

// Labels returns the Pauli-string label of every basis operator.
func (b *ZBasis) Labels() []string { return b.labels }

// Operator returns the basis matrix of the i-th parameter.
func (b *ZBasis) Operator(i int) *mat.Dense { return b.ops[i] }

func (b *ZBasis) Dim() int { return len(b.ops) }

func (b *ZBasis) Decode(params []float64) *mat.Dense {
	if len(params) != len(b.ops) {
		panic(fmt.Sprintf("%d %d", len(params), len(b.ops)))
	}
	d := mat.Zeros(1<<b.qubits, 1<<b.qubits)
	for i, c := range params {
		d = mat.Add(d, complex(c, 0), b.ops[i])
	}
	return d
}

// Encode projects d onto the basis by the trace inner product,
// c_i = Tr(B_i d) / Tr(B_i^2). Z strings square to the identity, so the
// denominator is the matrix dimension.
func (b *ZBasis) Encode(d *mat.Dense) []float64 {
	n := 1 << b.qubits
	params := make([]float64, len(b.ops))
	for i, op := range b.ops {
		params[i] = real(mat.Mul(op, d).Trace()) / float64(n)
	}
	return params
}

// zString returns the tensor product with Z on the given sites and identity
// elsewhere.
func zString(qubits int, sites []int) *mat.Dense {
	onSite := make(map[int]bool, len(sites))
	for _, s := range sites {
		onSite[s] = true
	}

	op := mat.M([][]complex128{{1}})
	for q := 0; q < qubits; q++ {
		switch {
		case onSite[q]:
			op = mat.Kron(op, pauliZ)
		default:
			op = mat.Kron(op, identity)
		}
	}
	return op
}

func combinations(n, size int) [][]int {
	combs := make([][]int, 0)
	comb := make([]int, size)
	var build func(start, i int)
	build = func(start, i int) {
		if i == size {
			combs = append(combs, append([]int{}, comb...))
			return
		}
		for s := start; s < n; s++ {
			comb[i] = s
			build(s+1, i+1)
		}
	}
	build(0, 0)
	return combs
}

// Computational parameterizes a diagonal operator directly by its diagonal
// entries.
type Computational struct {
	qubits int
}

// NewComputational returns the computational basis parameterization for the
// given qubit count.
func NewComputational(qubits int) (*Computational, error) {
	if qubits < 1 {
		return nil, errors.Errorf("%d", qubits)
	}
	return &Computational{qubits: qubits}, nil
}

func (c *Computational) Dim() int { return 1 << c.qubits }

func (c *Computational) Decode(params []float64) *mat.Dense {
	if len(params) != c.Dim() {
		panic(fmt.Sprintf("%d %d", len(params), c.Dim()))
	}
	diag := make([]complex128, len(params))
	for i, p := range params {
		diag[i] = complex(p, 0)
	}
	return mat.Diag(diag)
}

func (c *Computational) Encode(d *mat.Dense) []float64 {
	params := make([]float64, c.Dim())
	for i := range params {
		params[i] = real(d.At(i, i))
	}
	return params
}
