// Package mat provides dense complex linear algebra for Hamiltonian flows.
package mat

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

var (
	PauliX = [][]complex128{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex128{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex128{
		{1, 0},
		{0, -1},
	}
)

// Dense is a dense complex matrix in row-major order.
type Dense struct {
	rows int
	cols int
	data []complex128
}

func M(dense [][]complex128) *Dense {
	m := Zeros(len(dense), len(dense[0]))
	for i, row := range dense {
		if len(row) != m.cols {
			panic(fmt.Sprintf("%d %d", len(row), m.cols))
		}
		copy(m.data[i*m.cols:(i+1)*m.cols], row)
	}
	return m
}

func Zeros(rows, cols int) *Dense {
	return &Dense{rows: rows, cols: cols, data: make([]complex128, rows*cols)}
}

func Identity(n int) *Dense {
	m := Zeros(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// Diag returns the square matrix whose diagonal is v.
func Diag(v []complex128) *Dense {
	m := Zeros(len(v), len(v))
	for i, vi := range v {
		m.data[i*len(v)+i] = vi
	}
	return m
}

func (m *Dense) Rows() int { return m.rows }
func (m *Dense) Cols() int { return m.cols }

func (m *Dense) At(i, j int) complex128 {
	return m.data[i*m.cols+j]
}

func (m *Dense) Set(i, j int, v complex128) {
	m.data[i*m.cols+j] = v
}

func (m *Dense) Clone() *Dense {
	c := Zeros(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

func (a *Dense) Equal(b *Dense) bool {
	return a.EqualApprox(b, 0)
}

func (a *Dense) EqualApprox(b *Dense, tol float64) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	for i, av := range a.data {
		if cmplx.Abs(av-b.data[i]) > tol {
			return false
		}
	}
	return true
}

// Add returns a + c*b.
func Add(a *Dense, c complex128, b *Dense) *Dense {
	if a.rows != b.rows || a.cols != b.cols {
		panic(fmt.Sprintf("%dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	s := Zeros(a.rows, a.cols)
	for i, av := range a.data {
		s.data[i] = av + c*b.data[i]
	}
	return s
}

func Mul(a, b *Dense) *Dense {
	if a.cols != b.rows {
		panic(fmt.Sprintf("%dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	p := Zeros(a.rows, b.cols)
	for i := 0; i < a.rows; i++ {
		for k := 0; k < a.cols; k++ {
			aik := a.data[i*a.cols+k]
			if aik == 0 {
				continue
			}
			for j := 0; j < b.cols; j++ {
				p.data[i*p.cols+j] += aik * b.data[k*b.cols+j]
			}
		}
	}
	return p
}

func (m *Dense) Scale(c complex128) *Dense {
	s := Zeros(m.rows, m.cols)
	for i, v := range m.data {
		s.data[i] = c * v
	}
	return s
}

// Dagger returns the conjugate transpose.
func (m *Dense) Dagger() *Dense {
	d := Zeros(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			d.data[j*d.cols+i] = cmplx.Conj(m.data[i*m.cols+j])
		}
	}
	return d
}

// Commutator returns [a, b] = ab - ba.
func Commutator(a, b *Dense) *Dense {
	return Add(Mul(a, b), -1, Mul(b, a))
}

func Kron(a, b *Dense) *Dense {
	k := Zeros(a.rows*b.rows, a.cols*b.cols)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < a.cols; j++ {
			av := a.data[i*a.cols+j]
			if av == 0 {
				continue
			}
			for y := 0; y < b.rows; y++ {
				for x := 0; x < b.cols; x++ {
					k.data[(i*b.rows+y)*k.cols+(j*b.cols+x)] = av * b.data[y*b.cols+x]
				}
			}
		}
	}
	return k
}

func (m *Dense) Trace() complex128 {
	if m.rows != m.cols {
		panic(fmt.Sprintf("%dx%d", m.rows, m.cols))
	}
	var tr complex128
	for i := 0; i < m.rows; i++ {
		tr += m.data[i*m.cols+i]
	}
	return tr
}

// Diagonal returns the diagonal part of m with all off-diagonal entries zeroed.
func (m *Dense) Diagonal() *Dense {
	d := Zeros(m.rows, m.cols)
	for i := 0; i < min(m.rows, m.cols); i++ {
		d.data[i*m.cols+i] = m.data[i*m.cols+i]
	}
	return d
}

// OffDiagonal returns m with its diagonal zeroed.
func (m *Dense) OffDiagonal() *Dense {
	d := m.Clone()
	for i := 0; i < min(m.rows, m.cols); i++ {
		d.data[i*m.cols+i] = 0
	}
	return d
}

// Norm returns the Hilbert-Schmidt norm sqrt(sum |m_ij|^2).
func (m *Dense) Norm() float64 {
	var sum float64
	for _, v := range m.data {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(sum)
}

// OffDiagonalNorm returns the Hilbert-Schmidt norm of the off-diagonal part of m.
// It is zero exactly when m is diagonal.
func (m *Dense) OffDiagonalNorm() float64 {
	var sum float64
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if i == j {
				continue
			}
			v := m.data[i*m.cols+j]
			sum += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return math.Sqrt(sum)
}

func (m *Dense) IsHermitian(tol float64) bool {
	if m.rows != m.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i; j < m.cols; j++ {
			if cmplx.Abs(m.data[i*m.cols+j]-cmplx.Conj(m.data[j*m.cols+i])) > tol {
				return false
			}
		}
	}
	return true
}

// IsDiagonal reports whether every off-diagonal entry is within tol of zero.
func (m *Dense) IsDiagonal(tol float64) bool {
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if i == j {
				continue
			}
			if cmplx.Abs(m.data[i*m.cols+j]) > tol {
				return false
			}
		}
	}
	return true
}

// MulVec returns m @ x.
func MulVec(m *Dense, x []complex128) []complex128 {
	if m.cols != len(x) {
		panic(fmt.Sprintf("%dx%d %d", m.rows, m.cols, len(x)))
	}
	y := make([]complex128, m.rows)
	for i := 0; i < m.rows; i++ {
		var s complex128
		for j, xj := range x {
			s += m.data[i*m.cols+j] * xj
		}
		y[i] = s
	}
	return y
}

// Dot returns <x|y> with x conjugated.
func Dot(x, y []complex128) complex128 {
	if len(x) != len(y) {
		panic(fmt.Sprintf("%d %d", len(x), len(y)))
	}
	var s complex128
	for i, xi := range x {
		s += cmplx.Conj(xi) * y[i]
	}
	return s
}

func (m *Dense) String() string {
	lines := []string{}
	for i := 0; i < m.rows; i++ {
		cs := []string{}
		for j := 0; j < m.cols; j++ {
			v := m.data[i*m.cols+j]
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		l := strings.Join(cs, "\t")
		lines = append(lines, l)
	}
	return strings.Join(lines, "\n")
}

func format(v float64) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%v", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}
