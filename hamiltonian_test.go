package dbi

import (
	"flag"
	"fmt"
	"log"
	"math"
	"testing"

	"github.com/fumin/dbi/mat"
)

func TestTransverseFieldIsing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n           [2]int
		h           float64
		hamiltonian *mat.Dense
	}{
		{
			n: [2]int{4, 1},
			h: 1,
			hamiltonian: mat.M([][]complex128{
				{-3, -1, -1, 0, -1, 0, 0, 0, -1, 0, 0, 0, 0, 0, 0, 0},
				{-1, -1, 0, -1, 0, -1, 0, 0, 0, -1, 0, 0, 0, 0, 0, 0},
				{-1, 0, 1, -1, 0, 0, -1, 0, 0, 0, -1, 0, 0, 0, 0, 0},
				{0, -1, -1, -1, 0, 0, 0, -1, 0, 0, 0, -1, 0, 0, 0, 0},
				{-1, 0, 0, 0, 1, -1, -1, 0, 0, 0, 0, 0, -1, 0, 0, 0},
				{0, -1, 0, 0, -1, 3, 0, -1, 0, 0, 0, 0, 0, -1, 0, 0},
				{0, 0, -1, 0, -1, 0, 1, -1, 0, 0, 0, 0, 0, 0, -1, 0},
				{0, 0, 0, -1, 0, -1, -1, -1, 0, 0, 0, 0, 0, 0, 0, -1},
				{-1, 0, 0, 0, 0, 0, 0, 0, -1, -1, -1, 0, -1, 0, 0, 0},
				{0, -1, 0, 0, 0, 0, 0, 0, -1, 1, 0, -1, 0, -1, 0, 0},
				{0, 0, -1, 0, 0, 0, 0, 0, -1, 0, 3, -1, 0, 0, -1, 0},
				{0, 0, 0, -1, 0, 0, 0, 0, 0, -1, -1, 1, 0, 0, 0, -1},
				{0, 0, 0, 0, -1, 0, 0, 0, -1, 0, 0, 0, -1, -1, -1, 0},
				{0, 0, 0, 0, 0, -1, 0, 0, 0, -1, 0, 0, -1, 1, 0, -1},
				{0, 0, 0, 0, 0, 0, -1, 0, 0, 0, -1, 0, -1, 0, -1, -1},
				{0, 0, 0, 0, 0, 0, 0, -1, 0, 0, 0, -1, 0, -1, -1, -3},
			}),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v %v", test.n, test.h), func(t *testing.T) {
			t.Parallel()
			h := TransverseFieldIsing(test.n, test.h)
			if !h.Matrix().Equal(test.hamiltonian) {
				t.Fatalf("\n%s, expected \n\n%s", h.Matrix(), test.hamiltonian)
			}
			if h.Qubits() != test.n[0]*test.n[1] {
				t.Fatalf("%d, expected %d", h.Qubits(), test.n[0]*test.n[1])
			}
		})
	}
}

func TestNewHamiltonian(t *testing.T) {
	t.Parallel()
	tests := []struct {
		m  *mat.Dense
		ok bool
	}{
		{m: mat.M(mat.PauliY), ok: true},
		// Not square.
		{m: mat.Zeros(2, 4), ok: false},
		// Not a power of two.
		{m: mat.Identity(3), ok: false},
		// Not Hermitian.
		{m: mat.M([][]complex128{{0, 1}, {2, 0}}), ok: false},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.m), func(t *testing.T) {
			t.Parallel()
			h, err := NewHamiltonian(test.m)
			if (err == nil) != test.ok {
				t.Fatalf("%+v, expected ok %t", err, test.ok)
			}
			if test.ok && h.Dim() != test.m.Rows() {
				t.Fatalf("%d, expected %d", h.Dim(), test.m.Rows())
			}
		})
	}
}

func TestFromPauliTerms(t *testing.T) {
	t.Parallel()
	// -Z0 Z1 - 3 X0 - 3 X1 is the two spin transverse field Ising model with h=3.
	terms := []PauliTerm{
		{Coefficient: -1, Factors: map[int]byte{0: 'Z', 1: 'Z'}},
		{Coefficient: -3, Factors: map[int]byte{0: 'X'}},
		{Coefficient: -3, Factors: map[int]byte{1: 'X'}},
	}
	h, err := FromPauliTerms(2, terms)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected := TransverseFieldIsing([2]int{2, 1}, 3)
	if !h.Matrix().Equal(expected.Matrix()) {
		t.Fatalf("\n%s, expected \n\n%s", h.Matrix(), expected.Matrix())
	}

	if _, err := FromPauliTerms(2, []PauliTerm{{Coefficient: 1, Factors: map[int]byte{0: 'W'}}}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := FromPauliTerms(2, []PauliTerm{{Coefficient: 1, Factors: map[int]byte{5: 'Z'}}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestArithmetic(t *testing.T) {
	t.Parallel()
	x, err := NewHamiltonian(mat.M(mat.PauliX))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	z, err := NewHamiltonian(mat.M(mat.PauliZ))
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// X + 2Z.
	sum, err := x.Add(2, z)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected := mat.M([][]complex128{
		{2, 1},
		{1, -2},
	})
	if !sum.Matrix().Equal(expected) {
		t.Fatalf("%s, expected %s", sum.Matrix(), expected)
	}

	if scaled := z.Scale(-3); !scaled.Matrix().Equal(mat.Diag([]complex128{-3, 3})) {
		t.Fatalf("%s", scaled.Matrix())
	}

	// XZ = -iY.
	product, err := x.Mul(z)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !product.Equal(mat.M(mat.PauliY).Scale(-1i)) {
		t.Fatalf("%s", product)
	}

	big := TransverseFieldIsing([2]int{2, 1}, 1)
	if _, err := x.Add(1, big); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := x.Mul(big); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExpectation(t *testing.T) {
	t.Parallel()
	h, err := NewHamiltonian(mat.M(mat.PauliZ))
	if err != nil {
		t.Fatalf("%+v", err)
	}

	up := []complex128{1, 0}
	if e := h.Expectation(up); math.Abs(e-1) > 1e-12 {
		t.Fatalf("%f", e)
	}

	plus := []complex128{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)}
	if e := h.Expectation(plus); math.Abs(e) > 1e-12 {
		t.Fatalf("%f", e)
	}
	if v := h.Variance(plus); math.Abs(v-1) > 1e-12 {
		t.Fatalf("%f", v)
	}
}

func TestEnergyFluctuation(t *testing.T) {
	t.Parallel()
	h := TransverseFieldIsing([2]int{3, 1}, 2)

	// The fluctuation is zero on every exact eigenstate.
	for i, vv := range mat.Eigen(h.Matrix()) {
		if xi := h.EnergyFluctuation(vv.Vec); math.Abs(xi) > 1e-6 {
			t.Fatalf("%d %f", i, xi)
		}
	}

	// On a superposition of eigenstates, the fluctuation is positive.
	vvs := mat.Eigen(h.Matrix())
	super := make([]complex128, h.Dim())
	for i := range super {
		super[i] = (vvs[0].Vec[i] + vvs[len(vvs)-1].Vec[i]) / complex(math.Sqrt2, 0)
	}
	if xi := h.EnergyFluctuation(super); xi < 1e-3 {
		t.Fatalf("%f", xi)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
