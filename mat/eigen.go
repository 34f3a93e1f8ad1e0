package mat

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// hermTol is the tolerance below which a matrix is considered Hermitian.
const hermTol = 1e-10

type ValVec struct {
	Val float64
	Vec []complex128
}

// Eigen returns the eigenpairs of a Hermitian matrix in ascending order of eigenvalue.
//
// A Hermitian matrix H = A + iB is embedded into the real symmetric matrix
// [[A, -B], [B, A]], whose spectrum is that of H doubled. Complex eigenvectors
// are recovered from the real ones as z = x + iy, dropping the duplicates by
// Gram-Schmidt elimination.
func Eigen(m *Dense) []ValVec {
	if !m.IsHermitian(hermTol) {
		panic("not hermitian")
	}
	n := m.rows

	embedded := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.data[i*n+j]
			embedded.SetSym(i, j, real(v))
			embedded.SetSym(i, n+j, -imag(v))
			embedded.SetSym(n+i, n+j, real(v))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(embedded, true); !ok {
		panic("eig.Factorize failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	vvs := make([]ValVec, 0, n)
	z := make([]complex128, n)
	for k := 0; k < 2*n && len(vvs) < n; k++ {
		for i := 0; i < n; i++ {
			z[i] = complex(vecs.At(i, k), vecs.At(n+i, k))
		}

		// Remove the components of already accepted eigenvectors.
		// Each eigenvector of the embedding appears twice as (x; y) and (-y; x),
		// which map to the same complex vector up to phase.
		for _, vv := range vvs {
			c := Dot(vv.Vec, z)
			for i, vi := range vv.Vec {
				z[i] -= c * vi
			}
		}
		var norm float64
		for _, zi := range z {
			norm += real(zi)*real(zi) + imag(zi)*imag(zi)
		}
		norm = math.Sqrt(norm)
		if norm < 1e-6 {
			continue
		}

		vec := make([]complex128, n)
		for i, zi := range z {
			vec[i] = zi / complex(norm, 0)
		}
		vvs = append(vvs, ValVec{Val: vals[k], Vec: vec})
	}
	if len(vvs) != n {
		panic(fmt.Sprintf("%d %d", len(vvs), n))
	}

	return vvs
}

// ExpHermitian returns e^{c*m} for Hermitian m and complex scalar c,
// computed from the spectral decomposition m = V diag(lambda) V^dagger.
func ExpHermitian(m *Dense, c complex128) *Dense {
	vvs := Eigen(m)
	n := m.rows

	v := Zeros(n, n)
	for j, vv := range vvs {
		for i := 0; i < n; i++ {
			v.Set(i, j, vv.Vec[i])
		}
	}

	expd := Zeros(n, n)
	for j, vv := range vvs {
		expd.Set(j, j, cmplx.Exp(c*complex(vv.Val, 0)))
	}

	return Mul(Mul(v, expd), v.Dagger())
}

// ExpAntiHermitian returns the unitary e^{s*w} for anti-Hermitian w and real s.
func ExpAntiHermitian(w *Dense, s float64) *Dense {
	// -i*w is Hermitian, and e^{s*w} = e^{i*s*(-i*w)}.
	return ExpHermitian(w.Scale(-1i), complex(0, s))
}
