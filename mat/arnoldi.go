package mat

import (
	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// Ground returns the lowest eigenpair of a Hermitian matrix using the Arnoldi
// iteration. It avoids a full eigendecomposition, at the price of float32
// precision, and is meant for picking out reference states of large systems.
func Ground(m *Dense) (float64, []complex128, error) {
	if !m.IsHermitian(hermTol) {
		return 0, nil, errors.Errorf("not hermitian")
	}
	n := m.rows

	t := tensor.Zeros(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			t.SetAt([]int{i, j}, complex64(m.data[i*n+j]))
		}
	}

	eigvals, eigvecs := tensor.Zeros(1), tensor.Zeros(1)
	var bufs [7]*tensor.Dense
	for i := range bufs {
		bufs[i] = tensor.Zeros(1)
	}
	if err := tensor.Arnoldi(eigvals, eigvecs, t, 1, bufs); err != nil {
		return 0, nil, errors.Wrap(err, "")
	}

	vec := make([]complex128, n)
	flat := eigvecs.Reshape(n)
	for i := 0; i < n; i++ {
		vec[i] = complex128(flat.At(i))
	}
	val := float64(real(eigvals.Reshape(1).At(0)))

	return val, vec, nil
}
