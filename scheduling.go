package dbi

import (
	"math"
	"math/cmplx"
	"math/rand"
	"runtime"
	"sync"

	"github.com/cwbudde/mayfly"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	dmat "github.com/fumin/dbi/mat"
)

// Scheduling selects the strategy for picking the step size of an iteration.
type Scheduling int

const (
	// GridSearch evaluates the cost at evenly spaced steps and returns the best.
	GridSearch Scheduling = iota
	// Hyperopt runs a seeded black-box optimizer over the step range.
	Hyperopt
	// PolynomialApproximation fits a polynomial to sampled costs and returns
	// its first local minimum inside the step range.
	PolynomialApproximation
)

func (s Scheduling) String() string {
	switch s {
	case GridSearch:
		return "grid_search"
	case Hyperopt:
		return "hyperopt"
	case PolynomialApproximation:
		return "polynomial_approximation"
	}
	return "unknown"
}

func ParseScheduling(s string) (Scheduling, error) {
	for _, sch := range []Scheduling{GridSearch, Hyperopt, PolynomialApproximation} {
		if sch.String() == s {
			return sch, nil
		}
	}
	return 0, errors.Errorf("unknown scheduling %q", s)
}

// StepOptions configure ChooseStep.
type StepOptions struct {
	stepMin float64
	stepMax float64

	gridPoints int

	budget int
	seed   int64

	degree  int
	samples int

	scheduling    Scheduling
	hasScheduling bool
	cost          Cost
	hasCost       bool
}

// NewStepOptions returns the default step options.
func NewStepOptions() StepOptions {
	opt := StepOptions{}
	opt.stepMin = 1e-5
	opt.stepMax = 1
	opt.gridPoints = 50
	opt.budget = 50
	opt.seed = 1
	opt.degree = 3
	opt.samples = 10
	return opt
}

// StepMin sets the lower bound of the step range.
func (opt StepOptions) StepMin(v float64) StepOptions {
	opt.stepMin = v
	return opt
}

// StepMax sets the upper bound of the step range.
func (opt StepOptions) StepMax(v float64) StepOptions {
	opt.stepMax = v
	return opt
}

// GridPoints sets the grid resolution of GridSearch.
func (opt StepOptions) GridPoints(n int) StepOptions {
	opt.gridPoints = n
	return opt
}

// Budget sets the evaluation budget of the Hyperopt optimizer.
func (opt StepOptions) Budget(n int) StepOptions {
	opt.budget = n
	return opt
}

// Seed seeds the Hyperopt optimizer for reproducibility.
func (opt StepOptions) Seed(s int64) StepOptions {
	opt.seed = s
	return opt
}

// Degree sets the degree of the PolynomialApproximation fit.
func (opt StepOptions) Degree(n int) StepOptions {
	opt.degree = n
	return opt
}

// Samples sets the number of sampled (step, cost) pairs of the
// PolynomialApproximation fit.
func (opt StepOptions) Samples(n int) StepOptions {
	opt.samples = n
	return opt
}

// Scheduling overrides the scheduling strategy for a single call.
func (opt StepOptions) Scheduling(s Scheduling) StepOptions {
	opt.scheduling = s
	opt.hasScheduling = true
	return opt
}

// Cost overrides the cost function for a single call.
func (opt StepOptions) Cost(c Cost) StepOptions {
	opt.cost = c
	opt.hasCost = true
	return opt
}

// ChooseStep picks a step size for the current Hamiltonian and driving
// operator d without mutating the iteration state. When d is nil, the
// diagonal of the current Hamiltonian is used.
//
// The returned bool is false when the scheduler could not produce a valid
// step. Callers treat this as an ordinary no-progress condition, not a
// failure.
func (it *DoubleBracketIteration) ChooseStep(d *dmat.Dense, options ...StepOptions) (float64, bool, error) {
	opt := NewStepOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if err := it.validateDrive(d); err != nil {
		return 0, false, err
	}
	if !(opt.stepMin < opt.stepMax) {
		return 0, false, errors.Errorf("step range [%f, %f]", opt.stepMin, opt.stepMax)
	}
	scheduling := it.scheduling
	if opt.hasScheduling {
		scheduling = opt.scheduling
	}
	cost := it.cost
	if opt.hasCost {
		cost = opt.cost
	}
	switch cost {
	case OffDiagonalNorm, LeastSquares, EnergyFluctuation:
	default:
		return 0, false, errors.Errorf("unknown cost %d", cost)
	}
	if cost == EnergyFluctuation && len(it.state) != it.current.Dim() {
		return 0, false, errors.Errorf("reference state %d, expected %d", len(it.state), it.current.Dim())
	}

	loss := func(step float64) float64 {
		return it.loss(step, d, cost)
	}

	var step float64
	var ok bool
	switch scheduling {
	case GridSearch:
		step, ok = gridSearchStep(loss, opt)
	case Hyperopt:
		step, ok = hyperoptStep(loss, opt)
	case PolynomialApproximation:
		step, ok = polynomialStep(loss, opt)
	default:
		return 0, false, errors.Errorf("unknown scheduling %d", scheduling)
	}
	return step, ok, nil
}

// gridSearchStep evaluates the cost at evenly spaced steps.
// Candidates are independent and evaluated in parallel; the choice does not
// depend on evaluation order, since ties are broken by the lowest index.
func gridSearchStep(loss func(float64) float64, opt StepOptions) (float64, bool) {
	if opt.gridPoints < 1 {
		return 0, false
	}

	steps := make([]float64, opt.gridPoints)
	costs := make([]float64, opt.gridPoints)
	for i := range steps {
		frac := 0.0
		if opt.gridPoints > 1 {
			frac = float64(i) / float64(opt.gridPoints-1)
		}
		steps[i] = opt.stepMin + frac*(opt.stepMax-opt.stepMin)
	}

	// Fan out over a bounded pool of workers.
	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(opt.gridPoints, runtime.NumCPU()); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				costs[i] = loss(steps[i])
			}
		}()
	}
	for i := range steps {
		indices <- i
	}
	close(indices)
	wg.Wait()

	best := 0
	for i, c := range costs {
		if c < costs[best] {
			best = i
		}
	}
	return steps[best], true
}

// hyperoptStep searches the step range with a seeded population optimizer.
// It may miss the global optimum within its budget, which is an accepted
// approximation.
func hyperoptStep(loss func(float64) float64, opt StepOptions) (float64, bool) {
	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 {
		return loss(math.Min(math.Max(x[0], opt.stepMin), opt.stepMax))
	}
	config.ProblemSize = 1
	config.MaxIterations = opt.budget
	config.LowerBound = opt.stepMin
	config.UpperBound = opt.stepMax
	config.Rand = rand.New(rand.NewSource(opt.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return 0, false
	}
	step := math.Min(math.Max(result.GlobalBest.Position[0], opt.stepMin), opt.stepMax)
	return step, true
}

// polynomialStep fits a polynomial to sampled (step, cost) pairs and returns
// the smallest root of its derivative that is a local minimum inside the step
// range. It returns no step when no such root exists.
func polynomialStep(loss func(float64) float64, opt StepOptions) (float64, bool) {
	degree := opt.degree
	samples := max(opt.samples, degree+2)
	if degree < 2 {
		return 0, false
	}

	steps := make([]float64, samples)
	costs := make([]float64, samples)
	for i := range steps {
		frac := float64(i) / float64(samples-1)
		steps[i] = opt.stepMin + frac*(opt.stepMax-opt.stepMin)
		costs[i] = loss(steps[i])
	}

	coeffs, ok := polyfit(steps, costs, degree)
	if !ok {
		return 0, false
	}
	deriv := polyDerivative(coeffs)
	curv := polyDerivative(deriv)

	best := math.Inf(1)
	for _, root := range polyRoots(deriv) {
		if math.Abs(imag(root)) > 1e-8 {
			continue
		}
		s := real(root)
		if s < opt.stepMin || s > opt.stepMax {
			continue
		}
		if polyEval(curv, s) <= 0 {
			continue
		}
		if s < best {
			best = s
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// polyfit least-squares fits a polynomial of the given degree, returning its
// coefficients in ascending order of power.
func polyfit(xs, ys []float64, degree int) ([]float64, bool) {
	vandermonde := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		pow := 1.0
		for j := 0; j <= degree; j++ {
			vandermonde.Set(i, j, pow)
			pow *= x
		}
	}

	var coeffs mat.VecDense
	if err := coeffs.SolveVec(vandermonde, mat.NewVecDense(len(ys), ys)); err != nil {
		return nil, false
	}

	cs := make([]float64, degree+1)
	for j := range cs {
		cs[j] = coeffs.AtVec(j)
	}
	return cs, true
}

func polyDerivative(coeffs []float64) []float64 {
	if len(coeffs) <= 1 {
		return nil
	}
	deriv := make([]float64, len(coeffs)-1)
	for i := range deriv {
		deriv[i] = coeffs[i+1] * float64(i+1)
	}
	return deriv
}

func polyEval(coeffs []float64, x float64) float64 {
	var y float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = y*x + coeffs[i]
	}
	return y
}

// polyRoots returns the roots of a polynomial as the eigenvalues of its
// companion matrix.
func polyRoots(coeffs []float64) []complex128 {
	// Trim vanishing leading coefficients.
	n := len(coeffs)
	for n > 0 && math.Abs(coeffs[n-1]) < 1e-12 {
		n--
	}
	if n <= 1 {
		return nil
	}
	coeffs = coeffs[:n]
	degree := n - 1

	companion := mat.NewDense(degree, degree, nil)
	for i := 0; i < degree; i++ {
		companion.Set(i, degree-1, -coeffs[i]/coeffs[degree])
		if i > 0 {
			companion.Set(i, i-1, 1)
		}
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil
	}
	roots := eig.Values(nil)

	// Polish the real roots with a few Newton iterations. The companion
	// eigenvalues of a least-squares fit can be off by more than the root
	// tolerance.
	for i, r := range roots {
		if math.Abs(imag(r)) > 1e-8 {
			continue
		}
		x := real(r)
		for k := 0; k < 3; k++ {
			d := polyEval(polyDerivative(coeffs), x)
			if d == 0 {
				break
			}
			x -= polyEval(coeffs, x) / d
		}
		if !math.IsNaN(x) && !math.IsInf(x, 0) && cmplx.Abs(complex(x, 0)-r) < 1e-3 {
			roots[i] = complex(x, 0)
		}
	}
	return roots
}
