package dbi

import (
	"github.com/pkg/errors"
)

// GradientDescentOptions configure GradientDescent.
type GradientDescentOptions struct {
	learningRate float64
	delta        float64
	step         StepOptions
}

// NewGradientDescentOptions returns the default gradient descent options.
func NewGradientDescentOptions() GradientDescentOptions {
	opt := GradientDescentOptions{}
	opt.learningRate = 1e-2
	opt.delta = 1e-3
	opt.step = NewStepOptions()
	return opt
}

// LearningRate sets the parameter update rate.
func (opt GradientDescentOptions) LearningRate(lr float64) GradientDescentOptions {
	opt.learningRate = lr
	return opt
}

// Delta sets the magnitude of the finite-difference perturbation.
func (opt GradientDescentOptions) Delta(d float64) GradientDescentOptions {
	opt.delta = d
	return opt
}

// StepOptions sets the options of the per-iteration step scheduler.
func (opt GradientDescentOptions) StepOptions(s StepOptions) GradientDescentOptions {
	opt.step = s
	return opt
}

// GradientNumerical estimates the gradient of the cost function with respect
// to the driving operator parameters by symmetric finite differences of
// magnitude delta, at the given candidate step.
func GradientNumerical(it *DoubleBracketIteration, params []float64, param Parameterization, step, delta float64) ([]float64, error) {
	if len(params) != param.Dim() {
		return nil, errors.Errorf("%d %d", len(params), param.Dim())
	}

	grad := make([]float64, len(params))
	perturbed := append([]float64{}, params...)
	for i := range params {
		perturbed[i] = params[i] + delta
		up, err := it.Loss(step, param.Decode(perturbed))
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		perturbed[i] = params[i] - delta
		down, err := it.Loss(step, param.Decode(perturbed))
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		perturbed[i] = params[i]
		grad[i] = (up - down) / (2 * delta)
	}
	return grad, nil
}

// GradientDescent adapts the driving operator itself over iterations cycles of
// (decode parameters, choose step, apply, gradient update). Each iteration
// chooses its step with the polynomial approximation scheduler against the
// current Hamiltonian and decoded driving operator.
//
// It returns three parallel histories of off-diagonal norms, parameters and
// step sizes, whose first entries are the pre-iteration norm, the initial
// parameters and a zero step. The histories are shorter than iterations+1 when
// no progress was possible anymore; early termination is not an error.
func GradientDescent(it *DoubleBracketIteration, iterations int, initial []float64, param Parameterization, options ...GradientDescentOptions) ([]float64, [][]float64, []float64, error) {
	opt := NewGradientDescentOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if len(initial) != param.Dim() {
		return nil, nil, nil, errors.Errorf("%d %d", len(initial), param.Dim())
	}

	params := append([]float64{}, initial...)
	norms := []float64{it.OffDiagonalNorm()}
	paramHist := [][]float64{append([]float64{}, params...)}
	steps := []float64{0}

	stepOpt := opt.step.Scheduling(PolynomialApproximation)
	for i := 0; i < iterations; i++ {
		d := param.Decode(params)

		step, ok, err := it.ChooseStep(d, stepOpt)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "")
		}
		if !ok {
			break
		}

		// Discard steps the fit believed in but which do not actually improve
		// on the current cost.
		current, err := it.Loss(0, d)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "")
		}
		candidate, err := it.Loss(step, d)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "")
		}
		if candidate >= current {
			break
		}

		grad, err := GradientNumerical(it, params, param, step, opt.delta)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "")
		}

		if err := it.Apply(step, NewApplyOptions().D(d)); err != nil {
			return nil, nil, nil, errors.Wrap(err, "")
		}
		for j := range params {
			params[j] -= opt.learningRate * grad[j]
		}

		norms = append(norms, it.OffDiagonalNorm())
		paramHist = append(paramHist, append([]float64{}, params...))
		steps = append(steps, step)
	}

	return norms, paramHist, steps, nil
}
