package dbi

import (
	"math"
	"testing"

	"github.com/fumin/dbi/mat"
)

func TestChooseStepGridSearch(t *testing.T) {
	t.Parallel()
	h := TransverseFieldIsing([2]int{2, 1}, 3)
	it, err := New(h, NewOptions().Generator(SingleCommutator))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	d := mat.Diag([]complex128{0.25, 0.5, 0.75, 1})

	const points = 500
	opt := NewStepOptions().GridPoints(points)
	step, ok, err := it.ChooseStep(d, opt)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ok {
		t.Fatalf("no step")
	}
	chosen, err := it.Loss(step, d)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// The chosen step is at least as good as every candidate on the grid.
	for i := 0; i < points; i++ {
		candidate := 1e-5 + float64(i)/float64(points-1)*(1-1e-5)
		cost, err := it.Loss(candidate, d)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if chosen > cost+1e-12 {
			t.Fatalf("%f at %f, expected at most %f at %f", chosen, step, cost, candidate)
		}
	}
}

func TestChooseStepHyperopt(t *testing.T) {
	t.Parallel()
	h := TransverseFieldIsing([2]int{2, 1}, 3)
	it, err := New(h, NewOptions().Generator(SingleCommutator).Scheduling(Hyperopt))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	d := mat.Diag([]complex128{0.25, 0.5, 0.75, 1})

	opt := NewStepOptions().Budget(20).Seed(42)
	step, ok, err := it.ChooseStep(d, opt)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ok {
		t.Fatalf("no step")
	}
	if step < 1e-5 || step > 1 {
		t.Fatalf("%f out of range", step)
	}

	// Same seed, same step.
	again, ok, err := it.ChooseStep(d, opt)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ok {
		t.Fatalf("no step")
	}
	if again != step {
		t.Fatalf("%v, expected %v", again, step)
	}

	// A different seed still stays in range.
	step, ok, err = it.ChooseStep(d, opt.Seed(7))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ok {
		t.Fatalf("no step")
	}
	if step < 1e-5 || step > 1 {
		t.Fatalf("%f out of range", step)
	}
}

func TestChooseStepErrors(t *testing.T) {
	t.Parallel()
	h := TransverseFieldIsing([2]int{2, 1}, 3)
	it, err := New(h)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Empty step range.
	if _, _, err := it.ChooseStep(nil, NewStepOptions().StepMin(1).StepMax(1)); err == nil {
		t.Fatalf("expected error")
	}
	// Bad per-call overrides.
	if _, _, err := it.ChooseStep(nil, NewStepOptions().Cost(Cost(99))); err == nil {
		t.Fatalf("expected error")
	}
	if _, _, err := it.ChooseStep(nil, NewStepOptions().Scheduling(Scheduling(99))); err == nil {
		t.Fatalf("expected error")
	}
	// Bad driving operator.
	if _, _, err := it.ChooseStep(mat.Identity(8)); err == nil {
		t.Fatalf("expected error")
	}
	// A per-call energy fluctuation override needs a reference state of the
	// right dimension, exactly as at construction.
	if _, _, err := it.ChooseStep(nil, NewStepOptions().Cost(EnergyFluctuation)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGridSearchStep(t *testing.T) {
	t.Parallel()
	loss := func(s float64) float64 { return (s - 0.5) * (s - 0.5) }

	opt := NewStepOptions().StepMin(0).StepMax(1).GridPoints(11)
	step, ok := gridSearchStep(loss, opt)
	if !ok {
		t.Fatalf("no step")
	}
	if math.Abs(step-0.5) > 1e-12 {
		t.Fatalf("%f, expected 0.5", step)
	}

	// A single grid point is the lower bound itself.
	step, ok = gridSearchStep(loss, opt.GridPoints(1))
	if !ok || step != 0 {
		t.Fatalf("%v %t, expected 0", step, ok)
	}

	if _, ok := gridSearchStep(loss, opt.GridPoints(0)); ok {
		t.Fatalf("expected no step")
	}
}

func TestPolynomialStep(t *testing.T) {
	t.Parallel()

	// A quadratic bowl is fitted exactly, so its minimum is recovered.
	bowl := func(s float64) float64 { return (s - 0.3) * (s - 0.3) }
	step, ok := polynomialStep(bowl, NewStepOptions())
	if !ok {
		t.Fatalf("no step")
	}
	if math.Abs(step-0.3) > 1e-6 {
		t.Fatalf("%f, expected 0.3", step)
	}

	// A strictly decreasing loss has no interior minimum.
	if step, ok := polynomialStep(func(s float64) float64 { return 2 - s }, NewStepOptions()); ok {
		t.Fatalf("%f, expected no step", step)
	}

	// Degrees below two cannot have a minimum.
	if _, ok := polynomialStep(bowl, NewStepOptions().Degree(1)); ok {
		t.Fatalf("expected no step")
	}
}

func TestChooseStepPolynomial(t *testing.T) {
	t.Parallel()
	h := TransverseFieldIsing([2]int{2, 1}, 3)
	it, err := New(h, NewOptions().Generator(SingleCommutator).Scheduling(PolynomialApproximation))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	d := mat.Diag([]complex128{0.25, 0.5, 0.75, 1})

	step, ok, err := it.ChooseStep(d, NewStepOptions().StepMax(0.5))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ok {
		// The loss may be monotone over the range, in which case no interior
		// minimum exists and that is a legitimate outcome.
		return
	}
	if step < 1e-5 || step > 0.5 {
		t.Fatalf("%f out of range", step)
	}

	chosen, err := it.Loss(step, d)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	before, err := it.Loss(0, d)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if chosen > before {
		t.Fatalf("%f, expected at most %f", chosen, before)
	}
}
