// Command run diagonalizes a transverse field Ising Hamiltonian with the
// double-bracket iteration, recording the per-iteration history into a sqlite
// database.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/dbi"
	"github.com/fumin/dbi/mat"
)

var (
	lattice    = flag.String("n", "3x1", "lattice size")
	field      = flag.Float64("h", 3, "transverse field strength")
	iterations = flag.Int("iters", 20, "number of iterations")
	mode       = flag.String("mode", "canonical", "generator mode")
	cost       = flag.String("cost", "off_diagonal_norm", "cost function")
	scheduling = flag.String("scheduling", "grid_search", "step scheduling strategy")
	dbPath     = flag.String("db", filepath.Join("runs", "dbi.sqlite"), "history database")
)

func parseLattice(s string) ([2]int, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return [2]int{}, errors.Errorf("%q", s)
	}
	var n [2]int
	for i, p := range parts {
		var err error
		n[i], err = strconv.Atoi(p)
		if err != nil {
			return [2]int{}, errors.Wrap(err, fmt.Sprintf("%q", s))
		}
	}
	if n[0] < 1 || n[1] < 1 {
		return [2]int{}, errors.Errorf("%q", s)
	}
	return n, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	n, err := parseLattice(*lattice)
	if err != nil {
		return errors.Wrap(err, "")
	}
	generator, err := dbi.ParseGenerator(*mode)
	if err != nil {
		return errors.Wrap(err, "")
	}
	costFn, err := dbi.ParseCost(*cost)
	if err != nil {
		return errors.Wrap(err, "")
	}
	strategy, err := dbi.ParseScheduling(*scheduling)
	if err != nil {
		return errors.Wrap(err, "")
	}

	hamiltonian := dbi.TransverseFieldIsing(n, *field)
	options := dbi.NewOptions().Generator(generator).Cost(costFn).Scheduling(strategy)
	if costFn == dbi.EnergyFluctuation {
		// The ground state makes a natural reference for tracking how far the
		// flow is from an eigenstate.
		_, ground, err := mat.Ground(hamiltonian.Matrix())
		if err != nil {
			return errors.Wrap(err, "")
		}
		options = options.ReferenceState(ground)
	}
	it, err := dbi.New(hamiltonian, options)
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	history, err := newHistoryDB(*dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer history.Close()
	run := fmt.Sprintf("%s_h%v_%s_%s_%s_%d", *lattice, *field, *mode, *cost, *scheduling, time.Now().Unix())

	log.Printf("%s norm %f", run, it.OffDiagonalNorm())
	for i := 0; i < *iterations; i++ {
		start := time.Now()
		step, ok, err := it.ChooseStep(nil)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if !ok {
			log.Printf("%d no step", i)
			break
		}
		if err := it.Apply(step); err != nil {
			return errors.Wrap(err, "")
		}

		norm := it.OffDiagonalNorm()
		if err := history.insert(run, i, step, norm, time.Since(start)); err != nil {
			return errors.Wrap(err, "")
		}
		log.Printf("%d step %f norm %f", i, step, norm)
	}

	return nil
}
