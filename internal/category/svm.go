package category

import (
	"context"
	"math"
	"math/rand/v2"
)

// svmParams configures the linear support vector classifier.
type svmParams struct {
	C       float64
	Tol     float64
	MaxIter int
	Seed    uint64
}

func defaultSVMParams() svmParams {
	return svmParams{C: 1.0, Tol: 1e-4, MaxIter: 1000, Seed: 42}
}

// trainBinary fits a squared-hinge, L2-regularized linear classifier with a
// bias term using dual coordinate descent. Labels must be +1 or -1.
// It reports whether the solver converged before MaxIter passes, and stops
// with ctx's error if ctx ends between passes.
func trainBinary(ctx context.Context, x []sparseVector, y []float64, features int, p svmParams) (w []float64, bias float64, converged bool, err error) {
	n := len(x)
	w = make([]float64, features)
	alpha := make([]float64, n)

	diag := 0.5 / p.C
	qd := make([]float64, n)
	for i := range x {
		// The bias behaves as an extra feature fixed at 1.
		qd[i] = x[i].sqNorm() + 1 + diag
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed))

	for iter := 0; iter < p.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, false, err
		}
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		pgMax, pgMin := math.Inf(-1), math.Inf(1)
		for _, i := range order {
			g := y[i]*(x[i].dot(w)+bias) - 1 + diag*alpha[i]

			pg := g
			if alpha[i] == 0 && g > 0 {
				pg = 0
			}
			pgMax = math.Max(pgMax, pg)
			pgMin = math.Min(pgMin, pg)

			if math.Abs(pg) < 1e-12 {
				continue
			}
			old := alpha[i]
			alpha[i] = math.Max(old-g/qd[i], 0)
			step := (alpha[i] - old) * y[i]
			for k, idx := range x[i].idx {
				w[idx] += step * x[i].val[k]
			}
			bias += step
		}

		// The first pass starts from alpha = 0, so its gradients say nothing about convergence.
		if iter > 0 && pgMax-pgMin <= p.Tol {
			return w, bias, true, nil
		}
	}
	return w, bias, false, nil
}
