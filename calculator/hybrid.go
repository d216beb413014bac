package calculator

import (
	"errors"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// 多元非线性方程组 F(x) = 0 求解
// 牛顿迭代 + 前向差分雅可比矩阵，回溯线搜索保证 ‖F‖ 单调下降，
// 雅可比矩阵奇异时退化为最速下降方向（Cauchy 步）

var (
	errMaxIterations = errors.New("iteration limit reached")
	errStalled       = errors.New("no decrease along search direction")
	errSingular      = errors.New("jacobian is singular")
)

const (
	jacobianStep = 1.4901161193847656e-08 // sqrt(machine epsilon)
	maxBacktrack = 40
	armijo       = 1e-4
)

// 残差函数，结果写入 f
type residualFunc func(x, f []float64)

type hybridSolver struct {
	fn        residualFunc
	maxIter   int
	tolerance float64
}

type hybridResult struct {
	X          []float64
	F          []float64
	Iterations int
}

// Residual 无穷范数
func (r hybridResult) Residual() float64 {
	return floats.Norm(r.F, math.Inf(1))
}

func (s *hybridSolver) solve(x0 []float64) (hybridResult, error) {
	n := len(x0)
	x := append([]float64(nil), x0...)
	f := make([]float64, n)
	s.fn(x, f)

	res := hybridResult{X: x, F: f}
	if n == 0 {
		return res, nil
	}

	jac := mat.NewDense(n, n, nil)
	xt := make([]float64, n)
	ft := make([]float64, n)

	for iter := 0; iter < s.maxIter; iter++ {
		res.Iterations = iter
		if res.Residual() <= s.tolerance {
			return res, nil
		}

		s.jacobian(jac, x, f, xt, ft)

		step, err := newtonStep(jac, f)
		if err != nil {
			step, err = cauchyStep(jac, f)
			if err != nil {
				return res, err
			}
		}

		// 回溯线搜索
		norm := floats.Norm(f, 2)
		t := 1.0
		accepted := false
		for k := 0; k < maxBacktrack; k++ {
			for i := range xt {
				xt[i] = x[i] + t*step[i]
			}
			s.fn(xt, ft)
			nt := floats.Norm(ft, 2)
			if !math.IsNaN(nt) && nt <= (1-armijo*t)*norm {
				accepted = true
				break
			}
			t /= 2
		}
		if !accepted {
			return res, errStalled
		}
		copy(x, xt)
		copy(f, ft)

		log.WithFields(log.Fields{
			"iteration": iter + 1,
			"residual":  floats.Norm(f, math.Inf(1)),
			"step":      t,
		}).Debug("并联求解迭代")
	}

	res.Iterations = s.maxIter
	if res.Residual() <= s.tolerance {
		return res, nil
	}
	return res, errMaxIterations
}

// 前向差分
func (s *hybridSolver) jacobian(jac *mat.Dense, x, f, xt, ft []float64) {
	n := len(x)
	for j := 0; j < n; j++ {
		h := jacobianStep * math.Max(math.Abs(x[j]), 1)
		copy(xt, x)
		xt[j] += h
		s.fn(xt, ft)
		for i := 0; i < n; i++ {
			jac.Set(i, j, (ft[i]-f[i])/h)
		}
	}
}

// newtonStep 求解 J·dx = -F
func newtonStep(jac *mat.Dense, f []float64) ([]float64, error) {
	n := len(f)
	rhs := mat.NewVecDense(n, nil)
	for i, v := range f {
		rhs.SetVec(i, -v)
	}
	var dx mat.VecDense
	if err := dx.SolveVec(jac, rhs); err != nil {
		return nil, err
	}
	step := make([]float64, n)
	for i := range step {
		step[i] = dx.AtVec(i)
	}
	if floats.HasNaN(step) || math.IsInf(floats.Norm(step, 2), 0) {
		return nil, errSingular
	}
	return step, nil
}

// cauchyStep 沿 -Jᵀ·F 方向取 ‖F + J·dx‖ 最小的步长
func cauchyStep(jac *mat.Dense, f []float64) ([]float64, error) {
	n := len(f)
	fv := mat.NewVecDense(n, append([]float64(nil), f...))

	var g, jg mat.VecDense
	g.MulVec(jac.T(), fv)
	jg.MulVec(jac, &g)

	gg := mat.Dot(&g, &g)
	jj := mat.Dot(&jg, &jg)
	if gg == 0 || jj == 0 || math.IsNaN(jj) {
		return nil, errSingular
	}
	t := gg / jj
	step := make([]float64, n)
	for i := range step {
		step[i] = -t * g.AtVec(i)
	}
	return step, nil
}
