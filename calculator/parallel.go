package calculator

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"pumpnet/catalog"
	"pumpnet/model"
)

var (
	// ErrNoConvergence 并联流量分配求解失败，调用方必须中止后续计算
	ErrNoConvergence = errors.New("parallel flow solver did not converge")
	ErrNoOpenBranch  = errors.New("every parallel branch is blocked")
	ErrNegativeFlow  = errors.New("total flow must not be negative")
)

// FailedLoss 求解失败时 ParallelResult.Loss 的取值
const FailedLoss = -1.0

type BranchFlow struct {
	Name string  `json:"name"`
	Flow float64 `json:"flow"` // m³/h
}

// FlowDistribution 各支路流量，顺序与支路定义一致
type FlowDistribution []BranchFlow

func (d FlowDistribution) Total() float64 {
	var sum float64
	for _, b := range d {
		sum += b.Flow
	}
	return sum
}

// Flow 按支路名称查找
func (d FlowDistribution) Flow(name string) (float64, bool) {
	for _, b := range d {
		if b.Name == name {
			return b.Flow, true
		}
	}
	return 0, false
}

type ParallelResult struct {
	Loss         float64          `json:"loss"` // 各支路共同的水头损失 m
	Distribution FlowDistribution `json:"distribution"`
	Iterations   int              `json:"iterations"`
}

// SolveParallel 求并联支路流量分配，使各支路水头损失相等且流量之和等于总流量
//
// 前 n-1 条支路流量为未知量，最后一条由流量守恒得到；残差为 loss[i] - loss[last]。
// 若最后一条支路流量小于 -NegativeFlowTolerance，残差取 Penalty。
// 初值为平均分配。内径 <= 0 的支路视为堵塞，流量为 0，不参与等损失方程。
// 支路少于两条时返回 0 损失和空分配。
func SolveParallel(branches []model.Branch, totalFlow float64, fluid catalog.FluidProps, cfg Config) (ParallelResult, error) {
	cfg = cfg.normalize()
	if len(branches) < 2 {
		return ParallelResult{}, nil
	}
	if totalFlow < 0 {
		return ParallelResult{Loss: FailedLoss}, fmt.Errorf("%w: %v", ErrNegativeFlow, totalFlow)
	}

	open := make([]int, 0, len(branches))
	for i, b := range branches {
		if b.Degenerate() {
			log.WithField("branch", b.Name).Warn("支路内径 <= 0，按堵塞处理")
			continue
		}
		open = append(open, i)
	}

	dist := make(FlowDistribution, len(branches))
	for i, b := range branches {
		dist[i] = BranchFlow{Name: b.Name}
	}

	switch len(open) {
	case 0:
		return ParallelResult{Loss: FailedLoss}, ErrNoOpenBranch
	case 1:
		only := open[0]
		dist[only].Flow = totalFlow
		return ParallelResult{
			Loss:         SeriesLoss(branches[only].Segments, totalFlow, fluid),
			Distribution: dist,
		}, nil
	}

	n := len(open)
	last := branches[open[n-1]].Segments
	residual := func(x, f []float64) {
		lastFlow := totalFlow
		for _, q := range x {
			lastFlow -= q
		}
		if lastFlow < -cfg.NegativeFlowTolerance {
			for i := range f {
				f[i] = cfg.Penalty
			}
			return
		}
		lastLoss := SeriesLoss(last, lastFlow, fluid)
		for i, q := range x {
			f[i] = SeriesLoss(branches[open[i]].Segments, q, fluid) - lastLoss
		}
	}

	x0 := make([]float64, n-1)
	for i := range x0 {
		x0[i] = totalFlow / float64(n)
	}

	solver := &hybridSolver{fn: residual, maxIter: cfg.MaxIterations, tolerance: cfg.Tolerance}
	res, err := solver.solve(x0)
	if err != nil {
		log.WithFields(log.Fields{
			"branches":   n,
			"totalFlow":  totalFlow,
			"iterations": res.Iterations,
			"residual":   res.Residual(),
		}).Warn("并联流量分配求解失败: ", err)
		return ParallelResult{Loss: FailedLoss, Iterations: res.Iterations},
			fmt.Errorf("%w after %d iterations (residual %.3g m): %v", ErrNoConvergence, res.Iterations, res.Residual(), err)
	}

	lastFlow := totalFlow
	for i, q := range res.X {
		dist[open[i]].Flow = q
		lastFlow -= q
	}
	dist[open[n-1]].Flow = lastFlow

	first := open[0]
	return ParallelResult{
		Loss:         SeriesLoss(branches[first].Segments, dist[first].Flow, fluid),
		Distribution: dist,
		Iterations:   res.Iterations,
	}, nil
}
