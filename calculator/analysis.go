package calculator

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"pumpnet/model"
)

// 基准工况计算结果
type Analysis struct {
	BeforeLoss   float64          `json:"before_loss"`   // 前串联段损失 m
	ParallelLoss float64          `json:"parallel_loss"` // 并联段损失 m
	AfterLoss    float64          `json:"after_loss"`    // 后串联段损失 m
	TotalLoss    float64          `json:"total_loss"`
	Head         float64          `json:"head"` // 总扬程 = 几何高差 + 总损失
	Distribution FlowDistribution `json:"distribution"`
	Energy       EnergyResult     `json:"energy"`
	Iterations   int              `json:"iterations"`
	SeriesBranch bool             `json:"series_branch,omitempty"` // 单支路按串联计算
}

// Analyze 前串联段 -> 并联段 -> 后串联段 -> 能耗
// 并联求解失败时返回错误，不再计算后续部分
func Analyze(net model.Network, p model.Params, cfg Config) (Analysis, error) {
	if err := net.Validate(); err != nil {
		return Analysis{}, err
	}
	if err := p.Validate(); err != nil {
		return Analysis{}, err
	}
	return evaluate(net, p, cfg.normalize())
}

func evaluate(net model.Network, p model.Params, cfg Config) (Analysis, error) {
	fluid := p.Fluid.Props()

	var a Analysis
	a.BeforeLoss = SeriesLoss(net.Before, p.Flow, fluid)

	if len(net.Branches) == 1 && cfg.SingleBranchAsSeries {
		only := net.Branches[0]
		a.ParallelLoss = SeriesLoss(only.Segments, p.Flow, fluid)
		a.Distribution = FlowDistribution{{Name: only.Name, Flow: p.Flow}}
		a.SeriesBranch = true
	} else {
		if len(net.Branches) < 2 {
			log.WithField("branches", len(net.Branches)).Warn("支路少于两条，并联段损失按 0 计算")
		}
		res, err := SolveParallel(net.Branches, p.Flow, fluid, cfg)
		if err != nil {
			return Analysis{}, fmt.Errorf("parallel stage: %w", err)
		}
		a.ParallelLoss = res.Loss
		a.Distribution = res.Distribution
		a.Iterations = res.Iterations
	}

	a.AfterLoss = SeriesLoss(net.After, p.Flow, fluid)
	a.TotalLoss = a.BeforeLoss + a.ParallelLoss + a.AfterLoss
	a.Head = p.Height + a.TotalLoss
	a.Energy = Energy(p.Flow, a.Head, p.PumpEfficiency, p.MotorEfficiency, p.HoursPerDay, p.Tariff, fluid)
	return a, nil
}

// 单管段流量和流速，供管网示意图标注使用
type SegmentProfile struct {
	Section   model.Section `json:"section"`
	Branch    string        `json:"branch,omitempty"`
	Index     int           `json:"index"`
	SegmentID string        `json:"segment_id"`
	Flow      float64       `json:"flow"`
	Loss      LossResult    `json:"loss"`
}

// Profile 按 Analysis 中的流量分配计算每个管段的流速和损失
func Profile(net model.Network, a Analysis, p model.Params) []SegmentProfile {
	fluid := p.Fluid.Props()
	var res []SegmentProfile
	add := func(section model.Section, branch string, segs []model.Segment, flow float64) {
		for i, s := range segs {
			res = append(res, SegmentProfile{
				Section:   section,
				Branch:    branch,
				Index:     i,
				SegmentID: s.ID,
				Flow:      flow,
				Loss:      SegmentLoss(s, flow, fluid),
			})
		}
	}

	add(model.SectionBefore, "", net.Before, p.Flow)
	for _, b := range net.Branches {
		flow, ok := a.Distribution.Flow(b.Name)
		if !ok {
			continue
		}
		add(model.SectionParallel, b.Name, b.Segments, flow)
	}
	add(model.SectionAfter, "", net.After, p.Flow)
	return res
}
