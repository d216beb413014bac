package calculator

import (
	"math"

	"pumpnet/catalog"
	"pumpnet/model"
)

const (
	G = 9.81 // 重力加速度 m/s²

	// 内径 <= 0 时返回的沿程损失，使该支路在并联计算中不可用
	DegenerateLoss = 1e12

	turbulentRe = 4000.0
)

// 单管段水头损失
type LossResult struct {
	Major    float64 `json:"major"`    // 沿程损失 m
	Minor    float64 `json:"minor"`    // 局部损失 m
	Velocity float64 `json:"velocity"` // 流速 m/s
}

func (l LossResult) Total() float64 {
	return l.Major + l.Minor
}

// SegmentLoss 计算流量 flow (m³/h) 下单管段的沿程和局部损失，负流量按 0 处理
func SegmentLoss(seg model.Segment, flow float64, fluid catalog.FluidProps) LossResult {
	if flow < 0 {
		flow = 0
	}
	q := flow / 3600
	d := seg.Diameter / 1000
	if d <= 0 {
		return LossResult{Major: DegenerateLoss}
	}

	area := math.Pi * d * d / 4
	v := q / area
	re := Reynolds(v, d, fluid.Viscosity)
	f := FrictionFactor(re, seg.Material.Roughness()/1000, d)

	head := v * v / (2 * G)
	return LossResult{
		Major:    f * (seg.Length / d) * head,
		Minor:    seg.TotalK() * head,
		Velocity: v,
	}
}

// Reynolds 粘度为 0 时返回 0
func Reynolds(v, d, viscosity float64) float64 {
	if viscosity <= 0 {
		return 0
	}
	return v * d / viscosity
}

// FrictionFactor 摩阻系数
// Re > 4000: Swamee-Jain 显式公式
// 0 < Re <= 4000: 64/Re，层流和过渡区统一处理
// Re = 0: 0
func FrictionFactor(re, roughness, d float64) float64 {
	switch {
	case re > turbulentRe:
		t := math.Log10(roughness/(3.7*d) + 5.74/math.Pow(re, 0.9))
		return 0.25 / (t * t)
	case re > 0:
		return 64 / re
	default:
		return 0
	}
}
