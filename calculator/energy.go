package calculator

import "pumpnet/catalog"

// 年运行费用按每月 30 天、每年 12 个月（360 天）估算，是简化假设
const (
	DaysPerMonth  = 30
	MonthsPerYear = 12
)

type EnergyResult struct {
	PowerKW    float64 `json:"power_kw"`    // 电机输入功率 kW
	AnnualCost float64 `json:"annual_cost"` // 年电费
}

// Energy 由总流量 (m³/h) 和扬程 head (m) 计算电功率和年电费
// 泵效率 × 电机效率 <= 0 时功率为 0
func Energy(flow, head, pumpEff, motorEff, hoursPerDay, tariff float64, fluid catalog.FluidProps) EnergyResult {
	eta := pumpEff * motorEff
	var power float64
	if eta > 0 {
		power = (flow / 3600 * fluid.Density * G * head) / eta / 1000
	}
	return EnergyResult{
		PowerKW:    power,
		AnnualCost: power * hoursPerDay * DaysPerMonth * MonthsPerYear * tariff,
	}
}
