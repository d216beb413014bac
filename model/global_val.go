package model

import "pumpnet/catalog"

// 界面默认值

const (
	DefaultSegmentLength   = 10.0  // m
	DefaultSegmentDiameter = 100.0 // mm
	DefaultBranchLength    = 50.0  // m
	DefaultBranchDiameter  = 80.0  // mm

	DefaultFlow            = 100.0 // m³/h
	DefaultHeight          = 15.0  // m
	DefaultPumpEfficiency  = 0.70
	DefaultMotorEfficiency = 0.90
	DefaultHoursPerDay     = 8.0
	DefaultTariff          = 0.75

	// 直径缩放百分比
	MinScale       = 50
	MaxScale       = 200
	DefaultScaleLo = 80
	DefaultScaleHi = 120
)

const DefaultMaterial = catalog.CarbonSteelNew

func DefaultParams() Params {
	return Params{
		Flow:            DefaultFlow,
		Height:          DefaultHeight,
		Fluid:           catalog.Water20,
		PumpEfficiency:  DefaultPumpEfficiency,
		MotorEfficiency: DefaultMotorEfficiency,
		HoursPerDay:     DefaultHoursPerDay,
		Tariff:          DefaultTariff,
	}
}

func DefaultScaleRange() ScaleRange {
	return ScaleRange{From: DefaultScaleLo, To: DefaultScaleHi}
}
