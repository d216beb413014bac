package calculator

import (
	"testing"

	"pumpnet/catalog"
)

func TestEnergy(t *testing.T) {
	fluid := catalog.FluidProps{Density: 1000}
	// 1 m³/s，10 m，效率 1 -> 98.1 kW
	got := Energy(3600, 10, 1, 1, 10, 0.5, fluid)
	if !near(got.PowerKW, 98.1, 1e-9) {
		t.Errorf("power = %v, want 98.1", got.PowerKW)
	}
	if !near(got.AnnualCost, 98.1*10*360*0.5, 1e-6) {
		t.Errorf("annual cost = %v", got.AnnualCost)
	}

	half := Energy(3600, 10, 0.5, 1, 10, 0.5, fluid)
	if !near(half.PowerKW, 2*got.PowerKW, 1e-9) {
		t.Errorf("power at half efficiency = %v", half.PowerKW)
	}
}

func TestEnergyZeroEfficiency(t *testing.T) {
	for _, eff := range [][2]float64{{0, 0.9}, {0.7, 0}, {-1, 0.9}} {
		got := Energy(100, 20, eff[0], eff[1], 8, 0.75, water)
		if got != (EnergyResult{}) {
			t.Errorf("efficiency %v: got %+v, want zero", eff, got)
		}
	}
}

func TestEnergyZeroFlow(t *testing.T) {
	got := Energy(0, 20, 0.7, 0.9, 8, 0.75, water)
	if got.PowerKW != 0 || got.AnnualCost != 0 {
		t.Errorf("got %+v", got)
	}
}
