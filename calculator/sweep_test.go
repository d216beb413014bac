package calculator

import (
	"encoding/json"
	"reflect"
	"testing"

	"pumpnet/model"
)

func TestScales(t *testing.T) {
	got := Scales(model.ScaleRange{From: 80, To: 120}, 5)
	want := []int{80, 85, 90, 95, 100, 105, 110, 115, 120}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("scales = %v", got)
	}
	if got := Scales(model.ScaleRange{From: 100, To: 100}, 5); !reflect.DeepEqual(got, []int{100}) {
		t.Errorf("single scale = %v", got)
	}
	if got := Scales(model.ScaleRange{From: 50, To: 60}, 0); len(got) != 3 {
		t.Errorf("default step: %v", got)
	}
}

func TestSweepCostDecreasesWithDiameter(t *testing.T) {
	net := model.DefaultNetwork()
	net.Before = []model.Segment{steel(20, 100)}
	points := Sweep(net, model.DefaultScaleRange(), model.DefaultParams(), DefaultConfig(), nil)

	if len(points) != 9 {
		t.Fatalf("got %d points", len(points))
	}
	for i, pt := range points {
		if pt.Missing {
			t.Fatalf("point %d missing", pt.Scale)
		}
		if i > 0 && pt.AnnualCost > points[i-1].AnnualCost {
			t.Errorf("cost at %d%% (%v) above cost at %d%% (%v)",
				pt.Scale, pt.AnnualCost, points[i-1].Scale, points[i-1].AnnualCost)
		}
	}
}

func TestSweepAtHundredMatchesAnalyze(t *testing.T) {
	net := model.DefaultNetwork()
	p := model.DefaultParams()
	a, err := Analyze(net, p, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	points := Sweep(net, model.ScaleRange{From: 100, To: 100}, p, DefaultConfig(), nil)
	if len(points) != 1 || !near(points[0].AnnualCost, a.Energy.AnnualCost, 1e-6) {
		t.Errorf("sweep %+v, analyze cost %v", points, a.Energy.AnnualCost)
	}
}

func TestSweepLeavesNetworkUntouched(t *testing.T) {
	net := model.DefaultNetwork()
	before := net.Clone()
	Sweep(net, model.ScaleRange{From: 50, To: 200}, model.DefaultParams(), DefaultConfig(), nil)
	if !reflect.DeepEqual(net, before) {
		t.Errorf("network modified by sweep")
	}
}

func TestSweepConcurrentMatchesSequential(t *testing.T) {
	net := model.Network{Branches: threeBranches()}
	p := model.DefaultParams()
	r := model.ScaleRange{From: 60, To: 150}

	seq := Sweep(net, r, p, DefaultConfig(), nil)

	cfg := DefaultConfig()
	cfg.Workers = 4
	var observed int
	par := Sweep(net, r, p, cfg, func(SweepPoint) { observed++ })

	if !reflect.DeepEqual(seq, par) {
		t.Errorf("concurrent sweep differs:\n%v\n%v", seq, par)
	}
	if observed != len(par) {
		t.Errorf("observed %d of %d points", observed, len(par))
	}
}

func TestSweepMissingPoints(t *testing.T) {
	net := model.Network{Branches: threeBranches()}
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	cfg.Tolerance = 1e-14

	points := Sweep(net, model.DefaultScaleRange(), model.DefaultParams(), cfg, nil)
	if len(points) != 9 {
		t.Fatalf("got %d points", len(points))
	}
	for _, pt := range points {
		if !pt.Missing || pt.AnnualCost != 0 {
			t.Errorf("point %+v should be missing", pt)
		}
	}
}

func TestSweepSeqStopsEarly(t *testing.T) {
	var got []int
	for pt := range SweepSeq(model.DefaultNetwork(), model.DefaultScaleRange(), model.DefaultParams(), DefaultConfig()) {
		got = append(got, pt.Scale)
		if len(got) == 2 {
			break
		}
	}
	if !reflect.DeepEqual(got, []int{80, 85}) {
		t.Errorf("got %v", got)
	}
}

func TestSweepPointJSON(t *testing.T) {
	data, err := json.Marshal([]SweepPoint{{Scale: 80, AnnualCost: 12.5}, {Scale: 85, Missing: true}})
	if err != nil {
		t.Fatal(err)
	}
	if want := `[{"scale":80,"annual_cost":12.5},{"scale":85,"annual_cost":null}]`; string(data) != want {
		t.Errorf("json = %s", data)
	}

	var back []SweepPoint
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back[1].Missing || back[0].Missing || back[0].AnnualCost != 12.5 {
		t.Errorf("decoded %+v", back)
	}
}
