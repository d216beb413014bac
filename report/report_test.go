package report

import (
	"bytes"
	"strings"
	"testing"

	"pumpnet/calculator"
	"pumpnet/catalog"
	"pumpnet/model"
)

func analyze(t *testing.T) (model.Network, model.Params, calculator.Analysis) {
	t.Helper()
	net := model.DefaultNetwork()
	p := model.DefaultParams()
	a, err := calculator.Analyze(net, p, calculator.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return net, p, a
}

func TestRender(t *testing.T) {
	_, _, a := analyze(t)
	points := []calculator.SweepPoint{
		{Scale: 80, AnnualCost: 21000.5},
		{Scale: 85, Missing: true},
	}

	var buf bytes.Buffer
	if err := Render(&buf, a, points); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Head", "Annual cost", "Branch 1", "Branch 2", "80%", "21000.50", "85%", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderWithoutSweep(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, calculator.Analysis{Head: 15}, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "15.000 m") {
		t.Errorf("head missing:\n%s", out)
	}
	if strings.Contains(out, "Scale") || strings.Contains(out, "Branch") {
		t.Errorf("unexpected tables:\n%s", out)
	}
}

func TestRenderProfile(t *testing.T) {
	net, p, a := analyze(t)
	var buf bytes.Buffer
	if err := RenderProfile(&buf, calculator.Profile(net, a, p)); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), "parallel"); got != 2 {
		t.Errorf("parallel rows = %d:\n%s", got, buf.String())
	}
}

func TestRenderCatalog(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderCatalog(&buf, catalog.All()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"carbon-steel-new", "tee-branch", "water-20c"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("catalog missing %q", want)
		}
	}
}
