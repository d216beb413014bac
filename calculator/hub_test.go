package calculator

import (
	"testing"
	"time"

	"pumpnet/model"
)

func TestSweepHubStreamsAllPoints(t *testing.T) {
	h := NewSweepHub()
	go h.Run(model.DefaultNetwork(), model.DefaultScaleRange(), model.DefaultParams(), DefaultConfig())

	var scales []int
	for pt := range h.Points {
		scales = append(scales, pt.Scale)
	}
	h.Wait()

	if len(scales) != 9 || scales[0] != 80 || scales[8] != 120 {
		t.Errorf("streamed scales %v", scales)
	}
}

func TestSweepHubStop(t *testing.T) {
	h := NewSweepHub()
	go h.Run(model.DefaultNetwork(), model.ScaleRange{From: 50, To: 200}, model.DefaultParams(), DefaultConfig())

	first := <-h.Points
	if first.Scale != 50 {
		t.Errorf("first point %+v", first)
	}
	h.StopSignal()
	h.StopSignal()

	done := make(chan struct{})
	go func() {
		for range h.Points {
		}
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("hub did not stop")
	}
}

func TestExecutorKeepsOrder(t *testing.T) {
	e := newExecutor(4)
	scales := []int{50, 60, 70, 80, 90, 100, 110}
	got := e.run(scales, func(scale int) SweepPoint {
		// 让靠前的任务更晚完成
		time.Sleep(time.Duration(200-scale) * 50 * time.Microsecond)
		return SweepPoint{Scale: scale, AnnualCost: float64(scale) * 2}
	}, nil)

	for i, pt := range got {
		if pt.Scale != scales[i] || pt.AnnualCost != float64(scales[i])*2 {
			t.Errorf("result %d = %+v", i, pt)
		}
	}
}
