package calculator

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"pumpnet/model"
)

// SweepHub 敏感性分析逐点推送
// Points 每算完一个采样点推送一次，全部完成或被停止后关闭
type SweepHub struct {
	Points chan SweepPoint

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewSweepHub() *SweepHub {
	return &SweepHub{
		Points: make(chan SweepPoint, 10),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run 在当前 goroutine 中按顺序计算，调用方通常 go h.Run(...)
func (h *SweepHub) Run(net model.Network, r model.ScaleRange, p model.Params, cfg Config) {
	defer close(h.done)
	defer close(h.Points)
LOOP:
	for point := range SweepSeq(net, r, p, cfg) {
		select {
		case <-h.stop:
			log.Info("停止推送敏感性分析数据")
			break LOOP
		case h.Points <- point:
		}
	}
}

// StopSignal 可以重复调用
func (h *SweepHub) StopSignal() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// Wait 等待 Run 结束
func (h *SweepHub) Wait() {
	<-h.done
}
