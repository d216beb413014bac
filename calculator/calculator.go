package calculator

import (
	"time"

	log "github.com/sirupsen/logrus"

	"pumpnet/model"
)

// calculator 的接口定义

type Calculator interface {
	// 获取计算配置
	Config() Config

	// 基准工况
	Analyze(net model.Network, p model.Params) (Analysis, error)

	// 管段流速分布
	Profile(net model.Network, a Analysis, p model.Params) []SegmentProfile

	// 直径敏感性分析
	Sweep(net model.Network, r model.ScaleRange, p model.Params, observe func(SweepPoint)) ([]SweepPoint, error)
}

type calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) Calculator {
	return &calculator{cfg: cfg.normalize()}
}

func (c *calculator) Config() Config {
	return c.cfg
}

func (c *calculator) Analyze(net model.Network, p model.Params) (Analysis, error) {
	start := time.Now()
	a, err := Analyze(net, p, c.cfg)
	if err != nil {
		return a, err
	}
	log.WithFields(log.Fields{
		"head":       a.Head,
		"totalLoss":  a.TotalLoss,
		"powerKW":    a.Energy.PowerKW,
		"iterations": a.Iterations,
		"cost":       time.Since(start),
	}).Info("管网计算完成")
	return a, nil
}

func (c *calculator) Profile(net model.Network, a Analysis, p model.Params) []SegmentProfile {
	return Profile(net, a, p)
}

func (c *calculator) Sweep(net model.Network, r model.ScaleRange, p model.Params, observe func(SweepPoint)) ([]SweepPoint, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	points := Sweep(net, r, p, c.cfg, observe)
	missing := 0
	for _, pt := range points {
		if pt.Missing {
			missing++
		}
	}
	log.WithFields(log.Fields{
		"from":    r.From,
		"to":      r.To,
		"points":  len(points),
		"missing": missing,
		"cost":    time.Since(start),
	}).Info("敏感性分析完成")
	return points, nil
}
