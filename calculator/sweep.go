package calculator

import (
	"encoding/json"
	"iter"

	log "github.com/sirupsen/logrus"

	"pumpnet/model"
)

// 直径缩放敏感性分析的一个采样点
// Missing 表示该缩放系数下并联求解失败
type SweepPoint struct {
	Scale      int     `json:"scale"` // 百分比
	AnnualCost float64 `json:"annual_cost"`
	Missing    bool    `json:"missing"`
}

// MarshalJSON 缺失值输出为 null
func (p SweepPoint) MarshalJSON() ([]byte, error) {
	var cost *float64
	if !p.Missing {
		c := p.AnnualCost
		cost = &c
	}
	return json.Marshal(struct {
		Scale      int      `json:"scale"`
		AnnualCost *float64 `json:"annual_cost"`
	}{p.Scale, cost})
}

func (p *SweepPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Scale      int      `json:"scale"`
		AnnualCost *float64 `json:"annual_cost"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Scale = raw.Scale
	p.Missing = raw.AnnualCost == nil
	p.AnnualCost = 0
	if raw.AnnualCost != nil {
		p.AnnualCost = *raw.AnnualCost
	}
	return nil
}

// Scales 从 From 到 To（含）按 step 递增
func Scales(r model.ScaleRange, step int) []int {
	if step <= 0 {
		step = DefaultConfig().SweepStep
	}
	var res []int
	for s := r.From; s <= r.To; s += step {
		res = append(res, s)
	}
	return res
}

// SweepSeq 逐点计算，可中途停止，每次遍历重新计算
func SweepSeq(net model.Network, r model.ScaleRange, p model.Params, cfg Config) iter.Seq[SweepPoint] {
	cfg = cfg.normalize()
	base := net.Clone()
	return func(yield func(SweepPoint) bool) {
		for _, s := range Scales(r, cfg.SweepStep) {
			if !yield(sweepAt(base, s, p, cfg)) {
				return
			}
		}
	}
}

// Sweep 计算整条费用曲线，Workers > 1 时并发计算，结果按缩放系数升序
// observe 可为 nil
func Sweep(net model.Network, r model.ScaleRange, p model.Params, cfg Config, observe func(SweepPoint)) []SweepPoint {
	cfg = cfg.normalize()
	base := net.Clone()
	scales := Scales(r, cfg.SweepStep)

	if cfg.Workers <= 1 {
		res := make([]SweepPoint, 0, len(scales))
		for point := range SweepSeq(base, r, p, cfg) {
			if observe != nil {
				observe(point)
			}
			res = append(res, point)
		}
		return res
	}

	e := newExecutor(cfg.Workers)
	return e.run(scales, func(scale int) SweepPoint {
		return sweepAt(base, scale, p, cfg)
	}, observe)
}

func sweepAt(base model.Network, scale int, p model.Params, cfg Config) SweepPoint {
	scaled := base.Scaled(float64(scale) / 100)
	a, err := evaluate(scaled, p, cfg)
	if err != nil {
		log.WithFields(log.Fields{
			"scale": scale,
		}).Warn("敏感性分析采样点求解失败: ", err)
		return SweepPoint{Scale: scale, Missing: true}
	}
	return SweepPoint{Scale: scale, AnnualCost: a.Energy.AnnualCost}
}
