package pump

import (
	log "github.com/sirupsen/logrus"

	"pumpnet/catalog"
	"pumpnet/model"
)

// 泵站运行参数
// 1. 总流量 m³/h，几何高差 m
// 2. 输送流体
// 3. 泵效率、电机效率，取值 (0, 1]
// 4. 每天运行小时数、电价

type Station struct {
	Number int
	Name   string
	params model.Params
}

func NewStation(number int) *Station {
	return &Station{
		Number: number,
		Name:   "泵站1",
		params: model.DefaultParams(),
	}
}

// Params 返回当前参数的副本
func (s *Station) Params() model.Params {
	return s.params
}

// Efficiency 泵效率 × 电机效率
func (s *Station) Efficiency() float64 {
	return s.params.PumpEfficiency * s.params.MotorEfficiency
}

// SetFromParams 整体替换，校验失败时保持原参数
func (s *Station) SetFromParams(p model.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	log.WithFields(log.Fields{
		"flow":            p.Flow,
		"height":          p.Height,
		"fluid":           p.Fluid,
		"pumpEfficiency":  p.PumpEfficiency,
		"motorEfficiency": p.MotorEfficiency,
		"hoursPerDay":     p.HoursPerDay,
		"tariff":          p.Tariff,
	}).Info("设置运行参数")
	return nil
}

func (s *Station) SetFlow(flow float64) error {
	p := s.params
	p.Flow = flow
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	log.WithField("flow", flow).Info("设置流量")
	return nil
}

func (s *Station) SetHeight(height float64) {
	s.params.Height = height
	log.WithField("height", height).Info("设置几何高差")
}

func (s *Station) SetFluid(f catalog.Fluid) error {
	if !f.Valid() {
		return catalog.ErrUnknownFluid
	}
	s.params.Fluid = f
	return nil
}

// SetEfficiencies 效率 <= 0 时能耗按 0 计算，这里不拦截
func (s *Station) SetEfficiencies(pumpEff, motorEff float64) {
	s.params.PumpEfficiency = pumpEff
	s.params.MotorEfficiency = motorEff
	log.WithFields(log.Fields{
		"pumpEfficiency":  pumpEff,
		"motorEfficiency": motorEff,
	}).Info("设置效率")
}

func (s *Station) SetUsage(hoursPerDay, tariff float64) error {
	p := s.params
	p.HoursPerDay = hoursPerDay
	p.Tariff = tariff
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	return nil
}
