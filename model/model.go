package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"pumpnet/catalog"
)

var (
	ErrInvalidSegment = errors.New("invalid segment")
	ErrInvalidNetwork = errors.New("invalid network")
	ErrInvalidParams  = errors.New("invalid parameters")
	ErrNotFound       = errors.New("segment not found")
)

// 管件，K 值由管件类型决定，创建后不可修改
type Fitting struct {
	Type     catalog.FittingType `json:"type"`
	K        float64             `json:"k"`
	Quantity int                 `json:"quantity"`
}

func NewFitting(t catalog.FittingType, quantity int) (Fitting, error) {
	if !t.Valid() {
		return Fitting{}, fmt.Errorf("%w: %d", catalog.ErrUnknownFitting, int(t))
	}
	if quantity < 1 {
		return Fitting{}, fmt.Errorf("%w: fitting quantity %d < 1", ErrInvalidSegment, quantity)
	}
	return Fitting{Type: t, K: t.K(), Quantity: quantity}, nil
}

// UnmarshalJSON 忽略客户端传入的 k，以管件表为准
func (f *Fitting) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     catalog.FittingType `json:"type"`
		Quantity int                 `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Quantity == 0 {
		raw.Quantity = 1
	}
	v, err := NewFitting(raw.Type, raw.Quantity)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// 管段
// Length 单位 m，Diameter 为内径，单位 mm
type Segment struct {
	ID       string           `json:"id"`
	Length   float64          `json:"length"`
	Diameter float64          `json:"diameter"`
	Material catalog.Material `json:"material"`
	Fittings []Fitting        `json:"fittings"`
}

// TotalK 所有管件的 K·数量 之和
func (s Segment) TotalK() float64 {
	var k float64
	for _, f := range s.Fittings {
		k += f.K * float64(f.Quantity)
	}
	return k
}

// Validate 内径 <= 0 不算错误，由计算层按退化管段处理
func (s Segment) Validate() error {
	if s.Length <= 0 {
		return fmt.Errorf("%w: length %v must be > 0", ErrInvalidSegment, s.Length)
	}
	if !s.Material.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, catalog.ErrUnknownMaterial)
	}
	for _, f := range s.Fittings {
		if !f.Type.Valid() {
			return fmt.Errorf("%w: %w", ErrInvalidSegment, catalog.ErrUnknownFitting)
		}
		if f.Quantity < 1 || f.K < 0 {
			return fmt.Errorf("%w: fitting %s quantity %d k %v", ErrInvalidSegment, f.Type, f.Quantity, f.K)
		}
	}
	return nil
}

// Degenerate 内径 <= 0
func (s Segment) Degenerate() bool {
	return s.Diameter <= 0
}

func (s Segment) clone() Segment {
	c := s
	c.Fittings = append([]Fitting(nil), s.Fittings...)
	return c
}

// 并联支路，内部各管段串联
type Branch struct {
	Name     string    `json:"name"`
	Segments []Segment `json:"segments"`
}

func (b Branch) Degenerate() bool {
	for _, s := range b.Segments {
		if s.Degenerate() {
			return true
		}
	}
	return false
}

func (b Branch) clone() Branch {
	return Branch{Name: b.Name, Segments: cloneSegments(b.Segments)}
}

// 管网：前串联段 -> 并联支路 -> 后串联段
type Network struct {
	Before   []Segment `json:"before"`
	Branches []Branch  `json:"branches"`
	After    []Segment `json:"after"`
}

// 运行参数
type Params struct {
	Flow            float64       `json:"flow"`   // 总流量 m³/h
	Height          float64       `json:"height"` // 几何高差 m
	Fluid           catalog.Fluid `json:"fluid"`
	PumpEfficiency  float64       `json:"pump_efficiency"`  // (0, 1]
	MotorEfficiency float64       `json:"motor_efficiency"` // (0, 1]
	HoursPerDay     float64       `json:"hours_per_day"`
	Tariff          float64       `json:"tariff"` // 电价 / kWh
}

func (p Params) Validate() error {
	if p.Flow < 0 {
		return fmt.Errorf("%w: flow %v must be >= 0", ErrInvalidParams, p.Flow)
	}
	if !p.Fluid.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidParams, catalog.ErrUnknownFluid)
	}
	if p.HoursPerDay < 0 || p.HoursPerDay > 24 {
		return fmt.Errorf("%w: hours per day %v", ErrInvalidParams, p.HoursPerDay)
	}
	if p.Tariff < 0 {
		return fmt.Errorf("%w: tariff %v", ErrInvalidParams, p.Tariff)
	}
	return nil
}

// 敏感性分析请求，直径缩放百分比，闭区间
type ScaleRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r ScaleRange) Validate() error {
	if r.From < MinScale || r.To > MaxScale || r.From > r.To {
		return fmt.Errorf("%w: scale range %d..%d outside %d..%d", ErrInvalidParams, r.From, r.To, MinScale, MaxScale)
	}
	return nil
}

// 管网编辑请求
type EditReq struct {
	Section   Section             `json:"section"`
	Branch    string              `json:"branch"`
	SegmentID string              `json:"segment_id"`
	Fitting   catalog.FittingType `json:"fitting"`
	Quantity  int                 `json:"quantity"`
	Index     int                 `json:"index"`
	Length    float64             `json:"length"`
	Diameter  float64             `json:"diameter"`
	Material  catalog.Material    `json:"material"`
}

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}
