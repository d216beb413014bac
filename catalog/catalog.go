package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// 物性参数表
// 1. 管材 -> 绝对粗糙度，单位mm
// 2. 管件 -> 局部阻力系数 K
// 3. 流体 -> 密度 kg/m³，运动粘度 m²/s
// 表内容固定，只读

var (
	ErrUnknownMaterial = errors.New("unknown material")
	ErrUnknownFitting  = errors.New("unknown fitting type")
	ErrUnknownFluid    = errors.New("unknown fluid")
)

// Material 管材
type Material int

const (
	CarbonSteelNew Material = iota + 1
	CarbonSteelUsed
	CarbonSteelRusted
	StainlessSteel
	CastIron
	PVC
	Concrete
)

type materialEntry struct {
	key       string
	name      string
	roughness float64 // mm
}

var materials = []materialEntry{
	{"carbon-steel-new", "Carbon steel (new)", 0.046},
	{"carbon-steel-used", "Carbon steel (lightly used)", 0.1},
	{"carbon-steel-rusted", "Carbon steel (rusted)", 0.2},
	{"stainless-steel", "Stainless steel", 0.002},
	{"cast-iron", "Cast iron", 0.26},
	{"pvc", "PVC / plastic", 0.0015},
	{"concrete", "Concrete", 0.5},
}

func (m Material) entry() (materialEntry, bool) {
	if m < 1 || int(m) > len(materials) {
		return materialEntry{}, false
	}
	return materials[m-1], true
}

func (m Material) Valid() bool {
	_, ok := m.entry()
	return ok
}

// Roughness 绝对粗糙度，mm
func (m Material) Roughness() float64 {
	e, _ := m.entry()
	return e.roughness
}

func (m Material) Name() string {
	e, _ := m.entry()
	return e.name
}

func (m Material) String() string {
	if e, ok := m.entry(); ok {
		return e.key
	}
	return fmt.Sprintf("material(%d)", int(m))
}

func (m Material) MarshalText() ([]byte, error) {
	e, ok := m.entry()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMaterial, int(m))
	}
	return []byte(e.key), nil
}

func (m *Material) UnmarshalText(text []byte) error {
	v, err := ParseMaterial(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMaterial 按 key 或显示名称查找，不区分大小写
func ParseMaterial(s string) (Material, error) {
	for i, e := range materials {
		if matches(s, e.key, e.name) {
			return Material(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, s)
}

// FittingType 管件类型
type FittingType int

const (
	SharpEntrance FittingType = iota + 1
	RoundedEntrance
	WellRoundedEntrance
	PipeExit
	GateValveOpen
	GateValveHalf
	GlobeValveOpen
	SwingCheckValve
	Elbow90Long
	Elbow90Short
	Elbow45
	ReturnBend180
	TeeStraight
	TeeBranch
)

type fittingEntry struct {
	key  string
	name string
	k    float64
}

var fittings = []fittingEntry{
	{"entrance-sharp", "Sharp-edged entrance", 0.5},
	{"entrance-rounded", "Slightly rounded entrance", 0.2},
	{"entrance-well-rounded", "Well-rounded entrance", 0.04},
	{"pipe-exit", "Pipe exit", 1.0},
	{"gate-valve-open", "Gate valve (fully open)", 0.2},
	{"gate-valve-half", "Gate valve (half open)", 5.6},
	{"globe-valve-open", "Globe valve (fully open)", 10.0},
	{"check-valve-swing", "Swing check valve", 2.5},
	{"elbow-90-long", "90° elbow (long radius)", 0.6},
	{"elbow-90-short", "90° elbow (short radius)", 0.9},
	{"elbow-45", "45° elbow", 0.4},
	{"return-bend-180", "180° return bend", 2.2},
	{"tee-straight", "Tee (straight run)", 0.6},
	{"tee-branch", "Tee (branch flow)", 1.8},
}

func (f FittingType) entry() (fittingEntry, bool) {
	if f < 1 || int(f) > len(fittings) {
		return fittingEntry{}, false
	}
	return fittings[f-1], true
}

func (f FittingType) Valid() bool {
	_, ok := f.entry()
	return ok
}

// K 局部阻力系数
func (f FittingType) K() float64 {
	e, _ := f.entry()
	return e.k
}

func (f FittingType) Name() string {
	e, _ := f.entry()
	return e.name
}

func (f FittingType) String() string {
	if e, ok := f.entry(); ok {
		return e.key
	}
	return fmt.Sprintf("fitting(%d)", int(f))
}

func (f FittingType) MarshalText() ([]byte, error) {
	e, ok := f.entry()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFitting, int(f))
	}
	return []byte(e.key), nil
}

func (f *FittingType) UnmarshalText(text []byte) error {
	v, err := ParseFitting(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func ParseFitting(s string) (FittingType, error) {
	for i, e := range fittings {
		if matches(s, e.key, e.name) {
			return FittingType(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFitting, s)
}

// Fluid 流体
type Fluid int

const (
	Water20 Fluid = iota + 1
	Ethanol20
)

// FluidProps 流体物性
type FluidProps struct {
	Density   float64 `json:"density"`   // kg/m³
	Viscosity float64 `json:"viscosity"` // 运动粘度 m²/s
}

type fluidEntry struct {
	key   string
	name  string
	props FluidProps
}

var fluids = []fluidEntry{
	{"water-20c", "Water at 20°C", FluidProps{Density: 998.2, Viscosity: 1.004e-6}},
	{"ethanol-20c", "Ethanol at 20°C", FluidProps{Density: 789.0, Viscosity: 1.51e-6}},
}

func (f Fluid) entry() (fluidEntry, bool) {
	if f < 1 || int(f) > len(fluids) {
		return fluidEntry{}, false
	}
	return fluids[f-1], true
}

func (f Fluid) Valid() bool {
	_, ok := f.entry()
	return ok
}

func (f Fluid) Props() FluidProps {
	e, _ := f.entry()
	return e.props
}

func (f Fluid) Name() string {
	e, _ := f.entry()
	return e.name
}

func (f Fluid) String() string {
	if e, ok := f.entry(); ok {
		return e.key
	}
	return fmt.Sprintf("fluid(%d)", int(f))
}

func (f Fluid) MarshalText() ([]byte, error) {
	e, ok := f.entry()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFluid, int(f))
	}
	return []byte(e.key), nil
}

func (f *Fluid) UnmarshalText(text []byte) error {
	v, err := ParseFluid(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func ParseFluid(s string) (Fluid, error) {
	for i, e := range fluids {
		if matches(s, e.key, e.name) {
			return Fluid(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFluid, s)
}

func matches(s, key, name string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, key) || strings.EqualFold(s, name)
}

// 前端下拉框使用的枚举列表

type MaterialInfo struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Roughness float64 `json:"roughness_mm"`
}

type FittingInfo struct {
	Key  string  `json:"key"`
	Name string  `json:"name"`
	K    float64 `json:"k"`
}

type FluidInfo struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Density   float64 `json:"density"`
	Viscosity float64 `json:"viscosity"`
}

type Tables struct {
	Materials []MaterialInfo `json:"materials"`
	Fittings  []FittingInfo  `json:"fittings"`
	Fluids    []FluidInfo    `json:"fluids"`
}

func Materials() []MaterialInfo {
	res := make([]MaterialInfo, 0, len(materials))
	for _, e := range materials {
		res = append(res, MaterialInfo{Key: e.key, Name: e.name, Roughness: e.roughness})
	}
	return res
}

func Fittings() []FittingInfo {
	res := make([]FittingInfo, 0, len(fittings))
	for _, e := range fittings {
		res = append(res, FittingInfo{Key: e.key, Name: e.name, K: e.k})
	}
	return res
}

func Fluids() []FluidInfo {
	res := make([]FluidInfo, 0, len(fluids))
	for _, e := range fluids {
		res = append(res, FluidInfo{Key: e.key, Name: e.name, Density: e.props.Density, Viscosity: e.props.Viscosity})
	}
	return res
}

// All 三张表一起返回
func All() Tables {
	return Tables{
		Materials: Materials(),
		Fittings:  Fittings(),
		Fluids:    Fluids(),
	}
}
