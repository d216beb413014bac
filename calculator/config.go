package calculator

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// 计算参数配置，对应 conf/pumpnet.ini 中的 [solver] [sweep] [analysis]
type Config struct {
	MaxIterations         int     // 并联求解最大迭代次数
	Tolerance             float64 // 残差收敛阈值，m
	NegativeFlowTolerance float64 // 最后一条支路允许的负流量，m³/h
	Penalty               float64 // 不可行流量分配时的残差

	SweepStep int // 缩放步长，百分点
	Workers   int // 敏感性分析并发数，1 表示顺序计算

	SingleBranchAsSeries bool // 单支路时是否按串联计算
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:         200,
		Tolerance:             1e-9,
		NegativeFlowTolerance: 0.01,
		Penalty:               1e12,
		SweepStep:             5,
		Workers:               1,
		SingleBranchAsSeries:  false,
	}
}

// LoadConfig 从 ini 文件读取，文件不存在时使用默认值
func LoadConfig(path string) (Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		log.WithField("path", path).Warn("配置文件读取错误，使用默认配置: ", err)
		return DefaultConfig(), fmt.Errorf("load config %s: %w", path, err)
	}
	return ConfigFromFile(file), nil
}

func ConfigFromFile(file *ini.File) Config {
	d := DefaultConfig()
	cfg := Config{
		MaxIterations:         file.Section("solver").Key("max_iterations").MustInt(d.MaxIterations),
		Tolerance:             file.Section("solver").Key("tolerance").MustFloat64(d.Tolerance),
		NegativeFlowTolerance: file.Section("solver").Key("negative_flow_tolerance").MustFloat64(d.NegativeFlowTolerance),
		Penalty:               file.Section("solver").Key("penalty").MustFloat64(d.Penalty),
		SweepStep:             file.Section("sweep").Key("step").MustInt(d.SweepStep),
		Workers:               file.Section("sweep").Key("workers").MustInt(d.Workers),
		SingleBranchAsSeries:  file.Section("analysis").Key("single_branch_as_series").MustBool(d.SingleBranchAsSeries),
	}
	return cfg.normalize()
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.NegativeFlowTolerance < 0 {
		c.NegativeFlowTolerance = d.NegativeFlowTolerance
	}
	if c.Penalty <= 0 {
		c.Penalty = d.Penalty
	}
	if c.SweepStep <= 0 {
		c.SweepStep = d.SweepStep
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Workers > 16 {
		c.Workers = 16
	}
	return c
}
