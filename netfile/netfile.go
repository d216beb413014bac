package netfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pumpnet/catalog"
	"pumpnet/model"
)

// NetworkYAML 管网定义文件结构
type NetworkYAML struct {
	Before   []SegmentYAML `yaml:"before,omitempty"`
	Branches []BranchYAML  `yaml:"branches"`
	After    []SegmentYAML `yaml:"after,omitempty"`
}

type BranchYAML struct {
	Name     string        `yaml:"name"`
	Segments []SegmentYAML `yaml:"segments"`
}

// SegmentYAML 长度 m，内径 mm，材质和管件使用物性表中的 key 或名称
type SegmentYAML struct {
	ID       string        `yaml:"id,omitempty"`
	Length   float64       `yaml:"length"`
	Diameter float64       `yaml:"diameter"`
	Material string        `yaml:"material,omitempty"`
	Fittings []FittingYAML `yaml:"fittings,omitempty"`
}

type FittingYAML struct {
	Type     string `yaml:"type"`
	Quantity int    `yaml:"quantity,omitempty"`
}

// Load 读取 yaml 管网定义
func Load(path string) (model.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Network{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (model.Network, error) {
	var y NetworkYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return model.Network{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	net, err := convertYAMLToNetwork(&y)
	if err != nil {
		return model.Network{}, err
	}
	if err := net.Validate(); err != nil {
		return model.Network{}, err
	}
	return net, nil
}

func convertYAMLToNetwork(y *NetworkYAML) (model.Network, error) {
	var net model.Network
	var err error

	if net.Before, err = convertSegments(y.Before, "before"); err != nil {
		return net, err
	}
	for i, b := range y.Branches {
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("Branch %d", i+1)
		}
		segs, err := convertSegments(b.Segments, name)
		if err != nil {
			return net, err
		}
		net.Branches = append(net.Branches, model.Branch{Name: name, Segments: segs})
	}
	if net.After, err = convertSegments(y.After, "after"); err != nil {
		return net, err
	}
	return net, nil
}

func convertSegments(src []SegmentYAML, where string) ([]model.Segment, error) {
	var res []model.Segment
	for i, s := range src {
		seg := model.NewSegment(s.Length, s.Diameter)
		if s.ID != "" {
			seg.ID = s.ID
		}
		if s.Material != "" {
			m, err := catalog.ParseMaterial(s.Material)
			if err != nil {
				return nil, fmt.Errorf("%s segment %d: %w", where, i+1, err)
			}
			seg.Material = m
		}
		for _, f := range s.Fittings {
			t, err := catalog.ParseFitting(f.Type)
			if err != nil {
				return nil, fmt.Errorf("%s segment %d: %w", where, i+1, err)
			}
			qty := f.Quantity
			if qty == 0 {
				qty = 1
			}
			fitting, err := model.NewFitting(t, qty)
			if err != nil {
				return nil, fmt.Errorf("%s segment %d: %w", where, i+1, err)
			}
			seg.Fittings = append(seg.Fittings, fitting)
		}
		res = append(res, seg)
	}
	return res, nil
}

// Marshal 输出为 yaml，可被 Parse 读回
func Marshal(net model.Network) ([]byte, error) {
	y := NetworkYAML{
		Before: convertSegmentsToYAML(net.Before),
		After:  convertSegmentsToYAML(net.After),
	}
	for _, b := range net.Branches {
		y.Branches = append(y.Branches, BranchYAML{
			Name:     b.Name,
			Segments: convertSegmentsToYAML(b.Segments),
		})
	}
	return yaml.Marshal(&y)
}

func convertSegmentsToYAML(src []model.Segment) []SegmentYAML {
	var res []SegmentYAML
	for _, s := range src {
		sy := SegmentYAML{
			ID:       s.ID,
			Length:   s.Length,
			Diameter: s.Diameter,
			Material: s.Material.String(),
		}
		for _, f := range s.Fittings {
			sy.Fittings = append(sy.Fittings, FittingYAML{Type: f.Type.String(), Quantity: f.Quantity})
		}
		res = append(res, sy)
	}
	return res
}
