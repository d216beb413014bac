package model

import (
	"fmt"

	"github.com/google/uuid"

	"pumpnet/catalog"
)

// Section 管网分段
type Section string

const (
	SectionBefore   Section = "before"
	SectionParallel Section = "parallel"
	SectionAfter    Section = "after"
)

func NewSegment(length, diameter float64) Segment {
	return Segment{
		ID:       uuid.NewString(),
		Length:   length,
		Diameter: diameter,
		Material: DefaultMaterial,
	}
}

// DefaultNetwork 两条并联支路：50m × 80mm 和 50m × 100mm
func DefaultNetwork() Network {
	return Network{
		Branches: []Branch{
			{Name: "Branch 1", Segments: []Segment{NewSegment(DefaultBranchLength, DefaultBranchDiameter)}},
			{Name: "Branch 2", Segments: []Segment{NewSegment(DefaultBranchLength, 100)}},
		},
	}
}

func (n Network) Validate() error {
	if len(n.Branches) == 0 {
		return fmt.Errorf("%w: at least one branch is required", ErrInvalidNetwork)
	}
	names := make(map[string]struct{}, len(n.Branches))
	for _, b := range n.Branches {
		if b.Name == "" {
			return fmt.Errorf("%w: branch without name", ErrInvalidNetwork)
		}
		if _, ok := names[b.Name]; ok {
			return fmt.Errorf("%w: duplicate branch %q", ErrInvalidNetwork, b.Name)
		}
		names[b.Name] = struct{}{}
		for i, s := range b.Segments {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("branch %q segment %d: %w", b.Name, i+1, err)
			}
		}
	}
	for i, s := range n.Before {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("before segment %d: %w", i+1, err)
		}
	}
	for i, s := range n.After {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("after segment %d: %w", i+1, err)
		}
	}
	return nil
}

// Clone 深拷贝
func (n Network) Clone() Network {
	c := Network{
		Before: cloneSegments(n.Before),
		After:  cloneSegments(n.After),
	}
	if n.Branches != nil {
		c.Branches = make([]Branch, len(n.Branches))
		for i, b := range n.Branches {
			c.Branches[i] = b.clone()
		}
	}
	return c
}

// Scaled 所有管段内径乘以 factor，原管网不变
func (n Network) Scaled(factor float64) Network {
	c := n.Clone()
	c.eachSegment(func(s *Segment) {
		s.Diameter *= factor
	})
	return c
}

// WithIDs 为缺少 id 的管段补充 id
func (n Network) WithIDs() Network {
	c := n.Clone()
	c.eachSegment(func(s *Segment) {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
	})
	return c
}

func (n *Network) eachSegment(f func(s *Segment)) {
	for i := range n.Before {
		f(&n.Before[i])
	}
	for i := range n.Branches {
		for j := range n.Branches[i].Segments {
			f(&n.Branches[i].Segments[j])
		}
	}
	for i := range n.After {
		f(&n.After[i])
	}
}

func (n *Network) findSegment(id string) *Segment {
	var found *Segment
	n.eachSegment(func(s *Segment) {
		if found == nil && s.ID == id {
			found = s
		}
	})
	return found
}

func (n *Network) branch(name string) *Branch {
	for i := range n.Branches {
		if n.Branches[i].Name == name {
			return &n.Branches[i]
		}
	}
	return nil
}

// 所有编辑操作都返回新的管网

func (n Network) AddSegment(section Section, branch string) (Network, error) {
	c := n.Clone()
	switch section {
	case SectionBefore:
		c.Before = append(c.Before, NewSegment(DefaultSegmentLength, DefaultSegmentDiameter))
	case SectionAfter:
		c.After = append(c.After, NewSegment(DefaultSegmentLength, DefaultSegmentDiameter))
	case SectionParallel:
		b := c.branch(branch)
		if b == nil {
			return n, fmt.Errorf("%w: no branch %q", ErrInvalidNetwork, branch)
		}
		b.Segments = append(b.Segments, NewSegment(DefaultBranchLength, DefaultBranchDiameter))
	default:
		return n, fmt.Errorf("%w: unknown section %q", ErrInvalidNetwork, section)
	}
	return c, nil
}

// RemoveLastSegment 段为空时不做处理
func (n Network) RemoveLastSegment(section Section, branch string) (Network, error) {
	c := n.Clone()
	switch section {
	case SectionBefore:
		if len(c.Before) > 0 {
			c.Before = c.Before[:len(c.Before)-1]
		}
	case SectionAfter:
		if len(c.After) > 0 {
			c.After = c.After[:len(c.After)-1]
		}
	case SectionParallel:
		b := c.branch(branch)
		if b == nil {
			return n, fmt.Errorf("%w: no branch %q", ErrInvalidNetwork, branch)
		}
		if len(b.Segments) > 0 {
			b.Segments = b.Segments[:len(b.Segments)-1]
		}
	default:
		return n, fmt.Errorf("%w: unknown section %q", ErrInvalidNetwork, section)
	}
	return c, nil
}

// AddBranch 新支路命名为 "Branch N"
func (n Network) AddBranch() Network {
	c := n.Clone()
	num := len(c.Branches) + 1
	name := fmt.Sprintf("Branch %d", num)
	for c.branch(name) != nil {
		num++
		name = fmt.Sprintf("Branch %d", num)
	}
	c.Branches = append(c.Branches, Branch{
		Name:     name,
		Segments: []Segment{NewSegment(DefaultBranchLength, DefaultBranchDiameter)},
	})
	return c
}

// RemoveLastBranch 至少保留一条支路
func (n Network) RemoveLastBranch() Network {
	c := n.Clone()
	if len(c.Branches) > 1 {
		c.Branches = c.Branches[:len(c.Branches)-1]
	}
	return c
}

func (n Network) AddFitting(segmentID string, f Fitting) (Network, error) {
	if f.Quantity < 1 || !f.Type.Valid() {
		return n, fmt.Errorf("%w: fitting %s quantity %d", ErrInvalidSegment, f.Type, f.Quantity)
	}
	c := n.Clone()
	s := c.findSegment(segmentID)
	if s == nil {
		return n, fmt.Errorf("%w: %s", ErrNotFound, segmentID)
	}
	s.Fittings = append(s.Fittings, f)
	return c, nil
}

func (n Network) RemoveFitting(segmentID string, index int) (Network, error) {
	c := n.Clone()
	s := c.findSegment(segmentID)
	if s == nil {
		return n, fmt.Errorf("%w: %s", ErrNotFound, segmentID)
	}
	if index < 0 || index >= len(s.Fittings) {
		return n, fmt.Errorf("%w: fitting index %d out of range", ErrInvalidSegment, index)
	}
	s.Fittings = append(s.Fittings[:index], s.Fittings[index+1:]...)
	return c, nil
}

// SetSegment 修改管段长度、内径和材质
func (n Network) SetSegment(segmentID string, length, diameter float64, material catalog.Material) (Network, error) {
	c := n.Clone()
	s := c.findSegment(segmentID)
	if s == nil {
		return n, fmt.Errorf("%w: %s", ErrNotFound, segmentID)
	}
	updated := *s
	updated.Length = length
	updated.Diameter = diameter
	updated.Material = material
	if err := updated.Validate(); err != nil {
		return n, err
	}
	*s = updated
	return c, nil
}

// Segment 按 id 查找管段
func (n Network) Segment(id string) (Segment, bool) {
	s := n.findSegment(id)
	if s == nil {
		return Segment{}, false
	}
	return s.clone(), true
}

func cloneSegments(src []Segment) []Segment {
	if src == nil {
		return nil
	}
	dst := make([]Segment, len(src))
	for i, s := range src {
		dst[i] = s.clone()
	}
	return dst
}
