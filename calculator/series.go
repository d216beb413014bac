package calculator

import (
	"pumpnet/catalog"
	"pumpnet/model"
)

// SeriesLoss 串联管段总损失，各管段流量相同
func SeriesLoss(segments []model.Segment, flow float64, fluid catalog.FluidProps) float64 {
	var total float64
	for _, s := range segments {
		total += SegmentLoss(s, flow, fluid).Total()
	}
	return total
}
