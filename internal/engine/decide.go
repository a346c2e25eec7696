package engine

import (
	"math"

	"lab-radar.klederson.com/internal/config"
	"lab-radar.klederson.com/internal/geo"
)

// RefreshKind is the outcome of a refresh decision.
type RefreshKind int

const (
	// RefreshSmall re-sorts the cached labs without a network call.
	RefreshSmall RefreshKind = iota
	// RefreshLarge re-fetches the lab set for the new position.
	RefreshLarge
)

func (k RefreshKind) String() string {
	if k == RefreshLarge {
		return "large"
	}
	return "small"
}

// Decision explains why a refresh kind was chosen.
type Decision struct {
	Kind      RefreshKind
	Moved     float64 // Meters from the anchor, 0 without anchor
	Threshold float64 // Meters
	NoAnchor  bool
}

// Threshold returns the large-refresh distance for a block size.
func Threshold(blockSize float64) float64 {
	return math.Abs(blockSize) * config.BlockMeters
}

// Decide picks a large refresh when there is no anchor yet or the position
// moved strictly farther than the threshold.
func Decide(anchor *geo.Coordinate, latest geo.Coordinate, blockSize float64) Decision {
	d := Decision{Threshold: Threshold(blockSize)}
	if anchor == nil {
		d.Kind = RefreshLarge
		d.NoAnchor = true
		return d
	}

	d.Moved = geo.Distance(*anchor, latest)
	if d.Moved > d.Threshold {
		d.Kind = RefreshLarge
	}
	return d
}
