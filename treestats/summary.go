// Package treestats summarizes and exports the shape of spatial index trees: occupancy
// statistics, printable tables and a prometheus collector.
package treestats

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/dyntree"
)

// Source is anything that can report tree statistics. Octrees and quadtrees both are.
type Source interface {
	Stats() dyntree.Stats
}

// Summary condenses dyntree.Stats into the numbers worth watching while tuning max depth and min
// node size.
type Summary struct {
	Nodes   int
	Objects int
	Depth   int
	// RootObjects is the number of objects that straddle the root's split planes or exceed its bounds.
	RootObjects int
	// EmptyNodes counts nodes holding no object directly, only children.
	EmptyNodes      int
	MeanOccupancy   float64
	MedianOccupancy float64
	P95Occupancy    float64
	MaxOccupancy    float64
}

// Summarize computes occupancy statistics over the per node object counts.
func Summarize(st dyntree.Stats) (Summary, error) {
	s := Summary{Nodes: st.Nodes, Objects: st.Objects, Depth: st.Depth}
	if len(st.ObjectsPerNode) == 0 {
		return s, errors.New("no nodes to summarize")
	}
	if len(st.ObjectsPerDepth) > 0 {
		s.RootObjects = st.ObjectsPerDepth[0]
	}
	occupancy := make([]float64, 0, len(st.ObjectsPerNode))
	for _, n := range st.ObjectsPerNode {
		if n == 0 {
			s.EmptyNodes++
		}
		occupancy = append(occupancy, float64(n))
	}

	var err error
	if s.MeanOccupancy, err = stats.Mean(occupancy); err != nil {
		return s, errors.Wrap(err, "mean occupancy")
	}
	if s.MedianOccupancy, err = stats.Median(occupancy); err != nil {
		return s, errors.Wrap(err, "median occupancy")
	}
	if s.P95Occupancy, err = stats.Percentile(occupancy, 95); err != nil {
		return s, errors.Wrap(err, "95th percentile occupancy")
	}
	if s.MaxOccupancy, err = stats.Max(occupancy); err != nil {
		return s, errors.Wrap(err, "max occupancy")
	}
	return s, nil
}

// SummarizeSource is Summarize over the current statistics of src.
func SummarizeSource(src Source) (Summary, error) {
	return Summarize(src.Stats())
}
