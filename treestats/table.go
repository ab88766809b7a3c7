package treestats

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/spatialindex/dyntree"
)

// String prints the summary as a two column table.
func (s Summary) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Nodes", s.Nodes},
		{"Objects", s.Objects},
		{"Depth", s.Depth},
		{"Root objects", s.RootObjects},
		{"Nodes without objects", s.EmptyNodes},
		{"Mean occupancy", fmt.Sprintf("%.2f", s.MeanOccupancy)},
		{"Median occupancy", fmt.Sprintf("%.2f", s.MedianOccupancy)},
		{"P95 occupancy", fmt.Sprintf("%.2f", s.P95Occupancy)},
		{"Max occupancy", fmt.Sprintf("%.0f", s.MaxOccupancy)},
	})
	return t.Render()
}

// DepthTable prints node and object counts per depth.
func DepthTable(st dyntree.Stats) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Depth", "Nodes", "Objects"})
	for depth := range st.NodesPerDepth {
		t.AppendRow(table.Row{depth, st.NodesPerDepth[depth], st.ObjectsPerDepth[depth]})
	}
	t.AppendFooter(table.Row{"Total", st.Nodes, st.Objects})
	return t.Render()
}

// NodeTable prints one row per node of tree, visiting at most limit nodes when limit is positive.
func NodeTable[B fmt.Stringer](nodes func(func(dyntree.NodeInfo[B]) bool), limit int) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Cell", "Depth", "Objects", "Children", "Bounds"})
	i := 0
	nodes(func(info dyntree.NodeInfo[B]) bool {
		i++
		t.AppendRow(table.Row{i, fmt.Sprintf("%#x", info.CellKey), info.Depth, info.Objects, info.Children, info.Bounds.String()})
		return limit <= 0 || i < limit
	})
	return t.Render()
}
