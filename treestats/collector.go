package treestats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spatialindex"

// Collector exports the shape of one tree as prometheus gauges. Statistics are computed on every
// scrape, so scrapes must be serialized with the tree's mutations like any other query.
type Collector struct {
	src Source

	nodes           *prometheus.Desc
	objects         *prometheus.Desc
	depth           *prometheus.Desc
	rootObjects     *prometheus.Desc
	objectsPerDepth *prometheus.Desc
}

// NewCollector returns a collector for src. The tree label distinguishes several trees registered
// with the same registry.
func NewCollector(tree string, src Source) *Collector {
	labels := prometheus.Labels{"tree": tree}
	return &Collector{
		src: src,
		nodes: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "nodes"),
			"The number of allocated nodes, the root included.", nil, labels),
		objects: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "objects"),
			"The number of indexed objects.", nil, labels),
		depth: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "depth"),
			"The depth of the deepest node.", nil, labels),
		rootObjects: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "root_objects"),
			"The number of objects kept at the root.", nil, labels),
		objectsPerDepth: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "depth_objects"),
			"The number of objects stored at each depth.", []string{"depth"}, labels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.nodes
	ch <- c.objects
	ch <- c.depth
	ch <- c.rootObjects
	ch <- c.objectsPerDepth
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(st.Nodes))
	ch <- prometheus.MustNewConstMetric(c.objects, prometheus.GaugeValue, float64(st.Objects))
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(st.Depth))
	root := 0
	if len(st.ObjectsPerDepth) > 0 {
		root = st.ObjectsPerDepth[0]
	}
	ch <- prometheus.MustNewConstMetric(c.rootObjects, prometheus.GaugeValue, float64(root))
	for depth, n := range st.ObjectsPerDepth {
		ch <- prometheus.MustNewConstMetric(c.objectsPerDepth, prometheus.GaugeValue, float64(n), strconv.Itoa(depth))
	}
}
