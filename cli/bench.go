package cli

import (
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/spatialindex/config"
	"go.viam.com/spatialindex/treestats"
)

// BenchAction is the corresponding Action for 'bench'. Every frame moves a random share of the
// configured objects by a bounded random step and then runs one query: the camera's frustum when
// the config has a camera, a random box a quarter of the tree's size otherwise.
func BenchAction(c *cli.Context) error {
	frames := c.Int(benchFlagFrames)
	if frames <= 0 {
		return errors.Errorf("--%s must be positive", benchFlagFrames)
	}
	movers := c.Float64(benchFlagMovers)
	if movers < 0 || movers > 1 {
		return errors.Errorf("--%s must be between 0 and 1", benchFlagMovers)
	}
	readers := c.Int(benchFlagReaders)
	if readers <= 0 {
		return errors.Errorf("--%s must be positive", benchFlagReaders)
	}

	pm := NewProgressManager(c.App.Writer, []*Step{
		{ID: "bench", Message: "Benchmarking", IndentLevel: 0},
		{ID: "build", Message: "Building scene", IndentLevel: 1},
		{ID: "frames", Message: fmt.Sprintf("Running %d frames", frames), IndentLevel: 1},
	}, WithProgressOutput(!c.Bool(benchFlagQuiet)))
	defer pm.Stop()

	before, usageErr := treestats.SelfUsage()
	if err := pm.Start("bench"); err != nil {
		return err
	}
	if err := pm.Start("build"); err != nil {
		return err
	}
	cfg, scene, logger, err := loadScene(c)
	if err != nil {
		//nolint:errcheck
		pm.Fail("build", err)
		return err
	}
	if err := pm.CompleteWithMessage("build", fmt.Sprintf("Built %s with %d objects", scene.Kind, scene.Len())); err != nil {
		return err
	}

	if err := pm.Start("frames"); err != nil {
		return err
	}
	run, err := runFrames(c, cfg, scene, pm, frames, movers, readers)
	if err != nil {
		//nolint:errcheck
		pm.Fail("frames", err)
		return err
	}
	if err := pm.Complete("frames"); err != nil {
		return err
	}
	if err := pm.Complete("bench"); err != nil {
		return err
	}

	timings, err := run.table()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", timings)
	printf(c.App.Writer, "%s", latencyHistogram(run.queries, 8))
	printf(c.App.Writer, "frames %d, moves %d, hits %d", len(run.queries), run.moved, run.hits)
	summary, err := treestats.SummarizeSource(scene)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", summary)

	if usageErr == nil {
		if after, err := treestats.SelfUsage(); err == nil {
			usage := after.Sub(before)
			printf(c.App.Writer, "cpu user %.2fs system %.2fs, rss %.1fMB vss %.1fMB",
				usage.UserCPUSecs, usage.SystemCPUSecs, usage.RssMB, usage.VssMB)
		}
	} else {
		logger.Debugw("process usage unavailable", "error", usageErr)
	}

	if c.Bool(benchFlagMetrics) {
		reg := prometheus.NewRegistry()
		if err := reg.Register(treestats.NewCollector("bench", scene)); err != nil {
			return err
		}
		out, err := metricTable(reg)
		if err != nil {
			return err
		}
		printf(c.App.Writer, "%s", out)
	}
	return nil
}

// benchRun holds per frame timings in microseconds.
type benchRun struct {
	updates []float64
	queries []float64
	moved   int
	hits    int64
}

type benchQuery func(visit func(config.Hit) bool) error

func runFrames(
	c *cli.Context,
	cfg *config.Config,
	scene *config.Scene,
	pm *ProgressManager,
	frames int,
	movers float64,
	readers int,
) (*benchRun, error) {
	rng := rand.New(rand.NewSource(c.Int64(benchFlagSeed))) //nolint:gosec
	step := c.Float64(benchFlagStep)
	objs := append([]config.ObjectConfig(nil), cfg.Objects...)

	// nextQuery draws from rng, so it is only called from this goroutine.
	nextQuery := func() benchQuery {
		lo, hi := randomBox(rng, cfg.Min, cfg.Max)
		return func(visit func(config.Hit) bool) error {
			_, err := scene.QueryBox(lo, hi, visit)
			return err
		}
	}
	if cfg.Camera != nil {
		f, err := cfg.Camera.Frustum()
		if err != nil {
			return nil, err
		}
		nextQuery = func() benchQuery {
			return func(visit func(config.Hit) bool) error {
				scene.QueryFrustum(f, visit)
				return nil
			}
		}
	}

	run := &benchRun{}
	for frame := 0; frame < frames; frame++ {
		start := time.Now()
		for i := range objs {
			if rng.Float64() >= movers {
				continue
			}
			objs[i] = jitter(objs[i], rng, step, cfg.Min, cfg.Max)
			if err := scene.Update(objs[i]); err != nil {
				return nil, err
			}
			run.moved++
		}
		run.updates = append(run.updates, float64(time.Since(start).Microseconds()))

		// Queries only read the scene, so a frame's queries may share it once the moves are done.
		var hits atomic.Int64
		var g errgroup.Group
		start = time.Now()
		for r := 0; r < readers; r++ {
			query := nextQuery()
			g.Go(func() error {
				return query(func(config.Hit) bool {
					hits.Add(1)
					return true
				})
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		run.hits += hits.Load()
		run.queries = append(run.queries, float64(time.Since(start).Microseconds()))

		if frame%10 == 0 {
			pm.UpdateText(fmt.Sprintf("   → frame %d/%d", frame+1, frames))
		}
	}
	return run, nil
}

func (run *benchRun) table() (string, error) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Phase", "Mean µs", "Median µs", "P95 µs", "Max µs"})
	for _, phase := range []struct {
		name string
		data stats.Float64Data
	}{
		{"update", run.updates},
		{"query", run.queries},
	} {
		mean, err := phase.data.Mean()
		if err != nil {
			return "", err
		}
		median, err := phase.data.Median()
		if err != nil {
			return "", err
		}
		p95, err := phase.data.Percentile(95)
		if err != nil {
			return "", err
		}
		maxTime, err := phase.data.Max()
		if err != nil {
			return "", err
		}
		t.AppendRow(table.Row{
			phase.name,
			fmt.Sprintf("%.1f", mean),
			fmt.Sprintf("%.1f", median),
			fmt.Sprintf("%.1f", p95),
			fmt.Sprintf("%.0f", maxTime),
		})
	}
	return t.Render(), nil
}

// jitter moves obj by up to step along each axis without leaving [lo, hi] when it fits there.
func jitter(obj config.ObjectConfig, rng *rand.Rand, step float64, lo, hi []float64) config.ObjectConfig {
	moved := obj
	moved.Min = append([]float64(nil), obj.Min...)
	moved.Max = append([]float64(nil), obj.Max...)
	for i := range moved.Min {
		d := (rng.Float64()*2 - 1) * step
		switch {
		case moved.Min[i]+d < lo[i]:
			moved.Max[i] += lo[i] - moved.Min[i]
			moved.Min[i] = lo[i]
		case moved.Max[i]+d > hi[i]:
			moved.Min[i] += hi[i] - moved.Max[i]
			moved.Max[i] = hi[i]
		default:
			moved.Min[i] += d
			moved.Max[i] += d
		}
	}
	return moved
}

// randomBox returns a box a quarter of the extent [lo, hi] on each axis placed at random inside it.
func randomBox(rng *rand.Rand, lo, hi []float64) ([]float64, []float64) {
	minCoords := make([]float64, len(lo))
	maxCoords := make([]float64, len(lo))
	for i := range lo {
		side := (hi[i] - lo[i]) / 4
		minCoords[i] = lo[i] + rng.Float64()*(hi[i]-lo[i]-side)
		maxCoords[i] = minCoords[i] + side
	}
	return minCoords, maxCoords
}

// latencyHistogram buckets per frame query times.
func latencyHistogram(data []float64, bins int) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Query µs", "Frames"})
	lo, errMin := stats.Min(data)
	hi, errMax := stats.Max(data)
	switch {
	case errMin != nil || errMax != nil:
	case lo == hi:
		t.AppendRow(table.Row{fmt.Sprintf("%.0f", lo), len(data)})
	default:
		for _, bkt := range histogram.Hist(bins, data).Buckets {
			t.AppendRow(table.Row{fmt.Sprintf("%.0f-%.0f", bkt.Min, bkt.Max), bkt.Count})
		}
	}
	return t.Render()
}

func metricTable(g prometheus.Gatherer) (string, error) {
	families, err := g.Gather()
	if err != nil {
		return "", err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Labels", "Value"})
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			t.AppendRow(table.Row{mf.GetName(), strings.Join(labels, ","), m.GetGauge().GetValue()})
		}
	}
	return t.Render(), nil
}
