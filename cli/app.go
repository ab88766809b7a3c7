// Package cli contains the spatialindex command line tool: it builds the index described by a
// config file and inspects, queries, draws and benchmarks it.
package cli

import (
	"io"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	configFlag = "config"
	debugFlag  = "debug"
	logFlag    = "log"

	inspectFlagNodes = "nodes"

	queryFlagMin    = "min"
	queryFlagMax    = "max"
	queryFlagCamera = "camera"

	drawFlagOut       = "out"
	drawFlagSize      = "size"
	drawFlagLabels    = "labels"
	drawFlagHighlight = "highlight"

	diffFlagApply = "apply"

	benchFlagFrames  = "frames"
	benchFlagMovers  = "movers"
	benchFlagStep    = "step"
	benchFlagSeed    = "seed"
	benchFlagReaders = "readers"
	benchFlagQuiet   = "quiet"
	benchFlagMetrics = "metrics"
)

var app = &cli.App{
	Name:            "spatialindex",
	Usage:           "build, query and inspect dynamic octrees and quadtrees",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "load the scene from `FILE`",
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringSliceFlag{
			Name:  logFlag,
			Usage: "set logger levels as `PATTERN=LEVEL`, e.g. spatialindex.scene.*=debug",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "inspect",
			Usage:  "print the shape of the scene's tree",
			Action: InspectAction,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  inspectFlagNodes,
					Usage: "list at most `N` nodes, 0 for all",
					Value: 20,
				},
			},
		},
		{
			Name:   "query",
			Usage:  "list the objects intersecting a box or the configured camera's view",
			Action: QueryAction,
			Flags: []cli.Flag{
				&cli.Float64SliceFlag{
					Name:  queryFlagMin,
					Usage: "min corner of the query box",
				},
				&cli.Float64SliceFlag{
					Name:  queryFlagMax,
					Usage: "max corner of the query box",
				},
				&cli.BoolFlag{
					Name:  queryFlagCamera,
					Usage: "query the view frustum of the configured camera",
				},
			},
		},
		{
			Name:   "draw",
			Usage:  "render the scene's tree seen from above as a PNG",
			Action: DrawAction,
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     drawFlagOut,
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "write the image to `FILE`",
				},
				&cli.IntFlag{
					Name:  drawFlagSize,
					Usage: "length of the longer image side in pixels",
					Value: 1024,
				},
				&cli.BoolFlag{
					Name:  drawFlagLabels,
					Usage: "label every node with its cell key",
				},
				&cli.StringSliceFlag{
					Name:  drawFlagHighlight,
					Usage: "highlight the named objects",
				},
				&cli.Float64SliceFlag{
					Name:  queryFlagMin,
					Usage: "min corner of a query box to outline and highlight",
				},
				&cli.Float64SliceFlag{
					Name:  queryFlagMax,
					Usage: "max corner of a query box to outline and highlight",
				},
			},
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of config files",
			Action: SchemaAction,
		},
		{
			Name:      "diff",
			Usage:     "compare two configs",
			ArgsUsage: "<old> <new>",
			Action:    DiffAction,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  diffFlagApply,
					Usage: "apply the difference to a scene built from the old config and inspect the result",
				},
			},
		},
		{
			Name:   "bench",
			Usage:  "move objects and query the scene frame by frame, reporting timings",
			Action: BenchAction,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  benchFlagFrames,
					Usage: "number of frames to run",
					Value: 100,
				},
				&cli.Float64Flag{
					Name:  benchFlagMovers,
					Usage: "fraction of the objects moved every frame",
					Value: 0.25,
				},
				&cli.Float64Flag{
					Name:  benchFlagStep,
					Usage: "largest distance an object moves per frame along each axis",
					Value: 1,
				},
				&cli.IntFlag{
					Name:  benchFlagReaders,
					Usage: "number of queries run concurrently after the moves of a frame",
					Value: 1,
				},
				&cli.Int64Flag{
					Name:  benchFlagSeed,
					Usage: "random seed",
					Value: 1,
				},
				&cli.BoolFlag{
					Name:  benchFlagQuiet,
					Usage: "do not report progress",
				},
				&cli.BoolFlag{
					Name:  benchFlagMetrics,
					Usage: "print the tree's prometheus metrics after the run",
				},
			},
		},
		{
			Name:   "version",
			Usage:  "print version info for this program",
			Action: VersionAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

// VersionAction is the corresponding Action for 'version'.
func VersionAction(c *cli.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("error reading build info")
	}
	if c.Bool(debugFlag) {
		printf(c.App.Writer, "%s", info.String())
	}
	settings := make(map[string]string, len(info.Settings))
	for _, setting := range info.Settings {
		settings[setting.Key] = setting.Value
	}
	version := "?"
	if rev, ok := settings["vcs.revision"]; ok && len(rev) >= 8 {
		version = rev[:8]
		if settings["vcs.modified"] == "true" {
			version += "+"
		}
	}
	printf(c.App.Writer, "Version %s Git=%s Go=%s", info.Main.Version, version, info.GoVersion)
	return nil
}
