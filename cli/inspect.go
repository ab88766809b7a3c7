package cli

import (
	"github.com/urfave/cli/v2"

	"go.viam.com/spatialindex/config"
	"go.viam.com/spatialindex/treestats"
)

// InspectAction is the corresponding Action for 'inspect'.
func InspectAction(c *cli.Context) error {
	_, scene, _, err := loadScene(c)
	if err != nil {
		return err
	}
	return printInspection(c, scene, c.Int(inspectFlagNodes))
}

func printInspection(c *cli.Context, scene *config.Scene, nodes int) error {
	st := scene.Stats()
	summary, err := treestats.Summarize(st)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s with %d objects", scene.Kind, scene.Len())
	printf(c.App.Writer, "%s", summary)
	printf(c.App.Writer, "%s", treestats.DepthTable(st))
	if scene.Octree != nil {
		printf(c.App.Writer, "%s", treestats.NodeTable(scene.Octree.Nodes, nodes))
	} else {
		printf(c.App.Writer, "%s", treestats.NodeTable(scene.Quadtree.Nodes, nodes))
	}
	return nil
}
