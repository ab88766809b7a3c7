package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/spatialindex/config"
)

// QueryAction is the corresponding Action for 'query'.
func QueryAction(c *cli.Context) error {
	cfg, scene, logger, err := loadScene(c)
	if err != nil {
		return err
	}

	var hits []config.Hit
	collect := func(h config.Hit) bool {
		hits = append(hits, h)
		return true
	}
	switch {
	case c.Bool(queryFlagCamera):
		if cfg.Camera == nil {
			return errors.New("the config has no camera")
		}
		f, err := cfg.Camera.Frustum()
		if err != nil {
			return err
		}
		scene.QueryFrustum(f, collect)
	case c.IsSet(queryFlagMin) || c.IsSet(queryFlagMax):
		if _, err := scene.QueryBox(c.Float64Slice(queryFlagMin), c.Float64Slice(queryFlagMax), collect); err != nil {
			return err
		}
	default:
		return errors.Errorf("pass --%s and --%s or --%s", queryFlagMin, queryFlagMax, queryFlagCamera)
	}
	logger.Debugw("query done", "hits", len(hits))

	printf(c.App.Writer, "%s", hitTable(hits))
	return nil
}

func hitTable(hits []config.Hit) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "Key", "Type", "Instance", "Bounds"})
	for _, h := range hits {
		t.AppendRow(table.Row{h.Name, h.Key.String(), h.Data.Type, h.Data.Instance, h.Bounds})
	}
	t.AppendFooter(table.Row{"Hits", len(hits)})
	return t.Render()
}
