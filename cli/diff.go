package cli

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/spatialindex/config"
)

// SchemaAction is the corresponding Action for 'schema'.
func SchemaAction(c *cli.Context) error {
	md, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", md)
	return nil
}

// DiffAction is the corresponding Action for 'diff'.
func DiffAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return errors.New("diff needs exactly two configs, the old and the new one")
	}
	logger, registry, patterns, err := newLogger(c)
	if err != nil {
		return err
	}
	if err := registry.UpdateConfig(patterns, logger); err != nil {
		return err
	}
	left, err := readConfig(c, c.Args().Get(0), logger)
	if err != nil {
		return err
	}
	right, err := readConfig(c, c.Args().Get(1), logger)
	if err != nil {
		return err
	}

	diff, err := config.DiffConfigs(*left, *right, true)
	if err != nil {
		return err
	}
	if diff.TreeEqual && diff.ObjectsEqual {
		printf(c.App.Writer, "no changes")
	} else {
		if !diff.TreeEqual {
			printf(c.App.Writer, "tree settings changed")
		}
		printf(c.App.Writer, "added: %s", objectNames(diff.Added))
		printf(c.App.Writer, "modified: %s", objectNames(diff.Modified))
		printf(c.App.Writer, "removed: %s", objectNames(diff.Removed))
		printf(c.App.Writer, "%s", diff)
	}
	if !c.Bool(diffFlagApply) {
		return nil
	}

	scene, err := left.Build(logger.Sublogger("scene"))
	if err != nil {
		return err
	}
	if err := diff.Apply(scene); err != nil {
		return err
	}
	return printInspection(c, scene, 0)
}

func objectNames(objs []config.ObjectConfig) string {
	if len(objs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(objs))
	for _, obj := range objs {
		names = append(names, obj.Name)
	}
	return strings.Join(names, ", ")
}
