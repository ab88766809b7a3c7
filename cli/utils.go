package cli

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/spatialindex/config"
	"go.viam.com/spatialindex/logging"
)

// printf prints a message with a trailing newline.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// newLogger returns the tool's root logger and the registry its subloggers join. Debug mode makes
// every logger log at debug level unless a --log pattern says otherwise.
func newLogger(c *cli.Context) (logging.Logger, *logging.Registry, []logging.LoggerPatternConfig, error) {
	logger, registry := logging.NewLoggerWithRegistry("spatialindex")
	var patterns []logging.LoggerPatternConfig
	if c.Bool(debugFlag) {
		patterns = append(patterns, logging.LoggerPatternConfig{Pattern: "*", Level: "debug"})
	}
	for _, s := range c.StringSlice(logFlag) {
		lpc, err := logging.ParseLoggerPatternConfig(s)
		if err != nil {
			return nil, nil, nil, err
		}
		patterns = append(patterns, lpc)
	}
	return logger, registry, patterns, nil
}

// readConfig reads the config named by path, or by --config when path is empty.
func readConfig(c *cli.Context, path string, logger logging.Logger) (*config.Config, error) {
	if path == "" {
		path = c.String(configFlag)
	}
	if path == "" {
		return nil, errors.New("no config given, pass one with --config")
	}
	cfg, err := config.Read(path, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", path)
	}
	return cfg, nil
}

// loadScene reads the --config file and builds its scene. Logger patterns from the config apply
// before those given on the command line.
func loadScene(c *cli.Context) (*config.Config, *config.Scene, logging.Logger, error) {
	logger, registry, patterns, err := newLogger(c)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := registry.UpdateConfig(patterns, logger); err != nil {
		return nil, nil, nil, err
	}
	cfg, err := readConfig(c, "", logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := registry.UpdateConfig(append(cfg.Log, patterns...), logger); err != nil {
		return nil, nil, nil, err
	}
	scene, err := cfg.Build(logger.Sublogger("scene"))
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, scene, logger, nil
}
