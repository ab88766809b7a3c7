package config

import (
	"bytes"
	"io"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/spatialindex/logging"
)

// Read reads and validates a config from the given file. Environment variables referenced as
// ${NAME} in the file are substituted first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from. The config may use JSON5 comments and
// unquoted keys.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	md, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var attributes map[string]interface{}
	if err := json5.Unmarshal(md, &attributes); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg, err := FromAttributes(attributes)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = originalPath
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debugw("read config", "path", originalPath, "kind", cfg.Kind, "objects", len(cfg.Objects))
	}
	return cfg, nil
}

// FromAttributes converts a generic attribute map, such as the decoded JSON of a config file, into
// a Config. Unknown attributes are rejected. The result is not validated.
func FromAttributes(attributes map[string]interface{}) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &cfg, ErrorUnused: true})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to process Config")
	}
	return &cfg, nil
}
