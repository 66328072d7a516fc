// Package config loads an rba.Parameters block from YAML, the way
// viamrobotics-rdk's service configs (e.g. its ORB-SLAM settings) are
// loaded: gopkg.in/yaml.v3 into a struct tagged with `yaml:"..."`, starting
// from spec.md §6's defaults rather than Go's zero values.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/MRPT/srba/rba"
)

// Load reads a YAML file at path into a copy of rba.DefaultParameters,
// overriding only the fields present in the file.
func Load(path string) (rba.Parameters, error) {
	params := rba.DefaultParameters()
	data, err := os.ReadFile(path)
	if err != nil {
		return params, errors.Wrapf(err, "config: reading %s", path)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, errors.Wrapf(err, "config: parsing %s", path)
	}
	return params, nil
}

// Save writes params to path as YAML, for round-tripping a tuned
// configuration back out (e.g. after a CLI run that overrode defaults).
func Save(path string, params rba.Parameters) error {
	data, err := yaml.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "config: marshaling parameters")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "config: writing %s", path)
}
