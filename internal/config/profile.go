package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/jacoelho/jscan/internal/scan"
)

// Profile is a reusable scan setup stored as YAML:
//
//	target: data
//	deep: false
//	format: csv
//	max_depth: 512
//	fields:
//	  - field: local_date_time_full
//	    key: local_time
//
// Unset members keep the flag defaults.
type Profile struct {
	Target   string         `yaml:"target"`
	Deep     *bool          `yaml:"deep"`
	Format   string         `yaml:"format"`
	MaxDepth *int           `yaml:"max_depth"`
	Fields   []ProfileField `yaml:"fields"`
}

type ProfileField struct {
	Field string `yaml:"field"`
	Key   string `yaml:"key"`
}

// Bindings returns the fields in file order.
func (p *Profile) Bindings() []scan.Binding {
	out := make([]scan.Binding, len(p.Fields))
	for i, f := range p.Fields {
		out[i] = scan.Binding{Field: f.Field, Key: scan.Key(f.Key)}
	}
	return out
}

// LoadProfile reads a profile, rejecting unknown members.
func LoadProfile(filename string) (*Profile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	defer f.Close()

	var p Profile
	err = yaml.NewDecoder(f, yaml.DisallowUnknownField()).Decode(&p)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &p, nil
}
