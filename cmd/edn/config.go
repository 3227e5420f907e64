package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/volsungdenichor/edn"
)

// formatConfig mirrors the .ednfmt file keys. Values decode over the
// defaults, so absent keys keep them.
type formatConfig struct {
	Indent          int  `toml:"indent" yaml:"indent"`
	MaxInlineLength int  `toml:"max-inline-length" yaml:"max-inline-length"`
	CompactMaps     bool `toml:"compact-maps" yaml:"compact-maps"`
}

// configNames are probed in order; the first existing file wins.
var configNames = []string{".ednfmt.toml", ".ednfmt.yaml", ".ednfmt.yml"}

// loadFormatOptions reads formatter options from the first .ednfmt file
// found in dir. No file means the defaults; a file that exists but cannot
// be decoded is an error, not a fallback.
func loadFormatOptions(dir string) (edn.PrettyOptions, error) {
	opts := edn.DefaultPrettyOptions()
	cfg := formatConfig{
		Indent:          opts.Indent,
		MaxInlineLength: opts.MaxInlineLength,
		CompactMaps:     opts.CompactMaps,
	}

	for _, name := range configNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return opts, err
		}
		if filepath.Ext(name) == ".toml" {
			err = toml.Unmarshal(data, &cfg)
		} else {
			err = yaml.Unmarshal(data, &cfg)
		}
		if err != nil {
			return opts, fmt.Errorf("reading %s: %w", path, err)
		}
		break
	}

	if cfg.Indent < 0 || cfg.MaxInlineLength < 0 {
		return opts, fmt.Errorf("formatter config: indent and max-inline-length must be non-negative")
	}

	opts.Indent = cfg.Indent
	opts.MaxInlineLength = cfg.MaxInlineLength
	opts.CompactMaps = cfg.CompactMaps
	return opts, nil
}
