package layout

import (
	"fmt"
	"sort"

	"github.com/Tegakist/DSS/pkg/flowsheet/mapper"
)

// DefaultPreset is used when no layout file or preset is given.
const DefaultPreset = "board"

func intPtr(n int) *int { return &n }

var presets = map[string]func() *Config{
	// One header row, status in B and label in D, four-token vocabulary.
	"board": func() *Config {
		return &Config{
			HeaderRows:   intPtr(1),
			StatusColumn: "B",
			LabelColumn:  "D",
			Vocabulary: VocabularyConfig{
				Default: "pending",
				Tokens: map[string]string{
					"done":    "done",
					"waiting": "waiting",
					"blocked": "blocked",
					"pending": "pending",
				},
			},
		}
	},
	// Five header rows and the 済 / 回答待 vocabulary of progress sheets.
	"progress": func() *Config {
		return &Config{
			HeaderRows:   intPtr(5),
			StatusColumn: "B",
			LabelColumn:  "D",
			Fields: []FieldConfig{
				{Name: "ref_no", Column: "C", Kind: "text"},
				{Name: "summary", Column: "E", Kind: "text"},
				{Name: "due", Column: "F", Kind: "date"},
				{Name: "answered", Column: "G", Kind: "date"},
			},
			Vocabulary: VocabularyConfig{
				Default: "waiting",
				Tokens: map[string]string{
					"done":    "済",
					"waiting": "回答待",
					"blocked": "回答待",
					"pending": "回答待",
				},
			},
			DateFormat:  "yyyy/m/d",
			DisplayDate: "2006/01/02",
		}
	},
}

// PresetNames lists the built-in presets.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetConfig returns a fresh copy of a built-in configuration.
func PresetConfig(name string) (*Config, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPreset, name, PresetNames())
	}
	cfg := build()
	cfg.applyDefaults()
	cfg.normalize()
	return cfg, nil
}

// Preset returns the mapper layout of a built-in configuration.
func Preset(name string) (*mapper.Layout, error) {
	cfg, err := PresetConfig(name)
	if err != nil {
		return nil, err
	}
	return cfg.Layout()
}

// Resolve picks the layout from a file when path is set, else from the
// named preset, else from DefaultPreset.
func Resolve(path, preset string) (*mapper.Layout, error) {
	if path != "" {
		return Load(path)
	}
	if preset == "" {
		preset = DefaultPreset
	}
	return Preset(preset)
}
