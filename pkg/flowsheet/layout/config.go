// Package layout loads the worksheet layout of a deployment from YAML or
// TOML files and provides the built-in presets.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/Tegakist/DSS/pkg/flowsheet/mapper"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

const defaultHeaderRows = 1

// FieldConfig declares one optional column.
type FieldConfig struct {
	Name   string `yaml:"name" toml:"name"`
	Column string `yaml:"column" toml:"column"`
	Kind   string `yaml:"kind,omitempty" toml:"kind,omitempty"`
}

// VocabularyConfig spells the status tokens stored in the status column.
type VocabularyConfig struct {
	// Default is the status of rows whose token is unknown or missing.
	Default string `yaml:"default" toml:"default"`
	// Tokens maps every internal status to the token written for it.
	Tokens map[string]string `yaml:"tokens" toml:"tokens"`
	// Aliases are extra inbound tokens, mapped to internal statuses.
	Aliases map[string]string `yaml:"aliases,omitempty" toml:"aliases,omitempty"`
}

// Config models a layout file. Columns are spreadsheet letters ("B").
type Config struct {
	// HeaderRows is the number of header rows above the records.
	HeaderRows *int `yaml:"header_rows,omitempty" toml:"header_rows,omitempty"`

	StatusColumn string           `yaml:"status_column" toml:"status_column"`
	LabelColumn  string           `yaml:"label_column" toml:"label_column"`
	Fields       []FieldConfig    `yaml:"fields,omitempty" toml:"fields,omitempty"`
	Vocabulary   VocabularyConfig `yaml:"vocabulary" toml:"vocabulary"`

	// DateFormat is a built-in number format id or a custom format code,
	// used for date cells that carry no format yet.
	DateFormat string `yaml:"date_format,omitempty" toml:"date_format,omitempty"`
	// DisplayDate is the Go time layout used to show dates.
	DisplayDate string `yaml:"display_date,omitempty" toml:"display_date,omitempty"`
}

// FormatFromPath picks the syntax from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads a layout file and builds the mapper layout.
func Load(path string) (*mapper.Layout, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Layout()
}

// LoadConfig reads and checks a layout file.
func LoadConfig(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layout: read %s: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("layout: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration bytes, applies defaults and validates them.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	cfg.applyDefaults()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes the configuration in the given syntax.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatTOML:
		return toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Layout converts the configuration into a mapper layout.
func (c *Config) Layout() (*mapper.Layout, error) {
	headerRows := defaultHeaderRows
	if c.HeaderRows != nil {
		headerRows = *c.HeaderRows
	}
	l := &mapper.Layout{
		HeaderRowOffset: headerRows - 1,
		DisplayLayout:   c.DisplayDate,
	}

	var err error
	if l.StatusColumn, err = columnIndex("status_column", c.StatusColumn); err != nil {
		return nil, err
	}
	if l.LabelColumn, err = columnIndex("label_column", c.LabelColumn); err != nil {
		return nil, err
	}
	for i, f := range c.Fields {
		col, err := columnIndex(fmt.Sprintf("fields[%d].column", i), f.Column)
		if err != nil {
			return nil, err
		}
		l.Fields = append(l.Fields, mapper.Field{Name: f.Name, Column: col, Kind: mapper.FieldKind(f.Kind)})
	}
	if l.DateFormat, err = parseNumFormat(c.DateFormat); err != nil {
		return nil, NewConfigError("date_format", err)
	}
	if l.Vocabulary, err = c.Vocabulary.build(); err != nil {
		return nil, NewConfigError("vocabulary", err)
	}
	if err := l.Validate(); err != nil {
		return nil, NewConfigError("", err)
	}
	return l, nil
}

func (c *Config) applyDefaults() {
	if c.HeaderRows == nil {
		n := defaultHeaderRows
		c.HeaderRows = &n
	}
	if c.Vocabulary.Default == "" {
		c.Vocabulary.Default = string(models.StatusPending)
	}
	if len(c.Vocabulary.Tokens) == 0 {
		c.Vocabulary.Tokens = map[string]string{}
		for _, s := range models.Statuses {
			c.Vocabulary.Tokens[string(s)] = string(s)
		}
	}
	for i := range c.Fields {
		if c.Fields[i].Kind == "" {
			c.Fields[i].Kind = string(mapper.FieldText)
		}
	}
}

func (c *Config) normalize() {
	c.StatusColumn = strings.ToUpper(strings.TrimSpace(c.StatusColumn))
	c.LabelColumn = strings.ToUpper(strings.TrimSpace(c.LabelColumn))
	for i := range c.Fields {
		c.Fields[i].Name = strings.TrimSpace(c.Fields[i].Name)
		c.Fields[i].Column = strings.ToUpper(strings.TrimSpace(c.Fields[i].Column))
		c.Fields[i].Kind = strings.ToLower(strings.TrimSpace(c.Fields[i].Kind))
	}
	c.Vocabulary.Default = strings.ToLower(strings.TrimSpace(c.Vocabulary.Default))
	c.DateFormat = strings.TrimSpace(c.DateFormat)
}

func (c *Config) validate() error {
	if *c.HeaderRows < 0 {
		return NewConfigError("header_rows", fmt.Errorf("must be >= 0, got %d", *c.HeaderRows))
	}
	if c.StatusColumn == "" {
		return NewConfigError("status_column", errors.New("is required"))
	}
	if c.LabelColumn == "" {
		return NewConfigError("label_column", errors.New("is required"))
	}
	_, err := c.Layout()
	return err
}

func (v VocabularyConfig) build() (*mapper.Vocabulary, error) {
	def, ok := models.ParseStatus(v.Default)
	if !ok {
		return nil, fmt.Errorf("%w: default %q", mapper.ErrUnknownStatus, v.Default)
	}

	encode := make(map[models.Status]string, len(v.Tokens))
	for name, token := range v.Tokens {
		s, ok := models.ParseStatus(name)
		if !ok {
			return nil, fmt.Errorf("%w: tokens.%s", mapper.ErrUnknownStatus, name)
		}
		encode[s] = token
	}
	if len(v.Aliases) == 0 {
		return mapper.NewVocabulary(encode, nil, def)
	}

	decode := map[string]models.Status{}
	for _, s := range models.Statuses {
		token := strings.TrimSpace(encode[s])
		if _, taken := decode[token]; !taken && token != "" {
			decode[token] = s
		}
	}
	aliases := make([]string, 0, len(v.Aliases))
	for token := range v.Aliases {
		aliases = append(aliases, token)
	}
	sort.Strings(aliases)
	for _, token := range aliases {
		s, ok := models.ParseStatus(v.Aliases[token])
		if !ok {
			return nil, fmt.Errorf("%w: aliases.%s", mapper.ErrUnknownStatus, token)
		}
		decode[token] = s
	}
	return mapper.NewVocabulary(encode, decode, def)
}

// FromLayout describes a mapper layout as a configuration.
func FromLayout(l *mapper.Layout) *Config {
	headerRows := l.HeaderRowOffset + 1
	c := &Config{
		HeaderRows:   &headerRows,
		StatusColumn: columnName(l.StatusColumn),
		LabelColumn:  columnName(l.LabelColumn),
		DisplayDate:  l.DisplayLayout,
		DateFormat:   formatString(l.DateFormat),
		Vocabulary: VocabularyConfig{
			Default: string(l.Vocabulary.Default()),
			Tokens:  map[string]string{},
		},
	}
	encode := l.Vocabulary.EncodeTable()
	for s, token := range encode {
		c.Vocabulary.Tokens[string(s)] = token
	}
	derived := map[string]models.Status{}
	for _, s := range models.Statuses {
		if _, taken := derived[encode[s]]; !taken {
			derived[encode[s]] = s
		}
	}
	for token, s := range l.Vocabulary.DecodeTable() {
		if derived[token] == s {
			continue
		}
		if c.Vocabulary.Aliases == nil {
			c.Vocabulary.Aliases = map[string]string{}
		}
		c.Vocabulary.Aliases[token] = string(s)
	}
	for _, f := range l.Fields {
		c.Fields = append(c.Fields, FieldConfig{Name: f.Name, Column: columnName(f.Column), Kind: string(f.Kind)})
	}
	return c
}

func columnIndex(field, name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0, NewConfigError(field, err)
	}
	return n - 1, nil
}

func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return ""
	}
	return name
}

func parseNumFormat(s string) (models.NumFormat, error) {
	if s == "" {
		return models.NumFormat{}, nil
	}
	if id, err := strconv.Atoi(s); err == nil {
		if id < 1 || id > 163 {
			return models.NumFormat{}, fmt.Errorf("built-in format id %d out of range", id)
		}
		return models.NumFormat{ID: id}, nil
	}
	return models.NumFormat{Code: s}, nil
}

func formatString(f models.NumFormat) string {
	if f.ID != 0 {
		return strconv.Itoa(f.ID)
	}
	return f.Code
}
