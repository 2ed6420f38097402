// Package config loads zonemeter run configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/waterops/zonemeter"
)

// Source describes the workbook holding the daily readings.
type Source struct {
	Path         string `yaml:"path"`
	Sheet        string `yaml:"sheet"` // empty: the monthly sheet for the run's month
	HeaderRow    int    `yaml:"header_row"`
	DataStartRow int    `yaml:"data_start_row"`
	DateCol      int    `yaml:"date_col"`
}

// Target describes the workbook receiving the summary blocks.
type Target struct {
	Path             string `yaml:"path"`
	Sheet            string `yaml:"sheet"`
	Region           string `yaml:"region"` // prefix of monthly sheet names
	StyleTemplateRow int    `yaml:"style_template_row"`
	InsertAfter      int    `yaml:"insert_after"`
	Mode             string `yaml:"mode"`
}

// DayCount bounds the numbers read as day-count dates, by calendar year.
type DayCount struct {
	FromYear int `yaml:"from_year"`
	ToYear   int `yaml:"to_year"`
}

// Config is the full run configuration.
type Config struct {
	Source          Source                 `yaml:"source"`
	Target          Target                 `yaml:"target"`
	Meters          []zonemeter.MeterLabel `yaml:"meters"`
	DayCount        DayCount               `yaml:"day_count"`
	FoldWidth       bool                   `yaml:"fold_width"`
	MetricRows      []zonemeter.MetricRow  `yaml:"metric_rows"`
	MetricsTextfile string                 `yaml:"metrics_textfile"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	layout := zonemeter.DefaultSourceLayout()
	return Config{
		Source: Source{
			HeaderRow:    layout.HeaderRow,
			DataStartRow: layout.DataStartRow,
			DateCol:      layout.DateCol,
		},
		Target:   Target{Mode: string(zonemeter.ModeMetrics)},
		DayCount: DayCount{FromYear: 2009, ToYear: 2099},
	}
}

// LoadConfig loads the file named by ZONEMETER_CONFIG, if set, over the
// defaults and applies environment overrides.
func LoadConfig() (Config, error) {
	return Load(os.Getenv("ZONEMETER_CONFIG"))
}

// Load reads path (which may be empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	cfg.Source.Path = getenvDefault("ZONEMETER_SOURCE", cfg.Source.Path)
	cfg.Target.Path = getenvDefault("ZONEMETER_TARGET", cfg.Target.Path)
	cfg.Target.Sheet = getenvDefault("ZONEMETER_TARGET_SHEET", cfg.Target.Sheet)
	cfg.Target.Mode = getenvDefault("ZONEMETER_MODE", cfg.Target.Mode)
	cfg.MetricsTextfile = getenvDefault("ZONEMETER_METRICS_TEXTFILE", cfg.MetricsTextfile)
	cfg.Target.InsertAfter = getenvIntDefault("ZONEMETER_INSERT_AFTER", cfg.Target.InsertAfter)
	if len(cfg.Meters) == 0 {
		cfg.Meters = parseMeters(os.Getenv("ZONEMETER_METERS"))
	}

	return cfg, cfg.Validate()
}

// Validate reports configuration errors that would make every run fail.
func (c Config) Validate() error {
	var errs []error
	if _, err := zonemeter.ParseMode(c.Target.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.DayCount.FromYear > c.DayCount.ToYear {
		errs = append(errs, fmt.Errorf("day_count: from_year %d after to_year %d", c.DayCount.FromYear, c.DayCount.ToYear))
	}
	seen := make(map[string]bool, len(c.Meters))
	for i, m := range c.Meters {
		switch {
		case m.ID == "":
			errs = append(errs, fmt.Errorf("meters[%d]: id required", i))
		case seen[m.ID]:
			errs = append(errs, fmt.Errorf("meters[%d]: duplicate id %q", i, m.ID))
		case strings.TrimSpace(m.Label) == "":
			errs = append(errs, fmt.Errorf("meters[%d] %q: label required", i, m.ID))
		}
		seen[m.ID] = true
	}
	for i, r := range c.MetricRows {
		if err := zonemeter.CompileCheck(r.Expr); err != nil {
			errs = append(errs, fmt.Errorf("metric_rows[%d] %q: %w", i, r.Label, err))
		}
	}
	return errors.Join(errs...)
}

// Layout returns the source sheet layout.
func (c Config) Layout() zonemeter.SourceLayout {
	return zonemeter.SourceLayout{
		HeaderRow:    c.Source.HeaderRow,
		DataStartRow: c.Source.DataStartRow,
		DateCol:      c.Source.DateCol,
	}
}

// EngineOptions maps the configuration onto engine options.
func (c Config) EngineOptions() []zonemeter.Option {
	opts := []zonemeter.Option{
		zonemeter.WithSourceLayout(c.Layout()),
		zonemeter.WithResolverOptions(zonemeter.WithWidthFolding(c.FoldWidth)),
	}
	if c.DayCount.FromYear > 0 && c.DayCount.ToYear >= c.DayCount.FromYear {
		opts = append(opts, zonemeter.WithNormalizerOptions(
			zonemeter.WithSerialRange(zonemeter.SerialRangeForYears(c.DayCount.FromYear, c.DayCount.ToYear))))
	}
	if len(c.MetricRows) > 0 {
		opts = append(opts, zonemeter.WithBuilderOptions(zonemeter.WithMetricRows(c.MetricRows)))
	}
	return opts
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// parseMeters reads "id=label,id=label" pairs.
func parseMeters(value string) []zonemeter.MeterLabel {
	var out []zonemeter.MeterLabel
	for _, part := range splitCSV(value) {
		id, label, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out = append(out, zonemeter.MeterLabel{ID: strings.TrimSpace(id), Label: strings.TrimSpace(label)})
	}
	return out
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
