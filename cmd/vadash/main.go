package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/haakonRefsvik/VA-student-performance/config"
	"github.com/haakonRefsvik/VA-student-performance/engine"
	"github.com/haakonRefsvik/VA-student-performance/helpers"
	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// ============================================================================
// VADASH CLI — Coordinated selection dashboards for student performance
// ============================================================================

const version = "0.3.0"

// Global flags
var (
	configPath string
	dataPath   string
	variant    string
	format     string
)

var rootCmd = &cobra.Command{
	Use:   "vadash",
	Short: "Linked-view selection engine for student-performance dashboards",
	Long: `vadash serves the coordinated selection engine behind the student
performance dashboards: brushing a chart narrows every other chart.

Examples:
  vadash serve --config vadash.yaml
  vadash replay --data student-mat.csv --events session.jsonl
  vadash discover --data student-mat.csv --format json`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./vadash.{yaml,json})")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "student CSV (overrides dataset.path)")
	rootCmd.PersistentFlags().StringVar(&variant, "variant", "", "built-in dashboard variant (overrides dashboard.variant)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(serveCmd, replayCmd, discoverCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// ============================================================================
// BOOTSTRAP
// ============================================================================

type app struct {
	cfg       config.Cfg
	log       *logrus.Logger
	table     *engine.Table
	schema    *schema.Config
	dashboard *schema.Dashboard
}

// bootstrap loads config, logger, dataset, schema and dashboard in that order.
func bootstrap() (*app, error) {
	boot := logrus.New()
	cfg, err := config.Load(configPath, boot)
	if err != nil {
		return nil, err
	}
	if dataPath != "" {
		cfg.Dataset.Path = dataPath
	}
	if variant != "" {
		cfg.Dashboard.Variant = variant
		cfg.Dashboard.Inline = nil
	}

	log, err := helpers.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}

	var enc helpers.Encodings
	if cfg.Dataset.EncodeBinary {
		enc = helpers.StudentEncodings
	}
	raw, err := helpers.LoadCSVFile(cfg.Dataset.Path, enc)
	if err != nil {
		return nil, err
	}
	tab, err := engine.NewTable(raw)
	if err != nil {
		return nil, err
	}

	dash, err := cfg.ResolveDashboard()
	if err != nil {
		return nil, errors.Wrap(err, "dashboard")
	}

	opt := schema.DefaultDiscoverOptions()
	opt.EmbeddingColumns = []string{dash.EmbeddingX, dash.EmbeddingY}
	opt.Source = cfg.Dataset.Path
	sch, err := schema.DiscoverFromTable(tab.Source(), opt)
	if err != nil {
		return nil, errors.Wrap(err, "schema discovery")
	}
	if !cfg.Schema.Empty() {
		if sch, err = schema.Refine(sch, cfg.Schema); err != nil {
			return nil, errors.Wrap(err, "schema overrides")
		}
	}

	log.WithFields(logrus.Fields{
		"Dataset":   cfg.Dataset.Path,
		"Rows":      tab.Len(),
		"Columns":   len(sch.Columns),
		"Skipped":   len(sch.SkippedColumns),
		"Dashboard": dash.Name,
	}).Infoln("Dataset loaded 📊")

	return &app{cfg: cfg, log: log, table: tab, schema: sch, dashboard: dash}, nil
}

func (rt *app) sessionOptions(extra ...engine.Option) []engine.Option {
	return append([]engine.Option{
		engine.WithLogger(rt.log),
		engine.WithSchema(rt.schema),
		engine.WithCache(rt.cfg.Cache.Size, rt.cfg.Cache.TTL),
	}, extra...)
}

// write encodes v to w in the selected --format.
func write(w io.Writer, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return errors.Errorf("unknown format %q (use yaml or json)", format)
}
