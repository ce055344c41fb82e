package main

import (
	"fmt"
	"io"
	"os"

	j "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/babik"
	"github.com/reoring/babik/codec"
	"github.com/reoring/babik/internal/config"
	"github.com/reoring/babik/store/sqlite"
	"github.com/reoring/babik/yamlschema"
)

// app carries the settings resolved from the environment and flags.
type app struct {
	cfg    config.Config
	out    io.Writer
	errOut io.Writer
	logger zerolog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	var (
		schema, db, level string
	)
	root := &cobra.Command{
		Use:   "babik",
		Short: "Store records whose attributes depend on a discriminator",
		Long: `babik validates and stores records described by a YAML model.

Environment:
  BABIK_SCHEMA       model definition (YAML)
  BABIK_DB_PATH      SQLite database path (default babik.db)
  BABIK_LOG_LEVEL    zerolog level (default info)
  BABIK_LOG_FORMAT   console | json
  BABIK_NUMBER_MODE  json | decimal | float64

Examples:
  babik shapes --schema catalog.yaml
  babik validate record.json
  babik put record.json
  babik get 3f1c...`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("schema") {
				cfg.SchemaPath = schema
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = db
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = level
			}
			a.cfg = cfg
			a.logger = cfg.Logger(a.errOut)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&schema, "schema", "", "model definition file (overrides BABIK_SCHEMA)")
	root.PersistentFlags().StringVar(&db, "db", "", "SQLite database path (overrides BABIK_DB_PATH)")
	root.PersistentFlags().StringVar(&level, "log-level", "", "log level (overrides BABIK_LOG_LEVEL)")

	root.AddCommand(a.shapesCmd(), a.validateCmd(), a.putCmd(), a.getCmd(), a.listCmd())
	return root
}

func (a *app) model() (*babik.Model, error) {
	if a.cfg.SchemaPath == "" {
		return nil, fmt.Errorf("no model definition: set --schema or BABIK_SCHEMA")
	}
	mode, err := a.cfg.Numbers()
	if err != nil {
		return nil, err
	}
	return yamlschema.Load(a.cfg.SchemaPath, babik.Options{
		Codec:  codec.JSON(codec.WithNumberMode(mode)),
		Logger: &a.logger,
	})
}

func (a *app) store() (*sqlite.Store, error) {
	return sqlite.Open(a.cfg.DBPath, sqlite.WithLogger(a.logger))
}

func (a *app) printJSON(v any) error {
	b, err := j.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

// readValues reads a flat JSON object of field values from path ("-" for
// stdin).
func readValues(path string, stdin io.Reader) (map[string]any, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	dec := j.NewDecoder(r)
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}
