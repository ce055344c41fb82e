package main

import (
	"errors"
	"fmt"

	j "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/reoring/babik"
	"github.com/reoring/babik/codec"
	js "github.com/reoring/babik/jsonschema"
)

func (a *app) shapesCmd() *cobra.Command {
	var withSchema bool
	cmd := &cobra.Command{
		Use:   "shapes",
		Short: "List the registered shapes and their attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model()
			if err != nil {
				return err
			}
			reg := m.Registry()
			if withSchema {
				out := make(map[string]*js.Schema, reg.Len())
				for _, d := range reg.Discriminators() {
					s, _ := reg.Resolve(d)
					sch, err := s.JSONSchema(m.Options().TypeKey)
					if err != nil {
						return err
					}
					out[d] = sch
				}
				return a.printJSON(out)
			}
			for _, d := range reg.Discriminators() {
				s, _ := reg.Resolve(d)
				fmt.Fprintf(a.out, "%s\n", d)
				for _, f := range s.Fields() {
					fmt.Fprintf(a.out, "  %-20s %-20s stored as %s\n", f.Name(), f.Kind(), f.StorageKey())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSchema, "json-schema", false, "print a JSON Schema per shape")
	return cmd
}

// report prints validation failures as {"errors": {field: [messages]}}.
func (a *app) report(err error) error {
	var agg *babik.AggregatedValidationError
	if errors.As(err, &agg) {
		if perr := a.printJSON(map[string]any{"errors": agg.Fields()}); perr != nil {
			return perr
		}
		return fmt.Errorf("%d field(s) failed validation", len(agg.FieldNames()))
	}
	var ve *babik.ValidationError
	if errors.As(err, &ve) {
		if perr := a.printJSON(map[string]any{"errors": map[string][]string{ve.Field: ve.Messages()}}); perr != nil {
			return perr
		}
		return fmt.Errorf("field %q failed validation", ve.Field)
	}
	return err
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a JSON record without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model()
			if err != nil {
				return err
			}
			values, err := readValues(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			rec, err := m.NewFrom(values)
			if err != nil {
				return a.report(err)
			}
			if err := rec.Validate(cmd.Context()); err != nil {
				return a.report(err)
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		},
	}
}

func (a *app) putCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "put FILE",
		Short: "Validate a JSON record and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model()
			if err != nil {
				return err
			}
			values, err := readValues(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			defer st.Close()

			var rec *babik.Record
			if id != "" {
				if rec, err = m.Load(cmd.Context(), st, id); err != nil {
					return err
				}
				// Assign the discriminator first so attributes resolve against
				// the final shape.
				if v, ok := values[m.Options().DiscriminatorField]; ok {
					if err := rec.Set(m.Options().DiscriminatorField, v); err != nil {
						return a.report(err)
					}
					delete(values, m.Options().DiscriminatorField)
				}
				for k, v := range values {
					if err := rec.Set(k, v); err != nil {
						return a.report(err)
					}
				}
			} else if rec, err = m.NewFrom(values); err != nil {
				return a.report(err)
			}
			saved, err := rec.Save(cmd.Context(), st)
			if err != nil {
				return a.report(err)
			}
			fmt.Fprintln(a.out, saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "update the record with this id")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print a stored record with its shape attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model()
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			defer st.Close()
			rec, err := m.Load(cmd.Context(), st, args[0])
			if err != nil {
				return err
			}
			values, err := rec.Values()
			if err != nil {
				return err
			}
			return a.printJSON(map[string]any{"id": rec.ID(), "values": display(values)})
		},
	}
}

// display renders decimals as exact JSON numbers, keeping their scale.
func display(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if d, ok := v.(decimal.Decimal); ok {
			v = j.Number(codec.DecimalLiteral(d))
		}
		out[k] = v
	}
	return out
}

func (a *app) listCmd() *cobra.Command {
	var disc string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored record ids, optionally for one discriminator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store()
			if err != nil {
				return err
			}
			defer st.Close()
			raws, err := st.List(cmd.Context(), disc)
			if err != nil {
				return err
			}
			for _, r := range raws {
				fmt.Fprintf(a.out, "%s\t%s\n", r.ID, r.Discriminator)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&disc, "type", "", "only records with this discriminator")
	return cmd
}
