package babik

import (
	"context"
	"errors"
)

// cleanValue runs one spec over raw: blank values are skipped when the spec
// allows them, everything else is coerced and then validated.
func cleanValue(ctx context.Context, spec FieldSpec, raw any) (any, error) {
	if spec.IsBlank(raw) && spec.AllowBlank() {
		return raw, nil
	}
	v, err := spec.Coerce(raw)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// cleaned is the outcome of a successful clean pass. Nothing is written back
// to the record until the store has accepted the commit.
type cleaned struct {
	values map[string]any
	attrs  *Attrs
	shape  *Shape
}

// clean validates every ordinary field and every attribute of the active
// shape, in declaration order, collecting all failures.
func (m *Model) clean(ctx context.Context, r *Record) (*cleaned, error) {
	var iss Issues
	out := &cleaned{values: make(map[string]any, len(r.values))}
	for k, v := range r.values {
		out.values[k] = v
	}
	for _, f := range m.ordinary {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, ok := r.values[f.Name()]
		if !ok {
			raw = f.Empty()
		}
		v, err := cleanValue(ctx, f, raw)
		if err != nil {
			if ctxErr := ctxError(err); ctxErr != nil {
				return nil, ctxErr
			}
			iss = AppendIssues(iss, rebaseIssues(err, f.Name())...)
			continue
		}
		if ok || !f.IsBlank(v) {
			out.values[f.Name()] = v
		}
	}

	if r.attrs == nil {
		return nil, r.notLoaded(m.opts.AttrsField)
	}
	out.attrs = r.attrs.Clone()
	shape, active := m.opts.Registry.Resolve(r.desc.discriminator())
	if active {
		out.shape = shape
		for _, f := range shape.fields {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			raw, ok := r.attrs.Get(f.StorageKey())
			if !ok {
				raw = f.Empty()
			}
			v, err := cleanValue(ctx, f, raw)
			if err != nil {
				if ctxErr := ctxError(err); ctxErr != nil {
					return nil, ctxErr
				}
				iss = AppendIssues(iss, rebaseIssues(err, f.Name())...)
				continue
			}
			if ok {
				out.attrs.Set(f.StorageKey(), v)
			}
		}
	}
	if len(iss) > 0 {
		return nil, &AggregatedValidationError{Issues: iss}
	}

	if d, ok := r.values[m.opts.DiscriminatorField]; ok {
		out.attrs.Set(m.opts.TypeKey, d)
	} else {
		out.attrs.Delete(m.opts.TypeKey)
	}
	return out, nil
}

func ctxError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
