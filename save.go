package babik

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Validate runs the save-time pass on r without touching storage. It
// returns an *AggregatedValidationError listing every failing field, or
// ErrNotLoaded when the blob is unavailable.
func (m *Model) Validate(ctx context.Context, r *Record) error {
	if err := m.owns(r); err != nil {
		return err
	}
	_, err := m.clean(ctx, r)
	return err
}

// Save validates r, encodes its blob and commits it to st. On success the
// record holds the cleaned values, its identity, and counts as persisted. On
// any failure the record is left exactly as it was.
func (m *Model) Save(ctx context.Context, r *Record, st Store) (id string, err error) {
	if err := m.owns(r); err != nil {
		return "", err
	}
	if st == nil {
		return "", errors.New("babik: save: nil store")
	}
	start := time.Now()
	shapeName := ""
	if s, ok := r.desc.ActiveShape(); ok {
		shapeName = s.Discriminator()
	}
	outcome := OutcomeFailed
	defer func() {
		m.opts.Observer.ObserveSave(shapeName, outcome, time.Since(start))
	}()

	c, err := m.clean(ctx, r)
	if err != nil {
		var agg *AggregatedValidationError
		if errors.As(err, &agg) {
			outcome = OutcomeInvalid
			m.logger.Warn().Str("id", r.id).Str("shape", shapeName).
				Strs("fields", agg.FieldNames()).Msg("record failed validation")
		}
		return "", err
	}

	encoded, err := m.opts.Codec.Encode(c.attrs)
	if err != nil {
		if !errors.Is(err, ErrEncode) {
			err = &EncodeError{Cause: err}
		}
		m.logger.Error().Err(err).Str("shape", shapeName).Msg("encode attrs")
		return "", err
	}

	disc, _ := DiscriminatorKey(c.values[m.opts.DiscriminatorField])
	id, err = st.Commit(ctx, RawRecord{
		ID:            r.id,
		Discriminator: disc,
		Fields:        c.values,
		Attrs:         encoded,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("id", r.id).Msg("commit record")
		return "", fmt.Errorf("babik: commit record: %w", err)
	}

	r.values = c.values
	r.attrs = c.attrs
	r.id = id
	r.persisted = true
	outcome = OutcomeCommitted
	m.logger.Debug().Str("id", id).Str("shape", shapeName).Int("attrs", c.attrs.Len()).Msg("record saved")
	return id, nil
}

func (m *Model) owns(r *Record) error {
	if r == nil {
		return errors.New("babik: nil record")
	}
	if r.model != m {
		return errors.New("babik: record belongs to a different model")
	}
	return nil
}
