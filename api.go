package babik

import (
	"context"
	"time"
)

// AttrsCodec converts the attrs blob to and from the single string column
// the persistence collaborator stores. Implementations must round-trip
// arbitrary-precision decimals exactly, return *EncodeError when a value
// cannot be represented, and *DecodeError on malformed input.
type AttrsCodec interface {
	Encode(a *Attrs) (string, error)
	Decode(s string) (*Attrs, error)
}

// RawRecord is the storage-level form of a record exchanged with a Store.
type RawRecord struct {
	ID string
	// Discriminator is the canonical string form of the discriminator, ""
	// when unset. Stores may index on it.
	Discriminator string
	// Fields holds ordinary field values, including the discriminator.
	Fields map[string]any
	// Attrs is the codec-encoded attrs blob.
	Attrs string
	// AttrsDeferred marks a record loaded without its attrs column; shape
	// attributes of the materialized record fail with ErrNotLoaded.
	AttrsDeferred bool
}

// Store is the persistence collaborator. Commit receives fully validated,
// blob-synchronized records and returns the identity assigned to them.
// Load returns an error wrapping ErrNotFound for unknown identities.
type Store interface {
	Commit(ctx context.Context, raw RawRecord) (string, error)
	Load(ctx context.Context, id string) (RawRecord, error)
}

// Observer receives one notification per save attempt. shape is the
// discriminator of the active shape ("" when none).
type Observer interface {
	ObserveSave(shape string, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveSave(string, Outcome, time.Duration) {}
