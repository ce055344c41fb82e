package babik

import (
	"reflect"

	"github.com/shopspring/decimal"
)

// Attrs is the schemaless side-store of a record: an insertion-ordered
// mapping from attribute name to value. Setting an existing key keeps its
// position.
type Attrs struct {
	keys []string
	vals map[string]any
}

// NewAttrs returns an empty blob.
func NewAttrs() *Attrs { return &Attrs{vals: map[string]any{}} }

// AttrsOf builds a blob from keys and values given as alternating pairs.
// Non-string keys are ignored.
func AttrsOf(kv ...any) *Attrs {
	a := NewAttrs()
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			a.Set(k, kv[i+1])
		}
	}
	return a
}

func (a *Attrs) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.vals[key]
	return v, ok
}

func (a *Attrs) Set(key string, v any) {
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = v
}

// Delete removes key and reports whether it was present.
func (a *Attrs) Delete(key string) bool {
	if _, ok := a.vals[key]; !ok {
		return false
	}
	delete(a.vals, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i:i], a.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Clone returns a shallow copy; nested values are shared.
func (a *Attrs) Clone() *Attrs {
	if a == nil {
		return nil
	}
	out := &Attrs{keys: append([]string(nil), a.keys...), vals: make(map[string]any, len(a.vals))}
	for k, v := range a.vals {
		out.vals[k] = v
	}
	return out
}

// Map returns an unordered copy of the blob.
func (a *Attrs) Map() map[string]any {
	if a == nil {
		return nil
	}
	out := make(map[string]any, len(a.vals))
	for k, v := range a.vals {
		out[k] = v
	}
	return out
}

// Equal reports whether both blobs hold the same keys in the same order with
// equal values. Decimals must match in coefficient and exponent, so 1.10 and
// 1.1 differ.
func (a *Attrs) Equal(b *Attrs) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a == nil || b == nil {
		return a == b || a.Len() == 0
	}
	for i, k := range a.keys {
		if b.keys[i] != k {
			return false
		}
		if !ValuesEqual(a.vals[k], b.vals[k]) {
			return false
		}
	}
	return true
}

// ValuesEqual compares two attribute values, treating decimals by exact
// representation.
func ValuesEqual(x, y any) bool {
	dx, okx := x.(decimal.Decimal)
	dy, oky := y.(decimal.Decimal)
	if okx || oky {
		return okx && oky && dx.Exponent() == dy.Exponent() && dx.Coefficient().Cmp(dy.Coefficient()) == 0
	}
	switch tx := x.(type) {
	case map[string]any:
		ty, ok := y.(map[string]any)
		if !ok || len(tx) != len(ty) {
			return false
		}
		for k, v := range tx {
			w, ok := ty[k]
			if !ok || !ValuesEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		ty, ok := y.([]any)
		if !ok || len(tx) != len(ty) {
			return false
		}
		for i := range tx {
			if !ValuesEqual(tx[i], ty[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(x, y)
}
