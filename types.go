package babik

// Kind is the semantic type tag of a field spec.
type Kind string

const (
	KindString            Kind = "string"
	KindText              Kind = "text"
	KindSlug              Kind = "slug"
	KindEmail             Kind = "email"
	KindURL               Kind = "url"
	KindIP                Kind = "ip"
	KindFilePath          Kind = "filepath"
	KindInt               Kind = "int"
	KindBigInt            Kind = "bigint"
	KindSmallInt          Kind = "smallint"
	KindPositiveInt       Kind = "positive_int"
	KindPositiveSmallInt  Kind = "positive_smallint"
	KindFloat             Kind = "float"
	KindDecimal           Kind = "decimal"
	KindBool              Kind = "bool"
	KindNullBool          Kind = "nullbool"
	KindCommaSeparatedInt Kind = "comma_separated_ints"
	KindTime              Kind = "time"
	KindAny               Kind = "any" // Neutral placeholder; accepts anything.
)

// Origin tells where a resolved name lives.
type Origin int

const (
	OriginOrdinary    Origin = iota // Record's own storage.
	OriginShape                     // Attribute of the active shape, stored in the attrs blob.
	OriginPlaceholder               // Unknown name on an unsaved, shapeless record.
)

func (o Origin) String() string {
	switch o {
	case OriginShape:
		return "shape"
	case OriginPlaceholder:
		return "placeholder"
	default:
		return "ordinary"
	}
}

// Outcome classifies a save attempt for observers.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeFailed    Outcome = "failed"
)
