package records

// Kind is the Redis shape backing a stream.
type Kind int

const (
	// List streams are append-only Redis lists of delimited strings.
	List Kind = iota
	// Hash streams are a single aggregate hash; the field is the record identity.
	Hash
	// Namespace streams keep one hash per record under a shared key prefix.
	Namespace
)

func (k Kind) String() string {
	switch k {
	case List:
		return "list"
	case Hash:
		return "hash"
	case Namespace:
		return "namespace"
	}
	return "unknown"
}

// Stream names one independently managed sequence or set of records.
type Stream struct {
	Name   string
	Key    string // list/hash key, or key prefix for namespaces
	Kind   Kind
	Schema Schema
}

// Entry is one stored record as returned by a scan. Raw is the literal
// identity used for deletion: the list element, the hash field, or the
// namespace key.
type Entry struct {
	Raw    string
	Value  []byte
	Fields map[string]string
}

// DeleteMode picks how many equal list elements DeleteExact removes.
type DeleteMode int

const (
	DeleteFirst DeleteMode = iota
	DeleteAll
)

// DecodePolicy decides what a scan does with records that do not fit.
type DecodePolicy int

const (
	// SkipMalformed drops bad records and counts them.
	SkipMalformed DecodePolicy = iota
	// FailMalformed aborts the read with ErrMalformed.
	FailMalformed
)

// ParsePolicy maps a config string onto a policy; unknown values skip.
func ParsePolicy(s string) DecodePolicy {
	if s == "strict" || s == "fail" {
		return FailMalformed
	}
	return SkipMalformed
}
