package graph

// Validity is one of the three states a cached node may be in.
type Validity int

const (
	// Valid means the cached value is current and safe to return as-is.
	Valid Validity = iota
	// WeaklyInvalid means some transitive dependency changed; the cached
	// value might still be correct but direct dependencies must be probed
	// before it can be used.
	WeaklyInvalid
	// StronglyInvalid means a direct dependency changed, or the node was
	// externally invalidated, or removed; it must be recomputed. Missing
	// nodes also read as StronglyInvalid.
	StronglyInvalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case WeaklyInvalid:
		return "weakly_invalid"
	case StronglyInvalid:
		return "strongly_invalid"
	default:
		return "unknown"
	}
}

// dominates reports whether v is at least as strong as other on the
// invalidity lattice STRONG > WEAK > VALID. Used so invalidate/notifyChanged
// never downgrade an existing STRONG to WEAK.
func (v Validity) dominates(other Validity) bool {
	return v >= other
}

// weaken returns the validity obtained by demoting Valid to WeaklyInvalid,
// leaving an already-invalid state untouched (propagation to further
// transitive dependents never goes stronger than WEAK).
func weaken(v Validity) Validity {
	if v == Valid {
		return WeaklyInvalid
	}
	return v
}
