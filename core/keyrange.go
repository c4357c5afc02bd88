package core

// KeyRange bounds an index scan. A nil bound is open on that side; an
// equality lookup sets both bounds to the same value, both inclusive.
type KeyRange struct {
	Low           any
	High          any
	LowInclusive  bool
	HighInclusive bool
}

// EqualityRange builds the key range for an exact-match lookup.
func EqualityRange(value any) KeyRange {
	return KeyRange{Low: value, High: value, LowInclusive: true, HighInclusive: true}
}

// IsEquality reports whether the range pins a single value.
func (kr KeyRange) IsEquality() bool {
	return kr.Low != nil && kr.High != nil &&
		kr.LowInclusive && kr.HighInclusive && kr.Low == kr.High
}
