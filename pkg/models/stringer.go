package models

// String methods for custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// FindingKind
func (k FindingKind) String() string { return string(k) }
