// Package uid provides the identifier generators used by the service.
package uid

// StringID generates textual identifiers such as correlation ids and tokens.
type StringID interface {
	Generate() string
}

// NumberID generates sortable numeric identifiers for stored records.
type NumberID interface {
	Generate() int64
}
