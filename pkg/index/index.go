// Package index builds title-id lookup maps over fetched records.
//
// Duplicate keys are not errors: records are inserted in list order and a
// later record replaces an earlier one under the same key.
package index

// TitleKeyer is implemented by records that carry a title identifier.
type TitleKeyer interface {
	TitleKey() string
}

// Build maps each record under key(record), last write wins.
func Build[R any](records []R, key func(R) string) map[string]R {
	out := make(map[string]R, len(records))
	for _, r := range records {
		out[key(r)] = r
	}
	return out
}

// ByTitleID indexes records by their title identifier.
func ByTitleID[R TitleKeyer](records []R) map[string]R {
	return Build(records, func(r R) string { return r.TitleKey() })
}
