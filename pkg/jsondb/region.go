package jsondb

import (
	"errors"
	"fmt"
	"strings"
)

// Region identifies one partition of the JSON feed.
type Region int

// Known regions, in canonical order.
const (
	GB Region = iota + 1
	JP
	KR
	TW
	US
)

// regionCodes is the explicit code table; its order is the iteration order.
var regionCodes = []struct {
	region Region
	code   string
}{
	{GB, "GB"},
	{JP, "JP"},
	{KR, "KR"},
	{TW, "TW"},
	{US, "US"},
}

// ErrUnknownRegion is returned for codes or values outside the known set.
var ErrUnknownRegion = errors.New("unknown region")

// Regions returns every known region in canonical order.
func Regions() []Region {
	out := make([]Region, 0, len(regionCodes))
	for _, rc := range regionCodes {
		out = append(out, rc.region)
	}
	return out
}

// String returns the canonical short code used for display and endpoints.
func (r Region) String() string {
	for _, rc := range regionCodes {
		if rc.region == r {
			return rc.code
		}
	}
	return fmt.Sprintf("Region(%d)", int(r))
}

// Valid reports whether r is one of the known regions.
func (r Region) Valid() bool {
	for _, rc := range regionCodes {
		if rc.region == r {
			return true
		}
	}
	return false
}

// ParseRegion maps a short code (case-insensitive) to its Region.
func ParseRegion(code string) (Region, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	for _, rc := range regionCodes {
		if rc.code == normalized {
			return rc.region, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownRegion, code)
}
