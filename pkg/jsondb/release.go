package jsondb

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/JakeFAU/ctr-titledb/pkg/fetcherr"
)

// Source names this feed in errors, logs, and metrics.
const Source = "json"

// Release is one title from the JSON feed. All fields are kept as strings.
type Release struct {
	Name        string `json:"name"`
	UID         string `json:"uid"`
	TitleID     string `json:"title_id"`
	Version     string `json:"version"`
	Size        string `json:"size"`
	ProductCode string `json:"product_code"`
	Publisher   string `json:"publisher"`
}

// TitleKey returns the title identifier used for indexing.
func (r Release) TitleKey() string {
	return r.TitleID
}

// Field maps one Release field to its wire name.
type Field struct {
	// Name is the canonical field name, also accepted on the wire.
	Name string
	// Alias is the name used by the published feed.
	Alias string
	set   func(*Release, string)
}

var fields = []Field{
	{Name: "name", Alias: "Name", set: func(r *Release, v string) { r.Name = v }},
	{Name: "uid", Alias: "UID", set: func(r *Release, v string) { r.UID = v }},
	{Name: "title_id", Alias: "TitleID", set: func(r *Release, v string) { r.TitleID = v }},
	{Name: "version", Alias: "Version", set: func(r *Release, v string) { r.Version = v }},
	{Name: "size", Alias: "Size", set: func(r *Release, v string) { r.Size = v }},
	{Name: "product_code", Alias: "Product Code", set: func(r *Release, v string) { r.ProductCode = v }},
	{Name: "publisher", Alias: "Publisher", set: func(r *Release, v string) { r.Publisher = v }},
}

// Fields returns the alias table used by Decode.
func Fields() []Field {
	return slices.Clone(fields)
}

// Decode maps a JSON array onto releases. Failures are decode-class
// fetcherr errors.
func Decode(body []byte) ([]Release, error) {
	releases, err := decode(body)
	if err != nil {
		return nil, fetcherr.Decode(Source, "", err)
	}
	return releases, nil
}

func decode(body []byte) ([]Release, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON document")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a JSON array at the root, got %s", root.Type)
	}

	items := root.Array()
	releases := make([]Release, 0, len(items))
	for i, item := range items {
		release, err := decodeRelease(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		releases = append(releases, release)
	}
	return releases, nil
}

func decodeRelease(item gjson.Result) (Release, error) {
	if !item.IsObject() {
		return Release{}, fmt.Errorf("expected an object, got %s", item.Type)
	}
	values := item.Map()

	var release Release
	for _, f := range fields {
		v, ok := values[f.Alias]
		if !ok {
			v, ok = values[f.Name]
		}
		if !ok {
			return Release{}, fmt.Errorf("missing field %q", f.Alias)
		}
		if v.Type != gjson.String {
			return Release{}, fmt.Errorf("field %q: expected a string, got %s", f.Alias, v.Type)
		}
		f.set(&release, v.Str)
	}
	return release, nil
}
