package xmldb

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/JakeFAU/ctr-titledb/pkg/fetcherr"
)

// Source names this feed in errors, logs, and metrics.
const Source = "xml"

// Release is one title from the XML catalog.
type Release struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Publisher   string `json:"publisher"`
	Region      string `json:"region"`
	Languages   string `json:"languages"`
	Group       string `json:"group"`
	ImageSize   uint64 `json:"image_size"`
	Serial      string `json:"serial"`
	TitleID     string `json:"title_id"`
	ImgCRC      string `json:"img_crc"`
	Filename    string `json:"filename"`
	ReleaseName string `json:"release_name"`
	TrimmedSize uint64 `json:"trimmed_size"`
	Firmware    string `json:"firmware"`
	Type        string `json:"type"`
	Card        string `json:"card"`
}

// TitleKey returns the title identifier used for indexing.
func (r Release) TitleKey() string {
	return r.TitleID
}

// LanguageList splits the comma-delimited language codes.
func (r Release) LanguageList() []string {
	if strings.TrimSpace(r.Languages) == "" {
		return nil
	}
	parts := strings.Split(r.Languages, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Field maps one Release field to its wire name.
type Field struct {
	// Name is the canonical field name, also accepted on the wire.
	Name string
	// Alias is the element or attribute name used by the catalog.
	Alias string
	set   func(*Release, string) error
}

func text(dst func(*Release) *string) func(*Release, string) error {
	return func(r *Release, v string) error {
		*dst(r) = v
		return nil
	}
}

func unsigned(dst func(*Release) *uint64) func(*Release, string) error {
	return func(r *Release, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("expected an unsigned integer: %w", err)
		}
		*dst(r) = n
		return nil
	}
}

var fields = []Field{
	{Name: "id", Alias: "id", set: text(func(r *Release) *string { return &r.ID })},
	{Name: "name", Alias: "name", set: text(func(r *Release) *string { return &r.Name })},
	{Name: "publisher", Alias: "publisher", set: text(func(r *Release) *string { return &r.Publisher })},
	{Name: "region", Alias: "region", set: text(func(r *Release) *string { return &r.Region })},
	{Name: "languages", Alias: "languages", set: text(func(r *Release) *string { return &r.Languages })},
	{Name: "group", Alias: "group", set: text(func(r *Release) *string { return &r.Group })},
	{Name: "image_size", Alias: "imagesize", set: unsigned(func(r *Release) *uint64 { return &r.ImageSize })},
	{Name: "serial", Alias: "serial", set: text(func(r *Release) *string { return &r.Serial })},
	{Name: "title_id", Alias: "titleid", set: text(func(r *Release) *string { return &r.TitleID })},
	{Name: "img_crc", Alias: "imgcrc", set: text(func(r *Release) *string { return &r.ImgCRC })},
	{Name: "filename", Alias: "filename", set: text(func(r *Release) *string { return &r.Filename })},
	{Name: "release_name", Alias: "releasename", set: text(func(r *Release) *string { return &r.ReleaseName })},
	{Name: "trimmed_size", Alias: "trimmedsize", set: unsigned(func(r *Release) *uint64 { return &r.TrimmedSize })},
	{Name: "firmware", Alias: "firmware", set: text(func(r *Release) *string { return &r.Firmware })},
	{Name: "_type", Alias: "type", set: text(func(r *Release) *string { return &r.Type })},
	{Name: "card", Alias: "card", set: text(func(r *Release) *string { return &r.Card })},
}

// Fields returns the alias table used by Decode.
func Fields() []Field {
	return slices.Clone(fields)
}

// Decode maps every element child of the document root onto a release.
// Failures are decode-class fetcherr errors.
func Decode(body []byte) ([]Release, error) {
	releases, err := decode(body)
	if err != nil {
		return nil, fetcherr.Decode(Source, "", err)
	}
	return releases, nil
}

func decode(body []byte) ([]Release, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}
	root := firstElement(doc)
	if root == nil {
		return nil, errors.New("document has no root element")
	}

	releases := make([]Release, 0)
	i := 0
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		release, err := decodeRelease(n)
		if err != nil {
			return nil, fmt.Errorf("element %d <%s>: %w", i, n.Data, err)
		}
		releases = append(releases, release)
		i++
	}
	return releases, nil
}

func decodeRelease(n *xmlquery.Node) (Release, error) {
	var release Release
	for _, f := range fields {
		v, ok := lookup(n, f.Alias)
		if !ok && f.Name != f.Alias {
			v, ok = lookup(n, f.Name)
		}
		if !ok {
			return Release{}, fmt.Errorf("missing field %q", f.Alias)
		}
		if err := f.set(&release, v); err != nil {
			return Release{}, fmt.Errorf("field %q: %w", f.Alias, err)
		}
	}
	return release, nil
}

// lookup reads a child element's text, falling back to an attribute.
func lookup(n *xmlquery.Node, name string) (string, bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return strings.TrimSpace(c.InnerText()), true
		}
	}
	for _, attr := range n.Attr {
		if attr.Name.Local == name {
			return strings.TrimSpace(attr.Value), true
		}
	}
	return "", false
}

func firstElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}
