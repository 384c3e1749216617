package service

import (
	"strings"

	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/spf13/cast"
)

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldImage
	FieldNumber
	FieldBool
)

type FieldSpec struct {
	Name    string
	Kind    FieldKind
	Default any
}

// FieldSchema declares the custom field block attached to one content type.
// Declared fields are always present on a normalized record, undeclared
// fields of the block are merged as they are.
type FieldSchema struct {
	Block  string
	Fields []FieldSpec
}

func DefaultSchemas() map[string]FieldSchema {
	return map[string]FieldSchema{
		"Page": {
			Block: "pocetnastranafields",
			Fields: []FieldSpec{
				{Name: "heroImage", Kind: FieldImage},
				{Name: "heroTitle", Kind: FieldText},
				{Name: "heroText", Kind: FieldText},
			},
		},
	}
}

// Normalizer maps raw content-graph nodes onto vo.PageRecord. It accepts both
// the raw wrapped shape and the JSON form of an already normalized record, so
// normalizing its own output is a no-op.
type Normalizer struct {
	schemas map[string]FieldSchema
}

func NewNormalizer(schemas map[string]FieldSchema) *Normalizer {
	if schemas == nil {
		schemas = DefaultSchemas()
	}
	return &Normalizer{schemas: schemas}
}

func (n *Normalizer) Normalize(raw map[string]any) vo.PageRecord {
	contentType := str(raw["__typename"])
	if contentType == "" {
		contentType = str(raw["contentType"])
	}
	page := vo.PageRecord{
		ID:           str(raw["id"]),
		ContentType:  contentType,
		URI:          NormalizeURI(str(raw["uri"])),
		Slug:         str(raw["slug"]),
		Title:        str(raw["title"]),
		Date:         str(raw["date"]),
		Excerpt:      str(raw["excerpt"]),
		Content:      str(raw["content"]),
		Parent:       pageRef(raw["parent"]),
		Children:     pageRefs(raw["children"]),
		MenuOrder:    cast.ToFloat64(raw["menuOrder"]),
		CustomFields: n.customFields(contentType, raw),
	}
	if u := str(raw["featuredImageUrl"]); u != "" {
		page.FeaturedImageURL = u
	} else {
		page.FeaturedImageURL = imageURL(raw["featuredImage"])
	}
	if seo, ok := asMap(raw["seo"]); ok {
		page.SEO = seoFromRaw(seo)
	}
	return page
}

func (n *Normalizer) customFields(contentType string, raw map[string]any) map[string]any {
	fields := map[string]any{}
	if existing, ok := asMap(raw["customFields"]); ok {
		for k, v := range existing {
			fields[k] = v
		}
	}
	schema, ok := n.schemas[contentType]
	if !ok {
		return fields
	}
	if block, ok := asMap(raw[schema.Block]); ok {
		for k, v := range block {
			fields[k] = v
		}
	}
	for _, spec := range schema.Fields {
		v, present := fields[spec.Name]
		if !present || v == nil {
			fields[spec.Name] = spec.zero()
			continue
		}
		switch spec.Kind {
		case FieldImage:
			fields[spec.Name] = imageURL(v)
		case FieldNumber:
			fields[spec.Name] = cast.ToFloat64(v)
		case FieldBool:
			fields[spec.Name] = cast.ToBool(v)
		default:
			fields[spec.Name] = str(v)
		}
	}
	return fields
}

func (spec FieldSpec) zero() any {
	if spec.Default != nil {
		return spec.Default
	}
	switch spec.Kind {
	case FieldNumber:
		return float64(0)
	case FieldBool:
		return false
	default:
		return ""
	}
}

// NormalizeURI enforces a leading and a trailing slash.
func NormalizeURI(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	if !strings.HasSuffix(uri, "/") {
		uri += "/"
	}
	return uri
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case vo.RawNode:
		return m, m != nil
	}
	return nil, false
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	case []vo.RawNode:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	}
	return nil
}

// unwrap resolves the single item {node: {...}} wrapper.
func unwrap(v any) (map[string]any, bool) {
	m, ok := asMap(v)
	if !ok {
		return nil, false
	}
	if inner, ok := asMap(m["node"]); ok {
		return inner, true
	}
	if _, wrapped := m["node"]; wrapped {
		return nil, false
	}
	return m, true
}

func pageRef(v any) *vo.PageRef {
	m, ok := unwrap(v)
	if !ok || str(m["id"]) == "" {
		return nil
	}
	return &vo.PageRef{
		ID:    str(m["id"]),
		URI:   NormalizeURI(str(m["uri"])),
		Title: str(m["title"]),
		Slug:  str(m["slug"]),
	}
}

// pageRefs flattens {edges: [{node}]}, {nodes: [...]} or a plain list.
func pageRefs(v any) []vo.PageRef {
	refs := []vo.PageRef{}
	var items []any
	if m, ok := asMap(v); ok {
		if edges := asSlice(m["edges"]); edges != nil {
			items = edges
		} else {
			items = asSlice(m["nodes"])
		}
	} else {
		items = asSlice(v)
	}
	for _, item := range items {
		if ref := pageRef(item); ref != nil {
			refs = append(refs, *ref)
		}
	}
	return refs
}

// imageURL resolves an image given as a URL, {sourceUrl} or {node: {sourceUrl}}.
func imageURL(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	m, ok := unwrap(v)
	if !ok {
		return ""
	}
	if u := str(m["sourceUrl"]); u != "" {
		return u
	}
	return str(m["url"])
}
