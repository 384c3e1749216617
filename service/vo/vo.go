package vo

import (
	"maps"
	"slices"
)

type Markdown string

// RawNode is one node of a content-graph response as decoded from JSON.
type RawNode map[string]any

type QueryProfile string

const (
	QueryProfileIndex   QueryProfile = "index"   // minimal listing
	QueryProfileArchive QueryProfile = "archive" // archive listing
	QueryProfileAll     QueryProfile = "all"     // full
)

func (p QueryProfile) Valid() bool {
	switch p {
	case QueryProfileIndex, QueryProfileArchive, QueryProfileAll:
		return true
	}
	return false
}

// PageRef is a weak reference to another page, resolved by ID against the page set.
type PageRef struct {
	ID    string `json:"id"`
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

type PageRecord struct {
	ID               string         `json:"id"`
	ContentType      string         `json:"contentType,omitempty"`
	URI              string         `json:"uri"`
	Slug             string         `json:"slug,omitempty"`
	Title            string         `json:"title"`
	Date             string         `json:"date,omitempty"`
	Excerpt          string         `json:"excerpt,omitempty"`
	Content          string         `json:"content,omitempty"`
	Parent           *PageRef       `json:"parent"`
	Children         []PageRef      `json:"children"`
	MenuOrder        float64        `json:"menuOrder"`
	FeaturedImageURL string         `json:"featuredImageUrl,omitempty"`
	CustomFields     map[string]any `json:"customFields"`
	SEO              *SEO           `json:"seo,omitempty"`
}

// IsTopLevel reports whether the page has no parent.
func (p PageRecord) IsTopLevel() bool {
	return p.Parent == nil
}

// Clone returns a copy of p that shares no parent, children, custom fields or
// SEO with it. Nested custom field values are still shared.
func (p PageRecord) Clone() PageRecord {
	if p.Parent != nil {
		parent := *p.Parent
		p.Parent = &parent
	}
	p.Children = slices.Clone(p.Children)
	p.CustomFields = maps.Clone(p.CustomFields)
	if p.SEO != nil {
		seo := *p.SEO
		p.SEO = &seo
	}
	return p
}

// Ref returns a weak reference to p.
func (p PageRecord) Ref() PageRef {
	return PageRef{ID: p.ID, URI: p.URI, Title: p.Title, Slug: p.Slug}
}

type SEO struct {
	MetaTitle   string    `json:"metaTitle,omitempty"`
	Description string    `json:"description,omitempty"`
	ReadingTime float64   `json:"readingTime,omitempty"`
	Canonical   string    `json:"canonical,omitempty"`
	OpenGraph   OpenGraph `json:"og"`
	Robots      Robots    `json:"robots"`
	Twitter     Twitter   `json:"twitter"`
}

type OpenGraph struct {
	Author        string `json:"author,omitempty"`
	Description   string `json:"description,omitempty"`
	Image         string `json:"image,omitempty"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`
	PublishedTime string `json:"publishedTime,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	Title         string `json:"title,omitempty"`
	Type          string `json:"type,omitempty"`
}

type Robots struct {
	NoIndex  bool `json:"noindex"`
	NoFollow bool `json:"nofollow"`
}

type Twitter struct {
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Title       string `json:"title,omitempty"`
}

type MenuItem struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	URL      string     `json:"url"`
	Children []MenuItem `json:"children,omitempty"`
}

// Menus maps a declared menu location to its ordered items.
type Menus map[string][]MenuItem

// Menu is the item tree resolved for one location.
type Menu struct {
	Location string     `json:"location"`
	Items    []MenuItem `json:"items"`
}

type BreadcrumbEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type SearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

type SearchResult struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type LoadState int

const (
	LoadStateIdle LoadState = iota
	LoadStateLoading
	LoadStateLoaded
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStateLoading:
		return "loading"
	case LoadStateLoaded:
		return "loaded"
	case LoadStateFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s LoadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type DocumentSummary struct {
	ID    string `json:"id"`
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type Document struct {
	Page         PageRecord        `json:"page"`
	Description  string            `json:"description,omitempty"`
	Markdown     Markdown          `json:"markdown,omitempty"`
	Breadcrumbs  []BreadcrumbEntry `json:"breadcrumbs"`
	Children     []DocumentSummary `json:"children,omitempty"`
	PrevSiblings []DocumentSummary `json:"prev,omitempty"`
	NextSiblings []DocumentSummary `json:"next,omitempty"`
}
