package service

import (
	"strings"

	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/spf13/cast"
)

// seoFromRaw reads either the SEO extension's flat field set or the
// normalized vo.SEO form.
func seoFromRaw(m map[string]any) *vo.SEO {
	if m == nil {
		return &vo.SEO{}
	}
	if _, normalized := m["og"]; normalized {
		return normalizedSEO(m)
	}
	return &vo.SEO{
		MetaTitle:   str(m["title"]),
		Description: str(m["metaDesc"]),
		ReadingTime: cast.ToFloat64(m["readingTime"]),
		Canonical:   str(m["canonical"]),
		OpenGraph: vo.OpenGraph{
			Author:        str(m["opengraphAuthor"]),
			Description:   str(m["opengraphDescription"]),
			Image:         imageURL(m["opengraphImage"]),
			ModifiedTime:  str(m["opengraphModifiedTime"]),
			PublishedTime: str(m["opengraphPublishedTime"]),
			Publisher:     str(m["opengraphPublisher"]),
			Title:         str(m["opengraphTitle"]),
			Type:          str(m["opengraphType"]),
		},
		Robots: vo.Robots{
			NoIndex:  robotsFlag(m["metaRobotsNoindex"], "noindex"),
			NoFollow: robotsFlag(m["metaRobotsNofollow"], "nofollow"),
		},
		Twitter: vo.Twitter{
			Description: str(m["twitterDescription"]),
			Image:       imageURL(m["twitterImage"]),
			Title:       str(m["twitterTitle"]),
		},
	}
}

func normalizedSEO(m map[string]any) *vo.SEO {
	og, _ := asMap(m["og"])
	robots, _ := asMap(m["robots"])
	twitter, _ := asMap(m["twitter"])
	return &vo.SEO{
		MetaTitle:   str(m["metaTitle"]),
		Description: str(m["description"]),
		ReadingTime: cast.ToFloat64(m["readingTime"]),
		Canonical:   str(m["canonical"]),
		OpenGraph: vo.OpenGraph{
			Author:        str(og["author"]),
			Description:   str(og["description"]),
			Image:         imageURL(og["image"]),
			ModifiedTime:  str(og["modifiedTime"]),
			PublishedTime: str(og["publishedTime"]),
			Publisher:     str(og["publisher"]),
			Title:         str(og["title"]),
			Type:          str(og["type"]),
		},
		Robots: vo.Robots{
			NoIndex:  cast.ToBool(robots["noindex"]),
			NoFollow: cast.ToBool(robots["nofollow"]),
		},
		Twitter: vo.Twitter{
			Description: str(twitter["description"]),
			Image:       imageURL(twitter["image"]),
			Title:       str(twitter["title"]),
		},
	}
}

// robotsFlag accepts booleans, "0"/"1" and the directive words the SEO
// extension emits ("noindex" / "index").
func robotsFlag(v any, directive string) bool {
	if s, ok := v.(string); ok {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == directive {
			return true
		}
		b, err := cast.ToBoolE(s)
		return err == nil && b
	}
	return cast.ToBool(v)
}

// mergeSEO sets the SEO block on page, dropping a canonical URL that still
// points at the content store host.
func mergeSEO(page *vo.PageRecord, raw map[string]any, apiHost string) {
	seo := seoFromRaw(raw)
	if apiHost != "" && strings.Contains(seo.Canonical, apiHost) {
		seo.Canonical = ""
	}
	page.SEO = seo
}
