package domain

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// TopicRandom is resolved to one catalog topic per request.
	TopicRandom = "random"
	// TopicCustom builds prompts and the search term from a user keyword.
	TopicCustom = "custom"

	maxKeywordRunes = 50
	maxSlugRunes    = 60
)

// Topic is everything the pipeline needs to provision images for one theme.
type Topic struct {
	Name       string
	Namespace  string
	SearchTerm string
	Prompts    []string
}

// IsRotatingTopic reports whether the topic's content changes between games.
// Rotating topics never transition to completed.
func IsRotatingTopic(name string) bool {
	return name == TopicRandom || name == TopicCustom
}

// Catalog holds the fixed per-topic prompt catalogs.
type Catalog struct {
	topics map[string]Topic
}

// NewCatalog builds a catalog from topics keyed by name.
func NewCatalog(topics ...Topic) *Catalog {
	c := &Catalog{topics: make(map[string]Topic, len(topics))}
	for _, t := range topics {
		if t.Namespace == "" {
			t.Namespace = t.Name
		}
		c.topics[t.Name] = t
	}
	return c
}

// Lookup returns a catalog topic.
func (c *Catalog) Lookup(name string) (Topic, bool) {
	t, ok := c.topics[name]
	return t, ok
}

// Names returns catalog topic names in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.topics))
	for name := range c.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateKeyword trims and checks a user keyword for the custom topic.
func ValidateKeyword(raw string) (string, error) {
	kw := strings.TrimSpace(raw)
	if kw == "" {
		return "", Validationf("keyword is required for topic %q", TopicCustom)
	}
	if utf8.RuneCountInString(kw) > maxKeywordRunes {
		return "", Validationf("keyword longer than %d characters", maxKeywordRunes)
	}
	return kw, nil
}

// KeywordTopic builds the custom topic for a validated keyword.
func KeywordTopic(keyword string) Topic {
	prompts := make([]string, 0, len(keywordShots))
	for _, shot := range keywordShots {
		prompts = append(prompts, fmt.Sprintf(shot, keyword))
	}
	return Topic{
		Name:       TopicCustom,
		Namespace:  TopicCustom + "-" + Slugify(keyword),
		SearchTerm: keyword,
		Prompts:    prompts,
	}
}

// Slugify makes text safe for object keys.
func Slugify(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if utf8.RuneCountInString(slug) > maxSlugRunes {
		slug = strings.TrimRight(string([]rune(slug)[:maxSlugRunes]), "-")
	}
	if slug == "" {
		return "image"
	}
	return slug
}

var keywordShots = []string{
	"Photorealistic candid photo of %s in natural daylight, 35mm, f/2.0, ISO 200, 1/500s, soft background blur, no text or watermark.",
	"Photorealistic close-up of %s with fine texture detail, 85mm, f/2.8, ISO 200, 1/400s, diffused window light, no text or watermark.",
	"Photorealistic wide shot of %s outdoors at golden hour, 28mm, f/4, ISO 100, 1/800s, warm rim light, no text or watermark.",
	"Photorealistic indoor photo of %s under mixed tungsten and daylight, 50mm, f/1.8, ISO 800, 1/125s, handheld, slight grain, no text or watermark.",
	"Photorealistic top-down shot of %s on a wooden table, 35mm, f/2.8, ISO 320, 1/160s, soft ambient light, natural colors, no text or watermark.",
	"Photorealistic evening photo of %s under string lights, 50mm, f/1.8, ISO 2000, 1/200s, warm bokeh, no text or watermark.",
	"Photorealistic overcast-day photo of %s with subtle reflections, 35mm, f/2.8, ISO 320, 1/500s, muted palette, no text or watermark.",
	"Photorealistic macro detail of %s, 100mm macro, f/5.6, ISO 400, 1/200s, softbox bounce, high micro-contrast, no text or watermark.",
}
