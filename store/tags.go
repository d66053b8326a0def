package store

import (
	"strings"

	"github.com/gosimple/slug"
)

// NormalizeTags canonicalizes a raw tag value: entries are split on commas
// and trimmed, one leading '#' is stripped, empty results are dropped. Order
// is preserved and duplicates are kept. A non-empty raw value that
// normalizes to nothing is a validation failure.
func NormalizeTags(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		for _, part := range strings.Split(t, ",") {
			tag := strings.TrimSpace(part)
			tag = strings.TrimPrefix(tag, "#")
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			out = append(out, tag)
		}
	}
	if len(out) == 0 && hasNonEmpty(raw) {
		return nil, newValidationError("tags", "tags must be comma-separated strings")
	}
	return out, nil
}

func hasNonEmpty(raw []string) bool {
	for _, t := range raw {
		if t != "" {
			return true
		}
	}
	return false
}

// Slugify derives the unique URL identifier from a post title: lowercase,
// strict ASCII transliteration, non-alphanumerics collapsed to hyphens.
func Slugify(title string) string {
	return slug.Make(title)
}
