// Package post turns raw CMS documents into display-ready post summaries.
package post

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pders01/trvl/internal/cms"
)

// DatePlaceholder is shown when a document has no usable publication date.
const DatePlaceholder = "Data indisponível"

// Post is a post summary ready for display. Posts are values and are never
// edited after Normalize creates them.
type Post struct {
	ID          string `json:"id"`
	PublishedAt string `json:"published_at"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Author      string `json:"author"`
}

// pt-BR abbreviated month names, January first.
var monthAbbrevs = [12]string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// monthNames holds the title-cased abbreviations. Built once since a Caser is
// not safe for concurrent use.
var monthNames = func() [12]string {
	caser := cases.Title(language.BrazilianPortuguese)
	var names [12]string
	for i, abbrev := range monthAbbrevs {
		names[i] = caser.String(abbrev)
	}
	return names
}()

// timestampLayouts are tried in order. Prismic writes offsets without a colon.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalize maps a raw entry to a Post. It has no side effects.
func Normalize(entry cms.RawEntry) Post {
	return Post{
		ID:          entry.UID,
		PublishedAt: FormatDate(entry.FirstPublicationDate),
		Title:       entry.Data.Title,
		Subtitle:    entry.Data.Subtitle,
		Author:      entry.Data.Author,
	}
}

// NormalizeAll maps entries in order. The result is never nil.
func NormalizeAll(entries []cms.RawEntry) []Post {
	posts := make([]Post, 0, len(entries))
	for _, entry := range entries {
		posts = append(posts, Normalize(entry))
	}
	return posts
}

// FormatDate renders an ISO-8601 timestamp as "dd Mmm yyyy" in UTC with pt-BR
// month names, e.g. "19 Mai 2021". Nil or unparseable input yields DatePlaceholder.
func FormatDate(timestamp *string) string {
	if timestamp == nil {
		return DatePlaceholder
	}

	t, err := ParseTimestamp(*timestamp)
	if err != nil {
		return DatePlaceholder
	}

	t = t.UTC()
	return fmt.Sprintf("%02d %s %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// ParseTimestamp parses the timestamp formats the CMS emits.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
