package post

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/trvl/internal/cms"
)

func ptr(s string) *string { return &s }

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  string
	}{
		{name: "nil", input: nil, want: DatePlaceholder},
		{name: "empty", input: ptr(""), want: DatePlaceholder},
		{name: "garbage", input: ptr("ontem à tarde"), want: DatePlaceholder},
		{name: "prismic offset", input: ptr("2021-05-19T14:04:05+0000"), want: "19 Mai 2021"},
		{name: "rfc3339 utc", input: ptr("2021-03-15T19:25:28Z"), want: "15 Mar 2021"},
		{name: "zero padded day", input: ptr("2021-02-05T10:00:00Z"), want: "05 Fev 2021"},
		{name: "positive offset crosses to previous day", input: ptr("2021-04-01T01:30:00+03:00"), want: "31 Mar 2021"},
		{name: "negative offset crosses to next day", input: ptr("2020-12-31T22:00:00-0300"), want: "01 Jan 2021"},
		{name: "fractional seconds", input: ptr("2021-08-10T12:00:00.123Z"), want: "10 Ago 2021"},
		{name: "date only", input: ptr("2021-12-25"), want: "25 Dez 2021"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.input))
		})
	}
}

func TestFormatDate_AllMonths(t *testing.T) {
	want := []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}
	shape := regexp.MustCompile(`^\d{2} [A-Z][a-z]{2} \d{4}$`)

	for i, month := range want {
		ts := time.Date(2022, time.Month(i+1), 9, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
		got := FormatDate(&ts)
		assert.Equal(t, "09 "+month+" 2022", got)
		assert.Regexp(t, shape, got)
	}
}

func TestFormatDate_IndependentOfLocalZone(t *testing.T) {
	orig := time.Local
	t.Cleanup(func() { time.Local = orig })

	ts := ptr("2021-05-19T23:30:00+0000")
	for _, zone := range []string{"America/Sao_Paulo", "Asia/Tokyo", "UTC"} {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			t.Skipf("timezone data unavailable: %v", err)
		}
		time.Local = loc
		assert.Equal(t, "19 Mai 2021", FormatDate(ts), zone)
	}
}

func TestNormalize(t *testing.T) {
	entry := cms.RawEntry{
		ID:                   "YGXx",
		UID:                  "como-utilizar-hooks",
		FirstPublicationDate: ptr("2021-03-15T19:25:28+0000"),
		Data: cms.RawData{
			Title:    "Como utilizar Hooks",
			Subtitle: "Pensando em sincronização em vez de ciclos de vida.",
			Author:   "Joseph Oliveira",
		},
	}

	got := Normalize(entry)
	assert.Equal(t, Post{
		ID:          "como-utilizar-hooks",
		PublishedAt: "15 Mar 2021",
		Title:       "Como utilizar Hooks",
		Subtitle:    "Pensando em sincronização em vez de ciclos de vida.",
		Author:      "Joseph Oliveira",
	}, got)
}

func TestNormalize_MissingFields(t *testing.T) {
	got := Normalize(cms.RawEntry{})
	assert.Equal(t, "", got.ID)
	assert.Equal(t, DatePlaceholder, got.PublishedAt)
	assert.Equal(t, "", got.Title)
}

func TestNormalizeAll(t *testing.T) {
	assert.NotNil(t, NormalizeAll(nil))
	assert.Empty(t, NormalizeAll(nil))

	entries := []cms.RawEntry{
		{UID: "a", Data: cms.RawData{Title: "A"}},
		{UID: "b", Data: cms.RawData{Title: "B"}},
		{UID: "a", Data: cms.RawData{Title: "A again"}},
	}
	posts := NormalizeAll(entries)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"a", "b", "a"}, []string{posts[0].ID, posts[1].ID, posts[2].ID})
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp(" 2021-05-19T14:04:05+0000 ")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2021, 5, 19, 14, 4, 5, 0, time.UTC)))

	_, err = ParseTimestamp("19/05/2021")
	assert.Error(t, err)
}
