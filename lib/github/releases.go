package github

import (
	"fmt"
	"time"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"
)

const (
	publishedLayout = "2006-01-02T15:04:05Z"
	dayLayout       = "2006 01 02"
)

// PublishedDay turns a GitHub timestamp into its `YYYY MM DD` day.
func PublishedDay(publishedAt string) (string, error) {
	t, err := time.Parse(publishedLayout, publishedAt)
	if err != nil {
		return "", fmt.Errorf("invalid published_at %q", publishedAt)
	}
	return t.Format(dayLayout), nil
}

// ReleaseFields are the columns of a release listing. A listing written with
// these columns can be fed back to Cleanup, which finds its columns by name.
func ReleaseFields() []flatten.Field {
	return []flatten.Field{
		flatten.MustField("tag_name", ""),
		flatten.MustField("published_at", ""),
		flatten.MustField("published_at", "published_day").WithTransform(PublishedDay),
		flatten.MustField("name", ""),
		flatten.MustField("html_url", ""),
		flatten.MustField("author.login", "author"),
		flatten.MustField("prerelease", ""),
	}
}

var cleanupColumns = []string{"tag_name", "published_at", "published_day", "name", "html_url"}

// headerlessPositions is where the input columns sit in a headerless
// `tag,published_at,name,url` csv.
var headerlessPositions = map[string]int{"tag_name": 0, "published_at": 1, "name": 2, "html_url": 3}

// headerPositions reads the input column positions from a header row, ok is
// false when the row is data.
func headerPositions(row []string) (map[string]int, bool) {
	positions := map[string]int{}
	for i, cell := range row {
		if _, known := headerlessPositions[cell]; known {
			positions[cell] = i
		}
	}
	_, hasTag := positions["tag_name"]
	_, hasPublished := positions["published_at"]
	return positions, hasTag && hasPublished
}

// Cleanup reads a release csv and adds the publication day after the
// timestamp. Input is either headerless `tag,published_at,name,url` rows or
// a csv whose header names tag_name and published_at, like a release listing.
// Rows with a bad timestamp keep an empty day.
func Cleanup(rows [][]string, reporter telemetry.API) tabular.Table {
	positions := headerlessPositions
	first := 0
	if len(rows) > 0 {
		header, ok := headerPositions(rows[0])
		if ok {
			positions = header
			first = 1
		}
	}

	t := tabular.Table{Columns: cleanupColumns}
	for i := first; i < len(rows); i++ {
		row := rows[i]
		cell := func(column string) string {
			n, ok := positions[column]
			if ok && n < len(row) {
				return row[n]
			}
			return ""
		}
		if first == 0 && len(row) < 4 {
			reporter.ReportWarning("short-row", "line", i+1, "cells", len(row))
		}

		day, err := PublishedDay(cell("published_at"))
		if err != nil {
			reporter.ReportWarning("published-at", "line", i+1, "err", err.Error())
		}
		t.AddRow(cell("tag_name"), cell("published_at"), day, cell("name"), cell("html_url"))
	}
	return t
}
