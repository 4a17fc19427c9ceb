package fhir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"
)

const (
	BuildsURL         = "https://build.fhir.org/ig/builds.json"
	TestStatisticsURL = "https://build.fhir.org/ig/test-statistics.json"
)

// BuildRepos reduces the build listing, entries like `org/repo/branch/...`,
// to the sorted unique `org/repo` pairs. Entries that are not strings are
// ignored.
func BuildRepos(builds any) (tabular.Table, error) {
	entries, ok := builds.([]any)
	if !ok {
		return tabular.Table{}, fmt.Errorf("builds listing is %T, not a list", builds)
	}

	unique := map[string]struct{}{}
	for _, e := range entries {
		s, ok := e.(string)
		if !ok {
			continue
		}
		parts := strings.SplitN(s, "/", 3)
		if len(parts) > 2 {
			parts = parts[:2]
		}
		unique[strings.Join(parts, "/")] = struct{}{}
	}

	repos := make([]string, 0, len(unique))
	for r := range unique {
		repos = append(repos, r)
	}
	sort.Strings(repos)

	t := tabular.Table{Columns: []string{"repo"}}
	for _, r := range repos {
		t.AddRow(r)
	}
	return t, nil
}

var statisticsSkipped = map[string]bool{"format-version": true, "sync-date": true, "date": true}

type buildTime struct {
	guide   string
	version string
	stats   any
}

// millisToSeconds runs after the numeric field has canonicalized the value.
func millisToSeconds(ms string) (string, error) {
	seconds, ok := flatten.ScaleNumber(ms, -3)
	if !ok {
		return "", fmt.Errorf("%q is not a duration in milliseconds", ms)
	}
	return seconds, nil
}

func buildTimeFields() []flatten.Field {
	return []flatten.Field{
		flatten.MustField("guide", ""),
		flatten.MustField("version", ""),
		flatten.MustField("stats.time", "seconds").AsNumber().WithTransform(millisToSeconds),
	}
}

// BuildTimes turns the publisher's test statistics, keyed by publisher
// version then guide with times in milliseconds, into guide/version/seconds
// rows sorted by guide and then version. A time that is not a number is
// kept as written and reported.
func BuildTimes(statistics any, reporter telemetry.API) (tabular.Table, error) {
	doc, ok := statistics.(map[string]any)
	if !ok {
		return tabular.Table{}, fmt.Errorf("test statistics are %T, not an object", statistics)
	}

	var times []buildTime
	for version, guides := range doc {
		if statisticsSkipped[version] {
			continue
		}
		guideMap, ok := guides.(map[string]any)
		if !ok {
			reporter.ReportWarning("statistics-version", "version", version)
			continue
		}
		for guide, stats := range guideMap {
			if statisticsSkipped[guide] {
				continue
			}
			times = append(times, buildTime{guide: guide, version: version, stats: stats})
		}
	}

	sort.Slice(times, func(a, b int) bool {
		if times[a].guide != times[b].guide {
			return times[a].guide < times[b].guide
		}
		return CompareVersions(times[a].version, times[b].version) < 0
	})

	schema, err := flatten.NewSchema(buildTimeFields(), flatten.WithReporter(reporter))
	if err != nil {
		return tabular.Table{}, err
	}
	records := make([]any, len(times))
	for i, bt := range times {
		records[i] = map[string]any{"guide": bt.guide, "version": bt.version, "stats": bt.stats}
	}
	return tabular.FromSchema(schema, records), nil
}

// CompareVersions orders dotted versions numerically part by part, parts
// that are not numbers compare as text.
func CompareVersions(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		case pa[i] != pb[i]:
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	return len(pa) - len(pb)
}
