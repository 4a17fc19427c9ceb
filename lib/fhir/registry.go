package fhir

import (
	"context"
	"fmt"
	"log/slog"

	"hl7tools/lib/flatten"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const RegistryURL = "https://raw.githubusercontent.com/FHIR/ig-registry/master/fhir-ig-list.json"

// RegistryFirstKeys lead the columns of the combined editions csv.
var RegistryFirstKeys = []string{"package-id", "version", "title", "date", "status", "country", "language"}

// Crawler reads the IG registry and the package-list of every guide in it.
type Crawler struct {
	http     *resty.Client
	reporter telemetry.API
}

func NewCrawler(http *resty.Client, reporter telemetry.API) Crawler {
	return Crawler{http: http, reporter: reporter}
}

// registryExtra copies the guide's country and language onto its editions.
func registryExtra(guide map[string]any) map[string]any {
	extra := map[string]any{}
	for _, k := range []string{"country", "language"} {
		v, ok := guide[k]
		if !ok || v == nil {
			extra[k] = ""
			continue
		}
		extra[k] = v
	}
	return extra
}

// Editions returns the editions of every guide in the registry. A guide
// without a canonical url or whose package-list cannot be fetched is
// reported and skipped; only an unreadable registry fails the crawl.
func (c Crawler) Editions(ctx context.Context, registryURL string) ([]any, error) {
	doc, err := restyutil.GetJSON(ctx, c.http, registryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("read ig registry: %w", err)
	}
	guides, err := flatten.Records(doc, "guides")
	if err != nil {
		return nil, fmt.Errorf("read ig registry: %w", err)
	}

	var all []any
	for i, g := range guides {
		guide, ok := g.(map[string]any)
		if !ok {
			c.reporter.ReportWarning("guide-shape", "index", i)
			continue
		}
		canonical, _ := guide["canonical"].(string)
		if canonical == "" {
			c.reporter.ReportWarning("guide-canonical", "index", i, "name", guide["name"])
			continue
		}

		slog.Info("fetching package-list", "canonical", canonical)
		packageList, err := restyutil.GetJSON(ctx, c.http, PackageListURL(canonical), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.reporter.ReportWarning("package-list", "canonical", canonical, "err", err.Error())
			continue
		}
		editions, err := Editions(packageList, registryExtra(guide))
		if err != nil {
			c.reporter.ReportWarning("package-list", "canonical", canonical, "err", err.Error())
			continue
		}
		all = append(all, editions...)
	}
	c.reporter.ReportCount("editions", int64(len(all)))
	return all, nil
}
