package specs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"hl7tools/lib/htmlutil"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	Universal    = "Universal"
	UnitedStates = "United States"
)

// NormalizeRealm trims a realm and spells the US realm out.
func NormalizeRealm(realm string) string {
	realm = strings.TrimSpace(realm)
	if strings.EqualFold(realm, "US Realm") {
		return UnitedStates
	}
	return realm
}

// Mappings are the known realms by specification key and by url. Saved to a
// key,url,realm csv they double as the cache of scraped product briefs.
type Mappings struct {
	BySpec map[string]string
	ByURL  map[string]string
}

func NewMappings() Mappings {
	return Mappings{BySpec: map[string]string{}, ByURL: map[string]string{}}
}

var universalKeys = []string{
	"CDA-cda-sd", "CDA-gh", "FHIR-fhirpath", "FHIR-cds-hooks",
	"FHIR-cds-hooks-library", "FHIR-cds-hooks-patient-view", "FHIR-smart", "FHIR-cql",
	"FHIR-extensions", "FHIR-tools", "FHIR-cqif", "FHIR-gao",
	"V2-core", "V2-vtwoplus", "V2-vtwostdqc", "V2-vtwoigqc",
	"V2-vtwotofhir",
	"OTHER-ufp", "OTHER-ai-ml", "OTHER-ct-dam", "OTHER-dam-nc", "OTHER-pcd", "OTHER-pohr",
	"OTHER-stmed-profile", "OTHER-stterm-kb",
	"OTHER-sfm-consent", "OTHER-gender-harmony", "OTHER-arden-syntax",
	"OTHER-guide-arden-syntax", "OTHER-odh-dam", "OTHER-sdpi",
}

var unitedStatesKeys = []string{
	"CDA-ccda", "CDA-ccda-two-one-odh", "CDA-haiaultc",
	"CDA-phcaserpt", "CDA-phcr-rr", "CDA-trds",
	"FHIR-us-helios-bulk", "FHIR-us-qr", "FHIR-us-argonaut", "FHIR-us-lab",
	"V2-ss", "V2-dar", "V2-loi", "V2-lri", "V2-edos-aoe",
	"OTHER-us-pod-fp", "OTHER-us-pchit-fp", "OTHER-hsra", "OTHER-pharm-consult",
}

var otherKeyRealms = map[string]string{
	"FHIR-au-base":        "Australia",
	"FHIR-au-core":        "Australia",
	"FHIR-au-erequesting": "Australia",
	"FHIR-au-pd":          "Australia",
	"FHIR-au-ps":          "Australia",
	"FHIR-eu-laboratory":  "Europe",
	"FHIR-eu-extensions":  "Europe",
}

// DefaultMappings are the specification realms that cannot be told from
// their url.
func DefaultMappings() Mappings {
	m := NewMappings()
	for _, k := range universalKeys {
		m.BySpec[k] = Universal
	}
	for _, k := range unitedStatesKeys {
		m.BySpec[k] = UnitedStates
	}
	for k, v := range otherKeyRealms {
		m.BySpec[k] = v
	}
	return m
}

// Merge copies other into m, other wins.
func (m Mappings) Merge(other Mappings) {
	for k, v := range other.BySpec {
		m.BySpec[k] = v
	}
	for k, v := range other.ByURL {
		m.ByURL[k] = v
	}
}

// ReadMappings loads a key,url,realm csv, a missing file is an empty set.
func ReadMappings(path string, reporter telemetry.API) (Mappings, error) {
	m := NewMappings()
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, err
	}
	defer f.Close()

	t, err := tabular.ReadCSV(f, reporter)
	if err != nil {
		return m, fmt.Errorf("%s: %w", path, err)
	}
	for _, r := range t.Rows {
		realm := strings.TrimSpace(r.Get("realm"))
		key, url := strings.TrimSpace(r.Get("key")), strings.TrimSpace(r.Get("url"))
		if key != "" {
			m.BySpec[key] = realm
		}
		if url != "" {
			m.ByURL[url] = realm
		}
	}
	slog.Debug("read realm mappings", "path", path, "specs", len(m.BySpec), "urls", len(m.ByURL))
	return m, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Table is the csv form of the mappings, specification rows first.
func (m Mappings) Table() tabular.Table {
	t := tabular.Table{Columns: []string{"key", "url", "realm"}}
	for _, k := range sortedKeys(m.BySpec) {
		t.AddRow(k, "", m.BySpec[k])
	}
	for _, u := range sortedKeys(m.ByURL) {
		t.AddRow("", u, m.ByURL[u])
	}
	return t
}

// RealmFromURL recognizes the realm of FHIR and CDA urls, ok is false for
// anything else.
func RealmFromURL(url string) (string, bool) {
	switch {
	case url == "http://hl7.org/fhir":
		return Universal, true
	case strings.Contains(url, "http://hl7.org/fhir/uv/"):
		return Universal, true
	case strings.Contains(url, "http://hl7.org/fhir/us/"):
		return UnitedStates, true
	case strings.HasPrefix(url, "http://hl7.org/cda/us/"):
		return UnitedStates, true
	case strings.HasPrefix(url, "http://hl7.org/cda/stds/"):
		return Universal, true
	}
	return "", false
}

// IsProductBrief reports whether a url is an hl7.org product brief page,
// whose realm has to be read off the page.
func IsProductBrief(url string) bool {
	return strings.Contains(url, "?product_id=")
}

// ProductBriefRealm reads the first list item after the REALM heading of a
// product brief.
func ProductBriefRealm(doc *goquery.Document) string {
	realm := ""
	doc.Find("h3").EachWithBreak(func(_ int, h3 *goquery.Selection) bool {
		if !strings.EqualFold(htmlutil.Text(h3), "REALM") {
			return true
		}
		h3.NextAll().EachWithBreak(func(_ int, next *goquery.Selection) bool {
			item := next
			if !next.Is("li") {
				item = next.Find("li").First()
			}
			if item.Length() > 0 {
				realm = htmlutil.Text(item)
				return false
			}
			return true
		})
		return false
	})
	return NormalizeRealm(realm)
}

// BriefFetcher loads a product brief page.
type BriefFetcher func(ctx context.Context, url string) (*goquery.Document, error)

func NewBriefFetcher(client *resty.Client) BriefFetcher {
	return func(ctx context.Context, url string) (*goquery.Document, error) {
		body, err := restyutil.GetBytes(ctx, client, url, nil)
		if err != nil {
			return nil, err
		}
		return htmlutil.ParseDocument(body)
	}
}

// Resolver works out specification realms: known mappings first, then the
// specification's url, then its product brief. Whatever it learns is added
// to its mappings.
type Resolver struct {
	mappings Mappings
	specs    map[string]Spec
	fetch    BriefFetcher
	reporter telemetry.API
	changed  bool
	failed   map[string]bool
}

// NewResolver builds a resolver, a nil fetch never scrapes product briefs.
func NewResolver(mappings Mappings, specs map[string]Spec, fetch BriefFetcher, reporter telemetry.API) *Resolver {
	return &Resolver{
		mappings: mappings,
		specs:    specs,
		fetch:    fetch,
		reporter: reporter,
		failed:   map[string]bool{},
	}
}

func (r *Resolver) Mappings() Mappings {
	return r.mappings
}

// Changed reports whether anything was learned since the resolver was built.
func (r *Resolver) Changed() bool {
	return r.changed
}

func (r *Resolver) learn(key, url, realm string) {
	if key != "" && r.mappings.BySpec[key] != realm {
		r.mappings.BySpec[key] = realm
		r.changed = true
	}
	if url != "" && r.mappings.ByURL[url] != realm {
		r.mappings.ByURL[url] = realm
		r.changed = true
	}
}

// Resolve is the realm of a specification key, empty when it cannot be
// found.
func (r *Resolver) Resolve(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	realm := r.mappings.BySpec[key]
	if realm != "" {
		return realm
	}
	spec, ok := r.specs[key]
	if !ok {
		return ""
	}
	return r.RealmOf(ctx, spec)
}

// RealmOf resolves a catalog entry.
func (r *Resolver) RealmOf(ctx context.Context, spec Spec) string {
	realm := r.mappings.BySpec[spec.Key]
	if realm != "" {
		return realm
	}
	url := spec.URL
	if url == "" {
		return ""
	}
	realm = r.mappings.ByURL[url]
	if realm != "" {
		r.learn(spec.Key, "", realm)
		return realm
	}
	realm, ok := RealmFromURL(url)
	if ok {
		r.learn(spec.Key, "", realm)
		return realm
	}
	if !IsProductBrief(url) || r.fetch == nil || r.failed[url] {
		return ""
	}

	slog.Info("reading realm from product brief", "spec", spec.Key, "url", url)
	doc, err := r.fetch(ctx, url)
	if err != nil {
		r.failed[url] = true
		r.reporter.ReportWarning("product-brief", "spec", spec.Key, "url", url, "err", err.Error())
		return ""
	}
	realm = ProductBriefRealm(doc)
	if realm == "" {
		r.failed[url] = true
		r.reporter.ReportWarning("product-brief-realm", "spec", spec.Key, "url", url)
		return ""
	}
	r.learn(spec.Key, url, realm)
	return realm
}
