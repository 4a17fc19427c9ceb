// Package specs reads the HL7 Jira spec artifacts, the catalog of
// specifications and work groups that Jira issues refer to by key, and
// works out the realm each specification belongs to.
package specs

import (
	"fmt"
	"html"
	"sort"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
)

const (
	SpecsURL      = "https://raw.githubusercontent.com/HL7/JIRA-Spec-Artifacts/gh-pages/SPECS.json"
	WorkgroupsURL = "https://raw.githubusercontent.com/HL7/JIRA-Spec-Artifacts/refs/heads/gh-pages/workgroups.json"
)

type Spec struct {
	Key              string
	Name             string
	DefaultWorkgroup string
	URL              string
}

func stringAt(obj map[string]any, key string) string {
	s, _ := flatten.ScalarString(obj[key])
	return s
}

// ParseSpecs reads SPECS.json, a list of specification objects. Entries
// without a key are dropped.
func ParseSpecs(doc any) ([]Spec, error) {
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("specs listing is %T, not a list", doc)
	}
	var out []Spec
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		spec := Spec{
			Key:              stringAt(obj, "key"),
			Name:             stringAt(obj, "name"),
			DefaultWorkgroup: stringAt(obj, "defaultWorkgroup"),
			URL:              stringAt(obj, "url"),
		}
		if spec.Key == "" {
			continue
		}
		out = append(out, spec)
	}
	return out, nil
}

// ByKey indexes specifications by key.
func ByKey(specs []Spec) map[string]Spec {
	out := make(map[string]Spec, len(specs))
	for _, s := range specs {
		out[s.Key] = s
	}
	return out
}

// ParseWorkgroups reads workgroups.json into key to name, names are
// published html escaped.
func ParseWorkgroups(doc any) (map[string]string, error) {
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("workgroups listing is %T, not a list", doc)
	}
	out := map[string]string{}
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, name := stringAt(obj, "key"), stringAt(obj, "name")
		if key != "" && name != "" {
			out[key] = html.UnescapeString(name)
		}
	}
	return out, nil
}

// Table lists the catalog with the realm of each specification, missing
// collects the urls, or keys without a url, whose realm is unknown.
func Table(specs []Spec, realms []string) (t tabular.Table, missing []string) {
	t = tabular.Table{Columns: []string{"key", "name", "defaultWorkgroup", "url", "realm"}}
	for i, s := range specs {
		t.AddRow(s.Key, s.Name, s.DefaultWorkgroup, s.URL, realms[i])
		if realms[i] != "" {
			continue
		}
		if s.URL != "" {
			missing = append(missing, s.URL)
		} else {
			missing = append(missing, s.Key)
		}
	}
	sort.Strings(missing)
	return t, missing
}
