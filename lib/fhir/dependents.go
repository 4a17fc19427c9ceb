package fhir

import (
	"fmt"
	"sort"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
)

// Dependents lists every package of a package registry dump that depends on
// target, with the version it depends on. Packages are sorted by id.
func Dependents(registry any, target string) (tabular.Table, error) {
	packagesValue, found := flatten.KeyPath("packages").Resolve(registry)
	packages, ok := packagesValue.(map[string]any)
	if !found || !ok {
		return tabular.Table{}, fmt.Errorf("no packages object in registry")
	}

	ids := make([]string, 0, len(packages))
	for id := range packages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := tabular.Table{Columns: []string{"package", target}}
	for _, id := range ids {
		v, found := flatten.KeyPath(id, "dependencies", target).Resolve(packages)
		if !found {
			continue
		}
		version, ok := flatten.ScalarString(v)
		if !ok {
			continue
		}
		t.AddRow(id, version)
	}
	return t, nil
}
