package flatten

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		raw      string
		expected []segment
	}{
		{raw: "key", expected: []segment{{kind: segmentKey, key: "key"}}},
		{
			raw: "fields.creator.displayName",
			expected: []segment{
				{kind: segmentKey, key: "fields"},
				{kind: segmentKey, key: "creator"},
				{kind: segmentKey, key: "displayName"},
			},
		},
		{
			raw: "fields.fixVersions[0].name",
			expected: []segment{
				{kind: segmentKey, key: "fields"},
				{kind: segmentKey, key: "fixVersions"},
				{kind: segmentIndex, index: 0},
				{kind: segmentKey, key: "name"},
			},
		},
		{
			raw: `packages["hl7.fhir.us.core"].dependencies[*]`,
			expected: []segment{
				{kind: segmentKey, key: "packages"},
				{kind: segmentKey, key: "hl7.fhir.us.core"},
				{kind: segmentKey, key: "dependencies"},
				{kind: segmentWildcard},
			},
		},
		{raw: "package-id", expected: []segment{{kind: segmentKey, key: "package-id"}}},
	}

	for _, test := range cases {
		p, err := ParsePath(test.raw)
		require.NoError(t, err, test.raw)
		require.Equal(t, test.expected, p.segments, test.raw)
		require.Equal(t, test.raw, p.String())
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, raw := range []string{"", ".a", "a..b", "a.", "a[", "a[x]", "a[-1]", `a["b]`, `a["b"c`, "a[0]b"} {
		_, err := ParsePath(raw)
		require.Error(t, err, raw)
		require.True(t, errors.Is(err, ErrBadPath), raw)
	}
}

func TestResolve(t *testing.T) {
	record := map[string]any{
		"key": "FHIR-1",
		"fields": map[string]any{
			"resolution": nil,
			"labels":     []any{"a", "b"},
			"components": []any{
				map[string]any{"name": "core"},
				map[string]any{"id": "2"},
				map[string]any{"name": "us"},
			},
			"realm": "US",
		},
	}

	cases := []struct {
		path  string
		value any
		found bool
	}{
		{path: "key", value: "FHIR-1", found: true},
		{path: "fields.resolution", found: false},
		{path: "fields.missing.deeper", found: false},
		{path: "fields.labels[1]", value: "b", found: true},
		{path: "fields.labels[2]", found: false},
		{path: "fields.components.name", value: []any{"core", "us"}, found: true},
		{path: "fields.components[*].name", value: []any{"core", "us"}, found: true},
		{path: "fields.realm[0]", value: "US", found: true},
		{path: "fields.realm[1]", found: false},
		{path: "key.deeper", found: false},
	}

	for _, test := range cases {
		value, found := MustParsePath(test.path).Resolve(record)
		require.Equal(t, test.found, found, test.path)
		require.Equal(t, test.value, value, test.path)
	}
}

func TestKeyPath(t *testing.T) {
	record := map[string]any{"hl7.fhir.us.core": map[string]any{"a.b": "x"}}
	p := KeyPath("hl7.fhir.us.core", "a.b")
	value, found := p.Resolve(record)
	require.True(t, found)
	require.Equal(t, "x", value)

	parsed, err := ParsePath(p.String())
	require.NoError(t, err)
	require.Equal(t, p.segments, parsed.segments)
}
