package flatten

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"hl7tools/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) any {
	t.Helper()
	v, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return v
}

func TestFlattenMissingAndNull(t *testing.T) {
	schema := MustSchema([]Field{MustField("key", ""), MustField("resolution", "")})

	row := schema.Flatten(decode(t, `{"key":"FHIR-100","resolution":null}`))
	require.Equal(t, map[string]string{"key": "FHIR-100", "resolution": ""}, row.Map())

	row = schema.Flatten(decode(t, `{"summary":"no key at all"}`))
	require.Equal(t, []string{"", ""}, row.Values)
	require.Equal(t, []string{"key", "resolution"}, row.Columns)
}

func TestFlattenModes(t *testing.T) {
	recorder := &telemetry.Recorder{}
	schema := MustSchema([]Field{
		MustField("labels", "joined").Join(""),
		MustField("labels", "counted").Count(),
		MustField("labels", "first").First(),
		MustField("labels", "scalar"),
		MustField("single", "unwrapped"),
		MustField("title", "title as list").Join(", "),
		MustField("meta", "meta").JSON(),
		MustField("meta", "meta json"),
		MustField("meta.tags", "meta tags count").Count(),
		Constant("type", "M"),
	}, WithReporter(recorder))

	row := schema.Flatten(decode(t, `{
		"labels": ["a", "b"],
		"single": ["only"],
		"title": "plain",
		"meta": {"z": 1, "a": [true, null]}
	}`))

	expected := map[string]string{
		"joined":          "a;b",
		"counted":         "2",
		"first":           "a",
		"scalar":          "",
		"unwrapped":       "only",
		"title as list":   "plain",
		"meta":            `{"a":[true,null],"z":1}`,
		"meta json":       "",
		"meta tags count": "",
		"type":            "M",
	}
	if diff := cmp.Diff(expected, row.Map()); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, []string{"cell", "cell"}, recorder.Warnings())
}

func TestFlattenJoinDelimiter(t *testing.T) {
	record := decode(t, `{"labels":["a","b"],"country":["us","ca"]}`)

	schema := MustSchema([]Field{MustField("labels", "").Join("")})
	require.Equal(t, map[string]string{"labels": "a;b"}, schema.Flatten(record).Map())

	schema = MustSchema(
		[]Field{MustField("labels", "").Join(""), MustField("country", "").Join(", ")},
		WithDelimiter("|"),
	)
	require.Equal(t, []string{"a|b", "us, ca"}, schema.Flatten(record).Values)
}

func TestFlattenNumbers(t *testing.T) {
	recorder := &telemetry.Recorder{}
	schema := MustSchema([]Field{
		MustField("time", "").AsNumber(),
		MustField("count", "").AsNumber(),
		MustField("raw", ""),
	}, WithReporter(recorder))

	row := schema.Flatten(decode(t, `{"time": 1.50, "count": "n/a", "raw": 1.50}`))
	require.Equal(t, []string{"1.5", "n/a", "1.50"}, row.Values)
	require.Len(t, recorder.Warnings(), 1)
}

func TestFlattenNumbersKeepPrecision(t *testing.T) {
	recorder := &telemetry.Recorder{}
	schema := MustSchema([]Field{
		MustField("id", "").AsNumber(),
		MustField("n", "").AsNumber(),
		MustField("i", "").AsNumber(),
		MustField("e", "").AsNumber(),
	}, WithReporter(recorder))

	row := schema.Flatten(decode(t, `{"id": 12345678901234567890, "n": "NaN", "i": "Infinity", "e": 2.50E-2}`))
	require.Equal(t, []string{"12345678901234567890", "NaN", "Infinity", "0.025"}, row.Values)
	require.Equal(t, []string{"cell", "cell"}, recorder.Warnings())
}

func TestCanonicalNumber(t *testing.T) {
	cases := []struct {
		literal  string
		expected string
	}{
		{literal: "0", expected: "0"},
		{literal: "-0.000", expected: "0"},
		{literal: "10", expected: "10"},
		{literal: "1.50", expected: "1.5"},
		{literal: "0.001", expected: "0.001"},
		{literal: "1.5e3", expected: "1500"},
		{literal: "-12E-1", expected: "-1.2"},
		{literal: " 7 ", expected: "7"},
		{literal: "98765432109876543210.5", expected: "98765432109876543210.5"},
		{literal: "1e100", expected: "1e100"},
	}
	for _, test := range cases {
		out, ok := CanonicalNumber(test.literal)
		require.True(t, ok, test.literal)
		require.Equal(t, test.expected, out, test.literal)
	}

	for _, literal := range []string{"", "NaN", "Infinity", "+Inf", "-inf", "0x10", "01", "1.", ".5", "+1", "1e", "n/a"} {
		_, ok := CanonicalNumber(literal)
		require.False(t, ok, literal)
	}
}

func TestScaleNumber(t *testing.T) {
	out, ok := ScaleNumber("61500", -3)
	require.True(t, ok)
	require.Equal(t, "61.5", out)

	out, ok = ScaleNumber("5", -3)
	require.True(t, ok)
	require.Equal(t, "0.005", out)

	out, ok = ScaleNumber("1.25e2", 1)
	require.True(t, ok)
	require.Equal(t, "1250", out)

	_, ok = ScaleNumber("slow", -3)
	require.False(t, ok)
}

func TestFlattenTransform(t *testing.T) {
	recorder := &telemetry.Recorder{}
	upper := func(s string) (string, error) {
		if s == "bad" {
			return "", errors.New("cannot transform")
		}
		return strings.ToUpper(s), nil
	}
	schema := MustSchema([]Field{MustField("v", "").WithTransform(upper)}, WithReporter(recorder))

	rows := schema.FlattenAll([]any{
		decode(t, `{"v":"x"}`),
		decode(t, `{"v":"bad"}`),
		decode(t, `{}`),
	})
	require.Equal(t, "X", rows[0].Get("v"))
	require.Equal(t, "", rows[1].Get("v"))
	require.Equal(t, "", rows[2].Get("v"))
	require.Len(t, recorder.Reports(), 1)
	require.Equal(t, []any{"record", 1, "column", "v", "reason", "cannot transform"}, recorder.Reports()[0].Params)
}

func TestFlattenDeterministic(t *testing.T) {
	schema := MustSchema([]Field{
		MustField("b", ""),
		MustField("a", "").Join(""),
		MustField("c", ""),
	})
	record := decode(t, `{"c": {"x": 1}, "a": ["1", "2"], "b": "x"}`)

	first := schema.Flatten(record)
	second := schema.Flatten(record)
	require.Equal(t, first, second)
	require.Equal(t, []string{"b", "a", "c"}, first.Columns)
}

func TestNewSchemaRejectsDuplicateColumns(t *testing.T) {
	_, err := NewSchema([]Field{MustField("a", "x"), MustField("b", "x")})
	require.Error(t, err)
}

func TestParseFieldSpec(t *testing.T) {
	cases := []struct {
		spec   string
		path   string
		column string
		mode   Mode
		number bool
	}{
		{spec: "key", path: "key", column: "key", mode: ModeScalar},
		{spec: "fields.summary:Summary", path: "fields.summary", column: "Summary"},
		{spec: "fields.labels:Labels|join", path: "fields.labels", column: "Labels", mode: ModeJoin},
		{spec: "fields.labels|count", path: "fields.labels", column: "fields.labels", mode: ModeCount},
		{spec: `packages["a:b"].x:Version`, path: `packages["a:b"].x`, column: "Version"},
		{spec: `a["x|y"]`, path: `a["x|y"]`, column: `a["x|y"]`},
		{spec: `a["x|y"]:XY|first`, path: `a["x|y"]`, column: "XY", mode: ModeFirst},
		{spec: "stats.time:Time|number", path: "stats.time", column: "Time", number: true},
		{spec: "sizes|join|number", path: "sizes", column: "sizes", mode: ModeJoin, number: true},
	}
	for _, test := range cases {
		f, err := ParseFieldSpec(test.spec)
		require.NoError(t, err, test.spec)
		require.Equal(t, test.path, f.Path.String())
		require.Equal(t, test.column, f.Column)
		require.Equal(t, test.mode, f.Mode)
		require.Equal(t, test.number, f.Number, test.spec)
	}

	_, err := ParseFieldSpec("key|sum")
	require.Error(t, err)
}

func TestRecords(t *testing.T) {
	doc := decode(t, `{"issues": [{"key": "A"}, {"key": "B"}], "one": {"key": "C"}, "empty": []}`)

	records, err := Records(doc, "issues")
	require.NoError(t, err)
	require.Len(t, records, 2)

	records, err = Records(doc, "one")
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = Records(doc, "empty")
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = Records(doc, "missing")
	require.Error(t, err)
}

func TestDecodeBytesStripsBOM(t *testing.T) {
	v, err := DecodeBytes(append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"n": 10}`)...))
	require.NoError(t, err)
	require.Equal(t, "10", string(v.(map[string]any)["n"].(json.Number)))
}

func TestRowInsert(t *testing.T) {
	row := NewRow([]string{"a", "b", "c", "d"}, []string{"1", "2", "3"})
	require.Equal(t, []string{"1", "2", "3", ""}, row.Values)

	inserted := row.Insert(3, "type", "M")
	require.Equal(t, []string{"a", "b", "c", "type", "d"}, inserted.Columns)
	require.Equal(t, []string{"1", "2", "3", "M", ""}, inserted.Values)
	require.Equal(t, []string{"a", "b", "c", "d"}, row.Columns)

	require.Equal(t, []string{"3", "", "1"}, row.Select([]string{"c", "missing", "a"}))
}
