package matching

import (
	"strings"
	"testing"

	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	testCases := []struct {
		left  []string
		right []string
		// if Link.Correlation == 0
		// the test will not assert the correlation to be equal
		expected []Link
	}{
		{
			left:  []string{"a", "b", "c"},
			right: []string{"a", "b"},
			expected: []Link{
				{Left: "a", Right: "a", Correlation: 1},
				{Left: "b", Right: "b", Correlation: 1},
			},
		},
		{
			left:  []string{"foo", "bar", "baz"},
			right: []string{"foob", "bar", "barr"},
			expected: []Link{
				{Left: "bar", Right: "bar", Correlation: 1},
				{Left: "baz", Right: "barr"},
				{Left: "foo", Right: "foob"},
			},
		},
		{
			left:  []string{"Ada  Lovelace", "Grace Hopper"},
			right: []string{"ada lovelace"},
			expected: []Link{
				{Left: "Ada  Lovelace", Right: "ada lovelace", Correlation: 1},
			},
		},
		{
			left:     []string{"foo", "bar", "baz"},
			right:    []string{},
			expected: nil,
		},
		{
			left:     []string{},
			right:    []string{},
			expected: nil,
		},
		{
			left:  []string{"foo", "bar", "baz"},
			right: []string{"baa"},
			expected: []Link{
				{Left: "bar", Right: "baa"},
			},
		},
	}

	for _, test := range testCases {
		links := Links(test.left, test.right, 0)
		diff := cmp.Diff(
			test.expected,
			links,
			cmpopts.SortSlices(func(a, b Link) bool {
				return a.Left < b.Left
			}),
			cmpopts.IgnoreFields(Link{}, "Correlation"),
		)
		if diff != "" {
			t.Fatal(diff)
		}
		for i, l := range test.expected {
			if l.Correlation == 1 {
				require.Equal(t, 1.0, links[i].Correlation)
			}
		}
	}
}

func TestLinksMinCorrelation(t *testing.T) {
	require.Empty(t, Links([]string{"Alice Smith"}, []string{"Zed Quux"}, DefaultMinCorrelation))
	require.Len(t, Links([]string{"Jonathan Smith"}, []string{"Jonathon Smith"}, DefaultMinCorrelation), 1)
}

func readContacts(t *testing.T, csv string) []Contact {
	t.Helper()
	table, err := tabular.ReadCSV(strings.NewReader(csv), &telemetry.Recorder{})
	require.NoError(t, err)
	contacts, err := Contacts(table, &telemetry.Recorder{})
	require.NoError(t, err)
	return contacts
}

func TestContacts(t *testing.T) {
	recorder := &telemetry.Recorder{}
	table, err := tabular.ReadCSV(strings.NewReader(
		"Id,Name,Email\n1,Ada Lovelace,ada@example.org\n,Nobody,\n2,Grace,g@example.org\n1,Ada King,ada@example.org\n",
	), recorder)
	require.NoError(t, err)

	contacts, err := Contacts(table, recorder)
	require.NoError(t, err)
	require.Equal(t, []Contact{
		{ID: "1", Name: "Ada King", Email: "ada@example.org"},
		{ID: "2", Name: "Grace", Email: "g@example.org"},
	}, contacts)
	require.Equal(t, []string{"contact-id", "contact-duplicate"}, recorder.Warnings())

	_, err = Contacts(tabular.Table{Columns: []string{"Name"}}, recorder)
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	before := readContacts(t, "Id,Name,Email\n1,Ada Lovelace,a@x\n2,Grace Hopper,g@x\n3,Jonathan Smith,j@x\n")
	after := readContacts(t, "Id,Name,Email\n1,Ada Lovelace,a@x\n9,Jonathon Smith,j@x\n4,Katherine Johnson,k@x\n")

	c := Compare(before, after, DefaultMinCorrelation)
	require.Equal(t, []string{"2", "3"}, []string{c.OnlyLeft[0].ID, c.OnlyLeft[1].ID})
	require.Equal(t, []string{"9", "4"}, []string{c.OnlyRight[0].ID, c.OnlyRight[1].ID})

	table := c.Table("before", "after")
	require.Equal(t, []string{"before", "before", "after", "after"}, table.Column("Source"))

	suggestions := c.SuggestionsTable("before", "after")
	require.Equal(t, []string{"before", "after", "Correlation"}, suggestions.Columns)
	require.Equal(t, "Jonathan Smith", suggestions.Values()[0][0])
	require.Equal(t, "Jonathon Smith", suggestions.Values()[0][1])
}
