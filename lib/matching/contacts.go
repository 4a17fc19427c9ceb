package matching

import (
	"fmt"
	"slices"
	"strconv"

	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"
	"hl7tools/lib/textutil"
)

const (
	IDColumn    = "Id"
	NameColumn  = "Name"
	EmailColumn = "Email"
)

// DefaultMinCorrelation is the similarity a pair of names needs before it is
// suggested as the same person.
const DefaultMinCorrelation = 0.85

type Contact struct {
	ID    string
	Name  string
	Email string
}

// Contacts reads a contact list keyed by its Id column. Rows without an id are
// skipped, a repeated id keeps its first position and its last values.
func Contacts(t tabular.Table, reporter telemetry.API) ([]Contact, error) {
	if !slices.Contains(t.Columns, IDColumn) {
		return nil, fmt.Errorf("contact list has no %q column", IDColumn)
	}

	var contacts []Contact
	index := make(map[string]int)
	for i, row := range t.Rows {
		c := Contact{
			ID:    row.Get(IDColumn),
			Name:  textutil.NormalizeName(row.Get(NameColumn)),
			Email: row.Get(EmailColumn),
		}
		if c.ID == "" {
			reporter.ReportWarning("contact-id", "line", i+2)
			continue
		}
		if at, ok := index[c.ID]; ok {
			reporter.ReportWarning("contact-duplicate", "id", c.ID)
			contacts[at] = c
			continue
		}
		index[c.ID] = len(contacts)
		contacts = append(contacts, c)
	}
	return contacts, nil
}

type Comparison struct {
	OnlyLeft  []Contact
	OnlyRight []Contact
	// Suggestions link names of OnlyLeft to names of OnlyRight that likely
	// belong to the same person under a different id.
	Suggestions []Link
}

func missingFrom(contacts, other []Contact) []Contact {
	ids := make(map[string]struct{}, len(other))
	for _, c := range other {
		ids[c.ID] = struct{}{}
	}
	var out []Contact
	for _, c := range contacts {
		if _, ok := ids[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func names(contacts []Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.Name
	}
	return out
}

// Compare finds the contacts whose id appears in only one of the lists.
func Compare(left, right []Contact, minCorrelation float64) Comparison {
	c := Comparison{
		OnlyLeft:  missingFrom(left, right),
		OnlyRight: missingFrom(right, left),
	}
	c.Suggestions = Links(names(c.OnlyLeft), names(c.OnlyRight), minCorrelation)
	slices.SortStableFunc(c.Suggestions, func(a, b Link) int {
		switch {
		case a.Correlation > b.Correlation:
			return -1
		case a.Correlation < b.Correlation:
			return 1
		}
		return 0
	})
	return c
}

// Table lists the unmatched contacts, labelled with the list they came from.
func (c Comparison) Table(leftLabel, rightLabel string) tabular.Table {
	t := tabular.Table{Columns: []string{"Source", IDColumn, NameColumn, EmailColumn}}
	for _, contact := range c.OnlyLeft {
		t.AddRow(leftLabel, contact.ID, contact.Name, contact.Email)
	}
	for _, contact := range c.OnlyRight {
		t.AddRow(rightLabel, contact.ID, contact.Name, contact.Email)
	}
	return t
}

func (c Comparison) SuggestionsTable(leftLabel, rightLabel string) tabular.Table {
	t := tabular.Table{Columns: []string{leftLabel, rightLabel, "Correlation"}}
	for _, l := range c.Suggestions {
		t.AddRow(l.Left, l.Right, strconv.FormatFloat(l.Correlation, 'f', 3, 64))
	}
	return t
}
