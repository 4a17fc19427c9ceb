package tabular

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

type MarkdownOptions struct {
	// Links renders the non-empty cells of a column as links, those cells
	// skip escaping.
	Links map[string]func(string) string
}

var markdownEscaper = strings.NewReplacer(
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
)

// SanitizeMarkdown keeps a cell on one line and escapes inline formatting,
// pipes are escaped by the table renderer.
func SanitizeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// LinkTo links a value to prefix+value, e.g. an issue key to its browse page.
func LinkTo(prefix string) func(string) string {
	return func(v string) string {
		return fmt.Sprintf("[%s](%s%s)", v, prefix, v)
	}
}

// SelfLink links a URL to itself.
func SelfLink(v string) string {
	return fmt.Sprintf("[%s](%s)", v, v)
}

func WriteMarkdown(w io.Writer, t Table, opts MarkdownOptions) error {
	writer := table.NewWriter()

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = SanitizeMarkdown(c)
	}
	writer.AppendHeader(header)

	for _, values := range t.Values() {
		row := make(table.Row, len(values))
		for i, v := range values {
			link, isLink := opts.Links[t.Columns[i]]
			switch {
			case isLink && v != "":
				row[i] = link(v)
			default:
				row[i] = SanitizeMarkdown(v)
			}
		}
		writer.AppendRow(row)
	}

	_, err := io.WriteString(w, writer.RenderMarkdown()+"\n")
	return err
}
