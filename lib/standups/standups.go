package standups

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hl7tools/lib/flatten"
	"hl7tools/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

const (
	PostsURL = "http://standups.hl7.org/wp-json/wp/v2/posts"
	PageSize = 100
)

// WordPress reports post dates without a zone.
const postDateLayout = "2006-01-02T15:04:05"

// Page fetches one page of posts, oldest first, with only their title and
// date.
func Page(ctx context.Context, client *resty.Client, postsURL string, page int) ([]any, error) {
	query := url.Values{
		"_fields":  {"title,date"},
		"per_page": {strconv.Itoa(PageSize)},
		"order":    {"asc"},
		"page":     {strconv.Itoa(page)},
	}
	doc, err := restyutil.GetJSON(ctx, client, postsURL, query)
	if err != nil {
		return nil, err
	}
	posts, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("page %d of posts is %T, not a list", page, doc)
	}
	return posts, nil
}

// All fetches pages from the first until a page comes back short or the
// server reports the page does not exist.
func All(ctx context.Context, client *resty.Client, postsURL string) ([]any, error) {
	var all []any
	for page := 1; ; page++ {
		posts, err := Page(ctx, client, postsURL, page)
		if err != nil {
			if page > 1 && errors.Is(err, restyutil.ErrStatus) {
				return all, nil
			}
			return nil, err
		}
		all = append(all, posts...)
		if len(posts) < PageSize {
			return all, nil
		}
	}
}

// titleReplacements apply in order, each to the result of the previous one.
var titleReplacements = [][2]string{
	{" Publication of", ":"},
	{" publication of", ":"},
	{"Implementation Guide", "IG"},
	{"&#8211;", "-"},
	{"HL7 ", ""},
}

// SimplifyTitle shortens a post title to the specification it announces.
func SimplifyTitle(title string) string {
	for _, r := range titleReplacements {
		title = strings.ReplaceAll(title, r[0], r[1])
	}
	return html.UnescapeString(title)
}

var families = []struct {
	marker string
	family string
}{
	{"FHIR", "FHIR"},
	{"Version 2", "V2"},
	{"V2", "V2"},
	{"Version 3", "V3"},
	{"V3", "V3"},
	{"CDA", "CDA"},
	{"Clinical Document Architecture", "CDA"},
}

// Family classifies a simplified title into FHIR, V2, V3, CDA or OTHER.
func Family(simplified string) string {
	for _, f := range families {
		if strings.Contains(simplified, f.marker) {
			return f.family
		}
	}
	return "OTHER"
}

func dateFormat(layout string) func(string) (string, error) {
	return func(s string) (string, error) {
		t, err := time.Parse(postDateLayout, s)
		if err != nil {
			return "", fmt.Errorf("invalid post date %q", s)
		}
		return t.Format(layout), nil
	}
}

func simplify(s string) (string, error) {
	return SimplifyTitle(s), nil
}

func family(s string) (string, error) {
	return Family(SimplifyTitle(s)), nil
}

// Fields are the columns of the standups listing. A post with an unreadable
// date keeps its date and title and leaves the derived day columns empty.
func Fields() []flatten.Field {
	return []flatten.Field{
		flatten.MustField("date", "month").WithTransform(dateFormat("2006 01")),
		flatten.MustField("date", "date"),
		flatten.MustField("date", "day").WithTransform(dateFormat("2006-01-02")),
		flatten.MustField("title.rendered", "title"),
		flatten.MustField("title.rendered", "short_title").WithTransform(simplify),
		flatten.MustField("title.rendered", "family").WithTransform(family),
	}
}
