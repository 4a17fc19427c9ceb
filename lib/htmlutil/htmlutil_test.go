package htmlutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div class="directory-member">
	<a href="/staff/1">
		<b>Chief   Executive Officer</b>
		<span> Jane
		Doe </span>
	</a>
</div>
<p>plain <i>italic</i> text</p>
</body></html>`

func TestTextParts(t *testing.T) {
	doc, err := ParseDocument([]byte(page))
	require.NoError(t, err)

	parts := TextParts(doc.Find("div.directory-member a"))
	require.Equal(t, []string{"Chief Executive Officer", "Jane Doe"}, parts)
	require.Equal(t, "plain italic text", Text(doc.Find("p")))
}

func TestGetAnchors(t *testing.T) {
	doc, err := ParseDocument([]byte(page))
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a"))
	require.Equal(t, []Anchor{{Name: "Chief Executive Officer Jane Doe", Href: "/staff/1"}}, anchors)
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b", CleanText("  a \u0007\n\t b  "))
	require.Equal(t, "", CleanText(" \n "))
}
