package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<article>
  <h1>Title</h1>
  <p>intro</p>
  <img alias="hero"/>
  <p>body</p>
  <img alias="chart"/>
</article>`

func TestParse_FindImages(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	images := doc.Images()
	require.Len(t, images, 2)

	alias, ok := images[0].GetAttribute("alias")
	assert.True(t, ok)
	assert.Equal(t, "hero", alias)

	alias, ok = images[1].GetAttribute("alias")
	assert.True(t, ok)
	assert.Equal(t, "chart", alias)
}

func TestElement_SetAndRemoveAttributes(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	img := doc.Images()[0]
	img.SetAttributes([]Attr{
		{Key: "class", Value: "lazyload"},
		{Key: "src", Value: "/img/a.png"},
		{Key: "data-srcset", Value: "/img/a.png 320w,/img/b.png 640w"},
	})
	img.RemoveAttribute("alias")

	out, err := doc.Serialize()
	require.NoError(t, err)
	assert.Contains(t, out, `class="lazyload"`)
	assert.Contains(t, out, `src="/img/a.png"`)
	assert.Contains(t, out, `data-srcset="/img/a.png 320w,/img/b.png 640w"`)

	_, ok := img.GetAttribute("alias")
	assert.False(t, ok)
	// The second image keeps its alias untouched.
	assert.Contains(t, out, `alias="chart"`)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader("<article><p>unclosed"))
	assert.ErrorIs(t, err, ErrMalformedMarkup)
}
