package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, entries map[string][]byte) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, data := range entries {
		err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(data)),
		})
		require.NoError(t, err)
		_, err = tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return &buf
}

const testMeta = `{
	"documentTitle": "A Title",
	"documentTags": ["go", "blog"],
	"version": "v1.0",
	"aliasMapping": {"hero": "hero.png"}
}`

const testMarkup = `<article><p>hello</p><img alias="hero"/></article>`

func TestRead_Valid(t *testing.T) {
	buf := buildArchive(t, map[string][]byte{
		"meta.json":    []byte(testMeta),
		"document.md":  []byte("# hello\n"),
		"document.xml": []byte(testMarkup),
		"img/hero.png": {0x89, 0x50, 0x4e, 0x47},
	})

	doc, err := Read(buf)
	require.NoError(t, err)

	assert.Equal(t, "A Title", doc.Title)
	assert.Equal(t, []string{"go", "blog"}, doc.Tags)
	assert.Equal(t, "v1.0", doc.Version)
	assert.Equal(t, "# hello\n", doc.RawDocument)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, doc.ImageFiles["hero"])
	assert.Equal(t, "hero.png", doc.ImageNames["hero"])
	assert.Len(t, doc.Content.Images(), 1)
}

func TestRead_MissingRequiredEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string][]byte
	}{
		{"no meta", map[string][]byte{
			"document.md":  []byte("x"),
			"document.xml": []byte(testMarkup),
		}},
		{"no raw document", map[string][]byte{
			"meta.json":    []byte(testMeta),
			"document.xml": []byte(testMarkup),
		}},
		{"no rendered document", map[string][]byte{
			"meta.json":   []byte(testMeta),
			"document.md": []byte("x"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(buildArchive(t, tt.entries))
			assert.ErrorIs(t, err, ErrBadArchive)
		})
	}
}

func TestRead_MissingImageReference(t *testing.T) {
	// The markup refers to an alias absent from the alias mapping.
	buf := buildArchive(t, map[string][]byte{
		"meta.json":    []byte(`{"documentTitle":"t","documentTags":[],"version":"v1","aliasMapping":{}}`),
		"document.md":  []byte("x"),
		"document.xml": []byte(testMarkup),
	})
	_, err := Read(buf)
	assert.ErrorIs(t, err, ErrMissingImageReference)

	// The mapping exists but the file itself is not in the archive.
	buf = buildArchive(t, map[string][]byte{
		"meta.json":    []byte(testMeta),
		"document.md":  []byte("x"),
		"document.xml": []byte(testMarkup),
	})
	_, err = Read(buf)
	assert.ErrorIs(t, err, ErrMissingImageReference)
}

func TestRead_NotGzip(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("plain text, not a gzip stream")))
	assert.ErrorIs(t, err, ErrBadArchive)
}
