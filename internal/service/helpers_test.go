package service

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

type bundleSpec struct {
	title   string
	tags    []string
	version string
	rawDoc  string
	// images maps an alias to the archived file bytes; the archive file
	// name is derived as <alias>.png.
	images map[string][]byte
}

// writeBundle materializes a bundleSpec as a tar.gz file and returns
// its path. The rendered markup carries one img tag per alias.
func writeBundle(t *testing.T, spec bundleSpec) string {
	t.Helper()

	aliases := make([]string, 0, len(spec.images))
	for alias := range spec.images {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var markupBuf bytes.Buffer
	markupBuf.WriteString("<article><h1>" + spec.title + "</h1><p>body</p>")
	for _, alias := range aliases {
		markupBuf.WriteString(fmt.Sprintf(`<img alias=%q/>`, alias))
	}
	markupBuf.WriteString("</article>")

	aliasMapping := make(map[string]string, len(aliases))
	for _, alias := range aliases {
		aliasMapping[alias] = alias + ".png"
	}
	meta, err := json.Marshal(map[string]interface{}{
		"documentTitle": spec.title,
		"documentTags":  spec.tags,
		"version":       spec.version,
		"aliasMapping":  aliasMapping,
	})
	require.NoError(t, err)

	entries := map[string][]byte{
		"meta.json":    meta,
		"document.md":  []byte(spec.rawDoc),
		"document.xml": markupBuf.Bytes(),
	}
	for alias, data := range spec.images {
		entries["img/"+alias+".png"] = data
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, data := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(data)),
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "bundle.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// pngBytes encodes a deterministic PNG; vary seed to get distinct files.
func pngBytes(t *testing.T, width, height int, seed uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x%256) ^ seed, G: uint8(y % 256), B: seed, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
