// Package archive reads and validates a bundled article archive: a
// gzip-compressed tar holding the article metadata, the raw markdown
// source, the rendered markup, and the image files the markup refers to.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/emrgen/blog/internal/markup"
)

const (
	metaFileName        = "meta.json"
	rawDocFileName      = "document.md"
	compiledDocFileName = "document.xml"
	imageSourceDir      = "img"

	imageAliasAttr = "alias"
)

var (
	// ErrBadArchive is returned when the archive cannot be read or a
	// required entry is missing or malformed.
	ErrBadArchive = errors.New("malformed or incomplete article archive")
	// ErrMissingImageReference is returned when the rendered markup refers
	// to an image alias the archive does not provide.
	ErrMissingImageReference = errors.New("image reference missing from archive")
)

type meta struct {
	DocumentTitle string            `json:"documentTitle"`
	DocumentTags  []string          `json:"documentTags"`
	Version       string            `json:"version"`
	AliasMapping  map[string]string `json:"aliasMapping"`
}

// ValidatedDocument is the fully parsed submission. No partial value is
// ever returned; validation either yields all parts or fails.
type ValidatedDocument struct {
	Title       string
	Tags        []string
	Version     string
	RawDocument string
	Content     *markup.Document
	// ImageFiles maps each markup-referenced alias to the archived bytes.
	ImageFiles map[string][]byte
	// ImageNames maps each alias to its archive-relative file name.
	ImageNames map[string]string
}

// Read consumes a gzip tar stream and validates it into a
// ValidatedDocument.
func Read(r io.Reader) (*ValidatedDocument, error) {
	entries, err := readEntries(r)
	if err != nil {
		return nil, err
	}

	metaRaw, ok := entries[metaFileName]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrBadArchive, metaFileName)
	}
	var m meta
	if err := json.Unmarshal(metaRaw, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrBadArchive, metaFileName, err)
	}

	rawDoc, ok := entries[rawDocFileName]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrBadArchive, rawDocFileName)
	}

	compiledRaw, ok := entries[compiledDocFileName]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrBadArchive, compiledDocFileName)
	}
	content, err := markup.Parse(bytes.NewReader(compiledRaw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrBadArchive, compiledDocFileName, err)
	}

	// Every image tag in the markup must resolve through the alias
	// mapping to a file in the archive.
	imageFiles := make(map[string][]byte)
	imageNames := make(map[string]string)
	for _, imageTag := range content.Images() {
		alias, ok := imageTag.GetAttribute(imageAliasAttr)
		if !ok || alias == "" {
			return nil, fmt.Errorf("%w: image tag without %s attribute", ErrBadArchive, imageAliasAttr)
		}
		fileName, ok := m.AliasMapping[alias]
		if !ok {
			return nil, fmt.Errorf("%w: alias %q has no mapping entry", ErrMissingImageReference, alias)
		}
		data, ok := entries[path.Join(imageSourceDir, fileName)]
		if !ok {
			return nil, fmt.Errorf("%w: alias %q maps to missing file %q", ErrMissingImageReference, alias, fileName)
		}
		imageFiles[alias] = data
		imageNames[alias] = fileName
	}

	return &ValidatedDocument{
		Title:       m.DocumentTitle,
		Tags:        m.DocumentTags,
		Version:     m.Version,
		RawDocument: string(rawDoc),
		Content:     content,
		ImageFiles:  imageFiles,
		ImageNames:  imageNames,
	}, nil
}

func readEntries(r io.Reader) (map[string][]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadArchive, err)
	}
	defer gz.Close()

	entries := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadArchive, err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadArchive, err)
		}
		entries[normalizeName(header.Name)] = data
	}

	return entries, nil
}

func normalizeName(name string) string {
	return path.Clean(strings.TrimPrefix(name, "./"))
}
