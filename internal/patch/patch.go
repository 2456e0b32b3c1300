// Package patch computes line-granularity patch pairs between two text
// blobs using the diff-match-patch algorithm, serialized in its textual
// patch format. Applying Forward to the before text reproduces the after
// text; applying Reverse to the after text recovers the before text.
package patch

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

type Pair struct {
	Forward string
	Reverse string
}

// MakePair builds the forward and reverse patches between before and
// after. Pure and deterministic for identical inputs.
func MakePair(before, after string) Pair {
	dmp := diffmatchpatch.New()
	return Pair{
		Forward: makePatch(dmp, before, after),
		Reverse: makePatch(dmp, after, before),
	}
}

// Apply applies a serialized patch to text. Used by recovery tooling and
// tests; ingestion only produces patches.
func Apply(text, serialized string) (string, error) {
	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(serialized)
	if err != nil {
		return "", err
	}
	applied, _ := dmp.PatchApply(patches, text)
	return applied, nil
}

func makePatch(dmp *diffmatchpatch.DiffMatchPatch, from, to string) string {
	// Line-mode diff: run the character diff over line tokens, then
	// rehydrate the lines before serializing.
	fromRunes, toRunes, lines := dmp.DiffLinesToRunes(from, to)
	diffs := dmp.DiffMainRunes(fromRunes, toRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	return dmp.PatchToText(dmp.PatchMake(from, diffs))
}
