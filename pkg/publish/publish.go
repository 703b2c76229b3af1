// Package publish decides which freshly built artifacts are genuinely new
// content and which are byte-identical re-builds of something already
// published.
//
// The package index is read-only to this system; "publish" here means
// classifying artifacts as KEEP (surface to the caller for upload) or
// DISCARD (delete, nothing new over the published bytes).
package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/datawire/dlib/dlog"

	"github.com/jorenham/compatbuild/pkg/build"
	"github.com/jorenham/compatbuild/pkg/index"
	"github.com/jorenham/compatbuild/pkg/matrix"
	"github.com/jorenham/compatbuild/pkg/reproducible"
	"github.com/jorenham/compatbuild/pkg/version"
)

type Action string

const (
	Keep    Action = "KEEP"
	Discard Action = "DISCARD"
)

// Decision is the verdict for one artifact.
type Decision struct {
	Path         string
	Kind         Kind
	PreviousHash string // "" when no previous entry exists
	CurrentHash  string
	Action       Action
}

// DeterminismError reports two builds of the same declared version string
// with different sdist content.  It must never be auto-resolved.
type DeterminismError struct {
	Version      string
	Path         string
	PreviousHash string
	CurrentHash  string
}

func (e *DeterminismError) Error() string {
	return fmt.Sprintf(
		"non-deterministic build: version %s was already published with sdist hash %s, "+
			"but %s hashes to %s",
		e.Version, e.PreviousHash, e.Path, e.CurrentHash)
}

type historyKey struct {
	bracket version.Version
	kind    Kind
}

type historyEntry struct {
	build int
	hash  string
}

// History is the previously-published-hash table, fetched once per run.
// Per bracket and kind only the highest build number is retained; older
// builds are superseded.
type History struct {
	skip bool
	prev map[historyKey]historyEntry
}

// SkipHistory is the query-skip mode: no remote call was made, and every
// artifact classifies as KEEP.
func SkipHistory() History {
	return History{skip: true}
}

// NewHistory builds the retained-hash table from a published file listing.
// Filenames that match neither grammar are ignored.
func NewHistory(files []index.File) History {
	h := History{prev: make(map[historyKey]historyEntry)}
	for _, file := range files {
		parsed, ok := ParseFilename(file.Filename)
		if !ok {
			continue
		}
		key := historyKey{bracket: parsed.Bracket, kind: parsed.Kind}
		if old, ok := h.prev[key]; ok && old.build >= parsed.Build {
			continue
		}
		h.prev[key] = historyEntry{build: parsed.Build, hash: file.SHA256()}
	}
	return h
}

// FetchHistory queries the index for the package family's published files
// and builds the retained-hash table.
func FetchHistory(ctx context.Context, client index.Client) (History, error) {
	files, err := client.ListFiles(ctx, matrix.Name)
	if err != nil {
		return History{}, err
	}
	return NewHistory(files), nil
}

// RetainedEntry is one row of the previously-published-hash table.
type RetainedEntry struct {
	Bracket version.Version
	Kind    Kind
	Build   int
	Hash    string
}

// Entries lists the retained table, ordered by bracket then kind.
func (h History) Entries() []RetainedEntry {
	entries := make([]RetainedEntry, 0, len(h.prev))
	for key, entry := range h.prev {
		entries = append(entries, RetainedEntry{
			Bracket: key.bracket,
			Kind:    key.kind,
			Build:   entry.build,
			Hash:    entry.hash,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if cmp := entries[i].Bracket.Cmp(entries[j].Bracket); cmp != 0 {
			return cmp < 0
		}
		return entries[i].Kind < entries[j].Kind
	})
	return entries
}

// Previous returns the retained entry for (bracket, kind), if any.
func (h History) Previous(bracket version.Version, kind Kind) (hash string, buildNum int, ok bool) {
	entry, ok := h.prev[historyKey{bracket: bracket.Stable(), kind: kind}]
	return entry.hash, entry.build, ok
}

// Decide classifies both artifacts of one build.  DISCARDed artifacts are
// removed from disk before Decide returns.
func (h History) Decide(ctx context.Context, p matrix.Project, result build.Result) ([]Decision, error) {
	bracket := p.NumpyRange.Start.Stable()
	decisions := make([]Decision, 0, 2)
	for _, artifact := range []struct {
		kind Kind
		path string
	}{
		{KindSdist, result.Sdist},
		{KindWheel, result.Wheel},
	} {
		hash, err := hashFile(artifact.path)
		if err != nil {
			return nil, err
		}
		decision := Decision{
			Path:        artifact.path,
			Kind:        artifact.kind,
			CurrentHash: hash,
			Action:      Keep,
		}
		if !h.skip {
			prevHash, prevBuild, ok := h.Previous(bracket, artifact.kind)
			if ok {
				decision.PreviousHash = prevHash
				switch {
				case prevHash == hash:
					decision.Action = Discard
				case prevBuild == reproducible.BuildNumber() && artifact.kind == KindSdist:
					// Same declared version string, different bytes: the
					// build is not reproducible.  Bail before anything
					// gets surfaced for upload.
					return nil, &DeterminismError{
						Version:      p.Version(),
						Path:         artifact.path,
						PreviousHash: prevHash,
						CurrentHash:  hash,
					}
				}
			}
		}
		if decision.Action == Discard {
			dlog.Infof(ctx, "%s: unchanged since last publish, discarding", filepath.Base(artifact.path))
			if err := os.Remove(artifact.path); err != nil {
				return nil, err
			}
		} else {
			dlog.Infof(ctx, "%s: new content, keeping for publish", filepath.Base(artifact.path))
		}
		decisions = append(decisions, decision)
	}
	return decisions, nil
}

func hashFile(filename string) (_ string, err error) {
	maybeSetErr := func(_err error) {
		if _err != nil && err == nil {
			err = _err
		}
	}
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer func() {
		maybeSetErr(file.Close())
	}()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
