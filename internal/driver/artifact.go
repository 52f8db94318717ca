package driver

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Artifact is the serialized instantiation report: every template the run
// materialized, with the use sites that demanded it. Encoded as msgpack so
// downstream tooling can diff runs cheaply.
type Artifact struct {
	Package string          `msgpack:"package"`
	Entries []ArtifactEntry `msgpack:"entries"`
}

type ArtifactEntry struct {
	Kind     string            `msgpack:"kind"`
	Mangled  string            `msgpack:"mangled"`
	UseSites []ArtifactUseSite `msgpack:"use_sites"`
}

type ArtifactUseSite struct {
	File string `msgpack:"file"`
	Line uint32 `msgpack:"line"`
	Col  uint32 `msgpack:"col"`
	Note string `msgpack:"note,omitempty"`
}

// BuildArtifact merges the per-file instantiation reports. Entries with the
// same mangled name collapse into one, accumulating use sites; the result is
// sorted by mangled name for stable diffs.
func BuildArtifact(pkg string, comps []*Compilation) Artifact {
	merged := make(map[string]*ArtifactEntry)
	for _, c := range comps {
		if c == nil {
			continue
		}
		file := c.FileSet.Get(c.FileID)
		for _, entry := range c.Ctx.Report.Entries() {
			out, ok := merged[entry.Mangled]
			if !ok {
				out = &ArtifactEntry{Kind: entry.Kind.String(), Mangled: entry.Mangled}
				merged[entry.Mangled] = out
			}
			for _, site := range entry.UseSites {
				use := ArtifactUseSite{File: file.Path, Note: site.Note}
				if pos, ok := c.FileSet.Position(site.Span); ok {
					use.Line = pos.Line
					use.Col = pos.Col
				}
				out.UseSites = append(out.UseSites, use)
			}
		}
	}
	entries := make([]ArtifactEntry, 0, len(merged))
	for _, entry := range merged {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Mangled < entries[j].Mangled
	})
	return Artifact{Package: pkg, Entries: entries}
}

// WriteArtifact encodes the artifact onto w.
func WriteArtifact(w io.Writer, a Artifact) error {
	return msgpack.NewEncoder(w).Encode(a)
}

// ReadArtifact decodes an artifact previously written by WriteArtifact.
func ReadArtifact(r io.Reader) (Artifact, error) {
	var a Artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return Artifact{}, fmt.Errorf("failed to decode instantiation report: %w", err)
	}
	return a, nil
}

// SaveArtifact writes the artifact to path.
func SaveArtifact(path string, a Artifact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteArtifact(f, a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
