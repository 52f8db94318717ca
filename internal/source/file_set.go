package source

import (
	"fmt"
	"os"
	"sort"

	"fortio.org/safecast"
)

// FileSet owns every source file of a compilation and resolves spans back to
// line/column positions.
type FileSet struct {
	files []File
	index map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores normalized content under path and returns a fresh FileID. A path
// seen twice gets a new ID; the index always points at the latest version.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	lineIdx := buildLineIndex(content)
	normalized := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len(files) overflow: %w", err))
	}
	id := FileID(lenFiles)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: lineIdx,
		Flags:   flags,
	})
	fs.index[normalized] = id
	return id
}

// AddVirtual stores in-memory content (tests, stdin) without touching disk.
func (fs *FileSet) AddVirtual(path string, content []byte) FileID {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	flags := FileVirtual
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags)
}

// Load reads a file from disk, normalizes BOM/CRLF, and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// Get returns the file for id, or nil when id is out of range.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the latest FileID registered under path.
func (fs *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := fs.index[normalizePath(path)]
	return id, ok
}

// Len returns the number of stored files.
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Position converts a span start offset into a 1-based line/column pair.
func (fs *FileSet) Position(sp Span) (LineCol, bool) {
	f := fs.Get(sp.File)
	if f == nil || sp.Start > uint32(len(f.Content)) {
		return LineCol{}, false
	}
	line := sort.Search(len(f.LineIdx), func(i int) bool {
		return f.LineIdx[i] > sp.Start
	})
	var lineStart uint32
	if line > 0 {
		lineStart = f.LineIdx[line-1]
	}
	return LineCol{
		Line: uint32(line) + 1,
		Col:  sp.Start - lineStart + 1,
	}, true
}

// Line returns the content of the 1-based line, without the trailing newline.
func (fs *FileSet) Line(id FileID, line uint32) ([]byte, bool) {
	f := fs.Get(id)
	if f == nil || line == 0 {
		return nil, false
	}
	idx := int(line) - 1
	var start uint32
	if idx > 0 {
		if idx-1 >= len(f.LineIdx) {
			return nil, false
		}
		start = f.LineIdx[idx-1]
	}
	end := uint32(len(f.Content))
	if idx < len(f.LineIdx) {
		end = f.LineIdx[idx] - 1
	}
	if start > end {
		return nil, false
	}
	return f.Content[start:end], true
}
