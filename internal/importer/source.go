package importer

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Candidate is one raw document offered for import together with a
// human-meaningful reference to where it came from.
type Candidate struct {
	Raw       []byte
	SourceRef string
}

// Source yields import candidates one at a time. Next returns io.EOF
// when the source is exhausted. Sources are consumed by a single
// goroutine and need not be safe for concurrent use.
type Source interface {
	Next(ctx context.Context) (Candidate, error)
}

// DirSource walks a directory tree for .txt files and yields them in
// sorted path order. The source reference of each candidate is the
// path relative to the root, with forward slashes.
type DirSource struct {
	root  string
	paths []string
	next  int
}

// NewDirSource collects the .txt files under root. The walk happens
// eagerly so the candidate count is known before import starts.
func NewDirSource(root string) (*DirSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	var paths []string
	err = filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".txt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return &DirSource{root: abs, paths: paths}, nil
}

// Len returns the number of candidates the source will yield.
func (s *DirSource) Len() int {
	return len(s.paths)
}

func (s *DirSource) Next(ctx context.Context) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	if s.next >= len(s.paths) {
		return Candidate{}, io.EOF
	}
	path := s.paths[s.next]
	s.next++

	raw, err := os.ReadFile(path)
	if err != nil {
		return Candidate{}, err
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return Candidate{Raw: raw, SourceRef: filepath.ToSlash(rel)}, nil
}

// SliceSource yields a fixed set of candidates. Used by tests and by
// callers that already hold documents in memory.
type SliceSource struct {
	candidates []Candidate
	next       int
}

func NewSliceSource(candidates []Candidate) *SliceSource {
	return &SliceSource{candidates: candidates}
}

func (s *SliceSource) Len() int {
	return len(s.candidates)
}

func (s *SliceSource) Next(ctx context.Context) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	if s.next >= len(s.candidates) {
		return Candidate{}, io.EOF
	}
	candidate := s.candidates[s.next]
	s.next++
	return candidate, nil
}
