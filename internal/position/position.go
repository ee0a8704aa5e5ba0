// Package position tracks source locations for the cito front end so
// lexer tokens, AST nodes, and CLI diagnostics can all point back at the
// same line of the same file.
package position

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Position is a single point in a source file.
type Position struct {
	Filename string
	Line     int // 1-based
	Column   int // 1-based
	Offset   int // 0-based byte offset
}

// IsValid reports whether the position was ever set.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// String renders "file:line:col", or "line:col" when Filename is empty.
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SourceFile holds the content of one input file plus its line index, so
// callers can print the offending line alongside a diagnostic.
type SourceFile struct {
	Filename string
	Content  string
	Lines    []string
}

// NewSourceFile splits content into lines eagerly; cito source files are
// small enough that this is cheaper than lazily indexing newlines later.
func NewSourceFile(filename, content string) *SourceFile {
	return &SourceFile{
		Filename: filename,
		Content:  content,
		Lines:    strings.Split(content, "\n"),
	}
}

// GetLine returns the given 1-based line, or "" if out of range.
func (sf *SourceFile) GetLine(lineNum int) string {
	if lineNum < 1 || lineNum > len(sf.Lines) {
		return ""
	}
	return sf.Lines[lineNum-1]
}

// SourceMap tracks every file seen during a single cic invocation, so a
// multi-file build can point a diagnostic back at the right source line.
type SourceMap struct {
	files map[string]*SourceFile
}

// NewSourceMap creates an empty source map.
func NewSourceMap() *SourceMap {
	return &SourceMap{files: make(map[string]*SourceFile)}
}

// AddFile registers a file's content and returns its SourceFile.
func (sm *SourceMap) AddFile(filename, content string) *SourceFile {
	file := NewSourceFile(filename, content)
	sm.files[filename] = file
	return file
}

// GetLine returns the source line at pos, or "" if the file is unknown.
func (sm *SourceMap) GetLine(pos Position) string {
	file := sm.files[pos.Filename]
	if file == nil {
		return ""
	}
	return file.GetLine(pos.Line)
}
