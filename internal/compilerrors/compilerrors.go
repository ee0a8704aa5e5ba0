// Package compilerrors defines the single structured error kind the cito
// front end ever returns: a parse failure carrying a filename, a 1-based
// line, and a human-readable message. There is no recovery and no warning
// kind at this layer — the first violation aborts the parse.
package compilerrors

import "fmt"

// Category classifies a CompileError for reporting purposes only; it never
// changes how the error propagates.
type Category string

const (
	// CategoryLexical covers bad characters, malformed numbers, and
	// unterminated strings or native blocks.
	CategoryLexical Category = "lexical"
	// CategoryStructural covers unexpected tokens and missing punctuators.
	CategoryStructural Category = "structural"
	// CategoryContextual covers break/continue misuse, duplicate
	// constructors, illegal modifier combinations, wrong generic arity,
	// xcrement violations, case-after-default, and similar rule
	// violations the grammar alone can't reject.
	CategoryContextual Category = "contextual"
)

// CompileError is the one error kind the lexer and parser ever produce.
type CompileError struct {
	Filename string
	Line     int
	Category Category
	Message  string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: %s error: %s", e.Filename, e.Line, e.Category, e.Message)
}

// New constructs a CompileError.
func New(filename string, line int, category Category, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Filename: filename,
		Line:     line,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Lexical constructs a CategoryLexical CompileError.
func Lexical(filename string, line int, format string, args ...interface{}) *CompileError {
	return New(filename, line, CategoryLexical, format, args...)
}

// Structural constructs a CategoryStructural CompileError.
func Structural(filename string, line int, format string, args ...interface{}) *CompileError {
	return New(filename, line, CategoryStructural, format, args...)
}

// Contextual constructs a CategoryContextual CompileError.
func Contextual(filename string, line int, format string, args ...interface{}) *CompileError {
	return New(filename, line, CategoryContextual, format, args...)
}

// Diagnostics collects one CompileError per failed file across a multi-file
// cic invocation. Each individual file is still parsed to first-failure;
// this type only lets the CLI report several independent file failures
// from one command.
type Diagnostics struct {
	Errors []*CompileError
}

// Add appends a failure.
func (d *Diagnostics) Add(err *CompileError) {
	d.Errors = append(d.Errors, err)
}

// HasErrors reports whether any file failed.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Count returns the number of recorded failures.
func (d *Diagnostics) Count() int {
	return len(d.Errors)
}
