// Package codegen defines the boundary between a finished ast.Program and
// a target-language emitter. Nine of the ten registered targets are
// unimplemented stubs; sexpr is the one real generator, enough to drive a
// full lex-parse-emit round trip through cic build and the test suite.
package codegen

import (
	"errors"
	"fmt"

	"github.com/Marco012/cito/internal/ast"
)

// ErrGeneratorNotImplemented is wrapped into every stub generator's error.
var ErrGeneratorNotImplemented = errors.New("generator not implemented")

// Generator lowers a finished Program into a target language's source
// text.
type Generator interface {
	Name() string
	Generate(p *ast.Program) (string, error)
}

type stubGenerator struct{ name string }

func (g stubGenerator) Name() string { return g.name }

func (g stubGenerator) Generate(*ast.Program) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrGeneratorNotImplemented, g.name)
}

// stubTargets lists the back ends the original tool supports but this
// port does not implement.
var stubTargets = []string{
	"c", "cpp", "csharp", "java", "javascript", "typescript", "python",
	"swift", "openclc",
}

// Registry returns a fresh map of every known target name to its
// Generator, keyed by name.
func Registry() map[string]Generator {
	reg := make(map[string]Generator, len(stubTargets)+1)
	for _, name := range stubTargets {
		reg[name] = stubGenerator{name: name}
	}
	reg["sexpr"] = &SexprGenerator{}
	return reg
}
