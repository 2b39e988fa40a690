package gen

import (
	"go/ast"
	"go/parser"
	"go/token"

	"go.uber.org/zap"

	"github.com/wippyai/hostbind/descriptor"
	"github.com/wippyai/hostbind/errors"
)

// Unit is one generated binding: the formatted source for a single
// function's entry point, trampolines, and registration thunk, plus the
// parsed form for callers that inspect rather than write.
type Unit struct {
	Fn        *descriptor.Function
	Plan      *Plan
	EntryName string
	Source    []byte
	File      *ast.File
	Fset      *token.FileSet
}

// Generator emits binding units into a target package.
type Generator struct {
	// Package is the package clause of every emitted unit.
	Package string
}

func NewGenerator(pkg string) *Generator {
	if pkg == "" {
		pkg = "bindings"
	}
	return &Generator{Package: pkg}
}

// Generate plans fn and emits its binding unit.
func (g *Generator) Generate(fn *descriptor.Function) (*Unit, error) {
	plan, err := NewPlan(fn)
	if err != nil {
		return nil, err
	}

	name := entryName(fn)
	entry, ifaces, holders := entryDecl(plan, name)

	decls := make([]string, 0, len(holders)+2)
	decls = append(decls, holders...)
	decls = append(decls, entry)
	if reg := registerDecl(plan, name); reg != "" {
		decls = append(decls, reg)
	}

	src, err := assemble(g.Package, name, decls, ifaces)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name+".go", src, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "reparse formatted unit")
	}

	Logger().Debug("generated binding unit",
		zap.String("function", fn.Signature()),
		zap.String("entry", name),
		zap.Int("slots", plan.SlotCount))

	return &Unit{
		Fn:        fn,
		Plan:      plan,
		EntryName: name,
		Source:    src,
		File:      file,
		Fset:      fset,
	}, nil
}

// GenerateAll emits one unit per descriptor, in order.
func (g *Generator) GenerateAll(fns []*descriptor.Function) ([]*Unit, error) {
	units := make([]*Unit, 0, len(fns))
	for _, fn := range fns {
		u, err := g.Generate(fn)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, fn.Name)
		}
		units = append(units, u)
	}
	return units, nil
}
