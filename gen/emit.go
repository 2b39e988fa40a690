package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/wippyai/hostbind/errors"
)

// block accumulates indented source lines for one declaration.
type block struct {
	lines  []string
	indent int
}

func (b *block) in()  { b.indent++ }
func (b *block) out() { b.indent-- }

func (b *block) line(format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	if s == "" {
		b.lines = append(b.lines, "")
		return
	}
	b.lines = append(b.lines, strings.Repeat("\t", b.indent)+s)
}

func (b *block) String() string {
	return strings.Join(b.lines, "\n")
}

// errReturn emits the conversion short-circuit: any failure aborts
// marshalling for the call with a null handle and the error.
func errReturn(b *block) {
	b.line("if err != nil {")
	b.in()
	b.line("return hostabi.Null(), err")
	b.out()
	b.line("}")
}

const header = "// Code generated by hostbind. DO NOT EDIT.\n\n"

// assemble renders the unit: declarations are joined, parsed, the
// synthesized callback interfaces are spliced into the head of the entry
// function's body block, and the result is printed and formatted. The
// splice works on the parsed AST rather than text so scope stays correct
// by construction.
func assemble(pkg, entryName string, decls []string, ifaceDecls []string) ([]byte, error) {
	var raw bytes.Buffer
	fmt.Fprintf(&raw, "package %s\n\n", pkg)
	raw.WriteString("import (\n\t\"github.com/wippyai/hostbind/hostabi\"\n)\n\n")
	for _, d := range decls {
		raw.WriteString(d)
		raw.WriteString("\n\n")
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, entryName+".go", raw.Bytes(), parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "parse generated unit")
	}

	if len(ifaceDecls) > 0 {
		entry := findFunc(file, entryName)
		if entry == nil {
			return nil, errors.NotFound(errors.PhaseEmit, "entry function", entryName)
		}
		for i := len(ifaceDecls) - 1; i >= 0; i-- {
			stmt, err := parseDeclStmt(fset, ifaceDecls[i])
			if err != nil {
				return nil, err
			}
			entry.Body.List = append([]ast.Stmt{stmt}, entry.Body.List...)
		}
	}

	var out bytes.Buffer
	out.WriteString(header)
	if err := printer.Fprint(&out, fset, file); err != nil {
		return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "print generated unit")
	}

	formatted, err := imports.Process(entryName+".go", out.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "format generated unit")
	}
	return formatted, nil
}

func findFunc(file *ast.File, name string) *ast.FuncDecl {
	for _, decl := range file.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Name.Name == name {
			return fd
		}
	}
	return nil
}

// parseDeclStmt parses a single top-level declaration into a statement
// node suitable for insertion into a body block.
func parseDeclStmt(fset *token.FileSet, src string) (ast.Stmt, error) {
	file, err := parser.ParseFile(fset, "synth.go", "package synth\n\n"+src, parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "parse synthesized declaration")
	}
	if len(file.Decls) == 0 {
		return nil, errors.InvalidInput(errors.PhaseEmit, "synthesized declaration is empty")
	}
	gd, ok := file.Decls[0].(*ast.GenDecl)
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseEmit, "synthesized declaration is not a type declaration")
	}
	clearPositions(gd)
	return &ast.DeclStmt{Decl: gd}, nil
}

// clearPositions drops position info from a spliced node so the printer
// lays it out relative to its new location.
func clearPositions(n ast.Node) {
	ast.Inspect(n, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			n.NamePos = token.NoPos
		case *ast.GenDecl:
			n.TokPos = token.NoPos
		case *ast.TypeSpec:
			n.Assign = token.NoPos
		case *ast.InterfaceType:
			n.Interface = token.NoPos
		case *ast.FieldList:
			n.Opening = token.NoPos
			n.Closing = token.NoPos
		case *ast.FuncType:
			n.Func = token.NoPos
		}
		return true
	})
}
