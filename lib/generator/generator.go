// Package generator writes the two main packages of a lex page: the build
// binary, which renders the page into HTML, and the client binary, which
// hydrates it in the browser. Both are generated from the same component
// references so they cannot drift apart.
package generator

import (
	"bufio"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const lexImport = "github.com/pthm/lex"

var (
	ErrNoModule        = errors.New("generator: no go.mod found")
	ErrNotAComponent   = errors.New("generator: not a component")
	ErrMissingPageName = errors.New("generator: page reference needs a name")
)

// Options configures the generator.
type Options struct {
	// Out is the directory the mains are written to, as Out/build and
	// Out/client. Defaults to ".lex".
	Out    string
	DryRun bool
	Logger *slog.Logger
}

// Generator generates lex entry mains.
type Generator struct {
	opts   Options
	fset   *token.FileSet
	logger *slog.Logger
}

// New creates a new generator.
func New(opts Options) *Generator {
	if opts.Out == "" {
		opts.Out = ".lex"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		opts:   opts,
		fset:   token.NewFileSet(),
		logger: logger.With("component", "generator"),
	}
}

// BuildDir is where the build main is written.
func (g *Generator) BuildDir() string {
	return filepath.Join(g.opts.Out, "build")
}

// ClientDir is where the client main is written.
func (g *Generator) ClientDir() string {
	return filepath.Join(g.opts.Out, "client")
}

// Generate checks the references in e and writes both mains.
func (g *Generator) Generate(e Entry) error {
	if err := g.check(e); err != nil {
		return err
	}

	build, err := BuildSource(e)
	if err != nil {
		return fmt.Errorf("build main: %w", err)
	}
	client, err := ClientSource(e)
	if err != nil {
		return fmt.Errorf("client main: %w", err)
	}

	if err := g.write(g.BuildDir(), build); err != nil {
		return err
	}
	return g.write(g.ClientDir(), client)
}

// Clean removes the generated mains.
func (g *Generator) Clean() error {
	for _, dir := range []string{g.BuildDir(), g.ClientDir()} {
		path := filepath.Join(dir, mainFile)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		g.logger.Info("removing", "path", path)
		if g.opts.DryRun {
			continue
		}
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) write(dir string, code []byte) error {
	path := filepath.Join(dir, mainFile)
	g.logger.Info("generating", "path", path)
	if g.opts.DryRun {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, code, 0o644)
}

// check verifies the references that carry a directory.
func (g *Generator) check(e Entry) error {
	refs := []Ref{e.Page}
	if e.Layout != nil {
		refs = append(refs, *e.Layout)
	}
	for _, ref := range refs {
		if ref.Name == "" {
			return fmt.Errorf("%w: %q", ErrMissingPageName, ref.Import)
		}
		if ref.Dir == "" {
			continue
		}
		names, err := g.Components(ref.Dir)
		if err != nil {
			return err
		}
		i := sort.SearchStrings(names, ref.Name)
		if i == len(names) || names[i] != ref.Name {
			return fmt.Errorf("%w: %s.%s (found %s)", ErrNotAComponent, ref.Import, ref.Name, strings.Join(names, ", "))
		}
	}
	return nil
}

// Components returns the sorted names of the exported component functions
// declared in the package at dir: top-level funcs shaped
// func(*lex.Renderer, lex.Props) any.
func (g *Generator) Components(dir string) ([]string, error) {
	pkgs, err := parser.ParseDir(g.fset, dir, func(info os.FileInfo) bool {
		return !strings.HasSuffix(info.Name(), "_test.go")
	}, 0)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, pkg := range pkgs {
		for _, file := range pkg.Files {
			names = append(names, findComponents(file)...)
		}
	}
	sort.Strings(names)
	return names, nil
}

// findComponents returns the component functions declared in file.
func findComponents(file *ast.File) []string {
	alias := lexAlias(file)
	if alias == "" {
		return nil
	}

	var names []string
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !fn.Name.IsExported() {
			continue
		}
		if isComponentSignature(fn.Type, alias) {
			names = append(names, fn.Name.Name)
		}
	}
	return names
}

// lexAlias returns the name the file imports lex under, or "".
func lexAlias(file *ast.File) string {
	for _, imp := range file.Imports {
		if strings.Trim(imp.Path.Value, `"`) != lexImport {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name
		}
		return "lex"
	}
	return ""
}

func isComponentSignature(ft *ast.FuncType, alias string) bool {
	params := flattenFields(ft.Params)
	if len(params) != 2 || ft.Results == nil || len(flattenFields(ft.Results)) != 1 {
		return false
	}
	if typeToString(params[0]) != "*"+alias+".Renderer" || typeToString(params[1]) != alias+".Props" {
		return false
	}
	switch typeToString(ft.Results.List[0].Type) {
	case "any", "interface{}":
		return true
	default:
		return false
	}
}

// flattenFields expands grouped fields such as (a, b int) into one type
// per name.
func flattenFields(fl *ast.FieldList) []ast.Expr {
	if fl == nil {
		return nil
	}
	var out []ast.Expr
	for _, f := range fl.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for range n {
			out = append(out, f.Type)
		}
	}
	return out
}

// typeToString converts an AST type to a string representation.
func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{...}"
	default:
		return fmt.Sprintf("%T", expr)
	}
}

// ResolveImport returns the import path of the package in dir, derived from
// the nearest enclosing go.mod.
func ResolveImport(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for root := abs; ; root = filepath.Dir(root) {
		module, err := modulePath(filepath.Join(root, "go.mod"))
		if err == nil {
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				return "", err
			}
			if rel == "." {
				return module, nil
			}
			return module + "/" + filepath.ToSlash(rel), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		if filepath.Dir(root) == root {
			return "", fmt.Errorf("%w above %s", ErrNoModule, dir)
		}
	}
}

func modulePath(gomod string) (string, error) {
	f, err := os.Open(gomod)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "module"); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%s: no module directive", gomod)
}
