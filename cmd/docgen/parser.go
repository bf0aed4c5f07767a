package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strings"
)

// StructDoc describes one config struct.
type StructDoc struct {
	Name   string
	Doc    string
	Fields []FieldDoc
}

// FieldDoc describes one field of a config struct.
type FieldDoc struct {
	Name     string
	GoType   string
	Key      string
	Required bool
	Doc      string
	Ignored  bool // yaml:"-"
}

// FileDoc is everything docgen extracts from a source file: its structs and
// the Default* constants declared next to them.
type FileDoc struct {
	Structs  []StructDoc
	Defaults map[string]string
}

// ParseFile parses filename. src is passed through to go/parser; nil means
// read the file from disk.
func ParseFile(filename string, src any) (*FileDoc, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	fd := &FileDoc{Defaults: make(map[string]string)}
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		switch gen.Tok {
		case token.TYPE:
			fd.Structs = append(fd.Structs, structsOf(gen)...)
		case token.CONST:
			collectDefaults(gen, fd.Defaults)
		}
	}
	return fd, nil
}

func structsOf(gen *ast.GenDecl) []StructDoc {
	var out []StructDoc
	for _, spec := range gen.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			continue
		}

		doc := StructDoc{Name: ts.Name.Name}
		switch {
		case ts.Doc != nil:
			doc.Doc = cleanComment(ts.Doc.Text())
		case gen.Doc != nil:
			doc.Doc = cleanComment(gen.Doc.Text())
		}

		for _, field := range st.Fields.List {
			doc.Fields = append(doc.Fields, parseField(field)...)
		}
		out = append(out, doc)
	}
	return out
}

// collectDefaults records constants named Default<Field> whose value is a
// basic literal.
func collectDefaults(gen *ast.GenDecl, into map[string]string) {
	for _, spec := range gen.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range vs.Names {
			field, ok := strings.CutPrefix(name.Name, "Default")
			if !ok || field == "" || i >= len(vs.Values) {
				continue
			}
			if lit, ok := vs.Values[i].(*ast.BasicLit); ok {
				into[field] = lit.Value
			}
		}
	}
}

func parseField(field *ast.Field) []FieldDoc {
	goType := typeToString(field.Type)

	var comment string
	switch {
	case field.Doc != nil:
		comment = cleanComment(field.Doc.Text())
	case field.Comment != nil:
		comment = cleanComment(field.Comment.Text())
	}

	names := make([]string, 0, len(field.Names))
	for _, n := range field.Names {
		names = append(names, n.Name)
	}
	if len(names) == 0 {
		// embedded
		names = append(names, goType)
	}

	docs := make([]FieldDoc, 0, len(names))
	for _, name := range names {
		doc := FieldDoc{Name: name, GoType: goType, Doc: comment}
		tag := ""
		if field.Tag != nil {
			tag = field.Tag.Value
		}
		parseTag(tag, &doc)
		docs = append(docs, doc)
	}
	return docs
}

// parseTag fills Key, Required and Ignored from a raw struct tag literal.
// Fields without a yaml tag use the lowercased field name, as the YAML
// decoder does.
func parseTag(tagValue string, doc *FieldDoc) {
	tag := reflect.StructTag(strings.Trim(tagValue, "`"))

	yamlTag, ok := tag.Lookup("yaml")
	if !ok {
		doc.Key = strings.ToLower(doc.Name)
		doc.Required = true
		return
	}

	name, opts, _ := strings.Cut(yamlTag, ",")
	if name == "-" {
		doc.Ignored = true
		return
	}
	doc.Key = name
	if doc.Key == "" {
		doc.Key = strings.ToLower(doc.Name)
	}
	doc.Required = true
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			doc.Required = false
		}
	}
}

// typeToString renders an AST type expression as Go source.
func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return "[...]" + typeToString(t.Elt)
	case *ast.MapType:
		return "map[" + typeToString(t.Key) + "]" + typeToString(t.Value)
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.InterfaceType:
		return "any"
	default:
		return "any"
	}
}

func cleanComment(s string) string {
	return strings.TrimSpace(s)
}

// keyPaths maps every struct reachable from root to the dotted YAML path it
// is decoded at. root itself maps to "".
func keyPaths(structs []StructDoc, root string) map[string]string {
	byName := make(map[string]StructDoc, len(structs))
	for _, s := range structs {
		byName[s.Name] = s
	}

	paths := map[string]string{root: ""}
	queue := []string{root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, f := range byName[name].Fields {
			child := strings.TrimLeft(f.GoType, "*[]")
			if _, ok := byName[child]; !ok || f.Ignored {
				continue
			}
			if _, done := paths[child]; done {
				continue
			}
			paths[child] = paths[name] + f.Key + "."
			queue = append(queue, child)
		}
	}
	return paths
}
