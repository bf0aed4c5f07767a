package main

import (
	"fmt"
	"io"
	"strings"
)

// maxDescription bounds a table cell so rows stay readable in raw markdown.
const maxDescription = 200

// MarkdownGenerator writes config reference pages.
type MarkdownGenerator struct {
	w io.Writer
}

func NewMarkdownGenerator(w io.Writer) *MarkdownGenerator {
	return &MarkdownGenerator{w: w}
}

// printf ignores write errors; the caller checks the error of the file it
// eventually closes.
func (g *MarkdownGenerator) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.w, format, args...)
}

func (g *MarkdownGenerator) WriteHeader(title, description string) {
	g.printf("# %s\n\n", title)
	if description != "" {
		g.printf("%s\n\n", description)
	}
	g.printf("> Generated from `pkg/config` with `go generate ./cmd/docgen`. Do not edit.\n\n")
}

// WriteStruct writes one struct as a table of its YAML keys. prefix is the
// dotted path the struct is decoded at.
func (g *MarkdownGenerator) WriteStruct(doc StructDoc, prefix string, defaults map[string]string) {
	title := doc.Name
	if prefix != "" {
		title = fmt.Sprintf("%s (`%s`)", doc.Name, strings.TrimSuffix(prefix, "."))
	}
	g.printf("## %s\n\n", title)
	if doc.Doc != "" {
		g.printf("%s\n\n", doc.Doc)
	}

	var fields []FieldDoc
	for _, f := range doc.Fields {
		if !f.Ignored {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		g.printf("_No documented fields._\n\n")
		return
	}

	g.printf("| Key | Type | Required | Default | Description |\n")
	g.printf("|-----|------|----------|---------|-------------|\n")
	for _, f := range fields {
		def, hasDefault := defaults[f.Name]
		required := "No"
		if f.Required && !hasDefault && !strings.HasPrefix(f.GoType, "*") {
			required = "Yes"
		}
		if hasDefault {
			def = "`" + strings.Trim(def, `"`) + "`"
		} else {
			def = "-"
		}
		g.printf("| `%s%s` | %s | %s | %s | %s |\n",
			prefix, f.Key, formatType(f.GoType), required, def, formatDescription(f.Doc))
	}
	g.printf("\n")
}

func formatDescription(doc string) string {
	desc := strings.ReplaceAll(doc, "|", "\\|")
	desc = strings.ReplaceAll(desc, "\n", " ")
	if len(desc) > maxDescription {
		desc = desc[:maxDescription-3] + "..."
	}
	return desc
}

// formatType code-quotes composite types.
func formatType(t string) string {
	if strings.ContainsAny(t, "[*.") {
		return "`" + t + "`"
	}
	return t
}

// WriteExample writes a fenced YAML example.
func (g *MarkdownGenerator) WriteExample(example string) {
	g.printf("## Example\n\n```yaml\n%s```\n", example)
}

// GenerateConfigDoc writes the reference page for the structs reachable from
// root, in source order.
func GenerateConfigDoc(w io.Writer, title, description, root string, fd *FileDoc, example string) error {
	paths := keyPaths(fd.Structs, root)

	var ordered []StructDoc
	for _, s := range fd.Structs {
		if _, ok := paths[s.Name]; ok {
			ordered = append(ordered, s)
		}
	}
	if len(ordered) == 0 {
		return fmt.Errorf("struct %s not found", root)
	}

	gen := NewMarkdownGenerator(w)
	gen.WriteHeader(title, description)
	for _, s := range ordered {
		gen.WriteStruct(s, paths[s.Name], fd.Defaults)
	}
	if example != "" {
		gen.WriteExample(example)
	}
	return nil
}
