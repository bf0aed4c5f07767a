//go:generate go run . -output ../../docs/configuration

// Command docgen generates the deployment file reference from the config
// structs in pkg/config.
//
// Usage:
//
//	go run ./cmd/docgen -output docs/configuration
//
// Struct definitions, yaml tags, doc comments and Default* constants are read
// with go/ast, so the reference never drifts from the decoder.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// page is one generated reference page.
type page struct {
	source      string
	root        string
	output      string
	title       string
	description string
	example     string
}

var pages = []page{
	{
		source:      "pkg/config/config.go",
		root:        "DeploymentContext",
		output:      "deployment.md",
		title:       "Deployment File",
		description: "Keys accepted in a mysqltopo deployment file. Unknown keys are rejected.",
		example: `env:
  deployment: prod
  name: mysql-nodes
  project: acme-db
properties:
  zones:
    - us-central1-a
    - us-central1-b
  machineType: n1-standard-4
  image: projects/debian-cloud/global/images/family/debian-12
  nodesPerZone: 1
  diskPerNode: 2
`,
	},
}

func main() {
	outputDir := flag.String("output", "docs/configuration", "Output directory for generated documentation")
	rootDir := flag.String("root", "", "Root directory of the project (defaults to the nearest go.mod)")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if *rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("Failed to get working directory: %v", err)
		}
		*rootDir = findProjectRoot(wd)
	}

	outPath := *outputDir
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(*rootDir, outPath)
	}
	if *verbose {
		log.Printf("Project root: %s", *rootDir)
		log.Printf("Output directory: %s", outPath)
	}

	if err := generate(afero.NewOsFs(), *rootDir, outPath, pages); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Documentation generated successfully in %s\n", outPath)
}

// generate writes every page plus a README index into outPath on appFs.
// Sources are read from rootDir on appFs.
func generate(appFs afero.Fs, rootDir, outPath string, pages []page) error {
	if err := appFs.MkdirAll(outPath, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, p := range pages {
		if err := writePage(appFs, rootDir, outPath, p); err != nil {
			return fmt.Errorf("failed to process %s: %w", p.source, err)
		}
	}
	return writeIndex(appFs, outPath, pages)
}

func writePage(appFs afero.Fs, rootDir, outPath string, p page) (err error) {
	src, err := afero.ReadFile(appFs, filepath.Join(rootDir, p.source))
	if err != nil {
		return err
	}
	fd, err := ParseFile(p.source, src)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}

	f, err := appFs.Create(filepath.Join(outPath, p.output))
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return GenerateConfigDoc(f, p.title, p.description, p.root, fd, p.example)
}

func writeIndex(appFs afero.Fs, outPath string, pages []page) (err error) {
	f, err := appFs.Create(filepath.Join(outPath, "README.md"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	gen := NewMarkdownGenerator(f)
	gen.WriteHeader("Configuration Reference", "Reference documentation for mysqltopo input files.")
	for _, p := range pages {
		gen.printf("- [%s](%s) - %s\n", p.title, p.output, p.description)
	}
	return nil
}

// findProjectRoot walks up from start to the directory holding go.mod.
func findProjectRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
