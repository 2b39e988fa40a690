package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/hostbind/bind"
	"github.com/wippyai/hostbind/descriptor"
	"github.com/wippyai/hostbind/gen"
	"github.com/wippyai/hostbind/hostabi"
)

func main() {
	var (
		manifest    = flag.String("manifest", "", "Path to descriptor manifest (TOML)")
		outDir      = flag.String("out", ".", "Output directory for generated bindings")
		pkg         = flag.String("pkg", "bindings", "Package name for generated files")
		list        = flag.Bool("list", false, "List described functions and exit")
		dryRun      = flag.Bool("dry-run", false, "Print generated source instead of writing files")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *manifest == "" {
		fmt.Fprintln(os.Stderr, "Usage: bindgen -manifest <descriptors.toml> [-out dir] [-pkg name]")
		fmt.Fprintln(os.Stderr, "       bindgen -manifest <descriptors.toml> -list")
		fmt.Fprintln(os.Stderr, "       bindgen -manifest <descriptors.toml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		gen.SetLogger(logger)
		bind.SetLogger(logger)
		hostabi.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*manifest, *pkg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*manifest, *outDir, *pkg, *list, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(manifest, outDir, pkg string, listOnly, dryRun bool) error {
	fns, err := descriptor.LoadFile(manifest)
	if err != nil {
		return err
	}

	fmt.Printf("Manifest: %s\n", manifest)
	fmt.Printf("Functions: %d\n\n", len(fns))
	for _, fn := range fns {
		tags := tagString(fn)
		fmt.Printf("  %s%s\n", fn.Signature(), tags)
	}

	if listOnly {
		return nil
	}

	units, err := gen.NewGenerator(pkg).GenerateAll(fns)
	if err != nil {
		return err
	}

	if dryRun {
		for _, u := range units {
			fmt.Printf("\n--- %s ---\n%s", unitFileName(u), u.Source)
		}
		return nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	fmt.Println()
	for _, u := range units {
		path := filepath.Join(outDir, unitFileName(u))
		if err := os.WriteFile(path, u.Source, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", path, len(u.Source))
	}
	return nil
}

func unitFileName(u *gen.Unit) string {
	name := u.Fn.Name
	if u.Fn.Owner != "" {
		name = u.Fn.Owner + "_" + name
	}
	return strings.ToLower(name) + "_binding.go"
}

func tagString(fn *descriptor.Function) string {
	var tags []string
	if fn.Kind != descriptor.Plain {
		tags = append(tags, fn.Kind.String())
	}
	if fn.Strict {
		tags = append(tags, "strict")
	}
	if fn.Export() != fn.Name {
		tags = append(tags, "export="+fn.Export())
	}
	if len(tags) == 0 {
		return ""
	}
	return "  [" + strings.Join(tags, ", ") + "]"
}
