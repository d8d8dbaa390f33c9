package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phobologic/docmeta/internal/config"
)

var errConfigExists = errors.New("config file already exists (use -force to overwrite)")

const configHeader = `# docmeta configuration.
# Every key can be overridden with a DOCMETA_* environment variable, e.g.
# DOCMETA_DOC_CASE_SENSITIVE=true, and most with a command line flag.
`

// runInit implements the `docmeta init` subcommand, which writes a config
// file holding the default settings.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("docmeta init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun, force bool
	fs.BoolVar(&dryRun, "dry-run", false, "print the config without writing it")
	fs.BoolVar(&force, "force", false, "overwrite an existing config file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: docmeta init [flags] [path]

Write a %s file with the default settings. path may be a directory or a
file and defaults to the current directory.

Flags:
`, config.FileName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	content, err := generateConfig()
	if err != nil {
		return err
	}

	if dryRun {
		_, _ = fmt.Fprint(stdout, content)
		return nil
	}

	path := "."
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, config.FileName)
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, errConfigExists)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote docmeta config to %s\n", path)
	return nil
}

// generateConfig returns the default config file contents.
func generateConfig() (string, error) {
	data, err := config.Default().YAML()
	if err != nil {
		return "", err
	}
	return configHeader + string(data), nil
}
