// docmeta extracts documentation metadata from a repository and renders
// cross-referenced docstrings as TOON, JSON or YAML.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docmeta/internal/config"
	"github.com/phobologic/docmeta/internal/discover"
	"github.com/phobologic/docmeta/internal/docprops"
	"github.com/phobologic/docmeta/internal/lang"
	"github.com/phobologic/docmeta/internal/model"
	"github.com/phobologic/docmeta/internal/namespace"
	"github.com/phobologic/docmeta/internal/parse"
	"github.com/phobologic/docmeta/internal/render"
	"github.com/phobologic/docmeta/internal/selection"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("docmeta", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		maxRecords    int
		langs         string
		symbol        string
		file          string
		format        string
		configPath    string
		cachePath     string
		maxFileSize   int
		caseSensitive bool
		private       bool
		includeTests  bool
		showVersion   bool
	)

	fs.IntVar(&maxRecords, "n", 0, "maximum number of records to include")
	fs.IntVar(&maxRecords, "max-records", 0, "maximum number of records to include")
	fs.StringVar(&langs, "l", "", "comma-separated languages to include")
	fs.StringVar(&langs, "langs", "", "comma-separated languages to include")
	fs.StringVar(&symbol, "s", "", "keep records whose name contains this substring")
	fs.StringVar(&symbol, "symbol", "", "keep records whose name contains this substring")
	fs.StringVar(&file, "file", "", "keep records from files whose path contains this substring")
	fs.StringVar(&format, "f", "", "output format: "+strings.Join(render.Formats(), ", "))
	fs.StringVar(&format, "format", "", "output format: "+strings.Join(render.Formats(), ", "))
	fs.StringVar(&configPath, "config", "", "config file (default <root>/"+config.FileName+")")
	fs.StringVar(&cachePath, "cache", "", "cache file path")
	fs.IntVar(&maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip files larger than this many bytes")
	fs.BoolVar(&caseSensitive, "case-sensitive", false, "only match argument names written in upper case")
	fs.BoolVar(&private, "private", false, "include non-exported symbols")
	fs.BoolVar(&includeTests, "include-tests", false, "include test files")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "docmeta %s\n", version)
		return nil
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := config.LoadConfig(configPath, root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flags override the config file for the values they set.
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["l"] || set["langs"] {
		cfg.Languages = nil
		for _, name := range strings.Split(langs, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Languages = append(cfg.Languages, name)
			}
		}
	}
	if set["n"] || set["max-records"] {
		cfg.MaxRecords = maxRecords
	}
	if set["f"] || set["format"] {
		cfg.Format = format
	}
	if set["max-file-size"] {
		cfg.MaxFileSize = maxFileSize
	}
	if set["case-sensitive"] {
		cfg.Doc.CaseSensitive = caseSensitive
	}
	if set["private"] {
		cfg.IncludePrivate = private
	}
	if set["include-tests"] {
		cfg.SkipTests = !includeTests
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	logger := cfg.Logging.NewLogger(stderr)

	// Discover files
	files, err := discover.Files(root, discover.Options{
		Languages: cfg.Languages,
		Exclude:   cfg.Exclude,
		SkipTests: cfg.SkipTests,
	})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no parseable files found")
	}

	// Filtered output is never cached.
	useCache := cachePath != "" && symbol == "" && file == ""
	var key string
	if useCache {
		if key, err = cacheKey(cfg); err != nil {
			return err
		}
		if cacheIsFresh(cachePath, root, files) {
			if data, ok := readCache(cachePath, key); ok {
				_, _ = stdout.Write(data)
				return nil
			}
		}
	}

	files = filterBySize(root, files, cfg.MaxFileSize, logger)
	if len(files) == 0 {
		return fmt.Errorf("no parseable files found (all exceeded size limit)")
	}

	fileInfos, err := parseFilesConcurrent(ctx, root, files, logger)
	if err != nil {
		return err
	}
	if len(fileInfos) == 0 {
		return fmt.Errorf("no files could be parsed")
	}

	tables, err := namespace.BuildAll(fileInfos)
	if err != nil {
		return fmt.Errorf("building namespace: %w", err)
	}

	records, err := docprops.BuildAll(ctx, tables, docprops.Options{
		CaseSensitive:  cfg.Doc.CaseSensitive,
		IncludePrivate: cfg.IncludePrivate,
		Splitter:       cfg.Splitter(),
	})
	if err != nil {
		return fmt.Errorf("building records: %w", err)
	}
	logger.Debug("built records", "files", len(fileInfos), "records", len(records))

	if symbol != "" {
		records = selection.FilterBySymbol(records, symbol)
	}
	if file != "" {
		records = selection.FilterByFile(records, file)
	}
	records = selection.Limit(records, cfg.MaxRecords)

	output, err := render.Render(cfg.Format, filepath.Base(root), records)
	if err != nil {
		return err
	}

	if useCache {
		if err := writeCache(cachePath, key, output); err != nil {
			logger.Warn("writing cache failed", "path", cachePath, "err", err)
		}
	}

	_, _ = stdout.Write(output)
	return nil
}

func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

// cacheKey fingerprints the settings that shape the output. A cache written
// under another key is ignored.
func cacheKey(cfg *config.Config) (string, error) {
	data, err := cfg.YAML()
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(version + "\n"))
	_, _ = h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

const cacheMagic = "docmeta-cache "

// readCache returns the cached output when the file was written under key.
func readCache(path, key string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	header, body, ok := bytes.Cut(data, []byte("\n"))
	if !ok || string(header) != cacheMagic+key {
		return nil, false
	}
	return body, true
}

func writeCache(path, key string, output []byte) error {
	data := make([]byte, 0, len(cacheMagic)+len(key)+1+len(output))
	data = append(data, cacheMagic+key+"\n"...)
	data = append(data, output...)
	return os.WriteFile(path, data, 0o644)
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, logger *slog.Logger) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			logger.Warn("skipped file", "path", f.Path, "size", fi.Size(), "limit", maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func parseFilesConcurrent(ctx context.Context, root string, files []discover.FileEntry, logger *slog.Logger) ([]model.FileInfo, error) {
	type result struct {
		index int
		info  model.FileInfo
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parsers
			parsers := make(map[string]*sitter.Parser)

			for idx := range work {
				if ctx.Err() != nil {
					return
				}
				f := files[idx]
				l := lang.Languages[f.Language]
				parser, ok := parsers[f.Language]
				if !ok {
					parser = l.NewParser()
					parsers[f.Language] = parser
				}

				source, err := os.ReadFile(filepath.Join(root, f.Path))
				if err != nil {
					logger.Warn("failed to read file", "path", f.Path, "err", err)
					continue
				}

				info, err := parse.ExtractFile(ctx, l, parser, source, f.Path)
				if err != nil {
					logger.Warn("failed to parse file", "path", f.Path, "err", err)
					continue
				}
				results <- result{index: idx, info: info}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]model.FileInfo, len(files))
	valid := make([]bool, len(files))
	for r := range results {
		indexed[r.index] = r.info
		valid[r.index] = true
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fileInfos []model.FileInfo
	for i, v := range valid {
		if v {
			fileInfos = append(fileInfos, indexed[i])
		}
	}

	return fileInfos, nil
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-n": true, "--n": true,
	"-max-records": true, "--max-records": true,
	"-l": true, "--l": true,
	"-langs": true, "--langs": true,
	"-s": true, "--s": true,
	"-symbol": true, "--symbol": true,
	"-file": true, "--file": true,
	"-f": true, "--f": true,
	"-format": true, "--format": true,
	"-config": true, "--config": true,
	"-cache": true, "--cache": true,
	"-max-file-size": true, "--max-file-size": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
