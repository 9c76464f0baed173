package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/akrmnd/vitalis/internal/config"
	"github.com/akrmnd/vitalis/internal/ncbi"
	"github.com/akrmnd/vitalis/internal/service"
	"github.com/akrmnd/vitalis/internal/sniff"
	"github.com/akrmnd/vitalis/internal/stats"
	"github.com/akrmnd/vitalis/internal/store"

	"github.com/charmbracelet/log"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	total := n
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			break
		}
		ts := time.Now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// fileResult is what one worker reports back for one input file.
type fileResult struct {
	path    string
	format  sniff.Format
	records int
	saved   int
	err     error
}

func main() {
	// CLI flags
	inputFlag := flag.String("in", "", "input sequence file (more may be given as positional arguments)")
	formatFlag := flag.String("format", "", "format hint: genbank or fasta (default: detect)")
	outputFlag := flag.String("out", "", "output directory for parsed records")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	fetchFlag := flag.String("fetch", "", "fetch this NCBI accession and parse it too")
	workersFlag := flag.Int("workers", 4, "number of parse workers")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing records")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	logFlag := flag.String("log", "", "log file (appended, in addition to stderr)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("vitalis", version)
		return
	}

	// load config (optional file)
	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// merge CLI flags into config (flags override config when provided)
	if *outputFlag != "" {
		cfg.OutputDir = *outputFlag
	}
	if *logFlag != "" {
		cfg.LogFile = *logFlag
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	// configure logger output
	var loggerOut io.Writer = os.Stderr
	var logFileHandle *os.File
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			// write to both stderr and file so running interactively still shows logs
			loggerOut = io.MultiWriter(os.Stderr, f)
			logFileHandle = f
			// keep file handle open until program exit
			defer func() { _ = logFileHandle.Close() }()
		}
	}
	// If stderr is a terminal-like device, force colors for libraries that honor FORCE_COLOR.
	if fi, err := os.Stderr.Stat(); err == nil {
		if fi.Mode()&os.ModeCharDevice != 0 {
			_ = os.Setenv("FORCE_COLOR", "1")
		}
	}
	// create logger backed by the timestamping writer and expose Fd so charm.log can detect TTY
	tw := &timestampWriter{w: loggerOut}
	termW := &terminalWriter{w: tw, fd: os.Stderr.Fd()}
	logger := log.New(termW)

	// apply log level from flags/config (flags override config)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			logger.SetLevel(log.DebugLevel)
		case "info", "":
			logger.SetLevel(log.InfoLevel)
		case "warn", "warning":
			logger.SetLevel(log.WarnLevel)
		case "error":
			logger.SetLevel(log.ErrorLevel)
		default:
			logger.SetLevel(log.InfoLevel)
			logger.Warn("unknown log_level in config.json, defaulting to info", "provided", cfg.LogLevel)
		}
	}

	// Debug: show loaded config (avoid printing secrets)
	logger.Debug("loaded config", "upload_dir", cfg.UploadDir, "output_dir", cfg.OutputDir, "log_file", cfg.LogFile, "log_level", cfg.LogLevel, "ncbi_cache_dir", cfg.NcbiCacheDir)
	if cfg.LogFile != "" {
		if logFileHandle != nil {
			logger.Debug("log file open for append", "path", cfg.LogFile)
		} else {
			logger.Warn("log_file specified but could not be opened; logging to stderr only", "path", cfg.LogFile)
		}
	}
	logger.Info("starting vitalis", "upload_dir", cfg.UploadDir, "output_dir", cfg.OutputDir, "log_file", cfg.LogFile)

	hint, err := sniff.ParseFormat(*formatFlag)
	if err != nil {
		logger.Fatal("bad -format flag", "err", err)
	}

	st, err := store.New(cfg.UploadDir, cfg.OutputDir)
	if err != nil {
		logger.Fatal("cannot prepare directories", "err", err)
	}
	svc := service.New(st)

	// gather inputs: -in, positional arguments, then anything fetched
	var inputs []string
	if *inputFlag != "" {
		inputs = append(inputs, *inputFlag)
	}
	inputs = append(inputs, flag.Args()...)

	if *fetchFlag != "" {
		fetchFormat := hint
		if fetchFormat == sniff.FormatUnknown {
			fetchFormat = sniff.FormatGenbank
		}
		if cfg.NcbiApiKey != "" {
			logger.Debug("ncbi api key provided in config (not logged)")
		}
		client := ncbi.NewClient(cfg.NcbiCacheDir, cfg.NcbiApiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		text, err := client.Fetch(ctx, *fetchFlag, fetchFormat)
		cancel()
		if err != nil {
			logger.Fatal("ncbi fetch failed", "accession", *fetchFlag, "err", err)
		}
		name := *fetchFlag + ".gb"
		if fetchFormat == sniff.FormatFasta {
			name = *fetchFlag + ".fasta"
		}
		staged, err := st.StageUpload(name, strings.NewReader(text))
		if err != nil {
			logger.Fatal("cannot stage fetched record", "accession", *fetchFlag, "err", err)
		}
		logger.Info("fetched from ncbi", "accession", *fetchFlag, "format", fetchFormat.String(), "bytes", len(text))
		defer func(p string) {
			st.Discard(p)
			logger.Debug("removed staged fetch", "path", p)
		}(staged)
		inputs = append(inputs, staged)
	}

	if len(inputs) == 0 {
		logger.Fatal("no input files; pass -in, positional paths or -fetch")
	}

	workers := *workersFlag
	if workers <= 0 {
		workers = 4
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}
	logger.Info("parsing inputs", "files", len(inputs), "workers", workers, "dry_run", *dryRun)

	// worker pool over input files
	tasks := make(chan string)
	results := make(chan fileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range tasks {
				results <- processFile(logger, svc, path, hint, *dryRun)
			}
		}()
	}

	// dispatch files
	go func() {
		for _, p := range inputs {
			tasks <- p
		}
		close(tasks)
	}()

	// collect results
	received := 0
	totalRecords := 0
	totalSaved := 0
	failures := 0
	for received < len(inputs) {
		res := <-results
		received++
		if res.err != nil {
			failures++
			logger.Error("parse failed", "path", res.path, "err", res.err)
			continue
		}
		totalRecords += res.records
		totalSaved += res.saved
		logger.Info("parsed file", "path", res.path, "format", res.format.String(), "records", res.records, "saved", res.saved)
	}
	close(results)
	wg.Wait()

	logger.Info("done", "files", len(inputs), "records", totalRecords, "saved", totalSaved, "failures", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

// processFile parses one input, logs a summary per record and saves the
// records unless dry-run is on.
func processFile(logger *log.Logger, svc *service.Service, path string, hint sniff.Format, dryRun bool) fileResult {
	res := fileResult{path: path}
	parsed, err := svc.ParseFile(path, hint)
	if err != nil {
		res.err = err
		return res
	}
	res.format = parsed.Format
	res.records = parsed.Records()

	for _, rec := range parsed.Genbank {
		comp := stats.Calc(rec.Sequence)
		logger.Info("genbank record", "locus", rec.Locus, "size", rec.Size, "features", len(rec.Features), "gc_percent", fmt.Sprintf("%.1f", comp.GCPercent))
		if dryRun {
			continue
		}
		saved, err := svc.SaveRecord(rec)
		if err != nil {
			res.err = err
			return res
		}
		logger.Debug("saved record", "path", saved)
		res.saved++
	}
	for _, rec := range parsed.Fasta {
		comp := stats.Calc(rec.Sequence)
		logger.Info("fasta record", "header", rec.Header, "length", comp.Length, "gc_percent", fmt.Sprintf("%.1f", comp.GCPercent))
		if dryRun {
			continue
		}
		saved, err := svc.SaveRecord(rec)
		if err != nil {
			res.err = err
			return res
		}
		logger.Debug("saved record", "path", saved)
		res.saved++
	}
	if dryRun {
		logger.Info("dry-run: skipped saving", "path", path, "records", res.records)
	}
	return res
}
