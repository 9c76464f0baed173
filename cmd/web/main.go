package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/akrmnd/vitalis/internal/config"
	"github.com/akrmnd/vitalis/internal/fasta"
	"github.com/akrmnd/vitalis/internal/genbank"
	"github.com/akrmnd/vitalis/internal/ncbi"
	"github.com/akrmnd/vitalis/internal/service"
	"github.com/akrmnd/vitalis/internal/sniff"
	"github.com/akrmnd/vitalis/internal/store"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// fetcher pulls flat-file records from NCBI. *ncbi.Client implements it;
// tests substitute a stub.
type fetcher interface {
	Fetch(ctx context.Context, accession string, format sniff.Format) (string, error)
}

// requestLogger logs each request with method, path, status, size and duration.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"size", c.Writer.Size(),
			"duration", time.Since(start).String(),
			"client", c.ClientIP(),
		)
	}
}

// corsMiddleware allows cross-origin requests from the configured origins.
// The matching origin is echoed back; preflight requests are answered with
// 204 without reaching the handlers.
func corsMiddleware(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := false
		for _, o := range origins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}
		if allowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "3600")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// respondRecords writes the parsed records as a JSON array, the same body
// shape for both formats.
func respondRecords(c *gin.Context, res *service.ParseResult) {
	if res.Format == sniff.FormatFasta {
		if res.Fasta == nil {
			res.Fasta = []fasta.FastaRecord{}
		}
		c.JSON(http.StatusOK, res.Fasta)
		return
	}
	if res.Genbank == nil {
		res.Genbank = []genbank.GenbankRecord{}
	}
	c.JSON(http.StatusOK, res.Genbank)
}

// newRouter wires the API routes. Split from main so tests can drive the
// router with a stub fetcher.
func newRouter(logger *log.Logger, svc *service.Service, nc fetcher, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery(), corsMiddleware(origins))

	st := svc.Store()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "welcome to the vitalis API", "version": version})
	})

	r.POST("/sequence/parse", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "no file in request"})
			return
		}
		if fileHeader.Filename == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "no filename given"})
			return
		}
		hint, err := sniff.ParseFormat(c.PostForm("format"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "unsupported file format; specify 'genbank' or 'fasta'"})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("cannot read upload: %v", err)})
			return
		}
		defer src.Close()
		staged, err := st.StageUpload(fileHeader.Filename, src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("cannot stage upload: %v", err)})
			return
		}
		defer st.Discard(staged)

		job := parseJob{ID: newJobID(), File: fileHeader.Filename, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		res, err := svc.ParseFile(staged, hint)
		if err != nil {
			job.State = "failed"
			job.Message = err.Error()
			if jerr := recordJob(job); jerr != nil {
				logger.Warn("cannot record job", "err", jerr)
			}
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("failed to parse file: %v", err)})
			return
		}
		job.State = "done"
		job.Format = res.Format.String()
		job.Records = res.Records()
		if jerr := recordJob(job); jerr != nil {
			logger.Warn("cannot record job", "err", jerr)
		}
		respondRecords(c, res)
	})

	r.POST("/sequence/save/genbank", func(c *gin.Context) {
		var rec genbank.GenbankRecord
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("invalid record: %v", err)})
			return
		}
		path, err := svc.SaveRecord(rec)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("failed to save record: %v", err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"file_path": path})
	})

	r.POST("/sequence/save/fasta", func(c *gin.Context) {
		var rec fasta.FastaRecord
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("invalid record: %v", err)})
			return
		}
		path, err := svc.SaveRecord(rec)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("failed to save record: %v", err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"file_path": path})
	})

	r.GET("/sequence/fetch/:accession", func(c *gin.Context) {
		accession := c.Param("accession")
		hint, err := sniff.ParseFormat(c.Query("format"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "unsupported file format; specify 'genbank' or 'fasta'"})
			return
		}
		format := hint
		if format == sniff.FormatUnknown {
			format = sniff.FormatGenbank
		}

		text, err := nc.Fetch(c.Request.Context(), accession, format)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"detail": fmt.Sprintf("ncbi fetch failed: %v", err)})
			return
		}
		name := accession + ".gb"
		if format == sniff.FormatFasta {
			name = accession + ".fasta"
		}
		staged, err := st.StageUpload(name, strings.NewReader(text))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("cannot stage fetched record: %v", err)})
			return
		}
		defer st.Discard(staged)

		job := parseJob{ID: newJobID(), File: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		res, err := svc.ParseFile(staged, format)
		if err != nil {
			job.State = "failed"
			job.Message = err.Error()
			if jerr := recordJob(job); jerr != nil {
				logger.Warn("cannot record job", "err", jerr)
			}
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("failed to parse fetched record: %v", err)})
			return
		}
		job.State = "done"
		job.Format = res.Format.String()
		job.Records = res.Records()
		if jerr := recordJob(job); jerr != nil {
			logger.Warn("cannot record job", "err", jerr)
		}
		respondRecords(c, res)
	})

	r.GET("/jobs", func(c *gin.Context) {
		jobs, err := loadJobs(jobsPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("cannot load jobs: %v", err)})
			return
		}
		if jobs == nil {
			jobs = []parseJob{}
		}
		c.JSON(http.StatusOK, jobs)
	})

	return r
}

func main() {
	hostFlag := flag.String("host", "", "listen host (overrides config)")
	portFlag := flag.Int("port", 0, "listen port (overrides config)")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	jobsStoreFlag := flag.String("jobs-store", "", "parse job history backend: json or sqlite")
	jobsPathFlag := flag.String("jobs-path", "", "parse job history file (json) or database (sqlite)")
	logFlag := flag.String("log", "", "log file (appended, in addition to stderr)")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("vitalis-web", version)
		return
	}

	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// merge CLI flags into config (flags override config when provided),
	// then fall back to the service defaults
	if *hostFlag != "" {
		cfg.APIHost = *hostFlag
	}
	if *portFlag != 0 {
		cfg.APIPort = *portFlag
	}
	if *jobsStoreFlag != "" {
		cfg.JobsStore = *jobsStoreFlag
	}
	if *jobsPathFlag != "" {
		cfg.JobsPath = *jobsPathFlag
	}
	if *logFlag != "" {
		cfg.LogFile = *logFlag
	}
	if cfg.APIHost == "" {
		cfg.APIHost = "localhost"
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = 8000
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	var loggerOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			loggerOut = io.MultiWriter(os.Stderr, f)
			defer func() { _ = f.Close() }()
		}
	}
	logger := log.NewWithOptions(loggerOut, log.Options{ReportTimestamp: true})
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

	// job history backend
	if cfg.JobsStore != "" {
		jobsStore = cfg.JobsStore
	}
	if cfg.JobsPath != "" {
		jobsPath = cfg.JobsPath
	}
	switch jobsStore {
	case "json":
	case "sqlite":
		db, err := openJobsDB(jobsPath)
		if err != nil {
			logger.Fatal("cannot open jobs database", "path", jobsPath, "err", err)
		}
		jobsDB = db
		defer jobsDB.Close()
	default:
		logger.Fatal("unknown jobs store", "provided", jobsStore)
	}

	st, err := store.New(cfg.UploadDir, cfg.OutputDir)
	if err != nil {
		logger.Fatal("cannot prepare directories", "err", err)
	}
	svc := service.New(st)
	nc := ncbi.NewClient(cfg.NcbiCacheDir, cfg.NcbiApiKey)

	if !*verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(logger, svc, nc, cfg.CORSOrigins)

	addr := cfg.APIHost + ":" + strconv.Itoa(cfg.APIPort)
	logger.Info("serving vitalis API", "addr", addr, "jobs_store", jobsStore, "jobs_path", jobsPath, "origins", strings.Join(cfg.CORSOrigins, ","))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
