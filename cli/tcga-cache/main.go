package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/clinical"
	"github.com/terrycain/tcga-cache/pkg/datasets"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/resolver"
	"github.com/terrycain/tcga-cache/pkg/storage"
	"github.com/terrycain/tcga-cache/pkg/tcga"
	"github.com/terrycain/tcga-cache/pkg/utils/logging"
)

type Globals struct {
	CacheDir    string        `env:"TCGA_CACHE_DIR" help:"Cache directory, defaults to the per-user data directory"`
	LogLevel    string        `env:"TCGA_LOG_LEVEL" default:"info" enum:"debug,info,warn,error"`
	LogFormat   string        `env:"TCGA_LOG_FORMAT" default:"console" enum:"console,json"`
	ServiceURL  string        `env:"TCGA_SERVICE_URL" default:"${service_url}" help:"Base URL of the data matrix web service"`
	HTTPTimeout time.Duration `env:"TCGA_HTTP_TIMEOUT" default:"60s" help:"Timeout for submission and status requests"`

	PollInterval time.Duration `env:"TCGA_POLL_INTERVAL" default:"30s" help:"Time between job status checks, 0 checks once"`
	MaxWait      time.Duration `env:"TCGA_MAX_WAIT" default:"2h" help:"Give up on a job after this long"`
	MaxAttempts  int           `env:"TCGA_MAX_ATTEMPTS" default:"0" help:"Give up on a job after this many status checks, 0 for no limit"`
	BlockSize    string        `env:"TCGA_BLOCK_SIZE" default:"1MiB" help:"Download block size e.g. 64KiB"`
	Locking      string        `env:"TCGA_LOCKING" default:"file" enum:"file,memory,none" help:"How concurrent fetches of one request are serialised: file (across processes), memory (this process only) or none"`
}

var cli struct {
	Globals

	Fetch     FetchCmd     `cmd:"" help:"Fetch an archive for arbitrary request parameters"`
	Clinical  ClinicalCmd  `cmd:"" help:"Fetch the clinical data files for a disease"`
	Mutations MutationsCmd `cmd:"" help:"Fetch and load somatic mutations for a disease"`
	RNASeq    RNASeqCmd    `cmd:"" name:"rnaseq" help:"Fetch and load RNA-seq gene expression for a disease"`
	Ls        LsCmd        `cmd:"" help:"List cached archives"`
	Serve     ServeCmd     `cmd:"" help:"Serve the cache over HTTP"`
}

// runContext carries the signal-aware context into command Run methods; kong binds
// by concrete type so context.Context cannot be bound directly.
type runContext struct {
	context.Context
}

// app holds everything a command needs, built once from Globals.
type app struct {
	root     string
	storage  storage.Backend
	client   *tcga.Client
	resolver *resolver.Resolver
	options  resolver.Options
}

func (g *Globals) app() (*app, error) {
	backend, err := storage.GetStorageBackend("disk", g.CacheDir)
	if err != nil {
		return nil, err
	}

	clientOpts := tcga.DefaultOptions()
	clientOpts.ServiceURL = g.ServiceURL
	clientOpts.Timeout = g.HTTPTimeout
	client := tcga.NewClient(clientOpts)

	res, err := resolver.New(backend, client, g.Locking)
	if err != nil {
		return nil, err
	}

	blockSize, err := humanize.ParseBytes(g.BlockSize)
	if err != nil || blockSize == 0 {
		return nil, &e.ValidationError{Field: "block size", Reason: "must be a positive size e.g. 1MiB"}
	}

	opts := resolver.DefaultOptions()
	opts.BlockSize = int(blockSize)
	opts.Poll = tcga.PollOptions{
		Interval:    g.PollInterval,
		MaxWait:     g.MaxWait,
		MaxAttempts: g.MaxAttempts,
	}

	return &app{
		root:     backend.Root(),
		storage:  backend,
		client:   client,
		resolver: res,
		options:  opts,
	}, nil
}

func (a *app) loader() *datasets.Loader {
	return datasets.NewLoader(a.resolver, clinical.New(a.client, a.root), a.root, a.options)
}

func (a *app) logLatency() {
	for _, stats := range a.resolver.Latency.GetAllStats() {
		log.Debug().Str("phase", stats.Phase).Msg(stats.String())
	}
}

// exitCode lets scripts tell "try again later" and "no data" apart from failures.
func exitCode(err error) int {
	var validationErr *e.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return 2
	case errors.Is(err, e.ErrNotReady):
		return 3
	case e.IsSoft(err), errors.Is(err, e.ErrNoCenterData):
		return 4
	default:
		return 1
	}
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("tcga-cache"),
		kong.Description("Fetch and cache public TCGA datasets"),
		kong.Vars{"service_url": tcga.DefaultServiceURL},
	)

	logging.SetupLogging(cli.LogLevel, cli.LogFormat == "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kctx.Run(&runContext{ctx}, &cli.Globals); err != nil {
		log.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(exitCode(err))
	}
}
