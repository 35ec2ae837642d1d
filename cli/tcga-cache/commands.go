package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/clinical"
	"github.com/terrycain/tcga-cache/pkg/datasets"
	"github.com/terrycain/tcga-cache/pkg/metrics"
	"github.com/terrycain/tcga-cache/pkg/s"
	"github.com/terrycain/tcga-cache/pkg/utils"
	"github.com/terrycain/tcga-cache/pkg/web"
)

type FetchCmd struct {
	Disease       string `arg:"" help:"Disease code e.g. LUAD"`
	Center        string `help:"Sequencing center"`
	Level         string `help:"Data level"`
	Platform      string `required:"" help:"Platform e.g. IlluminaHiSeq_RNASeqV2"`
	PlatformType  string `help:"Platform type e.g. RNASeqV2"`
	SampleList    string `help:"Comma separated sample barcodes"`
	NoFlattenDir  bool   `help:"Keep the archive's directory layout"`
	NoConsolidate bool   `help:"Do not consolidate files"`
	NoCache       bool   `help:"Always submit a new job"`
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return s.String(v)
}

func (f *FetchCmd) params() s.RequestParameters {
	p := s.NewRequestParameters(f.Disease)
	p.Center = optional(f.Center)
	p.Level = optional(f.Level)
	p.Platform = optional(f.Platform)
	p.PlatformType = optional(f.PlatformType)
	if f.SampleList != "" {
		p.SampleList = s.String(strings.Join(utils.SplitList(f.SampleList), ","))
	}
	p.FlattenDir = !f.NoFlattenDir
	p.ConsolidateFiles = !f.NoConsolidate
	return p
}

func (f *FetchCmd) Run(rc *runContext, g *Globals) error {
	a, err := g.app()
	if err != nil {
		return err
	}
	defer a.logLatency()

	opts := a.options
	opts.UseCache = !f.NoCache
	path, err := a.resolver.Resolve(rc, f.params(), opts)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}

type ClinicalCmd struct {
	Disease string `arg:"" help:"Disease code e.g. LUAD"`
	NoCache bool   `help:"Download the files even if already cached"`
}

func (c *ClinicalCmd) Run(rc *runContext, g *Globals) error {
	a, err := g.app()
	if err != nil {
		return err
	}

	path, err := clinical.New(a.client, a.root).Request(rc, c.Disease, !c.NoCache)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}

// writeFrame prints a summary of df, or writes it as CSV when output is set.
func writeFrame(df dataframe.DataFrame, output string) error {
	if output == "" {
		fmt.Println(df)
		return nil
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	if err = df.WriteCSV(out); err != nil {
		_ = out.Close()
		return err
	}
	log.Info().Str("path", output).Int("rows", df.Nrow()).Msg("Wrote table")
	return out.Close()
}

type MutationsCmd struct {
	Disease      string `arg:"" help:"Disease code e.g. LUAD"`
	Centers      string `default:"BI,BCM,WUSM" help:"Sequencing centers to try, in order"`
	VariantType  string `default:"all" help:"Keep one variant type e.g. SNP, or indel for INS and DEL"`
	PrefetchOnly bool   `help:"Only fetch the archive and print its path"`
	WithClinical bool   `help:"Join the clinical patient data on TCGA_ID"`
	Output       string `short:"o" help:"Write the table as CSV to this file instead of printing a summary"`
}

func (m *MutationsCmd) Run(rc *runContext, g *Globals) error {
	a, err := g.app()
	if err != nil {
		return err
	}
	defer a.logLatency()

	loader := a.loader()
	if centers := utils.SplitList(m.Centers); len(centers) > 0 {
		loader.Centers = centers
	}

	if m.PrefetchOnly {
		path, err := loader.PrefetchMutations(rc, m.Disease)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	df, err := loader.LoadMutations(rc, m.Disease, datasets.MutationOptions{
		VariantType:  m.VariantType,
		WithClinical: m.WithClinical,
	})
	if err != nil {
		return err
	}
	return writeFrame(df, m.Output)
}

type RNASeqCmd struct {
	Disease      string `arg:"" help:"Disease code e.g. LUAD"`
	PrefetchOnly bool   `help:"Only fetch the archive and print its path"`
	WithClinical bool   `help:"Join the clinical patient data on TCGA_ID"`
	Output       string `short:"o" help:"Write the table as CSV to this file instead of printing a summary"`
}

func (r *RNASeqCmd) Run(rc *runContext, g *Globals) error {
	a, err := g.app()
	if err != nil {
		return err
	}
	defer a.logLatency()

	loader := a.loader()
	if r.PrefetchOnly {
		path, err := loader.PrefetchRNASeq(rc, r.Disease)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	df, err := loader.LoadRNASeq(rc, r.Disease, r.WithClinical)
	if err != nil {
		return err
	}
	return writeFrame(df, r.Output)
}

type LsCmd struct{}

func (l *LsCmd) Run(g *Globals) error {
	a, err := g.app()
	if err != nil {
		return err
	}

	entries, err := a.storage.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FINGERPRINT\tDISEASE\tPLATFORM\tSIZE\tDOWNLOADED")
	for _, entry := range entries {
		platform := "-"
		if entry.Parameters.Platform != nil {
			platform = *entry.Parameters.Platform
		}
		disease := entry.Parameters.Disease
		if disease == "" {
			disease = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			entry.Fingerprint[:12], disease, platform,
			humanize.IBytes(uint64(entry.Size)), humanize.Time(entry.DownloadedAt))
	}
	return w.Flush()
}

type ServeCmd struct {
	ListenAddress        string `env:"TCGA_LISTEN_ADDR" default:"127.0.0.1:8080" help:"Listen address e.g. 0.0.0.0:8080"`
	MetricsListenAddress string `env:"TCGA_METRICS_LISTEN_ADDR" default:"127.0.0.1:9102" help:"Listen address for prometheus metrics, empty to disable"`
	Debug                bool   `env:"TCGA_DEBUG" help:"Include error details in responses"`
}

func (c *ServeCmd) Run(rc *runContext, g *Globals) error {
	a, err := g.app()
	if err != nil {
		return err
	}

	handlers := &web.Handlers{
		Storage:  a.storage,
		Resolver: a.resolver,
		Options:  a.options,
		Debug:    c.Debug,
	}

	withMetrics := c.MetricsListenAddress != ""
	if withMetrics {
		go metrics.Server(rc, c.MetricsListenAddress)
	}
	router := web.GetRouter(handlers, withMetrics)

	srv := &http.Server{
		Addr:              c.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-rc.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("storage", a.storage.Type()).Str("cache_dir", a.root).Str("locking", g.Locking).Msgf("Listening on %s", c.ListenAddress)
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
