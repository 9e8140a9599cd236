package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"sightseeing_ms/internal/adapters/observability"
	"sightseeing_ms/internal/adapters/onnx"
	"sightseeing_ms/internal/bootstrap"
	"sightseeing_ms/internal/domain"
	"sightseeing_ms/internal/shared"
)

type cli struct {
	envFile string
	verbose bool
	cfg     shared.Config
}

func rootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "sightctl",
		Short:        "Recognize Münster sights and look up tourist information",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = observability.NewCLILogger(c.verbose)
			if c.envFile != "" {
				shared.LoadDotEnv(c.envFile)
			} else {
				shared.LoadDotEnv()
			}
			c.cfg = shared.Load()
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file to load (default .env)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(c.recognizeCmd())
	root.AddCommand(c.infoCmd())
	root.AddCommand(c.translateCmd())
	root.AddCommand(c.sightsCmd())
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func langFlag(cmd *cobra.Command, target *string, def string) {
	cmd.Flags().StringVarP(target, "lang", "l", def, "output language (de, en, nl)")
}

type recognizeOutput struct {
	File   string                    `json:"file"`
	Result *domain.RecognitionResult `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

func (c *cli) recognizeCmd() *cobra.Command {
	var (
		lang    string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "recognize <image> [image...]",
		Short: "Classify photos and print the matching tourist information",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := domain.ParseLanguage(lang)
			if err != nil {
				return err
			}
			if workers < 1 {
				workers = 1
			}
			ctx, stop := shared.SignalContext(cmd.Context())
			defer stop()

			svc, clf, err := bootstrap.Recognition(c.cfg)
			if err != nil {
				return err
			}
			defer onnx.Shutdown()
			defer clf.Close()

			out := recognizeAll(ctx, svc, args, l, workers)

			failed := 0
			for _, o := range out {
				if o.Result == nil {
					failed++
				}
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(args))
			}
			return nil
		},
	}
	langFlag(cmd, &lang, string(domain.SourceLanguage))
	cmd.Flags().IntVarP(&workers, "workers", "w", 2, "images processed concurrently")
	return cmd
}

type recognizer interface {
	Recognize(ctx context.Context, r io.Reader, lang domain.Language) (domain.RecognitionResult, error)
}

// recognizeAll runs up to workers files at a time. Files not started before
// ctx ends are reported with the context error.
func recognizeAll(ctx context.Context, svc recognizer, paths []string, lang domain.Language, workers int) []recognizeOutput {
	out := make([]recognizeOutput, len(paths))
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	for i, path := range paths {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(paths); j++ {
				out[j] = recognizeOutput{File: paths[j], Error: err.Error()}
			}
			break
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)
			out[i] = recognizeFile(ctx, svc, path, lang)
		}(i, path)
	}
	wg.Wait()
	return out
}

func recognizeFile(ctx context.Context, svc recognizer, path string, lang domain.Language) recognizeOutput {
	o := recognizeOutput{File: path}
	f, err := os.Open(path)
	if err != nil {
		o.Error = err.Error()
		return o
	}
	defer f.Close()
	res, err := svc.Recognize(ctx, f, lang)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("recognize failed")
		o.Error = err.Error()
		return o
	}
	o.Result = &res
	return o
}

func (c *cli) infoCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "info <label>",
		Short: "Fetch tourist information for a sight label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := domain.ParseLanguage(lang)
			if err != nil {
				return err
			}
			cat, err := bootstrap.Catalog(c.cfg)
			if err != nil {
				return err
			}
			id, ok := cat.Sights.ID(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", domain.ErrUnknownSight, args[0])
			}
			clients, err := bootstrap.InfoClients(c.cfg)
			if err != nil {
				return err
			}
			info, err := clients[l].GetTouristInformation(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"label":       args[0],
				"sight_id":    id,
				"information": info,
			})
		},
	}
	langFlag(cmd, &lang, string(domain.SourceLanguage))
	return cmd
}

func (c *cli) translateCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate a German text through the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := domain.ParseLanguage(lang)
			if err != nil {
				return err
			}
			cache, closeCache, err := bootstrap.TranslationCache(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer closeCache()
			out, err := bootstrap.Translation(c.cfg, cache).Translate(cmd.Context(), args[0], l)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"source":      args[0],
				"language":    l.String(),
				"translation": out,
			})
		},
	}
	langFlag(cmd, &lang, "")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}

func (c *cli) sightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sights",
		Short: "List the recognizable sights with their Datenportal ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := bootstrap.Catalog(c.cfg)
			if err != nil {
				return err
			}
			type sight struct {
				Index   int    `json:"index"`
				Label   string `json:"label"`
				SightID int64  `json:"sight_id"`
			}
			names := cat.Labels.Names()
			out := make([]sight, 0, len(names))
			for _, name := range names {
				idx, _ := cat.Labels.Index(name)
				id, _ := cat.Sights.ID(name)
				out = append(out, sight{Index: idx, Label: name, SightID: id})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
