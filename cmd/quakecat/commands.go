package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/quake-catalog/internal/adapter/http"
	"github.com/couchcryptid/quake-catalog/internal/adapter/jma"
	"github.com/couchcryptid/quake-catalog/internal/config"
	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/pipeline"
)

// dateInName finds a YYYYMMDD stamp in a saved page's file name.
var dateInName = regexp.MustCompile(`(\d{8})`)

// withApp builds the app for one command run and tears it down afterwards.
func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd.Context(), a, args)
	}
}

// resolveDate picks the --date flag when given, else the configured target date.
func resolveDate(a *app, flag string) (time.Time, error) {
	if flag != "" {
		return config.ParseDate(flag)
	}
	return a.cfg.TargetDate(clockwork.NewRealClock()), nil
}

func ingestCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Download a daily listing and save it as a catalog file",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			d, err := resolveDate(a, date)
			if err != nil {
				return err
			}
			report, err := a.pipeline.Ingest(ctx, d)
			if err != nil {
				return err
			}
			a.logger.Info("ingest complete",
				"date", d.Format("20060102"),
				"path", report.Path,
				"records", report.Records,
				"skipped", report.Skipped,
			)
			return nil
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "listing date YYYYMMDD (default: yesterday in JST)")
	return cmd
}

func parseCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "parse <page-file>",
		Short: "Save a previously downloaded listing page as a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			path := args[0]
			if date == "" {
				if m := dateInName.FindString(filepath.Base(path)); m != "" {
					date = m
				}
			}
			d, err := resolveDate(a, date)
			if err != nil {
				return err
			}

			body, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read page: %w", err)
			}
			report, err := a.pipeline.IngestPage(ctx, d, jma.Page{URL: path, Body: body})
			if err != nil {
				return err
			}
			a.logger.Info("parse complete",
				"source", path,
				"date", d.Format("20060102"),
				"path", report.Path,
				"records", report.Records,
				"skipped", report.Skipped,
			)
			return nil
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "listing date YYYYMMDD (default: taken from the file name, else yesterday in JST)")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		profileName string
		format      string
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Aggregate the catalog and write derived tables for chart renderers",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			f, err := pipeline.ParseFormat(format)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = a.cfg.OutputDir
			}

			profiles := a.cfg.Profiles
			if profileName != "all" {
				p, ok := a.cfg.Profile(profileName)
				if !ok {
					return fmt.Errorf("unknown profile %q", profileName)
				}
				profiles = []domain.Profile{p}
			}

			for _, p := range profiles {
				path, analysis, err := a.pipeline.Export(ctx, p, outputDir, f)
				if err != nil {
					return fmt.Errorf("export %s: %w", p.Name, err)
				}
				a.logger.Info("saved",
					"profile", p.Name,
					"path", path,
					"files_used", len(analysis.Files),
					"rows", analysis.Summary.Count,
					"total_energy_joule", analysis.Summary.TotalEnergyJoule,
				)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&profileName, "profile", "et", `profile name, or "all"`)
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default: OUTPUT_DIR)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve health probes, metrics and derived event tables over HTTP",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.pipeline, a.cfg.Profiles, a.logger)

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
			}
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http server shutdown error", "error", err)
			}
			a.logger.Info("shutdown complete")
			return nil
		}),
	}
}
