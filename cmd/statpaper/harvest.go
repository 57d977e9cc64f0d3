// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzelen/statpaper/internal/arxiv"
	"github.com/mzelen/statpaper/internal/harvest"
	"github.com/mzelen/statpaper/pkg/types"
)

const (
	defaultCorpusDir     = "corpus"
	defaultTimeout       = 60 * time.Second
	defaultYearsBack     = 5
	defaultPageSize      = 100
	defaultRequestDelay  = 3 * time.Second
	defaultDownloadDelay = 1 * time.Second
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Download arXiv PDFs and metadata per category quota",
	Long: `Harvest queries the arXiv API for recent papers in each configured
category and downloads their PDFs into the corpus directory, together with a
metadata YAML file per paper. Papers whose PDF already exists are skipped, so
repeated runs only fetch what is missing.

Categories are given as --category cat=quota pairs; with no --category flags
the built-in category plan is used.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("corpus-dir", defaultCorpusDir, "corpus directory")
	harvestCmd.Flags().StringArray("category", nil, "category quota as cat=N (repeatable, e.g. cs.LG=800)")
	harvestCmd.Flags().Int("years-back", defaultYearsBack, "how many years back the date window starts")
	harvestCmd.Flags().Int("page-size", defaultPageSize, "results per arXiv API request")
	harvestCmd.Flags().Duration("request-delay", defaultRequestDelay, "delay between arXiv API requests")
	harvestCmd.Flags().Duration("download-delay", defaultDownloadDelay, "delay between PDF downloads")
	harvestCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")

	rootCmd.AddCommand(harvestCmd)
}

// parseQuotas turns cat=N pairs into category quotas.
func parseQuotas(pairs []string) ([]types.CategoryQuota, error) {
	quotas := make([]types.CategoryQuota, 0, len(pairs))
	for _, p := range pairs {
		cat, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid category quota %q: expected cat=N", p)
		}
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid quota in %q: expected a positive integer", p)
		}
		quotas = append(quotas, types.CategoryQuota{Category: cat, Quota: n})
	}
	return quotas, nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()

	// Config-file values seed the config; flags override when set.
	cfg := pipelineConfig().Harvest
	cfg.UserAgent = userAgent()
	if cfg.CorpusDir == "" || f.Changed("corpus-dir") {
		cfg.CorpusDir, _ = f.GetString("corpus-dir")
	}
	if cfg.YearsBack == 0 || f.Changed("years-back") {
		cfg.YearsBack, _ = f.GetInt("years-back")
	}
	if cfg.PageSize == 0 || f.Changed("page-size") {
		cfg.PageSize, _ = f.GetInt("page-size")
	}
	if cfg.RequestDelay == 0 || f.Changed("request-delay") {
		cfg.RequestDelay, _ = f.GetDuration("request-delay")
	}
	if cfg.DownloadDelay == 0 || f.Changed("download-delay") {
		cfg.DownloadDelay, _ = f.GetDuration("download-delay")
	}
	if cfg.Timeout == 0 || f.Changed("timeout") {
		cfg.Timeout, _ = f.GetDuration("timeout")
	}

	if pairs, _ := f.GetStringArray("category"); len(pairs) > 0 {
		quotas, err := parseQuotas(pairs)
		if err != nil {
			return err
		}
		cfg.Quotas = quotas
	}
	if len(cfg.Quotas) == 0 {
		cfg.Quotas = harvest.DefaultPlan()
	}

	client := &arxiv.Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
	}
	result, err := harvest.HarvestAll(cmd.Context(), client, cfg, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nHarvest complete: %d downloaded, %d skipped, %d failed\n",
		result.Downloaded, result.Skipped, result.Failed)
	if result.HasFailures() {
		return fmt.Errorf("%d papers failed to download", result.Failed)
	}
	return nil
}
