package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/chart"
	"github.com/cleared-dev/ledger/internal/config"
)

// StarterChartFile is written by init with the imported starter chart, ready
// to be edited and passed to "chart import".
const StarterChartFile = "chart.yaml"

func newInitCommand() *cobra.Command {
	var (
		chartCode   string
		description string
		bases       map[string]int
		git         bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger with a starter chart",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(chartCode, description)
			if len(bases) > 0 {
				cfg.BaseLayers = bases
			}
			cfg.History.AutoCommit = git
			return runInit(cmd, absDir, cfg)
		},
	}

	cmd.Flags().StringVar(&chartCode, "chart", "", "chart code (required)")
	_ = cmd.MarkFlagRequired("chart")
	cmd.Flags().StringVar(&description, "description", "Chart of accounts", "chart description")
	cmd.Flags().StringToIntVar(&bases, "base-layer", nil, "base layer per currency, e.g. USD=1000,EUR=2000")
	cmd.Flags().BoolVar(&git, "git", false, "version the ledger directory with git")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, cfg *config.Config) error {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	a, err := newApp(dir, cfg)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	payload := accounts.DefaultChart(cfg.Ledger.Chart, cfg.Ledger.Description, cfg.BaseLayers)
	res, err := a.importer().Import(context.Background(), payload)
	if err != nil {
		return err
	}
	if err := writeChart(filepath.Join(dir, StarterChartFile), payload); err != nil {
		return err
	}
	if err := a.commit("init", res.Chart.Code, fmt.Sprintf("%d accounts", res.Created), 0); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger %s at %s\n", res.Chart.Code, dir)
	return nil
}

func writeChart(path string, p *chart.Payload) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing starter chart: %w", err)
	}
	if err := chart.Encode(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
