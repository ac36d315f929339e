package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/app"
	"github.com/9Skies9/InvestLink/internal/config"
	"github.com/9Skies9/InvestLink/internal/domain/match"
	logpkg "github.com/9Skies9/InvestLink/internal/logger"
	"github.com/9Skies9/InvestLink/internal/usecase/recommend"
	"github.com/9Skies9/InvestLink/internal/version"
)

func newSeekerCmd() *cobra.Command {
	return newRecommendCmd("seeker", "Recommend companies for an investor", match.SeekerToProviders)
}

func newProviderCmd() *cobra.Command {
	return newRecommendCmd("provider", "Recommend investors for a company", match.ProviderToSeekers)
}

func newRecommendCmd(use, short string, dir match.Direction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("id must be a positive integer, got %q", args[0])
			}
			k, _ := cmd.Flags().GetInt("k")

			var opts []recommend.RequestOption
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetUint64("seed")
				opts = append(opts, recommend.WithSeed(seed))
			}

			a, logger, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			var res recommend.Result
			if dir == match.SeekerToProviders {
				res, err = a.Engine.RecommendForSeeker(ctx, id, k, opts...)
			} else {
				res, err = a.Engine.RecommendForProvider(ctx, id, k, opts...)
			}
			if err != nil {
				return fmt.Errorf("recommend for %s %d: %w", dir, id, err)
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return writeJSON(out, res)
			}
			return printResult(out, dir, id, res)
		},
	}
	cmd.Flags().IntP("k", "k", 0, "Number of recommendations (0 uses the configured default)")
	cmd.Flags().Uint64("seed", 0, "Seed for reproducible sampling")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Load the snapshot and print what was loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, logger, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = logger.Sync() }()

			if err := a.Engine.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load: %w", err)
			}
			st := a.Engine.Stats()

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return writeJSON(out, st)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "providers\t%d\n", st.Providers)
			fmt.Fprintf(tw, "seekers\t%d\n", st.Seekers)
			fmt.Fprintf(tw, "seeker decisions\t%d\n", st.SeekerDecisions)
			fmt.Fprintf(tw, "provider decisions\t%d\n", st.ProviderDecisions)
			dirs := make([]string, 0, len(st.Scorers))
			for d := range st.Scorers {
				dirs = append(dirs, string(d))
			}
			sort.Strings(dirs)
			for _, d := range dirs {
				fmt.Fprintf(tw, "scorer %s\t%s\n", d, st.Scorers[match.Direction(d)])
			}
			return tw.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// buildApp loads config, creates a CLI logger that writes to stderr and assembles the engine.
func buildApp(cmd *cobra.Command) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logpkg.NewLogger("cli")
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build engine: %w", err)
	}
	return a, logger, nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(config.GetEnv())
	}
	if err != nil {
		return config.Config{}, err
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Database.Driver = config.DatabaseNone
	}
	return cfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, dir match.Direction, id int64, res recommend.Result) error {
	if len(res.Items) == 0 {
		_, err := fmt.Fprintf(w, "no recommendations for %s %d (%s)\n", dir, id, res.Reason)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tNAME\tPROBABILITY")
	for i, it := range res.Items {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.4f\n", i+1, it.ID, it.Name, it.Probability)
	}
	return tw.Flush()
}
