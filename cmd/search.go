package main

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/toolscout/internal/catalog"
	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/internal/render"
	"github.com/sells-group/toolscout/internal/resolver"
)

var (
	searchMin        int
	searchMax        int
	searchMode       string
	searchFormat     string
	searchNoRemember bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Find AI tools for a task",
	Example: `  toolscout search image generation
  toolscout search "meeting transcription" --max 8 --format json`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeCuratedQueries,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(searchFormat)
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		query := strings.Join(args, " ")
		return runSearch(cmd.Context(), env, cmd.OutOrStdout(), query, format, !searchNoRemember, searchOptions(cmd)...)
	},
}

// completeCuratedQueries suggests the curated queries, which resolve
// without a provider call.
func completeCuratedQueries(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cat, err := catalog.Default()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return curatedSuggestions(cat, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func curatedSuggestions(cat *catalog.Catalog, prefix string) []string {
	prefix = model.NormalizeQuery(prefix)
	var out []string
	for _, q := range cat.Queries() {
		if strings.HasPrefix(q, prefix) {
			out = append(out, q)
		}
	}
	return out
}

// searchOptions turns explicitly set flags into per-call overrides.
func searchOptions(cmd *cobra.Command) []resolver.Option {
	var opts []resolver.Option
	if cmd.Flags().Changed("min") {
		opts = append(opts, resolver.WithMinResults(searchMin))
	}
	if cmd.Flags().Changed("max") {
		opts = append(opts, resolver.WithMaxResults(searchMax))
	}
	if cmd.Flags().Changed("mode") {
		opts = append(opts, resolver.WithMode(model.ParseMode(searchMode)))
	}
	return opts
}

func runSearch(ctx context.Context, env *appEnv, w io.Writer, query string, format render.Format, remember bool, opts ...resolver.Option) error {
	tools, err := env.search(ctx, query, remember, opts...)
	if err != nil {
		return err
	}
	return render.Tools(w, strings.TrimSpace(query), tools, format)
}

func init() {
	searchCmd.Flags().IntVar(&searchMin, "min", 0, "minimum tools to return, backfilled when short (default from config)")
	searchCmd.Flags().IntVar(&searchMax, "max", 0, "maximum tools to return (default from config)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "", "filtering mode: strict or relaxed (default from config)")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "cards", "output format: cards, json or yaml")
	searchCmd.Flags().BoolVar(&searchNoRemember, "no-remember", false, "do not record this search in memory")
	rootCmd.AddCommand(searchCmd)
}
