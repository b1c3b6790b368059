package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/toolscout/internal/render"
	"github.com/sells-group/toolscout/internal/store"
)

var (
	recentLimit  int
	recentFilter string
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent searches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		queries, err := env.recent(cmd.Context(), recentLimit, recentFilter)
		if err != nil {
			return err
		}
		return render.Queries(cmd.OutOrStdout(), queries)
	},
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", store.DefaultRecentLimit, "number of searches to show")
	recentCmd.Flags().StringVar(&recentFilter, "filter", "", "fuzzy filter over remembered queries")
	rootCmd.AddCommand(recentCmd)
}
