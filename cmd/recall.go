package main

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/toolscout/internal/render"
)

var recallFormat string

var recallCmd = &cobra.Command{
	Use:   "recall <query...>",
	Short: "Show the remembered tools for a past search",
	Long:  "Looks the query up in memory and prints the tools saved for it. Queries that were never searched are resolved and remembered.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(recallFormat)
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		return runRecall(cmd.Context(), env, cmd.OutOrStdout(), strings.Join(args, " "), format)
	},
}

func runRecall(ctx context.Context, env *appEnv, w io.Writer, query string, format render.Format) error {
	tools, remembered, err := env.recall(ctx, query)
	if err != nil {
		return err
	}
	zap.L().Debug("recall", zap.String("query", query), zap.Bool("remembered", remembered))
	return render.Tools(w, strings.TrimSpace(query), tools, format)
}

func init() {
	recallCmd.Flags().StringVarP(&recallFormat, "format", "f", "cards", "output format: cards, json or yaml")
	rootCmd.AddCommand(recallCmd)
}
