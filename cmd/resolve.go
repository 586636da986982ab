package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kinderslides/kinderslides/internal/model"
)

var (
	resolveItem string
	resolveHint string
	resolveOut  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Find a picture for a single item",
	Example: `  kinderslides resolve --item "A - Apple" --hint "apple cartoon"
  kinderslides resolve --item "custom item: Briefcase" --out briefcase.png`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		item := model.NewItem(resolveItem, resolveHint)
		if item.Name == "" {
			return eris.New("--item is required")
		}

		env, err := initResolver(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Resolver.Resolve(ctx, item)
		summary := summarize(item, res)

		if res.Available() {
			out := resolveOut
			if out == "" {
				out = slug(item.MainWord()) + extFor(res.MediaType)
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return eris.Wrapf(err, "create %s", dir)
				}
			}
			if err := os.WriteFile(out, res.Image, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", out)
			}
			summary.File = out
		}

		return writeJSON(cmd.OutOrStdout(), summary)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveItem, "item", "", "item name, e.g. \"A - Apple\" (required)")
	resolveCmd.Flags().StringVar(&resolveHint, "hint", "", "raw search term tried last, e.g. \"apple cartoon\"")
	resolveCmd.Flags().StringVar(&resolveOut, "out", "", "image output path (default <item>.<ext>)")
	_ = resolveCmd.MarkFlagRequired("item")
	rootCmd.AddCommand(resolveCmd)
}
