package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/bot-stage/internal/clients/modelstore"
	"github.com/KirkDiggler/bot-stage/internal/config"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	"github.com/KirkDiggler/bot-stage/internal/placement"
	"github.com/KirkDiggler/bot-stage/internal/services/provisioning"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Load one model and print what the stage would make of it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Log)

		var keywords []embodiment.ClipKeyword
		if cfg.Layout.File != "" {
			layout, err := placement.LoadLayout(cfg.Layout.File)
			if err != nil {
				return err
			}
			keywords = layout.Clips
		}

		store, err := modelstore.New(&modelstore.Config{
			Timeout:  cfg.Models.FetchTimeout,
			MaxBytes: cfg.Models.MaxModelSize,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		loader := provisioning.NewGLTFLoader(&provisioning.GLTFLoaderConfig{
			Client:   store,
			Keywords: keywords,
			Logger:   logger,
		})

		t, err := loader.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printTemplate(cmd.OutOrStdout(), t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printTemplate(w io.Writer, t *embodiment.Template) {
	fmt.Fprintf(w, "source:  %s\n", t.Source)
	fmt.Fprintf(w, "height:  %.3f\n", t.ReferenceHeight)
	fmt.Fprintf(w, "skinned: %t\n", t.Skinned)

	if t.Inference == nil {
		return
	}

	ids := make([]string, 0, len(t.Inference.Matched))
	for id := range t.Inference.Matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintln(w, "clips:")
	for _, id := range ids {
		fmt.Fprintf(w, "  %-12s <- %s\n", id, t.Inference.Matched[id])
	}
	if t.Inference.IdleFallback != "" {
		fmt.Fprintf(w, "  idle fell back to %s\n", t.Inference.IdleFallback)
	}
	if len(t.Inference.Unmatched) > 0 {
		fmt.Fprintln(w, "unmatched:")
		for _, name := range t.Inference.Unmatched {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}
