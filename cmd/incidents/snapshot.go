package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/snapshot"
	"github.com/dallasopendata/incidents/internal/telemetry"
)

const (
	snapshotFile   = "active_calls_snapshot.json"
	referencesFile = "references.json"
)

func snapshotCommand() *cobra.Command {
	var (
		preset string
		outDir string
		limit  int
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Build the active calls snapshot artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if preset == "" {
				preset = cfg.Snapshot.Preset
			}
			if outDir == "" {
				outDir = cfg.Snapshot.OutputDir
			}
			if limit <= 0 {
				limit = cfg.Snapshot.Limit
			}

			s, err := schema.FromPreset(preset)
			if err != nil {
				return err
			}
			metrics := telemetry.New()
			c, err := newClient(s, metrics)
			if err != nil {
				return err
			}

			snap, err := snapshot.NewBuilder(c, snapshot.WithMetrics(metrics)).ActiveCalls(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if save {
				store, err := openStore()
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.SaveSnapshot(cmd.Context(), snap); err != nil {
					return err
				}
				log.Info().Str("id", snap.ID).Msg("Snapshot stored")
			}

			path, err := snapshot.WriteJSON(outDir, snapshotFile, snap)
			if err != nil {
				return err
			}
			log.Info().Str("path", path).Int("calls", snap.Summary.TotalCalls).Msg("Snapshot written")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "active calls preset (default from config)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum calls to fetch (default from config)")
	cmd.Flags().BoolVar(&save, "save", false, "also store the snapshot in the database")
	return cmd
}

func referencesCommand() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "references",
		Short: "Write the presets and offense reference artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = cfg.Snapshot.OutputDir
			}
			refs := snapshot.BuildReferences()

			path, err := snapshot.WriteJSON(outDir, referencesFile, refs)
			if err != nil {
				return err
			}
			log.Info().Str("path", path).Int("categories", len(refs.OffenseCategories)).Msg("References written")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default from config)")
	return cmd
}
