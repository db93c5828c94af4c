package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dallasopendata/incidents/internal/database"
	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/snapshot"
	"github.com/dallasopendata/incidents/internal/tracker"
)

func trackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Track active calls for later lookup in historical data",
	}
	cmd.AddCommand(trackAddCommand(), trackListCommand(), trackRemoveCommand(), trackQueriesCommand())
	return cmd
}

// withTracker opens the store for the duration of fn.
func withTracker(fn func(*tracker.Tracker) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(tracker.New(store))
}

func trackAddCommand() *cobra.Command {
	var (
		preset string
		nature string
		beats  []string
		notes  string
		tags   []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Fetch active calls and track the ones matching the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if nature == "" && len(beats) == 0 {
				return fmt.Errorf("at least one of --nature or --beat is required")
			}
			if preset == "" {
				preset = cfg.Snapshot.Preset
			}
			s, err := schema.FromPreset(preset)
			if err != nil {
				return err
			}
			c, err := newClient(s, nil)
			if err != nil {
				return err
			}
			limit := cfg.Snapshot.Limit
			if limit <= 0 {
				limit = snapshot.DefaultLimit
			}
			q, err := query.New(query.WithBeats(beats...), query.WithLimit(limit))
			if err != nil {
				return err
			}
			resp, err := c.Get(cmd.Context(), q)
			if err != nil {
				return err
			}

			needle := strings.ToLower(nature)
			keep := func(rec response.Record) bool {
				return strings.Contains(strings.ToLower(rec.String("nature_of_call")), needle)
			}

			return withTracker(func(t *tracker.Tracker) error {
				calls, err := t.TrackMatching(cmd.Context(), resp.Data, keep, notes, tags)
				if err != nil {
					return err
				}
				log.Info().Int("fetched", resp.TotalReturned).Int("tracked", len(calls)).Msg("Tracked active calls")
				return printJSON(cmd.OutOrStdout(), calls)
			})
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "active calls preset (default from config)")
	cmd.Flags().StringVar(&nature, "nature", "", "substring of the nature of call")
	cmd.Flags().StringSliceVar(&beats, "beat", nil, "beat filter, repeatable")
	cmd.Flags().StringVar(&notes, "notes", "", "notes stored with each call")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag stored with each call, repeatable")
	return cmd
}

func bindFilter(cmd *cobra.Command, f *models.TrackedCallFilter) {
	cmd.Flags().StringVar(&f.Beat, "beat", "", "only calls in this beat")
	cmd.Flags().StringVar(&f.Tag, "tag", "", "only calls with this tag")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "maximum calls")
}

func trackListCommand() *cobra.Command {
	var (
		filter  models.TrackedCallFilter
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(func(t *tracker.Tracker) error {
				if summary {
					sum, err := t.Summary(cmd.Context(), filter)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), sum)
				}
				calls, err := t.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), calls)
			})
		},
	}
	bindFilter(cmd, &filter)
	cmd.Flags().BoolVar(&summary, "summary", false, "print a summary instead of the calls")
	return cmd
}

func trackRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Stop tracking calls",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(func(t *tracker.Tracker) error {
				for _, id := range args {
					if err := t.Untrack(cmd.Context(), id); err != nil {
						if errors.Is(err, database.ErrNotFound) {
							return fmt.Errorf("tracked call %s not found", id)
						}
						return err
					}
					log.Info().Str("id", id).Msg("Call untracked")
				}
				return nil
			})
		},
	}
}

func trackQueriesCommand() *cobra.Command {
	var (
		filter    models.TrackedCallFilter
		daysAfter int
		perQuery  int
	)
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Print historical incident queries for tracked calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.FromPreset(schema.PresetPoliceIncidents)
			if err != nil {
				return err
			}
			c, err := newClient(s, nil)
			if err != nil {
				return err
			}
			return withTracker(func(t *tracker.Tracker) error {
				queries, err := t.Queries(cmd.Context(), filter, daysAfter, perQuery)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, q := range queries {
					u, _, err := c.ResourceURL(q)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%s\n", strings.Join(q.Beats, ","), u)
				}
				return nil
			})
		},
	}
	bindFilter(cmd, &filter)
	cmd.Flags().IntVar(&daysAfter, "days-after", tracker.DefaultDaysAfter, "days after capture to search")
	cmd.Flags().IntVar(&perQuery, "query-limit", tracker.DefaultQueryLimit, "row limit per query")
	return cmd
}
