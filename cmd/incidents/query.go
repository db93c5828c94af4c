package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/socrata"
	"github.com/dallasopendata/incidents/internal/telemetry"
)

// queryFlags binds the filter flags shared by compile and fetch.
type queryFlags struct {
	preset    string
	beats     []string
	division  string
	start     string
	end       string
	category  string
	keyword   string
	nibrs     []string
	nibrsType string
	ucr       string
	race      string
	ethnicity string
	sex       string
	lat       float64
	lon       float64
	radius    float64
	limit     int
	offset    int
	order     string
	fields    []string
	format    string
	where     string
	search    string
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.preset, "preset", "", "dataset preset (default from config)")
	fs.StringSliceVar(&f.beats, "beat", nil, "beat filter, repeatable")
	fs.StringVar(&f.division, "division", "", "patrol division")
	fs.StringVar(&f.start, "start", "", "first day, YYYY-MM-DD")
	fs.StringVar(&f.end, "end", "", "last day, YYYY-MM-DD")
	fs.StringVar(&f.category, "category", "", "offense category")
	fs.StringVar(&f.keyword, "keyword", "", "offense keyword")
	fs.StringSliceVar(&f.nibrs, "nibrs-code", nil, "NIBRS code, repeatable")
	fs.StringVar(&f.nibrsType, "nibrs-type", "", "NIBRS type")
	fs.StringVar(&f.ucr, "ucr", "", "UCR offense")
	fs.StringVar(&f.race, "race", "", "complainant race")
	fs.StringVar(&f.ethnicity, "ethnicity", "", "complainant ethnicity")
	fs.StringVar(&f.sex, "sex", "", "complainant sex")
	fs.Float64Var(&f.lat, "lat", 0, "latitude for a radius filter")
	fs.Float64Var(&f.lon, "lon", 0, "longitude for a radius filter")
	fs.Float64Var(&f.radius, "radius", 0, "radius in meters")
	fs.IntVar(&f.limit, "limit", query.DefaultLimit, "row limit")
	fs.IntVar(&f.offset, "offset", 0, "row offset")
	fs.StringVar(&f.order, "order", "", "SoQL order clause")
	fs.StringSliceVar(&f.fields, "select", nil, "fields to return")
	fs.StringVar(&f.format, "format", "json", "json, geojson or csv")
	fs.StringVar(&f.where, "where", "", "raw SoQL predicate AND-ed in")
	fs.StringVar(&f.search, "q", "", "full-text search terms")
}

func (f *queryFlags) schema() (schema.Schema, error) {
	if f.preset != "" {
		return schema.FromPreset(f.preset)
	}
	return cfg.Dataset.Schema()
}

func (f *queryFlags) query() (*query.Query, error) {
	format, err := query.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}
	opts := []query.Option{
		query.WithBeats(f.beats...),
		query.WithDivision(f.division),
		query.WithDates(f.start, f.end),
		query.WithOffenseKeyword(f.keyword),
		query.WithNIBRSCodes(f.nibrs...),
		query.WithNIBRSType(f.nibrsType),
		query.WithUCROffense(f.ucr),
		query.WithLimit(f.limit),
		query.WithOffset(f.offset),
		query.WithOrderBy(f.order),
		query.WithFormat(format),
		query.WithExtraWhere(f.where),
		query.WithSearch(f.search),
	}
	if len(f.fields) > 0 {
		opts = append(opts, query.WithSelect(f.fields...))
	}
	if f.category != "" {
		opts = append(opts, query.WithOffenseCategoryName(f.category))
	}
	if f.race != "" || f.ethnicity != "" || f.sex != "" {
		opts = append(opts, query.WithDemographics(query.Demographics{Race: f.race, Ethnicity: f.ethnicity, Sex: f.sex}))
	}
	if f.radius > 0 {
		opts = append(opts, query.WithGeo(f.lat, f.lon, f.radius))
	}
	return query.New(opts...)
}

func newClient(s schema.Schema, m *telemetry.Metrics) (*socrata.Client, error) {
	return socrata.NewClient(s,
		socrata.WithAppToken(cfg.Dataset.AppToken),
		socrata.WithTimeout(cfg.Dataset.Timeout()),
		socrata.WithPageSize(cfg.Dataset.PageSize),
		socrata.WithMetrics(m),
	)
}

func compileCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Translate a query into SoQL without fetching",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.schema()
			if err != nil {
				return err
			}
			q, err := flags.query()
			if err != nil {
				return err
			}
			c, err := newClient(s, nil)
			if err != nil {
				return err
			}
			u, compiled, err := c.ResourceURL(q)
			if err != nil {
				return err
			}
			for _, name := range compiled.Omitted {
				log.Warn().Str("filter", name).Str("dataset", s.DatasetID).Msg("Filter not supported by dataset, dropped")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "where: %s\n", compiled.Where)
			fmt.Fprintf(out, "url:   %s\n", u)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func fetchCommand() *cobra.Command {
	var (
		flags   queryFlags
		all          bool
		summary      bool
		demographics bool
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch records from the portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.schema()
			if err != nil {
				return err
			}
			q, err := flags.query()
			if err != nil {
				return err
			}
			c, err := newClient(s, nil)
			if err != nil {
				return err
			}

			var resp *response.Response
			if all {
				resp, err = c.Collect(cmd.Context(), q)
			} else {
				resp, err = c.Get(cmd.Context(), q)
			}
			if err != nil {
				return err
			}
			log.Info().Str("dataset", s.DatasetID).Int("records", resp.TotalReturned).Msg("Fetched records")

			if summary {
				return printJSON(cmd.OutOrStdout(), resp.Summary())
			}
			if demographics {
				_, err := fmt.Fprint(cmd.OutOrStdout(), resp.DemographicSummary())
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&all, "all", false, "follow pages until the dataset is exhausted")
	cmd.Flags().BoolVar(&summary, "summary", false, "print summary statistics instead of records")
	cmd.Flags().BoolVar(&demographics, "demographics", false, "print the complainant demographic breakdown instead of records")
	return cmd
}

func metadataCommand() *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Show the dataset's portal metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := queryFlags{preset: preset}
			s, err := flags.schema()
			if err != nil {
				return err
			}
			c, err := newClient(s, nil)
			if err != nil {
				return err
			}
			meta, err := c.Metadata(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), meta)
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "dataset preset (default from config)")
	return cmd
}
