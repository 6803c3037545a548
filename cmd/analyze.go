package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/frontage-cli/internal/facing"
	"github.com/sells-group/frontage-cli/internal/ingest"
	"github.com/sells-group/frontage-cli/internal/model"
	"github.com/sells-group/frontage-cli/internal/report"
)

var (
	analyzeProperties       string
	analyzePropertiesFormat string
	analyzeRoads            string
	analyzeRoadIDField      string
	analyzeOutput           string
	analyzeFormat           string
	analyzeResolution       int
	analyzeUnits            string
	analyzeMaxDistance      float64
	analyzeWorkers          int
	analyzeDryRun           bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze which compass direction each property faces",
	Long:  "Loads a property table and a road shapefile, matches each property to its nearest road segment, and reports the facing direction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		properties, err := loadProperties(analyzeProperties, analyzePropertiesFormat)
		if err != nil {
			return err
		}

		roadIDField := analyzeRoadIDField
		if roadIDField == "" {
			roadIDField = cfg.Ingest.RoadIDField
		}
		roads, err := ingest.ReadRoadsShapefile(analyzeRoads, roadIDField)
		if err != nil {
			return err
		}

		opts := facing.Options{
			CompassResolution: cfg.Analyze.CompassResolution,
			DistanceUnits:     cfg.Analyze.DistanceUnits,
			MaxDistanceMeters: cfg.Analyze.MaxDistanceMeters,
			TieBreakTolerance: cfg.Analyze.TieBreakTolerance,
			Workers:           cfg.Analyze.Workers,
		}
		if cmd.Flags().Changed("resolution") {
			opts.CompassResolution = analyzeResolution
		}
		if cmd.Flags().Changed("units") {
			opts.DistanceUnits = analyzeUnits
		}
		if cmd.Flags().Changed("max-distance") {
			opts.MaxDistanceMeters = analyzeMaxDistance
		}
		if cmd.Flags().Changed("workers") {
			opts.Workers = analyzeWorkers
		}

		var run *model.Run
		if !analyzeDryRun {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}

			run, err = st.CreateRun(ctx, model.RunParams{
				PropertiesPath:    analyzeProperties,
				RoadsPath:         analyzeRoads,
				CompassResolution: opts.CompassResolution,
				DistanceUnits:     opts.DistanceUnits,
				MaxDistanceMeters: opts.MaxDistanceMeters,
				Workers:           opts.Workers,
			})
			if err != nil {
				return err
			}

			results, err := facing.Analyze(ctx, properties, roads, opts)
			if err != nil {
				if serr := st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); serr != nil {
					zap.L().Error("mark run failed", zap.String("run_id", run.ID), zap.Error(serr))
				}
				return err
			}

			if err := st.SaveResults(ctx, run.ID, results); err != nil {
				return err
			}
			summary := model.Summarize(results)
			summary.DurationMS = time.Since(start).Milliseconds()
			if err := st.CompleteRun(ctx, run.ID, &summary); err != nil {
				return err
			}

			zap.L().Info("analysis complete",
				zap.String("run_id", run.ID),
				zap.Int("properties", summary.Properties),
				zap.Int("resolved", summary.Resolved),
				zap.Int("no_road", summary.NoRoad),
				zap.Int64("duration_ms", summary.DurationMS),
			)

			return writeReport(analyzeOutput, analyzeFormat, properties, results)
		}

		results, err := facing.Analyze(ctx, properties, roads, opts)
		if err != nil {
			return err
		}
		zap.L().Info("analysis complete (dry run)",
			zap.Int("properties", len(results)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return writeReport(analyzeOutput, analyzeFormat, properties, results)
	},
}

// loadProperties reads the property table, selecting the reader by explicit
// format flag or by file extension.
func loadProperties(path, format string) ([]model.Property, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			format = "xlsx"
		default:
			format = "csv"
		}
	}

	switch format {
	case "csv":
		return ingest.ReadPropertiesCSV(path)
	case "xlsx":
		return ingest.ReadPropertiesXLSX(path)
	default:
		return nil, eris.Errorf("unsupported properties format: %s", format)
	}
}

func writeReport(path, format string, properties []model.Property, results []model.FacingResult) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create report %s", path)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			format = "xlsx"
		case ".geojson", ".json":
			format = "geojson"
		default:
			format = "csv"
		}
	}

	switch format {
	case "csv":
		return report.WriteCSV(out, results)
	case "xlsx":
		return report.WriteXLSX(out, results)
	case "geojson":
		return report.WriteGeoJSON(out, properties, results)
	default:
		return eris.Errorf("unsupported report format: %s", format)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeProperties, "properties", "", "path to property table (CSV or XLSX)")
	analyzeCmd.Flags().StringVar(&analyzePropertiesFormat, "properties-format", "", "property table format: csv or xlsx (default from extension)")
	analyzeCmd.Flags().StringVar(&analyzeRoads, "roads", "", "path to road shapefile")
	analyzeCmd.Flags().StringVar(&analyzeRoadIDField, "road-id-field", "", "shapefile attribute holding the road identifier")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "report output path (default stdout)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "", "report format: csv, xlsx, or geojson (default from extension)")
	analyzeCmd.Flags().IntVar(&analyzeResolution, "resolution", 8, "compass resolution: 4, 8, or 16")
	analyzeCmd.Flags().StringVar(&analyzeUnits, "units", facing.UnitsMeters, "distance units: meters or degrees")
	analyzeCmd.Flags().Float64Var(&analyzeMaxDistance, "max-distance", 200, "max property-to-road match distance in meters (0 = unlimited)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "analysis workers (0 = number of CPUs)")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "skip run persistence")

	_ = analyzeCmd.MarkFlagRequired("properties")
	_ = analyzeCmd.MarkFlagRequired("roads")

	rootCmd.AddCommand(analyzeCmd)
}
