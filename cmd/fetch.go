package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/frontage-cli/internal/ingest"
)

var (
	fetchCounty string
	fetchYear   int
	fetchURL    string
	fetchDest   string
)

var fetchRoadsCmd = &cobra.Command{
	Use:   "fetch-roads",
	Short: "Download a TIGER/Line roads shapefile",
	Long:  "Downloads a county roads shapefile from the Census Bureau and extracts it, printing the path to the .shp file for use with analyze --roads.",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fetchURL
		if url == "" {
			if fetchCounty == "" {
				return eris.New("either --county or --url is required")
			}
			url = ingest.RoadsURL(fetchYear, fetchCounty)
		}

		shpPath, err := ingest.FetchRoadsShapefile(cmd.Context(), url, fetchDest)
		if err != nil {
			return err
		}

		zap.L().Info("roads shapefile ready", zap.String("path", shpPath))
		fmt.Println(shpPath)
		return nil
	},
}

func init() {
	fetchRoadsCmd.Flags().StringVar(&fetchCounty, "county", "", "5-digit state+county FIPS code (e.g. 42101)")
	fetchRoadsCmd.Flags().IntVar(&fetchYear, "year", 2024, "TIGER/Line vintage year")
	fetchRoadsCmd.Flags().StringVar(&fetchURL, "url", "", "explicit shapefile ZIP URL (overrides --county)")
	fetchRoadsCmd.Flags().StringVar(&fetchDest, "dest", "roads", "download and extraction directory")

	rootCmd.AddCommand(fetchRoadsCmd)
}
