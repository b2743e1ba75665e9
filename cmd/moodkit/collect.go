package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/discovery"
	"github.com/rushteam/moodkit/logging"
)

var (
	collectLat    float64
	collectLng    float64
	collectRadius int
	collectOut    string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect nearby restaurants with their reviews",
	Long: `Search the places service around a point and write the candidates, with reviews,
as JSON. The output can be fed back into "moodkit rank --file".

Example:
  moodkit collect --lat 40.7580 --lng -73.9855 --radius 2000 --out data/times_square.json`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().Float64Var(&collectLat, "lat", 0, "latitude")
	collectCmd.Flags().Float64Var(&collectLng, "lng", 0, "longitude")
	collectCmd.Flags().IntVar(&collectRadius, "radius", discovery.DefaultRadius, "search radius in meters")
	collectCmd.Flags().StringVarP(&collectOut, "out", "o", "", "output file (default stdout)")
	_ = collectCmd.MarkFlagRequired("lat")
	_ = collectCmd.MarkFlagRequired("lng")
}

func runCollect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Places.APIKey == "" {
		return fmt.Errorf("places.api_key is required (MOODKIT_PLACES_API_KEY)")
	}
	places, err := discovery.NewPlacesClient(cfg.Places)
	if err != nil {
		return err
	}

	candidates, err := places.Search(cmd.Context(), discovery.SearchRequest{
		Lat:    collectLat,
		Lng:    collectLng,
		Radius: collectRadius,
	})
	if err != nil {
		return err
	}
	logCollectStats(candidates)

	if collectOut == "" {
		return writeIndented(cmd.OutOrStdout(), candidates)
	}
	f, err := os.Create(collectOut)
	if err != nil {
		return err
	}
	if err := writeIndented(f, candidates); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func logCollectStats(candidates []core.RestaurantCandidate) {
	reviews := 0
	for _, c := range candidates {
		reviews += len(c.Reviews)
	}
	log := logging.Component("cli")
	log.Info().
		Int("restaurants", len(candidates)).
		Int("reviews", reviews).
		Msg("collected")
}
