package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/roadprox-cli/internal/model"
	"github.com/sells-group/roadprox-cli/internal/roads"
	"github.com/sells-group/roadprox-cli/pkg/geo"
)

var (
	nearestLat    float64
	nearestLon    float64
	nearestRadius float64
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Resolve the nearest road to a single coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := geo.Point{Lat: nearestLat, Lon: nearestLon}
		if err := p.Validate(); err != nil {
			return err
		}
		if nearestRadius > 0 {
			cfg.Overpass.RadiusMeters = nearestRadius
		}

		resolver, radius, closeResolver := initResolver(cmd.Context(), cfg)
		defer closeResolver()

		road, err := resolver.NearestRoad(cmd.Context(), p)
		if err != nil && !errors.Is(err, roads.ErrNoRoad) {
			return err
		}
		return writeNearest(os.Stdout, p, radius, road)
	},
}

type nearestOutput struct {
	Point    geo.Point            `json:"point"`
	Radius   float64              `json:"radius_m"`
	Status   model.DistanceStatus `json:"status"`
	Distance *float64             `json:"distance"`
	Road     *roads.Road          `json:"road,omitempty"`
}

// writeNearest prints the lookup result. A nil road prints a null distance.
func writeNearest(w io.Writer, p geo.Point, radius float64, road *roads.Road) error {
	out := nearestOutput{Point: p, Radius: radius, Status: model.StatusNoRoad}
	if road != nil {
		out.Status = model.StatusOK
		out.Distance = model.Float64(road.DistanceMeters)
		out.Road = road
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	nearestCmd.Flags().Float64Var(&nearestLat, "lat", 0, "latitude in degrees (required)")
	nearestCmd.Flags().Float64Var(&nearestLon, "lon", 0, "longitude in degrees (required)")
	nearestCmd.Flags().Float64Var(&nearestRadius, "radius", 0, "search radius in meters (default from overpass.radius_meters)")
	_ = nearestCmd.MarkFlagRequired("lat")
	_ = nearestCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(nearestCmd)
}
