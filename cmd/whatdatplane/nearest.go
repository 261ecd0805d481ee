package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

var (
	nearestLat     float64
	nearestLon     float64
	nearestAddress string
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Identify the aircraft nearest to a point or address",
	Example: `  whatdatplane nearest --lat 40.7128 --lon -74.0060
  whatdatplane nearest --address "Times Square, New York"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		hasPoint := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")
		if hasPoint == (nearestAddress != "") {
			return eris.New("provide either --lat and --lon or --address")
		}

		svc, err := buildServices(cfg)
		if err != nil {
			return err
		}

		point := coordinates.GeoPoint{Latitude: nearestLat, Longitude: nearestLon}
		if nearestAddress != "" {
			res, err := svc.geocoder.Geocode(ctx, nearestAddress)
			if err != nil {
				return eris.Wrap(err, "geocode")
			}
			point = res.Point
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", res.DisplayName, point)
		}

		found, err := svc.finder.Find(ctx, point)
		if err != nil {
			return eris.Wrap(err, "nearest flight")
		}

		details := svc.enricher.Enrich(ctx, found.Flight)
		fmt.Fprintln(cmd.OutOrStdout(), renderCard(point, details))
		return nil
	},
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve an address to coordinates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices(cfg)
		if err != nil {
			return err
		}

		res, err := svc.geocoder.Geocode(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "geocode")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", res.Point, res.DisplayName)
		return nil
	},
}

func init() {
	nearestCmd.Flags().Float64Var(&nearestLat, "lat", 0, "latitude in decimal degrees")
	nearestCmd.Flags().Float64Var(&nearestLon, "lon", 0, "longitude in decimal degrees")
	nearestCmd.Flags().StringVar(&nearestAddress, "address", "", "free-text address to geocode first")
	nearestCmd.MarkFlagsRequiredTogether("lat", "lon")
	rootCmd.AddCommand(nearestCmd, geocodeCmd)
}
