package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/whatdatplane/internal/enrich"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Italic(true)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// formatAltitude renders meters as feet.
func formatAltitude(m *float64) string {
	if m == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f ft", *m*coordinates.MetersToFeet)
}

// formatSpeed renders m/s as knots.
func formatSpeed(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f kt", *v*coordinates.MetersPerSecondToKnots)
}

// formatVerticalRate renders m/s as signed feet per minute.
func formatVerticalRate(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.0f ft/min", *v*coordinates.MetersPerSecondToFeetPerMinute)
}

func formatHeading(deg *float64) string {
	if deg == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f° %s", *deg, coordinates.CompassPoint(*deg))
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "n/a"
	}
	return *s
}

// renderCard formats a flight and its enrichment for the terminal.
func renderCard(origin coordinates.GeoPoint, d enrich.Details) string {
	f := d.Flight
	bearing := coordinates.Bearing(origin, f.Position())

	var rows []string
	row := func(label, value string) {
		rows = append(rows, labelStyle.Render(label)+valueStyle.Render(value))
	}

	row("Callsign", f.Callsign)
	row("ICAO24", f.ICAO24)
	row("Registration", orNA(f.Registration))
	row("Type", orNA(f.AircraftType))
	row("Airline", orNA(f.Airline))
	if f.Departure != nil || f.Arrival != nil {
		row("Route", fmt.Sprintf("%s → %s", orNA(f.Departure), orNA(f.Arrival)))
	}
	row("Distance", fmt.Sprintf("%.2f km %s", coordinates.Round2(f.DistanceKm), coordinates.CompassPoint(bearing)))
	row("Altitude", formatAltitude(f.BaroAltitude))
	row("Speed", formatSpeed(f.Velocity))
	row("Heading", formatHeading(f.TrueTrack))
	row("Climb", formatVerticalRate(f.VerticalRate))
	row("Position", f.Position().String())

	if p := d.Photo.Value; p != nil && p.HasPhoto() {
		url := p.PhotoURL
		if url == nil {
			url = p.ThumbnailURL
		}
		label := "Photo"
		if p.IsGeneric {
			label = "Photo (type)"
		}
		row(label, *url)
	}
	if t := d.Track.Value; t != nil {
		row("Track", fmt.Sprintf("%d points", len(t.Path)))
	}

	var notes []string
	for _, n := range []struct {
		lookup string
		status enrich.Status
		reason string
	}{
		{"registration", d.Registration.Status, d.Registration.Reason},
		{"photo", d.Photo.Status, d.Photo.Reason},
		{"track", d.Track.Status, d.Track.Reason},
	} {
		if n.status == enrich.StatusUnavailable || n.status == enrich.StatusFailed {
			notes = append(notes, noteStyle.Render(fmt.Sprintf("%s %s: %s", n.lookup, n.status, n.reason)))
		}
	}

	body := strings.Join(rows, "\n")
	if len(notes) > 0 {
		body += "\n\n" + strings.Join(notes, "\n")
	}
	return titleStyle.Render("NEAREST AIRCRAFT") + "\n" + cardStyle.Render(body)
}
