package app

import (
	"context"
	"fmt"
	"io"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/location"
)

// RunHeadless drives the refresh cycle without a terminal UI, printing one
// line per sample to out. Notifications go through the dispatcher's direct
// channel. It returns when the sampler ends or ctx is done.
func RunHeadless(ctx context.Context, deps Deps, out io.Writer) error {
	sampler := location.NewSampler(deps.Source, location.Options{HighAccuracy: deps.Settings.HighAccuracy()})
	defer sampler.Stop()

	mode := location.ModeFromSeconds(deps.Settings.UpdateInterval())
	deps.Messages.Append("watching position: " + mode.Kind.String())

	for ev := range sampler.Start(ctx, mode) {
		if ev.Err != nil {
			fmt.Fprintf(out, "location: %v\n", ev.Err)
			continue
		}

		cycle, err := deps.Engine.HandlePosition(ctx, ev.Coord)
		if err != nil {
			fmt.Fprintf(out, "%s  %v\n", geo.FormatTimestamp(ev.Coord.Timestamp), err)
			continue
		}

		line := fmt.Sprintf("%s  %s  %s refresh  labs=%d notified=%d",
			geo.FormatTimestamp(ev.Coord.Timestamp), ev.Coord, cycle.Decision.Kind, cycle.Labs, cycle.Notified)
		if ev.Coord.Heading != nil {
			line += "  " + geo.FormatBearing(*ev.Coord.Heading)
		}
		if cycle.FetchErr != nil {
			line += "  fetch failed: " + cycle.FetchErr.Error()
		}
		fmt.Fprintln(out, line)
	}
	return ctx.Err()
}
