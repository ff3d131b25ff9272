package tripload

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/pkg/errors"

	"github.com/MasterOfBinary/tripload/store"
)

// WindowLayout is how the start of a 2-hour window is printed.
const WindowLayout = "2006-01-02 15:04"

// WriteReport prints the station activity as a table, one row per station and
// 2-hour window, followed by the number of matched trips.
func WriteReport(w io.Writer, report *store.StationReport) error {
	if report == nil {
		return errors.New("attempt to write out nil report")
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)

	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault

	t.AppendHeader(table.Row{"station", "trips", "window", "window trips"})
	for _, station := range report.Stations {
		if len(station.Windows) == 0 {
			t.AppendRow(table.Row{station.Name, station.Trips, "", ""})
			continue
		}
		for i, win := range station.Windows {
			name, trips := station.Name, interface{}(station.Trips)
			if i > 0 {
				name, trips = "", ""
			}
			t.AppendRow(table.Row{name, trips, win.Start.Format(WindowLayout), win.Trips})
		}
	}
	t.Render()

	if _, err := fmt.Fprintf(w, "\nTotal trips: %d\n", report.Total); err != nil {
		return errors.Wrap(err, "writing total")
	}
	return nil
}
