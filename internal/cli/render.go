package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/khIbrahim/popcornon/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderOverview(w io.Writer, s model.Stats) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Pending requests\t%d\n", s.PendingRequests)
	fmt.Fprintf(tw, "Active cinemas\t%d\n", s.ActiveCinemas)
	fmt.Fprintf(tw, "Archived cinemas\t%d\n", s.ArchivedCinemas)
	fmt.Fprintf(tw, "Partners\t%d\n", s.TotalPartners)
	_ = tw.Flush()

	if len(s.Weekly) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This week")
	peak := 1
	for _, d := range s.Weekly {
		if d.Requests > peak {
			peak = d.Requests
		}
	}
	tw = newTable(w)
	for _, d := range s.Weekly {
		bar := strings.Repeat("█", d.Requests*20/peak)
		fmt.Fprintf(tw, "%s\t%s\t%d req\t%d ok\n", d.Day, bar, d.Requests, d.Approvals)
	}
	_ = tw.Flush()
}

func renderActivity(w io.Writer, items []model.Activity) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No recent activity.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCINEMA\tCITY\tSTATUS\tSUBMITTED")
	for _, a := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.CinemaName, a.City, a.Status, a.CreatedAt.Format(time.DateOnly))
	}
	_ = tw.Flush()
}

func renderCinemas(w io.Writer, items []model.Cinema) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No cinemas found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCITY")
	for _, c := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.City)
	}
	_ = tw.Flush()
}
