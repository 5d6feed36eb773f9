package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// RootTotals summarizes the processing of one source root
type RootTotals struct {
	Root      string
	Files     int
	Bytes     int64
	Records   int
	Skipped   int
	Songplays int
	Matched   int
	Duration  time.Duration
}

// Summary represents the end-of-run report
type Summary struct {
	GeneratedAt  time.Time
	Database     string
	EventLogPath string
	Roots        []RootTotals
	// TableRows holds the row count per table after the run
	TableRows map[string]int64
}

// TableOrder is the order tables are listed in; unknown tables follow sorted.
var TableOrder = []string{"songplays", "users", "songs", "artists", "time"}

// Render writes the summary as plain text
func (s *Summary) Render(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Summary (%s)\n", s.GeneratedAt.Format(time.RFC3339))
	if s.Database != "" {
		fmt.Fprintf(&b, "  Database: %s\n", s.Database)
	}
	if s.EventLogPath != "" {
		fmt.Fprintf(&b, "  Event log: %s\n", s.EventLogPath)
	}

	for _, r := range s.Roots {
		fmt.Fprintf(&b, "  %s: %s files, %s, %s records in %v\n",
			r.Root, humanize.Comma(int64(r.Files)), humanize.Bytes(uint64(r.Bytes)),
			humanize.Comma(int64(r.Records)), r.Duration.Round(time.Millisecond))
		if r.Songplays > 0 {
			fmt.Fprintf(&b, "    songplays: %s inserted, %s matched a song (%.1f%%), %s non-playback events skipped\n",
				humanize.Comma(int64(r.Songplays)), humanize.Comma(int64(r.Matched)),
				percent(r.Matched, r.Songplays), humanize.Comma(int64(r.Skipped)))
		}
	}

	if len(s.TableRows) > 0 {
		b.WriteString("  Table rows:\n")
		for _, table := range orderedTables(s.TableRows) {
			fmt.Fprintf(&b, "    %-10s %s\n", table, humanize.Comma(s.TableRows[table]))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func orderedTables(rows map[string]int64) []string {
	known := make(map[string]bool, len(TableOrder))
	var out []string
	for _, t := range TableOrder {
		known[t] = true
		if _, ok := rows[t]; ok {
			out = append(out, t)
		}
	}
	var extra []string
	for t := range rows {
		if !known[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
