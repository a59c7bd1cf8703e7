// Package export turns a domain.Candidate into the PDF/CSV timetable grids
// generate() hands back per semester tag, reusing pkg/export's generic
// Dataset renderers rather than building bespoke layout code.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/timetable-engine/internal/domain"
	"github.com/noah-isme/timetable-engine/internal/semester"
	"github.com/noah-isme/timetable-engine/pkg/export"
)

// Exporter renders one semester's sessions as a day-by-period grid.
type Exporter struct {
	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// New constructs an Exporter.
func New() *Exporter {
	return &Exporter{csv: export.NewCSVExporter(), pdf: export.NewPDFExporter()}
}

// Grid builds the Dataset for one semester's sessions: one row per
// period index at which at least one session starts (on any day), one
// column per day.
func Grid(sessions []domain.ScheduledSession, days []domain.Day) export.Dataset {
	dayNames := make(map[string]string, len(days))
	dayOrder := make([]string, 0, len(days))
	for _, d := range days {
		dayNames[d.ID] = d.Name
		dayOrder = append(dayOrder, d.ID)
	}

	type cellKey struct {
		period int
		day    string
	}
	cells := map[cellKey]string{}
	periodSet := map[int]bool{}
	for _, s := range sessions {
		if len(s.Periods) == 0 {
			continue
		}
		p := s.Periods[0]
		periodSet[p] = true
		label := fmt.Sprintf("%s\n%s (%s)", s.Subject, s.Teacher, s.Room)
		key := cellKey{period: p, day: s.Day}
		if existing, ok := cells[key]; ok {
			cells[key] = existing + " / " + label
		} else {
			cells[key] = label
		}
	}

	periods := make([]int, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	headers := append([]string{"Period"}, dayHeaders(dayOrder, dayNames)...)
	rows := make([]map[string]string, 0, len(periods))
	for _, p := range periods {
		row := map[string]string{"Period": fmt.Sprintf("%d", p)}
		for _, dayID := range dayOrder {
			header := dayHeader(dayID, dayNames)
			row[header] = cells[cellKey{period: p, day: dayID}]
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func dayHeaders(order []string, names map[string]string) []string {
	out := make([]string, len(order))
	for i, id := range order {
		out[i] = dayHeader(id, names)
	}
	return out
}

func dayHeader(dayID string, names map[string]string) string {
	if name, ok := names[dayID]; ok && name != "" {
		return name
	}
	return dayID
}

// RenderCSV returns CSV bytes for one semester's sessions.
func (e *Exporter) RenderCSV(sessions []domain.ScheduledSession, days []domain.Day) ([]byte, error) {
	return e.csv.Render(Grid(sessions, days))
}

// RenderPDF returns a titled PDF table for one semester's sessions.
func (e *Exporter) RenderPDF(tag string, sessions []domain.ScheduledSession, days []domain.Day) ([]byte, error) {
	return e.pdf.Render(Grid(sessions, days), strings.TrimSpace(tag)+" timetable")
}

// RenderAll partitions a Candidate by semester tag and renders a PDF per
// tag, keyed by semester tag (§4.9, §6.2).
func RenderAll(candidate *domain.Candidate, days []domain.Day) (map[string][]byte, error) {
	e := New()
	out := map[string][]byte{}
	for tag, sessions := range semester.Partition(candidate) {
		pdf, err := e.RenderPDF(tag, sessions, days)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", tag, err)
		}
		out[tag] = pdf
	}
	return out, nil
}
