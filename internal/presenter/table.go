// Package presenter renders rankings for the terminal.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/naka-gawa/repo-ranking/internal/domain"
)

// Report is everything shown for one organization.
type Report struct {
	Organization domain.Organization `json:"organization"`
	Metric       domain.Metric       `json:"metric"`
	Total        int                 `json:"total_repositories"`
	Ranking      []domain.RankedRepo `json:"ranking"`
	Summary      domain.Summary      `json:"summary"`
}

// column is one column of a report layout.
type column struct {
	title   string
	numeric bool
	value   func(r domain.RankedRepo) string
}

var (
	rankColumn = column{title: "#", numeric: true, value: func(r domain.RankedRepo) string { return strconv.Itoa(r.Rank) }}
	nameColumn = column{title: "Repository", value: func(r domain.RankedRepo) string { return r.Repo.Name }}
	forkColumn = column{title: "Forks", numeric: true, value: func(r domain.RankedRepo) string { return r.Repo.Forks.String() }}
	starColumn = column{title: "Stars", numeric: true, value: func(r domain.RankedRepo) string { return r.Repo.Stars.String() }}
	prColumn   = column{title: "Pull Requests", numeric: true, value: func(r domain.RankedRepo) string { return r.Repo.PRs.String() }}
	pctColumn  = column{title: "Contribution %", numeric: true, value: func(r domain.RankedRepo) string { return fmt.Sprintf("%.1f", r.Value) }}
)

// layout returns the columns shown when ranking by m.
func layout(m domain.Metric) []column {
	switch m {
	case domain.MetricForks:
		return []column{rankColumn, nameColumn, forkColumn}
	case domain.MetricStars:
		return []column{rankColumn, nameColumn, starColumn}
	case domain.MetricPullRequests:
		return []column{rankColumn, nameColumn, prColumn}
	default:
		return []column{rankColumn, nameColumn, forkColumn, prColumn, pctColumn}
	}
}

// WriteTable writes the report as a fixed-width text table followed by a summary line.
func WriteTable(w io.Writer, report Report) error {
	cols := layout(report.Metric)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.title
	}
	rows := make([][]string, len(report.Ranking))
	for i, r := range report.Ranking {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.value(r)
		}
		rows[i] = row
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cell.Bold(true)
			}
			if cols[col].numeric {
				return cell.Align(lipgloss.Right)
			}
			return cell
		})

	title := fmt.Sprintf("Top %d of %d repositories in %s by %s",
		len(report.Ranking), report.Total, displayName(report.Organization), report.Metric.Title())
	if _, err := fmt.Fprintf(w, "%s\n%s\n", title, t.Render()); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	s := report.Summary
	if s.Count > 0 {
		if _, err := fmt.Fprintf(w, "mean %.2f  median %.2f  p90 %.2f  max %.2f\n", s.Mean, s.Median, s.P90, s.Max); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

// WriteJSON writes the reports as pretty-printed JSON.
func WriteJSON(w io.Writer, reports []Report) error {
	jsonData, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(jsonData)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func displayName(o domain.Organization) string {
	if o.Name == "" || o.Name == o.Login {
		return o.Login
	}
	return fmt.Sprintf("%s (%s)", o.Name, o.Login)
}
