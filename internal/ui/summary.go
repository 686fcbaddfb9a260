// FILENAME: internal/ui/summary.go
package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/xkilldash9x/owasp-driver/internal/models"
)

// Summary aggregates a finished run.
type Summary struct {
	Total        int
	Errors       int
	Novel        int
	Anomalies    int
	Statuses     map[int]int
	MeanDuration time.Duration
	MaxPayload   int
	TotalBytes   int
}

// Summarize folds results into a Summary.
func Summarize(results []models.ScanResult) Summary {
	s := Summary{Total: len(results), Statuses: make(map[int]int)}

	var sum time.Duration
	timed := 0
	for _, r := range results {
		s.TotalBytes += r.PayloadLen
		if r.PayloadLen > s.MaxPayload {
			s.MaxPayload = r.PayloadLen
		}
		if r.Meta[models.MetaNovel] == "true" {
			s.Novel++
		}
		if r.Meta[models.MetaAnomaly] != "" {
			s.Anomalies++
		}
		if r.Error != nil {
			s.Errors++
			continue
		}
		s.Statuses[r.StatusCode]++
		sum += r.Duration
		timed++
	}
	if timed > 0 {
		s.MeanDuration = sum / time.Duration(timed)
	}
	return s
}

// RenderSummary draws the summary panel.
func RenderSummary(s Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Run Summary"))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value)))
		b.WriteString("\n")
	}
	row("Probes", strconv.Itoa(s.Total))
	row("Bytes", fmt.Sprintf("%d (max %d)", s.TotalBytes, s.MaxPayload))
	row("Mean time", s.MeanDuration.Round(time.Microsecond).String())
	row("Novel", novelStyle.Render(strconv.Itoa(s.Novel)))

	anomalies := strconv.Itoa(s.Anomalies)
	if s.Anomalies > 0 {
		anomalies = anomalyStyle.Render(anomalies)
	}
	row("Anomalies", anomalies)

	errs := strconv.Itoa(s.Errors)
	if s.Errors > 0 {
		errs = anomalyStyle.Render(errs)
	}
	row("Errors", errs)

	codes := make([]int, 0, len(s.Statuses))
	for code := range s.Statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, statusColor(code).Render(strconv.Itoa(code))+fmt.Sprintf("×%d", s.Statuses[code]))
	}
	if len(parts) == 0 {
		parts = append(parts, "-")
	}
	row("Status", strings.Join(parts, "  "))

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}
