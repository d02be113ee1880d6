package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderReports(reports []*pipeline.Report) string {
	headers := []string{"Stage", "Eligible", "Processed", "Failed", "Skipped", "Outcome", "Source", "Duration"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignRight}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		outcomes := make([]string, 0, len(r.ByStatus))
		for _, s := range model.AllStatuses {
			if n := r.ByStatus[s]; n > 0 {
				outcomes = append(outcomes, fmt.Sprintf("%s=%d", s, n))
			}
		}
		rows = append(rows, []string{
			r.Stage,
			strconv.Itoa(r.Eligible),
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Skipped),
			strings.Join(outcomes, " "),
			joinCounts(r.BySource),
			r.Duration.Round(time.Millisecond).String(),
		})
	}
	return renderTable(headers, rows, aligns)
}

func renderCounts(counts map[model.LeadStatus]int) string {
	rows := make([][]string, 0, len(model.AllStatuses)+1)
	total := 0
	for _, s := range model.AllStatuses {
		n := counts[s]
		total += n
		rows = append(rows, []string{string(s), strconv.Itoa(n)})
	}
	rows = append(rows, []string{"TOTAL", strconv.Itoa(total)})
	return renderTable([]string{"Status", "Leads"}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderDeadLetters(dls []model.DeadLetter) string {
	rows := make([][]string, 0, len(dls))
	for _, dl := range dls {
		rows = append(rows, []string{
			dl.LeadID,
			dl.Stage,
			dl.ErrorType,
			strconv.Itoa(dl.Attempts),
			truncate(dl.Error, 60),
			dl.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return renderTable(
		[]string{"Lead", "Stage", "Type", "Attempts", "Error", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func joinCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
