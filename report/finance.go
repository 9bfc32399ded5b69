// Package report renders financial summaries as xlsx workbooks.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/project-engine/ledger"
)

const (
	OverviewSheet = "Overview"
	ProjectsSheet = "Projects"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var projectHeaders = []string{
	"Project", "Status", "Currency", "Budget", "Allocated", "Spent",
	"Estimated Cost", "Actual Cost", "Profit/Loss", "Profit/Loss %",
	"CPI", "SPI", "Hours Utilization %", "Budget Utilization %",
	"Total Paid", "Pending", "Approved Unpaid", "Remaining Budget", "Over Budget",
}

// WriteFinance writes the overview and one row per project to w.
func WriteFinance(w io.Writer, o ledger.Overview, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(OverviewSheet); err != nil {
		return fmt.Errorf("create overview sheet: %w", err)
	}
	projects, err := f.NewSheet(ProjectsSheet)
	if err != nil {
		return fmt.Errorf("create projects sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := writeOverview(f, o, generatedAt); err != nil {
		return err
	}
	if err := writeProjects(f, o.Projects); err != nil {
		return err
	}

	f.SetActiveSheet(projects)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeOverview(f *excelize.File, o ledger.Overview, generatedAt time.Time) error {
	rows := [][]any{
		{"Generated At", generatedAt.UTC().Format(time.RFC3339)},
		{"Projects", o.ProjectCount},
		{"Over Budget", o.OverBudgetCount},
		{"Total Budget", money(o.TotalBudget)},
		{"Total Allocated", money(o.TotalAllocated)},
		{"Total Estimated Cost", money(o.TotalEstimated)},
		{"Total Actual Cost", money(o.TotalActual)},
		{"Total Profit/Loss", money(o.TotalProfitLoss)},
		{"Total Paid", money(o.TotalPaid)},
		{"Total Pending", money(o.TotalPending)},
		{"Total Approved Unpaid", money(o.TotalApproved)},
		{"Budget Utilization %", money(o.BudgetUtilization)},
		{"Average CPI", money(o.AverageCPI)},
	}

	statuses := make([]string, 0, len(o.ProjectsByStatus))
	for s := range o.ProjectsByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		rows = append(rows, []any{"Status: " + s, o.ProjectsByStatus[ledger.ProjectStatus(s)]})
	}

	for i, row := range rows {
		if err := setRow(f, OverviewSheet, i+1, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(OverviewSheet, "A", "A", 24)
}

func writeProjects(f *excelize.File, summaries []ledger.ProjectFinance) error {
	header := make([]any, len(projectHeaders))
	for i, h := range projectHeaders {
		header[i] = h
	}
	if err := setRow(f, ProjectsSheet, 1, header); err != nil {
		return err
	}

	for i, p := range summaries {
		over := "no"
		if p.IsOverBudget() {
			over = "yes"
		}
		row := []any{
			p.ProjectName, string(p.Status), p.Currency,
			money(p.Budget), money(p.AllocatedAmount), money(p.SpentAmount),
			money(p.EstimatedTotalCost), money(p.ActualTotalCost),
			money(p.ProfitLoss), money(p.ProfitLossPercentage),
			money(p.CostPerformanceIndex), money(p.SchedulePerformanceIndex),
			money(p.HoursUtilization), money(p.BudgetUtilization),
			money(p.TotalPaid), money(p.PendingPayments), money(p.ApprovedUnpaid),
			money(p.RemainingBudget), over,
		}
		if err := setRow(f, ProjectsSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(ProjectsSheet, "A", "A", 28)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
