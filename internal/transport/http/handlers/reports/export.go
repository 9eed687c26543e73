package reportshandler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"worktrack/internal/domain/reports"
	"worktrack/internal/transport/http/api"
)

var payrollColumns = []string{
	"technician", "job", "ticket", "first_worked", "last_worked", "hours",
	"effective_rate", "base_pay", "mileage_pay", "per_diem", "personal_expenses",
	"total_pay", "profit_share", "using_minimum",
}

func payrollRows(report reports.PayrollReport) [][]string {
	var out [][]string
	for _, block := range report.Technicians {
		for _, line := range block.Jobs {
			out = append(out, []string{
				block.TechName,
				fmt.Sprintf("%d", line.JobID),
				line.TicketNumber,
				line.FirstWorked.Format("2006-01-02"),
				line.LastWorked.Format("2006-01-02"),
				fmt.Sprintf("%.2f", line.Pay.Hours),
				fmt.Sprintf("%.2f", line.Pay.EffectiveRate),
				fmt.Sprintf("%.2f", line.Pay.BasePay),
				fmt.Sprintf("%.2f", line.Pay.MileagePay),
				fmt.Sprintf("%.2f", line.Pay.PerDiem),
				fmt.Sprintf("%.2f", line.Pay.PersonalExpenses),
				fmt.Sprintf("%.2f", line.Pay.TotalPay),
				fmt.Sprintf("%.2f", line.Pay.ProfitShare),
				fmt.Sprintf("%t", line.Pay.UsingMinimum),
			})
		}
		out = append(out, []string{
			block.TechName + " subtotal", "", "", "", "",
			fmt.Sprintf("%.2f", block.Subtotals.TotalHours), "",
			fmt.Sprintf("%.2f", block.Subtotals.TotalBasePay),
			fmt.Sprintf("%.2f", block.Subtotals.TotalMileagePay),
			fmt.Sprintf("%.2f", block.Subtotals.TotalPerDiem),
			fmt.Sprintf("%.2f", block.Subtotals.TotalPersonalExpenses),
			fmt.Sprintf("%.2f", block.Subtotals.TotalPay),
			fmt.Sprintf("%.2f", block.Subtotals.TotalProfitShare), "",
		})
	}
	out = append(out, []string{
		"grand total", "", "", "", "",
		fmt.Sprintf("%.2f", report.GrandTotals.TotalHours), "",
		fmt.Sprintf("%.2f", report.GrandTotals.TotalBasePay),
		fmt.Sprintf("%.2f", report.GrandTotals.TotalMileagePay),
		fmt.Sprintf("%.2f", report.GrandTotals.TotalPerDiem),
		fmt.Sprintf("%.2f", report.GrandTotals.TotalPersonalExpenses),
		fmt.Sprintf("%.2f", report.GrandTotals.TotalPay),
		fmt.Sprintf("%.2f", report.GrandTotals.TotalProfitShare), "",
	})
	return out
}

func writePayrollCSV(w http.ResponseWriter, report reports.PayrollReport) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write(payrollColumns); err != nil {
		slog.Warn("payroll csv header write failed", "err", err)
		return
	}
	for _, row := range payrollRows(report) {
		if err := writer.Write(row); err != nil {
			slog.Warn("payroll csv row write failed", "err", err)
			return
		}
	}
	writer.Flush()
}

func writePayrollXLSX(w http.ResponseWriter, report reports.PayrollReport, requestID string) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("close workbook failed", "err", err)
		}
	}()

	const sheet = "Payroll"
	index, err := f.NewSheet(sheet)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build workbook", requestID)
		return
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Warn("delete default sheet failed", "err", err)
	}

	for col, name := range payrollColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build workbook", requestID)
			return
		}
	}
	for rowIdx, row := range payrollRows(report) {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build workbook", requestID)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll.xlsx")
	if err := f.Write(w); err != nil {
		slog.Warn("payroll xlsx write failed", "err", err)
	}
}

func writePayrollPDF(w http.ResponseWriter, report reports.PayrollReport, requestID string) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Payroll %s to %s",
		report.FromDate.Format("2006-01-02"), report.ToDate.Format("2006-01-02")))
	pdf.Ln(12)

	for _, block := range report.Technicians {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 8, block.TechName)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range block.Jobs {
			pdf.Cell(0, 6, fmt.Sprintf("  Job %d %s  %s to %s  %.2fh  base %.2f  mileage %.2f  total %.2f",
				line.JobID, line.TicketNumber,
				line.FirstWorked.Format("2006-01-02"), line.LastWorked.Format("2006-01-02"),
				line.Pay.Hours, line.Pay.BasePay, line.Pay.MileagePay, line.Pay.TotalPay))
			pdf.Ln(6)
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 7, fmt.Sprintf("  Subtotal  %.2fh  base %.2f  total %.2f",
			block.Subtotals.TotalHours, block.Subtotals.TotalBasePay, block.Subtotals.TotalPay))
		pdf.Ln(10)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Grand total  %.2fh  base %.2f  total %.2f",
		report.GrandTotals.TotalHours, report.GrandTotals.TotalBasePay, report.GrandTotals.TotalPay))

	if pdf.Err() {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build pdf", requestID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll.pdf")
	if err := pdf.Output(w); err != nil {
		slog.Warn("payroll pdf write failed", "err", err)
	}
}

func writeBillingCSV(w http.ResponseWriter, report reports.BillingReport) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=billing.csv")
	writer := csv.NewWriter(w)
	header := []string{"job", "ticket", "client", "job_date", "status", "billing", "expenses", "commissions", "net", "hours", "tech_pay", "margin"}
	if err := writer.Write(header); err != nil {
		slog.Warn("billing csv header write failed", "err", err)
		return
	}
	for _, line := range report.Jobs {
		billing := ""
		if line.BillingAmount != nil {
			billing = fmt.Sprintf("%.2f", *line.BillingAmount)
		}
		jobDate := ""
		if line.JobDate != nil {
			jobDate = line.JobDate.Format("2006-01-02")
		}
		row := []string{
			fmt.Sprintf("%d", line.JobID),
			line.TicketNumber,
			line.ClientName,
			jobDate,
			line.Status,
			billing,
			fmt.Sprintf("%.2f", line.Expenses),
			fmt.Sprintf("%.2f", line.Commissions),
			fmt.Sprintf("%.2f", line.JobNet),
			fmt.Sprintf("%.2f", line.TotalHours),
			fmt.Sprintf("%.2f", line.TechPay),
			fmt.Sprintf("%.2f", line.Margin),
		}
		if err := writer.Write(row); err != nil {
			slog.Warn("billing csv row write failed", "err", err)
			return
		}
	}
	writer.Flush()
}
