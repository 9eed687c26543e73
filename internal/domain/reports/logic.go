package reports

import (
	"fmt"
	"math"
	"sort"
	"time"

	"worktrack/internal/domain/pay"
)

// JobResult is one calculated job ready to be pivoted into reports.
type JobResult struct {
	JobID        int64
	TicketNumber string
	Description  string
	Breakdown    pay.Breakdown
	// FirstWorked/LastWorked per technician on this job.
	Windows map[int64][2]time.Time
}

// BuildPayroll pivots per-job breakdowns into a per-technician payroll
// report. Grand totals are the sum of the subtotal rows, which are in
// turn sums of already-rounded job lines, so every level reconciles.
func BuildPayroll(from, to time.Time, results []JobResult) PayrollReport {
	report := PayrollReport{FromDate: from, ToDate: to}

	blocks := map[int64]*TechnicianBlock{}
	for _, result := range results {
		report.Warnings = append(report.Warnings, result.Breakdown.Warnings...)

		for _, row := range result.Breakdown.Technicians {
			block, ok := blocks[row.TechID]
			if !ok {
				block = &TechnicianBlock{TechID: row.TechID, TechName: row.TechName}
				blocks[row.TechID] = block
			}

			window := result.Windows[row.TechID]
			block.Jobs = append(block.Jobs, pay.JobPayLine{
				JobID:        result.JobID,
				TicketNumber: result.TicketNumber,
				Description:  result.Description,
				FirstWorked:  window[0],
				LastWorked:   window[1],
				Pay:          row,
			})
			block.Subtotals = addTotals(block.Subtotals, row)
		}
	}

	ordered := make([]*TechnicianBlock, 0, len(blocks))
	for _, block := range blocks {
		ordered = append(ordered, block)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].TechName != ordered[j].TechName {
			return ordered[i].TechName < ordered[j].TechName
		}
		return ordered[i].TechID < ordered[j].TechID
	})

	for _, block := range ordered {
		sort.Slice(block.Jobs, func(i, j int) bool {
			if !block.Jobs[i].FirstWorked.Equal(block.Jobs[j].FirstWorked) {
				return block.Jobs[i].FirstWorked.Before(block.Jobs[j].FirstWorked)
			}
			return block.Jobs[i].JobID < block.Jobs[j].JobID
		})
		block.Subtotals = roundTotals(block.Subtotals)
		report.GrandTotals = sumTotals(report.GrandTotals, block.Subtotals)
		report.Technicians = append(report.Technicians, *block)
	}
	report.GrandTotals = roundTotals(report.GrandTotals)

	return report
}

// BuildBilling fills in derived columns and sums the billing report.
// Lines without a billing amount keep zeroed money columns and get an
// explicit cannot-calculate warning instead of silently reading as free.
func BuildBilling(from, to time.Time, lines []BillingLine) BillingReport {
	report := BillingReport{FromDate: from, ToDate: to, Jobs: lines}
	for i, line := range lines {
		report.Jobs[i].Margin = round2(line.JobNet - line.TechPay)

		if line.BillingAmount != nil {
			report.Totals.TotalBilling += *line.BillingAmount
		} else {
			report.Warnings = append(report.Warnings, pay.Warning{
				Code:    pay.WarnIncompleteJob,
				Message: fmt.Sprintf("job %d has no billing amount; net, pay and margin are not calculated", line.JobID),
			})
		}
		report.Totals.TotalNet += line.JobNet
		report.Totals.TotalHours += line.TotalHours
		report.Totals.TotalTechPay += line.TechPay
		report.Totals.TotalMargin += report.Jobs[i].Margin
	}
	report.Totals.TotalBilling = round2(report.Totals.TotalBilling)
	report.Totals.TotalNet = round2(report.Totals.TotalNet)
	report.Totals.TotalHours = round2(report.Totals.TotalHours)
	report.Totals.TotalTechPay = round2(report.Totals.TotalTechPay)
	report.Totals.TotalMargin = round2(report.Totals.TotalMargin)
	return report
}

// BuildHours groups raw day-grain rows into per-technician day, week and
// job rollups. Weeks start on Monday.
func BuildHours(from, to time.Time, rows []HoursRow) HoursReport {
	report := HoursReport{FromDate: from, ToDate: to}

	type techAgg struct {
		techID   int64
		techName string
		byDay    map[time.Time]float64
		byWeek   map[time.Time]float64
		byJob    map[int64]float64
		total    float64
	}

	aggs := map[int64]*techAgg{}
	for _, row := range rows {
		agg, ok := aggs[row.TechID]
		if !ok {
			agg = &techAgg{
				techID:   row.TechID,
				techName: row.TechName,
				byDay:    map[time.Time]float64{},
				byWeek:   map[time.Time]float64{},
				byJob:    map[int64]float64{},
			}
			aggs[row.TechID] = agg
		}
		agg.byDay[row.DateWorked] += row.Hours
		agg.byWeek[weekStart(row.DateWorked)] += row.Hours
		agg.byJob[row.JobID] += row.Hours
		agg.total += row.Hours
	}

	ordered := make([]*techAgg, 0, len(aggs))
	for _, agg := range aggs {
		ordered = append(ordered, agg)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].techName != ordered[j].techName {
			return ordered[i].techName < ordered[j].techName
		}
		return ordered[i].techID < ordered[j].techID
	})

	for _, agg := range ordered {
		tech := TechnicianHours{
			TechID:     agg.techID,
			TechName:   agg.techName,
			TotalHours: round2(agg.total),
		}
		for date, hours := range agg.byDay {
			tech.ByDay = append(tech.ByDay, DayHours{Date: date, Hours: round2(hours)})
		}
		sort.Slice(tech.ByDay, func(i, j int) bool { return tech.ByDay[i].Date.Before(tech.ByDay[j].Date) })

		for start, hours := range agg.byWeek {
			tech.ByWeek = append(tech.ByWeek, WeekHours{WeekStart: start, Hours: round2(hours)})
		}
		sort.Slice(tech.ByWeek, func(i, j int) bool { return tech.ByWeek[i].WeekStart.Before(tech.ByWeek[j].WeekStart) })

		for jobID, hours := range agg.byJob {
			tech.ByJob = append(tech.ByJob, JobHours{JobID: jobID, Hours: round2(hours)})
		}
		sort.Slice(tech.ByJob, func(i, j int) bool { return tech.ByJob[i].JobID < tech.ByJob[j].JobID })

		report.Technicians = append(report.Technicians, tech)
		report.TotalHours += tech.TotalHours
	}
	report.TotalHours = round2(report.TotalHours)

	return report
}

func weekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

func addTotals(t pay.Totals, row pay.TechPay) pay.Totals {
	t.TotalHours += row.Hours
	t.TotalBasePay += row.BasePay
	t.TotalMileagePay += row.MileagePay
	t.TotalPerDiem += row.PerDiem
	t.TotalPersonalExpenses += row.PersonalExpenses
	t.TotalProfitShare += row.ProfitShare
	t.TotalPay += row.TotalPay
	return t
}

func sumTotals(a, b pay.Totals) pay.Totals {
	a.TotalHours += b.TotalHours
	a.TotalBasePay += b.TotalBasePay
	a.TotalMileagePay += b.TotalMileagePay
	a.TotalPerDiem += b.TotalPerDiem
	a.TotalPersonalExpenses += b.TotalPersonalExpenses
	a.TotalProfitShare += b.TotalProfitShare
	a.TotalPay += b.TotalPay
	return a
}

func roundTotals(t pay.Totals) pay.Totals {
	t.TotalHours = round2(t.TotalHours)
	t.TotalBasePay = round2(t.TotalBasePay)
	t.TotalMileagePay = round2(t.TotalMileagePay)
	t.TotalPerDiem = round2(t.TotalPerDiem)
	t.TotalPersonalExpenses = round2(t.TotalPersonalExpenses)
	t.TotalProfitShare = round2(t.TotalProfitShare)
	t.TotalPay = round2(t.TotalPay)
	return t
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
