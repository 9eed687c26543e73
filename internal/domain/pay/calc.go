package pay

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// techAccum carries one technician's full-precision sums while grouping.
type techAccum struct {
	techID           int64
	hours            decimal.Decimal
	mileage          decimal.Decimal
	mileagePay       decimal.Decimal
	perDiem          decimal.Decimal
	personalExpenses decimal.Decimal
	entryIDs         []int64
}

type rowCalc struct {
	acc           *techAccum
	basePay       decimal.Decimal
	effectiveRate decimal.Decimal
	usingMinimum  bool
}

// Calculate computes the pay breakdown for one job. It is a pure function
// of its snapshot: the same Inputs always produce the same Breakdown, and
// nothing is cached between calls.
//
// Math runs at full decimal precision and is rounded to cents only when a
// row is emitted. Totals are sums of the rounded rows, so report totals
// always reconcile with their lines to the cent.
func Calculate(in Inputs) (Breakdown, error) {
	if in.Job.BillingAmount == nil {
		return Breakdown{}, fmt.Errorf("job %d: %w", in.Job.JobID, ErrIncompleteJobData)
	}

	var warnings []Warning
	accums := map[int64]*techAccum{}

	for _, entry := range in.Entries {
		if entry.TechID == 0 {
			// Unassigned entries cannot be paid; flag and keep going.
			warnings = append(warnings, Warning{
				Code:    WarnUnassignedEntry,
				EntryID: entry.EntryID,
				Message: fmt.Sprintf("entry %d has no technician assigned and was excluded", entry.EntryID),
			})
			continue
		}

		acc, ok := accums[entry.TechID]
		if !ok {
			acc = &techAccum{techID: entry.TechID}
			accums[entry.TechID] = acc
		}
		acc.hours = acc.hours.Add(decimal.NewFromFloat(entry.Hours))
		acc.mileage = acc.mileage.Add(decimal.NewFromFloat(entry.Mileage))
		acc.perDiem = acc.perDiem.Add(decimal.NewFromFloat(entry.PerDiem))
		acc.personalExpenses = acc.personalExpenses.Add(decimal.NewFromFloat(entry.PersonalExpenses))
		acc.entryIDs = append(acc.entryIDs, entry.EntryID)

		if entry.Mileage != 0 {
			rate, err := in.RateHistory.RateFor(entry.DateWorked)
			if err != nil {
				warnings = append(warnings, Warning{
					Code:    WarnRateNotFound,
					EntryID: entry.EntryID,
					TechID:  entry.TechID,
					Message: fmt.Sprintf("no mileage rate effective on %s; mileage pay omitted for entry %d", entry.DateWorked.Format("2006-01-02"), entry.EntryID),
				})
			} else {
				acc.mileagePay = acc.mileagePay.Add(decimal.NewFromFloat(entry.Mileage).Mul(decimal.NewFromFloat(rate)))
			}
		}
	}

	billing := decimal.NewFromFloat(*in.Job.BillingAmount)
	jobNet := billing.Sub(decimal.NewFromFloat(in.Job.Expenses)).Sub(decimal.NewFromFloat(in.Job.Commissions))
	techPool := jobNet.Mul(decimal.NewFromFloat(TechPoolShare))
	if techPool.IsNegative() {
		techPool = decimal.Zero
	}

	breakdown := Breakdown{
		JobID:    in.Job.JobID,
		JobNet:   round2f(jobNet),
		TechPool: round2f(techPool),
		Warnings: warnings,
	}

	totalHours := decimal.Zero
	for _, acc := range accums {
		totalHours = totalHours.Add(acc.hours)
	}
	if totalHours.IsZero() {
		// Nothing payable; short-circuit instead of dividing by zero.
		return breakdown, nil
	}

	ordered := make([]*techAccum, 0, len(accums))
	for _, acc := range accums {
		ordered = append(ordered, acc)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].techID < ordered[j].techID })

	rows := make([]rowCalc, 0, len(ordered))
	totalBasePay := decimal.Zero

	for _, acc := range ordered {
		minRate := decimal.NewFromFloat(in.MinRates[acc.techID])
		row := rowCalc{acc: acc, effectiveRate: minRate}

		if acc.hours.IsPositive() {
			// Proportional allocation of the pool by hours contributed.
			weightedBase := techPool.Mul(acc.hours).Div(totalHours)
			calculatedRate := weightedBase.Div(acc.hours)
			if calculatedRate.LessThan(minRate) {
				// Floor: the technician's guarantee wins, the company side
				// absorbs the shortfall. Other rows are never renormalized.
				row.basePay = minRate.Mul(acc.hours)
				row.effectiveRate = minRate
				row.usingMinimum = true
			} else {
				row.basePay = weightedBase
				row.effectiveRate = calculatedRate
			}
		}

		totalBasePay = totalBasePay.Add(row.basePay)
		rows = append(rows, row)
	}

	// Profit share is the company margin attributed back proportionally
	// for reporting. It is not owed and never added into TotalPay.
	profitTotal := jobNet.Sub(totalBasePay)
	profitShares := allocateProportionally(profitTotal, rows, totalHours)

	for i, row := range rows {
		acc := row.acc
		basePay := round2(row.basePay)
		mileagePay := round2(acc.mileagePay)
		perDiem := round2(acc.perDiem)
		personalExpenses := round2(acc.personalExpenses)

		techRow := TechPay{
			TechID:           acc.techID,
			TechName:         in.TechNames[acc.techID],
			Hours:            round2f(acc.hours),
			EffectiveRate:    round2f(row.effectiveRate),
			BasePay:          basePay.InexactFloat64(),
			Mileage:          round2f(acc.mileage),
			MileagePay:       mileagePay.InexactFloat64(),
			PerDiem:          perDiem.InexactFloat64(),
			PersonalExpenses: personalExpenses.InexactFloat64(),
			ProfitShare:      profitShares[i].InexactFloat64(),
			TotalPay:         basePay.Add(mileagePay).Add(perDiem).Add(personalExpenses).InexactFloat64(),
			UsingMinimum:     row.usingMinimum,
			EntryIDs:         acc.entryIDs,
		}
		breakdown.Technicians = append(breakdown.Technicians, techRow)

		breakdown.Totals.TotalHours += techRow.Hours
		breakdown.Totals.TotalBasePay += techRow.BasePay
		breakdown.Totals.TotalMileagePay += techRow.MileagePay
		breakdown.Totals.TotalPerDiem += techRow.PerDiem
		breakdown.Totals.TotalPersonalExpenses += techRow.PersonalExpenses
		breakdown.Totals.TotalProfitShare += techRow.ProfitShare
		breakdown.Totals.TotalPay += techRow.TotalPay
	}
	breakdown.Totals = roundTotals(breakdown.Totals)

	return breakdown, nil
}

// allocateProportionally splits an amount across rows by hours ratio,
// rounds each share to cents, then reconciles the leftover cent(s) into
// the row with the most hours (lowest tech id on ties) so the rounded
// shares sum exactly to the rounded amount.
func allocateProportionally(amount decimal.Decimal, rows []rowCalc, totalHours decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(rows))
	roundedSum := decimal.Zero
	largest := 0
	for i, row := range rows {
		shares[i] = round2(amount.Mul(row.acc.hours).Div(totalHours))
		roundedSum = roundedSum.Add(shares[i])
		if row.acc.hours.GreaterThan(rows[largest].acc.hours) {
			largest = i
		}
	}
	remainder := round2(amount).Sub(roundedSum)
	if !remainder.IsZero() {
		shares[largest] = shares[largest].Add(remainder)
	}
	return shares
}

func round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

func round2f(value decimal.Decimal) float64 {
	return value.Round(2).InexactFloat64()
}

func roundTotals(t Totals) Totals {
	t.TotalHours = round2f(decimal.NewFromFloat(t.TotalHours))
	t.TotalBasePay = round2f(decimal.NewFromFloat(t.TotalBasePay))
	t.TotalMileagePay = round2f(decimal.NewFromFloat(t.TotalMileagePay))
	t.TotalPerDiem = round2f(decimal.NewFromFloat(t.TotalPerDiem))
	t.TotalPersonalExpenses = round2f(decimal.NewFromFloat(t.TotalPersonalExpenses))
	t.TotalProfitShare = round2f(decimal.NewFromFloat(t.TotalProfitShare))
	t.TotalPay = round2f(decimal.NewFromFloat(t.TotalPay))
	return t
}
