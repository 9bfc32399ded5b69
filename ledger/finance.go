/*
finance.go - Financial aggregator: estimated vs actual cost, variance, indices

FORMULAS:
  estimatedTotalCost = estimatedHours*rate + estimatedConsumables + estimatedMaterials
  actualTotalCost    = actualHours*rate + actualConsumables + actualMaterials
  profitLoss         = budget - actualTotalCost
  profitLossPct      = profitLoss / budget * 100
  CPI                = estimatedTotalCost / actualTotalCost
  SPI                = estimatedHours / actualHours
  hoursUtilization   = actualHours / estimatedHours * 100
  budgetUtilization  = totalPaid / budget * 100
  variance           = actual - estimated, pct = variance / estimated * 100

  Actual cost comes from the project's own tracking fields, never from
  payment amounts. Payments only feed the paid/pending/approved totals.

ZERO RULE:
  Every ratio and percentage is rounded to 2 decimals and is 0 whenever a
  denominator (or, for indices, either operand) is 0.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type VarianceStatus string

const (
	VarianceOver    VarianceStatus = "over"
	VarianceUnder   VarianceStatus = "under"
	VarianceOnTrack VarianceStatus = "on-track"
)

// Variance compares one cost category.
type Variance struct {
	Estimated  decimal.Decimal
	Actual     decimal.Decimal
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	Status     VarianceStatus
}

type Variances struct {
	Hours       Variance
	Consumables Variance
	Materials   Variance
	Total       Variance
}

// ProjectFinance is the computed financial summary of one project.
type ProjectFinance struct {
	ProjectID   string
	ProjectName string
	Status      ProjectStatus
	Currency    string

	Budget          decimal.Decimal
	AllocatedAmount decimal.Decimal
	SpentAmount     decimal.Decimal

	Rate                 decimal.Decimal
	EstimatedHours       decimal.Decimal
	ActualHours          decimal.Decimal
	EstimatedLaborCost   decimal.Decimal
	ActualLaborCost      decimal.Decimal
	EstimatedConsumables decimal.Decimal
	ActualConsumables    decimal.Decimal
	EstimatedMaterials   decimal.Decimal
	ActualMaterials      decimal.Decimal
	EstimatedTotalCost   decimal.Decimal
	ActualTotalCost      decimal.Decimal

	ProfitLoss               decimal.Decimal
	ProfitLossPercentage     decimal.Decimal
	CostPerformanceIndex     decimal.Decimal
	SchedulePerformanceIndex decimal.Decimal
	HoursUtilization         decimal.Decimal
	BudgetUtilization        decimal.Decimal

	TotalPaid         decimal.Decimal // paid + confirmed
	PendingPayments   decimal.Decimal // requested
	ApprovedUnpaid    decimal.Decimal // approved
	RemainingBudget   decimal.Decimal // budget - totalPaid
	UnallocatedBudget decimal.Decimal // budget - allocated

	Variances Variances
}

// IsOverBudget reports whether actual cost exceeds the budget.
func (f ProjectFinance) IsOverBudget() bool {
	return f.ActualTotalCost.GreaterThan(f.Budget)
}

// ComputeProjectFinance derives the summary of p from its tracking fields and
// payments. Payments of other projects are ignored.
func ComputeProjectFinance(p Project, payments []Payment) ProjectFinance {
	estLabor := p.EstimatedHours.Mul(p.Rate)
	actLabor := p.ActualHours.Mul(p.Rate)
	estTotal := estLabor.Add(p.EstimatedConsumables).Add(p.EstimatedMaterials)
	actTotal := actLabor.Add(p.ActualConsumables).Add(p.ActualMaterials)

	paid, pending, approved := decimal.Zero, decimal.Zero, decimal.Zero
	for _, pay := range payments {
		if pay.ProjectID != p.ID {
			continue
		}
		switch pay.RequestStatus {
		case RequestPaid, RequestConfirmed:
			paid = paid.Add(pay.Amount)
		case RequestRequested:
			pending = pending.Add(pay.Amount)
		case RequestApproved:
			approved = approved.Add(pay.Amount)
		}
	}

	profitLoss := p.Budget.Sub(actTotal)

	return ProjectFinance{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Status:      p.Status,
		Currency:    p.Currency,

		Budget:          round2(p.Budget),
		AllocatedAmount: round2(p.AllocatedAmount),
		SpentAmount:     round2(p.SpentAmount),

		Rate:                 round2(p.Rate),
		EstimatedHours:       round2(p.EstimatedHours),
		ActualHours:          round2(p.ActualHours),
		EstimatedLaborCost:   round2(estLabor),
		ActualLaborCost:      round2(actLabor),
		EstimatedConsumables: round2(p.EstimatedConsumables),
		ActualConsumables:    round2(p.ActualConsumables),
		EstimatedMaterials:   round2(p.EstimatedMaterials),
		ActualMaterials:      round2(p.ActualMaterials),
		EstimatedTotalCost:   round2(estTotal),
		ActualTotalCost:      round2(actTotal),

		ProfitLoss:               round2(profitLoss),
		ProfitLossPercentage:     percent(profitLoss, p.Budget),
		CostPerformanceIndex:     index(estTotal, actTotal),
		SchedulePerformanceIndex: index(p.EstimatedHours, p.ActualHours),
		HoursUtilization:         percent(p.ActualHours, p.EstimatedHours),
		BudgetUtilization:        percent(paid, p.Budget),

		TotalPaid:         round2(paid),
		PendingPayments:   round2(pending),
		ApprovedUnpaid:    round2(approved),
		RemainingBudget:   round2(p.Budget.Sub(paid)),
		UnallocatedBudget: round2(p.Budget.Sub(p.AllocatedAmount)),

		Variances: Variances{
			Hours:       variance(p.EstimatedHours, p.ActualHours),
			Consumables: variance(p.EstimatedConsumables, p.ActualConsumables),
			Materials:   variance(p.EstimatedMaterials, p.ActualMaterials),
			Total:       variance(estTotal, actTotal),
		},
	}
}

// Overview aggregates the summaries of several projects.
type Overview struct {
	ProjectCount      int
	ProjectsByStatus  map[ProjectStatus]int
	OverBudgetCount   int
	TotalBudget       decimal.Decimal
	TotalAllocated    decimal.Decimal
	TotalEstimated    decimal.Decimal
	TotalActual       decimal.Decimal
	TotalProfitLoss   decimal.Decimal
	TotalPaid         decimal.Decimal
	TotalPending      decimal.Decimal
	TotalApproved     decimal.Decimal
	BudgetUtilization decimal.Decimal
	// AverageCPI averages projects with a non-zero CPI.
	AverageCPI decimal.Decimal
	Projects   []ProjectFinance
}

func ComputeOverview(summaries []ProjectFinance) Overview {
	o := Overview{
		ProjectCount:     len(summaries),
		ProjectsByStatus: make(map[ProjectStatus]int),
		Projects:         summaries,
	}
	cpiSum := decimal.Zero
	cpiCount := 0
	for _, f := range summaries {
		o.ProjectsByStatus[f.Status]++
		if f.IsOverBudget() {
			o.OverBudgetCount++
		}
		o.TotalBudget = o.TotalBudget.Add(f.Budget)
		o.TotalAllocated = o.TotalAllocated.Add(f.AllocatedAmount)
		o.TotalEstimated = o.TotalEstimated.Add(f.EstimatedTotalCost)
		o.TotalActual = o.TotalActual.Add(f.ActualTotalCost)
		o.TotalProfitLoss = o.TotalProfitLoss.Add(f.ProfitLoss)
		o.TotalPaid = o.TotalPaid.Add(f.TotalPaid)
		o.TotalPending = o.TotalPending.Add(f.PendingPayments)
		o.TotalApproved = o.TotalApproved.Add(f.ApprovedUnpaid)
		if !f.CostPerformanceIndex.IsZero() {
			cpiSum = cpiSum.Add(f.CostPerformanceIndex)
			cpiCount++
		}
	}
	o.BudgetUtilization = percent(o.TotalPaid, o.TotalBudget)
	if cpiCount > 0 {
		o.AverageCPI = round2(cpiSum.Div(decimal.NewFromInt(int64(cpiCount))))
	}
	return o
}

// =============================================================================
// SERVICE ENTRY POINTS
// =============================================================================

// ProjectFinance computes the summary of one project the actor manages.
func (s *Service) ProjectFinance(ctx context.Context, actor Actor, projectID string) (*ProjectFinance, error) {
	project, err := loadProject(ctx, s.Store, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(actor, project); err != nil {
		return nil, err
	}
	payments, err := s.Store.ListPayments(ctx, PaymentFilter{ProjectID: project.ID})
	if err != nil {
		return nil, err
	}
	f := ComputeProjectFinance(*project, payments)
	return &f, nil
}

// FinanceOverview aggregates every project the actor manages.
func (s *Service) FinanceOverview(ctx context.Context, actor Actor) (*Overview, error) {
	var filter ProjectFilter
	switch actor.Role {
	case RoleAdmin:
	case RoleManager:
		filter.CreatedBy = actor.ID
	default:
		return nil, forbiddenf("only managers can view financial overviews")
	}
	projects, err := s.Store.ListProjects(ctx, filter)
	if err != nil {
		return nil, err
	}

	byProject := make(map[string][]Payment, len(projects))
	if len(projects) > 0 {
		ids := make([]string, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.ID)
		}
		payments, err := s.Store.ListPayments(ctx, PaymentFilter{ProjectIDs: ids})
		if err != nil {
			return nil, err
		}
		for _, pay := range payments {
			byProject[pay.ProjectID] = append(byProject[pay.ProjectID], pay)
		}
	}

	summaries := make([]ProjectFinance, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, ComputeProjectFinance(p, byProject[p.ID]))
	}
	o := ComputeOverview(summaries)
	return &o, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percent returns num/den*100, or 0 when den is 0.
func percent(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return round2(num.Div(den).Mul(hundred))
}

// index returns num/den, or 0 when either side is 0.
func index(num, den decimal.Decimal) decimal.Decimal {
	if num.IsZero() || den.IsZero() {
		return decimal.Zero
	}
	return round2(num.Div(den))
}

func variance(estimated, actual decimal.Decimal) Variance {
	amount := actual.Sub(estimated)
	status := VarianceOnTrack
	switch amount.Sign() {
	case 1:
		status = VarianceOver
	case -1:
		status = VarianceUnder
	}
	return Variance{
		Estimated:  round2(estimated),
		Actual:     round2(actual),
		Amount:     round2(amount),
		Percentage: percent(amount, estimated),
		Status:     status,
	}
}
