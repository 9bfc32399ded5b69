package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/project-engine/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func trackedProject() ledger.Project {
	p := ledger.Project{
		ID:              "proj-1",
		Name:            "Kitchen",
		Currency:        "USD",
		Budget:          d("10000"),
		AllocatedAmount: d("6000"),
		Status:          ledger.ProjectInProgress,
	}
	p.Rate = d("50")
	p.EstimatedHours = d("100")
	p.ActualHours = d("120")
	p.EstimatedConsumables = d("500")
	p.ActualConsumables = d("400")
	p.EstimatedMaterials = d("2000")
	p.ActualMaterials = d("2000")
	return p
}

func TestComputeProjectFinance_Formulas(t *testing.T) {
	payments := []ledger.Payment{
		{ProjectID: "proj-1", Amount: d("1000"), RequestStatus: ledger.RequestPaid},
		{ProjectID: "proj-1", Amount: d("500"), RequestStatus: ledger.RequestConfirmed},
		{ProjectID: "proj-1", Amount: d("300"), RequestStatus: ledger.RequestRequested},
		{ProjectID: "proj-1", Amount: d("200"), RequestStatus: ledger.RequestApproved},
		{ProjectID: "proj-1", Amount: d("999"), RequestStatus: ledger.RequestRejected},
		{ProjectID: "proj-2", Amount: d("5000"), RequestStatus: ledger.RequestPaid},
	}

	f := ledger.ComputeProjectFinance(trackedProject(), payments)

	// 100*50 + 500 + 2000
	assert.Equal(t, "7500", f.EstimatedTotalCost.String())
	// 120*50 + 400 + 2000
	assert.Equal(t, "8400", f.ActualTotalCost.String())
	assert.Equal(t, "1600", f.ProfitLoss.String())
	assert.Equal(t, "16", f.ProfitLossPercentage.String())
	// 7500 / 8400 = 0.892857...
	assert.Equal(t, "0.89", f.CostPerformanceIndex.String())
	// 100 / 120 = 0.8333...
	assert.Equal(t, "0.83", f.SchedulePerformanceIndex.String())
	assert.Equal(t, "120", f.HoursUtilization.String())

	// Payments never feed actual cost.
	assert.Equal(t, "1500", f.TotalPaid.String())
	assert.Equal(t, "300", f.PendingPayments.String())
	assert.Equal(t, "200", f.ApprovedUnpaid.String())
	assert.Equal(t, "15", f.BudgetUtilization.String())
	assert.Equal(t, "8500", f.RemainingBudget.String())
	assert.Equal(t, "4000", f.UnallocatedBudget.String())
	assert.False(t, f.IsOverBudget())
}

func TestComputeProjectFinance_Variances(t *testing.T) {
	f := ledger.ComputeProjectFinance(trackedProject(), nil)

	assert.Equal(t, "20", f.Variances.Hours.Amount.String())
	assert.Equal(t, "20", f.Variances.Hours.Percentage.String())
	assert.Equal(t, ledger.VarianceOver, f.Variances.Hours.Status)

	assert.Equal(t, "-100", f.Variances.Consumables.Amount.String())
	assert.Equal(t, "-20", f.Variances.Consumables.Percentage.String())
	assert.Equal(t, ledger.VarianceUnder, f.Variances.Consumables.Status)

	assert.Equal(t, "0", f.Variances.Materials.Amount.String())
	assert.Equal(t, ledger.VarianceOnTrack, f.Variances.Materials.Status)

	assert.Equal(t, "900", f.Variances.Total.Amount.String())
	assert.Equal(t, "12", f.Variances.Total.Percentage.String())
}

func TestComputeProjectFinance_ZeroDenominators(t *testing.T) {
	p := trackedProject()
	p.EstimatedHours = decimal.Zero

	f := ledger.ComputeProjectFinance(p, nil)
	assert.True(t, f.HoursUtilization.IsZero())
	assert.True(t, f.SchedulePerformanceIndex.IsZero())
	assert.True(t, f.Variances.Hours.Percentage.IsZero())
	assert.Equal(t, ledger.VarianceOver, f.Variances.Hours.Status)

	empty := ledger.ComputeProjectFinance(ledger.Project{ID: "p"}, nil)
	assert.True(t, empty.ProfitLossPercentage.IsZero())
	assert.True(t, empty.CostPerformanceIndex.IsZero())
	assert.True(t, empty.SchedulePerformanceIndex.IsZero())
	assert.True(t, empty.BudgetUtilization.IsZero())
	assert.True(t, empty.HoursUtilization.IsZero())
	assert.Equal(t, ledger.VarianceOnTrack, empty.Variances.Total.Status)

	// Estimated cost present, nothing spent yet.
	notStarted := trackedProject()
	notStarted.ActualHours = decimal.Zero
	notStarted.ActualConsumables = decimal.Zero
	notStarted.ActualMaterials = decimal.Zero
	ns := ledger.ComputeProjectFinance(notStarted, nil)
	assert.True(t, ns.CostPerformanceIndex.IsZero())
	assert.Equal(t, "100", ns.ProfitLossPercentage.String())
}

func TestComputeProjectFinance_RoundsToTwoDecimals(t *testing.T) {
	p := ledger.Project{ID: "p", Budget: d("3")}
	p.Rate = d("1")
	p.EstimatedHours = d("3")
	p.ActualHours = d("7")

	f := ledger.ComputeProjectFinance(p, nil)
	// (3-7)/3*100 = -133.333...
	assert.Equal(t, "-133.33", f.ProfitLossPercentage.String())
	// 3/7 = 0.428571...
	assert.Equal(t, "0.43", f.CostPerformanceIndex.String())
	assert.True(t, f.IsOverBudget())
}

func TestComputeOverview(t *testing.T) {
	a := ledger.ComputeProjectFinance(trackedProject(), []ledger.Payment{
		{ProjectID: "proj-1", Amount: d("1000"), RequestStatus: ledger.RequestPaid},
	})
	over := trackedProject()
	over.ID = "proj-2"
	over.Budget = d("5000")
	over.Status = ledger.ProjectCompleted
	b := ledger.ComputeProjectFinance(over, nil)
	idle := ledger.ComputeProjectFinance(ledger.Project{ID: "proj-3", Status: ledger.ProjectPending}, nil)

	o := ledger.ComputeOverview([]ledger.ProjectFinance{a, b, idle})

	assert.Equal(t, 3, o.ProjectCount)
	assert.Equal(t, 1, o.ProjectsByStatus[ledger.ProjectInProgress])
	assert.Equal(t, 1, o.ProjectsByStatus[ledger.ProjectCompleted])
	assert.Equal(t, 1, o.ProjectsByStatus[ledger.ProjectPending])
	assert.Equal(t, 1, o.OverBudgetCount)
	assert.Equal(t, "15000", o.TotalBudget.String())
	assert.Equal(t, "1000", o.TotalPaid.String())
	// Both tracked projects have CPI 0.89; the idle one is excluded.
	assert.Equal(t, "0.89", o.AverageCPI.String())
	assert.Equal(t, "6.67", o.BudgetUtilization.String())
}

func TestComputeOverview_Empty(t *testing.T) {
	o := ledger.ComputeOverview(nil)
	assert.Zero(t, o.ProjectCount)
	assert.True(t, o.AverageCPI.IsZero())
	assert.True(t, o.BudgetUtilization.IsZero())
}

func TestService_FinanceOverview_Scope(t *testing.T) {
	f := newFixture(t, 10000)
	ctx := context.Background()
	f.paidPayment(t, 1200)

	_, err := f.svc.FinanceOverview(ctx, f.employee)
	assert.ErrorIs(t, err, ledger.ErrForbidden)

	o, err := f.svc.FinanceOverview(ctx, f.manager)
	require.NoError(t, err)
	assert.Equal(t, 1, o.ProjectCount)
	assert.Equal(t, "1200", o.TotalPaid.String())

	pf, err := f.svc.ProjectFinance(ctx, f.manager, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, "1200", pf.TotalPaid.String())
	assert.Equal(t, "8800", pf.RemainingBudget.String())

	_, err = f.svc.ProjectFinance(ctx, f.employee, f.project.ID)
	assert.ErrorIs(t, err, ledger.ErrForbidden)
}
