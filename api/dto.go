/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The ledger keeps money
  as decimal.Decimal; DTOs carry float64 and convert at this edge only.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ENVELOPE:
  Success: {"success": true, "message": "...", "<key>": ...}
  Failure: {"success": false, "message": "...", "error": "..."}

VALIDATION:
  Validation happens in the ledger service. DTOs are pure data carriers;
  the only checks here are JSON decoding and enum parsing.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain records
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/project-engine/ledger"
	"github.com/warp/project-engine/notify"
)

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	Role                   string     `json:"role"`
	TotalEarnings          float64    `json:"totalEarnings"`
	PendingEarnings        float64    `json:"pendingEarnings"`
	CompletedProjectsCount int        `json:"completedProjectsCount"`
	LastPaymentDate        *time.Time `json:"lastPaymentDate,omitempty"`
	LastPaymentAmount      float64    `json:"lastPaymentAmount"`
	CreatedAt              time.Time  `json:"createdAt"`
}

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ProjectEarningDTO struct {
	ProjectID   string    `json:"projectId"`
	PaymentID   string    `json:"paymentId"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

type EarningsDTO struct {
	User             UserDTO             `json:"user"`
	ProjectEarnings  []ProjectEarningDTO `json:"projectEarnings"`
	ConfirmedTotal   float64             `json:"confirmedTotal"`
	ConfirmedByMonth map[string]float64  `json:"confirmedByMonth"`
}

// =============================================================================
// PROJECTS
// =============================================================================

// TrackingDTO is embedded in project and assignment responses.
type TrackingDTO struct {
	Rate                 float64 `json:"rate"`
	EstimatedHours       float64 `json:"estimatedHours"`
	ActualHours          float64 `json:"actualHours"`
	EstimatedConsumables float64 `json:"estimatedConsumables"`
	ActualConsumables    float64 `json:"actualConsumables"`
	EstimatedMaterials   float64 `json:"estimatedMaterials"`
	ActualMaterials      float64 `json:"actualMaterials"`
}

// TrackingRequest is a partial tracking update. Omitted fields are untouched.
type TrackingRequest struct {
	Rate                 *float64 `json:"rate"`
	EstimatedHours       *float64 `json:"estimatedHours"`
	ActualHours          *float64 `json:"actualHours"`
	EstimatedConsumables *float64 `json:"estimatedConsumables"`
	ActualConsumables    *float64 `json:"actualConsumables"`
	EstimatedMaterials   *float64 `json:"estimatedMaterials"`
	ActualMaterials      *float64 `json:"actualMaterials"`
}

type ProjectDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Currency        string  `json:"currency"`
	Budget          float64 `json:"budget"`
	AllocatedAmount float64 `json:"allocatedAmount"`
	SpentAmount     float64 `json:"spentAmount"`
	TrackingDTO
	Status    string    `json:"status"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Currency    string  `json:"currency"`
	Budget      float64 `json:"budget"`
	Status      string  `json:"status"`
	TrackingRequest
}

// UpdateProjectRequest carries the editable project fields plus tracking.
type UpdateProjectRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Budget      *float64 `json:"budget"`
	Status      *string  `json:"status"`
	TrackingRequest
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

type AssignmentDTO struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"projectId"`
	EmployeeID      string  `json:"employeeId"`
	AssignedBy      string  `json:"assignedBy"`
	AllocatedAmount float64 `json:"allocatedAmount"`
	Currency        string  `json:"currency"`
	Role            string  `json:"role,omitempty"`
	Terms           string  `json:"terms,omitempty"`

	AssignmentStatus string    `json:"assignmentStatus"`
	WorkStatus       string    `json:"workStatus"`
	IsActive         bool      `json:"isActive"`
	ResponseDeadline time.Time `json:"responseDeadline"`

	RejectionReason     string     `json:"rejectionReason,omitempty"`
	SubmissionNotes     string     `json:"submissionNotes,omitempty"`
	Deliverables        []string   `json:"deliverables"`
	VerificationNotes   string     `json:"verificationNotes,omitempty"`
	Feedback            string     `json:"feedback,omitempty"`
	WorkVerifiedBy      string     `json:"workVerifiedBy,omitempty"`
	WorkRejectionReason string     `json:"workRejectionReason,omitempty"`
	RevisionNotes       string     `json:"revisionNotes,omitempty"`
	RevisionDeadline    *time.Time `json:"revisionDeadline,omitempty"`

	AcceptedAt          *time.Time `json:"acceptedAt,omitempty"`
	RejectedAt          *time.Time `json:"rejectedAt,omitempty"`
	WorkStartedAt       *time.Time `json:"workStartedAt,omitempty"`
	WorkSubmittedAt     *time.Time `json:"workSubmittedAt,omitempty"`
	WorkVerifiedAt      *time.Time `json:"workVerifiedAt,omitempty"`
	WorkRejectedAt      *time.Time `json:"workRejectedAt,omitempty"`
	RevisionRequestedAt *time.Time `json:"revisionRequestedAt,omitempty"`
	RemovedAt           *time.Time `json:"removedAt,omitempty"`

	TrackingDTO
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateAssignmentRequest struct {
	EmployeeID      string  `json:"employeeId"`
	AllocatedAmount float64 `json:"allocatedAmount"`
	Currency        string  `json:"currency"`
	Role            string  `json:"role"`
	Terms           string  `json:"terms"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type SubmitWorkRequest struct {
	SubmissionNotes string   `json:"submissionNotes"`
	Deliverables    []string `json:"deliverables"`
}

type VerifyWorkRequest struct {
	VerificationNotes string `json:"verificationNotes"`
	Feedback          string `json:"feedback"`
}

type RevisionRequest struct {
	RevisionNotes    string     `json:"revisionNotes"`
	RevisionDeadline *time.Time `json:"revisionDeadline"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentDTO struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employeeId"`
	ProjectID    string  `json:"projectId"`
	AssignmentID string  `json:"assignmentId,omitempty"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	PaymentType  string  `json:"paymentType"`

	RequestStatus        string `json:"requestStatus"`
	Status               string `json:"status"`
	EmployeeConfirmation bool   `json:"employeeConfirmation"`

	RequestNotes         string     `json:"requestNotes,omitempty"`
	ApprovalNotes        string     `json:"approvalNotes,omitempty"`
	RejectionReason      string     `json:"rejectionReason,omitempty"`
	ConfirmationNotes    string     `json:"confirmationNotes,omitempty"`
	ScheduledDate        *time.Time `json:"scheduledDate,omitempty"`
	TransactionID        string     `json:"transactionId,omitempty"`
	TransactionProofLink string     `json:"transactionProofLink,omitempty"`
	ProofOfPayment       string     `json:"proofOfPayment,omitempty"`

	RequestedAt *time.Time `json:"requestedAt,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy  string     `json:"approvedBy,omitempty"`
	RejectedAt  *time.Time `json:"rejectedAt,omitempty"`
	RejectedBy  string     `json:"rejectedBy,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PaymentRequestRequest struct {
	RequestNotes string `json:"requestNotes"`
}

type ApprovePaymentRequest struct {
	ApprovalNotes string     `json:"approvalNotes"`
	ScheduledDate *time.Time `json:"scheduledDate"`
}

// ProofRequest carries the optional proof fields of mark-paid.
type ProofRequest struct {
	TransactionID        string `json:"transactionId"`
	TransactionProofLink string `json:"transactionProofLink"`
	ProofOfPayment       string `json:"proofOfPayment"`
}

func (p ProofRequest) toProof() ledger.Proof {
	return ledger.Proof{
		TransactionID:        p.TransactionID,
		TransactionProofLink: p.TransactionProofLink,
		ProofOfPayment:       p.ProofOfPayment,
	}
}

type ConfirmPaymentRequest struct {
	ConfirmationNotes string `json:"confirmationNotes"`
}

type DirectPaymentRequest struct {
	EmployeeID  string  `json:"employeeId"`
	ProjectID   string  `json:"projectId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PaymentType string  `json:"paymentType"`
	Notes       string  `json:"notes"`
	ProofRequest
}

// =============================================================================
// FINANCE
// =============================================================================

type VarianceDTO struct {
	Estimated  float64 `json:"estimated"`
	Actual     float64 `json:"actual"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

type VariancesDTO struct {
	Hours       VarianceDTO `json:"hours"`
	Consumables VarianceDTO `json:"consumables"`
	Materials   VarianceDTO `json:"materials"`
	Total       VarianceDTO `json:"total"`
}

type ProjectFinanceDTO struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Status      string `json:"status"`
	Currency    string `json:"currency"`

	Budget          float64 `json:"budget"`
	AllocatedAmount float64 `json:"allocatedAmount"`
	SpentAmount     float64 `json:"spentAmount"`

	EstimatedLaborCost float64 `json:"estimatedLaborCost"`
	ActualLaborCost    float64 `json:"actualLaborCost"`
	EstimatedTotalCost float64 `json:"estimatedTotalCost"`
	ActualTotalCost    float64 `json:"actualTotalCost"`
	TrackingDTO

	ProfitLoss               float64 `json:"profitLoss"`
	ProfitLossPercentage     float64 `json:"profitLossPercentage"`
	CostPerformanceIndex     float64 `json:"costPerformanceIndex"`
	SchedulePerformanceIndex float64 `json:"schedulePerformanceIndex"`
	HoursUtilization         float64 `json:"hoursUtilization"`
	BudgetUtilization        float64 `json:"budgetUtilization"`
	IsOverBudget             bool    `json:"isOverBudget"`

	TotalPaid         float64 `json:"totalPaid"`
	PendingPayments   float64 `json:"pendingPayments"`
	ApprovedUnpaid    float64 `json:"approvedUnpaid"`
	RemainingBudget   float64 `json:"remainingBudget"`
	UnallocatedBudget float64 `json:"unallocatedBudget"`

	Variances VariancesDTO `json:"variances"`
}

type OverviewDTO struct {
	ProjectCount       int                 `json:"projectCount"`
	ProjectsByStatus   map[string]int      `json:"projectsByStatus"`
	OverBudgetCount    int                 `json:"overBudgetCount"`
	TotalBudget        float64             `json:"totalBudget"`
	TotalAllocated     float64             `json:"totalAllocated"`
	TotalEstimatedCost float64             `json:"totalEstimatedCost"`
	TotalActualCost    float64             `json:"totalActualCost"`
	TotalProfitLoss    float64             `json:"totalProfitLoss"`
	TotalPaid          float64             `json:"totalPaid"`
	TotalPending       float64             `json:"totalPending"`
	TotalApproved      float64             `json:"totalApproved"`
	BudgetUtilization  float64             `json:"budgetUtilization"`
	AverageCPI         float64             `json:"averageCpi"`
	Projects           []ProjectFinanceDTO `json:"projects"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func fromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func fromFloatPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func (r TrackingRequest) toUpdate() ledger.TrackingUpdate {
	return ledger.TrackingUpdate{
		Rate:                 fromFloatPtr(r.Rate),
		EstimatedHours:       fromFloatPtr(r.EstimatedHours),
		ActualHours:          fromFloatPtr(r.ActualHours),
		EstimatedConsumables: fromFloatPtr(r.EstimatedConsumables),
		ActualConsumables:    fromFloatPtr(r.ActualConsumables),
		EstimatedMaterials:   fromFloatPtr(r.EstimatedMaterials),
		ActualMaterials:      fromFloatPtr(r.ActualMaterials),
	}
}

func (r UpdateProjectRequest) toUpdate() ledger.ProjectUpdate {
	u := ledger.ProjectUpdate{
		Name:        r.Name,
		Description: r.Description,
		Budget:      fromFloatPtr(r.Budget),
		Tracking:    r.TrackingRequest.toUpdate(),
	}
	if r.Status != nil {
		s := ledger.ProjectStatus(*r.Status)
		u.Status = &s
	}
	return u
}

func toTrackingDTO(t ledger.Tracking) TrackingDTO {
	return TrackingDTO{
		Rate:                 toFloat(t.Rate),
		EstimatedHours:       toFloat(t.EstimatedHours),
		ActualHours:          toFloat(t.ActualHours),
		EstimatedConsumables: toFloat(t.EstimatedConsumables),
		ActualConsumables:    toFloat(t.ActualConsumables),
		EstimatedMaterials:   toFloat(t.EstimatedMaterials),
		ActualMaterials:      toFloat(t.ActualMaterials),
	}
}

func toUserDTO(u ledger.User) UserDTO {
	return UserDTO{
		ID:                     u.ID,
		Name:                   u.Name,
		Email:                  u.Email,
		Role:                   string(u.Role),
		TotalEarnings:          toFloat(u.TotalEarnings),
		PendingEarnings:        toFloat(u.PendingEarnings),
		CompletedProjectsCount: u.CompletedProjectsCount,
		LastPaymentDate:        u.LastPaymentDate,
		LastPaymentAmount:      toFloat(u.LastPaymentAmount),
		CreatedAt:              u.CreatedAt,
	}
}

func toEarningsDTO(e ledger.Earnings) EarningsDTO {
	dto := EarningsDTO{
		User:             toUserDTO(e.User),
		ProjectEarnings:  make([]ProjectEarningDTO, len(e.ProjectEarnings)),
		ConfirmedTotal:   toFloat(e.ConfirmedTotal),
		ConfirmedByMonth: make(map[string]float64, len(e.ConfirmedByMonth)),
	}
	for i, pe := range e.ProjectEarnings {
		dto.ProjectEarnings[i] = ProjectEarningDTO{
			ProjectID:   pe.ProjectID,
			PaymentID:   pe.PaymentID,
			Amount:      toFloat(pe.Amount),
			Currency:    pe.Currency,
			ConfirmedAt: pe.ConfirmedAt,
		}
	}
	for month, amount := range e.ConfirmedByMonth {
		dto.ConfirmedByMonth[month] = toFloat(amount)
	}
	return dto
}

func toProjectDTO(p ledger.Project) ProjectDTO {
	return ProjectDTO{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Currency:        p.Currency,
		Budget:          toFloat(p.Budget),
		AllocatedAmount: toFloat(p.AllocatedAmount),
		SpentAmount:     toFloat(p.SpentAmount),
		TrackingDTO:     toTrackingDTO(p.Tracking),
		Status:          string(p.Status),
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toAssignmentDTO(a ledger.Assignment) AssignmentDTO {
	deliverables := a.Deliverables
	if deliverables == nil {
		deliverables = []string{}
	}
	return AssignmentDTO{
		ID:                  a.ID,
		ProjectID:           a.ProjectID,
		EmployeeID:          a.EmployeeID,
		AssignedBy:          a.AssignedBy,
		AllocatedAmount:     toFloat(a.AllocatedAmount),
		Currency:            a.Currency,
		Role:                a.Role,
		Terms:               a.Terms,
		AssignmentStatus:    string(a.Status),
		WorkStatus:          string(a.WorkStatus),
		IsActive:            a.IsActive,
		ResponseDeadline:    a.ResponseDeadline,
		RejectionReason:     a.RejectionReason,
		SubmissionNotes:     a.SubmissionNotes,
		Deliverables:        deliverables,
		VerificationNotes:   a.VerificationNotes,
		Feedback:            a.Feedback,
		WorkVerifiedBy:      a.WorkVerifiedBy,
		WorkRejectionReason: a.WorkRejectionReason,
		RevisionNotes:       a.RevisionNotes,
		RevisionDeadline:    a.RevisionDeadline,
		AcceptedAt:          a.AcceptedAt,
		RejectedAt:          a.RejectedAt,
		WorkStartedAt:       a.WorkStartedAt,
		WorkSubmittedAt:     a.WorkSubmittedAt,
		WorkVerifiedAt:      a.WorkVerifiedAt,
		WorkRejectedAt:      a.WorkRejectedAt,
		RevisionRequestedAt: a.RevisionRequestedAt,
		RemovedAt:           a.RemovedAt,
		TrackingDTO:         toTrackingDTO(a.Tracking),
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func toPaymentDTO(p ledger.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                   p.ID,
		EmployeeID:           p.EmployeeID,
		ProjectID:            p.ProjectID,
		AssignmentID:         p.AssignmentID,
		Amount:               toFloat(p.Amount),
		Currency:             p.Currency,
		PaymentType:          string(p.Type),
		RequestStatus:        string(p.RequestStatus),
		Status:               string(p.Status),
		EmployeeConfirmation: p.EmployeeConfirmation,
		RequestNotes:         p.RequestNotes,
		ApprovalNotes:        p.ApprovalNotes,
		RejectionReason:      p.RejectionReason,
		ConfirmationNotes:    p.ConfirmationNotes,
		ScheduledDate:        p.ScheduledDate,
		TransactionID:        p.Proof.TransactionID,
		TransactionProofLink: p.Proof.TransactionProofLink,
		ProofOfPayment:       p.Proof.ProofOfPayment,
		RequestedAt:          p.RequestedAt,
		ApprovedAt:           p.ApprovedAt,
		ApprovedBy:           p.ApprovedBy,
		RejectedAt:           p.RejectedAt,
		RejectedBy:           p.RejectedBy,
		PaidAt:               p.PaidAt,
		ConfirmedAt:          p.ConfirmedAt,
		CreatedBy:            p.CreatedBy,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func toVarianceDTO(v ledger.Variance) VarianceDTO {
	return VarianceDTO{
		Estimated:  toFloat(v.Estimated),
		Actual:     toFloat(v.Actual),
		Amount:     toFloat(v.Amount),
		Percentage: toFloat(v.Percentage),
		Status:     string(v.Status),
	}
}

func toProjectFinanceDTO(f ledger.ProjectFinance) ProjectFinanceDTO {
	return ProjectFinanceDTO{
		ProjectID:          f.ProjectID,
		ProjectName:        f.ProjectName,
		Status:             string(f.Status),
		Currency:           f.Currency,
		Budget:             toFloat(f.Budget),
		AllocatedAmount:    toFloat(f.AllocatedAmount),
		SpentAmount:        toFloat(f.SpentAmount),
		EstimatedLaborCost: toFloat(f.EstimatedLaborCost),
		ActualLaborCost:    toFloat(f.ActualLaborCost),
		EstimatedTotalCost: toFloat(f.EstimatedTotalCost),
		ActualTotalCost:    toFloat(f.ActualTotalCost),
		TrackingDTO: TrackingDTO{
			Rate:                 toFloat(f.Rate),
			EstimatedHours:       toFloat(f.EstimatedHours),
			ActualHours:          toFloat(f.ActualHours),
			EstimatedConsumables: toFloat(f.EstimatedConsumables),
			ActualConsumables:    toFloat(f.ActualConsumables),
			EstimatedMaterials:   toFloat(f.EstimatedMaterials),
			ActualMaterials:      toFloat(f.ActualMaterials),
		},
		ProfitLoss:               toFloat(f.ProfitLoss),
		ProfitLossPercentage:     toFloat(f.ProfitLossPercentage),
		CostPerformanceIndex:     toFloat(f.CostPerformanceIndex),
		SchedulePerformanceIndex: toFloat(f.SchedulePerformanceIndex),
		HoursUtilization:         toFloat(f.HoursUtilization),
		BudgetUtilization:        toFloat(f.BudgetUtilization),
		IsOverBudget:             f.IsOverBudget(),
		TotalPaid:                toFloat(f.TotalPaid),
		PendingPayments:          toFloat(f.PendingPayments),
		ApprovedUnpaid:           toFloat(f.ApprovedUnpaid),
		RemainingBudget:          toFloat(f.RemainingBudget),
		UnallocatedBudget:        toFloat(f.UnallocatedBudget),
		Variances: VariancesDTO{
			Hours:       toVarianceDTO(f.Variances.Hours),
			Consumables: toVarianceDTO(f.Variances.Consumables),
			Materials:   toVarianceDTO(f.Variances.Materials),
			Total:       toVarianceDTO(f.Variances.Total),
		},
	}
}

func toOverviewDTO(o ledger.Overview) OverviewDTO {
	dto := OverviewDTO{
		ProjectCount:       o.ProjectCount,
		ProjectsByStatus:   make(map[string]int, len(o.ProjectsByStatus)),
		OverBudgetCount:    o.OverBudgetCount,
		TotalBudget:        toFloat(o.TotalBudget),
		TotalAllocated:     toFloat(o.TotalAllocated),
		TotalEstimatedCost: toFloat(o.TotalEstimated),
		TotalActualCost:    toFloat(o.TotalActual),
		TotalProfitLoss:    toFloat(o.TotalProfitLoss),
		TotalPaid:          toFloat(o.TotalPaid),
		TotalPending:       toFloat(o.TotalPending),
		TotalApproved:      toFloat(o.TotalApproved),
		BudgetUtilization:  toFloat(o.BudgetUtilization),
		AverageCPI:         toFloat(o.AverageCPI),
		Projects:           make([]ProjectFinanceDTO, len(o.Projects)),
	}
	for status, n := range o.ProjectsByStatus {
		dto.ProjectsByStatus[string(status)] = n
	}
	for i, p := range o.Projects {
		dto.Projects[i] = toProjectFinanceDTO(p)
	}
	return dto
}

func toNotificationDTOs(ns []ledger.Notification) []notify.Payload {
	out := make([]notify.Payload, len(ns))
	for i, n := range ns {
		out[i] = notify.NewPayload(n)
	}
	return out
}
