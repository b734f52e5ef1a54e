package report

import "time"

// Status represents a report's position in the approval lifecycle
type Status string

const (
	StatusDraft               Status = "DRAFT"
	StatusSubmitted           Status = "SUBMITTED"
	StatusFacultyApproved     Status = "FACULTY_APPROVED"
	StatusSchoolChairApproved Status = "SCHOOL_CHAIR_APPROVED"
	StatusDeanSRICApproved    Status = "DEAN_SRIC_APPROVED"
	StatusDirectorApproved    Status = "DIRECTOR_APPROVED"
	StatusAuditApproved       Status = "AUDIT_APPROVED"
	StatusFinanceApproved     Status = "FINANCE_APPROVED"
	StatusCompleted           Status = "COMPLETED"
	StatusRejected            Status = "REJECTED"
)

var validStatuses = map[Status]bool{
	StatusDraft:               true,
	StatusSubmitted:           true,
	StatusFacultyApproved:     true,
	StatusSchoolChairApproved: true,
	StatusDeanSRICApproved:    true,
	StatusDirectorApproved:    true,
	StatusAuditApproved:       true,
	StatusFinanceApproved:     true,
	StatusCompleted:           true,
	StatusRejected:            true,
}

// COMPLETED is reached by an external finance batch after FINANCE_APPROVED;
// the service itself never advances past FINANCE_APPROVED.
var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusRejected:  true,
}

// IsValid returns true if the status is a known lifecycle status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed from the status
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// Role represents the capacity in which an actor touches a report
type Role string

const (
	RoleStudent     Role = "STUDENT"
	RoleFaculty     Role = "FACULTY"
	RoleSchoolChair Role = "SCHOOL_CHAIR"
	RoleDeanSRIC    Role = "DEAN_SRIC"
	RoleDirector    Role = "DIRECTOR"
	RoleAudit       Role = "AUDIT"
	RoleFinance     Role = "FINANCE"
)

var validRoles = map[Role]bool{
	RoleStudent:     true,
	RoleFaculty:     true,
	RoleSchoolChair: true,
	RoleDeanSRIC:    true,
	RoleDirector:    true,
	RoleAudit:       true,
	RoleFinance:     true,
}

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// FundType classifies the money a report draws on. It is selected by the
// Faculty reviewer at approval time and determines the remaining route.
type FundType string

const (
	FundInstitute               FundType = "INSTITUTE_FUND"
	FundDepartment              FundType = "DEPARTMENT_SCHOOL_FUND"
	FundProject                 FundType = "PROJECT_FUND"
	FundProfessionalDevelopment FundType = "PROFESSIONAL_DEVELOPMENT_ALLOWANCE"
)

var validFundTypes = map[FundType]bool{
	FundInstitute:               true,
	FundDepartment:              true,
	FundProject:                 true,
	FundProfessionalDevelopment: true,
}

// IsValid returns true if the fund type is one of the four known types
func (f FundType) IsValid() bool {
	return validFundTypes[f]
}

// String returns the string representation of the fund type
func (f FundType) String() string {
	return string(f)
}

// PaymentMethod describes how an expense item was paid
type PaymentMethod string

const (
	PaymentUniversityCard PaymentMethod = "UNIVERSITY_CARD" // P-Card
	PaymentPersonal       PaymentMethod = "PERSONAL_FUNDS"  // out of pocket, reimbursable
	PaymentDirectInvoice  PaymentMethod = "DIRECT_INVOICE"  // billed to the university
)

var validPaymentMethods = map[PaymentMethod]bool{
	PaymentUniversityCard: true,
	PaymentPersonal:       true,
	PaymentDirectInvoice:  true,
}

// IsValid returns true if the payment method is known
func (p PaymentMethod) IsValid() bool {
	return validPaymentMethods[p]
}

// Category classifies an expense item
type Category string

const (
	CategoryTravel         Category = "TRAVEL"
	CategoryAccommodation  Category = "ACCOMMODATION"
	CategoryMeal           Category = "MEAL"
	CategoryTransportation Category = "TRANSPORTATION"
	CategoryRegistration   Category = "REGISTRATION_FEE"
	CategoryEquipment      Category = "EQUIPMENT"
	CategorySupplies       Category = "SUPPLIES"
	CategoryBooks          Category = "BOOKS"
	CategoryPrinting       Category = "PRINTING"
	CategoryCommunication  Category = "COMMUNICATION"
	CategoryOther          Category = "OTHER"
)

var validCategories = map[Category]bool{
	CategoryTravel:         true,
	CategoryAccommodation:  true,
	CategoryMeal:           true,
	CategoryTransportation: true,
	CategoryRegistration:   true,
	CategoryEquipment:      true,
	CategorySupplies:       true,
	CategoryBooks:          true,
	CategoryPrinting:       true,
	CategoryCommunication:  true,
	CategoryOther:          true,
}

// IsValid returns true if the category is known
func (c Category) IsValid() bool {
	return validCategories[c]
}

// Department identifies the school a report belongs to
type Department string

const (
	DeptEngineering Department = "SCHOOL_OF_ENGINEERING"
	DeptScience     Department = "SCHOOL_OF_SCIENCE"
	DeptHumanities  Department = "SCHOOL_OF_HUMANITIES_AND_SOCIAL_SCIENCES"
	DeptManagement  Department = "SCHOOL_OF_MANAGEMENT"
	DeptMedicine    Department = "SCHOOL_OF_MEDICINE"
)

var validDepartments = map[Department]bool{
	DeptEngineering: true,
	DeptScience:     true,
	DeptHumanities:  true,
	DeptManagement:  true,
	DeptMedicine:    true,
}

// IsValid returns true if the department is a known school
func (d Department) IsValid() bool {
	return validDepartments[d]
}

// ReportType classifies the activity the expenses relate to
type ReportType string

const (
	ReportTypeTeaching       ReportType = "TEACHING"
	ReportTypeResearch       ReportType = "RESEARCH"
	ReportTypeAdministrative ReportType = "ADMINISTRATIVE_SERVICE"
	ReportTypeOther          ReportType = "OTHER"
)

var validReportTypes = map[ReportType]bool{
	ReportTypeTeaching:       true,
	ReportTypeResearch:       true,
	ReportTypeAdministrative: true,
	ReportTypeOther:          true,
}

// IsValid returns true if the report type is known
func (t ReportType) IsValid() bool {
	return validReportTypes[t]
}

// Stage identifies one role's review step in the approval chain
type Stage string

const (
	StageFaculty     Stage = "FACULTY"
	StageSchoolChair Stage = "SCHOOL_CHAIR"
	StageDeanSRIC    Stage = "DEAN_SRIC"
	StageDirector    Stage = "DIRECTOR"
	StageAudit       Stage = "AUDIT"
	StageFinance     Stage = "FINANCE"
)

// Stages lists all review stages in chain order
var Stages = []Stage{StageFaculty, StageSchoolChair, StageDeanSRIC, StageDirector, StageAudit, StageFinance}

// ApprovalRecord captures one stage's decision on a report.
// A record is written once per stage unless the report cycles back through
// DRAFT via sendback, in which case the field is overwritten on resubmission.
type ApprovalRecord struct {
	Approved     bool      `json:"approved"`
	Date         time.Time `json:"date"`
	Remarks      string    `json:"remarks"`
	ApprovedBy   string    `json:"approved_by"`
	ApprovedByID string    `json:"approved_by_id"`
	Action       string    `json:"action,omitempty"` // set to "SENDBACK" for sendbacks
}

// ExpenseItem is a single expense line owned by a report.
// Amounts are kept in integer cents to avoid float drift in totals.
type ExpenseItem struct {
	ID            string        `json:"id"`
	Date          time.Time     `json:"date"`
	Category      Category      `json:"category"`
	Vendor        string        `json:"vendor"`
	Description   string        `json:"description"`
	AmountCents   int64         `json:"amount_cents"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	ReceiptRef    string        `json:"receipt_ref"`
	ChargeToGrant bool          `json:"charge_to_grant"`
}

// ExpenseReport is the aggregate root and the unit of workflow.
// Status only moves through the workflow package; totals only move through
// RecalculateTotals.
type ExpenseReport struct {
	ID            string `json:"id"`
	Version       int64  `json:"version"`
	SubmitterID   string `json:"submitter_id"`
	SubmitterName string `json:"submitter_name"`
	SubmitterRole Role   `json:"submitter_role"`

	// FacultyID is first-touch: set by the first Faculty approval on a
	// student-submitted report and never overwritten afterwards.
	FacultyID   string `json:"faculty_id,omitempty"`
	FacultyName string `json:"faculty_name,omitempty"`
	StudentID   string `json:"student_id,omitempty"`
	StudentName string `json:"student_name,omitempty"`

	Department    Department `json:"department"`
	PeriodStart   time.Time  `json:"period_start"`
	PeriodEnd     time.Time  `json:"period_end"`
	Purpose       string     `json:"purpose"`
	ReportType    ReportType `json:"report_type"`
	FundingSource string     `json:"funding_source,omitempty"`
	FundType      FundType   `json:"fund_type,omitempty"`
	ProjectID     string     `json:"project_id,omitempty"`

	Items []ExpenseItem `json:"items"`

	TotalCents            int64 `json:"total_cents"`
	UniversityCardCents   int64 `json:"university_card_cents"`
	PersonalCents         int64 `json:"personal_cents"`
	NonReimbursableCents  int64 `json:"non_reimbursable_cents"`
	NetReimbursementCents int64 `json:"net_reimbursement_cents"`

	Status Status `json:"status"`

	FacultyApproval     *ApprovalRecord `json:"faculty_approval,omitempty"`
	SchoolChairApproval *ApprovalRecord `json:"school_chair_approval,omitempty"`
	DeanSRICApproval    *ApprovalRecord `json:"dean_sric_approval,omitempty"`
	DirectorApproval    *ApprovalRecord `json:"director_approval,omitempty"`
	AuditApproval       *ApprovalRecord `json:"audit_approval,omitempty"`
	FinanceApproval     *ApprovalRecord `json:"finance_approval,omitempty"`

	SubmissionDate *time.Time `json:"submission_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Approval returns the decision record for a stage, or nil if the stage has
// not acted yet
func (r *ExpenseReport) Approval(stage Stage) *ApprovalRecord {
	switch stage {
	case StageFaculty:
		return r.FacultyApproval
	case StageSchoolChair:
		return r.SchoolChairApproval
	case StageDeanSRIC:
		return r.DeanSRICApproval
	case StageDirector:
		return r.DirectorApproval
	case StageAudit:
		return r.AuditApproval
	case StageFinance:
		return r.FinanceApproval
	}
	return nil
}

// SetApproval writes the decision record for a stage
func (r *ExpenseReport) SetApproval(stage Stage, rec *ApprovalRecord) {
	switch stage {
	case StageFaculty:
		r.FacultyApproval = rec
	case StageSchoolChair:
		r.SchoolChairApproval = rec
	case StageDeanSRIC:
		r.DeanSRICApproval = rec
	case StageDirector:
		r.DirectorApproval = rec
	case StageAudit:
		r.AuditApproval = rec
	case StageFinance:
		r.FinanceApproval = rec
	}
}

// Item returns the item with the given id and its index, or nil and -1
func (r *ExpenseReport) Item(itemID string) (*ExpenseItem, int) {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return &r.Items[i], i
		}
	}
	return nil, -1
}

// Clone returns a deep copy of the report. Callers that may abandon a
// mutation work on a clone so the original is never partially written.
func (r *ExpenseReport) Clone() *ExpenseReport {
	cp := *r
	cp.Items = append([]ExpenseItem(nil), r.Items...)
	for _, stage := range Stages {
		if rec := r.Approval(stage); rec != nil {
			recCopy := *rec
			cp.SetApproval(stage, &recCopy)
		}
	}
	if r.SubmissionDate != nil {
		d := *r.SubmissionDate
		cp.SubmissionDate = &d
	}
	return &cp
}
