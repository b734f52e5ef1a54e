package workflow

import "github.com/campusfin/expense-approval/internal/domain/report"

// Route describes who may act on a report in a given status and where an
// approval moves it. Reject always lands in REJECTED and sendback always
// lands in DRAFT, so only the approve destination varies per route.
type Route struct {
	Stage     report.Stage
	Role      report.Role
	ApproveTo report.Status

	// RequiresFundType marks the stage at which the approver must select
	// the fund type (and a project for project funds).
	RequiresFundType bool

	// RequiresDepartmentMatch restricts the route to approvers of the
	// report's own school.
	RequiresDepartmentMatch bool
}

// RejectTo is the destination of every reject action
const RejectTo = report.StatusRejected

// SendbackTo is the destination of every sendback action
const SendbackTo = report.StatusDraft

// routeRule is one row of the routing table. A nil funds slice matches any
// fund type, including none.
type routeRule struct {
	funds []report.FundType
	route Route
}

// routingTable is keyed by current status. Fund-type branching after the
// School Chair stage is expressed as per-fund rules rather than status
// string comparisons, so adding a fund type means adding a row here.
var routingTable = map[report.Status][]routeRule{
	report.StatusSubmitted: {
		{route: Route{
			Stage:            report.StageFaculty,
			Role:             report.RoleFaculty,
			ApproveTo:        report.StatusFacultyApproved,
			RequiresFundType: true,
		}},
	},
	report.StatusFacultyApproved: {
		{route: Route{
			Stage:                   report.StageSchoolChair,
			Role:                    report.RoleSchoolChair,
			ApproveTo:               report.StatusSchoolChairApproved,
			RequiresDepartmentMatch: true,
		}},
	},
	report.StatusSchoolChairApproved: {
		{
			funds: []report.FundType{report.FundProject},
			route: Route{
				Stage:     report.StageDeanSRIC,
				Role:      report.RoleDeanSRIC,
				ApproveTo: report.StatusDeanSRICApproved,
			},
		},
		{
			funds: []report.FundType{report.FundInstitute},
			route: Route{
				Stage:     report.StageDirector,
				Role:      report.RoleDirector,
				ApproveTo: report.StatusDirectorApproved,
			},
		},
		{
			funds: []report.FundType{report.FundDepartment, report.FundProfessionalDevelopment},
			route: Route{
				Stage:     report.StageAudit,
				Role:      report.RoleAudit,
				ApproveTo: report.StatusAuditApproved,
			},
		},
	},
	report.StatusDeanSRICApproved: {
		{
			funds: []report.FundType{report.FundProject},
			route: Route{
				Stage:     report.StageAudit,
				Role:      report.RoleAudit,
				ApproveTo: report.StatusAuditApproved,
			},
		},
	},
	report.StatusDirectorApproved: {
		{
			funds: []report.FundType{report.FundInstitute},
			route: Route{
				Stage:     report.StageAudit,
				Role:      report.RoleAudit,
				ApproveTo: report.StatusAuditApproved,
			},
		},
	},
	report.StatusAuditApproved: {
		{route: Route{
			Stage:     report.StageFinance,
			Role:      report.RoleFinance,
			ApproveTo: report.StatusFinanceApproved,
		}},
	},
}

// Resolve returns the single route out of the given status for the given
// fund type, or false if the status is terminal or has no route for that
// fund type.
func Resolve(status report.Status, fund report.FundType) (Route, bool) {
	for _, rule := range routingTable[status] {
		if rule.matches(fund) {
			return rule.route, true
		}
	}
	return Route{}, false
}

// Authorize returns the route the actor role is eligible for, or a
// ForbiddenTransitionError carrying the current status and fund type.
func Authorize(status report.Status, fund report.FundType, role report.Role, action Action) (Route, error) {
	route, ok := Resolve(status, fund)
	if !ok || route.Role != role {
		return Route{}, &report.ForbiddenTransitionError{
			Status:   status,
			FundType: fund,
			Role:     role,
			Action:   action.String(),
		}
	}
	return route, nil
}

func (r routeRule) matches(fund report.FundType) bool {
	if r.funds == nil {
		return true
	}
	for _, f := range r.funds {
		if f == fund {
			return true
		}
	}
	return false
}
