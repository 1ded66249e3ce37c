package engine

import (
	"context"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/models"
)

// The functions here are the reactive edge of the engine: each one performs a
// model write and then recalculates the affected scope. Recalculation
// failures are logged, not returned, so a formula problem never loses the
// user's saved input.

func recalcAfterSave(ctx context.Context, companyId string, departmentTeamId int, operation string) {
	if err := RecalculateSummary(ctx, companyId, departmentTeamId); err != nil {
		config.LogError(config.GetLogger(), "engine", operation, "recalculate summary", map[string]any{
			"company_id":         companyId,
			"department_team_id": departmentTeamId,
		}, err)
	}
}

func recalcDraftAfterSave(ctx context.Context, companyId string, departmentTeamId int, operation string) {
	if err := RecalculateDraftSummary(ctx, companyId, departmentTeamId); err != nil {
		config.LogError(config.GetLogger(), "engine", operation, "recalculate draft summary", map[string]any{
			"company_id":         companyId,
			"department_team_id": departmentTeamId,
		}, err)
	}
}

func employeeScope(ctx context.Context, employeeId int) (string, int, error) {
	employee, err := models.GetEmployee(ctx, employeeId)
	if err != nil {
		return "", 0, err
	}
	return employee.CompanyId, employee.DepartmentTeamId, nil
}

// SaveEmployee creates or updates an employee and refreshes the live summary
// of the department the employee lands in. An update that moves the employee
// between departments refreshes both scopes.
func SaveEmployee(ctx context.Context, id int, input *models.NewEmployee) (*models.Employee, error) {
	var previousDept int
	if id > 0 {
		if existing, err := models.GetEmployee(ctx, id); err == nil {
			previousDept = existing.DepartmentTeamId
		}
	}

	var employee *models.Employee
	var err error
	if id > 0 {
		employee, err = models.UpdateEmployee(ctx, id, input)
	} else {
		employee, err = models.CreateEmployee(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	recalcAfterSave(ctx, employee.CompanyId, employee.DepartmentTeamId, "SaveEmployee")
	if previousDept != 0 && previousDept != employee.DepartmentTeamId {
		recalcAfterSave(ctx, employee.CompanyId, previousDept, "SaveEmployee")
	}
	return employee, nil
}

func SaveCurrentPackageDetails(ctx context.Context, input *models.NewCurrentPackageDetails) (*models.CurrentPackageDetails, error) {
	details, err := models.SaveCurrentPackageDetails(ctx, input)
	if err != nil {
		return nil, err
	}
	companyId, departmentTeamId, err := employeeScope(ctx, details.EmployeeId)
	if err != nil {
		return details, err
	}
	recalcAfterSave(ctx, companyId, departmentTeamId, "SaveCurrentPackageDetails")
	return details, nil
}

func SaveProposedPackageDetails(ctx context.Context, input *models.NewProposedPackageDetails) (*models.ProposedPackageDetails, error) {
	details, err := models.SaveProposedPackageDetails(ctx, input)
	if err != nil {
		return nil, err
	}
	companyId, departmentTeamId, err := employeeScope(ctx, details.EmployeeId)
	if err != nil {
		return details, err
	}
	recalcAfterSave(ctx, companyId, departmentTeamId, "SaveProposedPackageDetails")
	return details, nil
}

func SaveFinancialImpactPerMonth(ctx context.Context, input *models.NewFinancialImpactPerMonth) (*models.FinancialImpactPerMonth, error) {
	impact, err := models.SaveFinancialImpactPerMonth(ctx, input)
	if err != nil {
		return nil, err
	}
	companyId, departmentTeamId, err := employeeScope(ctx, impact.EmployeeId)
	if err != nil {
		return impact, err
	}
	recalcAfterSave(ctx, companyId, departmentTeamId, "SaveFinancialImpactPerMonth")
	return impact, nil
}

func SaveCurrentPackageDetailsDraft(ctx context.Context, input *models.NewCurrentPackageDetailsDraft) (*models.CurrentPackageDetailsDraft, error) {
	draft, err := models.SaveCurrentPackageDetailsDraft(ctx, input)
	if err != nil {
		return nil, err
	}
	companyId, departmentTeamId, err := employeeScope(ctx, draft.EmployeeId)
	if err != nil {
		return draft, err
	}
	recalcDraftAfterSave(ctx, companyId, departmentTeamId, "SaveCurrentPackageDetailsDraft")
	return draft, nil
}

func SaveProposedPackageDetailsDraft(ctx context.Context, input *models.NewProposedPackageDetailsDraft) (*models.ProposedPackageDetailsDraft, error) {
	draft, err := models.SaveProposedPackageDetailsDraft(ctx, input)
	if err != nil {
		return nil, err
	}
	companyId, departmentTeamId, err := employeeScope(ctx, draft.EmployeeId)
	if err != nil {
		return draft, err
	}
	recalcDraftAfterSave(ctx, companyId, departmentTeamId, "SaveProposedPackageDetailsDraft")
	return draft, nil
}

// CommitScopeDrafts promotes the scope's drafts into the live universe and
// recalculates the live summary from the promoted values.
func CommitScopeDrafts(ctx context.Context, companyId string, departmentTeamId int) error {
	if err := models.CommitScopeDrafts(ctx, companyId, departmentTeamId); err != nil {
		return err
	}
	return RecalculateSummary(ctx, companyId, departmentTeamId)
}

// DiscardScopeDrafts drops the scope's drafts. The live summary is untouched;
// only the draft summary needs resetting, and it is deleted with the rest of
// the draft rows.
func DiscardScopeDrafts(ctx context.Context, companyId string, departmentTeamId int) error {
	return models.DiscardScopeDrafts(ctx, companyId, departmentTeamId)
}
