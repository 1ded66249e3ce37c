package engine

import (
	"context"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/models"
	"github.com/mmdatafocus/increments_backend/utils"
)

// ServingYears counts whole years of service between joining and the
// as-of date. The year is not credited until the anniversary has passed.
// Never negative.
func ServingYears(dateOfJoining, asOf time.Time) int {
	years := asOf.Year() - dateOfJoining.Year()
	anniversary := time.Date(asOf.Year(), dateOfJoining.Month(), dateOfJoining.Day(), 0, 0, 0, 0, time.UTC)
	if asOf.Before(anniversary) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// RecalculateSummary recomputes every derived field of the live universe for
// one (company, department) scope: serving years, the full formula chain in
// dependency order, then the raw headcount. Serialized per company with the
// shared lock so concurrent saves cannot interleave half-applied chains.
func RecalculateSummary(ctx context.Context, companyId string, departmentTeamId int) error {
	release, err := utils.CompanyLock(ctx, companyId, "recalculate", "engine", "RecalculateSummary")
	if err != nil {
		return err
	}
	defer release()

	if _, err := models.FirstOrCreateIncrementDetailsSummary(ctx, companyId, departmentTeamId); err != nil {
		return err
	}
	if err := refreshServingYears(ctx, companyId, departmentTeamId); err != nil {
		return err
	}
	if err := ApplyFieldFormulas(ctx, companyId, departmentTeamId, false); err != nil {
		return err
	}
	return refreshHeadcount(ctx, companyId, departmentTeamId, false)
}

// RecalculateDraftSummary is the draft-universe counterpart. Draft rows
// override their employee's live rows; employees without drafts still
// contribute their live values. A scope with no draft employees has no draft
// universe: the function returns without creating a draft summary row.
func RecalculateDraftSummary(ctx context.Context, companyId string, departmentTeamId int) error {
	release, err := utils.CompanyLock(ctx, companyId, "recalculate", "engine", "RecalculateDraftSummary")
	if err != nil {
		return err
	}
	defer release()

	drafted, err := models.CountScopeDraftEmployees(ctx, companyId, departmentTeamId)
	if err != nil {
		return err
	}
	if drafted == 0 {
		return nil
	}

	db := config.GetDB()
	if _, err := models.FirstOrCreateIncrementDetailsSummaryDraftTx(db.WithContext(ctx), companyId, departmentTeamId); err != nil {
		return err
	}
	if err := ApplyFieldFormulas(ctx, companyId, departmentTeamId, true); err != nil {
		return err
	}
	return refreshHeadcount(ctx, companyId, departmentTeamId, true)
}

// refreshServingYears derives serving_years for every eligible employee from
// the configured as-of date, materializing the financial impact row when the
// employee does not have one yet.
func refreshServingYears(ctx context.Context, companyId string, departmentTeamId int) error {
	conf, err := models.GetConfigurations(ctx)
	if err != nil {
		return err
	}
	employees, err := models.ListScopeEmployees(ctx, companyId, departmentTeamId, true)
	if err != nil {
		return err
	}
	db := config.GetDB()
	for _, employee := range employees {
		years := ServingYears(employee.DateOfJoining, conf.AsOfDate)
		err := db.WithContext(ctx).Exec(
			"INSERT INTO financial_impact_per_months (employee_id, serving_years, created_at, updated_at) VALUES (?, ?, NOW(), NOW()) ON DUPLICATE KEY UPDATE serving_years = VALUES(serving_years), updated_at = NOW()",
			employee.ID, years).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// refreshHeadcount sets total_employees to the raw department headcount,
// unfiltered by eligibility. The eligible count is a COUNT formula target and
// is not touched here.
func refreshHeadcount(ctx context.Context, companyId string, departmentTeamId int, isDraft bool) error {
	db := config.GetDB()
	var total int64
	err := db.WithContext(ctx).Model(&models.Employee{}).
		Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
		Count(&total).Error
	if err != nil {
		return err
	}
	table := relationTargets["incrementdetailssummary"].LiveTable
	if isDraft {
		table = relationTargets["incrementdetailssummary"].DraftTable
	}
	return db.WithContext(ctx).Exec(
		"UPDATE "+table+" SET total_employees = ?, updated_at = NOW() WHERE company_id = ? AND department_team_id = ?",
		total, companyId, departmentTeamId).Error
}
