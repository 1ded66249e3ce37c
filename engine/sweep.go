package engine

import (
	"context"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/models"
)

// RunEligibilitySweep marks employees eligible for increment once they have
// six months of service at the configured as-of date, skipping resigned
// employees. The sweep only flips the flag forward, so rerunning it is a
// no-op, and every scope that gained an eligible employee is recalculated.
func RunEligibilitySweep(ctx context.Context) (int64, error) {
	conf, err := models.GetConfigurations(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := conf.AsOfDate.AddDate(0, -6, 0)

	db := config.GetDB()
	result := db.WithContext(ctx).Exec(
		"UPDATE employees SET eligible_for_increment = TRUE, updated_at = NOW() WHERE eligible_for_increment = FALSE AND resign = FALSE AND date_of_joining <= ?",
		cutoff)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}

	type scope struct {
		CompanyId        string
		DepartmentTeamId int
	}
	var scopes []scope
	err = db.WithContext(ctx).Model(&models.Employee{}).
		Distinct("company_id", "department_team_id").
		Where("eligible_for_increment = TRUE AND resign = FALSE").
		Find(&scopes).Error
	if err != nil {
		return result.RowsAffected, err
	}
	for _, s := range scopes {
		if err := RecalculateSummary(ctx, s.CompanyId, s.DepartmentTeamId); err != nil {
			config.LogError(config.GetLogger(), "engine", "RunEligibilitySweep", "recalculate summary", map[string]any{
				"company_id":         s.CompanyId,
				"department_team_id": s.DepartmentTeamId,
			}, err)
		}
	}
	return result.RowsAffected, nil
}
