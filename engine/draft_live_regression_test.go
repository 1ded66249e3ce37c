package engine_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/engine"
	"github.com/mmdatafocus/increments_backend/models"
	"github.com/mmdatafocus/increments_backend/utils"
	"github.com/shopspring/decimal"
)

// The draft/live union is the one behavior worth paying for a real database:
// a draft row must replace its employee's live row inside scope aggregates,
// and every other employee must keep contributing live values.
func TestDraftAggregatesOverrideLivePerEmployee(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "increments_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := utils.SetUserIdInContext(context.Background(), 1)
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	if err := models.SeedDefaults(utils.SetSkipTenantScopeInContext(ctx, true)); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}

	company, err := models.CreateCompany(ctx, &models.NewCompany{Name: "Increment Co"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	ctx = utils.SetCompanyIdInContext(ctx, company.ID.String())

	dept, err := models.CreateDepartmentTeams(ctx, &models.NewDepartmentTeams{DepartmentName: "Engineering"})
	if err != nil {
		t.Fatalf("create department: %v", err)
	}

	joined := time.Now().UTC().AddDate(-2, 0, 0)
	var employees []*models.Employee
	for _, name := range []string{"Aye Aye", "Bo Bo", "Chit Su"} {
		e, err := engine.SaveEmployee(ctx, 0, &models.NewEmployee{
			DepartmentTeamId: dept.ID,
			Fullname:         name,
			DateOfJoining:    joined,
			Resign:           utils.NewFalse(),
		})
		if err != nil {
			t.Fatalf("create employee %s: %v", name, err)
		}
		employees = append(employees, e)
	}

	flipped, err := engine.RunEligibilitySweep(utils.SetSkipTenantScopeInContext(ctx, true))
	if err != nil {
		t.Fatalf("eligibility sweep: %v", err)
	}
	if flipped != 3 {
		t.Fatalf("sweep marked %d employees eligible, expected 3", flipped)
	}
	if again, err := engine.RunEligibilitySweep(utils.SetSkipTenantScopeInContext(ctx, true)); err != nil || again != 0 {
		t.Fatalf("sweep must be idempotent, flipped=%d err=%v", again, err)
	}

	for i, gross := range []string{"100", "200", "500"} {
		_, err := engine.SaveCurrentPackageDetails(ctx, &models.NewCurrentPackageDetails{
			EmployeeId:  employees[i].ID,
			GrossSalary: gross,
		})
		if err != nil {
			t.Fatalf("save current package: %v", err)
		}
	}

	summary, err := models.GetIncrementDetailsSummary(ctx, company.ID.String(), dept.ID)
	if err != nil {
		t.Fatalf("get live summary: %v", err)
	}
	if !summary.TotalCurrentGrossSalary.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("live total gross = %s, expected 800", summary.TotalCurrentGrossSalary)
	}
	if summary.TotalEmployees != 3 {
		t.Fatalf("live headcount = %d, expected 3", summary.TotalEmployees)
	}
	if !summary.EligibleEmployees.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("eligible count = %s, expected 3", summary.EligibleEmployees)
	}
	// no proposed packages exist yet, so the AVG target computes over zero
	// contributing rows and must settle at zero, not fail
	if !summary.AverageIncrementPercentage.IsZero() {
		t.Fatalf("average increment %% over empty scope = %s, expected 0", summary.AverageIncrementPercentage)
	}

	_, err = engine.EvaluateFormula(ctx, &models.Formula{
		FormulaName:       "bad ref",
		FormulaExpression: "[Employee: Nonexistent Field]",
		TargetModel:       "ProposedPackageDetails",
		TargetField:       "Total Package",
	}, engine.RootEntity{
		EmployeeID:       employees[0].ID,
		CompanyID:        company.ID.String(),
		DepartmentTeamID: dept.ID,
	}, false, engine.EvaluateOptions{})
	var unknownRef *engine.UnknownFieldReferenceError
	if !errors.As(err, &unknownRef) {
		t.Fatalf("expected UnknownFieldReferenceError, got %v", err)
	}

	// a scope with no draft employees has no draft universe: recalculating
	// it must not materialize a draft summary row
	if err := engine.RecalculateDraftSummary(ctx, company.ID.String(), dept.ID); err != nil {
		t.Fatalf("draft recalc on empty scope: %v", err)
	}
	var phantomDrafts int64
	err = config.GetDB().WithContext(ctx).Model(&models.IncrementDetailsSummaryDraft{}).
		Where("company_id = ? AND department_team_id = ?", company.ID.String(), dept.ID).
		Count(&phantomDrafts).Error
	if err != nil {
		t.Fatalf("count draft summaries: %v", err)
	}
	if phantomDrafts != 0 {
		t.Fatalf("draft recalc created %d summary rows for a scope with no drafts", phantomDrafts)
	}

	// drafts for two employees; the third keeps its live 500
	for i, gross := range []string{"1000", "2000"} {
		_, err := engine.SaveCurrentPackageDetailsDraft(ctx, &models.NewCurrentPackageDetailsDraft{
			EmployeeId:  employees[i].ID,
			GrossSalary: gross,
		})
		if err != nil {
			t.Fatalf("save draft: %v", err)
		}
	}

	var draftSummary models.IncrementDetailsSummaryDraft
	err = config.GetDB().WithContext(ctx).
		Where("company_id = ? AND department_team_id = ?", company.ID.String(), dept.ID).
		First(&draftSummary).Error
	if err != nil {
		t.Fatalf("get draft summary: %v", err)
	}
	if !draftSummary.TotalCurrentGrossSalary.Equal(decimal.NewFromInt(3500)) {
		t.Fatalf("draft total gross = %s, expected 3500 (1000 + 2000 + live 500)", draftSummary.TotalCurrentGrossSalary)
	}

	// a draft that marks its employee resigned drops that employee from
	// child-table aggregates too, not only employee-level ones
	err = config.GetDB().WithContext(ctx).Model(&models.EmployeeDraft{}).
		Where("employee_id = ?", employees[0].ID).
		Update("resign", true).Error
	if err != nil {
		t.Fatalf("mark draft resigned: %v", err)
	}
	if err := engine.RecalculateDraftSummary(ctx, company.ID.String(), dept.ID); err != nil {
		t.Fatalf("draft recalc after resign flip: %v", err)
	}
	err = config.GetDB().WithContext(ctx).
		Where("company_id = ? AND department_team_id = ?", company.ID.String(), dept.ID).
		First(&draftSummary).Error
	if err != nil {
		t.Fatalf("reload draft summary: %v", err)
	}
	if !draftSummary.TotalCurrentGrossSalary.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("draft total gross with resigned draft = %s, expected 2500 (2000 + live 500)", draftSummary.TotalCurrentGrossSalary)
	}
	err = config.GetDB().WithContext(ctx).Model(&models.EmployeeDraft{}).
		Where("employee_id = ?", employees[0].ID).
		Update("resign", false).Error
	if err != nil {
		t.Fatalf("restore draft resign flag: %v", err)
	}
	if err := engine.RecalculateDraftSummary(ctx, company.ID.String(), dept.ID); err != nil {
		t.Fatalf("draft recalc after restore: %v", err)
	}

	// live summary is untouched by draft edits
	summary, err = models.GetIncrementDetailsSummary(ctx, company.ID.String(), dept.ID)
	if err != nil {
		t.Fatalf("reload live summary: %v", err)
	}
	if !summary.TotalCurrentGrossSalary.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("live total gross changed to %s after draft edits", summary.TotalCurrentGrossSalary)
	}

	if err := engine.CommitScopeDrafts(ctx, company.ID.String(), dept.ID); err != nil {
		t.Fatalf("commit drafts: %v", err)
	}
	summary, err = models.GetIncrementDetailsSummary(ctx, company.ID.String(), dept.ID)
	if err != nil {
		t.Fatalf("reload live summary after commit: %v", err)
	}
	if !summary.TotalCurrentGrossSalary.Equal(decimal.NewFromInt(3500)) {
		t.Fatalf("post-commit total gross = %s, expected 3500", summary.TotalCurrentGrossSalary)
	}

	if remaining, err := models.CountScopeDraftEmployees(ctx, company.ID.String(), dept.ID); err != nil || remaining != 0 {
		t.Fatalf("drafts must be cleared after commit, remaining=%d err=%v", remaining, err)
	}

	// soft-deleting a default formula and re-seeding restores it
	if err := models.DeleteFormula(ctx, 21); err != nil {
		t.Fatalf("delete formula: %v", err)
	}
	if err := models.SeedDefaults(utils.SetSkipTenantScopeInContext(ctx, true)); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	var restored models.Formula
	if err := config.GetDB().WithContext(ctx).First(&restored, 21).Error; err != nil {
		t.Fatalf("reload formula 21: %v", err)
	}
	if restored.IsDeleted == nil || *restored.IsDeleted {
		t.Fatalf("re-seeding must restore a soft-deleted default formula")
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("increments-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("increments-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=increments_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
