package engine

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/models"
	"github.com/mmdatafocus/increments_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SegmentKind tags one canonical-path segment. The walker matches on the
// kind instead of inferring behavior from whatever object a segment lands on.
type SegmentKind int

const (
	SegmentRelation SegmentKind = iota
	SegmentConfiguration
	SegmentDynamicAttribute
	SegmentField
)

type PathSegment struct {
	Kind SegmentKind
	Name string
}

// relationTarget describes how a relation segment is stored: the live table,
// its draft-suffixed counterpart, and how rows attach to an employee.
type relationTarget struct {
	LiveTable  string
	DraftTable string
}

var relationTargets = map[string]relationTarget{
	"employee":                {LiveTable: "employees", DraftTable: "employee_drafts"},
	"currentpackagedetails":   {LiveTable: "current_package_details", DraftTable: "current_package_details_drafts"},
	"proposedpackagedetails":  {LiveTable: "proposed_package_details", DraftTable: "proposed_package_details_drafts"},
	"financialimpactpermonth": {LiveTable: "financial_impact_per_months", DraftTable: "financial_impact_per_month_drafts"},
	"incrementdetailssummary": {LiveTable: "increment_details_summaries", DraftTable: "increment_details_summary_drafts"},
}

var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// CompilePath splits a canonical "__"-joined path into tagged segments. The
// final segment is always the concrete field.
func CompilePath(path string) ([]PathSegment, error) {
	raw := strings.Split(path, "__")
	if len(raw) < 2 {
		return nil, &PathResolutionError{Path: path, Segment: path, Reason: "path too short"}
	}
	segments := make([]PathSegment, 0, len(raw))
	for i, name := range raw {
		if i == len(raw)-1 {
			if !columnPattern.MatchString(name) {
				return nil, &PathResolutionError{Path: path, Segment: name, Reason: "invalid field segment"}
			}
			segments = append(segments, PathSegment{Kind: SegmentField, Name: name})
			continue
		}
		switch {
		case name == "configurations":
			segments = append(segments, PathSegment{Kind: SegmentConfiguration, Name: name})
		case name == "dynamic_attribute":
			segments = append(segments, PathSegment{Kind: SegmentDynamicAttribute, Name: name})
		default:
			if _, ok := relationTargets[name]; !ok {
				return nil, &PathResolutionError{Path: path, Segment: name, Reason: "unknown relation"}
			}
			segments = append(segments, PathSegment{Kind: SegmentRelation, Name: name})
		}
	}
	return segments, nil
}

// RootEntity anchors a path walk: the concrete row the formula's target
// belongs to, plus its scope. EmployeeID is zero for summary roots.
type RootEntity struct {
	Model            string
	ID               int
	EmployeeID       int
	CompanyID        string
	DepartmentTeamID int
}

// Value is an accessor result. DeclaredType is non-empty only for dynamic
// attributes, whose raw text still needs caller-side coercion.
type Value struct {
	Dec          decimal.Decimal
	Raw          string
	DeclaredType models.DynamicAttributeType
}

// FetchValue resolves a canonical path against the root. Aggregates walk the
// whole (company, department) scope; plain access walks relations from the
// root only. isDraft redirects organizational segments to the draft tables
// with per-employee fallback to live; Configurations and dynamic attributes
// are shared between the universes.
func FetchValue(ctx context.Context, root RootEntity, path string, aggregate AggregateKind, isDraft bool) (Value, error) {
	segments, err := CompilePath(path)
	if err != nil {
		return Value{}, err
	}
	if aggregate != AggregateNone {
		return fetchAggregate(ctx, root, path, segments, aggregate, isDraft)
	}
	return fetchScalar(ctx, root, path, segments, isDraft)
}

func fetchScalar(ctx context.Context, root RootEntity, path string, segments []PathSegment, isDraft bool) (Value, error) {
	db := config.GetDB()

	// current position: a concrete row (table, id) plus the owning employee
	var curTable string
	var curRowID int
	employeeID := root.EmployeeID

	for i, seg := range segments {
		switch seg.Kind {
		case SegmentConfiguration:
			// switch to the singleton Configurations row; remaining segment
			// must be the field
			if i != len(segments)-2 {
				return Value{}, &PathResolutionError{Path: path, Segment: seg.Name, Reason: "configurations must be followed by a field"}
			}
			return fetchConfigurationField(ctx, path, segments[i+1].Name)

		case SegmentDynamicAttribute:
			if i != len(segments)-2 {
				return Value{}, &PathResolutionError{Path: path, Segment: seg.Name, Reason: "dynamic_attribute must be followed by a key"}
			}
			attr, err := models.GetDynamicAttribute(ctx, segments[i+1].Name)
			if err != nil {
				return Value{}, &PathResolutionError{Path: path, Segment: segments[i+1].Name, Reason: "no dynamic attributes defined"}
			}
			return Value{Raw: attr.Value, DeclaredType: attr.ValueType}, nil

		case SegmentRelation:
			target := relationTargets[seg.Name]
			switch seg.Name {
			case "employee":
				if employeeID == 0 {
					return Value{}, &PathResolutionError{Path: path, Segment: seg.Name, Reason: "root has no employee"}
				}
				table, rowID, err := locateEmployeeRow(ctx, employeeID, isDraft)
				if err != nil {
					return Value{}, err
				}
				curTable, curRowID = table, rowID
			case "incrementdetailssummary":
				if root.CompanyID == "" || root.DepartmentTeamID == 0 {
					return Value{}, &PathResolutionError{Path: path, Segment: seg.Name, Reason: "root has no scope"}
				}
				table, rowID, err := locateScopeRow(ctx, target, root.CompanyID, root.DepartmentTeamID, isDraft)
				if err != nil {
					return Value{}, &PathResolutionError{Path: path, Segment: seg.Name, Reason: "summary row missing"}
				}
				curTable, curRowID = table, rowID
			default:
				if employeeID == 0 {
					return Value{}, &PathResolutionError{Path: path, Segment: seg.Name, Reason: "no employee to traverse from"}
				}
				table, rowID, err := locateEmployeeChildRow(ctx, target, employeeID, isDraft)
				if err != nil {
					return Value{}, &PathResolutionError{Path: path, Segment: seg.Name, Reason: "related row missing"}
				}
				curTable, curRowID = table, rowID
			}

		case SegmentField:
			if curTable == "" {
				return Value{}, &PathResolutionError{Path: path, Segment: seg.Name, Reason: "field before any relation"}
			}
			var raw sql.NullString
			query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", seg.Name, curTable)
			if err := db.WithContext(ctx).Raw(query, curRowID).Scan(&raw).Error; err != nil {
				return Value{}, err
			}
			if !raw.Valid {
				return Value{Dec: decimal.Zero}, nil
			}
			return Value{Dec: utils.DecimalOrZero(raw.String), Raw: raw.String}, nil
		}
	}
	return Value{}, &PathResolutionError{Path: path, Segment: path, Reason: "path has no field segment"}
}

func fetchConfigurationField(ctx context.Context, path string, field string) (Value, error) {
	conf, err := models.GetConfigurations(ctx)
	if err != nil {
		return Value{}, &PathResolutionError{Path: path, Segment: "configurations", Reason: "configurations row missing"}
	}
	// only the decimal configuration fields resolve; as_of_date feeds the
	// serving-years trigger, never formula arithmetic
	switch field {
	case "bonus_constant_multiplier":
		return Value{Dec: conf.BonusConstantMultiplier}, nil
	case "fuel_rate":
		return Value{Dec: conf.FuelRate}, nil
	default:
		return Value{}, &PathResolutionError{Path: path, Segment: field, Reason: "not a numeric configurations field"}
	}
}

// locateEmployeeRow positions the walk on the employee row, preferring the
// draft override in draft context.
func locateEmployeeRow(ctx context.Context, employeeID int, isDraft bool) (string, int, error) {
	db := config.GetDB()
	if isDraft {
		var id int
		err := db.WithContext(ctx).
			Raw("SELECT id FROM employee_drafts WHERE employee_id = ?", employeeID).
			Scan(&id).Error
		if err == nil && id > 0 {
			return "employee_drafts", id, nil
		}
	}
	return "employees", employeeID, nil
}

func locateEmployeeChildRow(ctx context.Context, target relationTarget, employeeID int, isDraft bool) (string, int, error) {
	db := config.GetDB()
	if isDraft {
		var id int
		query := fmt.Sprintf("SELECT id FROM %s WHERE employee_id = ?", target.DraftTable)
		err := db.WithContext(ctx).Raw(query, employeeID).Scan(&id).Error
		if err == nil && id > 0 {
			return target.DraftTable, id, nil
		}
	}
	var id int
	query := fmt.Sprintf("SELECT id FROM %s WHERE employee_id = ?", target.LiveTable)
	if err := db.WithContext(ctx).Raw(query, employeeID).Scan(&id).Error; err != nil {
		return "", 0, err
	}
	if id == 0 {
		return "", 0, utils.ErrorRecordNotFound
	}
	return target.LiveTable, id, nil
}

func locateScopeRow(ctx context.Context, target relationTarget, companyID string, departmentTeamID int, isDraft bool) (string, int, error) {
	db := config.GetDB()
	if isDraft {
		var id int
		query := fmt.Sprintf("SELECT id FROM %s WHERE company_id = ? AND department_team_id = ?", target.DraftTable)
		err := db.WithContext(ctx).Raw(query, companyID, departmentTeamID).Scan(&id).Error
		if err == nil && id > 0 {
			return target.DraftTable, id, nil
		}
	}
	var id int
	query := fmt.Sprintf("SELECT id FROM %s WHERE company_id = ? AND department_team_id = ?", target.LiveTable)
	if err := db.WithContext(ctx).Raw(query, companyID, departmentTeamID).Scan(&id).Error; err != nil {
		return "", 0, err
	}
	if id == 0 {
		return "", 0, utils.ErrorRecordNotFound
	}
	return target.LiveTable, id, nil
}

// fetchAggregate pushes SUM/AVG/COUNT down to the storage layer. In draft
// context the live and draft universes are unioned per employee: a draft row
// suppresses the employee's live row, so no employee counts twice. Only
// employees with eligible_for_increment AND NOT resign contribute.
func fetchAggregate(ctx context.Context, root RootEntity, path string, segments []PathSegment, aggregate AggregateKind, isDraft bool) (Value, error) {
	if root.CompanyID == "" || root.DepartmentTeamID == 0 {
		return Value{}, &PathResolutionError{Path: path, Segment: path, Reason: "aggregate requires a scope"}
	}
	if segments[0].Kind != SegmentRelation || segments[0].Name != "employee" {
		return Value{}, &PathResolutionError{Path: path, Segment: segments[0].Name, Reason: "aggregate paths are rooted at employee"}
	}

	field := segments[len(segments)-1].Name

	var liveSum, draftSum decimal.Decimal
	var liveCount, draftCount int64
	var err error

	switch len(segments) {
	case 2:
		// field lives on the employee row itself
		liveSum, liveCount, err = aggregateEmployeeLive(ctx, root, field, isDraft)
		if err != nil {
			return Value{}, err
		}
		if isDraft {
			draftSum, draftCount, err = aggregateEmployeeDraft(ctx, root, field)
			if err != nil {
				return Value{}, err
			}
		}
	case 3:
		target, ok := relationTargets[segments[1].Name]
		if !ok || segments[1].Name == "employee" || segments[1].Name == "incrementdetailssummary" {
			return Value{}, &PathResolutionError{Path: path, Segment: segments[1].Name, Reason: "not an aggregable relation"}
		}
		liveSum, liveCount, err = aggregateChildLive(ctx, root, target, field, isDraft)
		if err != nil {
			return Value{}, err
		}
		if isDraft {
			draftSum, draftCount, err = aggregateChildDraft(ctx, root, target, field)
			if err != nil {
				return Value{}, err
			}
		}
	default:
		return Value{}, &PathResolutionError{Path: path, Segment: path, Reason: "aggregate path too deep"}
	}

	total := liveSum.Add(draftSum)
	count := liveCount + draftCount

	switch aggregate {
	case AggregateSum:
		return Value{Dec: total}, nil
	case AggregateAvg:
		if count == 0 {
			return Value{Dec: decimal.Zero}, nil
		}
		return Value{Dec: total.Div(decimal.NewFromInt(count))}, nil
	case AggregateCount:
		return Value{Dec: decimal.NewFromInt(count)}, nil
	default:
		return Value{}, &PathResolutionError{Path: path, Segment: path, Reason: "unsupported aggregate"}
	}
}

const eligibleEmployeeCond = "e.company_id = ? AND e.department_team_id = ? AND e.eligible_for_increment = TRUE AND e.resign = FALSE"

// draft context: an employee with a draft row is judged by the draft's
// flags, everyone else by the live flags
const draftEligibleEmployeeCond = "e.company_id = ? AND e.department_team_id = ? AND COALESCE(ed.eligible_for_increment, e.eligible_for_increment) = TRUE AND COALESCE(ed.resign, e.resign) = FALSE"

// numeric columns aggregate as sums; non-numeric columns (COUNT targets such
// as fullname) still count but sum as zero
func sumExpr(qualifier, field string) string {
	switch field {
	case "fullname", "designation", "email", "phone", "date_of_joining":
		return "0"
	}
	return fmt.Sprintf("COALESCE(SUM(%s.%s), 0)", qualifier, field)
}

func aggregateEmployeeLive(ctx context.Context, root RootEntity, field string, excludeDrafted bool) (decimal.Decimal, int64, error) {
	db := config.GetDB()
	query := fmt.Sprintf("SELECT %s AS total, COUNT(e.%s) AS cnt FROM employees e WHERE %s",
		sumExpr("e", field), field, eligibleEmployeeCond)
	args := []interface{}{root.CompanyID, root.DepartmentTeamID}
	if excludeDrafted {
		query += " AND e.id NOT IN (SELECT d.employee_id FROM employee_drafts d WHERE d.company_id = ? AND d.department_team_id = ?)"
		args = append(args, root.CompanyID, root.DepartmentTeamID)
	}
	return scanAggregate(ctx, db, query, args)
}

func aggregateEmployeeDraft(ctx context.Context, root RootEntity, field string) (decimal.Decimal, int64, error) {
	db := config.GetDB()
	// draft rows carry their own scope and eligibility flags
	query := fmt.Sprintf("SELECT %s AS total, COUNT(e.%s) AS cnt FROM employee_drafts e WHERE %s",
		sumExpr("e", field), field, eligibleEmployeeCond)
	return scanAggregate(ctx, db, query, []interface{}{root.CompanyID, root.DepartmentTeamID})
}

func aggregateChildLive(ctx context.Context, root RootEntity, target relationTarget, field string, excludeDrafted bool) (decimal.Decimal, int64, error) {
	db := config.GetDB()
	args := []interface{}{root.CompanyID, root.DepartmentTeamID}
	if !excludeDrafted {
		query := fmt.Sprintf(
			"SELECT COALESCE(SUM(t.%s), 0) AS total, COUNT(t.%s) AS cnt FROM %s t JOIN employees e ON e.id = t.employee_id WHERE %s",
			field, field, target.LiveTable, eligibleEmployeeCond)
		return scanAggregate(ctx, db, query, args)
	}
	query := fmt.Sprintf(
		"SELECT COALESCE(SUM(t.%s), 0) AS total, COUNT(t.%s) AS cnt FROM %s t JOIN employees e ON e.id = t.employee_id LEFT JOIN employee_drafts ed ON ed.employee_id = e.id WHERE %s AND t.employee_id NOT IN (SELECT d.employee_id FROM %s d)",
		field, field, target.LiveTable, draftEligibleEmployeeCond, target.DraftTable)
	return scanAggregate(ctx, db, query, args)
}

func aggregateChildDraft(ctx context.Context, root RootEntity, target relationTarget, field string) (decimal.Decimal, int64, error) {
	db := config.GetDB()
	// every child draft has an employee draft row; its flags decide
	// eligibility just like in the employee-level aggregate
	query := fmt.Sprintf(
		"SELECT COALESCE(SUM(t.%s), 0) AS total, COUNT(t.%s) AS cnt FROM %s t JOIN employee_drafts e ON e.employee_id = t.employee_id WHERE %s",
		field, field, target.DraftTable, eligibleEmployeeCond)
	return scanAggregate(ctx, db, query, []interface{}{root.CompanyID, root.DepartmentTeamID})
}

type aggregateRow struct {
	Total decimal.Decimal
	Cnt   int64
}

func scanAggregate(ctx context.Context, db *gorm.DB, query string, args []interface{}) (decimal.Decimal, int64, error) {
	var row aggregateRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Cnt, nil
}
