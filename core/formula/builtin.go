package formula

import (
	"math"

	"github.com/huangsam/livemeasure/core/issues"
	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/schema"
)

// Inputs are the metrics the built-in formulas read without computing them.
var Inputs = []string{schema.DevelopmentCostKey, schema.NewDevelopmentCostKey}

var (
	technicalDebt      = Dep(schema.TechnicalDebtKey)
	developmentCost    = Dep(schema.DevelopmentCostKey)
	newTechnicalDebt   = Dep(schema.NewTechnicalDebtKey)
	newDevelopmentCost = Dep(schema.NewDevelopmentCostKey)
)

// BuiltIns returns the issue-based formulas.
func BuiltIns() []Formula {
	return []Formula{
		New(schema.CodeSmellsKey, false, countUnresolvedByType(schema.CodeSmell, false)),
		New(schema.BugsKey, false, countUnresolvedByType(schema.Bug, false)),
		New(schema.VulnerabilitiesKey, false, countUnresolvedByType(schema.Vulnerability, false)),
		New(schema.SecurityHotspotsKey, false, countUnresolvedByType(schema.SecurityHotspot, false)),

		New(schema.ViolationsKey, false, func(ctx Context, c *issues.Counter) error {
			ctx.SetValue(float64(c.CountUnresolved(false)))
			return nil
		}),

		New(schema.InfoViolationsKey, false, countUnresolvedBySeverity(schema.Info, false)),
		New(schema.MinorViolationsKey, false, countUnresolvedBySeverity(schema.Minor, false)),
		New(schema.MajorViolationsKey, false, countUnresolvedBySeverity(schema.Major, false)),
		New(schema.CriticalViolationsKey, false, countUnresolvedBySeverity(schema.Critical, false)),
		New(schema.BlockerViolationsKey, false, countUnresolvedBySeverity(schema.Blocker, false)),

		New(schema.FalsePositiveKey, false, func(ctx Context, c *issues.Counter) error {
			ctx.SetValue(float64(c.CountByResolution(schema.ResolutionFalsePositive, false)))
			return nil
		}),
		New(schema.WontFixKey, false, func(ctx Context, c *issues.Counter) error {
			ctx.SetValue(float64(c.CountByResolution(schema.ResolutionWontFix, false)))
			return nil
		}),

		New(schema.OpenIssuesKey, false, countByStatus(schema.StatusOpen)),
		New(schema.ReopenedIssuesKey, false, countByStatus(schema.StatusReopened)),
		New(schema.ConfirmedIssuesKey, false, countByStatus(schema.StatusConfirmed)),

		New(schema.TechnicalDebtKey, false, sumEffort(schema.CodeSmell, false)),
		New(schema.ReliabilityRemediationEffortKey, false, sumEffort(schema.Bug, false)),
		New(schema.SecurityRemediationEffortKey, false, sumEffort(schema.Vulnerability, false)),

		New(schema.DebtRatioKey, false, func(ctx Context, _ *issues.Counter) error {
			ctx.SetValue(100.0 * debtDensity(ctx, technicalDebt, developmentCost, false))
			return nil
		}, technicalDebt, developmentCost),

		New(schema.MaintainabilityRatingKey, false, func(ctx Context, _ *issues.Counter) error {
			r, err := ctx.Grid().RatingForDensity(debtDensity(ctx, technicalDebt, developmentCost, false))
			if err != nil {
				return err
			}
			ctx.SetRating(r)
			return nil
		}, technicalDebt, developmentCost),

		New(schema.EffortToReachRatingAKey, false, func(ctx Context, _ *issues.Counter) error {
			ctx.SetValue(effortToReachRatingA(ctx))
			return nil
		}, technicalDebt, developmentCost),

		New(schema.ReliabilityRatingKey, false, worstSeverityRating(schema.Bug, false)),
		New(schema.SecurityRatingKey, false, worstSeverityRating(schema.Vulnerability, false)),

		New(schema.HotspotsReviewedKey, false, func(ctx Context, c *issues.Counter) error {
			if p, ok := reviewedPercent(c, false); ok {
				ctx.SetValue(p)
			}
			return nil
		}),
		New(schema.SecurityReviewRatingKey, false, func(ctx Context, c *issues.Counter) error {
			ctx.SetRating(reviewRating(reviewedPercent(c, false)))
			return nil
		}),

		New(schema.NewViolationsKey, true, func(ctx Context, c *issues.Counter) error {
			ctx.SetLeakValue(float64(c.CountUnresolved(true)))
			return nil
		}),
		New(schema.NewCodeSmellsKey, true, countUnresolvedByType(schema.CodeSmell, true)),
		New(schema.NewBugsKey, true, countUnresolvedByType(schema.Bug, true)),
		New(schema.NewVulnerabilitiesKey, true, countUnresolvedByType(schema.Vulnerability, true)),
		New(schema.NewSecurityHotspotsKey, true, countUnresolvedByType(schema.SecurityHotspot, true)),

		New(schema.NewInfoViolationsKey, true, countUnresolvedBySeverity(schema.Info, true)),
		New(schema.NewMinorViolationsKey, true, countUnresolvedBySeverity(schema.Minor, true)),
		New(schema.NewMajorViolationsKey, true, countUnresolvedBySeverity(schema.Major, true)),
		New(schema.NewCriticalViolationsKey, true, countUnresolvedBySeverity(schema.Critical, true)),
		New(schema.NewBlockerViolationsKey, true, countUnresolvedBySeverity(schema.Blocker, true)),

		New(schema.NewTechnicalDebtKey, true, sumEffort(schema.CodeSmell, true)),
		New(schema.NewReliabilityRemediationEffortKey, true, sumEffort(schema.Bug, true)),
		New(schema.NewSecurityRemediationEffortKey, true, sumEffort(schema.Vulnerability, true)),

		New(schema.NewDebtRatioKey, true, func(ctx Context, _ *issues.Counter) error {
			ctx.SetLeakValue(100.0 * debtDensity(ctx, newTechnicalDebt, newDevelopmentCost, true))
			return nil
		}, newTechnicalDebt, newDevelopmentCost),

		New(schema.NewMaintainabilityRatingKey, true, func(ctx Context, _ *issues.Counter) error {
			r, err := ctx.Grid().RatingForDensity(debtDensity(ctx, newTechnicalDebt, newDevelopmentCost, true))
			if err != nil {
				return err
			}
			ctx.SetLeakRating(r)
			return nil
		}, newTechnicalDebt, newDevelopmentCost),

		New(schema.NewReliabilityRatingKey, true, worstSeverityRating(schema.Bug, true)),
		New(schema.NewSecurityRatingKey, true, worstSeverityRating(schema.Vulnerability, true)),

		New(schema.NewHotspotsReviewedKey, true, func(ctx Context, c *issues.Counter) error {
			if p, ok := reviewedPercent(c, true); ok {
				ctx.SetLeakValue(p)
			}
			return nil
		}),
		New(schema.NewSecurityReviewRatingKey, true, func(ctx Context, c *issues.Counter) error {
			ctx.SetLeakRating(reviewRating(reviewedPercent(c, true)))
			return nil
		}),
	}
}

// DefaultRegistry returns the validated registry of built-in formulas.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(Inputs, BuiltIns()...)
}

// set writes v as value, or as variation for leak formulas.
func set(ctx Context, onLeak bool, v float64) {
	if onLeak {
		ctx.SetLeakValue(v)
		return
	}
	ctx.SetValue(v)
}

func countUnresolvedByType(t schema.IssueType, onLeak bool) ComputeFunc {
	return func(ctx Context, c *issues.Counter) error {
		set(ctx, onLeak, float64(c.CountUnresolvedByType(t, onLeak)))
		return nil
	}
}

func countUnresolvedBySeverity(s schema.Severity, onLeak bool) ComputeFunc {
	return func(ctx Context, c *issues.Counter) error {
		set(ctx, onLeak, float64(c.CountUnresolvedBySeverity(s, onLeak)))
		return nil
	}
}

func countByStatus(s schema.IssueStatus) ComputeFunc {
	return func(ctx Context, c *issues.Counter) error {
		ctx.SetValue(float64(c.CountByStatus(s, false)))
		return nil
	}
}

func sumEffort(t schema.IssueType, onLeak bool) ComputeFunc {
	return func(ctx Context, c *issues.Counter) error {
		set(ctx, onLeak, math.Max(0, c.SumEffortOfUnresolved(t, onLeak)))
		return nil
	}
}

func worstSeverityRating(t schema.IssueType, onLeak bool) ComputeFunc {
	return func(ctx Context, c *issues.Counter) error {
		r := rating.A
		if sev, ok := c.HighestSeverityOfUnresolved(t, onLeak); ok {
			r = rating.FromSeverity(sev)
		}
		if onLeak {
			ctx.SetLeakRating(r)
		} else {
			ctx.SetRating(r)
		}
		return nil
	}
}

// debtDensity is debt / development cost, 0 when the cost is absent or not
// positive. Negative debt counts as 0.
func debtDensity(ctx Context, debtRef, costRef Ref, onLeak bool) float64 {
	read := ctx.Value
	if onLeak {
		read = ctx.LeakValue
	}
	debt, _ := read(debtRef)
	debt = math.Max(debt, 0)
	cost, ok := read(costRef)
	if !ok || cost <= 0 {
		return 0
	}
	return debt / cost
}

func effortToReachRatingA(ctx Context) float64 {
	cost, _ := ctx.Value(developmentCost)
	debt, _ := ctx.Value(technicalDebt)
	upperGradeCost := ctx.Grid().GradeA() * cost
	if upperGradeCost < debt {
		return debt - upperGradeCost
	}
	return 0
}

func reviewedPercent(c *issues.Counter, onLeak bool) (float64, bool) {
	toReview := c.CountHotspotsByStatus(schema.StatusToReview, onLeak)
	reviewed := c.CountHotspotsByStatus(schema.StatusReviewed, onLeak)
	total := toReview + reviewed
	if total == 0 {
		return 0, false
	}
	return float64(reviewed) * 100.0 / float64(total), true
}

func reviewRating(percent float64, ok bool) rating.Rating {
	if !ok {
		return rating.ForHotspotReview(nil)
	}
	return rating.ForHotspotReview(&percent)
}
