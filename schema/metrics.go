package schema

// Metric keys known to the built-in formulas and the quality gate.
const (
	ViolationsKey         = "violations"
	BugsKey               = "bugs"
	CodeSmellsKey         = "code_smells"
	VulnerabilitiesKey    = "vulnerabilities"
	SecurityHotspotsKey   = "security_hotspots"
	BlockerViolationsKey  = "blocker_violations"
	CriticalViolationsKey = "critical_violations"
	MajorViolationsKey    = "major_violations"
	MinorViolationsKey    = "minor_violations"
	InfoViolationsKey     = "info_violations"
	FalsePositiveKey      = "false_positive_issues"
	WontFixKey            = "wont_fix_issues"
	OpenIssuesKey         = "open_issues"
	ReopenedIssuesKey     = "reopened_issues"
	ConfirmedIssuesKey    = "confirmed_issues"

	TechnicalDebtKey                = "sqale_index"
	ReliabilityRemediationEffortKey = "reliability_remediation_effort"
	SecurityRemediationEffortKey    = "security_remediation_effort"
	DevelopmentCostKey              = "development_cost"
	DebtRatioKey                    = "sqale_debt_ratio"
	MaintainabilityRatingKey        = "sqale_rating"
	EffortToReachRatingAKey         = "effort_to_reach_maintainability_rating_a"
	ReliabilityRatingKey            = "reliability_rating"
	SecurityRatingKey               = "security_rating"
	HotspotsReviewedKey             = "security_hotspots_reviewed"
	SecurityReviewRatingKey         = "security_review_rating"

	NewViolationsKey         = "new_violations"
	NewBugsKey               = "new_bugs"
	NewCodeSmellsKey         = "new_code_smells"
	NewVulnerabilitiesKey    = "new_vulnerabilities"
	NewSecurityHotspotsKey   = "new_security_hotspots"
	NewBlockerViolationsKey  = "new_blocker_violations"
	NewCriticalViolationsKey = "new_critical_violations"
	NewMajorViolationsKey    = "new_major_violations"
	NewMinorViolationsKey    = "new_minor_violations"
	NewInfoViolationsKey     = "new_info_violations"

	NewTechnicalDebtKey                = "new_technical_debt"
	NewReliabilityRemediationEffortKey = "new_reliability_remediation_effort"
	NewSecurityRemediationEffortKey    = "new_security_remediation_effort"
	NewDevelopmentCostKey              = "new_development_cost"
	NewDebtRatioKey                    = "new_sqale_debt_ratio"
	NewMaintainabilityRatingKey        = "new_maintainability_rating"
	NewReliabilityRatingKey            = "new_reliability_rating"
	NewSecurityRatingKey               = "new_security_rating"
	NewHotspotsReviewedKey             = "new_security_hotspots_reviewed"
	NewSecurityReviewRatingKey         = "new_security_review_rating"

	AlertStatusKey        = "alert_status"
	QualityGateDetailsKey = "quality_gate_details"
)

// CoreMetrics returns the definitions of every metric the built-in formulas
// and the quality gate read or write.
func CoreMetrics() []Metric {
	intMetric := func(key, name string) Metric {
		return Metric{Key: key, Name: name, Type: IntType, Direction: -1}
	}
	workDur := func(key, name string) Metric {
		return Metric{Key: key, Name: name, Type: WorkDurType, Direction: -1}
	}
	rating := func(key, name string) Metric {
		return Metric{Key: key, Name: name, Type: RatingType, Direction: -1}
	}
	percent := func(key, name string, direction int) Metric {
		return Metric{Key: key, Name: name, Type: PercentType, Direction: direction}
	}
	leak := func(m Metric) Metric {
		m.LeakOnly = true
		return m
	}

	return []Metric{
		intMetric(ViolationsKey, "Issues"),
		intMetric(BugsKey, "Bugs"),
		intMetric(CodeSmellsKey, "Code Smells"),
		intMetric(VulnerabilitiesKey, "Vulnerabilities"),
		intMetric(SecurityHotspotsKey, "Security Hotspots"),
		intMetric(BlockerViolationsKey, "Blocker Issues"),
		intMetric(CriticalViolationsKey, "Critical Issues"),
		intMetric(MajorViolationsKey, "Major Issues"),
		intMetric(MinorViolationsKey, "Minor Issues"),
		intMetric(InfoViolationsKey, "Info Issues"),
		intMetric(FalsePositiveKey, "False Positive Issues"),
		intMetric(WontFixKey, "Won't Fix Issues"),
		intMetric(OpenIssuesKey, "Open Issues"),
		intMetric(ReopenedIssuesKey, "Reopened Issues"),
		intMetric(ConfirmedIssuesKey, "Confirmed Issues"),

		workDur(TechnicalDebtKey, "Technical Debt"),
		workDur(ReliabilityRemediationEffortKey, "Reliability Remediation Effort"),
		workDur(SecurityRemediationEffortKey, "Security Remediation Effort"),
		workDur(DevelopmentCostKey, "Development Cost"),
		percent(DebtRatioKey, "Technical Debt Ratio", -1),
		rating(MaintainabilityRatingKey, "Maintainability Rating"),
		workDur(EffortToReachRatingAKey, "Effort to Reach Maintainability Rating A"),
		rating(ReliabilityRatingKey, "Reliability Rating"),
		rating(SecurityRatingKey, "Security Rating"),
		percent(HotspotsReviewedKey, "Security Hotspots Reviewed", 1),
		rating(SecurityReviewRatingKey, "Security Review Rating"),

		leak(intMetric(NewViolationsKey, "New Issues")),
		leak(intMetric(NewBugsKey, "New Bugs")),
		leak(intMetric(NewCodeSmellsKey, "New Code Smells")),
		leak(intMetric(NewVulnerabilitiesKey, "New Vulnerabilities")),
		leak(intMetric(NewSecurityHotspotsKey, "New Security Hotspots")),
		leak(intMetric(NewBlockerViolationsKey, "New Blocker Issues")),
		leak(intMetric(NewCriticalViolationsKey, "New Critical Issues")),
		leak(intMetric(NewMajorViolationsKey, "New Major Issues")),
		leak(intMetric(NewMinorViolationsKey, "New Minor Issues")),
		leak(intMetric(NewInfoViolationsKey, "New Info Issues")),

		leak(workDur(NewTechnicalDebtKey, "Added Technical Debt")),
		leak(workDur(NewReliabilityRemediationEffortKey, "Reliability Remediation Effort on New Code")),
		leak(workDur(NewSecurityRemediationEffortKey, "Security Remediation Effort on New Code")),
		leak(workDur(NewDevelopmentCostKey, "Development Cost on New Code")),
		leak(percent(NewDebtRatioKey, "Technical Debt Ratio on New Code", -1)),
		leak(rating(NewMaintainabilityRatingKey, "Maintainability Rating on New Code")),
		leak(rating(NewReliabilityRatingKey, "Reliability Rating on New Code")),
		leak(rating(NewSecurityRatingKey, "Security Rating on New Code")),
		leak(percent(NewHotspotsReviewedKey, "Security Hotspots Reviewed on New Code", 1)),
		leak(rating(NewSecurityReviewRatingKey, "Security Review Rating on New Code")),

		{Key: AlertStatusKey, Name: "Quality Gate Status", Type: LevelType, Direction: 0},
		{Key: QualityGateDetailsKey, Name: "Quality Gate Details", Type: DataType, Direction: 0},
	}
}

// MetricsByKey indexes metric definitions by key.
func MetricsByKey(metrics []Metric) map[string]Metric {
	out := make(map[string]Metric, len(metrics))
	for _, m := range metrics {
		out[m.Key] = m
	}
	return out
}
