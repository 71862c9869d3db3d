package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the measure store.
	DatabaseBackend string

	// Qualifier represents the kind of a component node.
	Qualifier string

	// IssueType represents the rule type of an issue.
	IssueType string

	// Severity represents the severity of an issue.
	Severity string

	// IssueStatus represents the workflow status of an issue.
	IssueStatus string

	// Resolution represents how a resolved issue was closed.
	Resolution string

	// Level represents a quality gate status.
	Level string

	// MetricType represents the value kind of a metric.
	MetricType string

	// Operator represents a quality gate condition comparison.
	Operator string

	// BranchType represents the lifecycle of a branch.
	BranchType string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Component qualifiers.
const (
	FileQualifier      Qualifier = "FIL"
	UnitTestQualifier  Qualifier = "UTS"
	DirQualifier       Qualifier = "DIR"
	ModuleQualifier    Qualifier = "BRC"
	ProjectQualifier   Qualifier = "TRK"
	AppQualifier       Qualifier = "APP"
	PortfolioQualifier Qualifier = "VW"
)

// Issue rule types.
const (
	CodeSmell       IssueType = "CODE_SMELL"
	Bug             IssueType = "BUG"
	Vulnerability   IssueType = "VULNERABILITY"
	SecurityHotspot IssueType = "SECURITY_HOTSPOT"
)

// Issue severities, from least to most severe.
const (
	Info     Severity = "INFO"
	Minor    Severity = "MINOR"
	Major    Severity = "MAJOR"
	Critical Severity = "CRITICAL"
	Blocker  Severity = "BLOCKER"
)

// Issue statuses.
const (
	StatusOpen      IssueStatus = "OPEN"
	StatusConfirmed IssueStatus = "CONFIRMED"
	StatusReopened  IssueStatus = "REOPENED"
	StatusResolved  IssueStatus = "RESOLVED"
	StatusClosed    IssueStatus = "CLOSED"
	StatusToReview  IssueStatus = "TO_REVIEW"
	StatusReviewed  IssueStatus = "REVIEWED"
)

// Issue resolutions.
const (
	ResolutionFixed         Resolution = "FIXED"
	ResolutionFalsePositive Resolution = "FALSE-POSITIVE"
	ResolutionWontFix       Resolution = "WONTFIX"
	ResolutionRemoved       Resolution = "REMOVED"
	ResolutionSafe          Resolution = "SAFE"
)

// Quality gate levels.
const (
	LevelOK    Level = "OK"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Metric value types.
const (
	IntType     MetricType = "INT"
	FloatType   MetricType = "FLOAT"
	PercentType MetricType = "PERCENT"
	WorkDurType MetricType = "WORK_DUR"
	RatingType  MetricType = "RATING"
	LevelType   MetricType = "LEVEL"
	DataType    MetricType = "DATA"
	StringType  MetricType = "STRING"
)

// Condition operators. The operator describes the failing side of a condition.
const (
	GreaterThan Operator = "GT"
	LessThan    Operator = "LT"
	Equals      Operator = "EQ"
	NotEquals   Operator = "NE"
)

// Branch types.
const (
	LongBranch  BranchType = "LONG" // default
	ShortBranch BranchType = "SHORT"
	PullRequest BranchType = "PULL_REQUEST"
)

// DefaultDecimalScale is used for FLOAT and PERCENT metrics without an explicit scale.
const DefaultDecimalScale = 1

// AllSeverities lists severities from least to most severe.
var AllSeverities = []Severity{Info, Minor, Major, Critical, Blocker}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidIssueTypes lists all valid issue rule types.
var ValidIssueTypes = map[IssueType]struct{}{
	CodeSmell:       {},
	Bug:             {},
	Vulnerability:   {},
	SecurityHotspot: {},
}

// ValidOperators lists all valid condition operators.
var ValidOperators = map[Operator]struct{}{
	GreaterThan: {},
	LessThan:    {},
	Equals:      {},
	NotEquals:   {},
}

// ValidBranchTypes lists all valid branch types.
var ValidBranchTypes = map[BranchType]struct{}{
	LongBranch:  {},
	ShortBranch: {},
	PullRequest: {},
}

// qualifierRanks is the bottom-up aggregation order.
var qualifierRanks = map[Qualifier]int{
	FileQualifier:      0,
	UnitTestQualifier:  0,
	DirQualifier:       1,
	ModuleQualifier:    2,
	ProjectQualifier:   3,
	AppQualifier:       4,
	PortfolioQualifier: 5,
}

// Rank returns the bottom-up position of the qualifier. Leaves rank lowest;
// unknown qualifiers rank after every known one.
func (q Qualifier) Rank() int {
	if r, ok := qualifierRanks[q]; ok {
		return r
	}
	return len(qualifierRanks)
}

// Rank returns the position of the severity in AllSeverities, or -1.
func (s Severity) Rank() int {
	for i, sev := range AllSeverities {
		if sev == s {
			return i
		}
	}
	return -1
}

// Numeric reports whether values of this type are stored in the numeric column.
func (t MetricType) Numeric() bool {
	switch t {
	case LevelType, DataType, StringType:
		return false
	default:
		return true
	}
}

// IntegerLike reports whether values of this type compare as whole numbers.
func (t MetricType) IntegerLike() bool {
	switch t {
	case IntType, WorkDurType, RatingType:
		return true
	default:
		return false
	}
}
