package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
)

// Table names of the measure store.
const (
	componentsTable     = "lm_components"
	metricsTable        = "lm_metrics"
	liveMeasuresTable   = "lm_live_measures"
	snapshotsTable      = "lm_snapshots"
	issuesTable         = "lm_issues"
	qualityGatesTable   = "lm_quality_gates"
	gateConditionsTable = "lm_gate_conditions"
	projectGatesTable   = "lm_project_gates"
	indexQueueTable     = "lm_index_queue"
)

// storeTables lists every table, children first.
var storeTables = []string{
	indexQueueTable,
	projectGatesTable,
	gateConditionsTable,
	qualityGatesTable,
	issuesTable,
	snapshotsTable,
	liveMeasuresTable,
	metricsTable,
	componentsTable,
}

const componentColumns = "uuid, kee, name, qualifier, parent_uuid, project_uuid, uuid_path, branch_type"

// MeasureStoreImpl implements the MeasureStore interface over database/sql.
type MeasureStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.MeasureStore = &MeasureStoreImpl{} // Compile-time check

// driverFor returns the database/sql driver name and the data source for a backend.
func driverFor(backend schema.DatabaseBackend, connStr string) (string, string) {
	switch backend {
	case schema.MySQLBackend:
		return "mysql", connStr
	case schema.PostgreSQLBackend:
		return "pgx", connStr
	default:
		if connStr == "" {
			connStr = GetDBFilePath()
		}
		return "sqlite", connStr
	}
}

// NewMeasureStore opens the measure store for the specified backend and makes
// sure its tables exist.
func NewMeasureStore(backend schema.DatabaseBackend, connStr string) (*MeasureStoreImpl, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		driverName, dbPath := driverFor(backend, connStr)
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=...", err)
		}

	case schema.NoneBackend:
		return &MeasureStoreImpl{backend: backend}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := createStoreTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create measure tables: %w", err)
	}

	return &MeasureStoreImpl{db: db, backend: backend}, nil
}

// createStoreTables applies the idempotent schema of the backend.
func createStoreTables(db *sql.DB, backend schema.DatabaseBackend) error {
	stmts, err := schemaStatements(backend)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (s *MeasureStoreImpl) disabled() bool {
	return s.backend == schema.NoneBackend || s.db == nil
}

// WithinTx implements the MeasureStore interface.
func (s *MeasureStoreImpl) WithinTx(ctx context.Context, fn func(tx contract.MeasureTx) error) (err error) {
	if s.disabled() {
		return contract.ErrStoreDisabled
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&measureTx{q: querier{conn: tx, backend: s.backend}}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RegisterMetrics implements the MeasureStore interface.
func (s *MeasureStoreImpl) RegisterMetrics(ctx context.Context, metrics []schema.Metric) error {
	if s.disabled() {
		return contract.ErrStoreDisabled
	}
	return s.WithinTx(ctx, func(tx contract.MeasureTx) error {
		q := tx.(*measureTx).q
		existing, err := q.selectMetrics(ctx, "")
		if err != nil {
			return err
		}
		known := schema.MetricsByKey(existing)
		for _, m := range metrics {
			if _, ok := known[m.Key]; ok {
				continue
			}
			if err := q.insertMetric(ctx, m); err != nil {
				return err
			}
			known[m.Key] = m
		}
		return nil
	})
}

// ImportDataset implements the MeasureStore interface. Rows replace stored
// rows with the same identity.
func (s *MeasureStoreImpl) ImportDataset(ctx context.Context, ds schema.Dataset) error {
	if s.disabled() {
		return contract.ErrStoreDisabled
	}
	return s.WithinTx(ctx, func(tx contract.MeasureTx) error {
		q := tx.(*measureTx).q
		for _, m := range ds.Metrics {
			if err := q.deleteBy(ctx, metricsTable, "metric_key", m.Key); err != nil {
				return err
			}
			if err := q.insertMetric(ctx, m); err != nil {
				return err
			}
		}
		for _, c := range ds.Components {
			if err := q.deleteBy(ctx, componentsTable, "uuid", c.UUID); err != nil {
				return err
			}
			branch := c.BranchType
			if branch == "" {
				branch = schema.LongBranch
			}
			if err := q.exec(ctx, "INSERT INTO "+componentsTable+" ("+componentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				c.UUID, c.Key, c.Name, string(c.Qualifier), c.ParentUUID, c.ProjectUUID, c.UUIDPath, string(branch)); err != nil {
				return fmt.Errorf("failed to insert component %s: %w", c.Key, err)
			}
		}
		for _, sn := range ds.Snapshots {
			if err := q.deleteBy(ctx, snapshotsTable, "uuid", sn.UUID); err != nil {
				return err
			}
			if err := q.exec(ctx, "INSERT INTO "+snapshotsTable+" (uuid, component_uuid, created_at, period_date) VALUES (?, ?, ?, ?)",
				sn.UUID, sn.ComponentUUID, sn.CreatedAt, sn.PeriodDate); err != nil {
				return fmt.Errorf("failed to insert snapshot %s: %w", sn.UUID, err)
			}
		}
		for _, is := range ds.Issues {
			if err := q.deleteBy(ctx, issuesTable, "kee", is.Key); err != nil {
				return err
			}
			if err := q.exec(ctx, "INSERT INTO "+issuesTable+
				" (kee, component_uuid, project_uuid, rule_type, severity, status, resolution, effort, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
				is.Key, is.ComponentUUID, is.ProjectUUID, string(is.RuleType), string(is.Severity), string(is.Status),
				resolutionArg(is.Resolution), is.Effort, is.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert issue %s: %w", is.Key, err)
			}
		}
		for _, g := range ds.Gates {
			if err := q.insertGate(ctx, g); err != nil {
				return err
			}
		}
		if ds.DefaultGateUUID != "" {
			if err := q.exec(ctx, "UPDATE "+qualityGatesTable+" SET is_default = 0"); err != nil {
				return fmt.Errorf("failed to reset default gate: %w", err)
			}
			if err := q.exec(ctx, "UPDATE "+qualityGatesTable+" SET is_default = 1 WHERE uuid = ?", ds.DefaultGateUUID); err != nil {
				return fmt.Errorf("failed to set default gate: %w", err)
			}
		}
		for project, gateUUID := range ds.ProjectGates {
			if err := q.deleteBy(ctx, projectGatesTable, "project_uuid", project); err != nil {
				return err
			}
			if err := q.exec(ctx, "INSERT INTO "+projectGatesTable+" (project_uuid, gate_uuid) VALUES (?, ?)", project, gateUUID); err != nil {
				return fmt.Errorf("failed to assign gate to %s: %w", project, err)
			}
		}
		if len(ds.Measures) > 0 {
			if _, err := tx.UpsertMeasures(ctx, ds.Measures); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindComponentByKey implements the MeasureStore interface.
func (s *MeasureStoreImpl) FindComponentByKey(ctx context.Context, key string) (schema.Component, bool, error) {
	if s.disabled() {
		return schema.Component{}, false, contract.ErrStoreDisabled
	}
	q := querier{conn: s.db, backend: s.backend}
	comps, err := q.selectComponents(ctx, "WHERE kee = ?", key)
	if err != nil || len(comps) == 0 {
		return schema.Component{}, false, err
	}
	return comps[0], true, nil
}

// ListComponents implements the MeasureStore interface.
func (s *MeasureStoreImpl) ListComponents(ctx context.Context, projectUUID string) ([]schema.Component, error) {
	if s.disabled() {
		return nil, contract.ErrStoreDisabled
	}
	q := querier{conn: s.db, backend: s.backend}
	if projectUUID == "" {
		return q.selectComponents(ctx, "ORDER BY project_uuid, uuid_path, kee")
	}
	return q.selectComponents(ctx, "WHERE project_uuid = ? ORDER BY uuid_path, kee", projectUUID)
}

// SelectMeasureRecords implements the MeasureStore interface.
func (s *MeasureStoreImpl) SelectMeasureRecords(ctx context.Context, componentUUID string) ([]schema.MeasureRecord, error) {
	if s.disabled() {
		return nil, contract.ErrStoreDisabled
	}
	q := querier{conn: s.db, backend: s.backend}
	return q.selectMeasureRecords(ctx, "WHERE m.component_uuid = ? ORDER BY m.metric_key", componentUUID)
}

// SelectAllMeasureRecords implements the MeasureStore interface.
func (s *MeasureStoreImpl) SelectAllMeasureRecords(ctx context.Context) ([]schema.MeasureRecord, error) {
	if s.disabled() {
		return nil, contract.ErrStoreDisabled
	}
	q := querier{conn: s.db, backend: s.backend}
	return q.selectMeasureRecords(ctx, "ORDER BY c.kee, m.metric_key")
}

// GetStatus implements the MeasureStore interface.
func (s *MeasureStoreImpl) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  !s.disabled(),
		TableSizes: make(map[string]int64),
	}
	if s.disabled() {
		return status, nil
	}
	q := querier{conn: s.db, backend: s.backend}

	for _, table := range storeTables {
		var count int64
		if err := q.queryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalComponents = int(status.TableSizes[componentsTable])
	status.TotalMeasures = int(status.TableSizes[liveMeasuresTable])
	status.TotalIssues = int(status.TableSizes[issuesTable])
	status.PendingIndex = int(status.TableSizes[indexQueueTable])

	if status.TotalMeasures > 0 {
		var last sql.NullInt64
		if err := q.queryRow(ctx, "SELECT MAX(updated_at) FROM "+liveMeasuresTable).Scan(&last); err != nil {
			return status, fmt.Errorf("failed to get last update time: %w", err)
		}
		if last.Valid {
			status.LastUpdateTime = time.UnixMilli(last.Int64)
		}
	}
	return status, nil
}

// Close implements the MeasureStore interface.
func (s *MeasureStoreImpl) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// measureTx implements MeasureTx over one database transaction.
type measureTx struct {
	q querier
}

var _ contract.MeasureTx = &measureTx{} // Compile-time check

// SelectComponentsByUUIDs implements the MeasureTx interface.
func (t *measureTx) SelectComponentsByUUIDs(ctx context.Context, uuids []string) ([]schema.Component, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	return t.q.selectComponents(ctx, "WHERE uuid IN ("+placeholders(len(uuids))+") ORDER BY uuid", stringArgs(uuids)...)
}

// SelectLastSnapshot implements the MeasureTx interface.
func (t *measureTx) SelectLastSnapshot(ctx context.Context, projectUUID string) (schema.Snapshot, bool, error) {
	var sn schema.Snapshot
	var period sql.NullInt64
	err := t.q.queryRow(ctx, "SELECT uuid, component_uuid, created_at, period_date FROM "+snapshotsTable+
		" WHERE component_uuid = ? ORDER BY created_at DESC, uuid DESC LIMIT 1", projectUUID).
		Scan(&sn.UUID, &sn.ComponentUUID, &sn.CreatedAt, &period)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Snapshot{}, false, nil
	}
	if err != nil {
		return schema.Snapshot{}, false, fmt.Errorf("failed to query last snapshot: %w", err)
	}
	if period.Valid {
		sn.PeriodDate = &period.Int64
	}
	return sn, true, nil
}

// SelectMetricsByKeys implements the MeasureTx interface.
func (t *measureTx) SelectMetricsByKeys(ctx context.Context, keys []string) ([]schema.Metric, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	return t.q.selectMetrics(ctx, "WHERE metric_key IN ("+placeholders(len(keys))+")", stringArgs(keys)...)
}

// SelectMeasures implements the MeasureTx interface.
func (t *measureTx) SelectMeasures(ctx context.Context, componentUUIDs []string, metricKeys []string) ([]schema.LiveMeasure, error) {
	if len(componentUUIDs) == 0 || len(metricKeys) == 0 {
		return nil, nil
	}
	query := "SELECT component_uuid, project_uuid, metric_key, num_value, variation, text_value, updated_at FROM " + liveMeasuresTable +
		" WHERE component_uuid IN (" + placeholders(len(componentUUIDs)) + ") AND metric_key IN (" + placeholders(len(metricKeys)) + ")"
	args := append(stringArgs(componentUUIDs), stringArgs(metricKeys)...)

	rows, err := t.q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query live measures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.LiveMeasure
	for rows.Next() {
		var m schema.LiveMeasure
		var value, variation sql.NullFloat64
		var text sql.NullString
		if err := rows.Scan(&m.ComponentUUID, &m.ProjectUUID, &m.MetricKey, &value, &variation, &text, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan live measure: %w", err)
		}
		m.Value = floatPtr(value)
		m.Variation = floatPtr(variation)
		m.TextValue = stringPtr(text)
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating live measures: %w", err)
	}
	return results, nil
}

// SelectIssueGroups implements the MeasureTx interface.
func (t *measureTx) SelectIssueGroups(ctx context.Context, component schema.Component, leakPeriodStart int64) ([]schema.IssueGroup, error) {
	query := `SELECT rule_type, severity, status, resolution, COUNT(*), COALESCE(SUM(effort), 0), in_leak FROM (
		SELECT i.rule_type, i.severity, i.status, i.resolution, i.effort,
			CASE WHEN i.created_at > ? THEN 1 ELSE 0 END AS in_leak
		FROM ` + issuesTable + ` i JOIN ` + componentsTable + ` c ON c.uuid = i.component_uuid
		WHERE c.uuid = ? OR c.uuid_path LIKE ? ESCAPE '!'
	) grouped
	GROUP BY rule_type, severity, status, resolution, in_leak
	ORDER BY rule_type, severity, status, resolution, in_leak`

	rows, err := t.q.query(ctx, query, leakPeriodStart, component.UUID, escapeLike(component.SubtreePathPrefix())+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query issue groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.IssueGroup
	for rows.Next() {
		var g schema.IssueGroup
		var ruleType, severity, status string
		var resolution sql.NullString
		var inLeak int64
		if err := rows.Scan(&ruleType, &severity, &status, &resolution, &g.Count, &g.Effort, &inLeak); err != nil {
			return nil, fmt.Errorf("failed to scan issue group: %w", err)
		}
		g.RuleType = schema.IssueType(ruleType)
		g.Severity = schema.Severity(severity)
		g.Status = schema.IssueStatus(status)
		if resolution.Valid {
			r := schema.Resolution(resolution.String)
			g.Resolution = &r
		}
		g.InLeak = inLeak == 1
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issue groups: %w", err)
	}
	return results, nil
}

// UpsertMeasures implements the MeasureTx interface. Rows whose stored value,
// variation and text are unchanged are left untouched and not counted.
func (t *measureTx) UpsertMeasures(ctx context.Context, rows []schema.LiveMeasure) (int, error) {
	query := upsertMeasureQuery(t.q.backend)
	changed := 0
	for _, m := range rows {
		res, err := t.q.conn.ExecContext(ctx, t.q.rebind(query),
			m.ComponentUUID, m.ProjectUUID, m.MetricKey, m.Value, m.Variation, m.TextValue, m.UpdatedAt)
		if err != nil {
			return changed, fmt.Errorf("failed to upsert measure %s on %s: %w", m.MetricKey, m.ComponentUUID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return changed, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n > 0 {
			changed++
		}
	}
	return changed, nil
}

// FindGateFor implements the GateRepository interface.
func (t *measureTx) FindGateFor(ctx context.Context, projectUUID string) (schema.QualityGate, bool, error) {
	var g schema.QualityGate
	err := t.q.queryRow(ctx, "SELECT g.uuid, g.name FROM "+qualityGatesTable+" g JOIN "+projectGatesTable+
		" p ON p.gate_uuid = g.uuid WHERE p.project_uuid = ?", projectUUID).Scan(&g.UUID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		err = t.q.queryRow(ctx, "SELECT uuid, name FROM "+qualityGatesTable+" WHERE is_default = 1 ORDER BY uuid LIMIT 1").
			Scan(&g.UUID, &g.Name)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return schema.QualityGate{}, false, nil
	}
	if err != nil {
		return schema.QualityGate{}, false, fmt.Errorf("failed to query quality gate: %w", err)
	}

	rows, err := t.q.query(ctx, "SELECT metric_key, operator, error_threshold, warning_threshold, on_leak FROM "+
		gateConditionsTable+" WHERE gate_uuid = ? ORDER BY position", g.UUID)
	if err != nil {
		return schema.QualityGate{}, false, fmt.Errorf("failed to query gate conditions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c schema.Condition
		var op string
		var warning sql.NullString
		var onLeak int
		if err := rows.Scan(&c.MetricKey, &op, &c.ErrorThreshold, &warning, &onLeak); err != nil {
			return schema.QualityGate{}, false, fmt.Errorf("failed to scan gate condition: %w", err)
		}
		c.Operator = schema.Operator(op)
		c.WarningThreshold = stringPtr(warning)
		c.OnLeak = onLeak == 1
		g.Conditions = append(g.Conditions, c)
	}
	if err := rows.Err(); err != nil {
		return schema.QualityGate{}, false, fmt.Errorf("error iterating gate conditions: %w", err)
	}
	return g, true, nil
}

// upsertMeasureQuery returns the insert-or-update statement of a backend. The
// update is skipped when the stored state is identical.
func upsertMeasureQuery(backend schema.DatabaseBackend) string {
	insert := "INSERT INTO " + liveMeasuresTable +
		" (component_uuid, project_uuid, metric_key, num_value, variation, text_value, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	switch backend {
	case schema.MySQLBackend:
		// ON DUPLICATE KEY UPDATE reports zero affected rows when nothing changed.
		return insert + ` AS new ON DUPLICATE KEY UPDATE
			updated_at = IF(NOT (num_value <=> new.num_value AND variation <=> new.variation AND text_value <=> new.text_value), new.updated_at, updated_at),
			num_value = new.num_value, variation = new.variation, text_value = new.text_value`
	case schema.PostgreSQLBackend:
		return insert + ` ON CONFLICT (component_uuid, metric_key) DO UPDATE SET
			num_value = EXCLUDED.num_value, variation = EXCLUDED.variation,
			text_value = EXCLUDED.text_value, updated_at = EXCLUDED.updated_at
			WHERE ` + liveMeasuresTable + `.num_value IS DISTINCT FROM EXCLUDED.num_value
			OR ` + liveMeasuresTable + `.variation IS DISTINCT FROM EXCLUDED.variation
			OR ` + liveMeasuresTable + `.text_value IS DISTINCT FROM EXCLUDED.text_value`
	default: // SQLite
		return insert + ` ON CONFLICT (component_uuid, metric_key) DO UPDATE SET
			num_value = excluded.num_value, variation = excluded.variation,
			text_value = excluded.text_value, updated_at = excluded.updated_at
			WHERE num_value IS NOT excluded.num_value
			OR variation IS NOT excluded.variation
			OR text_value IS NOT excluded.text_value`
	}
}

// conn is satisfied by both *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querier runs statements written with '?' placeholders on any backend.
type querier struct {
	conn    conn
	backend schema.DatabaseBackend
}

// rebind rewrites '?' placeholders to '$n' for PostgreSQL. Statements never
// carry a literal '?' outside placeholders.
func (q querier) rebind(query string) string {
	if q.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (q querier) exec(ctx context.Context, query string, args ...any) error {
	_, err := q.conn.ExecContext(ctx, q.rebind(query), args...)
	return err
}

func (q querier) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.conn.QueryContext(ctx, q.rebind(query), args...)
}

func (q querier) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.conn.QueryRowContext(ctx, q.rebind(query), args...)
}

func (q querier) deleteBy(ctx context.Context, table, column, value string) error {
	if err := q.exec(ctx, "DELETE FROM "+table+" WHERE "+column+" = ?", value); err != nil {
		return fmt.Errorf("failed to replace %s row %s: %w", table, value, err)
	}
	return nil
}

func (q querier) insertMetric(ctx context.Context, m schema.Metric) error {
	if err := q.exec(ctx, "INSERT INTO "+metricsTable+
		" (metric_key, name, val_type, decimal_scale, direction, leak_only) VALUES (?, ?, ?, ?, ?, ?)",
		m.Key, m.Name, string(m.Type), m.DecimalScale, m.Direction, boolInt(m.LeakOnly)); err != nil {
		return fmt.Errorf("failed to insert metric %s: %w", m.Key, err)
	}
	return nil
}

func (q querier) insertGate(ctx context.Context, g schema.QualityGate) error {
	if err := q.deleteBy(ctx, gateConditionsTable, "gate_uuid", g.UUID); err != nil {
		return err
	}
	if err := q.deleteBy(ctx, qualityGatesTable, "uuid", g.UUID); err != nil {
		return err
	}
	if err := q.exec(ctx, "INSERT INTO "+qualityGatesTable+" (uuid, name, is_default) VALUES (?, ?, 0)", g.UUID, g.Name); err != nil {
		return fmt.Errorf("failed to insert quality gate %s: %w", g.Name, err)
	}
	for i, c := range g.Conditions {
		if err := q.exec(ctx, "INSERT INTO "+gateConditionsTable+
			" (gate_uuid, position, metric_key, operator, error_threshold, warning_threshold, on_leak) VALUES (?, ?, ?, ?, ?, ?, ?)",
			g.UUID, i, c.MetricKey, string(c.Operator), c.ErrorThreshold, c.WarningThreshold, boolInt(c.OnLeak)); err != nil {
			return fmt.Errorf("failed to insert condition %d of gate %s: %w", i, g.Name, err)
		}
	}
	return nil
}

func (q querier) selectComponents(ctx context.Context, clause string, args ...any) ([]schema.Component, error) {
	rows, err := q.query(ctx, "SELECT "+componentColumns+" FROM "+componentsTable+" "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.Component
	for rows.Next() {
		var c schema.Component
		var qualifier, branch string
		var parent sql.NullString
		if err := rows.Scan(&c.UUID, &c.Key, &c.Name, &qualifier, &parent, &c.ProjectUUID, &c.UUIDPath, &branch); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		c.Qualifier = schema.Qualifier(qualifier)
		c.BranchType = schema.BranchType(branch)
		c.ParentUUID = stringPtr(parent)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating components: %w", err)
	}
	return results, nil
}

func (q querier) selectMetrics(ctx context.Context, clause string, args ...any) ([]schema.Metric, error) {
	rows, err := q.query(ctx, "SELECT metric_key, name, val_type, decimal_scale, direction, leak_only FROM "+metricsTable+" "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.Metric
	for rows.Next() {
		var m schema.Metric
		var valType string
		var scale sql.NullInt64
		var leakOnly int
		if err := rows.Scan(&m.Key, &m.Name, &valType, &scale, &m.Direction, &leakOnly); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		m.Type = schema.MetricType(valType)
		if scale.Valid {
			v := int(scale.Int64)
			m.DecimalScale = &v
		}
		m.LeakOnly = leakOnly == 1
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}
	return results, nil
}

func (q querier) selectMeasureRecords(ctx context.Context, clause string, args ...any) ([]schema.MeasureRecord, error) {
	query := "SELECT c.kee, c.qualifier, m.metric_key, mt.val_type, m.num_value, m.variation, m.text_value, m.updated_at FROM " +
		liveMeasuresTable + " m JOIN " + componentsTable + " c ON c.uuid = m.component_uuid JOIN " +
		metricsTable + " mt ON mt.metric_key = m.metric_key " + clause

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measure records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MeasureRecord
	for rows.Next() {
		var r schema.MeasureRecord
		var qualifier, valType string
		var value, variation sql.NullFloat64
		var text sql.NullString
		if err := rows.Scan(&r.ComponentKey, &qualifier, &r.MetricKey, &valType, &value, &variation, &text, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan measure record: %w", err)
		}
		r.Qualifier = schema.Qualifier(qualifier)
		r.MetricType = schema.MetricType(valType)
		r.Value = floatPtr(value)
		r.Variation = floatPtr(variation)
		r.TextValue = stringPtr(text)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating measure records: %w", err)
	}
	return results, nil
}

// placeholders returns n comma separated '?' markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// escapeLike escapes LIKE wildcards with '!' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func resolutionArg(r *schema.Resolution) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
