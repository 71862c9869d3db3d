package iocache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file of the measure store.
func GetDBFilePath() string {
	return contract.GetDBFilePath()
}

// InitStore initializes the global manager with the measure store and its
// index queue, and registers the core metric definitions.
func InitStore(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		store, err := NewMeasureStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize measure store: %w", err)
			return
		}
		if backend != schema.NoneBackend {
			if err := registerCoreMetrics(store); err != nil {
				_ = store.Close()
				initErr = err
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.measures = store
		Manager.notifier = NewIndexQueue(store)
	})

	return initErr
}

// registerCoreMetrics makes sure the metrics read and written by the
// built-in formulas and the quality gate are defined.
func registerCoreMetrics(store contract.MeasureStore) error {
	if err := store.RegisterMetrics(context.Background(), schema.CoreMetrics()); err != nil {
		return fmt.Errorf("failed to register core metrics: %w", err)
	}
	return nil
}

// CloseStore should be called on application shutdown.
func CloseStore() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.measures != nil {
			_ = Manager.measures.Close()
		}
	})
}

// ClearStore clears the measure store for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables.
// For NoneBackend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearSQLTables("mysql", connStr, storeTables)

	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", connStr, storeTables)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTables connects to the SQL database and drops the tables if they exist.
func clearSQLTables(driverName, connStr string, tables []string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
