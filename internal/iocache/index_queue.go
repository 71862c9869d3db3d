package iocache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
)

// projectMeasuresDocType is the document type indexed after a measure change.
const projectMeasuresDocType = "project_measures"

// IndexQueue records project roots whose measures must be reindexed. Each
// notification is committed in its own transaction, after the measures.
type IndexQueue struct {
	store *MeasureStoreImpl
	now   func() time.Time
}

var _ contract.IndexNotifier = &IndexQueue{} // Compile-time check

// NewIndexQueue returns the index notifier backed by the store.
func NewIndexQueue(store *MeasureStoreImpl) *IndexQueue {
	return &IndexQueue{store: store, now: time.Now}
}

// OnMeasureChange implements the IndexNotifier interface. It is a no-op when
// the store is disabled.
func (iq *IndexQueue) OnMeasureChange(ctx context.Context, projectUUIDs []string, cause schema.IndexCause) error {
	if iq.store == nil || iq.store.disabled() || len(projectUUIDs) == 0 {
		return nil
	}
	createdAt := iq.now().UnixMilli()
	return iq.store.WithinTx(ctx, func(tx contract.MeasureTx) error {
		q := tx.(*measureTx).q
		for _, project := range projectUUIDs {
			if err := q.exec(ctx, "INSERT INTO "+indexQueueTable+" (uuid, doc_type, doc_id, cause, created_at) VALUES (?, ?, ?, ?, ?)",
				uuid.NewString(), projectMeasuresDocType, project, string(cause), createdAt); err != nil {
				return fmt.Errorf("failed to queue index of %s: %w", project, err)
			}
		}
		return nil
	})
}

// IndexItem is one pending reindex request.
type IndexItem struct {
	UUID      string
	DocType   string
	DocID     string
	Cause     schema.IndexCause
	CreatedAt int64
}

// Pending returns the queued reindex requests, oldest first.
func (iq *IndexQueue) Pending(ctx context.Context) ([]IndexItem, error) {
	if iq.store == nil || iq.store.disabled() {
		return nil, contract.ErrStoreDisabled
	}
	q := querier{conn: iq.store.db, backend: iq.store.backend}
	rows, err := q.query(ctx, "SELECT uuid, doc_type, doc_id, cause, created_at FROM "+indexQueueTable+" ORDER BY created_at, uuid")
	if err != nil {
		return nil, fmt.Errorf("failed to query index queue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []IndexItem
	for rows.Next() {
		var it IndexItem
		var cause string
		if err := rows.Scan(&it.UUID, &it.DocType, &it.DocID, &cause, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan index item: %w", err)
		}
		it.Cause = schema.IndexCause(cause)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index queue: %w", err)
	}
	return items, nil
}
