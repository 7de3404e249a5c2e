// Package credibility - repository.go описывает хранилище снимков (PersistenceGateway)
// и его реализацию на PostgreSQL: одна строка JSONB на ребёнка.
package credibility

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSnapshotNotFound - для ребёнка ещё нет снимка (новый ребёнок).
var ErrSnapshotNotFound = errors.New("снимок репутации не найден")

// Store - ключ-значение хранилище снимков по ребёнку.
type Store interface {
	// Load возвращает ErrSnapshotNotFound, если снимка нет.
	Load(ctx context.Context, childID int64) (Snapshot, error)
	// Save полностью перезаписывает снимок. Повтор с тем же снимком безопасен.
	Save(ctx context.Context, childID int64, snap Snapshot) error
	// ChildIDs возвращает всех детей, у которых есть снимок.
	ChildIDs(ctx context.Context) ([]int64, error)
}

// PostgresStore хранит снимки в таблице credibility_snapshots.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище на пуле соединений.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load читает снимок ребёнка.
func (r *PostgresStore) Load(ctx context.Context, childID int64) (Snapshot, error) {
	query := `SELECT snapshot FROM credibility_snapshots WHERE child_id = $1`
	var data []byte
	err := r.db.QueryRow(ctx, query, childID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("ошибка чтения снимка (child_id=%d): %w", childID, err)
	}
	return DecodeSnapshot(data)
}

// Save записывает снимок (upsert).
func (r *PostgresStore) Save(ctx context.Context, childID int64, snap Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO credibility_snapshots (child_id, snapshot, score, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (child_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, score = EXCLUDED.score, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, childID, data, snap.Score); err != nil {
		return fmt.Errorf("ошибка записи снимка (child_id=%d): %w", childID, err)
	}
	return nil
}

// ChildIDs возвращает идентификаторы всех детей со снимками.
func (r *PostgresStore) ChildIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT child_id FROM credibility_snapshots ORDER BY child_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка детей: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
