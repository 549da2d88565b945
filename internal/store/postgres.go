package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/db"
	"github.com/wardenlabs/realm-tracker/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		minConns = cfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of the
// pool's lifecycle.
func NewWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (ingest batches, analytics).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Uploads

func (s *PostgresStore) CreateUpload(ctx context.Context, filename, kingdom string) (*model.Upload, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tracker.uploads (id, filename, kingdom, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, filename, kingdom, string(model.UploadProcessing), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert upload")
	}

	return &model.Upload{
		ID:        id,
		Filename:  filename,
		Kingdom:   kingdom,
		Status:    model.UploadProcessing,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteUpload(ctx context.Context, id string, rowCount int, rowErrors []model.RowError) error {
	var errJSON []byte
	if len(rowErrors) > 0 {
		var err error
		errJSON, err = json.Marshal(rowErrors)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal row errors")
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE tracker.uploads
		 SET status = $1, row_count = $2, row_errors = $3, completed_at = now()
		 WHERE id = $4`,
		string(model.UploadCompleted), rowCount, errJSON, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete upload %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("upload not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) FailUpload(ctx context.Context, id string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tracker.uploads
		 SET status = $1, error = $2, completed_at = now()
		 WHERE id = $3`,
		string(model.UploadFailed), errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail upload %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("upload not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) GetUpload(ctx context.Context, id string) (*model.Upload, error) {
	var u model.Upload
	var status string
	var errText *string
	var rowErrJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, kingdom, status, row_count, error, row_errors, started_at, completed_at
		 FROM tracker.uploads WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Filename, &u.Kingdom, &status, &u.RowCount, &errText, &rowErrJSON, &u.StartedAt, &u.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get upload %s", id)
	}

	u.Status = model.UploadStatus(status)
	if errText != nil {
		u.Error = *errText
	}
	if len(rowErrJSON) > 0 {
		if err := json.Unmarshal(rowErrJSON, &u.RowErrors); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal row errors")
		}
	}
	return &u, nil
}

func (s *PostgresStore) ListUploads(ctx context.Context, filter UploadFilter) ([]model.Upload, error) {
	query := `SELECT id, filename, kingdom, status, row_count, error, row_errors, started_at, completed_at
	          FROM tracker.uploads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Kingdom != "" {
		query += fmt.Sprintf(` AND kingdom = $%d`, argIdx)
		args = append(args, filter.Kingdom)
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list uploads")
	}
	defer rows.Close()

	var uploads []model.Upload
	for rows.Next() {
		var u model.Upload
		var status string
		var errText *string
		var rowErrJSON []byte

		if err := rows.Scan(&u.ID, &u.Filename, &u.Kingdom, &status, &u.RowCount, &errText, &rowErrJSON, &u.StartedAt, &u.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan upload")
		}
		u.Status = model.UploadStatus(status)
		if errText != nil {
			u.Error = *errText
		}
		if len(rowErrJSON) > 0 {
			if err := json.Unmarshal(rowErrJSON, &u.RowErrors); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal row errors")
			}
		}
		uploads = append(uploads, u)
	}
	return uploads, eris.Wrap(rows.Err(), "postgres: list uploads iterate")
}

// Snapshots

func (s *PostgresStore) CreateSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tracker.snapshots (id, kingdom, taken_at, filename) VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.Kingdom, snap.TakenAt, snap.Filename,
	)
	return eris.Wrap(err, "postgres: insert snapshot")
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	var snap model.Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, kingdom, taken_at, filename FROM tracker.snapshots WHERE id = $1`,
		id,
	).Scan(&snap.ID, &snap.Kingdom, &snap.TakenAt, &snap.Filename)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", id)
	}
	return &snap, nil
}

func (s *PostgresStore) LatestSnapshots(ctx context.Context, kingdom string, n int) ([]model.Snapshot, error) {
	if n <= 0 {
		n = 2
	}
	query := `SELECT id, kingdom, taken_at, filename FROM tracker.snapshots`
	args := []any{}
	if kingdom != "" {
		query += ` WHERE kingdom = $1 ORDER BY taken_at DESC LIMIT $2`
		args = append(args, kingdom, n)
	} else {
		query += ` ORDER BY taken_at DESC LIMIT $1`
		args = append(args, n)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest snapshots")
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Kingdom, &snap.TakenAt, &snap.Filename); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		snaps = append(snaps, snap)
	}
	return snaps, eris.Wrap(rows.Err(), "postgres: latest snapshots iterate")
}

// Players

func (s *PostgresStore) GetPlayer(ctx context.Context, lordID string) (*model.Player, error) {
	var p model.Player
	err := s.pool.QueryRow(ctx,
		`SELECT lord_id, name, left_realm, first_seen, last_seen FROM tracker.players WHERE lord_id = $1`,
		lordID,
	).Scan(&p.LordID, &p.Name, &p.LeftRealm, &p.FirstSeen, &p.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get player %s", lordID)
	}
	return &p, nil
}

func (s *PostgresStore) SearchPlayers(ctx context.Context, query string, limit int) ([]model.Player, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT lord_id, name, left_realm, first_seen, last_seen FROM tracker.players
		 WHERE lord_id = $1 OR name ILIKE '%' || $1 || '%'
		 ORDER BY name LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search players")
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.LordID, &p.Name, &p.LeftRealm, &p.FirstSeen, &p.LastSeen); err != nil {
			return nil, eris.Wrap(err, "postgres: scan player")
		}
		players = append(players, p)
	}
	return players, eris.Wrap(rows.Err(), "postgres: search players iterate")
}

func (s *PostgresStore) NameHistory(ctx context.Context, lordID string) ([]model.NameChange, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lord_id, old_name, new_name, detected_at FROM tracker.name_changes
		 WHERE lord_id = $1 ORDER BY detected_at DESC`,
		lordID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: name history %s", lordID)
	}
	defer rows.Close()

	var changes []model.NameChange
	for rows.Next() {
		var c model.NameChange
		if err := rows.Scan(&c.ID, &c.LordID, &c.OldName, &c.NewName, &c.DetectedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan name change")
		}
		changes = append(changes, c)
	}
	return changes, eris.Wrap(rows.Err(), "postgres: name history iterate")
}

func (s *PostgresStore) AllianceHistory(ctx context.Context, lordID string) ([]model.AllianceChange, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lord_id, old_tag, new_tag, detected_at FROM tracker.alliance_changes
		 WHERE lord_id = $1 ORDER BY detected_at DESC`,
		lordID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: alliance history %s", lordID)
	}
	defer rows.Close()

	var changes []model.AllianceChange
	for rows.Next() {
		var c model.AllianceChange
		if err := rows.Scan(&c.ID, &c.LordID, &c.OldTag, &c.NewTag, &c.DetectedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alliance change")
		}
		changes = append(changes, c)
	}
	return changes, eris.Wrap(rows.Err(), "postgres: alliance history iterate")
}
