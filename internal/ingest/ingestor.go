package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/db"
	"github.com/wardenlabs/realm-tracker/internal/metrics"
	"github.com/wardenlabs/realm-tracker/internal/model"
	"github.com/wardenlabs/realm-tracker/internal/sheet"
	"github.com/wardenlabs/realm-tracker/internal/store"
)

// BadWorkbookError marks a failure caused by the submitted file itself,
// a malformed filename or an unreadable workbook. Its message is safe to
// return to the uploader; anything else stays server-side.
type BadWorkbookError struct {
	Err error
}

func (e *BadWorkbookError) Error() string { return e.Err.Error() }

func (e *BadWorkbookError) Unwrap() error { return e.Err }

// Result summarizes one completed ingestion.
type Result struct {
	Upload          *model.Upload    `json:"upload"`
	SnapshotID      string           `json:"snapshot_id"`
	Kingdom         string           `json:"kingdom"`
	RowCount        int              `json:"row_count"`
	NewPlayers      int              `json:"new_players"`
	NameChanges     int              `json:"name_changes"`
	AllianceChanges int              `json:"alliance_changes"`
	RowErrors       []model.RowError `json:"row_errors,omitempty"`
	Departed        []model.Player   `json:"departed,omitempty"`
}

// Ingestor processes uploaded workbooks into the store.
type Ingestor struct {
	store   store.Store
	cfg     config.IngestConfig
	sweeper *Sweeper
}

// NewIngestor creates an Ingestor. sweeper may be nil to skip the
// post-ingest departure sweep.
func NewIngestor(st store.Store, cfg config.IngestConfig, sweeper *Sweeper) *Ingestor {
	return &Ingestor{store: st, cfg: cfg, sweeper: sweeper}
}

// IngestFile ingests a workbook from disk.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return in.Ingest(ctx, filepath.Base(path), data)
}

// Ingest processes one workbook. The filename carries the kingdom and
// capture time; a malformed name is rejected before anything is persisted.
// Failures after the upload record exists mark it failed rather than
// leaving it stuck in processing.
func (in *Ingestor) Ingest(ctx context.Context, filename string, data []byte) (*Result, error) {
	start := time.Now()
	meta, err := ParseFilename(filename)
	if err != nil {
		return nil, &BadWorkbookError{Err: err}
	}

	upload, err := in.store.CreateUpload(ctx, filename, meta.Kingdom)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("upload_id", upload.ID),
		zap.String("kingdom", meta.Kingdom),
		zap.Time("taken_at", meta.TakenAt),
	)
	log.Info("ingest: processing workbook", zap.String("filename", filename))

	res, err := in.process(ctx, upload, meta, data)
	if err != nil {
		log.Error("ingest: workbook failed", zap.Error(err))
		metrics.UploadsTotal.WithLabelValues(string(model.UploadFailed)).Inc()
		if failErr := in.store.FailUpload(ctx, upload.ID, err.Error()); failErr != nil {
			log.Error("ingest: mark upload failed", zap.Error(failErr))
		}
		return nil, err
	}

	if err := in.store.CompleteUpload(ctx, upload.ID, res.RowCount, res.RowErrors); err != nil {
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues(string(model.UploadCompleted)).Inc()
	metrics.IngestedRows.Add(float64(res.RowCount))
	metrics.RowErrors.Add(float64(len(res.RowErrors)))
	metrics.IngestDuration.Observe(time.Since(start).Seconds())

	log.Info("ingest: workbook complete",
		zap.Int("rows", res.RowCount),
		zap.Int("new_players", res.NewPlayers),
		zap.Int("name_changes", res.NameChanges),
		zap.Int("alliance_changes", res.AllianceChanges),
		zap.Int("row_errors", len(res.RowErrors)),
	)

	// The sweep is advisory. The upload is already complete; a sweep
	// failure should not fail it retroactively.
	if in.sweeper != nil {
		departed, sweepErr := in.sweeper.Sweep(ctx, meta.Kingdom)
		if sweepErr != nil {
			log.Warn("ingest: departure sweep failed", zap.Error(sweepErr))
		} else {
			res.Departed = departed
		}
	}

	res.Upload = upload
	res.Kingdom = meta.Kingdom
	return res, nil
}

func (in *Ingestor) process(ctx context.Context, upload *model.Upload, meta *FileMeta, data []byte) (*Result, error) {
	rows, err := sheet.ReadBytes(data, sheet.Options{
		SheetIndex: in.cfg.SheetIndex,
		SkipRows:   1,
	})
	if err != nil {
		return nil, &BadWorkbookError{Err: err}
	}

	snap := &model.Snapshot{
		Kingdom:  meta.Kingdom,
		TakenAt:  meta.TakenAt,
		Filename: upload.Filename,
	}
	if err := in.store.CreateSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	pool := in.store.Pool()
	prior, err := loadPriorState(ctx, pool, meta.Kingdom)
	if err != nil {
		return nil, err
	}

	res := &Result{SnapshotID: snap.ID}

	var (
		parsed    []*model.PlayerSnapshot
		seen      = make(map[string]bool)
		rowErrors []model.RowError
	)
	for i, row := range rows {
		if emptyRow(row) {
			continue
		}
		ps := rowToPlayerSnapshot(row)
		if ps.LordID == "" {
			rowErrors = append(rowErrors, model.RowError{
				Error: fmt.Sprintf("row %d: missing lord id", i+2),
			})
			continue
		}
		if seen[ps.LordID] {
			rowErrors = append(rowErrors, model.RowError{
				LordID: ps.LordID,
				Error:  fmt.Sprintf("row %d: duplicate lord id", i+2),
			})
			continue
		}
		seen[ps.LordID] = true
		ps.SnapshotID = snap.ID
		parsed = append(parsed, ps)
	}

	batchSize := in.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	for start := 0; start < len(parsed); start += batchSize {
		end := start + batchSize
		if end > len(parsed) {
			end = len(parsed)
		}
		if err := in.writeBatch(ctx, parsed[start:end], prior, meta.TakenAt, res); err != nil {
			return nil, err
		}
	}

	res.RowCount = len(parsed)
	res.RowErrors = rowErrors
	return res, nil
}

// playerColumns is the upsert column order for tracker.players.
var playerColumns = []string{"lord_id", "name", "left_realm", "first_seen", "last_seen"}

// writeBatch persists one batch: a bulk upsert of player identities, change
// records for renames and alliance moves, then the stat vectors in a single
// COPY.
func (in *Ingestor) writeBatch(ctx context.Context, batch []*model.PlayerSnapshot, prior map[string]priorState, takenAt time.Time, res *Result) error {
	pool := in.store.Pool()

	playerRows := make([][]any, 0, len(batch))
	copyRows := make([][]any, 0, len(batch))
	for _, ps := range batch {
		playerRows = append(playerRows, []any{ps.LordID, ps.Name, false, takenAt, takenAt})
		copyRows = append(copyRows, snapshotValues(ps.SnapshotID, ps))
	}

	// Returning players get their name and last_seen refreshed and any
	// departure flag cleared; first_seen stays put.
	_, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
		Table:        "tracker.players",
		Columns:      playerColumns,
		ConflictKeys: []string{"lord_id"},
		UpdateCols:   []string{"name", "left_realm", "last_seen"},
	}, playerRows)
	if err != nil {
		return err
	}

	for _, ps := range batch {
		prev, ok := prior[ps.LordID]
		if !ok {
			res.NewPlayers++
			continue
		}
		if prev.Name != ps.Name {
			_, err := pool.Exec(ctx, `
				INSERT INTO tracker.name_changes (lord_id, old_name, new_name, detected_at)
				VALUES ($1, $2, $3, $4)`,
				ps.LordID, prev.Name, ps.Name, takenAt,
			)
			if err != nil {
				return eris.Wrapf(err, "ingest: record name change %s", ps.LordID)
			}
			res.NameChanges++
		}
		if prev.AllianceTag != ps.AllianceTag {
			_, err := pool.Exec(ctx, `
				INSERT INTO tracker.alliance_changes (lord_id, old_tag, new_tag, detected_at)
				VALUES ($1, $2, $3, $4)`,
				ps.LordID, prev.AllianceTag, ps.AllianceTag, takenAt,
			)
			if err != nil {
				return eris.Wrapf(err, "ingest: record alliance change %s", ps.LordID)
			}
			res.AllianceChanges++
		}
	}

	if _, err := db.CopyFromSchema(ctx, pool, "tracker", "player_snapshots", snapshotColumns, copyRows); err != nil {
		return err
	}
	return nil
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
