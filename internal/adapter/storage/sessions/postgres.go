package sessionstorage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage/pgutil"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"time"
)

type PostgresStorage struct {
	db   storage.DBContext
	seen *tracker
}

func NewPostgresStorage(db storage.DBContext) *PostgresStorage {
	return &PostgresStorage{
		db:   db,
		seen: newTracker(),
	}
}

func (s *PostgresStorage) Add(ctx context.Context, sess *funnel.Session) error {
	row, err := toRow(sess)
	if err != nil {
		return err
	}

	q := sqlf.InsertInto("funnel_sessions").
		Set("session_id", row.SessionID).
		Set("stage", row.Stage).
		Set("step", row.Step).
		Set("answers", row.Answers).
		Set("plan", row.Plan).
		Set("browser", row.Browser).
		Set("os", row.OS).
		Set("device", row.Device).
		Set("ip_address", row.IPAddress).
		Set("created_at", row.CreatedAt).
		Set("updated_at", row.UpdatedAt).
		Set("expires_at", row.ExpiresAt)

	if _, err := q.ExecAndClose(ctx, s.db); err != nil {
		if pgutil.ViolatesConstraint(err, "funnel_sessions_pkey") {
			return funnel.ErrSessionExists
		}
		return storage.InternalError(err)
	}

	s.seen.mark(sess)
	return nil
}

func (s *PostgresStorage) get(ctx context.Context, sessionID string) (map[string]sessionRow, error) {
	var tmp sessionRow

	q := sqlf.From("funnel_sessions s").
		Select("s.session_id").To(&tmp.SessionID).
		Select("s.stage").To(&tmp.Stage).
		Select("s.step").To(&tmp.Step).
		Select("s.answers::text").To(&tmp.Answers).
		Select("s.plan").To(&tmp.Plan).
		Select("s.browser").To(&tmp.Browser).
		Select("s.os").To(&tmp.OS).
		Select("s.device").To(&tmp.Device).
		Select("s.ip_address").To(&tmp.IPAddress).
		Select("s.created_at").To(&tmp.CreatedAt).
		Select("s.updated_at").To(&tmp.UpdatedAt).
		Select("s.expires_at").To(&tmp.ExpiresAt).
		Where("s.session_id = ?", sessionID)

	result := make(map[string]sessionRow)

	err := q.QueryAndClose(ctx, s.db, func(rows *sql.Rows) {
		result[tmp.SessionID] = tmp
	})

	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return result, nil
	}
	return nil, storage.InternalError(err)
}

func (s *PostgresStorage) GetByID(ctx context.Context, sessionID string) (*funnel.Session, error) {
	result, err := s.get(ctx, sessionID)
	row, err := pgutil.PeekOrErr(result, err, funnel.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}

	sess, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	s.seen.mark(sess)
	return sess, nil
}

// Persist writes only the columns that differ from the stored row.
func (s *PostgresStorage) Persist(ctx context.Context, sess *funnel.Session) error {
	result, err := s.get(ctx, sess.SessionID)
	stored, err := pgutil.PeekOrErr(result, err, funnel.ErrSessionNotFound)
	if err != nil {
		return err
	}

	changed, err := toRow(sess)
	if err != nil {
		return err
	}

	changes, err := diff.Diff(stored, changed)
	if err != nil {
		return storage.InternalError(err)
	}

	if len(changes) != 0 {
		q, err := pgutil.MakeUpdateQuery(sqlf.Update("funnel_sessions").Where("session_id = ?", sess.SessionID), changes)
		if err != nil {
			return storage.InternalError(err)
		}
		res, err := q.ExecAndClose(ctx, s.db)
		if err := pgutil.AssertUpdated(res, err, funnel.ErrSessionNotFound); err != nil {
			return err
		}
	}

	s.seen.mark(sess)
	return nil
}

func (s *PostgresStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	q := sqlf.DeleteFrom("funnel_sessions").Where("expires_at <= ?", now)
	res, err := q.ExecAndClose(ctx, s.db)
	if err != nil {
		return 0, storage.InternalError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storage.InternalError(err)
	}
	return n, nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.seen.collect()
}

func (s *PostgresStorage) Close() error {
	s.seen.clear()
	return nil
}

// sessionRow mirrors the funnel_sessions table. Diff tags are column names of
// the mutable columns.
type sessionRow struct {
	SessionID string    `diff:"-"`
	Stage     string    `diff:"stage"`
	Step      int       `diff:"step"`
	Answers   string    `diff:"answers"`
	Plan      string    `diff:"plan"`
	Browser   string    `diff:"-"`
	OS        string    `diff:"-"`
	Device    string    `diff:"-"`
	IPAddress string    `diff:"-"`
	CreatedAt time.Time `diff:"-"`
	UpdatedAt time.Time `diff:"updated_at"`
	ExpiresAt time.Time `diff:"expires_at"`
}

func toRow(sess *funnel.Session) (sessionRow, error) {
	r := toRecord(sess)
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return sessionRow{}, storage.InternalError(err)
	}
	return sessionRow{
		SessionID: r.SessionID,
		Stage:     r.Stage,
		Step:      r.Step,
		Answers:   string(answers),
		Plan:      r.Plan,
		Browser:   r.Browser,
		OS:        r.OS,
		Device:    r.Device,
		IPAddress: r.IPAddress,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ExpiresAt: r.ExpiresAt,
	}, nil
}

func (row sessionRow) toDomain() (*funnel.Session, error) {
	var answers map[string]string
	if err := json.Unmarshal([]byte(row.Answers), &answers); err != nil {
		return nil, storage.InternalError(err)
	}
	return record{
		SessionID: row.SessionID,
		Stage:     row.Stage,
		Step:      row.Step,
		Answers:   answers,
		Plan:      row.Plan,
		Browser:   row.Browser,
		OS:        row.OS,
		Device:    row.Device,
		IPAddress: row.IPAddress,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		ExpiresAt: row.ExpiresAt,
	}.toDomain(), nil
}
