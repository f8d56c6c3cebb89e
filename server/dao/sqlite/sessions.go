package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dekarrin/backchain/server/dao"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

type SessionsDB struct {
	db *sql.DB
}

func NewSessionsDBConn(file string) (*SessionsDB, error) {
	repo := &SessionsDB{}

	var err error
	repo.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return repo, repo.init()
}

func (repo *SessionsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
		source TEXT NOT NULL,
		facts TEXT NOT NULL,
		created INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *SessionsDB) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()
	encFacts := encodeFacts(s.Facts)

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, source, facts, created) VALUES (?, ?, ?, ?, ?)`,
		newUUID.String(), s.UserID.String(), s.Source, encFacts, now.Unix(),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *SessionsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT user_id, source, facts, created FROM sessions WHERE id = ?;`,
		id.String(),
	)
	return scanSession(row, id)
}

func (repo *SessionsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, source, facts, created FROM sessions WHERE user_id = ?;`, userID.String())
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Session
	for rows.Next() {
		var idStr string
		var userIDStr string
		var source, encFacts string
		var created int64
		if err := rows.Scan(&idStr, &userIDStr, &source, &encFacts, &created); err != nil {
			return all, wrapDBError(err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid", idStr)
		}
		facts, err := decodeFacts(encFacts)
		if err != nil {
			return all, err
		}

		all = append(all, dao.Session{
			ID:      id,
			UserID:  userID,
			Source:  source,
			Facts:   facts,
			Created: time.Unix(created, 0),
		})
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *SessionsDB) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE sessions SET user_id=?, source=?, facts=? WHERE id=?;`,
		s.UserID.String(), s.Source, encodeFacts(s.Facts), id.String(),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Session{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, id)
}

func (repo *SessionsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *SessionsDB) Close() error {
	return repo.db.Close()
}

func scanSession(row rowScanner, id uuid.UUID) (dao.Session, error) {
	s := dao.Session{ID: id}

	var userID string
	var encFacts string
	var created int64

	err := row.Scan(&userID, &s.Source, &encFacts, &created)
	if err != nil {
		return s, wrapDBError(err)
	}

	s.UserID, err = uuid.Parse(userID)
	if err != nil {
		return s, fmt.Errorf("stored user ID %q is invalid: %w", userID, err)
	}
	s.Created = time.Unix(created, 0)

	s.Facts, err = decodeFacts(encFacts)
	if err != nil {
		return s, err
	}

	return s, nil
}

// encodeFacts rezi-encodes a session's fact table and base64-encodes the
// result for storage in a TEXT column.
func encodeFacts(facts map[rune]bool) string {
	if len(facts) == 0 {
		return ""
	}
	data := rezi.EncBinary(facts)
	return base64.StdEncoding.EncodeToString(data)
}

// decodeFacts reverses encodeFacts. If there is a problem with the decoding,
// the returned error wraps dao.ErrDecodingFailure.
func decodeFacts(s string) (map[rune]bool, error) {
	if s == "" {
		return make(map[rune]bool), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dao.ErrDecodingFailure, err)
	}

	facts := make(map[rune]bool)
	n, err := rezi.DecBinary(data, &facts)
	if err != nil {
		return nil, fmt.Errorf("%w: REZI decode: %w", dao.ErrDecodingFailure, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: REZI decoded byte count mismatch; only consumed %d/%d bytes", dao.ErrDecodingFailure, n, len(data))
	}

	return facts, nil
}
