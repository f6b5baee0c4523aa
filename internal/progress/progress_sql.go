package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pot-code/course-gateway/internal/infrastructure/driver"
)

// ProgressSQL progress kept in a local database, MySQL or PostgreSQL
//
//	CREATE TABLE course_progress (
//	    user_id            VARCHAR(64) NOT NULL,
//	    course_id          VARCHAR(64) NOT NULL,
//	    technical_progress TEXT NOT NULL,
//	    mcq_progress       TEXT NOT NULL,
//	    current_section    VARCHAR(16) NOT NULL,
//	    current_index      INT NOT NULL,
//	    progress           INT NOT NULL,
//	    completed          BOOLEAN NOT NULL,
//	    PRIMARY KEY (user_id, course_id)
//	);
type ProgressSQL struct {
	Conn driver.ITransactionalDB `dep:""`
}

var _ ProgressRepository = &ProgressSQL{}

// NewProgressSQL .
func NewProgressSQL(conn driver.ITransactionalDB) *ProgressSQL {
	return &ProgressSQL{Conn: conn}
}

// FetchProgress .
func (ps *ProgressSQL) FetchProgress(ctx context.Context, userID, courseID string) (*Snapshot, error) {
	rows, err := ps.Conn.QueryContext(ctx, `
SELECT
    technical_progress, mcq_progress, current_section, current_index, progress, completed
FROM
    course_progress
WHERE
    user_id = $1 AND course_id = $2
	`, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}
	var (
		technical, quiz, section string
		s                        = new(Snapshot)
	)
	if err := rows.Scan(&technical, &quiz, &section, &s.CurrentIndex, &s.OverallPercent, &s.Completed); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(technical), &s.TechnicalDone); err != nil {
		return nil, fmt.Errorf("decode technical_progress: %w", err)
	}
	if err := json.Unmarshal([]byte(quiz), &s.QuizDone); err != nil {
		return nil, fmt.Errorf("decode mcq_progress: %w", err)
	}
	s.CurrentSection = Section(section)
	return s, nil
}

// SaveProgress upsert in a repeatable read transaction
func (ps *ProgressSQL) SaveProgress(ctx context.Context, userID, courseID string, snapshot *Snapshot) (err error) {
	technical, err := encodeFlags(snapshot.TechnicalDone)
	if err != nil {
		return err
	}
	quiz, err := encodeFlags(snapshot.QuizDone)
	if err != nil {
		return err
	}

	tx, err := ps.Conn.BeginTx(ctx, &driver.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	exists, err := ps.exists(ctx, tx, userID, courseID)
	if err != nil {
		return err
	}
	if exists {
		_, err = tx.ExecContext(ctx, `
UPDATE course_progress
SET
    technical_progress = $1, mcq_progress = $2, current_section = $3,
    current_index = $4, progress = $5, completed = $6
WHERE
    user_id = $7 AND course_id = $8
		`, technical, quiz, string(snapshot.CurrentSection), snapshot.CurrentIndex,
			snapshot.OverallPercent, snapshot.Completed, userID, courseID)
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO course_progress
    (user_id, course_id, technical_progress, mcq_progress, current_section, current_index, progress, completed)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8)
	`, userID, courseID, technical, quiz, string(snapshot.CurrentSection), snapshot.CurrentIndex,
		snapshot.OverallPercent, snapshot.Completed)
	return err
}

func (ps *ProgressSQL) exists(ctx context.Context, tx driver.ITransactionalDB, userID, courseID string) (bool, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT 1 FROM course_progress WHERE user_id = $1 AND course_id = $2
	`, userID, courseID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), nil
}

func encodeFlags(flags []bool) (string, error) {
	if flags == nil {
		flags = []bool{}
	}
	b, err := json.Marshal(flags)
	return string(b), err
}
