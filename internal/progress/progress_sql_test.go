package progress

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/pot-code/course-gateway/internal/infrastructure/driver"
)

type fakeRows struct {
	rows [][]interface{}
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.rows[r.pos-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int:
			*p = row[i].(int)
		case *bool:
			*p = row[i].(bool)
		default:
			return errors.New("unsupported scan type")
		}
	}
	return nil
}

func (r *fakeRows) Close() error { return nil }

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

// fakeDB keeps a single course_progress row
type fakeDB struct {
	row       []interface{}
	execs     []string
	committed bool
	rolled    bool
	execErr   error
}

func (db *fakeDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db.execs = append(db.execs, query)
	if db.execErr != nil {
		return nil, db.execErr
	}
	// technical, quiz, section, index, progress, completed
	if strings.Contains(query, "INSERT") {
		db.row = []interface{}{args[2], args[3], args[4], args[5], args[6], args[7]}
	} else {
		db.row = []interface{}{args[0], args[1], args[2], args[3], args[4], args[5]}
	}
	return fakeResult{}, nil
}

func (db *fakeDB) QueryContext(ctx context.Context, query string, args ...interface{}) (driver.ISQLRows, error) {
	if db.row == nil {
		return &fakeRows{}, nil
	}
	if strings.Contains(query, "SELECT 1") {
		return &fakeRows{rows: [][]interface{}{{1}}}, nil
	}
	return &fakeRows{rows: [][]interface{}{db.row}}, nil
}

func (db *fakeDB) BeginTx(ctx context.Context, opts *driver.TxOptions) (driver.ITransactionalDB, error) {
	if opts.Isolation != sql.LevelRepeatableRead {
		return nil, errors.New("unexpected isolation level")
	}
	return db, nil
}

func (db *fakeDB) Commit(ctx context.Context) error   { db.committed = true; return nil }
func (db *fakeDB) Rollback(ctx context.Context) error { db.rolled = true; return nil }
func (db *fakeDB) Close(ctx context.Context) error    { return nil }
func (db *fakeDB) Ping() error                        { return nil }

func TestSQLFetchAbsent(t *testing.T) {
	ps := NewProgressSQL(&fakeDB{})
	s, err := ps.FetchProgress(context.Background(), "u1", "c1")
	if err != nil || s != nil {
		t.Fatalf("expected absent, got %+v %v", s, err)
	}
}

func TestSQLInsertThenUpdate(t *testing.T) {
	db := &fakeDB{}
	ps := NewProgressSQL(db)
	ctx := context.Background()

	s := NewSnapshot(2, 1)
	s.TechnicalDone[0] = true
	s.Recompute()
	if err := ps.SaveProgress(ctx, "u1", "c1", s); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	if !db.committed || !strings.Contains(db.execs[0], "INSERT") {
		t.Fatalf("expected committed insert, got %v", db.execs)
	}

	s.CurrentIndex = 1
	if err := ps.SaveProgress(ctx, "u1", "c1", s); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	if !strings.Contains(db.execs[1], "UPDATE") {
		t.Fatalf("expected update, got %v", db.execs)
	}

	out, err := ps.FetchProgress(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("FetchProgress: %v", err)
	}
	if out.CurrentIndex != 1 || out.OverallPercent != 33 || !out.TechnicalDone[0] || len(out.QuizDone) != 1 {
		t.Fatalf("unexpected snapshot %+v", out)
	}
}

func TestSQLSaveRollsBackOnError(t *testing.T) {
	db := &fakeDB{execErr: errors.New("deadlock")}
	ps := NewProgressSQL(db)
	if err := ps.SaveProgress(context.Background(), "u1", "c1", NewSnapshot(1, 1)); err == nil {
		t.Fatal("expected error")
	}
	if !db.rolled || db.committed {
		t.Fatal("transaction should be rolled back")
	}
}
