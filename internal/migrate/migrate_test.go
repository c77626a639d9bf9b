package migrate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/slot-booker/internal/db"
)

type boolRow struct{ v bool }

func (r boolRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.v
	return nil
}

type fakeStore struct {
	applied map[string]bool
	execs   []string
	failOn  string
}

func (f *fakeStore) Exec(_ context.Context, sql string, args ...any) error {
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return errors.New("syntax error")
	}
	f.execs = append(f.execs, sql)
	if strings.HasPrefix(sql, "INSERT INTO schema_migrations") {
		f.applied[args[0].(string)] = true
	}
	return nil
}

func (f *fakeStore) QueryRow(_ context.Context, _ string, args ...any) db.Row {
	return boolRow{v: f.applied[args[0].(string)]}
}

func TestFilesSorted(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	require.Equal(t, []string{"001_runs.sql", "002_run_event_fields.sql"}, files)
}

func TestUpAppliesOnce(t *testing.T) {
	s := &fakeStore{applied: map[string]bool{}}
	require.NoError(t, Up(context.Background(), s))
	require.True(t, s.applied["001_runs.sql"])
	require.True(t, s.applied["002_run_event_fields.sql"])
	first := len(s.execs)
	// bootstrap, then apply and record per file
	require.Equal(t, 5, first)

	require.NoError(t, Up(context.Background(), s))
	// only the schema_migrations bootstrap runs again
	require.Equal(t, first+1, len(s.execs))
}

func TestUpReportsFailingFile(t *testing.T) {
	s := &fakeStore{applied: map[string]bool{}, failOn: "CREATE TABLE IF NOT EXISTS runs"}
	err := Up(context.Background(), s)
	require.ErrorContains(t, err, "apply 001_runs.sql")
	require.False(t, s.applied["001_runs.sql"])
}
