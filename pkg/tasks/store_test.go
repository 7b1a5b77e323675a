package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "organization_id", "creator_id", "assigned_to", "title",
		"description", "status", "completed_at", "created_at", "updated_at",
	})
}

func TestPostgresStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(taskRows().AddRow(
			int64(7), int64(10), int64(3), int64(4), "rotate credentials",
			"", string(StatusOpen), nil, now, now))

	task, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, int64(10), task.OrganizationID)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, int64(4), *task.AssignedTo)
	assert.Nil(t, task.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(taskRows())

	task, err := store.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreComplete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`UPDATE tasks\s+SET status = \$1, completed_at = \$2, updated_at = NOW\(\)\s+WHERE id = \$3\s+RETURNING`).
		WithArgs(string(StatusCompleted), now, int64(7)).
		WillReturnRows(taskRows().AddRow(
			int64(7), int64(10), int64(3), nil, "rotate credentials",
			"", string(StatusCompleted), now, now, now))

	task, err := store.Complete(context.Background(), 7, now)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, StatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReassignToNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`UPDATE tasks\s+SET assigned_to = \$1, updated_at = NOW\(\)\s+WHERE id = \$2\s+RETURNING`).
		WithArgs(nil, int64(7)).
		WillReturnRows(taskRows().AddRow(
			int64(7), int64(10), int64(3), nil, "rotate credentials",
			"", string(StatusOpen), nil, now, now))

	task, err := store.Reassign(context.Background(), 7, nil)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Nil(t, task.AssignedTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := store.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
