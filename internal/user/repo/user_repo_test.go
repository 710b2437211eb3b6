package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/user/entity"
)

func newMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

var userCols = []string{"id", "email", "name", "password_hash", "created_at", "updated_at"}

func TestGetByEmail(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email=\$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "a@x.com", "A", "hash", now, now))

	u, err := r.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestGetByID_NotFound(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id=\$1$`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := r.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByID_DriverError(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`FROM users WHERE id=\$1`).WillReturnError(errors.New("conn reset"))

	_, err := r.GetByID(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCreate(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("u1", "a@x.com", "A", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &entity.User{ID: "u1", Email: "a@x.com", Name: "A", PasswordHash: "hash"}
	require.NoError(t, r.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	err := r.Create(context.Background(), &entity.User{ID: "u2", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestWithTx_LocksAndCommits(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id=\$1 FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "a@x.com", "A", "hash", now, now))
	mock.ExpectQuery(`UPDATE users SET name=\$2, password_hash=\$3`).
		WithArgs("u1", "B", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectCommit()

	err := r.WithTx(context.Background(), func(tx Repository) error {
		u, err := tx.GetByID(context.Background(), "u1")
		if err != nil {
			return err
		}
		u.Name = "B"
		return tx.Update(context.Background(), u)
	})
	require.NoError(t, err)
}

func TestWithTx_RollsBack(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	err := r.WithTx(context.Background(), func(tx Repository) error {
		_, err := tx.GetByID(context.Background(), "ghost")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
