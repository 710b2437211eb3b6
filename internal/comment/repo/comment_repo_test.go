package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/entity"
)

func newMock(t *testing.T) (*CommentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewCommentRepo(sqlx.NewDb(db, "postgres")), mock
}

var commentCols = []string{"id", "content", "post_id", "author_id", "created_at", "updated_at", "author.id", "author.name"}

func TestListByPost(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`WHERE c.post_id=\$1 ORDER BY c.updated_at DESC`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(commentCols).AddRow("c1", "hi", "p1", "u1", now, now, "u1", "A"))

	list, err := r.ListByPost(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].Author.Name)
	assert.Empty(t, list[0].Author.Email)
}

func TestCreate_UnknownPost(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO comments`).WillReturnError(&pgconn.PgError{Code: "23503"})

	err := r.Create(context.Background(), &entity.Comment{ID: "c1", PostID: "gone", AuthorID: "u1"})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestWithTx_CreateChecksPostUnderLock(t *testing.T) {
	r, mock := newMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM posts WHERE id=\$1 FOR SHARE`).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO comments`).WithArgs("c1", "hi", "p1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	err := r.WithTx(context.Background(), func(tx Repository) error {
		ok, err := tx.PostExists(context.Background(), "p1")
		if err != nil || !ok {
			return ErrPostNotFound
		}
		return tx.Create(context.Background(), &entity.Comment{ID: "c1", Content: "hi", PostID: "p1", AuthorID: "u1"})
	})
	require.NoError(t, err)
}

func TestPostExists_Missing(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`SELECT 1 FROM posts WHERE id=\$1$`).WithArgs("p9").WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	ok, err := r.PostExists(context.Background(), "p9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(`UPDATE comments SET content=\$2`).WithArgs("c1", "x").WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))
	mock.ExpectExec(`DELETE FROM comments WHERE id=\$1`).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.Update(context.Background(), &entity.Comment{ID: "c1", Content: "x"}), ErrNotFound)
	assert.ErrorIs(t, r.Delete(context.Background(), "c1"), ErrNotFound)
}
