package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/entity"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/database"
)

var (
	ErrNotFound     = errors.New("comment not found")
	ErrPostNotFound = errors.New("post not found")
)

// Repository is the comment store.
type Repository interface {
	ListByPost(ctx context.Context, postID string) ([]entity.Comment, error)
	// GetByID returns the comment with its author.
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	// GetForUpdate returns the bare row, locked when called inside WithTx.
	GetForUpdate(ctx context.Context, id string) (*entity.Comment, error)
	PostExists(ctx context.Context, postID string) (bool, error)
	Create(ctx context.Context, c *entity.Comment) error
	Update(ctx context.Context, c *entity.Comment) error
	Delete(ctx context.Context, id string) error
	WithTx(ctx context.Context, fn func(Repository) error) error
}

// CommentRepo provides data access for the comments table using sqlx.
type CommentRepo struct {
	db   sqlx.ExtContext
	root *sqlx.DB
	inTx bool
}

var _ Repository = (*CommentRepo)(nil)

func NewCommentRepo(db *sqlx.DB) *CommentRepo { return &CommentRepo{db: db, root: db} }

const selectWithAuthor = `SELECT c.id, c.content, c.post_id, c.author_id, c.created_at, c.updated_at,
	u.id AS "author.id", u.name AS "author.name"
	FROM comments c JOIN users u ON u.id = c.author_id`

// ListByPost returns the comments of a post, most recently updated first.
func (r *CommentRepo) ListByPost(ctx context.Context, postID string) ([]entity.Comment, error) {
	out := []entity.Comment{}
	q := selectWithAuthor + ` WHERE c.post_id=$1 ORDER BY c.updated_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &out, q, postID); err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	return out, nil
}

func (r *CommentRepo) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	var c entity.Comment
	if err := sqlx.GetContext(ctx, r.db, &c, selectWithAuthor+` WHERE c.id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Comment, error) {
	q := `SELECT id, content, post_id, author_id, created_at, updated_at FROM comments WHERE id=$1`
	if r.inTx {
		q += ` FOR UPDATE`
	}
	var c entity.Comment
	if err := sqlx.GetContext(ctx, r.db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select comment: %w", err)
	}
	return &c, nil
}

// PostExists reports whether the post exists. Inside WithTx the post row is
// share-locked so it cannot be deleted before the comment is written.
func (r *CommentRepo) PostExists(ctx context.Context, postID string) (bool, error) {
	q := `SELECT 1 FROM posts WHERE id=$1`
	if r.inTx {
		q += ` FOR SHARE`
	}
	var one int
	if err := sqlx.GetContext(ctx, r.db, &one, q, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select post: %w", err)
	}
	return true, nil
}

func (r *CommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	const q = `INSERT INTO comments (id, content, post_id, author_id)
		VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q, c.ID, c.Content, c.PostID, c.AuthorID).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrPostNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// Update writes the content and bumps updated_at.
func (r *CommentRepo) Update(ctx context.Context, c *entity.Comment) error {
	const q = `UPDATE comments SET content=$2, updated_at=NOW() WHERE id=$1 RETURNING updated_at`
	if err := r.db.QueryRowxContext(ctx, q, c.ID, c.Content).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CommentRepo) WithTx(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return database.WithTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&CommentRepo{db: tx, root: r.root, inTx: true})
	})
}
