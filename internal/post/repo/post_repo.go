package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	commententity "github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/entity"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/post/entity"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/database"
)

var ErrNotFound = errors.New("post not found")

// Repository is the post store. Read methods return posts with author and
// comments attached.
type Repository interface {
	ListPublished(ctx context.Context) ([]entity.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]entity.Post, error)
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	// GetForUpdate returns the bare row, locked when called inside WithTx.
	GetForUpdate(ctx context.Context, id string) (*entity.Post, error)
	Create(ctx context.Context, p *entity.Post) error
	Update(ctx context.Context, p *entity.Post) error
	// Delete removes the post and all of its comments atomically.
	Delete(ctx context.Context, id string) error
	WithTx(ctx context.Context, fn func(Repository) error) error
}

// PostRepo provides data access for the posts table using sqlx.
type PostRepo struct {
	db   sqlx.ExtContext
	root *sqlx.DB
	inTx bool
}

var _ Repository = (*PostRepo)(nil)

func NewPostRepo(db *sqlx.DB) *PostRepo { return &PostRepo{db: db, root: db} }

const selectWithAuthor = `SELECT p.id, p.title, p.content, p.published, p.author_id, p.created_at, p.updated_at,
	u.id AS "author.id", u.name AS "author.name", u.email AS "author.email"
	FROM posts p JOIN users u ON u.id = p.author_id`

const selectCommentsIn = `SELECT c.id, c.content, c.post_id, c.author_id, c.created_at, c.updated_at,
	u.id AS "author.id", u.name AS "author.name"
	FROM comments c JOIN users u ON u.id = c.author_id
	WHERE c.post_id IN (?) ORDER BY c.created_at`

// ListPublished returns published posts, newest first.
func (r *PostRepo) ListPublished(ctx context.Context) ([]entity.Post, error) {
	return r.list(ctx, selectWithAuthor+` WHERE p.published ORDER BY p.created_at DESC`)
}

// ListByAuthor returns every post of authorID, published or not, newest first.
func (r *PostRepo) ListByAuthor(ctx context.Context, authorID string) ([]entity.Post, error) {
	return r.list(ctx, selectWithAuthor+` WHERE p.author_id=$1 ORDER BY p.created_at DESC`, authorID)
}

func (r *PostRepo) list(ctx context.Context, q string, args ...any) ([]entity.Post, error) {
	posts := []entity.Post{}
	if err := sqlx.SelectContext(ctx, r.db, &posts, q, args...); err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	if err := r.attachComments(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepo) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	var p entity.Post
	if err := sqlx.GetContext(ctx, r.db, &p, selectWithAuthor+` WHERE p.id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select post: %w", err)
	}
	posts := []entity.Post{p}
	if err := r.attachComments(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// attachComments loads the comments of all posts with one query.
func (r *PostRepo) attachComments(ctx context.Context, posts []entity.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	idx := make(map[string]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		idx[posts[i].ID] = i
		posts[i].Comments = []commententity.Comment{}
	}
	q, args, err := sqlx.In(selectCommentsIn, ids)
	if err != nil {
		return fmt.Errorf("build comments query: %w", err)
	}
	var comments []commententity.Comment
	if err := sqlx.SelectContext(ctx, r.db, &comments, r.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("select comments: %w", err)
	}
	for _, c := range comments {
		if i, ok := idx[c.PostID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
	return nil
}

func (r *PostRepo) GetForUpdate(ctx context.Context, id string) (*entity.Post, error) {
	q := `SELECT id, title, content, published, author_id, created_at, updated_at FROM posts WHERE id=$1`
	if r.inTx {
		q += ` FOR UPDATE`
	}
	var p entity.Post
	if err := sqlx.GetContext(ctx, r.db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select post: %w", err)
	}
	return &p, nil
}

func (r *PostRepo) Create(ctx context.Context, p *entity.Post) error {
	const q = `INSERT INTO posts (id, title, content, published, author_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q, p.ID, p.Title, p.Content, p.Published, p.AuthorID).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// Update writes title, content and published and bumps updated_at.
func (r *PostRepo) Update(ctx context.Context, p *entity.Post) error {
	const q = `UPDATE posts SET title=$2, content=$3, published=$4, updated_at=NOW()
		WHERE id=$1 RETURNING updated_at`
	if err := r.db.QueryRowxContext(ctx, q, p.ID, p.Title, p.Content, p.Published).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, id string) error {
	if !r.inTx {
		return r.WithTx(ctx, func(tx Repository) error { return tx.Delete(ctx, id) })
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE post_id=$1`, id); err != nil {
		return fmt.Errorf("delete post comments: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostRepo) WithTx(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return database.WithTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&PostRepo{db: tx, root: r.root, inTx: true})
	})
}
