package entity

import (
	"time"

	userentity "github.com/ovaphlow/pitchfork/service-blog-go/internal/user/entity"
)

// Comment is a row in the `comments` table joined with its author.
type Comment struct {
	ID        string            `db:"id" json:"id"`
	Content   string            `db:"content" json:"content"`
	PostID    string            `db:"post_id" json:"postId"`
	AuthorID  string            `db:"author_id" json:"authorId"`
	Author    userentity.Author `db:"author" json:"author"`
	CreatedAt time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time         `db:"updated_at" json:"updatedAt"`
}

func (c *Comment) OwnerID() string { return c.AuthorID }
