package entity

import (
	"time"

	commententity "github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/entity"
	userentity "github.com/ovaphlow/pitchfork/service-blog-go/internal/user/entity"
)

// Post is a row in the `posts` table with its author and comments attached.
type Post struct {
	ID        string                  `db:"id" json:"id"`
	Title     string                  `db:"title" json:"title"`
	Content   string                  `db:"content" json:"content"`
	Published bool                    `db:"published" json:"published"`
	AuthorID  string                  `db:"author_id" json:"authorId"`
	Author    userentity.Author       `db:"author" json:"author"`
	Comments  []commententity.Comment `db:"-" json:"comments"`
	CreatedAt time.Time               `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time               `db:"updated_at" json:"updatedAt"`
}

func (p *Post) OwnerID() string { return p.AuthorID }
