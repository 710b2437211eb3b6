// Package memory is an in-process implementation of the user, post and
// comment repositories. All three views share one mutex; WithTx holds it for
// the whole callback and restores a snapshot when the callback fails.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	commententity "github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/entity"
	commentrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/repo"
	postentity "github.com/ovaphlow/pitchfork/service-blog-go/internal/post/entity"
	postrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/post/repo"
	userentity "github.com/ovaphlow/pitchfork/service-blog-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/user/repo"
)

type Store struct {
	mu       sync.Mutex
	last     time.Time
	users    map[string]userentity.User
	emails   map[string]string
	posts    map[string]postentity.Post
	comments map[string]commententity.Comment
}

func New() *Store {
	return &Store{
		users:    map[string]userentity.User{},
		emails:   map[string]string{},
		posts:    map[string]postentity.Post{},
		comments: map[string]commententity.Comment{},
	}
}

func (s *Store) Users() userrepo.Repository       { return &users{s: s} }
func (s *Store) Posts() postrepo.Repository       { return &posts{s: s} }
func (s *Store) Comments() commentrepo.Repository { return &comments{s: s} }

// now is strictly increasing so orderings by timestamp are deterministic.
// Callers hold mu.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	users    map[string]userentity.User
	emails   map[string]string
	posts    map[string]postentity.Post
	comments map[string]commententity.Comment
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:    maps.Clone(s.users),
		emails:   maps.Clone(s.emails),
		posts:    maps.Clone(s.posts),
		comments: maps.Clone(s.comments),
	}
}

func (s *Store) restore(snap snapshot) {
	s.users, s.emails, s.posts, s.comments = snap.users, snap.emails, snap.posts, snap.comments
}

// tx runs fn under the store lock, rolling back on error or panic.
func (s *Store) tx(ctx context.Context, inTx bool, fn func() error) (err error) {
	if inTx {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()
	return fn()
}

func (s *Store) author(id string, withEmail bool) userentity.Author {
	u, ok := s.users[id]
	if !ok {
		return userentity.Author{ID: id}
	}
	a := u.AsAuthor()
	if !withEmail {
		a.Email = ""
	}
	return a
}

// users

type users struct {
	s    *Store
	inTx bool
}

func (v *users) GetByEmail(_ context.Context, email string) (*userentity.User, error) {
	defer v.s.lock(v.inTx)()
	id, ok := v.s.emails[email]
	if !ok {
		return nil, userrepo.ErrNotFound
	}
	u := v.s.users[id]
	return &u, nil
}

func (v *users) GetByID(_ context.Context, id string) (*userentity.User, error) {
	defer v.s.lock(v.inTx)()
	u, ok := v.s.users[id]
	if !ok {
		return nil, userrepo.ErrNotFound
	}
	return &u, nil
}

func (v *users) Create(_ context.Context, u *userentity.User) error {
	defer v.s.lock(v.inTx)()
	if _, ok := v.s.emails[u.Email]; ok {
		return userrepo.ErrEmailTaken
	}
	u.CreatedAt = v.s.now()
	u.UpdatedAt = u.CreatedAt
	v.s.users[u.ID] = *u
	v.s.emails[u.Email] = u.ID
	return nil
}

func (v *users) Update(_ context.Context, u *userentity.User) error {
	defer v.s.lock(v.inTx)()
	cur, ok := v.s.users[u.ID]
	if !ok {
		return userrepo.ErrNotFound
	}
	cur.Name = u.Name
	cur.PasswordHash = u.PasswordHash
	cur.UpdatedAt = v.s.now()
	v.s.users[u.ID] = cur
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

func (v *users) WithTx(ctx context.Context, fn func(userrepo.Repository) error) error {
	return v.s.tx(ctx, v.inTx, func() error { return fn(&users{s: v.s, inTx: true}) })
}

// posts

type posts struct {
	s    *Store
	inTx bool
}

func (v *posts) ListPublished(_ context.Context) ([]postentity.Post, error) {
	defer v.s.lock(v.inTx)()
	return v.list(func(p postentity.Post) bool { return p.Published }), nil
}

func (v *posts) ListByAuthor(_ context.Context, authorID string) ([]postentity.Post, error) {
	defer v.s.lock(v.inTx)()
	return v.list(func(p postentity.Post) bool { return p.AuthorID == authorID }), nil
}

func (v *posts) list(keep func(postentity.Post) bool) []postentity.Post {
	out := []postentity.Post{}
	for _, p := range v.s.posts {
		if keep(p) {
			out = append(out, v.view(p))
		}
	}
	slices.SortFunc(out, func(a, b postentity.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// view attaches the author and the comments, oldest first.
func (v *posts) view(p postentity.Post) postentity.Post {
	p.Author = v.s.author(p.AuthorID, true)
	p.Comments = []commententity.Comment{}
	for _, c := range v.s.comments {
		if c.PostID == p.ID {
			c.Author = v.s.author(c.AuthorID, false)
			p.Comments = append(p.Comments, c)
		}
	}
	slices.SortFunc(p.Comments, func(a, b commententity.Comment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return p
}

func (v *posts) GetByID(_ context.Context, id string) (*postentity.Post, error) {
	defer v.s.lock(v.inTx)()
	p, ok := v.s.posts[id]
	if !ok {
		return nil, postrepo.ErrNotFound
	}
	p = v.view(p)
	return &p, nil
}

func (v *posts) GetForUpdate(_ context.Context, id string) (*postentity.Post, error) {
	defer v.s.lock(v.inTx)()
	p, ok := v.s.posts[id]
	if !ok {
		return nil, postrepo.ErrNotFound
	}
	return &p, nil
}

func (v *posts) Create(_ context.Context, p *postentity.Post) error {
	defer v.s.lock(v.inTx)()
	p.CreatedAt = v.s.now()
	p.UpdatedAt = p.CreatedAt
	row := *p
	row.Author, row.Comments = userentity.Author{}, nil
	v.s.posts[p.ID] = row
	return nil
}

func (v *posts) Update(_ context.Context, p *postentity.Post) error {
	defer v.s.lock(v.inTx)()
	cur, ok := v.s.posts[p.ID]
	if !ok {
		return postrepo.ErrNotFound
	}
	cur.Title, cur.Content, cur.Published = p.Title, p.Content, p.Published
	cur.UpdatedAt = v.s.now()
	v.s.posts[p.ID] = cur
	p.UpdatedAt = cur.UpdatedAt
	return nil
}

func (v *posts) Delete(ctx context.Context, id string) error {
	return v.s.tx(ctx, v.inTx, func() error {
		if _, ok := v.s.posts[id]; !ok {
			return postrepo.ErrNotFound
		}
		for cid, c := range v.s.comments {
			if c.PostID == id {
				delete(v.s.comments, cid)
			}
		}
		delete(v.s.posts, id)
		return nil
	})
}

func (v *posts) WithTx(ctx context.Context, fn func(postrepo.Repository) error) error {
	return v.s.tx(ctx, v.inTx, func() error { return fn(&posts{s: v.s, inTx: true}) })
}

// comments

type comments struct {
	s    *Store
	inTx bool
}

// ListByPost returns comments most recently updated first.
func (v *comments) ListByPost(_ context.Context, postID string) ([]commententity.Comment, error) {
	defer v.s.lock(v.inTx)()
	out := []commententity.Comment{}
	for _, c := range v.s.comments {
		if c.PostID == postID {
			c.Author = v.s.author(c.AuthorID, false)
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b commententity.Comment) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (v *comments) GetByID(_ context.Context, id string) (*commententity.Comment, error) {
	defer v.s.lock(v.inTx)()
	c, ok := v.s.comments[id]
	if !ok {
		return nil, commentrepo.ErrNotFound
	}
	c.Author = v.s.author(c.AuthorID, false)
	return &c, nil
}

func (v *comments) GetForUpdate(_ context.Context, id string) (*commententity.Comment, error) {
	defer v.s.lock(v.inTx)()
	c, ok := v.s.comments[id]
	if !ok {
		return nil, commentrepo.ErrNotFound
	}
	return &c, nil
}

func (v *comments) PostExists(_ context.Context, postID string) (bool, error) {
	defer v.s.lock(v.inTx)()
	_, ok := v.s.posts[postID]
	return ok, nil
}

func (v *comments) Create(_ context.Context, c *commententity.Comment) error {
	defer v.s.lock(v.inTx)()
	if _, ok := v.s.posts[c.PostID]; !ok {
		return commentrepo.ErrPostNotFound
	}
	c.CreatedAt = v.s.now()
	c.UpdatedAt = c.CreatedAt
	row := *c
	row.Author = userentity.Author{}
	v.s.comments[c.ID] = row
	return nil
}

func (v *comments) Update(_ context.Context, c *commententity.Comment) error {
	defer v.s.lock(v.inTx)()
	cur, ok := v.s.comments[c.ID]
	if !ok {
		return commentrepo.ErrNotFound
	}
	cur.Content = c.Content
	cur.UpdatedAt = v.s.now()
	v.s.comments[c.ID] = cur
	c.UpdatedAt = cur.UpdatedAt
	return nil
}

func (v *comments) Delete(_ context.Context, id string) error {
	defer v.s.lock(v.inTx)()
	if _, ok := v.s.comments[id]; !ok {
		return commentrepo.ErrNotFound
	}
	delete(v.s.comments, id)
	return nil
}

func (v *comments) WithTx(ctx context.Context, fn func(commentrepo.Repository) error) error {
	return v.s.tx(ctx, v.inTx, func() error { return fn(&comments{s: v.s, inTx: true}) })
}
