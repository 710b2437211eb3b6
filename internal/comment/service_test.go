package comment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	postentity "github.com/ovaphlow/pitchfork/service-blog-go/internal/post/entity"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/storage/memory"
	userentity "github.com/ovaphlow/pitchfork/service-blog-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/apperr"
)

func setup(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	for _, id := range []string{"alice", "bob"} {
		require.NoError(t, store.Users().Create(ctx, &userentity.User{ID: id, Email: id + "@x.com", Name: id}))
	}
	require.NoError(t, store.Posts().Create(ctx, &postentity.Post{ID: "p1", Title: "t", Content: "c", Published: true, AuthorID: "alice"}))
	return NewService(store.Comments(), nil)
}

func TestCreate(t *testing.T) {
	s := setup(t)
	c, err := s.Create(context.Background(), "bob", CreateInput{PostID: "p1", Content: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "bob", c.AuthorID)
	assert.Equal(t, userentity.Author{ID: "bob", Name: "bob"}, c.Author)

	_, err = s.Create(context.Background(), "bob", CreateInput{PostID: "nope", Content: "nice"})
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Equal(t, 404, apperr.StatusOf(err))

	_, err = s.Create(context.Background(), "bob", CreateInput{PostID: "p1"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdate_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	c, err := s.Create(ctx, "bob", CreateInput{PostID: "p1", Content: "first"})
	require.NoError(t, err)

	// the post author does not own comments on it
	_, err = s.Update(ctx, "alice", c.ID, UpdateInput{Content: "edited"})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	updated, err := s.Update(ctx, "bob", c.ID, UpdateInput{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt))

	_, err = s.Update(ctx, "alice", "missing", UpdateInput{Content: "x"})
	assert.ErrorIs(t, err, ErrCommentNotFound)

	// lookup and ownership are decided before the body is validated
	_, err = s.Update(ctx, "alice", "missing", UpdateInput{})
	assert.ErrorIs(t, err, ErrCommentNotFound)
	_, err = s.Update(ctx, "alice", c.ID, UpdateInput{})
	assert.ErrorIs(t, err, auth.ErrForbidden)
	_, err = s.Update(ctx, "bob", c.ID, UpdateInput{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	c, err := s.Create(ctx, "bob", CreateInput{PostID: "p1", Content: "bye"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "alice", c.ID), auth.ErrForbidden)
	require.NoError(t, s.Delete(ctx, "bob", c.ID))
	assert.ErrorIs(t, s.Delete(ctx, "bob", c.ID), ErrCommentNotFound)
}

func TestListByPost_RecentlyUpdatedFirst(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	a, err := s.Create(ctx, "bob", CreateInput{PostID: "p1", Content: "a"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "alice", CreateInput{PostID: "p1", Content: "b"})
	require.NoError(t, err)
	_, err = s.Update(ctx, "bob", a.ID, UpdateInput{Content: "a2"})
	require.NoError(t, err)

	list, err := s.ListByPost(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].Content)

	none, err := s.ListByPost(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}
