package comment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/entity"
	commentrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/repo"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/utilities"
)

var (
	ErrCommentNotFound = apperr.NotFound("Comment not found")
	ErrPostNotFound    = apperr.NotFound("Post not found")
)

// CreateInput is the body of POST /comments.
type CreateInput struct {
	PostID  string `json:"postId" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// UpdateInput is the body of PUT /comments/{id}.
type UpdateInput struct {
	Content string `json:"content" validate:"required"`
}

// Service implements comment reads and owner-only mutations.
type Service struct {
	repo   commentrepo.Repository
	logger *zap.SugaredLogger
}

func NewService(r commentrepo.Repository, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, logger: logger}
}

// ListByPost returns the comments of a post. An unknown post yields an empty list.
func (s *Service) ListByPost(ctx context.Context, postID string) ([]entity.Comment, error) {
	comments, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, apperr.Internal("Error fetching comments", err)
	}
	return comments, nil
}

// Create adds a comment by actingID to an existing post.
func (s *Service) Create(ctx context.Context, actingID string, in CreateInput) (*entity.Comment, error) {
	if actingID == "" {
		return nil, auth.ErrUnauthenticated
	}
	if err := utilities.Validate(in); err != nil {
		return nil, err
	}
	var created *entity.Comment
	err := s.repo.WithTx(ctx, func(r commentrepo.Repository) error {
		ok, err := r.PostExists(ctx, in.PostID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPostNotFound
		}
		c := &entity.Comment{
			ID:       utilities.NewSnowflakeID(),
			Content:  in.Content,
			PostID:   in.PostID,
			AuthorID: actingID,
		}
		if err := r.Create(ctx, c); err != nil {
			return err
		}
		created, err = r.GetByID(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, s.mutationError(err, "Error creating comment")
	}
	return created, nil
}

// Update replaces the content if actingID owns the comment.
func (s *Service) Update(ctx context.Context, actingID, id string, in UpdateInput) (*entity.Comment, error) {
	var updated *entity.Comment
	err := s.repo.WithTx(ctx, func(r commentrepo.Repository) error {
		c, err := s.loadOwned(ctx, r, actingID, id)
		if err != nil {
			return err
		}
		if err := utilities.Validate(in); err != nil {
			return err
		}
		c.Content = in.Content
		if err := r.Update(ctx, c); err != nil {
			return err
		}
		updated, err = r.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.mutationError(err, "Error updating comment")
	}
	return updated, nil
}

// Delete removes the comment if actingID owns it.
func (s *Service) Delete(ctx context.Context, actingID, id string) error {
	err := s.repo.WithTx(ctx, func(r commentrepo.Repository) error {
		if _, err := s.loadOwned(ctx, r, actingID, id); err != nil {
			return err
		}
		return r.Delete(ctx, id)
	})
	if err != nil {
		return s.mutationError(err, "Error deleting comment")
	}
	return nil
}

func (s *Service) loadOwned(ctx context.Context, r commentrepo.Repository, actingID, id string) (*entity.Comment, error) {
	c, err := r.GetForUpdate(ctx, id)
	if errors.Is(err, commentrepo.ErrNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actingID, c); err != nil {
		s.logger.Debugw("comment mutation denied", "comment_id", id, "user_id", actingID)
		return nil, err
	}
	return c, nil
}

func (s *Service) mutationError(err error, msg string) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, commentrepo.ErrNotFound):
		return ErrCommentNotFound
	case errors.Is(err, commentrepo.ErrPostNotFound):
		return ErrPostNotFound
	}
	return apperr.Internal(msg, err)
}
