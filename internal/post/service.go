package post

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/post/entity"
	postrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/post/repo"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/utilities"
)

var ErrPostNotFound = apperr.NotFound("Post not found")

// CreateInput is the body of POST /posts.
type CreateInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// UpdateInput is the body of PUT /posts/{id}. Empty fields keep their value.
type UpdateInput struct {
	Title   string `json:"title" validate:"omitempty,max=200"`
	Content string `json:"content"`
}

// Service implements post reads and owner-only mutations.
type Service struct {
	repo   postrepo.Repository
	logger *zap.SugaredLogger
}

func NewService(r postrepo.Repository, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, logger: logger}
}

func (s *Service) ListPublished(ctx context.Context) ([]entity.Post, error) {
	posts, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, apperr.Internal("Error fetching posts", err)
	}
	return posts, nil
}

func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]entity.Post, error) {
	posts, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, apperr.Internal("Error fetching user posts", err)
	}
	return posts, nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Post, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, postrepo.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Error fetching post", err)
	}
	return p, nil
}

// Create publishes a new post authored by actingID.
func (s *Service) Create(ctx context.Context, actingID string, in CreateInput) (*entity.Post, error) {
	if actingID == "" {
		return nil, auth.ErrUnauthenticated
	}
	if err := utilities.Validate(in); err != nil {
		return nil, err
	}
	var created *entity.Post
	err := s.repo.WithTx(ctx, func(r postrepo.Repository) error {
		p := &entity.Post{
			ID:        utilities.NewSnowflakeID(),
			Title:     in.Title,
			Content:   in.Content,
			Published: true,
			AuthorID:  actingID,
		}
		if err := r.Create(ctx, p); err != nil {
			return err
		}
		var err error
		created, err = r.GetByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, apperr.Internal("Error creating post", err)
	}
	return created, nil
}

// Update applies in to the post if actingID owns it. The row is locked for
// the duration of the check and the write.
func (s *Service) Update(ctx context.Context, actingID, id string, in UpdateInput) (*entity.Post, error) {
	var updated *entity.Post
	err := s.repo.WithTx(ctx, func(r postrepo.Repository) error {
		p, err := s.loadOwned(ctx, r, actingID, id)
		if err != nil {
			return err
		}
		if err := utilities.Validate(in); err != nil {
			return err
		}
		if in.Title != "" {
			p.Title = in.Title
		}
		if in.Content != "" {
			p.Content = in.Content
		}
		if err := r.Update(ctx, p); err != nil {
			return err
		}
		updated, err = r.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.mutationError(err, "Error updating post")
	}
	return updated, nil
}

// Delete removes the post and its comments if actingID owns it.
func (s *Service) Delete(ctx context.Context, actingID, id string) error {
	err := s.repo.WithTx(ctx, func(r postrepo.Repository) error {
		if _, err := s.loadOwned(ctx, r, actingID, id); err != nil {
			return err
		}
		return r.Delete(ctx, id)
	})
	if err != nil {
		return s.mutationError(err, "Error deleting post")
	}
	s.logger.Infow("post deleted", "post_id", id, "user_id", actingID)
	return nil
}

// loadOwned reads the post fresh and checks ownership. A missing post is
// reported before ownership is considered.
func (s *Service) loadOwned(ctx context.Context, r postrepo.Repository, actingID, id string) (*entity.Post, error) {
	p, err := r.GetForUpdate(ctx, id)
	if errors.Is(err, postrepo.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actingID, p); err != nil {
		s.logger.Debugw("post mutation denied", "post_id", id, "user_id", actingID)
		return nil, err
	}
	return p, nil
}

func (s *Service) mutationError(err error, msg string) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, postrepo.ErrNotFound) {
		return ErrPostNotFound
	}
	return apperr.Internal(msg, err)
}
