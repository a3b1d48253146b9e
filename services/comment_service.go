package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jayeen28/techzu-backend/models"
	"github.com/jayeen28/techzu-backend/pipeline"
	"github.com/jayeen28/techzu-backend/realtime"
	"github.com/jayeen28/techzu-backend/repository"
	"github.com/jayeen28/techzu-backend/utils"
	"github.com/rs/zerolog/log"
)

// Publisher delivers realtime events. Delivery is best effort.
type Publisher interface {
	Publish(ev realtime.Event) bool
}

type noopPublisher struct{}

func (noopPublisher) Publish(realtime.Event) bool { return false }

type CommentService struct {
	comments *repository.CommentRepository
	events   Publisher
	validate *validator.Validate
}

func NewCommentService(comments *repository.CommentRepository, events Publisher) *CommentService {
	if events == nil {
		events = noopPublisher{}
	}
	return &CommentService{
		comments: comments,
		events:   events,
		validate: newValidator(),
	}
}

type CreateCommentInput struct {
	Post    string  `json:"post" validate:"required,max=255"`
	Content string  `json:"content" validate:"required,max=900"`
	ReplyOf *string `json:"replyOf"`
}

// ReactionResult reports whether the comment exists and whether a reaction was added.
type ReactionResult struct {
	Matched  bool `json:"matched"`
	Modified bool `json:"modified"`
}

type RemoveResult struct {
	Removed        int64 `json:"removed"`
	RepliesRemoved int64 `json:"repliesRemoved"`
}

type ListInput struct {
	Post    string
	ReplyOf *string
	Page    int
	Limit   int
	Sort    string
	Fields  map[pipeline.Field]interface{}
}

type ListResult struct {
	Docs       []models.CommentView `json:"docs"`
	Pagination utils.PageInfo       `json:"pagination"`
}

// Create stores a new comment by authorID. A reply must target a comment of the same post.
func (s *CommentService) Create(ctx context.Context, authorID string, input CreateCommentInput) (*models.Comment, error) {
	input.Post = strings.TrimSpace(input.Post)
	input.Content = strings.TrimSpace(input.Content)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err, "content")
	}

	if input.ReplyOf != nil {
		parent, err := s.comments.FindByID(ctx, *input.ReplyOf)
		if err != nil {
			return nil, storeErr("find parent comment", err)
		}
		if parent.Post != input.Post {
			return nil, ErrNotFound
		}
	}

	comment := &models.Comment{
		UserID:  authorID,
		Post:    input.Post,
		Content: input.Content,
		ReplyOf: input.ReplyOf,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, storeErr("create comment", err)
	}
	comment.Reactions = []models.Reaction{}

	s.publish(realtime.EventNewComment, comment.Post, comment)
	return comment, nil
}

// Edit replaces the content of a comment owned by authorID and marks it edited.
func (s *CommentService) Edit(ctx context.Context, id, authorID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := s.validate.Var(content, "required,max=900"); err != nil {
		return nil, validationError(err, "content")
	}

	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find comment", err)
	}
	if err := AssertOwnership(comment, authorID); err != nil {
		return nil, err
	}

	res, err := s.comments.UpdateContent(ctx, id, authorID, content)
	if err != nil {
		return nil, storeErr("update comment", err)
	}
	if res.Matched == 0 {
		// removed between the read and the update
		return nil, ErrNotFound
	}

	comment.Content = content
	comment.Edited = true
	s.publish(realtime.EventCommentEdited, comment.Post, comment)
	return comment, nil
}

// AddReaction records authorID's reaction unless they already reacted to the comment.
func (s *CommentService) AddReaction(ctx context.Context, id, authorID, kind string) (ReactionResult, error) {
	if err := s.validate.Var(kind, "required,oneof=like dislike"); err != nil {
		return ReactionResult{}, validationError(err, "kind")
	}

	res, err := s.comments.AddReaction(ctx, id, authorID, models.ReactionKind(kind))
	if err != nil {
		return ReactionResult{}, storeErr("add reaction", err)
	}
	if res.Matched == 0 {
		return ReactionResult{}, ErrNotFound
	}

	result := ReactionResult{Matched: true, Modified: res.Modified > 0}
	if result.Modified {
		s.publishReaction(ctx, id, authorID, kind)
	}
	return result, nil
}

func (s *CommentService) publishReaction(ctx context.Context, id, authorID, kind string) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("comment", id).Msg("reaction event skipped")
		return
	}
	s.publish(realtime.EventReactionAdded, comment.Post, map[string]interface{}{
		"commentId": id,
		"post":      comment.Post,
		"userId":    authorID,
		"kind":      kind,
	})
}

// Remove deletes a comment owned by authorID together with its direct replies.
func (s *CommentService) Remove(ctx context.Context, id, authorID string) (RemoveResult, error) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return RemoveResult{}, storeErr("find comment", err)
	}
	if err := AssertOwnership(comment, authorID); err != nil {
		return RemoveResult{}, err
	}

	res, err := s.comments.DeleteOwned(ctx, id, authorID)
	if err != nil {
		return RemoveResult{}, storeErr("remove comment", err)
	}

	s.publish(realtime.EventCommentRemoved, comment.Post, map[string]interface{}{
		"id":      id,
		"post":    comment.Post,
		"replyOf": comment.ReplyOf,
	})
	return RemoveResult{Removed: res.Removed, RepliesRemoved: res.RepliesRemoved}, nil
}

// Get returns the aggregated view of one comment.
func (s *CommentService) Get(ctx context.Context, id string) (*models.CommentView, error) {
	view, err := s.comments.FindView(ctx, id)
	if err != nil {
		return nil, storeErr("find comment view", err)
	}
	return view, nil
}

// List returns one page of comments of a post, or of the replies to one comment.
func (s *CommentService) List(ctx context.Context, input ListInput) (*ListResult, error) {
	offset, err := utils.ComputeOffset(input.Page, input.Limit)
	if err != nil {
		return nil, err
	}

	plan, err := pipeline.Build(pipeline.Options{
		Sort:  input.Sort,
		Skip:  offset.Skip,
		Limit: offset.Limit,
		Query: pipeline.Query{
			Post:    strings.TrimSpace(input.Post),
			ReplyOf: input.ReplyOf,
			Fields:  input.Fields,
		},
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("plan", plan.Describe()).Msg("running comment aggregation")

	res, err := s.comments.RunAggregation(ctx, plan)
	if err != nil {
		return nil, storeErr("list comments", err)
	}

	return &ListResult{
		Docs:       res.Docs,
		Pagination: utils.BuildPaginationMeta(input.Page, res.TotalDocs, input.Limit),
	}, nil
}

func (s *CommentService) publish(t realtime.EventType, post string, payload interface{}) {
	if !s.events.Publish(realtime.Event{Type: t, Post: post, Payload: payload}) {
		log.Debug().Str("type", string(t)).Str("post", post).Msg("event not delivered")
	}
}
