package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jayeen28/techzu-backend/models"
	"github.com/jayeen28/techzu-backend/pipeline"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrBadPlan   = errors.New("unsupported aggregation plan")
)

// AggregateResult is one page of comment views plus the size of the full filtered set.
type AggregateResult struct {
	Docs      []models.CommentView `json:"docs"`
	TotalDocs int64                `json:"totalDocs"`
}

// UpdateResult mirrors a conditional update: Matched counts target rows, Modified counts changes.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

type DeleteResult struct {
	Removed        int64
	RepliesRemoved int64
}

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

var sortColumns = map[pipeline.SortKey]string{
	pipeline.SortCreatedAt: "comments.created_at",
	pipeline.SortLikes:     "likes",
	pipeline.SortDislikes:  "dislikes",
}

var fieldColumns = map[pipeline.Field]string{
	pipeline.FieldUserID: "user_id",
	pipeline.FieldEdited: "edited",
}

var counterColumns = map[string]bool{
	"likes":    true,
	"dislikes": true,
}

type aggregateRow struct {
	ID                 string
	Post               string
	Content            string
	Edited             bool
	ReplyOf            *string
	CreatedAt          time.Time
	UserID             string
	AuthorDisplayName  string
	AuthorAvatarFileID *string
	Likes              int64
	Dislikes           int64
}

type compiledPlan struct {
	match  *pipeline.Match
	expand *pipeline.ExpandReactions
	group  *pipeline.Group
	author bool
	facet  *pipeline.Facet
}

func compile(plan *pipeline.Plan) (*compiledPlan, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: nil plan", ErrBadPlan)
	}

	var c compiledPlan
	for i, stage := range plan.Stages {
		switch st := stage.(type) {
		case pipeline.Match:
			if i != 0 {
				return nil, fmt.Errorf("%w: match must be the first stage", ErrBadPlan)
			}
			c.match = &st
		case pipeline.ExpandReactions:
			c.expand = &st
		case pipeline.Group:
			if c.expand == nil {
				return nil, fmt.Errorf("%w: group requires expanded reactions", ErrBadPlan)
			}
			for _, counter := range st.Counters {
				if !counterColumns[counter.As] {
					return nil, fmt.Errorf("%w: unknown counter %q", ErrBadPlan, counter.As)
				}
			}
			c.group = &st
		case pipeline.LookupAuthor:
			c.author = true
		case pipeline.Facet:
			c.facet = &st
		default:
			return nil, fmt.Errorf("%w: unexpected stage %s", ErrBadPlan, stage.Name())
		}
	}

	if c.match == nil || c.facet == nil || c.group == nil {
		return nil, fmt.Errorf("%w: match, group and facet stages are required", ErrBadPlan)
	}
	return &c, nil
}

// grouped builds the match > expand > group > author part of the plan as one query.
// It is built fresh for every branch so the page and count queries share no statement.
func (r *CommentRepository) grouped(ctx context.Context, c *compiledPlan, scope func(*gorm.DB) *gorm.DB) *gorm.DB {
	q := scope(r.db.WithContext(ctx).Table("comments"))

	join := "JOIN"
	if c.expand.PreserveEmpty {
		join = "LEFT JOIN"
	}
	q = q.Joins(join + " comment_reactions ON comment_reactions.comment_id = comments.id")

	columns := []string{
		"comments.id", "comments.post", "comments.content", "comments.edited",
		"comments.reply_of", "comments.created_at", "comments.user_id",
	}
	var args []interface{}
	for _, counter := range c.group.Counters {
		columns = append(columns, fmt.Sprintf("SUM(CASE WHEN comment_reactions.kind = ? THEN 1 ELSE 0 END) AS %s", counter.As))
		args = append(args, string(counter.Kind))
	}
	groupBy := "comments.id"

	if c.author {
		q = q.Joins("JOIN users ON users.id = comments.user_id")
		columns = append(columns,
			"users.display_name AS author_display_name",
			"users.avatar_file_id AS author_avatar_file_id",
		)
		groupBy += ", users.id"
	}

	return q.Select(strings.Join(columns, ", "), args...).Group(groupBy)
}

func matchScope(m *pipeline.Match) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("comments.post = ?", m.Post)
		if m.ReplyOf == nil {
			q = q.Where("comments.reply_of IS NULL")
		} else {
			q = q.Where("comments.reply_of = ?", *m.ReplyOf)
		}
		for field, value := range m.Fields {
			q = q.Where(clause.Eq{
				Column: clause.Column{Table: "comments", Name: fieldColumns[field]},
				Value:  value,
			})
		}
		return q
	}
}

// RunAggregation executes plan and merges the page and count branches.
func (r *CommentRepository) RunAggregation(ctx context.Context, plan *pipeline.Plan) (*AggregateResult, error) {
	c, err := compile(plan)
	if err != nil {
		return nil, err
	}
	for field := range c.match.Fields {
		if _, ok := fieldColumns[field]; !ok {
			return nil, fmt.Errorf("%w: unknown filter field %q", ErrBadPlan, field)
		}
	}
	scope := matchScope(c.match)

	var (
		rows       []aggregateRow
		total      int64
		replyCount bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page := r.grouped(gctx, c, scope)
		for _, stage := range c.facet.Docs {
			switch st := stage.(type) {
			case pipeline.SortStage:
				column, ok := sortColumns[st.Sort.Key]
				if !ok {
					column = sortColumns[pipeline.SortCreatedAt]
				}
				desc := st.Sort.Direction != pipeline.Ascending
				page = page.Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: desc}).
					Order(clause.OrderByColumn{Column: clause.Column{Name: "comments.id", Raw: true}, Desc: desc})
			case pipeline.Skip:
				page = page.Offset(st.N)
			case pipeline.Limit:
				page = page.Limit(st.N)
			case pipeline.ReplyCount:
				replyCount = true
			case pipeline.Project:
			default:
				return fmt.Errorf("%w: unexpected docs stage %s", ErrBadPlan, stage.Name())
			}
		}
		return page.Scan(&rows).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Table("(?) AS agg", r.grouped(gctx, c, scope)).Count(&total).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs, err := r.project(ctx, rows, replyCount)
	if err != nil {
		return nil, err
	}
	return &AggregateResult{Docs: docs, TotalDocs: total}, nil
}

// project shapes rows into views. Reply counts and reaction lists are loaded for these rows only.
func (r *CommentRepository) project(ctx context.Context, rows []aggregateRow, withReplyCount bool) ([]models.CommentView, error) {
	docs := make([]models.CommentView, 0, len(rows))
	if len(rows) == 0 {
		return docs, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	replies := map[string]int64{}
	if withReplyCount {
		var counts []struct {
			ReplyOf string
			Count   int64
		}
		err := r.db.WithContext(ctx).Model(&models.Comment{}).
			Select("reply_of, COUNT(*) AS count").
			Where("reply_of IN ?", ids).
			Group("reply_of").
			Scan(&counts).Error
		if err != nil {
			return nil, err
		}
		for _, rc := range counts {
			replies[rc.ReplyOf] = rc.Count
		}
	}

	var reactions []models.Reaction
	if err := r.db.WithContext(ctx).Where("comment_id IN ?", ids).Order("id ASC").Find(&reactions).Error; err != nil {
		return nil, err
	}
	byComment := make(map[string][]models.Reaction, len(rows))
	for _, reaction := range reactions {
		byComment[reaction.CommentID] = append(byComment[reaction.CommentID], reaction)
	}

	for _, row := range rows {
		list := byComment[row.ID]
		if list == nil {
			list = []models.Reaction{}
		}
		docs = append(docs, models.CommentView{
			ID:      row.ID,
			Post:    row.Post,
			Content: row.Content,
			User: models.AuthorView{
				ID:           row.UserID,
				DisplayName:  row.AuthorDisplayName,
				AvatarFileID: row.AuthorAvatarFileID,
			},
			Edited:     row.Edited,
			Reactions:  list,
			ReplyOf:    row.ReplyOf,
			CreatedAt:  row.CreatedAt,
			Likes:      row.Likes,
			Dislikes:   row.Dislikes,
			ReplyCount: replies[row.ID],
		})
	}
	return docs, nil
}

// FindView returns the aggregated view of a single comment.
func (r *CommentRepository) FindView(ctx context.Context, id string) (*models.CommentView, error) {
	c := &compiledPlan{
		expand: &pipeline.ExpandReactions{PreserveEmpty: true},
		group:  &pipeline.Group{Counters: pipeline.ReactionCounters()},
		author: true,
	}

	var rows []aggregateRow
	byID := func(q *gorm.DB) *gorm.DB { return q.Where("comments.id = ?", id) }
	if err := r.grouped(ctx, c, byID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	docs, err := r.project(ctx, rows, true)
	if err != nil {
		return nil, err
	}
	return &docs[0], nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Preload("Reactions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&comment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateContent sets content and the edited flag on the comment owned by userID.
func (r *CommentRepository) UpdateContent(ctx context.Context, id, userID, content string) (UpdateResult, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"content": content, "edited": true})
	if res.Error != nil {
		return UpdateResult{}, res.Error
	}
	return UpdateResult{Matched: res.RowsAffected, Modified: res.RowsAffected}, nil
}

// AddReaction appends a reaction unless userID already reacted to the comment.
// The insert relies on the (comment_id, user_id) unique index and ignores conflicts,
// so concurrent requests from one user can never both succeed.
func (r *CommentRepository) AddReaction(ctx context.Context, commentID, userID string, kind models.ReactionKind) (UpdateResult, error) {
	var matched int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", commentID).Count(&matched).Error; err != nil {
		return UpdateResult{}, err
	}
	if matched == 0 {
		return UpdateResult{}, nil
	}

	reaction := models.Reaction{CommentID: commentID, UserID: userID, Kind: kind}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&reaction)
	if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
		// removed after the count
		return UpdateResult{}, nil
	}
	if res.Error != nil {
		return UpdateResult{Matched: matched}, res.Error
	}
	return UpdateResult{Matched: matched, Modified: res.RowsAffected}, nil
}

// DeleteOwned removes the comment owned by userID, then its direct replies and the
// reactions of everything removed. Replies of replies are left in place.
func (r *CommentRepository) DeleteOwned(ctx context.Context, id, userID string) (DeleteResult, error) {
	var result DeleteResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		result.Removed = res.RowsAffected

		replyIDs := tx.Model(&models.Comment{}).Select("id").Where("reply_of = ?", id)
		if err := tx.Where("comment_id = ? OR comment_id IN (?)", id, replyIDs).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}

		res = tx.Where("reply_of = ?", id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		result.RepliesRemoved = res.RowsAffected
		return nil
	})
	return result, err
}
