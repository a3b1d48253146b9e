// Package pipeline builds the read-side aggregation plan for comments.
//
// A Plan is a declarative, store-agnostic list of stages. It filters the comments
// of one post (top-level or replies of one comment), expands reactions into rows
// while keeping comments that have none, regroups them into like/dislike counters,
// joins the author, and splits into a sorted page and a total count. Reply counts
// are resolved for the page only.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jayeen28/techzu-backend/models"
	"github.com/jayeen28/techzu-backend/utils"
)

type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortLikes     SortKey = "likes"
	SortDislikes  SortKey = "dislikes"
)

const DefaultSort = "createdAt:desc"

// sortable lists the keys a caller may sort by. Anything else falls back to createdAt.
var sortable = map[SortKey]bool{
	SortCreatedAt: true,
	SortLikes:     true,
	SortDislikes:  true,
}

var directions = map[string]Direction{
	"asc":        Ascending,
	"asec":       Ascending,
	"ascending":  Ascending,
	"1":          Ascending,
	"desc":       Descending,
	"descending": Descending,
	"-1":         Descending,
}

type Sort struct {
	Key       SortKey
	Direction Direction
}

// ParseSort reads a "key:direction" string. Unknown keys yield createdAt descending,
// unknown directions yield descending.
func ParseSort(raw string) Sort {
	def := Sort{Key: SortCreatedAt, Direction: Descending}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}

	key, dir, _ := strings.Cut(raw, ":")
	if !sortable[SortKey(key)] {
		return def
	}

	d, ok := directions[strings.ToLower(strings.TrimSpace(dir))]
	if !ok {
		d = Descending
	}
	return Sort{Key: SortKey(key), Direction: d}
}

func (s Sort) String() string {
	return fmt.Sprintf("%s:%s", s.Key, s.Direction)
}

// Field is an extra exact-match predicate name. Only the values below are accepted.
type Field string

const (
	FieldUserID Field = "userId"
	FieldEdited Field = "edited"
)

var filterable = map[Field]bool{
	FieldUserID: true,
	FieldEdited: true,
}

type Query struct {
	Post    string
	ReplyOf *string
	Fields  map[Field]any
}

type Options struct {
	Sort  string
	Skip  int
	Limit int
	Query Query
}

// Stage is one step of a Plan. Executors type-switch on the concrete stages.
type Stage interface {
	Name() string
}

// Match keeps the comments of Post whose replyOf equals ReplyOf (IS NULL when nil).
type Match struct {
	Post    string
	ReplyOf *string
	Fields  map[Field]any
}

// ExpandReactions emits one row per reaction. With PreserveEmpty a comment
// without reactions still yields exactly one row.
type ExpandReactions struct {
	PreserveEmpty bool
}

// Counter counts expanded rows whose reaction kind equals Kind.
type Counter struct {
	As   string
	Kind models.ReactionKind
}

// Group folds expanded rows back into one row per comment.
type Group struct {
	Counters []Counter
}

type LookupAuthor struct{}

type SortStage struct {
	Sort Sort
}

type Skip struct {
	N int
}

type Limit struct {
	N int
}

// ReplyCount counts the comments whose replyOf equals each row's id.
type ReplyCount struct{}

type Project struct{}

type Count struct{}

// Facet runs Docs and Count over the same grouped rows.
type Facet struct {
	Docs  []Stage
	Count Count
}

func (Match) Name() string           { return "match" }
func (ExpandReactions) Name() string { return "expandReactions" }
func (Group) Name() string           { return "group" }
func (LookupAuthor) Name() string    { return "lookupAuthor" }
func (SortStage) Name() string       { return "sort" }
func (Skip) Name() string            { return "skip" }
func (Limit) Name() string           { return "limit" }
func (ReplyCount) Name() string      { return "replyCount" }
func (Project) Name() string         { return "project" }
func (Count) Name() string           { return "count" }
func (Facet) Name() string           { return "facet" }

// ReactionCounters are the per-comment counters computed by the group stage.
func ReactionCounters() []Counter {
	return []Counter{
		{As: "likes", Kind: models.ReactionLike},
		{As: "dislikes", Kind: models.ReactionDislike},
	}
}

type Plan struct {
	Stages []Stage
}

// Build validates opts and returns the aggregation plan.
func Build(opts Options) (*Plan, error) {
	if strings.TrimSpace(opts.Query.Post) == "" {
		return nil, fmt.Errorf("%w: post is required", utils.ErrInvalidArgument)
	}
	if opts.Skip < 0 || opts.Limit < 0 {
		return nil, fmt.Errorf("%w: skip and limit must be non-negative", utils.ErrInvalidArgument)
	}
	for f := range opts.Query.Fields {
		if !filterable[f] {
			return nil, fmt.Errorf("%w: cannot filter by %q", utils.ErrInvalidArgument, f)
		}
	}

	match := Match{
		Post:    opts.Query.Post,
		ReplyOf: opts.Query.ReplyOf,
		Fields:  opts.Query.Fields,
	}

	return &Plan{Stages: []Stage{
		match,
		ExpandReactions{PreserveEmpty: true},
		Group{Counters: ReactionCounters()},
		LookupAuthor{},
		Facet{
			Docs: []Stage{
				SortStage{Sort: ParseSort(opts.Sort)},
				Skip{N: opts.Skip},
				Limit{N: opts.Limit},
				ReplyCount{},
				Project{},
			},
			Count: Count{},
		},
	}}, nil
}

// Describe renders the plan as a compact string for logs.
func (p *Plan) Describe() string {
	names := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		switch st := s.(type) {
		case Facet:
			inner := make([]string, 0, len(st.Docs))
			for _, d := range st.Docs {
				inner = append(inner, describeStage(d))
			}
			names = append(names, fmt.Sprintf("facet{docs:[%s] count}", strings.Join(inner, " ")))
		default:
			names = append(names, describeStage(s))
		}
	}
	return strings.Join(names, " > ")
}

func describeStage(s Stage) string {
	switch st := s.(type) {
	case Match:
		keys := make([]string, 0, len(st.Fields))
		for f := range st.Fields {
			keys = append(keys, string(f))
		}
		sort.Strings(keys)
		replyOf := "null"
		if st.ReplyOf != nil {
			replyOf = *st.ReplyOf
		}
		return fmt.Sprintf("match(post=%s replyOf=%s fields=%v)", st.Post, replyOf, keys)
	case SortStage:
		return fmt.Sprintf("sort(%s)", st.Sort)
	case Skip:
		return fmt.Sprintf("skip(%d)", st.N)
	case Limit:
		return fmt.Sprintf("limit(%d)", st.N)
	default:
		return s.Name()
	}
}
