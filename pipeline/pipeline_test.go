package pipeline

import (
	"testing"

	"github.com/jayeen28/techzu-backend/models"
	"github.com/jayeen28/techzu-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want Sort
	}{
		{"empty uses default", "", Sort{SortCreatedAt, Descending}},
		{"createdAt desc", "createdAt:desc", Sort{SortCreatedAt, Descending}},
		{"createdAt asc", "createdAt:asc", Sort{SortCreatedAt, Ascending}},
		{"legacy asec spelling", "likes:asec", Sort{SortLikes, Ascending}},
		{"numeric direction", "dislikes:1", Sort{SortDislikes, Ascending}},
		{"missing direction", "likes", Sort{SortLikes, Descending}},
		{"unknown direction", "likes:sideways", Sort{SortLikes, Descending}},
		{"unknown key", "password:asc", Sort{SortCreatedAt, Descending}},
		{"injection attempt", "created_at; DROP TABLE users:asc", Sort{SortCreatedAt, Descending}},
		{"reply count is not sortable", "replyCount:asc", Sort{SortCreatedAt, Descending}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseSort(tc.raw))
		})
	}
}

func TestBuild_StageOrder(t *testing.T) {
	plan, err := Build(Options{Sort: "likes:asc", Skip: 10, Limit: 5, Query: Query{Post: "p1"}})
	require.NoError(t, err)

	require.Len(t, plan.Stages, 5)
	assert.Equal(t, "match", plan.Stages[0].Name())
	assert.Equal(t, ExpandReactions{PreserveEmpty: true}, plan.Stages[1])
	assert.Equal(t, "lookupAuthor", plan.Stages[3].Name())

	group, ok := plan.Stages[2].(Group)
	require.True(t, ok)
	assert.Equal(t, []Counter{
		{As: "likes", Kind: models.ReactionLike},
		{As: "dislikes", Kind: models.ReactionDislike},
	}, group.Counters)

	facet, ok := plan.Stages[4].(Facet)
	require.True(t, ok)
	assert.Equal(t, []Stage{
		SortStage{Sort: Sort{SortLikes, Ascending}},
		Skip{N: 10},
		Limit{N: 5},
		ReplyCount{},
		Project{},
	}, facet.Docs)
}

func TestBuild_TopLevelMatchesNullReplyOf(t *testing.T) {
	plan, err := Build(Options{Limit: 5, Query: Query{Post: "p1"}})
	require.NoError(t, err)

	match := plan.Stages[0].(Match)
	assert.Equal(t, "p1", match.Post)
	assert.Nil(t, match.ReplyOf)
}

func TestBuild_ReplyScope(t *testing.T) {
	parent := "c-1"
	plan, err := Build(Options{Limit: 5, Query: Query{Post: "p1", ReplyOf: &parent}})
	require.NoError(t, err)

	match := plan.Stages[0].(Match)
	require.NotNil(t, match.ReplyOf)
	assert.Equal(t, parent, *match.ReplyOf)
}

func TestBuild_Rejects(t *testing.T) {
	testCases := []struct {
		name string
		opts Options
	}{
		{"missing post", Options{Limit: 5}},
		{"negative skip", Options{Skip: -1, Limit: 5, Query: Query{Post: "p"}}},
		{"negative limit", Options{Limit: -1, Query: Query{Post: "p"}}},
		{"unknown field", Options{Limit: 5, Query: Query{Post: "p", Fields: map[Field]any{"password": "x"}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.opts)
			assert.ErrorIs(t, err, utils.ErrInvalidArgument)
		})
	}
}

func TestPlan_Describe(t *testing.T) {
	plan, err := Build(Options{Sort: "createdAt:asc", Skip: 0, Limit: 3, Query: Query{
		Post:   "p1",
		Fields: map[Field]any{FieldEdited: true},
	}})
	require.NoError(t, err)

	assert.Equal(t,
		"match(post=p1 replyOf=null fields=[edited]) > expandReactions > group > lookupAuthor > "+
			"facet{docs:[sort(createdAt:asc) skip(0) limit(3) replyCount project] count}",
		plan.Describe())
}
