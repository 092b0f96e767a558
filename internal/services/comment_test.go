package services

import (
	"context"
	"errors"
	"testing"

	"pagenotes/internal/models"
	"pagenotes/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyIsThreadedUnderParent(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	a := f.create(t, "alice", "t", "root comment", nil)
	b := f.create(t, "bob", "t", "a reply", strPtr(a.ID))

	page, err := f.comments.List(ctx, "t", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, a.ID, page.Comments[0].ID)
	require.Len(t, page.Comments[0].Replies, 1)
	assert.Equal(t, b.ID, page.Comments[0].Replies[0].ID)
	assert.Equal(t, int64(2), page.Pagination.TotalComments)
}

func TestCreateStoresRenderedTextAndPublishes(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()

	created, err := f.comments.Create(ctx, f.actor("alice"), "  https://t.test  ", "**hi**", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.renderer.calls)

	c := created.Comment
	assert.Equal(t, "https://t.test", c.URL)
	assert.Equal(t, "**hi**", c.RawText)
	assert.Equal(t, "<p>**hi**</p>", c.Text)
	assert.Equal(t, "id-alice", c.AuthorID)
	assert.Equal(t, "alice", c.AuthorName)
	assert.Nil(t, c.ParentID)
	assert.Nil(t, c.EditedAt)

	events := f.hub.named(EventNewComment)
	require.Len(t, events, 1)
	assert.Equal(t, "topic", events[0].scope)
	assert.Equal(t, "https://t.test", events[0].key)
	assert.Equal(t, c.ID, events[0].payload.(NewCommentEvent).Comment.ID)

	// the read path never renders
	_, err = f.comments.List(ctx, "https://t.test", 1, 10)
	require.NoError(t, err)
	_, err = f.comments.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.renderer.calls)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()
	other := f.create(t, "alice", "https://other.test", "elsewhere", nil)

	tests := []struct {
		name   string
		actor  Actor
		url    string
		text   string
		parent *string
	}{
		{"no author", Actor{}, "u", "text", nil},
		{"no url", f.actor("alice"), " ", "text", nil},
		{"blank text", f.actor("alice"), "u", "   ", nil},
		{"missing parent", f.actor("alice"), "u", "text", strPtr("nope")},
		{"parent on other url", f.actor("alice"), "u", "text", strPtr(other.ID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.comments.Create(ctx, tt.actor, tt.url, tt.text, tt.parent)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	total, err := f.store.CountCommentsByURL(ctx, "u")
	require.NoError(t, err)
	assert.Zero(t, total, "rejected comments are not stored")
}

func TestCreateRenderFailure(t *testing.T) {
	f := newFixture(t, "alice")
	f.renderer.err = errors.New("boom")

	_, err := f.comments.Create(context.Background(), f.actor("alice"), "u", "text", nil)
	assert.ErrorIs(t, err, ErrCollaborator)
	assert.Empty(t, f.hub.named(EventNewComment))
}

func TestEditIsAuthorOnly(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	a := f.create(t, "alice", "t", "first", nil)

	_, err := f.comments.Edit(ctx, f.actor("bob"), a.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.comments.Edit(ctx, f.actor("alice"), "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.comments.Edit(ctx, f.actor("alice"), a.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	edited, err := f.comments.Edit(ctx, f.actor("alice"), a.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", edited.RawText)
	assert.Equal(t, "<p>second</p>", edited.Text)
	require.NotNil(t, edited.EditedAt)
	assert.Equal(t, 2, f.renderer.calls)

	events := f.hub.named(EventCommentEdited)
	require.Len(t, events, 1)
	payload := events[0].payload.(CommentEditedEvent)
	assert.Equal(t, a.ID, payload.CommentID)
	assert.Equal(t, "<p>second</p>", payload.Text)
	assert.Equal(t, *edited.EditedAt, payload.EditedAt)
}

func TestDeleteRemovesWholeSubtree(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	a := f.create(t, "alice", "t", "A", nil)
	b := f.create(t, "bob", "t", "B", strPtr(a.ID))
	c := f.create(t, "alice", "t", "C", strPtr(b.ID))
	keep := f.create(t, "bob", "t", "unrelated", nil)

	_, err := f.votes.CastVote(ctx, c.ID, "id-bob", models.VoteUp)
	require.NoError(t, err)

	_, err = f.comments.Delete(ctx, f.actor("bob"), a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	removed, err := f.comments.Delete(ctx, f.actor("alice"), a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, removed)

	for _, id := range removed {
		_, err := f.store.GetComment(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound, "comment %s should be gone", id)
	}
	_, err = f.store.GetVote(ctx, c.ID, "id-bob")
	assert.Error(t, err, "votes on removed comments are removed too")

	page, err := f.comments.List(ctx, "t", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, ids(page.Comments))

	assert.Len(t, f.hub.named(EventCommentDeleted), 3)

	_, err = f.comments.Delete(ctx, f.actor("alice"), a.ID)
	assert.ErrorIs(t, err, ErrNotFound, "a comment is deleted at most once")
}

func TestListPaginatesBeforeThreading(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()

	// oldest to newest: a, b, reply-to-a
	a := f.create(t, "alice", "t", "a", nil)
	b := f.create(t, "alice", "t", "b", nil)
	r := f.create(t, "alice", "t", "reply", strPtr(a.ID))

	page1, err := f.comments.List(ctx, "t", 1, 2)
	require.NoError(t, err)
	// page 1 holds reply and b; reply's parent is on page 2, so it is dropped
	assert.Equal(t, []string{b.ID}, ids(page1.Comments))
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 2, TotalComments: 3, HasNextPage: true}, page1.Pagination)

	page2, err := f.comments.List(ctx, "t", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(page2.Comments))
	assert.Empty(t, page2.Comments[0].Replies)
	assert.NotEqual(t, r.ID, page2.Comments[0].ID)
}

func TestListOrdersNewestFirstAndClampsLimit(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()

	var created []string
	for _, text := range []string{"one", "two", "three"} {
		created = append(created, f.create(t, "alice", "t", text, nil).ID)
	}

	page, err := f.comments.List(ctx, "t", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{created[2], created[1], created[0]}, ids(page.Comments))
	assert.Equal(t, 1, page.Pagination.CurrentPage)

	_, err = f.comments.List(ctx, "", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetAttachesTally(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()
	a := f.create(t, "alice", "t", "a", nil)

	_, err := f.votes.CastVote(ctx, a.ID, "v1", models.VoteDown)
	require.NoError(t, err)

	got, err := f.comments.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Downvotes)

	_, err = f.comments.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
