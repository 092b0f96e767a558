package services

import (
	"context"
	"errors"
	"time"

	"pagenotes/internal/models"
	"pagenotes/internal/store"
)

type voteStore interface {
	store.VoteStore
	GetComment(ctx context.Context, id string) (models.Comment, error)
}

// VoteAggregator keeps at most one live vote per (comment, voter) and derives
// tallies from those rows.
type VoteAggregator struct {
	store voteStore
	hub   Publisher
	now   func() time.Time
}

func NewVoteAggregator(s voteStore, hub Publisher) *VoteAggregator {
	if hub == nil {
		hub = nopPublisher{}
	}
	return &VoteAggregator{store: s, hub: hub, now: time.Now}
}

// CastVote records the voter's kind for the comment. Re-casting the same kind is
// a no-op; casting the other kind flips the existing row.
func (a *VoteAggregator) CastVote(ctx context.Context, commentID, voterID string, kind models.VoteKind) (models.Tally, error) {
	const op = "cast vote"
	if commentID == "" || voterID == "" {
		return models.Tally{}, invalid(op, "comment and voter are required")
	}
	if !kind.Valid() {
		return models.Tally{}, invalid(op, "vote type must be up or down")
	}

	comment, err := a.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Tally{}, notFound(op, "comment not found")
		}
		return models.Tally{}, storeErr(op, err)
	}

	existing, err := a.store.GetVote(ctx, commentID, voterID)
	switch {
	case err == nil && existing.Kind == kind:
		return a.Tally(ctx, commentID)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return models.Tally{}, storeErr(op, err)
	}

	now := a.now().UTC()
	vote := &models.Vote{
		CommentID: commentID,
		VoterID:   voterID,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveVote(ctx, vote); err != nil {
		return models.Tally{}, storeErr(op, err)
	}

	return a.publishTally(ctx, comment)
}

// RemoveVote deletes the voter's row if there is one.
func (a *VoteAggregator) RemoveVote(ctx context.Context, commentID, voterID string) (models.Tally, error) {
	const op = "remove vote"
	if commentID == "" || voterID == "" {
		return models.Tally{}, invalid(op, "comment and voter are required")
	}

	comment, err := a.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Tally{}, notFound(op, "comment not found")
		}
		return models.Tally{}, storeErr(op, err)
	}

	removed, err := a.store.DeleteVote(ctx, commentID, voterID)
	if err != nil {
		return models.Tally{}, storeErr(op, err)
	}
	if !removed {
		return a.Tally(ctx, commentID)
	}
	return a.publishTally(ctx, comment)
}

// Tally counts the live rows for one comment.
func (a *VoteAggregator) Tally(ctx context.Context, commentID string) (models.Tally, error) {
	tallies, err := a.Tallies(ctx, []string{commentID})
	if err != nil {
		return models.Tally{}, err
	}
	return tallies[commentID], nil
}

// Tallies counts rows for a batch of comments. Comments without votes map to a
// zero tally.
func (a *VoteAggregator) Tallies(ctx context.Context, commentIDs []string) (map[string]models.Tally, error) {
	tallies, err := a.store.CountVotes(ctx, commentIDs)
	if err != nil {
		return nil, storeErr("count votes", err)
	}
	return tallies, nil
}

func (a *VoteAggregator) publishTally(ctx context.Context, comment models.Comment) (models.Tally, error) {
	tally, err := a.Tally(ctx, comment.ID)
	if err != nil {
		return models.Tally{}, err
	}
	a.hub.PublishTopic(comment.URL, EventCommentVoted, CommentVotedEvent{
		CommentID: comment.ID,
		Upvotes:   tally.Upvotes,
		Downvotes: tally.Downvotes,
	})
	return tally, nil
}
