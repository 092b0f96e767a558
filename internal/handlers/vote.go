package handlers

import (
	"net/http"

	"pagenotes/internal/models"
	"pagenotes/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteAggregator
}

func NewVoteHandler(votes *services.VoteAggregator) *VoteHandler {
	return &VoteHandler{votes: votes}
}

type voteRequest struct {
	Type models.VoteKind `json:"type"`
}

// Vote casts or flips the caller's vote on a comment.
func (h *VoteHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	tally, err := h.votes.CastVote(c.Request.Context(), c.Param("id"), actor(c).ID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	respondTally(c, tally)
}

// Unvote removes the caller's vote, if any.
func (h *VoteHandler) Unvote(c *gin.Context) {
	tally, err := h.votes.RemoveVote(c.Request.Context(), c.Param("id"), actor(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondTally(c, tally)
}

func respondTally(c *gin.Context, tally models.Tally) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"upvotes":   tally.Upvotes,
		"downvotes": tally.Downvotes,
	})
}
