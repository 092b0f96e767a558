package handlers

import (
	"net/http"

	"pagenotes/internal/services"
	"pagenotes/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	URL      string  `json:"url"`
	Text     string  `json:"text"`
	ParentID *string `json:"parentId"`
}

type editCommentRequest struct {
	Text string `json:"text"`
}

// List serves one page of a URL's threaded comments.
func (h *CommentHandler) List(c *gin.Context) {
	page := utils.PositiveIntOr(c.Query("page"), 1)
	limit := utils.PositiveIntOr(c.Query("limit"), 0)

	result, err := h.comments.List(c.Request.Context(), c.Query("url"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.comments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	created, err := h.comments.Create(c.Request.Context(), actor(c), req.URL, req.Text, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"comment":       created.Comment,
		"notifications": len(created.Notifications),
	}
	if created.NotifyErr != nil {
		// the comment is stored; only some notifications failed
		body["notificationError"] = created.NotifyErr.Error()
	}
	c.JSON(http.StatusCreated, body)
}

func (h *CommentHandler) Edit(c *gin.Context) {
	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := h.comments.Edit(c.Request.Context(), actor(c), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	removed, err := h.comments.Delete(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": removed})
}
