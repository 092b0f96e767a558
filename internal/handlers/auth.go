package handlers

import (
	"net/http"

	"pagenotes/internal/middleware"
	"pagenotes/internal/models"
	"pagenotes/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func userBody(user models.User) gin.H {
	return gin.H{"userId": user.ID, "username": user.Username}
}

func startSession(c *gin.Context, user models.User) error {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	return session.Save()
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := startSession(c, user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userBody(user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if services.KindOf(err) == services.KindForbidden {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password", "code": "unauthorized"})
			return
		}
		respondError(c, err)
		return
	}
	if err := startSession(c, user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userBody(user))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required", "code": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, userBody(*user))
}
