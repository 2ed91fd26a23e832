package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debtrail/debtrail/internal/middleware"
	"github.com/debtrail/debtrail/internal/service"
)

type putProfileRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	AvatarURL   string `json:"avatar_url"`
}

// handlePutProfile reconciles the caller's profile. The identity id comes
// from the token, never the body; the provider assigned it at registration.
func (s *Server) handlePutProfile(c *gin.Context) {
	var req putProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	identity, err := s.profiles.CreateOrUpdate(c.Request.Context(), service.ProfileCandidate{
		ID:          middleware.GetUserID(c),
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIdentityResponse(identity))
}

func (s *Server) handleGetProfile(c *gin.Context) {
	identity, err := s.profiles.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIdentityResponse(identity))
}

func (s *Server) handleDeleteProfile(c *gin.Context) {
	if err := s.profiles.Delete(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
