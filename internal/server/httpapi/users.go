package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is headroom for multipart framing on top of the file
// size limit.
const multipartOverhead = 64 << 10

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signup handles POST /users.
func (s *Server) signup(c *gin.Context) {
	var req services.Candidate
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", "must be a JSON object with name, age, email and password")
		return
	}

	res, err := s.users.Signup(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "user signed up", "user_id", res.User.ID)
	c.JSON(http.StatusCreated, res)
}

// login handles POST /users/login.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", "must be a JSON object with email and password")
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// logout handles POST /users/logout.
func (s *Server) logout(c *gin.Context) {
	if err := s.users.Logout(c.Request.Context(), authFrom(c)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// logoutAll handles POST /users/logoutAll.
func (s *Server) logoutAll(c *gin.Context) {
	if err := s.users.LogoutAll(c.Request.Context(), authFrom(c)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// me handles GET /users/me.
func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, authFrom(c).User)
}

// updateMe handles PATCH /users/me.
func (s *Server) updateMe(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		s.badRequest(c, "body", "must be a JSON object")
		return
	}

	user, err := s.users.UpdateProfile(c.Request.Context(), authFrom(c), fields)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// deleteMe handles DELETE /users/me and answers with the removed profile.
func (s *Server) deleteMe(c *gin.Context) {
	ac := authFrom(c)
	if err := s.users.DeleteProfile(c.Request.Context(), ac); err != nil {
		s.abortWithError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "user deleted", "user_id", ac.User.ID)
	c.JSON(http.StatusOK, ac.User)
}

// uploadAvatar handles POST /users/me/avatar with a multipart "avatar" file.
func (s *Server) uploadAvatar(c *gin.Context) {
	limit := s.users.AvatarMaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fh, err := c.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.badRequest(c, "avatar", "is too large")
			return
		}
		s.badRequest(c, "avatar", "please upload an image")
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	if err := s.users.SetAvatar(c.Request.Context(), authFrom(c), fh.Filename, data); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// deleteAvatar handles DELETE /users/me/avatar.
func (s *Server) deleteAvatar(c *gin.Context) {
	if err := s.users.DeleteAvatar(c.Request.Context(), authFrom(c)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// getAvatar handles GET /users/:id/avatar. It is public.
func (s *Server) getAvatar(c *gin.Context) {
	img, err := s.users.GetAvatar(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
