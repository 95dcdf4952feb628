package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vidora/vidora-api/internal/apperrors"
	userapp "github.com/vidora/vidora-api/internal/application"
	"github.com/vidora/vidora-api/internal/interface/middleware"
	"github.com/vidora/vidora-api/pkg/helpers"
	"github.com/vidora/vidora-api/pkg/response"
	"github.com/vidora/vidora-api/pkg/validation"
)

type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /register (multipart form). The avatar file is
// required; the cover image is optional. Responds 201 with a 200 envelope.
func (h *UserHandler) Register(c *gin.Context) {
	in := userapp.RegisterInput{
		FullName: c.PostForm("fullName"),
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	avatar, closeAvatar, err := formFile(c, "avatar")
	if err == nil {
		defer closeAvatar()
		in.Avatar = avatar
	}
	cover, closeCover, err := formFile(c, "coverImage")
	if err == nil {
		defer closeCover()
		in.CoverImage = cover
	}

	profile, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.SuccessAs(c, http.StatusCreated, http.StatusOK, profile, "user registered successfully")
}

// Login handles POST /login. Tokens travel both as HttpOnly/Secure cookies
// and in the body for non-cookie clients.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	profile, pair, err := h.Svc.Login(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"user":         profile,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /logout. Requires the auth middleware; clears the
// stored refresh token and both cookies with matching attributes.
func (h *UserHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if uid == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		h.respondError(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{}, "user logged out successfully")
}

// Refresh handles POST /refresh. The refresh token comes from the cookie or,
// for non-cookie clients, the body.
func (h *UserHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(helpers.RefreshTokenCookie)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	profile, pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"user":         profile,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "tokens refreshed successfully")
}

// GetProfile handles GET /profile for the authenticated user.
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	profile, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile, "profile")
}

// Search handles GET /users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results")
}

// respondError is the single translation point from domain errors to the
// HTTP error envelope. Internal causes are logged, never returned.
func (h *UserHandler) respondError(c *gin.Context, err error) {
	switch {
	case apperrors.IsInvalidArgument(err):
		response.Error[any](c, http.StatusBadRequest, apperrors.Message(err), nil)
	case apperrors.IsAlreadyExists(err):
		response.Error[any](c, http.StatusConflict, apperrors.Message(err), nil)
	case apperrors.IsNotFound(err):
		response.Error[any](c, http.StatusNotFound, apperrors.Message(err), nil)
	case apperrors.IsInvalidCredentials(err):
		response.Error[any](c, http.StatusUnauthorized, "invalid user credentials", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "something went wrong", nil)
	}
}

func formFile(c *gin.Context, field string) (*userapp.FileInput, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &userapp.FileInput{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: contentTypeOf(fh),
	}, func() { _ = f.Close() }, nil
}

func contentTypeOf(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
