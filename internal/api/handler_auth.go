package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/mw"
)

type userRequest struct {
	FirstName     string     `json:"first_name" binding:"required"`
	LastName      string     `json:"last_name"`
	Designation   string     `json:"designation"`
	Email         string     `json:"email" binding:"required"`
	Password      string     `json:"password" binding:"required"`
	Role          model.Role `json:"role"`
	DivisionID    *uint      `json:"division_id"`
	SubdivisionID *uint      `json:"subdivision_id"`
	IsMaintainer  bool       `json:"is_maintainer"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        *model.User `json:"user"`
}

// newUser validates credentials and hashes the password. Maintainer accounts
// always get a linked maintainer row.
func (h *Handler) newUser(req userRequest) (*model.User, error) {
	if err := auth.ValidateEmail(req.Email); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}
	return &model.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Designation:   req.Designation,
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          req.Role,
		DivisionID:    req.DivisionID,
		SubdivisionID: req.SubdivisionID,
		IsMaintainer:  req.IsMaintainer || req.Role == model.RoleMaintainer,
	}, nil
}

func (h *Handler) issue(c *gin.Context, status int, u *model.User) {
	token, err := h.auth.IssueToken(u)
	if err != nil {
		h.respondError(c, apperr.Internal("failed to issue token", err))
		return
	}
	c.JSON(status, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.auth.TokenExpiry().Seconds()),
		User:        u,
	})
}

// InitSystem creates the first Admin. It only works on an empty user table.
func (h *Handler) InitSystem(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.Role = model.RoleAdmin
	req.IsMaintainer = false

	u, err := h.newUser(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.CreateFirstUser(c.Request.Context(), u); err != nil {
		h.respondError(c, err)
		return
	}
	h.logger.Info("system initialized", zap.Uint("admin_id", u.ID))
	h.issue(c, http.StatusCreated, u)
}

// Register is the public sign-up for operator accounts.
func (h *Handler) Register(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !auth.SelfRegistrable(req.Role) {
		h.respondError(c, apperr.Forbidden("only Maintainer and Driver accounts can self-register"))
		return
	}

	u, err := h.newUser(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.CreateUser(c.Request.Context(), u); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	u, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		h.respondError(c, err)
		return
	}
	if u == nil || !h.auth.CheckPassword(req.Password, u.PasswordHash) {
		h.respondError(c, apperr.Unauthenticated("invalid email or password"))
		return
	}
	h.issue(c, http.StatusOK, u)
}

func (h *Handler) Me(c *gin.Context) {
	u, ok := mw.CurrentUser(c)
	if !ok {
		h.respondError(c, apperr.Unauthenticated("authentication required"))
		return
	}
	c.JSON(http.StatusOK, u)
}

// CreateUser lets Admins and Supervisors add accounts below them. A
// Supervisor bound to a division can only place users inside it.
func (h *Handler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	actor := principal(c)
	if !auth.CanCreate(actor.Role, req.Role) {
		h.respondError(c, apperr.Forbidden("you cannot create users with role "+string(req.Role)))
		return
	}

	if actor.Role == model.RoleSupervisor && actor.DivisionID != nil {
		if req.DivisionID == nil && req.SubdivisionID == nil {
			req.DivisionID = actor.DivisionID
		}
		if req.DivisionID != nil && *req.DivisionID != *actor.DivisionID {
			h.respondError(c, apperr.Forbidden("division is outside your jurisdiction"))
			return
		}
		if req.SubdivisionID != nil {
			sd, err := h.store.GetSubdivision(c.Request.Context(), *req.SubdivisionID)
			if err != nil {
				h.respondError(c, err)
				return
			}
			if !actor.Covers(&sd.DivisionID, &sd.ID) {
				h.respondError(c, apperr.Forbidden("subdivision is outside your jurisdiction"))
				return
			}
		}
	}

	u, err := h.newUser(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.CreateUser(c.Request.Context(), u); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// ListUsers lists active accounts, optionally by ?role=. Division-bound
// Supervisors only see their division.
func (h *Handler) ListUsers(c *gin.Context) {
	var role *model.Role
	if raw := c.Query("role"); raw != "" {
		r := model.Role(raw)
		if !r.Valid() {
			badRequest(c, "unknown role "+raw)
			return
		}
		role = &r
	}

	users, err := h.store.ListUsers(c.Request.Context(), role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	actor := principal(c)
	if actor.Role == model.RoleSupervisor && actor.DivisionID != nil {
		visible := users[:0]
		for _, u := range users {
			if u.DivisionID != nil && *u.DivisionID == *actor.DivisionID {
				visible = append(visible, u)
			}
		}
		users = visible
	}
	c.JSON(http.StatusOK, users)
}
