package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/earlylookhq/earlylook/internal/auth"
	"github.com/earlylookhq/earlylook/internal/models"
	"github.com/earlylookhq/earlylook/internal/services"
	"github.com/earlylookhq/earlylook/pkg/response"
)

// AuthHandler manages registration and login flows.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type registerIssuerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required"`
	OrgName     string `json:"org_name" validate:"required"`
}

type registerInvestorRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	DisplayName  string `json:"display_name" validate:"required"`
	InvestorType string `json:"investor_type"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// POST /api/auth/register/issuer
func (h *AuthHandler) RegisterIssuer(c *gin.Context) {
	var req registerIssuerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.RegisterIssuer(requestContext(c), services.RegisterIssuerInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		OrgName:     req.OrgName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// POST /api/auth/register/investor
func (h *AuthHandler) RegisterInvestor(c *gin.Context) {
	var req registerInvestorRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.RegisterInvestor(requestContext(c), services.RegisterInvestorInput{
		Email:        req.Email,
		Password:     req.Password,
		DisplayName:  req.DisplayName,
		InvestorType: models.InvestorType(req.InvestorType),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tokens": tokenResponse{AccessToken: token},
		"user": gin.H{
			"id":           user.ID,
			"email":        user.Email,
			"role":         user.Role,
			"display_name": user.DisplayName,
		},
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}
