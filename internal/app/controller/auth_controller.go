package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type LoginRequest struct {
	// 会社IDまたはユーザーID
	LoginID  string `json:"loginId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterCompanyRequest struct {
	CompanyID string `json:"companyId" binding:"required,max=64"`
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=headquarter branch"`
	Address   string `json:"address"`
	Password  string `json:"password" binding:"required"`
}

type RegisterUserRequest struct {
	UserID          string   `json:"userId" binding:"required,max=64"`
	Name            string   `json:"name" binding:"required"`
	Role            string   `json:"role" binding:"required,oneof=president staff client"`
	Password        string   `json:"password" binding:"required"`
	Address         string   `json:"address"`
	LineUserID      string   `json:"lineUserId"`
	FacilityID      string   `json:"facilityId"`
	NotifyRoomTypes []string `json:"notifyRoomTypes"`
}

// Login issues a token pair for a company or user account
// POST /api/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "IDとパスワードを入力してください")
		return
	}

	result, err := ctrl.authService.Login(req.LoginID, req.Password)
	if err != nil {
		respondError(c, log, err, "login")
		return
	}

	log.Info("Login succeeded", map[string]interface{}{
		"login_id":     result.Account.LoginID,
		"account_type": result.Account.AccountType,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "ログインしました",
		"user":    result.Account,
		"token":   result.Tokens.AccessToken,
		"tokens":  result.Tokens,
	})
}

// Logout revokes the presented token
// POST /api/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token, ok := middleware.GetToken(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, log, err, "logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "ログアウトしました",
	})
}

// Verify returns the claims of the bearer token
// GET /api/auth/verify
func (ctrl *AuthController) Verify(c *gin.Context) {
	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user": gin.H{
			"id":          identity.AccountID,
			"loginId":     identity.LoginID,
			"accountType": identity.AccountType,
			"role":        identity.Role,
			"companyId":   identity.CompanyID,
			"facilityId":  identity.FacilityID,
		},
	})
}

// RegisterCompany creates a headquarter or branch account
// POST /api/auth/companies
func (ctrl *AuthController) RegisterCompany(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var req RegisterCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid company registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	company, err := ctrl.authService.RegisterCompany(identity, service.RegisterCompanyInput{
		CompanyID: req.CompanyID,
		Name:      req.Name,
		Role:      model.CompanyRole(req.Type),
		Address:   req.Address,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, log, err, "create company")
		return
	}

	log.Info("Company registered", map[string]interface{}{
		"company_id": company.Code,
		"type":       company.Role,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "会社を登録しました",
		"company": service.CompanySummary{
			ID:        company.ID,
			CompanyID: company.Code,
			Name:      company.Name,
			Type:      string(company.Role),
			Address:   company.Address,
		},
	})
}

// RegisterUser adds a staff, president or client user to the caller's company
// POST /api/auth/users
func (ctrl *AuthController) RegisterUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid user registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	user, err := ctrl.authService.RegisterUser(identity, service.RegisterUserInput{
		UserID:          req.UserID,
		Name:            req.Name,
		Role:            model.UserRole(req.Role),
		Password:        req.Password,
		Address:         req.Address,
		LineUserID:      req.LineUserID,
		FacilityCode:    req.FacilityID,
		NotifyRoomTypes: req.NotifyRoomTypes,
	})
	if err != nil {
		respondError(c, log, err, "create user")
		return
	}

	log.Info("User registered", map[string]interface{}{
		"user_id": user.Code,
		"role":    user.Role,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "ユーザーを登録しました",
		"user":    user,
	})
}
