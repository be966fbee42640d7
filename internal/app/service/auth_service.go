package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/redis"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid login id or password")
	ErrLoginIDExists      = errors.New("login id already exists")
	ErrTokenRevoked       = util.ErrRevokedToken
	ErrCompanyNotFound    = errors.New("company not found")
	ErrWeakPassword       = errors.New("password does not meet requirements")
)

// Account is the logged-in principal as returned to clients
type Account struct {
	ID          uint    `json:"id"`
	LoginID     string  `json:"loginId"`
	Name        string  `json:"name"`
	AccountType string  `json:"accountType"`
	Role        string  `json:"role"`
	CompanyID   *uint   `json:"companyId,omitempty"`
	FacilityID  *uint   `json:"facilityId,omitempty"`
	CompanyCode *string `json:"companyCode,omitempty"`
}

type LoginResult struct {
	Account Account         `json:"user"`
	Tokens  *util.TokenPair `json:"tokens"`
}

type RegisterCompanyInput struct {
	CompanyID string
	Name      string
	Role      model.CompanyRole
	Address   string
	Password  string
}

type RegisterUserInput struct {
	UserID          string
	Name            string
	Role            model.UserRole
	Password        string
	Address         string
	LineUserID      string
	FacilityCode    string // required for clients
	NotifyRoomTypes []string
}

type AuthService interface {
	Login(loginID, password string) (*LoginResult, error)
	RegisterCompany(actor util.Identity, in RegisterCompanyInput) (*model.Company, error)
	RegisterUser(actor util.Identity, in RegisterUserInput) (*model.User, error)
	// Verify validates the token signature, expiry and revocation
	Verify(ctx context.Context, token string) (*util.Claims, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	companyRepo   repository.CompanyRepository
	userRepo      repository.UserRepository
	facilityRepo  repository.FacilityRepository
	blacklist     redis.Blacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	facilityRepo repository.FacilityRepository,
	blacklist redis.Blacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		companyRepo:   companyRepo,
		userRepo:      userRepo,
		facilityRepo:  facilityRepo,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// Login accepts either a company ID (headquarter/branch account) or a user ID
func (s *authService) Login(loginID, password string) (*LoginResult, error) {
	loginID = strings.TrimSpace(loginID)
	logger.Info("Login attempt", map[string]interface{}{
		"login_id": loginID,
	})

	if loginID == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	company, err := s.companyRepo.FindByCompanyID(loginID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to look up company", err, map[string]interface{}{
			"login_id": loginID,
		})
		return nil, err
	}
	if company != nil {
		if !util.VerifyPassword(company.PasswordHash, password) {
			logger.Warn("Login failed: invalid password", map[string]interface{}{
				"login_id": loginID,
				"type":     util.AccountTypeCompany,
			})
			return nil, ErrInvalidCredentials
		}
		return s.issue(companyAccount(company))
	}

	user, err := s.userRepo.FindByUserID(loginID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: unknown login id", map[string]interface{}{
				"login_id": loginID,
			})
			return nil, ErrInvalidCredentials
		}
		logger.Error("Failed to look up user", err, map[string]interface{}{
			"login_id": loginID,
		})
		return nil, err
	}
	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"login_id": loginID,
			"type":     util.AccountTypeUser,
		})
		return nil, ErrInvalidCredentials
	}
	return s.issue(userAccount(user))
}

func (s *authService) issue(account Account) (*LoginResult, error) {
	tokens, err := util.GenerateTokenPair(util.Identity{
		AccountID:   account.ID,
		AccountType: account.AccountType,
		LoginID:     account.LoginID,
		Role:        account.Role,
		CompanyID:   account.CompanyID,
		FacilityID:  account.FacilityID,
	}, s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"login_id": account.LoginID,
		})
		return nil, err
	}

	logger.Info("Login succeeded", map[string]interface{}{
		"login_id":     account.LoginID,
		"account_type": account.AccountType,
		"role":         account.Role,
	})
	return &LoginResult{Account: account, Tokens: tokens}, nil
}

func companyAccount(c *model.Company) Account {
	id := c.ID
	code := c.Code
	return Account{
		ID:          c.ID,
		LoginID:     c.Code,
		Name:        c.Name,
		AccountType: util.AccountTypeCompany,
		Role:        string(c.Role),
		CompanyID:   &id,
		CompanyCode: &code,
	}
}

func userAccount(u *model.User) Account {
	return Account{
		ID:          u.ID,
		LoginID:     u.Code,
		Name:        u.Name,
		AccountType: util.AccountTypeUser,
		Role:        string(u.Role),
		CompanyID:   u.CompanyID,
		FacilityID:  u.FacilityID,
	}
}

func (s *authService) RegisterCompany(actor util.Identity, in RegisterCompanyInput) (*model.Company, error) {
	logger.Info("Registering company", map[string]interface{}{
		"company_id": in.CompanyID,
		"role":       in.Role,
		"actor":      actor.LoginID,
	})

	if !isHeadquarter(actor) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(in.CompanyID) == "" || strings.TrimSpace(in.Name) == "" || !in.Role.IsValid() {
		return nil, ErrInvalidInput
	}
	if err := util.ValidatePassword(in.Password); err != nil {
		return nil, ErrWeakPassword
	}

	if existing, err := s.companyRepo.FindByCompanyID(in.CompanyID); err == nil && existing != nil {
		return nil, ErrLoginIDExists
	}
	if existing, err := s.userRepo.FindByUserID(in.CompanyID); err == nil && existing != nil {
		return nil, ErrLoginIDExists
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	company := &model.Company{
		Code:         strings.TrimSpace(in.CompanyID),
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		Address:      in.Address,
		PasswordHash: hash,
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, err
	}

	if in.Role == model.CompanyRoleHeadquarter {
		// Only one headquarter is expected; not enforced
		logger.Warn("Additional headquarter company registered", map[string]interface{}{
			"company_id": company.Code,
		})
	}
	return company, nil
}

// RegisterUser lets a president (or a company account) add staff and clients to their own company
func (s *authService) RegisterUser(actor util.Identity, in RegisterUserInput) (*model.User, error) {
	logger.Info("Registering user", map[string]interface{}{
		"user_id": in.UserID,
		"role":    in.Role,
		"actor":   actor.LoginID,
	})

	if !canManageUsers(actor) || actor.CompanyID == nil {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.Name) == "" || !in.Role.IsValid() {
		return nil, ErrInvalidInput
	}
	for _, r := range in.NotifyRoomTypes {
		if !model.IsValidRoomType(r) {
			return nil, ErrInvalidRoomType
		}
	}
	if err := util.ValidatePassword(in.Password); err != nil {
		return nil, ErrWeakPassword
	}

	if existing, err := s.userRepo.FindByUserID(in.UserID); err == nil && existing != nil {
		return nil, ErrLoginIDExists
	}
	if existing, err := s.companyRepo.FindByCompanyID(in.UserID); err == nil && existing != nil {
		return nil, ErrLoginIDExists
	}

	user := &model.User{
		Code:            strings.TrimSpace(in.UserID),
		Name:            strings.TrimSpace(in.Name),
		Role:            in.Role,
		Address:         in.Address,
		LineUserID:      in.LineUserID,
		NotifyRoomTypes: in.NotifyRoomTypes,
	}

	if in.Role == model.RoleClient {
		if in.FacilityCode == "" {
			return nil, ErrInvalidInput
		}
		facility, err := s.facilityRepo.FindByFacilityID(in.FacilityCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFacilityNotFound
			}
			return nil, err
		}
		if !canAccessFacility(actor, facility) {
			return nil, ErrForbidden
		}
		user.UserType = model.UserTypeClient
		user.FacilityID = &facility.ID
	} else {
		user.UserType = model.UserTypeCompany
		companyID := *actor.CompanyID
		user.CompanyID = &companyID
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) Verify(ctx context.Context, token string) (*util.Claims, error) {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if s.blacklist != nil && claims.ID != "" {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Fail closed
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Logout revokes the token until its natural expiry. Expired tokens are accepted silently.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil
		}
		return err
	}
	if s.blacklist == nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{
			"login_id": claims.LoginID,
		})
		return err
	}

	logger.Info("Logged out", map[string]interface{}{
		"login_id": claims.LoginID,
	})
	return nil
}
