package service

import (
	"context"
	"testing"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPassword(t *testing.T, env *testEnv, user *model.User, password string) {
	t.Helper()
	hash, err := util.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, env.db.Model(user).Update("password_hash", hash).Error)
}

func TestAuthService_LoginCompanyAndUser(t *testing.T) {
	env := setupEnv(t)
	svc := env.authService()

	hash, err := util.HashPassword("hq-password")
	require.NoError(t, err)
	require.NoError(t, env.db.Model(env.hq).Update("password_hash", hash).Error)
	setPassword(t, env, env.staff, "staff-password")

	res, err := svc.Login("HQ001", "hq-password")
	require.NoError(t, err)
	assert.Equal(t, util.AccountTypeCompany, res.Account.AccountType)
	assert.Equal(t, "headquarter", res.Account.Role)
	require.NotNil(t, res.Account.CompanyCode)
	assert.Equal(t, "HQ001", *res.Account.CompanyCode)

	res, err = svc.Login("staff01", "staff-password")
	require.NoError(t, err)
	assert.Equal(t, util.AccountTypeUser, res.Account.AccountType)
	assert.NotEmpty(t, res.Tokens.AccessToken)

	_, err = svc.Login("staff01", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody", "whatever1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	env := setupEnv(t)
	svc := env.authService()
	setPassword(t, env, env.staff, "staff-password")
	ctx := context.Background()

	res, err := svc.Login("staff01", "staff-password")
	require.NoError(t, err)
	token := res.Tokens.AccessToken

	claims, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, env.staff.ID, claims.AccountID)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// A fresh login is unaffected
	again, err := svc.Login("staff01", "staff-password")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, again.Tokens.AccessToken)
	assert.NoError(t, err)
}

func TestAuthService_RegisterUser(t *testing.T) {
	env := setupEnv(t)
	svc := env.authService()
	president := util.Identity{AccountID: env.president.ID, AccountType: util.AccountTypeUser, LoginID: "president01", Role: "president", CompanyID: env.president.CompanyID}

	client, err := svc.RegisterUser(president, RegisterUserInput{
		UserID: "client02", Name: "田中", Role: model.RoleClient, Password: "password1",
		FacilityCode: "FAC001", NotifyRoomTypes: []string{model.RoomToilet},
	})
	require.NoError(t, err)
	assert.Equal(t, model.UserTypeClient, client.UserType)
	require.NotNil(t, client.FacilityID)
	assert.Equal(t, env.facility.ID, *client.FacilityID)

	_, err = svc.RegisterUser(president, RegisterUserInput{UserID: "client02", Name: "x", Role: model.RoleStaff, Password: "password1"})
	assert.ErrorIs(t, err, ErrLoginIDExists)

	_, err = svc.RegisterUser(president, RegisterUserInput{UserID: "HQ001", Name: "x", Role: model.RoleStaff, Password: "password1"})
	assert.ErrorIs(t, err, ErrLoginIDExists, "company login ids are reserved too")

	_, err = svc.RegisterUser(president, RegisterUserInput{UserID: "client03", Name: "x", Role: model.RoleClient, Password: "password1", FacilityCode: "FAC101"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.RegisterUser(env.staffIdentity(), RegisterUserInput{UserID: "staff02", Name: "x", Role: model.RoleStaff, Password: "password1"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.RegisterUser(president, RegisterUserInput{UserID: "staff02", Name: "x", Role: model.RoleStaff, Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthService_RegisterCompanyIsHeadquarterOnly(t *testing.T) {
	env := setupEnv(t)
	svc := env.authService()
	in := RegisterCompanyInput{CompanyID: "BR002", Name: "福岡支社", Role: model.CompanyRoleBranch, Password: "password1"}

	_, err := svc.RegisterCompany(env.branchAccount(), in)
	assert.ErrorIs(t, err, ErrForbidden)

	company, err := svc.RegisterCompany(env.hqAccount(), in)
	require.NoError(t, err)
	assert.Equal(t, "BR002", company.Code)

	_, err = svc.RegisterCompany(env.hqAccount(), in)
	assert.ErrorIs(t, err, ErrLoginIDExists)
}
