package controller

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	"github.com/kireiworks/cleaning-backend/internal/db"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	ws "github.com/kireiworks/cleaning-backend/internal/websocket"
	"github.com/kireiworks/cleaning-backend/pkg/redis"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret"
	testPassword = "password123"
)

type testAPI struct {
	router *gin.Engine
	store  *storage.MemoryStorage

	hq       *model.Company
	branch   *model.Company
	facility *model.Facility
	staff    *model.User
	client   *model.User
}

// setupAPI wires real services over an in-memory database and mounts the same
// routes the server uses
func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	companyRepo := repository.NewCompanyRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	facilityRepo := repository.NewFacilityRepository(testDB)
	recordRepo := repository.NewCleaningRecordRepository(testDB)
	imageRepo := repository.NewCleaningImageRepository(testDB)
	receiptRepo := repository.NewReceiptRepository(testDB)
	outbox := repository.NewBlobDeletionRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)
	applicationRepo := repository.NewClientApplicationRepository(testDB)
	guidelineRepo := repository.NewCleaningGuidelineRepository(testDB)

	store := storage.NewMemoryStorage("test-bucket")
	cleaner := service.NewBlobCleaner(outbox, store)
	notifier := service.NewNotifier(notificationRepo, userRepo, nil, nil)
	t.Cleanup(notifier.Wait)

	authService := service.NewAuthService(companyRepo, userRepo, facilityRepo, redis.NewMemoryBlacklist(), testSecret, time.Hour, 24*time.Hour)
	const maxBytes = 1 << 20

	authCtrl := NewAuthController(authService)
	companyCtrl := NewCompanyController(
		service.NewCompanyService(companyRepo, facilityRepo),
		service.NewHierarchyService(imageRepo, companyRepo, facilityRepo),
	)
	cleaningCtrl := NewCleaningController(
		service.NewCleaningRecordService(recordRepo, facilityRepo),
		service.NewCleaningImageService(testDB, imageRepo, recordRepo, facilityRepo, outbox, store, cleaner, notifier, maxBytes),
		maxBytes,
	)
	receiptCtrl := NewReceiptController(service.NewReceiptService(testDB, receiptRepo, facilityRepo, outbox, store, cleaner, maxBytes), maxBytes)
	applicationCtrl := NewClientApplicationController(service.NewClientApplicationService(applicationRepo, facilityRepo, notifier))
	guidelineCtrl := NewGuidelineController(service.NewGuidelineService(guidelineRepo))
	uploadCtrl := NewUploadController(service.NewSignedURLService(store, facilityRepo, 0))
	notificationCtrl := NewNotificationController(service.NewNotificationService(notificationRepo), ws.NewHub(), nil)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	r := gin.New()
	api := r.Group("/api/auth")
	api.POST("/login", authCtrl.Login)
	p := api.Group("", authMiddleware.Authenticate())
	p.POST("/logout", authCtrl.Logout)
	p.GET("/verify", authCtrl.Verify)
	p.POST("/users", authMiddleware.RequireRole(apperrors.AuthzPresidentOnly, "president", "headquarter", "branch"), authCtrl.RegisterUser)
	p.GET("/companies", companyCtrl.ListCompanies)
	p.POST("/companies", authMiddleware.RequireRole(apperrors.AuthzHeadquarterOnly, "headquarter"), authCtrl.RegisterCompany)
	p.GET("/companies/:companyId/facilities", companyCtrl.ListFacilities)
	p.POST("/companies/:companyId/facilities", companyCtrl.CreateFacility)
	p.GET("/company/uploads/hierarchy", companyCtrl.GetUploadHierarchy)
	p.GET("/facilities/:facilityId/receipts", receiptCtrl.ListReceipts)
	p.POST("/facilities/:facilityId/receipts", receiptCtrl.UploadReceipt)
	p.GET("/facilities/:facilityId/receipts/export", receiptCtrl.ExportReceipts)
	p.POST("/cleaning-records/find-or-create", cleaningCtrl.FindOrCreateRecord)
	p.POST("/cleaning-images/upload", cleaningCtrl.UploadImage)
	p.POST("/cleaning-images/batch-delete", cleaningCtrl.BatchDeleteImages)
	p.DELETE("/cleaning-images/batch", cleaningCtrl.BatchDeleteImages)
	p.PATCH("/cleaning-images/:id", cleaningCtrl.ReplaceImage)
	p.DELETE("/cleaning-images/:id", cleaningCtrl.DeleteImage)
	p.DELETE("/receipts/:id", receiptCtrl.DeleteReceipt)
	p.POST("/receipts/batch-delete", receiptCtrl.BatchDeleteReceipts)
	p.POST("/uploads/signed-url", uploadCtrl.SignedUploadURL)
	p.GET("/uploads/signed-read", uploadCtrl.SignedReadURL)
	p.POST("/client-applications", applicationCtrl.CreateApplication)
	p.GET("/client-applications", applicationCtrl.ListApplications)
	p.PATCH("/client-applications/:id/status", applicationCtrl.UpdateApplicationStatus)
	p.GET("/guidelines", guidelineCtrl.ListGuidelines)
	p.GET("/notifications", notificationCtrl.ListNotifications)
	p.GET("/notifications/unread-count", notificationCtrl.UnreadCount)
	p.PUT("/notifications/read-all", notificationCtrl.MarkAllRead)
	p.PUT("/notifications/:id/read", notificationCtrl.MarkRead)

	hash, err := util.HashPassword(testPassword)
	require.NoError(t, err)

	env := &testAPI{router: r, store: store}
	env.hq = &model.Company{Code: "HQ001", Name: "本社", Role: model.CompanyRoleHeadquarter, PasswordHash: hash}
	env.branch = &model.Company{Code: "BR001", Name: "大阪支社", Role: model.CompanyRoleBranch, PasswordHash: hash}
	require.NoError(t, companyRepo.Create(env.hq))
	require.NoError(t, companyRepo.Create(env.branch))

	env.facility = &model.Facility{Code: "FAC001", Name: "渋谷ハウス", Address: "東京都渋谷区", CompanyID: env.hq.ID}
	require.NoError(t, facilityRepo.Create(env.facility))
	require.NoError(t, facilityRepo.Create(&model.Facility{Code: "FAC101", Name: "梅田ハウス", CompanyID: env.branch.ID}))

	env.staff = &model.User{Code: "staff01", Name: "山田", Role: model.RoleStaff, UserType: model.UserTypeCompany, CompanyID: &env.hq.ID, PasswordHash: hash}
	env.client = &model.User{Code: "client01", Name: "佐藤", Role: model.RoleClient, UserType: model.UserTypeClient, FacilityID: &env.facility.ID, PasswordHash: hash}
	require.NoError(t, userRepo.Create(env.staff))
	require.NoError(t, userRepo.Create(env.client))

	return env
}

func (a *testAPI) token(t *testing.T, id util.Identity) string {
	t.Helper()
	pair, err := util.GenerateTokenPair(id, testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return pair.AccessToken
}

func (a *testAPI) hqToken(t *testing.T) string {
	id := a.hq.ID
	return a.token(t, util.Identity{AccountID: a.hq.ID, AccountType: util.AccountTypeCompany, LoginID: a.hq.Code, Role: string(model.CompanyRoleHeadquarter), CompanyID: &id})
}

func (a *testAPI) branchToken(t *testing.T) string {
	id := a.branch.ID
	return a.token(t, util.Identity{AccountID: a.branch.ID, AccountType: util.AccountTypeCompany, LoginID: a.branch.Code, Role: string(model.CompanyRoleBranch), CompanyID: &id})
}

func (a *testAPI) staffToken(t *testing.T) string {
	return a.token(t, util.Identity{AccountID: a.staff.ID, AccountType: util.AccountTypeUser, LoginID: a.staff.Code, Role: string(model.RoleStaff), CompanyID: a.staff.CompanyID})
}

func (a *testAPI) clientToken(t *testing.T) string {
	return a.token(t, util.Identity{AccountID: a.client.ID, AccountType: util.AccountTypeUser, LoginID: a.client.Code, Role: string(model.RoleClient), FacilityID: a.client.FacilityID})
}

func (a *testAPI) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, token)
}

// doMultipart sends fields plus one file part named fileField
func (a *testAPI) doMultipart(t *testing.T, method, path, token, fileField, fileName, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req, token)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.RGBA{B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
