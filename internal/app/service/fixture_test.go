package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/db"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	"github.com/kireiworks/cleaning-backend/internal/websocket"
	"github.com/kireiworks/cleaning-backend/pkg/line"
	"github.com/kireiworks/cleaning-backend/pkg/redis"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type fakeLine struct {
	mu   sync.Mutex
	sent map[string][]line.Message
}

func (f *fakeLine) Push(ctx context.Context, to string, messages ...line.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string][]line.Message)
	}
	f.sent[to] = append(f.sent[to], messages...)
	return nil
}

func (f *fakeLine) count(to string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent[to])
}

type fakePusher struct {
	mu     sync.Mutex
	events map[uint][]websocket.Event
}

func (f *fakePusher) SendToUser(userID uint, event websocket.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = make(map[uint][]websocket.Event)
	}
	f.events[userID] = append(f.events[userID], event)
	return nil
}

type recordingNotifier struct {
	calls []string
}

func (r *recordingNotifier) ImagesUploaded(ctx context.Context, facility *model.Facility, roomType string, phase model.BeforeAfter, cleaningDate time.Time) {
	r.calls = append(r.calls, facility.Code+"/"+roomType+"/"+string(phase))
}

type testEnv struct {
	db    *gorm.DB
	store *storage.MemoryStorage

	companies     repository.CompanyRepository
	users         repository.UserRepository
	facilities    repository.FacilityRepository
	records       repository.CleaningRecordRepository
	images        repository.CleaningImageRepository
	receipts      repository.ReceiptRepository
	outbox        repository.BlobDeletionRepository
	notifications repository.NotificationRepository
	applications  repository.ClientApplicationRepository

	cleaner BlobCleaner

	hq, branch          *model.Company
	facility, branchFac *model.Facility
	president, staff    *model.User
	client              *model.User
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		db:            testDB,
		store:         storage.NewMemoryStorage("test-bucket"),
		companies:     repository.NewCompanyRepository(testDB),
		users:         repository.NewUserRepository(testDB),
		facilities:    repository.NewFacilityRepository(testDB),
		records:       repository.NewCleaningRecordRepository(testDB),
		images:        repository.NewCleaningImageRepository(testDB),
		receipts:      repository.NewReceiptRepository(testDB),
		outbox:        repository.NewBlobDeletionRepository(testDB),
		notifications: repository.NewNotificationRepository(testDB),
		applications:  repository.NewClientApplicationRepository(testDB),
	}
	env.cleaner = NewBlobCleaner(env.outbox, env.store)

	env.hq = &model.Company{Code: "HQ001", Name: "本社", Role: model.CompanyRoleHeadquarter, PasswordHash: "x"}
	env.branch = &model.Company{Code: "BR001", Name: "大阪支社", Role: model.CompanyRoleBranch, PasswordHash: "x"}
	require.NoError(t, env.companies.Create(env.hq))
	require.NoError(t, env.companies.Create(env.branch))

	env.facility = &model.Facility{Code: "FAC001", Name: "渋谷ハウス", Address: "東京都渋谷区", CompanyID: env.hq.ID}
	env.branchFac = &model.Facility{Code: "FAC101", Name: "梅田ハウス", CompanyID: env.branch.ID}
	require.NoError(t, env.facilities.Create(env.facility))
	require.NoError(t, env.facilities.Create(env.branchFac))

	env.president = &model.User{Code: "president01", Name: "社長", Role: model.RolePresident, UserType: model.UserTypeCompany, CompanyID: &env.hq.ID, PasswordHash: "x"}
	env.staff = &model.User{Code: "staff01", Name: "山田", Role: model.RoleStaff, UserType: model.UserTypeCompany, CompanyID: &env.hq.ID, LineUserID: "U-staff", PasswordHash: "x"}
	env.client = &model.User{Code: "client01", Name: "佐藤", Role: model.RoleClient, UserType: model.UserTypeClient, FacilityID: &env.facility.ID, LineUserID: "U-client", PasswordHash: "x"}
	for _, u := range []*model.User{env.president, env.staff, env.client} {
		require.NoError(t, env.users.Create(u))
	}
	return env
}

func (e *testEnv) hqAccount() util.Identity {
	id := e.hq.ID
	return util.Identity{AccountID: e.hq.ID, AccountType: util.AccountTypeCompany, LoginID: e.hq.Code, Role: string(model.CompanyRoleHeadquarter), CompanyID: &id}
}

func (e *testEnv) branchAccount() util.Identity {
	id := e.branch.ID
	return util.Identity{AccountID: e.branch.ID, AccountType: util.AccountTypeCompany, LoginID: e.branch.Code, Role: string(model.CompanyRoleBranch), CompanyID: &id}
}

func (e *testEnv) staffIdentity() util.Identity {
	return util.Identity{AccountID: e.staff.ID, AccountType: util.AccountTypeUser, LoginID: e.staff.Code, Role: string(model.RoleStaff), CompanyID: e.staff.CompanyID}
}

func (e *testEnv) clientIdentity() util.Identity {
	return util.Identity{AccountID: e.client.ID, AccountType: util.AccountTypeUser, LoginID: e.client.Code, Role: string(model.RoleClient), FacilityID: e.client.FacilityID}
}

func (e *testEnv) imageService(notifier UploadNotifier) CleaningImageService {
	return NewCleaningImageService(e.db, e.images, e.records, e.facilities, e.outbox, e.store, e.cleaner, notifier, 1<<20)
}

func (e *testEnv) receiptService() ReceiptService {
	return NewReceiptService(e.db, e.receipts, e.facilities, e.outbox, e.store, e.cleaner, 1<<20)
}

func (e *testEnv) authService() AuthService {
	return NewAuthService(e.companies, e.users, e.facilities, redis.NewMemoryBlacklist(), testSecret, time.Hour, 24*time.Hour)
}

// record returns the cleaning record for FAC001/トイレ/2024-03-15
func (e *testEnv) record(t *testing.T) uint {
	t.Helper()
	res, err := NewCleaningRecordService(e.records, e.facilities).FindOrCreate(e.staffIdentity(), FindOrCreateInput{
		FacilityID:   "FAC001",
		RoomType:     model.RoomToilet,
		CleaningDate: "2024-03-15",
	})
	require.NoError(t, err)
	return res.RecordID
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}

// pdfBytes is the smallest header mimetype recognises as a PDF
func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
}
