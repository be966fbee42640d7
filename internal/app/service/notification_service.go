package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/internal/websocket"
	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/kireiworks/cleaning-backend/pkg/line"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// RealtimePusher delivers events to online websocket sessions
type RealtimePusher interface {
	SendToUser(userID uint, event websocket.Event) error
}

// LineSender pushes LINE messages
type LineSender interface {
	Push(ctx context.Context, to string, messages ...line.Message) error
}

type NotificationInput struct {
	Type    model.NotificationType
	Title   string
	Content string
	Link    string
	Payload map[string]interface{}
}

// Notifier fans a notification out to in-app storage, websocket and LINE
type Notifier interface {
	UploadNotifier
	NotifyUsers(ctx context.Context, userIDs []uint, in NotificationInput)
	ApplicationCreated(ctx context.Context, app *model.ClientApplication, facility *model.Facility)
	ApplicationUpdated(ctx context.Context, app *model.ClientApplication, facility *model.Facility)
	// Wait blocks until in-flight LINE deliveries finish
	Wait()
}

type notifier struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	pusher           RealtimePusher
	line             LineSender
	wg               sync.WaitGroup
}

// NewNotifier wires the delivery channels; pusher and lineSender may be nil
func NewNotifier(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository, pusher RealtimePusher, lineSender LineSender) Notifier {
	return &notifier{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pusher:           pusher,
		line:             lineSender,
	}
}

func phaseLabel(phase model.BeforeAfter) string {
	if phase == model.After {
		return "清掃後"
	}
	return "清掃前"
}

func (n *notifier) ImagesUploaded(ctx context.Context, facility *model.Facility, roomType string, phase model.BeforeAfter, cleaningDate time.Time) {
	clients, err := n.userRepo.ListClientsForFacility(facility.ID)
	if err != nil {
		logger.Error("Failed to load facility clients for notification", err, map[string]interface{}{
			"facility_id": facility.Code,
		})
		return
	}

	var ids []uint
	for i := range clients {
		if clients[i].WantsRoom(roomType) {
			ids = append(ids, clients[i].ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	date := jst.FormatDate(cleaningDate)
	n.NotifyUsers(ctx, ids, NotificationInput{
		Type:    model.NotificationImagesUploaded,
		Title:   fmt.Sprintf("%sの清掃写真が登録されました", facility.Name),
		Content: fmt.Sprintf("%s %s の%s写真が登録されました。", date, roomType, phaseLabel(phase)),
		Link:    fmt.Sprintf("/client/facilities/%s/images?date=%s", facility.Code, date),
		Payload: map[string]interface{}{
			"facilityId":   facility.Code,
			"roomType":     roomType,
			"beforeAfter":  string(phase),
			"cleaningDate": date,
		},
	})
}

func (n *notifier) ApplicationCreated(ctx context.Context, app *model.ClientApplication, facility *model.Facility) {
	users, err := n.userRepo.ListByCompany(facility.CompanyID)
	if err != nil {
		logger.Error("Failed to load company users for notification", err, map[string]interface{}{
			"company_id": facility.CompanyID,
		})
		return
	}

	var ids []uint
	for i := range users {
		if users[i].Role != model.RoleClient {
			ids = append(ids, users[i].ID)
		}
	}

	n.NotifyUsers(ctx, ids, NotificationInput{
		Type:    model.NotificationApplicationCreated,
		Title:   fmt.Sprintf("%sから清掃依頼が届きました", facility.Name),
		Content: fmt.Sprintf("%s の清掃依頼が登録されました。", app.RoomType),
		Link:    fmt.Sprintf("/company/applications/%d", app.ID),
		Payload: map[string]interface{}{
			"applicationId": app.ID,
			"facilityId":    facility.Code,
			"roomType":      app.RoomType,
		},
	})
}

var applicationStatusLabels = map[model.ApplicationStatus]string{
	model.ApplicationPending:   "受付待ち",
	model.ApplicationAccepted:  "受付済み",
	model.ApplicationCompleted: "完了",
	model.ApplicationRejected:  "お断り",
}

func (n *notifier) ApplicationUpdated(ctx context.Context, app *model.ClientApplication, facility *model.Facility) {
	n.NotifyUsers(ctx, []uint{app.UserID}, NotificationInput{
		Type:    model.NotificationApplicationUpdated,
		Title:   "清掃依頼のステータスが更新されました",
		Content: fmt.Sprintf("%s %s の依頼は「%s」になりました。", facility.Name, app.RoomType, applicationStatusLabels[app.Status]),
		Link:    fmt.Sprintf("/client/applications/%d", app.ID),
		Payload: map[string]interface{}{
			"applicationId": app.ID,
			"status":        string(app.Status),
		},
	})
}

// NotifyUsers never fails the caller; every delivery problem is logged
func (n *notifier) NotifyUsers(ctx context.Context, userIDs []uint, in NotificationInput) {
	userIDs = dedupeIDs(userIDs)
	if len(userIDs) == 0 {
		return
	}

	var payload datatypes.JSON
	if in.Payload != nil {
		if raw, err := json.Marshal(in.Payload); err == nil {
			payload = datatypes.JSON(raw)
		}
	}

	users, err := n.userRepo.FindByIDs(userIDs)
	if err != nil {
		logger.Error("Failed to load notification recipients", err, map[string]interface{}{
			"count": len(userIDs),
		})
		return
	}

	var lineTargets []string
	for i := range users {
		u := &users[i]
		notification := &model.Notification{
			UserID:  u.ID,
			Type:    in.Type,
			Title:   in.Title,
			Content: in.Content,
			Link:    in.Link,
			Payload: payload,
		}
		if err := n.notificationRepo.Create(notification); err != nil {
			continue
		}

		if n.pusher != nil {
			if err := n.pusher.SendToUser(u.ID, websocket.Event{Type: "notification", Data: notification}); err != nil {
				logger.Warn("Websocket push failed", map[string]interface{}{
					"user_id": u.ID,
					"error":   err.Error(),
				})
			}
		}
		if u.LineUserID != "" {
			lineTargets = append(lineTargets, u.LineUserID)
		}
	}

	logger.Info("Notifications created", map[string]interface{}{
		"type":       in.Type,
		"recipients": len(users),
		"line":       len(lineTargets),
	})

	if n.line == nil || len(lineTargets) == 0 {
		return
	}

	msg := line.TextMessage(in.Title + "\n" + in.Content)
	lineCtx := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for _, to := range lineTargets {
			if err := n.line.Push(lineCtx, to, msg); err != nil {
				logger.Warn("LINE push failed", map[string]interface{}{
					"type":  in.Type,
					"error": err.Error(),
				})
			}
		}
	}()
}

func (n *notifier) Wait() {
	n.wg.Wait()
}

type NotificationList struct {
	Notifications []model.Notification `json:"notifications"`
	Total         int64                `json:"total"`
	Unread        int64                `json:"unread"`
}

type NotificationService interface {
	List(actor util.Identity, unreadOnly bool, limit, offset int) (*NotificationList, error)
	UnreadCount(actor util.Identity) (int64, error)
	MarkRead(actor util.Identity, id uint) error
	MarkAllRead(actor util.Identity) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

// Company accounts are not recipients; they always see an empty inbox
func (s *notificationService) List(actor util.Identity, unreadOnly bool, limit, offset int) (*NotificationList, error) {
	if actor.AccountType != util.AccountTypeUser {
		return &NotificationList{Notifications: []model.Notification{}}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, total, err := s.notificationRepo.ListForUser(actor.AccountID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.notificationRepo.UnreadCount(actor.AccountID)
	if err != nil {
		return nil, err
	}
	return &NotificationList{Notifications: list, Total: total, Unread: unread}, nil
}

func (s *notificationService) UnreadCount(actor util.Identity) (int64, error) {
	if actor.AccountType != util.AccountTypeUser {
		return 0, nil
	}
	return s.notificationRepo.UnreadCount(actor.AccountID)
}

func (s *notificationService) MarkRead(actor util.Identity, id uint) error {
	if actor.AccountType != util.AccountTypeUser {
		return ErrNotificationNotFound
	}
	if err := s.notificationRepo.MarkRead(id, actor.AccountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(actor util.Identity) error {
	if actor.AccountType != util.AccountTypeUser {
		return nil
	}
	return s.notificationRepo.MarkAllRead(actor.AccountID)
}
