package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/notify"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
)

// Notice one message to a candidate
type Notice struct {
	Recipient   *model.Candidate
	Template    string
	Data        map[string]any
	RelatedType string // job_offer | time_sheet
	RelatedID   string
}

// Notifier sends candidate messages. Delivery is fire-and-forget: failures are recorded on the
// outbox row and logged, never returned. The result is the outbox row id, empty when nothing was stored.
type Notifier interface {
	Notify(ctx context.Context, n Notice) string
}

type notificationService struct {
	repo     *repository.Repository
	renderer *notify.Renderer
	sender   notify.Sender
	fallback notify.Sender
	logger   *zap.Logger
}

// NewNotificationService creates the Notifier. Candidates without a chat id go to the log channel.
func NewNotificationService(repo *repository.Repository, renderer *notify.Renderer, sender notify.Sender, logger *zap.Logger) Notifier {
	fallback := notify.NewLogSender(logger)
	if sender == nil {
		sender = fallback
	}
	return &notificationService{
		repo:     repo,
		renderer: renderer,
		sender:   sender,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, n Notice) string {
	if n.Recipient == nil {
		s.logger.Warn("notification without recipient dropped", zap.String("template", n.Template))
		return ""
	}

	text, err := s.renderer.Render(n.Template, n.Data)
	if err != nil {
		s.logger.Error("render notification failed", zap.String("template", n.Template), zap.Error(err))
		return ""
	}

	sender, chatID := s.fallback, int64(0)
	if n.Recipient.TelegramChatID != nil {
		sender, chatID = s.sender, *n.Recipient.TelegramChatID
	}

	row := &model.Notification{
		RecipientID: n.Recipient.CandidateID,
		Template:    n.Template,
		Channel:     sender.Channel(),
		Content:     text,
		Status:      model.NotificationQueued,
	}
	if raw, err := json.Marshal(n.Data); err == nil {
		row.Context = datatypes.JSON(raw)
	}
	if n.RelatedType != "" {
		relType, relID := n.RelatedType, n.RelatedID
		row.RelatedType, row.RelatedID = &relType, &relID
	}
	if err := s.repo.Notification.Create(ctx, row); err != nil {
		s.logger.Error("store notification failed", zap.String("template", n.Template), zap.Error(err))
		return ""
	}

	if err := sender.Send(ctx, chatID, text); err != nil {
		s.logger.Warn("deliver notification failed",
			zap.String("notification_id", row.NotificationID),
			zap.String("channel", sender.Channel()),
			zap.Error(err),
		)
		if uerr := s.repo.Notification.UpdateStatus(ctx, row.NotificationID, model.NotificationFailed, truncate(err.Error(), 500), nil); uerr != nil {
			s.logger.Error("mark notification failed", zap.Error(uerr))
		}
		return row.NotificationID
	}

	now := time.Now().UTC()
	if err := s.repo.Notification.UpdateStatus(ctx, row.NotificationID, model.NotificationSent, "", &now); err != nil {
		s.logger.Error("mark notification sent", zap.Error(err))
	}
	return row.NotificationID
}

// noticeData is the common template context for a shift message
func noticeData(c *model.Candidate, shift *model.Shift, start time.Time) map[string]any {
	data := map[string]any{"Start": start}
	if c != nil {
		data["Name"] = c.FirstName
	}
	if shift != nil && shift.ShiftDate != nil && shift.ShiftDate.Job != nil {
		data["Position"] = shift.ShiftDate.Job.Position
		if shift.ShiftDate.Job.Jobsite != nil {
			data["Site"] = shift.ShiftDate.Job.Jobsite.Name
		}
	}
	return data
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
