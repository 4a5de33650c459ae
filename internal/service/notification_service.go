package service

import (
	"context"
	"fmt"
	"net/smtp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/model"
	"github.com/d60-Lab/tailorshop/pkg/logger"
)

// Mailer sends a single email. Implementations must be safe for concurrent
// use by dispatcher workers.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := []byte("From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
}

// NotificationService enqueues outbox rows inside business transactions and
// runs the post-commit dispatcher that delivers them.
type NotificationService struct {
	db     *gorm.DB
	mailer Mailer
	cfg    config.DispatcherConfig

	stopOnce sync.Once
	stop     chan struct{}
	done     sync.WaitGroup
}

func NewNotificationService(db *gorm.DB, mailer Mailer, cfg config.DispatcherConfig) *NotificationService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ClaimLimit <= 0 {
		cfg.ClaimLimit = 64
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &NotificationService{db: db, mailer: mailer, cfg: cfg, stop: make(chan struct{})}
}

// EnqueueTx writes one QUEUED outbox row in the caller's transaction. The row
// becomes visible to the dispatcher only when the transaction commits.
func (s *NotificationService) EnqueueTx(tx *gorm.DB, notifType, recipientID, email, subject, body string, orderID *string) error {
	return tx.Create(&model.Notification{
		ID:             uuid.New().String(),
		Type:           notifType,
		RecipientID:    recipientID,
		RecipientEmail: email,
		Subject:        subject,
		Body:           body,
		OrderID:        orderID,
		Status:         model.NotificationQueued,
	}).Error
}

// EnqueueOrderConfirmationTx builds the booking confirmation message.
func (s *NotificationService) EnqueueOrderConfirmationTx(tx *gorm.DB, order *model.Order, recipientID, email, name string) error {
	subject := fmt.Sprintf("Order %s confirmed", order.OrderNumber)
	body := fmt.Sprintf("Dear %s,\n\nYour order %s has been booked. Expected delivery: %s.\n\nThank you.",
		name, order.OrderNumber, order.ExpectedDeliveryDate.Format("2006-01-02"))
	return s.EnqueueTx(tx, model.NotifyOrderConfirmation, recipientID, email, subject, body, &order.ID)
}

// EnqueueStatusUpdateTx builds the generic status change message, or the
// ready-for-pickup variant when the order reaches ready.
func (s *NotificationService) EnqueueStatusUpdateTx(tx *gorm.DB, order *model.Order, recipientID, email, name, newStatus string) error {
	notifType := model.NotifyOrderStatusUpdate
	subject := fmt.Sprintf("Order %s update", order.OrderNumber)
	body := fmt.Sprintf("Dear %s,\n\nYour order %s is now %s.\n\nThank you.", name, order.OrderNumber, newStatus)
	if newStatus == model.StatusReady {
		notifType = model.NotifyOrderReady
		subject = fmt.Sprintf("Order %s is ready for pickup", order.OrderNumber)
		body = fmt.Sprintf("Dear %s,\n\nYour order %s is ready. Please visit the shop to collect it.\n\nThank you.",
			name, order.OrderNumber)
	}
	return s.EnqueueTx(tx, notifType, recipientID, email, subject, body, &order.ID)
}

// EnqueuePaymentSuccessTx builds the payment receipt message.
func (s *NotificationService) EnqueuePaymentSuccessTx(tx *gorm.DB, invoice *model.Invoice, recipientID string, amount float64) error {
	subject := fmt.Sprintf("Payment received for invoice %s", invoice.InvoiceNumber)
	body := fmt.Sprintf("Dear %s,\n\nWe received your payment of %.2f against invoice %s.\n\nThank you.",
		invoice.CustomerName, amount, invoice.InvoiceNumber)
	return s.EnqueueTx(tx, model.NotifyPaymentSuccess, recipientID, invoice.CustomerEmail, subject, body, nil)
}

// EnqueueTrialScheduledTx builds the fitting appointment message.
func (s *NotificationService) EnqueueTrialScheduledTx(tx *gorm.DB, order *model.Order, recipientID, email, name string, trialDate time.Time) error {
	subject := fmt.Sprintf("Trial scheduled for order %s", order.OrderNumber)
	body := fmt.Sprintf("Dear %s,\n\nA trial for your order %s is scheduled on %s.\n\nThank you.",
		name, order.OrderNumber, trialDate.Format("2006-01-02"))
	return s.EnqueueTx(tx, model.NotifyTrialScheduled, recipientID, email, subject, body, &order.ID)
}

// StartDispatcher launches the polling workers. Each worker claims a batch of
// QUEUED rows in a transaction, then delivers outside it; delivery failures
// are retried up to MaxAttempts and then marked FAILED, never propagated.
func (s *NotificationService) StartDispatcher(ctx context.Context) {
	for i := 0; i < s.cfg.Workers; i++ {
		s.done.Add(1)
		go s.runWorker(ctx, i)
	}
}

// StopDispatcher signals the workers and waits for them to drain.
func (s *NotificationService) StopDispatcher() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.done.Wait()
}

func (s *NotificationService) runWorker(ctx context.Context, id int) {
	defer s.done.Done()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.dispatchBatch(ctx); err != nil {
				logger.Error("notification batch failed", zap.Int("worker", id), zap.Error(err))
			}
		}
	}
}

// DispatchPending processes one batch immediately. Used by tests and by the
// workers' tick.
func (s *NotificationService) DispatchPending(ctx context.Context) (int, error) {
	claimed, err := s.claimBatch(ctx)
	if err != nil {
		return 0, err
	}
	for i := range claimed {
		s.deliver(ctx, &claimed[i])
	}
	return len(claimed), nil
}

func (s *NotificationService) dispatchBatch(ctx context.Context) error {
	_, err := s.DispatchPending(ctx)
	return err
}

// claimBatch moves a page of QUEUED rows out of reach of other workers by
// marking them SENDING inside one transaction. The claim query only sees
// QUEUED rows, so a second claimer gets nothing until delivery resolves.
func (s *NotificationService) claimBatch(ctx context.Context) ([]model.Notification, error) {
	var claimed []model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ?", model.NotificationQueued).
			Order("created_at").
			Limit(s.cfg.ClaimLimit).
			Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		ids := make([]string, len(claimed))
		for i, n := range claimed {
			ids[i] = n.ID
		}
		return tx.Model(&model.Notification{}).Where("id IN ?", ids).
			Update("status", model.NotificationSending).Error
	})
	return claimed, err
}

func (s *NotificationService) deliver(ctx context.Context, n *model.Notification) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		// the stored counter tracks actual send attempts, not batch claims
		if err := s.db.WithContext(ctx).Model(&model.Notification{}).Where("id = ?", n.ID).
			Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			logger.Error("bump notification attempts failed", zap.String("id", n.ID), zap.Error(err))
		}
		if lastErr = s.mailer.Send(n.RecipientEmail, n.Subject, n.Body); lastErr == nil {
			now := time.Now()
			if err := s.db.WithContext(ctx).Model(&model.Notification{}).Where("id = ?", n.ID).
				Updates(map[string]interface{}{"status": model.NotificationSent, "sent_at": now}).Error; err != nil {
				logger.Error("mark notification sent failed", zap.String("id", n.ID), zap.Error(err))
			}
			return
		}
	}
	logger.Warn("notification delivery failed",
		zap.String("id", n.ID),
		zap.String("type", n.Type),
		zap.Error(lastErr))
	if err := s.db.WithContext(ctx).Model(&model.Notification{}).Where("id = ?", n.ID).
		Update("status", model.NotificationFailed).Error; err != nil {
		logger.Error("mark notification failed", zap.String("id", n.ID), zap.Error(err))
	}
}
