package notifications

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"eventoensina-backend/internal/metrics"
	"eventoensina-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// backoffCap bounds the exponent so the maximum retry delay stays at
	// 2^5 = 32 minutes.
	backoffCap = 5

	defaultMaxRetries = 5

	maxErrorLen = 1000

	dialTimeout = time.Second
)

// Service owns the email job queue: enqueueing, claiming, sending, and
// retry/backoff bookkeeping. The job table is the single source of truth;
// claim transitions go through conditional updates so two workers can never
// process the same job concurrently.
type Service struct {
	DB        *gorm.DB
	Transport Transport
	From      string

	// QueuePort is the loopback dispatch port used to hand jobs to workers in
	// another process. Zero disables the TCP hand-off attempt.
	QueuePort int

	// MaxRetries before a job becomes terminally failed. Zero means the
	// default of 5.
	MaxRetries int

	// Dispatcher is the in-process fast path; nil when this process hosts no
	// workers.
	Dispatcher *Dispatcher
}

// EnqueueParams describes one email to send.
type EnqueueParams struct {
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []models.Attachment
	ScheduledAt *time.Time
	SendNow     bool
}

// Enqueue requests an email send. With SendNow the message is composed and
// transmitted in the caller's context and any transport error is returned (no
// job record is created). Otherwise a pending job is persisted and handed to
// a waiting worker: first over the in-process queue, then over a short-timeout
// loopback connection. If both hand-offs fail the claim is reverted to
// pending so polling workers eventually pick the job up.
func (s *Service) Enqueue(ctx context.Context, p EnqueueParams) (*models.EmailJob, error) {
	if p.To == "" {
		return nil, errors.New("recipient is required")
	}

	if p.SendNow {
		job := &models.EmailJob{
			ToEmail:     p.To,
			Subject:     p.Subject,
			TextBody:    p.TextBody,
			HTMLBody:    p.HTMLBody,
			Attachments: datatypes.NewJSONSlice(p.Attachments),
		}
		if err := s.Transport.Send(ComposeMessage(s.From, job)); err != nil {
			log.Error().Err(err).Str("to", p.To).Str("subject", p.Subject).Msg("immediate email send failed")
			return nil, fmt.Errorf("send email: %w", err)
		}
		return nil, nil
	}

	scheduledAt := time.Now()
	if p.ScheduledAt != nil {
		scheduledAt = *p.ScheduledAt
	}
	job := &models.EmailJob{
		ToEmail:     p.To,
		Subject:     p.Subject,
		TextBody:    p.TextBody,
		HTMLBody:    p.HTMLBody,
		Attachments: datatypes.NewJSONSlice(p.Attachments),
		Status:      models.EmailStatusPending,
		ScheduledAt: scheduledAt,
	}
	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("create email job: %w", err)
	}

	// Claim before hand-off: marking the job as sending prevents a polling
	// worker and the notified worker from racing on it.
	if s.compareAndSwap(ctx, job.ID, models.EmailStatusPending, models.EmailStatusSending) {
		pushed := false
		if s.Dispatcher != nil && s.Dispatcher.Push(job.ID) {
			pushed = true
		} else if s.pushTCP(job.ID) {
			pushed = true
		}
		if !pushed {
			// No reachable consumer: release the claim so the job is not lost.
			s.compareAndSwap(ctx, job.ID, models.EmailStatusSending, models.EmailStatusPending)
		}
	}
	return job, nil
}

// pushTCP hands the job id to a listener in another process over loopback.
// The short timeout keeps producers from ever blocking on a dead listener.
func (s *Service) pushTCP(id uint) bool {
	if s.QueuePort == 0 {
		return false
	}
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", s.QueuePort), dialTimeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	conn.SetWriteDeadline(time.Now().Add(dialTimeout))
	_, err = fmt.Fprintf(conn, "%d\n", id)
	return err == nil
}

// compareAndSwap transitions a job's status only if it still holds the
// expected one, reporting whether this caller won the transition.
func (s *Service) compareAndSwap(ctx context.Context, id uint, from, to models.EmailStatus) bool {
	res := s.DB.WithContext(ctx).
		Model(&models.EmailJob{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		log.Error().Err(res.Error).Uint("job_id", id).Msg("status transition failed")
		return false
	}
	return res.RowsAffected == 1
}

// ClaimOnePending atomically claims the eligible pending job with the
// earliest scheduled time, or returns nil when none is available or another
// worker won the claim.
func (s *Service) ClaimOnePending(ctx context.Context) (*models.EmailJob, error) {
	var job models.EmailJob
	err := s.DB.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.EmailStatusPending, time.Now()).
		Order("scheduled_at asc").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !s.compareAndSwap(ctx, job.ID, models.EmailStatusPending, models.EmailStatusSending) {
		return nil, nil
	}
	if err := s.DB.WithContext(ctx).First(&job, job.ID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// LoadDispatched loads a job whose id arrived over the dispatch channel. The
// producer already claimed it, so no status transition happens here. A
// missing record returns nil.
func (s *Service) LoadDispatched(ctx context.Context, id uint) *models.EmailJob {
	var job models.EmailJob
	if err := s.DB.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil
	}
	return &job
}

// SendJob transmits one claimed job and records the outcome. Success is
// terminal at sent; failure reschedules with exponential backoff until the
// retry budget runs out, then the job becomes terminally failed.
func (s *Service) SendJob(ctx context.Context, job *models.EmailJob) {
	err := s.Transport.Send(ComposeMessage(s.From, job))
	if err == nil {
		now := time.Now()
		if uerr := s.DB.WithContext(ctx).Model(job).Updates(map[string]interface{}{
			"status":     models.EmailStatusSent,
			"sent_at":    now,
			"last_error": "",
		}).Error; uerr != nil {
			log.Error().Err(uerr).Uint("job_id", job.ID).Msg("failed to record sent status")
		}
		metrics.EmailsSent.Inc()
		log.Info().Uint("job_id", job.ID).Str("to", job.ToEmail).Msg("email sent")
		return
	}

	maxRetries := s.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	retries := job.Retries + 1
	status := models.EmailStatusPending
	if retries >= maxRetries {
		status = models.EmailStatusFailed
	}
	delay := time.Duration(1<<min(retries, backoffCap)) * time.Minute
	msg := err.Error()
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	if uerr := s.DB.WithContext(ctx).Model(job).Updates(map[string]interface{}{
		"retries":      retries,
		"status":       status,
		"scheduled_at": time.Now().Add(delay),
		"last_error":   msg,
	}).Error; uerr != nil {
		log.Error().Err(uerr).Uint("job_id", job.ID).Msg("failed to record send failure")
	}
	metrics.EmailFailures.Inc()
	log.Error().Err(err).
		Uint("job_id", job.ID).
		Str("to", job.ToEmail).
		Int("retries", retries).
		Str("status", string(status)).
		Msg("email send failed")
}
