// services/followup_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"retentionflow-backend/models"
	"retentionflow-backend/retention"
	"retentionflow-backend/utils"
)

// Phase is one independently retryable step of the daily cycle.
type Phase string

const (
	PhaseCreate  Phase = "create"
	PhaseOverdue Phase = "overdue"
)

// AllPhases runs in this order when no phase is requested.
var AllPhases = []Phase{PhaseCreate, PhaseOverdue}

// ParsePhase maps a query value to a phase. Empty selects every phase.
func ParsePhase(s string) ([]Phase, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return AllPhases, nil
	case PhaseCreate:
		return []Phase{PhaseCreate}, nil
	case PhaseOverdue:
		return []Phase{PhaseOverdue}, nil
	}
	return nil, fmt.Errorf("%w: unknown phase %q", ErrValidation, s)
}

const cycleLockKey = "retentionflow:cycle"

type CycleSummary struct {
	ClientsDueToday           int `json:"clients_due_today"`
	FollowupsCreated          int `json:"followups_created"`
	OverdueClients            int `json:"overdue_clients"`
	FollowupsUpdatedToOverdue int `json:"followups_updated_to_overdue"`
}

// CycleResult reports a daily run. Summary holds whatever counts were
// gathered before a failure.
type CycleResult struct {
	Success    bool         `json:"success"`
	Timestamp  time.Time    `json:"timestamp"`
	DurationMs int64        `json:"duration_ms"`
	Summary    CycleSummary `json:"summary"`
	Error      string       `json:"error,omitempty"`
	Phases     []Phase      `json:"phases"`
}

type FollowupConfig struct {
	StoreTimeout time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	LockTTL      time.Duration
	Templates    map[models.FollowupType]string
}

type SendInput struct {
	Channel  string              `json:"channel"`
	Type     models.FollowupType `json:"type"`
	Template string              `json:"template"`
	Days     *int                `json:"days"`
}

type SendResult struct {
	Followup   models.Followup `json:"followup"`
	Channel    string          `json:"channel"`
	Message    string          `json:"message"`
	Link       string          `json:"link"`
	ExternalID string          `json:"external_id,omitempty"`
}

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
)

// FollowupService owns every followup state transition: the daily cycle
// creates and promotes, SendReminder marks sent.
type FollowupService struct {
	store   FollowupStore
	lock    RunLock
	sms     SMSSender
	metrics *CycleMetrics
	authz   *Authorizer
	cfg     FollowupConfig
	now     func() time.Time
}

// NewFollowupService wires the lifecycle. sms and metrics may be nil.
func NewFollowupService(store FollowupStore, lock RunLock, sms SMSSender, metrics *CycleMetrics, authz *Authorizer, cfg FollowupConfig) *FollowupService {
	if lock == nil {
		lock = NewLocalRunLock()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &FollowupService{
		store:   store,
		lock:    lock,
		sms:     sms,
		metrics: metrics,
		authz:   authz,
		cfg:     cfg,
		now:     time.Now,
	}
}

// RunDailyCycle creates pending followups for clients due today and promotes
// pending followups of overdue clients. Phase failures are reported in the
// result; the returned error is only set when the run could not start.
func (s *FollowupService) RunDailyCycle(ctx context.Context, today time.Time, phases ...Phase) (CycleResult, error) {
	if len(phases) == 0 {
		phases = AllPhases
	}
	today = utils.DateOnly(today)
	start := s.now()
	result := CycleResult{Timestamp: start.UTC(), Phases: phases}

	release, ok, err := s.lock.TryAcquire(ctx, cycleLockKey, s.cfg.LockTTL)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, ErrCycleInProgress
	}
	defer release()

	log.Info().Str("date", today.Format(time.DateOnly)).Interface("phases", phases).Msg("Starting daily followup cycle")

	var runErr error
	for _, phase := range phases {
		if runErr = s.runPhase(ctx, phase, today, &result.Summary); runErr != nil {
			break
		}
	}

	result.DurationMs = s.now().Sub(start).Milliseconds()
	result.Success = runErr == nil
	if runErr != nil {
		result.Error = runErr.Error()
		log.Error().Err(runErr).Int64("duration_ms", result.DurationMs).Msg("Daily followup cycle failed")
	} else {
		log.Info().Int64("duration_ms", result.DurationMs).
			Int("followups_created", result.Summary.FollowupsCreated).
			Int("followups_updated_to_overdue", result.Summary.FollowupsUpdatedToOverdue).
			Msg("Daily followup cycle completed")
	}

	s.metrics.ObserveRun(result.Success, float64(result.DurationMs)/1000)
	s.recordRun(ctx, today, result)
	return result, nil
}

// runPhase retries a phase up to MaxAttempts times. Each phase only acts on
// records that still need it, so a retry never repeats completed work.
func (s *FollowupService) runPhase(ctx context.Context, phase Phase, today time.Time, sum *CycleSummary) error {
	var err error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		switch phase {
		case PhaseCreate:
			err = s.createPending(ctx, today, sum)
		case PhaseOverdue:
			err = s.promoteOverdue(ctx, today, sum)
		default:
			return fmt.Errorf("%w: unknown phase %q", ErrValidation, phase)
		}
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Str("phase", string(phase)).Int("attempt", attempt).Msg("Cycle phase failed")
		if attempt == s.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s phase: %w", phase, ctx.Err())
		case <-time.After(s.cfg.RetryDelay):
		}
	}
	return fmt.Errorf("%s phase: %w", phase, err)
}

func (s *FollowupService) createPending(ctx context.Context, today time.Time, sum *CycleSummary) error {
	var clients []models.Client
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		clients, err = s.store.ClientsDueOn(ctx, today)
		return err
	})
	if err != nil {
		return err
	}
	sum.ClientsDueToday = len(clients)

	created := 0
	for _, client := range clients {
		var active bool
		err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
			active, err = s.store.HasActiveFollowup(ctx, client.ID)
			return err
		})
		if err != nil {
			return err
		}
		if active {
			continue
		}

		f := &models.Followup{
			ClientID: client.ID,
			DateSent: s.now(),
			Type:     models.FollowupReminder,
			Status:   models.FollowupPending,
		}
		err = s.withTimeout(ctx, func(ctx context.Context) error {
			return s.store.CreateFollowup(ctx, f)
		})
		if errors.Is(err, ErrActiveFollowupExists) {
			continue
		}
		if err != nil {
			return err
		}
		created++
		sum.FollowupsCreated++
	}

	s.metrics.AddFollowups(string(models.FollowupPending), created)
	log.Info().Int("clients_due_today", len(clients)).Int("created", created).Msg("Created pending followups")
	return nil
}

func (s *FollowupService) promoteOverdue(ctx context.Context, today time.Time, sum *CycleSummary) error {
	var ids []uuid.UUID
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		ids, err = s.store.OverdueClientIDs(ctx, today)
		return err
	})
	if err != nil {
		return err
	}
	sum.OverdueClients = len(ids)

	var updated int64
	err = s.withTimeout(ctx, func(ctx context.Context) (err error) {
		updated, err = s.store.PromoteToOverdue(ctx, ids)
		return err
	})
	if err != nil {
		return err
	}
	sum.FollowupsUpdatedToOverdue += int(updated)

	s.metrics.AddFollowups(string(models.FollowupOverdue), int(updated))
	log.Info().Int("overdue_clients", len(ids)).Int64("updated", updated).Msg("Promoted followups to overdue")
	return nil
}

func (s *FollowupService) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	if s.cfg.StoreTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *FollowupService) recordRun(ctx context.Context, today time.Time, result CycleResult) {
	summary, _ := json.Marshal(result.Summary)
	run := &models.CycleRun{
		RunDate: today,
		Phases: strings.Join(lo.Map(result.Phases, func(p Phase, _ int) string {
			return string(p)
		}), ","),
		Success:    result.Success,
		Error:      result.Error,
		DurationMs: result.DurationMs,
		Summary:    datatypes.JSON(summary),
		StartedAt:  result.Timestamp,
	}
	err := s.withTimeout(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.store.RecordRun(ctx, run)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record cycle run")
	}
}

// SendReminder renders the reminder for a client, dispatches it on the
// requested channel and marks the client's followup sent.
func (s *FollowupService) SendReminder(ctx context.Context, scope Scope, clientID uuid.UUID, in SendInput) (*SendResult, error) {
	if err := s.authz.Allow(scope.Role, ResourceFollowups, ActionWrite); err != nil {
		return nil, err
	}
	channel := strings.ToLower(strings.TrimSpace(in.Channel))
	if channel == "" {
		channel = ChannelWhatsApp
	}
	if channel != ChannelWhatsApp && channel != ChannelSMS {
		return nil, fmt.Errorf("%w: unsupported channel %q", ErrValidation, in.Channel)
	}
	typ := in.Type
	if typ == "" {
		typ = models.FollowupReminder
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unsupported followup type %q", ErrValidation, in.Type)
	}
	if channel == ChannelSMS && s.sms == nil {
		return nil, ErrChannelUnavailable
	}

	var client *models.Client
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		client, err = s.store.FindClient(ctx, scope, clientID)
		return err
	})
	if err != nil {
		return nil, err
	}

	tmpl := in.Template
	if utils.IsEmpty(tmpl) {
		tmpl = s.cfg.Templates[typ]
	}
	now := s.now()
	message := retention.ReplaceTemplateVariables(tmpl, *client, in.Days, utils.DateOnly(now))

	res := &SendResult{Channel: channel, Message: message}
	if channel == ChannelSMS {
		res.Link = retention.SMSLink(client.Phone, message)
		sid, err := s.sms.SendSMS(ctx, utils.CleanPhone(client.Phone), message)
		if err != nil {
			s.metrics.ObserveReminder(channel, "failed")
			s.logMessage(ctx, scope, client, nil, typ, res, "failed", err)
			return nil, err
		}
		res.ExternalID = sid
	} else {
		res.Link = retention.WhatsAppLink(client.Phone, message)
	}

	var followup *models.Followup
	err = s.withTimeout(ctx, func(ctx context.Context) (err error) {
		followup, err = s.store.MarkSent(ctx, client.ID, typ, now)
		return err
	})
	if err != nil {
		s.metrics.ObserveReminder(channel, "failed")
		return nil, err
	}
	res.Followup = *followup

	status := "opened"
	if channel == ChannelSMS {
		status = "dispatched"
	}
	s.metrics.ObserveReminder(channel, status)
	s.logMessage(ctx, scope, client, followup, typ, res, status, nil)
	return res, nil
}

// logMessage is best effort; a failed write never fails the send.
func (s *FollowupService) logMessage(ctx context.Context, scope Scope, client *models.Client, f *models.Followup, typ models.FollowupType, res *SendResult, status string, sendErr error) {
	entry := &models.MessageLog{
		ProfileID:  scope.AccountID,
		ClientID:   client.ID,
		Type:       typ,
		Channel:    res.Channel,
		Message:    res.Message,
		Link:       res.Link,
		Status:     status,
		ExternalID: res.ExternalID,
		SentAt:     s.now(),
	}
	if f != nil {
		entry.FollowupID = &f.ID
	}
	if sendErr != nil {
		entry.ErrorMessage = sendErr.Error()
	}
	err := s.withTimeout(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.store.LogMessage(ctx, entry)
	})
	if err != nil {
		log.Warn().Err(err).Str("client_id", client.ID.String()).Msg("Failed to log reminder")
	}
}

// ListFollowups returns followups of clients visible in scope, newest first.
func (s *FollowupService) ListFollowups(ctx context.Context, scope Scope, status models.FollowupStatus) ([]models.Followup, error) {
	if err := s.authz.Allow(scope.Role, ResourceFollowups, ActionRead); err != nil {
		return nil, err
	}
	if status != "" && !status.Active() && status != models.FollowupSent {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	var out []models.Followup
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		out, err = s.store.ListFollowups(ctx, scope, status)
		return err
	})
	return out, err
}
