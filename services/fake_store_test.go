package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"retentionflow-backend/models"
)

// memoryStore is an in-memory FollowupStore. failOn makes the named method
// fail that many times before succeeding.
type memoryStore struct {
	mu        sync.Mutex
	clients   []models.Client
	followups []models.Followup
	logs      []models.MessageLog
	runs      []models.CycleRun
	failOn    map[string]int
	calls     map[string]int
}

func newMemoryStore(clients ...models.Client) *memoryStore {
	return &memoryStore{clients: clients, failOn: map[string]int{}, calls: map[string]int{}}
}

var errStoreDown = errors.New("store unavailable")

func (m *memoryStore) fail(method string) error {
	m.calls[method]++
	if m.failOn[method] > 0 {
		m.failOn[method]--
		return errStoreDown
	}
	return nil
}

func (m *memoryStore) ClientsDueOn(_ context.Context, day time.Time) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ClientsDueOn"); err != nil {
		return nil, err
	}
	var out []models.Client
	for _, c := range m.clients {
		if c.NextDue != nil && c.NextDue.Equal(day) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) OverdueClientIDs(_ context.Context, today time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("OverdueClientIDs"); err != nil {
		return nil, err
	}
	var out []uuid.UUID
	for _, c := range m.clients {
		if c.NextDue != nil && c.NextDue.Before(today) {
			out = append(out, c.ID)
		}
	}
	return out, nil
}

func (m *memoryStore) HasActiveFollowup(_ context.Context, clientID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("HasActiveFollowup"); err != nil {
		return false, err
	}
	return m.activeIndex(clientID) >= 0, nil
}

func (m *memoryStore) activeIndex(clientID uuid.UUID) int {
	for i, f := range m.followups {
		if f.ClientID == clientID && f.Status.Active() {
			return i
		}
	}
	return -1
}

func (m *memoryStore) CreateFollowup(_ context.Context, f *models.Followup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateFollowup"); err != nil {
		return err
	}
	if f.Status.Active() && m.activeIndex(f.ClientID) >= 0 {
		return ErrActiveFollowupExists
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	m.followups = append(m.followups, *f)
	return nil
}

func (m *memoryStore) PromoteToOverdue(_ context.Context, clientIDs []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("PromoteToOverdue"); err != nil {
		return 0, err
	}
	ids := map[uuid.UUID]bool{}
	for _, id := range clientIDs {
		ids[id] = true
	}
	var n int64
	for i := range m.followups {
		if ids[m.followups[i].ClientID] && m.followups[i].Status == models.FollowupPending {
			m.followups[i].Status = models.FollowupOverdue
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) MarkSent(_ context.Context, clientID uuid.UUID, typ models.FollowupType, at time.Time) (*models.Followup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("MarkSent"); err != nil {
		return nil, err
	}
	if i := m.activeIndex(clientID); i >= 0 {
		m.followups[i].Status = models.FollowupSent
		m.followups[i].DateSent = at
		f := m.followups[i]
		return &f, nil
	}
	f := models.Followup{ID: uuid.New(), ClientID: clientID, Type: typ, Status: models.FollowupSent, DateSent: at}
	m.followups = append(m.followups, f)
	return &f, nil
}

func (m *memoryStore) FindClient(_ context.Context, scope Scope, clientID uuid.UUID) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.ID == clientID && scope.CanSee(&c) {
			c := c
			return &c, nil
		}
	}
	return nil, ErrClientNotFound
}

func (m *memoryStore) ListFollowups(_ context.Context, scope Scope, status models.FollowupStatus) ([]models.Followup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	visible := map[uuid.UUID]bool{}
	for _, c := range m.clients {
		if scope.CanSee(&c) {
			visible[c.ID] = true
		}
	}
	var out []models.Followup
	for _, f := range m.followups {
		if visible[f.ClientID] && (status == "" || f.Status == status) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateSent.After(out[j].DateSent) })
	return out, nil
}

func (m *memoryStore) LogMessage(_ context.Context, entry *models.MessageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("LogMessage"); err != nil {
		return err
	}
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *memoryStore) RecordRun(_ context.Context, run *models.CycleRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memoryStore) countStatus(status models.FollowupStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.followups {
		if f.Status == status {
			n++
		}
	}
	return n
}
