package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/domain"
)

var errStore = errors.New("store unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// fakeStore is an in-memory implementation of both repositories.
type fakeStore struct {
	mu        sync.Mutex
	clock     Clock
	timezones map[int64]domain.Timezone
	clients   map[int64]domain.Client
	campaigns map[int64]domain.Campaign
	messages  map[int64]domain.Message
	nextID    int64
	cached    map[int64]time.Time

	failGetMessage    map[int64]bool
	failAudience      map[int64]bool
	failUpdateMessage bool
	failFind          bool
}

func newFakeStore(clock Clock) *fakeStore {
	return &fakeStore{
		clock:          clock,
		timezones:      make(map[int64]domain.Timezone),
		clients:        make(map[int64]domain.Client),
		campaigns:      make(map[int64]domain.Campaign),
		messages:       make(map[int64]domain.Message),
		cached:         make(map[int64]time.Time),
		failGetMessage: make(map[int64]bool),
		failAudience:   make(map[int64]bool),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addTimezone(name string) domain.Timezone {
	s.mu.Lock()
	defer s.mu.Unlock()
	tz := domain.Timezone{ID: s.id(), Name: name}
	s.timezones[tz.ID] = tz
	return tz
}

func (s *fakeStore) addClient(c domain.Client) domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	c.Timezone = s.timezones[c.TimezoneID]
	s.clients[c.ID] = c
	return c
}

func (s *fakeStore) addCampaign(c domain.Campaign) domain.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	if c.Status == "" {
		c.Status = domain.CampaignScheduled
	}
	s.campaigns[c.ID] = c
	return c
}

func (s *fakeStore) addMessage(m domain.Message) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	if m.Status == "" {
		m.Status = domain.StatusEnqueued
	}
	m.CreatedAt = s.clock.Now()
	s.messages[m.ID] = m
	return m
}

func (s *fakeStore) message(id int64) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id]
}

func (s *fakeStore) campaign(id int64) domain.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campaigns[id]
}

func (s *fakeStore) messagesOf(campaignID int64) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.CampaignID == campaignID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b domain.Message) int { return int(a.ID - b.ID) })
	return out
}

// message repository

func (s *fakeStore) FindByStatuses(_ context.Context, statuses ...domain.MessageStatus) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind {
		return nil, errStore
	}
	var out []domain.Message
	for _, m := range s.messages {
		if slices.Contains(statuses, m.Status) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b domain.Message) int { return int(a.ID - b.ID) })
	return out, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGetMessage[id] {
		return nil, errStore
	}
	m, ok := s.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.Campaign = s.campaigns[m.CampaignID]
	m.Client = s.clients[m.ClientID]
	return &m, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdateMessage {
		return errStore
	}
	stored, ok := s.messages[msg.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = msg.Status
	stored.SentAt = msg.SentAt
	s.messages[msg.ID] = stored
	return nil
}

func (s *fakeStore) CacheSentMessage(_ context.Context, msgID int64, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached[msgID] = sentAt
	return nil
}

// campaign repository, exposed through campaignStore to avoid the GetByID clash

type campaignStore struct{ *fakeStore }

func (c campaignStore) FindByStatus(_ context.Context, status domain.CampaignStatus) ([]domain.Campaign, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFind {
		return nil, errStore
	}
	var out []domain.Campaign
	for _, cmp := range c.campaigns {
		if cmp.Status == status {
			out = append(out, cmp)
		}
	}
	slices.SortFunc(out, func(a, b domain.Campaign) int { return int(a.ID - b.ID) })
	return out, nil
}

func (c campaignStore) GetByID(_ context.Context, id int64) (*domain.Campaign, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmp, ok := c.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cmp, nil
}

func (c campaignStore) Save(_ context.Context, cmp *domain.Campaign) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmp.EnforceExpiry(c.clock.Now())
	c.campaigns[cmp.ID] = *cmp
	return nil
}

func (c campaignStore) Audience(_ context.Context, cmp *domain.Campaign) ([]domain.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAudience[cmp.ID] {
		return nil, errStore
	}
	var out []domain.Client
	for _, client := range c.clients {
		if client.TagID == nil {
			continue
		}
		opMatch := slices.ContainsFunc(cmp.Operators, func(op domain.MobileOperator) bool { return op.ID == client.OperatorID })
		tagMatch := slices.ContainsFunc(cmp.Tags, func(tag domain.Tag) bool { return tag.ID == *client.TagID })
		if opMatch && tagMatch {
			out = append(out, client)
		}
	}
	slices.SortFunc(out, func(a, b domain.Client) int { return int(a.ID - b.ID) })
	return out, nil
}

func (c campaignStore) Activate(_ context.Context, cmp *domain.Campaign, messages []domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmp.EnforceExpiry(c.clock.Now())
	c.campaigns[cmp.ID] = *cmp
	for _, m := range messages {
		m.ID = c.id()
		m.CreatedAt = c.clock.Now()
		c.messages[m.ID] = m
	}
	return nil
}

func (c campaignStore) Stats(_ context.Context, ids []int64) (domain.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFind {
		return domain.Report{}, errStore
	}

	var selected []int64
	for id := range c.campaigns {
		if len(ids) == 0 || slices.Contains(ids, id) {
			selected = append(selected, id)
		}
	}
	slices.Sort(selected)

	report := domain.Report{CampaignsCount: int64(len(selected))}
	for _, id := range selected {
		counts := map[domain.MessageStatus]int64{}
		for _, m := range c.messages {
			if m.CampaignID == id {
				counts[m.Status]++
			}
		}
		stats := domain.CampaignStats{ID: id, Messages: domain.MessageStats{Statuses: []domain.StatusCount{}}}
		for _, status := range []domain.MessageStatus{domain.StatusDelayed, domain.StatusEnqueued, domain.StatusExpired, domain.StatusFailed, domain.StatusSuccess} {
			if n := counts[status]; n > 0 {
				stats.Messages.Count += n
				stats.Messages.Statuses = append(stats.Messages.Statuses, domain.StatusCount{Status: status, Count: n})
			}
		}
		report.Campaigns = append(report.Campaigns, stats)
	}
	return report, nil
}

type sendCall struct {
	ID    int64
	Text  string
	Phone int64
}

type fakeSender struct {
	mu      sync.Mutex
	calls   []sendCall
	respond func(id int64) (bool, int)
}

func newFakeSender(ok bool, code int) *fakeSender {
	return &fakeSender{respond: func(int64) (bool, int) { return ok, code }}
}

func (f *fakeSender) Send(_ context.Context, id int64, text string, phone int64) (bool, int) {
	f.mu.Lock()
	f.calls = append(f.calls, sendCall{ID: id, Text: text, Phone: phone})
	respond := f.respond
	f.mu.Unlock()
	return respond(id)
}

func (f *fakeSender) setResponse(ok bool, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.respond = func(int64) (bool, int) { return ok, code }
}

func (f *fakeSender) Calls() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}
