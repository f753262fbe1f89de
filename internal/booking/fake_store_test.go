package booking

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"courtbook/internal/models"
)

// memStore is an in-memory Store. A single mutex makes every atomic
// operation a critical section.
type memStore struct {
	mu           sync.Mutex
	courts       map[string]models.Court
	order        []string
	reservations map[string]models.Reservation
	err          error
	writes       int
}

func newMemStore(courtIDs ...string) *memStore {
	s := &memStore{
		courts:       make(map[string]models.Court),
		reservations: make(map[string]models.Reservation),
	}
	for _, id := range courtIDs {
		s.courts[id] = models.Court{ID: id, Name: "Court " + id}
		s.order = append(s.order, id)
	}
	return s
}

func (s *memStore) put(r models.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = r
}

func (s *memStore) get(id string) (models.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	return r, ok
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memStore) active(courtID string, window models.TimeWindow, statuses []models.Status) []models.Reservation {
	var out []models.Reservation
	for _, r := range s.reservations {
		if r.CourtID != courtID || !slices.Contains(statuses, r.Status) {
			continue
		}
		if r.Overlaps(window.Start, window.End) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *memStore) FindActiveReservations(_ context.Context, courtID string, window models.TimeWindow, statuses []models.Status) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.active(courtID, window, statuses), nil
}

func (s *memStore) FindReservationByID(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memStore) FindResourceByID(_ context.Context, id string) (*models.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.courts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *memStore) ListResourceIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.order), nil
}

func (s *memStore) ListReservations(_ context.Context, filter QueryFilter) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Reservation
	for _, r := range s.reservations {
		if filter.Matches(&r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memStore) AtomicInsert(_ context.Context, r *models.Reservation, window models.TimeWindow, check ConflictPredicate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.courts[r.CourtID]; !ok {
		return ErrNotFound
	}
	if check != nil {
		if res := check(s.active(r.CourtID, window, models.ActiveStatuses)); res.HasConflict {
			return &ConflictSignal{Result: res}
		}
	}
	s.reservations[r.ID] = *r
	s.writes++
	return nil
}

func (s *memStore) AtomicUpdateStatus(_ context.Context, u StatusUpdate) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.reservations[u.ReservationID]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Expected != "" && r.Status != u.Expected {
		cur := r
		return nil, &ConflictSignal{Result: ConflictResult{HasConflict: true, Conflict: &cur, Reason: KindConcurrencyConflict}}
	}
	if u.Check != nil {
		if res := u.Check(s.active(r.CourtID, u.Window, models.ActiveStatuses)); res.HasConflict {
			return nil, &ConflictSignal{Result: res}
		}
	}
	r.Status = u.To
	r.UpdatedAt = u.UpdatedAt
	s.reservations[r.ID] = r
	s.writes++
	return &r, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.reservations[id]; !ok {
		return ErrNotFound
	}
	delete(s.reservations, id)
	s.writes++
	return nil
}

func (s *memStore) BulkUpdateStatus(_ context.Context, filter BulkFilter, to models.Status, updatedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for id, r := range s.reservations {
		if r.Status == filter.Status && r.EndTime.Before(filter.EndedBefore) {
			r.Status = to
			r.UpdatedAt = updatedAt
			s.reservations[id] = r
			n++
		}
	}
	s.writes += int(n)
	return n, nil
}

type recordedEvent struct {
	Type    string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
