// Package memory holds map-backed repositories for tests and local runs
// without Postgres or Redis. Every store is safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
)

// Store backs every repository interface with shared maps so joins such as
// the inbox partner lookup work across repositories.
type Store struct {
	mu            sync.RWMutex
	profiles      map[uuid.UUID]*domain.Profile
	locations     map[uuid.UUID]*domain.LocationAggregate
	conversations map[uuid.UUID]*domain.Conversation
	messages      []*domain.Message
	sessions      map[string]*domain.Session
	drafts        map[uuid.UUID]*domain.Draft
	seq           int
	order         map[uuid.UUID]int
}

func NewStore() *Store {
	return &Store{
		profiles:      map[uuid.UUID]*domain.Profile{},
		locations:     map[uuid.UUID]*domain.LocationAggregate{},
		conversations: map[uuid.UUID]*domain.Conversation{},
		sessions:      map[string]*domain.Session{},
		drafts:        map[uuid.UUID]*domain.Draft{},
		order:         map[uuid.UUID]int{},
	}
}

func (s *Store) Profiles() repository.ProfileRepository           { return (*profileRepo)(s) }
func (s *Store) Locations() repository.LocationRepository         { return (*locationRepo)(s) }
func (s *Store) Conversations() repository.ConversationRepository { return (*conversationRepo)(s) }
func (s *Store) Messages() repository.MessageRepository           { return (*messageRepo)(s) }
func (s *Store) Sessions() repository.SessionRepository           { return (*sessionRepo)(s) }
func (s *Store) Drafts() repository.DraftStore                    { return (*draftStore)(s) }
func (s *Store) Transactor() repository.Transactor                { return transactor{} }

type transactor struct{}

func (transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func copyProfile(p *domain.Profile) *domain.Profile {
	out := *p
	out.Visibility = domain.VisibilityOptions{}
	for k, v := range p.Visibility {
		out.Visibility[k] = v
	}
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	return &out
}

type profileRepo Store

func (r *profileRepo) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.profiles[p.ID] = copyProfile(p)
	r.seq++
	r.order[p.ID] = r.seq
	return nil
}

func (r *profileRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return copyProfile(p), nil
}

func (r *profileRepo) findBy(match func(p *domain.Profile) bool) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.profiles {
		if match(p) {
			return copyProfile(p), nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (r *profileRepo) GetByInstitutionalEmail(_ context.Context, email string) (*domain.Profile, error) {
	return r.findBy(func(p *domain.Profile) bool {
		return strings.EqualFold(p.InstitutionalEmail, email)
	})
}

func (r *profileRepo) GetByPersonalEmail(_ context.Context, email string) (*domain.Profile, error) {
	return r.findBy(func(p *domain.Profile) bool {
		return p.PersonalEmail != nil && strings.EqualFold(*p.PersonalEmail, email)
	})
}

func (r *profileRepo) Update(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; !ok {
		return domain.ErrProfileNotFound
	}
	p.UpdatedAt = time.Now()
	r.profiles[p.ID] = copyProfile(p)
	return nil
}

func (r *profileRepo) UpdateOnboardingProgress(_ context.Context, id uuid.UUID, step domain.Step, t domain.PostGradType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.OnboardingStep = step
	if t != "" && p.PostGradType() != t {
		switch {
		case t.IsWorkVariant():
			p.Details = domain.WorkDetails{Internship: t == domain.PostGradInternship}
		case t == domain.PostGradSchool:
			p.Details = domain.SchoolDetails{}
		default:
			p.Details = domain.SeekingDetails{}
		}
	}
	return nil
}

func matchesFilter(p *domain.Profile, f domain.DirectoryFilter) bool {
	if f.OnboardedOnly && !p.IsOnboarded {
		return false
	}
	if f.PostGradType != "" && p.PostGradType() != f.PostGradType {
		return false
	}
	var loc domain.Location
	if p.Location != nil {
		loc = *p.Location
	}
	if f.Country != "" && loc.Country != f.Country {
		return false
	}
	if f.State != "" && loc.State != f.State {
		return false
	}
	if f.City != "" && loc.City != f.City {
		return false
	}
	if f.LookingForRoommate && !p.LookingForRoommate {
		return false
	}
	if f.ClassYear != nil && (p.ClassYear == nil || *p.ClassYear != *f.ClassYear) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		fields := []string{p.Name}
		if w, ok := p.Work(); ok {
			fields = append(fields, w.Company)
		}
		if s, ok := p.School(); ok {
			fields = append(fields, s.School)
		}
		found := false
		for _, v := range fields {
			if strings.Contains(strings.ToLower(v), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *profileRepo) List(_ context.Context, f domain.DirectoryFilter, limit, offset int) ([]*domain.Profile, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Profile
	for _, p := range r.profiles {
		if matchesFilter(p, f) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	if offset >= total {
		return []*domain.Profile{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]*domain.Profile, 0, end-offset)
	for _, p := range matched[offset:end] {
		out = append(out, copyProfile(p))
	}
	return out, total, nil
}

// groupBy counts key(p) over onboarded profiles in scope, in creation order
// of the first contributor.
func (r *profileRepo) groupBy(scope domain.StatsScope, key func(p *domain.Profile) (string, bool)) []domain.GroupCount {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return r.order[ids[i]] < r.order[ids[j]] })

	index := map[string]int{}
	var counts []domain.GroupCount
	for _, id := range ids {
		p := r.profiles[id]
		if !p.IsOnboarded {
			continue
		}
		if scope.ClassYear != nil && (p.ClassYear == nil || *p.ClassYear != *scope.ClassYear) {
			continue
		}
		k, ok := key(p)
		if !ok || k == "" {
			continue
		}
		if i, seen := index[k]; seen {
			counts[i].Count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, domain.GroupCount{Key: k, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

func (r *profileRepo) CountCompanies(_ context.Context, scope domain.StatsScope) ([]domain.GroupCount, error) {
	return r.groupBy(scope, func(p *domain.Profile) (string, bool) {
		w, ok := p.Work()
		return w.Company, ok
	}), nil
}

func (r *profileRepo) CountSchools(_ context.Context, scope domain.StatsScope, limit int) ([]domain.GroupCount, error) {
	counts := r.groupBy(scope, func(p *domain.Profile) (string, bool) {
		s, ok := p.School()
		return s.School, ok
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

type locationRepo Store

func (r *locationRepo) Upsert(_ context.Context, loc domain.Location) (*domain.LocationAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, agg := range r.locations {
		if agg.City == loc.City && agg.State == loc.State && agg.Country == loc.Country {
			out := *agg
			return &out, nil
		}
	}
	agg := &domain.LocationAggregate{ID: uuid.New(), City: loc.City, State: loc.State, Country: loc.Country}
	r.locations[agg.ID] = agg
	r.seq++
	r.order[agg.ID] = r.seq
	out := *agg
	return &out, nil
}

// byLocation counts in-scope profiles per location aggregate, in location
// creation order before ranking.
func (r *locationRepo) byLocation(scope domain.StatsScope) ([]*domain.LocationAggregate, map[uuid.UUID]int) {
	counts := map[uuid.UUID]int{}
	for _, p := range r.profiles {
		if !p.IsOnboarded || p.LocationID == nil || p.PostGradType() == domain.PostGradSeeking {
			continue
		}
		if scope.ClassYear != nil && (p.ClassYear == nil || *p.ClassYear != *scope.ClassYear) {
			continue
		}
		agg, ok := r.locations[*p.LocationID]
		if !ok || (scope.State != "" && agg.State != scope.State) {
			continue
		}
		counts[agg.ID]++
	}

	aggs := make([]*domain.LocationAggregate, 0, len(counts))
	for id := range counts {
		aggs = append(aggs, r.locations[id])
	}
	sort.Slice(aggs, func(i, j int) bool { return r.order[aggs[i].ID] < r.order[aggs[j].ID] })
	sort.SliceStable(aggs, func(i, j int) bool { return counts[aggs[i].ID] > counts[aggs[j].ID] })
	return aggs, counts
}

func (r *locationRepo) CountByState(_ context.Context, scope domain.StatsScope) ([]domain.LocationCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aggs, counts := r.byLocation(scope)

	index := map[string]int{}
	var out []domain.LocationCount
	for _, agg := range aggs {
		if agg.Country != domain.CountryUSA {
			continue
		}
		if i, ok := index[agg.State]; ok {
			out[i].Count += counts[agg.ID]
			continue
		}
		index[agg.State] = len(out)
		out = append(out, domain.LocationCount{Name: agg.State, State: agg.State, Country: agg.Country, Count: counts[agg.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (r *locationRepo) CountByCity(_ context.Context, scope domain.StatsScope) ([]domain.LocationCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aggs, counts := r.byLocation(scope)

	out := make([]domain.LocationCount, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, domain.LocationCount{
			Name: agg.City, State: agg.State, Country: agg.Country,
			Lat: agg.Lat, Lon: agg.Lon, Count: counts[agg.ID],
		})
	}
	return out, nil
}

func (r *locationRepo) TopCities(_ context.Context, scope domain.StatsScope, limit int) ([]domain.LocationGroupCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aggs, counts := r.byLocation(scope)
	if len(aggs) > limit {
		aggs = aggs[:limit]
	}

	out := make([]domain.LocationGroupCount, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, domain.LocationGroupCount{LocationAggregate: *agg, Count: counts[agg.ID]})
	}
	return out, nil
}

type conversationRepo Store

func (r *conversationRepo) findPair(a, b uuid.UUID) *domain.Conversation {
	for _, c := range r.conversations {
		if (c.SenderID == a && c.ReceiverID == b) || (c.SenderID == b && c.ReceiverID == a) {
			return c
		}
	}
	return nil
}

func (r *conversationRepo) Create(_ context.Context, c *domain.Conversation) (*domain.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.findPair(c.SenderID, c.ReceiverID); existing != nil {
		out := *existing
		return &out, false, nil
	}
	stored := *c
	r.conversations[c.ID] = &stored
	return c, true, nil
}

func (r *conversationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	out := *c
	return &out, nil
}

func (r *conversationRepo) GetByUsers(_ context.Context, a, b uuid.UUID) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.findPair(a, b)
	if c == nil {
		return nil, domain.ErrConversationNotFound
	}
	out := *c
	return &out, nil
}

func (r *conversationRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.ConversationSummary
	for _, c := range r.conversations {
		partnerID, ok := c.OtherUserID(userID)
		if !ok {
			continue
		}
		conv := *c
		summary := &domain.ConversationSummary{Conversation: &conv, PartnerID: partnerID, Unread: conv.UnreadFor(userID)}
		if p, ok := r.profiles[partnerID]; ok {
			summary.PartnerName = p.Name
			summary.PartnerImage = p.Image
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Conversation.LastMessageAt.After(out[j].Conversation.LastMessageAt)
	})
	return out, nil
}

func (r *conversationRepo) RecordMessage(_ context.Context, id uuid.UUID, target domain.ConversationRole, at time.Time, preview string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return domain.ErrConversationNotFound
	}
	switch target {
	case domain.RoleSender:
		c.SenderUnreadCount++
	case domain.RoleReceiver:
		c.ReceiverUnreadCount++
	default:
		return domain.ErrNotParticipant
	}
	c.LastMessageAt = at
	c.LastMessagePreview = &preview
	return nil
}

func (r *conversationRepo) ResetUnread(_ context.Context, id uuid.UUID, role domain.ConversationRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return domain.ErrConversationNotFound
	}
	switch role {
	case domain.RoleSender:
		c.SenderUnreadCount = 0
	case domain.RoleReceiver:
		c.ReceiverUnreadCount = 0
	default:
		return domain.ErrNotParticipant
	}
	return nil
}

func (r *conversationRepo) TotalUnread(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, c := range r.conversations {
		total += c.UnreadFor(userID)
	}
	return total, nil
}

type messageRepo Store

func (r *messageRepo) Create(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *m
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *messageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			msg := *m
			out = append(out, &msg)
		}
	}
	return out, nil
}

func (r *messageRepo) MarkReadFor(_ context.Context, conversationID, receiverID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

type sessionRepo Store

func (r *sessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.CreatedAt = time.Now()
	stored := *s
	r.sessions[s.TokenHash] = &stored
	return nil
}

func (r *sessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[tokenHash]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

func (r *sessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

type draftStore Store

func (r *draftStore) Get(_ context.Context, userID uuid.UUID) (*domain.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drafts[userID]
	if !ok {
		return nil, nil
	}
	out := *d
	out.Visibility = domain.VisibilityOptions{}
	for k, v := range d.Visibility {
		out.Visibility[k] = v
	}
	return &out, nil
}

func (r *draftStore) Save(_ context.Context, userID uuid.UUID, d *domain.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *d
	stored.Visibility = domain.VisibilityOptions{}
	for k, v := range d.Visibility {
		stored.Visibility[k] = v
	}
	r.drafts[userID] = &stored
	return nil
}

func (r *draftStore) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, userID)
	return nil
}
