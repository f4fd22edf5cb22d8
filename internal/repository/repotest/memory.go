// Package repotest provides in-memory repositories for service and handler
// tests. They enforce the same uniqueness, ownership and ordering rules as
// the Postgres stores.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/repository"
)

// Store holds every table behind one mutex so that the fakes can join
// across them the way SQL does.
type Store struct {
	mu       sync.Mutex
	users    []models.User
	chats    []models.Chat
	messages []models.Message
	stats    []models.QueryStat
	nextID   int64

	// FailQueryStats makes QueryStats().Record fail.
	FailQueryStats bool
}

func New() *Store {
	return &Store{}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

var errQueryStats = errors.New("query stats unavailable")

var (
	_ repository.UserRepository      = (*Users)(nil)
	_ repository.ChatRepository      = (*Chats)(nil)
	_ repository.MessageRepository   = (*Messages)(nil)
	_ repository.QueryStatRepository = (*QueryStats)(nil)
	_ repository.StatsRepository     = (*Stats)(nil)
)

func (s *Store) Users() *Users           { return &Users{s} }
func (s *Store) Chats() *Chats           { return &Chats{s} }
func (s *Store) Messages() *Messages     { return &Messages{s} }
func (s *Store) QueryStats() *QueryStats { return &QueryStats{s} }
func (s *Store) Stats() *Stats           { return &Stats{s} }

// Counts returns the number of stored chats, messages and query stats.
func (s *Store) Counts() (chats, messages, queryStats int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats), len(s.messages), len(s.stats)
}

// SetUserCreatedAt backdates a user for registration window tests.
func (s *Store) SetUserCreatedAt(id int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].CreatedAt = at
		}
	}
}

type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, nu repository.NewUser) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == nu.Email {
			return nil, repository.ErrDuplicate
		}
		if nu.Username != nil && u.Username != nil && *u.Username == *nu.Username {
			return nil, repository.ErrDuplicate
		}
	}

	role := nu.Role
	if role == "" {
		role = models.RoleUser
	}
	u := models.User{
		ID:           r.s.id(),
		Email:        nu.Email,
		Username:     nu.Username,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		PasswordHash: nu.PasswordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	r.s.users = append(r.s.users, u)
	return &u, nil
}

func (r *Users) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *Users) GetAdminByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool {
		return u.Role == models.RoleAdmin && u.Username != nil && *u.Username == username
	})
}

// Delete removes a user row, leaving their chats behind as the database
// would.
func (r *Users) Delete(id int64) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.users[:0]
	for _, u := range r.s.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	r.s.users = kept
}

func (r *Users) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

type Chats struct{ s *Store }

func (r *Chats) ListByUser(_ context.Context, userID int64) ([]models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chats := make([]models.Chat, 0)
	for _, ch := range r.s.chats {
		if ch.UserID == userID {
			chats = append(chats, ch)
		}
	}
	sort.SliceStable(chats, func(i, j int) bool {
		if chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].ID > chats[j].ID
		}
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})
	return chats, nil
}

func (r *Chats) Create(_ context.Context, userID int64, chatID, title string, createdAt time.Time) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, ch := range r.s.chats {
		if ch.ChatID == chatID {
			return nil, repository.ErrDuplicate
		}
	}
	ch := models.Chat{ID: r.s.id(), ChatID: chatID, UserID: userID, Title: title, CreatedAt: createdAt}
	r.s.chats = append(r.s.chats, ch)
	return &ch, nil
}

func (r *Chats) GetOwned(_ context.Context, userID int64, chatID string) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i := r.s.ownedChat(userID, chatID); i >= 0 {
		ch := r.s.chats[i]
		return &ch, nil
	}
	return nil, repository.ErrNotFound
}

func (r *Chats) UpdateTitle(_ context.Context, userID int64, chatID, title string) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.ownedChat(userID, chatID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	r.s.chats[i].Title = title
	ch := r.s.chats[i]
	return &ch, nil
}

func (r *Chats) Delete(_ context.Context, userID int64, chatID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.ownedChat(userID, chatID)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.s.chats = append(r.s.chats[:i], r.s.chats[i+1:]...)

	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.ChatID != chatID {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

// ownedChat returns the index of the chat or -1. Callers hold mu.
func (s *Store) ownedChat(userID int64, chatID string) int {
	for i, ch := range s.chats {
		if ch.ChatID == chatID && ch.UserID == userID {
			return i
		}
	}
	return -1
}

type Messages struct{ s *Store }

func (r *Messages) Create(_ context.Context, userID int64, chatID string, sender models.Sender, text string, createdAt time.Time) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := models.Message{ID: r.s.id(), ChatID: chatID, UserID: userID, Sender: sender, Text: text, CreatedAt: createdAt}
	r.s.messages = append(r.s.messages, m)
	return &m, nil
}

func (r *Messages) ListByChat(_ context.Context, chatID string) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	msgs := make([]models.Message, 0)
	for _, m := range r.s.messages {
		if m.ChatID == chatID {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

type QueryStats struct{ s *Store }

func (r *QueryStats) Record(_ context.Context, userID int64, chatID, queryText string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailQueryStats {
		return errQueryStats
	}
	r.s.stats = append(r.s.stats, models.QueryStat{
		ID: r.s.id(), UserID: userID, QueryText: queryText, ChatID: chatID, CreatedAt: time.Now(),
	})
	return nil
}

type Stats struct{ s *Store }

func (r *Stats) Usage(_ context.Context, since time.Time) (*models.UsageStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := models.UsageStats{TopQueries: make([]models.TopQuery, 0)}
	for _, u := range r.s.users {
		if u.Role == models.RoleUser {
			stats.UserCount++
		}
	}

	counts := make(map[string]int64)
	for _, q := range r.s.stats {
		stats.QueryCount++
		if !q.CreatedAt.Before(since) {
			stats.RecentQueries++
		}
		counts[q.QueryText]++
	}
	for text, n := range counts {
		stats.TopQueries = append(stats.TopQueries, models.TopQuery{QueryText: text, Count: n})
	}
	sort.Slice(stats.TopQueries, func(i, j int) bool {
		a, b := stats.TopQueries[i], stats.TopQueries[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.QueryText < b.QueryText
	})
	if len(stats.TopQueries) > 10 {
		stats.TopQueries = stats.TopQueries[:10]
	}
	return &stats, nil
}

func (r *Stats) UserActivity(_ context.Context) ([]models.UserActivity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]models.UserActivity, 0)
	for _, u := range r.s.users {
		if u.Role != models.RoleUser {
			continue
		}
		a := models.UserActivity{
			ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, CreatedAt: u.CreatedAt,
		}
		owned := make(map[string]bool)
		for _, ch := range r.s.chats {
			if ch.UserID == u.ID {
				owned[ch.ChatID] = true
			}
		}
		a.ChatCount = int64(len(owned))
		for _, m := range r.s.messages {
			if owned[m.ChatID] && m.UserID == u.ID {
				a.MessageCount++
			}
		}
		users = append(users, a)
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *Stats) Registrations(_ context.Context, since time.Time) ([]models.DailyRegistrations, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[string]int64)
	for _, u := range r.s.users {
		if u.Role == models.RoleUser && !u.CreatedAt.Before(since) {
			counts[u.CreatedAt.Format("2006-01-02")]++
		}
	}
	days := make([]models.DailyRegistrations, 0, len(counts))
	for date, n := range counts {
		days = append(days, models.DailyRegistrations{Date: date, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}
