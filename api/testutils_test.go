package main

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// memoryStore is an in-memory store used by handler tests. It mirrors
// the Postgres implementation's semantics: lookups return (nil, nil)
// when missing and deleting a user cascades to their tasks.
type memoryStore struct {
	mu         sync.Mutex
	tasks      map[int]*task
	users      map[int]*user
	nextTaskID int
	nextUserID int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tasks:      make(map[int]*task),
		users:      make(map[int]*user),
		nextTaskID: 1,
		nextUserID: 1,
	}
}

func (s *memoryStore) insertTask(t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	t.ID = s.nextTaskID
	s.nextTaskID++
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *memoryStore) resolveUsername(t *task) {
	if u, ok := s.users[t.AssignedTo]; ok {
		t.AssignedToUsername = u.Username
	}
}

func (s *memoryStore) getTaskByID(id int) (*task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	s.resolveUsername(&cp)
	return &cp, nil
}

func (s *memoryStore) getTasks(f taskFilters) ([]*task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []*task{}
	for _, t := range s.tasks {
		if f.status != "" && t.Status != f.status {
			continue
		}
		if !f.dueDate.IsZero() && !t.DueDate.Equal(f.dueDate) {
			continue
		}
		cp := *t
		s.resolveUsername(&cp)
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.ordering {
		case "due_date":
			if !a.DueDate.Equal(b.DueDate.Time) {
				return a.DueDate.Before(b.DueDate.Time)
			}
		case "-due_date":
			if !a.DueDate.Equal(b.DueDate.Time) {
				return a.DueDate.After(b.DueDate.Time)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
	total := len(matched)
	start := (f.page - 1) * f.pageSize
	if start > total {
		start = total
	}
	end := start + f.pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memoryStore) updateTask(t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok {
		return errors.New("task does not exist")
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *memoryStore) deleteTask(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	delete(s.tasks, id)
	return ok, nil
}

func (s *memoryStore) insertUser(u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Username == u.Username {
			return errDuplicateUsername
		}
	}
	u.ID = s.nextUserID
	s.nextUserID++
	u.CreatedAt = time.Now()
	u.Version = 1
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memoryStore) getUserByID(id int) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) getUserByUsername(username string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) updateUser(u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok || existing.Version != u.Version {
		return errors.New("edit conflict")
	}
	for id, other := range s.users {
		if id != u.ID && other.Username == u.Username {
			return errDuplicateUsername
		}
	}
	u.Version++
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memoryStore) deleteUser(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	if !ok {
		return false, nil
	}
	delete(s.users, id)
	for taskID, t := range s.tasks {
		if t.AssignedTo == id {
			delete(s.tasks, taskID)
		}
	}
	return true, nil
}

const testPassword = "pa55word1234"

func newTestApplication(t *testing.T) (*application, *memoryStore) {
	t.Helper()
	var cfg config
	cfg.env = "test"
	cfg.jwt.secret = "test-secret"
	cfg.jwt.accessTTL = 15 * time.Minute
	cfg.jwt.refreshTTL = 24 * time.Hour
	cfg.pageSize = 5
	cfg.throttle.userRate = 1000
	cfg.throttle.anonRate = 1000
	cfg.throttle.window = time.Minute

	ms := newMemoryStore()
	app := &application{
		config: cfg,
		store:  ms,
		throttle: newThrottler(cfg.throttle.window, map[string]int{
			throttleBucketUser: cfg.throttle.userRate,
			throttleBucketAnon: cfg.throttle.anonRate,
		}),
	}
	return app, ms
}

func createTestUser(t *testing.T, app *application, username string) *user {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := &user{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: hash,
	}
	err = app.store.insertUser(u)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func bearerToken(t *testing.T, app *application, u *user) string {
	t.Helper()
	token, err := app.issueToken(u, tokenTypeAccess, app.config.jwt.accessTTL)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}
