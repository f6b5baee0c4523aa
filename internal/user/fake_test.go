package user

import (
	"context"
	"sync"
	"time"

	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
	"github.com/pot-code/course-gateway/internal/infrastructure/driver"
)

// memoryKV driver.KeyValueDB in memory on a manual clock, see advance
type memoryKV struct {
	mu      sync.Mutex
	now     time.Time
	data    map[string]string
	ttl     map[string]time.Duration
	expires map[string]time.Time
}

func newMemoryKV() *memoryKV {
	return &memoryKV{
		now:     time.Unix(0, 0),
		data:    make(map[string]string),
		ttl:     make(map[string]time.Duration),
		expires: make(map[string]time.Time),
	}
}

// advance move the clock, dropping keys that expire on the way
func (m *memoryKV) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	for key, at := range m.expires {
		if !m.now.Before(at) {
			delete(m.data, key)
			delete(m.expires, key)
		}
	}
}

func (m *memoryKV) setTTL(key string, expiration time.Duration) {
	m.ttl[key] = expiration
	if expiration > 0 {
		m.expires[key] = m.now.Add(expiration)
	} else {
		delete(m.expires, key)
	}
}

func (m *memoryKV) SetEX(ctx context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.setTTL(key, expiration)
	return nil
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", driver.ErrKeyNotFound
	}
	return v, nil
}

func (m *memoryKV) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.expires, key)
	return nil
}

func (m *memoryKV) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memoryKV) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return driver.ErrKeyNotFound
	}
	m.setTTL(key, expiration)
	return nil
}

func (m *memoryKV) Ping() error { return nil }

type fakeUsers struct {
	UserRepository
	login *AuthResult
	valid bool
}

func (f *fakeUsers) Login(ctx context.Context, form *SignInForm) (*AuthResult, error) {
	if f.login == nil || form.Password != "secret" {
		return nil, ErrNoSuchUser
	}
	return f.login, nil
}

func (f *fakeUsers) Validate(ctx context.Context, remoteToken string) (bool, error) {
	return f.valid && remoteToken == f.login.Token, nil
}

type fakeCourses struct {
	course.CourseRepository
	mu     sync.Mutex
	tokens []string
}

func (f *fakeCourses) record(ctx context.Context) {
	token, _ := apiclient.TokenFromContext(ctx)
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
}

func (f *fakeCourses) CatalogCourses(ctx context.Context) ([]*course.Course, error) {
	f.record(ctx)
	return []*course.Course{{ID: "c1"}, {ID: "c2"}}, nil
}

func (f *fakeCourses) EnrolledCourses(ctx context.Context) ([]*course.Course, error) {
	f.record(ctx)
	return []*course.Course{{ID: "c1", Enrolled: true}}, nil
}

func (f *fakeCourses) LikedCourseIDs(ctx context.Context) ([]string, error) {
	f.record(ctx)
	return []string{"c2"}, nil
}

type closedUsers []string

func (c *closedUsers) CloseUser(userID string) { *c = append(*c, userID) }

type fixedID string

func (f fixedID) Generate() (string, error) { return string(f), nil }
