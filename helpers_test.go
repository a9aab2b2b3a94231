package portalAuth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/portalAuth/jwt"
	"github.com/MrEthical07/portalAuth/password"
)

const testPassword = "correct-password-123"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeDirectory struct {
	mu       sync.Mutex
	accounts map[string]*Account

	findErr    error
	permsErr   error
	touchErr   error
	perms      map[Role][]string
	findCalls  int
	touchCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{accounts: map[string]*Account{}}
}

func (d *fakeDirectory) add(t testing.TB, hasher PasswordHasher, identifier string, role Role, active bool) *Account {
	t.Helper()
	digest, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	acc := &Account{
		SubjectID:    "sub-" + identifier,
		Identifier:   identifier,
		PasswordHash: digest,
		Role:         role,
		DepartmentID: "cs",
		Active:       active,
	}
	d.mu.Lock()
	d.accounts[strings.ToLower(identifier)] = acc
	d.mu.Unlock()
	return acc
}

func (d *fakeDirectory) FindByIdentifier(_ context.Context, identifier string) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findCalls++
	if d.findErr != nil {
		return nil, d.findErr
	}
	acc, ok := d.accounts[strings.ToLower(identifier)]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

func (d *fakeDirectory) PermissionsForRole(_ context.Context, role Role) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.permsErr != nil {
		return nil, d.permsErr
	}
	return d.perms[role], nil
}

func (d *fakeDirectory) TouchLastLogin(context.Context, string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touchCalls++
	return d.touchErr
}

// countingHasher wraps a real hasher and counts Hash and Verify calls.
type countingHasher struct {
	inner    PasswordHasher
	mu       sync.Mutex
	hashes   int
	verifies int
	fail     bool
}

func (h *countingHasher) Hash(p string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return h.inner.Hash(p)
}

func (h *countingHasher) Verify(p, d string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	if h.fail {
		return false, errors.New("hasher exploded")
	}
	return h.inner.Verify(p, d)
}

func (h *countingHasher) hashCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes
}

func (h *countingHasher) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = append([]byte(nil), testSecret...)
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	return cfg
}

func fastHasher(t testing.TB) *countingHasher {
	t.Helper()
	h, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return &countingHasher{inner: h}
}

type testEngine struct {
	*Engine
	dir    *fakeDirectory
	hasher *countingHasher
	clock  *testClock
}

func newTestEngine(t testing.TB, mutate func(*Builder)) *testEngine {
	t.Helper()
	dir := newFakeDirectory()
	hasher := fastHasher(t)
	clock := newTestClock()

	b := New().
		WithConfig(testConfig()).
		WithDirectory(dir).
		WithHasher(hasher).
		WithClock(clock.Now)
	if mutate != nil {
		mutate(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	dir.add(t, hasher, "alice@uni.edu", RoleFaculty, true)
	dir.add(t, hasher, "root@uni.edu", RoleAdmin, true)
	dir.add(t, hasher, "gone@uni.edu", RoleStaff, false)
	return &testEngine{Engine: engine, dir: dir, hasher: hasher, clock: clock}
}

func jwtSubject(id, role string) jwt.Subject {
	return jwt.Subject{ID: id, Role: role}
}
