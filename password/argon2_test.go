package password

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/argon2"
)

// cheapConfig keeps the suite fast while staying above the enforced minimums.
func cheapConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()
	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func mustHash(t *testing.T, h *Argon2, plaintext string) string {
	t.Helper()
	d, err := h.Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash(%q) failed: %v", plaintext, err)
	}
	return d
}

func TestHashProducesPHCDigest(t *testing.T) {
	h := newHasher(t, cheapConfig())
	d := mustHash(t, h, "Faculty-Portal-2026")

	if !strings.HasPrefix(d, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", d)
	}
	if parts := strings.Split(d, "$"); len(parts) != 6 {
		t.Fatalf("expected 6 PHC segments, got %d in %s", len(parts), d)
	}
	if d == mustHash(t, h, "Faculty-Portal-2026") {
		t.Fatal("two digests of the same password must use different salts")
	}
}

func TestVerify(t *testing.T) {
	h := newHasher(t, cheapConfig())
	d := mustHash(t, h, "correct-password-1")

	tests := []struct {
		name      string
		plaintext string
		digest    string
		wantOK    bool
		wantErr   error
		anyErr    bool
	}{
		{name: "match", plaintext: "correct-password-1", digest: d, wantOK: true},
		{name: "mismatch", plaintext: "correct-password-2", digest: d},
		{name: "empty plaintext is a clean mismatch", plaintext: "", digest: d},
		{name: "not a digest", plaintext: "correct-password-1", digest: "not-a-phc-hash", wantErr: ErrMalformedDigest},
		{name: "wrong algorithm", plaintext: "correct-password-1", digest: strings.Replace(d, "$argon2id$", "$argon2i$", 1), anyErr: true},
		{name: "wrong version", plaintext: "correct-password-1", digest: strings.Replace(d, "$v=19$", "$v=18$", 1), anyErr: true},
		{name: "duplicate parameter", plaintext: "correct-password-1", digest: strings.Replace(d, "m=8192,t=1,p=1", "m=8192,m=8192,p=1", 1), wantErr: ErrMalformedDigest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify(tt.plaintext, tt.digest)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.anyErr:
				if err == nil {
					t.Fatal("expected an error")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
		})
	}
}

func TestVerifyReadsParametersFromDigest(t *testing.T) {
	old := newHasher(t, cheapConfig())
	d := mustHash(t, old, "seeded-before-upgrade")

	stronger := cheapConfig()
	stronger.Memory = 16 * 1024
	stronger.Time = 2
	current := newHasher(t, stronger)

	ok, err := current.Verify("seeded-before-upgrade", d)
	if err != nil || !ok {
		t.Fatalf("raising the cost must not invalidate stored digests: ok=%v err=%v", ok, err)
	}

	upgrade, err := current.NeedsUpgrade(d)
	if err != nil || !upgrade {
		t.Fatalf("expected weaker digest to need upgrade: upgrade=%v err=%v", upgrade, err)
	}
	upgrade, err = current.NeedsUpgrade(mustHash(t, current, "seeded-after-upgrade"))
	if err != nil || upgrade {
		t.Fatalf("expected current digest to be up to date: upgrade=%v err=%v", upgrade, err)
	}
}

func TestVerifyAcceptsPaddedBase64(t *testing.T) {
	h := newHasher(t, cheapConfig())

	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte("imported-password"), salt, 1, 8*1024, 1, 32)
	padded := "$argon2id$v=19$m=8192,t=1,p=1$" +
		base64.StdEncoding.EncodeToString(salt) + "$" +
		base64.StdEncoding.EncodeToString(key)

	ok, err := h.Verify("imported-password", padded)
	if err != nil || !ok {
		t.Fatalf("expected padded digest to verify: ok=%v err=%v", ok, err)
	}
}

func TestPlaintextLengthBounds(t *testing.T) {
	cfg := cheapConfig()
	cfg.MaxPasswordBytes = 64
	h := newHasher(t, cfg)

	if _, err := h.Hash(""); err == nil {
		t.Fatal("expected empty password to be rejected")
	}
	if _, err := h.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong from Hash, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	ok, err := h.Verify(exact, mustHash(t, h, exact))
	if err != nil || !ok {
		t.Fatalf("max-length password must round trip: ok=%v err=%v", ok, err)
	}

	d := mustHash(t, h, "valid-password-123")
	if _, err := h.Verify(strings.Repeat("c", 65), d); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected Verify to reject oversized input before hashing, got %v", err)
	}
}

func TestDefaultMaxPasswordBytes(t *testing.T) {
	h := newHasher(t, cheapConfig())
	if _, err := h.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1)); err == nil {
		t.Fatalf("expected password > %d bytes to be rejected", DefaultMaxPasswordBytes)
	}
	mustHash(t, h, strings.Repeat("e", DefaultMaxPasswordBytes))
}

func TestNewArgon2Config(t *testing.T) {
	if _, err := NewArgon2(DefaultConfig()); err != nil {
		t.Fatalf("DefaultConfig rejected: %v", err)
	}

	weak := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory", func(c *Config) { c.Memory = 1024 }},
		{"time", func(c *Config) { c.Time = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"salt", func(c *Config) { c.SaltLength = 8 }},
		{"key", func(c *Config) { c.KeyLength = 8 }},
	}
	for _, tt := range weak {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cheapConfig()
			tt.mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Fatalf("expected weak %s to be rejected", tt.name)
			}
		})
	}
}
