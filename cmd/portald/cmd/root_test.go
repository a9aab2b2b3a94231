package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MrEthical07/portalAuth/password"
)

func TestHashPasswordCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetArgs([]string{"hash-password"})
	hashPasswordCmd.SetIn(strings.NewReader("correct-password-123\n"))
	rootCmd.SetOut(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("hash-password failed: %v", err)
	}

	digest := strings.TrimSpace(out.String())
	if !strings.HasPrefix(digest, "$argon2id$") {
		t.Fatalf("expected argon2id digest, got %q", digest)
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	ok, err := hasher.Verify("correct-password-123", digest)
	if err != nil || !ok {
		t.Fatalf("digest does not verify: ok=%v err=%v", ok, err)
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("PORTAL_ADDR", ":9999")
	var out bytes.Buffer
	rootCmd.SetArgs([]string{"--addr", "127.0.0.1:7000", "--debug", "hash-password"})
	hashPasswordCmd.SetIn(strings.NewReader("another-password-1\n"))
	rootCmd.SetOut(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if settings.ServerAddr != "127.0.0.1:7000" {
		t.Fatalf("expected flag to win, got %q", settings.ServerAddr)
	}
	if !settings.Debug {
		t.Fatal("expected --debug to enable debug")
	}
}
