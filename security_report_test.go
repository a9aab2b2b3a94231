package portalAuth

import (
	"bytes"
	"slices"
	"strings"
	"testing"
)

func TestSecurityReportDevelopmentDefaults(t *testing.T) {
	te := newTestEngine(t, nil)
	r := te.SecurityReport()

	if r.SigningAlgorithm != "HS256" {
		t.Fatalf("expected HS256, got %q", r.SigningAlgorithm)
	}
	if r.SecretBytes != len(testSecret) {
		t.Fatalf("expected %d secret bytes, got %d", len(testSecret), r.SecretBytes)
	}
	if r.SecureCookies || r.RateLimitingActive {
		t.Fatalf("expected insecure dev posture, got %+v", r)
	}
	for _, want := range []string{
		"session cookies are sent without the Secure attribute",
		"login throttling is disabled",
		"token secret is shorter than 64 bytes",
	} {
		if !slices.Contains(r.Warnings, want) {
			t.Fatalf("expected warning %q in %v", want, r.Warnings)
		}
	}
	if !slices.Equal(r.Roles, te.table.Roles()) {
		t.Fatalf("expected roles %v, got %v", te.table.Roles(), r.Roles)
	}
}

func TestSecurityReportNeverLeaksSecret(t *testing.T) {
	te := newTestEngine(t, nil)
	r := te.SecurityReport()

	var buf bytes.Buffer
	for _, w := range r.Warnings {
		buf.WriteString(w)
	}
	if strings.Contains(buf.String(), string(testSecret)) {
		t.Fatal("security report leaked the token secret")
	}
}

func TestSecurityReportProductionForcesSecureCookies(t *testing.T) {
	te := newTestEngine(t, func(b *Builder) {
		cfg := testConfig()
		cfg.Security.ProductionMode = true
		b.WithConfig(cfg)
	})
	r := te.SecurityReport()
	if !r.ProductionMode || !r.SecureCookies {
		t.Fatalf("expected production with secure cookies, got %+v", r)
	}
	if slices.Contains(r.Warnings, "session cookies are sent without the Secure attribute") {
		t.Fatalf("unexpected insecure-cookie warning: %v", r.Warnings)
	}
	if !slices.Contains(r.Warnings, "bearer tokens are accepted in production") {
		t.Fatalf("expected bearer warning, got %v", r.Warnings)
	}
}
