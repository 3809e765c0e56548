package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkravets/authd/internal/auth/service"
	"github.com/mkravets/authd/internal/common/clock"
)

func TestTokenIssuer_AccessTokenRoundTrip(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clk)

	token, err := issuer.IssueAccessToken("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sub, err := issuer.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "user-123" {
		t.Errorf("expected subject user-123, got %s", sub)
	}
}

func TestTokenIssuer_KeySeparation(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clk)

	accessToken, err := issuer.IssueAccessToken("user-123")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	refreshToken, err := issuer.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	if _, err := issuer.VerifyRefreshToken(accessToken); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("access token verified against refresh secret: %v", err)
	}
	if _, err := issuer.VerifyAccessToken(refreshToken); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("refresh token verified against access secret: %v", err)
	}
}

func TestTokenIssuer_AccessTokenExpiry(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clk)

	token, err := issuer.IssueAccessToken("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clk.Advance(14 * time.Minute)
	if _, err := issuer.VerifyAccessToken(token); err != nil {
		t.Fatalf("token should still be valid at 14m: %v", err)
	}

	clk.Advance(2 * time.Minute)
	if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenIssuer_RefreshTokenExpiry(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clk)

	token, err := issuer.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clk.Advance(6 * 24 * time.Hour)
	if _, err := issuer.VerifyRefreshToken(token); err != nil {
		t.Fatalf("token should still be valid at day 6: %v", err)
	}

	clk.Advance(2 * 24 * time.Hour)
	if _, err := issuer.VerifyRefreshToken(token); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenIssuer_TamperedTokenFails(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clk)

	token, err := issuer.IssueAccessToken("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected a three-segment token, got %d segments", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := issuer.VerifyAccessToken(tampered); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestTokenIssuer_GarbageFails(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clk)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, service.ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}
