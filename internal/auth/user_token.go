package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/counseldesk/counsel/pkg/contracts"
)

// UserTokenHeader carries a signed user token.
const UserTokenHeader = "X-Service-Token"

// UserTokenProvider validates HMAC-signed user tokens. The token subject
// becomes the identity subject and therefore the owner of drafts.
//
// Token format: base64url(JSON payload) "." base64url(HMAC-SHA256(payload))
type UserTokenProvider struct {
	secret []byte
}

type tokenPayload struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"`
	Exp     int64  `json:"exp"`
}

// NewUserTokenProvider creates a provider; it is disabled without a secret.
func NewUserTokenProvider(secret string) *UserTokenProvider {
	return &UserTokenProvider{secret: []byte(secret)}
}

func (p *UserTokenProvider) Name() string  { return "user_token" }
func (p *UserTokenProvider) Enabled() bool { return len(p.secret) > 0 }

func (p *UserTokenProvider) Authenticate(_ context.Context, r *http.Request) (*contracts.Identity, error) {
	token := r.Header.Get(UserTokenHeader)
	if token == "" {
		return nil, nil
	}

	payload, err := p.verify(token)
	if err != nil {
		return nil, fmt.Errorf("invalid user token: %w", err)
	}

	id := &contracts.Identity{
		Subject:     payload.Subject,
		Email:       payload.Email,
		Provider:    "user_token",
		Role:        payload.Role,
		DisplayName: payload.Subject,
	}
	if payload.Exp > 0 {
		id.ExpiresAt = time.Unix(payload.Exp, 0)
	}
	return id, nil
}

func (p *UserTokenProvider) verify(token string) (*tokenPayload, error) {
	i := strings.LastIndexByte(token, '.')
	if i < 0 {
		return nil, fmt.Errorf("malformed token: expected payload.signature")
	}
	payloadB64, sigB64 := token[:i], token[i+1:]

	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if !hmac.Equal(sig, sign(p.secret, payloadB64)) {
		return nil, fmt.Errorf("signature mismatch")
	}

	raw, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("invalid payload encoding: %w", err)
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload JSON: %w", err)
	}

	if payload.Exp > 0 && time.Now().Unix() > payload.Exp {
		return nil, fmt.Errorf("token expired")
	}
	if payload.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}
	if payload.Role == "" {
		payload.Role = "attorney"
	}
	return &payload, nil
}

func sign(secret []byte, payloadB64 string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payloadB64))
	return mac.Sum(nil)
}

// GenerateToken issues a signed user token valid for ttl. Used by
// provisioning scripts and tests.
func GenerateToken(secret []byte, subject, email, role string, ttl time.Duration) (string, error) {
	data, err := json.Marshal(tokenPayload{
		Subject: subject,
		Email:   email,
		Role:    role,
		Exp:     time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		return "", err
	}
	payloadB64 := base64.RawURLEncoding.EncodeToString(data)
	return payloadB64 + "." + base64.RawURLEncoding.EncodeToString(sign(secret, payloadB64)), nil
}
