package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Payload is the identity carried by a session cookie. StaffID is set only
// for staff sessions.
type Payload struct {
	UserID    string `json:"uid"`
	StaffID   string `json:"sid,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

// Codec signs and validates session tokens of the form
// base64url(json) + "." + base64url(hmac-sha256(secret, body)).
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec builds a codec with the given signing secret and token lifetime.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Encode signs the payload into a cookie-safe token. Zero iat/exp fields are
// stamped from the codec's clock and lifetime.
func (c *Codec) Encode(payload Payload) (string, error) {
	now := time.Now()
	if payload.IssuedAt == 0 {
		payload.IssuedAt = now.Unix()
	}
	if payload.ExpiresAt == 0 {
		payload.ExpiresAt = now.Add(c.ttl).Unix()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + c.sign(body), nil
}

// Decode validates a token and returns its payload. It fails closed: any
// absent, malformed, tampered or expired token yields ok=false.
func (c *Codec) Decode(token string) (Payload, bool) {
	var payload Payload
	if token == "" {
		return payload, false
	}
	body, sig, found := strings.Cut(token, ".")
	if !found || body == "" || sig == "" {
		return payload, false
	}
	// Compare the encoded signatures so a non-canonical base64 variant of a
	// valid signature is rejected too.
	if subtle.ConstantTimeCompare([]byte(c.sign(body)), []byte(sig)) != 1 {
		return payload, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return payload, false
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, false
	}
	if payload.ExpiresAt != 0 && time.Now().Unix() > payload.ExpiresAt {
		return Payload{}, false
	}
	return payload, true
}

func (c *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
