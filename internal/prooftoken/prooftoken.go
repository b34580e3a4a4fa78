// Package prooftoken issues and verifies the day-scoped signed credential
// consumed by the field-facing license check flow. The token binds a
// principal, its company, and its role to one UTC calendar day without
// requiring the consumer to call the identity service.
package prooftoken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/auth"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/errors"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/tenant"
)

// DayFormat is the UTC calendar-day granularity of a token.
const DayFormat = "2006-01-02"

// Payload is the canonical signed payload. Field order is part of the wire
// format: serialization must stay byte-reproducible.
type Payload struct {
	UID       string  `json:"uid"`
	CompanyID *string `json:"company_id"`
	Role      string  `json:"role"`
	Day       string  `json:"day"`
}

// Mint builds the compact token: base64url(payload JSON), a dot, and
// base64url(HMAC-SHA256(secret, encoded payload)), both unpadded. The same
// secret and payload always reproduce the same token.
func Mint(secret []byte, payload Payload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + signature(secret, encoded), nil
}

// Verify checks a token's signature in constant time and requires its day to
// match now's UTC calendar date.
func Verify(secret []byte, token string, now time.Time) (Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return Payload{}, fmt.Errorf("malformed token")
	}
	encoded, sig := parts[0], parts[1]

	if !hmac.Equal([]byte(sig), []byte(signature(secret, encoded))) {
		return Payload{}, fmt.Errorf("signature mismatch")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, fmt.Errorf("unmarshal payload: %w", err)
	}

	if payload.Day != now.UTC().Format(DayFormat) {
		return Payload{}, fmt.Errorf("token day expired")
	}
	return payload, nil
}

func signature(secret []byte, payloadEncoded string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payloadEncoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Issued is the issuance result returned to the caller.
type Issued struct {
	Token string `json:"token"`
	Day   string `json:"day"`
	Owner string `json:"owner"`
}

// ProfileSource fetches the issuing principal's profile.
type ProfileSource interface {
	ProfileByID(ctx context.Context, principalID string) (tenant.Profile, bool, error)
}

// Issuer mints tokens for authenticated principals.
type Issuer struct {
	secret   []byte
	profiles ProfileSource
	now      func() time.Time
}

// NewIssuer creates an issuer signing with secret.
func NewIssuer(secret string, profiles ProfileSource) *Issuer {
	return &Issuer{
		secret:   []byte(secret),
		profiles: profiles,
		now:      time.Now,
	}
}

// Issue mints today's token for the principal. Two calls within the same UTC
// day for an unchanged profile produce identical tokens.
func (i *Issuer) Issue(ctx context.Context, principal auth.Principal) (Issued, error) {
	profile, found, err := i.profiles.ProfileByID(ctx, principal.ID)
	if err != nil {
		return Issued{}, err
	}
	if !found {
		return Issued{}, errors.BadRequest("profile not found")
	}

	day := i.now().UTC().Format(DayFormat)
	token, err := Mint(i.secret, Payload{
		UID:       principal.ID,
		CompanyID: profile.CompanyID,
		Role:      profile.Role,
		Day:       day,
	})
	if err != nil {
		return Issued{}, err
	}

	owner := profile.FullName
	if owner == "" {
		owner = profile.Email
	}
	return Issued{Token: token, Day: day, Owner: owner}, nil
}
