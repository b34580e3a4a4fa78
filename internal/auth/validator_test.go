package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/errors"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/supabase"
)

type introspectorFunc func(ctx context.Context, accessToken string) (*supabase.User, error)

func (f introspectorFunc) GetUser(ctx context.Context, accessToken string) (*supabase.User, error) {
	return f(ctx, accessToken)
}

func signedJWT(t *testing.T, secret, sub, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthenticateRejectsMissingBearerPrefix(t *testing.T) {
	v := NewValidator(introspectorFunc(func(ctx context.Context, token string) (*supabase.User, error) {
		t.Fatal("introspection must not run without a bearer token")
		return nil, nil
	}), "")

	cases := []string{"", "token abc", "bearer abc", "Bearerabc", "Basic abc"}
	for _, header := range cases {
		_, err := v.Authenticate(context.Background(), header)
		svcErr := errors.FromError(err)
		if svcErr == nil || svcErr.Code != errors.CodeUnauthenticated {
			t.Fatalf("header %q: err = %v, want unauthenticated", header, err)
		}
		if svcErr.Message != "missing token" {
			t.Fatalf("header %q: message = %q, want missing token", header, svcErr.Message)
		}
	}
}

func TestAuthenticateLocalVerificationSkipsIntrospection(t *testing.T) {
	introspected := false
	v := NewValidator(introspectorFunc(func(ctx context.Context, token string) (*supabase.User, error) {
		introspected = true
		return nil, fmt.Errorf("unreachable backend")
	}), "jwt-secret")

	token := signedJWT(t, "jwt-secret", "u1", "owner@example.com")
	principal, err := v.Authenticate(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if introspected {
		t.Fatal("introspection ran despite a locally valid token")
	}
	if principal.ID != "u1" || principal.Email != "owner@example.com" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestAuthenticateFallsBackToIntrospection(t *testing.T) {
	v := NewValidator(introspectorFunc(func(ctx context.Context, token string) (*supabase.User, error) {
		return &supabase.User{ID: "u2", Email: "driver@example.com"}, nil
	}), "jwt-secret")

	// Signed with the wrong secret; local verification fails, introspection
	// still vouches for it.
	token := signedJWT(t, "other-secret", "u2", "driver@example.com")
	principal, err := v.Authenticate(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if principal.ID != "u2" {
		t.Fatalf("principal.ID = %q, want u2", principal.ID)
	}
}

func TestAuthenticateIntrospectionOnlyWithoutSecret(t *testing.T) {
	v := NewValidator(introspectorFunc(func(ctx context.Context, token string) (*supabase.User, error) {
		if token != "opaque-token" {
			t.Fatalf("introspected token = %q, want opaque-token", token)
		}
		return &supabase.User{ID: "u3", Email: "ops@example.com"}, nil
	}), "")

	principal, err := v.Authenticate(context.Background(), "Bearer opaque-token")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if principal.ID != "u3" {
		t.Fatalf("principal.ID = %q, want u3", principal.ID)
	}
}

func TestAuthenticateIntrospectionFailureIsUnauthenticated(t *testing.T) {
	v := NewValidator(introspectorFunc(func(ctx context.Context, token string) (*supabase.User, error) {
		return nil, fmt.Errorf("token introspection failed with status 401: invalid JWT")
	}), "")

	_, err := v.Authenticate(context.Background(), "Bearer expired")
	svcErr := errors.FromError(err)
	if svcErr.Code != errors.CodeUnauthenticated {
		t.Fatalf("code = %s, want unauthenticated", svcErr.Code)
	}
	if svcErr.Message != "invalid token" {
		t.Fatalf("message = %q, want invalid token", svcErr.Message)
	}
}

func TestAuthenticateEmptyUserIDIsUnauthenticated(t *testing.T) {
	v := NewValidator(introspectorFunc(func(ctx context.Context, token string) (*supabase.User, error) {
		return &supabase.User{}, nil
	}), "")

	_, err := v.Authenticate(context.Background(), "Bearer anon")
	svcErr := errors.FromError(err)
	if svcErr.Code != errors.CodeUnauthenticated {
		t.Fatalf("code = %s, want unauthenticated", svcErr.Code)
	}
}
