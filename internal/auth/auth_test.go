package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenAuthenticator(t *testing.T) {
	a := NewTokenAuthenticator("secret")

	cases := []struct {
		header string
		want   error
	}{
		{"", ErrMissingBearer},
		{"Basic abc", ErrInvalidToken},
		{"Bearer ", ErrInvalidToken},
		{"Bearer wrong", ErrInvalidToken},
		{"Bearer secret", nil},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/interviews", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		claims, err := a.Authenticate(req)
		if !errors.Is(err, tc.want) {
			t.Fatalf("header %q: expected %v, got %v", tc.header, tc.want, err)
		}
		if err == nil && claims.Subject != "operator" {
			t.Fatalf("unexpected subject %q", claims.Subject)
		}
	}
}

func TestEmptyTokenAdmitsAll(t *testing.T) {
	a := NewTokenAuthenticator("")
	req := httptest.NewRequest(http.MethodGet, "/v1/interviews", nil)
	claims, err := a.Authenticate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "anonymous" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}
