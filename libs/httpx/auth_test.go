package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/c-moralesv/lexagenda/libs/auth"
)

func TestRequireStaff(t *testing.T) {
	const secret = "test-secret"
	var seenName string
	protected := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := StaffFromContext(r.Context()); claims != nil {
			seenName = claims.Name
		}
		w.WriteHeader(http.StatusOK)
	}), RequireStaff(secret))

	// No token.
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	// Token signed with another secret.
	bad, err := auth.SignHS256(auth.Claims{Sub: "u1"}, "other-secret")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: status = %d, want 401", rec.Code)
	}

	// Valid token.
	good, err := auth.SignHS256(auth.Claims{
		Sub:  "u1",
		Name: "Paula Fuentes",
		Role: "staff",
		Exp:  time.Now().Add(time.Hour).Unix(),
	}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", rec.Code)
	}
	if seenName != "Paula Fuentes" {
		t.Errorf("claims not propagated, seen name = %q", seenName)
	}
}
