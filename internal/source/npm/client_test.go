package npm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

const typesNodePackument = `{
  "name": "@types/node",
  "dist-tags": { "latest": "2.0.0", "next": "3.0.0-beta.1" },
  "versions": {
    "1.0.0": { "name": "@types/node", "version": "1.0.0" },
    "2.0.0": { "name": "@types/node", "version": "2.0.0" },
    "1.1.0": { "name": "@types/node", "version": "1.1.0" }
  },
  "time": {
    "created": "2019-01-01T00:00:00.000Z",
    "modified": "2019-03-01T00:00:00.000Z",
    "1.0.0": "2019-01-01T00:00:00.000Z",
    "2.0.0": "2019-02-01T00:00:00.000Z",
    "1.1.0": "2019-03-01T00:00:00.000Z"
  },
  "readme": "# types"
}`

func TestFetchPackument(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(typesNodePackument))
	}))
	defer server.Close()

	client := NewClient(&Options{BaseURL: server.URL + "/", AuthType: AuthTypeToken, Token: "secret"})
	packument, err := client.FetchPackument(context.Background(), "@types/node")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.EqualFold(gotPath, "/@types%2Fnode") {
		t.Errorf("expected escaped scoped path, got %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
	if packument.Name != "@types/node" {
		t.Errorf("expected name '@types/node', got %q", packument.Name)
	}
	wantVersions := []string{"1.0.0", "2.0.0", "1.1.0"}
	if !reflect.DeepEqual(packument.Versions, wantVersions) {
		t.Errorf("expected registry listing order %v, got %v", wantVersions, packument.Versions)
	}
	if packument.DistTags["latest"] != "2.0.0" {
		t.Errorf("expected latest tag 2.0.0, got %q", packument.DistTags["latest"])
	}
	if packument.Time["1.1.0"] != "2019-03-01T00:00:00.000Z" {
		t.Errorf("unexpected time for 1.1.0: %q", packument.Time["1.1.0"])
	}
}

func TestFetchPackument_BasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(typesNodePackument))
	}))
	defer server.Close()

	client := NewClient(&Options{BaseURL: server.URL, AuthType: AuthTypeBasic, Username: "user", Password: "pass"})
	if _, err := client.FetchPackument(context.Background(), "@types/node"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchPackument_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"error":"Not found"}`, wantStatus: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: ``, wantStatus: http.StatusInternalServerError},
		{name: "invalid json", status: http.StatusOK, body: `{"versions": [`, wantErr: ErrMalformed},
		{name: "missing versions", status: http.StatusOK, body: `{"time": {}, "dist-tags": {"latest": "1.0.0"}}`, wantErr: ErrMalformed},
		{name: "missing time", status: http.StatusOK, body: `{"versions": {}, "dist-tags": {"latest": "1.0.0"}}`, wantErr: ErrMalformed},
		{name: "missing dist-tags", status: http.StatusOK, body: `{"versions": {}, "time": {}}`, wantErr: ErrMalformed},
		{name: "missing latest tag", status: http.StatusOK, body: `{"versions": {}, "time": {}, "dist-tags": {}}`, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(&Options{BaseURL: server.URL})
			_, err := client.FetchPackument(context.Background(), "left-pad")
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if tt.wantStatus != 0 {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("expected StatusError, got %v", err)
				}
				if statusErr.StatusCode != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, statusErr.StatusCode)
				}
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPackageURL_DefaultRegistry(t *testing.T) {
	client := NewClient(&Options{})
	if got := client.PackageURL("react"); got != DefaultRegistry+"/react" {
		t.Errorf("unexpected URL: %s", got)
	}
}
