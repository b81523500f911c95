package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthHeaders(t *testing.T) {
	headers := AuthHeaders("secret")
	if len(headers) != 2 {
		t.Fatalf("expected 2 header candidates, got %d", len(headers))
	}
	if headers[0] != "token secret" || headers[1] != "Bearer secret" {
		t.Fatalf("unexpected header order: %v", headers)
	}
}

func TestTryEach(t *testing.T) {
	var tried []string
	err := TryEach([]string{"a", "b"}, func(header string) error {
		tried = append(tried, header)
		if header == "a" {
			return errors.New("scheme rejected")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected second header to succeed, got %v", err)
	}
	if len(tried) != 2 {
		t.Fatalf("expected both headers tried, got %v", tried)
	}

	first := errors.New("first")
	last := errors.New("last")
	err = TryEach([]string{"a", "b"}, func(header string) error {
		if header == "a" {
			return first
		}
		return last
	})
	if !errors.Is(err, last) {
		t.Fatalf("expected last failure to propagate, got %v", err)
	}

	calls := 0
	if err := TryEach([]string{"a", "b"}, func(string) error {
		calls++
		return nil
	}); err != nil || calls != 1 {
		t.Fatalf("expected first success to win (calls=%d, err=%v)", calls, err)
	}
}

func TestEnsureReachableClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, kind: KindUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, kind: KindForbidden},
		{name: "not found", status: http.StatusNotFound, body: `{}`, kind: KindNotFound},
		{name: "no push", status: http.StatusOK, body: `{"default_branch":"main","permissions":{"push":false}}`, kind: KindInsufficientPermission},
		{name: "forbidden with no push", status: http.StatusForbidden, body: `{"permissions":{"push":false}}`, kind: KindInsufficientPermission},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(nil, server.URL, 0)
			err := client.EnsureReachable(context.Background(), "octo", "assets", "token t")
			if !IsKind(err, tc.kind) {
				t.Fatalf("expected kind %q, got %v", tc.kind, err)
			}
		})
	}
}

func TestEnsureReachableOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/assets" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Accept") != "application/vnd.github+json" {
			t.Errorf("missing accept header")
		}
		if r.Header.Get("X-GitHub-Api-Version") == "" {
			t.Errorf("missing api version header")
		}
		if r.Header.Get("Authorization") != "token t" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"default_branch":"main","permissions":{"push":true}}`))
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, 0)
	if err := client.EnsureReachable(context.Background(), "octo", "assets", "token t"); err != nil {
		t.Fatalf("expected reachable repo, got %v", err)
	}
}

func TestEnsureBranchExisting(t *testing.T) {
	refCreations := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets/branches/images":
			_, _ = w.Write([]byte(`{"name":"images","commit":{"sha":"abc123"}}`))
		case r.Method == http.MethodPost:
			refCreations++
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, 0)
	state, err := client.EnsureBranch(context.Background(), "octo", "assets", "images", "token t")
	if err != nil {
		t.Fatalf("ensure branch: %v", err)
	}
	if state.Created {
		t.Fatalf("existing branch must report created=false")
	}
	if state.Base != "images" {
		t.Fatalf("base = %q, want images", state.Base)
	}
	if refCreations != 0 {
		t.Fatalf("existing branch triggered %d ref creations", refCreations)
	}
}

func TestEnsureBranchMissing(t *testing.T) {
	var refPayload createRefRequest
	refCreations := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets/branches/images":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets":
			_, _ = w.Write([]byte(`{"default_branch":"main","permissions":{"push":true}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets/branches/main":
			_, _ = w.Write([]byte(`{"name":"main","commit":{"sha":"abc123"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/repos/octo/assets/git/refs":
			refCreations++
			if err := json.NewDecoder(r.Body).Decode(&refPayload); err != nil {
				t.Errorf("decode ref payload: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, 0)
	state, err := client.EnsureBranch(context.Background(), "octo", "assets", "images", "token t")
	if err != nil {
		t.Fatalf("ensure branch: %v", err)
	}
	if !state.Created {
		t.Fatalf("missing branch must report created=true")
	}
	if state.Base != "main" {
		t.Fatalf("base = %q, want main", state.Base)
	}
	if refCreations != 1 {
		t.Fatalf("expected exactly one ref creation, got %d", refCreations)
	}
	if refPayload.Ref != "refs/heads/images" || refPayload.SHA != "abc123" {
		t.Fatalf("unexpected ref payload: %+v", refPayload)
	}
}

func TestEnsureBranchCreationConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets/branches/images":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets":
			_, _ = w.Write([]byte(`{"default_branch":"main"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets/branches/main":
			_, _ = w.Write([]byte(`{"name":"main","commit":{"sha":"abc123"}}`))
		case r.Method == http.MethodPost:
			// concurrent creator won the race
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Reference already exists"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, 0)
	state, err := client.EnsureBranch(context.Background(), "octo", "assets", "images", "token t")
	if err != nil {
		t.Fatalf("conflict must not surface as error, got %v", err)
	}
	if state.Created {
		t.Fatalf("conflicted creation must report created=false")
	}
}

func TestEnsureBranchCreationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets/branches/images":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets":
			_, _ = w.Write([]byte(`{"default_branch":"main"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/assets/branches/main":
			_, _ = w.Write([]byte(`{"name":"main","commit":{"sha":"abc123"}}`))
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, 0)
	_, err := client.EnsureBranch(context.Background(), "octo", "assets", "images", "token t")
	if !IsKind(err, KindBranchCreation) {
		t.Fatalf("expected branch creation kind, got %v", err)
	}
}

func TestCreateFile(t *testing.T) {
	content := []byte{0x89, 0x50, 0x4e, 0x47}
	var gotPath string
	var payload createFileRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotPath = r.URL.EscapedPath()
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, 0)
	path := "images/2026/02/20260210103000123-a b.png"
	err := client.CreateFile(context.Background(), "octo", "assets", "images", path, content, "token t")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	if gotPath != "/repos/octo/assets/contents/images/2026/02/20260210103000123-a%20b.png" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if payload.Message != "chore: upload image "+path {
		t.Fatalf("commit message = %q", payload.Message)
	}
	if payload.Branch != "images" {
		t.Fatalf("branch = %q", payload.Branch)
	}
	if payload.Content != base64.StdEncoding.EncodeToString(content) {
		t.Fatalf("content not base64-encoded as expected")
	}
}

func TestCreateFileFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(nil, server.URL, 0)
	err := client.CreateFile(context.Background(), "octo", "assets", "images", "images/x.png", []byte("x"), "token t")
	if !IsKind(err, KindUploadTransport) {
		t.Fatalf("expected upload transport kind, got %v", err)
	}
}

func TestRawURL(t *testing.T) {
	got := RawURL("octo", "assets", "images", "images/2026/02/20260210103000123-screen shot.png")
	want := "https://raw.githubusercontent.com/octo/assets/images/images/2026/02/20260210103000123-screen%20shot.png"
	if got != want {
		t.Fatalf("RawURL = %q, want %q", got, want)
	}
}
