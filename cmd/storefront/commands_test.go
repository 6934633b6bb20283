// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/catalog"
)

// ---- Fake catalog service ----

type fakeCatalog struct {
	mu       sync.Mutex
	role     string
	password string
	renamed  map[string]string
	authSeen []string
}

func (f *fakeCatalog) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != f.password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": f.role}).SignedString([]byte("secret"))
		assert.NoError(t, err)
		fmt.Fprintf(w, `{"token":%q}`, tok)
	})
	mux.HandleFunc("GET /api/items", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		io.WriteString(w, `[
			{"_id":"i1","name":"Hammer","price":9.5,"category":{"_id":"c1","name":"Books"}},
			{"_id":"i2","name":"Novel","price":"15","category":"Books"},
			{"_id":"i3","name":"Lamp","price":20,"category":"Home"}
		]`)
	})
	mux.HandleFunc("GET /api/categories", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		io.WriteString(w, `[{"_id":"c1","name":"Books"},{"_id":"c2","name":"Home"}]`)
	})
	mux.HandleFunc("PUT /api/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		var body struct{ Name string }
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.renamed[r.PathValue("id")] = body.Name
		f.mu.Unlock()
		fmt.Fprintf(w, `{"_id":%q,"name":%q}`, r.PathValue("id"), body.Name)
	})
	return mux
}

func (f *fakeCatalog) seen(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authSeen = append(f.authSeen, r.Header.Get("Authorization"))
}

// ---- Harness ----

type harness struct {
	t       *testing.T
	catalog *fakeCatalog
	config  string
}

func newHarness(t *testing.T, role string) *harness {
	t.Helper()
	fc := &fakeCatalog{role: role, password: "hunter2", renamed: map[string]string{}}
	server := httptest.NewServer(fc.handler(t))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "storefront.yaml")
	cfg := fmt.Sprintf("api:\n  base_url: %s\n  timeout: 5s\nsession:\n  path: %s\nlogging:\n  level: error\n",
		server.URL, filepath.Join(dir, "session"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return &harness{t: t, catalog: fc, config: cfgPath}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	loginUsername, filterCategory, filterSearch = "", "", ""

	var out bytes.Buffer
	rootCmd.SetArgs(append([]string{"--config", h.config, "--output", "machine"}, args...))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	err := rootCmd.ExecuteContext(context.Background())
	_ = teardown(nil, nil)
	return out.String(), err
}

// ---- Tests ----

func TestLogin_AdminFlow(t *testing.T) {
	h := newHarness(t, "admin")

	out, err := h.run("hunter2\n", "login", "--username", "ada")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: Logged in as ada (admin)")

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Role: admin")
	assert.Contains(t, out, "Home | Dashboard | Logout")

	out, err = h.run("", "categories", "rename", "c1", "Media")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: Renamed category to Media")
	assert.Equal(t, "Media", h.catalog.renamed["c1"])

	for _, auth := range h.catalog.authSeen {
		assert.True(t, strings.HasPrefix(auth, "Bearer "), "admin calls carry the token")
	}

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: Logged out")

	_, err = h.run("", "categories", "list")
	assert.ErrorIs(t, err, errLoginRequired)
}

func TestLogin_BadPassword(t *testing.T) {
	h := newHarness(t, "admin")

	_, err := h.run("wrong\n", "login", "--username", "ada")
	require.Error(t, err)
	assert.Equal(t, "login failed, please verify your credentials", err.Error())

	out, err := h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
	assert.Contains(t, out, "Home | Login")
}

func TestLogin_RequiresUsernameWithoutTerminal(t *testing.T) {
	h := newHarness(t, "admin")
	_, err := h.run("hunter2\n", "login")
	assert.ErrorContains(t, err, "--username is required")
}

func TestNonAdmin_CannotMutate(t *testing.T) {
	h := newHarness(t, "user")

	_, err := h.run("hunter2\n", "login", "--username", "bob")
	require.NoError(t, err)

	_, err = h.run("", "categories", "rename", "c1", "Media")
	assert.ErrorIs(t, err, errAdminRequired)
	assert.Empty(t, h.catalog.renamed)
}

func TestItemsList_Filtered(t *testing.T) {
	h := newHarness(t, "admin")

	out, err := h.run("", "items", "list", "--category", "Books", "--search", "nov")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "i2\tNovel\t15.00\tBooks", lines[0])

	for _, auth := range h.catalog.authSeen {
		assert.Empty(t, auth, "the public listing is anonymous")
	}
}

func TestCategoriesDelete_RejectsUnsafeID(t *testing.T) {
	h := newHarness(t, "admin")
	_, err := h.run("hunter2\n", "login", "--username", "ada")
	require.NoError(t, err)

	_, err = h.run("", "categories", "delete", "../items")
	assert.ErrorContains(t, err, "invalid id")
	assert.Empty(t, h.catalog.authSeen, "nothing reaches the service")
}

func TestSetup_ReadsConfigFlag(t *testing.T) {
	h := newHarness(t, "admin")
	configPath, outputMode, logLevel = h.config, "machine", ""
	t.Cleanup(func() {
		_ = teardown(nil, nil)
		configPath, outputMode = "", ""
	})

	require.NoError(t, setup(rootCmd, nil))
	require.NotNil(t, current)
	assert.True(t, strings.HasPrefix(current.cfg.API.BaseURL, "http://127.0.0.1"))
	assert.Equal(t, "error", current.cfg.Logging.Level)
}

type flakyLister struct {
	failures int
	calls    int
}

func (f *flakyLister) ListItems(context.Context) ([]catalog.Item, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &apiclient.APIError{Kind: apiclient.KindConnection, Operation: "list_items", Message: "connection error, please try again later"}
	}
	return []catalog.Item{{ID: "1", Name: "Hammer", Category: catalog.CategoryNamed("Tools")}}, nil
}

func TestFetchListing_Retry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	src := &flakyLister{failures: 2}
	listing := fetchListing(context.Background(), src, catalog.Filter{}, func(error) bool { return true }, logger)
	assert.Equal(t, catalog.DisplayResults, listing.Display())
	assert.Equal(t, 3, src.calls)

	src = &flakyLister{failures: 1}
	listing = fetchListing(context.Background(), src, catalog.Filter{}, nil, logger)
	assert.Equal(t, catalog.DisplayFailed, listing.Display())
	assert.Equal(t, 1, src.calls)
}
