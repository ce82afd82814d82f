package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "input/geometry.obj", strings.NewReader("v 0 0 0\n")))
	require.NoError(t, store.Upload(ctx, "input/flow.json", strings.NewReader("{}")))

	files, err := store.List(ctx, "input")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "flow.json", files[0].Name)
	assert.Equal(t, "geometry.obj", files[1].Name)

	var buf bytes.Buffer
	require.NoError(t, store.Download(ctx, "input/geometry.obj", &buf))
	assert.Equal(t, "v 0 0 0\n", buf.String())
}

func TestLocalStore_RejectsEscape(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Download(context.Background(), "../../etc/passwd", &bytes.Buffer{})
	assert.Error(t, err)
}

// fakeSync is a minimal file-sync service with token-based auth.
type fakeSync struct {
	tokens  atomic.Int64
	files   map[string][]byte
	current string
}

func newFakeSync() *fakeSync {
	return &fakeSync{files: make(map[string][]byte)}
}

func (f *fakeSync) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("grant_type") != "refresh_token" || r.FormValue("refresh_token") != "refresh-123" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		f.current = fmt.Sprintf("access-%d", f.tokens.Add(1))
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": f.current})
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.current || f.current == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/files/")
		switch r.Method {
		case http.MethodGet:
			data, ok := f.files[path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(data)
		case http.MethodPut:
			body := new(bytes.Buffer)
			_, _ = body.ReadFrom(r.Body)
			f.files[path] = body.Bytes()
			w.WriteHeader(http.StatusCreated)
		}
	})
	mux.HandleFunc("/list/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.current || f.current == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		dir := strings.TrimPrefix(r.URL.Path, "/list/")
		var out []FileInfo
		for name, data := range f.files {
			if strings.HasPrefix(name, dir+"/") {
				out = append(out, FileInfo{Name: strings.TrimPrefix(name, dir+"/"), Size: int64(len(data))})
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	return mux
}

func newRemoteForTest(t *testing.T, baseURL string) *RemoteStore {
	t.Helper()
	store, err := NewRemoteStore(RemoteConfig{
		BaseURL:      baseURL,
		TokenURL:     baseURL + "/oauth/token",
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh-123",
	}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestRemoteStore_UploadDownload(t *testing.T) {
	sync := newFakeSync()
	server := httptest.NewServer(sync.handler())
	defer server.Close()

	store := newRemoteForTest(t, server.URL)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "output/case.json", strings.NewReader(`{"ok":true}`)))

	var buf bytes.Buffer
	require.NoError(t, store.Download(ctx, "output/case.json", &buf))
	assert.JSONEq(t, `{"ok":true}`, buf.String())

	files, err := store.List(ctx, "output")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "case.json", files[0].Name)
}

func TestRemoteStore_RefreshesExpiredToken(t *testing.T) {
	sync := newFakeSync()
	server := httptest.NewServer(sync.handler())
	defer server.Close()

	store := newRemoteForTest(t, server.URL)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "a.txt", strings.NewReader("one")))

	// Invalidate the token server-side; the next call must refresh and retry.
	sync.current = "rotated-away"
	require.NoError(t, store.Upload(ctx, "b.txt", strings.NewReader("two")))

	var buf bytes.Buffer
	require.NoError(t, store.Download(ctx, "b.txt", &buf))
	assert.Equal(t, "two", buf.String())
}

func TestNewRemoteStore_RequiresCredentials(t *testing.T) {
	_, err := NewRemoteStore(RemoteConfig{BaseURL: "http://example.com"}, zerolog.Nop())
	assert.Error(t, err)
}
