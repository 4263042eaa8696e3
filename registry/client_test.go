package registry_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/bot-gateway/registry"
)

func TestClientList(t *testing.T) {
	ctx := context.Background()

	t.Run("success - fetches and decodes instances", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "test-api-key", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"id": 1, "token": "111:aaa", "status": "approved", "cache": "original"},
				{"id": 2, "token": "222:bbb", "status": "pending", "cache": "no_cache"}
			]`))
		}))
		defer server.Close()

		client := registry.NewClient(server.URL, "test-api-key")

		instances, err := client.List(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 2)

		assert.Equal(t, int64(1), instances[0].ID)
		assert.Equal(t, "111:aaa", instances[0].Token)
		assert.Equal(t, registry.Approved, instances[0].Status)
		assert.Equal(t, registry.Original, instances[0].Cache)
		assert.Equal(t, registry.Pending, instances[1].Status)
		assert.Equal(t, registry.NoCache, instances[1].Cache)
	})

	t.Run("success - static instances are merged over the fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`[{"id": 1, "token": "111:aaa", "status": "approved", "cache": "original"}]`))
		}))
		defer server.Close()

		pinned := registry.InstanceConfig{ID: 900, Token: "900:dev", Status: registry.Approved, Cache: registry.NoCache}
		client := registry.NewClient(server.URL, "test-api-key").WithStatic([]registry.InstanceConfig{pinned})

		instances, err := client.List(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 2)
		assert.Equal(t, pinned, instances[1])
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := registry.NewClient(server.URL, "bad-key").List(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 403")
	})
}

func TestClientRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success - submits a pending uncached instance", func(t *testing.T) {
		var payload map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "test-api-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		}))
		defer server.Close()

		client := registry.NewClient(server.URL, "test-api-key")
		err := client.Register(ctx, "333:ccc", 12345, "my_new_bot")
		require.NoError(t, err)

		assert.Equal(t, "333:ccc", payload["token"])
		assert.Equal(t, "12345", payload["user"])
		assert.Equal(t, "my_new_bot", payload["username"])
		assert.Equal(t, "pending", payload["status"])
		assert.Equal(t, "no_cache", payload["cache"])
	})

	t.Run("duplicate token is rejected by the manager", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		err := registry.NewClient(server.URL, "test-api-key").Register(ctx, "333:ccc", 12345, "my_new_bot")
		assert.Error(t, err)
	})
}

func TestClientDelete(t *testing.T) {
	t.Run("success - deletes by id", func(t *testing.T) {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			path = r.URL.Path
		}))
		defer server.Close()

		err := registry.NewClient(server.URL, "test-api-key").Delete(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "/42/", path)
	})
}

func TestSnapshot(t *testing.T) {
	inst := func(id int64, token string) registry.InstanceConfig {
		return registry.InstanceConfig{ID: id, Token: token, Status: registry.Approved, Cache: registry.Original}
	}

	t.Run("success - replace swaps contents wholesale", func(t *testing.T) {
		s := registry.NewSnapshot()
		s.Replace([]registry.InstanceConfig{inst(1, "111:aaa"), inst(2, "222:bbb")})
		require.Equal(t, 2, s.Len())

		s.Replace([]registry.InstanceConfig{inst(3, "333:ccc")})
		assert.Equal(t, 1, s.Len())

		_, ok := s.Lookup("111:aaa")
		assert.False(t, ok)

		got, ok := s.Lookup("333:ccc")
		require.True(t, ok)
		assert.Equal(t, int64(3), got.ID)
	})

	t.Run("forget drops a single token", func(t *testing.T) {
		s := registry.NewSnapshot()
		s.Replace([]registry.InstanceConfig{inst(1, "111:aaa"), inst(2, "222:bbb")})

		s.Forget("111:aaa")

		_, ok := s.Lookup("111:aaa")
		assert.False(t, ok)
		assert.Equal(t, 1, s.Len())
	})
}
