package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/crosswire-app/crosswire/configs"
	"github.com/crosswire-app/crosswire/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsBearerAndBody(t *testing.T) {
	var gotAuth, gotProfile, gotPath string
	var gotBody transfer.AyrsharePostRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotProfile = r.Header.Get("Profile-Key")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(transfer.AyrshareResponse{Status: "success", ID: "1"})
	}))
	defer srv.Close()

	client := NewAyrshareClient(config.Config{
		AyrshareBaseURL: srv.URL,
		AyrshareAPIKey:  "key-abc",
	})

	resp, err := client.CreatePost(context.Background(), &transfer.AyrsharePostRequest{
		Post:      "hello",
		Platforms: []string{"twitter"},
	}, "profile-1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-abc", gotAuth)
	// Single-profile mode never transmits the profile key.
	assert.Empty(t, gotProfile)
	assert.Equal(t, "/post", gotPath)
	assert.Equal(t, "hello", gotBody.Post)
	assert.Equal(t, "success", resp.Status)
}

func TestClientSendsProfileKeyInMultiProfileMode(t *testing.T) {
	var gotProfile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotProfile = r.Header.Get("Profile-Key")
		json.NewEncoder(w).Encode(transfer.AyrshareResponse{Status: "success", ID: "1"})
	}))
	defer srv.Close()

	client := NewAyrshareClient(config.Config{
		AyrshareBaseURL:  srv.URL,
		AyrshareAPIKey:   "key-abc",
		MultiProfileMode: true,
	})

	_, err := client.CreateComment(context.Background(), &transfer.AyrshareCommentRequest{
		Post: "hi", ID: "x", Platforms: []string{"twitter"},
	}, "profile-1")
	require.NoError(t, err)
	assert.Equal(t, "profile-1", gotProfile)
}

func TestClientTransportFailureIsNetworkError(t *testing.T) {
	client := NewAyrshareClient(config.Config{
		AyrshareBaseURL: "http://127.0.0.1:1",
	})

	_, err := client.CreatePost(context.Background(), &transfer.AyrsharePostRequest{
		Post: "hello", Platforms: []string{"twitter"},
	}, "")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestClientHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history", r.URL.Path)
		assert.Equal(t, "24", r.URL.Query().Get("lastHours"))
		json.NewEncoder(w).Encode([]transfer.AyrshareHistoryRecord{
			{ID: "h-1", Status: "success"},
		})
	}))
	defer srv.Close()

	client := NewAyrshareClient(config.Config{AyrshareBaseURL: srv.URL})

	records, err := client.History(context.Background(), 24, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "h-1", records[0].ID)
}
