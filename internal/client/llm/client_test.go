package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8081/", "test-key", "test-model")
	require.NotNil(t, c)
	assert.Equal(t, "http://localhost:8081", c.BaseURL)
	assert.Equal(t, "test-key", c.APIKey)
	assert.Equal(t, "test-model", c.Model)
	assert.NotNil(t, c.client)
}

func TestClient_ChatJSON(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    error
	}{
		{
			name: "successful chat",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req ChatRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "test-model", req.Model)
				require.NotNil(t, req.ResponseFormat)
				assert.Equal(t, "json_object", req.ResponseFormat.Type)
				require.Len(t, req.Messages, 2)
				assert.Equal(t, RoleSystem, req.Messages[0].Role)

				resp := ChatResponse{
					ID:     "test-id",
					Object: "chat.completion",
					Choices: []ChatChoice{{
						Message:      ChatMessage{Role: "assistant", Content: `{"prompts":[]}`},
						FinishReason: "stop",
					}},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantReply: `{"prompts":[]}`,
		},
		{
			name: "no choices returned",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{ID: "x"})
			},
			wantErr: common.ErrMalformed,
		},
		{
			name: "invalid json",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			wantErr: common.ErrMalformed,
		},
		{
			name: "server error",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			wantErr: common.ErrUnavailable,
		},
		{
			name: "bad key",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
			},
			wantErr: common.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "test-key", "test-model")
			got, err := c.ChatJSON(context.Background(), []ChatMessage{
				{Role: RoleSystem, Content: "sys"},
				{Role: RoleUser, Content: "hi"},
			})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantReply, got)
		})
	}
}

func TestClient_ChatJSON_ErrorKeepsServerText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", "m").ChatJSON(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestClient_ChatJSON_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "", "m").ChatJSON(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrUnavailable)
}
