package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientConnectAndFetchMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bot tok-1" {
			t.Fatalf("missing bot auth header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users/@me":
			json.NewEncoder(w).Encode(map[string]string{"id": "bot"})
		case "/channels/chan-1":
			json.NewEncoder(w).Encode(map[string]string{"id": "chan-1"})
		case "/channels/chan-1/messages":
			if got := r.URL.Query().Get("limit"); got != "100" {
				t.Fatalf("limit query = %q", got)
			}
			json.NewEncoder(w).Encode([]Message{
				{ID: "m1", Content: "https://youtu.be/dQw4w9WgXcQ"},
				{ID: "m2", Content: "plain text"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok-1", 2*time.Second)
	if client.IsReady() {
		t.Fatalf("client must not be ready before Connect")
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !client.IsReady() {
		t.Fatalf("client should be ready after Connect")
	}

	ch, err := client.FetchChannel(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	msgs, err := ch.Messages(context.Background(), 0)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m1" {
		t.Fatalf("unexpected messages %#v", msgs)
	}
}

func TestClientConnectRejectsEmptyToken(t *testing.T) {
	client := NewClient("", "", time.Second)
	if err := client.Connect(context.Background()); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestFetchChannelPropagatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Missing Access"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok", time.Second)
	if _, err := client.FetchChannel(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for forbidden channel")
	}
}
