package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(&Config{
		BaseURL:  server.URL,
		APIKey:   "test-key",
		PageSize: 2,
		MaxPages: 10,
		Timeout:  5 * time.Second,
		Logger:   zap.NewNop(),
	})
}

func pageBody(next string, items ...liveItem) []byte {
	var resp livesResponse
	resp.Content.Data = items
	resp.Content.Page.Next = next
	data, _ := json.Marshal(resp)
	return data
}

func TestFetchLive_FollowsCursor(t *testing.T) {
	var cursors []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/open/v1/lives" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}

		cursor := r.URL.Query().Get("next")
		cursors = append(cursors, cursor)

		w.Header().Set("Content-Type", "application/json")
		switch cursor {
		case "":
			_, _ = w.Write(pageBody("cursor-1",
				liveItem{ChannelID: "ch1", LiveTitle: "a", LiveCategoryValue: "game"},
				liveItem{ChannelID: "ch2", LiveTitle: "b", LiveCategoryValue: "game"},
			))
		case "cursor-1":
			_, _ = w.Write(pageBody("",
				liveItem{ChannelID: "ch3", LiveTitle: "c", LiveCategoryValue: "talk"},
			))
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	})

	streams, err := c.FetchLive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(streams) != 3 {
		t.Fatalf("expected 3 streams, got %d", len(streams))
	}
	if streams[2].ChannelID != "ch3" || streams[2].Category != "talk" {
		t.Errorf("unexpected stream: %+v", streams[2])
	}
	if len(cursors) != 2 || cursors[1] != "cursor-1" {
		t.Errorf("unexpected cursor sequence: %v", cursors)
	}
}

func TestFetchLive_ErrorMidPaginationAborts(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(pageBody("cursor-1", liveItem{ChannelID: "ch1"}))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchLive(context.Background())
	if err == nil {
		t.Fatal("expected error to abort pagination")
	}
}

func TestFetchLive_StopsAtMaxPages(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		// always promises another page
		_, _ = w.Write(pageBody("cursor-next", liveItem{ChannelID: "ch"}))
	})

	streams, err := c.FetchLive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 10 {
		t.Errorf("expected 10 page fetches, got %d", calls)
	}
	if len(streams) != 10 {
		t.Errorf("expected 10 streams, got %d", len(streams))
	}
}

func TestFetchLive_NonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	})

	_, err := c.FetchLive(context.Background())
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
