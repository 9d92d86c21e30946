package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
	chats []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 1, "is_bot": true, "first_name": "alerts", "username": "alerts_bot"},
		})
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.texts = append(f.texts, r.PostForm.Get("text"))
		f.chats = append(f.chats, r.PostForm.Get("chat_id"))
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 7, "date": 0, "chat": map[string]any{"id": -100, "type": "group"}},
		})
	default:
		http.NotFound(w, r)
	}
}

func TestAlertSendsMessageToChat(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	alerter, err := NewAlerterWithEndpoint("123:abc", srv.URL+"/bot%s/%s", -100)
	if err != nil {
		t.Fatalf("new alerter: %v", err)
	}

	if err := alerter.Alert(context.Background(), "user u-1 restricted"); err != nil {
		t.Fatalf("alert: %v", err)
	}
	if err := alerter.Alert(context.Background(), "   "); err != nil {
		t.Fatalf("blank alert: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.texts) != 1 || api.texts[0] != "user u-1 restricted" || api.chats[0] != "-100" {
		t.Fatalf("unexpected sent messages: texts=%v chats=%v", api.texts, api.chats)
	}
}

func TestNewAlerterValidatesInput(t *testing.T) {
	if _, err := NewAlerter("", 1); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if _, err := NewAlerter("123:abc", 0); err == nil {
		t.Fatalf("expected error for missing chat id")
	}
}
