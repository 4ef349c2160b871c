package telegram

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ObiAU/equitynews/internal/history"
	"github.com/ObiAU/equitynews/internal/models"
	"github.com/ObiAU/equitynews/internal/summary"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantArgs string
	}{
		{"Acme Corp", "", "Acme Corp"},
		{"/news Acme Corp 10", "news", "Acme Corp 10"},
		{"/News@equity_bot  Acme", "news", "Acme"},
		{"/help", "help", ""},
		{"/clear@equity_bot", "clear", ""},
	}

	for _, tt := range tests {
		got := parseCommand(tt.text)
		if got.name != tt.wantName || got.args != tt.wantArgs {
			t.Errorf("parseCommand(%q) = %+v, want {%q %q}", tt.text, got, tt.wantName, tt.wantArgs)
		}
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		args      string
		wantQuery string
		wantMax   int
	}{
		{"Acme Corp", "Acme Corp", 20},
		{"Acme Corp 10", "Acme Corp", 10},
		{"Acme Corp 3", "Acme Corp", 5},
		{"Acme Corp 500", "Acme Corp", 100},
		{"Boeing 737", "Boeing", 100},
		{"acme", "acme", 20},
	}

	for _, tt := range tests {
		q, n := parseQuery(tt.args, 20)
		if q != tt.wantQuery || n != tt.wantMax {
			t.Errorf("parseQuery(%q) = %q, %d; want %q, %d", tt.args, q, n, tt.wantQuery, tt.wantMax)
		}
	}
}

func TestFormatReport(t *testing.T) {
	r := &summary.Report{
		Query:         "Acme Corp",
		Articles:      make([]models.Article, 5),
		TokenEstimate: 9000,
		CostWarning:   true,
		Summary:       "Strong quarter.",
	}
	got := formatReport(r)
	for _, want := range []string{"Acme Corp (5 articles)", "~9000", "Strong quarter."} {
		if !strings.Contains(got, want) {
			t.Errorf("formatReport() missing %q in %q", want, got)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 4096); len(got) != 1 || got[0] != "short" {
		t.Errorf("splitMessage(short) = %q", got)
	}

	lines := strings.Repeat(strings.Repeat("x", 99)+"\n", 100)
	chunks := splitMessage(lines, 1000)
	total := 0
	for _, c := range chunks {
		if len(c) > 1000 {
			t.Errorf("chunk of %d bytes exceeds limit", len(c))
		}
		total += strings.Count(c, "x")
	}
	if total != 9900 {
		t.Errorf("chunks hold %d x's, want 9900", total)
	}

	runes := strings.Repeat("é", 3000)
	for _, c := range splitMessage(runes, 4095) {
		if !utf8.ValidString(c) {
			t.Fatal("chunk split a UTF-8 sequence")
		}
	}
}

func newTestBot() *Bot {
	return &Bot{
		defaultMax: 20,
		sessions:   history.NewSessions(time.Hour),
		chats:      make(map[int64]*chatLock),
	}
}

func TestLockChat_SerializesPerChat(t *testing.T) {
	b := newTestBot()

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := b.lockChat(42)
			defer unlock()

			n := active.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got != 1 {
		t.Errorf("peak concurrent handlers for one chat = %d, want 1", got)
	}
	if len(b.chats) != 0 {
		t.Errorf("chat locks left after all updates finished: %d", len(b.chats))
	}
}

func TestLockChat_OtherChatsNotBlocked(t *testing.T) {
	b := newTestBot()

	unlock := b.lockChat(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		b.lockChat(2)()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chat 2 blocked behind chat 1")
	}
}

func TestChatHistory_BackedBySessions(t *testing.T) {
	b := newTestBot()

	b.chatHistory(7).Add("Acme Corp", "Strong quarter.")
	if got := b.chatHistory(7).Len(); got != 1 {
		t.Errorf("history len = %d, want 1", got)
	}
	if got := b.chatHistory(8).Len(); got != 0 {
		t.Errorf("other chat history len = %d, want 0", got)
	}
	if got := b.sessions.Len(); got != 2 {
		t.Errorf("sessions = %d, want 2", got)
	}
}
