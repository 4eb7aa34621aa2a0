package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	view  View
	calls []string
}

func (f *fakeExec) View() View     { return f.view }
func (f *fakeExec) Prompt() string { return "> " }
func (f *fakeExec) Help() string   { return "HELP" }
func (f *fakeExec) Generate(_ context.Context, text string) error {
	f.calls = append(f.calls, "gen:"+text)
	return nil
}
func (f *fakeExec) History(context.Context) error { f.calls = append(f.calls, "history"); return nil }
func (f *fakeExec) Search(_ context.Context, q string) error {
	f.calls = append(f.calls, "search:"+q)
	return nil
}
func (f *fakeExec) Delete(_ context.Context, ref string) error {
	f.calls = append(f.calls, "delete:"+ref)
	return nil
}
func (f *fakeExec) Login(context.Context) error {
	f.calls = append(f.calls, "login")
	f.view = ViewLogin
	return nil
}
func (f *fakeExec) Register(context.Context) error {
	f.calls = append(f.calls, "register")
	f.view = ViewRegister
	return nil
}
func (f *fakeExec) Logout(context.Context) error { f.calls = append(f.calls, "logout"); return nil }
func (f *fakeExec) Profile(context.Context) error {
	f.calls = append(f.calls, "profile")
	f.view = ViewProfile
	return nil
}
func (f *fakeExec) Back() {
	f.calls = append(f.calls, "back")
	f.view = ViewMain
}
func (f *fakeExec) ToggleTheme(context.Context) error { f.calls = append(f.calls, "theme"); return nil }

func run(f *fakeExec, input string) string {
	var out bytes.Buffer
	runREPL(context.Background(), f, bufio.NewReader(strings.NewReader(input)), &out)
	return out.String()
}

func TestREPL_MainView(t *testing.T) {
	f := &fakeExec{}
	out := run(f, "help\ngen  list   files \ng\nhistory\nsearch docker\ndelete 2\n\nfoo\ntheme\nexit\nhistory\n")

	assert.Equal(t, []string{"gen:list   files", "gen:", "history", "search:docker", "delete:2", "theme"}, f.calls)
	assert.Contains(t, out, "Available commands: HELP")
	assert.Contains(t, out, "Unknown command: foo")
	assert.Contains(t, out, "Bye!")
}

func TestREPL_ViewsChangeVocabulary(t *testing.T) {
	f := &fakeExec{}
	out := run(f, "login\ngen x\nregister\nsubmit\nback\nprofile\nhistory\nrefresh\nback\n")

	assert.Equal(t, []string{"login", "register", "register", "back", "profile", "profile", "back"}, f.calls)
	assert.Contains(t, out, "Unknown command: gen")
	assert.Contains(t, out, "Unknown command: history")
	assert.Equal(t, ViewMain, f.view)
}

func TestREPL_StopsOnEOFAndCancel(t *testing.T) {
	f := &fakeExec{}
	run(f, "history")
	assert.Equal(t, []string{"history"}, f.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f = &fakeExec{}
	var out bytes.Buffer
	runREPL(ctx, f, bufio.NewReader(strings.NewReader("history\n")), &out)
	assert.Empty(t, f.calls)
}

func TestREPL_ReturnsWhenCancelledWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	f := &fakeExec{}
	go func() {
		defer close(done)
		runREPL(ctx, f, bufio.NewReader(pr), io.Discard)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runREPL did not return after cancel")
	}
	assert.Empty(t, f.calls)
}
