package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App implements it.
type execIface interface {
	View() View
	Prompt() string
	Help() string
	Generate(ctx context.Context, text string) error
	History(ctx context.Context) error
	Search(ctx context.Context, q string) error
	Delete(ctx context.Context, ref string) error
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Back()
	ToggleTheme(ctx context.Context) error
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one line and returns early with ctx.Err() when ctx is done.
// The abandoned read finishes in the background and its line is dropped.
func readLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ch := make(chan lineResult, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// runREPL reads one line at a time and dispatches on the first word. The set
// of accepted words depends on the current view. It returns on EOF, exit or
// quit, or as soon as ctx is done, even while waiting for input.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(w, a.Prompt())
		line, err := readLine(ctx, reader)
		if ctx.Err() != nil || (err != nil && line == "") {
			fmt.Fprintln(w)
			return
		}
		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		if cmd == "" {
			continue
		}
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "help":
			fmt.Fprintln(w, "Available commands:", a.Help())
			continue
		case "theme":
			_ = a.ToggleTheme(ctx)
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		}

		if !dispatch(ctx, a, a.View(), cmd, rest) {
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}

// Handlers report their own errors, so their return values are dropped here.
func dispatch(ctx context.Context, a execIface, v View, cmd, rest string) bool {
	switch v {
	case ViewLogin:
		switch cmd {
		case "login", "submit":
			_ = a.Login(ctx)
		case "register":
			_ = a.Register(ctx)
		case "back":
			a.Back()
		default:
			return false
		}
	case ViewRegister:
		switch cmd {
		case "register", "submit":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "back":
			a.Back()
		default:
			return false
		}
	case ViewProfile:
		switch cmd {
		case "profile", "refresh":
			_ = a.Profile(ctx)
		case "delete":
			_ = a.Delete(ctx, rest)
		case "logout":
			_ = a.Logout(ctx)
		case "back":
			a.Back()
		default:
			return false
		}
	default:
		switch cmd {
		case "gen", "g":
			_ = a.Generate(ctx, rest)
		case "history", "h":
			_ = a.History(ctx)
		case "search":
			_ = a.Search(ctx, rest)
		case "delete":
			_ = a.Delete(ctx, rest)
		case "profile":
			_ = a.Profile(ctx)
		case "login":
			_ = a.Login(ctx)
		case "register":
			_ = a.Register(ctx)
		case "logout":
			_ = a.Logout(ctx)
		default:
			return false
		}
	}
	return true
}
