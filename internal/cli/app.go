package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/command_pilot/pkg/client"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
	"github.com/Skotchmaster/command_pilot/pkg/rules"
)

const healthTimeout = 5 * time.Second

// App is the terminal front end. It owns the current view and reacts to
// session events published by the client.
type App struct {
	api    *client.Client
	store  *client.Store
	reader *bufio.Reader
	out    io.Writer
	goos   string
	now    func() time.Time

	mu     sync.Mutex
	view   View
	theme  Theme
	banner string
	last   []client.Command
	unsub  func()
}

func NewApp(ctx context.Context, api *client.Client, store *client.Store, in io.Reader, out io.Writer) *App {
	a := &App{
		api:    api,
		store:  store,
		reader: bufio.NewReader(in),
		out:    out,
		goos:   runtime.GOOS,
		now:    time.Now,
		view:   ViewMain,
		theme:  LoadTheme(ctx, store),
	}
	a.unsub = api.Session().Subscribe(a.onSession)
	return a
}

func (a *App) Close() {
	if a.unsub != nil {
		a.unsub()
	}
}

func (a *App) onSession(ev client.Event) {
	if ev.Kind != client.EventLogout {
		return
	}
	a.mu.Lock()
	a.last = nil
	if ev.Forced {
		a.view = ViewLogin
	} else {
		a.view = ViewMain
	}
	a.mu.Unlock()
	if ev.Forced {
		a.warn("Your session has expired. Please log in again.")
	}
}

func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

func (a *App) Theme() Theme {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

// Banner is the warning shown while the backend health check fails.
func (a *App) Banner() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.banner
}

func (a *App) moveTo(v View) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !canMove(a.view, v) {
		return false
	}
	a.view = v
	return true
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) styled(pick func(palette) string, s string) string {
	p := a.Theme().palette()
	return pick(p) + s + p.reset
}

func (a *App) info(s string) { a.println(a.styled(func(p palette) string { return p.accent }, s)) }
func (a *App) warn(s string) { a.println(a.styled(func(p palette) string { return p.err }, s)) }
func (a *App) ok(s string)   { a.println(a.styled(func(p palette) string { return p.ok }, s)) }
func (a *App) dim(s string)  { a.println(a.styled(func(p palette) string { return p.muted }, s)) }

func (a *App) Prompt() string {
	who := "guest"
	if u := a.api.Session().User(); u != nil {
		who = u.Username
	}
	return fmt.Sprintf("pilot [%s] %s> ", a.View(), who)
}

// CheckHealth checks the backend and records a banner when it does not answer.
func (a *App) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	_, err := a.api.Health(ctx)
	a.mu.Lock()
	if err != nil {
		a.banner = "The Command Pilot server is not reachable. Generation and history will fail until it is back."
	} else {
		a.banner = ""
	}
	a.mu.Unlock()
	if err != nil {
		logging.FromContext(ctx).Warn("health_check_failed", "error", err)
		return false
	}
	return true
}

// Run checks the backend and then serves the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	a.CheckHealth(ctx)
	if b := a.Banner(); b != "" {
		a.warn(b)
	}
	if u := a.api.Session().User(); u != nil {
		a.info("Welcome back, " + u.Username)
	} else {
		a.info("Command Pilot. Type help to see the commands.")
	}
	runREPL(ctx, a, a.reader, a.out)
}

// Message renders an error for the user.
func (a *App) Message(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusTooManyRequests {
			if apiErr.RateLimitReset.IsZero() {
				return "Rate limit reached. Try again later."
			}
			loc := a.now().Location()
			return "Rate limit reached. Try again after: " + apiErr.RateLimitReset.In(loc).Format("3:04:05 PM")
		}
		return apiErr.Message
	}
	return "Could not reach the server: " + err.Error()
}

func (a *App) fail(ctx context.Context, op string, err error) error {
	logging.FromContext(ctx).Warn(op+"_error", "error", err)
	a.warn(a.Message(err))
	return err
}

func (a *App) requireLogin(what string) bool {
	if a.api.Session().Authenticated() {
		return true
	}
	a.warn("Log in to " + what + ".")
	return false
}

func (a *App) showFieldErrors(errs FieldErrors, order ...string) {
	for _, f := range order {
		if msg, ok := errs[f]; ok {
			a.warn(fmt.Sprintf("  %s: %s", f, msg))
		}
	}
}

// ask reads one trimmed line, giving up when ctx is done.
func (a *App) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(a.out, prompt+": ")
	line, err := readLine(ctx, a.reader)
	if err != nil && (line == "" || ctx.Err() != nil) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) Login(ctx context.Context) error {
	if !a.moveTo(ViewLogin) {
		return nil
	}
	email, err := a.ask(ctx, "Email")
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}
	if errs := ValidateLogin(email, password); len(errs) > 0 {
		a.showFieldErrors(errs, "email", "password")
		return nil
	}

	u, err := a.api.Login(ctx, email, password)
	if err != nil {
		return a.fail(ctx, "login", err)
	}
	a.moveTo(ViewMain)
	a.ok("Logged in as " + u.Username)
	return nil
}

func (a *App) Register(ctx context.Context) error {
	if !a.moveTo(ViewRegister) {
		return nil
	}
	username, err := a.ask(ctx, "Username")
	if err != nil {
		return err
	}
	email, err := a.ask(ctx, "Email")
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}
	if errs := ValidateRegister(username, email, password); len(errs) > 0 {
		a.showFieldErrors(errs, "username", "email", "password")
		return nil
	}

	u, err := a.api.Register(ctx, strings.TrimSpace(username), email, password)
	if err != nil {
		return a.fail(ctx, "register", err)
	}
	a.moveTo(ViewMain)
	a.ok("Account created. Logged in as " + u.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.moveTo(ViewMain)
	if err != nil {
		logging.FromContext(ctx).Warn("logout_error", "error", err)
	}
	a.ok("Logged out")
	return nil
}

func (a *App) Back() {
	a.moveTo(ViewMain)
}

func (a *App) ToggleTheme(ctx context.Context) error {
	a.mu.Lock()
	a.theme = a.theme.Toggle()
	t := a.theme
	a.mu.Unlock()
	if err := SaveTheme(ctx, a.store, t); err != nil {
		logging.FromContext(ctx).Warn("theme_save_error", "error", err)
	}
	a.info("Theme: " + string(t))
	return nil
}

// Generate asks the backend for a command. Logged in users get it saved.
func (a *App) Generate(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		a.warn("Describe what the command should do, e.g. gen list listening ports")
		return nil
	}
	os := rules.NormalizeOS(a.goos)

	var (
		g   *client.Generated
		err error
	)
	if a.api.Session().Authenticated() {
		g, err = a.api.GenerateAuthenticated(ctx, text, os)
	} else {
		g, err = a.api.GenerateGuest(ctx, text, os)
	}
	if err != nil {
		return a.fail(ctx, "generate", err)
	}
	a.info(g.Command)
	if g.Saved {
		a.dim("saved to history")
	}
	return nil
}

func (a *App) History(ctx context.Context) error {
	if !a.requireLogin("see your history") {
		return nil
	}
	cmds, err := a.api.MyCommands(ctx)
	if err != nil {
		return a.fail(ctx, "history", err)
	}
	a.list(cmds, "No saved commands yet.")
	return nil
}

func (a *App) Search(ctx context.Context, q string) error {
	if !a.requireLogin("search your history") {
		return nil
	}
	q = strings.TrimSpace(q)
	if q == "" {
		a.warn("Usage: search <text>")
		return nil
	}
	cmds, err := a.api.SearchCommands(ctx, q)
	if err != nil {
		return a.fail(ctx, "search", err)
	}
	a.list(cmds, "Nothing matches "+strconv.Quote(q)+".")
	return nil
}

func (a *App) list(cmds []client.Command, empty string) {
	a.mu.Lock()
	a.last = cmds
	a.mu.Unlock()
	if len(cmds) == 0 {
		a.dim(empty)
		return
	}
	loc := a.now().Location()
	for i, c := range cmds {
		a.println(fmt.Sprintf("%2d. %s", i+1, a.styled(func(p palette) string { return p.accent }, c.Command)))
		a.dim(fmt.Sprintf("    %s | %s | %s", c.AppName, c.OS, c.CreatedAt.In(loc).Format("2006-01-02 15:04")))
	}
}

// Delete removes a command by its number in the last listing or by id.
func (a *App) Delete(ctx context.Context, ref string) error {
	if !a.requireLogin("delete commands") {
		return nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		a.warn("Usage: delete <number|id>")
		return nil
	}

	id, label := ref, ref
	a.mu.Lock()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(a.last) {
		id, label = a.last[n-1].ID, strconv.Quote(a.last[n-1].Command)
	}
	a.mu.Unlock()

	answer, err := a.ask(ctx, "Delete "+label+"? [y/N]")
	if err != nil {
		return err
	}
	if answer = strings.ToLower(answer); answer != "y" && answer != "yes" {
		a.dim("Cancelled")
		return nil
	}
	if err := a.api.DeleteCommand(ctx, id); err != nil {
		return a.fail(ctx, "delete", err)
	}

	a.mu.Lock()
	kept := a.last[:0:0]
	for _, c := range a.last {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	a.last = kept
	a.mu.Unlock()
	a.ok("Command deleted")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	if !a.requireLogin("view your profile") {
		return nil
	}
	a.moveTo(ViewProfile)
	p, err := a.api.Profile(ctx)
	if err != nil {
		return a.fail(ctx, "profile", err)
	}
	a.renderProfile(p, ComputeStats(p, a.now()))
	a.dim("Recent commands")
	a.list(p.Commands, "No saved commands yet.")
	return nil
}

func (a *App) renderProfile(p *client.Profile, s Stats) {
	a.info(p.Username)
	a.dim(p.Email)
	a.println(fmt.Sprintf("Member since   %s", s.AccountCreated.Format("Jan 2, 2006")))
	a.println(fmt.Sprintf("Last active    %s", s.LastActive.Format("Jan 2, 2006")))
	a.println(fmt.Sprintf("Generated      %d", s.TotalGenerated))
	a.println(fmt.Sprintf("Saved          %d", s.TotalSaved))
	a.println(fmt.Sprintf("This month     %d", s.ThisMonth))
	a.println(fmt.Sprintf("Favorite OS    %s", s.FavoriteOS))
	a.println(fmt.Sprintf("Day streak     %d", s.DayStreak))

	a.dim("Last 6 months")
	for _, m := range s.MonthlyTrend {
		a.println(fmt.Sprintf("  %s %3d %s", m.Month, m.Commands, strings.Repeat("#", m.Commands)))
	}
	if len(s.OSShare) > 0 {
		a.dim("Platforms")
		names := make([]string, 0, len(s.OSShare))
		for n := range s.OSShare {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			a.println(fmt.Sprintf("  %-8s %3d%%", n, s.OSShare[n]))
		}
	}
}

func (a *App) Help() string {
	switch a.View() {
	case ViewLogin:
		return "login, register, back, theme, exit"
	case ViewRegister:
		return "register, login, back, theme, exit"
	case ViewProfile:
		return "profile, delete <n|id>, logout, back, theme, exit"
	}
	if a.api.Session().Authenticated() {
		return "gen <what you need>, history, search <text>, delete <n|id>, profile, logout, theme, exit"
	}
	return "gen <what you need>, login, register, theme, exit"
}
