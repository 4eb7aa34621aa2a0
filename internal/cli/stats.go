package cli

import (
	"strings"
	"time"

	"github.com/Skotchmaster/command_pilot/pkg/client"
)

type Stats struct {
	TotalGenerated int
	TotalSaved     int
	ThisMonth      int
	FavoriteOS     string
	DayStreak      int
	AccountCreated time.Time
	LastActive     time.Time
	MonthlyTrend   []MonthCount
	OSShare        map[string]int
}

type MonthCount struct {
	Month    string
	Commands int
}

func day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ComputeStats derives the profile statistics from the profile's commands.
// Dates are taken in now's location.
func ComputeStats(p *client.Profile, now time.Time) Stats {
	if p == nil {
		return Stats{FavoriteOS: "N/A", AccountCreated: now, LastActive: now, OSShare: map[string]int{}}
	}
	loc := now.Location()
	cmds := p.Commands

	s := Stats{
		TotalGenerated: p.TotalCommands,
		TotalSaved:     len(cmds),
		AccountCreated: p.CreatedAt,
		LastActive:     p.UpdatedAt,
		FavoriteOS:     "N/A",
	}
	if s.TotalGenerated == 0 {
		s.TotalGenerated = len(cmds)
	}

	counts := map[string]int{}
	var order []string
	days := map[time.Time]bool{}
	for _, c := range cmds {
		at := c.CreatedAt.In(loc)
		if at.Year() == now.Year() && at.Month() == now.Month() {
			s.ThisMonth++
		}
		os := c.OS
		if os == "" {
			os = "unknown"
		}
		if counts[os] == 0 {
			order = append(order, os)
		}
		counts[os]++
		days[day(c.CreatedAt, loc)] = true
	}

	if len(order) > 0 {
		fav := order[0]
		for _, os := range order[1:] {
			if counts[fav] <= counts[os] {
				fav = os
			}
		}
		s.FavoriteOS = strings.ToUpper(fav[:1]) + fav[1:]
	}

	for d := day(now, loc); days[d]; d = d.AddDate(0, 0, -1) {
		s.DayStreak++
	}

	s.MonthlyTrend = monthlyTrend(cmds, now)
	s.OSShare = osShare(cmds)
	return s
}

// monthlyTrend counts commands for each of the last six months, oldest first.
func monthlyTrend(cmds []client.Command, now time.Time) []MonthCount {
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	out := make([]MonthCount, 0, 6)
	for i := 5; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		n := 0
		for _, c := range cmds {
			at := c.CreatedAt.In(loc)
			if at.Year() == m.Year() && at.Month() == m.Month() {
				n++
			}
		}
		out = append(out, MonthCount{Month: m.Format("Jan"), Commands: n})
	}
	return out
}

// osShare returns rounded percentages per platform family.
func osShare(cmds []client.Command) map[string]int {
	out := map[string]int{}
	if len(cmds) == 0 {
		return out
	}
	counts := map[string]int{}
	for _, c := range cmds {
		switch c.OS {
		case "linux":
			counts["Linux"]++
		case "windows":
			counts["Windows"]++
		case "mac", "macos":
			counts["macOS"]++
		default:
			counts["Other"]++
		}
	}
	for name, n := range counts {
		out[name] = (n*100 + len(cmds)/2) / len(cmds)
	}
	return out
}
