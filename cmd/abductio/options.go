package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// splitKeyValue splits "key=value" on the first '=', as the original's
// _interpret_option does for -p, -T, and -c. A bare string with no '='
// returns ("", s, false) so callers can fall back to whole-string
// semantics (e.g. -T's overall timeout form).
func splitKeyValue(s string) (key, value string, hasKey bool) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+1:], true
}

// parseParams turns repeated -p key=value flags into a map. A later
// occurrence of the same key overwrites an earlier one.
func parseParams(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, s := range raw {
		k, v, ok := splitKeyValue(s)
		if !ok || k == "" {
			return nil, fmt.Errorf("-p: expected key=value, got %q", s)
		}
		out[k] = v
	}
	return out, nil
}

// parseFlags turns repeated -f name flags into a set.
func parseFlags(raw []string) map[string]bool {
	out := make(map[string]bool, len(raw))
	for _, s := range raw {
		out[s] = true
	}
	return out
}

// Timeouts bounds the three named phases plus the overall run: each of
// enumeration, ILP encoding, and solving gets its own budget, plus an
// overall one. A zero duration means "no budget" for that phase.
type Timeouts struct {
	All, LHS, ILP, Sol time.Duration
}

// parseTimeouts turns repeated -T flags into a Timeouts. A bare
// "seconds" entry sets All; a "lhs=seconds" / "ilp=seconds" /
// "sol=seconds" entry sets that phase alone.
func parseTimeouts(raw []string) (Timeouts, error) {
	var t Timeouts
	for _, s := range raw {
		k, v, hasKey := splitKeyValue(s)
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return t, fmt.Errorf("-T: invalid seconds in %q: %w", s, err)
		}
		d := time.Duration(seconds * float64(time.Second))
		if !hasKey {
			t.All = d
			continue
		}
		switch k {
		case "lhs":
			t.LHS = d
		case "ilp":
			t.ILP = d
		case "sol":
			t.Sol = d
		default:
			return t, fmt.Errorf("-T: unknown phase %q (want lhs, ilp, or sol)", k)
		}
	}
	return t, nil
}

// Components selects one alternate implementation per pluggable slot:
// the enumerator (lhs), the ILP cost provider (ilp), the solver (sol),
// and the KB's distance function (dist).
type Components struct {
	LHS, ILP, Sol, Dist string
}

// parseComponents turns repeated -c type=key flags into a Components.
func parseComponents(raw []string) (Components, error) {
	var c Components
	for _, s := range raw {
		k, v, ok := splitKeyValue(s)
		if !ok {
			return c, fmt.Errorf("-c: expected type=key, got %q", s)
		}
		switch k {
		case "lhs":
			c.LHS = v
		case "ilp":
			c.ILP = v
		case "sol":
			c.Sol = v
		case "dist":
			c.Dist = v
		default:
			return c, fmt.Errorf("-c: unknown component type %q (want lhs, ilp, sol, or dist)", k)
		}
	}
	return c, nil
}
