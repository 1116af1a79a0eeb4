package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/dustin/go-humanize"
)

// errNoise are substrings at which a transport error becomes readable.
var errNoise = []string{"dial tcp", "context deadline", "connection refused", "execution reverted"}

// trimErr shortens an error for a single TUI line.
func trimErr(s string) string {
	for _, p := range errNoise {
		if i := strings.Index(s, p); i > 0 {
			s = s[i:]
			break
		}
	}
	const limit = 72
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return s
}

// FormatEvent renders one chain event as a single line.
func FormatEvent(e chain.Event) string {
	switch e.Kind {
	case chain.EventInstantiated:
		return StyleSuccess.Render("● ContractInstantiated") + "  " + Addr(e.Address) + Meta(" by "+TruncateAddr(e.Deployer))
	case chain.EventTxSuccess:
		return StyleSuccess.Render("● TxSuccess")
	case chain.EventTxFailed:
		return StyleError.Render("● TxFailed")
	default:
		topic := ""
		if len(e.Topics) > 0 {
			topic = " " + TruncateHash(e.Topics[0])
		}
		return Meta("● Log") + "  " + Addr(TruncateAddr(e.Address)) + Meta(topic)
	}
}

// EventsBlock renders the event list of a finalized deployment.
func EventsBlock(events []chain.Event) string {
	if len(events) == 0 {
		return Meta("no events")
	}
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = "  " + FormatEvent(e)
	}
	return strings.Join(lines, "\n")
}

// Age formats a stored RFC3339 timestamp relative to now; unparseable values
// are returned as-is.
func Age(ts string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Size formats a byte count, e.g. "1.2 kB".
func Size(n int) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

// ArgPrompt labels a constructor input, e.g. "supply (uint256)".
func ArgPrompt(key, typ string) string {
	return fmt.Sprintf("%s (%s)", key, typ)
}
