package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

func (a *App) status() string {
	if a.poller.Running() {
		return "(sync on)"
	}
	return "(sync off)"
}

// Sync controls the live-sync poller:
//
//	sync            — show status
//	sync on | off   — start/stop background polling
//	sync now        — force an immediate check
//	sync interval N — change the poll cadence (seconds) and restart
func (a *App) Sync(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "Live sync is %s\n", onOff(a.poller.Running()))
		if ts, err := a.state.LastSyncedAt(ctx); err == nil && !ts.IsZero() {
			fmt.Fprintf(a.out, "Last refresh applied at %s\n", ts.Local().Format(time.RFC3339))
		}
		if a.poller.PendingRefresh() {
			fmt.Fprintln(a.out, "A refresh is pending (deferred while content is being viewed).")
		}
		return nil
	}

	switch args[0] {
	case "on":
		a.poller.Start(ctx)
		fmt.Fprintln(a.out, "Live sync enabled.")
	case "off":
		a.poller.Stop()
		fmt.Fprintln(a.out, "Live sync disabled.")
	case "now":
		a.poller.CheckNow(ctx)
	case "interval":
		if len(args) < 2 {
			fmt.Fprintln(a.out, "Usage: sync interval <seconds>")
			return nil
		}
		secs, err := strconv.Atoi(args[1])
		if err != nil || secs <= 0 {
			return a.reportErr(fmt.Errorf("invalid interval %q", args[1]))
		}
		a.poller.SetInterval(ctx, time.Duration(secs)*time.Second)
		fmt.Fprintf(a.out, "Sync interval set to %ds\n", secs)
	default:
		fmt.Fprintln(a.out, "Usage: sync [on|off|now|interval <seconds>]")
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
