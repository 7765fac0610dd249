// Command rdcdiff is the diff orchestrator launcher of spec.md §4.9: it
// starts one rdcd daemon per capture, runs the draw/resource/stats
// diffs, prints the combined result as JSON, and exits with a code a
// script can branch on. Formatting the diff for a human is out of scope
// (spec.md §1) — this stays the thin launcher SPEC_FULL.md §2.3 calls
// for, not the query CLI itself.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rdctools/rdcq/internal/diff"
)

const (
	exitOK          = 0
	exitDifferences = 1
	exitUsage       = 2
)

type result struct {
	SessionID string                 `json:"session_id"`
	Draws     []diff.DrawDiffRow     `json:"draws"`
	Resources []diff.ResourceDiffRow `json:"resources"`
	Stats     []diff.StatsDiffRow    `json:"stats"`
}

func main() {
	var rdcdPath string
	var code int

	root := &cobra.Command{
		Use:   "rdcdiff <capture-a> <capture-b>",
		Short: "diff two captures' draw sequences, resources, and pass stats",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code = run(rdcdPath, args[0], args[1])
			return nil
		},
	}
	root.Flags().StringVar(&rdcdPath, "rdcd-path", "rdcd", "path to the rdcd binary to launch")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
	os.Exit(code)
}

// run launches both daemons, runs every diff, and prints the joined
// result as one JSON line, returning the process exit code spec.md §7
// defines rather than exiting directly — main owns the actual os.Exit.
func run(rdcdPath, captureA, captureB string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	o, err := diff.Launch(ctx, rdcdPath, captureA, captureB)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	defer o.Close()

	res := result{SessionID: o.SessionID}

	if res.Draws, err = o.DrawDiff(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if res.Resources, err = o.ResourceDiff(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if res.Stats, err = o.StatsDiff(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	out, err := json.Marshal(res)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	fmt.Println(string(out))

	return exitCode(res)
}

// exitCode maps the joined result to spec.md §7's "User-visible
// behavior": 0 when every draw matched with no resource/pass deltas, 1
// when the diff ran clean but found differences.
func exitCode(res result) int {
	for _, d := range res.Draws {
		if d.Status != diff.StatusEqual {
			return exitDifferences
		}
	}
	for _, r := range res.Resources {
		if r.AID == nil || r.BID == nil {
			return exitDifferences
		}
	}
	for _, s := range res.Stats {
		if s.DrawsDelta != "0" || s.DispatchDelta != "0" || s.TrianglesDelta != "0" {
			return exitDifferences
		}
	}
	return exitOK
}
