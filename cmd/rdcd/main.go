// Command rdcd is the single-capture daemon of spec.md §4.8: it opens one
// .rdc file, serves JSON-RPC 2.0 over loopback TCP, and exits on
// shutdown or idle timeout. Grounded on the teacher's gapid-apk-deploy
// launcher-flag style and wingthing's cmd/wtd daemon shape, adapted from
// an HTTP listener to the project's own net.Listener server loop.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rdctools/rdcq/internal/daemon"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/session"
)

const defaultLRUCapacity = 64

func main() {
	root := &cobra.Command{
		Use:   "rdcd",
		Short: "capture inspection daemon",
		RunE:  run,
	}

	root.Flags().Int("port", 0, "TCP port to listen on (0 = ephemeral)")
	root.Flags().String("capture", "", "path to a .rdc file to open immediately")
	root.Flags().String("token-file", "", "path to a file holding the auth token (generated and printed if empty)")
	root.Flags().Duration("idle-timeout", 0, "shut down automatically after this long with no requests (0 = disabled)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	capturePath, _ := cmd.Flags().GetString("capture")
	tokenFile, _ := cmd.Flags().GetString("token-file")
	idleTimeout, _ := cmd.Flags().GetDuration("idle-timeout")

	token, err := resolveToken(tokenFile)
	if err != nil {
		return err
	}

	opener := func(ctx context.Context, path string) (*session.Session, error) {
		adapter, err := replay.Connect(ctx, path)
		if err != nil {
			return nil, err
		}
		return session.Open(ctx, path, adapter, defaultLRUCapacity, idleTimeout, token)
	}
	d := daemon.New(opener, idleTimeout)
	d.Token = token

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	addr, err := d.Serve(ctx, "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		return err
	}

	if capturePath != "" {
		if err := d.OpenCapture(ctx, capturePath); err != nil {
			d.Shutdown(ctx)
			return err
		}
	}

	// A single JSON line on stdout, read by launchers (internal/diff's
	// spawn) to learn the bound address without parsing log output.
	line, err := json.Marshal(map[string]string{"addr": addr, "token": token})
	if err != nil {
		return err
	}
	fmt.Println(string(line))

	select {
	case <-ctx.Done():
	case <-d.Done():
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Shutdown(shutdownCtx)
}

// resolveToken reads the auth token from tokenFile when given, else
// generates one and, since nothing else would ever learn it, prints it
// to stderr so an interactive caller can still use this daemon directly
// (spec.md §2.3; the diff orchestrator always passes --token-file).
func resolveToken(tokenFile string) (string, error) {
	if tokenFile == "" {
		token := session.GenToken()
		fmt.Fprintf(os.Stderr, "generated token: %s\n", token)
		return token, nil
	}
	b, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return string(trimNewline(b)), nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
