package browser

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod/lib/proto"
)

// DefaultStartURL is the page the interactive session opens on.
const DefaultStartURL = "https://www.google.com"

// ConfigureSession opens a visible browser on the persistent profile so the
// user can sign in to sources. It returns once a line is read from in.
func ConfigureSession(ctx context.Context, opts Options, startURL string, in io.Reader, out io.Writer) error {
	opts.defaults()
	if startURL == "" {
		startURL = DefaultStartURL
	}

	b, l, err := connect(ctx, opts, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = b.Close()
		if l != nil {
			l.Cleanup()
		}
	}()

	if _, err := b.Page(proto.TargetCreateTarget{URL: startURL}); err != nil {
		return fmt.Errorf("browser: open %s: %w", startURL, err)
	}

	fmt.Fprintf(out, "Browser profile: %s\n", opts.UserDataDir)
	fmt.Fprintln(out, "Log in to your sources in the opened window, then press Enter here to save the session.")

	lines := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(in).ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		lines <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-lines:
		return err
	}
}
