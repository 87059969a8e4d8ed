package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
)

// Listen binds a unix domain socket at path, removing a stale socket file
// left behind by an unclean shutdown.
func Listen(path string) (net.Listener, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("clean up socket %s: %w", path, err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket %s: %w", path, err)
	}
	return ln, nil
}

// Serve accepts connections until ctx is done, calling setup to register
// handlers on each one. It closes ln and waits for every connection to end
// before returning.
func Serve(ctx context.Context, ln net.Listener, setup func(*Connection)) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		slog.Info("new connection accepted")

		c := NewConnection(conn, nil)
		setup(c)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ReadLoop(ctx)
		}()
	}
}
