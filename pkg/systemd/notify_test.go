package systemd

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"
)

// listen binds a datagram socket and points NOTIFY_SOCKET at it.
func listen(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func read(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(buf[:n])
}

func TestNoSocketIsNoop(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	if ok, err := Ready(); ok || err != nil {
		t.Fatalf("Ready = %v, %v; want false, nil", ok, err)
	}
}

func TestNotifications(t *testing.T) {
	conn := listen(t)

	cases := []struct {
		name string
		send func() (bool, error)
		want string
	}{
		{"ready", Ready, "READY=1"},
		{"stopping", Stopping, "STOPPING=1"},
		{"status", func() (bool, error) { return Status("1/1 published") }, "STATUS=1/1 published"},
	}
	for _, tc := range cases {
		ok, err := tc.send()
		if !ok || err != nil {
			t.Fatalf("%s: sent=%v err=%v", tc.name, ok, err)
		}
		if got := read(t, conn); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestWatchdogInterval(t *testing.T) {
	t.Setenv("WATCHDOG_PID", "")
	t.Setenv("WATCHDOG_USEC", "")
	if d := WatchdogInterval(); d != 0 {
		t.Fatalf("disabled interval = %v", d)
	}
	t.Setenv("WATCHDOG_USEC", "4000000")
	if d := WatchdogInterval(); d != 2*time.Second {
		t.Fatalf("interval = %v, want 2s", d)
	}
}

func TestWatchdogPingsOnlyWhenHealthy(t *testing.T) {
	conn := listen(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthy := make(chan bool, 1)
	healthy <- true
	done := make(chan struct{})
	go func() {
		defer close(done)
		Watchdog(ctx, 10*time.Millisecond, func() bool {
			select {
			case h := <-healthy:
				return h
			default:
				return false
			}
		})
	}()

	if got := read(t, conn); got != "WATCHDOG=1" {
		t.Fatalf("got %q want WATCHDOG=1", got)
	}
	// unhealthy from here on: no further pings
	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if n, err := conn.Read(make([]byte, 64)); err == nil {
		t.Fatalf("unexpected ping (%d bytes) while unhealthy", n)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Watchdog did not return after cancel")
	}
}
