package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
)

func startServer(t *testing.T, handler http.Handler) (*GracefulServer, context.CancelFunc, <-chan error) {
	t.Helper()
	gs := NewGracefulServer("127.0.0.1:0", handler, logging.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	select {
	case <-gs.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("Run returned before listening: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return gs, cancel, done
}

func TestGracefulServer_ServesUntilCancelled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	gs, cancel, done := startServer(t, mux)

	resp, err := http.Get("http://" + gs.Addr() + "/ping")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}
	if gs.IsShuttingDown() {
		t.Error("server reports shutdown while running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
	if !gs.IsShuttingDown() {
		t.Error("server should report shutdown")
	}
}

func TestGracefulServer_ReloadOnSIGHUP(t *testing.T) {
	reloaded := make(chan struct{}, 1)
	gs := NewGracefulServer("127.0.0.1:0", http.NewServeMux(), logging.NewNopLogger())
	gs.SetReloadFunc(func() error {
		reloaded <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()
	<-gs.Ready()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("send SIGHUP: %v", err)
	}
	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload function was not called")
	}
	if gs.IsShuttingDown() {
		t.Error("SIGHUP should not shut the server down")
	}

	cancel()
	<-done
}

func TestGracefulServer_Reload(t *testing.T) {
	gs := NewGracefulServer(":0", nil, nil)

	if err := gs.Reload(); err != nil {
		t.Errorf("Reload without a function: %v", err)
	}

	var calls atomic.Int32
	gs.SetReloadFunc(func() error {
		calls.Add(1)
		return nil
	})
	if err := gs.Reload(); err != nil {
		t.Errorf("Reload: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("reload called %d times, want 1", calls.Load())
	}

	wantErr := errors.New("bad config")
	gs.SetReloadFunc(func() error { return wantErr })
	if err := gs.Reload(); !errors.Is(err, wantErr) {
		t.Errorf("Reload error = %v, want %v", err, wantErr)
	}
}

func TestGracefulServer_ShutdownIsIdempotent(t *testing.T) {
	gs, cancel, done := startServer(t, http.NewServeMux())
	defer cancel()

	if err := gs.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := gs.Shutdown(time.Second); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestGracefulServer_ListenError(t *testing.T) {
	gs, cancel, done := startServer(t, http.NewServeMux())
	defer func() {
		cancel()
		<-done
	}()

	clash := NewGracefulServer(gs.Addr(), nil, nil)
	if err := clash.Run(context.Background()); err == nil {
		t.Error("expected an error listening on a busy address")
	}
}
