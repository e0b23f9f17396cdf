// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - Hauptfunktion zum Starten des HTTP-Servers

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/7blacky7/vaemesh/envconfig"
	"github.com/7blacky7/vaemesh/inference"
	"github.com/7blacky7/vaemesh/logutil"
	"github.com/7blacky7/vaemesh/version"
)

// Serve laedt das Modell und startet den HTTP-Server. Fehlende oder
// kaputte Gewichte beenden den Start mit Fehler.
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	gen, err := inference.New(inference.ConfigFromEnvironment())
	if err != nil {
		ln.Close()
		return err
	}

	s := NewServer(gen)
	s.addr = ln.Addr()

	if _, err := os.Stat(s.staticDir); err != nil {
		slog.Warn("static directory not available, frontend disabled", "dir", s.staticDir, "error", err)
	}

	ctx, done := context.WithCancel(context.Background())

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	srvr := &http.Server{
		Handler: s.GenerateRoutes(),
	}

	// listen for a ctrl+c and stop the server
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be done
	// otherwise error out quickly
	if !slices.Contains([]error{http.ErrServerClosed}, err) {
		return err
	}
	<-ctx.Done()
	return nil
}
