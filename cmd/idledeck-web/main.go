package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmarcon/idledeck/internal/game"
	"github.com/tmarcon/idledeck/internal/log"
	"github.com/tmarcon/idledeck/internal/store"
	"github.com/tmarcon/idledeck/internal/web"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	configFile := flag.String("config", "", "path to config YAML (defaults used when empty)")
	saveDir := flag.String("save-dir", "save", "directory for file-backed saves")
	redisAddr := flag.String("redis-addr", "", "redis address (overrides save-dir when set)")
	redisPassword := flag.String("redis-password", "", "redis password")
	redisDB := flag.Int("redis-db", 0, "redis database number")
	flag.Parse()

	cfg, err := game.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st, err := openStore(*saveDir, *redisAddr, *redisPassword, *redisDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	session, err := game.NewSession(cfg, st, log.NewTextLogger(os.Stdout), nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session.Start()

	// Persist and stop timers on Ctrl+C.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		session.Close()
		os.Exit(0)
	}()

	srv := web.NewServer(session)
	addr := fmt.Sprintf(":%d", *port)
	stdlog.Printf("idledeck listening on http://localhost:%d", *port)
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore(saveDir, redisAddr, redisPassword string, redisDB int) (store.Store, error) {
	if redisAddr != "" {
		return store.NewRedisStore(context.Background(), redisAddr, redisPassword, redisDB, "")
	}
	return store.NewFileStore(saveDir)
}
