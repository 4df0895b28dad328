package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/tmarcon/idledeck/internal/game"
	"github.com/tmarcon/idledeck/internal/log"
	idlemcp "github.com/tmarcon/idledeck/internal/mcp"
	"github.com/tmarcon/idledeck/internal/store"
)

func main() {
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

	var st store.Store
	if *redisAddr != "" {
		st, err = store.NewRedisStore(context.Background(), *redisAddr, *redisPassword, *redisDB, "")
	} else {
		st, err = store.NewFileStore(*saveDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Events go to a memory logger so each tool call can report what
	// happened since the previous one; stdout belongs to the MCP transport.
	logger := log.NewMemoryLogger()
	session, err := game.NewSession(cfg, st, logger, nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session.Start()
	defer session.Close()

	idlemcp.SetSession(idlemcp.NewGameSession(session, logger))

	s := server.NewMCPServer("idledeck", "1.0.0")
	idlemcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
