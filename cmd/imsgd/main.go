package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/imsg/internal/daemon"
	"github.com/matheus3301/imsg/internal/session"
	"go.uber.org/fx"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	dbFlag := flag.String("db", "", "chat.db path (overrides config store.path)")
	flag.Parse()

	sessionName, err := session.Resolve(*sessionFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{SessionName: sessionName, StorePath: *dbFlag}),
	)

	app.Run()
}
