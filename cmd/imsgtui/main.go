package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/imsg/internal/client"
	"github.com/matheus3301/imsg/internal/session"
	"github.com/matheus3301/imsg/internal/tui"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	flag.Parse()

	sessionName, err := session.Resolve(*sessionFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Probe daemon health; auto-start if needed.
	c, err := client.Ensure(sessionName, session.SocketPath(sessionName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to daemon: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	app := tui.NewApp(c, sessionName)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
