package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rafaelpm/gram/internal/daemon"
	"github.com/rafaelpm/gram/internal/session"
	"go.uber.org/fx"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	feedFlag := flag.String("feed", "", "feed path (overrides config)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{SessionName: sessionName, FeedPath: *feedFlag}),
	)

	app.Run()
}
