package main

import (
	"context"
	"os"

	"github.com/terrawatch/terrawatch/internal/cli"
	"github.com/terrawatch/terrawatch/internal/config"
)

// Build variables set by ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	apiURL  = ""
)

func main() {
	if apiURL != "" {
		config.DefaultBaseURL = apiURL
	}

	cmd := cli.NewRootCommand(version, commit, date)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
