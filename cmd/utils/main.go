package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/captain/cmd/utils/internal/commands"
	"github.com/appetiteclub/captain/pkg/lib/core"
)

const (
	appName    = "captain-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := core.LoadConfig("UTILS", os.Args[2:], map[string]interface{}{
		"log.level":     "info",
		"db.mongo.url":  "mongodb://localhost:27017",
		"db.mongo.name": "captain",
	})
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := core.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "clear-session":
		if err := commands.ClearSession(ctx, config, logger); err != nil {
			log.Fatalf("Clear session failed: %v", err)
		}
		logger.Info("Session cleared")

	case "show-session":
		if err := commands.ShowSession(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("Show session failed: %v", err)
		}

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Captain session maintenance

Usage:
  %s <command> [options]

Commands:
  clear-session  Remove all persisted session keys (forces a new login)
  show-session   List persisted session keys with masked values
  version        Print version information
  help           Show this help message

Environment Variables:
  UTILS_DB__MONGO__URL  MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_DB__MONGO__NAME Database holding the session_keys collection (default: captain)
  UTILS_LOG__LEVEL      Log level: debug, info, error (default: info)

Examples:
  %s show-session
  UTILS_DB__MONGO__URL=mongodb://localhost:27017 %s clear-session

`, appName, appName, appName, appName)
}
