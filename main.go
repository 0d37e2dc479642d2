package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/filmdeck/filmdeck/internal"
	"github.com/filmdeck/filmdeck/pkg/logger"
)

var log = logger.Get("Main")

// main is the entry point to the program. The users configuration is
// loaded from the config file provided (or the environment when no
// file is given) before the FilmDeck services are brought up. The
// process runs until interrupted.
func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logger.SetMinLoggingLevel(logger.VERBOSE.Level())
	} else {
		logger.SetMinLoggingLevel(logger.INFO.Level())
	}

	config := internal.FilmDeckConfig{}
	if *configPath != "" {
		if err := config.LoadFromFile(*configPath); err != nil {
			log.Emit(logger.FATAL, "%s\n", err.Error())
			os.Exit(1)
		}
	} else if err := config.LoadFromEnv(); err != nil {
		log.Emit(logger.FATAL, "%s\n", err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := internal.New(config).Run(ctx); err != nil {
		log.Emit(logger.FATAL, "FilmDeck stopped: %s\n", err.Error())
		os.Exit(1)
	}

	log.Emit(logger.STOP, "FilmDeck shut down\n")
}
