// cmd/moveboardd/main.go
//
// Development server for the moveboard client: the moveapi contract over
// HTTP with a JSON file behind it. Not the production service; its triage
// pass is a deterministic heuristic stand-in.
package main

import (
	"flag"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/kendrickhart/moveboard/internal/devserver"
)

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	dataPath := flag.String("data", "moves.json", "JSON store path")
	flag.Parse()

	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	store, err := devserver.OpenStore(*dataPath)
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	devserver.Register(e, store, logger)

	logger.WithFields(log.Fields{"addr": *addr, "data": *dataPath}).Info("moveboardd listening")
	if err := e.Start(*addr); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
