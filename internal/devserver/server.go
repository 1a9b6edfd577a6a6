// Package devserver is a small development stand-in for the moveboard
// service. It serves the moveapi contract over HTTP with a JSON file behind
// it, so the client can be run end to end without the production backend.
// Its triage pass is a deterministic heuristic, not the real analysis.
package devserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/kendrickhart/moveboard/internal/move"
	"github.com/kendrickhart/moveboard/internal/moveapi"
)

// Register wires the contract routes onto an Echo instance.
func Register(e *echo.Echo, store *Store, logger *log.Logger) {
	e.GET("/moves", listMoves(store))
	e.POST("/moves", createMove(store, logger))
	e.PATCH("/moves/:id", patchMove(store, logger))
	e.POST("/moves/:id/complete", completeMove(store, logger))
	e.POST("/triage", triage(store, logger))
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
}

func listMoves(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var lane move.Lane
		if q := c.QueryParam("lane"); q != "" {
			parsed, err := move.ParseLane(q)
			if err != nil {
				return c.JSON(http.StatusBadRequest, moveapi.ValidationError{Field: "lane", Reason: err.Error()})
			}
			lane = parsed
		}
		return c.JSON(http.StatusOK, store.List(lane))
	}
}

func createMove(store *Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var draft moveapi.Draft
		if err := c.Bind(&draft); err != nil {
			return c.JSON(http.StatusBadRequest, moveapi.ValidationError{Field: "body", Reason: "malformed JSON"})
		}
		m, err := store.Create(draft)
		if err != nil {
			return writeStoreErr(c, err)
		}
		logger.WithFields(log.Fields{"id": m.ID, "lane": m.Lane}).Info("move created")
		return c.JSON(http.StatusCreated, m)
	}
}

func patchMove(store *Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, moveapi.ValidationError{Field: "id", Reason: "not an integer"})
		}
		var patch moveapi.Patch
		if err := c.Bind(&patch); err != nil {
			return c.JSON(http.StatusBadRequest, moveapi.ValidationError{Field: "body", Reason: "malformed JSON"})
		}
		m, err := store.Patch(id, patch)
		if err != nil {
			return writeStoreErr(c, err)
		}
		logger.WithFields(log.Fields{"id": m.ID, "lane": m.Lane, "position": m.Position}).Info("move patched")
		return c.JSON(http.StatusOK, m)
	}
}

func completeMove(store *Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, moveapi.ValidationError{Field: "id", Reason: "not an integer"})
		}
		if err := store.Complete(id); err != nil {
			return writeStoreErr(c, err)
		}
		logger.WithField("id", id).Info("move completed")
		return c.NoContent(http.StatusNoContent)
	}
}

func triage(store *Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		run, err := runTriage(store)
		if err != nil {
			logger.WithError(err).Error("triage run failed")
			return c.NoContent(http.StatusServiceUnavailable)
		}
		logger.WithFields(log.Fields{
			"actions":    len(run.Actions),
			"candidates": len(run.Candidates),
		}).Info("triage run complete")
		return c.JSON(http.StatusOK, run)
	}
}

func writeStoreErr(c echo.Context, err error) error {
	var verr *moveapi.ValidationError
	switch {
	case errors.Is(err, moveapi.ErrNotFound):
		return c.NoContent(http.StatusNotFound)
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, verr)
	default:
		return c.String(http.StatusInternalServerError, err.Error())
	}
}
