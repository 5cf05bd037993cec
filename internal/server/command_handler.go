package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sifis-home/wp6-mobile-application-api/internal/command"
	"github.com/sifis-home/wp6-mobile-application-api/pkg/httpx"
)

// factoryResetConfirm must be passed verbatim in the confirm query parameter
// before a factory reset runs. The phrase is part of the device's public API.
const factoryResetConfirm = "I really want to perform a factory reset"

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	kind, ok := command.ParseKind(chi.URLParam(r, "name"))
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown command")
		return
	}
	if kind == command.FactoryReset && r.URL.Query().Get("confirm") != factoryResetConfirm {
		httpx.WriteError(w, http.StatusBadRequest, "the required confirm parameter was not correct or set")
		return
	}

	out, err := s.dispatch.Dispatch(r.Context(), kind)
	if err != nil {
		if errors.Is(err, command.ErrBusy) {
			commandRuns.WithLabelValues(string(kind), "busy").Inc()
			httpx.WriteError(w, http.StatusConflict, "command already in progress")
			return
		}
		commandRuns.WithLabelValues(string(kind), "error").Inc()
		httpx.WriteError(w, http.StatusInternalServerError, "command could not be executed")
		return
	}

	switch {
	case out.TimedOut:
		commandRuns.WithLabelValues(string(kind), "timeout").Inc()
	case out.ExitStatus != 0:
		commandRuns.WithLabelValues(string(kind), "nonzero_exit").Inc()
	default:
		commandRuns.WithLabelValues(string(kind), "ok").Inc()
	}

	// The script was invoked and returned: report the outcome even when the
	// exit status is non-zero or the run timed out.
	writeJSON(w, out)

	if out.ExitStatus == 0 && !out.TimedOut && (kind == command.Restart || kind == command.Shutdown) {
		// The host is going down; stop serving once this response is out.
		s.requestStop()
	}
}
