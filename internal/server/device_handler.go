package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sifis-home/wp6-mobile-application-api/internal/configstore"
	"github.com/sifis-home/wp6-mobile-application-api/pkg/httpx"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.reporter.Snapshot(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("status snapshot failed")
		httpx.WriteError(w, http.StatusInternalServerError, "could not sample device status")
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.Read()
	if err != nil {
		if errors.Is(err, configstore.ErrNotProvisioned) {
			// Expected before first provisioning; not an error condition.
			httpx.WriteError(w, http.StatusNotFound, "this device has not been configured yet")
			return
		}
		s.logger.Error().Err(err).Msg("config read failed")
		httpx.WriteError(w, http.StatusInternalServerError, "could not read device configuration")
		return
	}
	writeJSON(w, cfg)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg configstore.DeviceConfig
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid device configuration")
		return
	}
	if err := cfg.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Write(&cfg); err != nil {
		s.logger.Error().Err(err).Msg("config write failed")
		httpx.WriteError(w, http.StatusInternalServerError, "could not save device configuration")
		return
	}
	s.logger.Info().Str("name", cfg.Name).Msg("device configuration saved")
	writeJSON(w, map[string]any{"ok": true})
}
