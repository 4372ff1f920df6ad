package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/logging"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

type api struct {
	service     Service
	maxBodySize int64
}

func (a *api) decode(w http.ResponseWriter, r *http.Request) {
	var req uplink.DecodeRequest
	enc, err := a.readRequest(w, r, &req)
	if err != nil {
		writeError(w, r, "decode", err)
		return
	}

	resp, err := a.service.Decode(r.Context(), enc, req)
	if err != nil {
		writeError(w, r, "decode", err)
		return
	}

	writeJSON(w, r, "decode", http.StatusOK, resp)
}

func (a *api) decrypt(w http.ResponseWriter, r *http.Request) {
	var req uplink.DecryptRequest
	enc, err := a.readRequest(w, r, &req)
	if err != nil {
		writeError(w, r, "decrypt", err)
		return
	}

	resp, err := a.service.Decrypt(r.Context(), enc, req)
	if err != nil {
		writeError(w, r, "decrypt", err)
		return
	}

	writeJSON(w, r, "decrypt", http.StatusOK, resp)
}

func (a *api) inspect(w http.ResponseWriter, r *http.Request) {
	var req uplink.InspectRequest
	enc, err := a.readRequest(w, r, &req)
	if err != nil {
		writeError(w, r, "info", err)
		return
	}

	resp, err := a.service.Inspect(r.Context(), enc, req)
	if err != nil {
		writeError(w, r, "info", err)
		return
	}

	writeJSON(w, r, "info", http.StatusOK, resp)
}

// readRequest returns the encoding from the route and decodes the JSON body
// into v.
func (a *api) readRequest(w http.ResponseWriter, r *http.Request, v interface{}) (uplink.Encoding, error) {
	enc, err := uplink.ParseEncoding(mux.Vars(r)["encoding"])
	if err != nil {
		return enc, err
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBodySize)).Decode(v); err != nil {
		return enc, &uplink.Error{
			Kind:    uplink.KindValidation,
			Message: "invalid json body: " + err.Error(),
			Err:     err,
		}
	}

	return enc, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, route string, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, route, err)
		return
	}

	apiRequestCounter(route, "OK").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		log.WithError(err).WithField("ctx_id", logging.ContextID(r.Context())).Error("api: write response error")
	}
}
