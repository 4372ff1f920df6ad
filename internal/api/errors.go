package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/logging"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

var kindToStatus = map[uplink.Kind]int{
	uplink.KindValidation:      http.StatusBadRequest,
	uplink.KindParse:           http.StatusBadRequest,
	uplink.KindInvalidMIC:      http.StatusUnprocessableEntity,
	uplink.KindDecoderNotFound: http.StatusNotFound,
	uplink.KindDecodeFailure:   http.StatusInternalServerError,
	uplink.KindInternal:        http.StatusInternalServerError,
}

type errorResponse struct {
	Kind    uplink.Kind `json:"kind"`
	Message string      `json:"message"`
	Fields  []string    `json:"fields,omitempty"`
}

func errToResponse(err error) (int, errorResponse) {
	var uErr *uplink.Error
	if !errors.As(err, &uErr) {
		return http.StatusInternalServerError, errorResponse{
			Kind:    uplink.KindInternal,
			Message: "internal error",
		}
	}

	status, ok := kindToStatus[uErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	resp := errorResponse{
		Kind:    uErr.Kind,
		Message: uErr.Message,
		Fields:  uErr.Fields,
	}
	// internal details are only logged
	if uErr.Kind == uplink.KindInternal {
		resp.Message = "internal error"
	}

	return status, resp
}

func writeError(w http.ResponseWriter, r *http.Request, route string, err error) {
	status, resp := errToResponse(err)
	apiRequestCounter(route, string(resp.Kind)).Inc()

	logger := log.WithFields(log.Fields{
		"route":  route,
		"kind":   resp.Kind,
		"ctx_id": logging.ContextID(r.Context()),
	})
	if status >= http.StatusInternalServerError {
		logger.WithError(err).Error("api: request error")
	} else {
		logger.WithError(err).Info("api: request rejected")
	}

	b, _ := json.Marshal(resp)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
