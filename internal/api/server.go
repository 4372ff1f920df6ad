// Package api implements the HTTP API exposing the uplink operations.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-uplink-decoder/decoder"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/config"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/logging"
	"github.com/brocaar/chirpstack-uplink-decoder/internal/uplink"
)

const defaultMaxBodySize = 1 << 20

// Service defines the uplink operations exposed by the API.
type Service interface {
	Decode(ctx context.Context, enc uplink.Encoding, req uplink.DecodeRequest) (decoder.DecodeResponse, error)
	Decrypt(ctx context.Context, enc uplink.Encoding, req uplink.DecryptRequest) (uplink.DecryptResult, error)
	Inspect(ctx context.Context, enc uplink.Encoding, req uplink.InspectRequest) (uplink.FrameInfo, error)
}

// Server represents the HTTP API server.
type Server struct {
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(conf config.Config, s Service) *Server {
	return &Server{
		server: &http.Server{
			Addr:         conf.API.Bind,
			Handler:      NewHandler(s, conf.API.CORSAllowOrigins, conf.API.MaxBodySize),
			ReadTimeout:  conf.API.ReadTimeout,
			WriteTimeout: conf.API.WriteTimeout,
		},
	}
}

// Start starts the server.
func (s *Server) Start() error {
	log.WithFields(log.Fields{
		"bind": s.server.Addr,
	}).Info("api: starting api server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("api: api server error")
		}
	}()

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "shutdown api server error")
	}
	return nil
}

// NewHandler returns the HTTP handler for the given service. An empty
// allowOrigins disables CORS.
func NewHandler(s Service, allowOrigins []string, maxBodySize int64) http.Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	a := &api{
		service:     s,
		maxBodySize: maxBodySize,
	}

	r := mux.NewRouter()
	r.HandleFunc("/decode/{encoding:hex|base64}", a.decode).Methods(http.MethodPost)
	r.HandleFunc("/decrypt/{encoding:hex|base64}", a.decrypt).Methods(http.MethodPost)
	r.HandleFunc("/info/{encoding:hex|base64}", a.inspect).Methods(http.MethodPost)

	var h http.Handler = r
	if len(allowOrigins) != 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(allowOrigins),
			handlers.AllowedMethods([]string{http.MethodPost}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(h)
	}

	return logging.CtxIDMiddleware(handlers.RecoveryHandler()(handlers.CompressHandler(h)))
}
