package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const healthCheckTimeout = 5 * time.Second

// HealthCheck defines a named dependency check. Check must return an error
// when the dependency is unavailable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func healthCheckHandlerFunc(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(errors.Wrapf(err, "%s ping error", c.Name).Error()))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
