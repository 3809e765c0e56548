package http

import (
	"net/http"

	"github.com/mkravets/authd/internal/common/constants"
	"github.com/mkravets/authd/internal/common/httpmetrics"
	"github.com/mkravets/authd/internal/common/logger"
)

// BuildBaseHandler wraps the service mux in the shared middleware chain:
// security headers, panic recovery, trace ids, body limits, metrics.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	collector := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)

	return SecurityHeadersMiddleware(recovery(TraceIDMiddleware(maxRequestSize(collector.Wrap(handler)))))
}
