package bapp

import (
	"net/http"

	"github.com/advdv/bslim"
	"go.uber.org/zap"
)

// Mux is an alias for bslim.ServeMux.
type Mux = bslim.ServeMux

// NewMux creates the application mux. Responses are buffered up to BSLIM_BUFFER_LIMIT bytes.
func NewMux(env Environment, logs *zap.Logger) *Mux {
	return bslim.NewServeMuxWith(
		env.bufferLimit(),
		bslim.NewZapLogger(logs),
		http.NewServeMux(),
		bslim.NewReverser(),
	)
}
