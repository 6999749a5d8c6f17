package bapptest

import (
	"net/http"
	"net/http/httptest"

	"github.com/advdv/bslim"
)

// CallHandler serves req with handler through a buffered response writer and returns the recorded
// response. Errors returned by the handler are rendered the way a [bslim.ServeMux] would render
// them when no error middleware is installed.
func CallHandler(handler bslim.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	bslim.ToStd(bslim.ToBare(handler), -1, bslim.NewTestLogger(nil)).ServeHTTP(rec, req)

	return rec
}

// CallErrorHandler renders err with h, the way the error middleware would, and returns the
// recorded response.
func CallErrorHandler(h bslim.ErrorHandler, req *http.Request, err error, flags bslim.Flags) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	w := bslim.NewResponseWriter(rec, -1)
	defer w.Free()

	if herr := h.HandleError(w, req, err, flags); herr != nil {
		panic("bapptest: error handler returned error: " + herr.Error())
	}

	if ferr := w.FlushBuffer(); ferr != nil {
		panic("bapptest: FlushBuffer failed: " + ferr.Error())
	}

	return rec
}
