package bslim_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bslim"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

type ctxKeyUser struct{}

func handleGreeting(ctx context.Context, w bslim.ResponseWriter, r *http.Request) error {
	w.Header().Set("Is-Bar", "rab")
	w.WriteHeader(http.StatusCreated)

	fmt.Fprintf(w, `hello %s, at %s`, ctx.Value(ctxKeyUser{}), r.URL.Path)

	switch r.URL.Path {
	case "/trigger-error":
		return errors.New("triggered error")
	case "/trigger-not-found":
		return bslim.NewError(bslim.CodeNotFound, errors.New("no such greeting"))
	}

	return nil
}

func serveGreeting(t *testing.T, logs bslim.Logger, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(context.WithValue(req.Context(), ctxKeyUser{}, "foo"))

	rec := httptest.NewRecorder()
	bslim.ToStd(bslim.ToBare(bslim.HandlerFunc(handleGreeting)), -1, logs).ServeHTTP(rec, req)

	return rec
}

func TestHandleBasic(t *testing.T) {
	logs := bslim.NewTestLogger(t)
	rec := serveGreeting(t, logs, "/bar")

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, `rab`, rec.Header().Get("Is-Bar"))
	require.Equal(t, `hello foo, at /bar`, rec.Body.String())
	require.Equal(t, int64(0), logs.NumLogUnhandledServeError)
}

func TestHandleDefaultError(t *testing.T) {
	logs := bslim.NewTestLogger(t)
	rec := serveGreeting(t, logs, "/trigger-error")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, ``, rec.Header().Get("Is-Bar"))
	require.Equal(t, `Internal Server Error`+"\n", rec.Body.String())
	require.Equal(t, int64(1), logs.NumLogUnhandledServeError)
}

func TestHandleCodedError(t *testing.T) {
	logs := bslim.NewTestLogger(t)
	rec := serveGreeting(t, logs, "/trigger-not-found")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, `Not Found`+"\n", rec.Body.String())
	require.Equal(t, int64(0), logs.NumLogUnhandledServeError)
}

func TestHandleErrorAfterFlush(t *testing.T) {
	logs := bslim.NewTestLogger(t)
	hdlr := bslim.HandlerFunc(func(_ context.Context, w bslim.ResponseWriter, _ *http.Request) error {
		fmt.Fprint(w, "partial")
		if err := w.FlushBuffer(); err != nil {
			return err
		}

		return bslim.NewError(bslim.CodeBadRequest, nil)
	})

	rec := httptest.NewRecorder()
	bslim.ToStd(bslim.ToBare(hdlr), -1, logs).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "partial", rec.Body.String())
	require.Equal(t, int64(1), logs.NumLogUnhandledServeError)
}

func TestHandleBufferFull(t *testing.T) {
	logs := bslim.NewTestLogger(t)
	hdlr := bslim.HandlerFunc(func(_ context.Context, w bslim.ResponseWriter, _ *http.Request) error {
		_, err := fmt.Fprint(w, "too long for the buffer")
		return err
	})

	rec := httptest.NewRecorder()
	bslim.ToStd(bslim.ToBare(hdlr), 4, logs).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, int64(1), logs.NumLogUnhandledServeError)
}
