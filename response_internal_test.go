package bslim

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkResponseBuffer(b *testing.B) {
	for _, dat := range [][]byte{
		make([]byte, 1024),
		make([]byte, 1024*64),
	} {
		b.Run("buffered-"+strconv.Itoa(len(dat)), func(b *testing.B) {
			b.ReportAllocs()

			for range b.N {
				resp := newBufferResponse(httptest.NewRecorder(), -1)
				_, err := resp.Write(dat)
				require.NoError(b, err)
				require.NoError(b, resp.FlushBuffer())
				resp.Free()
			}
		})

		b.Run("unbuffered-"+strconv.Itoa(len(dat)), func(b *testing.B) {
			b.ReportAllocs()

			for range b.N {
				_, err := httptest.NewRecorder().Write(dat)
				require.NoError(b, err)
			}
		})
	}
}

// TestBufferedResponseMatchesDirect serves the same handler directly and through a flushed buffer
// and expects the client to see the same response.
func TestBufferedResponseMatchesDirect(t *testing.T) {
	for _, tt := range []struct {
		name    string
		handler func(http.ResponseWriter, *http.Request)
		status  int
		body    string
		header  string
	}{
		{
			name:    "implicit 200",
			handler: func(http.ResponseWriter, *http.Request) {},
			status:  http.StatusOK,
		},
		{
			name: "implicit header writing",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Rab", "dar")
				fmt.Fprint(w, "foo")
			},
			status: http.StatusOK, body: "foo", header: "dar",
		},
		{
			name: "explicit 201",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			status: http.StatusCreated,
		},
		{
			name: "status set after write is ignored",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
				fmt.Fprint(w, "bar")
				w.WriteHeader(http.StatusAccepted)
			},
			status: http.StatusCreated, body: "bar",
		},
		{
			name: "explicit flush",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Rab", "dar")
				fmt.Fprint(w, "aaa")
				assert.NoError(t, http.NewResponseController(w).Flush())
				fmt.Fprint(w, "bbb")
			},
			status: http.StatusOK, body: "aaabbb", header: "dar",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			direct := httptest.NewRecorder()
			tt.handler(direct, httptest.NewRequest(http.MethodGet, "/", nil))

			buffered := httptest.NewRecorder()
			resp := newBufferResponse(buffered, 10)
			tt.handler(resp, httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, resp.FlushBuffer())

			for _, rec := range []*httptest.ResponseRecorder{direct, buffered} {
				assert.Equal(t, tt.status, rec.Code)
				assert.Equal(t, tt.body, rec.Body.String())
				assert.Equal(t, tt.header, rec.Header().Get("Rab"))
			}
		})
	}
}

func TestBufferedWrites(t *testing.T) {
	t.Run("should limit writes exactly", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrt := newBufferResponse(rec, 1)
		n, err := wrt.Write([]byte{0x01})
		require.NoError(t, err)
		require.Equal(t, 1, n)

		n, err = wrt.Write([]byte{0x02})
		require.Equal(t, 0, n)
		require.ErrorIs(t, err, ErrBufferFull)
		assert.Equal(t, 0, rec.Body.Len())
	})

	t.Run("should not limit writes when passed -1", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrt := newBufferResponse(rec, -1)
		n, err := wrt.Write(make([]byte, 1<<16))
		require.NoError(t, err)
		require.Equal(t, 1<<16, n)
		assert.Equal(t, 0, rec.Body.Len())
	})

	t.Run("limit applies per flush", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrt := newBufferResponse(rec, 2)

		for range 3 {
			_, err := wrt.Write([]byte{0x01, 0x02})
			require.NoError(t, err)
			require.NoError(t, wrt.FlushError())
		}

		assert.Equal(t, []byte{0x01, 0x02, 0x01, 0x02, 0x01, 0x02}, rec.Body.Bytes())
	})

	t.Run("should unwrap", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.Equal(t, rec, newBufferResponse(rec, 0).Unwrap())
	})

	t.Run("should pass on flush errors", func(t *testing.T) {
		wrt := newBufferResponse(failingResponseWriter{httptest.NewRecorder()}, -1)
		_, _ = fmt.Fprint(wrt, "foo")
		require.ErrorContains(t, wrt.FlushError(), "write fail")
	})

	t.Run("status and sent", func(t *testing.T) {
		wrt := newBufferResponse(httptest.NewRecorder(), -1)
		assert.Equal(t, http.StatusOK, wrt.Status())
		assert.False(t, wrt.Sent())

		wrt.WriteHeader(http.StatusNotFound)
		assert.Equal(t, http.StatusNotFound, wrt.Status())

		require.NoError(t, wrt.FlushBuffer())
		assert.True(t, wrt.Sent())
	})
}

func TestResponseReset(t *testing.T) {
	t.Run("discards body, headers and status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		resp := newBufferResponse(rec, -1)
		resp.Header().Set("X-Before", "before")
		resp.WriteHeader(http.StatusCreated)
		fmt.Fprint(resp, "foo")

		resp.Reset()
		resp.Header().Set("X-After", "after")
		fmt.Fprint(resp, "bar")

		require.NoError(t, resp.FlushError())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bar", rec.Body.String())
		assert.Equal(t, "after", rec.Header().Get("X-After"))
		assert.Empty(t, rec.Header().Values("X-Before"))
	})

	t.Run("restores the full limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		resp := newBufferResponse(rec, 2)

		for range 3 {
			resp.Reset()
			_, err := resp.Write([]byte("fo"))
			require.NoError(t, err)
		}

		require.NoError(t, resp.FlushError())
		assert.Equal(t, "fo", rec.Body.String())
	})

	t.Run("panics after an explicit flush", func(t *testing.T) {
		resp := newBufferResponse(httptest.NewRecorder(), -1)
		require.NoError(t, http.NewResponseController(resp).Flush())

		assert.PanicsWithValue(t, "bslim: cannot reset response, it was already flushed", resp.Reset)
	})
}

type failingResponseWriter struct {
	http.ResponseWriter
}

func (f failingResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("write fail")
}
