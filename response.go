package bslim

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned by writes that would grow the response buffer past its limit.
var ErrBufferFull = errors.New("bslim: response buffer is full")

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// ResponseBuffer holds the status, headers and body of a response in memory until it is flushed
// to the underlying writer. A negative limit disables the size check.
type ResponseBuffer struct {
	resp   http.ResponseWriter
	header http.Header
	buf    *bytes.Buffer
	limit  int
	status int
	sent   bool
}

// NewResponseWriter wraps resp in a buffered [ResponseWriter] that holds at most limit bytes.
func NewResponseWriter(resp http.ResponseWriter, limit int) ResponseWriter {
	return newBufferResponse(resp, limit)
}

func newBufferResponse(resp http.ResponseWriter, limit int) *ResponseBuffer {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	return &ResponseBuffer{
		resp:   resp,
		header: http.Header{},
		buf:    buf,
		limit:  limit,
	}
}

// Header returns the buffered header map. It is copied to the underlying writer on the first flush.
func (w *ResponseBuffer) Header() http.Header { return w.header }

// Write appends to the buffer, or fails with [ErrBufferFull] without writing anything.
func (w *ResponseBuffer) Write(p []byte) (int, error) {
	if w.limit >= 0 && w.buf.Len()+len(p) > w.limit {
		return 0, ErrBufferFull
	}

	return w.buf.Write(p)
}

// WriteHeader records the status code. Only the first call has effect until the buffer is reset.
func (w *ResponseBuffer) WriteHeader(statusCode int) {
	if w.status != 0 {
		return
	}

	w.status = statusCode
}

// Status returns the status that will be (or was) sent, 200 if none was written.
func (w *ResponseBuffer) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}

	return w.status
}

// Sent reports whether the headers were already written to the underlying writer.
func (w *ResponseBuffer) Sent() bool { return w.sent }

// Reset discards the buffered body, headers and status. It panics once anything was sent to the
// client because at that point the response can no longer be replaced.
func (w *ResponseBuffer) Reset() {
	if w.sent {
		panic("bslim: cannot reset response, it was already flushed")
	}

	w.buf.Reset()
	w.header = http.Header{}
	w.status = 0
}

// FlushBuffer sends the headers (once) and any buffered bytes to the underlying writer.
func (w *ResponseBuffer) FlushBuffer() error {
	if !w.sent {
		dst := w.resp.Header()
		for k, v := range w.header {
			dst[k] = v
		}

		w.resp.WriteHeader(w.Status())
		w.sent = true
	}

	if w.buf.Len() == 0 {
		return nil
	}

	_, err := w.resp.Write(w.buf.Bytes())
	w.buf.Reset()
	if err != nil {
		return errors.Wrap(err, "write buffered response")
	}

	return nil
}

// FlushError implements the interface used by [http.ResponseController]: it flushes the buffer
// and then the underlying writer.
func (w *ResponseBuffer) FlushError() error {
	if err := w.FlushBuffer(); err != nil {
		return err
	}

	if err := http.NewResponseController(w.resp).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return errors.Wrap(err, "flush underlying writer")
	}

	return nil
}

// Unwrap returns the underlying writer, for [http.ResponseController].
func (w *ResponseBuffer) Unwrap() http.ResponseWriter { return w.resp }

// Free returns the buffer to the pool. The writer must not be used afterwards.
func (w *ResponseBuffer) Free() {
	if w.buf == nil {
		return
	}

	bufPool.Put(w.buf)
	w.buf = nil
}

var _ ResponseWriter = &ResponseBuffer{}
