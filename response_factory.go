package bslim

// ResponseFactory prepares a fresh response on a buffered writer.
type ResponseFactory interface {
	CreateResponse(w ResponseWriter, code int) ResponseWriter
}

type bufferedResponseFactory struct{}

// NewResponseFactory returns a factory that discards whatever was buffered before setting the status.
func NewResponseFactory() ResponseFactory {
	return bufferedResponseFactory{}
}

func (bufferedResponseFactory) CreateResponse(w ResponseWriter, code int) ResponseWriter {
	w.Reset()
	w.WriteHeader(code)

	return w
}
