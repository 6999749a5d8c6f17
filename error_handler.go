package bslim

import (
	"mime"
	"net/http"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Content types the [DefaultErrorHandler] can render out of the box.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeXML     = "application/xml"
	ContentTypeTextXML = "text/xml"
	ContentTypeHTML    = "text/html"
	ContentTypePlain   = "text/plain"
	ContentTypeYAML    = "application/yaml"
	ContentTypeMsgpack = "application/msgpack"
)

// structuredSuffix matches structured syntax suffixes such as "application/problem+json".
var structuredSuffix = regexp.MustCompile(`\+(json|xml)`)

const logErrorTip = "To display error details in HTTP response set DisplayErrorDetails to true."

// DefaultErrorHandler is the handler the [ErrorMiddleware] falls back to. It picks the status from
// the error, negotiates a content type with the Accept header and renders the error with the
// matching [ErrorRenderer].
type DefaultErrorHandler struct {
	responseFactory ResponseFactory
	logs            *zap.Logger

	defaultContentType string
	renderers          map[string]ErrorRenderer
	logRenderer        ErrorRenderer
}

// NewDefaultErrorHandler inits the built-in error handler.
func NewDefaultErrorHandler(responseFactory ResponseFactory, logs *zap.Logger) *DefaultErrorHandler {
	if logs == nil {
		logs = zap.NewNop()
	}

	return &DefaultErrorHandler{
		responseFactory:    responseFactory,
		logs:               logs,
		defaultContentType: ContentTypeHTML,
		renderers: map[string]ErrorRenderer{
			ContentTypeJSON:    JSONErrorRenderer(),
			ContentTypeXML:     XMLErrorRenderer(),
			ContentTypeTextXML: XMLErrorRenderer(),
			ContentTypeHTML:    HTMLErrorRenderer(),
			ContentTypePlain:   PlainTextErrorRenderer(),
			ContentTypeYAML:    YAMLErrorRenderer(),
			ContentTypeMsgpack: MsgpackErrorRenderer(),
		},
		logRenderer: PlainTextErrorRenderer(),
	}
}

// RegisterErrorRenderer sets the renderer used for the given content type.
func (h *DefaultErrorHandler) RegisterErrorRenderer(contentType string, r ErrorRenderer) *DefaultErrorHandler {
	h.renderers[contentType] = r

	return h
}

// SetDefaultErrorRenderer sets the content type (and its renderer) used when the Accept header
// names nothing the handler can render.
func (h *DefaultErrorHandler) SetDefaultErrorRenderer(contentType string, r ErrorRenderer) *DefaultErrorHandler {
	h.defaultContentType = contentType
	h.renderers[contentType] = r

	return h
}

// SetLogErrorRenderer sets the renderer that produces the details field of log entries.
func (h *DefaultErrorHandler) SetLogErrorRenderer(r ErrorRenderer) *DefaultErrorHandler {
	h.logRenderer = r

	return h
}

// HandleError implements [ErrorHandler].
func (h *DefaultErrorHandler) HandleError(w ResponseWriter, r *http.Request, err error, flags Flags) error {
	status := h.statusCode(r, err)
	contentType := h.contentType(r)

	if flags.LogErrors {
		h.logError(r, err, status, flags)
	}

	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)

	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}

	w = h.responseFactory.CreateResponse(w, status)
	w.Header().Set("Content-Type", withCharset(contentType))

	if status == http.StatusMethodNotAllowed {
		if res := RoutingResultsFrom(r.Context()); res != nil && len(res.AllowedMethods) > 0 {
			w.Header().Set("Allow", strings.Join(res.AllowedMethods, ", "))
		}
	}

	if rerr := h.renderers[contentType].RenderError(w, err, flags.DisplayErrorDetails); rerr != nil {
		return errors.Wrapf(rerr, "render error as %s", contentType)
	}

	return nil
}

func (h *DefaultErrorHandler) statusCode(r *http.Request, err error) int {
	if r.Method == http.MethodOptions {
		return http.StatusOK
	}

	if code := CodeOf(err); code != CodeUnknown {
		return int(code)
	}

	return http.StatusInternalServerError
}

// contentType returns the first media type of the Accept header there is a renderer for. Plain text
// only wins when it is the sole match.
func (h *DefaultErrorHandler) contentType(r *http.Request) string {
	accept := r.Header.Get("Accept")

	selected := lo.Uniq(lo.FilterMap(strings.Split(accept, ","), func(item string, _ int) (string, bool) {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(item))
		if err != nil {
			return "", false
		}

		_, ok := h.renderers[mediaType]

		return mediaType, ok
	}))

	switch {
	case len(selected) > 1 && selected[0] == ContentTypePlain:
		return selected[1]
	case len(selected) > 0:
		return selected[0]
	}

	if m := structuredSuffix.FindStringSubmatch(accept); m != nil {
		if _, ok := h.renderers["application/"+m[1]]; ok {
			return "application/" + m[1]
		}
	}

	return h.defaultContentType
}

func (h *DefaultErrorHandler) logError(r *http.Request, err error, status int, flags Flags) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Stringer("kind", KindOf(err)),
		zap.Error(err),
	}

	var details strings.Builder
	if rerr := h.logRenderer.RenderError(&details, err, flags.LogErrorDetails); rerr != nil {
		h.logs.Error("failed to render error for logging", zap.Error(rerr))
	} else if flags.LogErrorDetails {
		fields = append(fields, zap.String("details", details.String()))
	}

	if !flags.DisplayErrorDetails {
		fields = append(fields, zap.String("tips", logErrorTip))
	}

	h.logs.Error("application error", fields...)
}

func withCharset(contentType string) string {
	if strings.HasPrefix(contentType, "text/") || contentType == ContentTypeJSON {
		return contentType + "; charset=utf-8"
	}

	return contentType
}

var _ ErrorHandler = &DefaultErrorHandler{}
