package bslim

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack"
	"gopkg.in/yaml.v3"
)

const (
	defaultErrorTitle       = "Application Error"
	defaultErrorDescription = "A website error has occurred. Sorry for the temporary inconvenience."
)

// ErrorRenderer writes the body of an error response.
type ErrorRenderer interface {
	RenderError(w io.Writer, err error, displayErrorDetails bool) error
}

// ErrorRendererFunc allow casting a function to implement [ErrorRenderer].
type ErrorRendererFunc func(w io.Writer, err error, displayErrorDetails bool) error

// RenderError implements the [ErrorRenderer] interface.
func (f ErrorRendererFunc) RenderError(w io.Writer, err error, displayErrorDetails bool) error {
	return f(w, err, displayErrorDetails)
}

// errorDocument is the structured body shared by the JSON, XML, YAML and MessagePack renderers.
type errorDocument struct {
	XMLName   xml.Name      `json:"-" yaml:"-" msgpack:"-" xml:"error"`
	Message   string        `json:"message" yaml:"message" msgpack:"message" xml:"message"`
	Exception []errorDetail `json:"exception,omitempty" yaml:"exception,omitempty" msgpack:"exception,omitempty" xml:"exception,omitempty"`
}

type errorDetail struct {
	Type    string `json:"type" yaml:"type" msgpack:"type" xml:"type"`
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty" msgpack:"kind,omitempty" xml:"kind,omitempty"`
	Code    int    `json:"code,omitempty" yaml:"code,omitempty" msgpack:"code,omitempty" xml:"code,omitempty"`
	Message string `json:"message" yaml:"message" msgpack:"message" xml:"message"`
}

func newErrorDocument(err error, displayErrorDetails bool) errorDocument {
	doc := errorDocument{Message: errorTitle(err)}
	if displayErrorDetails {
		doc.Exception = errorChain(err)
	}

	return doc
}

// errorChain lists err and its causes, skipping wrapping layers that add no text of their own
// (such as the stack trace layers added by the errors package).
func errorChain(err error) []errorDetail {
	var chain []errorDetail
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if next := errors.UnwrapOnce(e); next != nil && next.Error() == e.Error() {
			continue
		}

		detail := errorDetail{Type: fmt.Sprintf("%T", e), Message: e.Error()}
		if kinded, ok := e.(Kinded); ok && kinded.Kind() != nil {
			detail.Kind = kinded.Kind().Name()
		}

		if httpErr, ok := e.(*Error); ok {
			detail.Code = int(httpErr.Code())
		}

		chain = append(chain, detail)
	}

	return chain
}

func errorTitle(err error) string {
	if httpErr, ok := asError(err); ok {
		return httpErr.Title()
	}

	return defaultErrorTitle
}

func errorDescription(err error) string {
	if httpErr, ok := asError(err); ok && httpErr.Description() != "" {
		return httpErr.Description()
	}

	return defaultErrorDescription
}

// JSONErrorRenderer renders errors as indented JSON.
func JSONErrorRenderer() ErrorRenderer {
	return ErrorRendererFunc(func(w io.Writer, err error, displayErrorDetails bool) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")

		return errors.Wrap(enc.Encode(newErrorDocument(err, displayErrorDetails)), "encode json")
	})
}

// XMLErrorRenderer renders errors as an XML document.
func XMLErrorRenderer() ErrorRenderer {
	return ErrorRendererFunc(func(w io.Writer, err error, displayErrorDetails bool) error {
		if _, werr := io.WriteString(w, xml.Header); werr != nil {
			return errors.Wrap(werr, "write xml header")
		}

		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")

		return errors.Wrap(enc.Encode(newErrorDocument(err, displayErrorDetails)), "encode xml")
	})
}

// YAMLErrorRenderer renders errors as a YAML document.
func YAMLErrorRenderer() ErrorRenderer {
	return ErrorRendererFunc(func(w io.Writer, err error, displayErrorDetails bool) error {
		enc := yaml.NewEncoder(w)
		if eerr := enc.Encode(newErrorDocument(err, displayErrorDetails)); eerr != nil {
			return errors.Wrap(eerr, "encode yaml")
		}

		return errors.Wrap(enc.Close(), "close yaml encoder")
	})
}

// MsgpackErrorRenderer renders errors as MessagePack.
func MsgpackErrorRenderer() ErrorRenderer {
	return ErrorRendererFunc(func(w io.Writer, err error, displayErrorDetails bool) error {
		return errors.Wrap(msgpack.NewEncoder(w).Encode(newErrorDocument(err, displayErrorDetails)), "encode msgpack")
	})
}

// PlainTextErrorRenderer renders errors as text. With details it lists the error chain followed by
// the full report of the errors package, including stack traces.
func PlainTextErrorRenderer() ErrorRenderer {
	return ErrorRendererFunc(func(w io.Writer, err error, displayErrorDetails bool) error {
		if _, werr := fmt.Fprintln(w, errorTitle(err)); werr != nil {
			return errors.Wrap(werr, "write title")
		}

		if !displayErrorDetails {
			return nil
		}

		for _, d := range errorChain(err) {
			if _, werr := fmt.Fprintf(w, "\nType: %s\nKind: %s\nCode: %d\nMessage: %s\n",
				d.Type, d.Kind, d.Code, d.Message); werr != nil {
				return errors.Wrap(werr, "write detail")
			}
		}

		_, werr := fmt.Fprintf(w, "\nTrace:\n%+v\n", err)

		return errors.Wrap(werr, "write trace")
	})
}

var htmlErrorPage = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
<title>{{.Title}}</title>
<style>body{margin:0;padding:30px;font:12px/1.5 Helvetica,Arial,Verdana,sans-serif}h1{margin:0;font-size:48px;font-weight:normal;line-height:48px}strong{display:inline-block;width:65px}</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div>
{{- if .Details}}
<p>The application could not run because of the following error:</p>
<h2>Details</h2>
{{- range .Details}}
<div><strong>Type:</strong> {{.Type}}</div>
{{- if .Kind}}<div><strong>Kind:</strong> {{.Kind}}</div>{{end}}
{{- if .Code}}<div><strong>Code:</strong> {{.Code}}</div>{{end}}
<div><strong>Message:</strong> {{.Message}}</div>
{{- end}}
<h2>Trace</h2>
<pre>{{.Trace}}</pre>
{{- else}}
<p>{{.Description}}</p>
{{- end}}
</div>
<a href="#" onclick="window.history.go(-1)">Go Back</a>
</body>
</html>
`))

// HTMLErrorRenderer renders errors as a small HTML page.
func HTMLErrorRenderer() ErrorRenderer {
	return ErrorRendererFunc(func(w io.Writer, err error, displayErrorDetails bool) error {
		data := struct {
			Title       string
			Description string
			Details     []errorDetail
			Trace       string
		}{
			Title:       errorTitle(err),
			Description: errorDescription(err),
		}

		if displayErrorDetails {
			data.Details = errorChain(err)
			data.Trace = fmt.Sprintf("%+v", err)
		}

		return errors.Wrap(htmlErrorPage.Execute(w, data), "execute html template")
	})
}
