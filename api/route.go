package api

import (
	"bytes"
	"strings"
)

// Content types used by the built-in endpoints
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json"
)

// Request is the part of an HTTP request a handler sees. It is a copy, so a
// handler running on the loop goroutine never touches connection state.
type Request struct {
	Method string
	Path   string
	Params map[string]string // Values of the {name} segments
	Body   []byte
}

// Param returns the path parameter captured as {name}, or "" when there is
// none.
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// Text returns the body with surrounding whitespace removed.
func (r *Request) Text() string {
	return strings.TrimSpace(string(r.Body))
}

// Response collects status, content type and body. A handler that sets
// nothing answers 501.
type Response struct {
	code        int
	contentType string
	headers     [][2]string
	body        bytes.Buffer
}

func newResponse() *Response {
	return &Response{code: 501, contentType: ContentTypeText}
}

// Code sets the status code.
func (r *Response) Code(code int) *Response {
	r.code = code
	return r
}

// ContentType sets the content type.
func (r *Response) ContentType(contentType string) *Response {
	r.contentType = contentType
	return r
}

// Header adds a response header.
func (r *Response) Header(name, value string) *Response {
	r.headers = append(r.headers, [2]string{name, value})
	return r
}

// Write appends to the body.
func (r *Response) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

// WriteString appends to the body.
func (r *Response) WriteString(s string) (int, error) {
	return r.body.WriteString(s)
}

// StatusCode returns the status set so far.
func (r *Response) StatusCode() int {
	return r.code
}

// Body returns the body written so far.
func (r *Response) Body() []byte {
	return r.body.Bytes()
}

// HandlerFunc serves one request. It runs on the loop goroutine and may use
// the System freely, but must not block.
type HandlerFunc func(req *Request, resp *Response)

// Provider registers a group of endpoints on a Server during setup.
type Provider interface {
	SetupAPI(server *Server)
}
