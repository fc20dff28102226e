package httpclient

import "net/http"

// Request describes an outbound HTTP request.
type Request struct {
	// Method defaults to GET.
	Method string
	// URL is the absolute request URL.
	URL string
	// Headers are merged over the client defaults.
	Headers map[string]string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
