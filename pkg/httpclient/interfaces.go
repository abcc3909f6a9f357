package httpclient

import "context"

// Response is the minimal read surface the scrapers and sinks need from an
// HTTP reply.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts outbound HTTP so discovery channels can be tested with
// canned responses instead of a live transport.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
