package httpclient

import (
	"net"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// New returns a client for outbound API calls. A non-positive timeout uses
// the default.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = 5 * time.Second
	transport.MaxIdleConnsPerHost = 4

	return &http.Client{Timeout: timeout, Transport: transport}
}
