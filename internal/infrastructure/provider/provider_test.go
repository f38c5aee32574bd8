package provider_test

import (
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r), nil }

func httpClient(resBody string, code int) *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		Transport: roundTripFunc(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
			}
		}),
	}
}

// countingClient also tracks how many requests actually hit the wire,
// so cache-hit tests can assert the upstream was not called again.
func countingClient(resBody string, code int, calls *atomic.Int64) *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		Transport: roundTripFunc(func(r *http.Request) *http.Response {
			calls.Add(1)
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
			}
		}),
	}
}
