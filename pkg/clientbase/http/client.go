package cbhttp

import (
	"bytes"
	"io"
	"net/http"

	retry "github.com/avast/retry-go"

	lhttp "github.com/lgrosjean/baynext-ml/pkg/http"
)

// Do sends an HTTP request. Unlike the standard library client, a non-2xx
// status is returned as an *HttpError with the response body as message.
func (c *Instance) Do(r *Request) (*Response, *lhttp.HttpError) {
	if r.HErr != nil {
		return nil, r.HErr
	}
	return c.do(r)
}

func (c *Instance) DoNoResponse(r *Request) *lhttp.HttpError {
	body, err := c.Do(r)
	if body != nil {
		body.Close()
	}
	return err
}

func (c *Instance) do(r *Request) (*Response, *lhttp.HttpError) {
	if len(r.retryOptions) == 0 {
		return c.doNoRetry(r)
	}

	opts := append(r.retryOptions, retry.Context(r.Context))

	var response *Response
	var herr *lhttp.HttpError

	var bodyContent []byte
	if r.Body != nil {
		// Keep a copy of the body in case of retries
		var err error
		bodyContent, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, lhttp.FromError(err)
		}
		r.Body.Close()
	}

	_ = retry.Do(func() error {
		if bodyContent != nil {
			r.Body = io.NopCloser(bytes.NewBuffer(bodyContent))
		}
		response, herr = c.doNoRetry(r)
		if herr != nil {
			return herr
		}
		return nil
	}, opts...)

	return response, herr
}

func (c *Instance) Close() error {
	if c.Client != nil {
		c.Client.CloseIdleConnections()
	}
	return nil
}

type Response struct {
	http.Response
}

func (r *Response) Read(p []byte) (int, error) { return r.Body.Read(p) }
func (r *Response) Close() error               { return r.Body.Close() }

var _ io.ReadCloser = &Response{}
