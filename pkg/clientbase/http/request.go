package cbhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	retry "github.com/avast/retry-go"

	lhttp "github.com/lgrosjean/baynext-ml/pkg/http"
)

type Request struct {
	Method        string
	URI           string
	Header        http.Header
	Query         url.Values
	Body          io.ReadCloser
	ContentLength int64
	HErr          *lhttp.HttpError
	Context       context.Context
	retryOptions  []retry.Option
}

type RequestOption func(*Request) *Request

func NewRequest(ctx context.Context, method, uri string, options ...RequestOption) *Request {
	r := &Request{
		Method:  method,
		URI:     uri,
		Context: ctx,
	}

	return r.Options(options...)
}

func (r *Request) Options(options ...RequestOption) *Request {
	return ComposeOptions(options...)(r)
}

func ComposeOptions(options ...RequestOption) RequestOption {
	return func(r *Request) *Request {
		for _, opt := range options {
			r = opt(r)
		}
		return r
	}
}

func Header(key, value string) RequestOption {
	return func(r *Request) *Request {
		if r.Header == nil {
			r.Header = make(http.Header)
		}
		r.Header.Set(key, value)
		return r
	}
}

func QueryValue(key, value string) RequestOption {
	return func(r *Request) *Request {
		if r.Query == nil {
			r.Query = make(url.Values)
		}
		r.Query.Set(key, value)
		return r
	}
}

// JSONBody encodes body as JSON and sets the content type. An encoding
// failure surfaces through Request.HErr when the request runs.
func JSONBody(body interface{}) RequestOption {
	return func(r *Request) *Request {
		encoded, err := json.Marshal(body)
		if err != nil {
			r.HErr = lhttp.FromError(err)
			return r
		}
		r.Body = io.NopCloser(bytes.NewReader(encoded))
		r.ContentLength = int64(len(encoded))
		return Header("Content-Type", "application/json")(r)
	}
}
