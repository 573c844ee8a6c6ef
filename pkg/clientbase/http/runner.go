package cbhttp

import (
	"io"
	"net/http"

	lhttp "github.com/lgrosjean/baynext-ml/pkg/http"
)

type RunnerFunc func(*Request) (*Response, *lhttp.HttpError)

func httpDoNoRetry(client *http.Client, r *Request) (*Response, *lhttp.HttpError) {
	request, err := http.NewRequest(r.Method, r.URI, r.Body)
	if err != nil {
		return nil, &lhttp.HttpError{Err: err}
	}

	if r.Header != nil {
		request.Header = r.Header
	}

	if r.Query != nil {
		request.URL.RawQuery = r.Query.Encode()
	}

	request.ContentLength = r.ContentLength

	if r.Context != nil {
		request = request.WithContext(r.Context)
	}

	resp, err := client.Do(request)
	if err != nil {
		return nil, &lhttp.HttpError{Err: err}
	}

	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		defer resp.Body.Close()
		responseBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &lhttp.HttpError{Err: err}
		}
		return nil, &lhttp.HttpError{Code: resp.StatusCode, Message: string(responseBody)}
	}

	return &Response{*resp}, nil
}
