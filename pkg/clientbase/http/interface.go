package cbhttp

import lhttp "github.com/lgrosjean/baynext-ml/pkg/http"

type Client interface {
	Do(r *Request) (*Response, *lhttp.HttpError)
}
