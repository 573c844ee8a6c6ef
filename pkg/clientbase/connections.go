package clientbase

import (
	cbhttp "github.com/lgrosjean/baynext-ml/pkg/clientbase/http"
)

// Connections bundles the outbound clients shared across the process.
type Connections struct {
	HttpClient *cbhttp.Instance
}

func NewConnections(httpClient *cbhttp.Instance) (*Connections, error) {
	return &Connections{
		HttpClient: httpClient,
	}, nil
}

func (c *Connections) Close() error {
	return c.HttpClient.Close()
}
