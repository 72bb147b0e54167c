// Package env is a reference EnvClient backed by the process environment,
// for _load.client: Env.
package env

import (
	"context"
	"os"
)

// Client implements pkg/adapter.EnvClient over os.LookupEnv.
type Client struct{}

func New() *Client { return &Client{} }

func (c *Client) Get(_ context.Context, name string) (string, bool, error) {
	v, ok := os.LookupEnv(name)
	return v, ok, nil
}
