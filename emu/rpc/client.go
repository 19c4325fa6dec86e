package rpc

import (
	"fmt"
	"net/rpc"
	"time"
)

type Client struct {
	client *rpc.Client
}

// NewClient connects to the server at addr, retrying a few times while the
// emulator starts.
func NewClient(addr string) (*Client, error) {
	const maxretries = 5

	var err error
	for i := range maxretries {
		var client *rpc.Client
		if client, err = rpc.DialHTTP("tcp", addr); err == nil {
			return &Client{client: client}, nil
		}
		modRPC.WarnZ("dial tcp failed").Error("err", err).Int("retry", i).End()
		time.Sleep(250 * time.Millisecond)
	}
	return nil, fmt.Errorf("dial failed max retries: %w", err)
}

func (c *Client) Close() error {
	modRPC.DebugZ("closing rpc client").End()
	return c.client.Close()
}

func (c *Client) Reset() error              { return c.call("Reset", nil) }
func (c *Client) Restart() error            { return c.call("Restart", nil) }
func (c *Client) SetPause(pause bool) error { return c.call("SetPause", pause) }
func (c *Client) Stop() error               { return c.call("Stop", nil) }
func (c *Client) SaveSnapshot() error       { return c.call("SaveSnapshot", nil) }
func (c *Client) LoadSnapshot() error       { return c.call("LoadSnapshot", nil) }

func (c *Client) IsPaused() (bool, error) {
	return request[bool](c.client, "IsPaused", nil)
}

func (c *Client) call(method string, args any) error {
	_, err := request[struct{}](c.client, method, args)
	return err
}

func request[T any](client *rpc.Client, method string, args any) (T, error) {
	if args == nil {
		args = &struct{}{}
	}
	var reply T
	if err := client.Call(serviceName+"."+method, args, &reply); err != nil {
		modRPC.ErrorZ("RPC call failed").String("method", method).Error("err", err).End()
		return reply, fmt.Errorf("rpc %s: %w", method, err)
	}
	return reply, nil
}
