// Package client implements the TCP client side of the wire protocol: one
// connection, many requests, one response per request.
package client

import (
	"net"

	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/jptalukdar/kvs/internal/wire"
)

// Client is a connection to a running server.
type Client struct {
	conn net.Conn
	dec  *wire.Decoder
}

// Dial connects to addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, kvserr.Io("dial server", err)
	}
	return &Client{conn: conn, dec: wire.NewDecoder(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Get returns key's value. ok is false if the server reports no such key.
func (c *Client) Get(key string) (string, bool, error) {
	resp, err := c.roundTrip(wire.GetRequest(key))
	if err != nil {
		return "", false, err
	}
	if resp.HasErr {
		return "", false, kvserr.Client(resp.ErrMsg)
	}
	if !resp.HasValue {
		return "", false, nil
	}
	return resp.Value, true, nil
}

// Set stores value under key.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(wire.SetRequest(key, value))
	if err != nil {
		return err
	}
	if resp.HasErr {
		return kvserr.Client(resp.ErrMsg)
	}
	return nil
}

// Remove deletes key. A server-reported "key not found" surfaces as a
// kvserr.ErrClient-wrapped error, same as any other server-side failure.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(wire.RemoveRequest(key))
	if err != nil {
		return err
	}
	if resp.HasErr {
		return kvserr.Client(resp.ErrMsg)
	}
	return nil
}

func (c *Client) roundTrip(req wire.Request) (wire.Response, error) {
	buf, err := wire.EncodeRequest(req)
	if err != nil {
		return wire.Response{}, err
	}
	if _, err := c.conn.Write(buf); err != nil {
		return wire.Response{}, kvserr.Io("send request", err)
	}
	return c.dec.DecodeResponse()
}
