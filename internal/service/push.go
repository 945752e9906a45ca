package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gojektech/heimdall/v6/httpclient"
)

// Pusher delivers one push message to a device token. Implementations
// must treat a send as fire-and-forget: no retries, errors reported to
// the caller for logging only.
type Pusher interface {
	Push(ctx context.Context, token, title, body string, data map[string]string) error
}

// pushMessage is the wire format accepted by the push gateway.
type pushMessage struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// GatewayPusher posts messages to the external push gateway over HTTP.
// A single send either succeeds or fails; there is no retry, matching
// the best-effort delivery contract of the dispatcher.
type GatewayPusher struct {
	url    string
	client *httpclient.Client
}

// NewGatewayPusher returns a pusher bound to the gateway endpoint.
func NewGatewayPusher(url string) *GatewayPusher {
	return &GatewayPusher{
		url:    url,
		client: httpclient.NewClient(httpclient.WithHTTPTimeout(5 * time.Second)),
	}
}

// Push sends one message to the gateway and fails on any non-2xx reply.
func (p *GatewayPusher) Push(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(pushMessage{Token: token, Title: title, Body: body, Data: data})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// NopPusher discards every message. It stands in for the gateway when
// PUSH_GATEWAY_URL is not configured, so every dispatch degrades to the
// durable notification row alone.
type NopPusher struct{}

// Push reports success without sending anything.
func (NopPusher) Push(context.Context, string, string, string, map[string]string) error {
	return nil
}
