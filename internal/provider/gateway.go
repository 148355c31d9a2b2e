package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
	"github.com/go-resty/resty/v2"
)

const defaultGatewayTimeout = 10 * time.Second

type gatewayRequest struct {
	To      string `json:"to"`
	Channel string `json:"channel"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

type gatewayResponse struct {
	MessageID string `json:"messageId"`
}

// GatewayProvider delivers messages through a channel gateway's HTTP API.
// One instance per channel; the gateway owns the provider wire format.
type GatewayProvider struct {
	client   *resty.Client
	channel  domain.Channel
	endpoint string
}

func NewGatewayProvider(channel domain.Channel, endpoint string) (*GatewayProvider, error) {
	client := resty.New()
	client.SetTimeout(defaultGatewayTimeout)
	client.SetRetryCount(0)

	return NewGatewayProviderWithClient(channel, endpoint, client)
}

func NewGatewayProviderWithClient(channel domain.Channel, endpoint string, client *resty.Client) (*GatewayProvider, error) {
	if !channel.IsValid() {
		return nil, fmt.Errorf("invalid channel %q", channel)
	}

	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("gateway endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid gateway endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultGatewayTimeout)
	}
	client.SetRetryCount(0)

	return &GatewayProvider{
		client:   client,
		channel:  channel,
		endpoint: trimmedEndpoint,
	}, nil
}

func (p *GatewayProvider) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if strings.TrimSpace(msg.Destination) == "" {
		return nil, fmt.Errorf("destination is required")
	}

	reqBody := gatewayRequest{
		To:      msg.Destination,
		Channel: strings.ToLower(p.channel.String()),
		Subject: msg.Subject,
		Body:    msg.Body,
	}

	var parsed gatewayResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&parsed).
		Post(p.endpoint)
	if err != nil {
		return nil, &ProviderError{
			Message: fmt.Sprintf("%s gateway request failed", strings.ToLower(p.channel.String())),
			Cause:   err,
		}
	}
	if response == nil {
		return nil, &ProviderError{Message: "gateway returned empty response"}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResult{
			StatusCode: statusCode,
			MessageID:  messageIDFromResponse(parsed, response),
		}, nil
	}

	body := strings.TrimSpace(response.String())
	message := fmt.Sprintf("gateway returned status %d", statusCode)
	if body != "" {
		message = fmt.Sprintf("%s: %s", message, body)
	}

	return nil, &ProviderError{
		StatusCode: statusCode,
		Message:    message,
	}
}

func messageIDFromResponse(parsed gatewayResponse, response *resty.Response) string {
	if id := strings.TrimSpace(parsed.MessageID); id != "" {
		return id
	}

	for _, key := range []string{"X-Message-ID", "X-Message-Id", "X-Request-ID", "X-Request-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}

	return ""
}

// IsCanceled reports whether a send failed because the caller's context
// ended rather than because the gateway rejected the message.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
