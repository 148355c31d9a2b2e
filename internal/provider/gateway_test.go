package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
	"github.com/go-resty/resty/v2"
)

func TestGatewayProviderSendSuccess(t *testing.T) {
	t.Parallel()

	var gotBody gatewayRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messageId":"wamid-42"}`))
	}))
	defer server.Close()

	p, err := NewGatewayProvider(domain.ChannelWhatsApp, server.URL)
	if err != nil {
		t.Fatalf("NewGatewayProvider() error = %v", err)
	}

	result, err := p.Send(context.Background(), Message{
		Channel:     domain.ChannelWhatsApp,
		Destination: "+905551112233",
		Subject:     "Picnic moved",
		Body:        "Saturday picnic moved to the lake",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if result.MessageID != "wamid-42" {
		t.Fatalf("MessageID = %s, want wamid-42", result.MessageID)
	}
	if gotBody.To != "+905551112233" {
		t.Fatalf("request to = %s, want +905551112233", gotBody.To)
	}
	if gotBody.Channel != "whatsapp" {
		t.Fatalf("request channel = %s, want whatsapp", gotBody.Channel)
	}
}

func TestGatewayProviderSendMessageIDFromHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Message-ID", "hdr-7")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	p, err := NewGatewayProvider(domain.ChannelSMS, server.URL)
	if err != nil {
		t.Fatalf("NewGatewayProvider() error = %v", err)
	}

	result, err := p.Send(context.Background(), Message{
		Channel:     domain.ChannelSMS,
		Destination: "+15550001111",
		Body:        "hello",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if result.MessageID != "hdr-7" {
		t.Fatalf("MessageID = %s, want hdr-7", result.MessageID)
	}
}

func TestGatewayProviderSendGatewayFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	p, err := NewGatewayProvider(domain.ChannelEmail, server.URL)
	if err != nil {
		t.Fatalf("NewGatewayProvider() error = %v", err)
	}

	_, err = p.Send(context.Background(), Message{
		Channel:     domain.ChannelEmail,
		Destination: "admin@example.com",
		Subject:     "s",
		Body:        "b",
	})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("Send() error = %v, want *ProviderError", err)
	}
	if providerErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("StatusCode = %d, want 502", providerErr.StatusCode)
	}
}

func TestGatewayProviderSendContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := resty.New()
	client.SetTimeout(time.Second)
	p, err := NewGatewayProviderWithClient(domain.ChannelVoice, server.URL, client)
	if err != nil {
		t.Fatalf("NewGatewayProviderWithClient() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Send(ctx, Message{
		Channel:     domain.ChannelVoice,
		Destination: "+15550002222",
		Body:        "call body",
	})
	if err == nil {
		t.Fatal("Send() expected error on canceled context")
	}
	if !IsCanceled(err) {
		t.Fatalf("IsCanceled(%v) = false, want true", err)
	}
}

func TestNewGatewayProviderValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewGatewayProvider(domain.ChannelSMS, ""); err == nil {
		t.Fatal("empty endpoint should error")
	}
	if _, err := NewGatewayProvider(domain.ChannelSMS, "not a url"); err == nil {
		t.Fatal("malformed endpoint should error")
	}
	if _, err := NewGatewayProvider(domain.Channel("FAX"), "http://gateway.local"); err == nil {
		t.Fatal("invalid channel should error")
	}
}
