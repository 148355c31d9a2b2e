package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDeliveryCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncDeliverySent("EMAIL")
	metrics.IncDeliveryFailed("email", "gateway_error")
	metrics.ObserveDeliverySendDuration("email", 120*time.Millisecond)
	metrics.IncSweepClaim("publish")
	metrics.IncSweepClaim("resend")
	metrics.IncRateLimitRejected("dispatch")

	if got := testutil.ToFloat64(metrics.deliveriesSentTotal.WithLabelValues("email")); got != 1 {
		t.Fatalf("deliveries_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.deliveriesFailedTotal.WithLabelValues("email", "gateway_error")); got != 1 {
		t.Fatalf("deliveries_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.sweepClaimsTotal.WithLabelValues("publish")); got != 1 {
		t.Fatalf("sweep_claims_total{publish} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.rateLimitRejectedTotal.WithLabelValues("dispatch")); got != 1 {
		t.Fatalf("rate_limit_rejected_total = %v, want 1", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncDeliverySent("sms")
	metrics.IncDeliveryFailed("sms", "x")
	metrics.ObserveDeliverySendDuration("sms", time.Second)
	metrics.IncSweepClaim("publish")
	metrics.IncRateLimitRejected("global")
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
