package restyutil

import (
	"time"

	"hl7tools/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	BaseURL   string
	UserAgent string
	// BearerToken is sent as `Authorization: Bearer <token>` when set.
	BearerToken string
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
	// CloudflareBypass is needed for pages served from behind cloudflare's
	// bot check, like hl7.org.
	CloudflareBypass bool
	// RequestsPerSecond throttles the client when positive.
	RequestsPerSecond float64
	// Output receives a dump of every request/response pair at debug level.
	Output InstrumentOutput
}

func NewClient(opts Options) *resty.Client {
	client := resty.New()
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	if opts.BearerToken != "" {
		client.SetAuthToken(opts.BearerToken)
	}

	if opts.RequestsPerSecond > 0 {
		// a burst of 1 spaces every request out evenly
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, "hl7tools/restyutil")
	InstrumentClient(client, opts.Output)
	return client
}
