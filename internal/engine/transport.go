// FILENAME: internal/engine/transport.go
package engine

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/xkilldash9x/owasp-driver/internal/config"
	"github.com/xkilldash9x/owasp-driver/internal/models"
	"github.com/xkilldash9x/owasp-driver/internal/payload"
	"go.uber.org/zap"
)

const userAgent = "OWASP-Driver/Go"

// HTTPTarget delivers probes to a URL as a raw body or as one form parameter.
type HTTPTarget struct {
	spec   TargetSpec
	client *http.Client
	closer func()
	logger *zap.Logger
}

// NewHTTPTarget builds a target with a dedicated transport for spec.Protocol.
func NewHTTPTarget(spec TargetSpec, logger *zap.Logger) (*HTTPTarget, error) {
	u, err := url.Parse(spec.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec.Method == "" {
		spec.Method = config.DefaultMethod
	}
	if spec.Delivery == "" {
		spec.Delivery = config.DefaultDelivery
	}
	if spec.Delivery == "param" && spec.Param == "" {
		spec.Param = config.DefaultParam
	}
	if spec.Timeout <= 0 {
		spec.Timeout = config.RequestTimeout
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: spec.InsecureSkipVerify}

	var rt http.RoundTripper
	var closer func()
	switch spec.Protocol {
	case "", "h1":
		tr := baseTransport(tlsConfig)
		tr.ForceAttemptHTTP2 = false
		// A non-nil empty map disables the automatic h2 upgrade.
		tr.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		rt, closer = tr, tr.CloseIdleConnections
	case "h2":
		if u.Scheme != "https" {
			return nil, fmt.Errorf("%w: h2 requires https scheme", ErrUnsupportedProtocol)
		}
		tr := baseTransport(tlsConfig)
		tr.ForceAttemptHTTP2 = true
		rt, closer = tr, tr.CloseIdleConnections
	case "h3":
		if u.Scheme != "https" {
			return nil, fmt.Errorf("%w: h3 requires https scheme", ErrUnsupportedProtocol)
		}
		tlsConfig.NextProtos = []string{"h3"}
		tr := &http3.Transport{
			TLSClientConfig: tlsConfig,
			QUICConfig: &quic.Config{
				KeepAlivePeriod: config.H3KeepAlive,
				MaxIdleTimeout:  config.IdleConnTimeout,
			},
			DisableCompression: true,
		}
		rt, closer = tr, tr.CloseIdleConnections
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, spec.Protocol)
	}

	logger.Debug("Target transport ready",
		zap.String("url", spec.URL),
		zap.String("protocol", spec.Protocol),
		zap.String("delivery", spec.Delivery),
		zap.Any("headers", SanitizeHeadersForLog(spec.Headers)),
	)

	return &HTTPTarget{
		spec:   spec,
		client: &http.Client{Transport: rt, Timeout: spec.Timeout},
		closer: closer,
		logger: logger,
	}, nil
}

func baseTransport(tlsConfig *tls.Config) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = tlsConfig
	tr.MaxIdleConnsPerHost = config.MaxIdleConnsHost
	tr.IdleConnTimeout = config.IdleConnTimeout
	tr.DisableCompression = true
	return tr
}

// Submit sends one probe and returns the raw response.
func (t *HTTPTarget) Submit(ctx context.Context, probe *models.Probe) (*http.Response, error) {
	req, err := t.newRequest(ctx, probe)
	if err != nil {
		return nil, err
	}
	return t.client.Do(req)
}

func (t *HTTPTarget) newRequest(ctx context.Context, probe *models.Probe) (*http.Request, error) {
	var body io.Reader
	var contentType string
	switch t.spec.Delivery {
	case "param":
		form := url.Values{t.spec.Param: {payload.Decode(probe.Payload)}}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		body = bytes.NewReader(probe.Payload)
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, t.spec.Method, t.spec.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Driver-Probe", strconv.Itoa(probe.Index))
	req.Header.Set("X-Driver-Seed", strconv.FormatUint(probe.Seed, 10))
	for k, v := range t.spec.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (t *HTTPTarget) Close() error {
	t.closer()
	t.logger.Debug("Target closed", zap.String("url", t.spec.URL))
	return nil
}
