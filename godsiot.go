// Package godsiot drives Daikin air conditioners running firmware 2.8.0,
// which expose their state as a nested attribute tree over the dsiot
// multireq endpoint.
package godsiot

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultRequestSlots = 4
)

// Config carries the per-device construction options.
type Config struct {
	HTTPClient *http.Client
	TLSConfig  *tls.Config
	Timeout    time.Duration
	Limiter    Limiter
	Logger     Logger
	Port       int
}

type Option func(*Config)

// WithHTTPClient replaces the default HTTP client entirely.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTLSConfig sets the TLS configuration of the default client.
func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(c *Config) {
		c.TLSConfig = tlsConfig
	}
}

// WithTimeout sets the per-exchange timeout; a stalled exchange surfaces as
// a retryable communication error.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLimiter replaces the default request-slot limiter.
func WithLimiter(limiter Limiter) Option {
	return func(c *Config) {
		c.Limiter = limiter
	}
}

// WithLogger enables logging (silent by default)
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithPort sets a non-standard HTTP port.
func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// New creates a handle on the appliance at deviceIP without contacting it.
func New(deviceIP string, options ...Option) *Device {
	config := &Config{}
	for _, opt := range options {
		opt(config)
	}

	if config.Logger == nil {
		config.Logger = NoOpLogger{}
	}
	if config.Limiter == nil {
		config.Limiter = newSemaphoreLimiter(defaultRequestSlots)
	}
	if config.HTTPClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		transport := http.DefaultTransport
		if config.TLSConfig != nil {
			transport = &http.Transport{TLSClientConfig: config.TLSConfig}
		}
		config.HTTPClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	baseURL := fmt.Sprintf("http://%s", deviceIP)
	if config.Port != 0 && config.Port != 80 {
		baseURL = fmt.Sprintf("http://%s:%d", deviceIP, config.Port)
	}

	return &Device{
		DeviceIP:   deviceIP,
		URL:        baseURL + "/dsiot/multireq",
		HTTPClient: config.HTTPClient,
		Headers:    make(map[string]string),
		Logger:     config.Logger,
		Limiter:    config.Limiter,
	}
}

// Connect creates a handle and performs the initial status refresh.
func Connect(ctx context.Context, deviceIP string, options ...Option) (*Device, error) {
	device := New(deviceIP, options...)
	device.Logger.Info("connecting to device", "ip", deviceIP)
	if err := device.Init(ctx); err != nil {
		device.Logger.Error("failed to connect to device", "ip", deviceIP, "error", err)
		return nil, err
	}
	device.Logger.Info("connected to device",
		"ip", deviceIP, "mac", device.MAC(), "model", device.Model())
	return device, nil
}
