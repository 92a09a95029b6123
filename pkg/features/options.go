package features

import (
	"time"

	"github.com/samvad-hq/featurette/pkg/httpclient"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	http      httpclient.Client
	timeout   time.Duration
	userAgent string
	listener  Listener
	log       Logger
}

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *options) { o.http = c }
}

// WithTimeout bounds each fetch on the default transport.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithUserAgent sets the User-Agent header on the default transport.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithListener registers the receiver of load outcomes.
func WithListener(l Listener) Option {
	return func(o *options) { o.listener = l }
}

// WithLogger sets the client logger.
func WithLogger(l Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{userAgent: "featurette/1.0"}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.http == nil {
		o.http = httpclient.NewRestyClient(httpclient.Options{
			Timeout:   o.timeout,
			UserAgent: o.userAgent,
		})
	}
	if o.listener == nil {
		o.listener = noopListener{}
	}
	if o.log == nil {
		o.log = noopLogger{}
	}
	return o
}
