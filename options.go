// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"log/slog"
	"time"

	"code.hybscloud.com/pomp/transport"
)

// Options configures a Context.
type Options struct {
	// MaxMsgSize caps the size (header included) of any frame a
	// Connection will accept before disconnecting with ErrMessageTooLarge.
	MaxMsgSize int

	// ReconnectDelay holds a client reconnect backoff value. Context does
	// not pass it to the client Connection: that Connection always starts
	// its backoff at transport.DefaultReconnectDelay and doubles it on each
	// consecutive failure up to a fixed ceiling.
	ReconnectDelay time.Duration

	// Logger receives structured records for disconnects, protocol
	// errors, and best-effort broadcast failures.
	Logger *slog.Logger
}

var defaultOptions = Options{
	MaxMsgSize:     1 << 24,
	ReconnectDelay: transport.DefaultReconnectDelay,
	Logger:         slog.Default(),
}

// Option configures a Context at construction time.
type Option func(*Options)

// WithMaxMsgSize overrides the default 16MiB frame size ceiling.
func WithMaxMsgSize(n int) Option {
	return func(o *Options) { o.MaxMsgSize = n }
}

// WithReconnectDelay sets Options.ReconnectDelay. The client reconnect
// backoff itself is not changed by it (see Options.ReconnectDelay).
func WithReconnectDelay(d time.Duration) Option {
	return func(o *Options) { o.ReconnectDelay = d }
}

// WithLogger overrides the default slog.Default() logger. A nil logger
// disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
