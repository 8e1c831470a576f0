// Package iam builds and maintains the secure outbound client for the
// downstream IAM token endpoint, and sends normalized token-exchange
// forms through it. The published client handle is the only hot-path
// shared state: many request goroutines read it, a single rotation
// writer replaces it atomically when the client key material on disk
// changes.
package iam

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/vincentlearning/token-gateway/iam/certmonitor"
	"github.com/vincentlearning/token-gateway/internal/config"
)

// ClientProvider owns the published ClientHandle and rebuilds it when
// the watched client key changes.
type ClientProvider struct {
	cfg     config.IamConfig
	current atomic.Pointer[ClientHandle]
	monitor *certmonitor.Monitor

	// rotateMu guards the single-writer rebuild state. A change signal
	// arriving while a rotation runs is remembered and collapsed into
	// exactly one follow-up rebuild.
	rotateMu sync.Mutex
	rotating bool
	queued   bool

	rotations atomic.Uint64
}

// NewClientProvider builds the initial handle from configuration. When
// discovery is enabled the token endpoint is resolved from the IAM
// server's well-known document, falling back to the composed URL.
func NewClientProvider(cfg config.IamConfig) (*ClientProvider, error) {
	handle, err := BuildHandle(cfg)
	if err != nil {
		return nil, err
	}
	resolveTokenURL(cfg, handle)

	p := &ClientProvider{cfg: cfg}
	p.current.Store(handle)
	log.Info().Stringer("mode", handle.Mode()).Str("token_url", handle.TokenURL()).Msg("iam client ready")
	return p, nil
}

// Current returns the published handle. Callers capture it once per
// request and use it to completion; it is never invalidated under them.
func (p *ClientProvider) Current() *ClientHandle {
	return p.current.Load()
}

// Rotations reports how many handle swaps have completed. Failed
// rebuilds do not count.
func (p *ClientProvider) Rotations() uint64 {
	return p.rotations.Load()
}

// StartWatching arms the certificate monitor. Only a mutual-TLS handle
// has a private key to rotate; for every other mode this is a no-op.
// A monitor that cannot be established is logged and the gateway keeps
// serving with its startup identity.
func (p *ClientProvider) StartWatching() {
	handle := p.Current()
	if handle.Mode() != ModeMutual {
		return
	}

	p.monitor = certmonitor.New(p.cfg.GetCertCheckInterval())
	if err := p.monitor.Start(handle.KeyPath(), p.onChange); err != nil {
		log.Error().Err(err).Msg("cannot monitor target path, failed to start certificate monitor")
		p.monitor = nil
	}
}

// Stop halts the certificate monitor, if one is running.
func (p *ClientProvider) Stop() {
	if p.monitor != nil {
		p.monitor.Stop()
	}
}

// onChange serializes rebuilds. The running rotation is never
// interrupted; a concurrent signal schedules one more rebuild after it.
func (p *ClientProvider) onChange() {
	p.rotateMu.Lock()
	if p.rotating {
		p.queued = true
		p.rotateMu.Unlock()
		return
	}
	p.rotating = true
	p.rotateMu.Unlock()

	for {
		p.rotate()

		p.rotateMu.Lock()
		if !p.queued {
			p.rotating = false
			p.rotateMu.Unlock()
			return
		}
		p.queued = false
		p.rotateMu.Unlock()
	}
}

// rotate rebuilds the handle from current configuration and file bytes,
// and publishes it atomically. On failure the previous handle stays
// published and the monitor keeps polling; the next filesystem change
// triggers the next attempt.
func (p *ClientProvider) rotate() {
	handle, err := BuildHandle(p.cfg)
	if err != nil {
		log.Error().Err(err).Msg("fail to refresh iam client")
		return
	}
	resolveTokenURL(p.cfg, handle)

	p.current.Store(handle)
	p.rotations.Add(1)
	log.Info().Stringer("mode", handle.Mode()).Uint64("rotations", p.rotations.Load()).Msg("iam client refreshed")
}
