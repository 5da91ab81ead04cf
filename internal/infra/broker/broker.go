// Package broker owns the single backing-client session of the process.
package broker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/telemetry"
)

// Options configures a Broker.
type Options struct {
	Credentials domain.Credentials
	Factory     domain.ClientFactory
	Metrics     domain.Metrics
	Logger      *zap.Logger
	Now         func() time.Time
}

// buildCall is one in-flight construction shared by every waiter.
type buildCall struct {
	done    chan struct{}
	session *domain.Session
	err     error
}

// Broker lazily constructs the backing client and logs in at most once.
// Concurrent first callers share one construction. A failed construction is
// not remembered, so the next call tries again.
type Broker struct {
	creds   domain.Credentials
	factory domain.ClientFactory
	metrics domain.Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	session  *domain.Session
	inflight *buildCall
	closed   bool
}

func New(opts Options) *Broker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Broker{
		creds:   opts.Credentials,
		factory: opts.Factory,
		metrics: opts.Metrics,
		logger:  logger.Named("broker"),
		now:     now,
	}
}

// errClosed is returned by Session once Close has been called.
func errClosed() error {
	return domain.E(domain.KindBackendUnavailable, "broker.session", "broker closed", nil)
}

// Session returns the process session, constructing it on first use. After
// Close it fails, and a construction that finishes after Close is shut down
// rather than kept.
func (b *Broker) Session(ctx context.Context) (*domain.Session, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errClosed()
	}
	if b.session != nil {
		session := b.session
		b.mu.Unlock()
		return session, nil
	}
	if call := b.inflight; call != nil {
		b.mu.Unlock()
		select {
		case <-call.done:
			return call.session, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &buildCall{done: make(chan struct{})}
	b.inflight = call
	b.mu.Unlock()

	call.session, call.err = b.build(context.WithoutCancel(ctx))

	var orphan *domain.Session
	b.mu.Lock()
	switch {
	case call.err != nil:
	case b.closed:
		orphan = call.session
		call.session, call.err = nil, errClosed()
	default:
		b.session = call.session
	}
	b.inflight = nil
	b.mu.Unlock()
	close(call.done)

	if orphan != nil {
		b.logger.Info("closing backing client built after close")
		if err := orphan.Client.Close(); err != nil {
			b.logger.Warn("backing client close failed", zap.Error(err))
		}
	}
	return call.session, call.err
}

func (b *Broker) build(ctx context.Context) (*domain.Session, error) {
	const op = "broker.session"
	if b.factory == nil {
		return nil, domain.E(domain.KindBackendUnavailable, op, "no backing client factory configured", nil)
	}

	start := b.now()
	b.logger.Info("constructing backing client",
		telemetry.EventField(telemetry.EventSessionBuild),
		zap.Object("credentials", b.creds),
	)
	client, err := b.factory(ctx, b.creds)
	duration := b.now().Sub(start)
	if err == nil && client == nil {
		err = domain.E(domain.KindBackendUnavailable, op, "backing client factory returned nil", nil)
	}
	b.observeBuild(duration, err)
	if err != nil {
		b.logger.Error("backing client construction failed",
			telemetry.EventField(telemetry.EventSessionBuildFailure),
			telemetry.DurationField(duration),
			zap.Error(err),
		)
		return nil, domain.E(domain.KindBackendUnavailable, op, "failed to initialize backing client: "+err.Error(), err)
	}
	b.logger.Info("backing client ready", telemetry.DurationField(duration))

	session := &domain.Session{Client: client, CreatedAt: b.now()}
	if !b.creds.HasLogin() {
		b.logger.Info("no credentials configured, running unauthenticated")
		return session, nil
	}

	session.LoginAttempted = true
	ok, err := client.Login(ctx, b.creds.Email, b.creds.Password)
	session.LoginSucceeded = err == nil && ok
	b.observeLogin(session.LoginSucceeded)
	switch {
	case err != nil:
		b.logger.Warn("login failed, continuing unauthenticated",
			telemetry.EventField(telemetry.EventLoginFailure),
			zap.String("email", b.creds.Email),
			zap.Error(err),
		)
	case !ok:
		b.logger.Warn("login rejected, continuing unauthenticated",
			telemetry.EventField(telemetry.EventLoginFailure),
			zap.String("email", b.creds.Email),
		)
	default:
		b.logger.Info("login succeeded",
			telemetry.EventField(telemetry.EventLoginSuccess),
			zap.String("email", b.creds.Email),
		)
	}
	return session, nil
}

// IsLoggedIn reports the live client state. It never constructs a session.
func (b *Broker) IsLoggedIn() bool {
	b.mu.Lock()
	session := b.session
	b.mu.Unlock()
	if session == nil {
		return false
	}
	return session.Client.IsLoggedIn()
}

// HasCredentials reports whether login credentials are configured.
func (b *Broker) HasCredentials() bool {
	return b.creds.HasLogin()
}

// Started reports whether a session has been constructed.
func (b *Broker) Started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil
}

// LoginAttempted reports whether the one login attempt has happened.
func (b *Broker) LoginAttempted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil && b.session.LoginAttempted
}

// Close shuts down the backing client if one was constructed. A construction
// still in flight is shut down when it completes.
func (b *Broker) Close() error {
	b.mu.Lock()
	b.closed = true
	session := b.session
	b.session = nil
	b.mu.Unlock()
	if session == nil {
		return nil
	}
	b.logger.Info("closing backing client")
	return session.Client.Close()
}

func (b *Broker) observeBuild(duration time.Duration, err error) {
	if b.metrics != nil {
		b.metrics.ObserveSessionBuild(duration, err)
	}
}

func (b *Broker) observeLogin(success bool) {
	if b.metrics != nil {
		b.metrics.ObserveLogin(success)
	}
}
