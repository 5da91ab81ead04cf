package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/screener/screenertest"
)

var loginCreds = domain.Credentials{
	EndpointURL: domain.DefaultScreenerURL,
	BrowserPath: "/usr/bin/google-chrome",
	Email:       "me@example.test",
	Password:    "secret",
}

func TestSession_LazyConstruction(t *testing.T) {
	client := screenertest.NewClient()
	var builds atomic.Int64
	b := New(Options{Factory: screenertest.Factory(client, &builds), Logger: zap.NewNop()})

	assert.False(t, b.Started())
	assert.False(t, b.IsLoggedIn())
	assert.Equal(t, int64(0), builds.Load(), "IsLoggedIn must not construct")

	first, err := b.Session(context.Background())
	require.NoError(t, err)
	second, err := b.Session(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), builds.Load())
	assert.True(t, b.Started())
}

func TestSession_NoCredentialsSkipsLogin(t *testing.T) {
	client := screenertest.NewClient()
	b := New(Options{Factory: screenertest.Factory(client, nil)})

	session, err := b.Session(context.Background())
	require.NoError(t, err)

	assert.False(t, session.LoginAttempted)
	assert.False(t, session.LoginSucceeded)
	assert.Equal(t, int64(0), client.LoginCalls.Load())
	assert.False(t, b.IsLoggedIn())
	assert.False(t, b.HasCredentials())
}

func TestSession_LoginSucceeds(t *testing.T) {
	client := screenertest.NewClient()
	client.LoginOK = true
	b := New(Options{Credentials: loginCreds, Factory: screenertest.Factory(client, nil)})

	session, err := b.Session(context.Background())
	require.NoError(t, err)

	assert.True(t, session.LoginAttempted)
	assert.True(t, session.LoginSucceeded)
	assert.True(t, b.IsLoggedIn())
	assert.True(t, b.LoginAttempted())
}

func TestSession_LoginFailureIsSwallowed(t *testing.T) {
	cases := []struct {
		name     string
		loginOK  bool
		loginErr error
	}{
		{name: "rejected", loginOK: false},
		{name: "error", loginErr: errors.New("captcha")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := screenertest.NewClient()
			client.LoginOK = tc.loginOK
			client.LoginErr = tc.loginErr
			b := New(Options{Credentials: loginCreds, Factory: screenertest.Factory(client, nil)})

			session, err := b.Session(context.Background())
			require.NoError(t, err)
			assert.True(t, session.LoginAttempted)
			assert.False(t, session.LoginSucceeded)
			assert.False(t, b.IsLoggedIn())

			_, err = b.Session(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(1), client.LoginCalls.Load(), "login is attempted at most once")
		})
	}
}

func TestSession_ConstructionFailureIsRetried(t *testing.T) {
	var builds atomic.Int64
	boom := errors.New("chrome not found")
	b := New(Options{Factory: screenertest.FailingFactory(boom, &builds)})

	_, err := b.Session(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.KindBackendUnavailable, domain.KindOf(err))
	assert.False(t, b.Started())

	_, err = b.Session(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(2), builds.Load())
}

func TestSession_NilFactory(t *testing.T) {
	b := New(Options{})
	_, err := b.Session(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindBackendUnavailable, domain.KindOf(err))
}

func TestSession_SingleFlight(t *testing.T) {
	client := screenertest.NewClient()
	client.LoginOK = true
	var builds atomic.Int64
	release := make(chan struct{})

	factory := func(ctx context.Context, creds domain.Credentials) (domain.BackingClient, error) {
		builds.Add(1)
		<-release
		return client, nil
	}
	b := New(Options{Credentials: loginCreds, Factory: factory})

	const callers = 16
	sessions := make([]*domain.Session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := b.Session(context.Background())
			assert.NoError(t, err)
			sessions[i] = s
		}(i)
	}

	require.Eventually(t, func() bool { return builds.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), builds.Load())
	assert.Equal(t, int64(1), client.LoginCalls.Load())
	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
}

func TestSession_SingleFlightSharesFailure(t *testing.T) {
	var builds atomic.Int64
	release := make(chan struct{})
	boom := errors.New("launch failed")
	factory := func(context.Context, domain.Credentials) (domain.BackingClient, error) {
		builds.Add(1)
		<-release
		return nil, boom
	}
	b := New(Options{Factory: factory})

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Session(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return builds.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, int64(1), builds.Load())
}

func TestSession_WaiterContextCanceled(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := screenertest.NewClient()
	factory := func(context.Context, domain.Credentials) (domain.BackingClient, error) {
		close(started)
		<-release
		return client, nil
	}
	b := New(Options{Factory: factory})

	leaderDone := make(chan error, 1)
	go func() {
		_, err := b.Session(context.Background())
		leaderDone <- err
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Session(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-leaderDone)
	assert.True(t, b.Started())
}

func TestIsLoggedIn_TracksLiveClient(t *testing.T) {
	client := screenertest.NewClient()
	client.LoginOK = true
	b := New(Options{Credentials: loginCreds, Factory: screenertest.Factory(client, nil)})

	_, err := b.Session(context.Background())
	require.NoError(t, err)
	assert.True(t, b.IsLoggedIn())

	client.SetLoggedIn(false)
	assert.False(t, b.IsLoggedIn())
}

func TestClose(t *testing.T) {
	client := screenertest.NewClient()
	b := New(Options{Factory: screenertest.Factory(client, nil)})

	_, err := b.Session(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.Close())
	assert.Equal(t, int64(1), client.CloseCalls.Load())
	assert.False(t, b.Started())

	require.NoError(t, b.Close())
	assert.Equal(t, int64(1), client.CloseCalls.Load())

	_, err = b.Session(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindBackendUnavailable, domain.KindOf(err))
}

func TestClose_BeforeFirstSession(t *testing.T) {
	var builds atomic.Int64
	client := screenertest.NewClient()
	b := New(Options{Factory: screenertest.Factory(client, &builds)})

	require.NoError(t, b.Close())
	_, err := b.Session(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(0), builds.Load())
	assert.Equal(t, int64(0), client.CloseCalls.Load())
}

func TestClose_DuringConstructionClosesLateClient(t *testing.T) {
	client := screenertest.NewClient()
	started := make(chan struct{})
	release := make(chan struct{})
	factory := func(context.Context, domain.Credentials) (domain.BackingClient, error) {
		close(started)
		<-release
		return client, nil
	}
	b := New(Options{Factory: factory})

	done := make(chan error, 1)
	go func() {
		_, err := b.Session(context.Background())
		done <- err
	}()
	<-started

	require.NoError(t, b.Close())
	assert.Equal(t, int64(0), client.CloseCalls.Load())
	close(release)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, domain.KindBackendUnavailable, domain.KindOf(err))
	case <-time.After(time.Second):
		t.Fatal("construction never completed")
	}
	assert.Equal(t, int64(1), client.CloseCalls.Load())
	assert.False(t, b.Started())
	assert.False(t, b.IsLoggedIn())
}
