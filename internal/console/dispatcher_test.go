// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package console_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Nayruden/otlib/internal/access"
	"github.com/Nayruden/otlib/internal/console"
	"github.com/Nayruden/otlib/pkg/errutil"
)

// newTestConsole declares a minimal host: group "admin" with a "slap"
// permission (numeric argument in [0,100]), a bound user, and a handler that
// echoes its parsed arguments.
func newTestConsole(t *testing.T) (*console.Dispatcher, *access.Registry) {
	t.Helper()

	principals := access.NewRegistry()
	admin, err := principals.Root().CreateClonedGroup("admin")
	require.NoError(t, err)

	slap, err := principals.Register("slap", admin)
	require.NoError(t, err)
	require.NoError(t, slap.AddParam(access.Num().Min(0).Max(100)))

	_, err = admin.CreateClonedUser("user1")
	require.NoError(t, err)

	commands := console.NewRegistry()
	require.NoError(t, commands.Register(console.Entry{
		Name:       "slap",
		Permission: slap,
		Source:     "core",
		Handler: func(_ context.Context, exec *console.Execution) error {
			fmt.Fprintf(exec.Output, "slapped for %v", exec.Args[0])
			return nil
		},
	}))

	d, err := console.NewDispatcher(commands, principals)
	require.NoError(t, err)
	return d, principals
}

func TestDispatchSuccess(t *testing.T) {
	d, _ := newTestConsole(t)

	var out bytes.Buffer
	err := d.Dispatch(context.Background(), "user1", "slap 50", &out)
	require.NoError(t, err)
	assert.Equal(t, "slapped for 50", out.String())
}

func TestDispatchDenialNeverReachesHandler(t *testing.T) {
	d, _ := newTestConsole(t)

	var out bytes.Buffer
	err := d.Dispatch(context.Background(), "user1", "slap 101", &out)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, console.CodeAccessDenied)
	assert.Empty(t, out.String())

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "too_high", oopsErr.Context()["kind"])
	assert.Equal(t, "parameters", oopsErr.Context()["level"])
	assert.Equal(t, 1, oopsErr.Context()["parameter_index"])
}

func TestDispatchUnknownAlias(t *testing.T) {
	d, _ := newTestConsole(t)

	err := d.Dispatch(context.Background(), "ghost", "slap 50", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, console.CodeUnknownAlias)
}

func TestDispatchUnknownCommand(t *testing.T) {
	d, _ := newTestConsole(t)

	err := d.Dispatch(context.Background(), "user1", "dance", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, console.CodeUnknownCommand)
}

func TestDispatchMismatchedQuote(t *testing.T) {
	d, _ := newTestConsole(t)

	err := d.Dispatch(context.Background(), "user1", `slap "50`, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, console.CodeMismatchedQuote)
}

func TestDispatchQuotedRestOfLine(t *testing.T) {
	principals := access.NewRegistry()
	admin, err := principals.Root().CreateClonedGroup("admin")
	require.NoError(t, err)

	say, err := principals.Register("say", admin)
	require.NoError(t, err)
	require.NoError(t, say.AddParam(access.Str().RestOfLine()))

	_, err = admin.CreateClonedUser("user1")
	require.NoError(t, err)

	commands := console.NewRegistry()
	var got string
	require.NoError(t, commands.Register(console.Entry{
		Name:       "say",
		Permission: say,
		Source:     "core",
		Handler: func(_ context.Context, exec *console.Execution) error {
			got = exec.Args[0].(string)
			return nil
		},
	}))

	d, err := console.NewDispatcher(commands, principals)
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), "user1", "say hello world", nil))
	assert.Equal(t, "hello world", got)

	// A quoted span is one token; rest-of-line re-joins with single spaces.
	require.NoError(t, d.Dispatch(context.Background(), "user1", `say "hello   world" again`, nil))
	assert.Equal(t, "hello   world again", got)
}

func TestDispatchHandlerError(t *testing.T) {
	principals := access.NewRegistry()
	admin, err := principals.Root().CreateClonedGroup("admin")
	require.NoError(t, err)

	ping, err := principals.Register("ping", admin)
	require.NoError(t, err)

	_, err = admin.CreateClonedUser("user1")
	require.NoError(t, err)

	commands := console.NewRegistry()
	require.NoError(t, commands.Register(console.Entry{
		Name:       "ping",
		Permission: ping,
		Source:     "core",
		Handler: func(_ context.Context, _ *console.Execution) error {
			return errors.New("boom")
		},
	}))

	d, err := console.NewDispatcher(commands, principals)
	require.NoError(t, err)

	err = d.Dispatch(context.Background(), "user1", "ping", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, console.CodeHandlerFailed)
}

func TestNewDispatcherNilArguments(t *testing.T) {
	_, err := console.NewDispatcher(nil, access.NewRegistry())
	require.Error(t, err)

	_, err = console.NewDispatcher(console.NewRegistry(), nil)
	require.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	d, _ := newTestConsole(t)

	err := d.Dispatch(context.Background(), "user1", "slap 101", nil)
	require.Error(t, err)
	assert.Equal(t, "Denied: 101 is above the allowed maximum of 100 (argument 1)", console.UserMessage(err))

	err = d.Dispatch(context.Background(), "user1", "dance", nil)
	require.Error(t, err)
	assert.Equal(t, "Unknown command. Try 'help'.", console.UserMessage(err))

	assert.Equal(t, "Something went wrong. Try again.", console.UserMessage(errors.New("plain")))
}

func TestUserMessagePersonalLimit(t *testing.T) {
	d, principals := newTestConsole(t)

	user, ok := principals.ResolvePrincipal("user1")
	require.True(t, ok)
	slap, ok := principals.Permission("slap")
	require.True(t, ok)

	user.Allow(slap).ModifyParam(0).(*access.NumParam).Max(50)

	err := d.Dispatch(context.Background(), "user1", "slap 75", nil)
	require.Error(t, err)
	assert.Equal(t,
		"Denied by your personal limits: 75 is above the allowed maximum of 50 (argument 1)",
		console.UserMessage(err))
}

func TestDispatchContextCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	principals := access.NewRegistry()
	admin, err := principals.Root().CreateClonedGroup("admin")
	require.NoError(t, err)

	slow, err := principals.Register("slow", admin)
	require.NoError(t, err)

	_, err = admin.CreateClonedUser("user1")
	require.NoError(t, err)

	handlerStarted := make(chan struct{})
	commands := console.NewRegistry()
	require.NoError(t, commands.Register(console.Entry{
		Name:       "slow",
		Permission: slow,
		Source:     "test",
		Handler: func(ctx context.Context, _ *console.Execution) error {
			close(handlerStarted)
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	d, err := console.NewDispatcher(commands, principals)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	dispatchDone := make(chan error)
	go func() {
		dispatchDone <- d.Dispatch(ctx, "user1", "slow", nil)
	}()

	<-handlerStarted
	cancel()

	err = <-dispatchDone
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, console.CodeHandlerFailed)
	assert.ErrorIs(t, err, context.Canceled)
}
