package sideeffect

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, format)
}

func TestInterceptorUsesFallbackWhenInactive(t *testing.T) {
	i := NewInterceptor(StubHost{}, RealHost{})
	require.False(t, i.Active())
	_, ok := i.Host().(RealHost)
	require.True(t, ok)
}

func TestInterceptorUsesStubWhileActive(t *testing.T) {
	i := NewInterceptor(StubHost{}, RealHost{})
	done := i.Activate()
	defer done()
	require.True(t, i.Active())
	_, ok := i.Host().(StubHost)
	require.True(t, ok)
}

func TestInterceptorNestingRestoresOnlyAtZero(t *testing.T) {
	i := NewInterceptor(StubHost{}, RealHost{})
	done1 := i.Activate()
	done2 := i.Activate()
	require.True(t, i.Active())
	done2()
	require.True(t, i.Active())
	done1()
	require.False(t, i.Active())
}

func TestDeactivateIsIdempotent(t *testing.T) {
	i := NewInterceptor(StubHost{}, RealHost{})
	done := i.Activate()
	done()
	done()
	require.False(t, i.Active())
}

func TestStubHostOpenForWriteIsNoop(t *testing.T) {
	logger := &recordingLogger{}
	stub := StubHost{Logger: logger}
	wc, err := stub.OpenForWrite("/tmp/should-not-exist.txt", os.O_WRONLY, 0o600)
	require.NoError(t, err)
	n, err := wc.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.NoError(t, wc.Close())
	require.NoFileExists(t, "/tmp/should-not-exist.txt")
	require.Len(t, logger.lines, 1)
}

func TestStubHostSetenvDropsWrite(t *testing.T) {
	stub := StubHost{}
	require.NoError(t, stub.Setenv("KURRAL_TEST_VAR", "x"))
	_, ok := os.LookupEnv("KURRAL_TEST_VAR")
	require.False(t, ok)
}
