package supervisor

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGracefulShutdown_RunsShutdownOnceAndExitsWithCode(t *testing.T) {
	var shutdownCalls int32
	var exitCode int32 = -1
	var exitCalls int32

	s := New(nil, func() { atomic.AddInt32(&shutdownCalls, 1) }, func(code int) {
		atomic.AddInt32(&exitCalls, 1)
		atomic.StoreInt32(&exitCode, int32(code))
	})

	s.GracefulShutdown(0)
	s.GracefulShutdown(0)
	s.GracefulShutdown(1)

	assert.Equal(t, int32(1), atomic.LoadInt32(&shutdownCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&exitCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&exitCode))
}

func TestGracefulShutdown_CancelsContext(t *testing.T) {
	s := New(nil, nil, func(code int) {})
	ctx := s.Context()

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before shutdown")
	default:
	}

	s.GracefulShutdown(0)

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context not cancelled after shutdown")
	}
}

func TestRecover_CatchesPanicAndExitsWithCodeOne(t *testing.T) {
	var exitCode int
	var exitCalled bool
	s := New(nil, nil, func(code int) {
		exitCalled = true
		exitCode = code
	})

	func() {
		defer s.Recover()
		panic("boom")
	}()

	assert.True(t, exitCalled)
	assert.Equal(t, 1, exitCode)
}

func TestRecover_NoOpWhenNoPanic(t *testing.T) {
	var exitCalled bool
	s := New(nil, nil, func(code int) { exitCalled = true })

	func() {
		defer s.Recover()
	}()

	assert.False(t, exitCalled)
}
