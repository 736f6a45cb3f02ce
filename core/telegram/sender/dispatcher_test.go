package sender

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRunsQueuedJobsBeforeClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 16})
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			ran.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	d.Close()
	if ran.Load() != 10 {
		t.Fatalf("ran = %d, want 10", ran.Load())
	}
	if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after Close = %v", err)
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return dial
		}
		return nil
	})
	d.Close()
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("ErrorCount = %d", d.ErrorCount())
	}
}

func TestDispatcherDoesNotRetryAPIErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return &tele.Error{Code: 400, Description: "Bad Request: chat not found"}
	})
	d.Close()
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", d.ErrorCount())
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	block := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), "a", "", func() error { close(started); <-block; return nil })
	<-started
	_ = d.Enqueue(context.Background(), "b", "", func() error { return nil })
	err := d.Enqueue(context.Background(), "c", "", func() error { return nil })
	close(block)
	d.Close()
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAH-secret_x/sendMessage": timeout`)
	got := sanitizeErrorMessage(err)
	if strings.Contains(got, "AAH-secret_x") || !strings.Contains(got, "bot<redacted>") {
		t.Fatalf("token leaked: %q", got)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, "dial"},
		{&tele.Error{Code: 403}, "http_4xx"},
		{&tele.Error{Code: 502}, "http_5xx"},
		{errors.New("weird"), "unknown"},
	}
	for _, c := range cases {
		if got := classifyError(c.err); got != c.want {
			t.Fatalf("classifyError(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
