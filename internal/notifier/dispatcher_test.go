package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []Message
	fails int
	done  chan struct{}
}

func newRecordingSender(fails int) *recordingSender {
	return &recordingSender{fails: fails, done: make(chan struct{}, 16)}
}

func (r *recordingSender) record(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		r.done <- struct{}{}
		return errors.New("telegram unavailable")
	}
	r.sent = append(r.sent, msg)
	r.done <- struct{}{}
	return nil
}

func (r *recordingSender) SendText(ctx context.Context, chatID int64, text string) error {
	return r.record(Message{Kind: KindText, ChatID: chatID, Text: text})
}

func (r *recordingSender) SendPhoto(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	return r.record(Message{Kind: KindPhoto, ChatID: chatID, Filename: filename, Data: data, Text: caption})
}

func (r *recordingSender) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	return r.record(Message{Kind: KindDocument, ChatID: chatID, Filename: filename, Data: data, Text: caption})
}

func (r *recordingSender) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

type countingObserver struct {
	mu      sync.Mutex
	results map[string]int
}

func (c *countingObserver) NotificationSent(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func (c *countingObserver) count(result string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[result]
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for send %d", i+1)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sender := newRecordingSender(0)
	observer := &countingObserver{}
	d := NewDispatcher(sender, DispatcherConfig{BufferSize: 1, Observer: observer})

	assert.True(t, d.Enqueue(Message{ChatID: 1, Text: "first"}))
	assert.False(t, d.Enqueue(Message{ChatID: 1, Text: "second"}))
	assert.Equal(t, 1, observer.count("dropped"))

	d.Start(context.Background())
	waitFor(t, sender.done, 1)
	d.Stop()

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "first", sent[0].Text)
}

func TestDispatcherRoutesByKind(t *testing.T) {
	sender := newRecordingSender(0)
	d := NewDispatcher(sender, DispatcherConfig{})
	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(Message{Kind: KindPhoto, ChatID: 5, Filename: "week.png", Data: []byte{1, 2}, Text: "week"})
	waitFor(t, sender.done, 1)
	d.Enqueue(Message{Kind: KindDocument, ChatID: 5, Filename: "report.pdf", Data: []byte{3}})
	waitFor(t, sender.done, 1)

	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, KindPhoto, sent[0].Kind)
	assert.Equal(t, "week.png", sent[0].Filename)
	assert.Equal(t, KindDocument, sent[1].Kind)
}

func TestDispatcherRetriesThenGivesUp(t *testing.T) {
	sender := newRecordingSender(1)
	observer := &countingObserver{}
	d := NewDispatcher(sender, DispatcherConfig{MaxRetries: 1, RetryDelay: 10 * time.Millisecond, Observer: observer})
	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(Message{ChatID: 9, Text: "hello"})
	waitFor(t, sender.done, 2)

	require.Eventually(t, func() bool { return observer.count("sent") == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, sender.messages(), 1)

	failing := newRecordingSender(5)
	gaveUp := &countingObserver{}
	d2 := NewDispatcher(failing, DispatcherConfig{Observer: gaveUp})
	d2.Start(context.Background())
	defer d2.Stop()

	d2.Enqueue(Message{ChatID: 9, Text: "hello"})
	waitFor(t, failing.done, 1)
	require.Eventually(t, func() bool { return gaveUp.count("failed") == 1 }, time.Second, 5*time.Millisecond)
}

func TestDispatcherRejectsAfterStop(t *testing.T) {
	d := NewDispatcher(newRecordingSender(0), DispatcherConfig{})
	d.Start(context.Background())
	d.Stop()

	assert.False(t, d.Enqueue(Message{ChatID: 1, Text: "late"}))
}
