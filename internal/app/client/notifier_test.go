package client

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster()

	first, unsubFirst := b.Subscribe()
	second, unsubSecond := b.Subscribe()
	defer unsubSecond()

	// Сигналы склеиваются и не блокируют отправителя
	b.Notify()
	b.Notify()
	b.Notify()

	for _, ch := range []<-chan struct{}{first, second} {
		select {
		case <-ch:
		default:
			t.Fatal("expected a pending signal")
		}
		select {
		case <-ch:
			t.Fatal("signals must coalesce")
		default:
		}
	}

	unsubFirst()
	unsubFirst()
	_, open := <-first
	assert.False(t, open, "channel must be closed after unsubscribe")

	b.Notify()
	select {
	case <-second:
	default:
		t.Fatal("remaining subscriber must still be notified")
	}
}

func TestFileSignal_WritesSessionMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.signal")
	f := NewFileSignal(path, discardLogger())

	local, unsubscribe := f.Subscribe()
	defer unsubscribe()

	f.Notify()

	select {
	case <-local:
	default:
		t.Fatal("local subscribers must be notified")
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, f.Session(), lines[0])

	_, err = time.Parse(time.RFC3339Nano, lines[1])
	assert.NoError(t, err)
	assert.False(t, f.fromOtherSession())
}

func TestFileSignal_CrossProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.signal")
	watcher := NewFileSignal(path, discardLogger())
	writer := NewFileSignal(path, discardLogger())
	require.NotEqual(t, watcher.Session(), writer.Session())

	signals, unsubscribe := watcher.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Наблюдатель мог еще не подписаться на каталог, поэтому пишем повторно
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	writer.Notify()
wait:
	for {
		select {
		case <-signals:
			break wait
		case <-tick.C:
			writer.Notify()
		case <-deadline:
			t.Fatal("signal from another session was not delivered")
		}
	}

	cancel()
	require.NoError(t, <-done)
}
