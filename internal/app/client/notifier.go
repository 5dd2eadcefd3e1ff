package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Notifier сообщает подписчикам, что локальные записи изменились.
// Сигнал не несет данных: получатели перечитывают хранилище.
type Notifier interface {
	Notify()
	Subscribe() (<-chan struct{}, func())
}

// Broadcaster - рассылка внутри процесса. Сигналы склеиваются: у каждого
// подписчика в очереди не больше одного, Notify никогда не блокируется.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan struct{})}
}

func (b *Broadcaster) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe возвращает канал сигналов и функцию отписки
func (b *Broadcaster) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// FileSignal передает сигналы между процессами, которые используют один
// каталог хранилища. Notify перезаписывает файл сигнала, а наблюдатель
// fsnotify пересылает чужие записи локальным подписчикам.
type FileSignal struct {
	*Broadcaster

	dir     string
	path    string
	session string
	log     *slog.Logger
}

// NewFileSignal создает сигнал на файле path, наблюдая за его каталогом
func NewFileSignal(path string, log *slog.Logger) *FileSignal {
	path = filepath.Clean(path)
	return &FileSignal{
		Broadcaster: NewBroadcaster(),
		dir:         filepath.Dir(path),
		path:        path,
		session:     uuid.NewString(),
		log:         log.With(slog.String("component", "notifier")),
	}
}

// Session возвращает идентификатор текущего процесса
func (f *FileSignal) Session() string {
	return f.session
}

// Notify оповещает подписчиков процесса и другие процессы
func (f *FileSignal) Notify() {
	f.Broadcaster.Notify()

	if err := f.write(); err != nil {
		f.log.Warn("Не удалось записать файл сигнала", "path", f.path, "error", err)
	}
}

// write заменяет файл сигнала атомарно, чтобы читатель не увидел пустой файл
func (f *FileSignal) write() error {
	tmp := f.path + ".tmp"
	data := fmt.Sprintf("%s\n%s\n", f.session, time.Now().UTC().Format(time.RFC3339Nano))

	if err := os.WriteFile(tmp, []byte(data), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Run наблюдает за каталогом до отмены ctx
func (f *FileSignal) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания наблюдателя: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.dir); err != nil {
		return fmt.Errorf("ошибка наблюдения за каталогом %s: %w", f.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if f.fromOtherSession() {
				f.log.Debug("Получен сигнал другого процесса")
				f.Broadcaster.Notify()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("Ошибка наблюдателя", "error", err)
		}
	}
}

func (f *FileSignal) fromOtherSession() bool {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return false
	}
	session := sc.Text()
	return session != "" && session != f.session
}
