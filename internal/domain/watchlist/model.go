package watchlist

import (
	"sort"
	"time"
)

// DeviceID - идентификатор установки клиента, пространство имен векторных часов
type DeviceID = string

// VectorClock отображение устройство -> счетчик изменений записи
type VectorClock map[DeviceID]uint64

// Get возвращает счетчик устройства, отсутствующий ключ равен нулю
func (c VectorClock) Get(device DeviceID) uint64 {
	return c[device]
}

// Tick возвращает новые часы, в которых счетчик устройства увеличен на 1.
// Исходные часы не изменяются.
func (c VectorClock) Tick(device DeviceID) VectorClock {
	next := c.Clone()
	next[device] = c[device] + 1
	return next
}

// Clone создает независимую копию часов
func (c VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Devices возвращает отсортированный список устройств из часов
func (c VectorClock) Devices() []DeviceID {
	devices := make([]DeviceID, 0, len(c))
	for k := range c {
		devices = append(devices, k)
	}
	sort.Strings(devices)
	return devices
}

// Item - запись списка просмотра. Однажды созданная запись не удаляется:
// исключение из списка - это состояние IsInWatchlist=false.
type Item struct {
	ID            string      `json:"id" doc:"Stable catalog identifier"`
	Title         string      `json:"title"`
	PosterURL     string      `json:"posterUrl,omitempty"`
	CreatedAt     time.Time   `json:"createdAt" format:"date-time"`
	UpdatedAt     time.Time   `json:"updatedAt" format:"date-time"`
	IsInWatchlist bool        `json:"isInWatchlist"`
	VectorClock   VectorClock `json:"vectorClock"`
	LastUpdatedBy DeviceID    `json:"lastUpdatedBy"`
}

// Clone создает глубокую копию записи
func (i Item) Clone() Item {
	i.VectorClock = i.VectorClock.Clone()
	return i
}

// Metadata - отображаемые данные каталога, передаваемые при переключении
type Metadata struct {
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl,omitempty"`
}

// NewItem создает исходную версию записи до первого переключения:
// часы {device: 0}, запись вне списка.
func NewItem(id string, meta Metadata, device DeviceID, now time.Time) Item {
	return Item{
		ID:            id,
		Title:         meta.Title,
		PosterURL:     meta.PosterURL,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsInWatchlist: false,
		VectorClock:   VectorClock{device: 0},
		LastUpdatedBy: device,
	}
}

// Toggle возвращает следующую версию записи после локального переключения
// устройством device. Метаданные перезаписываются, если переданы.
func (i Item) Toggle(meta Metadata, device DeviceID, now time.Time) Item {
	next := i.Clone()

	// Записи устройства, уже вносившего изменения, строго позже текущей
	// версии: updatedAt устройства не убывает, а opId не повторяется
	if i.VectorClock.Get(device) > 0 && !now.After(i.UpdatedAt) {
		now = i.UpdatedAt.Add(time.Nanosecond)
	}
	if now.Before(i.CreatedAt) {
		now = i.CreatedAt
	}

	if meta.Title != "" {
		next.Title = meta.Title
	}
	if meta.PosterURL != "" {
		next.PosterURL = meta.PosterURL
	}

	next.IsInWatchlist = !i.IsInWatchlist
	next.VectorClock = i.VectorClock.Tick(device)
	next.UpdatedAt = now
	next.LastUpdatedBy = device

	return next
}

// SortByID упорядочивает записи по идентификатору
func SortByID(items []Item) {
	sort.Slice(items, func(a, b int) bool {
		return items[a].ID < items[b].ID
	})
}
