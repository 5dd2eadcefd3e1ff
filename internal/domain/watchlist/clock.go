package watchlist

// Ordering результат покоординатного сравнения двух векторных часов
type Ordering int

const (
	// Equal - часы совпадают по всем устройствам
	Equal Ordering = iota
	// LocalDominates - локальные часы >= входящих везде и > хотя бы в одном
	LocalDominates
	// IncomingDominates - симметрично LocalDominates
	IncomingDominates
	// Concurrent - ни одна сторона не доминирует
	Concurrent
)

func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case LocalDominates:
		return "local-dominates"
	case IncomingDominates:
		return "incoming-dominates"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// CompareClocks сравнивает часы по объединению ключей, отсутствующий ключ = 0
func CompareClocks(local, incoming VectorClock) Ordering {
	localGreater := false
	incomingGreater := false

	for device, lv := range local {
		iv := incoming[device]
		if lv > iv {
			localGreater = true
		} else if iv > lv {
			incomingGreater = true
		}
	}

	for device, iv := range incoming {
		if _, seen := local[device]; seen {
			continue
		}
		if iv > 0 {
			incomingGreater = true
		}
	}

	switch {
	case !localGreater && !incomingGreater:
		return Equal
	case localGreater && !incomingGreater:
		return LocalDominates
	case !localGreater && incomingGreater:
		return IncomingDominates
	default:
		return Concurrent
	}
}
