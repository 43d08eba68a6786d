package history

import "option_bot/internal/models"

// Buffer — ограниченная история последних тиков, старые вытесняются.
// Дисциплина single-writer: пишет только цикл инжеста, поэтому лока нет.
// Snapshot отдаёт копию — считать индикаторы по ней можно спокойно.
type Buffer struct {
	data []models.Tick
	head int
	size int
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]models.Tick, capacity)}
}

func (b *Buffer) Cap() int { return len(b.data) }
func (b *Buffer) Len() int { return b.size }

// Append — O(1): при заполнении затираем самый старый элемент.
func (b *Buffer) Append(t models.Tick) {
	if b.size < len(b.data) {
		b.data[(b.head+b.size)%len(b.data)] = t
		b.size++
		return
	}
	b.data[b.head] = t
	b.head = (b.head + 1) % len(b.data)
}

// Snapshot — упорядоченная копия от старого к новому.
func (b *Buffer) Snapshot() []models.Tick {
	out := make([]models.Tick, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.data[(b.head+i)%len(b.data)]
	}
	return out
}

func (b *Buffer) Last() (models.Tick, bool) {
	if b.size == 0 {
		return models.Tick{}, false
	}
	return b.data[(b.head+b.size-1)%len(b.data)], true
}
