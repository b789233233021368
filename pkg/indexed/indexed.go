package indexed

import "time"

// Indexed tags a pipeline value with the frame number and
// capture timestamp it belongs to
type Indexed[T any] struct {
	id    uint64
	stamp time.Time
	value T
}

func NewIndexed[T any](id uint64, stamp time.Time, value T) Indexed[T] {
	return Indexed[T]{id, stamp, value}
}

func (i Indexed[T]) Less(other Indexed[T]) bool { return i.id < other.id }
func (i Indexed[T]) Id() uint64                 { return i.id }
func (i Indexed[T]) Time() time.Time            { return i.stamp }
func (i Indexed[T]) Value() T                   { return i.value }
