package log

// record is an entry handed over from another goroutine.
type record struct {
	level    Level
	category string
	message  string
}

// Enqueue hands an entry to the Service from any goroutine. It never blocks:
// when the queue is full the entry is counted as dropped and false is
// returned. Queued entries are filtered and emitted by Drain.
func (s *Service) Enqueue(level Level, category, message string) bool {
	select {
	case s.queue <- record{level: level, category: category, message: message}:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Drain emits queued entries, at most one queue capacity per call, then
// reports entries dropped since the last report. It must be called by the
// Service owner and returns the number of entries taken from the queue.
func (s *Service) Drain() int {
	n := 0
loop:
	for n < cap(s.queue) {
		select {
		case r := <-s.queue:
			n++
			if r.level == LevelNone {
				s.Log(r.category, r.message)
			} else {
				s.Print(r.level, r.category, r.message)
			}
		default:
			break loop
		}
	}
	if dropped := s.dropped.Swap(0); dropped > 0 {
		s.Printf(LevelError, internalCategory, "%d queued entries were dropped", dropped)
	}
	return n
}

// Dropped returns the number of queued entries dropped and not yet reported.
func (s *Service) Dropped() uint64 {
	return s.dropped.Load()
}
