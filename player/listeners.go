package player

import "sync"

// listeners is the event registry shared by the adapters.
type listeners struct {
	mu sync.Mutex
	m  map[Event][]Callback
}

func (l *listeners) on(event Event, callback Callback) {
	if callback == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.m == nil {
		l.m = make(map[Event][]Callback)
	}
	l.m[event] = append(l.m[event], callback)
}

// emit calls the listeners of event outside the lock.
func (l *listeners) emit(event Event, data any) {
	l.mu.Lock()
	callbacks := append([]Callback(nil), l.m[event]...)
	l.mu.Unlock()

	for _, callback := range callbacks {
		callback(data)
	}
}

func (l *listeners) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m = nil
}
