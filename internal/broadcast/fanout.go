package broadcast

import "live-auction/internal/models"

// Publisher is anything that accepts committed events
type Publisher interface {
	Publish(event models.Event)
}

// Fanout forwards every event to each publisher in order
type Fanout []Publisher

func (f Fanout) Publish(event models.Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(event)
		}
	}
}
