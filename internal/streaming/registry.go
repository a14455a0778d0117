package streaming

import (
	"github.com/oreeke/twipsybot/internal/model"
)

// registry tracks active logical channel subscriptions in subscription
// order. It carries no locking of its own: all mutation happens under the
// Client's mutex.
type registry struct {
	order []*model.Channel
	byID  map[string]*model.Channel
	byKey map[string]*model.Channel
}

func newRegistry() *registry {
	return &registry{
		byID:  make(map[string]*model.Channel),
		byKey: make(map[string]*model.Channel),
	}
}

func (r *registry) add(ch *model.Channel) {
	r.order = append(r.order, ch)
	r.byID[ch.ID] = ch
	r.byKey[ch.Key()] = ch
}

func (r *registry) lookupID(id string) (*model.Channel, bool) {
	ch, ok := r.byID[id]
	return ch, ok
}

func (r *registry) lookupKey(key string) (*model.Channel, bool) {
	ch, ok := r.byKey[key]
	return ch, ok
}

func (r *registry) removeID(id string) (*model.Channel, bool) {
	ch, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	delete(r.byKey, ch.Key())
	for i, c := range r.order {
		if c == ch {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return ch, true
}

// byName returns all channels with the given name, in subscription order.
func (r *registry) byName(name string) []*model.Channel {
	var out []*model.Channel
	for _, ch := range r.order {
		if ch.Name == name {
			out = append(out, ch)
		}
	}
	return out
}

// list returns a snapshot of all channels in subscription order.
func (r *registry) list() []*model.Channel {
	out := make([]*model.Channel, len(r.order))
	copy(out, r.order)
	return out
}

func (r *registry) len() int {
	return len(r.order)
}

func (r *registry) clear() {
	r.order = nil
	r.byID = make(map[string]*model.Channel)
	r.byKey = make(map[string]*model.Channel)
}
