// Package aoa derives an activity-on-arc view of a scheduled precedence graph.
//
// Events are the start and end boundaries of activities. Activities sharing a
// predecessor set share a start event; zero-duration dummy arcs carry the
// precedence that a plain arc layout cannot express. The derivation never
// alters the schedule it is given.
package aoa

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/joshharrison/netplanner/internal/cpm"
	"github.com/joshharrison/netplanner/internal/graph"
)

// Event is a numbered node in the AOA network.
type Event struct {
	Number   int     `json:"number"`
	Early    float64 `json:"early"`
	Late     float64 `json:"late"`
	Slack    float64 `json:"slack"`
	Critical bool    `json:"critical"`
}

// Arc is an activity or a dummy between two events.
type Arc struct {
	Tail     int     `json:"tail"`
	Head     int     `json:"head"`
	Activity string  `json:"activity,omitempty"` // empty for dummies
	Dummy    bool    `json:"dummy"`
	Duration float64 `json:"duration"`
	Critical bool    `json:"critical"`
}

// Network is the derived activity-on-arc representation.
type Network struct {
	Events []Event `json:"events"`
	Arcs   []Arc   `json:"arcs"`
}

// Dummies returns the number of dummy arcs.
func (n *Network) Dummies() int {
	count := 0
	for _, a := range n.Arcs {
		if a.Dummy {
			count++
		}
	}
	return count
}

// ArcFor returns the arc carrying the given activity.
func (n *Network) ArcFor(id string) (Arc, bool) {
	for _, a := range n.Arcs {
		if a.Activity == id {
			return a, true
		}
	}
	return Arc{}, false
}

// event is an unnumbered event during construction; rank records the order of
// first appearance.
type event struct {
	rank int
	out  []*arc
	in   []*arc
	num  int
}

type arc struct {
	tail, head *event
	activity   string
	duration   float64
}

type builder struct {
	events []*event
	arcs   []*arc
	pairs  map[[2]*event]bool
}

func (b *builder) newEvent() *event {
	e := &event{rank: len(b.events)}
	b.events = append(b.events, e)
	return e
}

func (b *builder) link(tail, head *event, activity string, d float64) {
	a := &arc{tail: tail, head: head, activity: activity, duration: d}
	tail.out = append(tail.out, a)
	head.in = append(head.in, a)
	b.arcs = append(b.arcs, a)
	b.pairs[[2]*event{tail, head}] = true
}

// Derive builds the AOA network for g using the activity schedules. tol is the
// tolerance used to flag critical events and dummies.
func Derive(g *graph.Graph, schedules map[string]*cpm.Schedule, tol float64) (*Network, error) {
	if len(g.Topo) == 0 {
		return &Network{}, nil
	}
	for _, id := range g.Topo {
		if schedules[id] == nil {
			return nil, fmt.Errorf("aoa: no schedule for activity %q", id)
		}
	}

	b := &builder{pairs: make(map[[2]*event]bool)}
	start := b.newEvent()

	// Start events keyed by predecessor set. RevAdj is in input order, so
	// the joined ids form a canonical key.
	setKey := func(id string) string {
		return strings.Join(g.RevAdj[id], "\x00")
	}
	startOf := map[string]*event{"": start}
	members := make(map[string]map[string]bool)
	var setOrder []string // non-empty sets in order of first appearance
	for _, id := range g.Topo {
		key := setKey(id)
		if _, ok := startOf[key]; ok {
			continue
		}
		startOf[key] = b.newEvent()
		m := make(map[string]bool, len(g.RevAdj[id]))
		for _, p := range g.RevAdj[id] {
			m[p] = true
		}
		members[key] = m
		setOrder = append(setOrder, key)
	}

	subset := func(s, t string) bool {
		for p := range members[s] {
			if !members[t][p] {
				return false
			}
		}
		return true
	}

	// Decide where each activity ends and which dummies its end needs.
	var sink *event
	end := make(map[string]*event, len(g.Topo))
	type dummy struct{ tail, head *event }
	var dummies []dummy
	for _, id := range g.Topo {
		var sets []string
		for _, key := range setOrder {
			if members[key][id] {
				sets = append(sets, key)
			}
		}
		if len(sets) == 0 {
			if sink == nil {
				sink = b.newEvent()
			}
			end[id] = sink
			continue
		}

		minimal := ""
		for _, s := range sets {
			ok := true
			for _, t := range sets {
				if !subset(s, t) {
					ok = false
					break
				}
			}
			if ok {
				minimal = s
				break
			}
		}

		if minimal != "" {
			end[id] = startOf[minimal]
		} else {
			end[id] = b.newEvent()
		}
		for _, t := range sets {
			if t != minimal {
				dummies = append(dummies, dummy{end[id], startOf[t]})
			}
		}
	}

	// Activity arcs; a second arc between the same events is rerouted
	// through its own event and a dummy.
	for _, id := range g.Topo {
		tail, head := startOf[setKey(id)], end[id]
		d := schedules[id].Duration
		if b.pairs[[2]*event{tail, head}] {
			mid := b.newEvent()
			b.link(tail, mid, id, d)
			dummies = append(dummies, dummy{mid, head})
			continue
		}
		b.link(tail, head, id, d)
	}
	for _, dm := range dummies {
		if b.pairs[[2]*event{dm.tail, dm.head}] {
			continue
		}
		b.link(dm.tail, dm.head, "", 0)
	}

	order, err := b.number()
	if err != nil {
		return nil, err
	}
	return b.network(order, schedules, tol), nil
}

// number assigns event numbers from 1 in topological order, releasing ready
// events by first appearance.
func (b *builder) number() ([]*event, error) {
	inDegree := make(map[*event]int, len(b.events))
	for _, e := range b.events {
		inDegree[e] = len(e.in)
	}

	var queue []*event
	for _, e := range b.events {
		if inDegree[e] == 0 {
			queue = append(queue, e)
		}
	}

	order := make([]*event, 0, len(b.events))
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		order = append(order, e)
		e.num = len(order)

		var newReady []*event
		for _, a := range e.out {
			inDegree[a.head]--
			if inDegree[a.head] == 0 {
				newReady = append(newReady, a.head)
			}
		}
		sort.Slice(newReady, func(i, j int) bool {
			return newReady[i].rank < newReady[j].rank
		})
		queue = append(queue, newReady...)
	}

	if len(order) != len(b.events) {
		return nil, fmt.Errorf("aoa: event graph has a cycle (%d of %d events numbered)", len(order), len(b.events))
	}
	return order, nil
}

func (b *builder) network(order []*event, schedules map[string]*cpm.Schedule, tol float64) *Network {
	early := make(map[*event]float64, len(order))
	for _, e := range order {
		for _, a := range e.in {
			if t := early[a.tail] + a.duration; t > early[e] {
				early[e] = t
			}
		}
	}

	late := make(map[*event]float64, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		e := order[i]
		if len(e.out) == 0 {
			late[e] = early[e]
			continue
		}
		for j, a := range e.out {
			if t := late[a.head] - a.duration; j == 0 || t < late[e] {
				late[e] = t
			}
		}
	}

	net := &Network{Events: make([]Event, len(order))}
	critical := make(map[*event]bool, len(order))
	for i, e := range order {
		slack := late[e] - early[e]
		if math.Abs(slack) < tol {
			slack = 0
			critical[e] = true
		}
		net.Events[i] = Event{
			Number:   e.num,
			Early:    early[e],
			Late:     late[e],
			Slack:    slack,
			Critical: critical[e],
		}
	}

	for _, a := range b.arcs {
		out := Arc{
			Tail:     a.tail.num,
			Head:     a.head.num,
			Activity: a.activity,
			Dummy:    a.activity == "",
			Duration: a.duration,
		}
		if out.Dummy {
			out.Critical = critical[a.tail] && critical[a.head] &&
				math.Abs(early[a.head]-early[a.tail]) < tol
		} else {
			out.Critical = schedules[a.activity].IsCritical
		}
		net.Arcs = append(net.Arcs, out)
	}
	sort.SliceStable(net.Arcs, func(i, j int) bool {
		if net.Arcs[i].Tail != net.Arcs[j].Tail {
			return net.Arcs[i].Tail < net.Arcs[j].Tail
		}
		return net.Arcs[i].Head < net.Arcs[j].Head
	})
	return net
}
