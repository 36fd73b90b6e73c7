package core

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is the quantity state of the whole ledger. Two snapshots of the
// same state encode to the same bytes.
type Snapshot struct {
	Items []SnapshotItem `msgpack:"items"`
	Lots  []SnapshotLot  `msgpack:"lots"`
}

// SnapshotItem is one item aggregate. Quantities are normalized decimal strings.
type SnapshotItem struct {
	Kind     ItemKind `msgpack:"kind"`
	ID       int      `msgpack:"id"`
	Name     string   `msgpack:"name"`
	Unit     Unit     `msgpack:"unit"`
	Quantity string   `msgpack:"qty"`
}

// SnapshotLot is one lot quantity.
type SnapshotLot struct {
	Kind     ItemKind `msgpack:"kind"`
	ID       int      `msgpack:"id"`
	ItemID   int      `msgpack:"item"`
	Label    string   `msgpack:"label"`
	Quantity string   `msgpack:"qty"`
	Unit     Unit     `msgpack:"unit"`
	Date     string   `msgpack:"date,omitempty"`
}

func newSnapshot(levels []StockLevel) *Snapshot {
	snap := &Snapshot{Items: []SnapshotItem{}, Lots: []SnapshotLot{}}
	for _, lvl := range levels {
		snap.Items = append(snap.Items, SnapshotItem{
			Kind:     lvl.Item.Ref.Kind,
			ID:       lvl.Item.Ref.ID,
			Name:     lvl.Item.Name,
			Unit:     lvl.Item.Unit,
			Quantity: lvl.Item.Quantity.String(),
		})
		for _, lot := range lvl.Lots {
			snap.Lots = append(snap.Lots, SnapshotLot{
				Kind:     lot.Ref.Kind,
				ID:       lot.Ref.ID,
				ItemID:   lot.Item.ID,
				Label:    lot.Label,
				Quantity: lot.Quantity.String(),
				Unit:     lot.Unit,
				Date:     lot.Date,
			})
		}
	}
	sort.Slice(snap.Items, func(i, j int) bool {
		a, b := snap.Items[i], snap.Items[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
	sort.Slice(snap.Lots, func(i, j int) bool {
		a, b := snap.Lots[i], snap.Lots[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
	return snap
}

// EncodeSnapshot serializes a snapshot with msgpack.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses bytes written by EncodeSnapshot.
func DecodeSnapshot(b []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// Diff lists human-readable differences from s to other. An empty result
// means the two snapshots describe the same ledger state.
func (s *Snapshot) Diff(other *Snapshot) []string {
	var out []string

	type key struct {
		kind ItemKind
		id   int
	}
	items := make(map[key]SnapshotItem, len(s.Items))
	for _, it := range s.Items {
		items[key{it.Kind, it.ID}] = it
	}
	for _, it := range other.Items {
		k := key{it.Kind, it.ID}
		prev, ok := items[k]
		delete(items, k)
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("+ %s %d %q: %s %s", it.Kind, it.ID, it.Name, it.Quantity, it.Unit))
		case prev.Quantity != it.Quantity || prev.Unit != it.Unit:
			out = append(out, fmt.Sprintf("~ %s %d %q: %s %s -> %s %s", it.Kind, it.ID, it.Name, prev.Quantity, prev.Unit, it.Quantity, it.Unit))
		}
	}
	for _, it := range items {
		out = append(out, fmt.Sprintf("- %s %d %q", it.Kind, it.ID, it.Name))
	}

	lots := make(map[key]SnapshotLot, len(s.Lots))
	for _, l := range s.Lots {
		lots[key{l.Kind, l.ID}] = l
	}
	for _, l := range other.Lots {
		k := key{l.Kind, l.ID}
		prev, ok := lots[k]
		delete(lots, k)
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("+ %s lot %d %q: %s %s", l.Kind, l.ID, l.Label, l.Quantity, l.Unit))
		case prev.Quantity != l.Quantity:
			out = append(out, fmt.Sprintf("~ %s lot %d %q: %s -> %s %s", l.Kind, l.ID, l.Label, prev.Quantity, l.Quantity, l.Unit))
		}
	}
	for _, l := range lots {
		out = append(out, fmt.Sprintf("- %s lot %d %q", l.Kind, l.ID, l.Label))
	}

	sort.Strings(out)
	return out
}
