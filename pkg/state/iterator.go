package state

import (
	"sort"

	"walkv/pkg/iterator"
)

type pair struct {
	key   string
	value string
}

// sliceIterator walks a point-in-time copy of the state, so later Apply
// calls do not affect an open iterator.
type sliceIterator struct {
	items []pair
	pos   int
}

var _ iterator.Iterator = (*sliceIterator)(nil)

// NewIterator returns an iterator over the current contents in key order,
// positioned at the first key.
func (s *State) NewIterator() iterator.Iterator {
	items := make([]pair, 0, s.kv.Len())
	s.kv.Range(func(k, v string) bool {
		items = append(items, pair{key: k, value: v})
		return true
	})

	return &sliceIterator{items: items}
}

func (it *sliceIterator) First() {
	it.pos = 0
}

func (it *sliceIterator) Seek(target string) {
	it.pos = sort.Search(len(it.items), func(i int) bool {
		return it.items[i].key >= target
	})
}

func (it *sliceIterator) Next() {
	if it.pos < len(it.items) {
		it.pos++
	}
}

func (it *sliceIterator) Valid() bool {
	return it.pos < len(it.items)
}

func (it *sliceIterator) Key() string {
	return it.items[it.pos].key
}

func (it *sliceIterator) Value() string {
	return it.items[it.pos].value
}

func (it *sliceIterator) Close() error {
	it.items = nil
	it.pos = 0
	return nil
}
