// Package state holds the materialized key-value view. It is mutated only by
// applying transactions, so it can always be rebuilt by replaying the log.
package state

import (
	"walkv/pkg/types"

	"github.com/zhangyunhao116/skipmap"
)

type orderedMap = skipmap.FuncMap[string, string]

type State struct {
	kv *orderedMap
}

func New() *State {
	return &State{
		kv: skipmap.NewFunc[string, string](func(a, b string) bool {
			return a < b
		}),
	}
}

// Apply runs the transaction's command and returns its observable result.
// Set overwrites unconditionally, Get reads, Nop does nothing.
func (s *State) Apply(tx types.Transaction) types.Result {
	cmd := tx.Command

	switch cmd.Kind {
	case types.KindSet:
		s.kv.Store(cmd.Key, cmd.Value)
		return types.Result{}
	case types.KindGet:
		v, ok := s.kv.Load(cmd.Key)
		return types.Result{Value: v, Found: ok}
	default:
		return types.Result{}
	}
}

func (s *State) Get(key string) (string, bool) {
	return s.kv.Load(key)
}

func (s *State) Len() int {
	return s.kv.Len()
}

// Snapshot copies the current contents into a plain map.
func (s *State) Snapshot() map[string]string {
	out := make(map[string]string, s.kv.Len())
	s.kv.Range(func(k, v string) bool {
		out[k] = v
		return true
	})
	return out
}
