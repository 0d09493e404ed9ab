package net

import "sort"

// SessionStore tracks live sessions. Game loop only.
type SessionStore struct {
	byID map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{byID: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session)         { st.byID[s.ID] = s }
func (st *SessionStore) Remove(id uint64)       { delete(st.byID, id) }
func (st *SessionStore) Get(id uint64) *Session { return st.byID[id] }
func (st *SessionStore) Len() int               { return len(st.byID) }

// ForEach visits sessions in ID order so per-tick input is assembled
// deterministically.
func (st *SessionStore) ForEach(fn func(*Session)) {
	ids := make([]uint64, 0, len(st.byID))
	for id := range st.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(st.byID[id])
	}
}
