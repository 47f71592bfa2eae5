package dataset

import "sync"

// NameIndex resolves municipality codes to friendly names per state. It is
// filled explicitly and reports readiness; nothing is preloaded implicitly.
type NameIndex struct {
	mu    sync.RWMutex
	names map[string]map[string]string
	ready bool
}

func NewNameIndex() *NameIndex {
	return &NameIndex{names: make(map[string]map[string]string)}
}

// Add records a name. Later additions for the same code win.
func (n *NameIndex) Add(uf, code, name string) {
	if code == "" || name == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	byCode, ok := n.names[uf]
	if !ok {
		byCode = make(map[string]string)
		n.names[uf] = byCode
	}
	byCode[code] = name
}

// AddFromDataset fills names missing from the index with the municipio column.
func (n *NameIndex) AddFromDataset(ds *Dataset) {
	for _, uf := range ds.States() {
		for _, m := range ds.Municipalities(uf) {
			if _, ok := n.Name(uf, m.Code); !ok && m.Name != m.Code {
				n.Add(uf, m.Code, m.Name)
			}
		}
	}
}

func (n *NameIndex) MarkReady() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready = true
}

func (n *NameIndex) Ready() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ready
}

func (n *NameIndex) Name(uf, code string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	name, ok := n.names[uf][code]
	return name, ok
}

// Len returns the number of indexed names.
func (n *NameIndex) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	total := 0
	for _, byCode := range n.names {
		total += len(byCode)
	}
	return total
}
