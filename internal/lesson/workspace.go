package lesson

// Workspace holds the topics extracted from the current snapshot and the
// learner's selection among them. Order is preserved everywhere.
type Workspace struct {
	topics   []string
	selected []string
}

// Topics returns all topics.
func (w *Workspace) Topics() []string { return append([]string(nil), w.topics...) }

// Selected returns the selected topics in the order they were selected.
func (w *Workspace) Selected() []string { return append([]string(nil), w.selected...) }

// IsSelected reports whether topic is selected.
func (w *Workspace) IsSelected(topic string) bool { return indexOf(w.selected, topic) >= 0 }

// Reset replaces the topics with a fresh analysis and clears the selection.
func (w *Workspace) Reset(topics []string) {
	w.topics = dedupe(nil, topics)
	w.selected = nil
}

// Merge adds subdivided topics, skipping ones already present, and makes
// exactly those the selection.
func (w *Workspace) Merge(sub []string) {
	w.topics = dedupe(w.topics, sub)
	w.selected = dedupe(nil, sub)
}

// Toggle flips the selection of a known topic.
func (w *Workspace) Toggle(topic string) bool {
	if indexOf(w.topics, topic) < 0 {
		return false
	}
	if i := indexOf(w.selected, topic); i >= 0 {
		w.selected = append(w.selected[:i], w.selected[i+1:]...)
		return true
	}
	w.selected = append(w.selected, topic)
	return true
}

// SelectAll selects every topic.
func (w *Workspace) SelectAll() { w.selected = append([]string(nil), w.topics...) }

// Delete removes topic and deselects it.
func (w *Workspace) Delete(topic string) bool {
	i := indexOf(w.topics, topic)
	if i < 0 {
		return false
	}
	w.topics = append(w.topics[:i], w.topics[i+1:]...)
	if j := indexOf(w.selected, topic); j >= 0 {
		w.selected = append(w.selected[:j], w.selected[j+1:]...)
	}
	return true
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func dedupe(base, add []string) []string {
	out := append([]string(nil), base...)
	for _, s := range add {
		if indexOf(out, s) < 0 {
			out = append(out, s)
		}
	}
	return out
}
