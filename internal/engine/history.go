package engine

// History is the global LIFO of applied commands, most recent last.
// It is guarded by the engine's lock.
type History struct {
	cmds    []Command
	limit   int // 0 means unbounded
	evicted uint64
}

// NewHistory creates an empty history. A positive limit caps the depth; once
// full, pushing evicts the oldest command.
func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{limit: limit}
}

// Push records cmd as the most recent command. Reports whether the oldest
// command had to be evicted to make room.
func (h *History) Push(cmd Command) bool {
	evicted := false
	if h.limit > 0 && len(h.cmds) >= h.limit {
		copy(h.cmds, h.cmds[1:])
		h.cmds = h.cmds[:len(h.cmds)-1]
		h.evicted++
		evicted = true
	}
	h.cmds = append(h.cmds, cmd)
	return evicted
}

// Pop removes and returns the most recent command.
func (h *History) Pop() (Command, bool) {
	if len(h.cmds) == 0 {
		return Command{}, false
	}
	last := h.cmds[len(h.cmds)-1]
	h.cmds[len(h.cmds)-1] = Command{}
	h.cmds = h.cmds[:len(h.cmds)-1]
	return last, true
}

// Peek returns the most recent command without removing it.
func (h *History) Peek() (Command, bool) {
	if len(h.cmds) == 0 {
		return Command{}, false
	}
	return h.cmds[len(h.cmds)-1], true
}

// Depth returns the number of recorded commands.
func (h *History) Depth() int {
	return len(h.cmds)
}

// Evicted returns how many commands fell off the bottom because of the cap.
func (h *History) Evicted() uint64 {
	return h.evicted
}

// Clear drops every command.
func (h *History) Clear() {
	h.cmds = nil
}

// Snapshot returns a copy of the commands, oldest first.
func (h *History) Snapshot() []Command {
	out := make([]Command, len(h.cmds))
	copy(out, h.cmds)
	return out
}
