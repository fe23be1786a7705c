package bot

import "sync"

const initialStackDepth = 4

// NavigationStack tracks each user's menu navigation history so the back button
// works regardless of menu depth.
type NavigationStack struct {
	mu     sync.RWMutex
	root   MenuType
	stacks map[int64][]MenuType
}

// NewNavigationStack creates a navigation stack whose empty history points at root.
func NewNavigationStack(root MenuType) *NavigationStack {
	return &NavigationStack{
		root:   root,
		stacks: make(map[int64][]MenuType),
	}
}

// Push records a visited menu. Showing the current menu again does not grow the history.
func (ns *NavigationStack) Push(userID int64, menu MenuType) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	stack := ns.stacks[userID]
	if stack == nil {
		stack = make([]MenuType, 0, initialStackDepth)
	}
	if len(stack) > 0 && stack[len(stack)-1] == menu {
		return
	}
	ns.stacks[userID] = append(stack, menu)
}

// Pop removes the current menu and returns it, or root when the history is empty.
func (ns *NavigationStack) Pop(userID int64) MenuType {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	stack := ns.stacks[userID]
	if len(stack) == 0 {
		return ns.root
	}
	last := stack[len(stack)-1]
	ns.stacks[userID] = stack[:len(stack)-1]
	return last
}

// Current returns the current menu without removing it.
func (ns *NavigationStack) Current(userID int64) MenuType {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	stack := ns.stacks[userID]
	if len(stack) == 0 {
		return ns.root
	}
	return stack[len(stack)-1]
}

// Reset clears the history, which puts the user back at root.
func (ns *NavigationStack) Reset(userID int64) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	delete(ns.stacks, userID)
}

// Depth returns how many menus are on the history.
func (ns *NavigationStack) Depth(userID int64) int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.stacks[userID])
}
