package bot

import (
	"sync"

	"github.com/UnknownOlympus/talentfit/internal/profile"
	"github.com/UnknownOlympus/talentfit/internal/projects"
	"github.com/google/uuid"
)

// What the bot waits for in the next text message of a user.
const (
	stateAwaitingCredential = "awaiting_credential"
	stateProfileForm        = "profile_form"
	stateProjectForm        = "project_form"
	stateProjectReview      = "project_review"
	stateProjectEdit        = "project_edit"
	stateEditConfirm        = "edit_confirm"
	stateProjectSearch      = "project_search"
	stateAllocationStart    = "allocation_start"
	stateAllocationEnd      = "allocation_end"
	stateAllocationSearch   = "allocation_search"
)

// UserState is the open dialog of a user.
type UserState struct {
	WaitingFor string
	Step       int
	ProjectID  int64
	EmployeeID int64
	Field      string
	DraftID    uuid.UUID
	Creating   bool
	Profile    *profile.Form
	Project    *projects.Input
}

// StateManager manages the dialog states of all users.
type StateManager struct {
	mu     sync.Mutex
	states map[int64]UserState
}

func NewStateManager() *StateManager {
	return &StateManager{states: make(map[int64]UserState)}
}

// Set sets the state for the user.
func (sm *StateManager) Set(userID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[userID] = state
}

// Peek returns the state without clearing it.
func (sm *StateManager) Peek(userID int64) (UserState, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, ok := sm.states[userID]
	return state, ok
}

// Get gets and immediately deletes the user state.
func (sm *StateManager) Get(userID int64) (UserState, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, ok := sm.states[userID]
	if ok {
		delete(sm.states, userID)
	}
	return state, ok
}

// Update changes the state in place when its WaitingFor still matches.
func (sm *StateManager) Update(userID int64, waitingFor string, fn func(*UserState)) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, ok := sm.states[userID]
	if !ok || state.WaitingFor != waitingFor {
		return false
	}
	fn(&state)
	sm.states[userID] = state
	return true
}
