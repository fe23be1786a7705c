package bot

import (
	"sync"

	"github.com/UnknownOlympus/talentfit/internal/filter"
)

// ViewTracker guards list screens against stale responses. Each fetch takes a version
// first and renders only if no newer fetch started for the same user meanwhile.
type ViewTracker struct {
	mu       sync.Mutex
	versions map[int64]uint64
}

func NewViewTracker() *ViewTracker {
	return &ViewTracker{versions: make(map[int64]uint64)}
}

// Begin starts a fetch and returns its version.
func (v *ViewTracker) Begin(userID int64) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.versions[userID]++
	return v.versions[userID]
}

// Current reports whether version is still the latest fetch of the user.
func (v *ViewTracker) Current(userID int64, version uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.versions[userID] == version
}

// projectView is the state of the project list screen.
type projectView struct {
	Criteria filter.ProjectCriteria
	Sort     string
	Page     int
}

// employeeView is the state of the employee list screen.
type employeeView struct {
	Criteria filter.EmployeeCriteria
	Page     int
}

// screen holds the list positions of one user.
type screen struct {
	Projects  projectView
	Employees employeeView
	AllocPage int
}

// ScreenStore keeps the list screens of every user in memory.
type ScreenStore struct {
	mu      sync.Mutex
	screens map[int64]screen
}

func NewScreenStore() *ScreenStore {
	return &ScreenStore{screens: make(map[int64]screen)}
}

// Get returns the screen of a user. A new user starts sorted by priority on page 0.
func (s *ScreenStore) Get(userID int64) screen {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.screens[userID]
	if !ok {
		sc.Projects.Sort = filter.SortByPriority
	}
	return sc
}

// Update applies fn to the screen of a user and returns the result.
func (s *ScreenStore) Update(userID int64, fn func(*screen)) screen {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.screens[userID]
	if !ok {
		sc.Projects.Sort = filter.SortByPriority
	}
	fn(&sc)
	s.screens[userID] = sc
	return sc
}

// Reset forgets the screens of a user.
func (s *ScreenStore) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.screens, userID)
}
