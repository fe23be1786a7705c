// Package allocation implements the dialog that assigns employees to a project: selection,
// per-employee dates, scores, conflict warnings and batch submission.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/filter"
	"github.com/UnknownOlympus/talentfit/internal/models"
)

// Mode selects where candidates come from.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeAI     Mode = "ai"
)

var (
	// ErrNothingSelected is returned when submitting an empty selection.
	ErrNothingSelected = errors.New("no employees selected")
	// ErrSubmitInFlight is returned while a previous submission is still running.
	ErrSubmitInFlight = errors.New("allocation submission already in progress")
	// ErrInvalidDates is returned when an end date precedes its start date.
	ErrInvalidDates = errors.New("end date before start date")
	// ErrNotSelected is returned when editing dates of an employee that is not selected.
	ErrNotSelected = errors.New("employee is not selected")
)

// Dates is the proposed range of one selected employee.
type Dates struct {
	Start     time.Time
	End       *time.Time
	OpenEnded bool
}

// Interval returns the range used for conflict checks.
func (d Dates) Interval() Interval {
	if d.OpenEnded {
		return Interval{Start: d.Start}
	}
	return Interval{Start: d.Start, End: d.End}
}

// Submitter sends a batch of allocation requests for one project.
type Submitter interface {
	CreateAllocations(ctx context.Context, projectID int64, requests []models.AllocationRequest) ([]models.Allocation, error)
}

// Workflow is the state of one allocation dialog. It is safe for concurrent use.
type Workflow struct {
	mu sync.Mutex

	project     models.Project
	mode        Mode
	criteria    filter.EmployeeCriteria
	suggestions []models.Suggestion
	selected    map[int64]Dates
	estimates   map[int64]int
	inFlight    bool
	randIntN    func(n int) int
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithRand replaces the source of placeholder scores.
func WithRand(intN func(n int) int) Option {
	return func(w *Workflow) { w.randIntN = intN }
}

// NewWorkflow opens a dialog for the project in manual mode.
func NewWorkflow(project models.Project, opts ...Option) *Workflow {
	w := &Workflow{
		project:   project,
		mode:      ModeManual,
		criteria:  filter.EmployeeCriteria{ExcludeProject: project.ID},
		selected:  make(map[int64]Dates),
		estimates: make(map[int64]int),
		randIntN:  rand.IntN,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Project returns the project the dialog allocates to.
func (w *Workflow) Project() models.Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.project
}

// Mode returns the current candidate source.
func (w *Workflow) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// SetMode switches the candidate source. Selection and the other mode's state are kept.
func (w *Workflow) SetMode(mode Mode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if mode == ModeManual || mode == ModeAI {
		w.mode = mode
	}
}

// Criteria returns the manual-mode filter. It always excludes employees already on the project.
func (w *Workflow) Criteria() filter.EmployeeCriteria {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.criteria
}

// SetCriteria replaces the manual-mode filter, keeping the project exclusion.
func (w *Workflow) SetCriteria(criteria filter.EmployeeCriteria) {
	w.mu.Lock()
	defer w.mu.Unlock()
	criteria.ExcludeProject = w.project.ID
	w.criteria = criteria
}

// Candidates applies the manual-mode filter to the employee list.
func (w *Workflow) Candidates(employees []models.Employee, allocations []models.Allocation) []models.Employee {
	return filter.FilterEmployees(employees, w.Criteria(), allocations)
}

// SetSuggestions stores the AI-mode ranking.
func (w *Workflow) SetSuggestions(suggestions []models.Suggestion) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.suggestions = slices.Clone(suggestions)
}

// Ranking returns the backend suggestions, best score first. Placeholder scores never
// take part.
func (w *Workflow) Ranking() []models.Suggestion {
	w.mu.Lock()
	ranking := slices.Clone(w.suggestions)
	w.mu.Unlock()

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Overall() > ranking[j].Overall()
	})
	return ranking
}

// ScoreFor returns the backend score of the employee, or a stable placeholder in [60,100).
func (w *Workflow) ScoreFor(employeeID int64) Score {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, s := range w.suggestions {
		if s.CandidateID == employeeID {
			return Real(s.Overall())
		}
	}

	value, ok := w.estimates[employeeID]
	if !ok {
		value = estimateFloor + w.randIntN(estimateSpan)
		w.estimates[employeeID] = value
	}
	return Estimated(value)
}

// IsSelected reports whether the employee is selected.
func (w *Workflow) IsSelected(employeeID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.selected[employeeID]
	return ok
}

// Select adds the employee with dates defaulted to the project start and an open end.
func (w *Workflow) Select(employeeID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.selected[employeeID]; ok {
		return
	}
	w.selected[employeeID] = Dates{Start: w.project.StartDate, OpenEnded: true}
}

// Deselect removes the employee and drops its dates.
func (w *Workflow) Deselect(employeeID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.selected, employeeID)
}

// Toggle flips the selection of the employee and reports the new state.
func (w *Workflow) Toggle(employeeID int64) bool {
	if w.IsSelected(employeeID) {
		w.Deselect(employeeID)
		return false
	}
	w.Select(employeeID)
	return true
}

// Selected returns the selected ids in ascending order.
func (w *Workflow) Selected() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]int64, 0, len(w.selected))
	for id := range w.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Dates returns the proposed range of a selected employee.
func (w *Workflow) Dates(employeeID int64) (Dates, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.selected[employeeID]
	return d, ok
}

func (w *Workflow) update(employeeID int64, fn func(*Dates)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.selected[employeeID]
	if !ok {
		return fmt.Errorf("failed to update dates of employee %d: %w", employeeID, ErrNotSelected)
	}
	fn(&d)
	w.selected[employeeID] = d
	return nil
}

// SetStart changes the start date of a selected employee.
func (w *Workflow) SetStart(employeeID int64, start time.Time) error {
	return w.update(employeeID, func(d *Dates) { d.Start = start })
}

// SetEnd sets an explicit end date, which turns the open end off.
func (w *Workflow) SetEnd(employeeID int64, end time.Time) error {
	return w.update(employeeID, func(d *Dates) {
		d.End = &end
		d.OpenEnded = false
	})
}

// SetOpenEnded toggles the open end. Turning it on forgets the end date.
func (w *Workflow) SetOpenEnded(employeeID int64, openEnded bool) error {
	return w.update(employeeID, func(d *Dates) {
		d.OpenEnded = openEnded
		if openEnded {
			d.End = nil
		}
	})
}

// Validate checks every selected range.
func (w *Workflow) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validate()
}

func (w *Workflow) validate() error {
	var errs []error
	for _, id := range sortedKeys(w.selected) {
		d := w.selected[id]
		if !d.OpenEnded && d.End != nil && d.End.Before(d.Start) {
			errs = append(errs, fmt.Errorf("employee %d: %w", id, ErrInvalidDates))
		}
	}
	return errors.Join(errs...)
}

// Conflicts checks the proposed range of a selected employee against its known allocations.
func (w *Workflow) Conflicts(employeeID int64, existing []models.Allocation) []Conflict {
	d, ok := w.Dates(employeeID)
	if !ok {
		return nil
	}
	return FindConflicts(employeeID, d.Interval(), existing)
}

// Requests builds the batch for the current selection in id order.
func (w *Workflow) Requests() []models.AllocationRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requests()
}

func (w *Workflow) requests() []models.AllocationRequest {
	requests := make([]models.AllocationRequest, 0, len(w.selected))
	for _, id := range sortedKeys(w.selected) {
		d := w.selected[id]
		req := models.AllocationRequest{
			EmployeeID:     id,
			StartDate:      d.Start,
			AllocationType: models.AllocationFullTime,
		}
		if !d.OpenEnded && d.End != nil {
			end := *d.End
			req.EndDate = &end
		}
		requests = append(requests, req)
	}
	return requests
}

// InFlight reports whether a submission is running.
func (w *Workflow) InFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// Submit sends the selection as one batch. On success the submitted employees are dropped
// from the selection along with their placeholder scores; employees picked while the batch
// was in flight stay selected. On failure everything is kept so the user can retry.
func (w *Workflow) Submit(ctx context.Context, submitter Submitter) ([]models.Allocation, error) {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if len(w.selected) == 0 {
		w.mu.Unlock()
		return nil, ErrNothingSelected
	}
	if err := w.validate(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.inFlight = true
	projectID := w.project.ID
	requests := w.requests()
	w.mu.Unlock()

	created, err := submitter.CreateAllocations(ctx, projectID, requests)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	if err != nil {
		return nil, fmt.Errorf("failed to submit allocations: %w", err)
	}

	for _, req := range requests {
		delete(w.selected, req.EmployeeID)
		delete(w.estimates, req.EmployeeID)
	}
	return created, nil
}

func sortedKeys(m map[int64]Dates) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
