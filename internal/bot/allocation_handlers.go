package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/talentfit/internal/allocation"
	"github.com/UnknownOlympus/talentfit/internal/filter"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/profile"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v4"
)

// allocationOpenHandler opens the allocation dialog of a project, replacing any open one.
func (b *Bot) allocationOpenHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("allocate").Inc()

	projectID, err := parseID(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	project, err := b.backend.GetProject(timeoutCtx, projectID)
	if err != nil {
		b.log.Error("Failed to load project for allocation", "project", projectID, "error", err)
		return b.replyError(ctx, err)
	}

	b.allocations.Open(userID, project)
	b.screens.Update(userID, func(s *screen) { s.AllocPage = 0 })
	b.log.Info("Allocation dialog opened", "user", userID, "project", projectID)
	return b.showAllocation(ctx)
}

// workflow returns the open allocation dialog, answering the update when there is none.
func (b *Bot) workflow(ctx telebot.Context) (*allocation.Workflow, bool) {
	wf, ok := b.allocations.Get(ctx.Sender().ID)
	if !ok {
		_ = b.notify(ctx, b.t(ctx, "alloc.expired"))
	}
	return wf, ok
}

// showAllocation renders the open allocation dialog.
func (b *Bot) showAllocation(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}
	project := wf.Project()

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	var (
		employees          []models.Employee
		projectAllocations []models.Allocation
	)
	g, gctx := errgroup.WithContext(timeoutCtx)
	g.Go(func() (err error) {
		employees, err = b.loadEmployees(gctx)
		return err
	})
	g.Go(func() (err error) {
		projectAllocations, err = b.backend.GetProjectAllocations(gctx, project.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		b.log.Error("Failed to load allocation candidates", "user", userID, "project", project.ID, "error", err)
		return b.replyError(ctx, err)
	}

	names := make(map[int64]string, len(employees))
	for _, e := range employees {
		names[e.ID()] = e.DisplayName()
	}

	candidates := allocationCandidates(wf, employees, projectAllocations, names)
	conflicts, err := b.selectionConflicts(timeoutCtx, wf)
	if err != nil {
		b.log.Warn("Failed to check allocation conflicts", "user", userID, "error", err)
	}

	p := b.printer(ctx)
	mode := wf.Mode()
	seats := allocation.SeatSummary(project, projectAllocations, b.now())
	pg := paginate(candidates, b.screens.Get(userID).AllocPage, pageSize)

	text := formatAllocation(p, project, seats, mode, len(candidates), pg.Items, wf.Criteria(), conflicts, names)
	return b.render(ctx, text, allocationKeyboard(p, mode, pg, len(wf.Selected()), wf.InFlight()))
}

// allocationCandidates lists the rows of the dialog: the filtered employees in manual mode,
// the backend ranking in AI mode.
func allocationCandidates(
	wf *allocation.Workflow,
	employees []models.Employee,
	projectAllocations []models.Allocation,
	names map[int64]string,
) []allocationCandidate {
	var rows []allocationCandidate
	add := func(id int64, name string, match *models.Suggestion) {
		dates, selected := wf.Dates(id)
		rows = append(rows, allocationCandidate{
			ID:       id,
			Name:     name,
			Score:    wf.ScoreFor(id),
			Selected: selected,
			Dates:    dates,
			Match:    match,
		})
	}

	if wf.Mode() == allocation.ModeAI {
		for _, s := range wf.Ranking() {
			name := names[s.CandidateID]
			if s.Profile != nil {
				name = s.Profile.DisplayName()
			}
			if name == "" {
				name = "#" + idArg(s.CandidateID)
			}
			add(s.CandidateID, name, &s)
		}
		return rows
	}

	for _, e := range wf.Candidates(employees, projectAllocations) {
		add(e.ID(), e.DisplayName(), nil)
	}
	return rows
}

// selectionConflicts checks the proposed dates of every selected employee against their
// existing allocations.
func (b *Bot) selectionConflicts(ctx context.Context, wf *allocation.Workflow) (map[int64][]allocation.Conflict, error) {
	selected := wf.Selected()
	found := make([][]allocation.Conflict, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(allocationFetchLimit)
	for i, employeeID := range selected {
		g.Go(func() error {
			existing, err := b.backend.GetEmployeeAllocations(gctx, employeeID)
			if err != nil {
				return err
			}
			found[i] = wf.Conflicts(employeeID, existing)
			return nil
		})
	}
	err := g.Wait()

	conflicts := make(map[int64][]allocation.Conflict, len(selected))
	for i, employeeID := range selected {
		if len(found[i]) > 0 {
			conflicts[employeeID] = found[i]
		}
	}
	return conflicts, err
}

// allocationModeHandler switches between manual selection and AI suggestions. The
// suggestions are fetched the first time AI mode is opened.
func (b *Bot) allocationModeHandler(ctx telebot.Context) error {
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}

	mode := allocation.Mode(ctx.Data())
	if mode == allocation.ModeAI && len(wf.Ranking()) == 0 {
		timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
		defer cancel()

		suggestions, err := b.backend.GetSuggestions(timeoutCtx, wf.Project().ID)
		if err != nil {
			b.log.Error("Failed to get suggestions", "project", wf.Project().ID, "error", err)
			return b.replyError(ctx, err)
		}
		wf.SetSuggestions(suggestions)
	}

	wf.SetMode(mode)
	b.screens.Update(ctx.Sender().ID, func(s *screen) { s.AllocPage = 0 })
	return b.showAllocation(ctx)
}

func (b *Bot) allocationToggleHandler(ctx telebot.Context) error {
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}
	employeeID, err := parseID(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	wf.Toggle(employeeID)
	return b.showAllocation(ctx)
}

func (b *Bot) allocationStartHandler(ctx telebot.Context) error {
	return b.askAllocationDate(ctx, stateAllocationStart, "alloc.enter_start")
}

func (b *Bot) allocationEndHandler(ctx telebot.Context) error {
	return b.askAllocationDate(ctx, stateAllocationEnd, "alloc.enter_end")
}

func (b *Bot) askAllocationDate(ctx telebot.Context, waitingFor, promptKey string) error {
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}
	employeeID, err := parseID(ctx.Data())
	if err != nil || !wf.IsSelected(employeeID) {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: waitingFor, EmployeeID: employeeID})
	_ = ctx.Respond()
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, promptKey))
}

// allocationDateHandler takes a typed start or end date of a selected employee.
func (b *Bot) allocationDateHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	state, ok := b.stateManager.Get(userID)
	if !ok {
		return nil
	}
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}

	date, err := profile.ParseDate(ctx.Text())
	if err != nil {
		b.stateManager.Set(userID, state)
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("❌ " + b.t(ctx, "form.invalid_answer") + "\n" + escape(err.Error()))
	}

	if state.WaitingFor == stateAllocationStart {
		err = wf.SetStart(state.EmployeeID, date)
	} else {
		err = wf.SetEnd(state.EmployeeID, date)
	}
	if err != nil {
		b.log.Debug("Ignoring date of unselected employee", "user", userID, "employee", state.EmployeeID)
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	if errors.Is(wf.Validate(), allocation.ErrInvalidDates) {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		_ = ctx.Send("⚠️ " + b.t(ctx, "alloc.invalid_dates"))
	}
	return b.showAllocation(ctx)
}

func (b *Bot) allocationOpenEndedHandler(ctx telebot.Context) error {
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}
	employeeID, err := parseID(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	dates, selected := wf.Dates(employeeID)
	if !selected {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	if err = wf.SetOpenEnded(employeeID, !dates.OpenEnded); err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	return b.showAllocation(ctx)
}

func (b *Bot) allocationPageHandler(ctx telebot.Context) error {
	index, err := strconv.Atoi(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	b.screens.Update(ctx.Sender().ID, func(s *screen) { s.AllocPage = index })
	return b.showAllocation(ctx)
}

func (b *Bot) allocationSearchHandler(ctx telebot.Context) error {
	if _, ok := b.workflow(ctx); !ok {
		return nil
	}
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAllocationSearch})
	_ = ctx.Respond()
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "alloc.search_prompt"))
}

// allocationSearchTextHandler filters the manual candidates by name or skill.
func (b *Bot) allocationSearchTextHandler(ctx telebot.Context) error {
	b.stateManager.Get(ctx.Sender().ID)
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}

	wf.SetCriteria(wf.Criteria().With(filter.FacetSearch, strings.TrimSpace(ctx.Text())))
	b.screens.Update(ctx.Sender().ID, func(s *screen) { s.AllocPage = 0 })
	return b.showAllocation(ctx)
}

func (b *Bot) allocationClearHandler(ctx telebot.Context) error {
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}
	wf.SetCriteria(filter.EmployeeCriteria{})
	b.screens.Update(ctx.Sender().ID, func(s *screen) { s.AllocPage = 0 })
	return b.showAllocation(ctx)
}

// allocationSubmitHandler sends the selection as one batch. The dialog shows the inert
// submit button while the batch runs. A failed batch keeps the selection for a retry; a
// successful one closes the dialog unless employees were picked meanwhile. Allocated
// employees with a linked account are notified.
func (b *Bot) allocationSubmitHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	wf, ok := b.workflow(ctx)
	if !ok {
		return nil
	}
	project := wf.Project()

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	created, err := wf.Submit(timeoutCtx, submitterFunc(
		func(c context.Context, projectID int64, requests []models.AllocationRequest) ([]models.Allocation, error) {
			if renderErr := b.showAllocation(ctx); renderErr != nil {
				b.log.Warn("Failed to show submitting state", "user", userID, "error", renderErr)
			}
			return b.backend.CreateAllocations(c, projectID, requests)
		}))
	switch {
	case errors.Is(err, allocation.ErrSubmitInFlight):
		b.metrics.AllocationsSubmitted.WithLabelValues("in_flight").Inc()
		return b.notify(ctx, b.t(ctx, "alloc.submitting"))
	case errors.Is(err, allocation.ErrNothingSelected):
		return b.notify(ctx, b.t(ctx, "alloc.nothing_selected"))
	case errors.Is(err, allocation.ErrInvalidDates):
		return b.notify(ctx, b.t(ctx, "alloc.invalid_dates"))
	case err != nil:
		b.metrics.AllocationsSubmitted.WithLabelValues("failure").Inc()
		b.log.Error("Failed to submit allocations", "user", userID, "project", project.ID, "error", err)
		if replyErr := b.replyError(ctx, err); replyErr != nil {
			return replyErr
		}
		if _, open := b.allocations.Get(userID); !open {
			return nil
		}
		// restore the submit button
		return b.showAllocation(ctx)
	}

	b.metrics.AllocationsSubmitted.WithLabelValues("success").Inc()
	b.invalidate(timeoutCtx, projectsCacheKey, dashboardCacheKey, employeesCacheKey,
		projectsReportKey, allocationsReportKey+idArg(project.ID))
	b.log.Info("Allocations submitted", "user", userID, "project", project.ID, "count", len(created))

	go b.notifyAllocated(project, created)

	notice := b.tWithData(ctx, "alloc.submitted", map[string]any{"count": len(created)})
	_ = ctx.Respond(&telebot.CallbackResponse{Text: notice})
	if len(wf.Selected()) > 0 {
		return b.showAllocation(ctx)
	}

	if current, open := b.allocations.Get(userID); open && current == wf {
		b.allocations.Close(userID)
	}
	p := b.printer(ctx)
	return b.render(ctx, notice, projectCardKeyboard(p, project.ID))
}

// submitterFunc adapts a function to allocation.Submitter.
type submitterFunc func(ctx context.Context, projectID int64, requests []models.AllocationRequest) ([]models.Allocation, error)

func (f submitterFunc) CreateAllocations(
	ctx context.Context,
	projectID int64,
	requests []models.AllocationRequest,
) ([]models.Allocation, error) {
	return f(ctx, projectID, requests)
}

// notifyAllocated tells every allocated employee about the new assignment.
func (b *Bot) notifyAllocated(project models.Project, created []models.Allocation) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	for _, a := range created {
		b.pushToUser(ctx, a.EmployeeID, func(p printer) string {
			return p.F("alloc.assigned", map[string]any{
				"project": escape(project.Name),
				"start":   formatDate(a.StartDate),
				"end":     formatOptionalDate(p, a.EndDate, false),
			})
		})
	}
}

// allocationCloseHandler closes the dialog and returns to the project card.
func (b *Bot) allocationCloseHandler(ctx telebot.Context) error {
	wf, ok := b.allocations.Get(ctx.Sender().ID)
	b.allocations.Close(ctx.Sender().ID)

	p := b.printer(ctx)
	if !ok {
		return b.render(ctx, p.T("alloc.closed"), nil)
	}
	return b.render(ctx, p.T("alloc.closed"), projectCardKeyboard(p, wf.Project().ID))
}

// allocationNoopHandler answers the inert button shown while a batch is submitted.
func (b *Bot) allocationNoopHandler(ctx telebot.Context) error {
	return b.notify(ctx, b.t(ctx, "alloc.submitting"))
}
