package bot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/allocation"
	"github.com/UnknownOlympus/talentfit/internal/filter"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v4"
)

const (
	listCacheTTL = time.Minute
	// allocationFetchLimit bounds the concurrent allocation lookups of the project list.
	allocationFetchLimit = 4
	historyLimit         = 10
)

// projectList is the project list with the active allocation count of every project.
type projectList struct {
	Projects  []models.Project `json:"projects"`
	Allocated map[int64]int    `json:"allocated"`
}

func (b *Bot) loadProjectList(ctx context.Context) (projectList, error) {
	return cached(ctx, b, projectsCacheKey, listCacheTTL, func(ctx context.Context) (projectList, error) {
		startTime := time.Now()
		list, err := b.backend.ListProjects(ctx)
		if err != nil {
			return projectList{}, fmt.Errorf("failed to list projects: %w", err)
		}

		now := b.now()
		counts := make([]int, len(list))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(allocationFetchLimit)
		for i, project := range list {
			g.Go(func() error {
				allocations, err := b.backend.GetProjectAllocations(gctx, project.ID)
				if err != nil {
					return fmt.Errorf("failed to get allocations of project %d: %w", project.ID, err)
				}
				counts[i] = allocation.SeatSummary(project, allocations, now).Allocated
				return nil
			})
		}
		if err = g.Wait(); err != nil {
			return projectList{}, err
		}

		allocated := make(map[int64]int, len(list))
		for i, project := range list {
			allocated[project.ID] = counts[i]
		}
		b.log.DebugContext(ctx, "Project list loaded", "count", len(list), "took", time.Since(startTime))
		return projectList{Projects: list, Allocated: allocated}, nil
	})
}

// showProjects applies update to the project screen of the user and renders the list.
// A response that arrives after a newer request of the same user is dropped.
func (b *Bot) showProjects(ctx telebot.Context, update func(*projectView)) error {
	userID := ctx.Sender().ID
	version := b.views.Begin(userID)
	view := b.screens.Update(userID, func(s *screen) {
		if update != nil {
			update(&s.Projects)
		}
	}).Projects

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	data, err := b.loadProjectList(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to load projects", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}
	if !b.views.Current(userID, version) {
		b.log.Debug("Dropping stale project list", "user", userID)
		return nil
	}

	now := b.now()
	filtered := filter.SortProjects(filter.FilterProjects(data.Projects, view.Criteria, data.Allocated, now), view.Sort)
	pg := paginate(filtered, view.Page, pageSize)

	p := b.printer(ctx)
	text := formatProjectList(p, pg, len(filtered), view.Criteria, data.Allocated, now)
	markup := projectListKeyboard(p, pg, view.Criteria, view.Sort)

	if len(filtered) == 0 && filter.IsSet(view.Criteria.Search) {
		if suggestions := filter.SuggestValues(view.Criteria.Search, searchOptions(data.Projects)); len(suggestions) > 0 {
			text += "\n\n" + p.T("projects.did_you_mean")
			markup = suggestionKeyboard(p, filter.FacetSearch, suggestions)
		}
	}
	return b.render(ctx, text, markup)
}

// searchOptions are the words a search can be corrected to.
func searchOptions(list []models.Project) []string {
	options := filter.OptionsForProjects(list)
	words := make([]string, 0, len(list)+len(options.Skills))
	for _, project := range list {
		words = append(words, project.Name)
	}
	return append(words, options.Skills...)
}

// projectsHandler opens the project list.
func (b *Bot) projectsHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("projects").Inc()
	return b.showProjects(ctx, nil)
}

// projectsCommandHandler process command /projects. The payload is a shared filter link,
// as in /projects status=Open&priority=high.
func (b *Bot) projectsCommandHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("projects").Inc()

	payload := ""
	if ctx.Message() != nil {
		payload = strings.TrimPrefix(strings.TrimSpace(ctx.Message().Payload), "?")
	}
	if payload == "" {
		return b.showProjects(ctx, nil)
	}

	values, err := url.ParseQuery(payload)
	if err != nil {
		b.log.Debug("Ignoring malformed filter link", "user", ctx.Sender().ID, "payload", payload, "error", err)
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.t(ctx, "projects.bad_link"))
	}
	criteria := filter.ParseProjectCriteria(values)
	return b.showProjects(ctx, func(v *projectView) {
		v.Criteria = criteria
		v.Page = 0
	})
}

func (b *Bot) projectListHandler(ctx telebot.Context) error {
	return b.showProjects(ctx, nil)
}

// projectFacetHandler lists the values of one facet.
func (b *Bot) projectFacetHandler(ctx telebot.Context) error {
	facet := ctx.Data()
	p := b.printer(ctx)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	data, err := b.loadProjectList(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to load projects", "user", ctx.Sender().ID, "error", err)
		return b.replyError(ctx, err)
	}

	values, ok := facetValues(facet, data.Projects)
	if !ok {
		return b.notify(ctx, p.T("form.expired"))
	}
	current := b.screens.Get(ctx.Sender().ID).Projects.Criteria.Get(facet)
	text := p.F("projects.pick_value", map[string]any{"facet": p.T("facet." + facet)})
	return b.render(ctx, text, facetValuesKeyboard(p, projectFacets, facet, values, current))
}

// facetValues returns the values offered for a facet.
func facetValues(facet string, list []models.Project) ([]string, bool) {
	options := filter.OptionsForProjects(list)
	switch facet {
	case filter.FacetStatus:
		return statusChoices(), true
	case filter.FacetPriority:
		return priorityChoices(), true
	case filter.FacetSkill:
		return options.Skills, true
	case filter.FacetGeo:
		return options.Geos, true
	case filter.FacetIndustry:
		return options.Industries, true
	case filter.FacetResource:
		return []string{filter.ResourceNeeds, filter.ResourceFull}, true
	case filter.FacetDate:
		return []string{filter.DateStartingSoon, filter.DateActive, filter.DateFuture}, true
	default:
		return nil, false
	}
}

func (b *Bot) projectFacetValueHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) < 2 {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	facet, value := args[0], strings.Join(args[1:], "|")
	return b.showProjects(ctx, func(v *projectView) {
		v.Criteria = v.Criteria.With(facet, value)
		v.Page = 0
	})
}

func (b *Bot) projectClearHandler(ctx telebot.Context) error {
	_ = ctx.Respond(&telebot.CallbackResponse{Text: b.t(ctx, "projects.cleared")})
	return b.showProjects(ctx, func(v *projectView) {
		v.Criteria, _ = v.Criteria.Clear()
		v.Page = 0
	})
}

// projectShareHandler sends the current filters as a /projects link.
func (b *Bot) projectShareHandler(ctx telebot.Context) error {
	_ = ctx.Respond()
	criteria := b.screens.Get(ctx.Sender().ID).Projects.Criteria
	link := "/projects " + criteria.Query().Encode()

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData(ctx, "projects.share_text", map[string]any{"link": escape(link)}))
}

func (b *Bot) projectPageHandler(ctx telebot.Context) error {
	index, err := strconv.Atoi(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	return b.showProjects(ctx, func(v *projectView) { v.Page = index })
}

func (b *Bot) projectSortHandler(ctx telebot.Context) error {
	key := ctx.Data()
	if _, ok := sortCycle[key]; !ok {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	return b.showProjects(ctx, func(v *projectView) {
		v.Sort = key
		v.Page = 0
	})
}

// projectSearchHandler asks for the search text.
func (b *Bot) projectSearchHandler(ctx telebot.Context) error {
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateProjectSearch})
	_ = ctx.Respond()
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "projects.search_prompt"))
}

func (b *Bot) projectSearchTextHandler(ctx telebot.Context) error {
	b.stateManager.Get(ctx.Sender().ID)
	search := strings.TrimSpace(ctx.Text())
	return b.showProjects(ctx, func(v *projectView) {
		v.Criteria = v.Criteria.With(filter.FacetSearch, search)
		v.Page = 0
	})
}

// projectCardHandler shows one project with its staffing level.
func (b *Bot) projectCardHandler(ctx telebot.Context) error {
	projectID, err := parseID(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	var (
		project     models.Project
		allocations []models.Allocation
	)
	g, gctx := errgroup.WithContext(timeoutCtx)
	g.Go(func() (err error) {
		project, err = b.backend.GetProject(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		allocations, err = b.backend.GetProjectAllocations(gctx, projectID)
		return err
	})
	if err = g.Wait(); err != nil {
		b.log.Error("Failed to load project card", "project", projectID, "error", err)
		return b.replyError(ctx, err)
	}

	p := b.printer(ctx)
	now := b.now()
	seats := allocation.SeatSummary(project, allocations, now)
	return b.render(ctx, formatProjectCard(p, project, seats, now), projectCardKeyboard(p, projectID))
}

// projectHistoryHandler shows the recorded edits of a project.
func (b *Bot) projectHistoryHandler(ctx telebot.Context) error {
	projectID, err := parseID(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	project, err := b.backend.GetProject(timeoutCtx, projectID)
	if err != nil {
		b.log.Error("Failed to load project", "project", projectID, "error", err)
		return b.replyError(ctx, err)
	}
	entries, err := b.drafts.History(timeoutCtx, projectID, historyLimit)
	if err != nil {
		b.log.Error("Failed to load project history", "project", projectID, "error", err)
		return b.replyError(ctx, err)
	}

	p := b.printer(ctx)
	back := inline(telebot.Row{button(p.T("nav.back"), cbProjectCard, idArg(projectID))})
	return b.render(ctx, formatHistory(p, project, entries), back)
}
