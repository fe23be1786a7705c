package bot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/filter"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v4"
)

const employeesCacheKey = "employees:list"

// dashboardHandler shows the manager metrics with the latest notifications.
func (b *Bot) dashboardHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("dashboard").Inc()

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	var (
		metrics       models.DashboardMetrics
		notifications []models.Notification
	)
	g, gctx := errgroup.WithContext(timeoutCtx)
	g.Go(func() (err error) {
		metrics, err = cached(gctx, b, dashboardCacheKey, listCacheTTL, b.backend.DashboardMetrics)
		return err
	})
	g.Go(func() error {
		var err error
		if notifications, err = b.backend.Notifications(gctx); err != nil {
			// the metrics are still worth showing
			b.log.Warn("Failed to get notifications", "user", userID, "error", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		b.log.Error("Failed to get dashboard metrics", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(formatDashboard(b.printer(ctx), metrics, notifications))
}

func (b *Bot) loadEmployees(ctx context.Context) ([]models.Employee, error) {
	profiles, err := cached(ctx, b, employeesCacheKey, listCacheTTL,
		func(ctx context.Context) ([]models.EmployeeProfile, error) {
			profiles, err := b.backend.ListEmployees(ctx, talentfit.EmployeeQuery{})
			if err != nil {
				return nil, fmt.Errorf("failed to list employees: %w", err)
			}
			return profiles, nil
		})
	if err != nil {
		return nil, err
	}
	return models.ToEmployees(profiles), nil
}

// showEmployees applies update to the employee screen of the user and renders the list.
func (b *Bot) showEmployees(ctx telebot.Context, update func(*employeeView)) error {
	userID := ctx.Sender().ID
	version := b.views.Begin(userID)
	view := b.screens.Update(userID, func(s *screen) {
		if update != nil {
			update(&s.Employees)
		}
	}).Employees

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	startTime := time.Now()
	employees, err := b.loadEmployees(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to load employees", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}
	if !b.views.Current(userID, version) {
		b.log.Debug("Dropping stale employee list", "user", userID)
		return nil
	}
	b.log.Debug("Employees loaded", "count", len(employees), "took", time.Since(startTime))

	filtered := filter.FilterEmployees(employees, view.Criteria, nil)
	pg := paginate(filtered, view.Page, pageSize)

	p := b.printer(ctx)
	return b.render(ctx,
		formatEmployeeList(p, pg, len(filtered), view.Criteria),
		employeeListKeyboard(p, pg, view.Criteria))
}

// employeesHandler opens the employee list.
func (b *Bot) employeesHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("employees").Inc()
	return b.showEmployees(ctx, nil)
}

// employeesCommandHandler process command /employees. The payload is a shared filter link,
// as in /employees skill=Go&location=Europe.
func (b *Bot) employeesCommandHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("employees").Inc()

	payload := ""
	if ctx.Message() != nil {
		payload = strings.TrimPrefix(strings.TrimSpace(ctx.Message().Payload), "?")
	}
	if payload == "" {
		return b.showEmployees(ctx, nil)
	}

	values, err := url.ParseQuery(payload)
	if err != nil {
		b.log.Debug("Ignoring malformed filter link", "user", ctx.Sender().ID, "payload", payload, "error", err)
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.t(ctx, "projects.bad_link"))
	}
	criteria := filter.ParseEmployeeCriteria(values)
	return b.showEmployees(ctx, func(v *employeeView) {
		v.Criteria = criteria
		v.Page = 0
	})
}

func (b *Bot) employeeListHandler(ctx telebot.Context) error {
	return b.showEmployees(ctx, nil)
}

// employeePickHandler lists the skills or locations present among the employees.
func (b *Bot) employeePickHandler(ctx telebot.Context) error {
	facet := ctx.Data()
	p := b.printer(ctx)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	employees, err := b.loadEmployees(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to load employees", "user", ctx.Sender().ID, "error", err)
		return b.replyError(ctx, err)
	}

	options := filter.OptionsForEmployees(employees)
	var values []string
	switch facet {
	case filter.FacetSkill:
		values = options.Skills
	case filter.FacetLocation:
		values = options.Geos
	default:
		return b.notify(ctx, p.T("form.expired"))
	}
	current := b.screens.Get(ctx.Sender().ID).Employees.Criteria.Get(facet)
	text := p.F("projects.pick_value", map[string]any{"facet": p.T("facet." + facet)})
	return b.render(ctx, text, facetValuesKeyboard(p, employeeFacets, facet, values, current))
}

func (b *Bot) employeeValueHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) < 2 {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	facet, value := args[0], strings.Join(args[1:], "|")
	return b.showEmployees(ctx, func(v *employeeView) {
		v.Criteria = v.Criteria.With(facet, value)
		v.Page = 0
	})
}

func (b *Bot) employeeClearHandler(ctx telebot.Context) error {
	_ = ctx.Respond(&telebot.CallbackResponse{Text: b.t(ctx, "projects.cleared")})
	return b.showEmployees(ctx, func(v *employeeView) {
		v.Criteria = filter.EmployeeCriteria{}
		v.Page = 0
	})
}

// employeeShareHandler sends the current filters as an /employees link.
func (b *Bot) employeeShareHandler(ctx telebot.Context) error {
	_ = ctx.Respond()
	criteria := b.screens.Get(ctx.Sender().ID).Employees.Criteria
	link := "/employees " + criteria.Query().Encode()

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData(ctx, "projects.share_text", map[string]any{"link": escape(link)}))
}

// employeeFacetHandler filters the employee list by status.
func (b *Bot) employeeFacetHandler(ctx telebot.Context) error {
	status := ctx.Data()
	return b.showEmployees(ctx, func(v *employeeView) {
		v.Criteria = v.Criteria.With(filter.FacetStatus, status)
		v.Page = 0
	})
}

func (b *Bot) employeePageHandler(ctx telebot.Context) error {
	index, err := strconv.Atoi(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	return b.showEmployees(ctx, func(v *employeeView) { v.Page = index })
}

// employeeCardHandler shows one employee with their allocations.
func (b *Bot) employeeCardHandler(ctx telebot.Context) error {
	employeeID, err := parseID(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	var (
		employee    models.EmployeeProfile
		allocations []models.Allocation
	)
	g, gctx := errgroup.WithContext(timeoutCtx)
	g.Go(func() (err error) {
		employee, err = b.backend.GetEmployee(gctx, employeeID)
		return err
	})
	g.Go(func() (err error) {
		allocations, err = b.backend.GetEmployeeAllocations(gctx, employeeID)
		return err
	})
	if err = g.Wait(); err != nil {
		b.log.Error("Failed to load employee card", "employee", employeeID, "error", err)
		return b.replyError(ctx, err)
	}

	p := b.printer(ctx)
	back := strconv.Itoa(b.screens.Get(ctx.Sender().ID).Employees.Page)
	markup := inline(telebot.Row{button(p.T("nav.back"), cbEmployeePage, back)})
	return b.render(ctx, formatEmployeeCard(p, models.ToEmployee(employee), allocations, b.now()), markup)
}
