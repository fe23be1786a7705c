package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/allocation"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/report"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v4"
)

const (
	reportCacheTTL        = 10 * time.Minute
	projectsReportKey     = "report:projects"
	allocationsReportKey  = "report:allocations:"
	projectsReportFile    = "projects_%s.xlsx"
	allocationsReportFile = "allocations_%d_%s.xlsx"
)

// exportHandler process the Export menu button.
func (b *Bot) exportHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("export").Inc()
	return b.exportProjectsHandler(ctx)
}

// exportProjectsHandler sends the project portfolio workbook.
func (b *Bot) exportProjectsHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested projects report", "user", userID)

	timeoutCtx, cancel := b.apiContext(ctx, reportTimeout)
	defer cancel()

	workbook, err := cached(timeoutCtx, b, projectsReportKey, reportCacheTTL, b.buildProjectsReport)
	if err != nil {
		return b.reportFailed(ctx, err)
	}

	fileName := fmt.Sprintf(projectsReportFile, b.now().Format(time.DateOnly))
	return b.sendWorkbook(ctx, bytes.NewReader(workbook), fileName, b.t(ctx, "report.projects_caption"))
}

func (b *Bot) buildProjectsReport(ctx context.Context) ([]byte, error) {
	data, err := b.loadProjectList(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]report.ProjectRow, 0, len(data.Projects))
	for _, p := range data.Projects {
		seats := allocation.Seats{Allocated: data.Allocated[p.ID], Required: p.RequiredSeats}
		rows = append(rows, report.ProjectRow{
			ID:        p.ID,
			Name:      p.Name,
			Client:    p.ClientName,
			Status:    p.Status,
			Priority:  p.Priority,
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			TeamSize:  seats.TeamSize(),
			Need:      seats.Need(),
			Budget:    p.Budget,
		})
	}

	startTime := time.Now()
	buffer, err := report.GenerateProjectsReport(rows)
	b.metrics.ReportGeneration.WithLabelValues("projects").Observe(time.Since(startTime).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to generate projects report: %w", err)
	}
	b.log.DebugContext(ctx, "Projects report generated", "rows", len(rows))
	return buffer.Bytes(), nil
}

// exportAllocationsHandler sends the allocation roster of one project.
func (b *Bot) exportAllocationsHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID

	projectID, err := parseID(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	b.log.Info("User requested allocation report", "user", userID, "project", projectID)

	timeoutCtx, cancel := b.apiContext(ctx, reportTimeout)
	defer cancel()

	key := allocationsReportKey + idArg(projectID)
	workbook, err := cached(timeoutCtx, b, key, reportCacheTTL, func(ctx context.Context) ([]byte, error) {
		return b.buildAllocationReport(ctx, projectID)
	})
	if err != nil {
		return b.reportFailed(ctx, err)
	}

	fileName := fmt.Sprintf(allocationsReportFile, projectID, b.now().Format(time.DateOnly))
	return b.sendWorkbook(ctx, bytes.NewReader(workbook), fileName, b.t(ctx, "report.allocations_caption"))
}

func (b *Bot) buildAllocationReport(ctx context.Context, projectID int64) ([]byte, error) {
	var (
		project     models.Project
		allocations []models.Allocation
		employees   []models.Employee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		project, err = b.backend.GetProject(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		allocations, err = b.backend.GetProjectAllocations(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		employees, err = b.loadEmployees(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(employees))
	for _, e := range employees {
		names[e.ID()] = e.DisplayName()
	}

	rows := make([]report.AllocationRow, len(allocations))
	cg, cctx := errgroup.WithContext(ctx)
	cg.SetLimit(allocationFetchLimit)
	for i, a := range allocations {
		cg.Go(func() error {
			conflicts, err := b.otherProjectConflicts(cctx, a)
			if err != nil {
				return err
			}
			rows[i] = report.AllocationRow{
				EmployeeID:     a.EmployeeID,
				EmployeeName:   names[a.EmployeeID],
				AllocationType: a.AllocationType,
				StartDate:      a.StartDate,
				EndDate:        a.EndDate,
				Conflicts:      conflicts,
			}
			return nil
		})
	}
	if err := cg.Wait(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	buffer, err := report.GenerateAllocationReport(project, rows)
	b.metrics.ReportGeneration.WithLabelValues("allocations").Observe(time.Since(startTime).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to generate allocation report: %w", err)
	}
	return buffer.Bytes(), nil
}

// otherProjectConflicts names the other projects whose allocations overlap a.
func (b *Bot) otherProjectConflicts(ctx context.Context, a models.Allocation) ([]string, error) {
	existing, err := b.backend.GetEmployeeAllocations(ctx, a.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocations of employee %d: %w", a.EmployeeID, err)
	}

	others := make([]models.Allocation, 0, len(existing))
	for _, e := range existing {
		if e.ID != a.ID && e.ProjectID != a.ProjectID {
			others = append(others, e)
		}
	}

	var names []string
	for _, c := range allocation.FindConflicts(a.EmployeeID, allocation.Interval{Start: a.StartDate, End: a.EndDate}, others) {
		name := c.ProjectName()
		if name == "" {
			name = "#" + idArg(c.Allocation.ProjectID)
		}
		names = append(names, name)
	}
	return names, nil
}

func (b *Bot) reportFailed(ctx telebot.Context, err error) error {
	if errors.Is(err, report.ErrNoRows) {
		return b.notify(ctx, b.t(ctx, "report.empty"))
	}
	b.log.Error("Failed to build report", "user", ctx.Sender().ID, "error", err)
	return b.replyError(ctx, err)
}
