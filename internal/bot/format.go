package bot

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/allocation"
	"github.com/UnknownOlympus/talentfit/internal/filter"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"github.com/UnknownOlympus/talentfit/internal/projects"
	"github.com/UnknownOlympus/talentfit/internal/session"
	"github.com/shopspring/decimal"
	"github.com/wI2L/jsondiff"
)

const (
	noValue        = "-"
	timestampStyle = "2006-01-02 15:04"
)

// escape makes user and backend text safe for HTML parse mode.
func escape(s string) string {
	return html.EscapeString(s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return noValue
	}
	return t.Format(time.DateOnly)
}

func formatOptionalDate(p printer, end *time.Time, openEnded bool) string {
	if openEnded || end == nil {
		return p.T("alloc.open_ended")
	}
	return formatDate(*end)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return noValue
	}
	return escape(s)
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return noValue
	}
	return escape(strings.Join(values, ", "))
}

// formatBudget renders a budget in dollars with thousands separators, for example
// $250,000 or $1,200.50.
func formatBudget(budget decimal.NullDecimal) string {
	if !budget.Valid {
		return noValue
	}

	amount := budget.Decimal
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	whole, fraction, _ := strings.Cut(amount.StringFixed(2), ".")
	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	out := sign + "$" + grouped.String()
	if fraction != "00" {
		out += "." + fraction
	}
	return out
}

// field writes one "<b>Label:</b> value" line. The value must already be escaped.
func field(sb *strings.Builder, p printer, labelKey, value string) {
	fmt.Fprintf(sb, "\n<b>%s:</b> %s", p.T(labelKey), value)
}

func formatNeed(p printer, seats allocation.Seats) string {
	if seats.Remaining() == 0 {
		return p.T("seats.full")
	}
	return p.F("seats.need", map[string]any{"count": seats.Remaining()})
}

func formatProjectLine(p printer, project models.Project, allocated int, now time.Time) string {
	seats := allocation.Seats{Allocated: allocated, Required: project.RequiredSeats}

	icon := "📁"
	if project.IsUrgent(now) {
		icon = "🔥"
	}
	return fmt.Sprintf("%s <b>%s</b>\n%s · %s · %s · %s",
		icon,
		escape(project.Name),
		escape(string(project.Status)),
		p.T("bucket."+string(project.Priority)),
		seats.TeamSize(),
		formatNeed(p, seats),
	)
}

// formatProjectList renders the header, the active filters and the projects on the page.
func formatProjectList(
	p printer,
	pg page[models.Project],
	total int,
	criteria filter.ProjectCriteria,
	allocated map[int64]int,
	now time.Time,
) string {
	var sb strings.Builder
	sb.WriteString(p.F("projects.title", map[string]any{"count": total}))

	if active := criteria.ActiveCount(); active > 0 {
		sb.WriteString("\n" + p.F("projects.active_filters", map[string]any{"count": active}))
		for _, facet := range filter.ProjectFacets {
			if value := criteria.Get(facet); filter.IsSet(value) {
				fmt.Fprintf(&sb, "\n• %s: %s", p.T("facet."+facet), escape(facetValueLabel(p, facet, value)))
			}
		}
	}

	if len(pg.Items) == 0 {
		sb.WriteString("\n\n" + p.T("projects.empty"))
		return sb.String()
	}
	for _, project := range pg.Items {
		sb.WriteString("\n\n" + formatProjectLine(p, project, allocated[project.ID], now))
	}
	return sb.String()
}

// formatProjectDetails renders the stored fields of a project.
func formatProjectDetails(p printer, project models.Project) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>", escape(project.Name))

	field(&sb, p, "label.client", orNone(project.ClientName))
	field(&sb, p, "label.status", orNone(string(project.Status)))
	field(&sb, p, "label.priority", p.T("bucket."+string(project.Priority)))

	weeks := project.DurationWeeks
	if weeks == 0 {
		weeks = models.DurationWeeks(project.StartDate, project.EndDate)
	}
	field(&sb, p, "label.dates", fmt.Sprintf("%s → %s (%s)",
		formatDate(project.StartDate), formatDate(project.EndDate),
		p.F("project.weeks", map[string]any{"count": weeks})))

	field(&sb, p, "label.seats", strconv.Itoa(project.RequiredSeats))
	if len(project.SeatsByType) > 0 {
		types := make([]string, 0, len(project.SeatsByType))
		for role, n := range project.SeatsByType {
			types = append(types, fmt.Sprintf("%s %d", role, n))
		}
		sort.Strings(types)
		field(&sb, p, "label.seats_by_type", joinOrNone(types))
	}
	field(&sb, p, "label.skills", joinOrNone(project.RequiredSkills))
	if len(project.NiceToHaveSkills) > 0 {
		field(&sb, p, "label.nice_to_have", joinOrNone(project.NiceToHaveSkills))
	}
	field(&sb, p, "label.role_type", orNone(project.RoleType))
	field(&sb, p, "label.industry", orNone(project.Industry))
	field(&sb, p, "label.geo", orNone(project.GeoPreference))
	field(&sb, p, "label.budget", formatBudget(project.Budget))
	if project.ProjectManager != "" {
		field(&sb, p, "label.manager", escape(project.ProjectManager))
	}
	if project.Description != "" {
		sb.WriteString("\n\n" + escape(project.Description))
	}
	return sb.String()
}

// formatSeatsMismatch explains a seats-by-type total that differs from required seats.
func formatSeatsMismatch(p printer, project models.Project) string {
	mismatch, required, byType := project.SeatsMismatch()
	if !mismatch {
		return ""
	}
	return "⚠️ " + p.F("project.seats_mismatch", map[string]any{"by_type": byType, "required": required})
}

// formatProjectCard renders a project with its staffing level and urgency.
func formatProjectCard(p printer, project models.Project, seats allocation.Seats, now time.Time) string {
	var sb strings.Builder
	if project.IsUrgent(now) {
		sb.WriteString("🔥 " + p.T("project.urgent") + "\n")
	}
	sb.WriteString(formatProjectDetails(p, project))
	sb.WriteString("\n")
	field(&sb, p, "label.team", seats.TeamSize()+" · "+formatNeed(p, seats))

	if days := project.DaysUntilStart(now); days > 0 {
		sb.WriteString("\n" + p.F("project.starts_in", map[string]any{"count": days}))
	}
	if note := formatSeatsMismatch(p, project); note != "" {
		sb.WriteString("\n" + note)
	}
	return sb.String()
}

// formatReview renders a filled project form before it is created.
func formatReview(p printer, in projects.Input, notes projects.Notes) string {
	var sb strings.Builder
	sb.WriteString(p.T("form.review_title") + "\n\n")
	sb.WriteString(formatProjectDetails(p, in.Project()))
	if notes.SeatsMismatch {
		sb.WriteString("\n\n⚠️ " + p.F("project.seats_mismatch", map[string]any{
			"by_type":  notes.SeatsByType,
			"required": notes.RequiredSeats,
		}))
	}
	return sb.String()
}

// formatFieldErrors lists validation failures in form order.
func formatFieldErrors(p printer, errs map[string]string, order []string) string {
	var sb strings.Builder
	sb.WriteString("❌ " + p.T("form.invalid"))

	seen := make(map[string]struct{}, len(errs))
	for _, name := range order {
		if msg, ok := errs[name]; ok {
			fmt.Fprintf(&sb, "\n• <b>%s</b>: %s", p.T("field."+name), escape(msg))
			seen[name] = struct{}{}
		}
	}

	rest := make([]string, 0, len(errs))
	for name := range errs {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		fmt.Fprintf(&sb, "\n• <b>%s</b>: %s", escape(name), escape(errs[name]))
	}
	return sb.String()
}

// formatValue renders a JSON value of a patch.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return noValue
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return formatDate(t)
		}
		return orNone(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return noValue
		}
		return escape(string(raw))
	}
}

// formatChanges lists the field changes of an edit.
func formatChanges(p printer, changes []projects.Change) string {
	var sb strings.Builder
	for _, change := range changes {
		newValue := formatValue(change.New)
		if change.Op == jsondiff.OperationRemove {
			newValue = noValue
		}
		if change.Old == nil {
			// stored patches keep new values only
			fmt.Fprintf(&sb, "\n• <b>%s</b>: %s", escape(change.Field), newValue)
			continue
		}
		fmt.Fprintf(&sb, "\n• <b>%s</b>: %s → %s", escape(change.Field), formatValue(change.Old), newValue)
	}
	if len(changes) == 0 {
		sb.WriteString("\n" + p.T("edit.no_changes"))
	}
	return sb.String()
}

// formatHistory renders the change log of a project, newest first.
func formatHistory(p printer, project models.Project, entries []models.ChangeEntry) string {
	var sb strings.Builder
	sb.WriteString(p.F("history.title", map[string]any{"name": escape(project.Name)}))
	if len(entries) == 0 {
		sb.WriteString("\n\n" + p.T("history.empty"))
		return sb.String()
	}

	for _, entry := range entries {
		fmt.Fprintf(&sb, "\n\n🕓 %s · %s",
			entry.CreatedAt.Format(timestampStyle),
			p.F("history.author", map[string]any{"id": entry.AuthorID}))

		var patch jsondiff.Patch
		if err := json.Unmarshal(entry.Patch, &patch); err != nil {
			sb.WriteString("\n" + p.T("history.unreadable"))
			continue
		}
		sb.WriteString(formatChanges(p, projects.Changes(patch)))
	}
	return sb.String()
}

// formatProfile renders the own profile card of a signed-in user.
func formatProfile(p printer, sess session.Session, profile models.EmployeeProfile) string {
	employee := models.ToEmployee(profile)

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 <b>%s</b>", orNone(sess.Name))
	field(&sb, p, "label.email", orNone(sess.Email))
	field(&sb, p, "label.role", escape(string(sess.Role)))
	field(&sb, p, "label.status", p.T("status."+string(employee.Status)))
	field(&sb, p, "label.geo", orNone(profile.Geo))
	field(&sb, p, "label.primary_skills", joinOrNone(employee.PrimarySkills))
	if len(employee.SecondarySkills) > 0 {
		field(&sb, p, "label.secondary_skills", joinOrNone(employee.SecondarySkills))
	}
	field(&sb, p, "label.experience", p.F("profile.years", map[string]any{"count": profile.YearsOfExperience}))
	field(&sb, p, "label.industry", orNone(profile.Industry))
	field(&sb, p, "label.employment_type", orNone(profile.EmploymentType))
	if profile.DateOfJoining != nil {
		field(&sb, p, "label.joined", formatDate(*profile.DateOfJoining))
	}
	if profile.CurrentClient != "" {
		field(&sb, p, "label.client", escape(profile.CurrentClient))
	}
	return sb.String()
}

func allocationProjectName(p printer, a models.Allocation) string {
	if a.Project != nil && a.Project.Name != "" {
		return escape(a.Project.Name)
	}
	return p.F("project.number", map[string]any{"id": a.ProjectID})
}

// formatAssignments lists the allocations of an employee, active ones marked.
func formatAssignments(p printer, allocations []models.Allocation, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(p.T("assignments.title"))
	if len(allocations) == 0 {
		sb.WriteString("\n\n" + p.T("assignments.empty"))
		return sb.String()
	}

	for _, a := range allocations {
		marker := "▫️"
		if a.IsActive(now) {
			marker = "🟢"
		}
		fmt.Fprintf(&sb, "\n%s <b>%s</b> · %s\n   %s → %s",
			marker,
			allocationProjectName(p, a),
			escape(string(a.AllocationType)),
			formatDate(a.StartDate),
			formatOptionalDate(p, a.EndDate, false),
		)
	}
	return sb.String()
}

// formatDashboard renders the manager metrics and the latest notifications.
func formatDashboard(p printer, m models.DashboardMetrics, notifications []models.Notification) string {
	var sb strings.Builder
	sb.WriteString(p.T("dashboard.title") + "\n")
	fmt.Fprintf(&sb, "\n🟢 %s: <b>%d</b>", p.T("dashboard.available"), m.AvailableEngineers)
	fmt.Fprintf(&sb, "\n📁 %s: <b>%d</b>", p.T("dashboard.active_projects"), m.ActiveProjects)
	fmt.Fprintf(&sb, "\n⏳ %s: <b>%d</b>", p.T("dashboard.rolling_off"), m.RollingOffSoon)
	fmt.Fprintf(&sb, "\n🪑 %s: <b>%d</b>", p.T("dashboard.bench"), m.BenchResources)
	fmt.Fprintf(&sb, "\n👥 %s: <b>%d</b>", p.T("dashboard.allocated"), m.AllocatedEngineers)

	sb.WriteString("\n\n" + p.T("dashboard.notifications"))
	if len(notifications) == 0 {
		sb.WriteString("\n" + p.T("dashboard.no_notifications"))
		return sb.String()
	}
	for _, n := range notifications {
		marker := "•"
		if !n.IsRead {
			marker = "🔔"
		}
		fmt.Fprintf(&sb, "\n%s <b>%s</b>: %s", marker, escape(string(n.Type)), escape(n.Message))
	}
	return sb.String()
}

// formatNotification renders a pushed backend notification.
func formatNotification(n models.Notification) string {
	text := fmt.Sprintf("🔔 <b>%s</b>\n%s", escape(string(n.Type)), escape(n.Message))
	if !n.CreatedAt.IsZero() {
		text += "\n<i>" + n.CreatedAt.Format(timestampStyle) + "</i>"
	}
	return text
}

// formatCapabilities lists what the granted capabilities allow, one per line.
func formatCapabilities(p printer, granted []permissions.Capability) string {
	if len(granted) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n" + p.T("help.capabilities"))
	for _, c := range granted {
		sb.WriteString("\n• " + p.T("capability."+string(c)))
	}
	return sb.String()
}

// formatEmployeeList renders the header and the employees on the page.
func formatEmployeeList(p printer, pg page[models.Employee], total int, criteria filter.EmployeeCriteria) string {
	var sb strings.Builder
	sb.WriteString(p.F("employees.title", map[string]any{"count": total}))
	for _, facet := range filter.EmployeeFacets {
		value := criteria.Get(facet)
		if !filter.IsSet(value) {
			continue
		}
		switch facet {
		case filter.FacetStatus:
			value = p.T("status." + value)
		case filter.FacetAvailability:
			value = p.T("availability." + value)
		default:
			value = escape(value)
		}
		fmt.Fprintf(&sb, "\n%s: %s", p.T("facet."+facet), value)
	}
	if len(pg.Items) == 0 {
		sb.WriteString("\n\n" + p.T("employees.empty"))
		return sb.String()
	}
	for _, e := range pg.Items {
		fmt.Fprintf(&sb, "\n\n<b>%s</b> · %s\n%s · %s",
			orNone(e.DisplayName()),
			p.T("status."+string(e.Status)),
			orNone(e.Geo),
			joinOrNone(e.PrimarySkills),
		)
	}
	return sb.String()
}

// formatEmployeeCard renders an employee with their allocations.
func formatEmployeeCard(p printer, e models.Employee, allocations []models.Allocation, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 <b>%s</b>", orNone(e.DisplayName()))
	field(&sb, p, "label.email", orNone(e.User.Email))
	field(&sb, p, "label.status", p.T("status."+string(e.Status)))
	field(&sb, p, "label.geo", orNone(e.Geo))
	field(&sb, p, "label.primary_skills", joinOrNone(e.PrimarySkills))
	if len(e.SecondarySkills) > 0 {
		field(&sb, p, "label.secondary_skills", joinOrNone(e.SecondarySkills))
	}
	field(&sb, p, "label.experience", p.F("profile.years", map[string]any{"count": e.YearsOfExperience}))
	field(&sb, p, "label.industry", orNone(e.Industry))
	if e.UtilizationPct > 0 {
		field(&sb, p, "label.utilization", strconv.Itoa(e.UtilizationPct)+"%")
	}
	sb.WriteString("\n\n" + formatAssignments(p, allocations, now))
	return sb.String()
}

// formatMatch renders the score, confidence and breakdown of an AI suggestion.
func formatMatch(p printer, name string, s models.Suggestion) string {
	score := s.Overall()
	text := p.F("alloc.match", map[string]any{
		"name":       escape(name),
		"score":      score,
		"confidence": p.T("confidence." + string(models.ConfidenceFor(score))),
	})
	if s.Breakdown != nil {
		text += "\n" + p.F("alloc.breakdown", map[string]any{
			"skills":       s.Breakdown.Skills,
			"availability": s.Breakdown.Availability,
			"role_fit":     s.Breakdown.RoleFit,
			"industry":     s.Breakdown.Industry,
			"geo":          s.Breakdown.Geo,
		})
	}
	if s.Reason != "" {
		text += "\n<i>" + escape(s.Reason) + "</i>"
	}
	return text
}

// formatAllocation renders the allocation dialog header, the match details of the shown AI
// suggestions and the conflict warnings of the selected employees.
func formatAllocation(
	p printer,
	project models.Project,
	seats allocation.Seats,
	mode allocation.Mode,
	total int,
	rows []allocationCandidate,
	criteria filter.EmployeeCriteria,
	conflicts map[int64][]allocation.Conflict,
	names map[int64]string,
) string {
	var sb strings.Builder
	sb.WriteString(p.F("alloc.title", map[string]any{"name": escape(project.Name)}))
	field(&sb, p, "label.team", seats.TeamSize()+" · "+formatNeed(p, seats))
	field(&sb, p, "label.mode", p.T("alloc.mode_"+string(mode)))
	if mode == allocation.ModeManual && filter.IsSet(criteria.Search) {
		field(&sb, p, "facet.search", escape(criteria.Search))
	}
	sb.WriteString("\n" + p.F("alloc.candidates", map[string]any{"count": total}))
	if total == 0 {
		sb.WriteString("\n" + p.T("alloc.no_candidates"))
	}
	for _, c := range rows {
		if c.Match != nil {
			sb.WriteString("\n\n" + formatMatch(p, c.Name, *c.Match))
		}
	}

	ids := make([]int64, 0, len(conflicts))
	for employeeID, found := range conflicts {
		if len(found) > 0 {
			ids = append(ids, employeeID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, employeeID := range ids {
		for _, c := range conflicts[employeeID] {
			sb.WriteString("\n⚠️ " + p.F("alloc.conflict", map[string]any{
				"name":    orNone(names[employeeID]),
				"project": escape(c.ProjectName()),
				"start":   formatDate(c.Allocation.StartDate),
				"end":     formatOptionalDate(p, c.Allocation.EndDate, false),
			}))
		}
	}
	sb.WriteString("\n\n" + p.T("alloc.hint"))
	return sb.String()
}
