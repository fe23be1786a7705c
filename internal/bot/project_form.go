package bot

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/allocation"
	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/profile"
	"github.com/UnknownOlympus/talentfit/internal/projects"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/telebot.v4"
)

const (
	projectPromptPrefix = "project.form."
	// fieldFixup marks a form reopened at a failing field, which returns to review.
	fieldFixup = "fixup"

	projectsCacheKey  = "projects:list"
	dashboardCacheKey = "dashboard:metrics"
)

var projectSteps = []formStep[projects.Input]{
	{
		Field: "name",
		Apply: func(in *projects.Input, answer string) error {
			name, err := requireText(answer)
			in.Name = name
			return err
		},
		Current: func(in *projects.Input) string { return in.Name },
	},
	{
		Field: "description",
		Apply: func(in *projects.Input, answer string) error {
			description, err := requireText(answer)
			in.Description = description
			return err
		},
		Current: func(in *projects.Input) string { return in.Description },
	},
	{
		Field:    "client_name",
		Optional: true,
		Apply: func(in *projects.Input, answer string) error {
			in.ClientName = strings.TrimSpace(answer)
			return nil
		},
		Current: func(in *projects.Input) string { return in.ClientName },
	},
	{
		Field: "required_seats",
		Apply: func(in *projects.Input, answer string) error {
			seats, err := parseCount(answer)
			in.RequiredSeats = seats
			return err
		},
		Current: func(in *projects.Input) string { return countOrEmpty(in.RequiredSeats) },
	},
	{
		Field:    "seats_by_type",
		Optional: true,
		Apply: func(in *projects.Input, answer string) error {
			seats, err := parseSeatsByType(answer)
			if err != nil {
				return err
			}
			in.SeatsByType = seats
			return nil
		},
		Current: func(in *projects.Input) string { return seatsByTypeText(in.SeatsByType) },
	},
	{
		Field: "start_date",
		Apply: func(in *projects.Input, answer string) error {
			date, err := profile.ParseDate(answer)
			if err != nil {
				return err
			}
			in.StartDate = date
			return nil
		},
		Current: func(in *projects.Input) string { return dateOrEmpty(in.StartDate) },
	},
	{
		Field: "end_date",
		Apply: func(in *projects.Input, answer string) error {
			date, err := profile.ParseDate(answer)
			if err != nil {
				return err
			}
			in.EndDate = date
			return nil
		},
		Current: func(in *projects.Input) string { return dateOrEmpty(in.EndDate) },
	},
	{
		Field:   "priority",
		Choices: priorityChoices(),
		Apply: func(in *projects.Input, answer string) error {
			priority := models.Priority(strings.ToLower(strings.TrimSpace(answer)))
			if !models.ValidPriority(priority) {
				return fmt.Errorf("%w: priority is one of high, medium, low", profile.ErrInvalidAnswer)
			}
			in.Priority = priority
			return nil
		},
		Current: func(in *projects.Input) string { return string(in.Priority) },
	},
	{
		Field:    "required_skills",
		Optional: true,
		Apply: func(in *projects.Input, answer string) error {
			in.RequiredSkills = profile.ParseSkills(answer)
			return nil
		},
		Current: func(in *projects.Input) string { return strings.Join(in.RequiredSkills, ", ") },
	},
	{
		Field:    "role_type",
		Optional: true,
		Choices:  models.RoleTypes,
		Apply: func(in *projects.Input, answer string) error {
			in.RoleType = strings.TrimSpace(answer)
			return nil
		},
		Current: func(in *projects.Input) string { return in.RoleType },
	},
	{
		Field:    "industry",
		Optional: true,
		Choices:  models.Industries,
		Apply: func(in *projects.Input, answer string) error {
			in.Industry = strings.TrimSpace(answer)
			return nil
		},
		Current: func(in *projects.Input) string { return in.Industry },
	},
	{
		Field:    "geo_preference",
		Optional: true,
		Apply: func(in *projects.Input, answer string) error {
			in.GeoPreference = strings.TrimSpace(answer)
			return nil
		},
		Current: func(in *projects.Input) string { return in.GeoPreference },
	},
	{
		Field:    "budget",
		Optional: true,
		Apply: func(in *projects.Input, answer string) error {
			budget, err := parseBudget(answer)
			if err != nil {
				return err
			}
			in.Budget = budget
			return nil
		},
		Current: func(in *projects.Input) string {
			if !in.Budget.Valid {
				return ""
			}
			return formatBudget(in.Budget)
		},
	},
}

// editSteps are the fields an existing project can change, status included.
var editSteps = append(slices.Clone(projectSteps), formStep[projects.Input]{
	Field:   "status",
	Choices: statusChoices(),
	Apply: func(in *projects.Input, answer string) error {
		for _, status := range models.ProjectStatuses {
			if strings.EqualFold(string(status), strings.TrimSpace(answer)) {
				in.Status = status
				return nil
			}
		}
		return fmt.Errorf("%w: unknown status %q", profile.ErrInvalidAnswer, answer)
	},
	Current: func(in *projects.Input) string { return string(in.Status) },
})

var editableFields = stepFields(editSteps)

func priorityChoices() []string {
	choices := make([]string, 0, len(models.Priorities))
	for _, p := range models.Priorities {
		choices = append(choices, string(p))
	}
	return choices
}

func statusChoices() []string {
	choices := make([]string, 0, len(models.ProjectStatuses))
	for _, s := range models.ProjectStatuses {
		choices = append(choices, string(s))
	}
	return choices
}

func parseCount(answer string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", profile.ErrInvalidAnswer, answer)
	}
	return n, nil
}

// parseSeatsByType reads "Frontend=2, Backend=3". Known role types are matched
// case-insensitively. An empty answer clears the breakdown.
func parseSeatsByType(answer string) (map[string]int, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, nil
	}

	seats := make(map[string]int)
	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, count, found := strings.Cut(part, "=")
		if !found {
			role, count, found = strings.Cut(part, ":")
		}
		role = canonicalRole(strings.TrimSpace(role))
		if !found || role == "" {
			return nil, fmt.Errorf("%w: expected Role=count, got %q", profile.ErrInvalidAnswer, part)
		}
		n, err := parseCount(count)
		if err != nil {
			return nil, err
		}
		seats[role] += n
	}
	return seats, nil
}

func canonicalRole(role string) string {
	for _, known := range models.RoleTypes {
		if strings.EqualFold(known, role) {
			return known
		}
	}
	return role
}

func seatsByTypeText(seats map[string]int) string {
	roles := make([]string, 0, len(seats))
	for role := range seats {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	parts := make([]string, 0, len(roles))
	for _, role := range roles {
		parts = append(parts, role+"="+strconv.Itoa(seats[role]))
	}
	return strings.Join(parts, ", ")
}

// parseBudget accepts amounts like 250000, $250,000 or 1200.50.
func parseBudget(answer string) (decimal.NullDecimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(answer)
	if cleaned == "" {
		return decimal.NullDecimal{}, nil
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q is not an amount", profile.ErrInvalidAnswer, answer)
	}
	return decimal.NewNullDecimal(amount), nil
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func countOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func parseID(data string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse id %q: %w", data, err)
	}
	return id, nil
}

// newProjectHandler starts the project creation dialog.
func (b *Bot) newProjectHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("new_project").Inc()

	state := UserState{WaitingFor: stateProjectForm, Creating: true, Project: &projects.Input{}}
	b.stateManager.Set(ctx.Sender().ID, state)
	return b.askProjectStep(ctx, state)
}

func (b *Bot) askProjectStep(ctx telebot.Context, state UserState) error {
	p := b.printer(ctx)
	step := projectSteps[state.Step]
	text, markup := stepPrompt(p, projectPromptPrefix, step, state.Project, step.Optional)
	return b.render(ctx, stepHeader(p, state.Step, len(projectSteps))+text, markup)
}

// projectAnswerHandler takes a typed answer of the project form.
func (b *Bot) projectAnswerHandler(ctx telebot.Context) error {
	state, ok := b.stateManager.Peek(ctx.Sender().ID)
	if !ok || state.WaitingFor != stateProjectForm {
		return nil
	}

	answer := strings.TrimSpace(ctx.Text())
	if answer == skipAnswer && projectSteps[state.Step].Optional {
		return b.skipProjectStep(ctx, state)
	}
	return b.applyProjectAnswer(ctx, state, answer)
}

// skipProjectStep leaves an optional field as it is, or clears it when the form was
// reopened to fix that field.
func (b *Bot) skipProjectStep(ctx telebot.Context, state UserState) error {
	if state.Field == fieldFixup {
		return b.applyProjectAnswer(ctx, state, "")
	}
	return b.advanceProject(ctx, state)
}

func (b *Bot) applyProjectAnswer(ctx telebot.Context, state UserState, answer string) error {
	in := *state.Project
	if err := projectSteps[state.Step].Apply(&in, answer); err != nil {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		_ = ctx.Send("❌ " + b.t(ctx, "form.invalid_answer") + "\n" + escape(err.Error()))
		return b.askProjectStep(ctx, state)
	}
	state.Project = &in
	return b.advanceProject(ctx, state)
}

func (b *Bot) advanceProject(ctx telebot.Context, state UserState) error {
	if state.Field == fieldFixup {
		return b.reviewProject(ctx, state)
	}

	state.Step++
	if state.Step < len(projectSteps) {
		b.stateManager.Set(ctx.Sender().ID, state)
		return b.askProjectStep(ctx, state)
	}
	return b.reviewProject(ctx, state)
}

// reviewProject normalizes and validates the filled form. A valid form is shown for
// review, an invalid one reopens at the first failing field.
func (b *Bot) reviewProject(ctx telebot.Context, state UserState) error {
	p := b.printer(ctx)
	normalized, notes := projects.Normalize(*state.Project)

	if errs := b.validator.Validate(normalized); errs != nil {
		state.WaitingFor = stateProjectForm
		state.Step = max(firstFailing(projectSteps, errs), 0)
		state.Field = fieldFixup
		b.stateManager.Set(ctx.Sender().ID, state)

		b.metrics.SentMessages.WithLabelValues("text").Inc()
		_ = ctx.Send(formatFieldErrors(p, errs, stepFields(projectSteps)))
		return b.askProjectStep(ctx, state)
	}

	state.WaitingFor = stateProjectReview
	state.Field = ""
	state.Project = &normalized
	b.stateManager.Set(ctx.Sender().ID, state)
	return b.render(ctx, formatReview(p, normalized, notes), reviewKeyboard(p))
}

// projectCreateHandler sends the reviewed form to the backend. When the backend cannot
// be reached the form is kept as a draft.
func (b *Bot) projectCreateHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("project_create").Inc()

	state, ok := b.stateManager.Peek(userID)
	if !ok || state.WaitingFor != stateProjectReview || state.Project == nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	created, err := b.backend.CreateProject(timeoutCtx, state.Project.Project())
	if err != nil {
		b.log.Error("Failed to create project", "user", userID, "error", err)
		if errors.Is(err, talentfit.ErrNetwork) || errors.Is(err, talentfit.ErrServer) {
			return b.keepAsDraft(ctx, state, err)
		}
		return b.replyError(ctx, err)
	}
	b.stateManager.Get(userID)

	if state.DraftID != uuid.Nil {
		sess, _ := sessionFrom(ctx)
		if err = b.drafts.Discard(timeoutCtx, sess.UserID, state.DraftID); err != nil {
			b.log.Warn("Failed to discard sent draft", "draft", state.DraftID, "error", err)
		}
	}
	b.invalidate(timeoutCtx, projectsCacheKey, dashboardCacheKey)
	b.log.Info("Project created", "user", userID, "project", created.ID)

	p := b.printer(ctx)
	seats := allocation.Seats{Required: created.RequiredSeats}
	text := "✅ " + p.T("form.created") + "\n\n" + formatProjectCard(p, created, seats, b.now())
	return b.render(ctx, text, projectCardKeyboard(p, created.ID))
}

func (b *Bot) keepAsDraft(ctx telebot.Context, state UserState, cause error) error {
	sess, _ := sessionFrom(ctx)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	draft, err := b.drafts.SaveDraft(timeoutCtx, sess.UserID, state.DraftID, *state.Project)
	if err != nil {
		b.log.Error("Failed to keep unsent project as draft", "user", ctx.Sender().ID, "error", err)
		return b.replyError(ctx, cause)
	}
	b.stateManager.Get(ctx.Sender().ID)

	p := b.printer(ctx)
	b.log.Info("Unsent project kept as draft", "user", ctx.Sender().ID, "draft", draft.ID)
	return b.render(ctx, "⚠️ "+p.T(errorKey(cause))+"\n"+p.T("form.saved_offline"),
		inline(telebot.Row{button(p.T("projects.drafts"), cbDrafts)}))
}

// projectSaveDraftHandler keeps the reviewed form without sending it.
func (b *Bot) projectSaveDraftHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	sess, _ := sessionFrom(ctx)

	state, ok := b.stateManager.Peek(userID)
	if !ok || state.WaitingFor != stateProjectReview || state.Project == nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	if _, err := b.drafts.SaveDraft(timeoutCtx, sess.UserID, state.DraftID, *state.Project); err != nil {
		b.log.Error("Failed to save draft", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}
	b.stateManager.Get(userID)

	p := b.printer(ctx)
	return b.render(ctx, p.T("form.draft_saved"), inline(telebot.Row{button(p.T("projects.drafts"), cbDrafts)}))
}

func (b *Bot) projectFormCancelHandler(ctx telebot.Context) error {
	b.stateManager.Get(ctx.Sender().ID)
	return b.render(ctx, b.t(ctx, "dialog.cancelled"), nil)
}

// draftsHandler lists the unsent project forms of the manager.
func (b *Bot) draftsHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("drafts").Inc()
	sess, _ := sessionFrom(ctx)
	p := b.printer(ctx)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	drafts, err := b.drafts.Drafts(timeoutCtx, sess.UserID)
	if err != nil {
		b.log.Error("Failed to load drafts", "user", ctx.Sender().ID, "error", err)
		return b.replyError(ctx, err)
	}

	if len(drafts) == 0 {
		return b.render(ctx, p.T("drafts.empty"), inline(telebot.Row{button(p.T("nav.back"), cbProjectList)}))
	}

	var sb strings.Builder
	sb.WriteString(p.F("drafts.title", map[string]any{"count": len(drafts)}))
	for _, draft := range drafts {
		name := draft.Project.Name
		if name == "" {
			name = p.T("drafts.untitled")
		}
		fmt.Fprintf(&sb, "\n• <b>%s</b> · %s", escape(name), draft.SavedAt.Format(timestampStyle))
	}
	return b.render(ctx, sb.String(), draftsKeyboard(p, drafts))
}

// draftResumeHandler reopens a draft at the review step.
func (b *Bot) draftResumeHandler(ctx telebot.Context) error {
	sess, _ := sessionFrom(ctx)

	id, err := uuid.Parse(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	drafts, err := b.drafts.Drafts(timeoutCtx, sess.UserID)
	if err != nil {
		b.log.Error("Failed to load drafts", "user", ctx.Sender().ID, "error", err)
		return b.replyError(ctx, err)
	}

	idx := slices.IndexFunc(drafts, func(d models.Draft) bool { return d.ID == id })
	if idx < 0 {
		return b.notify(ctx, b.t(ctx, "drafts.gone"))
	}

	in := projects.FromProject(drafts[idx].Project)
	return b.reviewProject(ctx, UserState{
		WaitingFor: stateProjectForm,
		Creating:   true,
		DraftID:    id,
		Project:    &in,
	})
}

func (b *Bot) draftDeleteHandler(ctx telebot.Context) error {
	sess, _ := sessionFrom(ctx)

	id, err := uuid.Parse(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	if err = b.drafts.Discard(timeoutCtx, sess.UserID, id); err != nil {
		b.log.Error("Failed to delete draft", "user", ctx.Sender().ID, "draft", id, "error", err)
		return b.replyError(ctx, err)
	}
	return b.draftsHandler(ctx)
}

// projectEditHandler asks which field of a project to change.
func (b *Bot) projectEditHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("project_edit").Inc()

	projectID, err := parseID(ctx.Data())
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	p := b.printer(ctx)
	return b.render(ctx, p.T("edit.pick_field"), editFieldsKeyboard(p, projectID))
}

// projectEditFieldHandler opens the prompt for one field of a project.
func (b *Bot) projectEditFieldHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) < 2 {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	projectID, err := parseID(args[0])
	if err != nil {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
	step, ok := stepByField(editSteps, args[1])
	if !ok {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	project, err := b.backend.GetProject(timeoutCtx, projectID)
	if err != nil {
		b.log.Error("Failed to load project for editing", "project", projectID, "error", err)
		return b.replyError(ctx, err)
	}

	in := projects.FromProject(project)
	state := UserState{WaitingFor: stateProjectEdit, ProjectID: projectID, Field: step.Field, Project: &in}
	b.stateManager.Set(ctx.Sender().ID, state)
	return b.askEditValue(ctx, state, project.Name)
}

func (b *Bot) askEditValue(ctx telebot.Context, state UserState, name string) error {
	p := b.printer(ctx)
	step, _ := stepByField(editSteps, state.Field)
	text, markup := stepPrompt(p, projectPromptPrefix, step, state.Project, step.Optional)
	header := p.F("edit.title", map[string]any{"name": escape(name)}) + "\n"
	return b.render(ctx, header+text, markup)
}

// projectEditValueHandler takes the typed new value of the edited field.
func (b *Bot) projectEditValueHandler(ctx telebot.Context) error {
	state, ok := b.stateManager.Peek(ctx.Sender().ID)
	if !ok || state.WaitingFor != stateProjectEdit {
		return nil
	}

	answer := strings.TrimSpace(ctx.Text())
	if step, found := stepByField(editSteps, state.Field); found && step.Optional && answer == skipAnswer {
		answer = ""
	}
	return b.applyProjectEdit(ctx, state, answer)
}

// applyProjectEdit applies the new value and asks to confirm the resulting diff.
func (b *Bot) applyProjectEdit(ctx telebot.Context, state UserState, answer string) error {
	userID := ctx.Sender().ID
	p := b.printer(ctx)

	step, ok := stepByField(editSteps, state.Field)
	if !ok {
		b.stateManager.Get(userID)
		return b.notify(ctx, p.T("form.expired"))
	}

	in := *state.Project
	if err := step.Apply(&in, answer); err != nil {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		_ = ctx.Send("❌ " + p.T("form.invalid_answer") + "\n" + escape(err.Error()))
		return b.askEditValue(ctx, state, in.Name)
	}
	normalized, _ := projects.Normalize(in)
	if errs := b.validator.Validate(normalized); errs != nil {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		_ = ctx.Send(formatFieldErrors(p, errs, editableFields))
		return b.askEditValue(ctx, state, in.Name)
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	before, err := b.backend.GetProject(timeoutCtx, state.ProjectID)
	if err != nil {
		b.log.Error("Failed to load project for diff", "project", state.ProjectID, "error", err)
		return b.replyError(ctx, err)
	}
	patch, err := projects.Diff(before, editedProject(before, normalized))
	if err != nil {
		b.log.Error("Failed to diff project", "project", state.ProjectID, "error", err)
		return b.replyError(ctx, err)
	}
	if len(patch) == 0 {
		b.stateManager.Get(userID)
		return b.render(ctx, p.T("edit.no_changes"), projectCardKeyboard(p, state.ProjectID))
	}

	token := uuid.New()
	state.WaitingFor = stateEditConfirm
	state.DraftID = token
	state.Project = &normalized
	b.stateManager.Set(userID, state)

	text := p.F("edit.review", map[string]any{"name": escape(before.Name)}) +
		formatChanges(p, projects.Changes(patch))
	return b.render(ctx, text, editConfirmKeyboard(p, token.String()))
}

// editedProject applies the form onto a stored project. Bookkeeping fields stay, and the
// stored duration is kept while the dates do not change.
func editedProject(before models.Project, in projects.Input) models.Project {
	after := in.Project()
	after.ID = before.ID
	after.Summary = before.Summary
	after.Progress = before.Progress
	after.CreatedAt = before.CreatedAt
	after.UpdatedAt = before.UpdatedAt
	if after.StartDate.Equal(before.StartDate) && after.EndDate.Equal(before.EndDate) {
		after.DurationWeeks = before.DurationWeeks
	}
	return after
}

// projectEditConfirmHandler sends the confirmed edit and records it in the history.
// The diff is taken again against the current project.
func (b *Bot) projectEditConfirmHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	sess, _ := sessionFrom(ctx)
	p := b.printer(ctx)

	state, ok := b.stateManager.Peek(userID)
	if !ok || state.WaitingFor != stateEditConfirm || state.DraftID.String() != ctx.Data() {
		return b.notify(ctx, p.T("form.expired"))
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	before, err := b.backend.GetProject(timeoutCtx, state.ProjectID)
	if err != nil {
		b.log.Error("Failed to load project", "project", state.ProjectID, "error", err)
		return b.replyError(ctx, err)
	}
	patch, err := projects.Diff(before, editedProject(before, *state.Project))
	if err != nil {
		return b.replyError(ctx, err)
	}
	if len(patch) == 0 {
		b.stateManager.Get(userID)
		return b.render(ctx, p.T("edit.no_changes"), projectCardKeyboard(p, state.ProjectID))
	}

	body, err := projects.PatchBody(editedProject(before, *state.Project), patch)
	if err != nil {
		return b.replyError(ctx, err)
	}
	updated, err := b.backend.UpdateProject(timeoutCtx, state.ProjectID, body)
	if err != nil {
		b.log.Error("Failed to update project", "project", state.ProjectID, "error", err)
		return b.replyError(ctx, err)
	}
	b.stateManager.Get(userID)
	b.invalidate(timeoutCtx, projectsCacheKey, dashboardCacheKey)

	if _, err = b.drafts.RecordChange(timeoutCtx, state.ProjectID, sess.UserID, patch); err != nil {
		b.log.Error("Failed to record project change", "project", state.ProjectID, "error", err)
	}
	b.log.Info("Project updated", "user", userID, "project", state.ProjectID, "fields", len(body))

	allocations, err := b.backend.GetProjectAllocations(timeoutCtx, state.ProjectID)
	if err != nil {
		b.log.Warn("Failed to load allocations for card", "project", state.ProjectID, "error", err)
	}
	seats := allocation.SeatSummary(updated, allocations, b.now())
	text := "✅ " + p.T("edit.saved") + "\n\n" + formatProjectCard(p, updated, seats, b.now())
	return b.render(ctx, text, projectCardKeyboard(p, updated.ID))
}

func (b *Bot) projectEditCancelHandler(ctx telebot.Context) error {
	state, ok := b.stateManager.Peek(ctx.Sender().ID)
	if ok && state.WaitingFor == stateEditConfirm && state.DraftID.String() == ctx.Data() {
		b.stateManager.Get(ctx.Sender().ID)
		p := b.printer(ctx)
		return b.render(ctx, p.T("edit.cancelled"), projectCardKeyboard(p, state.ProjectID))
	}
	return b.render(ctx, b.t(ctx, "edit.cancelled"), nil)
}
