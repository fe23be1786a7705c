package bot

import (
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/profile"
	"github.com/UnknownOlympus/talentfit/internal/session"
	"gopkg.in/telebot.v4"
)

const profilePromptPrefix = "profile.form."

var yesNo = []string{"Yes", "No"}

var profileSteps = []formStep[profile.Form]{
	{
		Field: "geo",
		Apply: func(f *profile.Form, answer string) error {
			geo, err := requireText(answer)
			f.Geo = geo
			return err
		},
		Current: func(f *profile.Form) string { return f.Geo },
	},
	{
		Field: "skills",
		Apply: func(f *profile.Form, answer string) error {
			skills := profile.ParseSkills(answer)
			if len(skills) == 0 {
				return errEmptyAnswer
			}
			f.Skills = skills
			return nil
		},
		Current: func(f *profile.Form) string { return strings.Join(f.Skills, ", ") },
	},
	{
		Field: "years_of_experience",
		Apply: func(f *profile.Form, answer string) error {
			years, err := profile.ParseYears(answer)
			if err != nil {
				return err
			}
			f.YearsOfExperience = years
			return nil
		},
		Current: func(f *profile.Form) string { return strconv.Itoa(f.YearsOfExperience) },
	},
	{
		Field:   "industry",
		Choices: models.Industries,
		Apply: func(f *profile.Form, answer string) error {
			industry, err := requireText(answer)
			f.Industry = industry
			return err
		},
		Current: func(f *profile.Form) string { return f.Industry },
	},
	{
		Field:   "employment_type",
		Choices: profile.EmploymentTypes,
		Apply: func(f *profile.Form, answer string) error {
			f.EmploymentType = strings.TrimSpace(answer)
			return nil
		},
		Current: func(f *profile.Form) string { return f.EmploymentType },
	},
	{
		Field:   "availability_flag",
		Choices: yesNo,
		Apply: func(f *profile.Form, answer string) error {
			available, err := profile.ParseYesNo(answer)
			if err != nil {
				return err
			}
			f.AvailabilityFlag = available
			return nil
		},
		Current: func(f *profile.Form) string {
			if f.AvailabilityFlag {
				return yesNo[0]
			}
			return yesNo[1]
		},
	},
	{
		Field:    "date_of_joining",
		Optional: true,
		Apply: func(f *profile.Form, answer string) error {
			date, err := profile.ParseDate(answer)
			if err != nil {
				return err
			}
			f.DateOfJoining = date.Format(time.DateOnly)
			return nil
		},
		Current: func(f *profile.Form) string { return f.DateOfJoining },
	},
}

// myProfileHandler shows the own profile of the user.
func (b *Bot) myProfileHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("my_profile").Inc()
	sess, _ := sessionFrom(ctx)
	p := b.printer(ctx)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	if sess.ProfileStatus == session.ProfileNeedsCreation {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(p.T("profile.needs_creation"), profileCreateKeyboard(p))
	}

	current, err := b.store.Profile(timeoutCtx, userID)
	if err != nil {
		b.log.Debug("Profile not cached, fetching from backend", "user", userID, "error", err)
		if current, err = b.backend.GetEmployee(timeoutCtx, sess.UserID); err != nil {
			b.log.Error("Failed to get employee profile", "user", userID, "error", err)
			return b.replyError(ctx, err)
		}
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(formatProfile(p, sess, current))
}

// myAssignmentsHandler lists the allocations of the user.
func (b *Bot) myAssignmentsHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("my_assignments").Inc()
	sess, _ := sessionFrom(ctx)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	startTime := time.Now()
	allocations, err := b.backend.GetEmployeeAllocations(timeoutCtx, sess.UserID)
	if err != nil {
		b.log.Error("Failed to get assignments", "user", ctx.Sender().ID, "error", err)
		return b.replyError(ctx, err)
	}
	b.log.Debug("Assignments loaded", "count", len(allocations), "took", time.Since(startTime))

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(formatAssignments(b.printer(ctx), allocations, b.now()))
}

// profileCreateHandler starts the profile creation dialog.
func (b *Bot) profileCreateHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("profile_create").Inc()

	state := UserState{
		WaitingFor: stateProfileForm,
		Creating:   true,
		Profile:    &profile.Form{AvailabilityFlag: true},
	}
	b.stateManager.Set(ctx.Sender().ID, state)
	return b.askProfileStep(ctx, state)
}

// editProfileHandler starts the profile edit dialog prefilled with the current profile.
func (b *Bot) editProfileHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("edit_profile").Inc()
	sess, _ := sessionFrom(ctx)

	if sess.ProfileStatus == session.ProfileNeedsCreation {
		return b.profileCreateHandler(ctx)
	}

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	current, err := b.store.Profile(timeoutCtx, userID)
	if err != nil {
		if current, err = b.backend.GetEmployee(timeoutCtx, sess.UserID); err != nil {
			b.log.Error("Failed to load profile for editing", "user", userID, "error", err)
			return b.replyError(ctx, err)
		}
	}

	form := profile.FromProfile(current)
	state := UserState{WaitingFor: stateProfileForm, Profile: &form}
	b.stateManager.Set(userID, state)
	return b.askProfileStep(ctx, state)
}

func (b *Bot) askProfileStep(ctx telebot.Context, state UserState) error {
	p := b.printer(ctx)
	step := profileSteps[state.Step]
	text, markup := stepPrompt(p, profilePromptPrefix, step, state.Profile, step.Optional || !state.Creating)
	return b.render(ctx, stepHeader(p, state.Step, len(profileSteps))+text, markup)
}

// profileAnswerHandler takes a typed answer of the profile dialog.
func (b *Bot) profileAnswerHandler(ctx telebot.Context) error {
	state, ok := b.stateManager.Peek(ctx.Sender().ID)
	if !ok || state.WaitingFor != stateProfileForm {
		return nil
	}

	answer := strings.TrimSpace(ctx.Text())
	step := profileSteps[state.Step]
	if answer == skipAnswer && (step.Optional || !state.Creating) {
		return b.advanceProfile(ctx, state)
	}
	return b.applyProfileAnswer(ctx, state, answer)
}

func (b *Bot) applyProfileAnswer(ctx telebot.Context, state UserState, answer string) error {
	form := *state.Profile
	if err := profileSteps[state.Step].Apply(&form, answer); err != nil {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		_ = ctx.Send("❌ " + b.t(ctx, "form.invalid_answer") + "\n" + escape(err.Error()))
		return b.askProfileStep(ctx, state)
	}
	state.Profile = &form
	return b.advanceProfile(ctx, state)
}

func (b *Bot) advanceProfile(ctx telebot.Context, state UserState) error {
	state.Step++
	if state.Step < len(profileSteps) {
		b.stateManager.Set(ctx.Sender().ID, state)
		return b.askProfileStep(ctx, state)
	}

	if errs := state.Profile.Validate(); errs != nil {
		state.Step = max(firstFailing(profileSteps, errs), 0)
		b.stateManager.Set(ctx.Sender().ID, state)
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		_ = ctx.Send(formatFieldErrors(b.printer(ctx), errs, stepFields(profileSteps)))
		return b.askProfileStep(ctx, state)
	}

	b.stateManager.Get(ctx.Sender().ID)
	if state.Creating {
		return b.submitNewProfile(ctx, *state.Profile)
	}
	return b.submitProfileEdit(ctx, *state.Profile)
}

func (b *Bot) submitNewProfile(ctx telebot.Context, form profile.Form) error {
	userID := ctx.Sender().ID
	sess, _ := sessionFrom(ctx)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	created, err := b.backend.CreateProfile(timeoutCtx, sess.UserID, form.Input())
	if err != nil {
		b.log.Error("Failed to create profile", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}

	if sess, err = b.store.CompleteProfile(timeoutCtx, userID, created); err != nil {
		b.log.Error("Failed to store created profile", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}

	b.log.Info("Profile created", "user", userID, "backend_user", sess.UserID)
	return b.showHome(ctx, sess, b.t(ctx, "profile.created"))
}

// submitProfileEdit applies the edit to the local session first, then to the backend.
func (b *Bot) submitProfileEdit(ctx telebot.Context, form profile.Form) error {
	userID := ctx.Sender().ID
	sess, _ := sessionFrom(ctx)

	timeoutCtx, cancel := b.apiContext(ctx, requestTimeout)
	defer cancel()

	if _, err := b.store.UpdateProfile(timeoutCtx, userID, session.Patch{
		Geo:      form.Geo,
		Industry: form.Industry,
		Skills:   form.Skills,
	}); err != nil {
		b.log.Error("Failed to update local profile", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}

	updated, err := b.backend.UpdateProfile(timeoutCtx, sess.UserID, form.Input())
	if err != nil {
		b.log.Error("Failed to update profile", "user", userID, "error", err)
		return b.replyError(ctx, err)
	}
	if _, err = b.store.CompleteProfile(timeoutCtx, userID, updated); err != nil {
		b.log.Warn("Failed to store updated profile", "user", userID, "error", err)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "profile.updated") + "\n\n" + formatProfile(b.printer(ctx), sess, updated))
}

// formChoiceHandler takes a choice button of whichever dialog is open.
func (b *Bot) formChoiceHandler(ctx telebot.Context) error {
	state, ok := b.stateManager.Peek(ctx.Sender().ID)
	if !ok {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	switch state.WaitingFor {
	case stateProfileForm:
		answer, err := choiceAnswer(profileSteps[state.Step].Choices, ctx.Data())
		if err != nil {
			return b.notify(ctx, b.t(ctx, "form.expired"))
		}
		return b.applyProfileAnswer(ctx, state, answer)
	case stateProjectForm:
		return b.protect(func(ctx telebot.Context) error {
			answer, err := choiceAnswer(projectSteps[state.Step].Choices, ctx.Data())
			if err != nil {
				return b.notify(ctx, b.t(ctx, "form.expired"))
			}
			return b.applyProjectAnswer(ctx, state, answer)
		})(ctx)
	case stateProjectEdit:
		step, found := stepByField(editSteps, state.Field)
		if !found {
			return b.notify(ctx, b.t(ctx, "form.expired"))
		}
		answer, err := choiceAnswer(step.Choices, ctx.Data())
		if err != nil {
			return b.notify(ctx, b.t(ctx, "form.expired"))
		}
		return b.applyProjectEdit(ctx, state, answer)
	default:
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
}

// formSkipHandler skips the current step of the open dialog.
func (b *Bot) formSkipHandler(ctx telebot.Context) error {
	state, ok := b.stateManager.Peek(ctx.Sender().ID)
	if !ok {
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}

	switch state.WaitingFor {
	case stateProfileForm:
		if !profileSteps[state.Step].Optional && state.Creating {
			return b.notify(ctx, b.t(ctx, "form.required"))
		}
		return b.advanceProfile(ctx, state)
	case stateProjectForm:
		if !projectSteps[state.Step].Optional {
			return b.notify(ctx, b.t(ctx, "form.required"))
		}
		return b.skipProjectStep(ctx, state)
	case stateProjectEdit:
		step, found := stepByField(editSteps, state.Field)
		if !found || !step.Optional {
			return b.notify(ctx, b.t(ctx, "form.required"))
		}
		return b.applyProjectEdit(ctx, state, "")
	default:
		return b.notify(ctx, b.t(ctx, "form.expired"))
	}
}
