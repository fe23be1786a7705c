package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/allocation"
	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/i18n"
	"github.com/UnknownOlympus/talentfit/internal/metrics"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/permissions"
	"github.com/UnknownOlympus/talentfit/internal/projects"
	"github.com/UnknownOlympus/talentfit/internal/repository"
	"github.com/UnknownOlympus/talentfit/internal/session"
	"github.com/redis/go-redis/v9"
	"gopkg.in/telebot.v4"
)

const (
	requestTimeout = 5 * time.Second
	reportTimeout  = 30 * time.Second
)

// Backend is the part of the Talent Fit REST client the bot uses.
type Backend interface {
	GetEmployee(ctx context.Context, id int64) (models.EmployeeProfile, error)
	GetEmployeeAllocations(ctx context.Context, id int64) ([]models.Allocation, error)
	ListEmployees(ctx context.Context, query talentfit.EmployeeQuery) ([]models.EmployeeProfile, error)
	CreateProfile(ctx context.Context, userID int64, input talentfit.ProfileInput) (models.EmployeeProfile, error)
	UpdateProfile(ctx context.Context, userID int64, input talentfit.ProfileInput) (models.EmployeeProfile, error)

	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (models.Project, error)
	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	UpdateProject(ctx context.Context, id int64, patch map[string]any) (models.Project, error)
	GetSuggestions(ctx context.Context, projectID int64) ([]models.Suggestion, error)
	GetProjectAllocations(ctx context.Context, projectID int64) ([]models.Allocation, error)
	CreateAllocations(
		ctx context.Context,
		projectID int64,
		requests []models.AllocationRequest,
	) ([]models.Allocation, error)

	DashboardMetrics(ctx context.Context) (models.DashboardMetrics, error)
	Notifications(ctx context.Context) ([]models.Notification, error)
}

// messenger sends messages outside of an update, for notifications.
type messenger interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Bot contains the bot API instance and everything the handlers need.
type Bot struct {
	bot         *telebot.Bot
	sender      messenger
	log         *slog.Logger
	repo        repository.Interface
	backend     Backend
	store       *session.Store
	redisClient *redis.Client
	metrics     *metrics.Metrics
	localizer   *i18n.Localizer

	stateManager *StateManager
	menus        *MenuBuilder
	views        *ViewTracker
	screens      *ScreenStore
	allocations  *allocation.Registry
	validator    *projects.Validator
	drafts       *projects.DraftService

	handlers      map[string]telebot.HandlerFunc
	webhookSecret string
	now           func() time.Time
}

// Option configures a Bot.
type Option func(*Bot)

// WithWebhookSecret sets the secret the notification webhook expects.
func WithWebhookSecret(secret string) Option {
	return func(b *Bot) { b.webhookSecret = secret }
}

// NewBot creates a new bot with the given token.
func NewBot(
	log *slog.Logger,
	repo repository.Interface,
	backend Backend,
	store *session.Store,
	redisClient *redis.Client,
	metrics *metrics.Metrics,
	token string,
	poller time.Duration,
	opts ...Option,
) (*Bot, error) {
	localizer, err := i18n.NewLocalizer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize localizer: %w", err)
	}

	botInstance := newBot(log, repo, backend, store, redisClient, metrics, localizer)
	for _, opt := range opts {
		opt(botInstance)
	}

	api, err := telebot.NewBot(telebot.Settings{
		Token:     token,
		Poller:    &telebot.LongPoller{Timeout: poller},
		ParseMode: telebot.ModeHTML,
		OnError:   botInstance.onError,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", api.Me.Username)

	botInstance.bot = api
	botInstance.sender = api
	botInstance.registerRoutes()

	return botInstance, nil
}

// newBot wires the in-process components. The Telegram API is attached by NewBot.
func newBot(
	log *slog.Logger,
	repo repository.Interface,
	backend Backend,
	store *session.Store,
	redisClient *redis.Client,
	metrics *metrics.Metrics,
	localizer *i18n.Localizer,
) *Bot {
	b := &Bot{
		log:          log,
		repo:         repo,
		backend:      backend,
		store:        store,
		redisClient:  redisClient,
		metrics:      metrics,
		localizer:    localizer,
		stateManager: NewStateManager(),
		views:        NewViewTracker(),
		screens:      NewScreenStore(),
		allocations:  allocation.NewRegistry(),
		validator:    projects.NewValidator(),
		drafts:       projects.NewDraftService(repo, repo, log),
		now:          time.Now,
	}
	b.menus = NewMenuBuilder(localizer, log)
	return b
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures commands, inline callbacks and the menu button handlers.
func (b *Bot) registerRoutes() {
	b.bot.Use(b.LanguageMiddleware)

	authed := b.SessionMiddleware
	manager := func(c permissions.Capability) telebot.MiddlewareFunc { return b.RequireCapability(c) }

	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/login", b.loginHandler)
	b.bot.Handle("/help", b.helpHandler)
	b.bot.Handle("/cancel", b.cancelHandler)
	b.bot.Handle(telebot.OnText, b.routeTextHandler)
	b.bot.Handle("\f"+cbRetryProfile, b.retryProfileHandler)
	b.bot.Handle("\f"+cbLanguage, b.languageChangeHandler, authed)

	// Signed-in routes.
	b.bot.Handle("/logout", b.logoutHandler, authed)
	b.bot.Handle("/language", b.languageHandler, authed)
	b.bot.Handle("/menu", b.homeHandler, authed)
	b.bot.Handle("\f"+cbProfileCreate, b.profileCreateHandler, authed)
	b.bot.Handle("\f"+cbFormChoice, b.formChoiceHandler, authed)
	b.bot.Handle("\f"+cbFormSkip, b.formSkipHandler, authed)

	// Manager routes.
	b.bot.Handle("/projects", b.projectsCommandHandler, authed, manager(permissions.CreateProjects))
	for unique, handler := range map[string]telebot.HandlerFunc{
		cbProjectFacet:  b.projectFacetHandler,
		cbProjectValue:  b.projectFacetValueHandler,
		cbProjectClear:  b.projectClearHandler,
		cbProjectShare:  b.projectShareHandler,
		cbProjectPage:   b.projectPageHandler,
		cbProjectSort:   b.projectSortHandler,
		cbProjectSearch: b.projectSearchHandler,
		cbProjectList:   b.projectListHandler,
		cbProjectCard:   b.projectCardHandler,
		cbProjectEdit:   b.projectEditHandler,
		cbEditField:     b.projectEditFieldHandler,
		cbEditConfirm:   b.projectEditConfirmHandler,
		cbEditCancel:    b.projectEditCancelHandler,
		cbProjectHist:   b.projectHistoryHandler,
		cbFormCreate:    b.projectCreateHandler,
		cbFormSave:      b.projectSaveDraftHandler,
		cbFormCancel:    b.projectFormCancelHandler,
		cbDrafts:        b.draftsHandler,
		cbDraftResume:   b.draftResumeHandler,
		cbDraftDelete:   b.draftDeleteHandler,
		cbExportProj:    b.exportProjectsHandler,
	} {
		b.bot.Handle("\f"+unique, handler, authed, manager(permissions.CreateProjects))
	}

	b.bot.Handle("/employees", b.employeesCommandHandler, authed, manager(permissions.ViewAllEmployees))
	for unique, handler := range map[string]telebot.HandlerFunc{
		cbEmployeeCard:  b.employeeCardHandler,
		cbEmployeeFacet: b.employeeFacetHandler,
		cbEmployeePage:  b.employeePageHandler,
		cbEmployeePick:  b.employeePickHandler,
		cbEmployeeValue: b.employeeValueHandler,
		cbEmployeeClear: b.employeeClearHandler,
		cbEmployeeShare: b.employeeShareHandler,
		cbEmployeeList:  b.employeeListHandler,
	} {
		b.bot.Handle("\f"+unique, handler, authed, manager(permissions.ViewAllEmployees))
	}

	for unique, handler := range map[string]telebot.HandlerFunc{
		cbAllocOpen:   b.allocationOpenHandler,
		cbAllocMode:   b.allocationModeHandler,
		cbAllocToggle: b.allocationToggleHandler,
		cbAllocStart:  b.allocationStartHandler,
		cbAllocEnd:    b.allocationEndHandler,
		cbAllocOpenEn: b.allocationOpenEndedHandler,
		cbAllocPage:   b.allocationPageHandler,
		cbAllocSearch: b.allocationSearchHandler,
		cbAllocClear:  b.allocationClearHandler,
		cbAllocSubmit: b.allocationSubmitHandler,
		cbAllocClose:  b.allocationCloseHandler,
		cbAllocNoop:   b.allocationNoopHandler,
		cbExportAlloc: b.exportAllocationsHandler,
	} {
		b.bot.Handle("\f"+unique, handler, authed, manager(permissions.AllocateResources))
	}

	b.handlers = b.menuHandlers()
}

// menuHandlers maps the Handler names of menu buttons to their handlers,
// wrapped with the checks the button declares.
func (b *Bot) menuHandlers() map[string]telebot.HandlerFunc {
	return map[string]telebot.HandlerFunc{
		handlerLogin:       b.loginHandler,
		handlerHelp:        b.helpHandler,
		handlerBack:        b.backHandler,
		handlerLogout:      b.protect(b.logoutHandler),
		handlerLanguage:    b.protect(b.languageHandler),
		handlerMyProfile:   b.protect(b.myProfileHandler, permissions.ViewOwnProfile),
		handlerAssignments: b.protect(b.myAssignmentsHandler, permissions.ViewOwnProfile),
		handlerEditProfile: b.protect(b.editProfileHandler, permissions.EditOwnProfile),
		handlerDashboard:   b.protect(b.dashboardHandler, permissions.ViewAnalytics),
		handlerProjects:    b.protect(b.projectsHandler, permissions.CreateProjects),
		handlerEmployees:   b.protect(b.employeesHandler, permissions.ViewAllEmployees),
		handlerNewProject:  b.protect(b.newProjectHandler, permissions.CreateProjects),
		handlerExport:      b.protect(b.exportHandler, permissions.ViewAnalytics),
	}
}

// lang returns the language picked by LanguageMiddleware for this update.
func (b *Bot) lang(c telebot.Context) string {
	if lang, ok := c.Get(keyLanguage).(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}

// resolveLanguage reads the saved language preference of the user. Accounts that are
// not linked yet follow their Telegram client language.
func (b *Bot) resolveLanguage(ctx context.Context, c telebot.Context) string {
	userID := c.Sender().ID

	startTime := time.Now()
	lang, err := b.repo.GetUserLanguage(ctx, userID)
	b.metrics.DBQueryDuration.WithLabelValues("get_user_language").Observe(time.Since(startTime).Seconds())
	switch {
	case err == nil:
		return lang
	case errors.Is(err, repository.ErrUserNotFound):
		if code := c.Sender().LanguageCode; code != "" {
			return i18n.NormalizeLanguageCode(code)
		}
	default:
		b.log.WarnContext(ctx, "Failed to get user language, using default", "error", err, "user", userID)
	}
	return i18n.DefaultLanguage
}

// printer returns the translator for the language of the update.
func (b *Bot) printer(c telebot.Context) printer {
	return printer{loc: b.localizer, lang: b.lang(c)}
}

// t is a shorthand method for getting translations.
func (b *Bot) t(c telebot.Context, key string) string {
	return b.localizer.Get(b.lang(c), key)
}

// tWithData is a shorthand method for getting translations with placeholder data.
func (b *Bot) tWithData(c telebot.Context, key string, data map[string]any) string {
	return b.localizer.GetWithData(b.lang(c), key, data)
}

// printer translates keys for one language. Formatters take it so they stay pure.
type printer struct {
	loc  *i18n.Localizer
	lang string
}

func (p printer) T(key string) string {
	return p.loc.Get(p.lang, key)
}

func (p printer) F(key string, data map[string]any) string {
	return p.loc.GetWithData(p.lang, key, data)
}
