package bot

import (
	"strconv"

	"github.com/UnknownOlympus/talentfit/internal/allocation"
	"github.com/UnknownOlympus/talentfit/internal/filter"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"gopkg.in/telebot.v4"
)

// Inline button uniques. Telegram routes them by the [-\w]+ prefix of the callback data.
const (
	cbRetryProfile  = "retry_profile"
	cbLanguage      = "lang"
	cbProfileCreate = "profile_create"
	cbFormChoice    = "form_choice"
	cbFormSkip      = "form_skip"

	cbProjectFacet  = "pfacet"
	cbProjectValue  = "pvalue"
	cbProjectClear  = "pclear"
	cbProjectShare  = "pshare"
	cbProjectPage   = "ppage"
	cbProjectSort   = "psort"
	cbProjectSearch = "psearch"
	cbProjectList   = "plist"
	cbProjectCard   = "pcard"
	cbProjectEdit   = "pedit"
	cbEditField     = "pedit_field"
	cbEditConfirm   = "pedit_ok"
	cbEditCancel    = "pedit_no"
	cbProjectHist   = "phistory"
	cbFormCreate    = "pform_create"
	cbFormSave      = "pform_save"
	cbFormCancel    = "pform_cancel"
	cbDrafts        = "drafts"
	cbDraftResume   = "draft_resume"
	cbDraftDelete   = "draft_delete"
	cbExportProj    = "export_projects"

	cbEmployeeCard  = "ecard"
	cbEmployeeFacet = "efacet"
	cbEmployeePage  = "epage"
	cbEmployeePick  = "epick"
	cbEmployeeValue = "evalue"
	cbEmployeeClear = "eclear"
	cbEmployeeShare = "eshare"
	cbEmployeeList  = "elist"

	cbAllocOpen   = "alloc"
	cbAllocMode   = "alloc_mode"
	cbAllocToggle = "alloc_toggle"
	cbAllocStart  = "alloc_start"
	cbAllocEnd    = "alloc_end"
	cbAllocOpenEn = "alloc_open_end"
	cbAllocPage   = "alloc_page"
	cbAllocSearch = "alloc_search"
	cbAllocClear  = "alloc_clear"
	cbAllocSubmit = "alloc_submit"
	cbAllocClose  = "alloc_close"
	cbAllocNoop   = "alloc_noop"
	cbExportAlloc = "export_alloc"
)

const (
	// callbackDataLimit is the Telegram limit for callback_data, prefix included.
	callbackDataLimit = 64
	pageSize          = 5
	choiceColumns     = 2
)

// button builds an inline button. Data parts are joined with "|".
func button(text, unique string, data ...string) telebot.Btn {
	return (&telebot.ReplyMarkup{}).Data(text, unique, data...)
}

// fits reports whether the button data stays within the callback_data limit.
func fits(btn telebot.Btn) bool {
	size := len("\f") + len(btn.Unique)
	if btn.Data != "" {
		size += len("|") + len(btn.Data)
	}
	return size <= callbackDataLimit
}

func inline(rows ...telebot.Row) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.Inline(rows...)
	return markup
}

func idArg(value int64) string {
	return strconv.FormatInt(value, 10)
}

// page is one page of a list.
type page[T any] struct {
	Items []T
	Index int
	Total int
}

// paginate cuts items into pages of size and clamps index into range.
func paginate[T any](items []T, index, size int) page[T] {
	total := max((len(items)+size-1)/size, 1)
	index = min(max(index, 0), total-1)
	start := index * size
	end := min(start+size, len(items))
	return page[T]{Items: items[start:end], Index: index, Total: total}
}

// pagerRow returns the prev/position/next row, or nil for a single page.
func pagerRow[T any](pg page[T], unique string) telebot.Row {
	if pg.Total <= 1 {
		return nil
	}
	row := telebot.Row{}
	if pg.Index > 0 {
		row = append(row, button("«", unique, strconv.Itoa(pg.Index-1)))
	}
	position := strconv.Itoa(pg.Index+1) + "/" + strconv.Itoa(pg.Total)
	row = append(row, button(position, unique, strconv.Itoa(pg.Index)))
	if pg.Index < pg.Total-1 {
		row = append(row, button("»", unique, strconv.Itoa(pg.Index+1)))
	}
	return row
}

// splitRows lays buttons out in rows of columns.
func splitRows(buttons []telebot.Btn, columns int) []telebot.Row {
	rows := make([]telebot.Row, 0, (len(buttons)+columns-1)/columns)
	for start := 0; start < len(buttons); start += columns {
		rows = append(rows, telebot.Row(buttons[start:min(start+columns, len(buttons))]))
	}
	return rows
}

func languageKeyboard(p printer) *telebot.ReplyMarkup {
	return inline(telebot.Row{
		button(p.T("language.en"), cbLanguage, "en"),
		button(p.T("language.uk"), cbLanguage, "uk"),
	})
}

func retryProfileKeyboard(p printer) *telebot.ReplyMarkup {
	return inline(telebot.Row{button(p.T("auth.retry"), cbRetryProfile)})
}

func profileCreateKeyboard(p printer) *telebot.ReplyMarkup {
	return inline(telebot.Row{button(p.T("profile.create"), cbProfileCreate)})
}

// choiceKeyboard offers the answers of a form step. The data is the choice index.
func choiceKeyboard(p printer, choices []string, optional bool) *telebot.ReplyMarkup {
	buttons := make([]telebot.Btn, 0, len(choices))
	for i, choice := range choices {
		buttons = append(buttons, button(choice, cbFormChoice, strconv.Itoa(i)))
	}
	rows := splitRows(buttons, choiceColumns)
	if optional {
		rows = append(rows, telebot.Row{button(p.T("form.skip"), cbFormSkip)})
	}
	return inline(rows...)
}

func skipKeyboard(p printer) *telebot.ReplyMarkup {
	return inline(telebot.Row{button(p.T("form.skip"), cbFormSkip)})
}

// projectFacetButtons are the facets picked from a list of values. Search is typed.
var projectFacetButtons = []string{
	filter.FacetStatus, filter.FacetPriority, filter.FacetSkill, filter.FacetGeo,
	filter.FacetIndustry, filter.FacetResource, filter.FacetDate,
}

var sortCycle = map[string]string{
	filter.SortByPriority: filter.SortByStart,
	filter.SortByStart:    filter.SortByName,
	filter.SortByName:     filter.SortByPriority,
}

// projectListKeyboard is the project list: one button per project on the page, the pager,
// the facets and the list actions.
func projectListKeyboard(
	p printer,
	pg page[models.Project],
	criteria filter.ProjectCriteria,
	sortKey string,
) *telebot.ReplyMarkup {
	rows := make([]telebot.Row, 0, len(pg.Items)+6)
	for _, project := range pg.Items {
		rows = append(rows, telebot.Row{button(project.Name, cbProjectCard, idArg(project.ID))})
	}
	if pager := pagerRow(pg, cbProjectPage); pager != nil {
		rows = append(rows, pager)
	}

	facets := make([]telebot.Btn, 0, len(projectFacetButtons))
	for _, facet := range projectFacetButtons {
		label := p.T("facet." + facet)
		if filter.IsSet(criteria.Get(facet)) {
			label = "✓ " + label
		}
		facets = append(facets, button(label, cbProjectFacet, facet))
	}
	rows = append(rows, splitRows(facets, 4)...)

	actions := telebot.Row{
		button(p.T("projects.search"), cbProjectSearch),
		button(p.T("sort."+sortCycle[sortKey]), cbProjectSort, sortCycle[sortKey]),
	}
	if criteria.ActiveCount() > 0 {
		actions = append(actions,
			button(p.T("projects.clear"), cbProjectClear),
			button(p.T("projects.share"), cbProjectShare),
		)
	}
	rows = append(rows, actions, telebot.Row{
		button(p.T("projects.drafts"), cbDrafts),
		button(p.T("projects.export"), cbExportProj),
	})
	return inline(rows...)
}

// facetTarget names the callbacks a value picker answers to.
type facetTarget struct {
	value string
	back  string
}

var (
	projectFacets  = facetTarget{value: cbProjectValue, back: cbProjectList}
	employeeFacets = facetTarget{value: cbEmployeeValue, back: cbEmployeeList}
)

// facetValuesKeyboard lists the values of a facet, the current one ticked, plus "all".
// Values that do not fit into callback data are left out.
func facetValuesKeyboard(p printer, target facetTarget, facet string, values []string, current string) *telebot.ReplyMarkup {
	buttons := []telebot.Btn{button(p.T("facet.all"), target.value, facet, filter.AllPrefix+facet)}
	for _, value := range values {
		label := facetValueLabel(p, facet, value)
		if value == current {
			label = "✓ " + label
		}
		btn := button(label, target.value, facet, value)
		if fits(btn) {
			buttons = append(buttons, btn)
		}
	}
	rows := splitRows(buttons, choiceColumns)
	rows = append(rows, telebot.Row{button(p.T("nav.back"), target.back)})
	return inline(rows...)
}

// facetValueLabel translates bucket values and keeps data values as they are.
func facetValueLabel(p printer, facet, value string) string {
	switch facet {
	case filter.FacetResource, filter.FacetDate, filter.FacetPriority:
		return p.T("bucket." + value)
	default:
		return value
	}
}

// suggestionKeyboard offers "did you mean" values for an empty search.
func suggestionKeyboard(p printer, facet string, values []string) *telebot.ReplyMarkup {
	rows := make([]telebot.Row, 0, len(values)+1)
	for _, value := range values {
		btn := button(value, cbProjectValue, facet, value)
		if fits(btn) {
			rows = append(rows, telebot.Row{btn})
		}
	}
	rows = append(rows, telebot.Row{button(p.T("nav.back"), cbProjectList)})
	return inline(rows...)
}

func projectCardKeyboard(p printer, projectID int64) *telebot.ReplyMarkup {
	pid := idArg(projectID)
	return inline(
		telebot.Row{button(p.T("project.allocate"), cbAllocOpen, pid), button(p.T("project.edit"), cbProjectEdit, pid)},
		telebot.Row{button(p.T("project.export"), cbExportAlloc, pid), button(p.T("project.history"), cbProjectHist, pid)},
		telebot.Row{button(p.T("nav.back"), cbProjectList)},
	)
}

// editFieldsKeyboard lists the editable fields of a project.
func editFieldsKeyboard(p printer, projectID int64) *telebot.ReplyMarkup {
	pid := idArg(projectID)
	buttons := make([]telebot.Btn, 0, len(editableFields))
	for _, field := range editableFields {
		buttons = append(buttons, button(p.T("field."+field), cbEditField, pid, field))
	}
	rows := splitRows(buttons, choiceColumns)
	rows = append(rows, telebot.Row{button(p.T("nav.back"), cbProjectCard, pid)})
	return inline(rows...)
}

func editConfirmKeyboard(p printer, token string) *telebot.ReplyMarkup {
	return inline(telebot.Row{
		button(p.T("edit.confirm"), cbEditConfirm, token),
		button(p.T("edit.cancel"), cbEditCancel, token),
	})
}

func reviewKeyboard(p printer) *telebot.ReplyMarkup {
	return inline(
		telebot.Row{button(p.T("form.create"), cbFormCreate), button(p.T("form.save_draft"), cbFormSave)},
		telebot.Row{button(p.T("form.cancel"), cbFormCancel)},
	)
}

func draftsKeyboard(p printer, drafts []models.Draft) *telebot.ReplyMarkup {
	rows := make([]telebot.Row, 0, len(drafts)+1)
	for _, draft := range drafts {
		name := draft.Project.Name
		if name == "" {
			name = p.T("drafts.untitled")
		}
		rows = append(rows, telebot.Row{
			button(name, cbDraftResume, draft.ID.String()),
			button("🗑", cbDraftDelete, draft.ID.String()),
		})
	}
	rows = append(rows, telebot.Row{button(p.T("nav.back"), cbProjectList)})
	return inline(rows...)
}

// employeeStatusFilters are the status values of the employee list.
var employeeStatusFilters = []models.EmployeeStatus{
	models.StatusAvailable, models.StatusBench, models.StatusAllocated, models.StatusRollingOff,
}

// employeePickFacets are the employee facets offered as value pickers.
var employeePickFacets = []string{filter.FacetSkill, filter.FacetLocation}

func employeeListKeyboard(p printer, pg page[models.Employee], criteria filter.EmployeeCriteria) *telebot.ReplyMarkup {
	rows := make([]telebot.Row, 0, len(pg.Items)+5)
	for _, e := range pg.Items {
		rows = append(rows, telebot.Row{button(e.DisplayName(), cbEmployeeCard, idArg(e.ID()))})
	}
	if pager := pagerRow(pg, cbEmployeePage); pager != nil {
		rows = append(rows, pager)
	}

	pickers := make(telebot.Row, 0, len(employeePickFacets))
	for _, facet := range employeePickFacets {
		label := p.T("facet." + facet)
		if filter.IsSet(criteria.Get(facet)) {
			label = "✓ " + label
		}
		pickers = append(pickers, button(label, cbEmployeePick, facet))
	}
	rows = append(rows, pickers)

	buttons := []telebot.Btn{button(p.T("facet.all"), cbEmployeeFacet, filter.AllPrefix+filter.FacetStatus)}
	for _, s := range employeeStatusFilters {
		label := p.T("status." + string(s))
		if string(s) == criteria.Status {
			label = "✓ " + label
		}
		buttons = append(buttons, button(label, cbEmployeeFacet, string(s)))
	}
	rows = append(rows, splitRows(buttons, 3)...)

	actions := telebot.Row{button(p.T("projects.share"), cbEmployeeShare)}
	if criteria.ActiveCount() > 0 {
		actions = append(telebot.Row{button(p.T("projects.clear"), cbEmployeeClear)}, actions...)
	}
	return inline(append(rows, actions)...)
}

// allocationCandidate is one row of the allocation dialog.
type allocationCandidate struct {
	ID       int64
	Name     string
	Score    allocation.Score
	Selected bool
	Dates    allocation.Dates
	Match    *models.Suggestion // set in AI mode
}

// allocationKeyboard renders the allocation dialog: a toggle per candidate, date buttons
// for the selected ones, the pager and the dialog actions. While a submission runs the
// submit button turns into an inert "submitting" label.
func allocationKeyboard(
	p printer,
	mode allocation.Mode,
	pg page[allocationCandidate],
	selected int,
	inFlight bool,
) *telebot.ReplyMarkup {
	rows := make([]telebot.Row, 0, 2*len(pg.Items)+5)

	manual, ai := p.T("alloc.mode_manual"), p.T("alloc.mode_ai")
	if mode == allocation.ModeAI {
		ai = "● " + ai
	} else {
		manual = "● " + manual
	}
	rows = append(rows, telebot.Row{
		button(manual, cbAllocMode, string(allocation.ModeManual)),
		button(ai, cbAllocMode, string(allocation.ModeAI)),
	})

	for _, c := range pg.Items {
		mark := "☐"
		if c.Selected {
			mark = "☑"
		}
		rows = append(rows, telebot.Row{
			button(mark+" "+c.Name+" · "+c.Score.String(), cbAllocToggle, idArg(c.ID)),
		})
		if !c.Selected {
			continue
		}
		openEnd := p.T("alloc.open_end")
		if c.Dates.OpenEnded {
			openEnd = "✓ " + openEnd
		}
		rows = append(rows, telebot.Row{
			button("▶ "+formatDate(c.Dates.Start), cbAllocStart, idArg(c.ID)),
			button("⏹ "+formatOptionalDate(p, c.Dates.End, c.Dates.OpenEnded), cbAllocEnd, idArg(c.ID)),
			button(openEnd, cbAllocOpenEn, idArg(c.ID)),
		})
	}

	if pager := pagerRow(pg, cbAllocPage); pager != nil {
		rows = append(rows, pager)
	}
	if mode == allocation.ModeManual {
		rows = append(rows, telebot.Row{
			button(p.T("alloc.search"), cbAllocSearch),
			button(p.T("alloc.clear"), cbAllocClear),
		})
	}

	submit := button(p.F("alloc.submit", map[string]any{"count": selected}), cbAllocSubmit)
	if inFlight {
		submit = button(p.T("alloc.submitting"), cbAllocNoop)
	}
	rows = append(rows, telebot.Row{submit, button(p.T("alloc.close"), cbAllocClose)})
	return inline(rows...)
}
