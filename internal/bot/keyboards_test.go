package bot

import (
	"strings"
	"testing"

	"github.com/UnknownOlympus/talentfit/internal/filter"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

func TestFits(t *testing.T) {
	t.Parallel()

	assert.True(t, fits(button("ok", cbProjectCard, "12345")))
	assert.True(t, fits(button("ok", cbAllocNoop)))

	// "\f" + "pvalue" + "|" + facet + "|" + value
	long := strings.Repeat("x", callbackDataLimit)
	assert.False(t, fits(button("too long", cbProjectValue, "skill", long)))

	edge := strings.Repeat("x", callbackDataLimit-len("\f")-len(cbProjectCard)-len("|"))
	assert.True(t, fits(button("edge", cbProjectCard, edge)))
	assert.False(t, fits(button("edge", cbProjectCard, edge+"x")))
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	tests := []struct {
		name     string
		index    int
		expected page[int]
	}{
		{name: "first", index: 0, expected: page[int]{Items: []int{1, 2, 3, 4, 5}, Index: 0, Total: 3}},
		{name: "last partial", index: 2, expected: page[int]{Items: []int{11, 12}, Index: 2, Total: 3}},
		{name: "past the end clamps", index: 9, expected: page[int]{Items: []int{11, 12}, Index: 2, Total: 3}},
		{name: "negative clamps", index: -1, expected: page[int]{Items: []int{1, 2, 3, 4, 5}, Index: 0, Total: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, paginate(items, tt.index, pageSize))
		})
	}

	empty := paginate([]int{}, 3, pageSize)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.Index)
	assert.Equal(t, 1, empty.Total)
}

func TestPagerRow(t *testing.T) {
	t.Parallel()

	assert.Nil(t, pagerRow(page[int]{Index: 0, Total: 1}, cbProjectPage))

	first := pagerRow(page[int]{Index: 0, Total: 3}, cbProjectPage)
	require.Len(t, first, 2)
	assert.Equal(t, "1/3", first[0].Text)
	assert.Equal(t, "»", first[1].Text)
	assert.Equal(t, "1", first[1].Data)

	middle := pagerRow(page[int]{Index: 1, Total: 3}, cbProjectPage)
	require.Len(t, middle, 3)
	assert.Equal(t, "0", middle[0].Data)
	assert.Equal(t, "2/3", middle[1].Text)
	assert.Equal(t, "2", middle[2].Data)

	last := pagerRow(page[int]{Index: 2, Total: 3}, cbProjectPage)
	require.Len(t, last, 2)
	assert.Equal(t, "«", last[0].Text)
	assert.Equal(t, "3/3", last[1].Text)
}

func TestSplitRows(t *testing.T) {
	t.Parallel()

	buttons := []string{"a", "b", "c", "d", "e"}
	btns := make([]telebot.Btn, 0, len(buttons))
	for _, text := range buttons {
		btns = append(btns, button(text, cbFormChoice, text))
	}

	rows := splitRows(btns, choiceColumns)
	require.Len(t, rows, 3)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[2], 1)
	assert.Equal(t, "e", rows[2][0].Text)

	assert.Empty(t, splitRows(nil, choiceColumns))
}

func TestEmployeeListKeyboard(t *testing.T) {
	t.Parallel()

	p := newTestPrinter(t, "en")
	pg := page[models.Employee]{Total: 1}

	plain := employeeListKeyboard(p, pg, filter.EmployeeCriteria{}).InlineKeyboard
	require.Len(t, plain[0], 2)
	assert.Equal(t, cbEmployeePick, plain[0][0].Unique)
	assert.Equal(t, "Skill", plain[0][0].Text)
	assert.Equal(t, filter.FacetSkill, plain[0][0].Data)
	assert.Equal(t, "Location", plain[0][1].Text)
	assert.Equal(t, filter.FacetLocation, plain[0][1].Data)

	actions := plain[len(plain)-1]
	require.Len(t, actions, 1)
	assert.Equal(t, cbEmployeeShare, actions[0].Unique)

	filtered := employeeListKeyboard(p, pg, filter.EmployeeCriteria{Skill: "Go"}).InlineKeyboard
	assert.Equal(t, "✓ Skill", filtered[0][0].Text)
	actions = filtered[len(filtered)-1]
	require.Len(t, actions, 2)
	assert.Equal(t, cbEmployeeClear, actions[0].Unique)
	assert.Equal(t, cbEmployeeShare, actions[1].Unique)
}

func TestFacetValuesKeyboard(t *testing.T) {
	t.Parallel()

	p := newTestPrinter(t, "en")
	values := []string{"Europe", "US-East", strings.Repeat("x", callbackDataLimit)}

	kb := facetValuesKeyboard(p, employeeFacets, filter.FacetLocation, values, "Europe").InlineKeyboard
	require.Len(t, kb, 3)
	assert.Equal(t, cbEmployeeValue, kb[0][0].Unique)
	assert.Equal(t, "location|all_location", kb[0][0].Data)
	assert.Equal(t, "✓ Europe", kb[0][1].Text)
	assert.Equal(t, "location|Europe", kb[0][1].Data)
	require.Len(t, kb[1], 1)
	assert.Equal(t, "US-East", kb[1][0].Text)
	assert.Equal(t, cbEmployeeList, kb[2][0].Unique)

	projects := facetValuesKeyboard(p, projectFacets, filter.FacetSkill, []string{"Go"}, "").InlineKeyboard
	assert.Equal(t, cbProjectValue, projects[0][0].Unique)
	assert.Equal(t, cbProjectList, projects[len(projects)-1][0].Unique)
}
