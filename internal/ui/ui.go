package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/k991020/daily-planner/internal/config"
	"github.com/k991020/daily-planner/internal/planner"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
	modeNewCategory
	modeConfirmClearAll
	modeHabits
)

// addState is the multi-field entry form. The first field takes the free
// text the smart parser runs over; the rest are manual fallbacks.
type addState struct {
	text     string
	location string
	clock    string
	due      string
	index    int
}

// undoExpiredMsg fires when a deletion's undo window closes. gen ties the
// timer to one specific deletion.
type undoExpiredMsg struct {
	gen uint64
}

type Model struct {
	ctx     context.Context
	session *planner.Session
	cfg     config.Config
	query   planner.Query
	cursor  int
	mode    mode
	input   textinput.Model
	status  string
	add     *addState
	editID  string

	// Last undo toast shown: its deletion generation and exact text, so
	// expiry clears the toast and nothing else.
	toastGen  uint64
	toastText string

	habitCursor int
	habitDay    time.Time
}

func Run(session *planner.Session, cfg config.Config) error {
	ti := textinput.New()
	ti.Placeholder = "예: 오후 3시에 강남에서 미팅 #업무"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		ctx:     context.Background(),
		session: session,
		cfg:     cfg,
		query: planner.Query{
			CategoryID: "all",
			Filter:     parseFilter(cfg.DefaultFilter),
			Sort:       parseSort(cfg.DefaultSort),
		},
		input:    ti,
		mode:     modeList,
		status:   "Press 'a' to add, space to toggle, 'd' to delete.",
		habitDay: time.Now(),
	}

	program := tea.NewProgram(m)
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case undoExpiredMsg:
		m.session.ExpireUndo(msg.gen)
		if msg.gen == m.toastGen {
			if m.status == m.toastText {
				m.status = ""
			}
			m.toastGen = 0
			m.toastText = ""
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd:
		return m.updateAddMode(key, msg)
	case modeEdit:
		return m.updateEditMode(key, msg)
	case modeSearch:
		return m.updateSearchMode(key, msg)
	case modeNewCategory:
		return m.updateNewCategoryMode(key, msg)
	case modeConfirmClearAll:
		return m.updateClearAllConfirm(key)
	case modeHabits:
		return m.updateHabitsMode(key)
	default:
		return m.updateListMode(key)
	}
}

func (m Model) visible() []planner.Task {
	return planner.Visible(m.session.Tasks(), m.query)
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	vis := m.visible()
	// A prior action (toggle under a status filter, clear, category
	// delete) may have shrunk the visible list under the cursor.
	m.cursor = clampCursor(m.cursor, len(vis))
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(vis) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(vis))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(vis))
		}
	case m.cfg.Keys.Add:
		m.add = &addState{}
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Placeholder = addFields()[0]
		m.input.Focus()
		m.status = "Add mode: tab to move between fields, enter on the last to save"
	case m.cfg.Keys.Toggle:
		if len(vis) == 0 {
			return m, nil
		}
		if err := m.session.ToggleCompletion(m.ctx, vis[m.cursor].ID); err != nil {
			m.status = fmt.Sprintf("toggle failed: %v", err)
			return m, nil
		}
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		m.status = "Toggled task"
	case m.cfg.Keys.Priority:
		if len(vis) == 0 {
			return m, nil
		}
		if err := m.session.TogglePriority(vis[m.cursor].ID); err != nil {
			m.status = fmt.Sprintf("priority failed: %v", err)
			return m, nil
		}
		m.status = "Toggled priority"
	case m.cfg.Keys.Delete:
		if len(vis) == 0 {
			return m, nil
		}
		t := vis[m.cursor]
		gen, err := m.session.Delete(m.ctx, t.ID)
		if err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
			return m, nil
		}
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		m.status = fmt.Sprintf("Deleted %q. Press '%s' to undo.", t.Text, m.cfg.Keys.Undo)
		m.toastGen = gen
		m.toastText = m.status
		wait := time.Duration(m.cfg.UndoSeconds) * time.Second
		return m, tea.Tick(wait, func(time.Time) tea.Msg {
			return undoExpiredMsg{gen: gen}
		})
	case m.cfg.Keys.Undo:
		t, err := m.session.Restore(m.ctx)
		if err != nil {
			m.status = fmt.Sprintf("undo failed: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Restored %q", t.Text)
	case m.cfg.Keys.Edit:
		if len(vis) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		t := vis[m.cursor]
		m.editID = t.ID
		m.mode = modeEdit
		m.input.SetValue(t.Text + " " + strings.Join(t.Tags, " "))
		m.input.Placeholder = "Task text"
		m.input.Focus()
		m.status = "Edit mode: enter to save, esc to cancel"
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.SetValue(m.query.Search)
		m.input.Placeholder = "Search"
		m.input.Focus()
		m.status = "Search: type to filter, enter to keep, esc to clear"
	case m.cfg.Keys.CycleFilter:
		m.query.Filter = nextFilter(m.query.Filter)
		m.cursor = 0
		m.status = "Filter: " + string(m.query.Filter)
	case m.cfg.Keys.CycleSort:
		m.query.Sort = nextSort(m.query.Sort)
		m.cursor = 0
		m.status = "Sort: " + string(m.query.Sort)
	case m.cfg.Keys.CycleCategory:
		m.query.CategoryID = m.nextCategory()
		m.cursor = 0
		m.status = "Category: " + m.categoryLabel(m.query.CategoryID)
	case m.cfg.Keys.CycleTag:
		m.query.Tag = m.nextTag()
		m.cursor = 0
		if m.query.Tag == "" {
			m.status = "Tag filter cleared"
		} else {
			m.status = "Tag: " + m.query.Tag
		}
	case m.cfg.Keys.NewCategory:
		m.mode = modeNewCategory
		m.input.SetValue("")
		m.input.Placeholder = "Category name"
		m.input.Focus()
		m.status = "New category: enter to save, esc to cancel"
	case m.cfg.Keys.DelCategory:
		id := m.query.CategoryID
		if id == "" || id == "all" {
			m.status = "Cycle to a category first"
			return m, nil
		}
		label := m.categoryLabel(id)
		if err := m.session.DeleteCategory(m.ctx, id); err != nil {
			m.status = fmt.Sprintf("delete category failed: %v", err)
			return m, nil
		}
		m.query.CategoryID = "all"
		m.cursor = 0
		m.status = fmt.Sprintf("Deleted category %s", label)
	case m.cfg.Keys.ClearCompleted:
		if m.session.CompletedCount() == 0 {
			m.status = "No completed tasks"
			return m, nil
		}
		if err := m.session.ClearCompleted(m.ctx); err != nil {
			m.status = fmt.Sprintf("clear failed: %v", err)
			return m, nil
		}
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		m.status = "Cleared completed tasks"
	case m.cfg.Keys.ClearAll:
		if len(m.session.Tasks()) == 0 {
			m.status = "Nothing to clear"
			return m, nil
		}
		m.mode = modeConfirmClearAll
		m.status = fmt.Sprintf("Delete all %d tasks? y/n", len(m.session.Tasks()))
	case m.cfg.Keys.Habits:
		m.mode = modeHabits
		m.habitDay = time.Now()
		m.status = "Habits: space to toggle the selected day, esc to go back"
	}
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.add = nil
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.NextField, "tab", "down":
		m.add.setCurrentValue(m.input.Value())
		m.add.index = wrapIndex(m.add.index+1, len(addFields()))
		m.input.SetValue(m.add.currentValue())
		m.input.Placeholder = m.add.currentLabel()
		return m, nil
	case "shift+tab", "up":
		m.add.setCurrentValue(m.input.Value())
		m.add.index = wrapIndex(m.add.index-1, len(addFields()))
		m.input.SetValue(m.add.currentValue())
		m.input.Placeholder = m.add.currentLabel()
		return m, nil
	case m.cfg.Keys.Confirm:
		m.add.setCurrentValue(m.input.Value())
		if m.add.index < len(addFields())-1 {
			m.add.index++
			m.input.SetValue(m.add.currentValue())
			m.input.Placeholder = m.add.currentLabel()
			return m, nil
		}
		return m.saveDraft()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveDraft() (tea.Model, tea.Cmd) {
	due, err := parseDueDate(m.add.due)
	if err != nil {
		m.status = fmt.Sprintf("due date invalid: %v", err)
		m.add.index = 3
		m.input.SetValue(m.add.due)
		m.input.Placeholder = m.add.currentLabel()
		return m, nil
	}
	d := planner.Draft{
		Text:       m.add.text,
		CategoryID: m.query.CategoryID,
		DueDate:    due,
		Location:   m.add.location,
		Time:       strings.TrimSpace(m.add.clock),
	}
	t, err := m.session.Insert(m.ctx, d)
	if err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	m.add = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	m.cursor = 0
	m.status = fmt.Sprintf("Added %q", t.Text)
	return m, nil
}

func (m Model) updateEditMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.editID = ""
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Edit cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		if err := m.session.UpdateText(m.ctx, m.editID, m.input.Value()); err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		m.mode = modeList
		m.editID = ""
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Saved"
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.query.Search = ""
		m.input.SetValue("")
		m.input.Blur()
		m.cursor = 0
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm:
		m.mode = modeList
		m.input.Blur()
		m.status = "Search: " + m.query.Search
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query.Search = m.input.Value()
		m.cursor = 0
		return m, cmd
	}
}

func (m Model) updateNewCategoryMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		c, err := m.session.AddCategory(m.ctx, m.input.Value())
		if err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.query.CategoryID = c.ID
		m.cursor = 0
		m.status = fmt.Sprintf("Added category %s %s", c.Icon, c.Name)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateClearAllConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		if err := m.session.ClearAll(m.ctx); err != nil {
			m.status = fmt.Sprintf("clear failed: %v", err)
			m.mode = modeList
			return m, nil
		}
		m.cursor = 0
		m.mode = modeList
		m.status = "Cleared all tasks"
		return m, nil
	case "n", "N", m.cfg.Keys.Cancel:
		m.mode = modeList
		m.status = "Clear cancelled"
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) updateHabitsMode(key string) (tea.Model, tea.Cmd) {
	habits := m.session.Habits()
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel, m.cfg.Keys.Habits:
		m.mode = modeList
		m.status = ""
		return m, nil
	case m.cfg.Keys.Down, "down":
		m.habitCursor = clampCursor(m.habitCursor+1, len(habits))
	case m.cfg.Keys.Up, "up":
		if m.habitCursor > 0 {
			m.habitCursor = clampCursor(m.habitCursor-1, len(habits))
		}
	case "left":
		m.habitDay = m.habitDay.AddDate(0, 0, -1)
	case "right":
		m.habitDay = m.habitDay.AddDate(0, 0, 1)
	case "[":
		m.habitDay = m.habitDay.AddDate(0, -1, 0)
	case "]":
		m.habitDay = m.habitDay.AddDate(0, 1, 0)
	case m.cfg.Keys.Toggle, m.cfg.Keys.Confirm:
		if len(habits) == 0 {
			return m, nil
		}
		h := habits[m.habitCursor]
		if err := m.session.ToggleHabit(m.ctx, h.ID, m.habitDay); err != nil {
			m.status = fmt.Sprintf("toggle failed: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("%s %s on %s", h.Icon, h.Name, planner.DateKey(m.habitDay))
	}
	return m, nil
}

func (m Model) View() string {
	if m.mode == modeHabits {
		return m.viewHabits()
	}

	var b strings.Builder
	user := m.session.User()
	fmt.Fprintf(&b, "Daily Planner · %s · %s\n\n", user.Name, time.Now().Format("2006. 01. 02"))
	b.WriteString(m.renderQueryLine())
	b.WriteString("\n\n")

	vis := m.visible()
	if len(vis) == 0 {
		b.WriteString("No tasks here. Press 'a' to add one.")
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList(vis))
	}

	total := len(m.session.Tasks())
	if total > 0 {
		fmt.Fprintf(&b, "\n%d/%d done\n", m.session.CompletedCount(), total)
	}
	if tags := planner.AllTags(m.session.Tasks()); len(tags) > 0 {
		b.WriteString("Tags: " + strings.Join(tags, " ") + "\n")
	}

	b.WriteString("---\n")
	if m.mode == modeAdd {
		b.WriteString(m.renderAddBox())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else if m.mode == modeEdit || m.mode == modeSearch || m.mode == modeNewCategory {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))
	return b.String()
}

func (m Model) renderQueryLine() string {
	parts := []string{
		"filter:" + string(m.query.Filter),
		"sort:" + string(m.query.Sort),
		"category:" + m.categoryLabel(m.query.CategoryID),
	}
	if m.query.Tag != "" {
		parts = append(parts, "tag:"+m.query.Tag)
	}
	if m.query.Search != "" {
		parts = append(parts, "search:"+m.query.Search)
	}
	return strings.Join(parts, " • ")
}

func (m Model) renderTaskList(vis []planner.Task) string {
	var b strings.Builder
	now := time.Now()
	for i, t := range vis {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}
		checkbox := "[ ]"
		if t.Completed {
			checkbox = "[x]"
		}
		star := " "
		if t.Priority {
			star = "★"
		}
		body := fmt.Sprintf("%s %s %s %s", cursor, checkbox, star, t.Text)
		if len(t.Tags) > 0 {
			body += "  " + strings.Join(t.Tags, " ")
		}
		if t.Time != "" {
			body += "  ⏰ " + t.Time
		}
		if t.Location != "" {
			body += "  📍 " + t.Location
		}
		if t.DueDate != nil {
			body += "  " + planner.DDayLabel(*t.DueDate, now)
		}
		if c, ok := m.session.CategoryByID(t.CategoryID); ok {
			body += "  " + c.Icon + " " + c.Name
		}
		body += "  · " + planner.FormatCreatedAt(t.CreatedAt)
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewHabits() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Habits · %s\n\n", m.habitDay.Format("2006년 1월"))

	habits := m.session.Habits()
	var selected planner.Habit
	for i, h := range habits {
		cursor := " "
		if i == m.habitCursor {
			cursor = ">"
			selected = h
		}
		streak := countMonth(h, m.habitDay)
		fmt.Fprintf(&b, "%s %s %-4s %d days this month\n", cursor, h.Icon, h.Name, streak)
	}
	b.WriteString("\n")
	if selected.ID != "" {
		b.WriteString(renderMonth(selected, m.habitDay, time.Now()))
	}
	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString("←/→ day • [ ] month • j/k habit • space toggle • esc back")
	return b.String()
}

func (m Model) renderAddBox() string {
	if m.add == nil {
		return ""
	}
	fields := addFields()
	values := []string{m.add.text, m.add.location, m.add.clock, m.add.due}
	var b strings.Builder
	for i, name := range fields {
		prefix := " "
		if i == m.add.index {
			prefix = ">"
		}
		val := values[i]
		if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		fmt.Fprintf(&b, "%s %-24s : %s\n", prefix, name, val)
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s toggle • %s priority • %s delete • %s undo • %s search • %s/%s/%s/%s cycle • %s habits • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Toggle, k.Priority, k.Delete, k.Undo, k.Search,
		k.CycleFilter, k.CycleSort, k.CycleCategory, k.CycleTag, k.Habits, k.Quit)
}

func addFields() []string {
	return []string{"task (free text)", "location", "time", "due date (YYYY-MM-DD)"}
}

func (a addState) currentLabel() string {
	return addFields()[a.index]
}

func (a addState) currentValue() string {
	switch a.index {
	case 0:
		return a.text
	case 1:
		return a.location
	case 2:
		return a.clock
	case 3:
		return a.due
	default:
		return ""
	}
}

func (a *addState) setCurrentValue(v string) {
	switch a.index {
	case 0:
		a.text = v
	case 1:
		a.location = v
	case 2:
		a.clock = v
	case 3:
		a.due = v
	}
}

func (m Model) categoryLabel(id string) string {
	if id == "" || id == "all" {
		return "all"
	}
	if c, ok := m.session.CategoryByID(id); ok {
		return c.Icon + " " + c.Name
	}
	return id
}

// nextCategory cycles all → each category → all.
func (m Model) nextCategory() string {
	cats := m.session.Categories()
	cur := m.query.CategoryID
	if cur == "" || cur == "all" {
		if len(cats) == 0 {
			return "all"
		}
		return cats[0].ID
	}
	for i, c := range cats {
		if c.ID == cur {
			if i+1 < len(cats) {
				return cats[i+1].ID
			}
			return "all"
		}
	}
	return "all"
}

// nextTag cycles none → each known tag → none.
func (m Model) nextTag() string {
	tags := planner.AllTags(m.session.Tasks())
	if m.query.Tag == "" {
		if len(tags) == 0 {
			return ""
		}
		return tags[0]
	}
	for i, tag := range tags {
		if tag == m.query.Tag {
			if i+1 < len(tags) {
				return tags[i+1]
			}
			return ""
		}
	}
	return ""
}

func nextFilter(f planner.Filter) planner.Filter {
	switch f {
	case planner.FilterAll:
		return planner.FilterActive
	case planner.FilterActive:
		return planner.FilterCompleted
	default:
		return planner.FilterAll
	}
}

func nextSort(s planner.SortOption) planner.SortOption {
	opts := planner.SortOptions()
	for i, o := range opts {
		if o == s {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}

func parseFilter(v string) planner.Filter {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "active":
		return planner.FilterActive
	case "completed":
		return planner.FilterCompleted
	default:
		return planner.FilterAll
	}
}

// parseSort maps a config value to a sort option, falling back to
// manual order for unknown values.
func parseSort(v string) planner.SortOption {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, o := range planner.SortOptions() {
		if string(o) == v {
			return o
		}
	}
	return planner.SortManual
}

func parseDueDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
