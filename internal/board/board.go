// Package board is the terminal status board: one colored card per record,
// with keys to change statuses, add and delete records and save.
package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tegakist/DSS/pkg/flowsheet"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// SaveFunc persists the session, e.g. by exporting the workbook and storing
// the record list. It returns a short description of what was written.
type SaveFunc func(s *flowsheet.Session) (string, error)

// Model is the bubbletea model of the board.
type Model struct {
	session *flowsheet.Session
	save    SaveFunc

	records []models.Record
	cursor  int
	adding  bool
	input   textinput.Model
	dirty   bool
	message string
	err     error
	width   int
}

// New creates a board over the session.
func New(s *flowsheet.Session, save SaveFunc) *Model {
	input := textinput.New()
	input.Placeholder = "label"
	input.CharLimit = 200
	m := &Model{
		session: s,
		save:    save,
		input:   input,
		width:   60,
	}
	m.refresh()
	return m
}

// Dirty reports whether there are unsaved changes.
func (m *Model) Dirty() bool {
	return m.dirty
}

// Cursor returns the index of the selected card.
func (m *Model) Cursor() int {
	return m.cursor
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width - 4
		return m, nil
	case tea.KeyMsg:
		if m.adding {
			return m, m.handleInputKey(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.err = nil
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case "1", "2", "3", "4":
		m.setStatus(models.Statuses[int(key[0]-'1')])
	case "tab":
		if r, ok := m.selected(); ok {
			m.setStatus(r.Status.Next())
		}
	case "a":
		m.adding = true
		m.message = ""
		m.input.Reset()
		return m.input.Focus()
	case "d":
		if r, ok := m.selected(); ok {
			m.apply(m.session.Remove(r.ID), fmt.Sprintf("Deleted %q", r.Label))
		}
	case "s":
		m.doSave()
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		return nil
	case tea.KeyEnter:
		label := strings.TrimSpace(m.input.Value())
		m.adding = false
		m.input.Blur()
		if label == "" {
			return nil
		}
		r, err := m.session.Add(label, "")
		m.apply(err, fmt.Sprintf("Added %q", label))
		if err == nil {
			m.cursor = m.indexOf(r.ID)
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) setStatus(s models.Status) {
	r, ok := m.selected()
	if !ok || r.Status == s {
		return
	}
	m.apply(m.session.SetStatus(r.ID, s), "")
}

func (m *Model) apply(err error, message string) {
	if err != nil {
		m.err = err
		return
	}
	m.dirty = true
	m.message = message
	m.refresh()
}

func (m *Model) doSave() {
	if m.save == nil {
		m.err = fmt.Errorf("saving is not configured")
		return
	}
	what, err := m.save(m.session)
	if err != nil {
		m.err = err
		return
	}
	m.dirty = false
	m.message = "Saved " + what
	m.refresh()
}

func (m *Model) refresh() {
	m.records = m.session.Records()
	if m.cursor >= len(m.records) {
		m.cursor = max(0, len(m.records)-1)
	}
}

func (m *Model) selected() (models.Record, bool) {
	if m.cursor < 0 || m.cursor >= len(m.records) {
		return models.Record{}, false
	}
	return m.records[m.cursor], true
}

func (m *Model) indexOf(id string) int {
	for i, r := range m.records {
		if r.ID == id {
			return i
		}
	}
	return m.cursor
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("%s  %d nodes", m.session.Document().SheetID, len(m.records))
	if m.dirty {
		title += " *"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		b.WriteString(hintStyle.Render("No nodes. Press a to add one."))
		b.WriteString("\n")
	}
	for i, r := range m.records {
		b.WriteString(m.renderCard(r, i == m.cursor))
		b.WriteString("\n")
	}

	if m.adding {
		b.WriteString("\nNew node: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	switch {
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	case m.message != "":
		b.WriteString("\n" + messageStyle.Render(m.message) + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("↑/↓ move · 1-4 set status · tab cycle · a add · d delete · s save · q quit"))
	return b.String()
}

func (m *Model) renderCard(r models.Record, selected bool) string {
	lines := []string{r.Label + "  " + badge(r.Status)}
	sys := m.session.Document().DateSystem()
	for _, f := range m.session.Layout.Fields {
		if v := m.session.Layout.Display(r, f.Name, sys); v != "" {
			lines = append(lines, detailStyle.Render(f.Name+": "+v))
		}
	}
	if !r.Anchored() {
		lines = append(lines, detailStyle.Render("new row"))
	}
	return cardStyle(r.Status, selected, m.width).Render(strings.Join(lines, "\n"))
}
