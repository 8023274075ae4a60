package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/studytracker/internal/config"
)

// SettingsPaneModel manages the settings form overlay. Saved settings take
// effect on the next start.
type SettingsPaneModel struct {
	form        *huh.Form
	config      *config.TrackerConfig
	globalPath  string
	projectPath string
	width       int
	height      int
	visible     bool
	saved       bool
	err         error
	fields      *settingsFields
}

// settingsFields holds the form bindings (strings for Huh). It lives behind a
// pointer so copies of the pane write to the same values.
type settingsFields struct {
	saveTarget   string
	databasePath string
	historyLimit string
	logLevel     string
	seedOnEmpty  bool
}

// NewSettingsPaneModel creates a new settings pane.
func NewSettingsPaneModel(cfg *config.TrackerConfig, globalPath, projectPath string) SettingsPaneModel {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m := SettingsPaneModel{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,
	}
	m.buildForm()
	return m
}

func (m *SettingsPaneModel) loadFields() *settingsFields {
	m.fields = &settingsFields{
		saveTarget:   "global",
		databasePath: m.config.Database.Path,
		historyLimit: strconv.Itoa(m.config.History.Limit),
		logLevel:     m.config.Logging.Level,
		seedOnEmpty:  m.config.SeedOnEmpty,
	}
	return m.fields
}

// buildForm constructs the Huh form with all settings fields.
func (m *SettingsPaneModel) buildForm() {
	f := m.loadFields()

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("saveTarget").
				Title("Save To").
				Options(
					huh.NewOption("Global (~/.studytracker/config.json)", "global"),
					huh.NewOption("Project (.studytracker/config.json)", "project"),
				).
				Value(&f.saveTarget),
		).Title("Save Target"),

		huh.NewGroup(
			huh.NewInput().
				Key("databasePath").
				Title("Database Path").
				Value(&f.databasePath).
				Placeholder("studytracker.db"),

			huh.NewInput().
				Key("historyLimit").
				Title("Undo History Limit (0 = unlimited)").
				Value(&f.historyLimit).
				Validate(validateLimit),

			huh.NewSelect[string]().
				Key("logLevel").
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&f.logLevel),

			huh.NewConfirm().
				Key("seedOnEmpty").
				Title("Seed demo data into an empty database?").
				Value(&f.seedOnEmpty),
		).Title("Tracker Settings"),
	)
}

func validateLimit(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("enter a whole number, 0 or more")
	}
	return nil
}

// Init initializes the settings pane.
func (m SettingsPaneModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings pane.
func (m SettingsPaneModel) Update(msg tea.Msg) (SettingsPaneModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.visible = false
		m.saved = false
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.err = m.save()
		m.saved = m.err == nil
		if m.saved {
			m.visible = false
		}
	}

	return m, cmd
}

// save copies form values into the config and writes it to the chosen file.
func (m *SettingsPaneModel) save() error {
	f := m.fields
	limit, err := strconv.Atoi(strings.TrimSpace(f.historyLimit))
	if err != nil {
		return fmt.Errorf("history limit: %w", err)
	}

	m.config.Database.Path = strings.TrimSpace(f.databasePath)
	m.config.History.Limit = limit
	m.config.Logging.Level = f.logLevel
	m.config.SeedOnEmpty = f.seedOnEmpty

	targetPath := m.globalPath
	if f.saveTarget == "project" {
		targetPath = m.projectPath
	}
	return config.Save(m.config, targetPath)
}

// View renders the settings pane.
func (m SettingsPaneModel) View() string {
	if !m.visible {
		return ""
	}

	content := m.form.View()
	if m.err != nil {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("✗ Error saving: %v", m.err))
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(max(20, m.width-4)).
		Height(max(5, m.height-4))

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("⚙ Settings")

	return lipgloss.JoinVertical(lipgloss.Left, title, style.Render(content))
}

// SetSize updates the dimensions of the settings pane.
func (m *SettingsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil && w > 8 && h > 8 {
		m.form.WithWidth(w - 8).WithHeight(h - 8)
	}
}

// SetVisible shows or hides the settings pane.
func (m *SettingsPaneModel) SetVisible(v bool) {
	m.visible = v
	m.saved = false
	m.err = nil

	if v {
		m.buildForm()
	}
}

// IsVisible returns whether the settings pane is currently visible.
func (m SettingsPaneModel) IsVisible() bool {
	return m.visible
}

// Saved reports whether the last submission was written to disk.
func (m SettingsPaneModel) Saved() bool {
	return m.saved
}
