// Package tui is the interactive dashboard: coin cards, the trade journal
// and the backtest simulator, one section per tab.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KANG-Hyeong-uk/coin/backtest"
	"github.com/KANG-Hyeong-uk/coin/journal"
	"github.com/KANG-Hyeong-uk/coin/market"
)

// Section is one tab of the dashboard.
type Section int

const (
	SectionCoins Section = iota
	SectionJournal
	SectionSimulator
	sectionCount
)

var sectionNames = [sectionCount]string{"Coins", "Journal", "Simulator"}

func (s Section) String() string { return sectionNames[s] }

// Model is the root Bubble Tea model.
type Model struct {
	keys    KeyMap
	section Section

	coins   *coinsView
	journal *journalView
	sim     *simulatorView

	width  int
	height int
}

// Options are the collaborators the dashboard drives. Feed is optional;
// without it prices move locally.
type Options struct {
	Generator *market.Generator
	Feed      *market.Feed
	Journal   *journal.Controller
	Simulator *backtest.Simulator
}

func New(opts Options) *Model {
	return &Model{
		keys:    DefaultKeyMap(),
		coins:   newCoinsView(opts.Generator, opts.Feed),
		journal: newJournalView(opts.Journal),
		sim:     &simulatorView{sim: opts.Simulator},
		width:   100,
		height:  30,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.coins.init(), m.journal.load())
}

func (m *Model) Section() Section { return m.section }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.coins.handle(msg); ok {
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case journalDoneMsg:
		return m, m.journal.done(msg)

	case simDoneMsg:
		m.sim.busy = false
		return m, nil

	case successExpiredMsg:
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.section == SectionJournal && m.journal.capturesKeys() {
			return m, m.journal.update(msg, m.keys)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.section = (m.section + 1) % sectionCount
			return m, nil
		case key.Matches(msg, m.keys.PrevTab):
			m.section = (m.section + sectionCount - 1) % sectionCount
			return m, nil
		}

		switch m.section {
		case SectionCoins:
			return m, m.coins.update(msg, m.keys)
		case SectionJournal:
			return m, m.journal.update(msg, m.keys)
		case SectionSimulator:
			return m, m.sim.update(msg, m.keys)
		}
	}

	if m.section == SectionJournal && m.journal.capturesKeys() {
		return m, m.journal.form.update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	var tabs []string
	for s := Section(0); s < sectionCount; s++ {
		if s == m.section {
			tabs = append(tabs, activeTab.Render(s.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(s.String()))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render("coinfolio"), "  ", strings.Join(tabs, ""))

	var body, help string
	switch m.section {
	case SectionCoins:
		body = m.coins.view(m.width)
		if m.coins.detail != nil {
			help = helpLine(m.keys.Frame, m.keys.Back, m.keys.Quit)
		} else {
			help = helpLine(m.keys.NextTab, m.keys.Enter, m.keys.Quit)
		}
	case SectionJournal:
		body = m.journal.view()
		help = helpLine(m.keys.NextTab, m.keys.New, m.keys.Edit, m.keys.Delete, m.keys.Reload, m.keys.Quit)
	case SectionSimulator:
		body = m.sim.view()
		help = helpLine(m.keys.NextTab, m.keys.Market, m.keys.DaysUp, m.keys.CapitalUp, m.keys.UseAPI, m.keys.Quit)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", help)
}
