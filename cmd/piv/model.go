package main

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/daviddao/piv/internal/api"
	"github.com/daviddao/piv/internal/config"
	"github.com/daviddao/piv/internal/datasource"
	"github.com/daviddao/piv/internal/insights"
)

// backend is everything the TUI asks of the insights service.
type backend interface {
	insights.Fetcher
	insights.Searcher
	SendMessage(ctx context.Context, pageID, text string) (string, error)
}

// --- Messages ---

type configChangedMsg struct{}

type presetsLoadedMsg struct {
	presets []string
	err     error
}

// revealTickMsg advances the entrance transition of one page instance.
type revealTickMsg struct {
	instance uint64
}

type chatReplyMsg struct {
	instance uint64
	text     string
	err      error
}

const (
	revealFrame = 70 * time.Millisecond
	// revealSections is the number of blocks of the insights page revealed
	// one per frame: header, stats, employees, posts.
	revealSections = 4
	// maxPresets is the number of presets reachable by digit keys.
	maxPresets = 9
)

// --- Key bindings ---

type keyMap struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Comments key.Binding
	More     key.Binding
	Chat     key.Binding
	Reload   key.Binding
	Focus    key.Binding
	Esc      key.Binding
	Help     key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open / expand")),
	Comments: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comments")),
	More:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
	Chat:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "ask analyst")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "input/results")),
	Esc:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.More, k.Chat, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Comments},
		{k.More, k.Chat, k.Reload, k.Focus},
		{k.Esc, k.Help, k.Quit},
	}
}

// --- Screens ---

type screenID int

const (
	screenSearch screenID = iota
	screenInsights
)

func (s screenID) String() string {
	switch s {
	case screenSearch:
		return "Search"
	case screenInsights:
		return "Insights"
	}
	return "?"
}

// contextHelp returns help text appropriate for the current screen.
func contextHelp(m uiModel) string {
	switch {
	case m.screen == screenSearch && m.input.Focused():
		return "enter: open id / search | tab: results | esc: clear | ctrl+c: quit"
	case m.screen == screenSearch:
		return "j/k: select | enter: open | 1-9: presets | tab: edit query | ?: help | q: quit"
	case m.chat.open:
		return "enter: send | esc: close chat"
	default:
		return "j/k: select post | enter/c: comments | m: more | a: ask | r: reload | esc: back | q: quit"
	}
}

// --- Model ---

type chatLine struct {
	fromUser bool
	text     string
	failed   bool
}

type chatState struct {
	open    bool
	input   textinput.Model
	lines   []chatLine
	pending bool
}

type uiModel struct {
	ctx        context.Context
	backend    backend
	logger     zerolog.Logger
	watcher    *datasource.Watcher
	configPath string

	screen screenID
	width  int
	height int

	// Search screen.
	input          textinput.Model
	search         *insights.Search
	presets        []string
	selectedResult int
	queryErr       string

	// Insights screen. detail is replaced wholesale on every navigation.
	detail       *insights.Detail
	selectedPost int
	revealed     int
	chat         chatState

	spinner  spinner.Model
	help     help.Model
	showHelp bool
}

func newModel(ctx context.Context, b backend, presets []string, logger zerolog.Logger) uiModel {
	in := textinput.New()
	in.Placeholder = "page id, or name=... industry=... min=... max=..."
	in.Prompt = "> "
	in.CharLimit = 256
	in.Focus()

	chatIn := textinput.New()
	chatIn.Placeholder = "ask about this company"
	chatIn.Prompt = "? "
	chatIn.CharLimit = 1000

	return uiModel{
		ctx:     ctx,
		backend: b,
		logger:  logger,
		input:   in,
		search:  insights.NewSearch(b),
		presets: presets,
		chat:    chatState{input: chatIn},
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
	}
}

func (m uiModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.detail != nil {
		cmds = append(cmds, m.detail.Init())
	}
	return tea.Batch(cmds...)
}

// openPage tears down the current page instance and starts a new one. The
// returned model's detail still needs Init; see navigate.
func (m uiModel) openPage(pageID string) uiModel {
	if m.detail != nil {
		m.detail.Close()
	}
	m.detail = insights.NewDetail(m.ctx, pageID, m.backend, insights.DetailOptions{
		OnEntrance: revealTick,
		Logger:     m.logger,
	})
	m.screen = screenInsights
	m.selectedPost = 0
	m.revealed = 0
	m.chat.open = false
	m.chat.pending = false
	m.chat.lines = nil
	m.chat.input.Reset()
	m.chat.input.Blur()
	m.input.Blur()
	return m
}

func (m uiModel) navigate(pageID string) (uiModel, tea.Cmd) {
	m = m.openPage(pageID)
	m.logger.Debug().Str("page", pageID).Uint64("instance", m.detail.Instance()).Msg("navigate")
	return m, m.detail.Init()
}

// backToSearch closes the page instance; late results for it are dropped.
func (m uiModel) backToSearch() (uiModel, tea.Cmd) {
	if m.detail != nil {
		m.detail.Close()
		m.detail = nil
	}
	m.screen = screenSearch
	m.chat.open = false
	m.chat.pending = false
	m.chat.lines = nil
	cmd := m.input.Focus()
	return m, cmd
}

func revealTick(instance uint64) tea.Cmd {
	return tea.Tick(revealFrame, func(time.Time) tea.Msg {
		return revealTickMsg{instance: instance}
	})
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-4)
		m.chat.input.Width = max(10, msg.Width-4)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case insights.SearchResultsMsg:
		if m.search.Update(msg) {
			m.selectedResult = 0
		}

	case insights.PageLoadedMsg, insights.PostsPageMsg, insights.CommentsLoadedMsg:
		if m.detail == nil {
			return m, nil
		}
		return m, m.detail.Update(msg)

	case revealTickMsg:
		if m.detail == nil || msg.instance != m.detail.Instance() || m.revealed >= revealSections {
			return m, nil
		}
		m.revealed++
		if m.revealed < revealSections {
			return m, revealTick(msg.instance)
		}

	case chatReplyMsg:
		if m.detail == nil || msg.instance != m.detail.Instance() {
			return m, nil
		}
		m.chat.pending = false
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Stringer("kind", api.KindOf(msg.err)).Msg("chat failed")
			m.chat.lines = append(m.chat.lines, chatLine{
				text:   "Sorry, I could not answer that. Please try again.",
				failed: true,
			})
		} else {
			m.chat.lines = append(m.chat.lines, chatLine{text: msg.text})
		}

	case configChangedMsg:
		return m, m.reloadPresets()

	case presetsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("config reload failed")
			return m, nil
		}
		m.presets = msg.presets
	}

	return m, nil
}

func (m uiModel) reloadPresets() tea.Cmd {
	path := m.configPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		cfg, err := config.LoadFile(path)
		return presetsLoadedMsg{presets: cfg.Presets, err: err}
	}
}

func (m uiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}
	switch m.screen {
	case screenSearch:
		if m.input.Focused() {
			return m.handleQueryKey(msg)
		}
		return m.handleResultsKey(msg)
	default:
		if m.chat.open {
			return m.handleChatKey(msg)
		}
		return m.handleInsightsKey(msg)
	}
}

func (m uiModel) quit() (tea.Model, tea.Cmd) {
	if m.detail != nil {
		m.detail.Close()
	}
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
	return m, tea.Quit
}

func (m uiModel) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submitQuery()
	case tea.KeyTab:
		m.input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.input.Reset()
		m.queryErr = ""
		m.search.Clear()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m uiModel) submitQuery() (tea.Model, tea.Cmd) {
	pageID, filters, err := insights.ParseQuery(m.input.Value())
	if err != nil {
		m.queryErr = err.Error()
		return m, nil
	}
	m.queryErr = ""
	if pageID != "" {
		return m.navigate(pageID)
	}
	m.selectedResult = 0
	m.input.Blur()
	return m, m.search.Submit(m.ctx, filters)
}

func (m uiModel) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if n, ok := presetIndex(msg.String()); ok {
		if n < len(m.presets) && n < maxPresets {
			return m.navigate(m.presets[n])
		}
		return m, nil
	}

	results, _ := m.search.State().Data()
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Focus), key.Matches(msg, keys.Esc):
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, keys.Up):
		if m.selectedResult > 0 {
			m.selectedResult--
		}
	case key.Matches(msg, keys.Down):
		if m.selectedResult < len(results)-1 {
			m.selectedResult++
		}
	case key.Matches(msg, keys.Enter):
		if m.selectedResult >= 0 && m.selectedResult < len(results) {
			return m.navigate(results[m.selectedResult].LinkedInID)
		}
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// presetIndex maps "1".."9" to a zero-based preset index.
func presetIndex(s string) (int, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '1'), true
}

func (m uiModel) handleInsightsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	posts := m.detail.Posts()
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Esc):
		return m.backToSearch()

	case key.Matches(msg, keys.Reload):
		return m.navigate(m.detail.PageID())

	case key.Matches(msg, keys.Up):
		if m.selectedPost > 0 {
			m.selectedPost--
		}

	case key.Matches(msg, keys.Down):
		if m.selectedPost < len(posts)-1 {
			m.selectedPost++
		}

	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Comments):
		if m.selectedPost >= 0 && m.selectedPost < len(posts) {
			return m, m.detail.ToggleComments(posts[m.selectedPost].ID)
		}

	case key.Matches(msg, keys.More):
		return m, m.detail.LoadMore()

	case key.Matches(msg, keys.Chat):
		if m.detail.PageState().Status() != insights.StatusPopulated {
			return m, nil
		}
		m.chat.open = true
		cmd := m.chat.input.Focus()
		return m, cmd

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m uiModel) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.chat.open = false
		m.chat.input.Blur()
		return m, nil
	case tea.KeyEnter:
		return m.sendChat()
	}
	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	return m, cmd
}

// sendChat issues one single-turn question. Sending is disabled while a
// reply is pending.
func (m uiModel) sendChat() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.chat.input.Value())
	if text == "" || m.chat.pending {
		return m, nil
	}
	m.chat.input.Reset()
	m.chat.pending = true
	m.chat.lines = append(m.chat.lines, chatLine{fromUser: true, text: text})

	ctx, b := m.ctx, m.backend
	pageID, inst := m.detail.PageID(), m.detail.Instance()
	return m, func() tea.Msg {
		reply, err := b.SendMessage(ctx, pageID, text)
		return chatReplyMsg{instance: inst, text: reply, err: err}
	}
}
