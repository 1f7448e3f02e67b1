package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/activebook/lulu/data"
	"github.com/activebook/lulu/internal/ui"
	"github.com/activebook/lulu/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const (
	dashboardRefresh = 250 * time.Millisecond
	panelHeight      = 12
	historyRows      = 4
	minSplitWidth    = 80
)

type focusArea int

const (
	focusControls focusArea = iota
	focusChat
	focusRegister
)

type dashboardTickMsg time.Time

type sessionDoneMsg struct {
	action string
	err    error
}

type chatDoneMsg struct{ err error }

type registerDoneMsg struct {
	result service.RegisterResult
	err    error
}

type dashboardKeyMap struct {
	Start    key.Binding
	Stop     key.Binding
	Register key.Binding
	Focus    key.Binding
	Scroll   key.Binding
	Send     key.Binding
	Submit   key.Binding
	Back     key.Binding
	Quit     key.Binding
}

func newDashboardKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Register: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "register")),
		Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "chat")),
		Scroll:   key.NewBinding(key.WithKeys("up", "down", "pgup", "pgdown"), key.WithHelp("↑/↓", "scroll")),
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "register")),
		Back:     key.NewBinding(key.WithKeys("esc", "tab"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// bindingList adapts a slice of bindings to help.KeyMap.
type bindingList []key.Binding

func (b bindingList) ShortHelp() []key.Binding  { return b }
func (b bindingList) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

// dashboardModel never calls into the session from a display listener:
// session calls run as tea.Cmds and the view is re-read on every tick.
type dashboardModel struct {
	ctx  context.Context
	c    *service.Companion
	keys dashboardKeyMap
	help help.Model

	spinner   spinner.Model
	chatInput textinput.Model
	nameInput textinput.Model
	chatView  viewport.Model
	logo      string

	focus       focusArea
	width       int
	height      int
	sending     bool
	registering bool

	// refreshed on every tick
	now         time.Time
	state       service.StreamState
	controls    service.Controls
	view        service.DisplayView
	snap        service.StatusSnapshot
	haveSnap    bool
	chatEnabled bool
	chatLen     int
}

func newDashboardModel(ctx context.Context, c *service.Companion) dashboardModel {
	chat := textinput.New()
	chat.Placeholder = "Say something to lulu..."
	chat.Prompt = "┃ "
	chat.CharLimit = 2000
	chat.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(data.LabelHex)).Bold(true)
	chat.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(data.DetailHex))

	name := textinput.New()
	name.Placeholder = "Your name"
	name.Prompt = "> "
	name.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(data.SpinnerHex))

	m := dashboardModel{
		ctx:       ctx,
		c:         c,
		keys:      newDashboardKeyMap(),
		help:      help.New(),
		spinner:   sp,
		chatInput: chat,
		nameInput: name,
		chatView:  viewport.New(40, 5),
		width:     ui.GetTerminalWidth(),
	}
	if data.GetSettingsStore().GetShowLogo() {
		m.logo = strings.TrimRight(ui.GetLogo(data.KeyHex, data.SectionHex, 0.5), "\n")
	}
	m.refresh()
	return m
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(dashboardTick(), m.spinner.Tick, textinput.Blink)
}

func dashboardTick() tea.Cmd {
	return tea.Tick(dashboardRefresh, func(t time.Time) tea.Msg {
		return dashboardTickMsg(t)
	})
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		m.renderChat()
		return m, nil

	case dashboardTickMsg:
		m.refresh()
		return m, dashboardTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionDoneMsg:
		if msg.err != nil {
			service.Debugf("%s: %v", msg.action, msg.err)
		}
		m.refresh()
		return m, nil

	case chatDoneMsg:
		m.sending = false
		m.refresh()
		return m, nil

	case registerDoneMsg:
		m.registering = false
		if msg.err == nil {
			m.nameInput.Reset()
			m.nameInput.Blur()
			m.focus = focusControls
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.focus {
		case focusRegister:
			return m.updateRegister(msg)
		case focusChat:
			return m.updateChat(msg)
		default:
			return m.updateControls(msg)
		}
	}
	return m, nil
}

func (m dashboardModel) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		return m, m.sessionCmd("start", m.c.Session.Start)
	case key.Matches(msg, m.keys.Stop):
		return m, m.sessionCmd("stop", m.c.Session.Stop)
	case key.Matches(msg, m.keys.Register):
		m.c.Register.Open()
		m.nameInput.Reset()
		m.focus = focusRegister
		m.refreshKeys()
		return m, m.nameInput.Focus()
	case key.Matches(msg, m.keys.Focus):
		m.focus = focusChat
		m.refreshKeys()
		return m, m.chatInput.Focus()
	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.chatInput.Blur()
		m.focus = focusControls
		m.refreshKeys()
		return m, nil
	case key.Matches(msg, m.keys.Send):
		text := m.chatInput.Value()
		if m.sending || strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.chatInput.Reset()
		m.sending = true
		m.refreshKeys()
		ctx, relay := m.ctx, m.c.Chat
		return m, func() tea.Msg {
			_, err := relay.Send(ctx, text)
			return chatDoneMsg{err: err}
		}
	case msg.String() == "pgup" || msg.String() == "pgdown":
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m dashboardModel) updateRegister(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.registering {
			return m, nil
		}
		m.c.Register.Cancel()
		m.nameInput.Blur()
		m.focus = focusControls
		m.refreshKeys()
		return m, nil
	case "enter":
		if m.registering {
			return m, nil
		}
		m.registering = true
		flow, ctx := m.c.Register, m.ctx
		flow.SetName(m.nameInput.Value())
		return m, func() tea.Msg {
			res, err := flow.Submit(ctx)
			return registerDoneMsg{result: res, err: err}
		}
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m dashboardModel) sessionCmd(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return sessionDoneMsg{action: action, err: fn(ctx)}
	}
}

// refresh re-reads every component; it is the only place the model learns
// about state changes made off the UI goroutine.
func (m *dashboardModel) refresh() {
	m.now = time.Now()
	m.state = m.c.Session.State()
	m.controls = m.c.Session.Controls()
	m.view = m.c.Display.View()
	m.snap, m.haveSnap = m.c.Poller.Snapshot()
	m.chatEnabled = m.c.Poller.ChatEnabled()

	if !m.chatEnabled && m.focus == focusChat {
		m.chatInput.Blur()
		m.focus = focusControls
	}
	if m.focus == focusRegister && !m.c.Register.IsOpen() {
		m.nameInput.Blur()
		m.focus = focusControls
	}
	if n := m.c.Chat.Log().Len(); n != m.chatLen {
		m.chatLen = n
		m.renderChat()
	}
	m.refreshKeys()
	m.layout()
}

// refreshKeys enables exactly the bindings the current state allows.
func (m *dashboardModel) refreshKeys() {
	controls := m.focus == focusControls
	m.keys.Start.SetEnabled(controls && m.controls.Start)
	m.keys.Stop.SetEnabled(controls && m.controls.Stop)
	m.keys.Register.SetEnabled(controls && m.controls.Register)
	m.keys.Focus.SetEnabled(controls && m.chatEnabled)
	m.keys.Scroll.SetEnabled(controls)
	m.keys.Quit.SetEnabled(controls)
	m.keys.Send.SetEnabled(m.focus == focusChat && !m.sending)
	m.keys.Submit.SetEnabled(m.focus == focusRegister && !m.registering)
	m.keys.Back.SetEnabled(m.focus != focusControls)
}

func (m *dashboardModel) layout() {
	if m.width <= 0 {
		return
	}
	m.chatView.Width = max(m.width-2, 20)
	m.chatInput.Width = max(m.width-6, 10)

	used := 1 + panelHeight + 2 + 2 + 1 + 1 // header, panels, chat border, input, help
	if m.width < minSplitWidth {
		used += panelHeight + 2
	}
	if m.logo != "" && m.height >= 40 {
		used += lipgloss.Height(m.logo)
	}
	used += len(m.view.Notifications)
	if m.view.Loading {
		used++
	}
	m.chatView.Height = max(m.height-used, 3)
}

func (m *dashboardModel) renderChat() {
	messages := m.c.Chat.Log().Messages()
	if len(messages) == 0 {
		m.chatView.SetContent(lipgloss.NewStyle().Foreground(lipgloss.Color(data.DetailHex)).
			Render("No messages yet."))
		return
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, ui.FormatChatLine(msg.Origin == service.OriginUser, msg.At.Format("15:04"),
			service.SanitizeText(msg.Content), m.chatView.Width))
	}
	m.chatView.SetContent(strings.Join(lines, "\n"))
	m.chatView.GotoBottom()
}

func (m dashboardModel) View() string {
	if m.width <= 0 {
		return "Loading..."
	}
	var sections []string

	if m.logo != "" && m.height >= 40 {
		sections = append(sections, m.logo)
	}
	sections = append(sections, m.headerView())

	panelWidth := m.width - 2
	split := m.width >= minSplitWidth
	if split {
		panelWidth = m.width/2 - 2
	}
	stats := m.c.Feed.Stats()
	stream := renderStreamPanel(streamPanelData{
		State:    m.state,
		Source:   m.c.Session.Source(),
		Backoff:  m.c.Session.Backoff(),
		Attempts: m.c.Session.Attempts(),
		Stats:    stats,
		FPS:      stats.FPS(m.c.Feed.ConnectedAt()),
		Controls: m.controls,
	}, panelWidth)
	status := renderStatusPanel(m.snap, m.haveSnap, m.now, panelWidth)

	box := panelStyle(panelWidth)
	if split {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, box.Render(stream), box.Render(status)))
	} else {
		sections = append(sections, box.Render(stream), box.Render(status))
	}

	if m.focus == focusRegister {
		sections = append(sections, m.registerView())
	} else {
		chatBorder := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(data.BorderHex)).Width(m.width - 2)
		sections = append(sections, chatBorder.Render(m.chatView.View()), m.inputView())
	}

	for _, n := range m.view.Notifications {
		sections = append(sections, notificationText(n.Level, n.Message))
	}
	if m.view.Loading {
		sections = append(sections, m.spinner.View()+" "+m.view.LoadingMessage)
	}
	sections = append(sections, m.help.View(m.helpKeys()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m dashboardModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(data.KeyHex)).Render("lulu")
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(dotHex(m.view.Kind))).Render("●")
	server := lipgloss.NewStyle().Foreground(lipgloss.Color(data.DetailHex)).Render(m.c.Client.BaseURL())
	return fmt.Sprintf("%s  %s %s  %s", title, dot, m.view.Text, server)
}

func (m dashboardModel) inputView() string {
	if !m.chatEnabled {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(data.DetailHex)).
			Render("  Chat is available while the camera is running.")
	}
	if m.sending {
		return m.spinner.View() + " waiting for lulu..."
	}
	return m.chatInput.View()
}

func (m dashboardModel) registerView() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(data.SectionHex)).Bold(true)
	body := []string{
		label.Render("Register face"),
		"Look at the camera and enter your name.",
		"",
		m.nameInput.View(),
	}
	if m.registering {
		body = append(body, "", m.spinner.View()+" Registering user...")
	}
	return lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color(data.BorderHex)).
		Padding(0, 1).Width(m.width - 2).
		Height(m.chatView.Height + 1).
		Render(strings.Join(body, "\n"))
}

func (m dashboardModel) helpKeys() help.KeyMap {
	switch m.focus {
	case focusChat:
		return bindingList{m.keys.Send, m.keys.Back}
	case focusRegister:
		return bindingList{m.keys.Submit, m.keys.Back}
	default:
		return bindingList{m.keys.Start, m.keys.Stop, m.keys.Register, m.keys.Focus, m.keys.Scroll, m.keys.Quit}
	}
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(data.BorderHex)).
		Padding(0, 1).
		Width(width).
		Height(panelHeight).
		MaxHeight(panelHeight + 2)
}

func dotHex(kind service.IndicatorKind) string {
	switch kind {
	case service.IndicatorActive:
		return data.DotActiveHex
	case service.IndicatorError:
		return data.DotErrorHex
	default:
		return data.DotIdleHex
	}
}

func stateHex(s service.StreamState) string {
	switch s {
	case service.StreamActive:
		return data.DotActiveHex
	case service.StreamStarting, service.StreamReconnecting:
		return data.DotWarnHex
	case service.StreamError:
		return data.DotErrorHex
	default:
		return data.DotIdleHex
	}
}

type streamPanelData struct {
	State    service.StreamState
	Source   string
	Backoff  time.Duration
	Attempts int
	Stats    service.FeedStats
	FPS      float64
	Controls service.Controls
}

// renderStreamPanel shows the session state, the feed and which controls work.
func renderStreamPanel(d streamPanelData, width int) string {
	section := lipgloss.NewStyle().Foreground(lipgloss.Color(data.SectionHex)).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(data.DetailHex))
	state := lipgloss.NewStyle().Foreground(lipgloss.Color(stateHex(d.State))).Bold(true)
	inner := uint(max(width-12, 8))

	source := "-"
	if d.Source != "" {
		source = truncate.StringWithTail(d.Source, inner, "…")
	}

	lines := []string{
		section.Render("Stream"),
		fmt.Sprintf("State     %s", state.Render(d.State.String())),
		fmt.Sprintf("Source    %s", dim.Render(source)),
	}
	if d.State == service.StreamReconnecting {
		lines = append(lines, fmt.Sprintf("Retry in  %s (attempt %d)", d.Backoff, d.Attempts))
	} else if d.Attempts > 0 {
		lines = append(lines, fmt.Sprintf("Retries   %d", d.Attempts))
	}

	feed := "not connected"
	if d.Stats.Connected {
		feed = fmt.Sprintf("%d frames", d.Stats.Frames)
		if d.FPS > 0 {
			feed += fmt.Sprintf(" · %.1f fps", d.FPS)
		}
		if d.Stats.Width > 0 {
			feed += fmt.Sprintf(" · %dx%d", d.Stats.Width, d.Stats.Height)
		}
	}
	lines = append(lines, fmt.Sprintf("Feed      %s", feed), "")

	control := func(k, label string, enabled bool) string {
		text := fmt.Sprintf("[%s] %s", k, label)
		if !enabled {
			return dim.Strikethrough(true).Render(text)
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(data.KeyHex)).Render(text)
	}
	lines = append(lines, strings.Join([]string{
		control("s", "start", d.Controls.Start),
		control("x", "stop", d.Controls.Stop),
		control("r", "register", d.Controls.Register),
	}, "  "))
	return strings.Join(lines, "\n")
}

// renderStatusPanel shows the latest snapshot: who, how they feel, the
// personality estimate and recent emotions.
func renderStatusPanel(snap service.StatusSnapshot, have bool, now time.Time, width int) string {
	section := lipgloss.NewStyle().Foreground(lipgloss.Color(data.SectionHex)).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(data.DetailHex))

	if !have {
		return section.Render("Status") + "\n" + dim.Render("Waiting for the server...")
	}

	user := snap.User
	if user == "" {
		user = dim.Render("nobody recognized")
	}
	lines := []string{
		section.Render("Status") + dim.Render(fmt.Sprintf("  %d known", snap.KnownCount)),
		fmt.Sprintf("User      %s", user),
	}
	if snap.HasEmotion() {
		emotion := lipgloss.NewStyle().Foreground(lipgloss.Color(service.EmotionColor(snap.Emotion))).
			Render(service.EmotionEmoji(snap.Emotion) + " " + snap.EmotionLabel)
		lines = append(lines, fmt.Sprintf("Emotion   %s %s", emotion, dim.Render(service.Percent(snap.Confidence))))
	} else {
		lines = append(lines, "Emotion   "+dim.Render("-"))
	}
	if snap.Behavior != "" {
		lines = append(lines, "Behavior  "+snap.Behavior)
	}

	barWidth := max(min(width-26, 20), 5)
	for _, t := range snap.Personality {
		label := truncate.StringWithTail(t.Label(), 9, "…")
		lines = append(lines, fmt.Sprintf("%-9s %s %s", label, service.PercentBar(t.Value, barWidth), dim.Render(service.Percent(t.Value))))
	}

	history := snap.History
	if len(history) > historyRows {
		history = history[len(history)-historyRows:]
	}
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("%s %s %s", service.EmotionEmoji(h.Emotion), h.Label(),
			dim.Render(service.RelativeTime(h.Timestamp.Time, now))))
	}
	return strings.Join(lines, "\n")
}

// runDashboard owns the terminal until the user quits. Logs go to a file
// meanwhile; the session is stopped and the chat saved on the way out.
func runDashboard(parent context.Context) error {
	if logFile, err := os.OpenFile(data.GetLogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
		service.RedirectLog(logFile)
		defer logFile.Close()
	} else {
		service.Warnf("Cannot open log file, logging is off while the dashboard runs: %v", err)
		service.SetLogLevel("panic")
	}

	opts := companionOptions()
	c, err := service.NewCompanion(opts)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	c.Run(ctx)
	service.Infof("Dashboard opened against %s", c.Client.BaseURL())

	p := tea.NewProgram(newDashboardModel(ctx, c), tea.WithAltScreen())
	_, runErr := p.Run()
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), opts.RequestTimeout)
	defer closeCancel()
	c.Close(closeCtx)

	id, err := c.SaveTranscript(transcriptStore())
	if err != nil {
		service.Errorf("%v", err)
	} else if id != "" {
		fmt.Printf("Chat transcript saved as %s\n", keyColor(id))
	}
	if runErr != nil {
		return fmt.Errorf("dashboard error: %w", runErr)
	}
	return nil
}
