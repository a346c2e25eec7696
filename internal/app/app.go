package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lab-radar.klederson.com/internal/answer"
	"lab-radar.klederson.com/internal/config"
	"lab-radar.klederson.com/internal/engine"
	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/location"
	"lab-radar.klederson.com/internal/logger"
	"lab-radar.klederson.com/internal/msglog"
	"lab-radar.klederson.com/internal/notify"
	"lab-radar.klederson.com/internal/radar"
	"lab-radar.klederson.com/internal/remote"
	"lab-radar.klederson.com/internal/settings"
	"lab-radar.klederson.com/internal/ui"
)

// Deps are the collaborators wired by main.go.
type Deps struct {
	Settings   *settings.Settings
	Source     location.Source
	Store      *labs.Store
	Engine     *engine.Engine
	Dispatcher *notify.Dispatcher
	Answers    *answer.Machine
	Remote     remote.Client
	Messages   *msglog.Log
	Log        logger.Logger
}

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	Deps

	ctx    context.Context
	cancel context.CancelFunc

	sampler *location.Sampler
	mode    location.Mode
	events  <-chan location.Event
	gen     int

	sweep   *radar.Sweep
	banners *BannerRing
	worker  *notify.WorkerChannel
}

type page int

const (
	pageRadar page = iota
	pageDetail
	pageJournal
	pageMessages
)

type inputKind int

const (
	inputNone inputKind = iota
	inputAnswer
	inputReview
)

// AppModel is the root Bubble Tea model for LAB-RADAR.
type AppModel struct {
	width  int
	height int

	page      page
	cursor    int
	msgOffset int

	user     string
	position *geo.Coordinate
	lastErr  string

	input     inputKind
	inputLab  string
	inputText string

	journalLab string
	journal    []string
	reviewFor  string
	question   string

	shared *shared

	// Cached snapshot, filtered by hide-answered
	labs []labs.Lab
}

// New creates a new AppModel. Start must be called before the program runs.
func New(ctx context.Context, deps Deps) AppModel {
	ctx, cancel := context.WithCancel(ctx)
	opts := location.Options{HighAccuracy: deps.Settings.HighAccuracy()}
	m := AppModel{
		user: "guest",
		shared: &shared{
			Deps:    deps,
			ctx:     ctx,
			cancel:  cancel,
			sampler: location.NewSampler(deps.Source, opts),
			sweep:   radar.NewSweep(config.SweepSpeedRPM),
			banners: NewBannerRing(config.BannerCapacity),
		},
	}
	if c, ok := deps.Engine.Current(); ok {
		m.position = &c
	}
	return m
}

// Start installs the program-backed sinks and starts sampling. Must be called
// before p.Run().
func (m *AppModel) Start(p *tea.Program) {
	sink := programSink{p: p}
	m.shared.Answers.SetMarkerSink(sink)
	m.shared.Answers.SetJournalRenderer(sink)

	m.shared.worker = notify.NewWorkerChannel(func(n notify.Notification) {
		p.Send(NotificationMsg{Notification: n})
	}, config.MessageBuffer)
	m.shared.Dispatcher.RegisterWorker(m.shared.worker)

	m.shared.startSampler()
}

// Close stops sampling and the notification worker.
func (m *AppModel) Close() {
	m.shared.cancel()
	m.shared.sampler.Stop()
	if m.shared.worker != nil {
		m.shared.worker.Close()
	}
}

func (s *shared) startSampler() {
	s.sampler.SetOptions(location.Options{HighAccuracy: s.Settings.HighAccuracy()})
	s.mode = location.ModeFromSeconds(s.Settings.UpdateInterval())
	s.gen++
	s.events = s.sampler.Start(s.ctx, s.mode)
	s.Messages.Append("watching position: " + s.mode.Kind.String())
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.waitForEvent(),
		m.fetchUser(),
	)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.input != inputNone {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)

	case TickMsg:
		m.shared.sweep.Update()
		m.refreshLabs()
		return m, tickCmd()

	case PositionMsg:
		if msg.Gen != m.shared.gen {
			return m, nil
		}
		if msg.Event.Err != nil {
			m.lastErr = describeLocationError(msg.Event.Err)
			m.shared.Messages.Append("location: " + msg.Event.Err.Error())
			return m, m.waitForEvent()
		}
		c := msg.Event.Coord
		m.position = &c
		m.lastErr = ""
		// The next sample is read once this cycle is done, so cycles never overlap.
		return m, m.handlePosition(c, msg.Gen)

	case SamplerClosedMsg:
		if msg.Gen == m.shared.gen {
			m.shared.Messages.Append("position watch ended")
		}
		return m, nil

	case CycleMsg:
		switch {
		case msg.Err != nil:
			m.lastErr = msg.Err.Error()
		case msg.Cycle.FetchErr != nil:
			m.lastErr = "lab fetch failed"
		}
		m.refreshLabs()
		if msg.Gen != m.shared.gen {
			return m, nil
		}
		return m, m.waitForEvent()

	case NotificationMsg:
		m.shared.banners.Push(msg.Notification)
		m.shared.Messages.Append("notification: " + msg.Notification.Title)
		return m, nil

	case AnswerMsg:
		if msg.Err != nil {
			m.lastErr = "answer not sent"
		} else if msg.Outcome.ReviewFor != "" {
			m.reviewFor = msg.Outcome.ReviewFor
		}
		m.refreshLabs()
		return m, nil

	case JournalMsg:
		m.page = pageJournal
		m.journalLab = msg.LabID
		m.journal = msg.Journal.Render()
		return m, nil

	case ReviewMsg:
		if msg.Err != nil {
			m.lastErr = "review not sent"
		} else {
			m.reviewFor = ""
		}
		return m, nil

	case MarkerMsg:
		m.refreshLabs()
		return m, nil

	case UserMsg:
		if msg.Err == nil {
			m.user = msg.User.DisplayName()
		}
		return m, nil

	case DetailMsg:
		if msg.Err == nil && m.selectedID() == msg.Detail.ID {
			m.question = msg.Detail.Question
		}
		return m, nil
	}

	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.shared.sampler.Stop()
		return m, tea.Quit

	case "esc":
		m.page = pageRadar

	case "up", "k":
		if m.page == pageMessages {
			if m.msgOffset > 0 {
				m.msgOffset--
			}
		} else if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.page == pageMessages {
			if m.msgOffset < m.shared.Messages.Len()-1 {
				m.msgOffset++
			}
		} else if m.cursor < len(m.labs)-1 {
			m.cursor++
		}

	case "home":
		m.cursor = 0

	case "end":
		if len(m.labs) > 0 {
			m.cursor = len(m.labs) - 1
		}

	case "enter":
		if id := m.selectedID(); id != "" {
			m.page = pageDetail
			m.question = ""
			return m, m.fetchDetail(id)
		}

	case "a", "A":
		if id := m.selectedID(); id != "" {
			m.input = inputAnswer
			m.inputLab = id
			m.inputText = ""
		}

	case "v", "V":
		if m.reviewFor != "" {
			m.input = inputReview
			m.inputText = ""
		}

	case "n", "N":
		p := m.shared.Dispatcher.RequestPermission()
		m.shared.Messages.Append("notifications " + p.String())

	case "h", "H":
		hide := !m.shared.Settings.HideAnswered()
		m.shared.Settings.Set(settings.KeyHideAnswered, hide)
		m.refreshLabs()

	case "m", "M":
		if m.page == pageMessages {
			m.page = pageRadar
		} else {
			m.page = pageMessages
			m.msgOffset = 0
		}

	case "r", "R":
		m.shared.startSampler()
		return m, m.waitForEvent()
	}

	return m, nil
}

func (m AppModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input = inputNone
		return m, nil

	case tea.KeyEnter:
		kind, text := m.input, strings.TrimSpace(m.inputText)
		m.input = inputNone
		m.inputText = ""
		if text == "" {
			return m, nil
		}
		if kind == inputAnswer {
			return m, m.submitAnswer(m.inputLab, text)
		}
		review, err := parseReview(m.reviewFor, text)
		if err != nil {
			m.lastErr = err.Error()
			return m, nil
		}
		return m, m.submitReview(review)

	case tea.KeyBackspace:
		if r := []rune(m.inputText); len(r) > 0 {
			m.inputText = string(r[:len(r)-1])
		}

	case tea.KeySpace:
		m.inputText += " "

	case tea.KeyRunes:
		m.inputText += string(msg.Runes)
	}

	return m, nil
}

// parseReview reads "<rating> [text]".
func parseReview(adventureID, text string) (remote.Review, error) {
	rating, rest, _ := strings.Cut(text, " ")
	n, err := strconv.Atoi(rating)
	if err != nil || n < 1 || n > 5 {
		return remote.Review{}, fmt.Errorf("rating must be 1-5, got %q", rating)
	}
	return remote.Review{AdventureID: adventureID, Rating: n, Text: strings.TrimSpace(rest)}, nil
}

func (m *AppModel) refreshLabs() {
	snap := m.shared.Store.Snapshot()
	if m.shared.Settings.HideAnswered() {
		visible := snap[:0]
		for _, l := range snap {
			if !l.Answered() {
				visible = append(visible, l)
			}
		}
		snap = visible
	}
	m.labs = snap
	if m.cursor >= len(m.labs) {
		m.cursor = max(0, len(m.labs)-1)
	}
}

func (m AppModel) selectedID() string {
	if m.cursor < 0 || m.cursor >= len(m.labs) {
		return ""
	}
	return m.labs[m.cursor].ID
}

func (m AppModel) selectedLab() (labs.Lab, bool) {
	id := m.selectedID()
	if id == "" {
		return labs.Lab{}, false
	}
	return m.shared.Store.Get(id)
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing LAB-RADAR..."
	}

	menuBar := ui.RenderMenuBar(m.width, m.user, m.shared.sampler.Active() > 0)

	banner := ""
	if n, ok := m.shared.banners.Last(); ok {
		banner = ui.RenderBanner(m.width, fmt.Sprintf("! %s: %s", n.Title, n.Options.Body))
	}

	bodyH := m.height - 2
	if banner != "" {
		bodyH--
	}
	if bodyH < 5 {
		bodyH = 5
	}

	mainW := m.width * 2 / 3
	if mainW < 30 {
		mainW = 30
	}
	listW := m.width - mainW
	if listW < 15 {
		listW = 15
		mainW = m.width - listW
	}

	var mainPanel, labList string
	switch m.page {
	case pageMessages:
		mainPanel = ui.RenderMessagesPage(m.shared.Messages.Render(), m.width, bodyH, m.msgOffset)
	case pageJournal:
		title := m.journalLab
		if l, ok := m.shared.Store.Get(m.journalLab); ok {
			title = l.DisplayTitle()
		}
		mainPanel = ui.RenderJournalPanel(title, m.journal, m.reviewFor, mainW, bodyH)
	case pageDetail:
		if l, ok := m.selectedLab(); ok && m.position != nil {
			mainPanel = ui.RenderDetailPanel(ui.DetailInfo{
				Lab:      l,
				State:    m.shared.Answers.State(l.ID).String(),
				Bearing:  geo.Bearing(*m.position, geo.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}),
				Heading:  m.position.Heading,
				Radius:   m.shared.Settings.NotificationDistance(),
				Question: m.question,
			}, mainW, bodyH)
			break
		}
		fallthrough
	default:
		mainPanel = m.renderRadar(mainW, bodyH)
	}

	if m.page != pageMessages {
		labList = ui.RenderLabList(m.labs, listW, bodyH, ui.ListState{
			Cursor:       m.cursor,
			HideAnswered: m.shared.Settings.HideAnswered(),
			Waiting: func(id string) bool {
				return m.shared.Answers.State(id) == answer.StateWaiting
			},
		})
	}

	statusBar := ui.RenderStatusBar(m.width, m.statusInfo())
	return ui.ComposeLayout(menuBar, mainPanel, labList, banner, statusBar)
}

func (m AppModel) renderRadar(width, height int) string {
	innerW := max(width-4, 5)
	innerH := max(height-4, 3)
	maxRange := m.radarRange()

	var blips []radar.Blip
	if m.position != nil {
		blips = radar.Blips(*m.position, m.labs, m.selectedID())
	}
	content := radar.Render(innerW, innerH, blips, m.shared.sweep, maxRange)
	return ui.RenderRadarPanel(width, height, content, radar.RenderLegend(innerW, maxRange))
}

// radarRange shows the notification radius and the refresh threshold.
func (m AppModel) radarRange() float64 {
	s := m.shared.Settings
	return math.Max(config.MinRadarRange,
		math.Max(2*s.NotificationDistance(), engine.Threshold(s.BlockSize())))
}

func (m AppModel) statusInfo() ui.StatusInfo {
	s := m.shared.Settings
	info := ui.StatusInfo{
		Mode:         m.shared.mode.Kind.String(),
		Permission:   m.shared.Dispatcher.Permission().String(),
		Labs:         m.shared.Store.Len(),
		ByColor:      m.shared.Store.CountByColor(),
		FromAnchor:   -1,
		Threshold:    engine.Threshold(s.BlockSize()),
		Err:          m.lastErr,
		HideAnswered: s.HideAnswered(),
	}
	if a, ok := m.shared.Engine.Anchor(); ok && m.position != nil {
		info.FromAnchor = geo.Distance(a, *m.position)
	}

	switch m.input {
	case inputAnswer:
		title := m.inputLab
		if l, ok := m.shared.Store.Get(m.inputLab); ok {
			title = l.DisplayTitle()
		}
		info.InputPrompt = "Answer " + title + ":"
		info.Input = m.inputText
	case inputReview:
		info.InputPrompt = "Rating 1-5 and review:"
		info.Input = m.inputText
	}
	return info
}

func describeLocationError(err error) string {
	var lerr *location.LocationError
	if errors.As(err, &lerr) {
		return lerr.Code.String()
	}
	var cerr *location.CapabilityError
	if errors.As(err, &cerr) {
		return "no position source"
	}
	return "position error"
}

func (m AppModel) waitForEvent() tea.Cmd {
	ch, gen := m.shared.events, m.shared.gen
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return SamplerClosedMsg{Gen: gen}
		}
		return PositionMsg{Event: ev, Gen: gen}
	}
}

func (m AppModel) handlePosition(c geo.Coordinate, gen int) tea.Cmd {
	ctx, eng := m.shared.ctx, m.shared.Engine
	return func() tea.Msg {
		cycle, err := eng.HandlePosition(ctx, c)
		return CycleMsg{Cycle: cycle, Err: err, Gen: gen}
	}
}

func (m AppModel) submitAnswer(id, value string) tea.Cmd {
	ctx, answers := m.shared.ctx, m.shared.Answers
	return func() tea.Msg {
		out, err := answers.Submit(ctx, id, value)
		return AnswerMsg{LabID: id, Outcome: out, Err: err}
	}
}

func (m AppModel) submitReview(r remote.Review) tea.Cmd {
	ctx, answers := m.shared.ctx, m.shared.Answers
	return func() tea.Msg {
		return ReviewMsg{AdventureID: r.AdventureID, Err: answers.SubmitReview(ctx, r)}
	}
}

func (m AppModel) fetchUser() tea.Cmd {
	ctx, client := m.shared.ctx, m.shared.Remote
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		u, err := client.FetchUser(ctx)
		return UserMsg{User: u, Err: err}
	}
}

func (m AppModel) fetchDetail(id string) tea.Cmd {
	ctx, client := m.shared.ctx, m.shared.Remote
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		d, err := client.FetchDetail(ctx, id)
		if d.ID == "" {
			d.ID = id
		}
		return DetailMsg{Detail: d, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
