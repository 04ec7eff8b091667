package main

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/avelichko/envoy-engine/internal/handlers"
)

const PlaceHolderText = "Type a choice number or speak freely..."

// logEntry is one line of the story transcript.
type logEntry struct {
	speaker string
	text    string
	isUser  bool
	isError bool
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config        *ConsoleConfig
	client        *http.Client
	play          *handlers.PlaythroughResponse
	log           []logEntry
	storyViewport viewport.Model
	metaViewport  viewport.Model
	textarea      textarea.Model
	ready         bool
	width         int
	height        int
	err           error
	loading       bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// Clipboard feedback state
	copied bool
}

type playthroughMsg struct {
	play *handlers.PlaythroughResponse
	err  error
}

type dialogueMsg struct {
	dialogue *handlers.DialogueResponse
	err      error
}

type progressTickMsg struct{}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	sceneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, play *handlers.PlaythroughResponse) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	ui := ConsoleUI{
		config:        cfg,
		client:        client,
		play:          play,
		textarea:      ta,
		storyViewport: storyVp,
		metaViewport:  metaVp,
		ready:         false,
	}
	ui.appendScene()
	return ui
}

// appendScene records the current scene into the transcript.
func (m *ConsoleUI) appendScene() {
	if m.play == nil || m.play.Scene == nil {
		return
	}
	scene := m.play.Scene
	if scene.Scene != nil {
		m.log = append(m.log, logEntry{speaker: scene.Scene.Speaker, text: scene.Scene.Text})
	}
	if scene.Finished {
		m.log = append(m.log, logEntry{text: "The story has reached its end."})
	}
}

func (m *ConsoleUI) appendError(err error) {
	m.log = append(m.log, logEntry{text: err.Error(), isError: true})
}

// writeStoryContent builds the story content for the current viewport width
func (m *ConsoleUI) writeStoryContent() {
	storyWidth := m.storyViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("ENVOY ENGINE") + "\n\n")
	content.WriteString("An interactive diplomatic fiction.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(storyWidth-6, 10))) + "\n\n")

	for _, entry := range m.log {
		switch {
		case entry.isError:
			content.WriteString(errorStyle.Render("Error: "+entry.text) + "\n\n")
		case entry.isUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.text, storyWidth-6) + "\n\n")
		case entry.speaker != "":
			content.WriteString(speakerStyle.Render(entry.speaker+": ") + wordwrap.String(entry.text, storyWidth-6) + "\n\n")
		default:
			content.WriteString(sceneStyle.Render(wordwrap.String(entry.text, storyWidth)) + "\n\n")
		}
	}

	// Offer the current choices after the transcript
	if m.play != nil && m.play.Scene != nil && !m.loading {
		scene := m.play.Scene
		if len(scene.Choices) > 0 {
			for i, c := range scene.Choices {
				content.WriteString(choiceStyle.Render(fmt.Sprintf("  %d. %s", i+1, c.Text)) + "\n")
			}
			content.WriteString("\n")
		}
		if scene.CanTalk {
			content.WriteString(promptStyle.Render("You may speak freely here ("+scene.TalkWith+" is listening), or /skip to move on.") + "\n")
		} else if len(scene.Choices) == 0 && !scene.Finished {
			content.WriteString(promptStyle.Render("Press /skip to continue.") + "\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("PLAYTHROUGH") + "\n\n")

	if m.play == nil || m.play.Playthrough == nil {
		content.WriteString("No active playthrough.\n")
		return content.String()
	}
	p := m.play.Playthrough

	content.WriteString("ID:\n")
	content.WriteString(p.ID.String()[:8] + "...\n\n")

	content.WriteString("Module:\n")
	content.WriteString(p.Module + "\n\n")

	content.WriteString("Scene:\n")
	content.WriteString(p.Current + "\n\n")

	if m.play.Scene != nil && len(m.play.Scene.Relations) > 0 {
		content.WriteString("Relations:\n")
		ids := make([]string, 0, len(m.play.Scene.Relations))
		for id := range m.play.Scene.Relations {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			content.WriteString(fmt.Sprintf("• %s: %s (%d)\n", id, m.play.Scene.Relations[id], p.State.NPCOpinions[id]))
		}
		content.WriteString("\n")
	}

	if len(p.State.Factions) > 0 {
		content.WriteString("Factions:\n")
		ids := make([]string, 0, len(p.State.Factions))
		for id := range p.State.Factions {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			content.WriteString(fmt.Sprintf("• %s: %d\n", id, p.State.Factions[id]))
		}
		content.WriteString("\n")
	}

	if len(p.State.Flags) > 0 {
		content.WriteString("Flags:\n")
		for k, v := range p.State.Flags {
			content.WriteString(fmt.Sprintf("• %s: %v\n", k, v))
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /skip: Continue\n")
	content.WriteString("• /back: Undo\n")
	content.WriteString("• Ctrl+Y: Copy log\n")
	content.WriteString("• Ctrl+C: Quit\n")
	if m.copied {
		content.WriteString("\n" + choiceStyle.Render("Transcript copied!") + "\n")
	}

	return content.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.storyViewport, vpCmd = m.storyViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		storyWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - storyWidth - 6

		m.storyViewport.Width = storyWidth - 2
		m.storyViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(storyWidth - 4)

		m.ready = true
		m.writeStoryContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			if err := clipboard.WriteAll(m.plainTranscript()); err == nil {
				m.copied = true
				m.metaViewport.SetContent(m.writeMetadata())
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.copied = false

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			return m.handleInput(input)
		}

	case playthroughMsg:
		m.loading = false
		if msg.err != nil {
			m.appendError(msg.err)
		} else {
			m.play = msg.play
			m.appendScene()
		}
		m.writeStoryContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, nil

	case dialogueMsg:
		m.loading = false
		if msg.err != nil {
			m.appendError(msg.err)
		} else {
			m.play.Playthrough = msg.dialogue.Playthrough
			result := msg.dialogue.Result
			m.log = append(m.log, logEntry{speaker: speakerName(result.CharacterID), text: result.Response})
		}
		m.writeStoryContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeStoryContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handleInput routes free-form input: a number selects a choice, anything
// else is spoken aloud when the scene allows it.
func (m ConsoleUI) handleInput(input string) (tea.Model, tea.Cmd) {
	scene := m.play.Scene

	if n, err := strconv.Atoi(input); err == nil {
		if scene == nil || n < 1 || n > len(scene.Choices) {
			m.appendError(fmt.Errorf("no choice %d here", n))
			m.writeStoryContent()
			m.textarea.Reset()
			return m, nil
		}
		choice := scene.Choices[n-1]
		m.log = append(m.log, logEntry{text: choice.Text, isUser: true})
		m.textarea.Reset()
		m.loading = true
		m.progressTick = 0
		m.writeStoryContent()
		return m, tea.Batch(m.sendChoice(choice.ID), progressTick())
	}

	if scene == nil || !scene.CanTalk {
		m.appendError(fmt.Errorf("no one here to talk to; pick a numbered choice or /skip"))
		m.writeStoryContent()
		m.textarea.Reset()
		return m, nil
	}

	m.log = append(m.log, logEntry{text: input, isUser: true})
	m.textarea.Reset()
	m.loading = true
	m.progressTick = 0
	m.writeStoryContent()
	return m, tea.Batch(m.sendDialogue(input), progressTick())
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /skip - Continue past the current scene
• /back - Undo the last transition
• Ctrl+Y - Copy transcript to clipboard
• Ctrl+C - Quit

How to play:
• Enter a choice number to act
• In conversation scenes, type freely to speak
`
		m.log = append(m.log, logEntry{text: helpText})
		m.writeStoryContent()
		return m, nil

	case "/skip":
		m.loading = true
		m.progressTick = 0
		m.writeStoryContent()
		return m, tea.Batch(m.sendSkip(), progressTick())

	case "/back":
		m.loading = true
		m.progressTick = 0
		m.writeStoryContent()
		return m, tea.Batch(m.sendBack(), progressTick())

	case "/quit":
		m.showQuitModal = true
		return m, nil

	default:
		m.appendError(fmt.Errorf("unknown command %s; try /help", cmd))
		m.writeStoryContent()
		return m, nil
	}
}

func (m ConsoleUI) sendChoice(choiceID string) tea.Cmd {
	return func() tea.Msg {
		play, err := postChoice(m.client, m.config.APIBaseURL, m.play.Playthrough.ID, choiceID)
		return playthroughMsg{play, err}
	}
}

func (m ConsoleUI) sendDialogue(message string) tea.Cmd {
	return func() tea.Msg {
		dialogue, err := postDialogue(m.client, m.config.APIBaseURL, m.play.Playthrough.ID, message)
		return dialogueMsg{dialogue, err}
	}
}

func (m ConsoleUI) sendSkip() tea.Cmd {
	return func() tea.Msg {
		play, err := postSkip(m.client, m.config.APIBaseURL, m.play.Playthrough.ID)
		return playthroughMsg{play, err}
	}
}

func (m ConsoleUI) sendBack() tea.Cmd {
	return func() tea.Msg {
		play, err := postBack(m.client, m.config.APIBaseURL, m.play.Playthrough.ID)
		return playthroughMsg{play, err}
	}
}

// plainTranscript renders the log without styling for clipboard export.
func (m ConsoleUI) plainTranscript() string {
	var b strings.Builder
	for _, entry := range m.log {
		switch {
		case entry.isError:
			continue
		case entry.isUser:
			b.WriteString("You: " + entry.text + "\n\n")
		case entry.speaker != "":
			b.WriteString(entry.speaker + ": " + entry.text + "\n\n")
		default:
			b.WriteString(entry.text + "\n\n")
		}
	}
	return b.String()
}

// speakerName renders a character id as a display name.
func speakerName(id string) string {
	parts := strings.Split(id, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the summit? Your playthrough is saved on the server.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(storyWidth-4, 10))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.storyViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
