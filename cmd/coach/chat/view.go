package chat

import (
	"fmt"
	"strings"

	"fitcoach/internal/session"

	"github.com/charmbracelet/lipgloss"
)

const chooserHint = "[l] Log in  [r] Register  [q] Quit"

func (m Model) renderHistory() string {
	var sb strings.Builder
	botName := m.machine.Script().BotName

	for i, msg := range m.machine.Messages() {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch msg.Sender {
		case session.SenderUser:
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Width(m.viewport.Width).Render(msg.Text))
		default:
			sb.WriteString(m.styles.BotLabel.Render(botName) + "\n")
			sb.WriteString(m.renderBotMessage(msg))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderBotMessage renders a bot message as markdown, caching by id.
func (m Model) renderBotMessage(msg session.Message) string {
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	out := m.safeRenderMarkdown(msg.Text)
	m.rendered[msg.ID] = out
	return out
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string) {
	plain := lipgloss.NewStyle().Width(m.viewport.Width).Render(content)
	defer func() {
		if r := recover(); r != nil {
			result = plain
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return strings.Trim(rendered, "\n")
		}
	}
	return plain
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.styles.Content.Render(m.styles.RenderDivider(m.layout.ContentWidth())),
		m.styles.Content.Render(m.viewport.View()),
		m.renderTyping(),
		m.renderPanel(),
		m.styles.Footer.Render(m.help.View(m.keys)),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(m.machine.Script().BotName + " · fitness coach")
	switch {
	case m.machine.LoggedIn():
		user := m.styles.Success.Render("  ● ") +
			m.styles.Muted.Render("Signed in as ") +
			m.styles.Bold.Render(m.machine.UserName())
		return lipgloss.JoinHorizontal(lipgloss.Top, title, user)
	case m.machine.AuthMode() == session.AuthLogin:
		return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", m.styles.Badge.Render("Log in"))
	case m.machine.AuthMode() == session.AuthRegister:
		return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", m.styles.Badge.Render("Register"))
	}
	return title
}

func (m Model) renderTyping() string {
	if !m.machine.Typing() {
		return ""
	}
	label := fmt.Sprintf("%s is typing...", m.machine.Script().BotName)
	return m.styles.Content.Render(m.spinner.View() + " " + m.styles.Muted.Render(label))
}

func (m Model) renderPanel() string {
	switch m.machine.State() {
	case session.StateLoginForm, session.StateRegisterForm:
		return m.styles.Content.Render(m.renderForm())
	case session.StateLoggedIn:
		box := m.styles.InputBox
		if m.machine.Sending() {
			box = m.styles.InputBoxDisabled
		}
		return box.Render(m.input.View())
	default:
		return m.styles.Content.Render(m.styles.KeyHint.Render(chooserHint))
	}
}

func (m Model) renderForm() string {
	title := "Log in"
	if m.machine.AuthMode() == session.AuthRegister {
		title = "Create your account"
	}

	rows := []string{m.styles.Title.Render(title)}
	for pos, idx := range m.visibleFields() {
		f := m.fields[idx]
		label := m.styles.FieldLabel
		if pos == m.focus {
			label = m.styles.FieldLabelFocused
		}
		rows = append(rows, label.Render(f.label)+" "+f.input.View())
	}

	errLine := ""
	if e := m.machine.Err(); e != "" {
		errLine = m.styles.Error.Render(e)
	}
	rows = append(rows, errLine)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
