package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/daviddao/piv/internal/api"
	"github.com/daviddao/piv/internal/insights"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1E1E2E")).
			Padding(0, 1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6C7086")).
				Background(lipgloss.Color("#313244")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4"))

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAB387"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#89B4FA")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#1E1E2E"))
)

// --- View rendering ---

func (m uiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderTitleBar())
	b.WriteRune('\n')
	b.WriteString(m.renderTabBar())
	b.WriteRune('\n')
	b.WriteRune('\n')

	contentHeight := m.height - 5 // title + tabs + status + padding
	if m.showHelp {
		contentHeight -= 3
	}

	var content string
	focus := 0
	switch m.screen {
	case screenSearch:
		content = m.renderSearch()
	case screenInsights:
		content, focus = m.renderInsights()
	}

	// Scroll just far enough to keep the focused line (selected post) on
	// screen.
	lines := strings.Split(content, "\n")
	if contentHeight > 0 && focus >= contentHeight {
		lines = lines[min(focus-contentHeight+1, len(lines)-1):]
	}
	if contentHeight > 0 && len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}
	b.WriteString(strings.Join(lines, "\n"))

	// Pad to fill screen.
	rendered := strings.Count(b.String(), "\n")
	for rendered < m.height-2 {
		b.WriteRune('\n')
		rendered++
	}

	if m.showHelp {
		b.WriteString(m.help.View(keys))
	} else {
		b.WriteString(m.renderStatusBar())
	}

	// Truncate each line to terminal width so content doesn't wrap on
	// resize.
	return truncateLines(b.String(), m.width)
}

func (m uiModel) renderTitleBar() string {
	title := titleStyle.Render("page insights")
	right := ""
	if m.detail != nil {
		right = dimStyle.Render(fmt.Sprintf("%s | %d posts | %s",
			m.detail.PageID(), len(m.detail.Posts()), m.detail.Paging()))
	}
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(title)-lipgloss.Width(right)-2))
	return title + gap + right
}

func (m uiModel) renderTabBar() string {
	var tabs []string
	for _, s := range []screenID{screenSearch, screenInsights} {
		label := s.String()
		if s == screenInsights && m.detail != nil {
			label += ": " + m.detail.PageID()
		}
		if s == m.screen {
			tabs = append(tabs, tabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (m uiModel) renderStatusBar() string {
	left := " " + contextHelp(m)
	right := ""
	if m.chat.pending {
		right = "analyst is thinking "
	}
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))
	return statusBarStyle.Render(left + gap + right)
}

// --- Search screen ---

func (m uiModel) renderSearch() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Find a company page"))
	b.WriteRune('\n')
	b.WriteString(m.input.View())
	b.WriteRune('\n')
	if m.queryErr != "" {
		b.WriteString(errorStyle.Render("  " + m.queryErr))
		b.WriteRune('\n')
	}
	b.WriteRune('\n')

	if len(m.presets) > 0 {
		b.WriteString(headerStyle.Render("Presets"))
		b.WriteRune('\n')
		for i, p := range m.presets {
			if i >= maxPresets {
				break
			}
			b.WriteString(fmt.Sprintf("  %s %s\n", accentStyle.Render(fmt.Sprintf("[%d]", i+1)), p))
		}
		b.WriteRune('\n')
	}

	if !m.search.Submitted() {
		return b.String()
	}

	b.WriteString(headerStyle.Render("Results"))
	b.WriteRune('\n')
	st := m.search.State()
	switch st.Status() {
	case insights.StatusLoading:
		b.WriteString("  " + m.spinner.View() + " searching...\n")
	case insights.StatusError:
		b.WriteString(errorStyle.Render("  " + st.Message()))
		b.WriteRune('\n')
	case insights.StatusEmpty:
		b.WriteString(dimStyle.Render("  (no pages match these filters)"))
		b.WriteRune('\n')
	case insights.StatusPopulated:
		results, _ := st.Data()
		for i, r := range results {
			cursor := "  "
			if i == m.selectedResult && !m.input.Focused() {
				cursor = "> "
			}
			line := fmt.Sprintf("%s%-24s %-20s %s followers",
				cursor, truncate(r.Name, 24), truncate(r.Industry, 20), formatCount(r.FollowerCount))
			if cursor == "> " {
				b.WriteString(nameStyle.Render(line))
			} else {
				b.WriteString(line)
			}
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// --- Insights screen ---

// renderInsights returns the content and the line index of the selected post.
func (m uiModel) renderInsights() (string, int) {
	var b strings.Builder
	d := m.detail
	if d == nil {
		return "", 0
	}

	page := d.PageState()
	switch page.Status() {
	case insights.StatusLoading:
		b.WriteString(fmt.Sprintf("%s Analyzing %s...\n", m.spinner.View(), d.PageID()))
		b.WriteString(dimStyle.Render("  fetching page data from the insights service"))
		b.WriteRune('\n')
		return b.String(), 0
	case insights.StatusError:
		b.WriteString(errorStyle.Render("Error"))
		b.WriteRune('\n')
		b.WriteString("  " + page.Message())
		b.WriteRune('\n')
		b.WriteString(dimStyle.Render("  esc: search again | r: retry"))
		b.WriteRune('\n')
		return b.String(), 0
	}

	p, _ := page.Data()
	// During the entrance transition sections appear one frame at a time.
	shown := revealSections
	if d.EntranceFired() {
		shown = m.revealed
	}

	if shown >= 1 {
		m.renderPageHeader(&b, p)
	}
	if shown >= 2 {
		m.renderPageStats(&b, p)
	}
	if shown >= 3 {
		m.renderEmployees(&b, d)
	}
	focus := 0
	if shown >= 4 {
		focus = m.renderPosts(&b, d)
	}
	if m.chat.open || len(m.chat.lines) > 0 {
		m.renderChat(&b)
	}
	return b.String(), focus
}

func (m uiModel) renderPageHeader(b *strings.Builder, p *api.Page) {
	b.WriteString(nameStyle.Render(p.Name))
	if p.Industry != "" {
		b.WriteString(dimStyle.Render("  " + p.Industry))
	}
	b.WriteRune('\n')
	if p.Description != "" {
		for _, line := range wrapText(p.Description, max(20, m.width-4)) {
			b.WriteString("  " + line + "\n")
		}
	}
	if p.Website != "" {
		b.WriteString(dimStyle.Render("  " + p.Website))
		b.WriteRune('\n')
	}
	b.WriteRune('\n')
}

func (m uiModel) renderPageStats(b *strings.Builder, p *api.Page) {
	b.WriteString(headerStyle.Render("Overview"))
	b.WriteRune('\n')
	b.WriteString(fmt.Sprintf("  %s followers   %s employees",
		statStyle.Render(formatCount(p.FollowerCount)),
		statStyle.Render(formatCount(p.HeadCount))))
	if p.Founded != "" {
		b.WriteString("   founded " + statStyle.Render(p.Founded))
	}
	b.WriteRune('\n')
	if p.Specialties != "" {
		b.WriteString(dimStyle.Render("  " + truncate(p.Specialties, max(20, m.width-4))))
		b.WriteRune('\n')
	}
	if p.LastScrapedAt != nil {
		b.WriteString(dimStyle.Render("  updated " + shortDuration(time.Since(*p.LastScrapedAt)) + " ago"))
		b.WriteRune('\n')
	}
	b.WriteRune('\n')
}

func (m uiModel) renderEmployees(b *strings.Builder, d *insights.Detail) {
	b.WriteString(headerStyle.Render("Employees"))
	b.WriteRune('\n')
	st := d.EmployeesState()
	if st.Status() != insights.StatusPopulated {
		b.WriteString(dimStyle.Render("  No employee data found."))
		b.WriteString("\n\n")
		return
	}
	employees, _ := st.Data()
	for _, e := range employees {
		line := fmt.Sprintf("  %-24s %s", truncate(e.Name, 24), e.Role)
		if e.Location != "" {
			line += dimStyle.Render("  " + e.Location)
		}
		b.WriteString(line)
		b.WriteRune('\n')
	}
	b.WriteRune('\n')
}

// renderPosts writes the posts section and returns the line index of the
// selected post within the whole content.
func (m uiModel) renderPosts(b *strings.Builder, d *insights.Detail) int {
	b.WriteString(headerStyle.Render("Posts"))
	b.WriteRune('\n')

	st := d.PostsState()
	if st.Status() != insights.StatusPopulated {
		b.WriteString(dimStyle.Render("  No posts found."))
		b.WriteRune('\n')
		return 0
	}

	focus := 0
	bodyWidth := max(20, m.width-6)
	for i, p := range d.Posts() {
		cursor := "  "
		if i == m.selectedPost {
			cursor = "> "
			focus = strings.Count(b.String(), "\n")
		}
		meta := fmt.Sprintf("%d likes | %d comments", p.LikeCount, p.CommentCount)
		if p.PostedAt != nil {
			meta += " | " + p.PostedAt.Format("2006-01-02")
		}
		b.WriteString(cursor + dimStyle.Render(meta))
		b.WriteRune('\n')
		for _, line := range wrapText(p.Content, bodyWidth) {
			b.WriteString("    " + line + "\n")
		}
		renderComments(b, d.Comments(p.ID), m.spinner.View(), bodyWidth)
	}

	switch {
	case d.Paging() == insights.PageLoading:
		b.WriteString("  " + m.spinner.View() + " loading more posts...\n")
	case d.PagingErr() != nil:
		b.WriteString(errorStyle.Render("  " + insights.MsgRetry + " (m)"))
		b.WriteRune('\n')
	case d.CanLoadMore():
		b.WriteString(accentStyle.Render("  m: load more posts"))
		b.WriteRune('\n')
	default:
		b.WriteString(dimStyle.Render("  (end of posts)"))
		b.WriteRune('\n')
	}
	return focus
}

func renderComments(b *strings.Builder, e insights.Expansion[api.Comment], spin string, width int) {
	if !e.Visible {
		return
	}
	switch e.Status {
	case insights.Fetching:
		b.WriteString("      " + spin + " loading comments...\n")
	case insights.Failed:
		b.WriteString(errorStyle.Render("      could not load comments"))
		b.WriteRune('\n')
	case insights.Ready:
		if len(e.Items) == 0 {
			b.WriteString(dimStyle.Render("      (no comments)"))
			b.WriteRune('\n')
			return
		}
		for _, c := range e.Items {
			b.WriteString("      " + userStyle.Render(c.AuthorName) + "\n")
			for _, line := range wrapText(c.Content, max(20, width-4)) {
				b.WriteString("        " + line + "\n")
			}
		}
	}
}

func (m uiModel) renderChat(b *strings.Builder) {
	b.WriteRune('\n')
	b.WriteString(headerStyle.Render("Ask the analyst"))
	b.WriteRune('\n')
	width := max(20, m.width-6)
	for _, l := range m.chat.lines {
		style, who := assistantStyle, "analyst"
		switch {
		case l.fromUser:
			style, who = userStyle, "you"
		case l.failed:
			style = errorStyle
		}
		for i, line := range wrapText(l.text, width) {
			prefix := "        "
			if i == 0 {
				prefix = fmt.Sprintf("  %-6s", who)
			}
			b.WriteString(style.Render(prefix + line))
			b.WriteRune('\n')
		}
	}
	if m.chat.pending {
		b.WriteString("  " + m.spinner.View() + " thinking...\n")
	}
	if m.chat.open {
		b.WriteString(m.chat.input.View())
		b.WriteRune('\n')
	}
}

// --- Helpers ---

// truncateLines truncates each line in content to at most width visible
// characters, preserving ANSI escape codes. This prevents terminal line
// wrapping when the window is resized narrower.
func truncateLines(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}

// wrapText breaks s into lines of at most width cells, splitting on word
// boundaries where possible. Embedded newlines start new paragraphs.
func wrapText(s string, width int) []string {
	if width <= 0 {
		width = 80
	}
	return strings.Split(ansi.Wrap(s, width, ""), "\n")
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	return ansi.Truncate(s, n, "...")
}

// formatCount renders large counts compactly (12.3k, 4.5M).
func formatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

func shortDuration(d time.Duration) string {
	if d < 0 {
		return "0s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 48*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
