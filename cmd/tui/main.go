package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/akrmnd/vitalis/internal/config"
	"github.com/akrmnd/vitalis/internal/genbank"
	"github.com/akrmnd/vitalis/internal/stats"
	"github.com/akrmnd/vitalis/internal/store"
)

// Colors for modern design
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	surfaceColor   = lipgloss.Color("#1F2937") // Dark gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor     = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor    = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Align(lipgloss.Center)

	selectedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	sequenceStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(lipgloss.Color("#111827")).
			Padding(1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)
	// Molecule type styles
	moleculeDNAStyle   = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	moleculeRNAStyle   = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	moleculeOtherStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// sequenceFold is the column the sequence view folds at, same as the
// FASTA writer.
const sequenceFold = 60

type listItem struct {
	record genbank.GenbankRecord
}

func (i listItem) FilterValue() string {
	return i.record.Locus
}

func (i listItem) Title() string {
	// Title should show only the locus name
	if i.record.Locus != "" {
		return i.record.Locus
	}
	// fallback to accession when the locus is missing
	return i.record.Accession
}

func (i listItem) Description() string {
	// Metadata line shown below the title in the selector list
	return fmt.Sprintf("%s    %d bp    %d features",
		moleculeStyle(i.record.MoleculeType).Render(moleculeLabel(i.record.MoleculeType)),
		i.record.Size,
		len(i.record.Features),
	)
}

func moleculeLabel(moleculeType string) string {
	if moleculeType == "" {
		return "unknown"
	}
	return moleculeType
}

func moleculeStyle(moleculeType string) lipgloss.Style {
	switch {
	case strings.Contains(moleculeType, "RNA"):
		return moleculeRNAStyle
	case strings.Contains(moleculeType, "DNA"):
		return moleculeDNAStyle
	default:
		return moleculeOtherStyle
	}
}

type mode int

const (
	modeOverview mode = iota
	modeFeatures
	modeSequence
)

func (m mode) String() string {
	switch m {
	case modeOverview:
		return "📋 Overview"
	case modeFeatures:
		return "🧬 Features"
	case modeSequence:
		return "🧪 Sequence"
	default:
		return "Unknown"
	}
}

// title is the plain section heading without the status bar emoji.
func (m mode) title() string {
	switch m {
	case modeFeatures:
		return "Features"
	case modeSequence:
		return "Sequence"
	default:
		return "Overview"
	}
}

type model struct {
	list          list.Model
	records       []genbank.GenbankRecord
	currentMode   mode
	showHelp      bool
	width         int
	height        int
	totalRecords  int
	selectedIndex int
}

func newModel(records []genbank.GenbankRecord) model {
	// Create list items
	items := make([]list.Item, len(records))
	for i, record := range records {
		items[i] = listItem{record: record}
	}

	// Create list
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Saved Records"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return model{
		list:         l,
		records:      records,
		currentMode:  modeOverview,
		totalRecords: len(records),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// cycleMode advances to the next view mode, wrapping back to the overview.
func (m model) cycleMode() model {
	switch m.currentMode {
	case modeOverview:
		m.currentMode = modeFeatures
	case modeFeatures:
		m.currentMode = modeSequence
	default:
		m.currentMode = modeOverview
	}
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Calculate list dimensions (left panel takes 1/3 of width)
		listWidth := msg.Width / 3
		listHeight := msg.Height - 4 // Account for borders and status

		m.list.SetWidth(listWidth)
		m.list.SetHeight(listHeight)

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "h":
			m.showHelp = !m.showHelp
			return m, nil

		case "tab":
			return m.cycleMode(), nil

		case "1":
			m.currentMode = modeOverview
			return m, nil

		case "2":
			m.currentMode = modeFeatures
			return m, nil

		case "3":
			m.currentMode = modeSequence
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectedIndex = m.list.Index()
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// Help modal overlay
	if m.showHelp {
		return m.renderHelpModal()
	}

	// Main layout
	leftPanel := m.renderLeftPanel()
	rightPanel := m.renderRightPanel()
	statusBar := m.renderStatusBar()

	// Create main layout
	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftPanel,
		rightPanel,
	)

	// Add status bar at bottom
	return lipgloss.JoinVertical(
		lipgloss.Left,
		main,
		statusBar,
	)
}

func (m model) renderLeftPanel() string {
	listWidth := m.width / 3

	// Style the list container
	listContainer := containerStyle.
		Width(listWidth - 2). // Account for padding
		Height(m.height - 4). // Account for status bar
		Render(m.list.View())

	return listContainer
}

func (m model) renderRightPanel() string {
	rightWidth := (m.width * 2) / 3

	if len(m.records) == 0 {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No records available")
	}

	selectedItem := m.list.SelectedItem()
	if selectedItem == nil {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No item selected")
	}

	record := selectedItem.(listItem).record

	// Header with locus and molecule type
	header := titleStyle.Render(fmt.Sprintf("%s (%s)", record.Locus, moleculeLabel(record.MoleculeType)))

	// Metadata line: molecule type, size and feature count
	molStyle := moleculeStyle(record.MoleculeType)

	// Build meta parts: label (muted) and colored tokens
	label := lipgloss.NewStyle().Foreground(mutedColor)
	molColored := molStyle.Render(moleculeLabel(record.MoleculeType))
	sizeColored := molStyle.Render(fmt.Sprintf("%d bp", record.Size))
	featColored := molStyle.Render(fmt.Sprintf("%d features", len(record.Features)))

	metaStr := label.Render("Molecule: ") + molColored + label.Render("    ") + sizeColored + label.Render("    ") + featColored

	// Content based on current mode
	content := m.renderContent(record)

	// Combine header and content
	panelContent := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		metaStr,
		"",
		content,
	)

	return containerStyle.
		Width(rightWidth - 2).
		Height(m.height - 4).
		Render(panelContent)
}

func (m model) renderContent(record genbank.GenbankRecord) string {
	lines := m.buildRightLines(record)

	// Add title
	titleStr := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(m.currentMode.title() + ":")

	body := strings.Join(lines, "\n")
	if m.currentMode == modeSequence && record.Sequence != "" {
		// Dark boxed panel for raw sequence text
		body = sequenceStyle.
			Width(m.width*2/3 - 6). // Account for padding and borders
			Render(body)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStr,
		"",
		body,
	)
}

// buildRightLines renders the right panel body for the current mode as
// plain lines, one string per terminal row before style wrapping.
func (m model) buildRightLines(record genbank.GenbankRecord) []string {
	switch m.currentMode {
	case modeFeatures:
		return featureLines(record)
	case modeSequence:
		return sequenceLines(record)
	default:
		return overviewLines(record)
	}
}

func overviewLines(record genbank.GenbankRecord) []string {
	comp := stats.Calc(record.Sequence)

	lines := []string{
		"Accession:  " + record.Accession,
		"Version:    " + record.Version,
		"Molecule:   " + moleculeLabel(record.MoleculeType),
		"Division:   " + record.GenbankDivision,
		"Updated:    " + record.ModificationDate,
		"Definition: " + record.Definition,
		"Source:     " + record.Source,
		"Organism:   " + record.Organism,
	}
	if len(record.Keywords) > 0 {
		lines = append(lines, "Keywords:   "+strings.Join(record.Keywords, "; "))
	}

	lines = append(lines,
		"",
		fmt.Sprintf("Length: %d bp    GC: %.1f%%    N: %.1f%%", comp.Length, comp.GCPercent, comp.NPercent),
		fmt.Sprintf("Features: %d    References: %d", len(record.Features), len(record.References)),
	)
	return lines
}

func featureLines(record genbank.GenbankRecord) []string {
	if len(record.Features) == 0 {
		return []string{"No features available"}
	}

	var lines []string
	for _, feature := range record.Features {
		lines = append(lines, fmt.Sprintf("%-16s %s", feature.FeatureType, feature.Location))
		for _, key := range feature.Qualifiers.Keys() {
			fragments, _ := feature.Qualifiers.Get(key)
			value := strings.Join(fragments, " ")
			if value == "" {
				lines = append(lines, "    /"+key)
				continue
			}
			lines = append(lines, fmt.Sprintf("    /%s=%s", key, value))
		}
	}
	return lines
}

func sequenceLines(record genbank.GenbankRecord) []string {
	// Remove line breaks before folding
	seq := strings.ReplaceAll(record.Sequence, "\n", "")
	seq = strings.ReplaceAll(seq, "\r", "")
	if seq == "" {
		return []string{"No sequence available"}
	}

	var lines []string
	for start := 0; start < len(seq); start += sequenceFold {
		end := start + sequenceFold
		if end > len(seq) {
			end = len(seq)
		}
		lines = append(lines, seq[start:end])
	}
	return lines
}

func (m model) renderStatusBar() string {
	// Left side - navigation info
	leftInfo := fmt.Sprintf("📊 %d/%d records", m.selectedIndex+1, m.totalRecords)

	// Center - current mode
	centerInfo := fmt.Sprintf("Mode: %s", m.currentMode.String())

	// Right side - help hint
	rightInfo := "Press 'h' for help • 'q' to quit"

	// Calculate spacing
	totalUsed := len(leftInfo) + len(centerInfo) + len(rightInfo)
	spacing := m.width - totalUsed - 6 // Account for padding

	var statusContent string
	if spacing > 0 {
		leftSpacing := spacing / 2
		rightSpacing := spacing - leftSpacing

		statusContent = fmt.Sprintf("%s%s%s%s%s",
			leftInfo,
			strings.Repeat(" ", leftSpacing),
			centerInfo,
			strings.Repeat(" ", rightSpacing),
			rightInfo,
		)
	} else {
		// Fallback for narrow terminals
		statusContent = fmt.Sprintf("%s | %s", leftInfo, centerInfo)
	}

	return statusBarStyle.
		Width(m.width).
		Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `🧬 Sequence Record Browser - Help

Navigation:
  ↑/↓, j/k     Navigate list
  /            Filter records
  Enter        Select record

View Modes:
  1            Show record overview
  2            Show feature table
  3            Show nucleotide sequence
  Tab          Cycle view modes

General:
  h            Toggle this help
  q, Ctrl+C    Quit application

Current Mode: ` + m.currentMode.String() + `
Total Records: ` + fmt.Sprintf("%d", m.totalRecords) + `
`

	// Create modal box
	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Align(lipgloss.Center)

	modal := modalStyle.Render(helpContent)

	// Center the modal on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
	)
}

func main() {
	outFlag := flag.String("out", "", "directory holding saved record JSON (overrides config)")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *outFlag != "" {
		cfg.OutputDir = *outFlag
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	st, err := store.New(cfg.UploadDir, cfg.OutputDir)
	if err != nil {
		log.Fatal(err)
	}

	records, err := st.ListGenbank()
	if err != nil {
		log.Fatal(err)
	}
	if len(records) == 0 {
		fmt.Fprintf(os.Stderr, "no saved records under %s; parse and save a file first\n", cfg.OutputDir)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(records), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
