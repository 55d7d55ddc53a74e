package controller

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "gooze.dev/pkg/darwin/internal/model"
)

const recentResultsShown = 8

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	faintStyle = lipgloss.NewStyle().Faint(true)

	statusStyles = map[m.Status]lipgloss.Style{
		m.OK:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		m.Missing: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		m.Timeout: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		m.Killed:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		m.Errored: lipgloss.NewStyle().Foreground(lipgloss.Color("201")),
		m.Aborted: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

func styledStatus(status m.Status) string {
	style, ok := statusStyles[status]
	if !ok {
		return status.String()
	}

	return style.Render(status.String())
}

// TUI implements UI using Bubble Tea for a live progress view.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	mode    StartMode
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the progress program in run mode. List mode renders statically.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := newStartConfig(options...)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.mode = config.mode
	if config.mode != ModeRun || p.program != nil {
		return nil
	}

	// Input and signal handling stay with the terminal so Ctrl+C reaches
	// the process as SIGINT and cancels the run.
	p.program = tea.NewProgram(newRunProgressModel(),
		tea.WithOutput(p.output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	p.done = make(chan struct{})

	program, done := p.program, p.done

	go func() {
		defer close(done)

		_, _ = program.Run()
	}()

	return nil
}

// Close stops the progress program and waits for it to restore the terminal.
func (p *TUI) Close(_ context.Context) {
	p.mu.Lock()
	program, done := p.program, p.done
	p.program, p.done = nil, nil
	p.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	<-done
}

func (p *TUI) send(msg tea.Msg) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// DisplayCandidates renders the candidate list.
func (p *TUI) DisplayCandidates(ctx context.Context, candidates []m.Candidate, showDiff bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Darwin - Mutation Testing"))
	b.WriteString("\n\n")
	b.WriteString(renderCandidateTable(candidates))

	if showDiff {
		for _, candidate := range candidates {
			fmt.Fprintf(&b, "\n%s\n", titleStyle.Render(fmt.Sprintf("Mutation #%d %s", candidate.ID, candidate.Description())))
			b.WriteString(colorDiff(candidate.Diff))
		}
	}

	_, err := fmt.Fprint(p.output, b.String())

	return err
}

func colorDiff(diff string) string {
	added := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removed := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var b strings.Builder

	for _, line := range strings.SplitAfter(diff, "\n") {
		trimmed := strings.TrimSuffix(line, "\n")

		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(faintStyle.Render(trimmed))
		case strings.HasPrefix(line, "+"):
			b.WriteString(added.Render(trimmed))
		case strings.HasPrefix(line, "-"):
			b.WriteString(removed.Render(trimmed))
		default:
			b.WriteString(trimmed)
		}

		if strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// DisplayRunInfo sets the progress total.
func (p *TUI) DisplayRunInfo(_ context.Context, info RunInfo) {
	p.send(runInfoMsg(info))
}

// DisplayStartingCandidate marks a candidate as in flight.
func (p *TUI) DisplayStartingCandidate(_ context.Context, candidate m.Candidate, workerID int) {
	p.send(candidateStartedMsg{candidate: candidate, workerID: workerID})
}

// DisplayCompletedCandidate advances the progress bar.
func (p *TUI) DisplayCompletedCandidate(_ context.Context, candidate m.Candidate, result m.Result) {
	p.send(candidateDoneMsg{candidate: candidate, status: result.Status})
}

// DisplaySummary prints the colored summary once the progress view is gone.
func (p *TUI) DisplaySummary(ctx context.Context, report m.Report) {
	p.Close(ctx)

	var b strings.Builder

	for i, line := range report.Summary {
		if i < len(report.Results) {
			status := report.Results[i].Status
			line = strings.Replace(line, "["+status.String()+"]", "["+styledStatus(status)+"]", 1)
		}

		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(renderStatusTable(report))

	for _, warning := range report.Warnings {
		fmt.Fprintf(&b, "%s %s\n", statusStyles[m.Timeout].Render("warning:"), warning)
	}

	if report.SummaryPath != "" {
		fmt.Fprintf(&b, "%s\n", faintStyle.Render("Summary written to "+string(report.SummaryPath)))
	}

	_, _ = fmt.Fprint(p.output, b.String())
}

// DisplayMutationScore prints the final mutation score.
func (p *TUI) DisplayMutationScore(_ context.Context, score float64) {
	_, _ = fmt.Fprintf(p.output, "%s %.2f%%\n", titleStyle.Render("Mutation score:"), score*100)
}

type (
	runInfoMsg          RunInfo
	candidateStartedMsg struct {
		candidate m.Candidate
		workerID  int
	}
	candidateDoneMsg struct {
		candidate m.Candidate
		status    m.Status
	}
)

type completedLine struct {
	id     uint
	status m.Status
	text   string
}

// runProgressModel is the Bubble Tea model of a running mutation campaign.
type runProgressModel struct {
	info     RunInfo
	bar      progress.Model
	inFlight map[uint]string
	recent   []completedLine
	counts   map[m.Status]int
	done     int
}

func newRunProgressModel() runProgressModel {
	return runProgressModel{
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		inFlight: make(map[uint]string),
		counts:   make(map[m.Status]int),
	}
}

func (rpm runProgressModel) Init() tea.Cmd {
	return nil
}

func (rpm runProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runInfoMsg:
		rpm.info = RunInfo(msg)
	case candidateStartedMsg:
		rpm.inFlight[msg.candidate.ID] = fmt.Sprintf("#%d %s %s:%d:%d",
			msg.candidate.ID, msg.candidate.Description(), msg.candidate.Site.Rel, msg.candidate.Site.Line, msg.candidate.Site.Column)
	case candidateDoneMsg:
		delete(rpm.inFlight, msg.candidate.ID)

		rpm.done++
		rpm.counts[msg.status]++
		rpm.recent = append(rpm.recent, completedLine{
			id:     msg.candidate.ID,
			status: msg.status,
			text:   msg.candidate.Description() + " " + msg.candidate.Location(),
		})

		if len(rpm.recent) > recentResultsShown {
			rpm.recent = rpm.recent[len(rpm.recent)-recentResultsShown:]
		}
	case tea.WindowSizeMsg:
		rpm.bar.Width = min(msg.Width-20, 80)
		if rpm.bar.Width < 10 {
			rpm.bar.Width = 10
		}
	}

	return rpm, nil
}

func (rpm runProgressModel) percent() float64 {
	if rpm.info.Candidates == 0 {
		return 0
	}

	return float64(rpm.done) / float64(rpm.info.Candidates)
}

func (rpm runProgressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Darwin - Mutation Testing"))
	fmt.Fprintf(&b, "  %s\n\n", faintStyle.Render(fmt.Sprintf("%d worker(s)", rpm.info.Workers)))
	fmt.Fprintf(&b, "%s %d/%d\n\n", rpm.bar.ViewAs(rpm.percent()), rpm.done, rpm.info.Candidates)

	ids := make([]uint, 0, len(rpm.inFlight))
	for id := range rpm.inFlight {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		fmt.Fprintf(&b, "  %s %s\n", faintStyle.Render("running"), rpm.inFlight[id])
	}

	if len(ids) > 0 {
		b.WriteByte('\n')
	}

	for _, line := range rpm.recent {
		fmt.Fprintf(&b, "  [%s] #%d %s\n", styledStatus(line.status), line.id, line.text)
	}

	b.WriteByte('\n')

	parts := make([]string, 0, len(m.Statuses))
	for _, status := range m.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", styledStatus(status), rpm.counts[status]))
	}

	b.WriteString("  " + strings.Join(parts, "  ") + "\n")

	return b.String()
}
