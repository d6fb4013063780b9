package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/ftahirops/sensorguard/config"
	"github.com/ftahirops/sensorguard/engine"
	"github.com/ftahirops/sensorguard/model"
	"github.com/ftahirops/sensorguard/util"
)

const (
	pageTitle    = "Industrial Sensor Anomaly Detection (Manual Input)"
	pageSubtitle = "Enter sensor values to detect whether the machine is behaving abnormally."
	buttonLabel  = "Detect Anomaly"
)

// columns groups the form fields the way the page lays them out.
var columns = [][]int{{0, 1, 2}, {3, 4, 5}, {6, 7}}

// evaluatedMsg carries the result of one submit.
type evaluatedMsg struct {
	ev  model.Evaluation
	err error
}

// saveConfirmMsg is sent after saving form defaults completes.
type saveConfirmMsg struct {
	path     string
	defaults model.Reading
	cfg      config.Config
	err      error
}

// Model is the bubbletea model for the form-and-result page.
type Model struct {
	evaluator engine.Evaluator
	loadErr   error
	modelDir  string
	defaults  model.Reading
	cfg       config.Config
	cfgPath   string
	width     int
	height    int

	// Form
	inputs   []textinput.Model
	fieldErr []string
	focus    int // len(inputs) is the submit button

	// Result
	result  *model.Evaluation
	evalErr error
	busy    bool

	// Status feedback
	statusMsg  string
	statusTime time.Time
}

// NewModel creates the form. A non-nil loadErr puts the page in the fatal
// model-not-found state where only quitting is possible.
func NewModel(ev engine.Evaluator, defaults model.Reading, modelDir string, loadErr error) Model {
	m := Model{
		evaluator: ev,
		loadErr:   loadErr,
		modelDir:  modelDir,
		defaults:  defaults,
		inputs:    make([]textinput.Model, model.NumFeatures),
		fieldErr:  make([]string, model.NumFeatures),
	}
	if ev == nil && loadErr == nil {
		m.loadErr = engine.ErrModelNotFound
	}
	values := defaults.Vector()
	for i, f := range model.Features {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.CharLimit = 24
		ti.Width = colField - 6
		ti.SetValue(util.FormatNumber(values[i], f.Integer))
		m.inputs[i] = ti
	}
	if m.loadErr == nil {
		m.inputs[0].Focus()
	}
	return m
}

func (m Model) fatal() bool {
	return m.loadErr != nil
}

func (m Model) Init() tea.Cmd {
	if m.fatal() {
		return nil
	}
	return textinput.Blink
}

func evaluate(ev engine.Evaluator, r model.Reading) tea.Cmd {
	return func() tea.Msg {
		res, err := ev.Evaluate(r)
		return evaluatedMsg{ev: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case evaluatedMsg:
		m.busy = false
		if msg.err != nil {
			m.result = nil
			m.evalErr = msg.err
			return m, nil
		}
		res := msg.ev
		m.result = &res
		m.evalErr = nil
		return m, nil

	case saveConfirmMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Save failed: %v", msg.err)
		} else {
			m.defaults = msg.defaults
			m.cfg = msg.cfg
			m.statusMsg = fmt.Sprintf("Defaults saved to %s", msg.path)
		}
		m.statusTime = time.Now()
		return m, nil

	case tea.KeyMsg:
		if m.fatal() {
			switch msg.String() {
			case "q", "ctrl+c", "esc":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case "tab", "down":
			return m, m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m, m.setFocus(m.focus - 1)
		case "enter":
			if m.onButton() {
				return m.submit()
			}
			return m, m.setFocus(m.focus + 1)
		case "ctrl+s":
			return m.submit()
		case "ctrl+r":
			m.reset()
			return m, nil
		case "r":
			if m.onButton() {
				m.reset()
			}
			return m, nil
		case "ctrl+d":
			r, ok := m.collect()
			if !ok {
				return m, nil
			}
			return m, saveDefaults(m.cfg, m.cfgPath, r)
		}
		if m.onButton() {
			return m, nil
		}
		if msg.Type == tea.KeyRunes {
			integer := model.Features[m.focus].Integer
			for _, r := range msg.Runes {
				if !util.NumericRune(r, integer) {
					return m, nil
				}
			}
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		m.fieldErr[m.focus] = ""
		return m, cmd
	}

	if m.fatal() || m.onButton() {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) onButton() bool {
	return m.focus == len(m.inputs)
}

// setFocus moves focus with wrap-around; the button follows the last field.
func (m *Model) setFocus(i int) tea.Cmd {
	n := len(m.inputs) + 1
	m.focus = ((i % n) + n) % n
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == m.focus {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

// collect parses every field. Field errors are recorded and ok is false if
// any field is unparseable.
func (m *Model) collect() (model.Reading, bool) {
	var r model.Reading
	ok := true
	for i, f := range model.Features {
		v, err := util.ParseNumber(m.inputs[i].Value(), f.Integer)
		if err != nil {
			m.fieldErr[i] = err.Error()
			ok = false
			continue
		}
		m.fieldErr[i] = ""
		_ = r.Set(f.Column, v)
	}
	return r, ok
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	r, ok := m.collect()
	if !ok {
		m.result = nil
		m.evalErr = nil
		return m, nil
	}
	m.busy = true
	return m, evaluate(m.evaluator, r)
}

func (m *Model) reset() {
	values := m.defaults.Vector()
	for i, f := range model.Features {
		m.inputs[i].SetValue(util.FormatNumber(values[i], f.Integer))
		m.fieldErr[i] = ""
	}
	m.result = nil
	m.evalErr = nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	innerW := pageInnerW(m.width)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(pageTitle) + "\n")
	sb.WriteString(dimStyle.Render(pageSubtitle) + "\n\n")

	if m.fatal() {
		sb.WriteString(m.renderFatal(innerW))
		sb.WriteString("\n" + helpStyle.Render("q quit") + "\n")
		return sb.String()
	}

	sb.WriteString(m.renderModelLine() + "\n\n")
	sb.WriteString(headerStyle.Render("Enter Sensor Values Manually") + "\n")
	sb.WriteString(m.renderForm() + "\n")
	sb.WriteString(m.renderButton() + "\n\n")

	switch {
	case m.busy:
		sb.WriteString(dimStyle.Render("Scoring...") + "\n")
	case m.evalErr != nil:
		sb.WriteString(boxSection("Result", []string{critStyle.Render("Evaluation failed: " + m.evalErr.Error())}, innerW))
	case m.result != nil:
		sb.WriteString(renderResult(*m.result, innerW))
	}

	if m.statusMsg != "" && time.Since(m.statusTime) < 5*time.Second {
		sb.WriteString(dimStyle.Render(m.statusMsg) + "\n")
	}
	sb.WriteString(helpStyle.Render("tab/shift+tab move · enter on button or ctrl+s detect · ctrl+r reset · ctrl+d save defaults · q quit") + "\n")
	return sb.String()
}

func (m Model) renderFatal(innerW int) string {
	lines := []string{
		critStyle.Render(fmt.Sprintf("Model file not found. Place the model artifact files in %s.", m.modelDir)),
	}
	for _, l := range strings.Split(m.loadErr.Error(), "\n") {
		lines = append(lines, dimStyle.Render(l))
	}
	return boxSection("Error", lines, innerW)
}

func (m Model) renderModelLine() string {
	if m.evaluator == nil {
		return ""
	}
	info := m.evaluator.Info()
	scaled := "unscaled"
	if info.Scaled {
		scaled = "scaled"
	}
	return labelStyle.Render("Model: ") + valueStyle.Render(fmt.Sprintf("%s (%d trees, %s)", info.Kind, info.Trees, scaled)) +
		labelStyle.Render(" from ") + valueStyle.Render(info.Dir)
}

func (m Model) renderForm() string {
	cols := make([]string, 0, len(columns))
	for _, idxs := range columns {
		var sb strings.Builder
		for n, i := range idxs {
			if n > 0 {
				sb.WriteString("\n")
			}
			label := labelStyle.Render(model.Features[i].Label)
			if i == m.focus {
				label = titleStyle.Render(model.Features[i].Label)
			}
			sb.WriteString(label + "\n")
			sb.WriteString(m.inputs[i].View() + "\n")
			if m.fieldErr[i] != "" {
				sb.WriteString(critStyle.Render(m.fieldErr[i]))
			}
		}
		style := panelStyle
		for _, i := range idxs {
			if i == m.focus {
				style = activePanelStyle
			}
		}
		cols = append(cols, style.Width(colField).Render(sb.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderButton() string {
	label := "[ " + buttonLabel + " ]"
	if m.onButton() {
		return " " + selectedStyle.Render(label)
	}
	return " " + buttonStyle.Render(label)
}

func renderResult(ev model.Evaluation, innerW int) string {
	var headline string
	if ev.Anomalous {
		headline = critStyle.Render(ev.Message())
	} else {
		headline = okStyle.Render(ev.Message())
	}
	lines := []string{
		headline,
		scoreBar(ev.Score, 30) + dimStyle.Render(fmt.Sprintf(" score %.3f", ev.Score)),
		"",
	}
	lines = append(lines, kvLines(readingDetails(ev.Reading))...)
	return boxSection("Result: "+ev.Status(), lines, innerW)
}

// readingDetails lists the scored values with thousands separators.
func readingDetails(r model.Reading) []kv {
	values := r.Vector()
	details := make([]kv, len(values))
	for i, f := range model.Features {
		val := humanize.Commaf(values[i])
		if f.Integer {
			val = humanize.Comma(int64(values[i]))
		}
		details[i] = kv{Key: f.Label, Val: val}
	}
	return details
}
