package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

// debounceDelay is the quiet period after the last keystroke before a
// suggestion fetch is issued.
const debounceDelay = 300 * time.Millisecond

const suggestionLimit = 8

// noHighlight means no suggestion is highlighted; Enter then goes through
// the validation gate instead of selecting.
const noHighlight = -1

// searchModel owns the query text, the suggestion dropdown, and the
// validate-then-commit gate. The debounce has no timer handle: every
// keystroke bumps seq, and a tick landing with an old seq is the cancelled
// timer.
type searchModel struct {
	backend Backend

	query       string
	suggestions []domain.Suggestion
	open        bool
	highlighted int

	seq        int // current debounce generation
	validating bool
	errMsg     string

	committed domain.CommittedSymbol
}

func newSearchModel(backend Backend) searchModel {
	return searchModel{backend: backend, highlighted: noHighlight}
}

func (m searchModel) update(msg tea.Msg) (searchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case debounceMsg:
		if msg.seq != m.seq {
			return m, nil // superseded by a later keystroke
		}
		return m, m.fetchSuggestions(m.query, msg.seq)

	case suggestionsMsg:
		if msg.seq != m.seq {
			return m, nil // stale response, query moved on
		}
		m.suggestions = msg.results
		m.open = len(msg.results) > 0
		m.highlighted = noHighlight
		return m, nil

	case validationMsg:
		m.validating = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		if !msg.result.Valid {
			m.errMsg = msg.result.Error
			if m.errMsg == "" {
				m.errMsg = fmt.Sprintf("Stock symbol '%s' not found. Please check the ticker and try again.", msg.symbol)
			}
			return m, nil
		}
		return m.commit(msg.result.Symbol, msg.result.Name)
	}
	return m, nil
}

func (m searchModel) updateKey(msg tea.KeyMsg) (searchModel, tea.Cmd) {
	switch msg.String() {
	case "down":
		if m.open && m.highlighted < len(m.suggestions)-1 {
			m.highlighted++
		}
		return m, nil

	case "up":
		if m.open && m.highlighted > noHighlight {
			m.highlighted--
		}
		return m, nil

	case "esc":
		// Close and kill any pending debounce; the query survives.
		m.open = false
		m.highlighted = noHighlight
		m.seq++
		return m, nil

	case "enter":
		if m.open && m.highlighted != noHighlight {
			s := m.suggestions[m.highlighted]
			m.query = s.Symbol
			return m.commit(s.Symbol, s.Name)
		}
		if strings.TrimSpace(m.query) == "" {
			m.errMsg = "Please enter a ticker symbol."
			return m, nil
		}
		m.errMsg = ""
		m.validating = true
		return m, m.validate(strings.TrimSpace(m.query))

	case "backspace":
		if m.query == "" {
			return m, nil
		}
		return m.setQuery(m.query[:len(m.query)-1])

	default:
		if msg.Type == tea.KeyRunes {
			var b strings.Builder
			for _, r := range msg.Runes {
				if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' {
					b.WriteRune(unicode.ToUpper(r))
				}
			}
			if b.Len() > 0 {
				return m.setQuery(m.query + b.String())
			}
		}
		return m, nil
	}
}

// setQuery applies a keystroke: the text updates immediately, the previous
// search error clears, and the debounce restarts.
func (m searchModel) setQuery(query string) (searchModel, tea.Cmd) {
	m.query = query
	m.errMsg = ""
	m.seq++

	if len(strings.TrimSpace(query)) < 1 {
		m.suggestions = nil
		m.open = false
		m.highlighted = noHighlight
		return m, nil
	}

	seq := m.seq
	return m, tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

func (m searchModel) fetchSuggestions(query string, seq int) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := backendCtx()
		defer cancel()
		results, err := backend.SearchSymbols(ctx, query, suggestionLimit)
		if err != nil {
			// Autocomplete failures stay silent; the dropdown just stays
			// closed. Returning an empty result does that.
			return suggestionsMsg{seq: seq}
		}
		return suggestionsMsg{seq: seq, results: results}
	}
}

func (m searchModel) validate(symbol string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := backendCtx()
		defer cancel()
		result, err := backend.ValidateSymbol(ctx, symbol)
		return validationMsg{symbol: symbol, result: result, err: err}
	}
}

// commit accepts a symbol as the searched symbol: the dropdown closes, any
// in-flight fetch is orphaned, and downstream models are notified.
func (m searchModel) commit(symbol, name string) (searchModel, tea.Cmd) {
	m.suggestions = nil
	m.open = false
	m.highlighted = noHighlight
	m.errMsg = ""
	m.seq++
	m.committed = domain.CommittedSymbol{Symbol: symbol, Name: name}
	return m, func() tea.Msg {
		return committedMsg{symbol: symbol, name: name}
	}
}
