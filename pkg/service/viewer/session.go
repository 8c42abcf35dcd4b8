package viewer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/model"
	"github.com/mpapenbr/lapviewer/pkg/processing/chart"
	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
)

const (
	MinPanelWidth     = 10.0
	MaxPanelWidth     = 50.0
	DefaultPanelWidth = 30.0
)

// DataSource provides the race data currently in use
type DataSource interface {
	Store() *racedata.Store
}

type (
	Option  func(*Session)
	Session struct {
		mu         sync.Mutex
		id         string
		data       DataSource
		assembler  *chart.Assembler
		log        *log.Logger
		selection  []int
		sort       SortState
		panelWidth float64
	}
	// Row is a result table row, Active marks selected runners
	Row struct {
		*model.ResultRecord
		Active bool `json:"active"`
	}
	Badge struct {
		Bib   int    `json:"bib"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	View struct {
		ID         string           `json:"id"`
		Rows       []Row            `json:"rows"`
		Badges     []Badge          `json:"badges"`
		Selection  []int            `json:"selection"`
		Sort       SortState        `json:"sort"`
		PanelWidth float64          `json:"panelWidth"`
		Chart      *model.ChartSpec `json:"chart"`
	}
)

func WithAssembler(a *chart.Assembler) Option {
	return func(s *Session) {
		s.assembler = a
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

func NewSession(id string, data DataSource, opts ...Option) *Session {
	ret := &Session{
		id:         id,
		data:       data,
		assembler:  chart.NewAssembler(),
		log:        log.Default().Named("session"),
		selection:  make([]int, 0),
		sort:       SortState{Direction: Asc},
		panelWidth: DefaultPanelWidth,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Session) ID() string {
	return s.id
}

// Update applies a user interaction to the session state
func (s *Session) Update(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch m := msg.(type) {
	case SelectionToggled:
		if slices.Contains(s.selection, m.Bib) {
			s.selection = lo.Without(s.selection, m.Bib)
		} else {
			s.selection = append(s.selection, m.Bib)
		}
	case RunnerRemoved:
		s.selection = lo.Without(s.selection, m.Bib)
	case SortRequested:
		if compareBy(m.Column) == nil {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidMessage, m.Column)
		}
		s.sort = s.sort.next(m.Column)
	case PanelResized:
		if m.Percent < MinPanelWidth || m.Percent > MaxPanelWidth {
			s.log.Debug("panel width out of range, ignored", log.Float64("percent", m.Percent))
			return nil
		}
		s.panelWidth = m.Percent
	default:
		return fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}
	s.log.Debug("session updated",
		log.String("id", s.id),
		log.String("message", msg.messageType()),
		log.Ints("selection", s.selection))
	return nil
}

// Selection returns a copy of the selected bibs in selection order
func (s *Session) Selection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selection)
}

func (s *Session) Sort() SortState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

func (s *Session) PanelWidth() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelWidth
}

// Rows returns the result table in the current sort order
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows(s.data.Store())
}

// Badges returns one badge per selected runner known in the current data
func (s *Session) Badges() []Badge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badges(s.data.Store())
}

// ChartSpec assembles the chart for the current selection
func (s *Session) ChartSpec() *model.ChartSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chartSpec(s.data.Store())
}

// View returns a consistent snapshot of the session
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := s.data.Store()
	return View{
		ID:         s.id,
		Rows:       s.rows(store),
		Badges:     s.badges(store),
		Selection:  slices.Clone(s.selection),
		Sort:       s.sort,
		PanelWidth: s.panelWidth,
		Chart:      s.chartSpec(store),
	}
}

func (s *Session) rows(store *racedata.Store) []Row {
	return lo.Map(sortRecords(store.Results(), s.sort),
		func(r *model.ResultRecord, _ int) Row {
			return Row{ResultRecord: r, Active: slices.Contains(s.selection, r.Bib)}
		})
}

func (s *Session) badges(store *racedata.Store) []Badge {
	ret := make([]Badge, 0, len(s.selection))
	for position, bib := range s.selection {
		if r, ok := store.Runner(bib); ok {
			ret = append(ret, Badge{Bib: bib, Name: r.Name, Color: s.assembler.Color(position)})
		}
	}
	return ret
}

func (s *Session) chartSpec(store *racedata.Store) *model.ChartSpec {
	return s.assembler.Assemble(s.selection, store.ResultsByBib(), store.AllLapTimes())
}
