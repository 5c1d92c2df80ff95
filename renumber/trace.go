package renumber

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is where a run is.
type State byte

const (
	Init State = iota
	Sequenced
	MatchedAll
	NeedsBlast
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Init:
		return "Init"
	case Sequenced:
		return "Sequenced"
	case MatchedAll:
		return "MatchedAll"
	case NeedsBlast:
		return "NeedsBlast"
	case Resolved:
		return "Resolved"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// Event is one line of a trace. Chain and Accession are set when the
// event is about one of them. Err is set for failures.
type Event struct {
	When      time.Time
	State     State
	Chain     string
	Accession string
	Msg       string
	Err       error
}

func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.State.String())
	if e.Chain != "" {
		b.WriteString(" chain " + e.Chain)
	}
	if e.Accession != "" {
		b.WriteString(" " + e.Accession)
	}
	b.WriteString(": " + e.Msg)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Trace is the record of one run. A run owns its trace, so there is no
// locking.
type Trace struct {
	RunID  string
	States []State // every state entered, Init first
	Events []Event
}

func newTrace() *Trace {
	t := &Trace{RunID: uuid.NewString(), States: []State{Init}}
	t.note("", "", "run started")
	return t
}

// State is the state the run is in, or ended in.
func (t *Trace) State() State { return t.States[len(t.States)-1] }

func (t *Trace) note(chain, acc, msg string) {
	t.Events = append(t.Events, Event{When: time.Now(), State: t.State(), Chain: chain, Accession: acc, Msg: msg})
}

func (t *Trace) fail(chain, acc, msg string, err error) {
	t.Events = append(t.Events, Event{When: time.Now(), State: t.State(), Chain: chain, Accession: acc, Msg: msg, Err: err})
}

func (t *Trace) enter(s State) {
	from := t.State()
	t.States = append(t.States, s)
	t.note("", "", from.String()+" -> "+s.String())
}

// Failures are the events that carry an error.
func (t *Trace) Failures() []Event {
	var ret []Event
	for _, e := range t.Events {
		if e.Err != nil {
			ret = append(ret, e)
		}
	}
	return ret
}
