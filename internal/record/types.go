package record

// ChangeType classifies a Change.
type ChangeType string

// Change types.
const (
	Header   ChangeType = "HEADER"
	Packet   ChangeType = "PACKET"
	Solution ChangeType = "SOLUTION"
	Dispute  ChangeType = "DISPUTE"
	Edit     ChangeType = "EDIT"
	Merge    ChangeType = "MERGE"
)

// ChangeTypes lists every type in declaration order.
var ChangeTypes = []ChangeType{Header, Packet, Solution, Dispute, Edit, Merge}

// Ref identifies a Change by its position in Context.Changes.
type Ref int

// NoRef is the uplink of a root Change.
const NoRef Ref = -1

// Change is one lifecycle entity tracked by the model.
//
// The field tags are the schema: a Patch may only name fields listed here.
type Change struct {
	Type     ChangeType `field:"type"`
	Contents string     `field:"contents"`
	Uplink   Ref        `field:"uplink"`

	// funding
	Funded    bool `field:"funded"`
	FundedEth bool `field:"fundedEth"`
	FundedDai bool `field:"fundedDai"`

	// QA judgement
	QaResolved bool `field:"qaResolved"`
	QaRejected bool `field:"qaRejected"`
	Enacted    bool `field:"enacted"`

	// defunding
	DefundStarted bool `field:"defundStarted"`
	DefundEnded   bool `field:"defundEnded"`
	DefundExited  bool `field:"defundExited"`

	// trading
	TradedFunds     bool `field:"tradedFunds"`
	ContentTraded   bool `field:"contentTraded"`
	MedallionTraded bool `field:"medallionTraded"`

	// claims
	IsClaimed   bool `field:"isClaimed"`
	IsQaClaimed bool `field:"isQaClaimed"`
	Exited      bool `field:"exited"`

	// disputes
	DisputedResolve   bool `field:"disputedResolve"`
	DisputedRejection bool `field:"disputedRejection"`
	DisputedShares    bool `field:"disputedShares"`
	DisputeUpheld     bool `field:"disputeUpheld"`
	DisputeDismissed  bool `field:"disputeDismissed"`

	DoubleSolved bool `field:"doubleSolved"`

	// Logical ticks of the last judgement and defund start.
	JudgedAt int `field:"judgedAt"`
	DefundAt int `field:"defundAt"`
}

// NewChange returns a fresh Change of the given type.
func NewChange(t ChangeType, uplink Ref) Change {
	return Change{Type: t, Uplink: uplink}
}

// Global is the process-wide record that is not owned by any single Change.
type Global struct {
	QaExitable bool `field:"qaExitable"`
	QaExited   bool `field:"qaExited"`
}

// Context is the machine's working memory.
//
// Changes are in creation order, so a Change's index is its identifier.
// Values of this type are treated as immutable: every method that changes
// something returns a new Context.
type Context struct {
	Changes []Change
	Cursor  Ref
	Created int
	Time    int
	Global  Global
}

// NewContext returns a Context holding one header proposal.
func NewContext(contents string) Context {
	return Context{
		Changes: []Change{{Type: Header, Contents: contents, Uplink: NoRef}},
		Cursor:  0,
		Created: 1,
	}
}

// Len returns the number of Changes.
func (c Context) Len() int {
	return len(c.Changes)
}

// Current returns the Change under the cursor.
// Panics with *ShapeError if the cursor does not address a constructed Change.
func (c Context) Current() Change {
	ch, err := c.At(c.Cursor)
	if err != nil {
		panic(err)
	}
	return ch
}

// At returns the Change with the given id.
func (c Context) At(id Ref) (Change, error) {
	if id < 0 || int(id) >= len(c.Changes) {
		return Change{}, &ShapeError{Cursor: int(id), Len: len(c.Changes), Reason: "no change at position"}
	}
	ch := c.Changes[id]
	if ch.Type == "" {
		return Change{}, &ShapeError{Cursor: int(id), Len: len(c.Changes), Reason: "change has no type"}
	}
	return ch, nil
}

// Replace returns a copy of c with the Change at id replaced.
func (c Context) Replace(id Ref, ch Change) Context {
	if _, err := c.At(id); err != nil {
		panic(err)
	}
	changes := make([]Change, len(c.Changes))
	copy(changes, c.Changes)
	changes[id] = ch
	c.Changes = changes
	return c
}

// Append returns a copy of c with ch added at the end and the cursor moved to it.
func (c Context) Append(ch Change) (Context, Ref) {
	changes := make([]Change, len(c.Changes), len(c.Changes)+1)
	copy(changes, c.Changes)
	changes = append(changes, ch)
	c.Changes = changes
	c.Created++
	id := Ref(len(changes) - 1)
	c.Cursor = id
	return c, id
}

// Focus returns a copy of c with the cursor at id.
func (c Context) Focus(id Ref) Context {
	if _, err := c.At(id); err != nil {
		panic(err)
	}
	c.Cursor = id
	return c
}

// Children returns the ids of Changes whose uplink is id, in creation order.
func (c Context) Children(id Ref) []Ref {
	var out []Ref
	for i, ch := range c.Changes {
		if ch.Uplink == id {
			out = append(out, Ref(i))
		}
	}
	return out
}

// Equal reports whether two Contexts hold the same values.
func (c Context) Equal(o Context) bool {
	if c.Cursor != o.Cursor || c.Created != o.Created || c.Time != o.Time || c.Global != o.Global {
		return false
	}
	if len(c.Changes) != len(o.Changes) {
		return false
	}
	for i := range c.Changes {
		if c.Changes[i] != o.Changes[i] {
			return false
		}
	}
	return true
}

// Canonical returns c as plain maps and slices keyed by schema field names,
// suitable for canonical JSON encoding.
func (c Context) Canonical() map[string]any {
	changes := make([]any, len(c.Changes))
	for i, ch := range c.Changes {
		changes[i] = changeSchema.toMap(ch)
	}
	return map[string]any{
		"changes": changes,
		"cursor":  int(c.Cursor),
		"created": c.Created,
		"time":    c.Time,
		"global":  globalSchema.toMap(c.Global),
	}
}
