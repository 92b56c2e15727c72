// Package describe renders generated paths for humans.
//
// Nothing here feeds back into generation or replay; descriptions are only
// used for reports, logs and test names.
package describe

import (
	"fmt"
	"strings"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/pathgen"
)

// Separator joins trace entries.
const Separator = " > "

// Dictionary maps a Separator-joined run of collapsed trace entries to a
// macro name, e.g. "QA_RESOLVE > TICK_TIME > ENACT" to "resolveAndEnact".
type Dictionary map[string]string

// DefaultDictionary names the protocol's well-known sequences.
var DefaultDictionary = Dictionary{
	"QA_RESOLVE > TICK_TIME > ENACT":               "resolveAndEnact",
	"FUND_ETH > QA_RESOLVE > TICK_TIME > ENACT":    "fundResolveAndEnact",
	"FUND_DAI > QA_RESOLVE > TICK_TIME > ENACT":    "fundDaiResolveAndEnact",
	"QA_REJECT > TICK_TIME":                        "rejectAndWait",
	"NEXT > PROPOSE_SOLUTION":                      "proposeSolution",
	"QA_RESOLVE > DISPUTE_RESOLVE > SUPER_UPHOLD":  "resolveOverturned",
	"QA_REJECT > DISPUTE_REJECTION > SUPER_UPHOLD": "rejectOverturned",
	"QA_RESOLVE > DISPUTE_SHARES > SUPER_DISMISS":  "sharesDisputeDismissed",
	"DEFUND_START > TICK_TIME > DEFUND_EXIT":       "defund",
	"CLAIM > EXIT":                                 "claimAndExit",
	"QA_CLAIM > QA_EXIT":                           "qaClaimAndExit",
}

// Label returns the most specific active label under region. A parallel
// region has several active leaves; the longest wins and the first in label
// order breaks ties.
func Label(s model.State, region string) string {
	best := ""
	for _, l := range s.RegionLabels(region) {
		if len(l) > len(best) {
			best = l
		}
	}
	return best
}

// Collapse folds runs of the same event into "EVENT (xN)".
func Collapse(events []model.Event) []string {
	var out []string
	for i := 0; i < len(events); {
		j := i + 1
		for j < len(events) && events[j] == events[i] {
			j++
		}
		if n := j - i; n > 1 {
			out = append(out, fmt.Sprintf("%s (x%d)", events[i], n))
		} else {
			out = append(out, string(events[i]))
		}
		i = j
	}
	return out
}

// Compress replaces dictionary sequences with their macro names, scanning
// left to right. After each entry the longest suffix of the entries seen
// since the last replacement is looked up; a hit replaces that suffix and
// clears the memory.
func Compress(entries []string, dict Dictionary) []string {
	var out, memory []string
	for _, e := range entries {
		out = append(out, e)
		memory = append(memory, e)
		for i := 0; i < len(memory); i++ {
			macro, ok := dict[strings.Join(memory[i:], Separator)]
			if !ok {
				continue
			}
			out = append(out[:len(out)-(len(memory)-i)], macro)
			memory = nil
			break
		}
	}
	return out
}

// Trace renders events collapsed and compressed with dict.
func Trace(events []model.Event, dict Dictionary) string {
	return strings.Join(Compress(Collapse(events), dict), Separator)
}

// Description is the rendered form of a Path.
type Description struct {
	// Label is the most specific stack label of the final state.
	Label string

	// Actor is the acting role in the final state.
	Actor model.Actor

	Trace string
	Steps int
}

// String returns "label: trace", or only the label for an empty path.
func (d Description) String() string {
	if d.Trace == "" {
		return d.Label
	}
	return d.Label + ": " + d.Trace
}

// Describe renders p with dict. A nil dict disables macros.
func Describe(p pathgen.Path, dict Dictionary) Description {
	return Description{
		Label: Label(p.Final, model.RegionStack),
		Actor: p.Final.Actor,
		Trace: Trace(p.Events(), dict),
		Steps: p.Len(),
	}
}
