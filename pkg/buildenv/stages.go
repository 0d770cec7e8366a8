package buildenv

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var stageRegex = regexp.MustCompile(`^[abi]+$`)

// Stages is the set of pipeline stages selected for a run.
type Stages struct {
	Build   bool
	Install bool
}

// String returns the canonical selector, "b", "i" or "bi".
func (s Stages) String() string {
	var sb strings.Builder
	if s.Build {
		sb.WriteString("b")
	}
	if s.Install {
		sb.WriteString("i")
	}
	return sb.String()
}

// ParseStages validates a stage selector made of the letters a (all),
// b (build) and i (installer). Order and repetition do not matter, and
// a expands to both stages. An invalid selector still returns the
// stages its known letters select, so the caller can validate the
// toolchains those stages need in the same pass.
func ParseStages(sel string) (Stages, error) {
	if sel == "" {
		return Stages{}, errors.New("Invalid stage specification: no stage selected")
	}

	stages := Stages{
		Build:   strings.ContainsAny(sel, "ab"),
		Install: strings.ContainsAny(sel, "ai"),
	}

	if !stageRegex.MatchString(sel) {
		return stages, errors.Errorf(`Invalid stage specification "%s"`, sel)
	}

	return stages, nil
}
