package upload

import (
	"strings"

	"github.com/KarthikMasi/dax-local/internal/xnat"
)

// freeSurferType is the assessor proctype this tool operates on.
const freeSurferType = "FreeSurfer"

// resolve narrows a session's assessors down to exactly one FreeSurfer record.
// Ambiguity is decided once, after suffix filtering, never per candidate.
func resolve(assessors []xnat.Assessor, project, session, suffix string) (xnat.Assessor, error) {
	var candidates []xnat.Assessor
	for _, a := range assessors {
		if a.ProcType == freeSurferType {
			candidates = append(candidates, a)
		}
	}

	if len(candidates) > 1 && suffix != "" {
		var narrowed []xnat.Assessor
		for _, a := range candidates {
			if strings.HasSuffix(a.Label, suffix) {
				narrowed = append(narrowed, a)
			}
		}
		candidates = narrowed
	}

	switch len(candidates) {
	case 0:
		return xnat.Assessor{}, &NotFoundError{What: "FreeSurfer assessor", Project: project, Session: session}
	case 1:
		return candidates[0], nil
	default:
		labels := make([]string, 0, len(candidates))
		for _, a := range candidates {
			labels = append(labels, a.Label)
		}
		return xnat.Assessor{}, &AmbiguousMatchError{Labels: labels}
	}
}
