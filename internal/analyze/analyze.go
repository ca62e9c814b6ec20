package analyze

import "github.com/jaxxstorm/relaygen/internal/model"

type OutcomeKind string

const (
	OutcomeMatch    OutcomeKind = "MATCH"
	OutcomeMismatch OutcomeKind = "MISMATCH"
	OutcomeNXDOMAIN OutcomeKind = "NXDOMAIN"
	OutcomeNODATA   OutcomeKind = "NODATA"
	OutcomeTimeout  OutcomeKind = "TIMEOUT"
)

type Outcome struct {
	Kind         OutcomeKind
	Summary      string
	EvidenceStep int
	Hints        []string
}

func Diagnose(outcome Outcome) model.Diagnosis {
	steps := []int{}
	if outcome.EvidenceStep >= 0 {
		steps = append(steps, outcome.EvidenceStep)
	}
	return model.Diagnosis{
		Classification: string(outcome.Kind),
		Summary:        outcome.Summary,
		EvidenceSteps:  steps,
		Hints:          outcome.Hints,
	}
}

// Classify picks the outcome for a completed set of verification steps.
// A match anywhere wins; otherwise the first meaningful answer decides.
func Classify(steps []model.VerifyStep) model.Diagnosis {
	firstMatch, firstMismatch, firstNX, firstNoData, firstFail := -1, -1, -1, -1, -1
	for _, step := range steps {
		switch {
		case step.Error != "":
			if firstFail == -1 {
				firstFail = step.Index
			}
		case step.Match:
			if firstMatch == -1 {
				firstMatch = step.Index
			}
		case len(step.Addresses) > 0:
			if firstMismatch == -1 {
				firstMismatch = step.Index
			}
		case step.Rcode == "NXDOMAIN":
			if firstNX == -1 {
				firstNX = step.Index
			}
		case step.Rcode == "NOERROR":
			if firstNoData == -1 {
				firstNoData = step.Index
			}
		default:
			if firstFail == -1 {
				firstFail = step.Index
			}
		}
	}

	switch {
	case firstMatch >= 0:
		return Diagnose(Outcome{Kind: OutcomeMatch, Summary: "resolver returned the catalog station address", EvidenceStep: firstMatch})
	case firstMismatch >= 0:
		return Diagnose(Outcome{Kind: OutcomeMismatch, Summary: "hostname resolves to addresses other than the station", EvidenceStep: firstMismatch,
			Hints: []string{"the catalog may be stale; refetch it", "a resolver may be rewriting answers"}})
	case firstNX >= 0:
		return Diagnose(Outcome{Kind: OutcomeNXDOMAIN, Summary: "hostname does not exist", EvidenceStep: firstNX,
			Hints: []string{"the relay may have been retired"}})
	case firstNoData >= 0:
		return Diagnose(Outcome{Kind: OutcomeNODATA, Summary: "hostname has no A records", EvidenceStep: firstNoData})
	case firstFail >= 0:
		return Diagnose(Outcome{Kind: OutcomeTimeout, Summary: "resolver failure or timeout", EvidenceStep: firstFail,
			Hints: []string{"retry with --transport tcp", "check resolver reachability"}})
	default:
		return Diagnose(Outcome{Kind: OutcomeTimeout, Summary: "no resolver responses", EvidenceStep: -1})
	}
}
