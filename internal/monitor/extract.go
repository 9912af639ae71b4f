package monitor

import (
	"fairgate/internal/fairness"
	derrors "fairgate/pkg/domain-errors"
)

// Extraction rules per process type. Each rule defines which covariate
// grounds the qualified flag for the conditional families; the outcome flag
// arrives already evaluated by the pipeline (advanced, scheduled, hired,
// matched).
//
// A record without the grounding covariate keeps a nil Qualified, which
// degrades the equalized-odds and predictive-equality families to an
// explicit insufficient-data state downstream.

type extractionRule struct {
	// qualifiedCovariate names the score the qualified flag derives from.
	qualifiedCovariate string
	// qualifiedCutoff is the minimum score counting as qualified.
	qualifiedCutoff float64
}

var extractionRules = map[ProcessType]extractionRule{
	ProcessApplicationReview: {qualifiedCovariate: "skill_match_score", qualifiedCutoff: 0.5},
	ProcessInterviewSchedule: {qualifiedCovariate: "screening_score", qualifiedCutoff: 0.5},
	ProcessHiringDecision:    {qualifiedCovariate: "interview_score", qualifiedCutoff: 0.6},
	ProcessCandidateMatching: {qualifiedCovariate: "match_score", qualifiedCutoff: 0.5},
}

// extractSubjects converts a process batch into calculator subjects
// according to the process type's extraction rule.
func extractSubjects(processType ProcessType, batch *Batch) (fairness.Input, error) {
	if !processType.IsValid() {
		return fairness.Input{}, derrors.Newf(derrors.CodeInvalidInput,
			"unknown process type %q", processType)
	}
	rule := extractionRules[processType]

	subjects := make([]fairness.Subject, 0, len(batch.Records))
	for _, rec := range batch.Records {
		subject := fairness.Subject{
			ID:         rec.SubjectID,
			Attributes: rec.Attributes,
			Outcome:    rec.Outcome,
			Covariates: rec.Covariates,
		}
		if score, ok := rec.Covariates[rule.qualifiedCovariate]; ok {
			qualified := score >= rule.qualifiedCutoff
			subject.Qualified = &qualified
		}
		subjects = append(subjects, subject)
	}

	return fairness.Input{
		Subjects:            subjects,
		ProtectedAttributes: batch.ProtectedAttributes,
		Context: fairness.Context{
			ProcessType: string(processType),
			Stage:       batch.Stage,
			WindowStart: batch.WindowStart,
			WindowEnd:   batch.WindowEnd,
		},
	}, nil
}
