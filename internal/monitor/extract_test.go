package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "fairgate/pkg/domain-errors"
)

func TestExtractSubjects(t *testing.T) {
	batch := &Batch{
		Records: []ProcessRecord{
			{
				SubjectID:  "cand-1",
				Attributes: map[string]string{"gender": "women"},
				Outcome:    true,
				Covariates: map[string]float64{"interview_score": 0.8},
			},
			{
				SubjectID:  "cand-2",
				Attributes: map[string]string{"gender": "men"},
				Outcome:    false,
				Covariates: map[string]float64{"interview_score": 0.4},
			},
			{
				SubjectID:  "cand-3",
				Attributes: map[string]string{"gender": "men"},
				Outcome:    true,
				// No interview score recorded.
			},
		},
		ProtectedAttributes: []string{"gender"},
		Stage:               "final_decision",
	}

	input, err := extractSubjects(ProcessHiringDecision, batch)
	require.NoError(t, err)

	require.Len(t, input.Subjects, 3)
	assert.Equal(t, []string{"gender"}, input.ProtectedAttributes)
	assert.Equal(t, "hiring_decision", input.Context.ProcessType)
	assert.Equal(t, "final_decision", input.Context.Stage)

	// interview_score 0.8 clears the 0.6 hiring cutoff.
	require.NotNil(t, input.Subjects[0].Qualified)
	assert.True(t, *input.Subjects[0].Qualified)

	require.NotNil(t, input.Subjects[1].Qualified)
	assert.False(t, *input.Subjects[1].Qualified)

	assert.Nil(t, input.Subjects[2].Qualified,
		"a missing grounding covariate must leave the flag unset")
}

func TestExtractSubjectsPerProcessCovariate(t *testing.T) {
	cases := []struct {
		processType ProcessType
		covariate   string
		score       float64
		qualified   bool
	}{
		{ProcessApplicationReview, "skill_match_score", 0.5, true},
		{ProcessApplicationReview, "skill_match_score", 0.49, false},
		{ProcessInterviewSchedule, "screening_score", 0.7, true},
		{ProcessHiringDecision, "interview_score", 0.59, false},
		{ProcessCandidateMatching, "match_score", 0.5, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.processType), func(t *testing.T) {
			batch := &Batch{
				Records: []ProcessRecord{{
					SubjectID:  "cand-1",
					Attributes: map[string]string{"gender": "women"},
					Covariates: map[string]float64{tc.covariate: tc.score},
				}},
				ProtectedAttributes: []string{"gender"},
			}
			input, err := extractSubjects(tc.processType, batch)
			require.NoError(t, err)
			require.NotNil(t, input.Subjects[0].Qualified)
			assert.Equal(t, tc.qualified, *input.Subjects[0].Qualified)
		})
	}
}

func TestExtractSubjectsUnknownProcessType(t *testing.T) {
	_, err := extractSubjects(ProcessType("payroll"), &Batch{})
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
}
