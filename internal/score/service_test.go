package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubmit(t *testing.T) {
	valid := func() SubmitScoreRequest {
		return SubmitScoreRequest{
			Name:           "An",
			Grade:          "8",
			Category:       "Science",
			Score:          9,
			TotalQuestions: 12,
		}
	}

	tests := map[string]struct {
		mutate  func(*SubmitScoreRequest)
		wantErr bool
	}{
		"valid request passes":      {mutate: func(*SubmitScoreRequest) {}},
		"empty name rejected":       {mutate: func(r *SubmitScoreRequest) { r.Name = "" }, wantErr: true},
		"unknown grade rejected":    {mutate: func(r *SubmitScoreRequest) { r.Grade = "13" }, wantErr: true},
		"unknown category":          {mutate: func(r *SubmitScoreRequest) { r.Category = "History" }, wantErr: true},
		"zero total rejected":       {mutate: func(r *SubmitScoreRequest) { r.TotalQuestions = 0 }, wantErr: true},
		"negative score rejected":   {mutate: func(r *SubmitScoreRequest) { r.Score = -1 }, wantErr: true},
		"score above total":         {mutate: func(r *SubmitScoreRequest) { r.Score = 13 }, wantErr: true},
		"perfect score is in range": {mutate: func(r *SubmitScoreRequest) { r.Score = 12 }},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)

			err := validateSubmit(&req)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateSubmit_DerivesLetter(t *testing.T) {
	req := SubmitScoreRequest{
		Name:           "An",
		Grade:          "8",
		Category:       "Science",
		Score:          9,
		TotalQuestions: 12,
	}

	require.NoError(t, validateSubmit(&req))
	assert.Equal(t, 75.0, req.Percentage)
	assert.Equal(t, "B", req.GradeLetter)
}

func TestValidateSubmit_KeepsCallerLetter(t *testing.T) {
	req := SubmitScoreRequest{
		Name:           "An",
		Grade:          "8",
		Category:       "Science",
		Score:          9,
		TotalQuestions: 12,
		Percentage:     75,
		GradeLetter:    "B",
	}

	require.NoError(t, validateSubmit(&req))
	assert.Equal(t, "B", req.GradeLetter)
	assert.Equal(t, 75.0, req.Percentage)
}
