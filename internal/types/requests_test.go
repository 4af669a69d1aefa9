package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectRequest_Validate(t *testing.T) {
	valid := func() CreateProjectRequest {
		return CreateProjectRequest{
			ShortDescription: "AI note-taking app",
			LongDescription:  "An app that listens to meetings and writes notes.",
			GithubLink:       "https://github.com/example/notes",
			Theme:            "",
		}
	}

	tests := []struct {
		name   string
		mutate func(r *CreateProjectRequest)
		field  string
	}{
		{name: "valid with empty theme", mutate: func(*CreateProjectRequest) {}},
		{name: "missing short description", mutate: func(r *CreateProjectRequest) { r.ShortDescription = "" }, field: "shortDescription"},
		{name: "blank long description", mutate: func(r *CreateProjectRequest) { r.LongDescription = "   " }, field: "longDescription"},
		{name: "missing link", mutate: func(r *CreateProjectRequest) { r.GithubLink = "" }, field: "githubLink"},
		{name: "bad link", mutate: func(r *CreateProjectRequest) { r.GithubLink = "not a url" }, field: "githubLink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := req.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSearchRequest_Validate(t *testing.T) {
	assert.NoError(t, (&SearchRequest{Query: "climate"}).Validate())
	assert.Error(t, (&SearchRequest{Query: "  "}).Validate())
	assert.Error(t, (&SearchRequest{Query: "x", Limit: 500}).Validate())
}

func TestChatRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ChatRequest{ProjectID: uuid.NewString(), Question: "why?"}).Validate())

	var verr *ValidationError
	require.ErrorAs(t, (&ChatRequest{ProjectID: "nope", Question: "why?"}).Validate(), &verr)
	assert.Equal(t, "project_id", verr.Field)
	require.ErrorAs(t, (&ChatRequest{ProjectID: uuid.NewString()}).Validate(), &verr)
	assert.Equal(t, "question", verr.Field)
}

func TestReviewUpdateRequest_Validate(t *testing.T) {
	yes := true
	assert.NoError(t, (&ReviewUpdateRequest{ProjectID: uuid.NewString(), IsReviewed: &yes}).Validate())
	assert.Error(t, (&ReviewUpdateRequest{ProjectID: uuid.NewString()}).Validate())
}

func TestHackathonRequest_ToHackathon(t *testing.T) {
	req := HackathonRequest{
		Name:         "HackX",
		Description:  "Yearly",
		StartDate:    "2024-01-01",
		EndDate:      "2024-01-03",
		Technologies: []string{"Go", " ", "Redis "},
		Theme:        "Productivity, Health",
	}
	require.NoError(t, req.Validate())

	h := req.ToHackathon()
	assert.Equal(t, []string{"Go", "Redis"}, h.Technologies)
	assert.True(t, h.IsAllowed)

	no := false
	req.IsAllowed = &no
	assert.False(t, req.ToHackathon().IsAllowed)
}
