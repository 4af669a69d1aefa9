package types

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateProjectRequest is the body of POST /create-project.
type CreateProjectRequest struct {
	ShortDescription string `json:"shortDescription" validate:"required"`
	LongDescription  string `json:"longDescription" validate:"required"`
	GithubLink       string `json:"githubLink" validate:"required,url"`
	Theme            string `json:"theme"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// ChatTurn is one exchange in a judge chat.
type ChatTurn struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	ProjectID   string     `json:"project_id" validate:"required,uuid"`
	Question    string     `json:"question" validate:"required"`
	ChatHistory []ChatTurn `json:"chathistory"`
}

// ChatResponse carries the answer, the extended history and optional synthesized audio.
// Audio is base64 encoded by encoding/json.
type ChatResponse struct {
	Answer      string     `json:"answer"`
	ChatHistory []ChatTurn `json:"chathistory"`
	Audio       []byte     `json:"audio,omitempty"`
}

// HackathonRequest is the body of PUT /hackathon.
type HackathonRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	StartDate    string   `json:"startDate" validate:"required"`
	EndDate      string   `json:"endDate" validate:"required"`
	Technologies []string `json:"technologies"`
	Theme        string   `json:"theme"`
	IsAllowed    *bool    `json:"isAllowed"`
}

// ReviewUpdateRequest is the body of POST /update-review.
type ReviewUpdateRequest struct {
	ProjectID  string `json:"project_id" validate:"required,uuid"`
	IsReviewed *bool  `json:"isReviewed" validate:"required"`
}

// Validate validates the CreateProjectRequest. Blank strings count as missing.
func (r *CreateProjectRequest) Validate() error {
	r.ShortDescription = strings.TrimSpace(r.ShortDescription)
	r.LongDescription = strings.TrimSpace(r.LongDescription)
	r.GithubLink = strings.TrimSpace(r.GithubLink)
	return toValidationError(validate.Struct(r))
}

// Validate validates the SearchRequest.
func (r *SearchRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	return toValidationError(validate.Struct(r))
}

// Validate validates the ChatRequest.
func (r *ChatRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	return toValidationError(validate.Struct(r))
}

// Validate validates the HackathonRequest.
func (r *HackathonRequest) Validate() error {
	return toValidationError(validate.Struct(r))
}

// Validate validates the ReviewUpdateRequest.
func (r *ReviewUpdateRequest) Validate() error {
	return toValidationError(validate.Struct(r))
}

// ToHackathon converts the request into a record. isAllowed defaults to true.
func (r *HackathonRequest) ToHackathon() *Hackathon {
	allowed := true
	if r.IsAllowed != nil {
		allowed = *r.IsAllowed
	}
	techs := make([]string, 0, len(r.Technologies))
	for _, t := range r.Technologies {
		if t = strings.TrimSpace(t); t != "" {
			techs = append(techs, t)
		}
	}
	return &Hackathon{
		Name:         r.Name,
		Description:  r.Description,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Technologies: techs,
		Theme:        r.Theme,
		IsAllowed:    allowed,
	}
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:   fe.Field(),
			Message: "failed on the '" + fe.Tag() + "' rule",
			Cause:   err,
		}
	}
	return &ValidationError{Message: err.Error(), Cause: err}
}
