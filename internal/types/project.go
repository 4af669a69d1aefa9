// Package types provides type definitions for structured data used throughout the hackathon judge system.
package types

import (
	"strings"
	"time"
)

// QuotaExceededMessage is answered instead of a generated answer once the credit gate is closed.
const QuotaExceededMessage = "Sorry, We have reached our credit limit."

// QA is a single question/answer pair produced by an analysis worker.
// Failed marks an answer that could not be produced; Answer then carries the failure text.
type QA struct {
	Question string `json:"question" bson:"question"`
	Answer   string `json:"answer" bson:"answer"`
	Failed   bool   `json:"failed,omitempty" bson:"failed,omitempty"`
}

// Project is a submitted hackathon project.
// MarketAgentAnalysis and CodeAgentAnalysis stay nil until the matching worker writes them.
type Project struct {
	ID                  string    `json:"_id" bson:"_id"`
	ShortDescription    string    `json:"shortDescription" bson:"shortDescription"`
	LongDescription     string    `json:"longDescription" bson:"longDescription"`
	GithubLink          string    `json:"githubLink" bson:"githubLink"`
	Theme               string    `json:"theme" bson:"theme"`
	IsReviewed          bool      `json:"isReviewed" bson:"isReviewed"`
	MarketAgentAnalysis *[]QA     `json:"marketAgentAnalysis,omitempty" bson:"marketAgentAnalysis,omitempty"`
	CodeAgentAnalysis   *[]QA     `json:"codeAgentAnalysis,omitempty" bson:"codeAgentAnalysis,omitempty"`
	CreatedAt           time.Time `json:"createdAt" bson:"createdAt"`
}

// Hackathon is the singleton hackathon configuration record.
type Hackathon struct {
	Name         string   `json:"name" bson:"name"`
	Description  string   `json:"description" bson:"description"`
	StartDate    string   `json:"startDate" bson:"startDate"`
	EndDate      string   `json:"endDate" bson:"endDate"`
	Technologies []string `json:"technologies" bson:"technologies"`
	Theme        string   `json:"theme" bson:"theme"`
	IsAllowed    bool     `json:"isAllowed" bson:"isAllowed"`
}

// Themes splits the declared theme string on commas. A nil hackathon has no themes.
func (h *Hackathon) Themes() []string {
	if h == nil {
		return nil
	}
	var themes []string
	for _, part := range strings.Split(h.Theme, ",") {
		if t := strings.TrimSpace(part); t != "" {
			themes = append(themes, t)
		}
	}
	return themes
}

// TechnologyList returns the technologies as a comma separated list.
func (h *Hackathon) TechnologyList() string {
	if h == nil {
		return ""
	}
	return strings.Join(h.Technologies, ", ")
}

// ThemeText returns the raw declared theme string, empty for a nil hackathon.
func (h *Hackathon) ThemeText() string {
	if h == nil {
		return ""
	}
	return h.Theme
}

// Allowed reports whether paid external calls may be made.
// A missing record does not block analysis workers.
func (h *Hackathon) Allowed() bool {
	return h == nil || h.IsAllowed
}
