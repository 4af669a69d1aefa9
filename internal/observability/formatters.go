// Package observability provides request-scoped logging and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/analysis"
	"github.com/jonathan/hackathon-judge/internal/projectsearch"
	"github.com/jonathan/hackathon-judge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
	// maxAnswerLen truncates answers in summaries
	maxAnswerLen = 200
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, wrapped)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSearchResults outputs ranked search hits with their distances.
func (p *Printer) PrintSearchResults(query string, results []projectsearch.Result) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n", query))
	if len(results) == 0 {
		sb.WriteString("\nNo matching projects.")
		p.printBox("SEARCH RESULTS", sb.String())
		return
	}
	sb.WriteString("\n")

	count := min(len(results), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := results[i]
		sb.WriteString(fmt.Sprintf("#%d  %s  (distance %.4f)\n", i+1, r.Project.ShortDescription, r.Distance))
		sb.WriteString(fmt.Sprintf("    id: %s\n", r.Project.ID))
		if r.Project.Theme != "" {
			sb.WriteString(fmt.Sprintf("    theme: %s\n", r.Project.Theme))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more projects", len(results)-maxItemsToShow))
	}

	p.printBox("SEARCH RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs the outcome of an analysis worker run.
func (p *Printer) PrintReport(report *analysis.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Project: %s\n", report.ProjectID))
	sb.WriteString(fmt.Sprintf("Stage:   %s\n", report.Stage))
	if report.Theme != "" {
		sb.WriteString(fmt.Sprintf("Theme:   %s\n", report.Theme))
	}
	if report.QuotaExceeded {
		sb.WriteString("Credit limit reached, no paid calls were made.\n")
	}
	if report.Err != nil {
		sb.WriteString(fmt.Sprintf("Error:   %v\n", report.Err))
	}
	writeQA(&sb, report.Answers)

	title := fmt.Sprintf("%s ANALYSIS", strings.ToUpper(report.Worker))
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProject outputs a stored project with whatever analysis it has.
func (p *Printer) PrintProject(project *types.Project) {
	if project == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:       %s\n", project.ID))
	sb.WriteString(fmt.Sprintf("Project:  %s\n", project.ShortDescription))
	sb.WriteString(fmt.Sprintf("Repo:     %s\n", project.GithubLink))
	sb.WriteString(fmt.Sprintf("Theme:    %s\n", project.Theme))
	sb.WriteString(fmt.Sprintf("Reviewed: %t\n", project.IsReviewed))
	if project.MarketAgentAnalysis != nil {
		sb.WriteString("\nMarket analysis:")
		writeQA(&sb, *project.MarketAgentAnalysis)
	}
	if project.CodeAgentAnalysis != nil {
		sb.WriteString("\nCode analysis:")
		writeQA(&sb, *project.CodeAgentAnalysis)
	}

	p.printBox("PROJECT", strings.TrimSuffix(sb.String(), "\n"))
}

func writeQA(sb *strings.Builder, answers []types.QA) {
	for i, qa := range answers {
		question := strings.SplitN(qa.Question, "\n", 2)[0]
		answer := qa.Answer
		if len(answer) > maxAnswerLen {
			answer = answer[:maxAnswerLen-3] + "..."
		}
		marker := "✓"
		if qa.Failed {
			marker = "✗"
		}
		sb.WriteString(fmt.Sprintf("\n%s %d. %s\n   %s\n", marker, i+1, question, answer))
	}
}

// wrap splits line into pieces of at most width runes, breaking on spaces where possible.
func wrap(line string, width int) []string {
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}
	var out []string
	for len(runes) > width {
		cut := width
		for i := width; i > width/2; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimRight(string(runes[:cut]), " "))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " "))
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
