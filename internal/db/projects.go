package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/hackathon-judge/internal/store"
	"github.com/jonathan/hackathon-judge/internal/types"
)

const projectColumns = `id, short_description, long_description, github_link, theme, is_reviewed,
	market_agent_analysis, code_agent_analysis, created_at`

// CreateProject inserts a new project with isReviewed=false and returns its ID
func (db *DB) CreateProject(ctx context.Context, p *types.Project) (string, error) {
	id := uuid.New()
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO projects (id, short_description, long_description, github_link, theme, is_reviewed, created_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		id, p.ShortDescription, p.LongDescription, p.GithubLink, p.Theme, createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}
	return id.String(), nil
}

// GetProject retrieves a project by ID, returning nil when it does not exist
func (db *DB) GetProject(ctx context.Context, id string) (*types.Project, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	row := db.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, newest first
func (db *DB) ListProjects(ctx context.Context) ([]types.Project, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []types.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// UpdateAnalysis writes one worker's output in a single UPDATE statement
func (db *DB) UpdateAnalysis(ctx context.Context, id string, u store.AnalysisUpdate) (bool, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	setClause, args, err := buildAnalysisUpdate(u)
	if err != nil {
		return false, err
	}
	args = append(args, projectID)
	query := fmt.Sprintf(`UPDATE projects SET %s WHERE id = $%d`, setClause, len(args))

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update analysis: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetReviewed updates the review flag of a project
func (db *DB) SetReviewed(ctx context.Context, id string, reviewed bool) (bool, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	tag, err := db.pool.Exec(ctx, `UPDATE projects SET is_reviewed = $1 WHERE id = $2`, reviewed, projectID)
	if err != nil {
		return false, fmt.Errorf("failed to update review flag: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// buildAnalysisUpdate returns the SET clause and its positional arguments.
func buildAnalysisUpdate(u store.AnalysisUpdate) (string, []any, error) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Market != nil {
		data, err := json.Marshal(u.Market)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal market analysis: %w", err)
		}
		add("market_agent_analysis", data)
		if u.Theme != nil {
			add("theme", *u.Theme)
		}
	}
	if u.Code != nil {
		data, err := json.Marshal(u.Code)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal code analysis: %w", err)
		}
		add("code_agent_analysis", data)
	}
	if len(sets) == 0 {
		return "", nil, fmt.Errorf("empty analysis update")
	}
	return strings.Join(sets, ", "), args, nil
}

func scanProject(row pgx.Row) (*types.Project, error) {
	var (
		p          types.Project
		id         uuid.UUID
		marketJSON []byte
		codeJSON   []byte
	)
	err := row.Scan(&id, &p.ShortDescription, &p.LongDescription, &p.GithubLink, &p.Theme,
		&p.IsReviewed, &marketJSON, &codeJSON, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = id.String()
	if p.MarketAgentAnalysis, err = decodeAnalysis(marketJSON); err != nil {
		return nil, err
	}
	if p.CodeAgentAnalysis, err = decodeAnalysis(codeJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeAnalysis(data []byte) (*[]types.QA, error) {
	if data == nil {
		return nil, nil
	}
	var qa []types.QA
	if err := json.Unmarshal(data, &qa); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if qa == nil {
		qa = []types.QA{}
	}
	return &qa, nil
}
