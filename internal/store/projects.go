package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/makeasinger/studio/internal/model"
)

const projectColumns = `id, name, description, created_at, updated_at`

func scanProject(row scanner) (*model.Project, error) {
	var p model.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLStore) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	ts := now()
	var id int64
	err := retryOnBusy(ctx, func() error {
		return s.queryRow(ctx,
			`INSERT INTO projects (name, description, created_at, updated_at) VALUES (?, ?, ?, ?) RETURNING id`,
			name, description, ts, ts,
		).Scan(&id)
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &model.Project{ID: id, Name: name, Description: description, CreatedAt: ts, UpdatedAt: ts}, nil
}

func (s *SQLStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	p, err := scanProject(s.queryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *SQLStore) ListProjects(ctx context.Context) ([]*model.Project, error) {
	rows, err := s.query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateProject(ctx context.Context, id int64, name, description string) (*model.Project, error) {
	err := s.execOne(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		name, description, now(), id)
	if err != nil {
		return nil, wrap("update project", err)
	}
	return s.GetProject(ctx, id)
}

func (s *SQLStore) DeleteProject(ctx context.Context, id int64) error {
	return wrap("delete project", s.execOne(ctx, `DELETE FROM projects WHERE id = ?`, id))
}
