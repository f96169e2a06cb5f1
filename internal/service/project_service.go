package service

import (
	"context"
	"errors"

	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/store"
)

// ProjectService manages projects
type ProjectService struct {
	store store.ProjectStore
}

func NewProjectService(st store.ProjectStore) *ProjectService {
	return &ProjectService{store: st}
}

func (s *ProjectService) Create(ctx context.Context, req *model.ProjectRequest) (*model.Project, error) {
	return s.store.CreateProject(ctx, req.Name, req.Description)
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*model.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

func (s *ProjectService) List(ctx context.Context) ([]*model.Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	return projects, nil
}

func (s *ProjectService) Update(ctx context.Context, id int64, req *model.ProjectRequest) (*model.Project, error) {
	p, err := s.store.UpdateProject(ctx, id, req.Name, req.Description)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

// Delete removes the project; its generations stay, unassigned
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteProject(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrProjectNotFound
	}
	return err
}
