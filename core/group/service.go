package group

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("group not found")

type (
	Repository interface {
		CreateGroup(ctx context.Context, g Group) (Group, error)
		GetGroupByID(ctx context.Context, id string) (Group, error)
		QueryGroups(ctx context.Context) ([]Group, error)
	}

	Service interface {
		Create(ctx context.Context, ng NewGroup) (Group, error)
		GetByID(ctx context.Context, id string) (Group, error)
		List(ctx context.Context) ([]Group, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	g := Group{
		Name:      ng.Name,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateGroup(ctx, g)
}

func (svc *service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *service) List(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryGroups(ctx)
}
