package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/repository"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// ItemService is the catalog collaborator: the order core reads it only at
// checkout time to snapshot line items.
type ItemService interface {
	Create(ctx context.Context, sellerUID, title, description string, price int64, stock int) (*model.Item, error)
	Get(ctx context.Context, id uint64) (*model.Item, error)
	List(ctx context.Context, limit, offset int) ([]model.Item, int64, error)
}

type itemService struct {
	repo repository.ItemRepository
}

func NewItemService(repo repository.ItemRepository) ItemService {
	return &itemService{repo: repo}
}

func (s *itemService) Create(ctx context.Context, sellerUID, title, description string, price int64, stock int) (*model.Item, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if sellerUID == "" {
		return nil, errors.New("seller is required")
	}
	if title == "" || len(title) > 120 {
		return nil, errors.New("invalid title")
	}
	if price <= 0 {
		return nil, errors.New("invalid price")
	}
	item := &model.Item{
		SellerUID:   sellerUID,
		Title:       title,
		Description: description,
		Price:       price,
		Stock:       stock,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Get(ctx context.Context, id uint64) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *itemService) List(ctx context.Context, limit, offset int) ([]model.Item, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}
