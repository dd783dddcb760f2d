package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/saraelshenawy632/project-grad/internal/apperr"
	"github.com/saraelshenawy632/project-grad/internal/catalog"
)

// Service owns the cart mutations. Item prices are snapshotted from the
// product at add/update time; the total is recomputed server-side on every
// mutation.
type Service struct {
	carts    Repository
	products catalog.Repository
}

func NewService(carts Repository, products catalog.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &Cart{ID: uuid.NewString(), UserID: userID, UpdatedAt: time.Now()}
		if err := s.carts.Upsert(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "product %s not found", productID)
		}
		return nil, err
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		newQuantity := c.Items[i].Quantity + quantity
		if p.Stock < newQuantity {
			return nil, insufficientStock(p)
		}
		c.Items[i].Quantity = newQuantity
		c.Items[i].Price = p.Price * float64(newQuantity)
		found = true
		break
	}
	if !found {
		if p.Stock < quantity {
			return nil, insufficientStock(p)
		}
		c.Items = append(c.Items, Item{
			ProductID: productID,
			Quantity:  quantity,
			Price:     p.Price * float64(quantity),
		})
	}

	c.RecalculateTotal()
	if err := s.carts.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItem sets the quantity of an existing line. Quantity <= 0 removes
// the line instead of storing it.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.New(apperr.KindNotFound, "cart not found")
	}

	idx := -1
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, apperr.New(apperr.KindNotFound, "product %s not in cart", productID)
	}

	if quantity <= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	} else {
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, apperr.New(apperr.KindNotFound, "product %s not found", productID)
			}
			return nil, err
		}
		if p.Stock < quantity {
			return nil, insufficientStock(p)
		}
		c.Items[idx].Quantity = quantity
		c.Items[idx].Price = p.Price * float64(quantity)
	}

	c.RecalculateTotal()
	if err := s.carts.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	return s.UpdateItem(ctx, userID, productID, 0)
}

func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.New(apperr.KindNotFound, "cart not found")
	}

	if err := s.carts.Clear(ctx, c.ID); err != nil {
		return nil, err
	}
	c.Items = nil
	c.Total = 0
	return c, nil
}

func insufficientStock(p catalog.Product) *apperr.Error {
	e := apperr.New(apperr.KindInsufficientStock,
		"insufficient stock for %s, available: %d", p.ID, p.Stock)
	e.ProductID = p.ID
	e.Available = p.Stock
	return e
}
