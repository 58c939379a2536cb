package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-service/internal/db"
	"github.com/vasiliy-maslov/shop-service/internal/user"
)

type Service interface {
	GetOrCreate(ctx context.Context, id Identity) (*Cart, error)
	AddItem(ctx context.Context, id Identity, variantID uuid.UUID, quantity int) (*Cart, error)
	UpdateQuantity(ctx context.Context, id Identity, itemID uuid.UUID, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, id Identity, itemID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, id Identity) (*Cart, error)
	TransferAnonymousToUser(ctx context.Context, sessionToken string, userID uuid.UUID) (*Cart, error)
}

type VariantLookup interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Option func(*service)

func WithTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	repo     Repository
	variants VariantLookup
	users    UserLookup
	tx       db.Transactor
	ttl      time.Duration
	now      func() time.Time
}

func NewService(repo Repository, variants VariantLookup, users UserLookup, tx db.Transactor, opts ...Option) Service {
	s := &service{
		repo:     repo,
		variants: variants,
		users:    users,
		tx:       tx,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) GetOrCreate(ctx context.Context, id Identity) (*Cart, error) {
	var c *Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.getOrCreate(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) getOrCreate(ctx context.Context, id Identity) (*Cart, error) {
	if id.IsUser() {
		c, err := s.repo.GetByUser(ctx, id.UserID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCartNotFound) {
			return nil, fmt.Errorf("service: failed to get user cart: %w", err)
		}

		if _, err := s.users.GetByID(ctx, id.UserID); err != nil {
			log.Warn().Err(err).Stringer("user_id", id.UserID).Msg("service: cannot create cart for unknown user")
			return nil, err
		}

		fresh, err := s.newCart()
		if err != nil {
			return nil, err
		}
		fresh.UserID = uuid.NullUUID{UUID: id.UserID, Valid: true}
		if err := s.create(ctx, fresh); err != nil {
			return nil, err
		}
		return s.repo.GetByUser(ctx, id.UserID)
	}

	token := id.SessionToken
	if token != "" {
		c, err := s.repo.GetBySession(ctx, token)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCartNotFound) {
			return nil, fmt.Errorf("service: failed to get session cart: %w", err)
		}
	} else {
		generated, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("service: failed to generate session token: %w", err)
		}
		token = generated.String()
	}

	fresh, err := s.newCart()
	if err != nil {
		return nil, err
	}
	fresh.SessionToken = &token
	if err := s.create(ctx, fresh); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, token)
}

func (s *service) newCart() (*Cart, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate cart id: %w", err)
	}
	now := s.now()
	return &Cart{
		ID:        id,
		Items:     []Item{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

func (s *service) create(ctx context.Context, c *Cart) error {
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return fmt.Errorf("service: failed to create cart: %w", err)
	}
	if created {
		log.Info().Stringer("cart_id", c.ID).Msg("service: cart created")
	}
	return nil
}

// touch renews the sliding expiration and reloads the cart.
func (s *service) touch(ctx context.Context, cartID uuid.UUID) (*Cart, error) {
	now := s.now()
	if err := s.repo.Touch(ctx, cartID, now, now.Add(s.ttl)); err != nil {
		return nil, fmt.Errorf("service: failed to renew cart: %w", err)
	}
	c, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to reload cart: %w", err)
	}
	return c, nil
}

func (s *service) AddItem(ctx context.Context, id Identity, variantID uuid.UUID, quantity int) (*Cart, error) {
	if variantID == uuid.Nil {
		return nil, apperr.BadRequest("variant id is required")
	}
	if quantity < 1 {
		return nil, apperr.BadRequest("quantity must be at least 1")
	}

	var result *Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.getOrCreate(ctx, id)
		if err != nil {
			return err
		}

		v, err := s.variants.GetVariant(ctx, variantID)
		if err != nil {
			return err
		}
		if !v.Active {
			return apperr.BadRequest("variant %s is not available", variantID)
		}
		if !v.HasStock(quantity) {
			return apperr.InsufficientStock(v.ID, quantity, v.Stock)
		}

		now := s.now()
		if existing := c.FindByVariant(variantID); existing != nil {
			newQuantity := existing.Quantity + quantity
			if !v.HasStock(newQuantity) {
				return apperr.InsufficientStock(v.ID, newQuantity, v.Stock)
			}
			existing.Quantity = newQuantity
			existing.UnitPrice = v.UnitPrice
			existing.UpdatedAt = now
			if err := s.repo.UpdateItem(ctx, existing); err != nil {
				return fmt.Errorf("service: failed to update cart item: %w", err)
			}
		} else {
			itemID, err := uuid.NewV4()
			if err != nil {
				return fmt.Errorf("service: failed to generate item id: %w", err)
			}
			item := &Item{
				ID:        itemID,
				CartID:    c.ID,
				VariantID: variantID,
				Quantity:  quantity,
				UnitPrice: v.UnitPrice,
				AddedAt:   now,
				UpdatedAt: now,
			}
			if err := s.repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("service: failed to add cart item: %w", err)
			}
		}

		result, err = s.touch(ctx, c.ID)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Stringer("variant_id", variantID).Int("quantity", quantity).Msg("service: failed to add item to cart")
		return nil, err
	}

	log.Info().Stringer("cart_id", result.ID).Stringer("variant_id", variantID).Int("quantity", quantity).Msg("service: item added to cart")
	return result, nil
}

// lockItemCart loads the item's cart with its row lock held and returns the
// item as seen under that lock. Items of other callers' carts are reported
// as missing.
func (s *service) lockItemCart(ctx context.Context, id Identity, itemID uuid.UUID) (*Cart, *Item, error) {
	it, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.repo.GetByID(ctx, it.CartID)
	if err != nil {
		return nil, nil, err
	}
	if !c.OwnedBy(id) {
		log.Warn().Stringer("item_id", itemID).Stringer("cart_id", c.ID).Msg("service: cart item requested by a caller that does not own the cart")
		return nil, nil, apperr.NotFound("Cart item", "id", itemID)
	}
	locked := c.findItem(itemID)
	if locked == nil {
		return nil, nil, apperr.NotFound("Cart item", "id", itemID)
	}
	return c, locked, nil
}

func (s *service) UpdateQuantity(ctx context.Context, id Identity, itemID uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, apperr.BadRequest("quantity must be zero or positive")
	}

	var result *Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, it, err := s.lockItemCart(ctx, id, itemID)
		if err != nil {
			return err
		}

		if quantity == 0 {
			if err := s.repo.DeleteItem(ctx, itemID); err != nil {
				return err
			}
		} else {
			v, err := s.variants.GetVariant(ctx, it.VariantID)
			if err != nil {
				return err
			}
			if !v.HasStock(quantity) {
				return apperr.InsufficientStock(v.ID, quantity, v.Stock)
			}
			it.Quantity = quantity
			it.UnitPrice = v.UnitPrice
			it.UpdatedAt = s.now()
			if err := s.repo.UpdateItem(ctx, it); err != nil {
				return fmt.Errorf("service: failed to update cart item: %w", err)
			}
		}

		result, err = s.touch(ctx, c.ID)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Stringer("item_id", itemID).Int("quantity", quantity).Msg("service: failed to update cart item quantity")
		return nil, err
	}
	return result, nil
}

func (s *service) RemoveItem(ctx context.Context, id Identity, itemID uuid.UUID) (*Cart, error) {
	var result *Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, _, err := s.lockItemCart(ctx, id, itemID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		result, err = s.touch(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Stringer("cart_id", result.ID).Stringer("item_id", itemID).Msg("service: item removed from cart")
	return result, nil
}

func (s *service) Clear(ctx context.Context, id Identity) (*Cart, error) {
	var result *Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var (
			c   *Cart
			err error
		)
		switch {
		case id.IsUser():
			c, err = s.repo.GetByUser(ctx, id.UserID)
		case id.SessionToken != "":
			c, err = s.repo.GetBySession(ctx, id.SessionToken)
		default:
			err = ErrCartNotFound
		}
		if err != nil {
			return err
		}

		if err := s.repo.ClearItems(ctx, c.ID); err != nil {
			return err
		}
		result, err = s.touch(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Stringer("cart_id", result.ID).Msg("service: cart cleared")
	return result, nil
}

func (s *service) TransferAnonymousToUser(ctx context.Context, sessionToken string, userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, apperr.BadRequest("user id is required")
	}

	var result *Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var anon *Cart
		if sessionToken != "" {
			var err error
			anon, err = s.repo.GetBySession(ctx, sessionToken)
			if err != nil && !errors.Is(err, ErrCartNotFound) {
				return fmt.Errorf("service: failed to get session cart: %w", err)
			}
		}
		if anon == nil || anon.IsEmpty() {
			var err error
			result, err = s.getOrCreate(ctx, Identity{UserID: userID})
			return err
		}

		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return err
		}

		dest, err := s.repo.GetByUser(ctx, userID)
		if errors.Is(err, ErrCartNotFound) {
			if err := s.repo.AssignToUser(ctx, anon.ID, userID); err != nil {
				return err
			}
			log.Info().Stringer("cart_id", anon.ID).Stringer("user_id", userID).Msg("service: anonymous cart assigned to user")
			result, err = s.touch(ctx, anon.ID)
			return err
		}
		if err != nil {
			return fmt.Errorf("service: failed to get user cart: %w", err)
		}

		now := s.now()
		for i := range anon.Items {
			src := &anon.Items[i]
			if existing := dest.FindByVariant(src.VariantID); existing != nil {
				existing.Quantity += src.Quantity
				existing.UpdatedAt = now
				if err := s.repo.UpdateItem(ctx, existing); err != nil {
					return fmt.Errorf("service: failed to merge cart item: %w", err)
				}
				continue
			}
			if err := s.repo.MoveItem(ctx, src.ID, dest.ID); err != nil {
				return fmt.Errorf("service: failed to move cart item: %w", err)
			}
		}

		if err := s.repo.Delete(ctx, anon.ID); err != nil {
			return fmt.Errorf("service: failed to delete anonymous cart: %w", err)
		}
		log.Info().Stringer("from_cart_id", anon.ID).Stringer("to_cart_id", dest.ID).Msg("service: anonymous cart merged into user cart")

		result, err = s.touch(ctx, dest.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
