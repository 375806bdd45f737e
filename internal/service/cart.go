package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/apiclient"
	"github.com/target/storefront-go/internal/domain/auth"
	"github.com/target/storefront-go/internal/domain/model"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/ports"
)

const pathCart = "api/v1/cart/"

// SessionReader is the read side of the session that feature services depend on.
type SessionReader interface {
	State() auth.Session
	Client() *apiclient.Client
}

// CartServiceConfig holds tunables for CartService.
type CartServiceConfig struct {
	// LineItemsExpr is a JMESPath expression turning the server cart document into a list
	// of objects shaped like model.CartItem.
	LineItemsExpr string
	Logger        *slog.Logger
}

// CartServiceOptions groups dependencies for CartService.
type CartServiceOptions struct {
	Session SessionReader // Required: selects guest or server cart
	Store   ports.Store   // Required: guest cart persistence
	Config  CartServiceConfig
}

// CartService keeps a local cart for guests and proxies the server cart once logged in.
type CartService struct {
	session SessionReader
	store   ports.Store
	expr    string
	logger  *slog.Logger
}

// NewCartService constructs a CartService. It panics on an invalid LineItemsExpr.
func NewCartService(opts CartServiceOptions) *CartService {
	if opts.Session == nil {
		panic("CartService requires a non-nil Session")
	}
	if opts.Store == nil {
		panic("CartService requires a non-nil Store")
	}
	expr := strings.TrimSpace(opts.Config.LineItemsExpr)
	if expr == "" {
		expr = config.DefaultLineItemsExpr
	}
	if _, err := jmespath.Compile(expr); err != nil {
		panic(fmt.Sprintf("invalid cart line items expression: %v", err))
	}
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{
		session: opts.Session,
		store:   opts.Store,
		expr:    expr,
		logger:  logger.With("component", "cart"),
	}
}

func (s *CartService) authenticated() bool {
	return s.session.State().IsAuthenticated()
}

// Items returns the server cart when logged in and the guest cart otherwise.
func (s *CartService) Items(ctx context.Context) (model.Cart, error) {
	if s.authenticated() {
		return s.fetchServer(ctx)
	}
	return s.LoadLocal(ctx)
}

// Total returns the cart total.
func (s *CartService) Total(ctx context.Context) (model.Price, error) {
	c, err := s.Items(ctx)
	if err != nil {
		return 0, err
	}
	return c.Total(), nil
}

// LoadLocal reads the guest cart. Duplicate lines written by older clients are coalesced.
func (s *CartService) LoadLocal(ctx context.Context) (model.Cart, error) {
	raw, err := s.store.Get(ctx, ports.KeyGuestCart)
	if err != nil {
		return model.Cart{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not read the cart.")
	}
	var c model.Cart
	if len(raw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c.Items); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable guest cart", "error", err)
		return model.Cart{}, nil
	}
	c.Normalize()
	return c, nil
}

func (s *CartService) saveLocal(ctx context.Context, c model.Cart) error {
	if len(c.Items) == 0 {
		if err := s.store.Delete(ctx, ports.KeyGuestCart); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save the cart.")
		}
		return nil
	}
	raw, err := json.Marshal(c.Items)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save the cart.")
	}
	if err := s.store.Set(ctx, ports.KeyGuestCart, raw); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save the cart.")
	}
	return nil
}

// Add puts qty units of p in the cart. Guest lines for the same product are merged.
func (s *CartService) Add(ctx context.Context, p model.Product, qty int) (model.Cart, error) {
	if qty < 1 {
		return model.Cart{}, apperrors.ValidationField("quantity", "Quantity must be at least 1.")
	}
	if s.authenticated() {
		err := s.session.Client().Post(ctx, fmt.Sprintf("%s%d/add/", pathCart, p.ID),
			map[string]int{"quantity": qty}, nil)
		if err != nil {
			return model.Cart{}, err
		}
		return s.fetchServer(ctx)
	}

	c, err := s.LoadLocal(ctx)
	if err != nil {
		return model.Cart{}, err
	}
	if err := c.Add(p.CartItem(qty)); err != nil {
		return model.Cart{}, apperrors.ValidationField("quantity", "Quantity must be at least 1.")
	}
	if err := s.saveLocal(ctx, c); err != nil {
		return model.Cart{}, err
	}
	return c, nil
}

// Remove drops the line for productID.
func (s *CartService) Remove(ctx context.Context, productID int64) (model.Cart, error) {
	if s.authenticated() {
		if err := s.session.Client().Post(ctx, fmt.Sprintf("%s%d/remove/", pathCart, productID), nil, nil); err != nil {
			return model.Cart{}, err
		}
		return s.fetchServer(ctx)
	}

	c, err := s.LoadLocal(ctx)
	if err != nil {
		return model.Cart{}, err
	}
	if !c.Remove(productID) {
		return c, apperrors.NotFound("This item is not in your cart.")
	}
	if err := s.saveLocal(ctx, c); err != nil {
		return model.Cart{}, err
	}
	return c, nil
}

// Clear empties the cart and returns what remains.
func (s *CartService) Clear(ctx context.Context) (model.Cart, error) {
	if s.authenticated() {
		if err := s.session.Client().Post(ctx, pathCart+"clear/", nil, nil); err != nil {
			return model.Cart{}, err
		}
		return s.fetchServer(ctx)
	}
	if err := s.saveLocal(ctx, model.Cart{}); err != nil {
		return model.Cart{}, err
	}
	return model.Cart{}, nil
}

// MergeGuest pushes guest lines into the server cart after login. Lines the server
// rejects stay in the guest cart and their errors are joined into the result.
func (s *CartService) MergeGuest(ctx context.Context) (model.Cart, error) {
	if !s.authenticated() {
		return model.Cart{}, apperrors.Unauthorized("You must be logged in.")
	}
	guest, err := s.LoadLocal(ctx)
	if err != nil {
		return model.Cart{}, err
	}

	var failed model.Cart
	var errs []error
	for _, it := range guest.Items {
		err := s.session.Client().Post(ctx, fmt.Sprintf("%s%d/add/", pathCart, it.ProductID),
			map[string]int{"quantity": it.Quantity}, nil)
		if err != nil {
			s.logger.WarnContext(ctx, "guest cart line not merged", "product_id", it.ProductID, "error", err)
			failed.Items = append(failed.Items, it)
			errs = append(errs, fmt.Errorf("%s: %w", it.Name, err))
		}
	}
	if saveErr := s.saveLocal(ctx, failed); saveErr != nil {
		errs = append(errs, saveErr)
	}

	server, err := s.fetchServer(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	return server, errors.Join(errs...)
}

func (s *CartService) fetchServer(ctx context.Context) (model.Cart, error) {
	var doc any
	if err := s.session.Client().Get(ctx, pathCart, nil, &doc); err != nil {
		return model.Cart{}, err
	}
	c, err := s.flatten(doc)
	if err != nil {
		s.logger.ErrorContext(ctx, "server cart did not match line item expression", "error", err)
		return model.Cart{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Unexpected response from the server.")
	}
	return c, nil
}

// flatten evaluates the line item expression against the server document.
func (s *CartService) flatten(doc any) (model.Cart, error) {
	res, err := jmespath.Search(s.expr, doc)
	if err != nil {
		return model.Cart{}, fmt.Errorf("evaluate line items: %w", err)
	}
	if res == nil {
		return model.Cart{}, nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return model.Cart{}, fmt.Errorf("encode line items: %w", err)
	}
	var c model.Cart
	if err := json.Unmarshal(raw, &c.Items); err != nil {
		return model.Cart{}, fmt.Errorf("decode line items: %w", err)
	}
	c.Normalize()
	return c, nil
}
