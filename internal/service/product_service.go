package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"foodcatalog/internal/auth"
	"foodcatalog/internal/events"
	"foodcatalog/internal/model"
	"foodcatalog/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

// ProductForm is the create/edit submission. Nutrition values are nullable so a
// missing value can be told apart from zero.
type ProductForm struct {
	ID            *uint               `json:"id,omitempty"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Categories    []string            `json:"categories"`
	Calories      decimal.NullDecimal `json:"calories" swaggertype:"number"`
	Protein       decimal.NullDecimal `json:"protein" swaggertype:"number"`
	Carbohydrates decimal.NullDecimal `json:"carbohydrates" swaggertype:"number"`
	Fat           decimal.NullDecimal `json:"fat" swaggertype:"number"`
	Allergens     []string            `json:"allergens"`
}

type ProductResponse struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Categories    []string `json:"categories"`
	Calories      float64  `json:"calories"`
	Protein       float64  `json:"protein"`
	Carbohydrates float64  `json:"carbohydrates"`
	Fat           float64  `json:"fat"`
	Allergens     []string `json:"allergens"`
	ProducerID    string   `json:"producer_id,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// ProductFormOptions lists the values the product form accepts
type ProductFormOptions struct {
	Categories []string `json:"available_categories"`
	Allergens  []string `json:"available_allergens"`
}

// --- Interface ---

type ProductService interface {
	List(ctx context.Context, sortKey, direction string) ([]ProductResponse, error)
	Detail(ctx context.Context, id uint) (*ProductResponse, error)
	FormOptions() ProductFormOptions
	Create(ctx context.Context, principal *auth.Principal, form ProductForm) (*ProductResponse, error)
	GetForModify(ctx context.Context, principal *auth.Principal, id uint) (*ProductResponse, error)
	Edit(ctx context.Context, principal *auth.Principal, id uint, form ProductForm) (*ProductResponse, error)
	Delete(ctx context.Context, principal *auth.Principal, id uint) error
	ListByProducer(ctx context.Context, producerID uuid.UUID) ([]ProductResponse, error)
	Count(ctx context.Context) (int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	publisher   events.Publisher
	log         zerolog.Logger
}

func NewProductService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	log zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		publisher:   publisher,
		log:         log,
	}
}

func toProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Categories:    p.CategoryList(),
		Calories:      p.Calories.InexactFloat64(),
		Protein:       p.Protein.InexactFloat64(),
		Carbohydrates: p.Carbohydrates.InexactFloat64(),
		Fat:           p.Fat.InexactFloat64(),
		Allergens:     p.AllergenList(),
		CreatedAt:     p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.ProducerID != nil {
		resp.ProducerID = p.ProducerID.String()
	}
	return resp
}

func toProductResponses(products []model.Product) []ProductResponse {
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res
}

func (s *productService) FormOptions() ProductFormOptions {
	return ProductFormOptions{
		Categories: append([]string(nil), model.AvailableCategories...),
		Allergens:  append([]string(nil), model.AvailableAllergens...),
	}
}

func (s *productService) List(ctx context.Context, sortKey, direction string) ([]ProductResponse, error) {
	products, err := s.productRepo.List(ctx, repository.ParseProductSort(sortKey, direction))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return toProductResponses(products), nil
}

func (s *productService) Detail(ctx context.Context, id uint) (*ProductResponse, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *productService) ListByProducer(ctx context.Context, producerID uuid.UUID) ([]ProductResponse, error) {
	products, err := s.productRepo.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list producer products: %w", err)
	}
	return toProductResponses(products), nil
}

func (s *productService) Count(ctx context.Context) (int64, error) {
	return s.productRepo.Count(ctx)
}

func (s *productService) Create(ctx context.Context, principal *auth.Principal, form ProductForm) (*ProductResponse, error) {
	if err := authorizeManage(principal); err != nil {
		return nil, err
	}

	product := &model.Product{}
	if err := applyForm(product, form); err != nil {
		return nil, err
	}
	producerID := principal.UserID
	product.ProducerID = &producerID

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &principal.UserID, model.ActionCreateProduct,
			strconv.FormatUint(uint64(product.ID), 10), product.Name, toProductResponse(product))
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProductCreated, product, principal)
	resp := toProductResponse(product)
	return &resp, nil
}

// GetForModify loads a product for the edit or delete confirmation step
func (s *productService) GetForModify(ctx context.Context, principal *auth.Principal, id uint) (*ProductResponse, error) {
	product, err := s.authorizeModify(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *productService) Edit(ctx context.Context, principal *auth.Principal, id uint, form ProductForm) (*ProductResponse, error) {
	if form.ID != nil && *form.ID != id {
		return nil, ErrIDMismatch
	}
	product, err := s.authorizeModify(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := applyForm(product, form); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			if errors.Is(err, repository.ErrStaleRecord) {
				return s.staleUpdate(txCtx, id, err)
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &principal.UserID, model.ActionUpdateProduct,
			strconv.FormatUint(uint64(product.ID), 10), product.Name, toProductResponse(product))
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProductUpdated, product, principal)
	resp := toProductResponse(product)
	return &resp, nil
}

// staleUpdate re-checks existence after an update matched no row
func (s *productService) staleUpdate(ctx context.Context, id uint, cause error) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to re-check product: %w", err)
	}
	return fmt.Errorf("failed to update product: %w", cause)
}

func (s *productService) Delete(ctx context.Context, principal *auth.Principal, id uint) error {
	product, err := s.authorizeModify(ctx, principal, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &principal.UserID, model.ActionDeleteProduct,
			strconv.FormatUint(uint64(product.ID), 10), product.Name, map[string]bool{"deleted": true})
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.ProductDeleted, product, principal)
	return nil
}

func (s *productService) find(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func authorizeManage(principal *auth.Principal) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if !principal.CanManageProducts() {
		return ErrForbidden
	}
	return nil
}

// authorizeModify applies the role check, then existence, then ownership
func (s *productService) authorizeModify(ctx context.Context, principal *auth.Principal, id uint) (*model.Product, error) {
	if err := authorizeManage(principal); err != nil {
		return nil, err
	}
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanModifyProduct(product) {
		return nil, ErrForbidden
	}
	return product, nil
}

// publish runs after commit. Delivery failures never fail the request.
func (s *productService) publish(ctx context.Context, kind string, product *model.Product, principal *auth.Principal) {
	if s.publisher == nil {
		return
	}
	event := events.NewProductEvent(kind, product, principal.UserID.String())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", kind).Uint("product_id", product.ID).Msg("failed to publish catalog event")
	}
}

// applyForm validates the submission and copies it onto the product
func applyForm(product *model.Product, form ProductForm) error {
	verr := &ValidationError{}

	name := strings.TrimSpace(form.Name)
	if name == "" {
		verr.Add("name", "Name is required")
	}
	description := strings.TrimSpace(form.Description)
	if description == "" {
		verr.Add("description", "Description is required")
	}

	categories := distinct(form.Categories)
	if len(categories) == 0 {
		verr.Add("categories", "At least one category must be selected")
	}
	for _, c := range categories {
		if !contains(model.AvailableCategories, c) {
			verr.Add("categories", fmt.Sprintf("Unknown category '%s'", c))
		}
	}
	allergens := distinct(form.Allergens)
	for _, a := range allergens {
		if !contains(model.AvailableAllergens, a) {
			verr.Add("allergens", fmt.Sprintf("Unknown allergen '%s'", a))
		}
	}

	calories := nutrient(verr, "calories", "Calories", form.Calories)
	protein := nutrient(verr, "protein", "Protein", form.Protein)
	fat := nutrient(verr, "fat", "Fat", form.Fat)
	carbohydrates := nutrient(verr, "carbohydrates", "Carbohydrates", form.Carbohydrates)

	if err := verr.OrNil(); err != nil {
		return err
	}

	product.Name = name
	product.Description = description
	product.SetCategoryList(categories)
	product.SetAllergenList(allergens)
	product.Calories = calories
	product.Protein = protein
	product.Fat = fat
	product.Carbohydrates = carbohydrates
	return nil
}

func nutrient(verr *ValidationError, field, label string, value decimal.NullDecimal) decimal.Decimal {
	if !value.Valid {
		verr.Add(field, label+" value is required")
		return decimal.Zero
	}
	if value.Decimal.IsNegative() {
		verr.Add(field, "Please enter a valid "+field+" value")
		return decimal.Zero
	}
	return value.Decimal.Round(2)
}

// distinct trims, drops blanks and collapses duplicates keeping first appearance
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
