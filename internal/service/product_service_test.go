package service

import (
	"context"
	"errors"
	"testing"

	"foodcatalog/internal/events"
	"foodcatalog/internal/model"
	"foodcatalog/internal/repository/repotest"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductService(store *repotest.Store, rec *events.Recorder) ProductService {
	return NewProductService(store.Products(), store.Audit(), store.Tx(), rec, zerolog.Nop())
}

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func validForm(name string) ProductForm {
	return ProductForm{
		Name:          name,
		Description:   "Fresh and crunchy",
		Categories:    []string{"Fruit"},
		Calories:      nd("52"),
		Protein:       nd("0.3"),
		Carbohydrates: nd("14"),
		Fat:           nd("0.2"),
	}
}

// seedProduct stores a product owned by producerID
func seedProduct(t *testing.T, store *repotest.Store, name string, producerID uuid.UUID, calories string) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          name,
		Description:   name + " description",
		Calories:      decimal.RequireFromString(calories),
		Protein:       decimal.NewFromInt(1),
		Carbohydrates: decimal.NewFromInt(1),
		Fat:           decimal.NewFromInt(1),
		ProducerID:    &producerID,
	}
	p.SetCategoryList([]string{"Fruit"})
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p
}

func TestCreate_StampsProducerAndPublishes(t *testing.T) {
	store := repotest.NewStore()
	rec := &events.Recorder{}
	svc := newProductService(store, rec)
	caller := principalWith(model.RoleFoodProducer)

	form := validForm("Apple")
	form.Categories = []string{"Fruit", "Fruit", "Vegetable"}
	form.Allergens = []string{"None"}
	res, err := svc.Create(context.Background(), caller, form)

	require.NoError(t, err)
	assert.Equal(t, caller.UserID.String(), res.ProducerID)
	assert.Equal(t, []string{"Fruit", "Vegetable"}, res.Categories)
	assert.Equal(t, []string{"None"}, res.Allergens)
	assert.InDelta(t, 0.3, res.Protein, 0.0001)

	require.Len(t, rec.Events, 1)
	assert.Equal(t, events.ProductCreated, rec.Events[0].Event)
	require.Len(t, store.AuditEntries(), 1)
	assert.Equal(t, model.ActionCreateProduct, store.AuditEntries()[0].Action)
}

func TestCreate_Authorization(t *testing.T) {
	svc := newProductService(repotest.NewStore(), &events.Recorder{})

	_, err := svc.Create(context.Background(), nil, validForm("Apple"))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Create(context.Background(), principalWith(model.RoleRegularUser), validForm("Apple"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreate_ValidationMessages(t *testing.T) {
	svc := newProductService(repotest.NewStore(), &events.Recorder{})

	form := ProductForm{Fat: nd("-1"), Allergens: []string{"Gluten"}}
	_, err := svc.Create(context.Background(), principalWith(model.RoleAdministrator), form)

	msgs := validationMessages(t, err)
	assert.Contains(t, msgs, "Name is required")
	assert.Contains(t, msgs, "Description is required")
	assert.Contains(t, msgs, "At least one category must be selected")
	assert.Contains(t, msgs, "Calories value is required")
	assert.Contains(t, msgs, "Protein value is required")
	assert.Contains(t, msgs, "Carbohydrates value is required")
	assert.Contains(t, msgs, "Please enter a valid fat value")
	assert.Contains(t, msgs, "Unknown allergen 'Gluten'")
}

func TestCreate_EmptyAllergensStoredAsNull(t *testing.T) {
	store := repotest.NewStore()
	svc := newProductService(store, &events.Recorder{})

	res, err := svc.Create(context.Background(), principalWith(model.RoleFoodProducer), validForm("Apple"))
	require.NoError(t, err)

	stored, err := store.Products().FindByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Allergens)
	assert.Empty(t, res.Allergens)
}

func TestEdit_ProducerCannotTouchForeignProduct(t *testing.T) {
	store := repotest.NewStore()
	product := seedProduct(t, store, "Apple", uuid.New(), "52")
	svc := newProductService(store, &events.Recorder{})
	intruder := principalWith(model.RoleFoodProducer)

	_, err := svc.Edit(context.Background(), intruder, product.ID, validForm("Pear"))
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(context.Background(), intruder, product.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetForModify(context.Background(), intruder, product.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEdit_OwnerAndAdministratorSucceed(t *testing.T) {
	store := repotest.NewStore()
	owner := principalWith(model.RoleFoodProducer)
	product := seedProduct(t, store, "Apple", owner.UserID, "52")
	rec := &events.Recorder{}
	svc := newProductService(store, rec)

	res, err := svc.Edit(context.Background(), owner, product.ID, validForm("Green Apple"))
	require.NoError(t, err)
	assert.Equal(t, "Green Apple", res.Name)
	assert.Equal(t, owner.UserID.String(), res.ProducerID)

	res, err = svc.Edit(context.Background(), principalWith(model.RoleAdministrator), product.ID, validForm("Red Apple"))
	require.NoError(t, err)
	assert.Equal(t, "Red Apple", res.Name)
	// producer is preserved when an admin edits
	assert.Equal(t, owner.UserID.String(), res.ProducerID)

	require.NoError(t, svc.Delete(context.Background(), principalWith(model.RoleAdministrator), product.ID))
	_, err = svc.Detail(context.Background(), product.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.Len(t, rec.Events, 3)
	assert.Equal(t, events.ProductDeleted, rec.Events[2].Event)
}

func TestEdit_BodyIDMustMatchPath(t *testing.T) {
	store := repotest.NewStore()
	product := seedProduct(t, store, "Apple", uuid.New(), "52")
	svc := newProductService(store, &events.Recorder{})

	form := validForm("Apple")
	other := product.ID + 1
	form.ID = &other
	_, err := svc.Edit(context.Background(), principalWith(model.RoleAdministrator), product.ID, form)

	assert.ErrorIs(t, err, ErrIDMismatch)
}

func TestEdit_MissingProductIsNotFound(t *testing.T) {
	svc := newProductService(repotest.NewStore(), &events.Recorder{})

	_, err := svc.Edit(context.Background(), principalWith(model.RoleFoodProducer), 42, validForm("Apple"))

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEdit_RowVanishedBeforeWriteIsNotFound(t *testing.T) {
	store := repotest.NewStore()
	product := seedProduct(t, store, "Apple", uuid.New(), "52")
	store.VanishOnUpdate = true
	svc := newProductService(store, &events.Recorder{})

	_, err := svc.Edit(context.Background(), principalWith(model.RoleAdministrator), product.ID, validForm("Apple"))

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEdit_OtherUpdateErrorsAreReturned(t *testing.T) {
	store := repotest.NewStore()
	product := seedProduct(t, store, "Apple", uuid.New(), "52")
	store.UpdateProductErr = errors.New("connection reset")
	svc := newProductService(store, &events.Recorder{})

	_, err := svc.Edit(context.Background(), principalWith(model.RoleAdministrator), product.ID, validForm("Apple"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, store.AuditEntries())
}

func TestList_Sorting(t *testing.T) {
	store := repotest.NewStore()
	producer := uuid.New()
	seedProduct(t, store, "Banana", producer, "89")
	seedProduct(t, store, "apple", producer, "52")
	seedProduct(t, store, "Cherry", producer, "63")
	svc := newProductService(store, &events.Recorder{})

	names := func(res []ProductResponse) []string {
		out := make([]string, 0, len(res))
		for _, p := range res {
			out = append(out, p.Name)
		}
		return out
	}

	res, err := svc.List(context.Background(), "Calories", "desc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana", "Cherry", "apple"}, names(res))

	res, err = svc.List(context.Background(), "price", "desc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana", "Cherry", "apple"}, names(res))
	fallback, err := svc.List(context.Background(), "name", "")
	require.NoError(t, err)
	assert.Equal(t, names(fallback), names(res))
}

func TestListByProducer(t *testing.T) {
	store := repotest.NewStore()
	mine := principalWith(model.RoleFoodProducer)
	seedProduct(t, store, "Apple", mine.UserID, "52")
	seedProduct(t, store, "Pear", uuid.New(), "57")
	svc := newProductService(store, &events.Recorder{})

	res, err := svc.ListByProducer(context.Background(), mine.UserID)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Apple", res[0].Name)

	count, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	store := repotest.NewStore()
	rec := &events.Recorder{Err: errors.New("broker down")}
	svc := newProductService(store, rec)

	_, err := svc.Create(context.Background(), principalWith(model.RoleFoodProducer), validForm("Apple"))

	assert.NoError(t, err)
}
