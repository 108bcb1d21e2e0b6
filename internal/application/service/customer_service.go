package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/sangkips/gst-billing/pkg/pagination"
	"github.com/sangkips/gst-billing/pkg/validation"
	"github.com/shopspring/decimal"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	store repository.Store
	opts  Options
}

// NewCustomerService creates a new customer service
func NewCustomerService(store repository.Store, opts Options) *CustomerService {
	return &CustomerService{store: store, opts: opts}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Phone       string          `json:"phone" validate:"omitempty,phone_in"`
	Email       string          `json:"email" validate:"omitempty,email"`
	GSTIN       string          `json:"gstin" validate:"omitempty,gstin"`
	Address     string          `json:"address"`
	StateCode   string          `json:"state_code" validate:"omitempty,statecode"`
	CreditLimit decimal.Decimal `json:"credit_limit" validate:"gte=0,places=2"`
}

// CreateCustomer creates a new customer. The state code defaults to the
// GSTIN's state, then to the seller's state.
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	state, err := s.resolveState(input.StateCode, input.GSTIN)
	if err != nil {
		return nil, err
	}

	customer := &entity.Customer{
		Name:          input.Name,
		Phone:         normalizePhone(input.Phone),
		Email:         input.Email,
		GSTIN:         input.GSTIN,
		Address:       input.Address,
		StateCode:     state,
		CreditBalance: decimal.Zero,
		CreditLimit:   input.CreditLimit,
	}
	if err := s.store.Customers().Create(ctx, customer); err != nil {
		return nil, translate(err)
	}
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.store.Customers().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists customers matching search by name, phone or GSTIN
func (s *CustomerService) ListCustomers(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Customer], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	customers, total, err := s.store.Customers().List(ctx, params, search)
	if err != nil {
		return nil, translate(err)
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(customers, pag), nil
}

// UpdateCustomerInput represents the update customer input. The credit
// balance is owned by the payment ledger and cannot be set here.
type UpdateCustomerInput struct {
	ID          uuid.UUID        `json:"-"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Phone       *string          `json:"phone" validate:"omitempty,phone_in"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	GSTIN       *string          `json:"gstin" validate:"omitempty,gstin"`
	Address     *string          `json:"address"`
	StateCode   *string          `json:"state_code" validate:"omitempty,statecode"`
	CreditLimit *decimal.Decimal `json:"credit_limit" validate:"omitempty,gte=0,places=2"`
}

// UpdateCustomer updates a customer
func (s *CustomerService) UpdateCustomer(ctx context.Context, input *UpdateCustomerInput) (*entity.Customer, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	customer, err := s.GetCustomer(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Phone != nil {
		customer.Phone = normalizePhone(*input.Phone)
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}
	if input.GSTIN != nil {
		customer.GSTIN = *input.GSTIN
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}
	if input.StateCode != nil {
		customer.StateCode = *input.StateCode
	}
	if input.CreditLimit != nil {
		customer.CreditLimit = *input.CreditLimit
	}
	if customer.StateCode, err = s.resolveState(customer.StateCode, customer.GSTIN); err != nil {
		return nil, err
	}

	if err := s.store.Customers().Update(ctx, customer); err != nil {
		return nil, translate(err)
	}
	return s.GetCustomer(ctx, customer.ID)
}

// resolveState checks that a GSTIN agrees with the state code and fills the
// state code when it is missing.
func (s *CustomerService) resolveState(state, gstin string) (string, error) {
	if gstin != "" {
		if state != "" && gstin[:2] != state {
			return "", apperror.NewFieldValidationError("gstin", "GSTIN state prefix "+gstin[:2]+" does not match state code "+state)
		}
		return gstin[:2], nil
	}
	if state == "" {
		return s.opts.SellerState, nil
	}
	return state, nil
}

func normalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	return validation.NormalizePhone(phone)
}
