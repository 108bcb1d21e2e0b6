package service

import (
	"testing"

	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCustomer_ResolvesState(t *testing.T) {
	f := newFixture(t)

	fromGSTIN, err := f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{Name: "Kochi Stores", GSTIN: "32AABCU9603R1ZM"})
	require.NoError(t, err)
	assert.Equal(t, "32", fromGSTIN.StateCode)

	walkIn, err := f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{Name: "Walk-in", Phone: "98470 12345"})
	require.NoError(t, err)
	assert.Equal(t, f.opts.SellerState, walkIn.StateCode)
	assert.Equal(t, "+919847012345", walkIn.Phone)
	assertAmount(t, "0", walkIn.CreditBalance)

	_, err = f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{Name: "Mismatch", GSTIN: "32AABCU9603R1ZM", StateCode: "33"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{Name: "Nowhere", StateCode: "99"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestUpdateCustomer_RechecksState(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Chennai Traders", "33")

	gstin := "32AABCU9603R1ZM"
	_, err := f.customers.UpdateCustomer(f.ctx, &UpdateCustomerInput{ID: c.ID, GSTIN: &gstin})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	state := "32"
	updated, err := f.customers.UpdateCustomer(f.ctx, &UpdateCustomerInput{ID: c.ID, GSTIN: &gstin, StateCode: &state})
	require.NoError(t, err)
	assert.Equal(t, "32", updated.StateCode)
	assert.Equal(t, gstin, updated.GSTIN)

	page, err := f.customers.ListCustomers(f.ctx, nil, "chennai")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}
