package inc

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rncflow/internal/domain/access"
	domaininc "rncflow/internal/domain/inc"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/usecasetest"
)

func TestCreateINC(t *testing.T) {
	f := usecasetest.New(t)
	svc := NewService(f.INCs, f.Directory)
	ctx := context.Background()
	supplier := f.Supplier(t, "Acme")
	actor := f.Actor(t, "recebimento@example.com", access.INCCreate, access.INCRead)

	created, err := svc.Create(ctx, actor, CreateInput{
		SupplierID: supplier.ID,
		Quantidade: decimal.RequireFromString("3.250"),
		Unidade:    " un ",
		NotaFiscal: "NF-10",
		NumeroAR:   "AR-10",
	})
	require.NoError(t, err)
	assert.Equal(t, domaininc.StatusEmAnalise, created.Status)
	assert.Equal(t, "un", created.Unidade)
	assert.Equal(t, actor.UserID, created.CreatedByID)

	got, err := svc.Get(ctx, actor, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantidade.Equal(decimal.RequireFromString("3.25")))

	items, err := svc.List(ctx, actor, ports.INCFilter{SupplierID: supplier.ID})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCreateINCValidation(t *testing.T) {
	f := usecasetest.New(t)
	svc := NewService(f.INCs, f.Directory)
	ctx := context.Background()
	supplier := f.Supplier(t, "Acme")
	actor := f.Admin(t, "admin@example.com")

	_, err := svc.Create(ctx, actor, CreateInput{SupplierID: supplier.ID, Quantidade: decimal.Zero, Unidade: "kg"})
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = svc.Create(ctx, actor, CreateInput{SupplierID: 999, Quantidade: decimal.NewFromInt(1), Unidade: "kg"})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	reader := f.Actor(t, "leitor@example.com", access.INCRead)
	_, err = svc.Create(ctx, reader, CreateInput{SupplierID: supplier.ID, Quantidade: decimal.NewFromInt(1), Unidade: "kg"})
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}
