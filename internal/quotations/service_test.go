package quotations

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/dbtest"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
)

type fixture struct {
	svc      Service
	conn     *gorm.DB
	seller   audit.Actor
	manager  audit.Actor
	customer models.Customer
	wallet   models.Product
	belt     models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		TxRunner: client,
		Audit:    audit.NewRepository(conn),
		Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
	})
	require.NoError(t, err)

	email := "compras@boutique.test"
	customer := models.Customer{Code: "C-100", Name: "Boutique Centro", Email: &email, Status: enums.CustomerStatusActive, CreatedBy: uuid.New()}
	require.NoError(t, conn.Create(&customer).Error)
	wallet := models.Product{SKU: "FG-WALLET", Name: "Bifold wallet", Category: "finished", Unit: enums.ProductUnitPiece, SalePrice: decimal.NewFromInt(45)}
	belt := models.Product{SKU: "FG-BELT", Name: "Dress belt", Category: "finished", Unit: enums.ProductUnitPiece, SalePrice: decimal.NewFromInt(60)}
	require.NoError(t, conn.Create(&wallet).Error)
	require.NoError(t, conn.Create(&belt).Error)

	return &fixture{
		svc:      svc,
		conn:     conn,
		seller:   audit.Actor{UserID: uuid.New(), Role: enums.RoleSalesUser},
		manager:  audit.Actor{UserID: uuid.New(), Role: enums.RoleSalesManager},
		customer: customer,
		wallet:   wallet,
		belt:     belt,
	}
}

func (f *fixture) draft(t *testing.T) *QuotationDTO {
	t.Helper()
	price := decimal.NewFromInt(40)
	rate := decimal.RequireFromString("0.16")
	q, err := f.svc.Create(context.Background(), f.seller, CreateQuotationInput{
		CustomerID: f.customer.ID,
		TaxRate:    &rate,
		Lines: []LineInput{
			{ProductID: f.wallet.ID, Quantity: decimal.NewFromInt(10), UnitPrice: &price, DiscountPercent: decimal.NewFromInt(10)},
			{ProductID: f.belt.ID, Quantity: decimal.NewFromInt(5)},
		},
	})
	require.NoError(t, err)
	return q
}

func requireConflict(t *testing.T, err error, current enums.QuotationStatus) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(current), details["current_status"])
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)
	q := f.draft(t)

	assert.Equal(t, enums.QuotationStatusDraft, q.Status)
	assert.Regexp(t, `^QT-\d{8}-[0-9A-F]{6}$`, q.Number)
	// 10 x 40 less 10% plus 5 x 60 at sale price
	assert.True(t, q.Subtotal.Equal(decimal.NewFromInt(700)), q.Subtotal.String())
	assert.True(t, q.DiscountTotal.Equal(decimal.NewFromInt(40)), q.DiscountTotal.String())
	assert.True(t, q.TaxTotal.Equal(decimal.RequireFromString("105.6")), q.TaxTotal.String())
	assert.True(t, q.Total.Equal(decimal.RequireFromString("765.6")), q.Total.String())
	require.Len(t, q.Lines, 2)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.seller, CreateQuotationInput{CustomerID: f.customer.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.seller, CreateQuotationInput{
		CustomerID: f.customer.ID,
		Lines:      []LineInput{{ProductID: f.wallet.ID, Quantity: decimal.NewFromInt(1), DiscountPercent: decimal.NewFromInt(101)}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, f.conn.Model(&models.Customer{}).Where("id = ?", f.customer.ID).Update("status", enums.CustomerStatusInactive).Error)
	_, err = f.svc.Create(ctx, f.seller, CreateQuotationInput{
		CustomerID: f.customer.ID,
		Lines:      []LineInput{{ProductID: f.wallet.ID, Quantity: decimal.NewFromInt(1)}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestApprovalFlowQueuesCustomerEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.draft(t)

	_, err := f.svc.Approve(ctx, f.manager, q.ID, ApproveInput{})
	requireConflict(t, err, enums.QuotationStatusDraft)

	submitted, err := f.svc.Submit(ctx, f.seller, q.ID)
	require.NoError(t, err)
	assert.NotNil(t, submitted.SubmittedAt)

	_, err = f.svc.Update(ctx, f.seller, q.ID, UpdateQuotationInput{Notes: strPtr("late edit")})
	requireConflict(t, err, enums.QuotationStatusSubmitted)

	approved, err := f.svc.Approve(ctx, f.manager, q.ID, ApproveInput{Comment: "good margin"})
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusApproved, approved.Status)
	assert.Equal(t, f.manager.UserID, *approved.ApprovedBy)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventQuotationApproved).Find(&events).Error)
	require.Len(t, events, 1)
	env, err := outbox.DecodeEnvelope(events[0].Payload)
	require.NoError(t, err)
	var body payloads.QuotationApprovedEvent
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "compras@boutique.test", body.CustomerEmail)
	assert.True(t, body.Total.Equal(approved.Total))

	var approvals int64
	require.NoError(t, f.conn.Model(&models.Approval{}).Where("entity_id = ?", q.ID).Count(&approvals).Error)
	assert.EqualValues(t, 1, approvals)
}

func TestRejectedQuotationCanBeEditedAndResubmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.draft(t)
	_, err := f.svc.Submit(ctx, f.seller, q.ID)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, f.manager, q.ID, RejectInput{Reason: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	rejected, err := f.svc.Reject(ctx, f.manager, q.ID, RejectInput{Reason: "discount too deep"})
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusRejected, rejected.Status)

	updated, err := f.svc.Update(ctx, f.seller, q.ID, UpdateQuotationInput{
		Lines: []LineInput{{ProductID: f.belt.ID, Quantity: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(120)))
	assert.True(t, updated.Total.Equal(decimal.RequireFromString("139.2")), updated.Total.String())

	resubmitted, err := f.svc.Submit(ctx, f.seller, q.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusSubmitted, resubmitted.Status)
	assert.Nil(t, resubmitted.RejectionReason)

	var lines int64
	require.NoError(t, f.conn.Model(&models.SalesQuotationLine{}).Where("quotation_id = ?", q.ID).Count(&lines).Error)
	assert.EqualValues(t, 1, lines)
}

func TestApproveWithoutCustomerEmailSkipsEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.conn.Model(&models.Customer{}).Where("id = ?", f.customer.ID).Update("email", nil).Error)
	q := f.draft(t)
	_, err := f.svc.Submit(ctx, f.seller, q.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.manager, q.ID, ApproveInput{})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventQuotationApproved).Count(&count).Error)
	assert.Zero(t, count)
}

func strPtr(s string) *string { return &s }
