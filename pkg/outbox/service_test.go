package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/dbtest"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

func TestEmitWritesEnvelope(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil)
	aggregateID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), Role: string(enums.RolePurchaseManager)}

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventRFQSent,
			AggregateType: enums.AggregateRFQ,
			AggregateID:   aggregateID,
			Actor:         actor,
			Data:          map[string]string{"rfq_number": "RFQ-000001"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, aggregateID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	env, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Version)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, actor.UserID, env.Actor.UserID)
	assert.JSONEq(t, `{"rfq_number":"RFQ-000001"}`, string(env.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventPOSent,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]string{},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	assert.Error(t, err)
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil)
	event := DomainEvent{
		EventType:     enums.EventPOApproved,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]int{"line_count": 1},
	}

	for i := 0; i < 2; i++ {
		err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client, conn := dbtest.Client(t)
	repo := NewRepository(conn)

	first := models.OutboxEvent{EventType: enums.EventRFQSent, AggregateType: enums.AggregateRFQ, AggregateID: uuid.New(), Payload: []byte(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventPOSent, AggregateType: enums.AggregatePurchaseOrder, AggregateID: uuid.New(), Payload: []byte(`{}`)}
	require.NoError(t, conn.Create(&first).Error)
	require.NoError(t, conn.Create(&second).Error)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.NoError(t, repo.MarkPublishedTx(tx, first.ID))
		require.NoError(t, repo.MarkTerminalTx(tx, second.ID, errors.New("bad payload"), 3))
		return nil
	})
	require.NoError(t, err)

	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		assert.Empty(t, rows)
		return nil
	})
	require.NoError(t, err)

	var parked models.OutboxEvent
	require.NoError(t, conn.First(&parked, "id = ?", second.ID).Error)
	assert.Equal(t, 3, parked.AttemptCount)
	require.NotNil(t, parked.LastError)
	assert.Equal(t, "bad payload", *parked.LastError)
}

func TestRepositoryMarkFailedIncrementsAttempts(t *testing.T) {
	_, conn := dbtest.Client(t)
	repo := NewRepository(conn)
	row := models.OutboxEvent{EventType: enums.EventUserInvited, AggregateType: enums.AggregateUser, AggregateID: uuid.New(), Payload: []byte(`{}`)}
	require.NoError(t, conn.Create(&row).Error)

	require.NoError(t, repo.MarkFailed(row.ID, errors.New("timeout")))
	require.NoError(t, repo.MarkFailed(row.ID, errors.New("timeout")))

	var stored models.OutboxEvent
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	assert.Equal(t, 2, stored.AttemptCount)
}
