package history

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/testutil/mocks"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/pkg/logging"
)

func TestListRuns_RequiresAcquirer(t *testing.T) {
	svc := NewService(new(mocks.MockRunRepository), new(mocks.MockSettlementRepository), logging.Nop())

	_, err := svc.ListRuns(context.Background(), "", nil, 10, 0)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationMissingField))
}

func TestListRuns_ClampsPagination(t *testing.T) {
	runs := new(mocks.MockRunRepository)
	svc := NewService(runs, new(mocks.MockSettlementRepository), logging.Nop())

	runs.On("List", mock.Anything, mock.Anything, "cielo", (*models.Stage)(nil), int32(defaultPageSize), int32(0)).
		Return([]*models.ReconciliationRun{}, nil).Once()
	runs.On("List", mock.Anything, mock.Anything, "cielo", (*models.Stage)(nil), int32(maxPageSize), int32(0)).
		Return([]*models.ReconciliationRun{}, nil).Once()

	_, err := svc.ListRuns(context.Background(), "cielo", nil, 0, -5)
	require.NoError(t, err)
	_, err = svc.ListRuns(context.Background(), "cielo", nil, 5000, 0)
	require.NoError(t, err)

	runs.AssertExpectations(t)
}

func TestListRuns_StageFilterPassedThrough(t *testing.T) {
	runs := new(mocks.MockRunRepository)
	svc := NewService(runs, new(mocks.MockSettlementRepository), logging.Nop())

	stage := models.StageCascade
	expected := []*models.ReconciliationRun{{ID: uuid.New(), Stage: stage}}
	runs.On("List", mock.Anything, mock.Anything, "cielo", &stage, int32(10), int32(20)).
		Return(expected, nil)

	got, err := svc.ListRuns(context.Background(), "cielo", &stage, 10, 20)

	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestGetRun_NotFound(t *testing.T) {
	runs := new(mocks.MockRunRepository)
	svc := NewService(runs, new(mocks.MockSettlementRepository), logging.Nop())

	id := uuid.New()
	runs.On("GetByID", mock.Anything, mock.Anything, id).Return(nil, nil)

	_, err := svc.GetRun(context.Background(), id)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeRunNotFound))
}

func TestGetRun_SettlementStageAttachesResults(t *testing.T) {
	runs := new(mocks.MockRunRepository)
	settlements := new(mocks.MockSettlementRepository)
	svc := NewService(runs, settlements, logging.Nop())

	run := &models.ReconciliationRun{ID: uuid.New(), Stage: models.StageSettlement}
	results := []*models.SettlementResult{{ID: uuid.New(), RunID: run.ID}}
	runs.On("GetByID", mock.Anything, mock.Anything, run.ID).Return(run, nil)
	settlements.On("ListByRun", mock.Anything, mock.Anything, run.ID).Return(results, nil)

	detail, err := svc.GetRun(context.Background(), run.ID)

	require.NoError(t, err)
	assert.Equal(t, run, detail.Run)
	assert.Equal(t, results, detail.Settlements)
}

func TestGetRun_CascadeStageSkipsSettlements(t *testing.T) {
	runs := new(mocks.MockRunRepository)
	settlements := new(mocks.MockSettlementRepository)
	svc := NewService(runs, settlements, logging.Nop())

	run := &models.ReconciliationRun{ID: uuid.New(), Stage: models.StageCascade}
	runs.On("GetByID", mock.Anything, mock.Anything, run.ID).Return(run, nil)

	detail, err := svc.GetRun(context.Background(), run.ID)

	require.NoError(t, err)
	assert.Nil(t, detail.Settlements)
	settlements.AssertNotCalled(t, "ListByRun", mock.Anything, mock.Anything, mock.Anything)
}
