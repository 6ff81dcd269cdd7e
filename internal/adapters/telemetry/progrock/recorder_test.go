package progrock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/adapters/telemetry/progrock"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/backfill/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	recorder := progrock.New(nil)
	assert.NotNil(t, recorder)
}

func TestRecorder_RecordStoresVertexInContext(t *testing.T) {
	recorder := progrock.New(nil)

	ctx, vertex := recorder.Record(context.Background(), "fetch abc123")

	got, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vertex, got)

	vertex.Complete(nil)
	require.NoError(t, recorder.Close())
}

func TestVertex_CompleteReportsDuration(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	// Each WithField returns the same mock so the chain ends in a single Debug call.
	mockLogger.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(mockLogger).Times(4)
	mockLogger.EXPECT().Debug("vertex completed").Times(1)

	recorder := progrock.New(mockLogger)
	_, vertex := recorder.Record(context.Background(), "put abc123")

	_, err := vertex.Stdout().Write([]byte("Standard Output\n"))
	require.NoError(t, err)
	vertex.Log(domain.LogLevelDebug, "debug msg")
	vertex.Cached()
	vertex.Complete(errors.New("boom"))

	require.NoError(t, recorder.Close())
}
