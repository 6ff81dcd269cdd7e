package shell_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/adapters/shell"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/backfill/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(log).AnyTimes()
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return log
}

func TestExecutor_Run_MultiLineOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := newLogger(ctrl)

	gomock.InOrder(
		mockLogger.EXPECT().Info("line1"),
		mockLogger.EXPECT().Info("line2"),
	)

	executor := shell.NewExecutor(mockLogger)
	err := executor.Run(context.Background(), t.TempDir(), "echo line1; echo line2")
	require.NoError(t, err)
}

func TestExecutor_Run_FragmentedOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := newLogger(ctrl)

	mockLogger.EXPECT().Info("part1part2").Times(1)

	executor := shell.NewExecutor(mockLogger)
	err := executor.Run(context.Background(), t.TempDir(), "printf part1; sleep 0.1; echo part2")
	require.NoError(t, err)
}

func TestExecutor_Run_StderrIsWarn(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := newLogger(ctrl)

	mockLogger.EXPECT().Warn("oops").Times(1)

	executor := shell.NewExecutor(mockLogger)
	err := executor.Run(context.Background(), t.TempDir(), "echo oops >&2")
	require.NoError(t, err)
}

func TestExecutor_Run_WorkingDirectory(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := newLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any()).AnyTimes()

	dir := t.TempDir()
	executor := shell.NewExecutor(mockLogger)
	require.NoError(t, executor.Run(context.Background(), dir, "mkdir lib && echo built > lib/out.txt"))

	got, err := os.ReadFile(filepath.Join(dir, "lib", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "built\n", string(got))
}

func TestExecutor_Run_ExitCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := newLogger(ctrl)

	executor := shell.NewExecutor(mockLogger)
	err := executor.Run(context.Background(), t.TempDir(), "exit 3")
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
	assert.Equal(t, 3, domain.ExitCodeOf(err))
}

func TestExecutor_Run_EmptyCommand(t *testing.T) {
	executor := shell.NewExecutor(newLogger(gomock.NewController(t)))
	err := executor.Run(context.Background(), t.TempDir(), "  ")
	assert.ErrorIs(t, err, domain.ErrNoBuildCommand)
}

func TestExecutor_Run_CopiesToVertex(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := newLogger(ctrl)
	mockLogger.EXPECT().Info("hello")
	mockLogger.EXPECT().Warn("careful")

	var stdout, stderr bytes.Buffer
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Stdout().Return(&stdout)
	vertex.EXPECT().Stderr().Return(&stderr)

	ctx := ports.ContextWithVertex(context.Background(), vertex)
	executor := shell.NewExecutor(mockLogger)
	require.NoError(t, executor.Run(ctx, t.TempDir(), "echo hello; echo careful >&2"))

	assert.Equal(t, "hello\n", stdout.String())
	assert.Equal(t, "careful\n", stderr.String())
}

func TestExecutor_Run_ContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(newLogger(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := executor.Run(ctx, t.TempDir(), "sleep 5")
	require.Error(t, err)
}
