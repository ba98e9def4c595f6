package learning_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/learning"
	"github.com/klarwerk/zielbord/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLearning(t *testing.T, moduleCount int) (*learning.Service, *gorm.DB, *models.Enrollment, []models.CourseModule) {
	t.Helper()

	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	course := testutil.CreateTestCourse(t, tc.DB, tc.Org.ID, moduleCount)
	enrollment := testutil.CreateTestEnrollment(t, tc.DB, tc.User, course)

	svc := learning.NewService(tc.DB, testutil.DiscardLogger())
	return svc, tc.DB, enrollment, course.Modules
}

func TestToggleModuleCompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("toggle on then off restores state", func(t *testing.T) {
		svc, _, enrollment, modules := setupLearning(t, 4)

		res, err := svc.ToggleModuleCompletion(ctx, enrollment, modules[0].ID)
		require.NoError(t, err)
		assert.True(t, res.Completed)
		assert.Equal(t, 25, res.Progress)
		assert.Equal(t, models.EnrollmentStatusInProgress, res.EnrollmentStatus)

		res, err = svc.ToggleModuleCompletion(ctx, enrollment, modules[0].ID)
		require.NoError(t, err)
		assert.False(t, res.Completed)
		assert.Equal(t, 0, res.Progress)
		assert.Equal(t, models.EnrollmentStatusInProgress, res.EnrollmentStatus)
	})

	t.Run("all modules complete transitions enrollment", func(t *testing.T) {
		svc, db, enrollment, modules := setupLearning(t, 4)

		var last *learning.ToggleResult
		for _, m := range modules {
			var err error
			last, err = svc.ToggleModuleCompletion(ctx, enrollment, m.ID)
			require.NoError(t, err)
		}
		assert.Equal(t, 100, last.Progress)
		assert.Equal(t, models.EnrollmentStatusCompleted, last.EnrollmentStatus)

		var stored models.Enrollment
		require.NoError(t, db.First(&stored, enrollment.ID).Error)
		assert.Equal(t, models.EnrollmentStatusCompleted, stored.Status)
		assert.NotNil(t, stored.CompletedAt)

		// Un-toggling one module reverts to in_progress and clears the stamp.
		res, err := svc.ToggleModuleCompletion(ctx, enrollment, modules[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 75, res.Progress)
		assert.Equal(t, models.EnrollmentStatusInProgress, res.EnrollmentStatus)

		var reverted models.Enrollment
		require.NoError(t, db.First(&reverted, enrollment.ID).Error)
		assert.Equal(t, models.EnrollmentStatusInProgress, reverted.Status)
		assert.Nil(t, reverted.CompletedAt)
	})

	t.Run("unknown module", func(t *testing.T) {
		svc, _, enrollment, _ := setupLearning(t, 2)

		_, err := svc.ToggleModuleCompletion(ctx, enrollment, uuid.New())
		assert.ErrorIs(t, err, learning.ErrModuleNotFound)
	})

	t.Run("course without modules never completes", func(t *testing.T) {
		svc, _, enrollment, _ := setupLearning(t, 0)

		progress, err := svc.Progress(ctx, enrollment)
		require.NoError(t, err)
		assert.Equal(t, 0, progress)
	})
}

func TestProgressRounding(t *testing.T) {
	ctx := context.Background()
	svc, _, enrollment, modules := setupLearning(t, 3)

	res, err := svc.ToggleModuleCompletion(ctx, enrollment, modules[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 33, res.Progress)

	res, err = svc.ToggleModuleCompletion(ctx, enrollment, modules[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 67, res.Progress)
}
