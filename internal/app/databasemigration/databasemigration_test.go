package databasemigration_test

import (
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/stacklog/stacklog/internal/app/databasemigration"
	databasemigrationmock "github.com/stacklog/stacklog/internal/app/databasemigration/mock"
)

func TestRun(t *testing.T) {
	ctrl := gomock.NewController(t)

	svc := databasemigrationmock.NewMockService(ctrl)
	app := databasemigration.New(t.Context(), svc)

	t.Run("success", func(t *testing.T) {
		svc.EXPECT().Run(gomock.Any()).Return(nil)

		if err := app.Run(t.Context()); err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	})

	t.Run("error", func(t *testing.T) {
		wantErr := errors.New("migration failed")
		svc.EXPECT().Run(gomock.Any()).Return(wantErr)

		if err := app.Run(t.Context()); !errors.Is(err, wantErr) {
			t.Errorf("Run() error = %v, want %v", err, wantErr)
		}
	})

	defer ctrl.Finish()
}
