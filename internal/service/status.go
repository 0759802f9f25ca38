package service

import (
	"context"
	"time"

	"skull_controller/internal/models"
)

type StatusService struct {
	mapper *Mapper
	prefs  *PreferenceTable
	cal    *Calibration
}

func NewStatusService(mapper *Mapper, prefs *PreferenceTable, cal *Calibration) *StatusService {
	return &StatusService{mapper: mapper, prefs: prefs, cal: cal}
}

// GetState returns the resident in-memory state; the store is never read.
func (s *StatusService) GetState(ctx context.Context) (models.ControllerState, error) {
	if err := ctx.Err(); err != nil {
		return models.ControllerState{}, err
	}
	prefs := s.prefs.Get()
	return models.ControllerState{
		DeviceName:    prefs.DeviceName,
		SchemaVersion: models.SchemaVersion,
		Actuators:     s.mapper.Status(),
		Preferences:   prefs,
		DirtyKeys:     s.cal.DirtyKeys(),
		TakenAt:       time.Now().UTC(),
	}, nil
}
