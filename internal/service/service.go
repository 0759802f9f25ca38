package service

import (
	"context"

	"skull_controller/internal/logger"
	"skull_controller/internal/models"
	"skull_controller/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitoring exposes the read-only controller snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (models.ControllerState, error)
}

// EventLog exposes the append-only audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControllerEvent, error)
	Record(ctx context.Context, typ, description string, meta any)
}

// Service aggregates the controller state objects and the sub-services
// built on them. Limits, Prefs, Mapper and Calibration are the context every
// console command operates on.
type Service struct {
	Limits      *LimitTable
	Prefs       *PreferenceTable
	Mapper      *Mapper
	Calibration *Calibration

	Monitoring
	EventLog
	Authorization
}

// Deps are the collaborators that do not come from the repository layer.
type Deps struct {
	Driver Driver
	Auth   AuthConfig
	Logger *logger.Logger
}

// NewService wires the repository layer and the hardware driver into the services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	limits := NewLimitTable()
	prefs := NewPreferenceTable()
	events := NewEventLogService(repos.EventRepo, log)
	mapper := NewMapper(limits, deps.Driver, log)
	cal := NewCalibration(repos.Blobs, limits, prefs, events, log)

	return &Service{
		Limits:        limits,
		Prefs:         prefs,
		Mapper:        mapper,
		Calibration:   cal,
		Monitoring:    NewStatusService(mapper, prefs, cal),
		EventLog:      events,
		Authorization: NewAuthService(repos.Operators, deps.Auth),
	}
}
