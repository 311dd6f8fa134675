package services

import (
	"github.com/curaious/sandpilot/internal/config"
	"github.com/curaious/sandpilot/internal/db"
	"github.com/curaious/sandpilot/internal/services/run"
)

type Services struct {
	Run *run.RunService
}

func NewServices(conf *config.Config) *Services {
	dbconn := db.NewConn(conf)

	return &Services{
		Run: run.NewRunService(run.NewRunRepo(dbconn)),
	}
}
