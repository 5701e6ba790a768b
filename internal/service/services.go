package service

import (
	"github.com/mika/mahjong-copilot-server/internal/config"
	"github.com/mika/mahjong-copilot-server/internal/repository"
)

type Services struct {
	Auth    *AuthService
	History *HistoryService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return &Services{
		Auth:    NewAuthService(repos.User, repos.Session, cfg),
		History: NewHistoryService(repos.MatchRecord),
	}
}
