package service

import (
	"context"
	"errors"
	"log/slog"

	config "github.com/crosswire-app/crosswire/configs"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/repository"
	"github.com/crosswire-app/crosswire/pkg/utils"
)

// AccountService exposes the linked social accounts grouped per provider
// profile. Profile keys are stored encrypted and only decrypted on the way to
// a multi-profile publish.
type AccountService interface {
	ListGroups(ctx context.Context, userID int64) ([]*models.AccountGroup, error)
	ListAccounts(ctx context.Context, userID, groupID int64) ([]*models.Account, error)
	ProfileKey(ctx context.Context, userID, groupID int64) (string, error)
	MarkExpired(ctx context.Context, accountID int64) error
	RemoveAccount(ctx context.Context, userID, groupID, accountID int64) error
}

type accountService struct {
	cfg config.Config
	ar  repository.AccountRepository
}

func NewAccountService(cfg config.Config, ar repository.AccountRepository) AccountService {
	return &accountService{cfg: cfg, ar: ar}
}

func (s *accountService) ListGroups(ctx context.Context, userID int64) ([]*models.AccountGroup, error) {
	return s.ar.ListGroups(ctx, userID)
}

func (s *accountService) ListAccounts(ctx context.Context, userID, groupID int64) ([]*models.Account, error) {
	group, err := s.ar.GetGroup(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		err = errors.New("account group doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}
	return s.ar.ListAccounts(ctx, groupID)
}

// ProfileKey returns the decrypted provider profile key for a group. Outside
// multi-profile mode it always returns "", so single-profile deployments never
// transmit one.
func (s *accountService) ProfileKey(ctx context.Context, userID, groupID int64) (string, error) {
	if !s.cfg.MultiProfileMode || groupID == 0 {
		return "", nil
	}

	accounts, err := s.ListAccounts(ctx, userID, groupID)
	if err != nil {
		return "", err
	}
	for _, acc := range accounts {
		if acc.ProfileKey == "" {
			continue
		}
		key, err := utils.Decrypt(acc.ProfileKey, []byte(s.cfg.SecretKey))
		if err != nil {
			slog.Info(err.Error())
			return "", err
		}
		return key, nil
	}
	return "", nil
}

func (s *accountService) MarkExpired(ctx context.Context, accountID int64) error {
	return s.ar.SetAccountStatus(ctx, accountID, models.AccountStatusExpired)
}

func (s *accountService) RemoveAccount(ctx context.Context, userID, groupID, accountID int64) error {
	group, err := s.ar.GetGroup(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if group == nil {
		err = errors.New("account group doesn't exist")
		slog.Info(err.Error())
		return err
	}
	return s.ar.RemoveAccount(ctx, accountID)
}
