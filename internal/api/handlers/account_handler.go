package handlers

import (
	"github.com/crosswire-app/crosswire/internal/service"
	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) ListGroups(c *fiber.Ctx) error {
	userID := GetUserID(c)

	groups, err := h.s.ListGroups(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list account groups",
		})
	}

	return c.Status(fiber.StatusOK).JSON(groups)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	groupID := c.QueryInt("group_id", 0)

	accounts, err := h.s.ListAccounts(c.Context(), userID, int64(groupID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

// ExpireAccount flags a linked account whose provider authorization lapsed,
// so the composer can surface a reconnect prompt before the next publish.
func (h *AccountHandler) ExpireAccount(c *fiber.Ctx) error {
	accountID := c.QueryInt("id", 0)

	if err := h.s.MarkExpired(c.Context(), int64(accountID)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to update account status",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) RemoveAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	groupID := c.QueryInt("group_id", 0)
	accountID := c.QueryInt("id", 0)

	err := h.s.RemoveAccount(c.Context(), userID, int64(groupID), int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to remove account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
