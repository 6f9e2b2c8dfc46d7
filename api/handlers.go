package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-campus"
)

type handlers struct {
	svc  *Services
	opts Options
}

func (h *handlers) info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    h.opts.ProjectName,
		"version": h.opts.Version,
		"docs":    h.opts.Prefix,
	})
}

func (h *handlers) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.svc.Repo.DB().PingContext(ctx); err != nil {
		h.opts.Logger.Warn("health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"database": "unreachable",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "healthy",
		"database": "ok",
	})
}

// auth

func (h *handlers) signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Signup.Execute(c.UserContext(), req.message())
	if err != nil {
		return err
	}

	msg := "Registration successful"
	if !user.IsActive {
		msg = "Registration successful, your account is pending activation"
	}

	return c.Status(fiber.StatusCreated).JSON(signupResponse{Message: msg, User: user})
}

func (h *handlers) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.svc.Auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(tokenResponse{
		AccessToken:        res.Token,
		TokenType:          "bearer",
		ExpiresAt:          res.ExpiresAt,
		MustChangePassword: res.User.MustChangePassword,
	})
}

func (h *handlers) me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

func (h *handlers) changePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.svc.Users.ChangePassword(c.UserContext(), currentUser(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(messageResponse{Message: "Password updated"})
}

// colleges

func (h *handlers) createCollege(c *fiber.Ctx) error {
	var req createCollegeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.svc.Colleges.Create(c.UserContext(), currentUser(c), req.message())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(collegeCreatedResponse{
		College:       res.College,
		AdminUsername: res.AdminUsername,
		AdminPassword: res.AdminPassword,
	})
}

func (h *handlers) listColleges(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	colleges, err := h.svc.Colleges.List(c.UserContext(), page, c.QueryBool("active_only", true))
	if err != nil {
		return err
	}

	return c.JSON(colleges)
}

func (h *handlers) getCollege(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	college, err := h.svc.Colleges.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(college)
}

func (h *handlers) deleteCollege(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Colleges.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// events

func (h *handlers) createEvent(c *fiber.Ctx) error {
	var req createEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	event, err := h.svc.Events.Create(c.UserContext(), currentUser(c), req.input())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newEventResponse(event))
}

func (h *handlers) listEvents(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	events, err := h.svc.Events.List(c.UserContext(), page)
	if err != nil {
		return err
	}

	return c.JSON(newEventList(events))
}

func (h *handlers) getEvent(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	event, err := h.svc.Events.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(newEventResponse(event))
}

func (h *handlers) updateEvent(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req updateEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	event, err := h.svc.Events.Update(c.UserContext(), currentUser(c), id, req.input())
	if err != nil {
		return err
	}

	return c.JSON(newEventResponse(event))
}

func (h *handlers) deleteEvent(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Events.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// registrations

func (h *handlers) register(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	reg, err := h.svc.Registrations.Register(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(reg)
}

func (h *handlers) unregister(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Registrations.Unregister(c.UserContext(), currentUser(c).ID, id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) eventRegistrations(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	regs, err := h.svc.Registrations.ListRegistrants(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}

	return c.JSON(newRegistrationList(regs))
}

func (h *handlers) myRegistrations(c *fiber.Ctx) error {
	regs, err := h.svc.Registrations.ListForUser(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}

	return c.JSON(newRegistrationList(regs))
}

// users

func (h *handlers) createUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	msg := req.message()
	msg.IsAdmin = req.IsAdmin
	msg.Active = req.Active
	msg.Actor = campus.ActorFromUser(currentUser(c))

	user, err := h.svc.Signup.Execute(c.UserContext(), msg)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *handlers) listUsers(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	users, err := h.svc.Users.List(c.UserContext(), currentUser(c), page, c.QueryBool("active_only", false))
	if err != nil {
		return err
	}

	return c.JSON(users)
}

func (h *handlers) getUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.svc.Users.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}

	return c.JSON(user)
}

func (h *handlers) updateMe(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Users.UpdateProfile(c.UserContext(), currentUser(c), req.input())
	if err != nil {
		return err
	}

	return c.JSON(user)
}

func (h *handlers) activateUser(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

func (h *handlers) deactivateUser(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *handlers) setActive(c *fiber.Ctx, active bool) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var user *campus.User
	if active {
		user, err = h.svc.Users.Activate(c.UserContext(), currentUser(c), id)
	} else {
		user, err = h.svc.Users.Deactivate(c.UserContext(), currentUser(c), id)
	}
	if err != nil {
		return err
	}

	return c.JSON(user)
}

func (h *handlers) verifyStudent(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	student, err := h.svc.Users.VerifyStudent(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}

	return c.JSON(student)
}

func (h *handlers) deleteUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Users.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
