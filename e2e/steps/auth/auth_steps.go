package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

const password = "correct horse battery"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path, actor string, body any) error
	Status() int
	ResponseField(field string) (any, error)
	AdminCredentials() (string, string)
	Email(actor string) string
	SetToken(actor, token string)
	SetUserID(actor, userID string)
	UserID(actor string) (string, error)
}

// RegisterSteps registers account and login step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I am logged in as the admin$`, steps.loginAdmin)
	ctx.Step(`^a registered user "([^"]*)"$`, steps.registeredUser)
	ctx.Step(`^a registered user "([^"]*)" with role "([^"]*)"$`, steps.registeredUserWithRole)
	ctx.Step(`^"([^"]*)" logs in with a wrong password (\d+) times$`, steps.wrongPasswordTimes)
	ctx.Step(`^"([^"]*)" logs in with the right password$`, steps.rightPassword)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) loginAdmin(ctx context.Context) error {
	email, pw := s.tc.AdminCredentials()
	return s.login("admin", email, pw)
}

func (s *authSteps) registeredUser(ctx context.Context, actor string) error {
	if err := s.register(actor); err != nil {
		return err
	}
	return s.login(actor, s.tc.Email(actor), password)
}

// registeredUserWithRole needs the admin to be logged in. The role is granted
// before the user logs in so the token carries it.
func (s *authSteps) registeredUserWithRole(ctx context.Context, actor, role string) error {
	if err := s.register(actor); err != nil {
		return err
	}
	userID, err := s.tc.UserID(actor)
	if err != nil {
		return err
	}
	if err := s.tc.Do(http.MethodPatch, "/api/users/"+userID, "admin", map[string]any{"roles": []string{role}}); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("granting %s to %s answered %d", role, actor, s.tc.Status())
	}
	return s.login(actor, s.tc.Email(actor), password)
}

func (s *authSteps) wrongPasswordTimes(ctx context.Context, actor string, times int) error {
	for range times {
		body := map[string]any{"email": s.tc.Email(actor), "password": "not the password"}
		if err := s.tc.Do(http.MethodPost, "/api/login_check", "", body); err != nil {
			return err
		}
	}
	return nil
}

func (s *authSteps) rightPassword(ctx context.Context, actor string) error {
	body := map[string]any{"email": s.tc.Email(actor), "password": password}
	return s.tc.Do(http.MethodPost, "/api/login_check", "", body)
}

func (s *authSteps) register(actor string) error {
	body := map[string]any{
		"email":     s.tc.Email(actor),
		"password":  password,
		"firstName": actor,
		"lastName":  "E2E",
	}
	if err := s.tc.Do(http.MethodPost, "/api/users", "", body); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusCreated {
		return fmt.Errorf("registering %s answered %d", actor, s.tc.Status())
	}
	userID, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetUserID(actor, fmt.Sprint(userID))
	return nil
}

func (s *authSteps) login(actor, email, pw string) error {
	if err := s.tc.Do(http.MethodPost, "/api/login_check", "", map[string]any{"email": email, "password": pw}); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("login as %s answered %d", actor, s.tc.Status())
	}
	token, err := s.tc.ResponseField("token")
	if err != nil {
		return err
	}
	s.tc.SetToken(actor, fmt.Sprint(token))
	return nil
}
