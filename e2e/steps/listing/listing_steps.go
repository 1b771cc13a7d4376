package listing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path, actor string, body any) error
	Status() int
	ResponseField(field string) (any, error)
	Save(label, value string)
	Saved(label string) (string, error)
}

// RegisterSteps registers coliving space step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &listingSteps{tc: tc}

	ctx.Step(`^"([^"]*)" creates a coliving space titled "([^"]*)"$`, steps.createSpace)
	ctx.Step(`^an anonymous visitor creates a coliving space titled "([^"]*)"$`, steps.anonymousCreatesSpace)
	ctx.Step(`^an anonymous visitor lists coliving spaces$`, steps.anonymousListsSpaces)
	ctx.Step(`^"([^"]*)" (publishes|suspends) the coliving space$`, steps.transition)
	ctx.Step(`^"([^"]*)" renames the coliving space to "([^"]*)"$`, steps.rename)
}

type listingSteps struct {
	tc TestContext
}

func (s *listingSteps) createSpace(ctx context.Context, actor, title string) error {
	body := map[string]any{"titleColivingSpace": title, "housingType": "house", "roomCount": 3, "capacityMax": 4}
	if err := s.tc.Do(http.MethodPost, "/api/coliving_spaces", actor, body); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusCreated {
		return nil
	}
	spaceID, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("space", fmt.Sprint(spaceID))
	return nil
}

func (s *listingSteps) anonymousCreatesSpace(ctx context.Context, title string) error {
	return s.tc.Do(http.MethodPost, "/api/coliving_spaces", "", map[string]any{"titleColivingSpace": title})
}

func (s *listingSteps) anonymousListsSpaces(ctx context.Context) error {
	return s.tc.Do(http.MethodGet, "/api/coliving_spaces", "", nil)
}

func (s *listingSteps) transition(ctx context.Context, actor, verb string) error {
	spaceID, err := s.tc.Saved("space")
	if err != nil {
		return err
	}
	action := "publish"
	if verb == "suspends" {
		action = "suspend"
	}
	return s.tc.Do(http.MethodPost, "/api/coliving_spaces/"+spaceID+"/"+action, actor, nil)
}

func (s *listingSteps) rename(ctx context.Context, actor, title string) error {
	spaceID, err := s.tc.Saved("space")
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPatch, "/api/coliving_spaces/"+spaceID, actor, map[string]any{"titleColivingSpace": title})
}
