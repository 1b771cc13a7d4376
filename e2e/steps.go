package e2e

import (
	"context"

	"github.com/cucumber/godog"

	"coliving/e2e/steps/auth"
	"coliving/e2e/steps/common"
	"coliving/e2e/steps/listing"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.Reset()
		return ctx, nil
	})

	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	listing.RegisterSteps(ctx, tc)
}
