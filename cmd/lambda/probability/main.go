// Approval probability Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"loan-underwriting-engine/internal/bootstrap"
	"loan-underwriting-engine/internal/config"
	"loan-underwriting-engine/internal/handlers"
	"loan-underwriting-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize logger
	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}

	// Create handler
	handler := handlers.NewProbabilityHandler(app.Engine)

	// Start Lambda
	lambda.Start(handler.Handle)
}
