// CSV batch evaluation Lambda entry point, triggered by S3 uploads
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

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}
	if app.Objects == nil {
		panic("S3_BUCKET must be configured for batch evaluation")
	}

	handler := handlers.NewBatchHandler(handlers.NewEvaluateHandlerFromApp(app), app.Objects)

	lambda.Start(handler.Handle)
}
