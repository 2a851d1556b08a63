package main

import (
	"fmt"
	"os"

	"github.com/opsaudit/cloudlog-collector/internal/adapter/driven/aws"
	"github.com/opsaudit/cloudlog-collector/internal/adapter/driven/azure"
	"github.com/opsaudit/cloudlog-collector/internal/adapter/driven/config"
	"github.com/opsaudit/cloudlog-collector/internal/adapter/driven/entra"
	"github.com/opsaudit/cloudlog-collector/internal/adapter/driven/export"
	"github.com/opsaudit/cloudlog-collector/internal/adapter/driven/gcp"
	"github.com/opsaudit/cloudlog-collector/internal/adapter/driving/cli"
	"github.com/opsaudit/cloudlog-collector/internal/application/usecase"
	"github.com/opsaudit/cloudlog-collector/pkg/console"
	"github.com/opsaudit/cloudlog-collector/pkg/version"
)

func main() {
	app := cli.NewCLIApp(version.Version)

	gcpRepo := gcp.NewGCPRepository()
	azureRepo := azure.NewAzureRepository()
	entraRepo := entra.NewEntraRepository()
	awsRepo := aws.NewAWSRepository()
	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	collectUseCase := usecase.NewCollectUseCase(
		gcpRepo,
		azureRepo,
		entraRepo,
		awsRepo,
		exportRepo,
		configRepo,
		consoleImpl,
	)

	app.SetCollectUseCase(collectUseCase)

	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
