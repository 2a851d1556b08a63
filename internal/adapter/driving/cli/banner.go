package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/opsaudit/cloudlog-collector/pkg/version"
)

// displayWelcomeBanner shows the welcome banner with version information.
func displayWelcomeBanner(versionStr string) {
	banner := `
          ____ _                 _   _               ____      _ _           _
         / ___| | ___  _   _  __| | | |    ___   __ _/ ___|___ | | | ___  ___| |_ ___  _ __
        | |   | |/ _ \| | | |/ _' | | |   / _ \ / _' | |  / _ \| | |/ _ \/ __| __/ _ \| '__|
        | |___| | (_) | |_| | (_| | | |__| (_) | (_| | |_| (_) | | |  __/ (__| || (_) | |
         \____|_|\___/ \__,_|\__,_| |_____\___/ \__, |\____\___/|_|_|\___|\___|\__\___/|_|
                                                |___/
        `
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(cyan(banner))

	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("Cloud Log Collector CLI (v%s)", formattedVersion)))
}
