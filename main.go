package main

import (
	"os"

	"healthbot/cmd"
)

// @title                       Healthbot API
// @version                     1.0
// @description                 Supportive conversation service with per-turn mood tracking.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
