package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"mamastoria/internal/app"
)

// @title                       MamaStoria API
// @version                     1.0
// @description                 Backend for the MamaStoria comic app.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := app.Run(); err != nil {
		log.Error().Err(err).Msg("[app] fatal")
		os.Exit(1)
	}
}
