// Delivery serves the sign-in flow of the delivery app: an HTMX login screen
// backed by a local or remote authentication API.
package main

import (
	"go.uber.org/fx"

	"github.com/andrasnagy-data/delivery/internal/components/auth"
	"github.com/andrasnagy-data/delivery/internal/components/connectivity"
	"github.com/andrasnagy-data/delivery/internal/components/home"
	"github.com/andrasnagy-data/delivery/internal/components/login"
	"github.com/andrasnagy-data/delivery/internal/components/sessions"
	"github.com/andrasnagy-data/delivery/internal/server"
	"github.com/andrasnagy-data/delivery/internal/shared/config"
	"github.com/andrasnagy-data/delivery/internal/shared/database"
	"github.com/andrasnagy-data/delivery/internal/shared/logging"
)

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			logging.NewLogger,
			database.NewPgxPool,
			database.AsQuerier,
			server.NewServer,
			server.NewHealthSrvc,
			server.NewHealthHandler,
			auth.NewAccountRepo,
			auth.NewService,
			auth.NewAuthClient,
			fx.Annotate(auth.NewRouter, fx.ResultTags(`name:"authRouter"`)),
			sessions.New,
			sessions.AsSessionStore,
			connectivity.NewProbe,
			connectivity.AsConnectivityProbe,
			login.NewScreens,
			fx.Annotate(login.NewRouter, fx.ResultTags(`name:"loginRouter"`)),
			fx.Annotate(home.NewRouter, fx.ResultTags(`name:"homeRouter"`)),
		),
		fx.Invoke(
			database.Migrate,
			(*login.Screens).Start,
			(*server.Server).Start,
		),
	).Run()
}
