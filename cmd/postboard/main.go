package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var version = "v0.1.0"

func main() {
	app := &cli.App{
		Name:    "postboard",
		Usage:   "Blog backend with users, posts and comments",
		Version: version,
		Description: `Without a command, postboard starts the server. The server is configured
through the environment:

  PORT                         listen port (default 3000)
  POSTBOARD_DB                 sqlite connection string (default postboard.db)
  POSTBOARD_JWT_SECRET         token signing secret (required)
  POSTBOARD_TOKEN_TTL          token lifetime, 0 for none (default 0s)
  POSTBOARD_ADMIN_EMAIL        signups with this email become admin
  POSTBOARD_HASH_COST          bcrypt cost (default 10)
  POSTBOARD_MAX_PAGE_LIMIT     largest accepted page size (default 100)
  POSTBOARD_LOG_LEVEL          logrus level (default info)
  POSTBOARD_CORS_ORIGINS       comma separated allowed origins (default *)
  POSTBOARD_RL_LOGIN_PER_MIN   login attempts per IP and minute (default 20)
  POSTBOARD_RL_SIGNUP_PER_MIN  signups per IP and minute (default 10)
  POSTBOARD_TRUST_PROXY        key rate limits on X-Forwarded-For (default false)

The client commands talk to a running server and keep their token in
~/.postboard/config.json.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "server URL for client commands",
				EnvVars: []string{"POSTBOARD_URL"},
			},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server"},
				Usage:   "start the API server (default)",
				Action:  runServer,
			},
			signupCommand,
			loginCommand,
			whoamiCommand,
			postsCommand,
			searchCommand,
			showCommand,
			postCommand,
			editCommand,
			commentCommand,
			deleteCommand,
			usersCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
