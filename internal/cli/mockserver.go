package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/emoji"
	"github.com/terrawatch/terrawatch/internal/mockserver"
)

const defaultMockUser = "demo-user"

func newMockServerCommand() *cobra.Command {
	var (
		addr        string
		seedUser    string
		requireAuth bool
		imageBase   string
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory development backend",
		Long: `Serve the analysis REST API from memory, seeded with sample regions and two
history records for one user. Analyses return deterministic statistics computed
from the request, so the CLI and the terminal app can be tried offline.

With --require-auth every user route checks the bearer token against
auth.jwt_secret and a token for the seed user is printed on start.`,
		Example: `  terrawatch mock-server
  terrawatch mock-server --addr :9000 --user alice
  TERRAWATCH_AUTH_JWT_SECRET=dev terrawatch mock-server --require-auth`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			if !cmd.Flag("addr").Changed {
				addr = cfg.Mock.Addr
			}
			if !cmd.Flag("require-auth").Changed {
				requireAuth = cfg.Mock.RequireAuth
			}
			if seedUser == "" {
				seedUser = cfg.Auth.UserID
			}
			if seedUser == "" {
				seedUser = defaultMockUser
			}

			if isVerbose() {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			opts := []mockserver.Option{mockserver.WithLogger(newLogger("mock"))}
			if imageBase != "" {
				opts = append(opts, mockserver.WithImageBase(imageBase))
			}

			out := cmd.OutOrStdout()
			if requireAuth {
				if cfg.Auth.JWTSecret == "" {
					return fmt.Errorf("--require-auth needs auth.jwt_secret to be set")
				}
				opts = append(opts, mockserver.WithAuthSecret(cfg.Auth.JWTSecret))

				token, err := auth.GenerateToken(seedUser, "", cfg.Auth.JWTSecret, 24*time.Hour)
				if err != nil {
					return fmt.Errorf("failed to issue token: %w", err)
				}
				fmt.Fprintf(out, "%s Token for %s (24h):\n%s\n\n", emoji.GetEmoji("lock"), seedUser, token)
			}

			server := mockserver.New(mockserver.NewSeededStore(seedUser), opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(out, "%s Mock backend listening on %s (seed user %s)\n", emoji.GetEmoji("server"), addr, seedUser)
			return server.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().StringVar(&seedUser, "user", "", "user whose history is seeded (default auth.user_id or demo-user)")
	cmd.Flags().BoolVar(&requireAuth, "require-auth", false, "require a bearer token on user routes")
	cmd.Flags().StringVar(&imageBase, "image-base", "", "base URL of the generated result images")
	return cmd
}
