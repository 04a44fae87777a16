// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"axonflow/connmgr/config"
	"axonflow/connmgr/driver/mongodb"
	"axonflow/connmgr/shared/logger"
)

var version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "connmgr",
		Short:         "MongoDB connection and schema registry",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(validateCmd())
	cmd.AddCommand(exampleConfigCmd())

	return cmd
}

func serveCmd() *cobra.Command {
	var (
		configPath string
		secrets    string
		awsRegion  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open configured connections and serve the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath, secrets, awsRegion)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file (default $CONNMGR_CONFIG)")
	cmd.Flags().StringVar(&secrets, "secrets", secretsEnv, "secrets provider for secret_ref: env, aws or none")
	cmd.Flags().StringVar(&awsRegion, "aws-region", os.Getenv("AWS_REGION"), "AWS region for --secrets=aws")

	return cmd
}

func serve(ctx context.Context, configPath, secrets, awsRegion string) error {
	log := logger.New("connmgr")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	sm, err := newSecretsManager(ctx, secrets, awsRegion)
	if err != nil {
		return err
	}

	d := mongodb.NewDriverWithLogger(log.Std("[MONGO_DRIVER] "))
	a, err := newApp(ctx, cfg, d, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.close(closeCtx); err != nil {
			log.Error("", "Failed to close connections", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := a.warmConnections(ctx, sm); err != nil {
		return err
	}

	return a.serve(ctx)
}

func validateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d connection(s), %d schema(s)\n", len(cfg.Connections), len(cfg.Schemas))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file (default $CONNMGR_CONFIG)")
	return cmd
}

func exampleConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "example-config",
		Short: "Print an example configuration file",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.Example())
		},
	}
}
