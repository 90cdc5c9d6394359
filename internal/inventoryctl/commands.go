package inventoryctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/pkg/config"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const envPrefix = "INVENTORYCTL"

// NewRootCmd builds the inventoryctl command tree. Settings come from flags, INVENTORYCTL_* variables
// and an optional config file, in that order of precedence.
func NewRootCmd(dial Dialer) *cobra.Command {
	v := viper.New()
	var client InventoryClient
	var closer io.Closer

	rootCmd := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Query products and change stock through the inventory gRPC API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClientConfig(v)
			if err != nil {
				return err
			}
			client, closer, err = dial(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closer == nil {
				return nil
			}
			return closer.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("addr", "localhost:50051", "inventory gRPC address")
	flags.Duration("timeout", 5*time.Second, "timeout of a single call attempt")
	flags.String("config", "", "config file")
	_ = v.BindPFlag("addr", flags.Lookup("addr"))
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = v.BindPFlag("config", flags.Lookup("config"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("resilience.retry.maxattempts", 3)
	v.SetDefault("resilience.retry.initialbackoff", 100*time.Millisecond)
	v.SetDefault("resilience.circuitbreaker.consecutivefailures", 5)
	v.SetDefault("resilience.circuitbreaker.errorratepercent", 50)
	v.SetDefault("resilience.circuitbreaker.opentimeout", 10*time.Second)

	// get
	rootCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get a product by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid product id: %s", args[0])
			}
			p, err := client.GetProduct(callContext(cmd), id)
			if err != nil {
				return describe(err)
			}
			return printProduct(cmd.OutOrStdout(), p)
		},
	})

	// find
	rootCmd.AddCommand(&cobra.Command{
		Use:   "find <name>",
		Short: "Find the first product whose name contains the given text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := client.FindByName(callContext(cmd), args[0])
			if err != nil {
				return describe(err)
			}
			return printProduct(cmd.OutOrStdout(), p)
		},
	})

	// reduce
	rootCmd.AddCommand(stockCommand("reduce <name> <quantity>", "Reduce stock for a purchase",
		func(ctx context.Context, name string, qty int32) (service.Outcome, error) {
			return client.ReduceQuantity(ctx, name, qty)
		}))

	// restore
	rootCmd.AddCommand(stockCommand("restore <name> <quantity>", "Restore stock after an order was cancelled",
		func(ctx context.Context, name string, qty int32) (service.Outcome, error) {
			return client.RestoreQuantity(ctx, name, qty)
		}))

	return rootCmd
}

func stockCommand(use, short string, call func(ctx context.Context, name string, qty int32) (service.Outcome, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil || qty < 0 || qty > math.MaxInt32 {
				return fmt.Errorf("invalid quantity: %s", args[1])
			}
			outcome, err := call(callContext(cmd), args[0], int32(qty))
			if err != nil {
				return describe(err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), outcome)
			return err
		},
	}
}

func loadClientConfig(v *viper.Viper) (config.GrpcClientConfig, error) {
	var cfg config.GrpcClientConfig
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// callContext tags the call with a fresh request id, which the server logs.
func callContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, middleware.RequestIDKey, uuid.NewString())
}

func printProduct(w io.Writer, p *service.ProductDto) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// describe turns a gRPC status into a readable error.
func describe(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return errors.New(st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("invalid request: %s", st.Message())
	case codes.Unavailable:
		return fmt.Errorf("inventory service unavailable: %s", st.Message())
	default:
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
}
