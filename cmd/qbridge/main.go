package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	gatewayv1 "github.com/Lotargo/Q-Bridge/api/gateway/v1"
	bufferrun "github.com/Lotargo/Q-Bridge/internal/cmd/buffer"
	gatewayrun "github.com/Lotargo/Q-Bridge/internal/cmd/gateway"
	transferrun "github.com/Lotargo/Q-Bridge/internal/cmd/transfer"
	cfgpkg "github.com/Lotargo/Q-Bridge/internal/config"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

func main() {
	level := os.Getenv("QBRIDGE_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "qbridge",
		Short: "Q-Bridge request buffering pipeline",
		Long:  "Q-Bridge buffers agent requests through a durable log. This CLI runs the gateway, buffer and transfer processes and offers a basic submit client.",
	}

	// gateway start
	gatewayCmd := &cobra.Command{Use: "gateway", Short: "Gateway commands"}
	gatewayStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the gateway (gRPC and HTTP admission servers)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("grpc"); v != "" {
				cfg.Gateway.GRPCAddr = v
			}
			if v, _ := cmd.Flags().GetString("http"); v != "" {
				cfg.Gateway.HTTPAddr = v
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := gatewayrun.Run(ctx, gatewayrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("gateway error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	addLogBackendFlags(gatewayStartCmd)
	gatewayStartCmd.Flags().String("grpc", "", "gRPC listen address (default :50051)")
	gatewayStartCmd.Flags().String("http", "", "HTTP listen address (default :3000)")
	gatewayCmd.AddCommand(gatewayStartCmd)
	rootCmd.AddCommand(gatewayCmd)

	// buffer start
	bufferCmd := &cobra.Command{Use: "buffer", Short: "Buffer consumer commands"}
	bufferStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the buffer consumer",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("group"); v != "" {
				cfg.Buffer.Group = v
			}
			if v, _ := cmd.Flags().GetString("consumer"); v != "" {
				cfg.Buffer.Consumer = v
			}
			if v, _ := cmd.Flags().GetInt("batch"); v > 0 {
				cfg.Buffer.BatchSize = v
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := bufferrun.Run(ctx, bufferrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("buffer error: %w", err)
			}
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	addLogBackendFlags(bufferStartCmd)
	bufferStartCmd.Flags().String("group", "", "Consumer group name (default q_bridge_group)")
	bufferStartCmd.Flags().String("consumer", "", "Consumer name within the group")
	bufferStartCmd.Flags().Int("batch", 0, "Entries claimed per poll (default 1)")
	bufferCmd.AddCommand(bufferStartCmd)
	rootCmd.AddCommand(bufferCmd)

	// transfer start
	transferCmd := &cobra.Command{Use: "transfer", Short: "Result transfer commands"}
	transferStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the Arrow Flight transfer server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("flight"); v != "" {
				cfg.Gateway.FlightAddr = v
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := transferrun.Run(ctx, transferrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("transfer error: %w", err)
			}
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	transferStartCmd.Flags().String("config", "", "Path to JSON config file")
	transferStartCmd.Flags().String("flight", "", "Flight listen address (default :50052)")
	transferCmd.AddCommand(transferStartCmd)
	rootCmd.AddCommand(transferCmd)

	// submit client
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one request through a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, _ := cmd.Flags().GetString("agent")
			payload, _ := cmd.Flags().GetString("payload")
			requestID, _ := cmd.Flags().GetString("request-id")
			grpcAddr, _ := cmd.Flags().GetString("grpc")
			if grpcAddr != "" {
				return submitGRPC(grpcAddr, requestID, agent, payload)
			}
			return submitHTTP(apiURL(), requestID, agent, payload)
		},
	}
	submitCmd.Flags().String("agent", "cli", "Agent id to submit as")
	submitCmd.Flags().String("payload", "", "Request payload")
	submitCmd.Flags().String("request-id", "", "Request id (generated when empty)")
	submitCmd.Flags().String("grpc", "", "Submit over gRPC to this address instead of HTTP")
	rootCmd.AddCommand(submitCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addLogBackendFlags attaches the shared durable-log flags to a start
// command.
func addLogBackendFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to JSON config file")
	cmd.Flags().String("backend", "", "Durable log backend: redis|embedded")
	cmd.Flags().String("redis", "", "Redis URL for the redis backend")
	cmd.Flags().String("data-dir", "", "Data directory for the embedded backend")
	cmd.Flags().String("stream", "", "Stream name requests are buffered on")
}

// resolveConfig layers file, environment and flags, in that order.
func resolveConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Log.Backend = v
	}
	if v, _ := cmd.Flags().GetString("redis"); v != "" {
		cfg.Log.RedisURL = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Log.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("stream"); v != "" {
		cfg.Log.Stream = v
	}
	return cfg, nil
}

func submitHTTP(base, requestID, agent, payload string) error {
	body := map[string]interface{}{
		"request_id": requestID,
		"agent_id":   agent,
		"payload":    []byte(payload),
	}
	b, _ := json.Marshal(body)
	resp, err := http.Post(base+"/v1/submit", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	fmt.Println("status:", resp.Status)
	if len(out) > 0 {
		fmt.Println(string(bytes.TrimSpace(out)))
	}
	return nil
}

func submitGRPC(addr, requestID, agent, payload string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()
	c := gatewayv1.NewGatewayServiceClient(conn)
	res, err := c.SubmitRequest(ctx, &gatewayv1.InternalRequest{
		RequestId: requestID,
		AgentId:   agent,
		Payload:   []byte(payload),
	})
	if err != nil {
		return err
	}
	fmt.Printf("request_id: %s status: %s\n", res.RequestId, res.Status)
	return nil
}

func apiURL() string {
	if v := os.Getenv("QBRIDGE_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:3000"
}
