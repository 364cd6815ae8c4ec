package main

import (
	"fmt"
	"io"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/shortlink-org/go-sdk/remoting/config"
	"github.com/shortlink-org/go-sdk/remoting/logger"
)

type rootOptions struct {
	namesrv string
	timeout time.Duration
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "remoting-route",
		Short:         "Query RocketMQ name servers over the remoting protocol",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&opts.namesrv, "namesrv", "", "name server addresses, overrides NAMESRV_ADDR")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "invoke timeout, overrides REMOTING_INVOKE_TIMEOUT")

	cmd.AddCommand(
		newRouteCommand(opts),
		newTopicsCommand(opts),
		newWatchCommand(opts),
	)

	return cmd
}

// loadConfig reads .env and the environment, then applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	boot, err := logger.New(logger.Default())
	if err != nil {
		return nil, err
	}

	cfg, err := config.New(boot)
	if err != nil {
		return nil, err
	}

	if o.namesrv != "" {
		cfg.Set("NAMESRV_ADDR", o.namesrv)
	}

	if o.timeout > 0 {
		cfg.Set("REMOTING_INVOKE_TIMEOUT", o.timeout.String())
	}

	return cfg, nil
}

func writeJSON(out io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, string(data))

	return err
}
