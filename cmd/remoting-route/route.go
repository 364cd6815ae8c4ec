package main

import (
	"github.com/spf13/cobra"

	"github.com/shortlink-org/go-sdk/remoting/route"
)

// routeView is the printed form of a topic route.
type routeView struct {
	Route          *route.TopicRouteData `json:"route"`
	Topic          string                `json:"topic"`
	WritableQueues []route.MessageQueue  `json:"writableQueues"`
	ReadableQueues []route.MessageQueue  `json:"readableQueues"`
}

func newRouteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "route TOPIC",
		Short: "Print the route of a topic as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			topic := args[0]

			data, err := a.resolver.QueryRoute(cmd.Context(), topic)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), routeView{
				Topic:          topic,
				Route:          data,
				WritableQueues: data.WritableQueues(topic),
				ReadableQueues: data.ReadableQueues(topic),
			})
		},
	}
}

func newTopicsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List every topic known to the name servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			topics, err := a.resolver.TopicList(cmd.Context())
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), topics)
		},
	}
}
