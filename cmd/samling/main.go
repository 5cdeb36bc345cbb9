// samling builds a static photo gallery from a directory of images.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/tstromberg/samling/pkg/samling"
)

func main() {
	klog.InitFlags(nil)

	root := &cobra.Command{
		Use:           "samling",
		Short:         "Static photo gallery generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newCmd())
	root.AddCommand(buildCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		klog.Exitf("%v", err)
	}
}

func newCmd() *cobra.Command {
	var config string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new " + samling.ConfigFile + " and default theme",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := samling.DefaultConfig()

			if err := samling.WriteConfig(config, c); err != nil {
				if !errors.Is(err, fs.ErrExist) {
					return fmt.Errorf("write config: %w", err)
				}
				klog.Infof("%s exists, keeping it", config)
			} else {
				klog.Infof("wrote %s", config)
			}

			if err := samling.Scaffold(c.Theme.Path); err != nil {
				return fmt.Errorf("scaffold theme: %w", err)
			}

			if err := os.MkdirAll(c.Input, 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}
			klog.Infof("put your photos into %s and run: samling build", c.Input)
			return nil
		},
	}

	cmd.Flags().StringVarP(&config, "config", "c", samling.ConfigFile, "settings file to create")
	return cmd
}

func buildCmd() *cobra.Command {
	var (
		config string
		listen bool
		addr   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the static gallery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := samling.LoadConfig(config)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			r, err := samling.Build(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}
			fmt.Printf("%s: %s\n", c.Output, r.Summary())

			if listen {
				return serve(c.Output, addr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&config, "config", "c", samling.ConfigFile, "settings file to read")
	cmd.Flags().BoolVar(&listen, "listen", false, "serve content via HTTP after building")
	cmd.Flags().StringVar(&addr, "addr", "localhost:12800", "host:port to bind to in listen mode")
	return cmd
}

// serve serves a static web directory via HTTP
func serve(path string, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(path)))

	klog.Infof("Listening on %s...", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
