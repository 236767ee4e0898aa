package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/config"
	"github.com/leonardcser/ttl-cache/internal/daemon"
	"github.com/leonardcser/ttl-cache/internal/ttl"
)

var (
	rootCmd = &cobra.Command{
		Use:           "ttlctl",
		Short:         "Read and write the TTL cache daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	getCmd = &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := newClient().Get(args[0])
			if errors.Is(err, cache.ErrNotFound) {
				return fmt.Errorf("%s: not found", args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if md, ok := item.TTL.Get(); ok && viper.GetBool("verbose") {
				printTTL(out, md)
			}
			_, err = out.Write(item.Value)
			return err
		},
	}

	setCmd = &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store VALUE under KEY, optionally with a TTL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra cache.Extra
			if cmd.Flags().Changed("ttl") {
				extra = cache.Extra{ttl.KeyTTL: viper.GetInt("ttl")}
			}
			return newClient().Set(args[0], []byte(args[1]), extra)
		},
	}

	hasCmd = &cobra.Command{
		Use:   "has KEY",
		Short: "Report whether KEY holds a live value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := newClient().Has(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), found)
			return nil
		},
	}

	touchCmd = &cobra.Command{
		Use:   "touch KEY",
		Short: "Renew the deadline of KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().Touch(args[0])
			if err != nil {
				return err
			}
			md, ok := res.Get()
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no TTL\n", args[0])
				return nil
			}
			printTTL(cmd.OutOrStdout(), md)
			return nil
		},
	}

	delCmd = &cobra.Command{
		Use:     "del KEY",
		Aliases: []string{"rm"},
		Short:   "Remove KEY",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient().Delete(args[0])
		},
	}
)

func init() {
	rootCmd.PersistentFlags().String("socket", config.DefaultSocketPath(), "daemon socket path")
	rootCmd.PersistentFlags().Duration("timeout", 500*time.Millisecond, "dial timeout")
	_ = viper.BindPFlag("socket", rootCmd.PersistentFlags().Lookup("socket"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	getCmd.Flags().BoolP("verbose", "v", false, "print TTL details before the value")
	_ = viper.BindPFlag("verbose", getCmd.Flags().Lookup("verbose"))

	setCmd.Flags().Int("ttl", 0, "lifetime in seconds")
	_ = viper.BindPFlag("ttl", setCmd.Flags().Lookup("ttl"))

	viper.SetEnvPrefix("ttlcache")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(getCmd, setCmd, hasCmd, touchCmd, delCmd)
}

func newClient() *daemon.Client {
	return daemon.NewClient(viper.GetString("socket"), viper.GetDuration("timeout"))
}

func printTTL(w io.Writer, md ttl.Metadata) {
	fmt.Fprintf(w, "ttl:        %ds\ncreated:    %s (%s)\nvalid till: %s (%s)\n",
		md.TTL(),
		md.Created().Format(time.RFC3339), humanize.Time(md.Created()),
		md.ValidTill().Format(time.RFC3339), humanize.Time(md.ValidTill()),
	)
}
