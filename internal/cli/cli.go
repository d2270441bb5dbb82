/*
Package cli implements the fetchview command line.
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HRemonen/fetchview/internal/config"
	"github.com/HRemonen/fetchview/internal/fetcher"
	"github.com/HRemonen/fetchview/internal/logging"
	"github.com/HRemonen/fetchview/internal/response"
)

// NewRootCmd builds the fetchview command tree writing its output to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	v := config.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "fetchview",
		Short:         "fetchview shows what a fetch response looks like through each filtered view",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fetchview.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warning", "log level")
	rootCmd.PersistentFlags().String("log-format", "text", "log format, text or json")
	bindFlag(v, "log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag(v, "log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	getCmd := &cobra.Command{
		Use:   "get URL",
		Short: "Fetch URL and print the filtered response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}

			if err := logging.Configure(c.Log.Level, c.Log.Format, nil); err != nil {
				return err
			}

			return get(cmd.Context(), out, c, args[0])
		},
	}
	getCmd.Flags().String("filter", "basic", "filtered view: basic, cors, opaque or opaqueredirect")
	getCmd.Flags().String("redirect", "follow", "redirect mode: follow, manual or error")
	getCmd.Flags().Int("max-redirects", fetcher.DefaultMaxRedirects, "maximum number of redirects to follow")
	getCmd.Flags().Bool("ignore-robots", false, "do not consult robots.txt")
	getCmd.Flags().Bool("credentials", false, "treat the request as credentialed")
	getCmd.Flags().Duration("timeout", 0, "request timeout")
	bindFlag(v, "fetch.filter", getCmd.Flags().Lookup("filter"))
	bindFlag(v, "fetch.redirect", getCmd.Flags().Lookup("redirect"))
	bindFlag(v, "fetch.max_redirects", getCmd.Flags().Lookup("max-redirects"))
	bindFlag(v, "fetch.ignore_robots", getCmd.Flags().Lookup("ignore-robots"))
	bindFlag(v, "fetch.credentials", getCmd.Flags().Lookup("credentials"))
	bindFlag(v, "fetch.timeout", getCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(getCmd)

	return rootCmd
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

func get(ctx context.Context, out io.Writer, c *config.Configuration, rawURL string) error {
	kind, err := response.ParseKind(c.Fetch.Filter)
	if err != nil {
		return err
	}

	mode, err := fetcher.ParseRedirectMode(c.Fetch.Redirect)
	if err != nil {
		return err
	}

	f := fetcher.New(append(c.FetcherOptions(), fetcher.WithClient(&http.Client{Timeout: c.Fetch.Timeout}))...)

	raw, err := f.Fetch(ctx, rawURL, mode)
	if err != nil {
		return err
	}

	if body := raw.Body(); body != nil && body.Stream != nil {
		defer body.Stream.Close()
	}

	if raw.IsNetworkError() {
		fmt.Fprintf(out, "network error (aborted: %t)\n", raw.IsAbortedNetworkError())
		return nil
	}

	if mode == fetcher.RedirectManual && response.IsRedirectStatus(raw.Status()) {
		kind = response.KindOpaqueRedirect
	}

	view, err := response.Filter(raw, kind)
	if err != nil {
		return err
	}

	return printView(out, view)
}

func printView(out io.Writer, view *response.Filtered) error {
	if _, err := fmt.Fprintf(out, "type: %s\nstatus: %d %s\n", view.Type(), view.Status(), view.StatusMessage()); err != nil {
		return err
	}

	for _, u := range view.URLList() {
		fmt.Fprintf(out, "url: %s\n", u)
	}

	for h := range view.HeaderList().All() {
		fmt.Fprintf(out, "%s: %s\n", h.Name, h.Value)
	}

	switch body := view.Body(); {
	case body == nil:
		fmt.Fprintln(out, "body: null")
	case body.Length < 0:
		fmt.Fprintln(out, "body: unknown length")
	default:
		fmt.Fprintf(out, "body: %d bytes\n", body.Length)
	}

	return nil
}
