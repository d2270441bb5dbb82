/*
Package config loads fetchview settings from a YAML file, FETCHVIEW_*
environment variables and command-line flags, in increasing precedence.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HRemonen/fetchview/internal/fetcher"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "FETCHVIEW"

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Fetch struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRedirects   int           `mapstructure:"max_redirects"`
	IgnoreRobots   bool          `mapstructure:"ignore_robots"`
	UserAgent      string        `mapstructure:"user_agent"`
	Credentials    bool          `mapstructure:"credentials"`
	Redirect       string        `mapstructure:"redirect"`
	Filter         string        `mapstructure:"filter"`
	AllowedURLs    []string      `mapstructure:"allowed_urls"`
	DisallowedURLs []string      `mapstructure:"disallowed_urls"`
}

// Configuration is the complete set of settings.
type Configuration struct {
	Log   Log   `mapstructure:"log"`
	Fetch Fetch `mapstructure:"fetch"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("log.level", "warning")
	v.SetDefault("log.format", "text")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_redirects", fetcher.DefaultMaxRedirects)
	v.SetDefault("fetch.ignore_robots", false)
	v.SetDefault("fetch.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("fetch.credentials", false)
	v.SetDefault("fetch.redirect", fetcher.RedirectFollow.String())
	v.SetDefault("fetch.filter", "basic")
	v.SetDefault("fetch.allowed_urls", []string{})
	v.SetDefault("fetch.disallowed_urls", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads file, or fetchview.yaml from the working directory when file is
// empty, into v and decodes the result. A missing default file is not an error.
func Load(v *viper.Viper, file string) (*Configuration, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("fetchview")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); file != "" || !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c := &Configuration{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return c, nil
}

// FetcherOptions converts the fetch settings into fetcher options.
func (c *Configuration) FetcherOptions() []fetcher.Options {
	return []fetcher.Options{
		fetcher.WithMaxRedirects(c.Fetch.MaxRedirects),
		fetcher.WithIgnoreRobots(c.Fetch.IgnoreRobots),
		fetcher.WithUserAgent(c.Fetch.UserAgent),
		fetcher.WithCredentials(c.Fetch.Credentials),
		fetcher.WithAllowedURLs(c.Fetch.AllowedURLs),
		fetcher.WithDisallowedURLs(c.Fetch.DisallowedURLs),
	}
}
