// Command invoke runs HTTP calls described in YAML files.
//
//	invoke run search.yaml
//	invoke watch --interval 1m --metrics-addr :9090 search.yaml
//
// Every flag can also be set through an INVOKE_ environment variable,
// for example INVOKE_LOG_LEVEL=debug or INVOKE_CACHE=redis.
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("INVOKE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "invoke",
		Short:        "Run HTTP calls described in YAML files",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "info", "trace, debug, info, warn or error")
	flags.String("log-format", "console", "console or json")
	flags.Bool("curl", false, "log every request as a curl command at trace level")
	flags.String("cache", cacheMemory, "response cache backend: memory, dir, redis or sqlite")
	flags.String("cache-dir", "", "directory of the dir cache backend")
	flags.String("redis-addr", "localhost:6379", "address of the redis cache backend")
	flags.String("redis-prefix", "", "key prefix of the redis cache backend")
	flags.String("sqlite-path", "invoke-cache.db", "database file of the sqlite cache backend")
	flags.String("sqlite-table", "", "table of the sqlite cache backend")
	flags.String("probe-addr", "", "host:port dialed before each call to check the network")
	_ = v.BindPFlags(flags)

	root.AddCommand(newRunCmd(v), newWatchCmd(v))

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
