// Package flagx lets several configuration layers share os.Args: each layer
// picks out only the flags it owns and parses them with its own FlagSet.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps the flags listed in allowedFlags together with their
// values and drops everything else. Both "-f value" and "-f=value" forms are
// recognised; a following token that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// lookupPathFlag returns the value of a path flag available under a short and
// a long name; the last occurrence wins.
func lookupPathFlag(short, long, usage string) string {
	var path string
	args := FilterArgs(os.Args[1:], []string{"-" + short, "-" + long})

	fs := flag.NewFlagSet(long, flag.ContinueOnError)
	fs.StringVar(&path, long, "", usage)
	fs.StringVar(&path, short, "", usage+" (short)")
	_ = fs.Parse(args)

	return path
}

// JsonConfigFlags returns the JSON config path given via -c or -config.
func JsonConfigFlags() string {
	return lookupPathFlag("c", "config", "Path to config file")
}

// EnvFileFlags returns the dotenv file path given via -n or -envfile.
func EnvFileFlags() string {
	return lookupPathFlag("n", "envfile", "Path to .env file")
}
